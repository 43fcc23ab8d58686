package vmchat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/vmchat/pkg/input"
)

// TurnFunc runs one chat turn for the Runner.
type TurnFunc func(ctx context.Context, text string) (string, error)

// ContentRenderer transforms a reply before it is written, e.g. markdown to ANSI.
type ContentRenderer func(string) (string, error)

// Runner is a line-oriented chat loop over arbitrary IO.
// It is used by the terminal chat command and by tests.
type Runner struct {
	Input        io.Reader
	Output       io.Writer
	Headless     bool
	Renderer     ContentRenderer
	MaxInputSize int
}

// NewRunner creates a Runner. Input and Output must be set before Run.
func NewRunner() *Runner {
	return &Runner{MaxInputSize: input.DefaultMaxSize}
}

// Run reads one request per line and writes one reply per request until EOF,
// "exit"/"quit", or ctx is done.
func (r *Runner) Run(ctx context.Context, turn TurnFunc) error {
	if r.Input == nil {
		return errors.New("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return errors.New("output writer must be set (use os.Stdout)")
	}

	lines := make(chan string)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		reader := bufio.NewReader(r.Input)
		for {
			text, err := reader.ReadString('\n')
			if text != "" {
				select {
				case lines <- text:
				case <-done:
					return
				}
			}
			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	for {
		if !r.Headless {
			fmt.Fprint(r.Output, "> ")
		}

		var line string
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		case line = <-lines:
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if trimmed == "exit" || trimmed == "quit" {
			if !r.Headless {
				fmt.Fprintln(r.Output, "Bye!")
			}
			return nil
		}

		text, err := input.Sanitize(trimmed, r.MaxInputSize)
		if err != nil {
			fmt.Fprintf(r.Output, "Error: %v\n", err)
			continue
		}

		reply, err := turn(ctx, text)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(r.Output, "Error: %v\n", err)
			continue
		}

		output := reply
		if r.Renderer != nil {
			if rendered, err := r.Renderer(reply); err == nil {
				output = rendered
			}
		}
		fmt.Fprintln(r.Output, strings.TrimSpace(output))
	}
}
