package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/vmchat"
	"github.com/aretw0/vmchat/internal/presentation/tui"
	"github.com/aretw0/vmchat/pkg/domain"
	"github.com/aretw0/vmchat/pkg/input"
	"github.com/google/uuid"
)

// ChatOptions configures the terminal chat.
type ChatOptions struct {
	// SessionID resumes a stored transcript; a new one is generated when empty.
	SessionID string
	// Fresh discards the stored transcript before starting.
	Fresh bool
	// Headless disables the banner, prompts and system messages.
	Headless bool
	// Markdown renders replies with glamour.
	Markdown bool
}

// RunChat runs the interactive chat loop until EOF, "exit" or ctx is done.
func RunChat(ctx context.Context, stack *Stack, opts ChatOptions, in io.Reader, out io.Writer) error {
	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	if opts.Fresh {
		if err := stack.Sessions.Delete(ctx, sessionID); err != nil {
			return fmt.Errorf("error resetting session: %w", err)
		}
	}

	if !opts.Headless {
		tui.PrintBanner(out, vmchat.Version)
		history, err := stack.Sessions.History(ctx, sessionID)
		switch {
		case err == nil:
			printSystemMessage(out, "Resuming session '%s' (%d messages).", sessionID, len(history))
		case errors.Is(err, domain.ErrSessionNotFound):
			printSystemMessage(out, "Session '%s' active.", sessionID)
		default:
			return fmt.Errorf("error loading session: %w", err)
		}
	}

	runner := vmchat.NewRunner()
	runner.Input = in
	runner.Output = out
	runner.Headless = opts.Headless
	runner.MaxInputSize = stack.Config.MaxInputSize
	if opts.Markdown && !opts.Headless {
		runner.Renderer = tui.NewRenderer()
	}

	err := runner.Run(ctx, func(ctx context.Context, text string) (string, error) {
		res, err := stack.Sessions.Turn(ctx, sessionID, text, stack.Assistant)
		if err != nil {
			return "", err
		}
		stack.Logger.Debug("Turn Stored", "session_id", sessionID, "turn_id", res.ID)
		return res.Reply, nil
	})
	if isInterrupted(err) && !opts.Headless {
		fmt.Fprintln(out)
		printSystemMessage(out, "Interrupted. Resume with --session %s", sessionID)
	}
	return handleExecutionError(err)
}

// RunAsk runs a single turn. With a session ID the exchange is added to that
// session's transcript.
func RunAsk(ctx context.Context, stack *Stack, sessionID, message string) (domain.TurnResult, error) {
	text, err := input.Sanitize(message, stack.Config.MaxInputSize)
	if err != nil {
		return domain.TurnResult{}, err
	}
	if sessionID == "" {
		return stack.Assistant.Turn(ctx, text, nil), nil
	}
	return stack.Sessions.Turn(ctx, sessionID, text, stack.Assistant)
}
