package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/vmchat/internal/logging"
	"github.com/aretw0/vmchat/pkg/config"
	"github.com/aretw0/vmchat/pkg/domain"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	start  sync.Once
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	sc.start.Do(func() {
		signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case sig := <-sc.sigCh:
				sc.mu.Lock()
				sc.sigVal = sig
				sc.mu.Unlock()
				sc.Cancel()
			case <-sc.Context.Done():
				// Context cancelled elsewhere
			}
			sc.stop.Do(func() {
				signal.Stop(sc.sigCh)
			})
		}()
	})

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// createLogger configures the application logger. It always writes to
// Stderr. Debug forces the debug level; quiet surfaces (terminal chat, MCP on
// stdio) get a no-op logger unless debugging.
func createLogger(cfg config.LogConfig, debug, quiet bool) (*slog.Logger, error) {
	format := logging.Format(cfg.Format)
	if debug {
		return logging.NewWithFormat(os.Stderr, slog.LevelDebug, format), nil
	}
	if quiet {
		return logging.NewNop(), nil
	}
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewWithFormat(os.Stderr, level, format), nil
}

func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStage: func(ctx context.Context, e *domain.StageEvent) {
			if e.IsError {
				logger.Debug("Stage Failed", "turn_id", e.TurnID, "stage", e.Stage, "action", e.Action, "kind", e.ErrorKind, "duration", e.Duration)
				return
			}
			logger.Debug("Stage Done", "turn_id", e.TurnID, "stage", e.Stage, "action", e.Action, "duration", e.Duration)
		},
		OnTurn: func(ctx context.Context, e *domain.TurnEvent) {
			logger.Debug("Turn Done", "turn_id", e.TurnID, "outcome", e.Outcome, "action", e.Action, "duration", e.Duration)
		},
	}
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

func isInterrupted(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, io.EOF)
}

func handleExecutionError(err error) error {
	if isInterrupted(err) {
		return nil // Exit 0 for interruptions
	}
	return err
}
