// Package runtime sequences the interpret, dispatch and compose stages of a
// chat turn.
package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/vmchat/internal/logging"
	"github.com/aretw0/vmchat/pkg/domain"
	"github.com/google/uuid"
)

// Interpreter maps user text onto an Interpretation.
type Interpreter interface {
	Interpret(ctx context.Context, userText string) domain.Interpretation
}

// Dispatcher performs the management API call for a descriptor.
type Dispatcher interface {
	Dispatch(ctx context.Context, desc domain.ActionDescriptor) domain.DispatchResult
}

// Composer narrates a dispatch result.
type Composer interface {
	// Compose always returns the reply to show; err reports a failed narration.
	Compose(ctx context.Context, userText string, desc domain.ActionDescriptor, result domain.DispatchResult) (string, error)
}

// Engine runs chat turns. It holds no per-turn state and is safe for
// concurrent use when its stages are.
type Engine struct {
	interpreter Interpreter
	dispatcher  Dispatcher
	composer    Composer
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	newID       func() string
	now         func() time.Time
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithIDGenerator replaces the turn ID generator (uuid by default).
func WithIDGenerator(fn func() string) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// NewEngine creates an engine from its three stages.
func NewEngine(interpreter Interpreter, dispatcher Dispatcher, composer Composer, opts ...EngineOption) *Engine {
	e := &Engine{
		interpreter: interpreter,
		dispatcher:  dispatcher,
		composer:    composer,
		logger:      logging.NewNop(),
		newID:       uuid.NewString,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// HandleTurn runs one turn and returns the reply text.
func (e *Engine) HandleTurn(ctx context.Context, userText string, history []domain.Message) string {
	return e.Turn(ctx, userText, history).Reply
}

// Turn runs one turn. The history is accepted for the surfaces' benefit and
// is not sent to the model.
//
// Raw-text and interpreter-error replies short-circuit: nothing is dispatched
// and nothing is composed. Dispatch failures are narrated by the composer.
func (e *Engine) Turn(ctx context.Context, userText string, history []domain.Message) domain.TurnResult {
	start := e.now()
	res := domain.TurnResult{ID: e.newID()}
	logger := e.logger.With("turn_id", res.ID)
	logger.DebugContext(ctx, "turn started", "history_len", len(history))

	stageStart := e.now()
	interp := e.interpreter.Interpret(ctx, userText)
	res.Interpretation = interp

	var action domain.ActionName
	if interp.Descriptor != nil {
		action = interp.Descriptor.Action
	}
	e.emitStage(ctx, res.ID, domain.StageInterpret, action, stageStart, interp.Kind == domain.InterpretError, domain.KindOf(interp.Err))

	switch interp.Kind {
	case domain.InterpretRawText:
		res.Outcome = domain.OutcomeRawText
		res.Reply = domain.RawTextPrefix + interp.Text
	case domain.InterpretError:
		res.Outcome = domain.OutcomeInterpretError
		res.Reply = domain.ErrorPrefix + interp.Message
	default:
		var desc domain.ActionDescriptor
		if interp.Descriptor != nil {
			desc = *interp.Descriptor
		}

		stageStart = e.now()
		result := e.dispatcher.Dispatch(ctx, desc)
		res.Dispatch = &result
		var kind domain.ErrorKind
		if result.Err != nil {
			kind = result.Err.Kind
		}
		e.emitStage(ctx, res.ID, domain.StageDispatch, action, stageStart, result.Failed(), kind)

		stageStart = e.now()
		reply, err := e.composer.Compose(ctx, userText, desc, result)
		res.Reply = reply
		res.Outcome = domain.OutcomeComposed
		e.emitStage(ctx, res.ID, domain.StageCompose, action, stageStart, err != nil, domain.KindOf(err))
	}

	duration := e.now().Sub(start)
	logger.InfoContext(ctx, "turn finished", "outcome", res.Outcome, "action", action, "duration", duration)
	if e.hooks.OnTurn != nil {
		e.hooks.OnTurn(ctx, &domain.TurnEvent{
			EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventTurn, TurnID: res.ID},
			Outcome:   res.Outcome,
			Action:    action,
			Duration:  duration,
		})
	}
	return res
}

func (e *Engine) emitStage(ctx context.Context, turnID string, stage domain.Stage, action domain.ActionName, started time.Time, failed bool, kind domain.ErrorKind) {
	if e.hooks.OnStage == nil {
		return
	}
	e.hooks.OnStage(ctx, &domain.StageEvent{
		EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventStage, TurnID: turnID},
		Stage:     stage,
		Action:    action,
		Duration:  e.now().Sub(started),
		IsError:   failed,
		ErrorKind: kind,
	})
}
