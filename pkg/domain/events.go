package domain

import (
	"context"
	"time"
)

// Stage names one step of the turn pipeline.
type Stage string

const (
	StageInterpret Stage = "interpret"
	StageDispatch  Stage = "dispatch"
	StageCompose   Stage = "compose"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStage EventType = "stage"
	EventTurn  EventType = "turn"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	TurnID    string    `json:"turn_id"`
}

// StageEvent is emitted after each pipeline stage completes.
type StageEvent struct {
	EventBase
	Stage     Stage         `json:"stage"`
	Action    ActionName    `json:"action,omitempty"`
	Duration  time.Duration `json:"duration"`
	IsError   bool          `json:"is_error,omitempty"`
	ErrorKind ErrorKind     `json:"error_kind,omitempty"`
}

// TurnEvent is emitted once a chat turn has produced its reply.
type TurnEvent struct {
	EventBase
	Outcome  TurnOutcome   `json:"outcome"`
	Action   ActionName    `json:"action,omitempty"`
	Duration time.Duration `json:"duration"`
}

// LifecycleHooks defines callbacks for pipeline observability.
type LifecycleHooks struct {
	OnStage func(context.Context, *StageEvent)
	OnTurn  func(context.Context, *TurnEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStage: func(ctx context.Context, e *StageEvent) {
			if h.OnStage != nil {
				h.OnStage(ctx, e)
			}
			if other.OnStage != nil {
				other.OnStage(ctx, e)
			}
		},
		OnTurn: func(ctx context.Context, e *TurnEvent) {
			if h.OnTurn != nil {
				h.OnTurn(ctx, e)
			}
			if other.OnTurn != nil {
				other.OnTurn(ctx, e)
			}
		},
	}
}
