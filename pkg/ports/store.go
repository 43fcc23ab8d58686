package ports

import (
	"context"

	"github.com/aretw0/vmchat/pkg/domain"
)

// HistoryStore persists chat transcripts for surfaces that keep them.
// The turn pipeline itself never reads it.
type HistoryStore interface {
	// Append adds messages to the end of the session transcript, creating it if needed.
	Append(ctx context.Context, sessionID string, msgs ...domain.Message) error

	// Load retrieves the transcript of a session, oldest first.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) ([]domain.Message, error)

	// Delete removes the transcript of a session.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of the stored sessions.
	List(ctx context.Context) ([]string, error)
}
