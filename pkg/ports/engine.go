package ports

import (
	"context"

	"github.com/aretw0/vmchat/pkg/domain"
)

// TurnHandler runs one chat turn.
// This is the interface used by surfaces (HTTP, MCP, terminal).
type TurnHandler interface {
	// Turn never fails: every failure is rendered into TurnResult.Reply.
	Turn(ctx context.Context, input string, history []domain.Message) domain.TurnResult
}
