package ports

import (
	"context"

	"github.com/aretw0/vmchat/pkg/domain"
)

// CompletionRequest is one call to a chat completion endpoint.
type CompletionRequest struct {
	// Model overrides the client's default model when set.
	Model    string
	Messages []domain.Message
}

// Completer is a language-model chat completion endpoint.
// Failures should be returned as *domain.Error tagged with
// KindTransport, KindUpstream or KindParse.
type Completer interface {
	// Complete returns the content of the first choice.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, req CompletionRequest) (string, error)

// Complete calls f(ctx, req).
func (f CompleterFunc) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	return f(ctx, req)
}
