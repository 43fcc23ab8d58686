// Package composer asks the language model to narrate a dispatch result.
package composer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aretw0/vmchat/internal/logging"
	"github.com/aretw0/vmchat/pkg/domain"
	"github.com/aretw0/vmchat/pkg/ports"
)

// SystemPrompt is the system message sent with every composition request.
const SystemPrompt = "You are a helpful assistant."

// FailurePrefix starts the reply returned when composition fails.
const FailurePrefix = "Error enhancing response with AI: "

const promptTemplate = `You are an assistant enhancing responses for a virtual machine management system.
Based on the following details, generate a clear and friendly summary:
- User Input: %s
- Parsed Command: %s
- vCenter API Response: %s
Ensure the response is concise and helpful for the user.
`

// Composer turns a dispatch result into a natural-language reply.
type Composer struct {
	completer ports.Completer
	model     string
	logger    *slog.Logger
}

// Option configures the Composer.
type Option func(*Composer)

// WithModel sets the model id sent with each completion request.
func WithModel(model string) Option {
	return func(c *Composer) {
		c.model = model
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Composer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Composer backed by the given completer.
func New(completer ports.Completer, opts ...Option) *Composer {
	c := &Composer{completer: completer, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose returns the model's summary. On failure the reply is FailurePrefix
// followed by the cause, and the cause is returned as well.
func (c *Composer) Compose(ctx context.Context, userText string, desc domain.ActionDescriptor, result domain.DispatchResult) (string, error) {
	prompt, err := BuildPrompt(userText, desc, result)
	if err != nil {
		return FailurePrefix + err.Error(), err
	}

	reply, err := c.completer.Complete(ctx, ports.CompletionRequest{
		Model: c.model,
		Messages: []domain.Message{
			{Role: domain.RoleSystem, Content: SystemPrompt},
			{Role: domain.RoleUser, Content: prompt},
		},
	})
	if err != nil {
		c.logger.WarnContext(ctx, "completion failed", "stage", domain.StageCompose, "kind", domain.KindOf(err), "error", err)
		return FailurePrefix + err.Error(), err
	}
	return reply, nil
}

// BuildPrompt renders the composition prompt. The descriptor is embedded as
// the model produced it and the result as the API returned it, both as
// two-space indented JSON.
func BuildPrompt(userText string, desc domain.ActionDescriptor, result domain.DispatchResult) (string, error) {
	command, err := json.MarshalIndent(desc.Fields(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode command: %w", err)
	}
	response, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode response: %w", err)
	}
	return fmt.Sprintf(promptTemplate, userText, command, response), nil
}
