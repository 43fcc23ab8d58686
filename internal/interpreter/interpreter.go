// Package interpreter turns free-text requests into action descriptors by
// asking a language model to answer with a JSON object.
package interpreter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/vmchat/internal/logging"
	"github.com/aretw0/vmchat/pkg/domain"
	"github.com/aretw0/vmchat/pkg/ports"
	"github.com/mitchellh/mapstructure"
)

// DefaultEndpointName prefixes completion endpoint errors.
const DefaultEndpointName = "OpenAI API"

// Interpreter asks the completion endpoint to map user text onto a capability.
type Interpreter struct {
	completer ports.Completer
	model     string
	endpoint  string
	prompt    string
	logger    *slog.Logger
}

// Option configures the Interpreter.
type Option func(*Interpreter)

// WithModel sets the model id sent with each completion request.
func WithModel(model string) Option {
	return func(i *Interpreter) {
		i.model = model
	}
}

// WithEndpointName sets the name used in endpoint error messages.
func WithEndpointName(name string) Option {
	return func(i *Interpreter) {
		if name != "" {
			i.endpoint = name
		}
	}
}

// WithCapabilities overrides the capability table rendered into the prompt.
func WithCapabilities(capabilities []domain.Capability) Option {
	return func(i *Interpreter) {
		i.prompt = Prompt(capabilities)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Interpreter) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// New creates an Interpreter backed by the given completer.
func New(completer ports.Completer, opts ...Option) *Interpreter {
	i := &Interpreter{
		completer: completer,
		endpoint:  DefaultEndpointName,
		prompt:    Prompt(domain.Capabilities),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Interpret sends the capability prompt and userText to the model.
// Failures are returned as an InterpretError variant, never as a Go error.
func (i *Interpreter) Interpret(ctx context.Context, userText string) domain.Interpretation {
	reply, err := i.completer.Complete(ctx, ports.CompletionRequest{
		Model: i.model,
		Messages: []domain.Message{
			{Role: domain.RoleSystem, Content: i.prompt},
			{Role: domain.RoleUser, Content: userText},
		},
	})
	if err != nil {
		kind := domain.KindOf(err)
		i.logger.WarnContext(ctx, "completion failed", "stage", domain.StageInterpret, "kind", kind, "error", err)
		return domain.InterpretFailure(i.failureMessage(err), err)
	}

	descriptor, ok, decodeErr := parse(reply)
	if !ok {
		i.logger.DebugContext(ctx, "model replied with prose", "length", len(reply))
		return domain.RawText(reply)
	}
	if decodeErr != nil {
		i.logger.DebugContext(ctx, "model reply partially decoded", "error", decodeErr)
	}
	i.logger.DebugContext(ctx, "interpreted request", "action", descriptor.Action)
	return domain.Interpreted(descriptor)
}

func (i *Interpreter) failureMessage(err error) string {
	switch domain.KindOf(err) {
	case domain.KindTransport, domain.KindUpstream, domain.KindParse:
		return fmt.Sprintf("%s error: %s", i.endpoint, err.Error())
	}
	return "General error: " + err.Error()
}

// Parse decodes a model reply into a descriptor. It reports false when the
// reply is not a JSON object; a surrounding Markdown code fence is ignored.
//
// Fields are decoded with weak typing, so {"vm_name": 42} yields "42".
// A field that cannot be decoded is left empty for validation to reject.
func Parse(reply string) (domain.ActionDescriptor, bool) {
	d, ok, _ := parse(reply)
	return d, ok
}

// parse is Parse that also returns the error of a partial decode.
func parse(reply string) (domain.ActionDescriptor, bool, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(stripFence(reply)), &raw); err != nil || raw == nil {
		return domain.ActionDescriptor{}, false, nil
	}

	var d domain.ActionDescriptor
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
		Result:           &d,
	})
	if err == nil {
		err = decoder.Decode(raw)
	}
	d.Raw = raw
	return d, true, err
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// Drop the info string ("json").
		s = s[nl+1:]
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}
