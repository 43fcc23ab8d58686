package vmchat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/vmchat/internal/composer"
	"github.com/aretw0/vmchat/internal/dispatcher"
	"github.com/aretw0/vmchat/internal/interpreter"
	"github.com/aretw0/vmchat/internal/logging"
	"github.com/aretw0/vmchat/internal/runtime"
	"github.com/aretw0/vmchat/pkg/adapters/openai"
	"github.com/aretw0/vmchat/pkg/adapters/vcenter"
	"github.com/aretw0/vmchat/pkg/config"
	"github.com/aretw0/vmchat/pkg/domain"
	"github.com/aretw0/vmchat/pkg/ports"
)

var _ ports.TurnHandler = (*Assistant)(nil)

// Assistant is the high-level entry point of the library.
// It wires the interpreter, dispatcher and composer around the configured
// completion endpoint and management API.
type Assistant struct {
	runtime    *runtime.Engine
	completer  ports.Completer
	management ports.ManagementAPI
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	cfg        config.Config
}

// Option defines a functional option for configuring the Assistant.
type Option func(*Assistant)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(a *Assistant) {
		a.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assistant) {
		a.logger = logger
	}
}

// WithCompleter injects a completion endpoint, bypassing the OpenAI client.
func WithCompleter(c ports.Completer) Option {
	return func(a *Assistant) {
		a.completer = c
	}
}

// WithManagementAPI injects a management API, bypassing the HTTP client.
func WithManagementAPI(api ports.ManagementAPI) Option {
	return func(a *Assistant) {
		a.management = api
	}
}

// New initializes an Assistant from cfg.
// The completion API key and management base URL are only required for the
// clients that are not injected through options.
func New(cfg config.Config, opts ...Option) (*Assistant, error) {
	a := &Assistant{cfg: cfg}
	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		a.logger = logging.NewNop()
	}

	if a.completer == nil {
		if cfg.Completion.APIKey == "" {
			return nil, config.ErrMissingAPIKey
		}
		a.completer = openai.New(cfg.Completion.APIKey,
			openai.WithBaseURL(cfg.Completion.BaseURL),
			openai.WithModel(cfg.Completion.Model),
			openai.WithTimeout(cfg.RequestTimeout),
		)
	}
	if a.management == nil {
		if cfg.Management.BaseURL == "" {
			return nil, config.ErrMissingBaseURL
		}
		a.management = vcenter.New(cfg.Management.BaseURL, vcenter.WithTimeout(cfg.RequestTimeout))
	}
	if cfg.Completion.Model == "" {
		return nil, fmt.Errorf("completion model is empty")
	}

	a.runtime = runtime.NewEngine(
		interpreter.New(a.completer,
			interpreter.WithModel(cfg.Completion.Model),
			interpreter.WithEndpointName(cfg.Completion.EndpointName),
			interpreter.WithLogger(a.logger),
		),
		dispatcher.New(a.management, dispatcher.WithLogger(a.logger)),
		composer.New(a.completer,
			composer.WithModel(cfg.Completion.Model),
			composer.WithLogger(a.logger),
		),
		runtime.WithLifecycleHooks(a.hooks),
		runtime.WithLogger(a.logger),
	)
	return a, nil
}

// HandleTurn runs one chat turn and returns the reply text.
func (a *Assistant) HandleTurn(ctx context.Context, userText string, history []domain.Message) string {
	return a.runtime.HandleTurn(ctx, userText, history)
}

// Turn runs one chat turn and returns the reply with the steps that produced it.
func (a *Assistant) Turn(ctx context.Context, userText string, history []domain.Message) domain.TurnResult {
	return a.runtime.Turn(ctx, userText, history)
}

// Capabilities returns the actions the assistant can forward.
func (a *Assistant) Capabilities() []domain.Capability {
	return append([]domain.Capability(nil), domain.Capabilities...)
}

// Config returns the configuration the assistant was built with.
func (a *Assistant) Config() config.Config {
	return a.cfg
}
