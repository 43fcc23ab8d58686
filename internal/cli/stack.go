package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/vmchat"
	"github.com/aretw0/vmchat/internal/metrics"
	"github.com/aretw0/vmchat/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/vmchat/pkg/adapters/redis"
	"github.com/aretw0/vmchat/pkg/config"
	"github.com/aretw0/vmchat/pkg/persistence/middleware"
	"github.com/aretw0/vmchat/pkg/ports"
	"github.com/aretw0/vmchat/pkg/session"
)

const redisPingTimeout = 5 * time.Second

// Options contains the settings shared by every command.
type Options struct {
	ConfigPath string
	Debug      bool
	// Quiet silences logging unless Debug is set.
	Quiet bool
	// AssistantOptions are passed through to vmchat.New.
	AssistantOptions []vmchat.Option
}

// Stack is the fully wired application: assistant, transcript store,
// session manager and metrics.
type Stack struct {
	Config    config.Config
	Logger    *slog.Logger
	Assistant *vmchat.Assistant
	Sessions  *session.Manager
	Metrics   *metrics.Metrics
	closers   []func() error
}

// LoadConfig reads and validates the configuration.
func LoadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// NewStack initializes every component from cfg.
func NewStack(cfg config.Config, opts Options) (*Stack, error) {
	logger, err := createLogger(cfg.Log, opts.Debug, opts.Quiet)
	if err != nil {
		return nil, fmt.Errorf("invalid log configuration: %w", err)
	}

	s := &Stack{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
	}

	hooks := s.Metrics.Hooks()
	if opts.Debug {
		hooks = hooks.Merge(createDebugHooks(logger))
	}

	assistantOpts := []vmchat.Option{
		vmchat.WithLogger(logger),
		vmchat.WithLifecycleHooks(hooks),
	}
	assistantOpts = append(assistantOpts, opts.AssistantOptions...)

	s.Assistant, err = vmchat.New(cfg, assistantOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing assistant: %w", err)
	}

	store, locker, err := s.createStore(cfg)
	if err != nil {
		return nil, err
	}
	store, err = hardenStore(store, cfg.Transcript)
	if err != nil {
		s.Close()
		return nil, err
	}

	managerOpts := []session.Option{session.WithLogger(logger)}
	if locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(locker))
	}
	s.Sessions = session.NewManager(store, managerOpts...)
	return s, nil
}

// createStore picks the Redis transcript store when a URL is configured and
// the in-memory one otherwise.
func (s *Stack) createStore(cfg config.Config) (ports.HistoryStore, ports.DistributedLocker, error) {
	if cfg.Redis.URL == "" {
		s.Logger.Debug("Using in-memory transcript store", "max_history", cfg.Redis.MaxHistory)
		return memory.NewStore(memory.WithMaxHistory(cfg.Redis.MaxHistory)), nil, nil
	}

	store, err := redisAdapter.New(cfg.Redis.URL,
		redisAdapter.WithTTL(cfg.Redis.HistoryTTL),
		redisAdapter.WithMaxHistory(cfg.Redis.MaxHistory),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("error initializing redis store: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("redis is unreachable: %w", err)
	}

	s.closers = append(s.closers, store.Close)
	s.Logger.Info("Using redis transcript store", "ttl", cfg.Redis.HistoryTTL, "max_history", cfg.Redis.MaxHistory)
	return store, redisAdapter.NewLocker(store.Client(), "vmchat:"), nil
}

// hardenStore wraps the transcript store with the configured redaction and
// encryption. Redaction runs first so masked text is what gets sealed.
func hardenStore(store ports.HistoryStore, cfg config.TranscriptConfig) (ports.HistoryStore, error) {
	var mws []middleware.Middleware
	if len(cfg.RedactPatterns) > 0 {
		mw, err := middleware.NewPIIMiddleware(cfg.RedactPatterns)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	key, err := cfg.EncryptionKeyBytes()
	if err != nil {
		return nil, err
	}
	if key != nil {
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	return middleware.Chain(store, mws...), nil
}

// Close releases external connections.
func (s *Stack) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
