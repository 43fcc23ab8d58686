// Package dispatcher maps action descriptors onto management API calls.
package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/aretw0/vmchat/internal/logging"
	"github.com/aretw0/vmchat/pkg/domain"
	"github.com/aretw0/vmchat/pkg/ports"
)

// maxSnippet bounds how much of a non-JSON body is quoted in an error.
const maxSnippet = 200

// Dispatcher validates a descriptor and performs exactly one management API call.
type Dispatcher struct {
	api    ports.ManagementAPI
	logger *slog.Logger
}

// Option configures the Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New creates a Dispatcher for the given management API.
func New(api ports.ManagementAPI, opts ...Option) *Dispatcher {
	d := &Dispatcher{api: api, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch executes the descriptor. Invalid descriptors are rejected without
// a network call. A JSON body is returned verbatim whatever its HTTP status.
func (d *Dispatcher) Dispatch(ctx context.Context, desc domain.ActionDescriptor) domain.DispatchResult {
	if err := desc.Validate(); err != nil {
		d.logger.WarnContext(ctx, "descriptor rejected", "action", desc.Action, "kind", domain.KindOf(err), "error", err)
		return domain.DispatchFailed(asDomainError(err))
	}

	resp, err := d.call(ctx, desc)
	if err != nil {
		d.logger.WarnContext(ctx, "management API call failed", "action", desc.Action, "error", err)
		return domain.DispatchFailed(&domain.Error{
			Kind:    domain.KindTransport,
			Op:      string(desc.Action),
			Message: "HTTP request error",
			Err:     err,
		})
	}

	if !json.Valid(resp.Body) {
		d.logger.WarnContext(ctx, "management API returned non-JSON body", "action", desc.Action, "status", resp.StatusCode)
		return domain.DispatchFailed(&domain.Error{
			Kind:    domain.KindParse,
			Op:      string(desc.Action),
			Message: fmt.Sprintf("Invalid JSON response from management API (HTTP %d): %s", resp.StatusCode, snippet(resp.Body)),
		})
	}

	d.logger.DebugContext(ctx, "management API answered", "action", desc.Action, "status", resp.StatusCode)
	return domain.DispatchOK(resp.StatusCode, json.RawMessage(resp.Body))
}

func (d *Dispatcher) call(ctx context.Context, desc domain.ActionDescriptor) (*ports.ManagementResponse, error) {
	switch desc.Action {
	case domain.ActionListVMs:
		return d.api.ListVMs(ctx)
	case domain.ActionGetVMDetails:
		return d.api.GetVMDetails(ctx, strings.TrimSpace(desc.VMName))
	case domain.ActionManagePower:
		op := domain.PowerOperation(strings.TrimSpace(string(desc.Operation)))
		return d.api.ManagePower(ctx, strings.TrimSpace(desc.VMName), op)
	}
	// Unreachable after Validate.
	return nil, domain.ErrInvalidAction
}

func asDomainError(err error) *domain.Error {
	if e, ok := err.(*domain.Error); ok {
		return e
	}
	return &domain.Error{Kind: domain.KindInvalidAction, Err: err}
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if s == "" {
		return "empty body"
	}
	s = strings.ToValidUTF8(s, "\uFFFD")
	if len(s) > maxSnippet {
		cut := maxSnippet
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		return s[:cut] + "..."
	}
	return s
}
