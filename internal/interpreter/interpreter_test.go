package interpreter

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/aretw0/vmchat/internal/logging"
	"github.com/aretw0/vmchat/pkg/domain"
	"github.com/aretw0/vmchat/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCompleter struct {
	reply    string
	err      error
	requests []ports.CompletionRequest
}

func (s *stubCompleter) Complete(_ context.Context, req ports.CompletionRequest) (string, error) {
	s.requests = append(s.requests, req)
	return s.reply, s.err
}

func TestInterpret_Descriptor(t *testing.T) {
	stub := &stubCompleter{reply: `{"action": "manage_power", "vm_name": "vm1", "operation": "restart"}`}
	interp := New(stub, WithModel("gpt-3.5-turbo"))

	got := interp.Interpret(context.Background(), "restart vm1")

	require.Equal(t, domain.InterpretDescriptor, got.Kind)
	require.NotNil(t, got.Descriptor)
	assert.Equal(t, domain.ActionManagePower, got.Descriptor.Action)
	assert.Equal(t, "vm1", got.Descriptor.VMName)
	assert.Equal(t, domain.PowerRestart, got.Descriptor.Operation)

	require.Len(t, stub.requests, 1)
	req := stub.requests[0]
	assert.Equal(t, "gpt-3.5-turbo", req.Model)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, domain.RoleSystem, req.Messages[0].Role)
	assert.Equal(t, Prompt(domain.Capabilities), req.Messages[0].Content)
	assert.Equal(t, domain.Message{Role: domain.RoleUser, Content: "restart vm1"}, req.Messages[1])
}

func TestInterpret_Idempotent(t *testing.T) {
	stub := &stubCompleter{reply: `{"action": "get_vm_details", "vm_name": "db01"}`}
	interp := New(stub)

	first := interp.Interpret(context.Background(), "show db01")
	second := interp.Interpret(context.Background(), "show db01")

	assert.Equal(t, first, second)
}

func TestInterpret_RawText(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"Prose", "I can help you manage your virtual machines."},
		{"Array", `["list_vms"]`},
		{"Scalar", `42`},
		{"Null", `null`},
		{"Truncated", `{"action": "list_vms"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(&stubCompleter{reply: tt.reply}).Interpret(context.Background(), "hello")
			assert.Equal(t, domain.InterpretRawText, got.Kind)
			assert.Equal(t, tt.reply, got.Text)
			assert.Nil(t, got.Descriptor)
		})
	}
}

func TestInterpret_Errors(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		err     error
		wantMsg string
	}{
		{
			name:    "Transport",
			err:     domain.NewError(domain.KindTransport, "POST /chat/completions", errors.New("connection refused")),
			wantMsg: "OpenAI API error: connection refused",
		},
		{
			name:    "Upstream",
			err:     &domain.Error{Kind: domain.KindUpstream, Message: "HTTP 401: Incorrect API key provided"},
			wantMsg: "OpenAI API error: HTTP 401: Incorrect API key provided",
		},
		{
			name:    "Custom Endpoint Name",
			opts:    []Option{WithEndpointName("Azure OpenAI")},
			err:     &domain.Error{Kind: domain.KindParse, Message: "decode response"},
			wantMsg: "Azure OpenAI error: decode response",
		},
		{
			name:    "General",
			err:     errors.New("openai: model not set"),
			wantMsg: "General error: openai: model not set",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(&stubCompleter{err: tt.err}, tt.opts...).Interpret(context.Background(), "list all vms")
			assert.Equal(t, domain.InterpretError, got.Kind)
			assert.Equal(t, tt.wantMsg, got.Message)
			assert.ErrorIs(t, got.Err, tt.err)
		})
	}
}

func TestParse(t *testing.T) {
	t.Run("Code Fence", func(t *testing.T) {
		d, ok := Parse("```json\n{\"action\": \"list_vms\"}\n```")
		require.True(t, ok)
		assert.Equal(t, domain.ActionListVMs, d.Action)
	})

	t.Run("Weak Typing", func(t *testing.T) {
		d, ok := Parse(`{"action": "get_vm_details", "vm_name": 42}`)
		require.True(t, ok)
		assert.Equal(t, "42", d.VMName)
		assert.Equal(t, float64(42), d.Raw["vm_name"])
	})

	t.Run("Keeps Raw Fields", func(t *testing.T) {
		d, ok := Parse(`{"action": "list_vms", "note": "extra"}`)
		require.True(t, ok)
		assert.Equal(t, map[string]any{"action": "list_vms", "note": "extra"}, d.Fields())
	})

	t.Run("Missing Fields Are Empty", func(t *testing.T) {
		d, ok := Parse(`{"vm_name": "vm1"}`)
		require.True(t, ok)
		assert.Equal(t, domain.ActionName(""), d.Action)
		assert.Equal(t, "vm1", d.VMName)
	})

	t.Run("Undecodable Field Is Left Empty", func(t *testing.T) {
		d, ok := Parse(`{"action": {"name": "list_vms"}, "vm_name": "vm1"}`)
		require.True(t, ok)
		assert.Equal(t, domain.ActionName(""), d.Action)
		assert.Equal(t, "vm1", d.VMName)
	})
}

func TestInterpret_LogsPartialDecode(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithFormat(&buf, slog.LevelDebug, logging.FormatText)
	stub := &stubCompleter{reply: `{"action": {"name": "list_vms"}, "vm_name": "vm1"}`}
	interp := New(stub, WithLogger(logger))

	got := interp.Interpret(context.Background(), "list vms")

	require.Equal(t, domain.InterpretDescriptor, got.Kind)
	assert.Equal(t, "vm1", got.Descriptor.VMName)
	assert.Contains(t, buf.String(), "model reply partially decoded")
	assert.Contains(t, buf.String(), "action")

	_, ok, err := parse(`{"action": "list_vms"}`)
	assert.True(t, ok)
	assert.NoError(t, err)
}

func TestPrompt(t *testing.T) {
	p := Prompt(domain.Capabilities)

	assert.Contains(t, p, "You are an assistant for managing virtual machines via a vCenter API.")
	assert.Contains(t, p, `- "list_vms": Lists all virtual machines. No parameters are required.`)
	assert.Contains(t, p, `- "get_vm_details":`)
	assert.Contains(t, p, "  - vm_name (string): Name of the virtual machine.")
	assert.Contains(t, p, `One of "start", "shutdown", "restart", or "poweroff".`)
	assert.Contains(t, p, "JSON object")
}
