package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/vmchat/pkg/adapters/memory"
	"github.com/aretw0/vmchat/pkg/domain"
	"github.com/aretw0/vmchat/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoHandler struct {
	calls int
}

func (e *echoHandler) Turn(_ context.Context, input string, history []domain.Message) domain.TurnResult {
	e.calls++
	return domain.TurnResult{Reply: "echo: " + input, Outcome: domain.OutcomeRawText}
}

func TestHandleChat(t *testing.T) {
	h := &echoHandler{}
	s := NewServer(h, "1.0.0\n")

	res, err := s.handleChat(context.Background(), mcp.CallToolRequest{}, ChatArgs{Message: "  list all vms "})
	require.NoError(t, err)
	assert.Equal(t, "echo: list all vms", res.Reply)
	assert.Equal(t, domain.OutcomeRawText, res.Outcome)
	assert.Empty(t, res.SessionID)
}

func TestHandleChat_Session(t *testing.T) {
	sessions := session.NewManager(memory.NewStore())
	s := NewServer(&echoHandler{}, "1.0.0", WithSessions(sessions))

	res, err := s.handleChat(context.Background(), mcp.CallToolRequest{}, ChatArgs{Message: "show vm1", SessionID: "agent-1"})
	require.NoError(t, err)
	assert.Equal(t, "agent-1", res.SessionID)

	history, err := sessions.History(context.Background(), "agent-1")
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestHandleChat_RejectsInput(t *testing.T) {
	h := &echoHandler{}
	s := NewServer(h, "1.0.0", WithMaxInputSize(4))

	_, err := s.handleChat(context.Background(), mcp.CallToolRequest{}, ChatArgs{Message: "restart vm1"})
	assert.Error(t, err)

	_, err = s.handleChat(context.Background(), mcp.CallToolRequest{}, ChatArgs{Message: ""})
	assert.Error(t, err)
	assert.Zero(t, h.calls)
}

func TestReadCapabilities(t *testing.T) {
	s := NewServer(&echoHandler{}, "1.0.0")

	contents, err := s.readCapabilities(context.Background(), mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, CapabilitiesURI, text.URI)

	var caps []domain.Capability
	require.NoError(t, json.Unmarshal([]byte(text.Text), &caps))
	require.Len(t, caps, 3)
	assert.Equal(t, domain.ActionManagePower, caps[2].Action)
	assert.Equal(t, []string{"start", "shutdown", "restart", "poweroff"}, caps[2].Parameters[1].Enum)
}
