package composer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

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

func TestCompose(t *testing.T) {
	stub := &stubCompleter{reply: "You have two VMs: vm1 and vm2."}
	c := New(stub, WithModel("gpt-3.5-turbo"))

	desc := domain.ActionDescriptor{Action: domain.ActionListVMs, Raw: map[string]any{"action": "list_vms"}}
	result := domain.DispatchOK(200, json.RawMessage(`[{"name":"vm1"},{"name":"vm2"}]`))

	reply, err := c.Compose(context.Background(), "list all vms", desc, result)

	require.NoError(t, err)
	assert.Equal(t, "You have two VMs: vm1 and vm2.", reply)
	require.Len(t, stub.requests, 1)
	req := stub.requests[0]
	assert.Equal(t, "gpt-3.5-turbo", req.Model)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, domain.Message{Role: domain.RoleSystem, Content: SystemPrompt}, req.Messages[0])
	assert.Contains(t, req.Messages[1].Content, "- User Input: list all vms")
	assert.Contains(t, req.Messages[1].Content, "- Parsed Command: {\n  \"action\": \"list_vms\"\n}")
}

func TestCompose_Failure(t *testing.T) {
	stub := &stubCompleter{err: &domain.Error{Kind: domain.KindUpstream, Message: "HTTP 429: Rate limit reached"}}

	reply, err := New(stub).Compose(context.Background(), "list all vms",
		domain.ActionDescriptor{Action: domain.ActionListVMs},
		domain.DispatchOK(200, json.RawMessage(`[]`)))

	assert.Equal(t, "Error enhancing response with AI: HTTP 429: Rate limit reached", reply)
	assert.Equal(t, domain.KindUpstream, domain.KindOf(err))
}

func TestCompose_NarratesDispatchError(t *testing.T) {
	stub := &stubCompleter{reply: "That action is not supported."}

	reply, err := New(stub).Compose(context.Background(), "do a backflip",
		domain.ActionDescriptor{Action: "bogus", Raw: map[string]any{"action": "bogus"}},
		domain.DispatchFailed(&domain.Error{Kind: domain.KindInvalidAction, Err: domain.ErrInvalidAction}))

	require.NoError(t, err)
	assert.Equal(t, "That action is not supported.", reply)
	assert.Contains(t, stub.requests[0].Messages[1].Content, "- vCenter API Response: {\n  \"error\": \"Invalid action\"\n}")
}

func TestBuildPrompt_IndentsResponse(t *testing.T) {
	prompt, err := BuildPrompt("show vm1",
		domain.ActionDescriptor{Action: domain.ActionGetVMDetails, VMName: "vm1"},
		domain.DispatchOK(200, json.RawMessage(`{"name":"vm1","cpu":2}`)))
	require.NoError(t, err)

	assert.Contains(t, prompt, "- vCenter API Response: {\n  \"name\": \"vm1\",\n  \"cpu\": 2\n}")
	assert.Contains(t, prompt, "\"vm_name\": \"vm1\"")
	assert.Contains(t, prompt, "Ensure the response is concise and helpful for the user.")
}

func TestCompose_UnrelatedError(t *testing.T) {
	stub := &stubCompleter{err: errors.New("boom")}
	reply, err := New(stub).Compose(context.Background(), "x", domain.ActionDescriptor{}, domain.DispatchResult{})
	assert.Equal(t, FailurePrefix+"boom", reply)
	assert.EqualError(t, err, "boom")
}
