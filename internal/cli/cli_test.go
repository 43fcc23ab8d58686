package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/vmchat/pkg/config"
	"github.com/aretw0/vmchat/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServices starts an OpenAI-compatible endpoint and a management API.
// The model maps "list ..." to list_vms, anything else to prose, and answers
// composition prompts with a fixed summary.
func fakeServices(t *testing.T) config.Config {
	t.Helper()

	llm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []domain.Message `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		content := "I only manage virtual machines."
		switch {
		case req.Messages[0].Content == "You are a helpful assistant.":
			content = "You have two VMs: vm1 and vm2."
		case strings.HasPrefix(req.Messages[1].Content, "list"):
			content = `{"action": "list_vms"}`
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": content}}},
		})
	}))
	t.Cleanup(llm.Close)

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"name":"vm1"},{"name":"vm2"}]`))
	}))
	t.Cleanup(api.Close)

	cfg := config.Default()
	cfg.Completion.APIKey = "sk-test"
	cfg.Completion.BaseURL = llm.URL
	cfg.Management.BaseURL = api.URL
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestRunChat_Headless(t *testing.T) {
	stack, err := NewStack(fakeServices(t), Options{Quiet: true})
	require.NoError(t, err)
	defer stack.Close()

	var out bytes.Buffer
	in := strings.NewReader("list all vms\ntell me a joke\nexit\n")

	err = RunChat(context.Background(), stack, ChatOptions{SessionID: "s1", Headless: true}, in, &out)
	require.NoError(t, err)

	assert.Equal(t, "You have two VMs: vm1 and vm2.\nAI Response: I only manage virtual machines.\n", out.String())

	history, err := stack.Sessions.History(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, "list all vms", history[0].Content)
	assert.Equal(t, domain.RoleAssistant, history[3].Role)
}

func TestRunChat_BannerAndResume(t *testing.T) {
	stack, err := NewStack(fakeServices(t), Options{Quiet: true})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, RunChat(ctx, stack, ChatOptions{SessionID: "s2", Headless: true}, strings.NewReader("list vms\n"), &bytes.Buffer{}))

	var out bytes.Buffer
	require.NoError(t, RunChat(ctx, stack, ChatOptions{SessionID: "s2"}, strings.NewReader("quit\n"), &out))
	assert.Contains(t, out.String(), ">>> Resuming session 's2' (2 messages).")
	assert.Contains(t, out.String(), "Bye!")

	out.Reset()
	require.NoError(t, RunChat(ctx, stack, ChatOptions{SessionID: "s2", Fresh: true}, strings.NewReader(""), &out))
	assert.Contains(t, out.String(), ">>> Session 's2' active.")
}

func TestRunAsk(t *testing.T) {
	stack, err := NewStack(fakeServices(t), Options{Quiet: true})
	require.NoError(t, err)
	ctx := context.Background()

	res, err := RunAsk(ctx, stack, "", "list all vms")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeComposed, res.Outcome)
	assert.Equal(t, "You have two VMs: vm1 and vm2.", res.Reply)

	sessions, err := stack.Sessions.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions, "stateless ask must not store a transcript")

	_, err = RunAsk(ctx, stack, "kept", "list all vms")
	require.NoError(t, err)
	history, err := stack.Sessions.History(ctx, "kept")
	require.NoError(t, err)
	assert.Len(t, history, 2)

	_, err = RunAsk(ctx, stack, "", "   ")
	assert.Error(t, err)
}

func TestNewStack_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := fakeServices(t)
	cfg.Redis.URL = "redis://" + mr.Addr()

	stack, err := NewStack(cfg, Options{Quiet: true})
	require.NoError(t, err)
	defer stack.Close()

	_, err = RunAsk(context.Background(), stack, "r1", "list all vms")
	require.NoError(t, err)

	assert.True(t, mr.Exists("vmchat:history:r1"))
	assert.False(t, mr.Exists("vmchat:lock:r1"), "lock must be released after the turn")
}

func TestNewStack_EncryptedTranscripts(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := fakeServices(t)
	cfg.Redis.URL = "redis://" + mr.Addr()
	cfg.Transcript.EncryptionKey = base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
	cfg.Transcript.RedactPatterns = []string{`vm\d`}

	stack, err := NewStack(cfg, Options{Quiet: true})
	require.NoError(t, err)
	defer stack.Close()

	ctx := context.Background()
	_, err = RunAsk(ctx, stack, "r1", "list all vms")
	require.NoError(t, err)

	raw, err := mr.List("vmchat:history:r1")
	require.NoError(t, err)
	require.Len(t, raw, 2)
	assert.NotContains(t, raw[0], "list all vms")

	history, err := stack.Sessions.History(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "list all vms", history[0].Content)
	assert.Equal(t, "You have two VMs: *** and ***.", history[1].Content)
}

func TestNewStack_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := fakeServices(t)
	cfg.Redis.URL = "redis://" + addr

	_, err := NewStack(cfg, Options{Quiet: true})
	assert.ErrorContains(t, err, "redis is unreachable")
}

func TestNewStack_InvalidLogLevel(t *testing.T) {
	cfg := fakeServices(t)
	cfg.Log.Level = "loud"

	_, err := NewStack(cfg, Options{})
	assert.Error(t, err)
}

func TestHandleExecutionError(t *testing.T) {
	assert.NoError(t, handleExecutionError(context.Canceled))
	assert.NoError(t, handleExecutionError(nil))
	assert.Error(t, handleExecutionError(assert.AnError))
}
