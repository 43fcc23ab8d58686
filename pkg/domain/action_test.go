package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionDescriptor_Validate(t *testing.T) {
	tests := []struct {
		name    string
		desc    ActionDescriptor
		kind    ErrorKind
		message string
	}{
		{name: "list", desc: ActionDescriptor{Action: ActionListVMs}},
		{name: "details", desc: ActionDescriptor{Action: ActionGetVMDetails, VMName: "vm1"}},
		{name: "power", desc: ActionDescriptor{Action: ActionManagePower, VMName: "vm1", Operation: PowerRestart}},
		{name: "empty action", desc: ActionDescriptor{}, kind: KindInvalidAction, message: "Invalid action"},
		{name: "unknown action", desc: ActionDescriptor{Action: "bogus"}, kind: KindInvalidAction, message: "Invalid action"},
		{name: "details without name", desc: ActionDescriptor{Action: ActionGetVMDetails, VMName: "  "}, kind: KindInvalidParameter, message: "Missing required parameter: vm_name"},
		{name: "power without operation", desc: ActionDescriptor{Action: ActionManagePower, VMName: "vm1"}, kind: KindInvalidParameter, message: "Missing required parameter: operation"},
		{name: "power with unknown operation", desc: ActionDescriptor{Action: ActionManagePower, VMName: "vm1", Operation: "suspend"}, kind: KindInvalidParameter, message: "Invalid operation: suspend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.desc.Validate()
			if tt.kind == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.kind, KindOf(err))
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestValidate_InvalidActionSentinel(t *testing.T) {
	err := ActionDescriptor{Action: "bogus"}.Validate()
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestActionDescriptor_Fields(t *testing.T) {
	d := ActionDescriptor{Action: ActionManagePower, VMName: "vm1", Operation: PowerStart}
	assert.Equal(t, map[string]any{"action": "manage_power", "vm_name": "vm1", "operation": "start"}, d.Fields())

	raw := map[string]any{"action": "list_vms", "note": 3.0}
	d = ActionDescriptor{Action: ActionListVMs, Raw: raw}
	fields := d.Fields()
	assert.Equal(t, raw, fields)

	fields["note"] = "changed"
	assert.Equal(t, 3.0, raw["note"], "Fields returns a copy")
}

func TestPowerOperation_Valid(t *testing.T) {
	for _, op := range PowerOperations() {
		assert.True(t, op.Valid(), op)
	}
	assert.False(t, PowerOperation("hibernate").Valid())
}

func TestCapabilities(t *testing.T) {
	require.Len(t, Capabilities, 3)

	c, ok := LookupCapability(ActionManagePower)
	require.True(t, ok)
	require.Len(t, c.Parameters, 2)
	assert.Equal(t, []string{"start", "shutdown", "restart", "poweroff"}, c.Parameters[1].Enum)

	_, ok = LookupCapability("bogus")
	assert.False(t, ok)
}

func TestDispatchResult_MarshalJSON(t *testing.T) {
	ok := DispatchOK(200, json.RawMessage(`[{"name":"vm1"}]`))
	data, err := json.Marshal(ok)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"vm1"}]`, string(data))
	assert.False(t, ok.Failed())

	failed := DispatchFailed(&Error{Kind: KindInvalidAction, Err: ErrInvalidAction})
	data, err = json.Marshal(failed)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"Invalid action"}`, string(data))
	assert.True(t, failed.Failed())

	data, err = json.Marshal(DispatchResult{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestError(t *testing.T) {
	cause := errors.New("connection refused")
	err := &Error{Kind: KindTransport, Op: "GET /vms", Message: "HTTP request error", Err: cause}

	assert.Equal(t, "HTTP request error: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("dispatch: %w", err)
	assert.Equal(t, KindTransport, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, KindTransport))
	assert.False(t, IsKind(wrapped, KindParse))
	assert.Equal(t, ErrorKind(""), KindOf(cause))

	assert.Equal(t, "parse error", (&Error{Kind: KindParse}).Error())
	assert.Equal(t, "boom", NewError(KindUpstream, "op", errors.New("boom")).Error())
}
