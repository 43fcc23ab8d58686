package domain

import (
	"fmt"
	"strings"
)

// ActionName identifies a management operation the assistant can forward.
type ActionName string

// Supported actions.
const (
	// ActionListVMs lists every virtual machine. No parameters.
	ActionListVMs ActionName = "list_vms"

	// ActionGetVMDetails fetches the details of one virtual machine.
	// Parameters: vm_name.
	ActionGetVMDetails ActionName = "get_vm_details"

	// ActionManagePower changes the power state of one virtual machine.
	// Parameters: vm_name, operation.
	ActionManagePower ActionName = "manage_power"
)

// PowerOperation is a power state transition accepted by manage_power.
type PowerOperation string

const (
	PowerStart    PowerOperation = "start"
	PowerShutdown PowerOperation = "shutdown"
	PowerRestart  PowerOperation = "restart"
	PowerOff      PowerOperation = "poweroff"
)

// PowerOperations returns the accepted power operations in contract order.
func PowerOperations() []PowerOperation {
	return []PowerOperation{PowerStart, PowerShutdown, PowerRestart, PowerOff}
}

// Valid reports whether op is one of the accepted power operations.
func (op PowerOperation) Valid() bool {
	for _, known := range PowerOperations() {
		if op == known {
			return true
		}
	}
	return false
}

// Parameter names shared by the model contract and the management API.
const (
	ParamVMName    = "vm_name"
	ParamOperation = "operation"
)

// ActionDescriptor is a management operation parsed out of a model reply.
// It comes from untrusted output: any field may be empty until Validate is called.
type ActionDescriptor struct {
	Action    ActionName     `json:"action" mapstructure:"action"`
	VMName    string         `json:"vm_name,omitempty" mapstructure:"vm_name"`
	Operation PowerOperation `json:"operation,omitempty" mapstructure:"operation"`

	// Raw is the decoded model output, kept verbatim for narration.
	Raw map[string]any `json:"-" mapstructure:"-"`
}

// Fields returns the descriptor as the model produced it.
// Descriptors built in code (no Raw) are rendered from their typed fields.
func (d ActionDescriptor) Fields() map[string]any {
	if d.Raw != nil {
		out := make(map[string]any, len(d.Raw))
		for k, v := range d.Raw {
			out[k] = v
		}
		return out
	}
	out := map[string]any{"action": string(d.Action)}
	if d.VMName != "" {
		out[ParamVMName] = d.VMName
	}
	if d.Operation != "" {
		out[ParamOperation] = string(d.Operation)
	}
	return out
}

// Param returns the value of a named parameter ("" when absent).
func (d ActionDescriptor) Param(name string) string {
	switch name {
	case ParamVMName:
		return d.VMName
	case ParamOperation:
		return string(d.Operation)
	}
	return ""
}

// Validate checks the descriptor against the capability contract.
// It returns a *Error of kind KindInvalidAction or KindInvalidParameter.
func (d ActionDescriptor) Validate() error {
	capability, ok := LookupCapability(d.Action)
	if !ok {
		return &Error{Kind: KindInvalidAction, Err: ErrInvalidAction}
	}
	for _, p := range capability.Parameters {
		value := strings.TrimSpace(d.Param(p.Name))
		if value == "" {
			return &Error{
				Kind:    KindInvalidParameter,
				Message: fmt.Sprintf("Missing required parameter: %s", p.Name),
			}
		}
		if len(p.Enum) > 0 && !contains(p.Enum, value) {
			return &Error{
				Kind:    KindInvalidParameter,
				Message: fmt.Sprintf("Invalid %s: %s", p.Name, value),
			}
		}
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
