package domain

// Parameter describes one required argument of an action.
type Parameter struct {
	Name        string   `json:"name" yaml:"name"`
	Type        string   `json:"type" yaml:"type"`
	Description string   `json:"description" yaml:"description"`
	Enum        []string `json:"enum,omitempty" yaml:"enum,omitempty"`
}

// Capability is one entry of the contract offered to the language model.
// The interpreter prompt and the dispatcher validation are both derived from it.
type Capability struct {
	Action      ActionName  `json:"action" yaml:"action"`
	Description string      `json:"description" yaml:"description"`
	Parameters  []Parameter `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// Capabilities lists every action the assistant supports, in prompt order.
var Capabilities = []Capability{
	{
		Action:      ActionListVMs,
		Description: "Lists all virtual machines.",
	},
	{
		Action:      ActionGetVMDetails,
		Description: "Gets details of a specific virtual machine.",
		Parameters: []Parameter{
			{Name: ParamVMName, Type: "string", Description: "Name of the virtual machine."},
		},
	},
	{
		Action:      ActionManagePower,
		Description: "Manages the power state of a virtual machine.",
		Parameters: []Parameter{
			{Name: ParamVMName, Type: "string", Description: "Name of the virtual machine."},
			{Name: ParamOperation, Type: "string", Description: "Power operation to apply.", Enum: powerOperationNames()},
		},
	},
}

// LookupCapability returns the contract entry for an action.
func LookupCapability(action ActionName) (Capability, bool) {
	for _, c := range Capabilities {
		if c.Action == action {
			return c, true
		}
	}
	return Capability{}, false
}

func powerOperationNames() []string {
	ops := PowerOperations()
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = string(op)
	}
	return names
}
