package interpreter

import (
	"fmt"
	"strings"

	"github.com/aretw0/vmchat/pkg/domain"
)

// Prompt renders the system prompt describing the given capabilities.
func Prompt(capabilities []domain.Capability) string {
	var b strings.Builder
	b.WriteString("You are an assistant for managing virtual machines via a vCenter API.\n")
	b.WriteString("The API supports the following actions:\n")
	for _, c := range capabilities {
		fmt.Fprintf(&b, "- %q: %s", string(c.Action), c.Description)
		if len(c.Parameters) == 0 {
			b.WriteString(" No parameters are required.\n")
			continue
		}
		b.WriteString(" Required parameters:\n")
		for _, p := range c.Parameters {
			fmt.Fprintf(&b, "  - %s (%s): %s", p.Name, p.Type, p.Description)
			if len(p.Enum) > 0 {
				fmt.Fprintf(&b, " One of %s.", oneOf(p.Enum))
			}
			b.WriteString("\n")
		}
	}
	b.WriteString("Respond only with a JSON object that specifies the action and its parameters as top-level keys, ")
	b.WriteString(`for example {"action": "get_vm_details", "vm_name": "web01"}.`)
	b.WriteString("\n")
	return b.String()
}

// oneOf renders ["a","b","c"] as `"a", "b", or "c"`.
func oneOf(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	switch len(quoted) {
	case 1:
		return quoted[0]
	case 2:
		return quoted[0] + " or " + quoted[1]
	}
	return strings.Join(quoted[:len(quoted)-1], ", ") + ", or " + quoted[len(quoted)-1]
}
