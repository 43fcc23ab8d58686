package ports

import (
	"context"

	"github.com/aretw0/vmchat/pkg/domain"
)

// ManagementResponse is the raw answer of the management API.
type ManagementResponse struct {
	StatusCode int
	Body       []byte
}

// ManagementAPI is the virtual-machine management REST API.
// A returned error means no response was obtained (KindTransport);
// HTTP error statuses are returned as responses.
type ManagementAPI interface {
	// ListVMs issues GET /vms.
	ListVMs(ctx context.Context) (*ManagementResponse, error)

	// GetVMDetails issues GET /vm_details?vm_name=<name>.
	GetVMDetails(ctx context.Context, vmName string) (*ManagementResponse, error)

	// ManagePower issues POST /vms/power with {"vm_name", "operation"}.
	ManagePower(ctx context.Context, vmName string, op domain.PowerOperation) (*ManagementResponse, error)
}
