// Package vcenter is an HTTP client for the virtual-machine management API.
package vcenter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/vmchat/pkg/domain"
	"github.com/aretw0/vmchat/pkg/ports"
)

// Endpoint paths of the management API.
const (
	PathListVMs   = "/vms"
	PathVMDetails = "/vm_details"
	PathPower     = "/vms/power"
)

const maxResponseSize = 8 << 20

var _ ports.ManagementAPI = (*Client)(nil)

// PowerRequest is the body of POST /vms/power.
type PowerRequest struct {
	VMName    string                `json:"vm_name"`
	Operation domain.PowerOperation `json:"operation"`
}

// Client talks to the management API. HTTP error statuses are returned as
// responses; only failures to obtain a response are errors.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http = &http.Client{Timeout: d}
	}
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListVMs issues GET /vms.
func (c *Client) ListVMs(ctx context.Context) (*ports.ManagementResponse, error) {
	return c.do(ctx, http.MethodGet, PathListVMs, nil, nil)
}

// GetVMDetails issues GET /vm_details?vm_name=<name>.
func (c *Client) GetVMDetails(ctx context.Context, vmName string) (*ports.ManagementResponse, error) {
	return c.do(ctx, http.MethodGet, PathVMDetails, url.Values{domain.ParamVMName: {vmName}}, nil)
}

// ManagePower issues POST /vms/power.
func (c *Client) ManagePower(ctx context.Context, vmName string, op domain.PowerOperation) (*ports.ManagementResponse, error) {
	return c.do(ctx, http.MethodPost, PathPower, nil, PowerRequest{VMName: vmName, Operation: op})
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any) (*ports.ManagementResponse, error) {
	op := method + " " + path

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("vcenter: encode %s: %w", op, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, domain.NewError(domain.KindTransport, op, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, domain.NewError(domain.KindTransport, op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, domain.NewError(domain.KindTransport, op, err)
	}
	return &ports.ManagementResponse{StatusCode: resp.StatusCode, Body: raw}, nil
}
