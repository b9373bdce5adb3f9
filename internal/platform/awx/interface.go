package awx

import "context"

// AutomationClient is the contract the deploy workflow consumes.
// Implemented by *Client and *MockClient.
type AutomationClient interface {
	// ResolveTemplateID looks a job template up by exact name.
	// When several templates share the name the first result wins.
	ResolveTemplateID(ctx context.Context, name string) (TemplateRef, error)

	// ListTemplates returns job template names, or an empty slice on failure.
	ListTemplates(ctx context.Context) []string

	// HostExists reports whether any inventory knows hostname.
	// Returns false when the answer cannot be obtained.
	HostExists(ctx context.Context, hostname string) bool

	// CreateInventory creates an inventory and returns its id.
	// The id is 0 if and only if err is non-nil.
	CreateInventory(ctx context.Context, name string, organizationID int) (int, error)

	// AddHost registers hostname in the inventory.
	AddHost(ctx context.Context, inventoryID int, hostname string) error

	// DeleteInventory deletes the inventory and its hosts.
	DeleteInventory(ctx context.Context, inventoryID int) error

	// LaunchTemplate launches the named template against hostname inside the
	// inventory and returns the job id.
	LaunchTemplate(ctx context.Context, hostname, templateName string, inventoryID int) (int, error)

	// GetJobStatusAndOutput returns the job status and its plain-text output.
	// Failures are reported as status "error" with the message as output.
	GetJobStatusAndOutput(ctx context.Context, jobID int) (status, output string)
}

var _ AutomationClient = (*Client)(nil)
