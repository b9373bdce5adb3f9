package awx

import (
	"context"
	"sync"
)

// MockClient is a mock implementation of AutomationClient.
// Unset funcs fall back to benign defaults; every call is recorded.
type MockClient struct {
	ResolveTemplateIDFunc     func(ctx context.Context, name string) (TemplateRef, error)
	ListTemplatesFunc         func(ctx context.Context) []string
	HostExistsFunc            func(ctx context.Context, hostname string) bool
	CreateInventoryFunc       func(ctx context.Context, name string, organizationID int) (int, error)
	AddHostFunc               func(ctx context.Context, inventoryID int, hostname string) error
	DeleteInventoryFunc       func(ctx context.Context, inventoryID int) error
	LaunchTemplateFunc        func(ctx context.Context, hostname, templateName string, inventoryID int) (int, error)
	GetJobStatusAndOutputFunc func(ctx context.Context, jobID int) (string, string)

	mu    sync.Mutex
	calls map[string]int
	// DeletedInventories lists ids passed to DeleteInventory, in order.
	DeletedInventories []int
}

var _ AutomationClient = (*MockClient)(nil)

func (m *MockClient) record(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[method]++
}

// Calls returns how many times method was invoked.
func (m *MockClient) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

// MutatingCalls returns the number of calls that change remote state.
func (m *MockClient) MutatingCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls["CreateInventory"] + m.calls["AddHost"] + m.calls["DeleteInventory"] + m.calls["LaunchTemplate"]
}

// ResolveTemplateID mocks template lookup.
func (m *MockClient) ResolveTemplateID(ctx context.Context, name string) (TemplateRef, error) {
	m.record("ResolveTemplateID")
	if m.ResolveTemplateIDFunc != nil {
		return m.ResolveTemplateIDFunc(ctx, name)
	}
	return TemplateRef{Name: name, ID: 1, Found: true}, nil
}

// ListTemplates mocks template listing.
func (m *MockClient) ListTemplates(ctx context.Context) []string {
	m.record("ListTemplates")
	if m.ListTemplatesFunc != nil {
		return m.ListTemplatesFunc(ctx)
	}
	return []string{}
}

// HostExists mocks host lookup.
func (m *MockClient) HostExists(ctx context.Context, hostname string) bool {
	m.record("HostExists")
	if m.HostExistsFunc != nil {
		return m.HostExistsFunc(ctx, hostname)
	}
	return true
}

// CreateInventory mocks inventory creation.
func (m *MockClient) CreateInventory(ctx context.Context, name string, organizationID int) (int, error) {
	m.record("CreateInventory")
	if m.CreateInventoryFunc != nil {
		return m.CreateInventoryFunc(ctx, name, organizationID)
	}
	return 1, nil
}

// AddHost mocks host registration.
func (m *MockClient) AddHost(ctx context.Context, inventoryID int, hostname string) error {
	m.record("AddHost")
	if m.AddHostFunc != nil {
		return m.AddHostFunc(ctx, inventoryID, hostname)
	}
	return nil
}

// DeleteInventory mocks inventory deletion.
func (m *MockClient) DeleteInventory(ctx context.Context, inventoryID int) error {
	m.record("DeleteInventory")
	m.mu.Lock()
	m.DeletedInventories = append(m.DeletedInventories, inventoryID)
	m.mu.Unlock()
	if m.DeleteInventoryFunc != nil {
		return m.DeleteInventoryFunc(ctx, inventoryID)
	}
	return nil
}

// LaunchTemplate mocks job launch.
func (m *MockClient) LaunchTemplate(ctx context.Context, hostname, templateName string, inventoryID int) (int, error) {
	m.record("LaunchTemplate")
	if m.LaunchTemplateFunc != nil {
		return m.LaunchTemplateFunc(ctx, hostname, templateName, inventoryID)
	}
	return 1, nil
}

// GetJobStatusAndOutput mocks job polling.
func (m *MockClient) GetJobStatusAndOutput(ctx context.Context, jobID int) (string, string) {
	m.record("GetJobStatusAndOutput")
	if m.GetJobStatusAndOutputFunc != nil {
		return m.GetJobStatusAndOutputFunc(ctx, jobID)
	}
	return "successful", ""
}
