package awx

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// HostExists reports whether any inventory already registers hostname.
// Communication failures are logged and reported as false.
func (c *Client) HostExists(ctx context.Context, hostname string) bool {
	var resp listResponse
	path := "hosts/?name=" + url.QueryEscape(hostname)
	if err := c.call(ctx, "host_exists", http.MethodGet, path, nil, &resp); err != nil {
		c.log.Error(err, "host lookup failed", "host", hostname)
		return false
	}
	return resp.Count > 0
}

// CreateInventory creates an inventory in the organization and returns its id.
func (c *Client) CreateInventory(ctx context.Context, name string, organizationID int) (int, error) {
	req := inventoryRequest{
		Name:         name,
		Organization: organizationID,
		Description:  "Temporary inventory for a single deploy",
	}
	var resp createResponse
	if err := c.call(ctx, "create_inventory", http.MethodPost, "inventories/", req, &resp); err != nil {
		return 0, fmt.Errorf("create inventory %q: %w", name, err)
	}
	if resp.ID == 0 {
		return 0, &CommunicationError{Operation: "create_inventory", StatusCode: http.StatusCreated, Err: fmt.Errorf("response carried no inventory id")}
	}
	return resp.ID, nil
}

// AddHost registers hostname as an enabled host of the inventory.
func (c *Client) AddHost(ctx context.Context, inventoryID int, hostname string) error {
	req := hostRequest{Name: hostname, Enabled: true}
	path := fmt.Sprintf("inventories/%d/hosts/", inventoryID)
	if err := c.call(ctx, "add_host", http.MethodPost, path, req, nil); err != nil {
		return fmt.Errorf("add host %s to inventory %d: %w", hostname, inventoryID, err)
	}
	return nil
}

// DeleteInventory deletes the inventory. AWX removes its hosts with it.
func (c *Client) DeleteInventory(ctx context.Context, inventoryID int) error {
	path := fmt.Sprintf("inventories/%d/", inventoryID)
	if err := c.call(ctx, "delete_inventory", http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("delete inventory %d: %w", inventoryID, err)
	}
	return nil
}
