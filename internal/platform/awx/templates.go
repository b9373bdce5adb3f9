package awx

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// ResolveTemplateID returns the id of the job template called name.
// A missing template yields a TemplateRef with Found unset and a nil error;
// err is reserved for communication failures.
func (c *Client) ResolveTemplateID(ctx context.Context, name string) (TemplateRef, error) {
	var resp listResponse
	path := "job_templates/?name=" + url.QueryEscape(name)
	if err := c.call(ctx, "resolve_template", http.MethodGet, path, nil, &resp); err != nil {
		return TemplateRef{Name: name}, fmt.Errorf("resolve job template %q: %w", name, err)
	}

	// AWX matches name exactly; the first result wins when duplicates exist
	// across organizations.
	for _, t := range resp.Results {
		if t.Name == name {
			return TemplateRef{Name: name, ID: t.ID, Found: true}, nil
		}
	}
	return TemplateRef{Name: name}, nil
}

// ListTemplates returns the names of all job templates visible to the token.
// On failure it logs and returns an empty, non-nil slice.
func (c *Client) ListTemplates(ctx context.Context) []string {
	names, err := c.listTemplates(ctx)
	if err != nil {
		c.log.Error(err, "listing job templates failed")
		return []string{}
	}
	return names
}

func (c *Client) listTemplates(ctx context.Context) ([]string, error) {
	names := []string{}
	for page := 1; ; page++ {
		var resp listResponse
		path := fmt.Sprintf("job_templates/?order_by=name&page_size=%d&page=%d", listPageSize, page)
		if err := c.call(ctx, "list_templates", http.MethodGet, path, nil, &resp); err != nil {
			return nil, fmt.Errorf("list job templates page %d: %w", page, err)
		}
		for _, t := range resp.Results {
			names = append(names, t.Name)
		}
		if resp.Next == nil || *resp.Next == "" || len(resp.Results) == 0 {
			return names, nil
		}
	}
}
