package awx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

const (
	// StatusError is reported when a job's state cannot be read.
	StatusError = "error"

	// TargetHostVar is the extra var that pins a playbook to its host.
	TargetHostVar = "target_host"
)

// LaunchTemplate launches templateName against hostname inside the given
// inventory. The template is resolved by name first.
//
// Resolution failures return ErrTemplateNotFound or a *CommunicationError;
// a rejected launch returns a *LaunchError carrying the remote body.
func (c *Client) LaunchTemplate(ctx context.Context, hostname, templateName string, inventoryID int) (int, error) {
	ref, err := c.ResolveTemplateID(ctx, templateName)
	if err != nil {
		return 0, err
	}
	if !ref.Found {
		return 0, fmt.Errorf("%w: %s", ErrTemplateNotFound, templateName)
	}

	req := launchRequest{
		Inventory: inventoryID,
		ExtraVars: map[string]any{TargetHostVar: hostname},
	}
	var resp launchResponse
	path := fmt.Sprintf("job_templates/%d/launch/", ref.ID)
	if err := c.call(ctx, "launch_template", http.MethodPost, path, req, &resp); err != nil {
		le := &LaunchError{Template: templateName, TemplateID: ref.ID, Err: err}
		var ce *CommunicationError
		if errors.As(err, &ce) {
			le.StatusCode = ce.StatusCode
			le.Body = ce.Body
		}
		return 0, le
	}

	jobID := resp.Job
	if jobID == 0 {
		jobID = resp.ID
	}
	if jobID == 0 {
		return 0, &LaunchError{Template: templateName, TemplateID: ref.ID, Err: errors.New("launch response carried no job id")}
	}

	c.log.V(1).Info("job launched", "template", templateName, "job", jobID, "host", hostname, "inventory", inventoryID)
	return jobID, nil
}

// GetJobStatusAndOutput reads the job status and its plain-text stdout.
//
// When the status cannot be read, the result is StatusError with a
// communication error message as output. When the status is known but the
// log is not yet available, the output is a placeholder naming the HTTP code.
func (c *Client) GetJobStatusAndOutput(ctx context.Context, jobID int) (string, string) {
	var job jobResponse
	if err := c.call(ctx, "job_status", http.MethodGet, fmt.Sprintf("jobs/%d/", jobID), nil, &job); err != nil {
		c.log.Error(err, "reading job status failed", "job", jobID)
		return StatusError, CommunicationMessage(err)
	}

	var output string
	path := fmt.Sprintf("jobs/%d/stdout/?format=txt_download", jobID)
	if err := c.call(ctx, "job_output", http.MethodGet, path, nil, &output); err != nil {
		if code := StatusCode(err); code != 0 {
			return job.Status, AwaitingLogs(code)
		}
		c.log.Error(err, "reading job output failed", "job", jobID)
		return job.Status, CommunicationMessage(err)
	}
	return job.Status, output
}

// AwaitingLogs is the placeholder output used while AWX has no log to serve.
func AwaitingLogs(statusCode int) string {
	return fmt.Sprintf("Awaiting logs from AWX (HTTP %d)...", statusCode)
}

// CommunicationMessage renders err as job output.
func CommunicationMessage(err error) string {
	return "AWX communication error: " + err.Error()
}
