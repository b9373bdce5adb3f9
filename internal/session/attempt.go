package session

import "time"

// Attempt is the context of one launched deploy, carried from launch to
// finalize.
type Attempt struct {
	JobID        int       `json:"job_id"`
	Hostname     string    `json:"hostname"`
	TemplateName string    `json:"template_name"`
	StartTime    time.Time `json:"start_time"`
	InventoryID  int       `json:"inventory_id"`
}
