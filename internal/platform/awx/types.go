package awx

// TemplateRef is the result of resolving a job template by name: either
// Found with a remote id, or not found.
type TemplateRef struct {
	Name  string
	ID    int
	Found bool
}

// Inventory is a scoped inventory created for one deploy attempt.
type Inventory struct {
	ID    int
	Name  string
	Hosts []string
}

// Job is a launched job and its latest known state.
type Job struct {
	ID     int
	Status string
	Output string
}

type namedResource struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type listResponse struct {
	Count   int             `json:"count"`
	Next    *string         `json:"next"`
	Results []namedResource `json:"results"`
}

type createResponse struct {
	ID int `json:"id"`
}

type launchRequest struct {
	Inventory int            `json:"inventory,omitempty"`
	ExtraVars map[string]any `json:"extra_vars"`
}

type launchResponse struct {
	Job int `json:"job"`
	ID  int `json:"id"`
}

type jobResponse struct {
	ID     int    `json:"id"`
	Status string `json:"status"`
}

type inventoryRequest struct {
	Name         string `json:"name"`
	Organization int    `json:"organization"`
	Description  string `json:"description,omitempty"`
}

type hostRequest struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}
