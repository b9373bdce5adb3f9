// Package api serves the deploy operations over HTTP/JSON.
//
// The caller's session is carried in a cookie; the acting user is taken from
// the X-Remote-User header set by the authenticating reverse proxy.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/imamik/awxgate/internal/audit"
	"github.com/imamik/awxgate/internal/service"
	"github.com/imamik/awxgate/internal/session"
)

const (
	// SessionCookie names the cookie holding the caller's session id.
	SessionCookie = "awxgate_session"

	// ActorHeader carries the authenticated user name.
	ActorHeader = "X-Remote-User"

	// DefaultActor is used when no ActorHeader is present.
	DefaultActor = "Unknown User"

	maxBodyBytes = 8 << 20
	dateLayout   = "2006-01-02"
)

// API exposes a Service over HTTP.
type API struct {
	svc           *service.Service
	log           logr.Logger
	secureCookies bool
	loc           *time.Location
}

// NewAPI creates an API. secureCookies marks the session cookie Secure.
func NewAPI(svc *service.Service, log logr.Logger, secureCookies bool) *API {
	return &API{svc: svc, log: log, secureCookies: secureCookies, loc: time.Local}
}

// RegisterRoutes adds the API routes to mux.
func (api *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/health", api.handleHealth)
	mux.HandleFunc("GET /api/v1/templates", api.handleTemplates)
	mux.HandleFunc("POST /api/v1/deploys", api.handleLaunch)
	mux.HandleFunc("GET /api/v1/deploys/current", api.handleCurrent)
	mux.HandleFunc("GET /api/v1/jobs/{id}", api.handlePoll)
	mux.HandleFunc("POST /api/v1/jobs/{id}/finalize", api.handleFinalize)
	mux.HandleFunc("GET /api/v1/audit", api.handleAudit)
	mux.HandleFunc("GET /api/v1/audit/detail", api.handleAuditDetail)
}

func (api *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"time":   time.Now().UTC(),
	})
}

func (api *API) handleTemplates(w http.ResponseWriter, r *http.Request) {
	templates := api.svc.GetTemplates(r.Context())
	respondJSON(w, http.StatusOK, map[string]any{
		"templates": templates,
		"count":     len(templates),
	})
}

type launchBody struct {
	Hostname string `json:"hostname"`
	Template string `json:"template"`
}

func (api *API) handleLaunch(w http.ResponseWriter, r *http.Request) {
	var body launchBody
	if err := decodeBody(w, r, &body); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	sessionID := api.ensureSession(w, r)
	res, err := api.svc.Launch(r.Context(), service.LaunchRequest{
		SessionID: sessionID,
		Actor:     actor(r),
		Hostname:  body.Hostname,
		Template:  body.Template,
	})
	if errors.Is(err, service.ErrInvalidRequest) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if errors.Is(err, service.ErrAttemptInProgress) {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		api.log.Error(err, "launch failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	status := http.StatusOK
	if res.Success {
		status = http.StatusCreated
	}
	respondJSON(w, status, res)
}

func (api *API) handleCurrent(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionFrom(r)
	if !ok {
		respondError(w, http.StatusNotFound, "No deploy in progress")
		return
	}
	a, err := api.svc.Attempt(r.Context(), sessionID)
	if errors.Is(err, session.ErrNoAttempt) {
		respondError(w, http.StatusNotFound, "No deploy in progress")
		return
	}
	if err != nil {
		api.log.Error(err, "reading session attempt failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, a)
}

func (api *API) handlePoll(w http.ResponseWriter, r *http.Request) {
	jobID, err := jobIDFrom(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, api.svc.PollStatus(r.Context(), jobID))
}

type finalizeBody struct {
	Status string `json:"status"`
	Output string `json:"output"`
}

func (api *API) handleFinalize(w http.ResponseWriter, r *http.Request) {
	jobID, err := jobIDFrom(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var body finalizeBody
	if err := decodeBody(w, r, &body); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	sessionID, _ := sessionFrom(r)
	res, err := api.svc.Finalize(r.Context(), service.FinalizeRequest{
		SessionID:   sessionID,
		Actor:       actor(r),
		JobID:       jobID,
		FinalStatus: body.Status,
		Output:      body.Output,
	})
	if errors.Is(err, service.ErrInvalidRequest) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		api.log.Error(err, "finalize failed", "job", jobID)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (api *API) handleAudit(w http.ResponseWriter, r *http.Request) {
	rng, err := api.rangeFrom(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := api.svc.AuditLog(r.Context(), rng)
	if err != nil {
		api.log.Error(err, "audit query failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"records": records,
		"count":   len(records),
	})
}

func (api *API) handleAuditDetail(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ts, err := time.Parse(time.RFC3339, q.Get("timestamp"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "timestamp must be RFC 3339")
		return
	}
	host, who := q.Get("hostname"), q.Get("actor")
	if host == "" || who == "" {
		respondError(w, http.StatusBadRequest, "hostname and actor are required")
		return
	}

	d, err := api.svc.AuditDetail(r.Context(), ts, host, who)
	if errors.Is(err, audit.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Audit record not found")
		return
	}
	if err != nil {
		api.log.Error(err, "audit detail lookup failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, d)
}

// rangeFrom reads from/to dates (YYYY-MM-DD, inclusive). Both default to today.
func (api *API) rangeFrom(r *http.Request) (audit.Range, error) {
	today := time.Now().In(api.loc).Format(dateLayout)
	parse := func(key string) (time.Time, error) {
		v := r.URL.Query().Get(key)
		if v == "" {
			v = today
		}
		t, err := time.ParseInLocation(dateLayout, v, api.loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("%s must be a date like 2006-01-02", key)
		}
		return t, nil
	}

	from, err := parse("from")
	if err != nil {
		return audit.Range{}, err
	}
	to, err := parse("to")
	if err != nil {
		return audit.Range{}, err
	}
	if to.Before(from) {
		return audit.Range{}, errors.New("to must not be before from")
	}
	return audit.Range{From: from, To: audit.Day(to).To}, nil
}

func (api *API) ensureSession(w http.ResponseWriter, r *http.Request) string {
	if id, ok := sessionFrom(r); ok {
		return id
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   api.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func sessionFrom(r *http.Request) (string, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return "", false
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return "", false
	}
	return c.Value, true
}

func actor(r *http.Request) string {
	if v := r.Header.Get(ActorHeader); v != "" {
		return v
	}
	return DefaultActor
}

func jobIDFrom(r *http.Request) (int, error) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		return 0, errors.New("job id must be a positive integer")
	}
	return id, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
