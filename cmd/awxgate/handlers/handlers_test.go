package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/awxgate/internal/audit"
	"github.com/imamik/awxgate/internal/config"
	"github.com/imamik/awxgate/internal/platform/awx"
	"github.com/imamik/awxgate/internal/service"
)

// setupHandlers swaps the factory variables for the duration of a test and
// returns the captured stdout.
func setupHandlers(t *testing.T, client *awx.MockClient, mutate ...func(*config.Config)) *bytes.Buffer {
	t.Helper()

	origLoad := loadConfig
	origTimeouts := loadTimeouts
	origClient := newAutomationClient
	origTerminal := stdoutIsTerminal
	origStdout := stdout
	origStderr := stderr
	origPick := pickTemplate
	t.Cleanup(func() {
		loadConfig = origLoad
		loadTimeouts = origTimeouts
		newAutomationClient = origClient
		stdoutIsTerminal = origTerminal
		stdout = origStdout
		stderr = origStderr
		pickTemplate = origPick
	})

	dir := t.TempDir()
	loadConfig = func(_ string) (*config.Config, error) {
		cfg := config.Default()
		cfg.AWX.BaseURL = "http://awx.test"
		cfg.AWX.Token = "token"
		cfg.Audit.Dir = filepath.Join(dir, "audit")
		cfg.Session.Driver = config.DriverSQLite
		cfg.Session.Path = filepath.Join(dir, "sessions.db")
		for _, m := range mutate {
			m(cfg)
		}
		return cfg, nil
	}
	loadTimeouts = func() *config.Timeouts {
		return &config.Timeouts{
			Request:      time.Second,
			PollInterval: time.Millisecond,
			Watch:        2 * time.Second,
			Shutdown:     2 * time.Second,
		}
	}
	newAutomationClient = func(_ config.AWXConfig, _ *config.Timeouts, _ logr.Logger) awx.AutomationClient {
		return client
	}
	stdoutIsTerminal = func() bool { return false }

	buf := &bytes.Buffer{}
	stdout = buf
	stderr = io.Discard
	return buf
}

var jsonOpts = Options{JSON: true}

func auditRecords(t *testing.T, out *bytes.Buffer) []audit.Record {
	t.Helper()
	out.Reset()
	require.NoError(t, AuditList(context.Background(), jsonOpts, "", ""))
	var records []audit.Record
	require.NoError(t, json.Unmarshal(out.Bytes(), &records))
	return records
}

func TestTemplates(t *testing.T) {
	client := &awx.MockClient{
		ListTemplatesFunc: func(_ context.Context) []string {
			return []string{"Install-Agent", "Patch-Windows"}
		},
	}
	out := setupHandlers(t, client)

	require.NoError(t, Templates(context.Background(), Options{}))
	assert.Equal(t, "Install-Agent\nPatch-Windows\n", out.String())

	out.Reset()
	require.NoError(t, Templates(context.Background(), jsonOpts))
	var names []string
	require.NoError(t, json.Unmarshal(out.Bytes(), &names))
	assert.Equal(t, []string{"Install-Agent", "Patch-Windows"}, names)
}

func TestTemplates_Empty(t *testing.T) {
	out := setupHandlers(t, &awx.MockClient{})

	require.NoError(t, Templates(context.Background(), Options{}))
	assert.Contains(t, out.String(), "No job templates available")
}

func TestLaunch_WithoutWatch(t *testing.T) {
	client := &awx.MockClient{
		CreateInventoryFunc: func(_ context.Context, _ string, _ int) (int, error) { return 42, nil },
		LaunchTemplateFunc: func(_ context.Context, _, _ string, _ int) (int, error) {
			return 901, nil
		},
	}
	out := setupHandlers(t, client)

	err := Launch(context.Background(), Options{}, LaunchOptions{
		Hosts: "PDV01", Template: "Install-Agent", Actor: "alice",
	})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "=== PDV01 ===")
	assert.Contains(t, out.String(), `Job 901 launched. Finalize with: awxgate finalize 901 --session "cli:alice"`)
	assert.Empty(t, client.DeletedInventories)
	assert.Empty(t, auditRecords(t, out), "a launch alone is not audited")
}

func TestLaunch_WatchFinalizes(t *testing.T) {
	client := &awx.MockClient{
		CreateInventoryFunc: func(_ context.Context, _ string, _ int) (int, error) { return 42, nil },
		LaunchTemplateFunc: func(_ context.Context, _, _ string, _ int) (int, error) {
			return 901, nil
		},
		GetJobStatusAndOutputFunc: func(_ context.Context, _ int) (string, string) {
			return "successful", "PLAY RECAP ok=3"
		},
	}
	out := setupHandlers(t, client)

	err := Launch(context.Background(), Options{}, LaunchOptions{
		Hosts: "PDV01", Template: "Install-Agent", Actor: "alice", Watch: true,
	})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Job 901: successful")
	assert.Contains(t, out.String(), "Job 901 finalized with status successful")
	assert.Equal(t, []int{42}, client.DeletedInventories)

	records := auditRecords(t, out)
	require.Len(t, records, 1)
	assert.Equal(t, "PDV01", records[0].Hostname)
	assert.Equal(t, "Install-Agent", records[0].Template)
	assert.Equal(t, "alice", records[0].Actor)
	assert.True(t, records[0].Success)
	assert.Equal(t, "PLAY RECAP ok=3", records[0].Output)
}

func TestLaunch_WatchFailedJob(t *testing.T) {
	client := &awx.MockClient{
		GetJobStatusAndOutputFunc: func(_ context.Context, _ int) (string, string) {
			return "failed", "fatal: unreachable"
		},
	}
	out := setupHandlers(t, client)

	err := Launch(context.Background(), Options{}, LaunchOptions{
		Hosts: "PDV01", Template: "Install-Agent", Actor: "alice", Watch: true,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 deployment(s) failed")

	records := auditRecords(t, out)
	require.Len(t, records, 1)
	assert.False(t, records[0].Success)
	assert.Equal(t, []int{1}, client.DeletedInventories)
}

func TestLaunch_MultipleHosts(t *testing.T) {
	nextJob := 900
	client := &awx.MockClient{
		LaunchTemplateFunc: func(_ context.Context, _, _ string, _ int) (int, error) {
			nextJob++
			return nextJob, nil
		},
	}
	out := setupHandlers(t, client)

	err := Launch(context.Background(), Options{}, LaunchOptions{
		Hosts: "PDV01;PDV02", Template: "Install-Agent", Actor: "alice",
	})
	require.NoError(t, err)

	assert.Contains(t, out.String(), `awxgate finalize 901 --session "cli:alice/PDV01"`)
	assert.Contains(t, out.String(), `awxgate finalize 902 --session "cli:alice/PDV02"`)
	assert.Equal(t, 2, client.Calls("CreateInventory"))
}

func TestLaunch_HostNotRegistered(t *testing.T) {
	client := &awx.MockClient{
		HostExistsFunc: func(_ context.Context, _ string) bool { return false },
	}
	out := setupHandlers(t, client)

	err := Launch(context.Background(), Options{}, LaunchOptions{
		Hosts: "PDV01", Template: "Install-Agent", Actor: "alice",
	})
	require.Error(t, err)
	assert.Zero(t, client.MutatingCalls())

	records := auditRecords(t, out)
	require.Len(t, records, 1)
	assert.False(t, records[0].Success)
}

func TestLaunch_InvalidHost(t *testing.T) {
	client := &awx.MockClient{}
	setupHandlers(t, client)

	err := Launch(context.Background(), Options{}, LaunchOptions{
		Hosts: "WEB01", Template: "Install-Agent", Actor: "alice",
	})
	require.ErrorIs(t, err, service.ErrInvalidRequest)
	assert.Zero(t, client.Calls("HostExists"))
}

func TestLaunch_TemplateRequiredWithoutTerminal(t *testing.T) {
	setupHandlers(t, &awx.MockClient{})

	err := Launch(context.Background(), Options{}, LaunchOptions{Hosts: "PDV01"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--template is required")
}

func TestLaunch_PicksTemplate(t *testing.T) {
	client := &awx.MockClient{
		ListTemplatesFunc: func(_ context.Context) []string { return []string{"Install-Agent"} },
	}
	out := setupHandlers(t, client)
	stdoutIsTerminal = func() bool { return true }

	var offered []string
	pickTemplate = func(_ context.Context, templates []string) (string, error) {
		offered = templates
		return templates[0], nil
	}

	err := Launch(context.Background(), Options{}, LaunchOptions{Hosts: "PDV01", Actor: "alice"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Install-Agent"}, offered)
	assert.Contains(t, out.String(), "Job 1 launched")
}

func TestFinalize(t *testing.T) {
	client := &awx.MockClient{
		CreateInventoryFunc: func(_ context.Context, _ string, _ int) (int, error) { return 42, nil },
		LaunchTemplateFunc: func(_ context.Context, _, _ string, _ int) (int, error) {
			return 901, nil
		},
	}
	out := setupHandlers(t, client)
	ctx := context.Background()

	require.NoError(t, Launch(ctx, Options{}, LaunchOptions{
		Hosts: "PDV01", Template: "Install-Agent", Actor: "alice",
	}))

	out.Reset()
	require.NoError(t, Finalize(ctx, Options{}, FinalizeOptions{JobID: 901, Actor: "alice"}))
	assert.Contains(t, out.String(), "Job 901 finalized with status successful")
	assert.Equal(t, []int{42}, client.DeletedInventories)

	out.Reset()
	require.NoError(t, Finalize(ctx, Options{}, FinalizeOptions{JobID: 901, Actor: "alice"}))
	assert.Contains(t, out.String(), "Job 901 was already finalized")
	assert.Equal(t, []int{42}, client.DeletedInventories)

	records := auditRecords(t, out)
	require.Len(t, records, 1)
	assert.Equal(t, "PDV01", records[0].Hostname)
}

func TestLaunchThenFinalize_DefaultSessionDriver(t *testing.T) {
	client := &awx.MockClient{
		CreateInventoryFunc: func(_ context.Context, _ string, _ int) (int, error) { return 42, nil },
		LaunchTemplateFunc: func(_ context.Context, _, _ string, _ int) (int, error) {
			return 901, nil
		},
	}
	out := setupHandlers(t, client, func(cfg *config.Config) {
		cfg.Session.Driver = config.Default().Session.Driver
	})
	ctx := context.Background()

	require.NoError(t, Launch(ctx, Options{}, LaunchOptions{
		Hosts: "PDV01", Template: "Install-Agent", Actor: "alice",
	}))
	require.NoError(t, Finalize(ctx, Options{}, FinalizeOptions{JobID: 901, Actor: "alice"}))
	assert.Equal(t, []int{42}, client.DeletedInventories)

	records := auditRecords(t, out)
	require.Len(t, records, 1)
	assert.Equal(t, "PDV01", records[0].Hostname)
	assert.Equal(t, "Install-Agent", records[0].Template)
}

func TestLaunch_MemoryDriverRequiresWatch(t *testing.T) {
	client := &awx.MockClient{
		GetJobStatusAndOutputFunc: func(_ context.Context, _ int) (string, string) {
			return "successful", "ok"
		},
	}
	setupHandlers(t, client, func(cfg *config.Config) {
		cfg.Session.Driver = config.DriverMemory
	})
	ctx := context.Background()

	err := Launch(ctx, Options{}, LaunchOptions{Hosts: "PDV01", Template: "Install-Agent", Actor: "alice"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "memory session driver")
	assert.Zero(t, client.MutatingCalls())

	require.NoError(t, Launch(ctx, Options{}, LaunchOptions{
		Hosts: "PDV01", Template: "Install-Agent", Actor: "alice", Watch: true,
	}))
	assert.Equal(t, []int{1}, client.DeletedInventories)
}

func TestLaunch_RefusedWhileSessionBusy(t *testing.T) {
	client := &awx.MockClient{
		CreateInventoryFunc: func(_ context.Context, _ string, _ int) (int, error) { return 42, nil },
		LaunchTemplateFunc: func(_ context.Context, _, _ string, _ int) (int, error) {
			return 901, nil
		},
	}
	setupHandlers(t, client)
	ctx := context.Background()

	require.NoError(t, Launch(ctx, Options{}, LaunchOptions{Hosts: "PDV01", Template: "Install-Agent", Actor: "alice"}))

	err := Launch(ctx, Options{}, LaunchOptions{Hosts: "PDV02", Template: "Install-Agent", Actor: "alice"})
	require.ErrorIs(t, err, service.ErrAttemptInProgress)
	assert.Equal(t, 1, client.Calls("CreateInventory"))

	require.NoError(t, Finalize(ctx, Options{}, FinalizeOptions{JobID: 901, Actor: "alice"}))
	assert.Equal(t, []int{42}, client.DeletedInventories)
}

func TestFinalize_MultiHostSession(t *testing.T) {
	nextJob := 900
	nextInv := 40
	client := &awx.MockClient{
		CreateInventoryFunc: func(_ context.Context, _ string, _ int) (int, error) {
			nextInv++
			return nextInv, nil
		},
		LaunchTemplateFunc: func(_ context.Context, _, _ string, _ int) (int, error) {
			nextJob++
			return nextJob, nil
		},
	}
	setupHandlers(t, client)
	ctx := context.Background()

	require.NoError(t, Launch(ctx, Options{}, LaunchOptions{
		Hosts: "PDV01;PDV02", Template: "Install-Agent", Actor: "alice",
	}))

	require.NoError(t, Finalize(ctx, Options{}, FinalizeOptions{JobID: 902, Host: "PDV02", Actor: "alice"}))
	assert.Equal(t, []int{42}, client.DeletedInventories)
}

func TestFinalize_StillRunning(t *testing.T) {
	client := &awx.MockClient{
		GetJobStatusAndOutputFunc: func(_ context.Context, _ int) (string, string) {
			return "running", ""
		},
	}
	out := setupHandlers(t, client)

	err := Finalize(context.Background(), Options{}, FinalizeOptions{JobID: 7, Actor: "alice"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "job 7 is still running")

	require.NoError(t, Finalize(context.Background(), Options{}, FinalizeOptions{JobID: 7, Actor: "alice", Status: "canceled"}))
	assert.Contains(t, out.String(), "Job 7 finalized with status canceled")
}

func TestStatus(t *testing.T) {
	client := &awx.MockClient{
		GetJobStatusAndOutputFunc: func(_ context.Context, jobID int) (string, string) {
			assert.Equal(t, 901, jobID)
			return "running", "TASK [ping]"
		},
	}
	out := setupHandlers(t, client)

	require.NoError(t, Status(context.Background(), jsonOpts, 901, false))
	var res service.PollResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, "running", string(res.Status))
	assert.False(t, res.Terminal)

	out.Reset()
	require.NoError(t, Status(context.Background(), Options{}, 901, false))
	assert.Contains(t, out.String(), "awxgate: job 901")
	assert.Contains(t, out.String(), "TASK [ping]")
}

func TestStatus_Watch(t *testing.T) {
	polls := 0
	client := &awx.MockClient{
		GetJobStatusAndOutputFunc: func(_ context.Context, _ int) (string, string) {
			polls++
			if polls < 3 {
				return "running", ""
			}
			return "successful", "done"
		},
	}
	out := setupHandlers(t, client)

	require.NoError(t, Status(context.Background(), Options{}, 5, true))
	assert.Equal(t, 3, polls)
	assert.Contains(t, out.String(), "Job 5: running")
	assert.Contains(t, out.String(), "Job 5: successful")
	assert.Contains(t, out.String(), "done")
}

func TestAuditShow(t *testing.T) {
	client := &awx.MockClient{
		GetJobStatusAndOutputFunc: func(_ context.Context, _ int) (string, string) {
			return "successful", "all good"
		},
	}
	out := setupHandlers(t, client)
	ctx := context.Background()

	require.NoError(t, Launch(ctx, Options{}, LaunchOptions{
		Hosts: "PDV01", Template: "Install-Agent", Actor: "alice@corp.example", Watch: true,
	}))
	records := auditRecords(t, out)
	require.Len(t, records, 1)

	out.Reset()
	ts := records[0].Timestamp.Format(time.RFC3339)
	require.NoError(t, AuditShow(ctx, Options{}, ts, "PDV01", "alice@corp.example"))
	assert.Contains(t, out.String(), "Host:      PDV01")
	assert.Contains(t, out.String(), "Result:    success")
	assert.Contains(t, out.String(), "all good")

	err := AuditShow(ctx, Options{}, ts, "PDV02", "alice@corp.example")
	require.ErrorIs(t, err, audit.ErrNotFound)

	err = AuditShow(ctx, Options{}, "yesterday", "PDV01", "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid timestamp")
}

func TestAuditList_Plain(t *testing.T) {
	client := &awx.MockClient{
		HostExistsFunc: func(_ context.Context, _ string) bool { return false },
	}
	out := setupHandlers(t, client)
	ctx := context.Background()

	require.NoError(t, AuditList(ctx, Options{}, "", ""))
	assert.Contains(t, out.String(), "No audit records in range.")

	_ = Launch(ctx, Options{}, LaunchOptions{Hosts: "PDV01", Template: "Install-Agent", Actor: "alice"})

	out.Reset()
	require.NoError(t, AuditList(ctx, Options{}, "", ""))
	assert.Contains(t, out.String(), "\talice\tPDV01\tInstall-Agent\tfailed\n")
}

func TestParseAuditRange(t *testing.T) {
	now := time.Date(2024, 5, 1, 15, 0, 0, 0, time.Local)

	rng, err := parseAuditRange("", "", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.Local), rng.From)
	assert.True(t, rng.Contains(time.Date(2024, 5, 1, 23, 59, 59, 0, time.Local)))
	assert.False(t, rng.Contains(time.Date(2024, 5, 2, 0, 0, 0, 0, time.Local)))

	rng, err = parseAuditRange("2024-04-28", "2024-04-30", now)
	require.NoError(t, err)
	assert.True(t, rng.Contains(time.Date(2024, 4, 29, 12, 0, 0, 0, time.Local)))

	_, err = parseAuditRange("2024-05-02", "2024-05-01", now)
	require.Error(t, err)

	_, err = parseAuditRange("May 1st", "", now)
	require.Error(t, err)
}

func TestRenderAuditTable(t *testing.T) {
	records := []audit.Record{
		{Timestamp: time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC), Actor: "alice", Hostname: "PDV01", Template: "Install-Agent", Success: true},
		{Timestamp: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC), Actor: "bob", Hostname: "CN02", Template: "Patch", Success: false},
	}

	out := renderAuditTable(records)
	for _, want := range []string{"TIME", "RESULT", "2024-05-01 10:30:00", "PDV01", "success", "CN02", "failed"} {
		assert.Contains(t, out, want)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	log := NewLogger(&buf, false)
	log.Info("hello", "job", 901)
	log.V(1).Info("hidden")
	assert.Contains(t, buf.String(), `"msg"="hello"`)
	assert.Contains(t, buf.String(), `"job"=901`)
	assert.NotContains(t, buf.String(), "hidden")

	buf.Reset()
	NewLogger(&buf, true).V(1).Info("shown")
	assert.Contains(t, buf.String(), "shown")
}
