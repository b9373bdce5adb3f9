package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/awxgate/internal/audit"
	"github.com/imamik/awxgate/internal/finalize"
	"github.com/imamik/awxgate/internal/monitor"
	"github.com/imamik/awxgate/internal/platform/awx"
	"github.com/imamik/awxgate/internal/provisioning"
	"github.com/imamik/awxgate/internal/session"
)

type fixture struct {
	svc    *Service
	client *awx.MockClient
	store  *session.MemoryStore
	audit  *audit.Recorder
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	client := &awx.MockClient{
		HostExistsFunc:      func(context.Context, string) bool { return true },
		CreateInventoryFunc: func(context.Context, string, int) (int, error) { return 42, nil },
		LaunchTemplateFunc:  func(context.Context, string, string, int) (int, error) { return 901, nil },
		ListTemplatesFunc:   func(context.Context) []string { return []string{"Install-Agent", "Patch-OS"} },
	}
	store := session.NewMemoryStore()
	rec, err := audit.NewRecorder(t.TempDir(), audit.WithLocation(time.UTC))
	require.NoError(t, err)

	wf := provisioning.NewWorkflow(client, 1)
	fin := finalize.NewHandler(client, store, rec)
	return &fixture{
		svc:    New(client, wf, fin, rec, store, opts...),
		client: client,
		store:  store,
		audit:  rec,
	}
}

func (f *fixture) records(t *testing.T) []audit.Record {
	t.Helper()
	recs, err := f.audit.Query(context.Background(), audit.Range{})
	require.NoError(t, err)
	return recs
}

func TestGetTemplates(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	assert.Equal(t, []string{"Install-Agent", "Patch-OS"}, f.svc.GetTemplates(context.Background()))
}

func TestLaunch_RejectsBadPrefixBeforeAnyRemoteCall(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		host string
	}{
		{"unknown prefix", "WEB01"},
		{"empty", ""},
		{"only separators", " ; ; "},
		{"not a hostname", "PDV 01!"},
		{"one bad among many", "PDV01;XYZ02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.Launch(context.Background(), LaunchRequest{SessionID: "s", Hostname: tt.host, Template: "Install-Agent"})

			require.ErrorIs(t, err, ErrInvalidRequest)
			assert.Zero(t, f.client.Calls("HostExists"))
			assert.Zero(t, f.client.MutatingCalls())
			assert.Empty(t, f.records(t))
		})
	}
}

func TestLaunch_PrefixCaseInsensitive(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	res, err := f.svc.Launch(context.Background(), LaunchRequest{SessionID: "s", Hostname: "pdv01", Template: "Install-Agent"})
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestLaunch_Success(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Launch(ctx, LaunchRequest{SessionID: "s", Actor: "ana", Hostname: "PDV01", Template: "Install-Agent"})

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 901, res.JobID)
	assert.NotEmpty(t, res.Log)

	a, err := f.store.Get(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, 901, a.JobID)
	assert.Equal(t, 42, a.InventoryID)

	// Successful launches are audited at finalize time.
	assert.Empty(t, f.records(t))
}

func TestLaunch_FailureAuditedOnceAndSessionCleared(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	f.client.AddHostFunc = func(context.Context, int, string) error { return errors.New("400") }
	require.NoError(t, f.store.Put(ctx, "s", session.Attempt{JobID: 1}))

	res, err := f.svc.Launch(ctx, LaunchRequest{SessionID: "s", Actor: "ana", Hostname: "PDV01", Template: "Install-Agent"})

	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, provisioning.ErrHostRegistrationFailed)
	assert.Equal(t, []int{42}, f.client.DeletedInventories)

	recs := f.records(t)
	require.Len(t, recs, 1)
	assert.False(t, recs[0].Success)
	assert.Equal(t, "PDV01", recs[0].Hostname)
	assert.Equal(t, "ana", recs[0].Actor)

	_, err = f.store.Get(ctx, "s")
	assert.ErrorIs(t, err, session.ErrNoAttempt)
}

func TestLaunch_HostNotRegisteredAudited(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.client.HostExistsFunc = func(context.Context, string) bool { return false }

	res, err := f.svc.Launch(context.Background(), LaunchRequest{SessionID: "s", Hostname: "CN01", Template: "T"})

	require.NoError(t, err)
	assert.ErrorIs(t, res.Err, provisioning.ErrHostNotRegistered)
	assert.Zero(t, f.client.MutatingCalls())
	assert.Len(t, f.records(t), 1)
}

type unreachableHost struct{}

func (unreachableHost) Check(context.Context, string) error { return errors.New("connection refused") }

func TestLaunch_UnreachableHostAudited(t *testing.T) {
	t.Parallel()
	f := newFixture(t, WithReachabilityCheck(unreachableHost{}))

	res, err := f.svc.Launch(context.Background(), LaunchRequest{SessionID: "s", Hostname: "RDS01", Template: "T"})

	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Log, "reachability check")
	assert.Zero(t, f.client.Calls("HostExists"))
	recs := f.records(t)
	require.Len(t, recs, 1)
	assert.False(t, recs[0].Success)
}

func TestLaunch_RejectsMultipleHosts(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	_, err := f.svc.Launch(context.Background(), LaunchRequest{SessionID: "s", Hostname: "PDV01;PDV02", Template: "T"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestLaunchMany(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	next := 900
	f.client.LaunchTemplateFunc = func(context.Context, string, string, int) (int, error) {
		next++
		return next, nil
	}

	results, err := f.svc.LaunchMany(ctx, LaunchRequest{SessionID: "s", Hostname: "PDV01; TOP02 ;CN03", Template: "T"})

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "TOP02", results[1].Hostname)
	assert.Equal(t, 3, f.client.Calls("CreateInventory"))

	a, err := f.store.Get(ctx, HostSessionID("s", "TOP02"))
	require.NoError(t, err)
	assert.Equal(t, 902, a.JobID)
}

func TestLaunchMany_TooManyHosts(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	_, err := f.svc.LaunchMany(context.Background(), LaunchRequest{SessionID: "s", Hostname: "CN1;CN2;CN3;CN4;CN5;CN6", Template: "T"})
	require.ErrorIs(t, err, ErrInvalidRequest)
	assert.Zero(t, f.client.Calls("HostExists"))
}

func TestPollStatus(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.client.GetJobStatusAndOutputFunc = func(context.Context, int) (string, string) { return "failed", "fatal: unreachable" }

	res := f.svc.PollStatus(context.Background(), 901)
	assert.Equal(t, monitor.StatusFailed, res.Status)
	assert.True(t, res.Terminal)
	assert.Equal(t, "fatal: unreachable", res.Output)
}

func TestLaunchThenFinalize(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Launch(ctx, LaunchRequest{SessionID: "s", Actor: "ana", Hostname: "PDV01", Template: "Install-Agent"})
	require.NoError(t, err)
	require.True(t, res.Success)

	fin, err := f.svc.Finalize(ctx, FinalizeRequest{SessionID: "s", Actor: "ana", JobID: 901, FinalStatus: "successful", Output: "done"})
	require.NoError(t, err)
	assert.True(t, fin.Success)
	assert.False(t, fin.AlreadyFinalized)

	again, err := f.svc.Finalize(ctx, FinalizeRequest{SessionID: "s", Actor: "ana", JobID: 901, FinalStatus: "successful", Output: "done"})
	require.NoError(t, err)
	assert.True(t, again.Success)
	assert.True(t, again.AlreadyFinalized)

	recs := f.records(t)
	require.Len(t, recs, 1)
	assert.True(t, recs[0].Success)
	assert.Equal(t, "Install-Agent", recs[0].Template)
	assert.Equal(t, []int{42}, f.client.DeletedInventories)

	_, err = f.store.Get(ctx, "s")
	assert.ErrorIs(t, err, session.ErrNoAttempt)
}

func TestLaunch_RefusedWhileAttemptInProgress(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Launch(ctx, LaunchRequest{SessionID: "s", Actor: "ana", Hostname: "PDV01", Template: "Install-Agent"})
	require.NoError(t, err)

	_, err = f.svc.Launch(ctx, LaunchRequest{SessionID: "s", Actor: "ana", Hostname: "PDV02", Template: "Install-Agent"})
	require.ErrorIs(t, err, ErrAttemptInProgress)
	assert.Contains(t, err.Error(), "job 901")
	assert.Equal(t, 1, f.client.Calls("CreateInventory"))
	assert.Empty(t, f.records(t))

	a, err := f.store.Get(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "PDV01", a.Hostname)
	assert.Equal(t, 42, a.InventoryID)

	_, err = f.svc.Finalize(ctx, FinalizeRequest{SessionID: "s", JobID: 901, FinalStatus: "successful"})
	require.NoError(t, err)
	res, err := f.svc.Launch(ctx, LaunchRequest{SessionID: "s", Actor: "ana", Hostname: "PDV02", Template: "Install-Agent"})
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestLaunchMany_RefusedWhileHostSessionBusy(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Put(ctx, HostSessionID("s", "TOP02"), session.Attempt{JobID: 700, InventoryID: 9}))

	_, err := f.svc.LaunchMany(ctx, LaunchRequest{SessionID: "s", Hostname: "PDV01;TOP02", Template: "T"})

	require.ErrorIs(t, err, ErrAttemptInProgress)
	assert.Zero(t, f.client.Calls("CreateInventory"))
}

func TestLaunch_FailedLaunchKeepsNothingInSession(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	f.client.AddHostFunc = func(context.Context, int, string) error { return errors.New("boom") }

	res, err := f.svc.Launch(ctx, LaunchRequest{SessionID: "s", Hostname: "PDV01", Template: "T"})
	require.NoError(t, err)
	assert.False(t, res.Success)

	_, err = f.store.Get(ctx, "s")
	assert.ErrorIs(t, err, session.ErrNoAttempt)
}

func TestLaunch_ConcurrentSameSessionLaunchesOnce(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	var (
		mu        sync.Mutex
		successes int
		wg        sync.WaitGroup
	)
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.svc.Launch(ctx, LaunchRequest{SessionID: "s", Hostname: "PDV01", Template: "T"})
			if err == nil {
				err = res.Err
			}
			if err != nil {
				assert.ErrorIs(t, err, ErrAttemptInProgress)
				return
			}
			mu.Lock()
			successes++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, f.client.Calls("CreateInventory"))
}

func TestFinalize_InvalidRequest(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	_, err := f.svc.Finalize(context.Background(), FinalizeRequest{JobID: 0, FinalStatus: "successful"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestHostPolicy_Allowed(t *testing.T) {
	t.Parallel()
	p := DefaultHostPolicy()
	assert.True(t, p.Allowed("CN-LOJA-01"))
	assert.True(t, p.Allowed("top99"))
	assert.False(t, p.Allowed("XCN01"))
	assert.True(t, HostPolicy{}.Allowed("anything"))
}
