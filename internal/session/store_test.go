package session

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func TestStore_PutGetClear(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			want := Attempt{
				JobID:        901,
				Hostname:     "PDV01",
				TemplateName: "Install-Agent",
				StartTime:    time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
				InventoryID:  42,
			}

			_, err := s.Get(ctx, "sess-1")
			assert.ErrorIs(t, err, ErrNoAttempt)

			require.NoError(t, s.Put(ctx, "sess-1", want))
			got, err := s.Get(ctx, "sess-1")
			require.NoError(t, err)
			assert.Equal(t, want.JobID, got.JobID)
			assert.Equal(t, want.Hostname, got.Hostname)
			assert.Equal(t, want.TemplateName, got.TemplateName)
			assert.Equal(t, want.InventoryID, got.InventoryID)
			assert.True(t, want.StartTime.Equal(got.StartTime))

			// Sessions never share an attempt.
			_, err = s.Get(ctx, "sess-2")
			assert.ErrorIs(t, err, ErrNoAttempt)

			require.NoError(t, s.Clear(ctx, "sess-1"))
			_, err = s.Get(ctx, "sess-1")
			assert.ErrorIs(t, err, ErrNoAttempt)
			require.NoError(t, s.Clear(ctx, "sess-1"))
		})
	}
}

func TestStore_PutReplaces(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Put(ctx, "sess", Attempt{JobID: 1, StartTime: time.Now()}))
			require.NoError(t, s.Put(ctx, "sess", Attempt{JobID: 2, StartTime: time.Now()}))

			got, err := s.Get(ctx, "sess")
			require.NoError(t, err)
			assert.Equal(t, 2, got.JobID)
		})
	}
}

func TestStore_ClaimFinalizeOnce(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			var wins int32
			var wg sync.WaitGroup
			for range 8 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					ok, err := s.ClaimFinalize(ctx, 901)
					assert.NoError(t, err)
					if ok {
						atomic.AddInt32(&wins, 1)
					}
				}()
			}
			wg.Wait()
			assert.EqualValues(t, 1, wins)

			ok, err := s.ClaimFinalize(ctx, 902)
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestStore_ClearJob(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Put(ctx, "sess", Attempt{JobID: 901, Hostname: "PDV01", InventoryID: 42}))

			removed, err := s.ClearJob(ctx, "sess", 555)
			require.NoError(t, err)
			assert.False(t, removed)
			_, err = s.Get(ctx, "sess")
			require.NoError(t, err)

			var wins int32
			var wg sync.WaitGroup
			for range 4 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					ok, err := s.ClearJob(ctx, "sess", 901)
					assert.NoError(t, err)
					if ok {
						atomic.AddInt32(&wins, 1)
					}
				}()
			}
			wg.Wait()
			assert.EqualValues(t, 1, wins)

			_, err = s.Get(ctx, "sess")
			assert.ErrorIs(t, err, ErrNoAttempt)
		})
	}
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sessions.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "sess", Attempt{JobID: 7, Hostname: "CN01", StartTime: time.Now()}))
	ok, err := s.ClaimFinalize(ctx, 5)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, "CN01", got.Hostname)

	ok, err = s.ClaimFinalize(ctx, 5)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOpen(t *testing.T) {
	s, err := Open("", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	_, err = Open("redis", "")
	assert.Error(t, err)
}
