package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/awxgate/internal/metrics"
	"github.com/imamik/awxgate/internal/util/naming"
)

// DetailDir is the sub-directory holding detail files.
const DetailDir = "detailed"

// Recorder writes and reads audit records under a directory.
type Recorder struct {
	dir      string
	loc      *time.Location
	archiver Archiver
	log      logr.Logger
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithLocation sets the time zone that decides a record's partition day.
func WithLocation(loc *time.Location) Option {
	return func(r *Recorder) { r.loc = loc }
}

// WithArchiver mirrors every written file through a.
func WithArchiver(a Archiver) Option {
	return func(r *Recorder) { r.archiver = a }
}

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(r *Recorder) { r.log = log }
}

// WithClock overrides the clock used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

// NewRecorder creates a Recorder rooted at dir, creating it if needed.
func NewRecorder(dir string, opts ...Option) (*Recorder, error) {
	r := &Recorder{
		dir:   dir,
		loc:   time.Local,
		log:   logr.Discard(),
		now:   time.Now,
		locks: make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := os.MkdirAll(filepath.Join(dir, DetailDir), 0o750); err != nil {
		return nil, fmt.Errorf("create audit directory: %w", err)
	}
	return r, nil
}

// Dir returns the root directory.
func (r *Recorder) Dir() string {
	return r.dir
}

func (r *Recorder) partitionLock(name string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[name]
	if !ok {
		l = &sync.Mutex{}
		r.locks[name] = l
	}
	return l
}

// Record appends rec to its day partition and writes its detail file.
// Empty actor, host and template are stored as UnknownValue. The timestamp
// is stored in the recorder's location without its monotonic reading.
// Failures are returned wrapped in ErrWriteFailure.
func (r *Recorder) Record(ctx context.Context, rec Record) error {
	rec = withDefaults(rec)
	if rec.Timestamp.IsZero() {
		rec.Timestamp = r.now()
	}
	rec.Timestamp = rec.Timestamp.In(r.loc).Round(0)

	partition := naming.AuditPartition(rec.Timestamp.In(r.loc))
	if err := r.appendToPartition(ctx, partition, rec); err != nil {
		metrics.RecordAuditWriteFailure()
		return fmt.Errorf("%w: partition %s: %w", ErrWriteFailure, partition, err)
	}

	detailName := naming.AuditDetail(rec.Timestamp.In(r.loc), rec.Hostname, rec.Actor)
	detail := Detail{
		Record:    rec,
		LogFile:   filepath.Join(DetailDir, detailName),
		CreatedAt: r.now(),
	}
	data, err := json.MarshalIndent(detail, "", "  ")
	if err != nil {
		metrics.RecordAuditWriteFailure()
		return fmt.Errorf("%w: encode detail: %w", ErrWriteFailure, err)
	}
	if err := writeFileAtomic(filepath.Join(r.dir, DetailDir, detailName), data); err != nil {
		metrics.RecordAuditWriteFailure()
		return fmt.Errorf("%w: detail %s: %w", ErrWriteFailure, detailName, err)
	}

	r.archive(ctx, detail.LogFile, data)
	return nil
}

func (r *Recorder) appendToPartition(ctx context.Context, name string, rec Record) error {
	l := r.partitionLock(name)
	l.Lock()
	defer l.Unlock()

	path := filepath.Join(r.dir, name)
	records, err := readPartition(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		records = nil
	case err != nil:
		// Keep the unreadable file for inspection and start a fresh partition.
		aside := fmt.Sprintf("%s.corrupt-%d", path, r.now().UnixNano())
		if rerr := os.Rename(path, aside); rerr != nil {
			return fmt.Errorf("move aside unreadable partition: %w", rerr)
		}
		r.log.Info("WARNING: unreadable audit partition moved aside", "partition", name, "moved_to", filepath.Base(aside), "error", err.Error())
		records = nil
	}

	records = append(records, rec)
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode partition: %w", err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return err
	}

	r.archive(ctx, name, data)
	return nil
}

func (r *Recorder) archive(ctx context.Context, key string, data []byte) {
	if r.archiver == nil {
		return
	}
	if err := r.archiver.Archive(ctx, filepath.ToSlash(key), data); err != nil {
		r.log.Error(err, "audit archive upload failed", "key", key)
	}
}

// Query returns the records whose timestamp falls in rng, newest first.
// Partitions that cannot be read or parsed are skipped with a warning.
func (r *Recorder) Query(ctx context.Context, rng Range) ([]Record, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("list audit partitions: %w", err)
	}

	result := []Record{}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() {
			continue
		}

		day, ok := naming.ParseAuditPartition(e.Name(), r.loc)
		if !ok || !dayIntersects(day, rng) {
			continue
		}
		path := filepath.Join(r.dir, e.Name())

		records, err := readPartition(path)
		if err != nil {
			r.log.Info("WARNING: skipping unreadable audit partition", "partition", filepath.Base(path), "error", err.Error())
			continue
		}
		for _, rec := range records {
			if rng.Contains(rec.Timestamp) {
				result = append(result, rec)
			}
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})
	return result, nil
}

// GetDetail returns the detail stored for the record of hostname and actor
// written at timestamp. Timestamps are compared to the second.
func (r *Recorder) GetDetail(ctx context.Context, timestamp time.Time, hostname, actor string) (*Detail, error) {
	dir := filepath.Join(r.dir, DetailDir)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("list audit details: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if !e.IsDir() && naming.IsAuditDetailFor(e.Name(), hostname, actor) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}

	want := timestamp.Truncate(time.Second)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			r.log.Info("WARNING: skipping unreadable audit detail", "file", filepath.Base(path), "error", err.Error())
			continue
		}
		var d Detail
		if err := json.Unmarshal(data, &d); err != nil {
			r.log.Info("WARNING: skipping malformed audit detail", "file", filepath.Base(path), "error", err.Error())
			continue
		}
		if d.Hostname == hostname && d.Actor == actor && d.Timestamp.Truncate(time.Second).Equal(want) {
			return &d, nil
		}
	}
	return nil, ErrNotFound
}

func dayIntersects(day time.Time, rng Range) bool {
	end := day.AddDate(0, 0, 1)
	if !rng.To.IsZero() && day.After(rng.To) {
		return false
	}
	if !rng.From.IsZero() && !end.After(rng.From) {
		return false
	}
	return true
}

// readPartition decodes a partition file. Files holding a single object
// instead of an array are read as a one-element partition.
func readPartition(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '{' {
		var rec Record
		if err := json.Unmarshal(trimmed, &rec); err != nil {
			return nil, fmt.Errorf("parse legacy partition: %w", err)
		}
		return []Record{rec}, nil
	}

	var records []Record
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, fmt.Errorf("parse partition: %w", err)
	}
	return records, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o640); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
