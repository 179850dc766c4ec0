// Package storage persists pipeline runs for the HTTP API.
//
// A [Run] records one execution of a chart preset: its status, the chart
// document it produced and timing stats. Backends implement [Store]:
//
//   - [MemoryStore]: process-local, for development and tests
//   - [FileStore]: one JSON file per run, for single-host deployments
//   - [MongoStore]: a MongoDB collection shared by API replicas
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/healthviz/pkg/chart"
	"github.com/matzehuels/healthviz/pkg/errors"
)

// DefaultDatabase is the MongoDB database used when none is configured.
const DefaultDatabase = "healthviz"

// DefaultListLimit caps [Store.ListRuns] when limit is not positive.
const DefaultListLimit = 50

// Status is the outcome of a run.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is one persisted pipeline execution.
type Run struct {
	ID        string       `json:"id" bson:"_id"`
	Preset    string       `json:"preset" bson:"preset"`
	Status    Status       `json:"status" bson:"status"`
	Error     string       `json:"error,omitempty" bson:"error,omitempty"`
	ErrorCode string       `json:"error_code,omitempty" bson:"error_code,omitempty"`
	Chart     *chart.Chart `json:"chart,omitempty" bson:"chart,omitempty"`
	ChartHash string       `json:"chart_hash,omitempty" bson:"chart_hash,omitempty"`
	Rows      int          `json:"rows" bson:"rows"`
	Cached    bool         `json:"cached" bson:"cached"`
	// DurationMS is the wall time of the whole run in milliseconds.
	DurationMS int64     `json:"duration_ms" bson:"duration_ms"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

// NewRun returns a run for preset with a fresh ID. An empty id generates one.
func NewRun(id, preset string) *Run {
	if id == "" {
		id = uuid.NewString()
	}
	return &Run{ID: id, Preset: preset, CreatedAt: time.Now().UTC()}
}

// Fail marks the run failed with err.
func (r *Run) Fail(err error) {
	r.Status = StatusFailed
	r.Error = errors.UserMessage(err)
	r.ErrorCode = string(errors.GetCode(err))
}

// Store persists runs.
//
// GetRun returns NOT_FOUND for unknown IDs. ListRuns returns runs newest
// first, filtered by preset when preset is non-empty.
type Store interface {
	SaveRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, preset string, limit int) ([]*Run, error)
	Close(ctx context.Context) error
}

// Backend names a store implementation.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendFile   Backend = "file"
	BackendMongo  Backend = "mongo"
)

// OpenOptions configures [Open].
type OpenOptions struct {
	URI      string
	Database string
	Dir      string
}

// Open constructs the store for backend. An empty backend means memory.
func Open(ctx context.Context, backend Backend, opts OpenOptions) (Store, error) {
	switch backend {
	case BackendMemory, "":
		return NewMemoryStore(), nil
	case BackendFile:
		s, err := NewFileStore(opts.Dir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendMongo:
		s, err := NewMongoStore(ctx, opts.URI, opts.Database)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown storage backend %q", backend)
	}
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeNotFound, "run %q not found", id)
}

func listLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
