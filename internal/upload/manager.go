// Package upload runs document imports in the background so clients can
// poll their progress.
package upload

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/importer"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/logging"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/session"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/validator"
)

// Status represents the import job status.
type Status string

const (
	StatusQueued      Status = "queued"
	StatusReading     Status = "reading"
	StatusNormalizing Status = "normalizing"
	StatusValidating  Status = "validating"
	StatusResolving   Status = "resolving"
	StatusComplete    Status = "complete"
	StatusError       Status = "error"
)

// DefaultJobTimeout bounds a single import including capability lookups.
const DefaultJobTimeout = 2 * time.Minute

var stageProgress = map[Status]float64{
	StatusQueued:      0,
	StatusReading:     10,
	StatusNormalizing: 30,
	StatusValidating:  50,
	StatusResolving:   75,
	StatusComplete:    100,
}

// Job represents an async import job.
type Job struct {
	ID          string                      `json:"id"`
	SessionID   string                      `json:"sessionId"`
	FileName    string                      `json:"fileName"`
	Size        int                         `json:"size"`
	Status      Status                      `json:"status"`
	Progress    float64                     `json:"progress"`
	Version     int64                       `json:"version,omitempty"`
	Warnings    []validator.Warning         `json:"warnings,omitempty"`
	Report      *importer.Report            `json:"report,omitempty"`
	Errors      []validator.ValidationError `json:"errors,omitempty"`
	Line        int                         `json:"line,omitempty"`
	Column      int                         `json:"column,omitempty"`
	Error       string                      `json:"error,omitempty"`
	CreatedAt   time.Time                   `json:"createdAt"`
	CompletedAt *time.Time                  `json:"completedAt,omitempty"`
}

// Done reports whether the job reached a final status.
func (j *Job) Done() bool {
	return j.Status == StatusComplete || j.Status == StatusError
}

// Importer is the part of importer.Importer the manager needs.
type Importer interface {
	ImportWithProgress(ctx context.Context, name string, r io.Reader, progress func(importer.Stage)) (*importer.Result, error)
}

// Sessions publishes imported documents.
type Sessions interface {
	Update(id string, t session.Transition) (*session.Snapshot, error)
}

// Manager handles async import processing.
type Manager struct {
	jobs     map[string]*Job
	mu       sync.RWMutex
	importer Importer
	sessions Sessions
	logger   *logging.Logger
	timeout  time.Duration
	wg       sync.WaitGroup
	now      func() time.Time
}

// NewManager creates a new import job manager. A non-positive timeout
// uses DefaultJobTimeout.
func NewManager(im Importer, sessions Sessions, timeout time.Duration, logger *logging.Logger) *Manager {
	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}
	return &Manager{
		jobs:     make(map[string]*Job),
		importer: im,
		sessions: sessions,
		logger:   logger,
		timeout:  timeout,
		now:      time.Now,
	}
}

// StartJob begins async import of data into the session and returns a
// snapshot of the new job.
func (m *Manager) StartJob(sessionID, fileName string, data []byte) Job {
	job := &Job{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		FileName:  fileName,
		Size:      len(data),
		Status:    StatusQueued,
		CreatedAt: m.now(),
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	snapshot := *job
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.processJob(job, data)
	}()

	return snapshot
}

// GetJob returns a copy of the job.
func (m *Manager) GetJob(id string) (Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Wait blocks until every started job has finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) processJob(job *Job, data []byte) {
	lg := m.logger.With("job", job.ID, "session", job.SessionID)
	lg.Info("import job started", "file", job.FileName, "bytes", job.Size)

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	res, err := m.importer.ImportWithProgress(ctx, job.FileName, bytes.NewReader(data), func(s importer.Stage) {
		m.updateJobStatus(job, Status(s))
	})
	if err != nil {
		m.markJobError(job, err)
		lg.Warn("import job failed", "error", err)
		return
	}

	snap, err := m.sessions.Update(job.SessionID, session.Load(res.Config))
	if err != nil {
		m.markJobError(job, err)
		lg.Warn("import job could not be loaded", "error", err)
		return
	}

	m.markJobComplete(job, res, snap.Version)
	lg.Info("import job complete", "version", snap.Version, "warnings", len(res.Warnings))
}

func (m *Manager) updateJobStatus(job *Job, status Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job.Status = status
	job.Progress = stageProgress[status]
}

func (m *Manager) markJobComplete(job *Job, res *importer.Result, version int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	report := res.Report
	job.Status = StatusComplete
	job.Progress = 100
	job.Version = version
	job.Warnings = res.Warnings
	job.Report = &report
	now := m.now()
	job.CompletedAt = &now
}

func (m *Manager) markJobError(job *Job, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job.Status = StatusError
	job.Error = err.Error()

	var verrs validator.ValidationErrors
	var perr *importer.ParseError
	switch {
	case errors.As(err, &verrs):
		job.Errors = verrs
	case errors.As(err, &perr):
		job.Line = perr.Line
		job.Column = perr.Column
	}
	now := m.now()
	job.CompletedAt = &now
}

// CleanupOldJobs removes finished jobs older than maxAge and returns how
// many were removed.
func (m *Manager) CleanupOldJobs(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-maxAge)
	removed := 0
	for id, job := range m.jobs {
		if job.Done() && job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(m.jobs, id)
			removed++
		}
	}
	return removed
}
