package pipeline

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/dgallion1/md2docx/internal/branding"
)

// JobStatus represents the state of a conversion job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusConverting JobStatus = "converting"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Request is the input of one conversion.
type Request struct {
	Markdown []byte
	Config   *branding.Config // nil means defaults
	Filename string           // suggested output name
}

// Job tracks the state of a single conversion.
type Job struct {
	mu sync.Mutex

	ID       string
	Status   JobStatus
	Phase    string
	Filename string

	CreatedAt time.Time
	UpdatedAt time.Time

	req      Request
	ctx      context.Context // caller context for synchronous conversions
	done     chan struct{}
	document []byte
	err      error
	duration time.Duration
}

// NewJob creates a queued job with a fresh ULID.
func NewJob(req Request) *Job {
	now := time.Now()
	return &Job{
		ID:        ulid.Make().String(),
		Status:    StatusQueued,
		Phase:     "queued",
		Filename:  req.Filename,
		CreatedAt: now,
		UpdatedAt: now,
		req:       req,
		done:      make(chan struct{}),
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Len returns the number of retained jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.updatedAt()) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

func (j *Job) updatedAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.UpdatedAt
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// complete records the outcome and releases waiters. Only the first
// call has an effect.
func (j *Job) complete(document []byte, err error, took time.Duration) {
	j.mu.Lock()
	defer j.mu.Unlock()
	select {
	case <-j.done:
		return
	default:
	}
	j.document = document
	j.err = err
	j.duration = took
	j.req.Markdown = nil
	j.UpdatedAt = time.Now()
	if err != nil {
		j.Status = StatusFailed
	} else {
		j.Status = StatusCompleted
		j.Phase = "done"
	}
	close(j.done)
}

// Done is closed once the job has completed or failed.
func (j *Job) Done() <-chan struct{} { return j.done }

// Result returns the document bytes and error. It is only meaningful
// after Done is closed.
func (j *Job) Result() ([]byte, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.document, j.err
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID         string    `json:"job_id"`
	Status     JobStatus `json:"status"`
	Phase      string    `json:"phase"`
	Filename   string    `json:"filename"`
	SizeBytes  int       `json:"size_bytes,omitempty"`
	SHA256     string    `json:"sha256,omitempty"`
	DurationMs int64     `json:"duration_ms,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	snap := JobSnapshot{
		ID:         j.ID,
		Status:     j.Status,
		Phase:      j.Phase,
		Filename:   j.Filename,
		SizeBytes:  len(j.document),
		DurationMs: j.duration.Milliseconds(),
		CreatedAt:  j.CreatedAt,
		UpdatedAt:  j.UpdatedAt,
	}
	if j.document != nil {
		snap.SHA256 = ContentHashHex(j.document)
	}
	if j.err != nil {
		snap.Error = j.err.Error()
	}
	return snap
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
