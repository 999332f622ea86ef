package pipeline

import (
	"errors"
	"testing"
	"time"
)

func TestContentHashHex(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"empty document", nil, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"text", []byte("hello world"), "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContentHashHex(tt.data); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
			if got := ContentHashHex(tt.data); len(got) != 64 {
				t.Errorf("expected 64 hex characters, got %d", len(got))
			}
		})
	}
}

func TestNewJob(t *testing.T) {
	a := NewJob(Request{Markdown: []byte("x"), Filename: "a.docx"})
	b := NewJob(Request{})
	if len(a.ID) != 26 {
		t.Errorf("expected 26 character ULID, got %q", a.ID)
	}
	if a.ID == b.ID {
		t.Error("expected unique job ids")
	}
	if a.Status != StatusQueued || a.Filename != "a.docx" {
		t.Errorf("unexpected initial state %+v", a.Snapshot())
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := NewJob(Request{})

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusConverting, "converting"},
		{StatusConverting, "serializing"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.Status)
		}
		if job.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, job.Phase)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.phase)
		}
	}
}

func TestJob_Complete(t *testing.T) {
	job := NewJob(Request{Markdown: []byte("# hi")})
	job.complete([]byte("hello world"), nil, 12*time.Millisecond)

	select {
	case <-job.Done():
	default:
		t.Fatal("expected Done to be closed")
	}
	data, err := job.Result()
	if err != nil || string(data) != "hello world" {
		t.Errorf("unexpected result %q, %v", data, err)
	}
	snap := job.Snapshot()
	if snap.Status != StatusCompleted || snap.Phase != "done" {
		t.Errorf("expected completed/done, got %s/%s", snap.Status, snap.Phase)
	}
	if snap.SizeBytes != 11 || snap.DurationMs != 12 {
		t.Errorf("unexpected size/duration %d/%d", snap.SizeBytes, snap.DurationMs)
	}
	if snap.SHA256 != "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9" {
		t.Errorf("unexpected checksum %q", snap.SHA256)
	}
	if job.req.Markdown != nil {
		t.Error("expected input to be released after completion")
	}

	// Later outcomes are ignored.
	job.complete(nil, errors.New("late"), 0)
	if _, err := job.Result(); err != nil {
		t.Errorf("expected first outcome to stick, got %v", err)
	}
}

func TestJob_CompleteFailed(t *testing.T) {
	job := NewJob(Request{})
	job.complete(nil, errors.New("boom"), 0)
	snap := job.Snapshot()
	if snap.Status != StatusFailed || snap.Error != "boom" {
		t.Errorf("expected failed with error, got %+v", snap)
	}
	if snap.SHA256 != "" || snap.SizeBytes != 0 {
		t.Errorf("expected no document details, got %+v", snap)
	}
}

func TestJobStore(t *testing.T) {
	store := NewJobStore(time.Minute)
	if store.Get("01ARZ3NDEKTSV4RRFFQ69G5FAV") != nil {
		t.Error("expected nil for unknown job id")
	}

	finished := NewJob(Request{Filename: "old.docx"})
	finished.complete([]byte("doc"), nil, 0)
	finished.mu.Lock()
	finished.UpdatedAt = time.Now().Add(-2 * time.Minute)
	finished.mu.Unlock()

	pending := NewJob(Request{Filename: "new.docx"})
	store.Put(finished)
	store.Put(pending)
	if store.Len() != 2 {
		t.Fatalf("expected 2 jobs, got %d", store.Len())
	}
	if got := store.Get(pending.ID); got != pending {
		t.Errorf("expected stored job %s back, got %v", pending.ID, got)
	}

	store.Cleanup()
	if store.Get(finished.ID) != nil {
		t.Error("expected job idle past the TTL to be evicted")
	}
	if store.Get(pending.ID) == nil {
		t.Error("expected recent job to survive cleanup")
	}

	NewJobStore(time.Minute).Cleanup()
}
