package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/md2docx/internal/pipeline"
)

func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeConvertRequest(w, r)
	if !ok {
		return
	}
	cfg, err := resolveBranding(req.Branding)
	if err != nil {
		s.writeConvertError(w, r, err)
		return
	}

	job := pipeline.NewJob(pipeline.Request{
		Markdown: []byte(req.Markdown),
		Config:   cfg,
		Filename: outputFilename(req.Filename),
	})
	if err := s.orchestrator.Submit(job); err != nil {
		s.writeConvertError(w, r, err)
		return
	}
	s.log.Info("job queued", "request_id", RequestIDFrom(r.Context()), "job_id", job.ID)

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":       job.ID,
		"status":       pipeline.StatusQueued,
		"poll_url":     fmt.Sprintf("/api/jobs/%s", job.ID),
		"document_url": fmt.Sprintf("/api/jobs/%s/document", job.ID),
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleJobDocument(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	select {
	case <-job.Done():
	default:
		jsonError(w, "job not finished", http.StatusConflict)
		return
	}
	data, err := job.Result()
	if err != nil {
		jsonError(w, "job failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeDocument(w, data, job.Filename)
}
