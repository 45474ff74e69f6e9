package http

import (
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"tippool/internal/core"
	"tippool/internal/log"
	"tippool/internal/storage"
)

var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
}

type extractionResponse struct {
	ID        uuid.UUID           `json:"id"`
	Status    storage.JobStatus   `json:"status"`
	Text      string              `json:"text,omitempty"`
	Roster    []core.PartnerHours `json:"roster,omitempty"`
	Attempts  int                 `json:"attempts"`
	LastError string              `json:"last_error,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

func toExtractionResponse(job *storage.ExtractionJob) extractionResponse {
	return extractionResponse{
		ID:        job.ID,
		Status:    job.Status,
		Text:      job.Text,
		Roster:    job.Roster,
		Attempts:  job.Attempts,
		LastError: job.LastError,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}
}

// handleCreateExtraction accepts a multipart upload with an "image" part,
// persists a pending job and hands its ID to the queue. The response is
// 202: extraction happens in the worker, not in the request path.
func (s *Server) handleCreateExtraction(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		respondError(w, http.StatusRequestEntityTooLarge, "upload_too_large", "image exceeds the upload limit")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", `multipart field "image" is required`)
		return
	}
	defer file.Close()

	imageType := header.Header.Get("Content-Type")
	if !allowedImageTypes[imageType] {
		respondError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "image must be png, jpeg or webp")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	job, err := s.extractions.CreateJob(r.Context(), data, imageType)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	s.metrics.ExtractionJobs.WithLabelValues("accepted").Inc()

	if s.queue != nil {
		if err := s.queue.PublishExtractionJob(r.Context(), job.ID); err != nil {
			// The job stays pending; the worker sweep will find it.
			log.FromContext(r.Context()).WarnContext(r.Context(), "failed to enqueue extraction job",
				log.FieldJobID, job.ID.String(), "error", err)
		}
	}

	respondJSON(w, http.StatusAccepted, toExtractionResponse(job))
}

func (s *Server) handleGetExtraction(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid extraction job id")
		return
	}

	job, err := s.extractions.GetJob(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, toExtractionResponse(job))
}
