package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ddalkkak/course-service/internal/domain"
)

// maxRequestBodySize bounds request bodies at 1 MB.
const maxRequestBodySize = 1 << 20

// generateCourses handles POST /api/v1/courses/generate.
func (s *Server) generateCourses(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var req domain.GenerationRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	result, err := s.generator.Generate(r.Context(), &req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error().Err(err).Msg("course generation failed")
		writeError(w, http.StatusInternalServerError, "course generation failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// startCollectionBatch handles POST /api/v1/places/collection/batch.
// The job runs in the background; the handler acks immediately.
func (s *Server) startCollectionBatch(w http.ResponseWriter, r *http.Request) {
	s.logger.Info().Msg("collection batch triggered")

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.config.JobTimeout)
		defer cancel()

		collected, curated := s.collector.CollectAndCurate(ctx)
		s.logger.Info().
			Int("collected", collected).
			Int("curated", curated).
			Msg("collection batch finished")
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

// startRecurationBatch handles POST /api/v1/places/collection/recurate.
func (s *Server) startRecurationBatch(w http.ResponseWriter, r *http.Request) {
	s.logger.Info().Msg("re-curation batch triggered")

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.config.JobTimeout)
		defer cancel()

		curated, pending, err := s.collector.Recurate(ctx)
		if err != nil {
			s.logger.Error().Err(err).Msg("re-curation batch failed")
			return
		}
		s.logger.Info().
			Int("curated", curated).
			Int("pending", pending).
			Msg("re-curation batch finished")
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}
