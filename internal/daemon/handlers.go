package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/exemplar/internal/domain"
	"github.com/felixgeelhaar/exemplar/internal/fixture"
	"github.com/felixgeelhaar/exemplar/internal/llm"
	"github.com/felixgeelhaar/exemplar/internal/queue"
)

// maxBodyBytes caps request bodies; generator output is a few KB
const maxBodyBytes = 1 << 20

// ExtractRequest is the body of POST /v1/extract
type ExtractRequest struct {
	CasesText      string `json:"cases_text"`
	ExpectedOutput string `json:"expected_output"`
}

// ExtractResponse is returned by POST /v1/extract
type ExtractResponse struct {
	Strategy    string                `json:"strategy"`
	Cases       domain.TestCaseList   `json:"cases"`
	NeedsReview bool                  `json:"needs_review"`
	Reviews     []domain.ReviewNotice `json:"reviews,omitempty"`
}

// GenerateRequest is the body of POST /v1/generate
type GenerateRequest struct {
	Requirements string `json:"requirements"`
	Save         bool   `json:"save"` // persist the cases as a fixture set
}

// UpdateCaseRequest is the body of PUT /v1/fixtures/{id}/cases/{index}
type UpdateCaseRequest struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// FixtureResponse is a fixture set with its review banner
type FixtureResponse struct {
	*domain.FixtureSet
	Reviews []domain.ReviewNotice `json:"reviews,omitempty"`
}

func newFixtureResponse(set *domain.FixtureSet) FixtureResponse {
	return FixtureResponse{FixtureSet: set, Reviews: set.Cases.ReviewNotices()}
}

// Extraction

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	result := s.engine.Extract(req.CasesText, req.ExpectedOutput)
	s.jsonResponse(w, http.StatusOK, ExtractResponse{
		Strategy:    result.Strategy,
		Cases:       result.Cases,
		NeedsReview: result.Cases.NeedsReview(),
		Reviews:     result.Cases.ReviewNotices(),
	})
}

// Generation

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	gen, err := s.generator.Generate(r.Context(), req.Requirements)
	if err != nil {
		s.serviceError(w, "failed to generate problem", err)
		return
	}

	response := map[string]any{"generation": gen}
	if req.Save {
		set, err := s.fixtures.Extract(r.Context(), fixture.ExtractRequest{
			Title:          gen.Draft.Title,
			CasesText:      gen.Draft.CasesText,
			ExpectedOutput: gen.Draft.ExpectedOutput,
		})
		if err != nil {
			s.serviceError(w, "failed to save fixture set", err)
			return
		}
		response["fixture"] = newFixtureResponse(set)
	}
	s.jsonResponse(w, http.StatusOK, response)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var draft domain.ProblemDraft
	if !s.decodeJSON(w, r, &draft) {
		return
	}

	report, err := s.generator.Validate(r.Context(), draft)
	if err != nil {
		s.serviceError(w, "failed to validate problem", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, report)
}

// Fixture sets

func (s *Server) handleCreateFixture(w http.ResponseWriter, r *http.Request) {
	var req fixture.ExtractRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	set, err := s.fixtures.Extract(r.Context(), req)
	if err != nil {
		s.serviceError(w, "failed to create fixture set", err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, newFixtureResponse(set))
}

func (s *Server) handleListFixtures(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.jsonError(w, http.StatusBadRequest, "limit must be a non-negative integer", nil)
			return
		}
		limit = n
	}

	sets, err := s.fixtures.List(r.Context(), limit)
	if err != nil {
		s.serviceError(w, "failed to list fixture sets", err)
		return
	}

	summaries := make([]map[string]any, 0, len(sets))
	for _, set := range sets {
		summaries = append(summaries, map[string]any{
			"id":           set.ID,
			"title":        set.Title,
			"strategy":     set.Strategy,
			"cases":        len(set.Cases),
			"needs_review": set.Cases.ReviewCount(),
			"updated_at":   set.UpdatedAt,
		})
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"fixtures": summaries})
}

func (s *Server) handleGetFixture(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	set, err := s.fixtures.Get(r.Context(), id)
	if err != nil {
		s.serviceError(w, "failed to get fixture set", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, newFixtureResponse(set))
}

func (s *Server) handleDeleteFixture(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	if err := s.fixtures.Delete(r.Context(), id); err != nil {
		s.serviceError(w, "failed to delete fixture set", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateCase(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "case index must be an integer", nil)
		return
	}

	var req UpdateCaseRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	set, err := s.fixtures.UpdateCase(r.Context(), id, index, req.Input, req.Output)
	if err != nil {
		s.serviceError(w, "failed to update case", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, newFixtureResponse(set))
}

func (s *Server) handleExportFixture(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	data, err := s.fixtures.Export(r.Context(), id)
	if err != nil {
		s.serviceError(w, "failed to export fixture set", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if r.URL.Query().Get("download") != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.json"`, id))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Async jobs

func (s *Server) handleEnqueueExtract(w http.ResponseWriter, r *http.Request) {
	if s.jobs == nil {
		s.jsonError(w, http.StatusServiceUnavailable, "extraction queue is not enabled", nil)
		return
	}

	var req fixture.ExtractRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	job := queue.NewExtractJob(req.Title, req.CasesText, req.ExpectedOutput)
	s.tracker.Track(job)
	if err := s.jobs.PublishExtractJob(r.Context(), job); err != nil {
		s.tracker.Record(&queue.ExtractResult{JobID: job.ID, Status: queue.StatusFailed, Error: err.Error()})
		s.jsonError(w, http.StatusBadGateway, "failed to queue extraction job", err)
		return
	}

	s.jsonResponse(w, http.StatusAccepted, map[string]any{
		"job_id": job.ID,
		"status": queue.StatusQueued,
	})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	status, found := s.tracker.Get(id)
	if !found {
		s.jsonError(w, http.StatusNotFound, "job not found", nil)
		return
	}
	s.jsonResponse(w, http.StatusOK, status)
}

// Request helpers

// decodeJSON reads a size-limited JSON body, writing a 400 on failure
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.jsonError(w, http.StatusRequestEntityTooLarge, "request body too large", nil)
			return false
		}
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return false
	}
	return true
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(r.PathValue("id")))
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid id", nil)
		return uuid.Nil, false
	}
	return id, true
}

// serviceError maps domain and provider errors onto HTTP statuses
func (s *Server) serviceError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, domain.ErrFixtureSetNotFound):
		s.jsonError(w, http.StatusNotFound, "fixture set not found", nil)
	case errors.Is(err, domain.ErrCaseIndexOutOfRange):
		s.jsonError(w, http.StatusNotFound, "test case not found", nil)
	case errors.Is(err, domain.ErrEmptyRequirements), errors.Is(err, domain.ErrInvalidInput):
		s.jsonError(w, http.StatusBadRequest, message, err)
	case errors.Is(err, llm.ErrNoDefaultProvider), errors.Is(err, llm.ErrProviderNotFound):
		s.jsonError(w, http.StatusServiceUnavailable, "no LLM provider configured", err)
	case errors.Is(err, domain.ErrEmptyGeneration), errors.Is(err, llm.ErrRateLimited):
		s.jsonError(w, http.StatusBadGateway, message, err)
	default:
		var apiErr *llm.APIError
		if errors.As(err, &apiErr) {
			s.jsonError(w, http.StatusBadGateway, message, err)
			return
		}
		s.jsonError(w, http.StatusInternalServerError, message, err)
	}
}
