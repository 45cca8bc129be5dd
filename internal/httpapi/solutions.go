package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"mathly/internal/solution"
)

const maxScanBytes = 10 << 20

// SolveEquationRequest represents the request body for solving an equation
type SolveEquationRequest struct {
	Expression string          `json:"expression" validate:"required,max=500"`
	Source     solution.Source `json:"source,omitempty" validate:"omitempty,oneof=SCANNED MANUAL"`
}

// SolveWordProblemRequest represents the request body for solving a word problem
type SolveWordProblemRequest struct {
	Problem string `json:"problem" validate:"required,max=4000"`
}

// SolveURLRequest represents the request body for solving the problem on a page
type SolveURLRequest struct {
	URL string `json:"url" validate:"required,http_url"`
}

func (s *Server) solveEquation(w http.ResponseWriter, r *http.Request) {
	var req SolveEquationRequest
	if !s.decode(w, r, &req) {
		return
	}
	sol, err := s.svc.SolveEquation(r.Context(), req.Expression, req.Source)
	if err != nil {
		s.respondFailure(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, sol)
}

func (s *Server) solveWordProblem(w http.ResponseWriter, r *http.Request) {
	var req SolveWordProblemRequest
	if !s.decode(w, r, &req) {
		return
	}
	wp, err := s.svc.SolveWordProblem(r.Context(), req.Problem)
	if err != nil {
		s.respondFailure(w, r, err)
		return
	}
	s.respondWordProblem(w, wp)
}

func (s *Server) solveURL(w http.ResponseWriter, r *http.Request) {
	var req SolveURLRequest
	if !s.decode(w, r, &req) {
		return
	}
	wp, err := s.svc.SolveURL(r.Context(), req.URL)
	if err != nil {
		s.respondFailure(w, r, err)
		return
	}
	s.respondWordProblem(w, wp)
}

// respondWordProblem answers 201 when a solution was saved and 200 when the
// model could not solve the problem.
func (s *Server) respondWordProblem(w http.ResponseWriter, wp solution.WordProblem) {
	status := http.StatusOK
	if wp.Solution != nil {
		status = http.StatusCreated
	}
	s.respondJSON(w, status, wp)
}

// scan handles POST /scan with the picture in the "image" form field.
func (s *Server) scan(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := readUpload(w, r, "image", maxScanBytes)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	sol, err := s.svc.SolveImage(r.Context(), data, contentType)
	if err != nil {
		s.respondFailure(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, sol)
}

func (s *Server) listSolutions(w http.ResponseWriter, r *http.Request) {
	sols, err := s.svc.History(r.Context(), queryInt(r, "limit", defaultLimit, maxLimit))
	if err != nil {
		s.respondFailure(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"solutions": sols,
		"count":     len(sols),
	})
}

func (s *Server) getSolution(w http.ResponseWriter, r *http.Request) {
	sol, err := s.svc.Solution(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondFailure(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, sol)
}

func (s *Server) deleteSolution(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteSolution(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// streamSolutions pushes the newest solutions as server-sent events, once
// on connect and again after every change.
func (s *Server) streamSolutions(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	stop := context.AfterFunc(s.streams, cancel)
	defer stop()

	limit := queryInt(r, "limit", defaultLimit, maxLimit)
	for snap := range s.svc.SolutionStream(ctx, limit) {
		event, payload := "solutions", interface{}(snap.Solutions)
		if snap.Err != nil {
			s.logger.Warn("solution stream read failed", zap.Error(snap.Err))
			_, message := classify(snap.Err)
			event, payload = "error", map[string]string{"message": message}
		}
		if err := writeEvent(w, event, payload); err != nil {
			s.logger.Debug("solution stream closed", zap.Error(err))
			return
		}
		flusher.Flush()
	}
}

func writeEvent(w io.Writer, event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}

// readUpload returns the bytes and declared content type of a multipart
// file field.
func readUpload(w http.ResponseWriter, r *http.Request, field string, limit int64) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, limit+(1<<20))
	if err := r.ParseMultipartForm(limit); err != nil {
		return nil, "", fmt.Errorf("invalid multipart form: %w", err)
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", fmt.Errorf("missing %q file: %w", field, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, "", fmt.Errorf("file exceeds %d bytes", limit)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}
