package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"mathly/internal/app"
	"mathly/internal/health"
)

// AnalyzeCaloriesRequest represents the request body for a calorie estimate
type AnalyzeCaloriesRequest struct {
	FoodDescription string `json:"foodDescription" validate:"required,max=1000"`
}

// CreateGraphRequest represents the request body for creating a graph
type CreateGraphRequest struct {
	Expression string   `json:"expression" validate:"required,max=200"`
	XMin       *float64 `json:"xMin" validate:"required"`
	XMax       *float64 `json:"xMax" validate:"required"`
}

func (s *Server) analyzeCalories(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeCaloriesRequest
	if !s.decode(w, r, &req) {
		return
	}
	analysis, err := s.svc.AnalyzeCalories(r.Context(), req.FoodDescription)
	if err != nil {
		s.respondFailure(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, analysis)
}

func (s *Server) listCalories(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.CaloriesHistory(r.Context(), queryInt(r, "limit", defaultLimit, maxLimit))
	if err != nil {
		s.respondFailure(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"analyses": list, "count": len(list)})
}

func (s *Server) recordBMI(w http.ResponseWriter, r *http.Request) {
	var req health.Measurement
	if !s.decode(w, r, &req) {
		return
	}
	rec, err := s.svc.RecordBMI(r.Context(), req)
	if err != nil {
		s.respondFailure(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, rec)
}

func (s *Server) listBMI(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.BMIHistory(r.Context(), queryInt(r, "limit", defaultLimit, maxLimit))
	if err != nil {
		s.respondFailure(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"records": list, "count": len(list)})
}

func (s *Server) createGraph(w http.ResponseWriter, r *http.Request) {
	var req CreateGraphRequest
	if !s.decode(w, r, &req) {
		return
	}
	g, err := s.svc.CreateGraph(r.Context(), req.Expression, *req.XMin, *req.XMax)
	if err != nil {
		s.respondFailure(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, g)
}

func (s *Server) listGraphs(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Graphs(r.Context(), queryInt(r, "limit", defaultLimit, maxLimit))
	if err != nil {
		s.respondFailure(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"graphs": list, "count": len(list)})
}

func (s *Server) graphPoints(w http.ResponseWriter, r *http.Request) {
	n := queryInt(r, "n", app.DefaultGraphSamples, 2000)
	g, points, err := s.svc.GraphPoints(r.Context(), chi.URLParam(r, "id"), n)
	if err != nil {
		s.respondFailure(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"graph": g, "points": points})
}

func (s *Server) usage(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 7, 90)
	usage, err := s.svc.Usage(r.Context(), days)
	if err != nil {
		s.respondFailure(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"days": days, "usage": usage})
}
