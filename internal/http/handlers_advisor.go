package http

import (
	"net/http"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	asOf, err := ParseAsOf(r, s.today())
	if err != nil {
		writeError(w, r, "dashboard", err)
		return
	}
	d, err := s.deps.Advisor.Dashboard(r.Context(), ownerOf(r), asOf)
	if err != nil {
		writeError(w, r, "dashboard", err)
		return
	}
	NewJSONResponse().Body(d).Write(w, r)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	asOf, err := ParseAsOf(r, s.today())
	if err != nil {
		writeError(w, r, "summary", err)
		return
	}
	sum, err := s.deps.Advisor.Summary(r.Context(), ownerOf(r), asOf)
	if err != nil {
		writeError(w, r, "summary", err)
		return
	}
	NewJSONResponse().Body(sum).Write(w, r)
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	asOf, err := ParseAsOf(r, s.today())
	if err != nil {
		writeError(w, r, "recommendations", err)
		return
	}
	signals, err := s.deps.Advisor.Recommendations(r.Context(), ownerOf(r), asOf)
	if err != nil {
		writeError(w, r, "recommendations", err)
		return
	}
	NewJSONResponse().Body(map[string]interface{}{
		"as_of":   asOf,
		"signals": signals,
	}).Write(w, r)
}
