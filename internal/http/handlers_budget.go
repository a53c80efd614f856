package http

import (
	"net/http"

	"asesor/internal/core"
)

type budgetRequest struct {
	MonthlyIncome  core.Money `json:"monthly_income"`
	HousingBudget  core.Money `json:"housing_budget"`
	MarketBudget   core.Money `json:"market_budget"`
	TransportDaily core.Money `json:"transport_daily"`
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	v, err := s.deps.Budgets.Get(r.Context(), ownerOf(r))
	if err != nil {
		writeError(w, r, "get_budget", err)
		return
	}
	NewJSONResponse().Body(v).Write(w, r)
}

// handleSaveBudget replaces the whole configuration; omitted fields become zero.
func (s *Server) handleSaveBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, "save_budget", err)
		return
	}
	v, err := s.deps.Budgets.Save(r.Context(), core.BudgetConfig{
		OwnerID:        ownerOf(r),
		MonthlyIncome:  req.MonthlyIncome,
		HousingBudget:  req.HousingBudget,
		MarketBudget:   req.MarketBudget,
		TransportDaily: req.TransportDaily,
	})
	if err != nil {
		writeError(w, r, "save_budget", err)
		return
	}
	NewJSONResponse().Body(v).Write(w, r)
}
