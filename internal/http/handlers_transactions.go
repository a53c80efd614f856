package http

import (
	"net/http"

	"asesor/internal/core"
)

type createTransactionRequest struct {
	// Date defaults to the server's current day.
	Date     string     `json:"date"`
	Kind     string     `json:"kind"`
	Category string     `json:"category"`
	Label    string     `json:"label"`
	Amount   core.Money `json:"amount"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, "create_transaction", err)
		return
	}

	date := s.today()
	if v := sanitizeInput(req.Date); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			BadRequestError("date must be YYYY-MM-DD").Write(w, r)
			return
		}
		date = d
	}
	kind, err := core.ParseKind(req.Kind)
	if err != nil {
		writeError(w, r, "create_transaction", err)
		return
	}

	t, err := s.deps.Recorder.Record(r.Context(), core.Transaction{
		OwnerID:  ownerOf(r),
		Date:     date,
		Kind:     kind,
		Category: sanitizeInput(req.Category),
		Label:    sanitizeInput(req.Label),
		Amount:   req.Amount,
	})
	if err != nil {
		writeError(w, r, "create_transaction", err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Body(toTransactionDTO(t)).
		Write(w, r)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	limit, err := ParseLimit(r)
	if err != nil {
		writeError(w, r, "list_transactions", err)
		return
	}
	txs, err := s.deps.Advisor.RecentTransactions(r.Context(), ownerOf(r), limit)
	if err != nil {
		writeError(w, r, "list_transactions", err)
		return
	}
	out := make([]transactionDTO, len(txs))
	for i, t := range txs {
		out[i] = toTransactionDTO(t)
	}
	NewJSONResponse().Body(map[string]interface{}{"transactions": out}).Write(w, r)
}
