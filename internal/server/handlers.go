package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/andrumolt/transfer-ledger/internal/interfaces"
	"github.com/andrumolt/transfer-ledger/internal/models"
)

type transferRequest struct {
	From   int64           `json:"from"`
	To     int64           `json:"to"`
	Amount decimal.Decimal `json:"amount"`
	Memo   string          `json:"memo"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result := s.engine.Transfer(r.Context(), req.From, req.To, req.Amount, req.Memo)
	if result.Status == models.StatusFailed {
		// The reason goes back verbatim for caller display.
		writeJSON(w, http.StatusUnprocessableEntity, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	number, ok := accountNumber(w, r)
	if !ok {
		return
	}

	balance, err := s.queries.Balance(r.Context(), number)
	if err != nil {
		s.writeQueryError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		AccountNumber int64           `json:"account_number"`
		Balance       decimal.Decimal `json:"balance"`
	}{number, balance})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	number, ok := accountNumber(w, r)
	if !ok {
		return
	}

	dashboard, err := s.queries.Dashboard(r.Context(), number)
	if err != nil {
		s.writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	number, ok := accountNumber(w, r)
	if !ok {
		return
	}

	history, err := s.queries.HistoryFor(r.Context(), number, r.URL.Query().Get("filter"))
	if err != nil {
		s.writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) writeQueryError(w http.ResponseWriter, err error) {
	if interfaces.IsNotFound(err) {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}
	s.log.Error("query failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func accountNumber(w http.ResponseWriter, r *http.Request) (int64, bool) {
	number, err := strconv.ParseInt(mux.Vars(r)["number"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account number")
		return 0, false
	}
	return number, true
}
