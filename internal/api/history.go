package api

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/tradejournal/journal"
)

type AddRowRequest struct {
	Operation string          `json:"operation"`
	Profit    decimal.Decimal `json:"profit"`
	CreatedAt *time.Time      `json:"created_at,omitempty"`
	Force     bool            `json:"force,omitempty"`
}

type BalanceResponse struct {
	AccountID string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
}

func (h *Handler) HandleListHistory(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.pathAccount(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	f := journal.HistoryFilter{AccountID: acct.ID}
	if s := q.Get("operation"); s != "" {
		op, err := journal.ParseOperation(s)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		f.Operation = op
	}
	var err error
	if f.From, err = parseTimeParam(q.Get("from")); err != nil {
		h.respondError(w, http.StatusBadRequest, "from: "+err.Error())
		return
	}
	if f.To, err = parseTimeParam(q.Get("to")); err != nil {
		h.respondError(w, http.StatusBadRequest, "to: "+err.Error())
		return
	}

	rows, err := h.journal.ListHistory(r.Context(), f)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, rows)
}

func (h *Handler) HandleAddRow(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.pathAccount(w, r)
	if !ok {
		return
	}

	var req AddRowRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	op, err := journal.ParseOperation(req.Operation)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var opts []journal.PostOption
	if req.CreatedAt != nil {
		opts = append(opts, journal.At(*req.CreatedAt))
	}
	if req.Force {
		opts = append(opts, journal.Force())
	}

	row, err := h.ledger.AddRow(r.Context(), acct, req.Profit, op, opts...)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, row)
}

func (h *Handler) HandleRecalculate(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.pathAccount(w, r)
	if !ok {
		return
	}
	bal, err := h.ledger.RecalculateBalance(r.Context(), acct)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, BalanceResponse{AccountID: acct.ID, Balance: bal})
}

func parseTimeParam(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}
