package api

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/tradejournal/journal"
)

type OpenPositionRequest struct {
	Ticket      int64            `json:"ticket"`
	SymbolID    string           `json:"symbol_id"`
	Volume      decimal.Decimal  `json:"volume"`
	OpenPrice   decimal.Decimal  `json:"open_price"`
	OpenedAt    *time.Time       `json:"opened_at,omitempty"`
	SLPrice     *decimal.Decimal `json:"sl_price,omitempty"`
	TPPrice     *decimal.Decimal `json:"tp_price,omitempty"`
	Commissions *decimal.Decimal `json:"commissions,omitempty"`
	Swaps       *decimal.Decimal `json:"swaps,omitempty"`
}

// ClosePositionRequest closes a position. With Post set the result is then
// posted to the account history. The close is stored first and stays even
// when posting fails; the failure comes back as PostError with a 200.
type ClosePositionRequest struct {
	ClosedAt    *time.Time       `json:"closed_at,omitempty"`
	ClosePrice  decimal.Decimal  `json:"close_price"`
	Profit      decimal.Decimal  `json:"profit"`
	Swaps       *decimal.Decimal `json:"swaps,omitempty"`
	Commissions *decimal.Decimal `json:"commissions,omitempty"`
	Manually    bool             `json:"manually,omitempty"`
	Post        bool             `json:"post,omitempty"`
	Force       bool             `json:"force,omitempty"`
}

type ModifyPositionRequest struct {
	SLPrice *decimal.Decimal `json:"sl_price"`
	TPPrice *decimal.Decimal `json:"tp_price"`
	At      *time.Time       `json:"at,omitempty"`
}

type PostPositionRequest struct {
	Force bool `json:"force,omitempty"`
}

type ClosePositionResponse struct {
	Position  *journal.Position `json:"position"`
	History   *journal.History  `json:"history,omitempty"`
	PostError *ErrorResponse    `json:"post_error,omitempty"`
}

// loadPosition fetches the position and checks access through its account.
func (h *Handler) loadPosition(w http.ResponseWriter, r *http.Request) (*journal.Position, *journal.Account, bool) {
	positionID, ok := h.pathID(w, r)
	if !ok {
		return nil, nil, false
	}
	p, err := h.journal.GetPosition(r.Context(), positionID)
	if err != nil {
		h.respondErr(w, r, err)
		return nil, nil, false
	}
	acct, ok := h.loadAccount(w, r, p.AccountID)
	if !ok {
		return nil, nil, false
	}
	return p, acct, true
}

func (h *Handler) HandleListPositions(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.pathAccount(w, r)
	if !ok {
		return
	}

	f := journal.PositionFilter{AccountID: acct.ID}
	switch r.URL.Query().Get("state") {
	case "", "all":
	case "open":
		f.State = journal.OpenPositions
	case "closed":
		f.State = journal.ClosedPositions
	default:
		h.respondError(w, http.StatusBadRequest, "state must be open, closed or all")
		return
	}

	positions, err := h.journal.ListPositions(r.Context(), f)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, positions)
}

func (h *Handler) HandleOpenPosition(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.pathAccount(w, r)
	if !ok {
		return
	}

	var req OpenPositionRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	np := journal.NewPosition{
		AccountID:   acct.ID,
		Ticket:      req.Ticket,
		SymbolID:    req.SymbolID,
		Volume:      req.Volume,
		OpenPrice:   req.OpenPrice,
		SLPrice:     req.SLPrice,
		TPPrice:     req.TPPrice,
		Commissions: req.Commissions,
		Swaps:       req.Swaps,
	}
	if req.OpenedAt != nil {
		np.OpenedAt = *req.OpenedAt
	}

	p, err := h.journal.OpenPosition(r.Context(), np)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, p)
}

func (h *Handler) HandleGetPosition(w http.ResponseWriter, r *http.Request) {
	p, _, ok := h.loadPosition(w, r)
	if !ok {
		return
	}
	h.respondJSON(w, http.StatusOK, p)
}

func (h *Handler) HandleClosePosition(w http.ResponseWriter, r *http.Request) {
	p, _, ok := h.loadPosition(w, r)
	if !ok {
		return
	}

	var req ClosePositionRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c := journal.Close{
		Price:       req.ClosePrice,
		Profit:      req.Profit,
		Swaps:       req.Swaps,
		Commissions: req.Commissions,
		Manually:    req.Manually,
	}
	if req.ClosedAt != nil {
		c.At = *req.ClosedAt
	}

	p, err := h.journal.ClosePosition(r.Context(), p.ID, c)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	resp := ClosePositionResponse{Position: p}
	if req.Post {
		var opts []journal.PostOption
		if req.Force {
			opts = append(opts, journal.Force())
		}
		row, err := h.ledger.AddClosedPosition(r.Context(), p, opts...)
		if err != nil {
			_, body := h.errorBody(r, err)
			resp.PostError = &body
		} else {
			resp.History = row
		}
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleModifyPosition(w http.ResponseWriter, r *http.Request) {
	p, _, ok := h.loadPosition(w, r)
	if !ok {
		return
	}

	var req ModifyPositionRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var at time.Time
	if req.At != nil {
		at = *req.At
	}

	p, err := h.journal.ModifyPosition(r.Context(), p.ID, req.SLPrice, req.TPPrice, at)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, p)
}

func (h *Handler) HandlePostPosition(w http.ResponseWriter, r *http.Request) {
	p, _, ok := h.loadPosition(w, r)
	if !ok {
		return
	}

	var req PostPositionRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	var opts []journal.PostOption
	if req.Force {
		opts = append(opts, journal.Force())
	}

	row, err := h.ledger.AddClosedPosition(r.Context(), p, opts...)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, row)
}
