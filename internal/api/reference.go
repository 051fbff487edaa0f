package api

import (
	"net/http"

	"github.com/rustyeddy/tradejournal/market"
)

func (h *Handler) HandleListMarkets(w http.ResponseWriter, r *http.Request) {
	markets, err := h.market.ListMarkets(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, markets)
}

func (h *Handler) HandleListBrokers(w http.ResponseWriter, r *http.Request) {
	brokers, err := h.market.ListBrokers(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, brokers)
}

func (h *Handler) HandleListSymbolTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.market.ListSymbolTypes(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, types)
}

func (h *Handler) HandleListSymbols(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	symbols, err := h.market.ListSymbols(r.Context(), market.SymbolFilter{
		TypeID:   q.Get("type_id"),
		MarketID: q.Get("market_id"),
		Search:   q.Get("search"),
	})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, symbols)
}
