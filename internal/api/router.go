package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Router wires every route. Everything under /api except login needs a
// bearer token.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(h.requestLogger)

	r.HandleFunc("/health", h.HandleHealth).Methods(http.MethodGet)
	if h.metrics != nil {
		r.Handle("/metrics", h.metrics).Methods(http.MethodGet)
	}
	r.HandleFunc("/api/auth/login", h.HandleLogin).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(h.authenticate)

	api.HandleFunc("/me", h.HandleMe).Methods(http.MethodGet)

	// Accounts
	api.HandleFunc("/accounts", h.HandleListAccounts).Methods(http.MethodGet)
	api.HandleFunc("/accounts", h.HandleCreateAccount).Methods(http.MethodPost)
	api.HandleFunc("/accounts/{id}", h.HandleGetAccount).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{id}/verify", h.HandleVerifyAccount).Methods(http.MethodGet)

	// History
	api.HandleFunc("/accounts/{id}/history", h.HandleListHistory).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{id}/history", h.HandleAddRow).Methods(http.MethodPost)
	api.HandleFunc("/accounts/{id}/recalculate", h.HandleRecalculate).Methods(http.MethodPost)

	// Positions
	api.HandleFunc("/accounts/{id}/positions", h.HandleListPositions).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{id}/positions", h.HandleOpenPosition).Methods(http.MethodPost)
	api.HandleFunc("/positions/{id}", h.HandleGetPosition).Methods(http.MethodGet)
	api.HandleFunc("/positions/{id}/close", h.HandleClosePosition).Methods(http.MethodPost)
	api.HandleFunc("/positions/{id}/modify", h.HandleModifyPosition).Methods(http.MethodPost)
	api.HandleFunc("/positions/{id}/post", h.HandlePostPosition).Methods(http.MethodPost)

	// Reference data
	api.HandleFunc("/markets", h.HandleListMarkets).Methods(http.MethodGet)
	api.HandleFunc("/brokers", h.HandleListBrokers).Methods(http.MethodGet)
	api.HandleFunc("/symbol-types", h.HandleListSymbolTypes).Methods(http.MethodGet)
	api.HandleFunc("/symbols", h.HandleListSymbols).Methods(http.MethodGet)

	return r
}
