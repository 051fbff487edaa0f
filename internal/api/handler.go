// Package api serves the journal over JSON/HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/rustyeddy/tradejournal/internal/auth"
	"github.com/rustyeddy/tradejournal/journal"
	"github.com/rustyeddy/tradejournal/market"
	"github.com/rustyeddy/tradejournal/pkg/id"
	"github.com/rustyeddy/tradejournal/users"
)

// Deps are the services behind the API. Metrics may be nil.
type Deps struct {
	Users           *users.Manager
	Auth            *auth.Service
	Journal         *journal.Store
	Ledger          *journal.Ledger
	Market          *market.Store
	Metrics         http.Handler
	Logger          zerolog.Logger
	DefaultCurrency string
}

type Handler struct {
	users    *users.Manager
	auth     *auth.Service
	journal  *journal.Store
	ledger   *journal.Ledger
	market   *market.Store
	metrics  http.Handler
	log      zerolog.Logger
	currency string
}

func New(d Deps) *Handler {
	return &Handler{
		users:    d.Users,
		auth:     d.Auth,
		journal:  d.Journal,
		ledger:   d.Ledger,
		market:   d.Market,
		metrics:  d.Metrics,
		log:      d.Logger,
		currency: d.DefaultCurrency,
	}
}

type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func (h *Handler) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Warn().Err(err).Msg("encode response")
	}
}

func (h *Handler) respondError(w http.ResponseWriter, statusCode int, message string) {
	h.respondJSON(w, statusCode, ErrorResponse{Error: message})
}

// respondErr maps a service error to a status code. Unknown errors are
// logged and hidden behind a 500.
func (h *Handler) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := h.errorBody(r, err)
	h.respondJSON(w, status, resp)
}

func (h *Handler) errorBody(r *http.Request, err error) (int, ErrorResponse) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		return status, ErrorResponse{Error: "internal server error"}
	}

	resp := ErrorResponse{Error: err.Error()}
	var jerr *journal.Error
	if errors.As(err, &jerr) {
		resp.Reason = journal.Reason(err)
	}
	return status, resp
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, journal.ErrPositionNotClosed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, journal.ErrPositionAlreadyExists),
		errors.Is(err, journal.ErrTemporalDisturbance),
		errors.Is(err, journal.ErrPositionClosed),
		errors.Is(err, market.ErrDuplicate),
		errors.Is(err, users.ErrDuplicateEmail):
		return http.StatusConflict
	case errors.Is(err, journal.ErrInvalidOperation),
		errors.Is(err, journal.ErrInvalid),
		errors.Is(err, market.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, journal.ErrNotFound),
		errors.Is(err, market.ErrNotFound),
		errors.Is(err, users.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, users.ErrInvalidCredentials):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// pathID returns the {id} route variable. Anything that is not a ULID gets
// a 400 before the store is asked.
func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	v := mux.Vars(r)["id"]
	if !id.Valid(v) {
		h.respondError(w, http.StatusBadRequest, "invalid id "+strconv.Quote(v))
		return "", false
	}
	return v, true
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// HandleHealth reports liveness and database reachability.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if _, err := h.market.ListSymbolTypes(r.Context(), ""); err != nil {
		h.log.Error().Err(err).Msg("health check")
		h.respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
