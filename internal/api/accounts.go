package api

import (
	"net/http"

	"github.com/rustyeddy/tradejournal/journal"
)

type CreateAccountRequest struct {
	Name     string `json:"name"`
	BrokerID string `json:"broker_id"`
	Currency string `json:"currency"`
	OwnerID  string `json:"owner_id,omitempty"`
}

// loadAccount fetches the account named by the route and checks the caller
// may see it. It writes the error response itself.
func (h *Handler) loadAccount(w http.ResponseWriter, r *http.Request, accountID string) (*journal.Account, bool) {
	acct, err := h.journal.GetAccount(r.Context(), accountID)
	if err != nil {
		h.respondErr(w, r, err)
		return nil, false
	}
	u := currentUser(r.Context())
	if !u.IsSuperuser && acct.OwnerID != u.ID {
		// Other users' accounts do not exist as far as the caller knows.
		h.respondErr(w, r, &journal.Error{Kind: journal.ErrNotFound, Message: "account " + accountID + " not found"})
		return nil, false
	}
	return acct, true
}

// pathAccount loads the account named by the {id} route variable.
func (h *Handler) pathAccount(w http.ResponseWriter, r *http.Request) (*journal.Account, bool) {
	accountID, ok := h.pathID(w, r)
	if !ok {
		return nil, false
	}
	return h.loadAccount(w, r, accountID)
}

func (h *Handler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	f := journal.AccountFilter{
		BrokerID: r.URL.Query().Get("broker_id"),
		Search:   r.URL.Query().Get("search"),
	}
	if u := currentUser(r.Context()); !u.IsSuperuser {
		f.OwnerID = u.ID
	}
	accounts, err := h.journal.ListAccounts(r.Context(), f)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, accounts)
}

func (h *Handler) HandleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u := currentUser(r.Context())
	owner := u.ID
	if req.OwnerID != "" && req.OwnerID != u.ID {
		if !u.IsSuperuser {
			h.respondError(w, http.StatusForbidden, "only superusers create accounts for other users")
			return
		}
		owner = req.OwnerID
	}
	currency := req.Currency
	if currency == "" {
		currency = h.currency
	}

	acct, err := h.journal.CreateAccount(r.Context(), journal.NewAccount{
		OwnerID:  owner,
		BrokerID: req.BrokerID,
		Name:     req.Name,
		Currency: currency,
	})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, acct)
}

func (h *Handler) HandleGetAccount(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.pathAccount(w, r)
	if !ok {
		return
	}
	h.respondJSON(w, http.StatusOK, acct)
}

type VerifyResponse struct {
	*journal.Verification
	OK bool `json:"ok"`
}

func (h *Handler) HandleVerifyAccount(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.pathAccount(w, r)
	if !ok {
		return
	}
	v, err := h.journal.Verify(r.Context(), acct.ID)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, VerifyResponse{Verification: v, OK: v.OK()})
}
