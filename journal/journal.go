// Package journal records trading accounts, their positions and the
// per-account balance history.
//
// History rows form an append-only ledger ordered by created_at: each row
// stores the signed profit of one event and the running balance after it.
// Account.Balance is a cache of the ledger head's balance; Ledger keeps the
// two in step and RecalculateBalance rebuilds both from the rows.
package journal

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Operation is the kind of event a history row records. Values are the
// two-letter codes stored in the database.
type Operation string

const (
	Deposit       Operation = "DE"
	Dividends     Operation = "DI"
	PositionClose Operation = "PC"
	Withdrawal    Operation = "WD"
)

var operationLabels = map[Operation]string{
	Deposit:       "Deposit",
	Dividends:     "Dividends",
	PositionClose: "Position Close",
	Withdrawal:    "Withdrawal",
}

// Valid reports whether o is one of the known operations.
func (o Operation) Valid() bool {
	_, ok := operationLabels[o]
	return ok
}

func (o Operation) String() string {
	if l, ok := operationLabels[o]; ok {
		return l
	}
	return string(o)
}

// ParseOperation accepts a code ("DE") or a label in any case, with spaces,
// dashes or underscores ("deposit", "position_close").
func ParseOperation(s string) (Operation, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	if op := Operation(norm); op.Valid() {
		return op, nil
	}
	norm = strings.NewReplacer("_", " ", "-", " ").Replace(norm)
	for op, label := range operationLabels {
		if strings.ToUpper(label) == norm {
			return op, nil
		}
	}
	if norm == "WITHDRAW" {
		return Withdrawal, nil
	}
	return "", fmt.Errorf("unknown operation %q", s)
}

// Account is a trading account held at a broker. Balance mirrors the
// balance of the latest history row and is only written by Ledger.
type Account struct {
	ID       string          `db:"id" json:"id"`
	OwnerID  string          `db:"owner_id" json:"owner_id"`
	BrokerID string          `db:"broker_id" json:"broker_id"`
	Name     string          `db:"name" json:"name"`
	Balance  decimal.Decimal `db:"balance" json:"balance"`
	Currency string          `db:"currency" json:"currency"`
}

func (a Account) String() string { return a.Name }

// Position is a single trade on an account. It is open while ClosedAt is nil.
type Position struct {
	ID             string           `db:"id" json:"id"`
	AccountID      string           `db:"account_id" json:"account_id"`
	Ticket         int64            `db:"ticket" json:"ticket"`
	SymbolID       string           `db:"symbol_id" json:"symbol_id"`
	Volume         decimal.Decimal  `db:"volume" json:"volume"`
	OpenedAt       time.Time        `db:"opened_at" json:"opened_at"`
	OpenPrice      decimal.Decimal  `db:"open_price" json:"open_price"`
	SLPrice        *decimal.Decimal `db:"sl_price" json:"sl_price,omitempty"`
	TPPrice        *decimal.Decimal `db:"tp_price" json:"tp_price,omitempty"`
	ClosedAt       *time.Time       `db:"closed_at" json:"closed_at,omitempty"`
	ClosedManually *bool            `db:"closed_manually" json:"closed_manually,omitempty"`
	ClosePrice     *decimal.Decimal `db:"close_price" json:"close_price,omitempty"`
	Commissions    *decimal.Decimal `db:"commissions" json:"commissions,omitempty"`
	Swaps          *decimal.Decimal `db:"swaps" json:"swaps,omitempty"`
	Profit         *decimal.Decimal `db:"profit" json:"profit,omitempty"`
	Modifications  Modifications    `db:"modifications" json:"modifications"`
}

func (p Position) String() string {
	return fmt.Sprintf("%d @ %s", p.Ticket, p.AccountID)
}

func (p Position) IsClosed() bool { return p.ClosedAt != nil }

// NetProfit is profit + swaps - commissions with missing parts counted as zero.
func (p Position) NetProfit() decimal.Decimal {
	return orZero(p.Profit).Add(orZero(p.Swaps)).Sub(orZero(p.Commissions))
}

func orZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

// Modification is one stop-loss / take-profit change.
type Modification struct {
	SLPrice *decimal.Decimal `json:"sl_price,omitempty"`
	TPPrice *decimal.Decimal `json:"tp_price,omitempty"`
}

// Modifications is the position's change log keyed by RFC3339 timestamp,
// stored as a JSON object.
type Modifications map[string]Modification

func (m Modifications) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *Modifications) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = Modifications{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("modifications: unsupported type %T", src)
	}
	out := Modifications{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("modifications: %w", err)
	}
	*m = out
	return nil
}

// History is one balance-affecting event. PositionID is set only for
// PositionClose rows. Rows are immutable except Balance, which
// RecalculateBalance rewrites.
type History struct {
	ID         string          `db:"id" json:"id"`
	AccountID  string          `db:"account_id" json:"account_id"`
	Profit     decimal.Decimal `db:"profit" json:"profit"`
	Balance    decimal.Decimal `db:"balance" json:"balance"`
	Operation  Operation       `db:"operation" json:"operation"`
	PositionID *string         `db:"position_id" json:"position_id,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

func (h History) String() string {
	return fmt.Sprintf("%s @ %s", h.CreatedAt.UTC().Format(time.RFC3339), h.AccountID)
}

const historyColumns = `id, account_id, profit, balance, operation, position_id, created_at`

const positionColumns = `id, account_id, ticket, symbol_id, volume, opened_at, open_price,
	sl_price, tp_price, closed_at, closed_manually, close_price, commissions, swaps, profit, modifications`

const accountColumns = `id, owner_id, broker_id, name, balance, currency`
