package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/tradejournal/internal/db"
	"github.com/rustyeddy/tradejournal/pkg/id"
)

// DefaultCurrency is used for accounts created without one.
const DefaultCurrency = "USD"

// Store reads and writes accounts, positions and history rows. It never
// touches balances; those belong to Ledger.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewStore(conn *sqlx.DB) *Store {
	return &Store{db: conn, now: time.Now}
}

func storeErr(what string, err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return errorf(ErrNotFound, "%s not found", what)
	case db.IsForeignKeyViolation(err):
		return errorf(ErrNotFound, "%s: referenced record not found", what)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// NewAccount describes an account to create.
type NewAccount struct {
	OwnerID  string
	BrokerID string
	Name     string
	Currency string
}

// CreateAccount stores an account with a zero balance.
func (s *Store) CreateAccount(ctx context.Context, na NewAccount) (*Account, error) {
	if strings.TrimSpace(na.Name) == "" {
		return nil, errorf(ErrInvalid, "account name is required")
	}
	if len([]rune(na.Name)) > 300 {
		return nil, errorf(ErrInvalid, "account name longer than 300 characters")
	}
	cur := strings.ToUpper(strings.TrimSpace(na.Currency))
	if cur == "" {
		cur = DefaultCurrency
	}
	if len(cur) != 3 {
		return nil, errorf(ErrInvalid, "currency %q is not a 3 letter code", na.Currency)
	}

	a := &Account{
		ID:       id.New(),
		OwnerID:  na.OwnerID,
		BrokerID: na.BrokerID,
		Name:     na.Name,
		Balance:  decimal.Zero,
		Currency: cur,
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES (:id, :owner_id, :broker_id, :name, :balance, :currency)`, a)
	if err != nil {
		return nil, storeErr("account "+a.Name, err)
	}
	return a, nil
}

// GetAccount returns an account by id.
func (s *Store) GetAccount(ctx context.Context, accountID string) (*Account, error) {
	return getAccount(ctx, s.db, accountID)
}

func getAccount(ctx context.Context, q sqlx.QueryerContext, accountID string) (*Account, error) {
	var a Account
	err := sqlx.GetContext(ctx, q, &a, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, accountID)
	if err != nil {
		return nil, storeErr("account "+accountID, err)
	}
	return &a, nil
}

// AccountFilter narrows ListAccounts. Empty fields match everything.
type AccountFilter struct {
	OwnerID  string
	BrokerID string
	Search   string
}

// ListAccounts returns accounts ordered by name.
func (s *Store) ListAccounts(ctx context.Context, f AccountFilter) ([]Account, error) {
	out := []Account{}
	err := s.db.SelectContext(ctx, &out, `
		SELECT `+accountColumns+` FROM accounts
		WHERE (? = '' OR owner_id = ?)
		  AND (? = '' OR broker_id = ?)
		  AND name LIKE '%' || ? || '%'
		ORDER BY name, id`,
		f.OwnerID, f.OwnerID, f.BrokerID, f.BrokerID, f.Search)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return out, nil
}

// NewPosition describes a position being opened. A zero OpenedAt means now.
type NewPosition struct {
	AccountID   string
	Ticket      int64
	SymbolID    string
	Volume      decimal.Decimal
	OpenedAt    time.Time
	OpenPrice   decimal.Decimal
	SLPrice     *decimal.Decimal
	TPPrice     *decimal.Decimal
	Commissions *decimal.Decimal
	Swaps       *decimal.Decimal
}

// OpenPosition stores a new open position.
func (s *Store) OpenPosition(ctx context.Context, np NewPosition) (*Position, error) {
	if np.Ticket < 0 {
		return nil, errorf(ErrInvalid, "ticket must not be negative")
	}
	if !np.Volume.IsPositive() {
		return nil, errorf(ErrInvalid, "volume must be positive")
	}
	opened := np.OpenedAt
	if opened.IsZero() {
		opened = s.now()
	}

	p := &Position{
		ID:            id.New(),
		AccountID:     np.AccountID,
		Ticket:        np.Ticket,
		SymbolID:      np.SymbolID,
		Volume:        np.Volume.Round(4),
		OpenedAt:      opened.UTC(),
		OpenPrice:     np.OpenPrice.Round(4),
		SLPrice:       round4(np.SLPrice),
		TPPrice:       round4(np.TPPrice),
		Commissions:   round4(np.Commissions),
		Swaps:         round4(np.Swaps),
		Modifications: Modifications{},
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO positions (`+positionColumns+`)
		VALUES (:id, :account_id, :ticket, :symbol_id, :volume, :opened_at, :open_price,
			:sl_price, :tp_price, :closed_at, :closed_manually, :close_price, :commissions, :swaps, :profit, :modifications)`, p)
	if err != nil {
		return nil, storeErr(fmt.Sprintf("position %d", p.Ticket), err)
	}
	return p, nil
}

func round4(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	r := d.Round(4)
	return &r
}

// GetPosition returns a position by id.
func (s *Store) GetPosition(ctx context.Context, positionID string) (*Position, error) {
	return getPosition(ctx, s.db, positionID)
}

func getPosition(ctx context.Context, q sqlx.QueryerContext, positionID string) (*Position, error) {
	var p Position
	err := sqlx.GetContext(ctx, q, &p, `SELECT `+positionColumns+` FROM positions WHERE id = ?`, positionID)
	if err != nil {
		return nil, storeErr("position "+positionID, err)
	}
	return &p, nil
}

// PositionState selects open, closed or all positions.
type PositionState int

const (
	AnyPosition PositionState = iota
	OpenPositions
	ClosedPositions
)

// PositionFilter narrows ListPositions.
type PositionFilter struct {
	AccountID string
	State     PositionState
}

// ListPositions returns positions ordered by opened_at.
func (s *Store) ListPositions(ctx context.Context, f PositionFilter) ([]Position, error) {
	out := []Position{}
	err := s.db.SelectContext(ctx, &out, `
		SELECT `+positionColumns+` FROM positions
		WHERE (? = '' OR account_id = ?)
		  AND (? = 0 OR (? = 1 AND closed_at IS NULL) OR (? = 2 AND closed_at IS NOT NULL))
		ORDER BY opened_at, id`,
		f.AccountID, f.AccountID, f.State, f.State, f.State)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	return out, nil
}

// Close describes how a position was closed.
type Close struct {
	At          time.Time
	Price       decimal.Decimal
	Profit      decimal.Decimal
	Swaps       *decimal.Decimal
	Commissions *decimal.Decimal
	Manually    bool
}

// ClosePosition records the close of an open position. Swaps and
// commissions replace the stored values only when given.
func (s *Store) ClosePosition(ctx context.Context, positionID string, c Close) (*Position, error) {
	var p *Position
	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var err error
		p, err = getPosition(ctx, tx, positionID)
		if err != nil {
			return err
		}
		if p.IsClosed() {
			return errorf(ErrPositionClosed, "position %d is already closed", p.Ticket)
		}
		at := c.At
		if at.IsZero() {
			at = s.now()
		}
		at = at.UTC()
		if at.Before(p.OpenedAt) {
			return errorf(ErrInvalid, "position %d cannot close before it opened", p.Ticket)
		}

		price := c.Price.Round(4)
		profit := c.Profit.Round(4)
		manually := c.Manually
		p.ClosedAt = &at
		p.ClosePrice = &price
		p.Profit = &profit
		p.ClosedManually = &manually
		if c.Swaps != nil {
			p.Swaps = round4(c.Swaps)
		}
		if c.Commissions != nil {
			p.Commissions = round4(c.Commissions)
		}

		_, err = tx.NamedExecContext(ctx, `
			UPDATE positions SET closed_at = :closed_at, close_price = :close_price, profit = :profit,
				closed_manually = :closed_manually, swaps = :swaps, commissions = :commissions
			WHERE id = :id`, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ModifyPosition moves the stop loss and take profit of an open position
// and appends the change to its modification log. A nil price clears it.
func (s *Store) ModifyPosition(ctx context.Context, positionID string, sl, tp *decimal.Decimal, at time.Time) (*Position, error) {
	if at.IsZero() {
		at = s.now()
	}
	var p *Position
	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var err error
		p, err = getPosition(ctx, tx, positionID)
		if err != nil {
			return err
		}
		if p.IsClosed() {
			return errorf(ErrPositionClosed, "position %d is closed and cannot be modified", p.Ticket)
		}

		p.SLPrice = round4(sl)
		p.TPPrice = round4(tp)
		if p.Modifications == nil {
			p.Modifications = Modifications{}
		}
		p.Modifications[at.UTC().Format(time.RFC3339Nano)] = Modification{SLPrice: p.SLPrice, TPPrice: p.TPPrice}

		_, err = tx.NamedExecContext(ctx, `
			UPDATE positions SET sl_price = :sl_price, tp_price = :tp_price, modifications = :modifications
			WHERE id = :id`, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetHistory returns a single history row.
func (s *Store) GetHistory(ctx context.Context, rowID string) (*History, error) {
	var h History
	err := s.db.GetContext(ctx, &h, `SELECT `+historyColumns+` FROM history WHERE id = ?`, rowID)
	if err != nil {
		return nil, storeErr("history row "+rowID, err)
	}
	return &h, nil
}

// HistoryFilter narrows ListHistory. Zero times leave that end open; To is
// exclusive.
type HistoryFilter struct {
	AccountID string
	Operation Operation
	From      time.Time
	To        time.Time
}

// ListHistory returns rows in ledger order: created_at, then insertion.
func (s *Store) ListHistory(ctx context.Context, f HistoryFilter) ([]History, error) {
	var (
		where []string
		args  []any
	)
	if f.AccountID != "" {
		where = append(where, "account_id = ?")
		args = append(args, f.AccountID)
	}
	if f.Operation != "" {
		where = append(where, "operation = ?")
		args = append(args, f.Operation)
	}
	if !f.From.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, f.From.UTC())
	}
	if !f.To.IsZero() {
		where = append(where, "created_at < ?")
		args = append(args, f.To.UTC())
	}

	query := `SELECT ` + historyColumns + ` FROM history`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at, seq`

	out := []History{}
	if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return out, nil
}
