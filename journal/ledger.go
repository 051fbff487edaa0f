package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/tradejournal/internal/db"
	"github.com/rustyeddy/tradejournal/pkg/id"
)

// Ledger appends history rows and keeps Account.Balance equal to the
// running total.
//
// AddClosedPosition and AddRow assume events arrive in time order and only
// look at the row before the new one. Force lets a caller insert a row in
// the past; the rows after it then carry stale balances until
// RecalculateBalance runs.
type Ledger struct {
	db       *sqlx.DB
	locks    *accountLocks
	log      zerolog.Logger
	observer Observer
	now      func() time.Time
}

// LedgerOption configures a Ledger.
type LedgerOption func(*Ledger)

func WithLogger(log zerolog.Logger) LedgerOption {
	return func(l *Ledger) { l.log = log }
}

func WithObserver(o Observer) LedgerOption {
	return func(l *Ledger) {
		if o != nil {
			l.observer = o
		}
	}
}

// WithClock replaces time.Now for rows posted without an explicit time.
func WithClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) { l.now = now }
}

func NewLedger(conn *sqlx.DB, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		db:       conn,
		locks:    newAccountLocks(),
		log:      zerolog.Nop(),
		observer: nopObserver{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type postOptions struct {
	force bool
	at    time.Time
}

// PostOption adjusts a single posting.
type PostOption func(*postOptions)

// Force skips the check that the new row is not older than the ledger head.
func Force() PostOption {
	return func(o *postOptions) { o.force = true }
}

// At sets the event time of a row posted with AddRow. Ignored by
// AddClosedPosition, which uses the position's close time.
func At(t time.Time) PostOption {
	return func(o *postOptions) { o.at = t }
}

func postOpts(opts []PostOption) postOptions {
	var o postOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// AddClosedPosition posts the net result of a closed position
// (profit + swaps - commissions) as a PositionClose row dated at the close
// time, then moves the account balance to the row's balance.
func (l *Ledger) AddClosedPosition(ctx context.Context, p *Position, opts ...PostOption) (*History, error) {
	o := postOpts(opts)

	if p.ClosedAt == nil {
		return nil, l.reject(errorf(ErrPositionNotClosed, "position %d is not closed", p.Ticket), p.AccountID)
	}

	unlock := l.locks.lock(p.AccountID)
	defer unlock()

	var row *History
	err := db.WithTx(ctx, l.db, func(tx *sqlx.Tx) error {
		posted, err := positionPosted(ctx, tx, p.AccountID, p.ID)
		if err != nil {
			return err
		}
		if posted {
			return errorf(ErrPositionAlreadyExists, "position %d is already in the account history", p.Ticket)
		}

		positionID := p.ID
		row = &History{
			ID:         id.New(),
			AccountID:  p.AccountID,
			Profit:     p.NetProfit().RoundBank(2),
			Operation:  PositionClose,
			PositionID: &positionID,
			CreatedAt:  p.ClosedAt.UTC(),
		}
		return l.append(ctx, tx, row, o.force)
	})
	if err != nil {
		return nil, l.reject(err, p.AccountID)
	}

	l.posted(row)
	return row, nil
}

// AddRow posts a deposit, withdrawal or dividend. profit is signed: a
// withdrawal should be negative. acct.Balance is updated on success.
func (l *Ledger) AddRow(ctx context.Context, acct *Account, profit decimal.Decimal, op Operation, opts ...PostOption) (*History, error) {
	o := postOpts(opts)

	if !op.Valid() || op == PositionClose {
		return nil, l.reject(errorf(ErrInvalidOperation, "operation %q cannot be posted as a plain history row", string(op)), acct.ID)
	}

	unlock := l.locks.lock(acct.ID)
	defer unlock()

	// Read the clock under the lock so queued rows keep their order.
	createdAt := o.at
	if createdAt.IsZero() {
		createdAt = l.now()
	}

	row := &History{
		ID:        id.New(),
		AccountID: acct.ID,
		Profit:    profit.RoundBank(2),
		Operation: op,
		CreatedAt: createdAt.UTC(),
	}
	err := db.WithTx(ctx, l.db, func(tx *sqlx.Tx) error {
		return l.append(ctx, tx, row, o.force)
	})
	if err != nil {
		return nil, l.reject(err, acct.ID)
	}

	acct.Balance = row.Balance
	l.posted(row)
	return row, nil
}

// append fills row.Balance from the row preceding it, inserts it and writes
// the account balance cache.
func (l *Ledger) append(ctx context.Context, tx *sqlx.Tx, row *History, force bool) error {
	head, err := ledgerHead(ctx, tx, row.AccountID)
	if err != nil {
		return err
	}

	previous := decimal.Zero
	switch {
	case head == nil:
	case head.CreatedAt.After(row.CreatedAt):
		if !force {
			return errorf(ErrTemporalDisturbance,
				"account %s already has a row at %s, after %s",
				row.AccountID, head.CreatedAt.UTC().Format(time.RFC3339), row.CreatedAt.Format(time.RFC3339))
		}
		previous, err = balanceAt(ctx, tx, row.AccountID, row.CreatedAt)
		if err != nil {
			return err
		}
		l.log.Warn().
			Str("account", row.AccountID).
			Time("at", row.CreatedAt).
			Time("head", head.CreatedAt).
			Msg("forced backdated history row, recalculate the balance")
	default:
		previous = head.Balance
	}
	row.Balance = row.Profit.Add(previous)

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO history (`+historyColumns+`)
		VALUES (:id, :account_id, :profit, :balance, :operation, :position_id, :created_at)`, row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return errorf(ErrPositionAlreadyExists, "position is already in the account history")
		}
		if db.IsForeignKeyViolation(err) {
			return errorf(ErrNotFound, "account %s or its position not found", row.AccountID)
		}
		return fmt.Errorf("insert history row: %w", err)
	}

	return setAccountBalance(ctx, tx, row.AccountID, row.Balance)
}

// RecalculateBalance rebuilds every row's balance of the account as a
// running sum in ledger order and stores the total as the account balance.
// It returns the new balance and updates acct.Balance.
func (l *Ledger) RecalculateBalance(ctx context.Context, acct *Account) (decimal.Decimal, error) {
	unlock := l.locks.lock(acct.ID)
	defer unlock()

	balance := decimal.Zero
	var rows []History
	err := db.WithTx(ctx, l.db, func(tx *sqlx.Tx) error {
		var err error
		rows, err = historyInOrder(ctx, tx, acct.ID)
		if err != nil {
			return err
		}
		for _, r := range rows {
			balance = balance.Add(r.Profit)
			if _, err := tx.ExecContext(ctx, `UPDATE history SET balance = ? WHERE id = ?`, balance, r.ID); err != nil {
				return fmt.Errorf("update history row %s: %w", r.ID, err)
			}
		}
		return setAccountBalance(ctx, tx, acct.ID, balance)
	})
	if err != nil {
		return decimal.Zero, l.reject(err, acct.ID)
	}

	acct.Balance = balance
	l.observer.Recalculated(len(rows))
	l.log.Info().
		Str("account", acct.ID).
		Int("rows", len(rows)).
		Str("balance", balance.StringFixed(2)).
		Msg("balance recalculated")
	return balance, nil
}

func (l *Ledger) posted(row *History) {
	l.observer.Posted(row.Operation, row.Profit)
	l.log.Info().
		Str("account", row.AccountID).
		Str("operation", row.Operation.String()).
		Str("profit", row.Profit.StringFixed(2)).
		Str("balance", row.Balance.StringFixed(2)).
		Time("at", row.CreatedAt).
		Msg("history row posted")
}

func (l *Ledger) reject(err error, accountID string) error {
	l.observer.Rejected(err)
	l.log.Debug().Err(err).Str("account", accountID).Str("reason", Reason(err)).Msg("ledger operation rejected")
	return err
}

func positionPosted(ctx context.Context, q sqlx.QueryerContext, accountID, positionID string) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, q, &n, `
		SELECT COUNT(*) FROM history WHERE account_id = ? AND position_id = ?`, accountID, positionID)
	if err != nil {
		return false, fmt.Errorf("look up posted position: %w", err)
	}
	return n > 0, nil
}

// ledgerHead returns the latest row of the account, or nil when it has none.
func ledgerHead(ctx context.Context, q sqlx.QueryerContext, accountID string) (*History, error) {
	var h History
	err := sqlx.GetContext(ctx, q, &h, `
		SELECT `+historyColumns+` FROM history
		WHERE account_id = ?
		ORDER BY created_at DESC, seq DESC
		LIMIT 1`, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ledger head of account %s: %w", accountID, err)
	}
	return &h, nil
}

// balanceAt returns the balance of the latest row at or before t, or zero.
func balanceAt(ctx context.Context, q sqlx.QueryerContext, accountID string, t time.Time) (decimal.Decimal, error) {
	var bal decimal.Decimal
	err := sqlx.GetContext(ctx, q, &bal, `
		SELECT balance FROM history
		WHERE account_id = ? AND created_at <= ?
		ORDER BY created_at DESC, seq DESC
		LIMIT 1`, accountID, t.UTC())
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("balance of account %s at %s: %w", accountID, t.Format(time.RFC3339), err)
	}
	return bal, nil
}

func setAccountBalance(ctx context.Context, e sqlx.ExecerContext, accountID string, balance decimal.Decimal) error {
	res, err := e.ExecContext(ctx, `UPDATE accounts SET balance = ? WHERE id = ?`, balance, accountID)
	if err != nil {
		return fmt.Errorf("update balance of account %s: %w", accountID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update balance of account %s: %w", accountID, err)
	}
	if n == 0 {
		return errorf(ErrNotFound, "account %s not found", accountID)
	}
	return nil
}
