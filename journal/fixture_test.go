package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/tradejournal/internal/db"
	"github.com/rustyeddy/tradejournal/market"
	"github.com/rustyeddy/tradejournal/users"
)

type fixture struct {
	conn    *sqlx.DB
	store   *Store
	ledger  *Ledger
	owner   *users.User
	broker  *market.Broker
	symbol  *market.Symbol
	account *Account
}

func newFixture(t *testing.T, opts ...LedgerOption) *fixture {
	t.Helper()

	conn, err := db.Open(db.Config{Path: filepath.Join(t.TempDir(), "journal.db"), BusyTimeout: 5 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ctx := context.Background()
	owner, err := users.NewManager(conn).CreateUser(ctx, "trader@example.com", "")
	require.NoError(t, err)

	ms := market.NewStore(conn)
	mkt, err := ms.CreateMarket(ctx, "Forex")
	require.NoError(t, err)
	broker, err := ms.CreateBroker(ctx, "IC Markets", mkt.ID)
	require.NoError(t, err)
	st, err := ms.CreateSymbolType(ctx, "Forex")
	require.NoError(t, err)
	sym, err := ms.CreateSymbol(ctx, "Euro / US Dollar", "EURUSD", st.ID, mkt.ID, broker.ID)
	require.NoError(t, err)

	f := &fixture{
		conn:   conn,
		store:  NewStore(conn),
		ledger: NewLedger(conn, opts...),
		owner:  owner,
		broker: broker,
		symbol: sym,
	}
	f.account = f.newAccount(t, "Main")
	return f
}

func (f *fixture) newAccount(t *testing.T, name string) *Account {
	t.Helper()

	a, err := f.store.CreateAccount(context.Background(), NewAccount{
		OwnerID:  f.owner.ID,
		BrokerID: f.broker.ID,
		Name:     name,
	})
	require.NoError(t, err)
	return a
}

// closedPosition opens and closes a position on acct at the given time.
func (f *fixture) closedPosition(t *testing.T, acct *Account, ticket int64, at time.Time, profit, swaps, commissions string) *Position {
	t.Helper()
	ctx := context.Background()

	p, err := f.store.OpenPosition(ctx, NewPosition{
		AccountID:   acct.ID,
		Ticket:      ticket,
		SymbolID:    f.symbol.ID,
		Volume:      dec("0.1"),
		OpenedAt:    at.Add(-time.Hour),
		OpenPrice:   dec("1.0850"),
		Commissions: decp(commissions),
	})
	require.NoError(t, err)

	p, err = f.store.ClosePosition(ctx, p.ID, Close{
		At:     at,
		Price:  dec("1.0900"),
		Profit: dec(profit),
		Swaps:  decp(swaps),
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) history(t *testing.T, acct *Account) []History {
	t.Helper()

	rows, err := f.store.ListHistory(context.Background(), HistoryFilter{AccountID: acct.ID})
	require.NoError(t, err)
	return rows
}

func (f *fixture) cachedBalance(t *testing.T, acct *Account) decimal.Decimal {
	t.Helper()

	a, err := f.store.GetAccount(context.Background(), acct.ID)
	require.NoError(t, err)
	return a.Balance
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decp(s string) *decimal.Decimal {
	if s == "" {
		return nil
	}
	d := dec(s)
	return &d
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.Equal(t, dec(want).StringFixed(2), got.StringFixed(2), msgAndArgs...)
}

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func hour(n int) time.Time {
	return t0.Add(time.Duration(n) * time.Hour)
}
