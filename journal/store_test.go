package journal

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAccount(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	a, err := f.store.CreateAccount(ctx, NewAccount{OwnerID: f.owner.ID, BrokerID: f.broker.ID, Name: "Demo", Currency: "eur"})
	require.NoError(t, err)
	assert.Equal(t, "EUR", a.Currency)
	assert.True(t, a.Balance.IsZero())
	assert.Equal(t, "Demo", a.String())

	got, err := f.store.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, "EUR", got.Currency)
	assert.Equal(t, DefaultCurrency, f.account.Currency)
}

func TestCreateAccountValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	cases := []NewAccount{
		{OwnerID: f.owner.ID, BrokerID: f.broker.ID, Name: ""},
		{OwnerID: f.owner.ID, BrokerID: f.broker.ID, Name: strings.Repeat("a", 301)},
		{OwnerID: f.owner.ID, BrokerID: f.broker.ID, Name: "x", Currency: "EURO"},
	}
	for _, na := range cases {
		_, err := f.store.CreateAccount(ctx, na)
		assert.ErrorIs(t, err, ErrInvalid)
	}

	_, err := f.store.CreateAccount(ctx, NewAccount{OwnerID: "nobody", BrokerID: f.broker.ID, Name: "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.store.GetAccount(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListAccounts(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.newAccount(t, "Alpha")
	f.newAccount(t, "Swing")

	all, err := f.store.ListAccounts(ctx, AccountFilter{OwnerID: f.owner.ID})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Alpha", all[0].Name)

	found, err := f.store.ListAccounts(ctx, AccountFilter{Search: "win"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Swing", found[0].Name)

	none, err := f.store.ListAccounts(ctx, AccountFilter{OwnerID: "other"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestOpenAndClosePosition(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	p, err := f.store.OpenPosition(ctx, NewPosition{
		AccountID:   f.account.ID,
		Ticket:      5001,
		SymbolID:    f.symbol.ID,
		Volume:      dec("0.25"),
		OpenedAt:    hour(1),
		OpenPrice:   dec("1.08505"),
		SLPrice:     decp("1.08"),
		Commissions: decp("3.5"),
	})
	require.NoError(t, err)
	assert.False(t, p.IsClosed())
	assert.Equal(t, "1.0851", p.OpenPrice.String())

	got, err := f.store.GetPosition(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5001), got.Ticket)
	assert.True(t, got.OpenedAt.Equal(hour(1)))
	require.NotNil(t, got.SLPrice)
	assert.Equal(t, "1.08", got.SLPrice.String())
	assert.Nil(t, got.TPPrice)
	assert.Empty(t, got.Modifications)

	closed, err := f.store.ClosePosition(ctx, p.ID, Close{
		At:       hour(4),
		Price:    dec("1.09"),
		Profit:   dec("123.45"),
		Swaps:    decp("-1.2"),
		Manually: true,
	})
	require.NoError(t, err)
	assert.True(t, closed.IsClosed())
	assertDec(t, "118.75", closed.NetProfit())

	got, err = f.store.GetPosition(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ClosedAt)
	assert.True(t, got.ClosedAt.Equal(hour(4)))
	require.NotNil(t, got.ClosedManually)
	assert.True(t, *got.ClosedManually)
	assertDec(t, "3.5", *got.Commissions)
	assertDec(t, "118.75", got.NetProfit())

	_, err = f.store.ClosePosition(ctx, p.ID, Close{At: hour(5)})
	assert.ErrorIs(t, err, ErrPositionClosed)
}

func TestOpenPositionValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	_, err := f.store.OpenPosition(ctx, NewPosition{AccountID: f.account.ID, SymbolID: f.symbol.ID, Ticket: -1, Volume: dec("1")})
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = f.store.OpenPosition(ctx, NewPosition{AccountID: f.account.ID, SymbolID: f.symbol.ID, Volume: dec("0")})
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = f.store.OpenPosition(ctx, NewPosition{AccountID: f.account.ID, SymbolID: "nope", Volume: dec("1")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClosePositionBeforeOpen(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	p, err := f.store.OpenPosition(ctx, NewPosition{AccountID: f.account.ID, SymbolID: f.symbol.ID, Volume: dec("1"), OpenedAt: hour(5)})
	require.NoError(t, err)

	_, err = f.store.ClosePosition(ctx, p.ID, Close{At: hour(4)})
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = f.store.ClosePosition(ctx, "missing", Close{At: hour(4)})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestModifyPosition(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	p, err := f.store.OpenPosition(ctx, NewPosition{AccountID: f.account.ID, SymbolID: f.symbol.ID, Volume: dec("1"), OpenedAt: hour(1), OpenPrice: dec("100")})
	require.NoError(t, err)

	_, err = f.store.ModifyPosition(ctx, p.ID, decp("95"), decp("110"), hour(2))
	require.NoError(t, err)
	_, err = f.store.ModifyPosition(ctx, p.ID, decp("99"), nil, hour(3))
	require.NoError(t, err)

	got, err := f.store.GetPosition(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "99", got.SLPrice.String())
	assert.Nil(t, got.TPPrice)
	require.Len(t, got.Modifications, 2)
	first := got.Modifications[hour(2).Format(time.RFC3339Nano)]
	require.NotNil(t, first.TPPrice)
	assert.Equal(t, "110", first.TPPrice.String())

	_, err = f.store.ClosePosition(ctx, p.ID, Close{At: hour(4), Price: dec("101"), Profit: dec("1")})
	require.NoError(t, err)
	_, err = f.store.ModifyPosition(ctx, p.ID, nil, nil, hour(5))
	assert.ErrorIs(t, err, ErrPositionClosed)
}

func TestListPositionsByState(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	f.closedPosition(t, f.account, 1, hour(2), "5", "", "")
	_, err := f.store.OpenPosition(ctx, NewPosition{AccountID: f.account.ID, Ticket: 2, SymbolID: f.symbol.ID, Volume: dec("1"), OpenedAt: hour(3)})
	require.NoError(t, err)

	all, err := f.store.ListPositions(ctx, PositionFilter{AccountID: f.account.ID})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, int64(1), all[0].Ticket)

	open, err := f.store.ListPositions(ctx, PositionFilter{AccountID: f.account.ID, State: OpenPositions})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, int64(2), open[0].Ticket)

	closed, err := f.store.ListPositions(ctx, PositionFilter{State: ClosedPositions})
	require.NoError(t, err)
	require.Len(t, closed, 1)
	assert.Equal(t, int64(1), closed[0].Ticket)
}

func TestListHistoryFilters(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.AddRow(ctx, f.account, dec("100"), Deposit, At(hour(1)))
	require.NoError(t, err)
	_, err = f.ledger.AddRow(ctx, f.account, dec("-20"), Withdrawal, At(hour(2)))
	require.NoError(t, err)
	_, err = f.ledger.AddRow(ctx, f.account, dec("3"), Dividends, At(hour(3)))
	require.NoError(t, err)

	deposits, err := f.store.ListHistory(ctx, HistoryFilter{AccountID: f.account.ID, Operation: Deposit})
	require.NoError(t, err)
	require.Len(t, deposits, 1)

	window, err := f.store.ListHistory(ctx, HistoryFilter{AccountID: f.account.ID, From: hour(2), To: hour(3)})
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, Withdrawal, window[0].Operation)

	_, err = f.store.GetHistory(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParseOperation(t *testing.T) {
	t.Parallel()

	cases := map[string]Operation{
		"DE":             Deposit,
		"wd":             Withdrawal,
		"withdraw":       Withdrawal,
		"Dividends":      Dividends,
		"position_close": PositionClose,
		"Position Close": PositionClose,
	}
	for in, want := range cases {
		got, err := ParseOperation(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseOperation("bonus")
	assert.Error(t, err)
	assert.Equal(t, "Position Close", PositionClose.String())
}

func TestNetProfitTreatsMissingPartsAsZero(t *testing.T) {
	t.Parallel()

	p := Position{Profit: decp("10")}
	assertDec(t, "10", p.NetProfit())

	p = Position{Swaps: decp("1"), Commissions: decp("2")}
	assertDec(t, "-1", p.NetProfit())
}
