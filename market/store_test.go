package market

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/tradejournal/internal/db"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	conn, err := db.Open(db.Config{Path: filepath.Join(t.TempDir(), "test.db"), BusyTimeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return NewStore(conn)
}

func TestCreateMarket(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	m, err := s.CreateMarket(ctx, "NASDAQ")
	require.NoError(t, err)
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, "NASDAQ", m.String())

	got, err := s.GetMarket(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, *m, *got)

	_, err = s.GetMarket(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateMarketValidatesName(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateMarket(ctx, "")
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = s.CreateMarket(ctx, strings.Repeat("x", 51))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestListMarketsSearch(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"NYSE", "NASDAQ", "Forex"} {
		_, err := s.CreateMarket(ctx, name)
		require.NoError(t, err)
	}

	all, err := s.ListMarkets(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Forex", all[0].Name)

	found, err := s.ListMarkets(ctx, "nas")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "NASDAQ", found[0].Name)
}

func TestBrokerMarkets(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"NYSE", "NASDAQ", "LSE"} {
		m, err := s.CreateMarket(ctx, name)
		require.NoError(t, err)
		ids = append(ids, m.ID)
	}

	b, err := s.CreateBroker(ctx, "Interactive Brokers", ids...)
	require.NoError(t, err)
	assert.Equal(t, "Interactive Brokers", b.String())
	require.Len(t, b.Markets, 3)
	assert.Equal(t, "NYSE, NASDAQ, LSE", b.MarketsNames())

	require.NoError(t, s.SetBrokerMarkets(ctx, b.ID, ids[1]))
	got, err := s.GetBroker(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "NASDAQ", got.MarketsNames())

	err = s.SetBrokerMarkets(ctx, "missing", ids[0])
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.CreateBroker(ctx, "Ghost", "no-such-market")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListBrokers(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateBroker(ctx, "XTB")
	require.NoError(t, err)
	_, err = s.CreateBroker(ctx, "Degiro")
	require.NoError(t, err)

	all, err := s.ListBrokers(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Degiro", all[0].Name)
	assert.Empty(t, all[0].Markets)
	assert.Equal(t, "", all[0].MarketsNames())

	found, err := s.ListBrokers(ctx, "xt")
	require.NoError(t, err)
	require.Len(t, found, 1)
}

func TestSymbolTypesAreUnique(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	st, err := s.CreateSymbolType(ctx, "Stock")
	require.NoError(t, err)
	assert.Equal(t, "Stock", st.String())

	_, err = s.CreateSymbolType(ctx, "Stock")
	assert.ErrorIs(t, err, ErrDuplicate)

	types, err := s.ListSymbolTypes(ctx, "sto")
	require.NoError(t, err)
	require.Len(t, types, 1)
}

func TestSeed(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateSymbolType(ctx, "Forex")
	require.NoError(t, err)

	created, err := s.Seed(ctx)
	require.NoError(t, err)
	assert.Len(t, created, len(DefaultSymbolTypes)-1)

	again, err := s.Seed(ctx)
	require.NoError(t, err)
	assert.Empty(t, again)

	all, err := s.ListSymbolTypes(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, len(DefaultSymbolTypes))
}

func TestSymbols(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	nyse, err := s.CreateMarket(ctx, "NYSE")
	require.NoError(t, err)
	lse, err := s.CreateMarket(ctx, "LSE")
	require.NoError(t, err)
	stock, err := s.CreateSymbolType(ctx, "Stock")
	require.NoError(t, err)
	etf, err := s.CreateSymbolType(ctx, "ETF")
	require.NoError(t, err)
	b1, err := s.CreateBroker(ctx, "XTB")
	require.NoError(t, err)
	b2, err := s.CreateBroker(ctx, "Degiro")
	require.NoError(t, err)

	ibm, err := s.CreateSymbol(ctx, "International Business Machines", "IBM", stock.ID, nyse.ID, b1.ID, b2.ID)
	require.NoError(t, err)
	assert.Equal(t, "International Business Machines", ibm.String())
	assert.Equal(t, "XTB, Degiro", ibm.BrokersNames())

	_, err = s.CreateSymbol(ctx, "IBM again", "IBM", stock.ID, nyse.ID)
	assert.ErrorIs(t, err, ErrDuplicate)

	// same code on another market is fine
	_, err = s.CreateSymbol(ctx, "IBM London", "IBM", stock.ID, lse.ID)
	require.NoError(t, err)

	_, err = s.CreateSymbol(ctx, "Vanguard S&P 500", "VOO", etf.ID, nyse.ID)
	require.NoError(t, err)

	all, err := s.ListSymbols(ctx, SymbolFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	onNYSE, err := s.ListSymbols(ctx, SymbolFilter{MarketID: nyse.ID})
	require.NoError(t, err)
	assert.Len(t, onNYSE, 2)

	etfs, err := s.ListSymbols(ctx, SymbolFilter{TypeID: etf.ID})
	require.NoError(t, err)
	require.Len(t, etfs, 1)
	assert.Equal(t, "VOO", etfs[0].Code)

	byName, err := s.ListSymbols(ctx, SymbolFilter{Search: "london"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, lse.ID, byName[0].MarketID)

	require.NoError(t, s.SetSymbolBrokers(ctx, ibm.ID, b2.ID))
	got, err := s.GetSymbol(ctx, ibm.ID)
	require.NoError(t, err)
	assert.Equal(t, "Degiro", got.BrokersNames())

	_, err = s.CreateSymbol(ctx, "Bad", "BAD", "no-type", nyse.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
