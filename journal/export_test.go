package journal

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRows() []History {
	pos := "01HQPOSITION0000000000ABCD"
	return []History{
		{ID: "h1", AccountID: "acc", Operation: Deposit, Profit: dec("100"), Balance: dec("100"), CreatedAt: hour(1)},
		{ID: "h2", AccountID: "acc", Operation: Withdrawal, Profit: dec("-30"), Balance: dec("70"), CreatedAt: hour(2)},
		{ID: "h3", AccountID: "acc", Operation: PositionClose, PositionID: &pos, Profit: dec("9"), Balance: dec("79"), CreatedAt: hour(3)},
	}
}

func TestHistoryCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w, err := NewHistoryCSV(&buf)
	require.NoError(t, err)
	require.NoError(t, w.WriteAll(sampleRows()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"id", "account_id", "operation", "position_id", "created_at", "profit", "balance"}, records[0])
	assert.Equal(t, []string{"h1", "acc", "DE", "", "2024-03-01T10:00:00Z", "100.00", "100.00"}, records[1])
	assert.Equal(t, "-30.00", records[2][5])
	assert.Equal(t, "01HQPOSITION0000000000ABCD", records[3][3])
	assert.Equal(t, "79.00", records[3][6])
}

func TestHistoryCSVHeaderOnly(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	_, err := NewHistoryCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, "id,account_id,operation,position_id,created_at,profit,balance\n", buf.String())
}

func TestFormatStatementOrg(t *testing.T) {
	t.Parallel()

	acct := Account{ID: "01HQACCOUNT00000000000WXYZ", Name: "Main", Currency: "USD", Balance: dec("79")}
	result := FormatStatementOrg(acct, sampleRows())

	assert.True(t, strings.HasPrefix(result, "** Account: Main (0000WXYZ)\n"))
	assert.Contains(t, result, ":ACCOUNT_ID: 01HQACCOUNT00000000000WXYZ")
	assert.Contains(t, result, ":BALANCE: 79.00")
	assert.Contains(t, result, ":ROWS: 3")
	assert.Contains(t, result, ":DEPOSITS: 100.00")
	assert.Contains(t, result, ":WITHDRAWALS: -30.00")
	assert.Contains(t, result, ":DIVIDENDS: 0.00")
	assert.Contains(t, result, ":TRADING_PL: 9.00")
	assert.Contains(t, result, "| 2024-03-01T12:00:00Z | Position Close | 0000ABCD | 9.00 | 79.00 |")
	assert.Equal(t, 3, strings.Count(result, "| 2024-"))
}

func TestFormatStatementOrgEmpty(t *testing.T) {
	t.Parallel()

	result := FormatStatementOrg(Account{ID: "acc", Name: "Empty", Currency: "EUR"}, nil)
	assert.Contains(t, result, ":ROWS: 0")
	assert.NotContains(t, result, "| Time |")
	assert.True(t, strings.HasSuffix(result, ":END:\n"))
}

func TestFormatPositionOrg(t *testing.T) {
	t.Parallel()

	closedAt := time.Date(2024, 3, 15, 14, 20, 30, 0, time.UTC)
	p := Position{
		ID:         "01HQPOSITION0000000000ABCD",
		Ticket:     5001,
		SymbolID:   "sym",
		Volume:     dec("0.5"),
		OpenPrice:  dec("1.085"),
		OpenedAt:   time.Date(2024, 3, 15, 10, 30, 45, 0, time.UTC),
		ClosedAt:   &closedAt,
		ClosePrice: decp("1.0875"),
		Profit:     decp("125"),
		Swaps:      decp("-1"),
	}

	result := FormatPositionOrg(p)
	assert.Contains(t, result, "*** Position: 5001 (0000ABCD)")
	assert.Contains(t, result, ":OPEN_PRICE: 1.0850")
	assert.Contains(t, result, ":CLOSED_AT: 2024-03-15T14:20:30Z")
	assert.Contains(t, result, ":NET_PROFIT: 124.00")
	assert.Contains(t, result, "**** Thesis")

	p.ClosedAt = nil
	assert.NotContains(t, FormatPositionOrg(p), ":CLOSED_AT:")
}
