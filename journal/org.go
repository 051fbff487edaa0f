package journal

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FormatStatementOrg renders an account statement as an Org-mode block:
// facts in a PROPERTIES drawer, then one table line per history row.
func FormatStatementOrg(a Account, rows []History) string {
	deposits, withdrawals, dividends, trading := decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
	for _, r := range rows {
		switch r.Operation {
		case Deposit:
			deposits = deposits.Add(r.Profit)
		case Withdrawal:
			withdrawals = withdrawals.Add(r.Profit)
		case Dividends:
			dividends = dividends.Add(r.Profit)
		case PositionClose:
			trading = trading.Add(r.Profit)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "** Account: %s (%s)\n", a.Name, shortID(a.ID))
	b.WriteString(":PROPERTIES:\n")
	fmt.Fprintf(&b, ":ACCOUNT_ID: %s\n", a.ID)
	fmt.Fprintf(&b, ":CURRENCY: %s\n", a.Currency)
	fmt.Fprintf(&b, ":BALANCE: %s\n", a.Balance.StringFixed(2))
	fmt.Fprintf(&b, ":ROWS: %d\n", len(rows))
	fmt.Fprintf(&b, ":DEPOSITS: %s\n", deposits.StringFixed(2))
	fmt.Fprintf(&b, ":WITHDRAWALS: %s\n", withdrawals.StringFixed(2))
	fmt.Fprintf(&b, ":DIVIDENDS: %s\n", dividends.StringFixed(2))
	fmt.Fprintf(&b, ":TRADING_PL: %s\n", trading.StringFixed(2))
	b.WriteString(":END:\n")

	if len(rows) == 0 {
		return b.String()
	}

	b.WriteString("\n| Time | Operation | Position | Profit | Balance |\n")
	b.WriteString("|------+-----------+----------+--------+---------|\n")
	for _, r := range rows {
		pos := ""
		if r.PositionID != nil {
			pos = shortID(*r.PositionID)
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			r.CreatedAt.UTC().Format(time.RFC3339),
			r.Operation,
			pos,
			r.Profit.StringFixed(2),
			r.Balance.StringFixed(2))
	}
	return b.String()
}

// FormatPositionOrg renders a position as an Org-mode heading with its
// facts in a drawer and empty notes sections.
func FormatPositionOrg(p Position) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*** Position: %d (%s)\n", p.Ticket, shortID(p.ID))
	b.WriteString(":PROPERTIES:\n")
	fmt.Fprintf(&b, ":ID: %s\n", p.ID)
	fmt.Fprintf(&b, ":TICKET: %d\n", p.Ticket)
	fmt.Fprintf(&b, ":SYMBOL_ID: %s\n", p.SymbolID)
	fmt.Fprintf(&b, ":VOLUME: %s\n", p.Volume.String())
	fmt.Fprintf(&b, ":OPEN_PRICE: %s\n", p.OpenPrice.StringFixed(4))
	fmt.Fprintf(&b, ":OPENED_AT: %s\n", p.OpenedAt.UTC().Format(time.RFC3339))
	if p.ClosedAt != nil {
		fmt.Fprintf(&b, ":CLOSE_PRICE: %s\n", orZero(p.ClosePrice).StringFixed(4))
		fmt.Fprintf(&b, ":CLOSED_AT: %s\n", p.ClosedAt.UTC().Format(time.RFC3339))
		fmt.Fprintf(&b, ":NET_PROFIT: %s\n", p.NetProfit().StringFixed(2))
	}
	b.WriteString(":END:\n\n")
	b.WriteString("**** Thesis\n- \n\n")
	b.WriteString("**** Review\n- \n")
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[len(full)-8:]
}
