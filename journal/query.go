package journal

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// Verification compares an account's cached balance with its history.
type Verification struct {
	AccountID string          `json:"account_id"`
	Rows      int             `json:"rows"`
	Cached    decimal.Decimal `json:"cached"`
	Head      decimal.Decimal `json:"head"`
	Expected  decimal.Decimal `json:"expected"`
	StaleRows []string        `json:"stale_rows"`
}

// OK is true when the cache, the head row and every prefix sum agree.
func (v Verification) OK() bool {
	return v.Cached.Equal(v.Expected) && v.Head.Equal(v.Expected) && len(v.StaleRows) == 0
}

// Verify checks the balance invariants of an account without changing
// anything. RecalculateBalance repairs whatever it reports.
func (s *Store) Verify(ctx context.Context, accountID string) (*Verification, error) {
	acct, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	rows, err := historyInOrder(ctx, s.db, accountID)
	if err != nil {
		return nil, err
	}

	v := &Verification{
		AccountID: accountID,
		Rows:      len(rows),
		Cached:    acct.Balance,
		Head:      decimal.Zero,
		Expected:  decimal.Zero,
		StaleRows: []string{},
	}
	for _, r := range rows {
		v.Expected = v.Expected.Add(r.Profit)
		if !r.Balance.Equal(v.Expected) {
			v.StaleRows = append(v.StaleRows, r.ID)
		}
		v.Head = r.Balance
	}
	return v, nil
}

func historyInOrder(ctx context.Context, q sqlx.QueryerContext, accountID string) ([]History, error) {
	var rows []History
	err := sqlx.SelectContext(ctx, q, &rows, `
		SELECT `+historyColumns+` FROM history
		WHERE account_id = ?
		ORDER BY created_at, seq`, accountID)
	if err != nil {
		return nil, fmt.Errorf("history of account %s: %w", accountID, err)
	}
	return rows, nil
}
