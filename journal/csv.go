package journal

import (
	"encoding/csv"
	"io"
	"time"
)

var historyCSVHeader = []string{"id", "account_id", "operation", "position_id", "created_at", "profit", "balance"}

// HistoryCSV writes history rows as CSV, one row per line after a header.
type HistoryCSV struct {
	w *csv.Writer
}

func NewHistoryCSV(w io.Writer) (*HistoryCSV, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(historyCSVHeader); err != nil {
		return nil, err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, err
	}
	return &HistoryCSV{w: cw}, nil
}

func (c *HistoryCSV) Write(h History) error {
	positionID := ""
	if h.PositionID != nil {
		positionID = *h.PositionID
	}
	return c.w.Write([]string{
		h.ID,
		h.AccountID,
		string(h.Operation),
		positionID,
		h.CreatedAt.UTC().Format(time.RFC3339),
		h.Profit.StringFixed(2),
		h.Balance.StringFixed(2),
	})
}

// WriteAll writes rows and flushes.
func (c *HistoryCSV) WriteAll(rows []History) error {
	for _, h := range rows {
		if err := c.Write(h); err != nil {
			return err
		}
	}
	return c.Flush()
}

func (c *HistoryCSV) Flush() error {
	c.w.Flush()
	return c.w.Error()
}
