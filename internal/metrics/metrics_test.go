package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/tradejournal/journal"
)

func TestLedgerCounters(t *testing.T) {
	t.Parallel()

	m := NewLedger()
	m.Posted(journal.Deposit, decimal.NewFromInt(100))
	m.Posted(journal.Withdrawal, decimal.NewFromInt(-30))
	m.Posted(journal.Deposit, decimal.NewFromInt(5))
	m.Rejected(&journal.Error{Kind: journal.ErrTemporalDisturbance})
	m.Rejected(errors.New("disk full"))
	m.Recalculated(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.postings.WithLabelValues("DE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.postings.WithLabelValues("WD")))
	assert.Equal(t, 30.0, testutil.ToFloat64(m.amount.WithLabelValues("WD")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejections.WithLabelValues("temporal_disturbance")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejections.WithLabelValues("internal")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.recalcs))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.recalcedRows))
}

func TestHandlerExposesCounters(t *testing.T) {
	t.Parallel()

	m := NewLedger()
	m.Posted(journal.Dividends, decimal.NewFromInt(1))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `tradejournal_postings_total{operation="DI"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
