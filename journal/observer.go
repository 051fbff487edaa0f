package journal

import "github.com/shopspring/decimal"

// Observer is told about every ledger outcome. internal/metrics exports
// these as Prometheus counters.
type Observer interface {
	Posted(op Operation, profit decimal.Decimal)
	Rejected(err error)
	Recalculated(rows int)
}

type nopObserver struct{}

func (nopObserver) Posted(Operation, decimal.Decimal) {}
func (nopObserver) Rejected(error)                   {}
func (nopObserver) Recalculated(int)                 {}
