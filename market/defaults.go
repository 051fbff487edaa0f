package market

import (
	"context"
	"errors"
)

// DefaultSymbolTypes are created by Seed on an empty journal.
var DefaultSymbolTypes = []string{
	"Forex",
	"Stock",
	"ETF",
	"Index",
	"Commodity",
	"Crypto",
}

// Seed creates every name in DefaultSymbolTypes that does not exist yet and
// returns the ones it created.
func (s *Store) Seed(ctx context.Context) ([]SymbolType, error) {
	var created []SymbolType
	for _, name := range DefaultSymbolTypes {
		st, err := s.CreateSymbolType(ctx, name)
		if errors.Is(err, ErrDuplicate) {
			continue
		}
		if err != nil {
			return created, err
		}
		created = append(created, *st)
	}
	return created, nil
}
