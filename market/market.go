// Package market holds the reference data journal positions point at:
// markets, the brokers that give access to them, and tradable symbols.
package market

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
	ErrInvalid   = errors.New("invalid reference data")
)

// Market is a venue such as an exchange or the interbank FX market.
type Market struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

func (m Market) String() string { return m.Name }

// Broker gives access to zero or more markets.
type Broker struct {
	ID      string   `db:"id" json:"id"`
	Name    string   `db:"name" json:"name"`
	Markets []Market `db:"-" json:"markets"`
}

func (b Broker) String() string { return b.Name }

// MarketsNames joins the names of the broker's markets with ", ".
func (b Broker) MarketsNames() string {
	names := make([]string, 0, len(b.Markets))
	for _, m := range b.Markets {
		names = append(names, m.Name)
	}
	return strings.Join(names, ", ")
}

// SymbolType classifies symbols (stock, forex pair, index...). Names are unique.
type SymbolType struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

func (t SymbolType) String() string { return t.Name }

// Symbol is a tradable instrument. Code is unique within a market.
type Symbol struct {
	ID       string   `db:"id" json:"id"`
	Name     string   `db:"name" json:"name"`
	Code     string   `db:"code" json:"code"`
	TypeID   string   `db:"type_id" json:"type_id"`
	MarketID string   `db:"market_id" json:"market_id"`
	Brokers  []Broker `db:"-" json:"brokers"`
}

func (s Symbol) String() string { return s.Name }

// BrokersNames joins the names of the brokers offering the symbol with ", ".
func (s Symbol) BrokersNames() string {
	names := make([]string, 0, len(s.Brokers))
	for _, b := range s.Brokers {
		names = append(names, b.Name)
	}
	return strings.Join(names, ", ")
}

// SymbolFilter narrows ListSymbols. Empty fields match everything; Search
// matches name or code.
type SymbolFilter struct {
	TypeID   string
	MarketID string
	Search   string
}

const (
	maxMarketName     = 50
	maxBrokerName     = 300
	maxSymbolTypeName = 50
	maxSymbolName     = 300
	maxSymbolCode     = 15
)

func checkName(field, v string, max int) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalid, field)
	}
	if len([]rune(v)) > max {
		return fmt.Errorf("%w: %s longer than %d characters", ErrInvalid, field, max)
	}
	return nil
}
