package market

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rustyeddy/tradejournal/internal/db"
	"github.com/rustyeddy/tradejournal/pkg/id"
)

// Store persists reference data in the journal database.
type Store struct {
	db *sqlx.DB
}

func NewStore(conn *sqlx.DB) *Store {
	return &Store{db: conn}
}

func mapErr(what string, err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	case db.IsUniqueViolation(err):
		return fmt.Errorf("%s: %w", what, ErrDuplicate)
	case db.IsForeignKeyViolation(err):
		return fmt.Errorf("%s: referenced record %w", what, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// CreateMarket stores a new market.
func (s *Store) CreateMarket(ctx context.Context, name string) (*Market, error) {
	if err := checkName("market name", name, maxMarketName); err != nil {
		return nil, err
	}
	m := &Market{ID: id.New(), Name: name}
	if _, err := s.db.NamedExecContext(ctx, `INSERT INTO markets (id, name) VALUES (:id, :name)`, m); err != nil {
		return nil, mapErr("create market", err)
	}
	return m, nil
}

func (s *Store) GetMarket(ctx context.Context, marketID string) (*Market, error) {
	var m Market
	if err := s.db.GetContext(ctx, &m, `SELECT id, name FROM markets WHERE id = ?`, marketID); err != nil {
		return nil, mapErr("market "+marketID, err)
	}
	return &m, nil
}

// ListMarkets returns markets whose name contains search, ordered by name.
func (s *Store) ListMarkets(ctx context.Context, search string) ([]Market, error) {
	out := []Market{}
	err := s.db.SelectContext(ctx, &out, `
		SELECT id, name FROM markets
		WHERE name LIKE '%' || ? || '%'
		ORDER BY name, id`, search)
	if err != nil {
		return nil, mapErr("list markets", err)
	}
	return out, nil
}

// CreateBroker stores a broker and links it to the given markets.
func (s *Store) CreateBroker(ctx context.Context, name string, marketIDs ...string) (*Broker, error) {
	if err := checkName("broker name", name, maxBrokerName); err != nil {
		return nil, err
	}
	b := &Broker{ID: id.New(), Name: name}

	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO brokers (id, name) VALUES (:id, :name)`, b); err != nil {
			return err
		}
		return linkBrokerMarkets(ctx, tx, b.ID, marketIDs)
	})
	if err != nil {
		return nil, mapErr("create broker", err)
	}
	return s.GetBroker(ctx, b.ID)
}

// SetBrokerMarkets replaces the markets a broker is linked to.
func (s *Store) SetBrokerMarkets(ctx context.Context, brokerID string, marketIDs ...string) error {
	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var exists int
		if err := tx.GetContext(ctx, &exists, `SELECT 1 FROM brokers WHERE id = ?`, brokerID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM broker_markets WHERE broker_id = ?`, brokerID); err != nil {
			return err
		}
		return linkBrokerMarkets(ctx, tx, brokerID, marketIDs)
	})
	if err != nil {
		return mapErr("broker "+brokerID, err)
	}
	return nil
}

func linkBrokerMarkets(ctx context.Context, tx *sqlx.Tx, brokerID string, marketIDs []string) error {
	for _, mid := range marketIDs {
		_, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO broker_markets (broker_id, market_id) VALUES (?, ?)`, brokerID, mid)
		if err != nil {
			return err
		}
	}
	return nil
}

// GetBroker returns a broker with its markets loaded.
func (s *Store) GetBroker(ctx context.Context, brokerID string) (*Broker, error) {
	var b Broker
	if err := s.db.GetContext(ctx, &b, `SELECT id, name FROM brokers WHERE id = ?`, brokerID); err != nil {
		return nil, mapErr("broker "+brokerID, err)
	}
	if err := s.loadBrokerMarkets(ctx, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// ListBrokers returns brokers whose name contains search, with their markets.
func (s *Store) ListBrokers(ctx context.Context, search string) ([]Broker, error) {
	out := []Broker{}
	err := s.db.SelectContext(ctx, &out, `
		SELECT id, name FROM brokers
		WHERE name LIKE '%' || ? || '%'
		ORDER BY name, id`, search)
	if err != nil {
		return nil, mapErr("list brokers", err)
	}
	for i := range out {
		if err := s.loadBrokerMarkets(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) loadBrokerMarkets(ctx context.Context, b *Broker) error {
	b.Markets = []Market{}
	err := s.db.SelectContext(ctx, &b.Markets, `
		SELECT m.id, m.name FROM markets m
		JOIN broker_markets bm ON bm.market_id = m.id
		WHERE bm.broker_id = ?
		ORDER BY m.id`, b.ID)
	if err != nil {
		return mapErr("markets of broker "+b.ID, err)
	}
	return nil
}

// CreateSymbolType stores a new symbol type. Names are unique.
func (s *Store) CreateSymbolType(ctx context.Context, name string) (*SymbolType, error) {
	if err := checkName("symbol type name", name, maxSymbolTypeName); err != nil {
		return nil, err
	}
	st := &SymbolType{ID: id.New(), Name: name}
	if _, err := s.db.NamedExecContext(ctx, `INSERT INTO symbol_types (id, name) VALUES (:id, :name)`, st); err != nil {
		return nil, mapErr("create symbol type "+name, err)
	}
	return st, nil
}

// ListSymbolTypes returns symbol types whose name contains search.
func (s *Store) ListSymbolTypes(ctx context.Context, search string) ([]SymbolType, error) {
	out := []SymbolType{}
	err := s.db.SelectContext(ctx, &out, `
		SELECT id, name FROM symbol_types
		WHERE name LIKE '%' || ? || '%'
		ORDER BY name`, search)
	if err != nil {
		return nil, mapErr("list symbol types", err)
	}
	return out, nil
}

// CreateSymbol stores a symbol and links it to the given brokers. The pair
// (code, market) must be unique.
func (s *Store) CreateSymbol(ctx context.Context, name, code, typeID, marketID string, brokerIDs ...string) (*Symbol, error) {
	if err := checkName("symbol name", name, maxSymbolName); err != nil {
		return nil, err
	}
	if err := checkName("symbol code", code, maxSymbolCode); err != nil {
		return nil, err
	}
	sym := &Symbol{ID: id.New(), Name: name, Code: code, TypeID: typeID, MarketID: marketID}

	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO symbols (id, name, code, type_id, market_id)
			VALUES (:id, :name, :code, :type_id, :market_id)`, sym)
		if err != nil {
			return err
		}
		return linkSymbolBrokers(ctx, tx, sym.ID, brokerIDs)
	})
	if err != nil {
		return nil, mapErr("create symbol "+code, err)
	}
	return s.GetSymbol(ctx, sym.ID)
}

// SetSymbolBrokers replaces the brokers offering a symbol.
func (s *Store) SetSymbolBrokers(ctx context.Context, symbolID string, brokerIDs ...string) error {
	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var exists int
		if err := tx.GetContext(ctx, &exists, `SELECT 1 FROM symbols WHERE id = ?`, symbolID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM symbol_brokers WHERE symbol_id = ?`, symbolID); err != nil {
			return err
		}
		return linkSymbolBrokers(ctx, tx, symbolID, brokerIDs)
	})
	if err != nil {
		return mapErr("symbol "+symbolID, err)
	}
	return nil
}

func linkSymbolBrokers(ctx context.Context, tx *sqlx.Tx, symbolID string, brokerIDs []string) error {
	for _, bid := range brokerIDs {
		_, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO symbol_brokers (symbol_id, broker_id) VALUES (?, ?)`, symbolID, bid)
		if err != nil {
			return err
		}
	}
	return nil
}

// GetSymbol returns a symbol with its brokers loaded.
func (s *Store) GetSymbol(ctx context.Context, symbolID string) (*Symbol, error) {
	var sym Symbol
	err := s.db.GetContext(ctx, &sym, `SELECT id, name, code, type_id, market_id FROM symbols WHERE id = ?`, symbolID)
	if err != nil {
		return nil, mapErr("symbol "+symbolID, err)
	}
	if err := s.loadSymbolBrokers(ctx, &sym); err != nil {
		return nil, err
	}
	return &sym, nil
}

// ListSymbols returns symbols matching f ordered by code.
func (s *Store) ListSymbols(ctx context.Context, f SymbolFilter) ([]Symbol, error) {
	out := []Symbol{}
	err := s.db.SelectContext(ctx, &out, `
		SELECT id, name, code, type_id, market_id FROM symbols
		WHERE (? = '' OR type_id = ?)
		  AND (? = '' OR market_id = ?)
		  AND (name LIKE '%' || ? || '%' OR code LIKE '%' || ? || '%')
		ORDER BY code, id`,
		f.TypeID, f.TypeID, f.MarketID, f.MarketID, f.Search, f.Search)
	if err != nil {
		return nil, mapErr("list symbols", err)
	}
	for i := range out {
		if err := s.loadSymbolBrokers(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) loadSymbolBrokers(ctx context.Context, sym *Symbol) error {
	sym.Brokers = []Broker{}
	err := s.db.SelectContext(ctx, &sym.Brokers, `
		SELECT b.id, b.name FROM brokers b
		JOIN symbol_brokers sb ON sb.broker_id = b.id
		WHERE sb.symbol_id = ?
		ORDER BY b.id`, sym.ID)
	if err != nil {
		return mapErr("brokers of symbol "+sym.ID, err)
	}
	return nil
}
