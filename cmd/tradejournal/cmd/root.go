package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradejournal/config"
	"github.com/rustyeddy/tradejournal/internal/db"
	"github.com/rustyeddy/tradejournal/internal/logging"
	"github.com/rustyeddy/tradejournal/internal/metrics"
	"github.com/rustyeddy/tradejournal/journal"
	"github.com/rustyeddy/tradejournal/market"
	"github.com/rustyeddy/tradejournal/users"
)

const defaultConfigFile = "tradejournal.yaml"

type globalFlags struct {
	configPath string
	dbPath     string
	logLevel   string
	noColor    bool
}

// app carries what every command needs. The database is opened on first use.
type app struct {
	flags   globalFlags
	cfg     *config.Config
	log     zerolog.Logger
	conn    *sqlx.DB
	users   *users.Manager
	market  *market.Store
	journal *journal.Store
	ledger  *journal.Ledger
	metrics *metrics.Ledger
}

// NewRootCmd builds the full command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "tradejournal",
		Short: "A trading journal with a per-account balance ledger",
		Long: `Tradejournal records trading accounts, their positions and every
balance-affecting event (deposits, withdrawals, dividends, closed positions)
in a SQLite database, keeping a running balance per account.

It provides tools for:
  - Managing users, brokers, markets and symbols
  - Opening, modifying and closing positions
  - Posting account history and repairing balances
  - Exporting history as CSV or Org-mode statements
  - Serving the journal over a JSON API

Examples:
  tradejournal config init
  tradejournal account create --owner me@example.com --broker <id> --name Main
  tradejournal history deposit <account-id> 1000
  tradejournal serve`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configPath, "config", "", "config file (default ./"+defaultConfigFile+" when present)")
	pf.StringVar(&a.flags.dbPath, "db", "", "path to the SQLite database (overrides database.path)")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVar(&a.flags.noColor, "no-color", false, "disable colored log output")

	root.AddCommand(
		newConfigCmd(a),
		newUserCmd(a),
		newMarketCmd(a),
		newBrokerCmd(a),
		newSymbolTypeCmd(a),
		newSymbolCmd(a),
		newAccountCmd(a),
		newHistoryCmd(a),
		newPositionCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)
	return root
}

// Execute runs the command line.
func Execute() error {
	return NewRootCmd().Execute()
}

// setup loads the configuration and builds the logger.
func (a *app) setup() error {
	path := a.flags.configPath
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}

	a.cfg = config.Default()
	if path != "" {
		cfg, err := config.LoadFromFile(path)
		if err != nil {
			return err
		}
		a.cfg = cfg
	}
	if a.flags.dbPath != "" {
		a.cfg.Database.Path = a.flags.dbPath
	}
	if a.flags.logLevel != "" {
		a.cfg.Log.Level = a.flags.logLevel
	}
	if a.flags.noColor {
		a.cfg.Log.NoColor = true
	}

	log, err := logging.New(a.cfg.Log.Level, a.cfg.Log.NoColor)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	a.log = log
	return nil
}

// open connects to the database and builds the services.
func (a *app) open() error {
	if a.conn != nil {
		return nil
	}
	dbc, err := a.cfg.Database.DB()
	if err != nil {
		return err
	}
	conn, err := db.Open(dbc)
	if err != nil {
		return err
	}
	a.log.Debug().Str("path", dbc.Path).Msg("database opened")

	a.conn = conn
	a.metrics = metrics.NewLedger()
	a.users = users.NewManager(conn)
	a.market = market.NewStore(conn)
	a.journal = journal.NewStore(conn)
	a.ledger = journal.NewLedger(conn,
		journal.WithLogger(a.log.With().Str("component", "ledger").Logger()),
		journal.WithObserver(a.metrics),
	)
	return nil
}

func (a *app) close() error {
	if a.conn == nil {
		return nil
	}
	err := a.conn.Close()
	a.conn = nil
	return err
}

// withDB wraps a RunE so it runs with the database open.
func (a *app) withDB(run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		if err := a.open(); err != nil {
			return err
		}
		defer func() {
			if cerr := a.close(); err == nil {
				err = cerr
			}
		}()
		return run(cmd, args)
	}
}

// resolveUser accepts a user id or an email address.
func (a *app) resolveUser(cmd *cobra.Command, ref string) (*users.User, error) {
	u, err := a.users.Get(cmd.Context(), ref)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, users.ErrNotFound) {
		return nil, err
	}
	return a.users.GetByEmail(cmd.Context(), ref)
}
