package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradejournal/market"
)

func newMarketCmd(a *app) *cobra.Command {
	marketCmd := &cobra.Command{
		Use:   "market",
		Short: "Manage markets",
	}

	addCmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a market",
		Args:  cobra.ExactArgs(1),
		RunE: a.withDB(func(cmd *cobra.Command, args []string) error {
			m, err := a.market.CreateMarket(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Added market %s (%s)\n", m.Name, m.ID)
			return nil
		}),
	}

	var search string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List markets",
		Args:  cobra.NoArgs,
		RunE: a.withDB(func(cmd *cobra.Command, args []string) error {
			list, err := a.market.ListMarkets(cmd.Context(), search)
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tNAME")
			for _, m := range list {
				fmt.Fprintf(tw, "%s\t%s\n", m.ID, m.Name)
			}
			return tw.Flush()
		}),
	}
	listCmd.Flags().StringVarP(&search, "search", "s", "", "filter by name")

	marketCmd.AddCommand(addCmd, listCmd)
	return marketCmd
}

func newBrokerCmd(a *app) *cobra.Command {
	brokerCmd := &cobra.Command{
		Use:   "broker",
		Short: "Manage brokers",
	}

	var markets []string
	addCmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a broker",
		Args:  cobra.ExactArgs(1),
		RunE: a.withDB(func(cmd *cobra.Command, args []string) error {
			b, err := a.market.CreateBroker(cmd.Context(), args[0], markets...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Added broker %s (%s)\n", b.Name, b.ID)
			return nil
		}),
	}
	addCmd.Flags().StringSliceVarP(&markets, "market", "m", nil, "market id the broker gives access to (repeatable)")

	var search string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List brokers",
		Args:  cobra.NoArgs,
		RunE: a.withDB(func(cmd *cobra.Command, args []string) error {
			list, err := a.market.ListBrokers(cmd.Context(), search)
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tNAME\tMARKETS")
			for _, b := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", b.ID, b.Name, b.MarketsNames())
			}
			return tw.Flush()
		}),
	}
	listCmd.Flags().StringVarP(&search, "search", "s", "", "filter by name")

	brokerCmd.AddCommand(addCmd, listCmd)
	return brokerCmd
}

func newSymbolTypeCmd(a *app) *cobra.Command {
	typeCmd := &cobra.Command{
		Use:   "symbol-type",
		Short: "Manage symbol types",
	}

	addCmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a symbol type",
		Args:  cobra.ExactArgs(1),
		RunE: a.withDB(func(cmd *cobra.Command, args []string) error {
			st, err := a.market.CreateSymbolType(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Added symbol type %s (%s)\n", st.Name, st.ID)
			return nil
		}),
	}

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Add the default symbol types that are missing",
		Args:  cobra.NoArgs,
		RunE: a.withDB(func(cmd *cobra.Command, args []string) error {
			added, err := a.market.Seed(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Added %d symbol types\n", len(added))
			return nil
		}),
	}

	var search string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List symbol types",
		Args:  cobra.NoArgs,
		RunE: a.withDB(func(cmd *cobra.Command, args []string) error {
			list, err := a.market.ListSymbolTypes(cmd.Context(), search)
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tNAME")
			for _, st := range list {
				fmt.Fprintf(tw, "%s\t%s\n", st.ID, st.Name)
			}
			return tw.Flush()
		}),
	}
	listCmd.Flags().StringVarP(&search, "search", "s", "", "filter by name")

	typeCmd.AddCommand(addCmd, seedCmd, listCmd)
	return typeCmd
}

func newSymbolCmd(a *app) *cobra.Command {
	symbolCmd := &cobra.Command{
		Use:   "symbol",
		Short: "Manage tradable symbols",
	}

	var typeID, marketID string
	var brokers []string
	addCmd := &cobra.Command{
		Use:   "add <code> <name>",
		Short: "Add a symbol",
		Args:  cobra.ExactArgs(2),
		RunE: a.withDB(func(cmd *cobra.Command, args []string) error {
			s, err := a.market.CreateSymbol(cmd.Context(), args[1], args[0], typeID, marketID, brokers...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Added symbol %s (%s)\n", s.Code, s.ID)
			return nil
		}),
	}
	addCmd.Flags().StringVarP(&typeID, "type", "t", "", "symbol type id (required)")
	addCmd.Flags().StringVarP(&marketID, "market", "m", "", "market id (required)")
	addCmd.Flags().StringSliceVarP(&brokers, "broker", "b", nil, "broker id offering the symbol (repeatable)")
	_ = addCmd.MarkFlagRequired("type")
	_ = addCmd.MarkFlagRequired("market")

	var f market.SymbolFilter
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List symbols",
		Args:  cobra.NoArgs,
		RunE: a.withDB(func(cmd *cobra.Command, args []string) error {
			list, err := a.market.ListSymbols(cmd.Context(), f)
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tCODE\tNAME\tBROKERS")
			for _, s := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.ID, s.Code, s.Name, s.BrokersNames())
			}
			return tw.Flush()
		}),
	}
	listCmd.Flags().StringVarP(&f.TypeID, "type", "t", "", "filter by symbol type id")
	listCmd.Flags().StringVarP(&f.MarketID, "market", "m", "", "filter by market id")
	listCmd.Flags().StringVarP(&f.Search, "search", "s", "", "filter by name or code")

	symbolCmd.AddCommand(addCmd, listCmd)
	return symbolCmd
}
