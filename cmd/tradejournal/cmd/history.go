package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradejournal/journal"
)

func newHistoryCmd(a *app) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Post and inspect account history",
		Long: `Post deposits, withdrawals and dividends, list and export the
history of an account, and rebuild its balances.

Rows must be posted in time order. --force allows a row older than the
latest one; run "history recalc" afterwards to fix the rows after it.

Examples:
  tradejournal history deposit <account-id> 1000
  tradejournal history withdraw <account-id> 250 --at 2024-01-15
  tradejournal history dividend <account-id> 12.40 --at 2023-12-01 --force
  tradejournal history recalc <account-id>
  tradejournal history export <account-id> --format csv -o history.csv`,
	}

	historyCmd.AddCommand(
		newPostRowCmd(a, "deposit", journal.Deposit, false),
		newPostRowCmd(a, "withdraw", journal.Withdrawal, true),
		newPostRowCmd(a, "dividend", journal.Dividends, false),
		newHistoryListCmd(a),
		newRecalcCmd(a),
		newExportCmd(a),
	)
	return historyCmd
}

// newPostRowCmd builds deposit/withdraw/dividend. Amounts are given as
// positive numbers; withdrawals are stored negative.
func newPostRowCmd(a *app, use string, op journal.Operation, negate bool) *cobra.Command {
	var at string
	var force bool
	c := &cobra.Command{
		Use:   use + " <account-id> <amount>",
		Short: "Post a " + op.String() + " row",
		Args:  cobra.ExactArgs(2),
		RunE: a.withDB(func(cmd *cobra.Command, args []string) error {
			amount, err := parseDecimal("amount", args[1])
			if err != nil {
				return err
			}
			if negate {
				amount = amount.Abs().Neg()
			}
			when, err := parseTime(at)
			if err != nil {
				return err
			}

			acct, err := a.journal.GetAccount(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			opts := []journal.PostOption{journal.At(when)}
			if force {
				opts = append(opts, journal.Force())
			}
			row, err := a.ledger.AddRow(cmd.Context(), acct, amount, op, opts...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s %s, balance %s %s\n",
				op, row.Profit.StringFixed(2), row.Balance.StringFixed(2), acct.Currency)
			if force {
				fmt.Fprintf(cmd.OutOrStdout(), "  run: tradejournal history recalc %s\n", acct.ID)
			}
			return nil
		}),
	}
	c.Flags().StringVar(&at, "at", "", "event time (default now)")
	c.Flags().BoolVar(&force, "force", false, "allow a row older than the latest one")
	return c
}

func newHistoryListCmd(a *app) *cobra.Command {
	var opName, from, to string
	c := &cobra.Command{
		Use:   "list <account-id>",
		Short: "List history rows in ledger order",
		Args:  cobra.ExactArgs(1),
		RunE: a.withDB(func(cmd *cobra.Command, args []string) error {
			f, err := historyFilter(args[0], opName, from, to)
			if err != nil {
				return err
			}
			rows, err := a.journal.ListHistory(cmd.Context(), f)
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "TIME\tOPERATION\tPROFIT\tBALANCE\tPOSITION")
			for _, r := range rows {
				pos := "-"
				if r.PositionID != nil {
					pos = *r.PositionID
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					fmtTime(&r.CreatedAt), r.Operation, r.Profit.StringFixed(2), r.Balance.StringFixed(2), pos)
			}
			return tw.Flush()
		}),
	}
	c.Flags().StringVar(&opName, "op", "", "only this operation (deposit, withdrawal, dividends, position_close)")
	c.Flags().StringVar(&from, "from", "", "rows at or after this time")
	c.Flags().StringVar(&to, "to", "", "rows before this time")
	return c
}

func historyFilter(accountID, opName, from, to string) (journal.HistoryFilter, error) {
	f := journal.HistoryFilter{AccountID: accountID}
	if opName != "" {
		op, err := journal.ParseOperation(opName)
		if err != nil {
			return f, err
		}
		f.Operation = op
	}
	var err error
	if f.From, err = parseTime(from); err != nil {
		return f, err
	}
	if f.To, err = parseTime(to); err != nil {
		return f, err
	}
	return f, nil
}

func newRecalcCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "recalc <account-id>",
		Short: "Rebuild every running balance of an account",
		Args:  cobra.ExactArgs(1),
		RunE: a.withDB(func(cmd *cobra.Command, args []string) error {
			acct, err := a.journal.GetAccount(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			before := acct.Balance
			bal, err := a.ledger.RecalculateBalance(cmd.Context(), acct)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Balance %s %s (was %s)\n",
				bal.StringFixed(2), acct.Currency, before.StringFixed(2))
			return nil
		}),
	}
}

func newExportCmd(a *app) *cobra.Command {
	var format, output, from, to string
	c := &cobra.Command{
		Use:   "export <account-id>",
		Short: "Export the history of an account as CSV or an Org statement",
		Args:  cobra.ExactArgs(1),
		RunE: a.withDB(func(cmd *cobra.Command, args []string) (err error) {
			acct, err := a.journal.GetAccount(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			f, err := historyFilter(acct.ID, "", from, to)
			if err != nil {
				return err
			}
			rows, err := a.journal.ListHistory(cmd.Context(), f)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				file, ferr := os.Create(output)
				if ferr != nil {
					return fmt.Errorf("create %s: %w", output, ferr)
				}
				defer func() {
					if cerr := file.Close(); err == nil {
						err = cerr
					}
				}()
				w = file
			}

			switch format {
			case "csv":
				cw, err := journal.NewHistoryCSV(w)
				if err != nil {
					return err
				}
				return cw.WriteAll(rows)
			case "org":
				_, err := io.WriteString(w, journal.FormatStatementOrg(*acct, rows))
				return err
			}
			return fmt.Errorf("unknown format %q (csv or org)", format)
		}),
	}
	c.Flags().StringVar(&format, "format", "csv", "csv or org")
	c.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	c.Flags().StringVar(&from, "from", "", "rows at or after this time")
	c.Flags().StringVar(&to, "to", "", "rows before this time")
	return c
}
