package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradejournal/journal"
)

func newAccountCmd(a *app) *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Manage trading accounts",
		Long: `Create and inspect trading accounts.

Examples:
  tradejournal account create --owner me@example.com --broker <broker-id> --name Main
  tradejournal account show <account-id> --org
  tradejournal account verify <account-id>`,
	}

	var owner, brokerID, name, currency string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account with a zero balance",
		Args:  cobra.NoArgs,
		RunE: a.withDB(func(cmd *cobra.Command, args []string) error {
			u, err := a.resolveUser(cmd, owner)
			if err != nil {
				return fmt.Errorf("owner: %w", err)
			}
			if currency == "" {
				currency = a.cfg.Journal.DefaultCurrency
			}
			acct, err := a.journal.CreateAccount(cmd.Context(), journal.NewAccount{
				OwnerID:  u.ID,
				BrokerID: brokerID,
				Name:     name,
				Currency: currency,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Created account %s (%s)\n", acct.Name, acct.ID)
			return nil
		}),
	}
	createCmd.Flags().StringVar(&owner, "owner", "", "owner id or email (required)")
	createCmd.Flags().StringVar(&brokerID, "broker", "", "broker id (required)")
	createCmd.Flags().StringVar(&name, "name", "", "account name (required)")
	createCmd.Flags().StringVar(&currency, "currency", "", "3 letter currency code (default from config)")
	for _, f := range []string{"owner", "broker", "name"} {
		_ = createCmd.MarkFlagRequired(f)
	}

	var listOwner string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: a.withDB(func(cmd *cobra.Command, args []string) error {
			var f journal.AccountFilter
			if listOwner != "" {
				u, err := a.resolveUser(cmd, listOwner)
				if err != nil {
					return fmt.Errorf("owner: %w", err)
				}
				f.OwnerID = u.ID
			}
			list, err := a.journal.ListAccounts(cmd.Context(), f)
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tNAME\tBALANCE\tCURRENCY")
			for _, acct := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", acct.ID, acct.Name, acct.Balance.StringFixed(2), acct.Currency)
			}
			return tw.Flush()
		}),
	}
	listCmd.Flags().StringVar(&listOwner, "owner", "", "only accounts of this owner (id or email)")

	var org bool
	showCmd := &cobra.Command{
		Use:   "show <account-id>",
		Short: "Show an account",
		Args:  cobra.ExactArgs(1),
		RunE: a.withDB(func(cmd *cobra.Command, args []string) error {
			acct, err := a.journal.GetAccount(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if org {
				rows, err := a.journal.ListHistory(cmd.Context(), journal.HistoryFilter{AccountID: acct.ID})
				if err != nil {
					return err
				}
				fmt.Fprint(out, journal.FormatStatementOrg(*acct, rows))
				return nil
			}
			fmt.Fprintf(out, "Account:  %s\n", acct.Name)
			fmt.Fprintf(out, "ID:       %s\n", acct.ID)
			fmt.Fprintf(out, "Owner:    %s\n", acct.OwnerID)
			fmt.Fprintf(out, "Broker:   %s\n", acct.BrokerID)
			fmt.Fprintf(out, "Balance:  %s %s\n", acct.Balance.StringFixed(2), acct.Currency)
			return nil
		}),
	}
	showCmd.Flags().BoolVar(&org, "org", false, "print an Org-mode statement with the full history")

	verifyCmd := &cobra.Command{
		Use:   "verify <account-id>",
		Short: "Check the cached balance against the history",
		Args:  cobra.ExactArgs(1),
		RunE: a.withDB(func(cmd *cobra.Command, args []string) error {
			v, err := a.journal.Verify(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if v.OK() {
				fmt.Fprintf(out, "✓ Balance consistent: %s over %d rows\n", v.Expected.StringFixed(2), v.Rows)
				return nil
			}
			fmt.Fprintf(out, "✗ Balance inconsistent over %d rows\n", v.Rows)
			fmt.Fprintf(out, "  cached %s, head %s, expected %s\n",
				v.Cached.StringFixed(2), v.Head.StringFixed(2), v.Expected.StringFixed(2))
			fmt.Fprintf(out, "  %d stale rows; run: tradejournal history recalc %s\n", len(v.StaleRows), v.AccountID)
			return fmt.Errorf("account %s needs recalculation", v.AccountID)
		}),
	}

	accountCmd.AddCommand(createCmd, listCmd, showCmd, verifyCmd)
	return accountCmd
}
