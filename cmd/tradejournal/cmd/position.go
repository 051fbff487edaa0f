package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradejournal/journal"
)

func newPositionCmd(a *app) *cobra.Command {
	positionCmd := &cobra.Command{
		Use:   "position",
		Short: "Open, modify, close and post positions",
		Long: `Track positions and post their results to the account history.

A position's result (profit + swaps - commissions) reaches the balance only
when it is posted, either with "position post" or "position close --post".

Examples:
  tradejournal position open <account-id> --symbol <symbol-id> --ticket 1001 --volume 0.1 --price 1.0850
  tradejournal position modify <position-id> --sl 1.0800 --tp 1.0950
  tradejournal position close <position-id> --price 1.0900 --profit 50 --post`,
	}

	positionCmd.AddCommand(
		newPositionOpenCmd(a),
		newPositionCloseCmd(a),
		newPositionModifyCmd(a),
		newPositionPostCmd(a),
		newPositionListCmd(a),
	)
	return positionCmd
}

func newPositionOpenCmd(a *app) *cobra.Command {
	var symbolID, volume, price, sl, tp, commissions, swaps, at string
	var ticket int64
	c := &cobra.Command{
		Use:   "open <account-id>",
		Short: "Open a position",
		Args:  cobra.ExactArgs(1),
		RunE: a.withDB(func(cmd *cobra.Command, args []string) error {
			np := journal.NewPosition{AccountID: args[0], Ticket: ticket, SymbolID: symbolID}
			var err error
			if np.Volume, err = parseDecimal("volume", volume); err != nil {
				return err
			}
			if np.OpenPrice, err = parseDecimal("price", price); err != nil {
				return err
			}
			if np.SLPrice, err = optionalDecimal("sl", sl); err != nil {
				return err
			}
			if np.TPPrice, err = optionalDecimal("tp", tp); err != nil {
				return err
			}
			if np.Commissions, err = optionalDecimal("commissions", commissions); err != nil {
				return err
			}
			if np.Swaps, err = optionalDecimal("swaps", swaps); err != nil {
				return err
			}
			if np.OpenedAt, err = parseTime(at); err != nil {
				return err
			}

			p, err := a.journal.OpenPosition(cmd.Context(), np)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Opened position %d (%s)\n", p.Ticket, p.ID)
			return nil
		}),
	}
	c.Flags().StringVar(&symbolID, "symbol", "", "symbol id (required)")
	c.Flags().Int64Var(&ticket, "ticket", 0, "broker ticket number")
	c.Flags().StringVar(&volume, "volume", "", "volume in lots (required)")
	c.Flags().StringVar(&price, "price", "", "open price (required)")
	c.Flags().StringVar(&sl, "sl", "", "stop loss price")
	c.Flags().StringVar(&tp, "tp", "", "take profit price")
	c.Flags().StringVar(&commissions, "commissions", "", "commissions charged")
	c.Flags().StringVar(&swaps, "swaps", "", "swaps accrued")
	c.Flags().StringVar(&at, "at", "", "open time (default now)")
	for _, f := range []string{"symbol", "volume", "price"} {
		_ = c.MarkFlagRequired(f)
	}
	return c
}

func newPositionCloseCmd(a *app) *cobra.Command {
	var price, profit, swaps, commissions, at string
	var manually, post, force bool
	c := &cobra.Command{
		Use:   "close <position-id>",
		Short: "Close a position, optionally posting its result",
		Args:  cobra.ExactArgs(1),
		RunE: a.withDB(func(cmd *cobra.Command, args []string) error {
			cl := journal.Close{Manually: manually}
			var err error
			if cl.Price, err = parseDecimal("price", price); err != nil {
				return err
			}
			if cl.Profit, err = parseDecimal("profit", profit); err != nil {
				return err
			}
			if cl.Swaps, err = optionalDecimal("swaps", swaps); err != nil {
				return err
			}
			if cl.Commissions, err = optionalDecimal("commissions", commissions); err != nil {
				return err
			}
			if cl.At, err = parseTime(at); err != nil {
				return err
			}

			p, err := a.journal.ClosePosition(cmd.Context(), args[0], cl)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Closed position %d, net %s\n", p.Ticket, p.NetProfit().StringFixed(2))
			if !post {
				return nil
			}
			if err := postPosition(cmd, a, p, force); err != nil {
				return fmt.Errorf("position %d stays closed but was not posted (retry with position post): %w", p.Ticket, err)
			}
			return nil
		}),
	}
	c.Flags().StringVar(&price, "price", "", "close price (required)")
	c.Flags().StringVar(&profit, "profit", "", "gross profit (required)")
	c.Flags().StringVar(&swaps, "swaps", "", "final swaps (keeps the stored value when empty)")
	c.Flags().StringVar(&commissions, "commissions", "", "final commissions (keeps the stored value when empty)")
	c.Flags().StringVar(&at, "at", "", "close time (default now)")
	c.Flags().BoolVar(&manually, "manually", false, "the position was closed by hand")
	c.Flags().BoolVar(&post, "post", false, "post the result to the account history")
	c.Flags().BoolVar(&force, "force", false, "with --post, allow a close time older than the latest history row")
	_ = c.MarkFlagRequired("price")
	_ = c.MarkFlagRequired("profit")
	return c
}

func newPositionModifyCmd(a *app) *cobra.Command {
	var sl, tp, at string
	c := &cobra.Command{
		Use:   "modify <position-id>",
		Short: "Move the stop loss and take profit of an open position",
		Args:  cobra.ExactArgs(1),
		RunE: a.withDB(func(cmd *cobra.Command, args []string) error {
			slp, err := optionalDecimal("sl", sl)
			if err != nil {
				return err
			}
			tpp, err := optionalDecimal("tp", tp)
			if err != nil {
				return err
			}
			when, err := parseTime(at)
			if err != nil {
				return err
			}
			p, err := a.journal.ModifyPosition(cmd.Context(), args[0], slp, tpp, when)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Position %d: sl %s tp %s (%d modifications)\n",
				p.Ticket, fmtDecimal(p.SLPrice), fmtDecimal(p.TPPrice), len(p.Modifications))
			return nil
		}),
	}
	c.Flags().StringVar(&sl, "sl", "", "new stop loss (empty clears it)")
	c.Flags().StringVar(&tp, "tp", "", "new take profit (empty clears it)")
	c.Flags().StringVar(&at, "at", "", "time of the change (default now)")
	return c
}

func newPositionPostCmd(a *app) *cobra.Command {
	var force bool
	c := &cobra.Command{
		Use:   "post <position-id>",
		Short: "Post a closed position's result to the account history",
		Args:  cobra.ExactArgs(1),
		RunE: a.withDB(func(cmd *cobra.Command, args []string) error {
			p, err := a.journal.GetPosition(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return postPosition(cmd, a, p, force)
		}),
	}
	c.Flags().BoolVar(&force, "force", false, "allow a close time older than the latest history row")
	return c
}

func postPosition(cmd *cobra.Command, a *app, p *journal.Position, force bool) error {
	var opts []journal.PostOption
	if force {
		opts = append(opts, journal.Force())
	}
	row, err := a.ledger.AddClosedPosition(cmd.Context(), p, opts...)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Posted position %d: %s, balance %s\n",
		p.Ticket, row.Profit.StringFixed(2), row.Balance.StringFixed(2))
	if force {
		fmt.Fprintf(out, "  run: tradejournal history recalc %s\n", p.AccountID)
	}
	return nil
}

func newPositionListCmd(a *app) *cobra.Command {
	var state string
	c := &cobra.Command{
		Use:   "list <account-id>",
		Short: "List positions of an account",
		Args:  cobra.ExactArgs(1),
		RunE: a.withDB(func(cmd *cobra.Command, args []string) error {
			f := journal.PositionFilter{AccountID: args[0]}
			switch state {
			case "all":
			case "open":
				f.State = journal.OpenPositions
			case "closed":
				f.State = journal.ClosedPositions
			default:
				return fmt.Errorf("--state must be open, closed or all")
			}
			list, err := a.journal.ListPositions(cmd.Context(), f)
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tTICKET\tVOLUME\tOPENED\tOPEN\tCLOSED\tCLOSE\tNET")
			for _, p := range list {
				net := "-"
				if p.IsClosed() {
					net = p.NetProfit().StringFixed(2)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					p.ID, strconv.FormatInt(p.Ticket, 10), p.Volume, fmtTime(&p.OpenedAt), p.OpenPrice,
					fmtTime(p.ClosedAt), fmtDecimal(p.ClosePrice), net)
			}
			return tw.Flush()
		}),
	}
	c.Flags().StringVar(&state, "state", "all", "open, closed or all")
	return c
}
