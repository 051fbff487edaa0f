package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradejournal/users"
)

func newUserCmd(a *app) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	var password, name string
	var staff bool
	createCmd := &cobra.Command{
		Use:   "create <email>",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: a.withDB(func(cmd *cobra.Command, args []string) error {
			u, err := a.users.CreateUser(cmd.Context(), args[0], password, users.WithName(name), users.WithStaff(staff))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Created user %s (%s)\n", u.Email, u.ID)
			return nil
		}),
	}
	createCmd.Flags().StringVarP(&password, "password", "p", "", "password (empty leaves the account unable to log in)")
	createCmd.Flags().StringVar(&name, "name", "", "display name")
	createCmd.Flags().BoolVar(&staff, "staff", false, "mark the user as staff")

	superCmd := &cobra.Command{
		Use:   "createsuperuser <email>",
		Short: "Create a superuser",
		Args:  cobra.ExactArgs(1),
		RunE: a.withDB(func(cmd *cobra.Command, args []string) error {
			u, err := a.users.CreateSuperuser(cmd.Context(), args[0], password, users.WithName(name))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Created superuser %s (%s)\n", u.Email, u.ID)
			return nil
		}),
	}
	superCmd.Flags().StringVarP(&password, "password", "p", "", "password")
	superCmd.Flags().StringVar(&name, "name", "", "display name")
	_ = superCmd.MarkFlagRequired("password")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: a.withDB(func(cmd *cobra.Command, args []string) error {
			list, err := a.users.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tSTAFF\tSUPERUSER\tACTIVE")
			for _, u := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%t\t%t\n", u.ID, u.Email, u.Name, u.IsStaff, u.IsSuperuser, u.IsActive)
			}
			return tw.Flush()
		}),
	}

	userCmd.AddCommand(createCmd, superCmd, listCmd)
	return userCmd
}
