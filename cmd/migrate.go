package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Hawaii-Smart-Energy-Project/Smart-Energy-Kit/internal/storage"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the notification history schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd, func(a *app) error {
				fresh, err := storage.Migrate(cmd.Context(), a.conn, a.connector.Dialect())
				if err != nil {
					return err
				}
				if fresh {
					fmt.Fprintln(cmd.OutOrStdout(), "schema created")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
				}
				return nil
			})
		},
	}
}
