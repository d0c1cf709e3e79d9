package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Hawaii-Smart-Energy-Project/Smart-Energy-Kit/internal/storage"
)

func newDBCmd() *cobra.Command {
	db := &cobra.Command{
		Use:   "db",
		Short: "Inspect the configured database",
	}
	db.AddCommand(newDBColumnsCmd(), newDBSequenceCmd(), newDBNameCmd())
	return db
}

func newDBColumnsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "columns <table>",
		Short: "Print the column names of a table, comma separated",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, func(a *app) error {
				cols, err := a.exec.ColumnsString(cmd.Context(), storage.NewCursor(a.conn), a.connector.Dialect(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cols)
				return nil
			})
		},
	}
}

func newDBSequenceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sequence <table> <column>",
		Short: "Print the current sequence value backing table.column",
		Long: `Print the current sequence value backing table.column.

Sequence values are tracked per connection. A command session that has
not generated a value fails with a fatal error.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, func(a *app) error {
				id, err := a.exec.LastSequenceID(cmd.Context(), a.conn, a.connector.Dialect(), args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}
}

func newDBNameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "name",
		Short: "Print the name of the connected database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd, func(a *app) error {
				name, err := a.exec.DatabaseName(cmd.Context(), storage.NewCursor(a.conn), a.connector.Dialect())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), name)
				return nil
			})
		},
	}
}
