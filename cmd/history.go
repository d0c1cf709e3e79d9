package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Hawaii-Smart-Energy-Project/Smart-Energy-Kit/internal/notice"
)

func newHistoryCmd() *cobra.Command {
	history := &cobra.Command{
		Use:   "history",
		Short: "Record and query the notification history",
	}
	history.AddCommand(newHistoryRecordCmd(), newHistoryLastCmd(), newHistoryListCmd())
	return history
}

func newHistoryRecordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "record <notice-type>",
		Short: "Record that a notice of the given type was sent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, _ := notice.Parse(args[0])
			return withDB(cmd, func(a *app) error {
				ok, err := a.store().RecordEvent(cmd.Context(), t, notice.All())
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("notice type %q is not recognized", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "recorded %s\n", t)
				return nil
			})
		},
	}
}

func newHistoryLastCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "last <notice-type>",
		Short: "Print the time a notice of the given type was last recorded",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, _ := notice.Parse(args[0])
			return withDB(cmd, func(a *app) error {
				last, found, err := a.store().LastReportDate(cmd.Context(), t, notice.All())
				if err != nil {
					return err
				}
				if !found {
					fmt.Fprintln(cmd.OutOrStdout(), "never")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), last.Format(time.RFC3339Nano))
				return nil
			})
		},
	}
}

func newHistoryListCmd() *cobra.Command {
	list := &cobra.Command{
		Use:   "list",
		Short: "List recorded notification events, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			typeName, _ := cmd.Flags().GetString("type")
			limit, _ := cmd.Flags().GetInt("limit")
			asJSON, _ := cmd.Flags().GetBool("json")

			t := notice.Unknown
			if typeName != "" {
				var err error
				if t, err = notice.Parse(typeName); err != nil {
					return err
				}
			}

			return withDB(cmd, func(a *app) error {
				events, err := a.store().ListEvents(cmd.Context(), t, limit)
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(events)
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "TYPE\tTIME")
				for _, e := range events {
					fmt.Fprintf(w, "%s\t%s\n", e.Type, e.Time.Format(time.RFC3339Nano))
				}
				return w.Flush()
			})
		},
	}
	list.Flags().String("type", "", "Only list events of this notice type")
	list.Flags().Int("limit", 50, "Maximum number of events to list")
	list.Flags().Bool("json", false, "Print events as JSON")
	return list
}
