package cmd

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Hawaii-Smart-Energy-Project/Smart-Energy-Kit/internal/notice"
	"github.com/Hawaii-Smart-Energy-Project/Smart-Energy-Kit/internal/notification"
)

func newNotifyCmd() *cobra.Command {
	notify := &cobra.Command{
		Use:   "notify",
		Short: "Send notification email",
	}
	notify.AddCommand(newNotifySendCmd())
	return notify
}

func newNotifySendCmd() *cobra.Command {
	send := &cobra.Command{
		Use:   "send",
		Short: "Send a notification and record it in the history",
		Long: `Send a notification email to the configured recipient.

When --type is given the event is recorded in the notification history after
a successful send, and --min-interval skips the send if the same type was
recorded more recently than the interval.

Examples:
  sek notify send --type LowBattery --body "Battery A1 at 9%"
  sek notify send --type ExportComplete --attach export.csv --body "Export attached"
  sek notify send --type MissingReadings --min-interval 6h --body "No data from meter 12"`,
		Args: cobra.NoArgs,
		RunE: runNotifySend,
	}
	send.Flags().String("type", "", "Notice type to record after sending")
	send.Flags().String("body", "", "Message body")
	send.Flags().StringSlice("attach", nil, "File to attach (repeatable)")
	send.Flags().Duration("min-interval", 0, "Skip sending if --type was recorded within this interval")
	send.Flags().String("metrics-file", "", "Write delivery metrics in Prometheus text format to this file")
	_ = send.MarkFlagRequired("body")
	return send
}

func runNotifySend(cmd *cobra.Command, _ []string) error {
	typeName, _ := cmd.Flags().GetString("type")
	body, _ := cmd.Flags().GetString("body")
	files, _ := cmd.Flags().GetStringSlice("attach")
	minInterval, _ := cmd.Flags().GetDuration("min-interval")
	metricsFile, _ := cmd.Flags().GetString("metrics-file")

	t := notice.Unknown
	if typeName != "" {
		var err error
		if t, err = notice.Parse(typeName); err != nil {
			return err
		}
	}

	return withDB(cmd, func(a *app) (err error) {
		ctx := cmd.Context()
		reg := prometheus.NewRegistry()
		if metricsFile != "" {
			defer func() {
				if werr := prometheus.WriteToTextfile(metricsFile, reg); werr != nil && err == nil {
					err = fmt.Errorf("writing metrics: %w", werr)
				}
			}()
		}
		n, err := notification.New(a.cfg.Notifier, a.store(),
			notification.WithLogger(a.log.With("component", "notifier")),
			notification.WithMetrics(notification.NewMetrics(reg)),
		)
		if err != nil {
			return err
		}

		if t != notice.Unknown && minInterval > 0 {
			due, err := n.ShouldNotify(ctx, t, minInterval)
			if err != nil {
				return err
			}
			if !due {
				fmt.Fprintf(cmd.OutOrStdout(), "skipped %s: sent within the last %s\n", t, minInterval)
				return nil
			}
		}

		return send(cmd, n, t, body, files, a.testing)
	})
}

func send(cmd *cobra.Command, n *notification.Notifier, t notice.Type, body string, files []string, testing bool) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if len(files) == 0 && t != notice.Unknown {
		if _, err := n.Notify(ctx, t, body, testing); err != nil {
			return err
		}
		fmt.Fprintf(out, "sent and recorded %s\n", t)
		return nil
	}

	var err error
	if len(files) == 0 {
		err = n.SendNotificationEmail(ctx, body, testing)
	} else {
		err = n.SendMailWithAttachments(ctx, body, files, testing)
	}
	if err != nil {
		return err
	}
	if t == notice.Unknown {
		fmt.Fprintln(out, "sent")
		return nil
	}

	if _, err := n.RecordEvent(ctx, t); err != nil {
		return err
	}
	fmt.Fprintf(out, "sent and recorded %s\n", t)
	return nil
}
