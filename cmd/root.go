package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Hawaii-Smart-Energy-Project/Smart-Energy-Kit/internal/build"
	"github.com/Hawaii-Smart-Energy-Project/Smart-Energy-Kit/internal/fault"
)

// Exit statuses.
const (
	exitError = 1
	exitFatal = 2
)

// NewRootCmd builds the sek command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sek",
		Short: "Smart Energy Kit notification history and notifier",
		Long: `Record and query notification history and send notification email.

Configuration is read from the YAML file given by --config and from
SEK_<SECTION>_<FIELD> environment variables, for example
SEK_NOTIFIER_PASSWORD or SEK_DATABASE_DRIVER.`,
		Version:       build.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config", "", "Path to the YAML configuration file")
	root.PersistentFlags().String("log-level", "", "Log level: silent, debug, info, warning, error, critical (overrides config)")
	root.PersistentFlags().Bool("testing", false, "Use the testing database and testing recipient")

	root.AddCommand(newMigrateCmd())
	root.AddCommand(newHistoryCmd())
	root.AddCommand(newNotifyCmd())
	root.AddCommand(newDBCmd())
	return root
}

// Execute runs the root command and exits with status 2 on a fatal fault
// and 1 on any other error.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitCode(err))
	}
}

// ExitCode maps an error returned by a command to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case fault.IsFatal(err):
		return exitFatal
	}
	return exitError
}
