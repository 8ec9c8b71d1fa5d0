package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewRecoverCmd creates the recover command
func NewRecoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recover",
		Short: "Process lectures left pending or processing",
		Long: `Run the crash recovery scan in the foreground and wait until every
resubmitted lecture is completed or failed. Do not run it while the API
server is processing lectures.`,
		Args: cobra.NoArgs,
		RunE: runRecover,
	}
}

func runRecover(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Queue.Start(ctx); err != nil {
		return err
	}
	defer app.Queue.Stop()

	report, err := app.Recovery.Run(ctx)
	if err != nil {
		return err
	}
	if err := app.Queue.Wait(ctx, time.Second); err != nil {
		return err
	}

	if ok, err := printJSON(cmd.OutOrStdout(), report); ok {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Resubmitted: %d\nFailed: %d\nSkipped: %d\n",
		report.Resubmitted, report.Failed, report.Skipped)
	return nil
}
