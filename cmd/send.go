// =============================================================================
// SDI Invoice Sender - Send Command
// =============================================================================
//
// This file defines the 'send' command, the main command of the tool.
//
// COMMAND USAGE:
//   sdi-sender send [flags]
//
// FLAGS:
//   --dry-run     : List the pending invoices without logging in or sending
//
// PROCESSING PIPELINE:
//   1. Load configuration and open the log
//   2. Reconcile the invoice tree against the sent tree
//   3. Load credentials and log in (only if something is pending)
//   4. Submit each pending invoice and copy it to the sent tree
//   5. Print the summary
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/sdi-invoice-sender/internal/credentials"
	"github.com/ginjaninja78/sdi-invoice-sender/internal/sender"
	"github.com/ginjaninja78/sdi-invoice-sender/internal/tsdigital"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// dryRun lists pending invoices without contacting TS Digital.
var dryRun bool

// =============================================================================
// SEND COMMAND DEFINITION
// =============================================================================

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send pending invoices to the SDI",
	Long: `The send command compares the invoice tree with the sent tree and submits
every invoice that has not been sent yet.

Invoices are processed one at a time, in file name order. Each one is first
run through TS Digital's data extraction, then submitted.

On success:
  - The invoice is copied into the sent tree, at the same relative path
  - The source file is left where it is

On error:
  - The error is written to the log
  - The invoice stays pending and is retried on the next run
  - Processing continues with the next invoice

A login failure stops the run before anything is submitted.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return runSend(ctx)
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"List pending invoices without sending them",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runSend(ctx context.Context) error {
	mainConfig, logger, closer, err := setup()
	if err != nil {
		return err
	}
	defer closer.Close()

	fs := hostFS()
	client := tsdigital.New(mainConfig.API, fs, logger)
	pipeline := sender.New(mainConfig, fs, client, logger)

	fmt.Println("=== SDI Invoice Sender ===")

	if dryRun {
		pending, err := pipeline.Pending()
		if err != nil {
			return err
		}
		fmt.Printf("%d invoice(s) pending (dry run, nothing sent)\n", len(pending))
		for _, path := range pending {
			fmt.Printf("  • %s\n", path)
		}
		return nil
	}

	summary, err := pipeline.Run(ctx, func(ctx context.Context) (credentials.Credentials, error) {
		return credentials.Load(ctx, mainConfig.Credentials)
	})
	if summary == nil {
		logger.Error("run aborted", "error", err)
		return err
	}
	if err != nil {
		logger.Error("run interrupted", "error", err)
	}

	// =========================================================================
	// PRINT SUMMARY
	// =========================================================================

	printSummary(summary, mainConfig.LogFile)
	return err
}

func printSummary(summary *sender.Summary, logFile string) {
	if len(summary.Pending) == 0 {
		fmt.Println("No invoices to send.")
		return
	}

	for _, result := range summary.Results {
		name := filepath.Base(result.Path)
		if result.Success {
			fmt.Printf("  ✓ %s -> %s\n", name, result.Destination)
		} else {
			fmt.Printf("  ✗ %s: %v\n", name, result.Error)
		}
	}

	fmt.Println("\n=== Sending Complete ===")
	fmt.Printf("Invoices found:  %d\n", summary.SourceCount)
	fmt.Printf("Already sent:    %d\n", summary.SentCount)
	fmt.Printf("Pending:         %d\n", len(summary.Pending))
	fmt.Printf("Sent:            %d\n", summary.Succeeded)
	fmt.Printf("Errors:          %d\n", summary.Failed)
	fmt.Printf("Time elapsed:    %s\n", summary.EndTime.Sub(summary.StartTime))
	if summary.ReportFile != "" {
		fmt.Printf("Report:          %s\n", summary.ReportFile)
	}

	if unsent := len(summary.Pending) - len(summary.Results); unsent > 0 {
		fmt.Printf("Not attempted:   %d\n", unsent)
	}

	if summary.Failed > 0 {
		fmt.Printf("\nErrors have been logged to %s.\n", logFile)
	}
}
