// =============================================================================
// SDI Invoice Sender - Pending Command
// =============================================================================
//
// This file defines the 'pending' command, which prints the invoices that
// would be sent by 'send', one full path per line. Nothing is contacted and
// nothing is written apart from the log.
//
// COMMAND USAGE:
//   sdi-sender pending
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/sdi-invoice-sender/internal/sender"
)

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List invoices not sent yet",
	RunE: func(cmd *cobra.Command, args []string) error {
		mainConfig, logger, closer, err := setup()
		if err != nil {
			return err
		}
		defer closer.Close()

		pending, err := sender.New(mainConfig, hostFS(), nil, logger).Pending()
		if err != nil {
			return err
		}

		for _, path := range pending {
			fmt.Fprintln(cmd.OutOrStdout(), path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pendingCmd)
}
