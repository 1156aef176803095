// =============================================================================
// SDI Invoice Sender - Main Entry Point
// =============================================================================
//
// This is the main entry point for the SDI Invoice Sender CLI application.
// It hands control to the Cobra commands in the cmd package.
//
// USAGE:
//   sdi-sender send          - Send every invoice not sent yet
//   sdi-sender pending       - List invoices not sent yet
//   sdi-sender version       - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Scanning, reconciliation, TS Digital client, pipeline
//   - pkg/           : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/sdi-invoice-sender/cmd"
)

func main() {
	cmd.Execute()
}
