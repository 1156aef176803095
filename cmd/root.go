// =============================================================================
// SDI Invoice Sender - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (sdi-sender)
//   ├── sendCmd (sdi-sender send)
//   ├── pendingCmd (sdi-sender pending)
//   └── versionCmd (sdi-sender version)
//
// The root command owns the global flags and the shared start-up steps:
// loading config.yaml and opening the log.
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/sdi-invoice-sender/internal/config"
	"github.com/ginjaninja78/sdi-invoice-sender/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose forces debug logging regardless of log_level.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "sdi-sender",
	Short: "SDI Invoice Sender - Transmit XML e-invoices through TS Digital",
	Long: `SDI Invoice Sender finds XML invoices that the billing system has produced
but that have not been transmitted yet, submits them to the Italian SDI
through the TS Digital API, and files a copy of each sent invoice.

Both the invoice tree and the sent tree follow the layout YYYY/YYYY-MM/*.xml.
An invoice is pending when no file with the same name exists anywhere in the
sent tree.

Example Usage:
  sdi-sender send                      # Send every pending invoice
  sdi-sender send --dry-run            # List what would be sent
  sdi-sender pending                   # Same as above, one path per line
  sdi-sender send --config ./my.yaml   # Use a custom configuration file`,

	SilenceUsage: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}

// =============================================================================
// SHARED START-UP
// =============================================================================

// setup loads the configuration and opens the application log.
//
// RETURNS:
//   - The loaded configuration.
//   - A logger writing to the log file and to stderr.
//   - A closer for the log file.
//   - An error if either step fails.
func setup() (*config.MainConfig, *slog.Logger, io.Closer, error) {
	mainConfig, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load main config: %w", err)
	}

	// Paths are opened through a filesystem rooted at "/".
	if err := mainConfig.ResolvePaths(); err != nil {
		return nil, nil, nil, err
	}

	level := mainConfig.LogLevel
	if verbose {
		level = "debug"
	}

	logger, closer, err := logging.New(mainConfig.LogFile, level, os.Stderr)
	if err != nil {
		return nil, nil, nil, err
	}

	logger.Debug("configuration loaded",
		"config", cfgFile,
		"source_dir", mainConfig.SourceDir,
		"sent_dir", mainConfig.SentDir,
		"current_year_only", mainConfig.CurrentYearOnly,
	)

	return mainConfig, logger, closer, nil
}

// hostFS returns the local filesystem. Configured paths are absolute after
// setup, so the filesystem is rooted at "/".
func hostFS() billy.Filesystem {
	return osfs.New("/")
}
