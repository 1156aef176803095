// =============================================================================
// SDI Invoice Sender - Sending Pipeline
// =============================================================================
//
// This module runs one reconciliation pass over the two invoice trees.
//
// PIPELINE:
//   1. Scan the source tree and the sent tree
//   2. Reconcile: invoices in source whose file name is not in sent
//   3. Log in to TS Digital (skipped when nothing is pending)
//   4. For each pending invoice, in file name order:
//      a. Extract its data and submit it
//      b. On success, copy it into the sent tree
//   5. Optionally write the XLSX report of sent invoices
//
// A failed invoice is logged and skipped; the rest of the batch continues.
// Re-running the pipeline picks up whatever was not copied to the sent tree.
//
// =============================================================================

package sender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-git/go-billy/v5"

	"github.com/ginjaninja78/sdi-invoice-sender/internal/config"
	"github.com/ginjaninja78/sdi-invoice-sender/internal/credentials"
	"github.com/ginjaninja78/sdi-invoice-sender/internal/inventory"
	"github.com/ginjaninja78/sdi-invoice-sender/internal/report"
	"github.com/ginjaninja78/sdi-invoice-sender/internal/tsdigital"
	"github.com/ginjaninja78/sdi-invoice-sender/internal/types"
	"github.com/ginjaninja78/sdi-invoice-sender/pkg/utils"
)

// ErrNotRelocated marks an invoice that was accepted by TS Digital but could
// not be copied to the sent tree. It will be submitted again on the next run.
var ErrNotRelocated = errors.New("invoice sent but not copied to the sent tree")

// =============================================================================
// RESULT STRUCTURES
// =============================================================================

// Result represents the outcome of sending a single invoice.
type Result struct {
	// Path is the invoice in the source tree.
	Path string

	// Destination is the copy in the sent tree. Empty unless Success.
	Destination string

	// Submitted is true when TS Digital accepted the invoice.
	Submitted bool

	// Success is true when the invoice was submitted and copied.
	Success bool

	// Outcome holds the data returned by TS Digital when Submitted.
	Outcome *types.Outcome

	// Error is the reason the invoice failed.
	Error error

	// Duration is the time spent on this invoice.
	Duration time.Duration
}

// Summary describes a whole run.
type Summary struct {
	StartTime time.Time
	EndTime   time.Time

	// SourceCount and SentCount are the sizes of the two inventories.
	SourceCount int
	SentCount   int

	// Pending lists the invoices that were not yet sent when the run began.
	Pending []string

	Results   []Result
	Succeeded int
	Failed    int

	// ReportFile is the XLSX report written by the run, if any.
	ReportFile string
}

// Outcomes returns the data of every invoice accepted during the run.
func (s *Summary) Outcomes() []types.Outcome {
	var out []types.Outcome
	for _, r := range s.Results {
		if r.Outcome != nil {
			out = append(out, *r.Outcome)
		}
	}
	return out
}

// =============================================================================
// PIPELINE
// =============================================================================

// Client is the part of the TS Digital client used by the pipeline.
type Client interface {
	Login(ctx context.Context, creds credentials.Credentials) (*tsdigital.Session, error)
	Submit(ctx context.Context, s *tsdigital.Session, path string) (*types.Outcome, error)
}

// CredentialsFunc supplies the login credentials. It is only called when
// there is something to send.
type CredentialsFunc func(ctx context.Context) (credentials.Credentials, error)

// Pipeline sends pending invoices.
type Pipeline struct {
	cfg     *config.MainConfig
	fs      billy.Filesystem
	scanner *inventory.Scanner
	files   *utils.FileManager
	client  Client
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a Pipeline working on fs.
func New(cfg *config.MainConfig, fs billy.Filesystem, client Client, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		fs:      fs,
		scanner: inventory.NewScanner(fs, cfg.CurrentYearOnly),
		files:   utils.NewFileManager(fs, cfg.SourceDir, cfg.SentDir),
		client:  client,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock replaces the clock used for the year rule and timestamps.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	p.scanner.WithClock(now)
	return p
}

// Pending scans both trees and returns the invoices not sent yet. A sent
// tree that does not exist yet counts as empty and is not created.
func (p *Pipeline) Pending() ([]string, error) {
	pending, _, _, err := p.reconcile(false)
	return pending, err
}

// reconcile scans both trees. With createSent a missing sent tree is created
// first; otherwise it is treated as empty.
func (p *Pipeline) reconcile(createSent bool) (pending []string, source, sent *inventory.Inventory, err error) {
	source, err = p.scanner.Scan(p.cfg.SourceDir)
	if err != nil {
		return nil, nil, nil, err
	}

	switch {
	case createSent:
		var created bool
		created, err = p.files.EnsureSentDir()
		if err != nil {
			return nil, nil, nil, err
		}
		if created {
			p.logger.Info("created sent tree", "root", p.files.SentDir)
		}
		sent, err = p.scanner.Scan(p.cfg.SentDir)
		if err != nil {
			return nil, nil, nil, err
		}
	case !utils.FileExists(p.fs, p.cfg.SentDir):
		p.logger.Warn("sent tree does not exist yet", "root", p.cfg.SentDir)
		sent = inventory.New(p.cfg.SentDir, nil)
	default:
		sent, err = p.scanner.Scan(p.cfg.SentDir)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	for _, inv := range []*inventory.Inventory{source, sent} {
		for _, name := range inv.Duplicates() {
			first, _ := inv.FullPath(name)
			p.logger.Warn("invoice file name appears more than once; using the first",
				"root", inv.Root, "name", name, "using", first)
		}
	}

	return inventory.Unsent(source, sent), source, sent, nil
}

// Run sends every pending invoice.
//
// A missing sent tree is created before scanning.
//
// RETURNS:
//   - The run summary. Individual invoice failures are reported in it.
//   - An error if the trees cannot be scanned, credentials cannot be
//     loaded, or login fails; the summary is nil then.
//   - The context error if ctx is cancelled mid-batch. The summary is still
//     returned, holding the invoices handled so far, and the report is
//     written for them.
func (p *Pipeline) Run(ctx context.Context, loadCredentials CredentialsFunc) (*Summary, error) {
	summary := &Summary{StartTime: p.now()}

	// =========================================================================
	// STEP 1: RECONCILE
	// =========================================================================

	pending, source, sent, err := p.reconcile(true)
	if err != nil {
		return nil, err
	}
	summary.SourceCount = source.Len()
	summary.SentCount = sent.Len()
	summary.Pending = pending

	p.logger.Info("invoices reconciled",
		"source", source.Len(), "sent", sent.Len(), "pending", len(pending))

	if len(pending) == 0 {
		summary.EndTime = p.now()
		return summary, nil
	}

	// =========================================================================
	// STEP 2: LOG IN
	// =========================================================================

	creds, err := loadCredentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	session, err := p.client.Login(ctx, creds)
	if err != nil {
		return nil, err
	}

	// =========================================================================
	// STEP 3: SUBMIT AND RELOCATE
	// =========================================================================

	var runErr error
	for _, path := range pending {
		if runErr = ctx.Err(); runErr != nil {
			p.logger.Warn("run cancelled", "remaining", len(pending)-len(summary.Results))
			break
		}

		result := p.send(ctx, session, path)
		summary.Results = append(summary.Results, result)
		if result.Success {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}

	summary.EndTime = p.now()

	// =========================================================================
	// STEP 4: REPORT
	// =========================================================================

	if outcomes := summary.Outcomes(); p.cfg.ReportFile != "" && len(outcomes) > 0 {
		if err := report.Write(p.fs, p.cfg.ReportFile, outcomes, summary.EndTime); err != nil {
			p.logger.Error("failed to write report", "file", p.cfg.ReportFile, "error", err)
		} else {
			summary.ReportFile = p.cfg.ReportFile
		}
	}

	p.logger.Info("run complete",
		"succeeded", summary.Succeeded, "failed", summary.Failed,
		"elapsed", summary.EndTime.Sub(summary.StartTime))

	return summary, runErr
}

// send submits and relocates one invoice.
func (p *Pipeline) send(ctx context.Context, session *tsdigital.Session, path string) Result {
	start := p.now()
	result := Result{Path: path}

	outcome, err := p.client.Submit(ctx, session, path)
	if err != nil {
		p.logger.Error("invoice not sent", "file", path, "error", err)
		result.Error = err
		result.Duration = p.now().Sub(start)
		return result
	}
	result.Submitted = true
	result.Outcome = outcome

	dest, err := p.files.Relocate(path)
	if err != nil {
		p.logger.Error("invoice sent but not copied to the sent tree",
			"file", path, "error", err)
		result.Error = fmt.Errorf("%w: %w", ErrNotRelocated, err)
		result.Duration = p.now().Sub(start)
		return result
	}

	result.Destination = dest
	result.Success = true
	result.Duration = p.now().Sub(start)
	return result
}
