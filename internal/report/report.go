// =============================================================================
// SDI Invoice Sender - XLSX Run Report
// =============================================================================
//
// This module writes the invoices accepted during a run to an XLSX workbook,
// one row per invoice, for the accounting office.
//
// REPORT STRUCTURE:
//
//   | Sent At | File | Submission Name | Sender | Recipient | Recipient ID | Invoice Number | Invoice Date | Format |
//   |---------|------|-----------------|--------|-----------|--------------|----------------|--------------|--------|
//
// =============================================================================

package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/sdi-invoice-sender/internal/types"
)

// SheetName is the worksheet holding the report rows.
const SheetName = "Sent"

// Header is the first row of the report.
var Header = []any{
	"Sent At",
	"File",
	"Submission Name",
	"Sender",
	"Recipient",
	"Recipient ID",
	"Invoice Number",
	"Invoice Date",
	"Format",
}

// Write saves outcomes to path on fs as an XLSX workbook, replacing any
// existing file.
func Write(fs billy.Filesystem, path string, outcomes []types.Outcome, sentAt time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name report sheet: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &Header); err != nil {
		return fmt.Errorf("failed to write report header: %w", err)
	}

	stamp := sentAt.Format("2006-01-02 15:04:05")
	for i, o := range outcomes {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			stamp,
			o.Path,
			o.Name,
			o.SenderName,
			o.RecipientName,
			o.RecipientID,
			o.InvoiceNumber,
			o.InvoiceDate,
			o.TransmissionFormat,
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write report row %d: %w", i+2, err)
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	out, err := fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}

	if err := f.Write(out); err != nil {
		out.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}

	return out.Close()
}
