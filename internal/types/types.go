// =============================================================================
// SDI Invoice Sender - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - inventory
//   - tsdigital
//   - sender
//   - report
//
// =============================================================================

package types

import "path/filepath"

// =============================================================================
// INVENTORY TYPES
// =============================================================================

// InvoiceRecord is one invoice document found by the scanner.
// Dir is the YYYY-MM folder that directly contains the file.
type InvoiceRecord struct {
	Dir  string
	Name string
}

// Path returns the full location of the document.
func (r InvoiceRecord) Path() string {
	return filepath.Join(r.Dir, r.Name)
}

// =============================================================================
// REMOTE SERVICE TYPES
// =============================================================================

// BaseInfo is the metadata the clearinghouse extracts from one XML document.
type BaseInfo struct {
	// ID echoes the id we sent for the document: the file name followed by
	// its index in the request.
	ID string `json:"id"`

	SenderName         string `json:"senderName"`
	RecipientName      string `json:"recipientName"`
	RecipientID        string `json:"recipientId"`
	InvoiceNumber      string `json:"invoiceNumber"`
	Date               string `json:"date"`
	TransmissionFormat string `json:"transmissionFormat"`

	// ErrorExtractingData is set by the service when the document could not
	// be parsed. Such entries are never returned to callers.
	ErrorExtractingData bool `json:"errorExtractingData"`
}

// Outcome describes a document that the clearinghouse accepted.
type Outcome struct {
	// Path is the source path of the submitted document.
	Path string

	// Name is the submission name sent to the service.
	Name string

	SenderName         string
	RecipientName      string
	RecipientID        string
	InvoiceNumber      string
	InvoiceDate        string
	TransmissionFormat string
}
