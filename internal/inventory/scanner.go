// =============================================================================
// SDI Invoice Sender - Invoice Scanner
// =============================================================================
//
// This module walks an invoice tree and collects the XML documents that follow
// the folder convention used by the billing system:
//
//   <root>/.../YYYY/YYYY-MM/<invoice>.xml
//
// Only the two innermost folders matter. Any depth, and any other folders in
// between, are allowed. Nodes that do not follow the convention are skipped
// without raising an error.
//
// YEAR RULE:
//   By default every syntactically valid YYYY folder is accepted, so invoices
//   left in last year's folder are still picked up after New Year.
//   With CurrentYearOnly the year folder must match the current calendar year.
//
// =============================================================================

package inventory

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/ginjaninja78/sdi-invoice-sender/internal/types"
)

// DocumentExt is the extension of invoice documents.
const DocumentExt = ".xml"

// Scanner builds an Inventory from a directory tree.
type Scanner struct {
	fs billy.Filesystem

	// currentYearOnly restricts year folders to the current calendar year.
	currentYearOnly bool

	// now is the clock used by the year rule.
	now func() time.Time
}

// NewScanner creates a Scanner reading from fs.
func NewScanner(fs billy.Filesystem, currentYearOnly bool) *Scanner {
	return &Scanner{
		fs:              fs,
		currentYearOnly: currentYearOnly,
		now:             time.Now,
	}
}

// WithClock replaces the clock used to determine the current year.
func (s *Scanner) WithClock(now func() time.Time) *Scanner {
	s.now = now
	return s
}

// Scan walks root and returns every invoice document found under it.
//
// RETURNS:
//   - The inventory, with records in walk order (lexical, depth first).
//   - An error if root itself cannot be read. Unreadable nodes below the
//     root are skipped.
func (s *Scanner) Scan(root string) (*Inventory, error) {
	info, err := s.fs.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read invoice root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("invoice root %s is not a directory", root)
	}

	var records []types.InvoiceRecord

	err = util.Walk(s.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}

		if info.IsDir() || !IsDocument(info.Name()) {
			return nil
		}

		dir := filepath.Dir(path)
		if !IsMonthLabel(filepath.Base(dir)) {
			return nil
		}
		if !s.acceptsYear(filepath.Base(filepath.Dir(dir))) {
			return nil
		}

		records = append(records, types.InvoiceRecord{Dir: dir, Name: info.Name()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan invoice root %s: %w", root, err)
	}

	return New(root, records), nil
}

// acceptsYear applies the year rule to the name of a month folder's parent.
func (s *Scanner) acceptsYear(name string) bool {
	year, ok := ParseYearLabel(name)
	if !ok {
		return false
	}
	if s.currentYearOnly {
		return year == s.now().Year()
	}
	return true
}

// =============================================================================
// NAMING CONVENTION
// =============================================================================

// IsDocument reports whether name ends in the invoice document extension.
// The match is case-sensitive: "a.XML" is not a document.
func IsDocument(name string) bool {
	return strings.HasSuffix(name, DocumentExt)
}

// ParseYearLabel parses a four digit year folder name such as "2024".
func ParseYearLabel(name string) (int, bool) {
	if len(name) != 4 || !allDigits(name) {
		return 0, false
	}
	year, err := strconv.Atoi(name)
	if err != nil {
		return 0, false
	}
	return year, true
}

// IsYearLabel reports whether name is a four digit year folder name.
func IsYearLabel(name string) bool {
	_, ok := ParseYearLabel(name)
	return ok
}

// IsMonthLabel reports whether name is a month folder name such as "2024-03".
func IsMonthLabel(name string) bool {
	if len(name) != 7 || name[4] != '-' {
		return false
	}
	if !IsYearLabel(name[:4]) || !allDigits(name[5:]) {
		return false
	}
	month, err := strconv.Atoi(name[5:])
	if err != nil {
		return false
	}
	return month >= 1 && month <= 12
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
