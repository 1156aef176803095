package inventory

import (
	"slices"

	"github.com/ginjaninja78/sdi-invoice-sender/internal/types"
)

// Inventory is the set of invoice documents found under one root.
//
// Basenames are not guaranteed to be unique across a tree. Lookups by name
// return the first record in walk order; Duplicates lists the names for
// which that tie-break was needed.
type Inventory struct {
	Root    string
	Records []types.InvoiceRecord
}

// New creates an Inventory from records in walk order.
func New(root string, records []types.InvoiceRecord) *Inventory {
	return &Inventory{Root: root, Records: records}
}

// Len returns the number of records, duplicates included.
func (inv *Inventory) Len() int {
	return len(inv.Records)
}

// Basenames returns the set of document file names.
func (inv *Inventory) Basenames() map[string]struct{} {
	names := make(map[string]struct{}, len(inv.Records))
	for _, r := range inv.Records {
		names[r.Name] = struct{}{}
	}
	return names
}

// FullPath returns the location of the first document named name.
func (inv *Inventory) FullPath(name string) (string, bool) {
	for _, r := range inv.Records {
		if r.Name == name {
			return r.Path(), true
		}
	}
	return "", false
}

// Duplicates returns, sorted, every file name that appears more than once.
func (inv *Inventory) Duplicates() []string {
	seen := make(map[string]int, len(inv.Records))
	for _, r := range inv.Records {
		seen[r.Name]++
	}

	var dups []string
	for name, n := range seen {
		if n > 1 {
			dups = append(dups, name)
		}
	}
	slices.Sort(dups)
	return dups
}
