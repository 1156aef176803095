package inventory

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/sdi-invoice-sender/internal/types"
)

func writeFiles(t *testing.T, fs billy.Filesystem, paths ...string) {
	t.Helper()
	for _, p := range paths {
		require.NoError(t, fs.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, util.WriteFile(fs, p, []byte("<FatturaElettronica/>"), 0o644))
	}
}

func fixedClock(year int) func() time.Time {
	return func() time.Time {
		return time.Date(year, time.June, 1, 0, 0, 0, 0, time.UTC)
	}
}

func TestScan(t *testing.T) {
	fs := memfs.New()
	writeFiles(t, fs,
		"/src/2024/2024-03/inv1.xml",
		"/src/2024/2024-03/inv2.XML",
		"/src/2024/2024-03/notes.txt",
		"/src/2024/2024-03/sub/nested.xml",
		"/src/2024/2024-13/bad-month.xml",
		"/src/2024/march/named-month.xml",
		"/src/2024/loose.xml",
		"/src/abcd/2024-03/bad-year.xml",
		"/src/top.xml",
		"/src/archive/old/2023/2023-12/deep.xml",
	)

	tests := []struct {
		name            string
		currentYearOnly bool
		want            []string
	}{
		{
			name: "any year",
			want: []string{
				"/src/2024/2024-03/inv1.xml",
				"/src/archive/old/2023/2023-12/deep.xml",
			},
		},
		{
			name:            "current year only",
			currentYearOnly: true,
			want: []string{
				"/src/2024/2024-03/inv1.xml",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, err := NewScanner(fs, tt.currentYearOnly).WithClock(fixedClock(2024)).Scan("/src")
			require.NoError(t, err)

			var got []string
			for _, r := range inv.Records {
				got = append(got, r.Path())
			}
			assert.ElementsMatch(t, tt.want, got)
			assert.Equal(t, "/src", inv.Root)
		})
	}
}

func TestScanRootIsMonthFolder(t *testing.T) {
	fs := memfs.New()
	writeFiles(t, fs, "/data/2025/2025-01/a.xml")

	inv, err := NewScanner(fs, false).Scan("/data/2025/2025-01")
	require.NoError(t, err)
	require.Equal(t, 1, inv.Len())
	assert.Equal(t, "a.xml", inv.Records[0].Name)
}

func TestScanMissingRoot(t *testing.T) {
	_, err := NewScanner(memfs.New(), false).Scan("/nope")
	require.Error(t, err)
}

func TestScanRootIsFile(t *testing.T) {
	fs := memfs.New()
	writeFiles(t, fs, "/file.xml")

	_, err := NewScanner(fs, false).Scan("/file.xml")
	require.Error(t, err)
}

func TestLabels(t *testing.T) {
	years := map[string]bool{
		"2024":  true,
		"1999":  true,
		"24":    false,
		"20245": false,
		"20a4":  false,
		"":      false,
	}
	for name, want := range years {
		assert.Equal(t, want, IsYearLabel(name), "year %q", name)
	}

	months := map[string]bool{
		"2024-01": true,
		"2024-12": true,
		"2024-00": false,
		"2024-13": false,
		"2024-3":  false,
		"2024_03": false,
		"24-03":   false,
		"2024-0a": false,
	}
	for name, want := range months {
		assert.Equal(t, want, IsMonthLabel(name), "month %q", name)
	}

	assert.True(t, IsDocument("a.xml"))
	assert.False(t, IsDocument("a.XML"))
	assert.False(t, IsDocument("a.Xml"))
	assert.False(t, IsDocument("a.xml.bak"))
	assert.False(t, IsDocument("xml"))
}

func TestInventoryLookup(t *testing.T) {
	inv := New("/src", []types.InvoiceRecord{
		{Dir: "/src/2023/2023-01", Name: "dup.xml"},
		{Dir: "/src/2023/2023-01", Name: "one.xml"},
		{Dir: "/src/2024/2024-01", Name: "dup.xml"},
	})

	path, ok := inv.FullPath("dup.xml")
	require.True(t, ok)
	assert.Equal(t, "/src/2023/2023-01/dup.xml", path)

	_, ok = inv.FullPath("missing.xml")
	assert.False(t, ok)

	assert.Equal(t, map[string]struct{}{"dup.xml": {}, "one.xml": {}}, inv.Basenames())
	assert.Equal(t, []string{"dup.xml"}, inv.Duplicates())
	assert.Equal(t, 3, inv.Len())
}

func TestUnsent(t *testing.T) {
	fs := memfs.New()
	writeFiles(t, fs,
		"/src/2024/2024-03/inv2.xml",
		"/src/2024/2024-03/inv1.xml",
		"/src/2024/2024-02/inv0.xml",
		"/dst/2024/2024-03/inv1.xml",
	)
	scanner := NewScanner(fs, false)

	source, err := scanner.Scan("/src")
	require.NoError(t, err)
	destination, err := scanner.Scan("/dst")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/src/2024/2024-02/inv0.xml",
		"/src/2024/2024-03/inv2.xml",
	}, Unsent(source, destination))

	assert.Empty(t, Unsent(source, source))

	assert.Equal(t, []string{
		"/src/2024/2024-02/inv0.xml",
		"/src/2024/2024-03/inv1.xml",
		"/src/2024/2024-03/inv2.xml",
	}, Unsent(source, New("/empty", nil)))
}

func TestUnsentMatchesByBasename(t *testing.T) {
	// A document sent from a different month folder still counts as sent.
	source := New("/src", []types.InvoiceRecord{{Dir: "/src/2024/2024-03", Name: "a.xml"}})
	destination := New("/dst", []types.InvoiceRecord{{Dir: "/dst/2023/2023-11", Name: "a.xml"}})

	assert.Empty(t, Unsent(source, destination))
}
