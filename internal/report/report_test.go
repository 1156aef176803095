package report

import (
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/sdi-invoice-sender/internal/types"
)

func TestWrite(t *testing.T) {
	fs := memfs.New()
	sentAt := time.Date(2024, time.March, 20, 9, 30, 0, 0, time.UTC)

	err := Write(fs, "/reports/sent.xlsx", []types.Outcome{
		{
			Path:               "/src/2024/2024-03/inv2.xml",
			Name:               "inv2.xml",
			SenderName:         "ItoTech S.r.l.",
			RecipientName:      "ACME S.p.A.",
			RecipientID:        "IT09876543210",
			InvoiceNumber:      "2024/17",
			InvoiceDate:        "2024-03-15",
			TransmissionFormat: "FPR12",
		},
	}, sentAt)
	require.NoError(t, err)

	in, err := fs.Open("/reports/sent.xlsx")
	require.NoError(t, err)
	defer in.Close()

	wb, err := excelize.OpenReader(in)
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Sent At", rows[0][0])
	assert.Equal(t, "Format", rows[0][8])
	assert.Equal(t, []string{
		"2024-03-20 09:30:00",
		"/src/2024/2024-03/inv2.xml",
		"inv2.xml",
		"ItoTech S.r.l.",
		"ACME S.p.A.",
		"IT09876543210",
		"2024/17",
		"2024-03-15",
		"FPR12",
	}, rows[1])
}

func TestWriteEmpty(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, Write(fs, "sent.xlsx", nil, time.Now()))

	in, err := fs.Open("sent.xlsx")
	require.NoError(t, err)
	defer in.Close()

	wb, err := excelize.OpenReader(in)
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
