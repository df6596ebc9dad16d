package report

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteSpreadsheet(t *testing.T) {
	doc, err := Build(context.Background(), testReport(), testFiles(), testHeader, DefaultOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSpreadsheet(doc, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"General Information", "Speakers", "Participants", "Report Prepared By", "Activity Photos"}, f.GetSheetList())

	v, err := f.GetCellValue("General Information", "B2")
	require.NoError(t, err)
	assert.Equal(t, testHeader.Institution, v)

	rows, err := f.GetRows("Participants")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Total", "85"}, rows[3])

	v, err = f.GetCellValue("Speakers", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Dr. Ada", v)

	v, err = f.GetCellValue("Activity Photos", "C2")
	require.NoError(t, err)
	assert.Equal(t, "Opening", v)
}
