package report

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"clientbooks/internal/records/models"
)

func TestRenderCSVGolden(t *testing.T) {
	records := []models.Record{
		testRecord("Acme", "1000", "400", time.Date(2025, time.June, 15, 13, 45, 0, 0, time.UTC)),
		testRecord("Globex", "0.3", "0.1", time.Date(2026, time.January, 2, 0, 0, 0, 0, time.UTC)),
	}

	data, err := RenderCSV(records)
	require.NoError(t, err)

	want := "Client Name,Email,Revenue,Expenses,Net Profit,Created At\n" +
		"Acme,Acme@example.com,1000,400,600,2025-06-15\n" +
		"Globex,Globex@example.com,0.3,0.1,0.2,2026-01-02\n"
	assert.Equal(t, want, string(data))
}

func TestRenderCSVEmptySetStillDeclaresHeader(t *testing.T) {
	data, err := RenderCSV(nil)
	require.NoError(t, err)
	assert.Equal(t, "Client Name,Email,Revenue,Expenses,Net Profit,Created At\n", string(data))
}

func TestRenderXLSXLayout(t *testing.T) {
	records := []models.Record{
		testRecord("Acme", "1000", "400", time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)),
	}
	generatedAt := time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)

	data, err := RenderXLSX(records, generatedAt)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	cell := func(ref string) string {
		v, err := f.GetCellValue(sheetName, ref)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "Client Financial Report", cell("A1"))
	assert.Equal(t, "Generated 2026-09-01", cell("A2"))

	for col, name := range reportColumns {
		ref, err := excelize.CoordinatesToCellName(col+1, headerRow)
		require.NoError(t, err)
		assert.Equal(t, name, cell(ref))
	}

	row := headerRow + 1
	assert.Equal(t, "Acme", cell(fmt.Sprintf("A%d", row)))
	assert.Equal(t, "1000", cell(fmt.Sprintf("C%d", row)))
	assert.Equal(t, "400", cell(fmt.Sprintf("D%d", row)))
	assert.Equal(t, "600", cell(fmt.Sprintf("E%d", row)))
	assert.Equal(t, "2025-06-15", cell(fmt.Sprintf("F%d", row)))
}
