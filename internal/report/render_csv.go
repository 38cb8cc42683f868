package report

import (
	"bytes"
	"encoding/csv"

	"clientbooks/internal/records/models"
)

// reportColumns is the fixed projection shared by every export format.
var reportColumns = []string{"Client Name", "Email", "Revenue", "Expenses", "Net Profit", "Created At"}

const dateLayout = "2006-01-02"

// RenderCSV writes the record set as CSV: the declared header followed by one
// row per record, numbers as plain decimal text, dates as YYYY-MM-DD.
func RenderCSV(records []models.Record) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(reportColumns); err != nil {
		return nil, err
	}
	for i := range records {
		if err := w.Write(reportRow(&records[i])); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func reportRow(r *models.Record) []string {
	return []string{
		r.Name,
		r.Email,
		r.Financials.Revenue.String(),
		r.Financials.Expenses.String(),
		r.Financials.NetProfit.String(),
		r.CreatedAt.UTC().Format(dateLayout),
	}
}
