package export

import (
	"strconv"
	"strings"

	"github.com/dvloznov/receiptlog/internal/infra/bigquery"
)

const csvHeader = "date,merchant,total_amount,currency"

// GenerateCSV renders expense rows as a CSV document, oldest first, with
// a fixed date,merchant,total_amount,currency header. Null fields render
// as empty cells.
func GenerateCSV(rows []*bigquery.ExpenseRow) string {
	var b strings.Builder
	b.WriteString(csvHeader)
	b.WriteByte('\n')

	for _, row := range rows {
		var date, merchant, amount string
		if row.Date.Valid {
			date = row.Date.StringVal
		}
		if row.Merchant.Valid {
			merchant = row.Merchant.StringVal
		}
		if row.TotalAmount.Valid {
			amount = strconv.FormatFloat(row.TotalAmount.Float64, 'f', -1, 64)
		}

		b.WriteString(escapeCSVField(date))
		b.WriteByte(',')
		b.WriteString(escapeCSVField(merchant))
		b.WriteByte(',')
		b.WriteString(escapeCSVField(amount))
		b.WriteByte(',')
		b.WriteString(escapeCSVField(row.Currency))
		b.WriteByte('\n')
	}

	return b.String()
}

// escapeCSVField quotes a field that contains a comma, quote or newline,
// doubling any embedded quotes.
func escapeCSVField(field string) string {
	if !strings.ContainsAny(field, ",\"\n") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}
