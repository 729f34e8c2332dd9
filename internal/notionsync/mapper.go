package notionsync

import (
	"time"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/receiptlog/internal/infra/bigquery"
)

// ExpenseToNotionProperties maps an expense row to Notion page
// properties. The Expense ID is the page title; the sync dedupes on it.
func ExpenseToNotionProperties(row *bigquery.ExpenseRow) notionapi.Properties {
	props := notionapi.Properties{
		"Expense ID": notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: row.ExpenseID,
					},
				},
			},
		},
		"Currency": notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: row.Currency,
			},
		},
		"Imported At": notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: (*notionapi.Date)(&row.CreatedTS),
			},
		},
	}

	if row.Merchant.Valid {
		props["Merchant"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: row.Merchant.StringVal,
					},
				},
			},
		}
	}

	if row.TotalAmount.Valid {
		props["Amount"] = notionapi.NumberProperty{
			Number: row.TotalAmount.Float64,
		}
	}

	// Only the derived DATE column maps to a Notion date; the verbatim
	// extracted string may be in any format the model produced.
	if row.DateParsed.Valid {
		d := notionapi.Date(time.Date(
			row.DateParsed.Date.Year,
			row.DateParsed.Date.Month,
			row.DateParsed.Date.Day,
			0, 0, 0, 0, time.UTC,
		))
		props["Date"] = notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: &d,
			},
		}
	}

	if row.ImagePath != "" {
		props["Image Path"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: row.ImagePath,
					},
				},
			},
		}
	}

	return props
}
