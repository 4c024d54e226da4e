// Package sheets exports monthly budget summaries to a Google spreadsheet.
// Reporting only: nothing here feeds back into the engine.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"kumbara/internal/core"
	applog "kumbara/internal/log"
)

type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	log           *applog.Logger
}

// NewFromEnv creates an exporter from environment variables.
// Required: GOOGLE_SPREADSHEET_ID. Credentials come from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS. GOOGLE_SHEET_NAME defaults to "Summary".
func NewFromEnv(ctx context.Context, logger *applog.Logger) (*Exporter, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetName := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "Summary"
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Exporter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		log:           logger.WithComponent(applog.ComponentExport),
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	saJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	saFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if saJSON == "" && saFile == "" {
		saFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var creds []byte
	var err error
	switch {
	case saJSON != "":
		creds = []byte(saJSON)
	case saFile != "":
		creds, err = os.ReadFile(saFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// ExportSummary appends one row per budget plus a totals row for the month.
func (e *Exporter) ExportSummary(ctx context.Context, summary core.MonthlySummary) error {
	rows := make([][]any, 0, len(summary.Budgets)+1)
	for _, b := range summary.Budgets {
		rows = append(rows, []any{
			summary.Month.String(),
			b.Category.Label,
			formatCents(b.Amount.Cents),
			formatCents(b.Spent.Cents),
			fmt.Sprintf("%.1f%%", b.Percentage),
		})
	}
	rows = append(rows, []any{
		summary.Month.String(),
		"TOPLAM",
		formatCents(summary.TotalBudget.Cents),
		formatCents(summary.TotalSpent.Cents),
		fmt.Sprintf("%.1f%%", summary.Percentage),
	})

	vr := &gsheet.ValueRange{Values: rows}
	_, err := e.svc.Spreadsheets.Values.
		Append(e.spreadsheetID, e.sheetName+"!A:E", vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append summary rows: %w", err)
	}

	e.log.InfoContext(ctx, "exported monthly summary",
		applog.FieldSpreadsheetID, e.spreadsheetID,
		applog.FieldMonth, summary.Month.String(),
		applog.FieldBudgetCount, len(summary.Budgets))

	return nil
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return sign + strconv.FormatInt(cents/100, 10) + "," + fmt.Sprintf("%02d", cents%100)
}
