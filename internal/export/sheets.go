// Package export rebuilds the monthly summary sheet in Google Sheets
// whenever the ledger changes.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"quarta/internal/config"
	"quarta/internal/report"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// SummaryWriter receives the recomputed month buckets.
type SummaryWriter interface {
	WriteSummary(ctx context.Context, buckets []report.MonthBucket) error
}

// SheetsClient writes the summary into one sheet of a spreadsheet,
// authenticated with a service account.
type SheetsClient struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ SummaryWriter = (*SheetsClient)(nil)

func NewSheetsClient(ctx context.Context, cfg *config.Config) (*SheetsClient, error) {
	if cfg.GoogleSpreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	credentialsJSON, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &SheetsClient{
		svc:           svc,
		spreadsheetID: cfg.GoogleSpreadsheetID,
		sheetName:     cfg.GoogleSheetName,
	}, nil
}

func loadCredentials(cfg *config.Config) ([]byte, error) {
	switch {
	case cfg.GoogleServiceAccountJSON != "":
		return []byte(cfg.GoogleServiceAccountJSON), nil
	case cfg.GoogleServiceAccountFile != "":
		credentialsJSON, err := os.ReadFile(cfg.GoogleServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return credentialsJSON, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

// WriteSummary clears the sheet and rewrites it, one row per month.
func (c *SheetsClient) WriteSummary(ctx context.Context, buckets []report.MonthBucket) error {
	writeRange := fmt.Sprintf("%s!A1:H%d", c.sheetName, len(buckets)+1)

	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, c.sheetName+"!A:H", &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear summary sheet: %w", err)
	}

	values := [][]any{
		{"Mês", "Receita", "Despesas", "Saldo", "Pago", "Pendente", "Atrasado", "Alunos em dia"},
	}
	for _, b := range buckets {
		values = append(values, []any{
			b.Key.String(),
			b.Revenue.Reais(),
			b.Expenses.Reais(),
			b.Balance.Reais(),
			b.Paid.Reais(),
			b.Pending.Reais(),
			b.Overdue.Reais(),
			b.StudentsPaid,
		})
	}

	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, writeRange, &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write summary sheet: %w", err)
	}

	slog.InfoContext(ctx, "Summary sheet rewritten",
		"sheet", c.sheetName,
		"months", len(buckets))
	return nil
}
