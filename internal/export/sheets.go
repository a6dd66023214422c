// Package export pushes refreshed report snapshots to a Google Sheet,
// one row per (owner, year, month) refresh.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/storage"
)

type SheetsExporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// Config carries the Sheets connection settings. Exactly one of
// CredentialsJSON or CredentialsFile must be set.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// NewSheetsExporter authenticates with a service account and targets one
// sheet in the given spreadsheet.
func NewSheetsExporter(ctx context.Context, cfg Config) (*SheetsExporter, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = "Reports"
	}

	credentials, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentials),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &SheetsExporter{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func loadCredentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []byte(cfg.CredentialsJSON), nil
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials")
	}
}

// AppendSnapshot appends one snapshot row to the report sheet.
func (e *SheetsExporter) AppendSnapshot(ctx context.Context, s storage.ReportSnapshot) error {
	if e.svc == nil {
		return errors.New("sheets service not initialized")
	}

	row := []any{
		s.OwnerID,
		fmt.Sprintf("%04d-%02d", s.Year, s.Month),
		s.Income.StringFixed(2),
		s.Expense.StringFixed(2),
		s.Balance.StringFixed(2),
		s.Entries,
		time.Now().UTC().Format(time.RFC3339),
	}

	rng := fmt.Sprintf("%s!A:G", e.sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{row}}
	_, err := e.svc.Spreadsheets.Values.Append(e.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append snapshot row: %w", err)
	}

	slog.InfoContext(ctx, "Snapshot exported to sheet",
		"owner", s.OwnerID,
		"year", s.Year,
		"month", s.Month,
		"sheet", e.sheetName)

	return nil
}
