package sheets

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/dallastaras/nutrikpi/internal/config"
)

// Repository defines the spreadsheet operations used by the metric import.
type Repository interface {
	WriteRow(ctx context.Context, sheetRange string, values []interface{}) error
	ReadTable(ctx context.Context, sheetRange string) (Table, error)
}

// Table is a sheet range split into its header row and data rows.
type Table struct {
	Header []string
	Rows   [][]interface{}
}

// NewTable treats the first row of values as the header. Header cells are
// matched with case, spaces, underscores and hyphens ignored.
func NewTable(values [][]interface{}) Table {
	if len(values) == 0 {
		return Table{}
	}

	header := make([]string, len(values[0]))
	for i, cell := range values[0] {
		header[i] = NormalizeHeader(cell)
	}
	return Table{Header: header, Rows: values[1:]}
}

// NormalizeHeader lowercases a header cell and strips separators.
func NormalizeHeader(cell interface{}) string {
	return strings.NewReplacer("_", "", " ", "", "-", "").Replace(strings.ToLower(strings.TrimSpace(fmt.Sprint(cell))))
}

// Columns maps each normalized header name to its first column index.
// Later columns repeating a name are ignored.
func (t Table) Columns() map[string]int {
	columns := make(map[string]int, len(t.Header))
	for i, name := range t.Header {
		if name == "" {
			continue
		}
		if _, seen := columns[name]; !seen {
			columns[name] = i
		}
	}
	return columns
}

// GoogleSheetRepository implements the Repository interface using the official Google Sheets API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetRepository builds a Google Sheets backed repository instance.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// WriteRow appends the provided values to the supplied sheet range.
func (r *GoogleSheetRepository) WriteRow(ctx context.Context, sheetRange string, values []interface{}) error {
	if sheetRange == "" {
		return fmt.Errorf("sheetRange must not be empty")
	}

	payload := &sheetsapi.ValueRange{Values: [][]interface{}{values}}

	call := r.service.Spreadsheets.Values.Append(r.spreadsheetID, sheetRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append row into range %s: %w", sheetRange, err)
	}

	r.logger.Debug("row appended to sheet", zap.String("range", sheetRange))
	return nil
}

// ReadRange fetches a rectangular data range from the spreadsheet. Cells are
// returned unformatted so numbers and dates arrive without locale formatting.
func (r *GoogleSheetRepository) ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error) {
	if sheetRange == "" {
		return nil, fmt.Errorf("sheetRange must not be empty")
	}

	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, sheetRange).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", sheetRange, err)
	}

	r.logger.Debug("sheet range read", zap.String("range", sheetRange), zap.Int("rows", len(resp.Values)))
	return resp.Values, nil
}

// ReadTable reads the range and splits off its header row.
func (r *GoogleSheetRepository) ReadTable(ctx context.Context, sheetRange string) (Table, error) {
	values, err := r.ReadRange(ctx, sheetRange)
	if err != nil {
		return Table{}, err
	}
	return NewTable(values), nil
}
