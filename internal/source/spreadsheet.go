package source

import (
	"context"
	"fmt"
	"os"

	"github.com/dialboard/backend/internal/types"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// SpreadsheetSource serves raw rows out of a local .xlsx export. Each sheet
// is one source; the sheet name doubles as the source ID.
type SpreadsheetSource struct {
	path   string
	logger zerolog.Logger
}

// NewSpreadsheetSource creates a source over the spreadsheet at path
func NewSpreadsheetSource(path string, logger zerolog.Logger) *SpreadsheetSource {
	return &SpreadsheetSource{
		path:   path,
		logger: logger.With().Str("component", "spreadsheet").Logger(),
	}
}

// Ping verifies the spreadsheet exists and is readable
func (s *SpreadsheetSource) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := os.Stat(s.path); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// ListSources returns one Info per sheet
func (s *SpreadsheetSource) ListSources(ctx context.Context) ([]Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	infos := make([]Info, 0, len(sheets))
	for _, sheet := range sheets {
		infos = append(infos, Info{ID: sheet, Name: sheet})
	}
	return infos, nil
}

// GetRows reads one sheet as a raw string grid, first row included as
// headers. An empty sourceID selects the first sheet.
func (s *SpreadsheetSource) GetRows(ctx context.Context, sourceID string) ([]types.RawRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	sheet := sourceID
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("spreadsheet has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read rows from %q: %w", sheet, err)
	}

	out := make([]types.RawRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, types.RawRow(row))
	}

	s.logger.Debug().Str("sheet", sheet).Int("rows", len(out)).Msg("rows loaded")
	return out, nil
}
