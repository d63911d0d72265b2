package source

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

func writeTestSpreadsheet(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "calls.xlsx")

	f := excelize.NewFile()
	defer f.Close()

	rows := [][]interface{}{
		{"Data", "Hora", "Operador", "Status", "Duração"},
		{"15/03/2024", "09:00", "Maria Santos", "atendida", "120"},
		{"15/03/2024", "09:10", "João Oliveira", "perdida", "0"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("failed to build cell name: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("failed to write row: %v", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save spreadsheet: %v", err)
	}
	return path
}

func TestSpreadsheetRoundTrip(t *testing.T) {
	path := writeTestSpreadsheet(t)
	s := NewSpreadsheetSource(path, zerolog.Nop())

	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}

	infos, err := s.ListSources(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(infos) != 1 || infos[0].ID != "Sheet1" {
		t.Errorf("unexpected sources: %+v", infos)
	}

	// Empty source ID selects the first sheet
	rows, err := s.GetRows(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "Data" || rows[1][2] != "Maria Santos" {
		t.Errorf("unexpected row content: %v", rows[:2])
	}

	if _, err := s.GetRows(context.Background(), "NoSuchSheet"); err == nil {
		t.Error("expected error for unknown sheet")
	}
}
