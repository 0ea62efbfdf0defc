// Package export writes submission listings as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"gestorcentros/internal/store"
)

const sheetName = "Envíos"

var headers = []string{"ID", "Usuario", "Nombre completo", "Plantilla", "Área", "Fecha"}

// SubmissionsWorkbook lays details out one per row below a header row.
func SubmissionsWorkbook(details []store.SubmissionDetail) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), sheetName); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("header style: %w", err)
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to set header: %w", err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(sheetName, "A1", last, bold); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("header style: %w", err)
	}

	for r, d := range details {
		row := []interface{}{d.ID, d.Username, d.FullName, d.Template, d.Area, d.CreatedAt.Format("2006-01-02 15:04:05")}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to set row %d: %w", r+2, err)
		}
	}
	_ = f.SetColWidth(sheetName, "B", "E", 24)
	_ = f.SetColWidth(sheetName, "F", "F", 20)
	return f, nil
}

// WriteSubmissions streams the workbook for details to w.
func WriteSubmissions(w io.Writer, details []store.SubmissionDetail) error {
	f, err := SubmissionsWorkbook(details)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
