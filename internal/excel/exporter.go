package excel

import (
	"bytes"
	"fmt"

	"github.com/example/pepelbot/internal/catalog"
	"github.com/example/pepelbot/pkg/models"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Responses"

// BuildResponsesWorkbook renders the whole response log as an xlsx workbook
// for the admin /export command.
func BuildResponsesWorkbook(rows []models.Response) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %v", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %v", err)
	}

	headers := []string{"ID", "User ID", "Username", "Level", "Glyph", "Timestamp"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to build header cell name: %v", err)
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, fmt.Errorf("failed to write header: %v", err)
		}
	}

	for i, row := range rows {
		glyph := ""
		if e, ok := catalog.ByLevel(row.Level); ok {
			glyph = e.Glyph
		}
		values := []interface{}{row.ID, row.UserID, row.Username, row.Level, glyph, row.Timestamp}
		for j, v := range values {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return nil, fmt.Errorf("failed to build cell name: %v", err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %v", i+1, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %v", err)
	}
	return buf, nil
}
