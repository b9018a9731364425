package tabular

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/joseon-weather-bot/internal/domain"
)

// maxLegacyRows bounds legacy .xls reads; archive tables are at most a few
// thousand rows.
const maxLegacyRows = 65535

// readXLSX reads the first sheet of a modern Excel workbook.
func readXLSX(data []byte) (*domain.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return tableFromGrid(rows)
}

// readLegacyXLS reads the first sheet of a BIFF .xls workbook.
func readLegacyXLS(data []byte) (*domain.Table, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open legacy workbook: %w", err)
	}
	grid := wb.ReadAllCells(maxLegacyRows)
	return tableFromGrid(grid)
}

// tableFromGrid converts a header+rows string grid into a Table. Rows wider
// than the header keep only the covered cells, mirroring how ragged delimited
// rows are handled.
func tableFromGrid(grid [][]string) (*domain.Table, error) {
	if len(grid) == 0 || len(grid[0]) == 0 {
		return nil, errors.New("empty sheet")
	}

	columns := make([]string, len(grid[0]))
	for i, h := range grid[0] {
		columns[i] = strings.TrimSpace(h)
	}

	rows := make([]domain.Row, 0, len(grid)-1)
	for _, cells := range grid[1:] {
		row := make(domain.Row, len(columns))
		for i, col := range columns {
			if i < len(cells) {
				row[col] = cells[i]
			}
		}
		rows = append(rows, row)
	}

	return &domain.Table{Columns: columns, Rows: rows}, nil
}
