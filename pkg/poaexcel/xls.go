package poaexcel

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/extrame/xls"
)

// oleSignature opens every BIFF (.xls) workbook.
var oleSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// IsLegacyWorkbook reports whether content is a BIFF (.xls) workbook
// rather than an OOXML (.xlsx) one.
func IsLegacyWorkbook(content []byte) bool {
	return bytes.HasPrefix(content, oleSignature)
}

// parseLegacy reads the named sheet of a BIFF workbook into the same grid
// the .xlsx path produces.
func parseLegacy(content []byte, sheet string) (*ParseResult, error) {
	grid, sheets, err := readLegacyGrid(content, sheet)
	if err != nil {
		return nil, &ParseError{Kind: KindInvalidWorkbook, Row: -1, Col: -1, Err: err}
	}
	if grid == nil {
		return nil, &ParseError{Kind: KindSheetNotFound, Row: -1, Col: -1, Sheet: sheet, Sheets: sheets}
	}
	return parseGrid(grid)
}

// readLegacyGrid returns a nil grid with the sheet names when sheet is absent.
// The BIFF reader panics on some malformed files; that is reported as an error.
func readLegacyGrid(content []byte, sheet string) (grid Grid, sheets []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			grid, sheets, err = nil, nil, fmt.Errorf("malformed xls workbook: %v", r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(content), "utf-8")
	if err != nil {
		return nil, nil, err
	}

	var ws *xls.WorkSheet
	for i := 0; i < wb.NumSheets(); i++ {
		s := wb.GetSheet(i)
		if s == nil {
			continue
		}
		sheets = append(sheets, s.Name)
		if s.Name == sheet && ws == nil {
			ws = s
		}
	}
	if ws == nil {
		return nil, sheets, nil
	}

	grid = make(Grid, int(ws.MaxRow)+1)
	for r := 0; r <= int(ws.MaxRow); r++ {
		row := ws.Row(r)
		if row == nil || row.LastCol() < 0 {
			continue
		}
		cells := make([]Cell, row.LastCol()+1)
		for c := range cells {
			cells[c] = classifyLegacyText(row.Col(c))
		}
		grid[r] = cells
	}
	return grid, sheets, nil
}

// classifyLegacyText types a cell the BIFF reader rendered as text. Date
// formatted cells come back as RFC 3339 timestamps.
func classifyLegacyText(raw string) Cell {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Cell{}
	}
	if IsNumericLike(text) {
		v, _ := strconv.ParseFloat(text, 64)
		return Cell{Kind: CellNumber, Number: v}
	}
	if t, err := time.Parse(time.RFC3339, text); err == nil {
		return Cell{Kind: CellDate, Time: t}
	}
	return Cell{Kind: CellText, Text: raw}
}
