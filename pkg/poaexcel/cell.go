package poaexcel

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// CellKind tags the value held by a Cell.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
	CellDate
)

// Cell is one untyped grid value as read from the sheet.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
	Time   time.Time
}

// IsBlank reports whether the cell is empty or holds only whitespace.
func (c Cell) IsBlank() bool {
	switch c.Kind {
	case CellEmpty:
		return true
	case CellText:
		return strings.TrimSpace(c.Text) == ""
	}
	return false
}

// String renders the cell the way it is compared and reported.
func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case CellDate:
		return c.Time.Format(dateKeyLayout)
	}
	return ""
}

// Float returns the numeric value of the cell. Text cells are accepted when
// their trimmed content converts losslessly to a float.
func (c Cell) Float() (float64, bool) {
	switch c.Kind {
	case CellNumber:
		return c.Number, true
	case CellText:
		if IsNumericLike(c.Text) {
			v, _ := strconv.ParseFloat(strings.TrimSpace(c.Text), 64)
			return v, true
		}
	}
	return 0, false
}

// Date returns the calendar date held by the cell, either as a real date
// cell or as text in one of the accepted layouts.
func (c Cell) Date() (time.Time, bool) {
	switch c.Kind {
	case CellDate:
		return c.Time, true
	case CellText:
		return ParseDateLike(c.Text)
	}
	return time.Time{}, false
}

// Grid is the sheet loaded as rows of cells, zero-based.
type Grid [][]Cell

// At returns the cell at (row, col) or an empty cell when out of range.
func (g Grid) At(row, col int) Cell {
	if row < 0 || row >= len(g) || col < 0 || col >= len(g[row]) {
		return Cell{}
	}
	return g[row][col]
}

// Width returns the length of the widest row.
func (g Grid) Width() int {
	w := 0
	for _, row := range g {
		if len(row) > w {
			w = len(row)
		}
	}
	return w
}

// ReadGrid loads a sheet without coercion: numbers stay numbers, cells with a
// date number format become dates and everything else is text.
func ReadGrid(f *excelize.File, sheet string) (Grid, error) {
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	dates := &dateStyles{file: f, known: make(map[int]bool)}
	grid := make(Grid, len(rows))
	for r, row := range rows {
		cells := make([]Cell, len(row))
		for c, raw := range row {
			if raw == "" {
				continue
			}
			cells[c] = classifyCell(f, sheet, CellName(r, c), raw, dates)
		}
		grid[r] = cells
	}
	return grid, nil
}

func classifyCell(f *excelize.File, sheet, axis, raw string, dates *dateStyles) Cell {
	typ, _ := f.GetCellType(sheet, axis)
	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula, excelize.CellTypeBool:
		return Cell{Kind: CellText, Text: raw}
	case excelize.CellTypeDate:
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return Cell{Kind: CellDate, Time: t}
		}
		return Cell{Kind: CellText, Text: raw}
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Cell{Kind: CellText, Text: raw}
	}
	if dates.isDate(sheet, axis) {
		if t, err := excelize.ExcelDateToTime(v, false); err == nil {
			return Cell{Kind: CellDate, Time: t}
		}
	}
	return Cell{Kind: CellNumber, Number: v}
}

// dateStyles caches, per style index, whether the number format is a date.
type dateStyles struct {
	file  *excelize.File
	known map[int]bool
}

func (d *dateStyles) isDate(sheet, axis string) bool {
	idx, err := d.file.GetCellStyle(sheet, axis)
	if err != nil || idx == 0 {
		return false
	}
	if v, ok := d.known[idx]; ok {
		return v
	}
	v := false
	if style, err := d.file.GetStyle(idx); err == nil && style != nil {
		v = isDateNumFmt(style.NumFmt, style.CustomNumFmt)
	}
	d.known[idx] = v
	return v
}
