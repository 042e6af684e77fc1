package poaexcel

import (
	"sort"
	"strings"
	"time"
)

// Header texts of the POA sheet, compared after normalizeHeader.
const (
	HeaderDescription     = "DESCRIPCIÓN O DETALLE"
	HeaderBudgetItem      = "ITEM PRESUPUESTARIO"
	HeaderQuantity        = "CANTIDAD"
	HeaderUnitPrice       = "PRECIO UNITARIO"
	HeaderTotal           = "TOTAL"
	HeaderSuman           = "SUMAN"
	LabelTotalPerActivity = "TOTAL POR ACTIVIDAD"
	LabelTotalBudget      = "TOTAL PRESUPUESTO"
	firstActivityMarker   = "(1)"
)

// requiredHeaders is also the order used when reporting missing columns.
var requiredHeaders = []string{
	HeaderDescription,
	HeaderBudgetItem,
	HeaderQuantity,
	HeaderUnitPrice,
	HeaderTotal,
	HeaderSuman,
}

// MonthColumn is one of the twelve date columns of the header row.
type MonthColumn struct {
	Key  string
	Date time.Time
	Col  int
}

// HeaderMap locates every column the row scanner needs.
type HeaderMap struct {
	Row                 int
	AnchorCol           int
	TotalPerActivityCol int
	Columns             map[string]int
	Months              []MonthColumn
}

// Col returns the column of a required header, -1 when unmapped.
func (h HeaderMap) Col(header string) int {
	if c, ok := h.Columns[header]; ok {
		return c
	}
	return -1
}

// normalizeHeader upper-cases and collapses whitespace so wrapped header
// cells ("ITEM\nPRESUPUESTARIO") compare equal to their one-line form.
func normalizeHeader(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

func matchHeader(value string) (string, bool) {
	for _, h := range requiredHeaders {
		if h == HeaderQuantity {
			if strings.HasPrefix(value, HeaderQuantity) {
				return h, true
			}
			continue
		}
		if value == h {
			return h, true
		}
	}
	return "", false
}

// ReadHeader finds the anchor cell, the activity total column and validates
// the header row of g.
func ReadHeader(g Grid) (HeaderMap, error) {
	row, col, ok := locateAnchor(g)
	if !ok {
		return HeaderMap{}, &ParseError{Kind: KindAnchorNotFound, Row: -1, Col: -1}
	}
	totalCol, err := locateTotalColumn(g, row-1)
	if err != nil {
		return HeaderMap{}, err
	}
	return mapHeaders(g, row, col, totalCol)
}

func locateAnchor(g Grid) (int, int, bool) {
	for r, row := range g {
		for c, cell := range row {
			if cell.Kind == CellText && strings.HasPrefix(cell.Text, firstActivityMarker) {
				return r, c, true
			}
		}
	}
	return 0, 0, false
}

func locateTotalColumn(g Grid, row int) (int, error) {
	var found []int
	if row >= 0 && row < len(g) {
		for c, cell := range g[row] {
			if cell.Kind == CellText && normalizeHeader(cell.Text) == LabelTotalPerActivity {
				found = append(found, c)
			}
		}
	}
	switch len(found) {
	case 0:
		return 0, &ParseError{Kind: KindTotalColumnMissing, Row: row, Col: -1}
	case 1:
		return found[0], nil
	}
	cells := make([]string, len(found))
	for i, c := range found {
		cells[i] = CellName(row, c)
	}
	return 0, &ParseError{Kind: KindTotalColumnAmbiguous, Row: row, Col: found[0], Cells: cells}
}

func mapHeaders(g Grid, row, anchorCol, skipCol int) (HeaderMap, error) {
	h := HeaderMap{
		Row:                 row,
		AnchorCol:           anchorCol,
		TotalPerActivityCol: skipCol,
		Columns:             make(map[string]int, len(requiredHeaders)),
	}

	sumanCol := -1
	for c := anchorCol + 1; c < len(g[row]); c++ {
		if normalizeHeader(g.At(row, c).String()) == HeaderSuman {
			sumanCol = c
			break
		}
	}
	if sumanCol < 0 {
		return HeaderMap{}, &ParseError{Kind: KindSumanMissing, Row: row, Col: -1}
	}

	seenDates := make(map[string]int)
	for c := anchorCol + 1; c <= sumanCol; c++ {
		if c == skipCol {
			continue
		}
		cell := g.At(row, c)
		if header, ok := matchHeader(normalizeHeader(cell.String())); ok {
			if _, dup := h.Columns[header]; dup {
				pe := cellError(KindDuplicateHeader, row, c)
				pe.Header = header
				return HeaderMap{}, pe
			}
			h.Columns[header] = c
			continue
		}

		date, ok := cell.Date()
		if !ok {
			pe := cellError(KindInvalidHeader, row, c)
			pe.Found = cell.String()
			return HeaderMap{}, pe
		}
		key := date.Format(dateKeyLayout)
		if prev, dup := seenDates[key]; dup {
			return HeaderMap{}, &ParseError{
				Kind:  KindRepeatedMonth,
				Row:   row,
				Col:   c,
				Cells: []string{CellName(row, prev), CellName(row, c)},
			}
		}
		seenDates[key] = c
		h.Months = append(h.Months, MonthColumn{Key: key, Date: date, Col: c})
	}

	if len(h.Months) != 12 {
		return HeaderMap{}, &ParseError{Kind: KindMonthCount, Row: row, Col: -1, Count: len(h.Months)}
	}
	if cells := repeatedMonthCells(row, h.Months); len(cells) > 0 {
		return HeaderMap{}, &ParseError{Kind: KindRepeatedMonth, Row: row, Col: -1, Cells: cells}
	}

	var missing []string
	for _, header := range requiredHeaders {
		if _, ok := h.Columns[header]; !ok {
			missing = append(missing, header)
		}
	}
	if len(missing) > 0 {
		return HeaderMap{}, &ParseError{Kind: KindMissingHeaders, Row: row, Col: -1, Missing: missing}
	}

	sort.Slice(h.Months, func(i, j int) bool { return h.Months[i].Col < h.Months[j].Col })
	return h, nil
}

// repeatedMonthCells returns the cells of every date sharing its calendar
// month with another date column.
func repeatedMonthCells(row int, months []MonthColumn) []string {
	byMonth := make(map[string][]int)
	for _, m := range months {
		k := m.Date.Format("2006-01")
		byMonth[k] = append(byMonth[k], m.Col)
	}
	var cols []int
	for _, cs := range byMonth {
		if len(cs) > 1 {
			cols = append(cols, cs...)
		}
	}
	sort.Ints(cols)
	cells := make([]string, len(cols))
	for i, c := range cols {
		cells[i] = CellName(row, c)
	}
	return cells
}
