// Package poaexcel reads and writes the POA (Plan Operativo Anual) budget
// workbook: a letterhead, one block of task rows per activity, twelve
// monthly programming columns and a terminal total row.
package poaexcel

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// SumanKey is the reserved programming key holding the row's yearly sum.
const SumanKey = "suman"

// ParsedTask is one task row of an activity.
type ParsedTask struct {
	Name        string             `json:"nombre"`
	Detail      string             `json:"detalle_descripcion"`
	BudgetItem  string             `json:"item_presupuestario"`
	Quantity    float64            `json:"cantidad"`
	UnitPrice   float64            `json:"precio_unitario"`
	Total       float64            `json:"total"`
	Programming map[string]float64 `json:"programacion_ejecucion"`
}

// ParsedActivity is an activity row plus the task rows under it.
type ParsedActivity struct {
	Number      int          `json:"numero_actividad"`
	Description string       `json:"descripcion_actividad"`
	Total       float64      `json:"total_por_actividad"`
	Tasks       []ParsedTask `json:"tareas"`
}

// POATotal is the terminal row. It stays zero when the sheet has no
// non-zero grand total.
type POATotal struct {
	Description string             `json:"descripcion,omitempty"`
	Total       float64            `json:"total,omitempty"`
	Programming map[string]float64 `json:"programacion_ejecucion,omitempty"`
}

// IsZero reports whether no total row was captured.
func (t POATotal) IsZero() bool {
	return t.Description == "" && t.Total == 0 && len(t.Programming) == 0
}

// ParseResult is the structured content of a POA sheet.
type ParseResult struct {
	Total      POATotal         `json:"total_poa"`
	Activities []ParsedActivity `json:"actividades"`
}

// TaskCount returns the number of tasks across all activities.
func (r *ParseResult) TaskCount() int {
	n := 0
	for _, a := range r.Activities {
		n += len(a.Tasks)
	}
	return n
}

var activityMarker = regexp.MustCompile(`^\((\d+)\)`)

// Parse reads the named sheet of an .xlsx or .xls workbook. Every failure is a
// *ParseError naming the offending cells.
func Parse(content []byte, sheet string) (*ParseResult, error) {
	if IsLegacyWorkbook(content) {
		return parseLegacy(content, sheet)
	}
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, &ParseError{Kind: KindInvalidWorkbook, Row: -1, Col: -1, Err: err}
	}
	defer f.Close()
	return ParseFile(f, sheet)
}

// ParseFile is Parse over an already opened workbook.
func ParseFile(f *excelize.File, sheet string) (*ParseResult, error) {
	sheets := f.GetSheetList()
	found := false
	for _, s := range sheets {
		if s == sheet {
			found = true
			break
		}
	}
	if !found {
		return nil, &ParseError{Kind: KindSheetNotFound, Row: -1, Col: -1, Sheet: sheet, Sheets: sheets}
	}

	grid, err := ReadGrid(f, sheet)
	if err != nil {
		return nil, &ParseError{Kind: KindInvalidWorkbook, Row: -1, Col: -1, Err: err}
	}
	return parseGrid(grid)
}

func parseGrid(grid Grid) (*ParseResult, error) {
	header, err := ReadHeader(grid)
	if err != nil {
		return nil, err
	}
	return scanRows(grid, header)
}

// scanRows walks from the header row down, classifying each row by its
// anchor-column cell until the terminal total row or the end of the sheet.
func scanRows(g Grid, h HeaderMap) (*ParseResult, error) {
	result := &ParseResult{Activities: []ParsedActivity{}}
	expected := 1

	for r := h.Row; r < len(g); r++ {
		lead := g.At(r, h.AnchorCol)
		text := strings.TrimSpace(lead.String())

		switch {
		case strings.Contains(strings.ToUpper(text), LabelTotalBudget):
			total, err := readTotalRow(g, h, r, text)
			if err != nil {
				return nil, err
			}
			result.Total = total
			return result, nil

		case activityMarker.MatchString(text):
			n, _ := strconv.Atoi(activityMarker.FindStringSubmatch(text)[1])
			if n != expected {
				pe := cellError(KindActivitySequence, r, h.AnchorCol)
				pe.Expected = strconv.Itoa(expected)
				pe.Found = text
				if len(result.Activities) > 0 {
					pe.Previous = result.Activities[len(result.Activities)-1].Description
				}
				return nil, pe
			}
			total, err := numberAt(g, r, h.TotalPerActivityCol, "a number")
			if err != nil {
				return nil, err
			}
			result.Activities = append(result.Activities, ParsedActivity{
				Number:      n,
				Description: text,
				Total:       total,
				Tasks:       []ParsedTask{},
			})
			expected++

		case lead.IsBlank():
			continue

		default:
			task, err := readTask(g, h, r, text)
			if err != nil {
				return nil, err
			}
			last := &result.Activities[len(result.Activities)-1]
			last.Tasks = append(last.Tasks, task)
		}
	}
	return result, nil
}

func readTask(g Grid, h HeaderMap, r int, name string) (ParsedTask, error) {
	total, err := numberAt(g, r, h.Col(HeaderTotal), "a number")
	if err != nil {
		return ParsedTask{}, err
	}
	qty, err := numberAt(g, r, h.Col(HeaderQuantity), "a number")
	if err != nil {
		return ParsedTask{}, err
	}
	price, err := numberAt(g, r, h.Col(HeaderUnitPrice), "a number")
	if err != nil {
		return ParsedTask{}, err
	}

	itemCol := h.Col(HeaderBudgetItem)
	item := g.At(r, itemCol)
	if item.IsBlank() {
		pe := cellError(KindBlankBudgetItem, r, itemCol)
		pe.Expected = "the budget item"
		return ParsedTask{}, pe
	}
	if _, ok := item.Float(); !ok {
		pe := cellError(KindNotNumeric, r, itemCol)
		pe.Expected = "a numeric budget item"
		pe.Found = item.String()
		return ParsedTask{}, pe
	}

	programming := make(map[string]float64, len(h.Months)+1)
	for _, m := range h.Months {
		cell := g.At(r, m.Col)
		if cell.IsBlank() {
			continue
		}
		v, ok := cell.Float()
		if !ok {
			pe := cellError(KindNotNumeric, r, m.Col)
			pe.Expected = "a number"
			pe.Found = cell.String()
			return ParsedTask{}, pe
		}
		programming[m.Key] = v
	}
	suman, err := numberAt(g, r, h.Col(HeaderSuman), "a number")
	if err != nil {
		return ParsedTask{}, err
	}
	programming[SumanKey] = suman

	return ParsedTask{
		Name:        name,
		Detail:      strings.TrimSpace(g.At(r, h.Col(HeaderDescription)).String()),
		BudgetItem:  strings.TrimSpace(item.String()),
		Quantity:    qty,
		UnitPrice:   price,
		Total:       total,
		Programming: programming,
	}, nil
}

func readTotalRow(g Grid, h HeaderMap, r int, label string) (POATotal, error) {
	total, err := numberAt(g, r, h.TotalPerActivityCol, "a number")
	if err != nil || total == 0 {
		return POATotal{}, err
	}

	programming := make(map[string]float64, len(h.Months)+1)
	for _, m := range h.Months {
		v, err := numberAt(g, r, m.Col, "a number")
		if err != nil {
			return POATotal{}, err
		}
		if v != 0 {
			programming[m.Key] = v
		}
	}
	suman, err := numberAt(g, r, h.Col(HeaderSuman), "a number")
	if err != nil {
		return POATotal{}, err
	}
	programming[SumanKey] = suman

	return POATotal{Description: label, Total: total, Programming: programming}, nil
}

// numberAt reads a numeric cell, treating blanks as 0.
func numberAt(g Grid, r, c int, expected string) (float64, error) {
	cell := g.At(r, c)
	if cell.IsBlank() {
		return 0, nil
	}
	v, ok := cell.Float()
	if !ok {
		pe := cellError(KindNotNumeric, r, c)
		pe.Expected = expected
		pe.Found = cell.String()
		return 0, pe
	}
	return v, nil
}
