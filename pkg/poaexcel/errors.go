package poaexcel

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a ParseError.
type ErrorKind int

const (
	KindInvalidWorkbook ErrorKind = iota + 1
	KindSheetNotFound
	KindAnchorNotFound
	KindTotalColumnMissing
	KindTotalColumnAmbiguous
	KindSumanMissing
	KindDuplicateHeader
	KindInvalidHeader
	KindRepeatedMonth
	KindMonthCount
	KindMissingHeaders
	KindActivitySequence
	KindNotNumeric
	KindBlankBudgetItem
)

var kindNames = map[ErrorKind]string{
	KindInvalidWorkbook:      "invalid_workbook",
	KindSheetNotFound:        "sheet_not_found",
	KindAnchorNotFound:       "anchor_not_found",
	KindTotalColumnMissing:   "total_column_missing",
	KindTotalColumnAmbiguous: "total_column_ambiguous",
	KindSumanMissing:         "suman_missing",
	KindDuplicateHeader:      "duplicate_header",
	KindInvalidHeader:        "invalid_header",
	KindRepeatedMonth:        "repeated_month",
	KindMonthCount:           "month_count",
	KindMissingHeaders:       "missing_headers",
	KindActivitySequence:     "activity_sequence",
	KindNotNumeric:           "not_numeric",
	KindBlankBudgetItem:      "blank_budget_item",
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// ParseError is returned for every structural or data failure found while
// reading a POA sheet. Row and Col are zero-based; Cells carries the A1
// names of the offending cells.
type ParseError struct {
	Kind     ErrorKind
	Row      int
	Col      int
	Cells    []string
	Header   string
	Expected string
	Found    string
	Sheet    string
	Sheets   []string
	Missing  []string
	Previous string
	Count    int
	Err      error
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case KindInvalidWorkbook:
		return fmt.Sprintf("cannot open workbook: %v", e.Err)
	case KindSheetNotFound:
		return fmt.Sprintf("sheet %q does not exist in the file, available sheets: %s", e.Sheet, strings.Join(e.Sheets, ", "))
	case KindAnchorNotFound:
		return `expected header not found: no cell starts with "(1)"`
	case KindTotalColumnMissing:
		return fmt.Sprintf("column %q not found in row %d", LabelTotalPerActivity, e.Row+1)
	case KindTotalColumnAmbiguous:
		return fmt.Sprintf("multiple %q columns found in cells: %s", LabelTotalPerActivity, strings.Join(e.Cells, ", "))
	case KindSumanMissing:
		return fmt.Sprintf("column %q not found in row %d", HeaderSuman, e.Row+1)
	case KindDuplicateHeader:
		return fmt.Sprintf("duplicate column %q found again in cell %s", e.Header, e.cell())
	case KindInvalidHeader:
		return fmt.Sprintf("invalid header value %q in cell %s", e.Found, e.cell())
	case KindRepeatedMonth:
		return fmt.Sprintf("repeated months in the date columns at cells: %s", strings.Join(e.Cells, ", "))
	case KindMonthCount:
		return fmt.Sprintf("expected 12 date columns, found %d", e.Count)
	case KindMissingHeaders:
		return fmt.Sprintf("missing columns: %s in row %d", strings.Join(e.Missing, ", "), e.Row+1)
	case KindActivitySequence:
		if e.Previous == "" {
			return fmt.Sprintf("activity (%s) expected in cell %s, found %s", e.Expected, e.cell(), e.Found)
		}
		return fmt.Sprintf("activity (%s) not found after activity %q, found %s in cell %s", e.Expected, e.Previous, e.Found, e.cell())
	case KindNotNumeric:
		return fmt.Sprintf("row %d: invalid value %q in cell %s, expected %s", e.Row+1, e.Found, e.cell(), e.Expected)
	case KindBlankBudgetItem:
		return fmt.Sprintf("row %d: cell %s cannot be empty, expected %s", e.Row+1, e.cell(), e.Expected)
	}
	return "invalid POA sheet"
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) cell() string {
	if len(e.Cells) > 0 {
		return e.Cells[0]
	}
	return CellName(e.Row, e.Col)
}

// IsParseError reports whether err wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// AsParseError extracts the *ParseError carried by err.
func AsParseError(err error) (*ParseError, bool) {
	var pe *ParseError
	ok := errors.As(err, &pe)
	return pe, ok
}

func cellError(kind ErrorKind, row, col int) *ParseError {
	return &ParseError{Kind: kind, Row: row, Col: col, Cells: []string{CellName(row, col)}}
}
