package poaexcel

import (
	"strconv"

	"github.com/xuri/excelize/v2"
)

// ColumnName converts a zero-based column index to its letters (0 -> "A").
func ColumnName(col int) string {
	name, err := excelize.ColumnNumberToName(col + 1)
	if err != nil {
		return "?"
	}
	return name
}

// CellName converts zero-based (row, col) to A1 notation: (0,0) -> "A1",
// (7,2) -> "C8", (0,26) -> "AA1".
func CellName(row, col int) string {
	return ColumnName(col) + strconv.Itoa(row+1)
}

func rangeName(fromRow, fromCol, toRow, toCol int) string {
	return CellName(fromRow, fromCol) + ":" + CellName(toRow, toCol)
}
