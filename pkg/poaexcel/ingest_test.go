package poaexcel

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const fixtureSheet = "POA"

// personnelFixture lays out a sheet anchored at C8:
//
//	C: name, D: detail, E: item, F: quantity, G: activity total,
//	H: unit price, I: total, J..U: months of 2025, V: SUMAN.
func personnelFixture(t *testing.T) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName(f.GetSheetName(0), fixtureSheet))

	cells := map[string]interface{}{
		"C2": "DIRECCIÓN DE INVESTIGACIÓN",
		"G7": "TOTAL POR ACTIVIDAD",
		"C8": "(1) Gastos de personal",
		"D8": "DESCRIPCIÓN O DETALLE",
		"E8": "ITEM PRESUPUESTARIO",
		"F8": "CANTIDAD",
		"G8": 1500.00,
		"H8": "PRECIO UNITARIO",
		"I8": "TOTAL",
		"V8": "SUMAN",
		"C9": "1.1 Asistente de investigación",
		"D9": "Contrato de servicios",
		"E9": "510105",
		"F9": 2,
		"H9": 100.00,
		"I9": 200.00,
		"J9": 50.0,
		"K9": 50.0,
		"L9": 100.0,
		"V9": 200.00,
	}
	for m := 0; m < 12; m++ {
		cells[CellName(7, 9+m)] = fmt.Sprintf("2025-%02d-01", m+1)
	}
	setCells(t, f, cells)
	return f
}

func setCells(t *testing.T, f *excelize.File, cells map[string]interface{}) {
	t.Helper()
	for axis, v := range cells {
		require.NoError(t, f.SetCellValue(fixtureSheet, axis, v), axis)
	}
}

func workbookBytes(t *testing.T, f *excelize.File) []byte {
	t.Helper()
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func parseFixture(t *testing.T, f *excelize.File) (*ParseResult, error) {
	t.Helper()
	return Parse(workbookBytes(t, f), fixtureSheet)
}

func requireParseError(t *testing.T, err error, kind ErrorKind) *ParseError {
	t.Helper()
	require.Error(t, err)
	pe, ok := AsParseError(err)
	require.True(t, ok, "expected *ParseError, got %T: %v", err, err)
	require.Equal(t, kind, pe.Kind, pe.Error())
	return pe
}

func TestParseTrustsDeclaredActivityTotal(t *testing.T) {
	res, err := parseFixture(t, personnelFixture(t))
	require.NoError(t, err)

	require.Len(t, res.Activities, 1)
	act := res.Activities[0]
	assert.Equal(t, 1, act.Number)
	assert.Equal(t, "(1) Gastos de personal", act.Description)
	assert.Equal(t, 1500.00, act.Total)

	require.Len(t, act.Tasks, 1)
	task := act.Tasks[0]
	assert.Equal(t, "1.1 Asistente de investigación", task.Name)
	assert.Equal(t, "Contrato de servicios", task.Detail)
	assert.Equal(t, "510105", task.BudgetItem)
	assert.Equal(t, 2.0, task.Quantity)
	assert.Equal(t, 100.0, task.UnitPrice)
	assert.Equal(t, 200.00, task.Total)
	assert.Equal(t, 200.00, task.Programming[SumanKey])
	assert.Equal(t, map[string]float64{
		"2025-01-01": 50,
		"2025-02-01": 50,
		"2025-03-01": 100,
		SumanKey:     200,
	}, task.Programming)

	assert.True(t, res.Total.IsZero())
}

func TestParseTotalRow(t *testing.T) {
	f := personnelFixture(t)
	setCells(t, f, map[string]interface{}{
		"C10": "TOTAL PRESUPUESTO POA-2025",
		"G10": 1500.0,
		"J10": 50.0,
		"K10": 50.0,
		"L10": 100.0,
		"M10": 0,
		"V10": 200.0,
		"C12": "(7) ignored after the total row",
	})

	res, err := parseFixture(t, f)
	require.NoError(t, err)
	assert.Equal(t, "TOTAL PRESUPUESTO POA-2025", res.Total.Description)
	assert.Equal(t, 1500.0, res.Total.Total)
	assert.Equal(t, map[string]float64{
		"2025-01-01": 50,
		"2025-02-01": 50,
		"2025-03-01": 100,
		SumanKey:     200,
	}, res.Total.Programming)
	assert.Len(t, res.Activities, 1)
}

func TestParseZeroTotalRowIsOmitted(t *testing.T) {
	f := personnelFixture(t)
	setCells(t, f, map[string]interface{}{
		"C10": "TOTAL PRESUPUESTO POA-2025",
		"G10": 0,
	})

	res, err := parseFixture(t, f)
	require.NoError(t, err)
	assert.True(t, res.Total.IsZero())

	out, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"total_poa":{}`)
}

func TestParseBlankAnchorRowsAreSkipped(t *testing.T) {
	f := personnelFixture(t)
	setCells(t, f, map[string]interface{}{
		"D10": "stray note",
		"C11": "1.2 Viáticos",
		"E11": "530303",
		"F11": 1,
		"H11": 80,
		"I11": 80,
	})

	res, err := parseFixture(t, f)
	require.NoError(t, err)
	require.Len(t, res.Activities[0].Tasks, 2)
	task := res.Activities[0].Tasks[1]
	assert.Equal(t, "1.2 Viáticos", task.Name)
	assert.Equal(t, map[string]float64{SumanKey: 0}, task.Programming)
}

func TestParseSheetNotFound(t *testing.T) {
	_, err := Parse(workbookBytes(t, personnelFixture(t)), "Hoja1")
	pe := requireParseError(t, err, KindSheetNotFound)
	assert.Equal(t, []string{fixtureSheet}, pe.Sheets)
	assert.Contains(t, pe.Error(), fixtureSheet)
}

func TestParseInvalidWorkbook(t *testing.T) {
	_, err := Parse([]byte("not a workbook"), fixtureSheet)
	requireParseError(t, err, KindInvalidWorkbook)
}

func TestParseHeaderErrors(t *testing.T) {
	tests := []struct {
		name  string
		cells map[string]interface{}
		kind  ErrorKind
		check func(t *testing.T, pe *ParseError)
	}{
		{
			name:  "no anchor",
			cells: map[string]interface{}{"C8": "Gastos de personal"},
			kind:  KindAnchorNotFound,
		},
		{
			name:  "total column missing",
			cells: map[string]interface{}{"G7": ""},
			kind:  KindTotalColumnMissing,
		},
		{
			name:  "total column ambiguous",
			cells: map[string]interface{}{"B7": "Total por actividad"},
			kind:  KindTotalColumnAmbiguous,
			check: func(t *testing.T, pe *ParseError) {
				assert.Equal(t, []string{"B7", "G7"}, pe.Cells)
			},
		},
		{
			name:  "total column label only partially matching",
			cells: map[string]interface{}{"G7": "SUBTOTAL POR ACTIVIDAD"},
			kind:  KindTotalColumnMissing,
		},
		{
			name:  "suman missing",
			cells: map[string]interface{}{"V8": ""},
			kind:  KindSumanMissing,
		},
		{
			name:  "duplicate header",
			cells: map[string]interface{}{"J8": "TOTAL"},
			kind:  KindDuplicateHeader,
			check: func(t *testing.T, pe *ParseError) {
				assert.Equal(t, HeaderTotal, pe.Header)
				assert.Equal(t, []string{"J8"}, pe.Cells)
			},
		},
		{
			name:  "invalid header",
			cells: map[string]interface{}{"K8": "OBSERVACIONES"},
			kind:  KindInvalidHeader,
			check: func(t *testing.T, pe *ParseError) {
				assert.Equal(t, "OBSERVACIONES", pe.Found)
				assert.Contains(t, pe.Error(), "K8")
			},
		},
		{
			name:  "identical dates",
			cells: map[string]interface{}{"K8": "2025-01-01"},
			kind:  KindRepeatedMonth,
			check: func(t *testing.T, pe *ParseError) {
				assert.Equal(t, []string{"J8", "K8"}, pe.Cells)
			},
		},
		{
			name:  "same month twice",
			cells: map[string]interface{}{"K8": "15/01/2025"},
			kind:  KindRepeatedMonth,
			check: func(t *testing.T, pe *ParseError) {
				assert.Equal(t, []string{"J8", "K8"}, pe.Cells)
			},
		},
		{
			name:  "eleven months",
			cells: map[string]interface{}{"U8": "SUMAN", "V8": ""},
			kind:  KindMonthCount,
			check: func(t *testing.T, pe *ParseError) {
				assert.Equal(t, 11, pe.Count)
			},
		},
		{
			name:  "thirteen months",
			cells: map[string]interface{}{"V8": "2026-01-01", "W8": "SUMAN"},
			kind:  KindMonthCount,
			check: func(t *testing.T, pe *ParseError) {
				assert.Equal(t, 13, pe.Count)
			},
		},
		{
			name:  "missing unit price",
			cells: map[string]interface{}{"H8": "2025-12-01", "U8": "SUMAN", "V8": ""},
			kind:  KindMissingHeaders,
			check: func(t *testing.T, pe *ParseError) {
				assert.Equal(t, []string{HeaderUnitPrice}, pe.Missing)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := personnelFixture(t)
			setCells(t, f, tt.cells)
			_, err := parseFixture(t, f)
			pe := requireParseError(t, err, tt.kind)
			if tt.check != nil {
				tt.check(t, pe)
			}
		})
	}
}

func TestParseIgnoresBannerTextMentioningTotalLabel(t *testing.T) {
	f := personnelFixture(t)
	setCells(t, f, map[string]interface{}{"V7": "Ver TOTAL POR ACTIVIDAD en G"})

	result, err := parseFixture(t, f)
	require.NoError(t, err)
	require.Len(t, result.Activities, 1)
	assert.Equal(t, 1500.0, result.Activities[0].Total)
}

func TestParseHeaderAcceptsWrappedText(t *testing.T) {
	f := personnelFixture(t)
	setCells(t, f, map[string]interface{}{
		"G7": "TOTAL POR\nACTIVIDAD",
		"E8": "ITEM\nPRESUPUESTARIO",
		"F8": "Cantidad\n(Meses de contrato)",
		"H8": "  precio   unitario ",
	})
	_, err := parseFixture(t, f)
	assert.NoError(t, err)
}

func TestParseActivitySequence(t *testing.T) {
	f := personnelFixture(t)
	setCells(t, f, map[string]interface{}{
		"C10": "(2) Viajes técnicos",
		"C11": "2.1 Pasajes",
		"E11": "530301",
		"C12": "(4) Equipos",
	})

	_, err := parseFixture(t, f)
	pe := requireParseError(t, err, KindActivitySequence)
	assert.Equal(t, "3", pe.Expected)
	assert.Equal(t, "(2) Viajes técnicos", pe.Previous)
	assert.Equal(t, []string{"C12"}, pe.Cells)
	assert.Contains(t, pe.Error(), "(3)")
}

func TestParseTaskCellErrors(t *testing.T) {
	tests := []struct {
		name  string
		cells map[string]interface{}
		kind  ErrorKind
		cell  string
	}{
		{"text quantity", map[string]interface{}{"F9": "dos"}, KindNotNumeric, "F9"},
		{"text total", map[string]interface{}{"I9": "doscientos"}, KindNotNumeric, "I9"},
		{"text month", map[string]interface{}{"K9": "N/A"}, KindNotNumeric, "K9"},
		{"text suman", map[string]interface{}{"V9": "?"}, KindNotNumeric, "V9"},
		{"blank budget item", map[string]interface{}{"E9": "  "}, KindBlankBudgetItem, "E9"},
		{"text budget item", map[string]interface{}{"E9": "5101-05"}, KindNotNumeric, "E9"},
		{"hex budget item", map[string]interface{}{"E9": "0x10"}, KindNotNumeric, "E9"},
		{"text activity total", map[string]interface{}{"G8": "mil"}, KindNotNumeric, "G8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := personnelFixture(t)
			setCells(t, f, tt.cells)
			_, err := parseFixture(t, f)
			pe := requireParseError(t, err, tt.kind)
			assert.Equal(t, []string{tt.cell}, pe.Cells)
			assert.Contains(t, pe.Error(), tt.cell)
		})
	}
}

func TestParseNumericText(t *testing.T) {
	f := personnelFixture(t)
	setCells(t, f, map[string]interface{}{
		"F9": " 12.5 ",
		"H9": "",
		"E9": 530811,
	})

	res, err := parseFixture(t, f)
	require.NoError(t, err)
	task := res.Activities[0].Tasks[0]
	assert.Equal(t, 12.5, task.Quantity)
	assert.Equal(t, 0.0, task.UnitPrice)
	assert.Equal(t, "530811", task.BudgetItem)
}
