package poaexcel

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleRecords() []TaskRecord {
	base := TaskRecord{POAYear: "2025", ProjectCode: "PIIF-25-01"}
	r1 := base
	r1.ActivityNumber = 1
	r1.ActivityDescription = "Gastos de personal"
	r1.Name = "1.1 Asistente de investigación"
	r1.Detail = "Contrato de servicios"
	r1.BudgetItem = "510105"
	r1.Quantity = 2
	r1.UnitPrice = 100
	r1.Total = 200
	r1.MonthlyProgramming = map[string]float64{"enero": 50, "febrero": 150}

	r2 := base
	r2.ActivityNumber = 2
	r2.ActivityDescription = "(2) Equipos"
	r2.Name = "2.1 Laptop"
	r2.BudgetItem = "840104"
	r2.Quantity = 1
	r2.UnitPrice = 1200.5
	r2.Total = 1200.5
	r2.MonthlyProgramming = map[string]float64{"Marzo": 1200.5}

	r3 := base
	r3.ActivityDescription = "Gastos de personal"
	r3.Name = "1.2 Viáticos"
	r3.BudgetItem = "530303"
	r3.Quantity = 3
	r3.UnitPrice = 50
	r3.Total = 150
	r3.MonthlyProgramming = map[string]float64{"abril": 150}

	return []TaskRecord{r1, r2, r3}
}

func openGenerated(t *testing.T, content []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func cellValue(t *testing.T, f *excelize.File, sheet, axis string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, axis, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	return v
}

func cellFormula(t *testing.T, f *excelize.File, sheet, axis string) string {
	t.Helper()
	v, err := f.GetCellFormula(sheet, axis)
	require.NoError(t, err)
	return v
}

func TestGenerateLayout(t *testing.T) {
	content, err := Generate(sampleRecords(), false)
	require.NoError(t, err)

	f := openGenerated(t, content)
	const sheet = "POA 2025"
	assert.Equal(t, []string{sheet}, f.GetSheetList())

	assert.Equal(t, "VICERRECTORADO DE INVESTIGACIÓN, INNOVACIÓN Y VINCULACIÓN", cellValue(t, f, sheet, "A2"))
	assert.Equal(t, "PROGRAMACIÓN PARA EL POA 2025", cellValue(t, f, sheet, "A4"))
	assert.Equal(t, "CODIGO DE PROYECTO: PIIF-25-01", cellValue(t, f, sheet, "A6"))
	assert.Equal(t, "TOTAL POR\nACTIVIDAD", cellValue(t, f, sheet, "G7"))
	assert.Equal(t, "PROGRAMACIÓN DE EJECUCIÓN 2026", cellValue(t, f, sheet, "H7"))

	// Activity 1 shares the column header row.
	assert.Equal(t, "(1) Gastos de personal", cellValue(t, f, sheet, "A8"))
	assert.Equal(t, "DESCRIPCIÓN O DETALLE", cellValue(t, f, sheet, "B8"))
	assert.Equal(t, "SUMAN", cellValue(t, f, sheet, "T8"))
	assert.Equal(t, "SUM(F9:F10)", cellFormula(t, f, sheet, "G8"))
	assert.Equal(t, "350", cellValue(t, f, sheet, "G8"))

	assert.Equal(t, "1.1 Asistente de investigación", cellValue(t, f, sheet, "A9"))
	assert.Equal(t, "510105", cellValue(t, f, sheet, "C9"))
	assert.Equal(t, "D9*E9", cellFormula(t, f, sheet, "F9"))
	assert.Equal(t, "200", cellValue(t, f, sheet, "F9"))
	assert.Equal(t, "SUM(H9:S9)", cellFormula(t, f, sheet, "T9"))
	assert.Equal(t, "1.2 Viáticos", cellValue(t, f, sheet, "A10"))

	// Later activities repeat the column headers on their own row.
	assert.Equal(t, "(2) Equipos", cellValue(t, f, sheet, "A11"))
	assert.Equal(t, "ITEM\nPRESUPUESTARIO", cellValue(t, f, sheet, "C11"))
	assert.Equal(t, "SUM(F12:F12)", cellFormula(t, f, sheet, "G11"))

	assert.Equal(t, "TOTAL PRESUPUESTO POA-2025", cellValue(t, f, sheet, "A13"))
	assert.Equal(t, "G8+G11", cellFormula(t, f, sheet, "G13"))
	assert.Equal(t, "1550.5", cellValue(t, f, sheet, "G13"))
	assert.Equal(t, "SUM(H9:H10,H12:H12)", cellFormula(t, f, sheet, "H13"))
	assert.Equal(t, "SUM(T9:T10,T12:T12)", cellFormula(t, f, sheet, "T13"))

	notes := cellValue(t, f, sheet, "A15")
	assert.Contains(t, notes, "Nota1: La planificación del POA 2025")
	assert.Contains(t, notes, "Nota 3:")

	width, err := f.GetColWidth(sheet, "A")
	require.NoError(t, err)
	assert.Equal(t, 45.0, width)
}

func TestGenerateRoundTrip(t *testing.T) {
	content, err := Generate(sampleRecords(), false)
	require.NoError(t, err)

	res, err := Parse(content, SheetName("2025"))
	require.NoError(t, err)

	require.Len(t, res.Activities, 2)
	first, second := res.Activities[0], res.Activities[1]
	assert.Equal(t, "(1) Gastos de personal", first.Description)
	assert.Equal(t, 350.0, first.Total)
	require.Len(t, first.Tasks, 2)
	assert.Equal(t, "1.1 Asistente de investigación", first.Tasks[0].Name)
	assert.Equal(t, "1.2 Viáticos", first.Tasks[1].Name)

	task := first.Tasks[0]
	assert.Equal(t, "Contrato de servicios", task.Detail)
	assert.Equal(t, "510105", task.BudgetItem)
	assert.Equal(t, 2.0, task.Quantity)
	assert.Equal(t, 100.0, task.UnitPrice)
	assert.Equal(t, 200.0, task.Total)
	assert.Len(t, task.Programming, 13)
	assert.Equal(t, 50.0, task.Programming["2025-01-01"])
	assert.Equal(t, 150.0, task.Programming["2025-02-01"])
	assert.Equal(t, 0.0, task.Programming["2025-12-01"])
	assert.Equal(t, 200.0, task.Programming[SumanKey])

	assert.Equal(t, "(2) Equipos", second.Description)
	assert.Equal(t, 1200.5, second.Total)
	assert.Equal(t, 1200.5, second.Tasks[0].Programming["2025-03-01"])

	assert.Equal(t, 1550.5, res.Total.Total)
	assert.Equal(t, map[string]float64{
		"2025-01-01": 50,
		"2025-02-01": 150,
		"2025-03-01": 1200.5,
		"2025-04-01": 150,
		SumanKey:     1550.5,
	}, res.Total.Programming)

	again, err := Generate(Flatten(res, "2025", "PIIF-25-01"), false)
	require.NoError(t, err)
	res2, err := Parse(again, SheetName("2025"))
	require.NoError(t, err)
	assert.Equal(t, res, res2)
}

func TestGenerateQuantityStrictness(t *testing.T) {
	var records []TaskRecord
	for i := 1; i <= 7; i++ {
		records = append(records, TaskRecord{
			POAYear:             "2025",
			ProjectCode:         "PIS-25-03",
			ActivityNumber:      1,
			ActivityDescription: "Servicios técnicos",
			Name:                fmt.Sprintf("1.%d Servicio %d", i, i),
			BudgetItem:          "530606",
			Quantity:            1,
			UnitPrice:           10,
		})
	}
	content, err := Generate(records, false)
	require.NoError(t, err)
	sheet := SheetName("2025")

	edit := func(value string) []byte {
		f := openGenerated(t, content)
		require.NoError(t, f.SetCellValue(sheet, "D15", value))
		return workbookBytes(t, f)
	}

	_, err = Parse(edit("N/A"), sheet)
	pe := requireParseError(t, err, KindNotNumeric)
	assert.Equal(t, []string{"D15"}, pe.Cells)
	assert.Contains(t, err.Error(), "D15")

	res, err := Parse(edit("12.5"), sheet)
	require.NoError(t, err)
	tasks := res.Activities[0].Tasks
	require.Len(t, tasks, 7)
	assert.Equal(t, 12.5, tasks[6].Quantity)
}

func TestGenerateEmptyPOA(t *testing.T) {
	records := []TaskRecord{{POAYear: "2025", ProjectCode: "PVIF-25-02"}}
	content, err := Generate(records, true)
	require.NoError(t, err)

	f := openGenerated(t, content)
	const sheet = "POA 2025"
	assert.Equal(t, "CODIGO DE PROYECTO: PVIF-25-02", cellValue(t, f, sheet, "A6"))
	assert.Equal(t, "DESCRIPCIÓN O DETALLE", cellValue(t, f, sheet, "B8"))
	assert.Equal(t, "", cellValue(t, f, sheet, "A8"))
	assert.Equal(t, "TOTAL PRESUPUESTO POA-2025", cellValue(t, f, sheet, "A9"))

	_, err = Parse(content, sheet)
	requireParseError(t, err, KindAnchorNotFound)
}

func TestGenerateWithoutRecordsUsesClock(t *testing.T) {
	clock := func() time.Time { return time.Date(2030, 5, 1, 0, 0, 0, 0, time.UTC) }
	content, err := NewGenerator(WithClock(clock)).Generate(nil, true)
	require.NoError(t, err)

	f := openGenerated(t, content)
	assert.Equal(t, []string{"POA"}, f.GetSheetList())
	assert.Equal(t, "PROGRAMACIÓN DE EJECUCIÓN 2031", cellValue(t, f, "POA", "H7"))
}

func TestGenerateWithTemplate(t *testing.T) {
	tmpl := DefaultTemplate()
	tmpl.Letterhead[1] = "DIRECCIÓN DE VINCULACIÓN"
	tmpl.Notes = []string{"Única nota del proyecto {code}"}

	content, err := NewGenerator(WithTemplate(tmpl)).Generate(sampleRecords(), false)
	require.NoError(t, err)

	f := openGenerated(t, content)
	assert.Equal(t, "DIRECCIÓN DE VINCULACIÓN", cellValue(t, f, "POA 2025", "A3"))
	assert.Equal(t, "Única nota del proyecto PIIF-25-01", cellValue(t, f, "POA 2025", "A15"))
}

func TestActivityLabel(t *testing.T) {
	tests := []struct {
		number int
		desc   string
		want   string
	}{
		{1, "Gastos de personal", "(1) Gastos de personal"},
		{2, "(2) Equipos", "(2) Equipos"},
		{3, "(7) Renumerada", "(3) Renumerada"},
		{4, "4. Publicaciones", "(4) Publicaciones"},
		{5, "5.1 Subactividad", "(5) 5.1 Subactividad"},
		{6, "(6)", "(6)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ActivityLabel(tt.number, tt.desc), tt.desc)
	}
}

func TestGroupRecords(t *testing.T) {
	records := []TaskRecord{
		{Name: "3.1 c"},
		{Name: "sin numero"},
		{Name: "1.1 a", ActivityDescription: "Primera"},
		{Name: "x", ActivityNumber: 3},
		{Name: "1.2 b"},
	}
	groups := groupRecords(records)
	require.Len(t, groups, 2)
	assert.Equal(t, 1, groups[0].number)
	assert.Equal(t, "(1) Primera", groups[0].label)
	assert.Len(t, groups[0].records, 2)
	assert.Equal(t, 3, groups[1].number)
	assert.Equal(t, "(3) Actividad 3", groups[1].label)
	assert.Equal(t, "3.1 c", groups[1].records[0].Name)
	assert.Equal(t, "x", groups[1].records[1].Name)
}
