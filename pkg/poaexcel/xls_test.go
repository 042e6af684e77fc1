package poaexcel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestIsLegacyWorkbook(t *testing.T) {
	assert.True(t, IsLegacyWorkbook(append([]byte{}, oleSignature...)))
	assert.False(t, IsLegacyWorkbook([]byte("PK\x03\x04")))
	assert.False(t, IsLegacyWorkbook(nil))

	f := excelize.NewFile()
	defer f.Close()
	assert.False(t, IsLegacyWorkbook(workbookBytes(t, f)))
}

func TestParseMalformedLegacyWorkbook(t *testing.T) {
	content := append(append([]byte{}, oleSignature...), make([]byte, 64)...)

	_, err := Parse(content, fixtureSheet)
	pe := requireParseError(t, err, KindInvalidWorkbook)
	assert.Error(t, pe.Unwrap())
}

func TestClassifyLegacyText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Cell
	}{
		{"blank", "  ", Cell{}},
		{"number", "1500", Cell{Kind: CellNumber, Number: 1500}},
		{"decimal", " 12.5 ", Cell{Kind: CellNumber, Number: 12.5}},
		{"date cell", "2025-03-01T00:00:00Z", Cell{Kind: CellDate, Time: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}},
		{"text", "(1) Gastos de personal", Cell{Kind: CellText, Text: "(1) Gastos de personal"}},
		{"date text", "2025-03-01", Cell{Kind: CellText, Text: "2025-03-01"}},
		{"hex stays text", "0x10", Cell{Kind: CellText, Text: "0x10"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyLegacyText(tt.raw)
			require.Equal(t, tt.want.Kind, got.Kind)
			assert.Equal(t, tt.want.Text, got.Text)
			assert.Equal(t, tt.want.Number, got.Number)
			assert.True(t, tt.want.Time.Equal(got.Time))
		})
	}
}

func TestParseGridFromLegacyCells(t *testing.T) {
	// Rows as the BIFF reader renders them.
	raw := [][]string{
		{"", "", "", "", "", "", "TOTAL POR ACTIVIDAD"},
		{"", "", "(1) Gastos de personal", "DESCRIPCIÓN O DETALLE", "ITEM PRESUPUESTARIO", "CANTIDAD", "1500", "PRECIO UNITARIO", "TOTAL"},
		{"", "", "1.1 Asistente", "Contrato", "510105", "2", "", "100", "200"},
	}
	for m := 1; m <= 12; m++ {
		raw[1] = append(raw[1], time.Date(2025, time.Month(m), 1, 0, 0, 0, 0, time.UTC).Format(time.RFC3339))
		raw[2] = append(raw[2], "")
	}
	raw[1] = append(raw[1], "SUMAN")
	raw[2] = append(raw[2], "200")
	raw[2][9] = "200"

	grid := make(Grid, len(raw))
	for r, row := range raw {
		grid[r] = make([]Cell, len(row))
		for c, v := range row {
			grid[r][c] = classifyLegacyText(v)
		}
	}

	result, err := parseGrid(grid)
	require.NoError(t, err)
	require.Len(t, result.Activities, 1)
	act := result.Activities[0]
	assert.Equal(t, 1500.0, act.Total)
	require.Len(t, act.Tasks, 1)
	assert.Equal(t, "510105", act.Tasks[0].BudgetItem)
	assert.Equal(t, 200.0, act.Tasks[0].Programming["2025-01-01"])
	assert.Equal(t, 200.0, act.Tasks[0].Programming[SumanKey])
}
