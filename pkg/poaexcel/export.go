package poaexcel

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// TaskRecord is one flattened task as stored for a POA, carrying the
// identifying data of its POA and activity.
type TaskRecord struct {
	POAYear             string             `json:"anio_poa"`
	ProjectCode         string             `json:"codigo_proyecto"`
	ActivityNumber      int                `json:"numero_actividad,omitempty"`
	ActivityDescription string             `json:"descripcion_actividad"`
	Name                string             `json:"nombre"`
	Detail              string             `json:"detalle_descripcion"`
	BudgetItem          string             `json:"item_presupuestario"`
	Quantity            float64            `json:"cantidad"`
	UnitPrice           float64            `json:"precio_unitario"`
	Total               float64            `json:"total"`
	MonthlyProgramming  map[string]float64 `json:"programacion_mensual"`
}

// Month returns the programmed value for m, matching month names without
// regard to case.
func (r TaskRecord) Month(m time.Month) float64 {
	name := MonthName(m)
	if v, ok := r.MonthlyProgramming[name]; ok {
		return v
	}
	for k, v := range r.MonthlyProgramming {
		if strings.EqualFold(strings.TrimSpace(k), name) {
			return v
		}
	}
	return 0
}

// Fixed columns of the budget sheet, zero-based.
const (
	colName = iota
	colDetail
	colBudgetItem
	colQuantity
	colUnitPrice
	colTotal
	colActivityTotal
	colFirstMonth
	colSuman = colFirstMonth + 12
)

// Fixed rows of the budget sheet, zero-based.
const (
	letterheadRow = 1
	bannerRow     = 6
	headerRow     = 7
)

var columnWidths = []float64{45, 45, 16, 11, 12, 12, 18}

var (
	taskOrdinal  = regexp.MustCompile(`^\s*(\d+)\.`)
	activityLead = regexp.MustCompile(`^\s*(?:\(\d+\)|\d+\.)(?:\s+|$)`)
)

// Generator renders task records into the POA budget workbook.
type Generator struct {
	template Template
	now      func() time.Time
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithTemplate replaces the letterhead, notes and colors.
func WithTemplate(t Template) GeneratorOption {
	return func(g *Generator) {
		g.template = t
	}
}

// WithClock sets the clock used when the POA year is not a number.
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) {
		g.now = now
	}
}

func NewGenerator(opts ...GeneratorOption) *Generator {
	g := &Generator{template: DefaultTemplate(), now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate renders records with the default template.
func Generate(records []TaskRecord, poaEmpty bool) ([]byte, error) {
	return NewGenerator().Generate(records, poaEmpty)
}

// Generate returns the .xlsx bytes. With poaEmpty only the letterhead,
// the headers and a zero total row are written.
func (g *Generator) Generate(records []TaskRecord, poaEmpty bool) ([]byte, error) {
	f, err := g.Build(records, poaEmpty)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteTo streams the workbook to w.
func (g *Generator) WriteTo(w io.Writer, records []TaskRecord, poaEmpty bool) error {
	f, err := g.Build(records, poaEmpty)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// SheetName is the name of the generated budget sheet for a POA year.
func SheetName(year string) string {
	return strings.TrimSpace("POA " + strings.TrimSpace(year))
}

// Build lays out the workbook in memory.
func (g *Generator) Build(records []TaskRecord, poaEmpty bool) (*excelize.File, error) {
	var year, code string
	if len(records) > 0 {
		year = strings.TrimSpace(records[0].POAYear)
		code = strings.TrimSpace(records[0].ProjectCode)
	}
	yearNum, err := strconv.Atoi(year)
	if err != nil {
		yearNum = g.now().Year()
	}

	f := excelize.NewFile()
	sheet := SheetName(year)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	st, err := newPOAStyles(newStyleCache(f), g.template.Colors)
	if err != nil {
		return nil, fmt.Errorf("create styles: %w", err)
	}

	w := &sheetWriter{file: f, sheet: sheet, st: st}
	w.layoutColumns()
	w.letterhead(g.template, year, code)
	w.banner(yearNum)
	w.columnHeaders(headerRow, yearNum)

	var groups []activityGroup
	if !poaEmpty {
		groups = groupRecords(records)
	}

	var (
		blocks  []taskBlock
		summary rowValues
	)
	activityRow, next := headerRow, headerRow+1
	for i, grp := range groups {
		if i > 0 {
			activityRow = next
			w.columnHeaders(activityRow, yearNum)
		}
		w.value(activityRow, colName, grp.label, st.activity)

		first := activityRow + 1
		var subtotal float64
		for j, rec := range grp.records {
			vals := w.task(first+j, rec)
			subtotal += vals.total
			summary.add(vals)
		}
		last := first + len(grp.records) - 1
		w.formula(activityRow, colActivityTotal,
			fmt.Sprintf("SUM(%s)", rangeName(first, colTotal, last, colTotal)), subtotal, st.activityTot)

		blocks = append(blocks, taskBlock{first: first, last: last, subtotalCell: CellName(activityRow, colActivityTotal)})
		next = last + 1
	}

	w.totals(next, year, blocks, summary)
	w.notes(next+2, g.template.Notes, year, code)
	if w.err != nil {
		f.Close()
		return nil, fmt.Errorf("render sheet: %w", w.err)
	}
	return f, nil
}

type activityGroup struct {
	number  int
	label   string
	records []TaskRecord
}

type taskBlock struct {
	first, last  int
	subtotalCell string
}

type rowValues struct {
	total  float64
	months [12]float64
	suman  float64
}

func (v *rowValues) add(o rowValues) {
	v.total += o.total
	v.suman += o.suman
	for i := range v.months {
		v.months[i] += o.months[i]
	}
}

// ActivityNumber resolves the activity ordinal of a record: the explicit
// number when set, else the leading "N." of the task name.
func ActivityNumber(rec TaskRecord) (int, bool) {
	if rec.ActivityNumber > 0 {
		return rec.ActivityNumber, true
	}
	m := taskOrdinal.FindStringSubmatch(rec.Name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// ActivityLabel formats "(N) description", dropping any numeric prefix the
// stored description already carries.
func ActivityLabel(number int, description string) string {
	rest := strings.TrimSpace(activityLead.ReplaceAllString(description, ""))
	if rest == "" {
		return fmt.Sprintf("(%d)", number)
	}
	return fmt.Sprintf("(%d) %s", number, rest)
}

// groupRecords buckets records by activity, ascending, keeping input order
// inside each activity. Records without a resolvable activity are skipped.
func groupRecords(records []TaskRecord) []activityGroup {
	byNumber := make(map[int]*activityGroup)
	var order []int
	for _, rec := range records {
		n, ok := ActivityNumber(rec)
		if !ok {
			continue
		}
		grp, seen := byNumber[n]
		if !seen {
			desc := strings.TrimSpace(rec.ActivityDescription)
			if desc == "" {
				desc = fmt.Sprintf("Actividad %d", n)
			}
			grp = &activityGroup{number: n, label: ActivityLabel(n, desc)}
			byNumber[n] = grp
			order = append(order, n)
		}
		grp.records = append(grp.records, rec)
	}

	sort.Ints(order)
	groups := make([]activityGroup, len(order))
	for i, n := range order {
		groups[i] = *byNumber[n]
	}
	return groups
}

// sheetWriter keeps the first error so layout code reads top to bottom.
type sheetWriter struct {
	file  *excelize.File
	sheet string
	st    poaStyles
	err   error
}

func (w *sheetWriter) value(row, col int, v interface{}, style int) {
	if w.err != nil {
		return
	}
	cell := CellName(row, col)
	if w.err = w.file.SetCellValue(w.sheet, cell, v); w.err != nil {
		return
	}
	w.err = w.file.SetCellStyle(w.sheet, cell, cell, style)
}

// formula writes the cached result first so readers that do not
// recalculate still see the value.
func (w *sheetWriter) formula(row, col int, formula string, cached float64, style int) {
	w.value(row, col, cached, style)
	if w.err != nil {
		return
	}
	w.err = w.file.SetCellFormula(w.sheet, CellName(row, col), formula)
}

func (w *sheetWriter) style(row, col, style int) {
	if w.err != nil {
		return
	}
	cell := CellName(row, col)
	w.err = w.file.SetCellStyle(w.sheet, cell, cell, style)
}

func (w *sheetWriter) merge(fromRow, fromCol, toRow, toCol, style int) {
	if w.err != nil {
		return
	}
	from, to := CellName(fromRow, fromCol), CellName(toRow, toCol)
	if w.err = w.file.MergeCell(w.sheet, from, to); w.err != nil {
		return
	}
	w.err = w.file.SetCellStyle(w.sheet, from, to, style)
}

func (w *sheetWriter) rowHeight(row int, height float64) {
	if w.err != nil {
		return
	}
	w.err = w.file.SetRowHeight(w.sheet, row+1, height)
}

func (w *sheetWriter) layoutColumns() {
	for i, width := range columnWidths {
		if w.err != nil {
			return
		}
		w.err = w.file.SetColWidth(w.sheet, ColumnName(i), ColumnName(i), width)
	}
	if w.err != nil {
		return
	}
	if w.err = w.file.SetColWidth(w.sheet, ColumnName(colFirstMonth), ColumnName(colSuman-1), 11); w.err != nil {
		return
	}
	w.err = w.file.SetColWidth(w.sheet, ColumnName(colSuman), ColumnName(colSuman), 12)
}

func (w *sheetWriter) letterhead(t Template, year, code string) {
	r := strings.NewReplacer("{year}", year, "{code}", code)
	for i, line := range t.Letterhead {
		row := letterheadRow + i
		w.value(row, 0, strings.TrimSpace(r.Replace(line)), w.st.title)
		w.merge(row, 0, row, colActivityTotal, w.st.title)
	}
	row := letterheadRow + len(t.Letterhead)
	w.value(row, 0, strings.TrimSpace(r.Replace(t.CodeLabel)), w.st.code)
	w.merge(row, 0, row, colActivityTotal, w.st.code)
}

func (w *sheetWriter) banner(year int) {
	w.value(bannerRow, colActivityTotal, "TOTAL POR\nACTIVIDAD", w.st.bannerTotal)
	w.value(bannerRow, colFirstMonth, fmt.Sprintf("PROGRAMACIÓN DE EJECUCIÓN %d", year+1), w.st.banner)
	w.merge(bannerRow, colFirstMonth, bannerRow, colSuman, w.st.banner)
	w.rowHeight(bannerRow, 30)
}

func (w *sheetWriter) columnHeaders(row, year int) {
	w.value(row, colDetail, "DESCRIPCIÓN O DETALLE", w.st.header)
	w.value(row, colBudgetItem, "ITEM\nPRESUPUESTARIO", w.st.header)
	w.value(row, colQuantity, "CANTIDAD\n(Meses de contrato)", w.st.header)
	w.value(row, colUnitPrice, "PRECIO\nUNITARIO", w.st.header)
	w.value(row, colTotal, "TOTAL", w.st.header)
	for m := 0; m < 12; m++ {
		w.value(row, colFirstMonth+m, time.Date(year, time.Month(m+1), 1, 0, 0, 0, 0, time.UTC), w.st.monthHeader)
	}
	w.value(row, colSuman, "SUMAN", w.st.header)
	w.rowHeight(row, 30)
}

func (w *sheetWriter) task(row int, rec TaskRecord) rowValues {
	vals := rowValues{total: rec.Quantity * rec.UnitPrice}

	w.value(row, colName, rec.Name, w.st.text)
	w.value(row, colDetail, rec.Detail, w.st.text)
	w.value(row, colBudgetItem, strings.TrimSpace(rec.BudgetItem), w.st.center)
	w.value(row, colQuantity, rec.Quantity, w.st.quantity)
	w.value(row, colUnitPrice, rec.UnitPrice, w.st.money)
	w.formula(row, colTotal, CellName(row, colQuantity)+"*"+CellName(row, colUnitPrice), vals.total, w.st.money)
	w.style(row, colActivityTotal, w.st.text)

	for m := 0; m < 12; m++ {
		v := rec.Month(time.Month(m + 1))
		vals.months[m] = v
		vals.suman += v
		w.value(row, colFirstMonth+m, v, w.st.money)
	}
	w.formula(row, colSuman,
		fmt.Sprintf("SUM(%s)", rangeName(row, colFirstMonth, row, colSuman-1)), vals.suman, w.st.money)
	return vals
}

// totals writes the terminal row. Column sums only cover task rows so the
// repeated date headers of later activities are left out.
func (w *sheetWriter) totals(row int, year string, blocks []taskBlock, sum rowValues) {
	label := LabelTotalBudget + " POA"
	if year != "" {
		label += "-" + year
	}
	w.value(row, colName, label, w.st.totalLabel)
	w.merge(row, colName, row, colTotal, w.st.totalLabel)

	if len(blocks) == 0 {
		w.value(row, colActivityTotal, 0, w.st.totalMoney)
		for c := colFirstMonth; c <= colSuman; c++ {
			w.value(row, c, 0, w.st.totalMoney)
		}
		return
	}

	subtotals := make([]string, len(blocks))
	for i, b := range blocks {
		subtotals[i] = b.subtotalCell
	}
	w.formula(row, colActivityTotal, strings.Join(subtotals, "+"), sum.total, w.st.totalMoney)
	for m := 0; m < 12; m++ {
		col := colFirstMonth + m
		w.formula(row, col, columnSum(blocks, col), sum.months[m], w.st.totalMoney)
	}
	w.formula(row, colSuman, columnSum(blocks, colSuman), sum.suman, w.st.totalMoney)
}

func columnSum(blocks []taskBlock, col int) string {
	ranges := make([]string, len(blocks))
	for i, b := range blocks {
		ranges[i] = rangeName(b.first, col, b.last, col)
	}
	return fmt.Sprintf("SUM(%s)", strings.Join(ranges, ","))
}

func (w *sheetWriter) notes(row int, notes []string, year, code string) {
	r := strings.NewReplacer("{year}", year, "{code}", code)
	w.value(row, colName, r.Replace(strings.Join(notes, "\n\n")), w.st.note)
	w.merge(row, colName, row+2, colActivityTotal, w.st.note)
	for r := row; r <= row+2; r++ {
		w.rowHeight(r, 60)
	}
}
