package poaexcel

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ReportSheet is the sheet name of the consolidated POA report.
const ReportSheet = "Reporte POA"

// ReportRow is one task of the consolidated report across POAs.
type ReportRow struct {
	POAYear            string             `json:"anio_poa"`
	ProjectCode        string             `json:"codigo_proyecto"`
	ProjectType        string             `json:"tipo_proyecto"`
	ApprovedBudget     float64            `json:"presupuesto_aprobado"`
	Name               string             `json:"nombre"`
	Detail             string             `json:"detalle_descripcion"`
	BudgetItem         string             `json:"item_presupuestario"`
	Quantity           float64            `json:"cantidad"`
	UnitPrice          float64            `json:"precio_unitario"`
	Total              float64            `json:"total"`
	MonthlyProgramming map[string]float64 `json:"programacion_mensual"`
}

var reportColumns = []struct {
	header string
	width  float64
}{
	{"AÑO POA", 10},
	{"CODIGO PROYECTO", 15},
	{"Tipo de Proyecto", 15},
	{"Presupuesto Aprobado", 18},
	{"Tarea", 45},
	{"Detalle Descripción", 45},
	{"Item Presupuestario", 16},
	{"Cantidad", 8},
	{"Precio Unitario", 12},
	{"Total Tarea", 12},
}

// downloadZone is the fixed UTC-5 offset used for the download timestamp.
var downloadZone = time.FixedZone("UTC-5", -5*60*60)

// ReportStream writes the consolidated report row by row.
type ReportStream struct {
	file       *excelize.File
	stream     *excelize.StreamWriter
	writer     io.Writer
	currentRow int
	styles     reportStyles
}

type reportStyles struct {
	header, center, money, text int
}

// NewReportStream creates the report sheet and writes its header row.
func NewReportStream(w io.Writer) (*ReportStream, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), ReportSheet); err != nil {
		f.Close()
		return nil, err
	}

	cache := newStyleCache(f)
	var (
		st  reportStyles
		err error
	)
	for _, d := range []struct {
		dst  *int
		tmpl cellStyle
	}{
		{&st.header, cellStyle{Bold: true, Fill: "D9D9D9", Horizontal: "center", Wrap: true, Border: true}},
		{&st.center, cellStyle{Horizontal: "center", Wrap: true, Border: true}},
		{&st.money, cellStyle{Horizontal: "center", Wrap: true, Border: true, Custom: moneyFormat}},
		{&st.text, cellStyle{Horizontal: "left", Wrap: true, Border: true}},
	} {
		if *d.dst, err = cache.get(d.tmpl); err != nil {
			f.Close()
			return nil, err
		}
	}

	sw, err := f.NewStreamWriter(ReportSheet)
	if err != nil {
		f.Close()
		return nil, err
	}
	s := &ReportStream{file: f, stream: sw, writer: w, currentRow: 1, styles: st}
	if err := s.writeHeader(); err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

func (s *ReportStream) writeHeader() error {
	header := make([]interface{}, 0, len(reportColumns)+12)
	for i, col := range reportColumns {
		if err := s.stream.SetColWidth(i+1, i+1, col.width); err != nil {
			return err
		}
		header = append(header, excelize.Cell{StyleID: s.styles.header, Value: col.header})
	}
	first := len(reportColumns) + 1
	if err := s.stream.SetColWidth(first, first+11, 11); err != nil {
		return err
	}
	for m := time.January; m <= time.December; m++ {
		name := MonthName(m)
		header = append(header, excelize.Cell{StyleID: s.styles.header, Value: strings.ToUpper(name[:1]) + name[1:]})
	}
	return s.setRow(header)
}

// WriteRow appends one task row.
func (s *ReportStream) WriteRow(r ReportRow) error {
	row := []interface{}{
		excelize.Cell{StyleID: s.styles.center, Value: r.POAYear},
		excelize.Cell{StyleID: s.styles.center, Value: r.ProjectCode},
		excelize.Cell{StyleID: s.styles.center, Value: r.ProjectType},
		excelize.Cell{StyleID: s.styles.money, Value: r.ApprovedBudget},
		excelize.Cell{StyleID: s.styles.text, Value: r.Name},
		excelize.Cell{StyleID: s.styles.text, Value: r.Detail},
		excelize.Cell{StyleID: s.styles.center, Value: r.BudgetItem},
		excelize.Cell{StyleID: s.styles.center, Value: r.Quantity},
		excelize.Cell{StyleID: s.styles.money, Value: r.UnitPrice},
		excelize.Cell{StyleID: s.styles.money, Value: r.Total},
	}
	rec := TaskRecord{MonthlyProgramming: r.MonthlyProgramming}
	for m := time.January; m <= time.December; m++ {
		row = append(row, excelize.Cell{StyleID: s.styles.money, Value: rec.Month(m)})
	}
	return s.setRow(row)
}

// WriteRows appends every row in order.
func (s *ReportStream) WriteRows(rows []ReportRow) error {
	for i, r := range rows {
		if err := s.WriteRow(r); err != nil {
			return fmt.Errorf("write report row %d: %w", i+1, err)
		}
	}
	return nil
}

// Close writes the download footer one row below the data, flushes the
// sheet and writes the workbook to the output writer.
func (s *ReportStream) Close(generatedAt time.Time) error {
	defer s.file.Close()

	s.currentRow++
	footer := []interface{}{
		excelize.Cell{StyleID: s.styles.center, Value: "Fecha de descarga:"},
		excelize.Cell{StyleID: s.styles.center, Value: generatedAt.In(downloadZone).Format("02/01/2006 15:04")},
	}
	if err := s.setRow(footer); err != nil {
		return err
	}
	if err := s.stream.Flush(); err != nil {
		return err
	}
	return s.file.Write(s.writer)
}

func (s *ReportStream) setRow(values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, s.currentRow)
	if err != nil {
		return err
	}
	if err := s.stream.SetRow(cell, values); err != nil {
		return err
	}
	s.currentRow++
	return nil
}

// WriteReport streams rows as the consolidated report workbook.
func WriteReport(w io.Writer, rows []ReportRow, generatedAt time.Time) error {
	s, err := NewReportStream(w)
	if err != nil {
		return err
	}
	if err := s.WriteRows(rows); err != nil {
		s.file.Close()
		return err
	}
	return s.Close(generatedAt)
}
