package poaexcel

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	numFmtInteger = 1
	numFmtMonth   = 17 // mmm-yy
	moneyFormat   = `"$"#,##0.00`
)

// cellStyle is the subset of excelize.Style the POA layouts use.
type cellStyle struct {
	Bold       bool
	Size       float64
	Fill       string
	Horizontal string
	Wrap       bool
	Border     bool
	NumFmt     int
	Custom     string
}

// styleCache creates each distinct cellStyle once per workbook.
type styleCache struct {
	file  *excelize.File
	cache map[string]int
}

func newStyleCache(f *excelize.File) *styleCache {
	return &styleCache{file: f, cache: make(map[string]int)}
}

func (s *styleCache) get(tmpl cellStyle) (int, error) {
	key := fmt.Sprintf("%+v", tmpl)
	if id, ok := s.cache[key]; ok {
		return id, nil
	}

	style := &excelize.Style{
		Font: &excelize.Font{Bold: tmpl.Bold, Size: tmpl.Size, Family: "Calibri"},
		Alignment: &excelize.Alignment{
			Horizontal: tmpl.Horizontal,
			Vertical:   "center",
			WrapText:   tmpl.Wrap,
		},
		NumFmt: tmpl.NumFmt,
	}
	if tmpl.Size == 0 {
		style.Font.Size = 10
	}
	if tmpl.Fill != "" {
		style.Fill = excelize.Fill{
			Type:    "pattern",
			Color:   []string{strings.TrimPrefix(tmpl.Fill, "#")},
			Pattern: 1,
		}
	}
	if tmpl.Border {
		for _, side := range []string{"left", "top", "right", "bottom"} {
			style.Border = append(style.Border, excelize.Border{Type: side, Color: "000000", Style: 1})
		}
	}
	if tmpl.Custom != "" {
		custom := tmpl.Custom
		style.CustomNumFmt = &custom
	}

	id, err := s.file.NewStyle(style)
	if err == nil {
		s.cache[key] = id
	}
	return id, err
}

// poaStyles holds the style ids of the budget sheet.
type poaStyles struct {
	title       int
	code        int
	banner      int
	bannerTotal int
	header      int
	monthHeader int
	activity    int
	activityTot int
	text        int
	center      int
	quantity    int
	money       int
	totalLabel  int
	totalMoney  int
	note        int
}

func newPOAStyles(cache *styleCache, colors Colors) (poaStyles, error) {
	var (
		st  poaStyles
		err error
	)
	defs := []struct {
		dst  *int
		tmpl cellStyle
	}{
		{&st.title, cellStyle{Bold: true, Size: 12, Horizontal: "center"}},
		{&st.code, cellStyle{Bold: true, Size: 11, Horizontal: "left"}},
		{&st.banner, cellStyle{Bold: true, Fill: colors.Banner, Horizontal: "center", Border: true}},
		{&st.bannerTotal, cellStyle{Bold: true, Fill: colors.Header, Horizontal: "center", Wrap: true, Border: true}},
		{&st.header, cellStyle{Bold: true, Fill: colors.Header, Horizontal: "center", Wrap: true, Border: true}},
		{&st.monthHeader, cellStyle{Bold: true, Fill: colors.Header, Horizontal: "center", Border: true, NumFmt: numFmtMonth}},
		{&st.activity, cellStyle{Bold: true, Fill: colors.Activity, Horizontal: "left", Wrap: true, Border: true}},
		{&st.activityTot, cellStyle{Bold: true, Fill: colors.Activity, Horizontal: "right", Border: true, Custom: moneyFormat}},
		{&st.text, cellStyle{Horizontal: "left", Wrap: true, Border: true}},
		{&st.center, cellStyle{Horizontal: "center", Border: true}},
		{&st.quantity, cellStyle{Horizontal: "center", Border: true, NumFmt: numFmtInteger}},
		{&st.money, cellStyle{Horizontal: "right", Border: true, Custom: moneyFormat}},
		{&st.totalLabel, cellStyle{Bold: true, Fill: colors.Total, Horizontal: "center", Border: true}},
		{&st.totalMoney, cellStyle{Bold: true, Fill: colors.Total, Horizontal: "right", Border: true, Custom: moneyFormat}},
		{&st.note, cellStyle{Size: 9, Horizontal: "left", Wrap: true}},
	}
	for _, d := range defs {
		if *d.dst, err = cache.get(d.tmpl); err != nil {
			return poaStyles{}, err
		}
	}
	return st, nil
}
