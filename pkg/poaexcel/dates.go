package poaexcel

import (
	"strconv"
	"strings"
	"time"
)

const dateKeyLayout = "2006-01-02"

var dateLikeLayouts = []string{
	"2006-1-2",
	"2/1/2006",
	"2006-1-2 15:04:05",
	"2/1/2006 15:04:05",
}

// ParseDateLike parses s with the accepted header date layouts:
// YYYY-MM-DD, DD/MM/YYYY and both of them followed by HH:MM:SS.
func ParseDateLike(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLikeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// IsDateLike reports whether s is a date in one of the accepted layouts.
func IsDateLike(s string) bool {
	_, ok := ParseDateLike(s)
	return ok
}

// IsNumericLike reports whether s, once trimmed, is a decimal number.
// Hexadecimal forms such as "0x10" are not numbers in a budget sheet.
func IsNumericLike(s string) bool {
	s = strings.TrimSpace(s)
	if isHexLiteral(s) {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func isHexLiteral(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

// Builtin number format ids that render dates or times.
var builtinDateFormats = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 18: true, 19: true, 20: true, 21: true, 22: true,
	27: true, 28: true, 29: true, 30: true, 31: true, 32: true, 33: true, 34: true, 35: true, 36: true,
	45: true, 46: true, 47: true,
	50: true, 51: true, 52: true, 53: true, 54: true, 55: true, 56: true, 57: true, 58: true,
}

func isDateNumFmt(id int, custom *string) bool {
	if builtinDateFormats[id] {
		return true
	}
	if custom == nil {
		return false
	}
	return customFormatHasDate(*custom)
}

// customFormatHasDate looks for y or d tokens outside quoted literals,
// bracketed sections and escaped characters.
func customFormatHasDate(format string) bool {
	inQuote, inBracket := false, false
	runes := []rune(strings.ToLower(format))
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case inQuote:
			if r == '"' {
				inQuote = false
			}
		case inBracket:
			if r == ']' {
				inBracket = false
			}
		case r == '"':
			inQuote = true
		case r == '[':
			inBracket = true
		case r == '\\' || r == '_' || r == '*':
			i++
		case r == 'y' || r == 'd':
			return true
		}
	}
	return false
}

var monthNames = [12]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// MonthName returns the lowercase Spanish month name used as the key of
// monthly programming maps.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m-1]
}

// MonthFromName resolves a Spanish month name, ignoring case and spaces.
func MonthFromName(name string) (time.Month, bool) {
	name = strings.TrimSpace(name)
	for i, n := range monthNames {
		if strings.EqualFold(n, name) {
			return time.Month(i + 1), true
		}
	}
	return 0, false
}
