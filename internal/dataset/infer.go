package dataset

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xiaot623/gogo/datachat/internal/domain"
)

var nullTokens = map[string]bool{
	"":     true,
	"null": true,
	"NULL": true,
	"N/A":  true,
	"n/a":  true,
	"NaN":  true,
	"nan":  true,
}

// Bare years are left out so that year columns stay numeric.
var dateFormats = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"02/01/2006",
	"2006/01/02",
	"Jan-2006",
	"January 2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// isNull reports whether a raw cell counts as a missing value.
func isNull(s string) bool {
	return nullTokens[strings.TrimSpace(s)]
}

// InferColumnType returns the dominant scalar type of a column. A type wins
// when at least 80% of the non-null values match it; booleans are checked
// before dates and dates before numbers. A column with no non-null values is
// "other".
func InferColumnType(values []string) domain.ColumnType {
	total, numCount, dateCount, boolCount := 0, 0, 0, 0
	for _, v := range values {
		if isNull(v) {
			continue
		}
		total++
		if _, ok := parseNumber(v); ok {
			numCount++
		}
		if isDate(v) {
			dateCount++
		}
		if _, ok := parseBool(v); ok {
			boolCount++
		}
	}
	if total == 0 {
		return domain.ColumnTypeOther
	}

	dominant := func(n int) bool { return n*5 >= total*4 }
	switch {
	case dominant(boolCount):
		return domain.ColumnTypeBoolean
	case dominant(dateCount):
		return domain.ColumnTypeDate
	case dominant(numCount):
		return domain.ColumnTypeNumeric
	}
	return domain.ColumnTypeText
}

// parseNumber accepts plain numbers plus thousands separators and a leading
// currency symbol ("-$1,234.50").
func parseNumber(s string) (float64, bool) {
	s = cleanNumber(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func cleanNumber(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	for _, sym := range []string{"$", "€", "£"} {
		s = strings.TrimPrefix(s, sym)
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return ""
	}
	if neg {
		return "-" + s
	}
	return s
}

func isDate(s string) bool {
	s = strings.TrimSpace(s)
	for _, layout := range dateFormats {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes":
		return true, true
	case "false", "no":
		return false, true
	}
	return false, false
}

// convertValue turns a raw cell into the scalar used in sample rows.
func convertValue(raw string, t domain.ColumnType) interface{} {
	if isNull(raw) {
		return nil
	}
	switch t {
	case domain.ColumnTypeNumeric:
		if i, err := strconv.ParseInt(cleanNumber(raw), 10, 64); err == nil {
			return i
		}
		if f, ok := parseNumber(raw); ok {
			return f
		}
	case domain.ColumnTypeBoolean:
		if b, ok := parseBool(raw); ok {
			return b
		}
	}
	return raw
}
