// Package normalize turns BOM cell values into the canonical lowercase
// text the keyword rules are matched against.
package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/Veraticus/bomsort/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Text normalizes any cell value. Missing values (nil, NaN, unset
// fields) yield "". The result is lowercase and every rune that is not
// a letter, number, underscore or whitespace is replaced by one space.
// Whitespace runs are left as they are. Floats are written the way
// spreadsheet tools print them, so 3.0 becomes "3 0" rather than "3".
func Text(value any) string {
	s, ok := stringify(value)
	if !ok || s == "" {
		return ""
	}

	// Casers carry state and must not be shared.
	lowered := cases.Lower(language.Und).String(s)

	return strings.Map(func(r rune) rune {
		if isWord(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, lowered)
}

// Combined returns the normalized Type, Description and Model of row
// joined by single spaces. Rules are matched against this text.
func Combined(row model.Row) string {
	return strings.Join([]string{
		Text(row.Type),
		Text(row.Description),
		Text(row.Model),
	}, " ")
}

// FirstToken returns the first whitespace-delimited token of text, or ""
// when text is blank.
func FirstToken(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func isWord(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

func stringify(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case *string:
		if v == nil {
			return "", false
		}
		return *v, true
	case model.Field:
		return v.Value, v.Present
	case float64:
		if math.IsNaN(v) {
			return "", false
		}
		return formatFloat(v, 64), true
	case float32:
		if math.IsNaN(float64(v)) {
			return "", false
		}
		return formatFloat(float64(v), 32), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case bool:
		return strconv.FormatBool(v), true
	case fmt.Stringer:
		return v.String(), true
	default:
		return fmt.Sprint(v), true
	}
}

// formatFloat prints the shortest representation of f. Exponents from -4
// to 15 use fixed notation with at least one fractional digit ("3.0"),
// others use scientific notation ("1e+16").
func formatFloat(f float64, bitSize int) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	sci := strconv.FormatFloat(f, 'e', -1, bitSize)
	exp, err := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if err != nil || exp < -4 || exp >= 16 {
		return sci
	}

	fixed := strconv.FormatFloat(f, 'f', -1, bitSize)
	if !strings.Contains(fixed, ".") {
		fixed += ".0"
	}
	return fixed
}
