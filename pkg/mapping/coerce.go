package mapping

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ChoiceOption is one entry of a choice field value. The id is omitted from
// the wire format when the source value carried no identifier.
type ChoiceOption struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// wireDateTimeFormat is UTC ISO-8601 with millisecond precision
const wireDateTimeFormat = "2006-01-02T15:04:05.000Z"

// dateTimeLayouts are tried in order when parsing date values from cells
var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02.01.2006 15:04:05",
	"02.01.2006",
	"01/02/2006 15:04:05",
	"01/02/2006",
	"2 Jan 2006",
	"Jan 2, 2006",
}

// Boolean token sets recognized in cell values
var (
	trueTokens  = map[string]bool{"true": true, "1": true, "yes": true, "y": true}
	falseTokens = map[string]bool{"false": true, "0": true, "no": true, "n": true}
)

// Coerce converts a raw cell value into the wire representation required by
// the classified type, plus a display string carrying best-effort original
// content. It never fails: unparseable input degrades to a type-appropriate
// zero value or a raw string passthrough.
func Coerce(raw interface{}, fieldType FieldType) (interface{}, string) {
	switch fieldType {
	case FieldTypeBoolean:
		return coerceBoolean(raw)
	case FieldTypeDateTime:
		return coerceDateTime(raw)
	case FieldTypeInteger:
		return coerceInteger(raw)
	case FieldTypeDecimal:
		return coerceDecimal(raw)
	case FieldTypeChoice:
		return coerceChoice(raw)
	default:
		// String and LongText: passthrough after sanitization
		s := rawString(raw)
		return s, s
	}
}

// Sanitize removes NUL bytes and control characters other than tab, CR and
// LF from a string value
func Sanitize(s string) string {
	if !strings.ContainsFunc(s, isDisallowedControl) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isDisallowedControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isDisallowedControl(r rune) bool {
	if r == '\t' || r == '\r' || r == '\n' {
		return false
	}
	return r < 0x20 || r == 0x7f
}

// rawString renders a raw cell value as a sanitized string
func rawString(raw interface{}) string {
	switch v := raw.(type) {
	case string:
		return Sanitize(v)
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case time.Time:
		return v.UTC().Format(wireDateTimeFormat)
	default:
		return Sanitize(fmt.Sprint(v))
	}
}

// coerceBoolean recognizes common true/false tokens and defaults to false.
// The display string is always empty: the remote API requires no string
// echo for boolean fields.
func coerceBoolean(raw interface{}) (interface{}, string) {
	if v, ok := raw.(bool); ok {
		return v, ""
	}
	s := strings.ToLower(strings.TrimSpace(rawString(raw)))
	switch {
	case trueTokens[s]:
		return true, ""
	case falseTokens[s]:
		return false, ""
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, ""
	}
	return v, ""
}

// coerceDateTime parses common date representations and emits UTC ISO-8601
// with millisecond precision. An unparseable value is passed through
// unmodified for both wire and display.
func coerceDateTime(raw interface{}) (interface{}, string) {
	if t, ok := raw.(time.Time); ok {
		s := t.UTC().Format(wireDateTimeFormat)
		return s, s
	}
	s := strings.TrimSpace(rawString(raw))
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			formatted := t.UTC().Format(wireDateTimeFormat)
			return formatted, formatted
		}
	}
	return s, s
}

// coerceInteger parses an integer value, defaulting to 0 on failure
func coerceInteger(raw interface{}) (interface{}, string) {
	var n int64
	switch v := raw.(type) {
	case int:
		n = int64(v)
	case int64:
		n = v
	case float64:
		n = floatToInt64(v)
	default:
		s := strings.TrimSpace(rawString(raw))
		parsed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			// Spreadsheet cells often carry integers as "3.0"
			if f, ferr := strconv.ParseFloat(s, 64); ferr == nil {
				parsed = floatToInt64(f)
			} else {
				parsed = 0
			}
		}
		n = parsed
	}
	return n, strconv.FormatInt(n, 10)
}

// floatToInt64 truncates a float to int64. Values outside the int64 range
// and NaN default to 0, matching the parse-failure behavior.
func floatToInt64(f float64) int64 {
	if !(f >= math.MinInt64 && f < math.MaxInt64) {
		return 0
	}
	return int64(f)
}

// coerceDecimal parses a decimal value, defaulting to 0 on failure
func coerceDecimal(raw interface{}) (interface{}, string) {
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	default:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(rawString(raw)), 64)
		if err != nil {
			parsed = 0
		}
		f = parsed
	}
	return f, strconv.FormatFloat(f, 'f', -1, 64)
}

// coerceChoice parses either an "id#name" pair or a bare name into a
// single-element choice list. The display string is the original raw value.
func coerceChoice(raw interface{}) (interface{}, string) {
	s := rawString(raw)
	option := ChoiceOption{Name: strings.TrimSpace(s)}
	if id, name, found := strings.Cut(s, "#"); found {
		option.ID = strings.TrimSpace(id)
		option.Name = strings.TrimSpace(name)
	}
	return []ChoiceOption{option}, s
}
