package mapping

import "strings"

// FieldType is the semantic type inferred for a mapped column
type FieldType int

const (
	FieldTypeString FieldType = iota
	FieldTypeLongText
	FieldTypeBoolean
	FieldTypeDateTime
	FieldTypeInteger
	FieldTypeDecimal
	FieldTypeChoice
)

// String returns a human-readable name for the field type
func (t FieldType) String() string {
	switch t {
	case FieldTypeLongText:
		return "longtext"
	case FieldTypeBoolean:
		return "boolean"
	case FieldTypeDateTime:
		return "datetime"
	case FieldTypeInteger:
		return "integer"
	case FieldTypeDecimal:
		return "decimal"
	case FieldTypeChoice:
		return "choice"
	default:
		return "string"
	}
}

// Column type hints as reported by the remote schema
const (
	hintYesNoChoice   = "yes / no choice"
	hintFloatingPoint = "floating-point number"
	hintMultiline     = "multiple lines of text"
	hintChoice        = "choice"
)

// Classify infers the semantic type for a mapped column. The explicit choice
// flag wins, then the remote schema's column type hint, then patterns in the
// database field name. Unrecognized metadata falls through to string, so a
// misclassified column degrades to string transmission instead of failing
// the row.
func Classify(columnTypeHint, databaseName string, explicitChoice bool) FieldType {
	if explicitChoice {
		return FieldTypeChoice
	}

	// Primary signal: the column type hint from the remote schema
	hint := strings.ToLower(strings.TrimSpace(columnTypeHint))
	switch hint {
	case hintYesNoChoice:
		return FieldTypeBoolean
	case hintFloatingPoint:
		return FieldTypeDecimal
	case hintMultiline:
		return FieldTypeLongText
	}
	if strings.Contains(hint, hintChoice) {
		return FieldTypeChoice
	}

	// Fallback: patterns in the database field name
	switch {
	case strings.Contains(databaseName, "Choose"), strings.Contains(databaseName, "Choice"):
		return FieldTypeChoice
	case strings.Contains(databaseName, "AttBool"):
		return FieldTypeBoolean
	case strings.Contains(databaseName, "AttDateTime"):
		return FieldTypeDateTime
	case strings.Contains(databaseName, "AttInt"):
		return FieldTypeInteger
	case strings.Contains(databaseName, "AttDecimal"), strings.HasPrefix(databaseName, "DET_Value"):
		return FieldTypeDecimal
	case strings.HasPrefix(databaseName, "DET_LongText"):
		return FieldTypeLongText
	}

	return FieldTypeString
}
