package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_TypeHintWins(t *testing.T) {
	tests := []struct {
		name     string
		hint     string
		dbName   string
		expected FieldType
	}{
		{"yes/no choice", "Yes / No choice", "WFD_AttBool1", FieldTypeBoolean},
		{"yes/no choice over non-bool name", "Yes / No choice", "WFD_Text1", FieldTypeBoolean},
		{"floating point", "Floating-point number", "DET_Value1", FieldTypeDecimal},
		{"multiline", "Multiple lines of text", "WFD_Text1", FieldTypeLongText},
		{"plain choice", "Choice field", "WFD_Text1", FieldTypeChoice},
		{"choice case-insensitive", "CHOICE LIST", "WFD_Text1", FieldTypeChoice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.hint, tt.dbName, false))
		})
	}
}

func TestClassify_DatabaseNameFallback(t *testing.T) {
	tests := []struct {
		name     string
		dbName   string
		expected FieldType
	}{
		{"choose pattern", "WFD_AttChoose2", FieldTypeChoice},
		{"choice pattern", "WFD_Choice1", FieldTypeChoice},
		{"bool pattern", "WFD_AttBool1", FieldTypeBoolean},
		{"datetime pattern", "WFD_AttDateTime3", FieldTypeDateTime},
		{"int pattern", "WFD_AttInt2", FieldTypeInteger},
		{"decimal pattern", "WFD_AttDecimal1", FieldTypeDecimal},
		{"detail value pattern", "DET_Value4", FieldTypeDecimal},
		{"detail longtext pattern", "DET_LongText1", FieldTypeLongText},
		{"plain text field", "WFD_Text1", FieldTypeString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify("", tt.dbName, false))
		})
	}
}

func TestClassify_ExplicitChoiceFlagWins(t *testing.T) {
	assert.Equal(t, FieldTypeChoice, Classify("Yes / No choice", "WFD_AttBool1", true))
	assert.Equal(t, FieldTypeChoice, Classify("", "WFD_Text1", true))
}

func TestClassify_UnrecognizedFallsThroughToString(t *testing.T) {
	assert.Equal(t, FieldTypeString, Classify("something new", "WFD_Unknown9", false))
	assert.Equal(t, FieldTypeString, Classify("", "", false))
}
