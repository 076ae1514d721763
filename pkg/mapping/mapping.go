package mapping

import "strings"

// FieldMapping maps one source column to one target form field
type FieldMapping struct {
	SourceColumn   string `json:"sourceColumn"`
	FriendlyName   string `json:"friendlyName"`
	DatabaseName   string `json:"databaseName"`
	FieldGuid      string `json:"fieldGuid"`
	ColumnTypeHint string `json:"columnTypeHint,omitempty"`
	IsChoice       bool   `json:"isChoice,omitempty"`
}

// Valid reports whether the mapping carries enough metadata to be used.
// Mappings without a field GUID or database name are silently excluded
// from the mapping set rather than treated as errors.
func (m FieldMapping) Valid() bool {
	return strings.TrimSpace(m.FieldGuid) != "" && strings.TrimSpace(m.DatabaseName) != ""
}

// DetailColumnMapping maps one source column to one item-list column.
// Detail rows are linked to their parent row by a shared row identifier.
type DetailColumnMapping struct {
	SourceColumn   string `json:"sourceColumn"`
	FriendlyName   string `json:"friendlyName"`
	DatabaseName   string `json:"databaseName"`
	ColumnGuid     string `json:"columnGuid"`
	ColumnTypeHint string `json:"columnTypeHint,omitempty"`
	IsChoice       bool   `json:"isChoice,omitempty"`
}

// Valid reports whether the detail mapping carries enough metadata to be used
func (m DetailColumnMapping) Valid() bool {
	return strings.TrimSpace(m.ColumnGuid) != "" && strings.TrimSpace(m.DatabaseName) != ""
}

// Row is one unit of import work: a stable identifier plus the raw cell
// values keyed by source column name
type Row struct {
	ID     string
	Fields map[string]interface{}
}

// Value returns the raw value for a source column and whether it is present.
// Absent and empty-string values are both treated as not present, so they
// are omitted from the outgoing payload instead of being sent as null.
func (r Row) Value(sourceColumn string) (interface{}, bool) {
	raw, ok := r.Fields[sourceColumn]
	if !ok || raw == nil {
		return nil, false
	}
	if s, isString := raw.(string); isString && strings.TrimSpace(s) == "" {
		return nil, false
	}
	return raw, true
}

// ImportSet is everything the driver needs for one run: the ordered parent
// rows, the field mappings, and the optional item-list rows grouped by the
// parent row identifier
type ImportSet struct {
	Rows           []Row
	Mappings       []FieldMapping
	DetailMappings []DetailColumnMapping
	DetailRows     map[string][]Row
	IDColumn       string
}

// FilterMappings drops mappings that are missing required metadata
func FilterMappings(mappings []FieldMapping) []FieldMapping {
	filtered := make([]FieldMapping, 0, len(mappings))
	for _, m := range mappings {
		if m.Valid() {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

// FilterDetailMappings drops detail mappings that are missing required metadata
func FilterDetailMappings(mappings []DetailColumnMapping) []DetailColumnMapping {
	filtered := make([]DetailColumnMapping, 0, len(mappings))
	for _, m := range mappings {
		if m.Valid() {
			filtered = append(filtered, m)
		}
	}
	return filtered
}
