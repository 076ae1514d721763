package webcon

import (
	"fmt"

	"github.com/MrMartinM/webcon-import/pkg/mapping"
)

// GuidRef references a remote object by GUID
type GuidRef struct {
	Guid string `json:"guid"`
}

// FormLayout carries the layout attributes the element endpoint expects on
// every form field
type FormLayout struct {
	Editability  string `json:"editability"`
	Requiredness string `json:"requiredness"`
}

// FormField is the wire-ready representation of one form field on one row
type FormField struct {
	Guid       string      `json:"guid"`
	Type       string      `json:"type"`
	SValue     string      `json:"svalue"`
	Name       string      `json:"name"`
	FormLayout FormLayout  `json:"formLayout"`
	Value      interface{} `json:"value"`
}

// ItemListCell is one cell of one item-list row
type ItemListCell struct {
	Guid   string      `json:"guid"`
	SValue string      `json:"svalue"`
	Value  interface{} `json:"value"`
}

// ItemListRow is one row of an item list
type ItemListRow struct {
	Cells []ItemListCell `json:"cells"`
}

// ItemList is a nested child collection attached to a parent element
type ItemList struct {
	Guid string        `json:"guid"`
	Name string        `json:"name"`
	Mode string        `json:"mode"`
	Rows []ItemListRow `json:"rows"`
}

// ItemListModeIncremental appends item-list rows instead of replacing them
const ItemListModeIncremental = "Incremental"

// ElementRequest is the JSON body of an element creation call
type ElementRequest struct {
	Workflow       GuidRef     `json:"workflow"`
	FormType       GuidRef     `json:"formType"`
	FormFields     []FormField `json:"formFields"`
	BusinessEntity *GuidRef    `json:"businessEntity,omitempty"`
	ItemLists      []ItemList  `json:"itemLists,omitempty"`
}

// ElementResponse is the interesting part of a successful element creation
// response
type ElementResponse struct {
	Guid   string `json:"guid"`
	ID     int64  `json:"id"`
	Number string `json:"number"`
}

// Default layout attributes for imported fields
const (
	EditabilityEditable  = "Editable"
	RequirednessStandard = "Standard"
)

// wireTypeNames maps classified field types to the type names the element
// endpoint expects
var wireTypeNames = map[mapping.FieldType]string{
	mapping.FieldTypeString:   "text",
	mapping.FieldTypeLongText: "longText",
	mapping.FieldTypeBoolean:  "boolean",
	mapping.FieldTypeDateTime: "dateTime",
	mapping.FieldTypeInteger:  "integer",
	mapping.FieldTypeDecimal:  "decimal",
	mapping.FieldTypeChoice:   "choice",
}

// WireType returns the endpoint's type name for a classified field type
func WireType(t mapping.FieldType) string {
	if name, ok := wireTypeNames[t]; ok {
		return name
	}
	return wireTypeNames[mapping.FieldTypeString]
}

// apiErrorBody covers both error body shapes the engine returns: structured
// errors with type/description/errorGuid and generic message/error bodies
type apiErrorBody struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	ErrorGuid   string `json:"errorGuid"`
	Message     string `json:"message"`
	ErrorText   string `json:"error"`
}

// APIError is a non-2xx response from the workflow engine
type APIError struct {
	StatusCode  int
	Type        string
	Description string
	ErrorGuid   string
	Message     string
}

// Error formats the most specific description available
func (e *APIError) Error() string {
	switch {
	case e.Description != "" && e.Type != "":
		return fmt.Sprintf("api error %d: %s (%s)", e.StatusCode, e.Description, e.Type)
	case e.Description != "":
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Description)
	case e.Message != "":
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("api error %d", e.StatusCode)
	}
}

// Retryable reports whether the response indicates a transient server
// failure. Client errors (4xx) are permanent; so is 501, which marks an
// unimplemented endpoint rather than a transient fault.
func (e *APIError) Retryable() bool {
	return e.StatusCode >= 500 && e.StatusCode != 501
}
