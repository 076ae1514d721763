package importer

import (
	"github.com/MrMartinM/webcon-import/pkg/mapping"
	"github.com/MrMartinM/webcon-import/pkg/webcon"
)

// cancelCheckInterval is how many field payloads are built between
// cancellation polls, so a large field list can be abandoned promptly
const cancelCheckInterval = 16

// buildElement assembles the element creation request for one parent row
// and its detail rows. It returns false when cancellation was observed
// mid-build.
func (imp *Importer) buildElement(set *mapping.ImportSet, row mapping.Row, cancelled func() bool) (*webcon.ElementRequest, bool) {
	fields, ok := buildFormFields(set.Mappings, row, cancelled)
	if !ok {
		return nil, false
	}

	element := &webcon.ElementRequest{
		Workflow:   webcon.GuidRef{Guid: imp.opts.WorkflowGuid},
		FormType:   webcon.GuidRef{Guid: imp.opts.FormTypeGuid},
		FormFields: fields,
	}
	if imp.opts.BusinessEntityGuid != "" {
		element.BusinessEntity = &webcon.GuidRef{Guid: imp.opts.BusinessEntityGuid}
	}

	// Detail support is enabled by the presence of detail mappings and an
	// item list GUID; the collection is sent even when no child rows match.
	if len(set.DetailMappings) > 0 && imp.opts.ItemListGuid != "" {
		element.ItemLists = []webcon.ItemList{
			buildItemList(imp.opts, set.DetailMappings, set.DetailRows[row.ID]),
		}
	}

	return element, true
}

// buildFormFields builds the per-field payload list for one row. Mapped
// fields whose raw value is absent are omitted entirely, never sent as
// null.
func buildFormFields(mappings []mapping.FieldMapping, row mapping.Row, cancelled func() bool) ([]webcon.FormField, bool) {
	fields := make([]webcon.FormField, 0, len(mappings))
	for i, m := range mappings {
		if i%cancelCheckInterval == 0 && cancelled() {
			return nil, false
		}

		raw, present := row.Value(m.SourceColumn)
		if !present {
			continue
		}

		fieldType := mapping.Classify(m.ColumnTypeHint, m.DatabaseName, m.IsChoice)
		wire, display := mapping.Coerce(raw, fieldType)

		fields = append(fields, webcon.FormField{
			Guid:   m.FieldGuid,
			Type:   webcon.WireType(fieldType),
			SValue: display,
			Name:   fieldName(m),
			FormLayout: webcon.FormLayout{
				Editability:  webcon.EditabilityEditable,
				Requiredness: webcon.RequirednessStandard,
			},
			Value: wire,
		})
	}
	return fields, true
}

// buildItemList builds the nested detail collection from the child rows of
// one parent, applying the same classification and coercion rules
func buildItemList(opts Options, mappings []mapping.DetailColumnMapping, detailRows []mapping.Row) webcon.ItemList {
	list := webcon.ItemList{
		Guid: opts.ItemListGuid,
		Name: opts.ItemListName,
		Mode: webcon.ItemListModeIncremental,
		Rows: make([]webcon.ItemListRow, 0, len(detailRows)),
	}

	for _, row := range detailRows {
		cells := make([]webcon.ItemListCell, 0, len(mappings))
		for _, m := range mappings {
			raw, present := row.Value(m.SourceColumn)
			if !present {
				continue
			}
			fieldType := mapping.Classify(m.ColumnTypeHint, m.DatabaseName, m.IsChoice)
			wire, display := mapping.Coerce(raw, fieldType)
			cells = append(cells, webcon.ItemListCell{
				Guid:   m.ColumnGuid,
				SValue: display,
				Value:  wire,
			})
		}
		list.Rows = append(list.Rows, webcon.ItemListRow{Cells: cells})
	}

	return list
}

// fieldName prefers the friendly name and falls back to the database name
func fieldName(m mapping.FieldMapping) string {
	if m.FriendlyName != "" {
		return m.FriendlyName
	}
	return m.DatabaseName
}
