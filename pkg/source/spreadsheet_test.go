package source

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/MrMartinM/webcon-import/pkg/config"
	"github.com/MrMartinM/webcon-import/pkg/logger"
)

// writeWorkbook creates a test workbook from sheet-name → rows
func writeWorkbook(t *testing.T, sheets map[string][][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			row := row
			require.NoError(t, f.SetSheetRow(name, cellRef(t, i), &row))
		}
	}

	path := filepath.Join(t.TempDir(), "import.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func cellRef(t *testing.T, rowIndex int) string {
	t.Helper()
	ref, err := excelize.CoordinatesToCellName(1, rowIndex+1)
	require.NoError(t, err)
	return ref
}

func TestRead_RowsAndMappings(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		"Data": {
			{"ID", "Customer", "Amount"},
			{"r1", "Acme", "12.5"},
			{"r2", "Nordwind", ""},
		},
		"Mappings": {
			{"SourceColumn", "FriendlyName", "DatabaseName", "FieldGuid", "TypeHint", "IsChoice"},
			{"Customer", "Customer", "WFD_Text1", "g1", "", ""},
			{"Amount", "Amount", "WFD_AttDecimal1", "g2", "Floating-point number", ""},
			{"Broken", "No guid", "WFD_Text2", "", "", ""},
		},
	})

	reader := NewReader(config.SourceConfig{
		DataFile:     path,
		DataSheet:    "Data",
		MappingSheet: "Mappings",
		IDColumn:     "ID",
	}, logger.New())

	set, err := reader.Read()
	require.NoError(t, err)

	require.Len(t, set.Rows, 2)
	assert.Equal(t, "r1", set.Rows[0].ID)
	assert.Equal(t, "Acme", set.Rows[0].Fields["Customer"])
	assert.Equal(t, "12.5", set.Rows[0].Fields["Amount"])

	// Empty cells are absent, not empty strings
	_, present := set.Rows[1].Fields["Amount"]
	assert.False(t, present)

	// The mapping without a field GUID is silently excluded
	require.Len(t, set.Mappings, 2)
	assert.Equal(t, "Customer", set.Mappings[0].SourceColumn)
	assert.Equal(t, "Floating-point number", set.Mappings[1].ColumnTypeHint)
}

func TestRead_PositionalIDFallback(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		"Data": {
			{"Customer"},
			{"Acme"},
			{"Nordwind"},
		},
		"Mappings": {
			{"SourceColumn", "DatabaseName", "FieldGuid"},
			{"Customer", "WFD_Text1", "g1"},
		},
	})

	reader := NewReader(config.SourceConfig{
		DataFile:     path,
		DataSheet:    "Data",
		MappingSheet: "Mappings",
	}, logger.New())

	set, err := reader.Read()
	require.NoError(t, err)

	require.Len(t, set.Rows, 2)
	assert.Equal(t, "1", set.Rows[0].ID)
	assert.Equal(t, "2", set.Rows[1].ID)
}

func TestRead_BlankHeaderIDColumn(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		"Data": {
			{"", "Customer"},
			{"k-7", "Acme"},
		},
		"Mappings": {
			{"SourceColumn", "DatabaseName", "FieldGuid"},
			{"Customer", "WFD_Text1", "g1"},
		},
	})

	reader := NewReader(config.SourceConfig{
		DataFile:     path,
		DataSheet:    "Data",
		MappingSheet: "Mappings",
	}, logger.New())

	set, err := reader.Read()
	require.NoError(t, err)

	require.Len(t, set.Rows, 1)
	assert.Equal(t, "k-7", set.Rows[0].ID)
}

func TestRead_ItemListRowsGroupedByParentID(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		"Data": {
			{"ID", "Customer"},
			{"r1", "Acme"},
			{"r2", "Nordwind"},
		},
		"Mappings": {
			{"SourceColumn", "DatabaseName", "FieldGuid"},
			{"Customer", "WFD_Text1", "g1"},
		},
		"Positions": {
			{"ID", "Qty"},
			{"r1", "2"},
			{"r1", "5"},
			{"r2", "1"},
		},
		"PositionMappings": {
			{"SourceColumn", "DatabaseName", "ColumnGuid"},
			{"Qty", "DET_Value1", "c1"},
		},
	})

	reader := NewReader(config.SourceConfig{
		DataFile:             path,
		DataSheet:            "Data",
		MappingSheet:         "Mappings",
		ItemListSheet:        "Positions",
		ItemListMappingSheet: "PositionMappings",
		IDColumn:             "ID",
		ItemListGuid:         "il-1",
	}, logger.New())

	set, err := reader.Read()
	require.NoError(t, err)

	require.Len(t, set.DetailMappings, 1)
	assert.Equal(t, "c1", set.DetailMappings[0].ColumnGuid)

	require.Len(t, set.DetailRows, 2)
	assert.Len(t, set.DetailRows["r1"], 2)
	assert.Len(t, set.DetailRows["r2"], 1)
}

func TestRead_MissingMappingSheetIsFatal(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		"Data": {
			{"ID", "Customer"},
			{"r1", "Acme"},
		},
	})

	reader := NewReader(config.SourceConfig{
		DataFile:     path,
		DataSheet:    "Data",
		MappingSheet: "Mappings",
	}, logger.New())

	_, err := reader.Read()
	require.Error(t, err)
}
