// Package source reads import rows and field mappings from an Excel
// workbook.
//
// Rows without a value in the identifier column fall back to their 1-based
// position in the sheet. Positional identifiers are only stable as long as
// the row order does not change between runs; reordering the workbook
// breaks resumability for those rows. This is a known limitation, not a
// fixable defect of the reader.
package source

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/MrMartinM/webcon-import/pkg/config"
	"github.com/MrMartinM/webcon-import/pkg/logger"
	"github.com/MrMartinM/webcon-import/pkg/mapping"
)

// Mapping sheet column headers, matched case-insensitively
const (
	headerSourceColumn = "sourcecolumn"
	headerFriendlyName = "friendlyname"
	headerDatabaseName = "databasename"
	headerFieldGuid    = "fieldguid"
	headerColumnGuid   = "columnguid"
	headerTypeHint     = "typehint"
	headerIsChoice     = "ischoice"
)

// Reader loads an ImportSet from the configured workbook
type Reader struct {
	cfg config.SourceConfig
	log *logger.Logger
}

// NewReader creates a workbook reader
func NewReader(cfg config.SourceConfig, log *logger.Logger) *Reader {
	return &Reader{
		cfg: cfg,
		log: log,
	}
}

// Read loads the data rows, the field mappings and the optional item-list
// rows from the workbook. Any failure here is fatal for the run: without
// mapping metadata no row can be imported.
func (r *Reader) Read() (*mapping.ImportSet, error) {
	f, err := excelize.OpenFile(r.cfg.DataFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", r.cfg.DataFile, err)
	}
	defer f.Close()

	mappings, err := r.readMappings(f)
	if err != nil {
		return nil, err
	}

	idColumn, rows, err := r.readRows(f, r.cfg.DataSheet, r.cfg.IDColumn)
	if err != nil {
		return nil, err
	}

	set := &mapping.ImportSet{
		Rows:     rows,
		Mappings: mappings,
		IDColumn: idColumn,
	}

	if r.cfg.ItemListSheet != "" {
		detailMappings, err := r.readDetailMappings(f)
		if err != nil {
			return nil, err
		}
		detailRows, err := r.readDetailRows(f, idColumn)
		if err != nil {
			return nil, err
		}
		set.DetailMappings = detailMappings
		set.DetailRows = detailRows
	}

	r.log.Infof("Loaded %d rows, %d field mappings and %d item-list groups from %s",
		len(set.Rows), len(set.Mappings), len(set.DetailRows), r.cfg.DataFile)
	return set, nil
}

// readMappings reads the field mapping sheet
func (r *Reader) readMappings(f *excelize.File) ([]mapping.FieldMapping, error) {
	rows, err := f.GetRows(r.cfg.MappingSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping sheet %s: %w", r.cfg.MappingSheet, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("mapping sheet %s has no mapping rows", r.cfg.MappingSheet)
	}

	columns := headerIndex(rows[0])
	var mappings []mapping.FieldMapping
	for _, row := range rows[1:] {
		m := mapping.FieldMapping{
			SourceColumn:   cell(row, column(columns, headerSourceColumn)),
			FriendlyName:   cell(row, column(columns, headerFriendlyName)),
			DatabaseName:   cell(row, column(columns, headerDatabaseName)),
			FieldGuid:      cell(row, column(columns, headerFieldGuid)),
			ColumnTypeHint: cell(row, column(columns, headerTypeHint)),
			IsChoice:       parseFlag(cell(row, column(columns, headerIsChoice))),
		}
		if m.SourceColumn == "" {
			continue
		}
		mappings = append(mappings, m)
	}

	filtered := mapping.FilterMappings(mappings)
	if dropped := len(mappings) - len(filtered); dropped > 0 {
		r.log.Warnf("Excluded %d field mappings missing a field GUID or database name", dropped)
	}
	return filtered, nil
}

// readDetailMappings reads the item-list column mapping sheet
func (r *Reader) readDetailMappings(f *excelize.File) ([]mapping.DetailColumnMapping, error) {
	rows, err := f.GetRows(r.cfg.ItemListMappingSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read item-list mapping sheet %s: %w", r.cfg.ItemListMappingSheet, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("item-list mapping sheet %s has no mapping rows", r.cfg.ItemListMappingSheet)
	}

	columns := headerIndex(rows[0])
	var mappings []mapping.DetailColumnMapping
	for _, row := range rows[1:] {
		m := mapping.DetailColumnMapping{
			SourceColumn:   cell(row, column(columns, headerSourceColumn)),
			FriendlyName:   cell(row, column(columns, headerFriendlyName)),
			DatabaseName:   cell(row, column(columns, headerDatabaseName)),
			ColumnGuid:     cell(row, column(columns, headerColumnGuid)),
			ColumnTypeHint: cell(row, column(columns, headerTypeHint)),
			IsChoice:       parseFlag(cell(row, column(columns, headerIsChoice))),
		}
		if m.SourceColumn == "" {
			continue
		}
		mappings = append(mappings, m)
	}

	filtered := mapping.FilterDetailMappings(mappings)
	if dropped := len(mappings) - len(filtered); dropped > 0 {
		r.log.Warnf("Excluded %d item-list mappings missing a column GUID or database name", dropped)
	}
	return filtered, nil
}

// readRows reads an ordered sequence of data rows from a sheet. The
// returned id column name is the resolved one, which may differ from the
// configured name when it had to be detected.
func (r *Reader) readRows(f *excelize.File, sheet, idColumn string) (string, []mapping.Row, error) {
	raw, err := f.GetRows(sheet)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read data sheet %s: %w", sheet, err)
	}
	if len(raw) == 0 {
		return "", nil, fmt.Errorf("data sheet %s is empty", sheet)
	}

	headers := raw[0]
	idIndex := resolveIDColumn(headers, idColumn)
	resolved := ""
	if idIndex >= 0 {
		resolved = headers[idIndex]
	}

	rows := make([]mapping.Row, 0, len(raw)-1)
	for i, cells := range raw[1:] {
		if isEmptyRow(cells) {
			continue
		}

		fields := make(map[string]interface{}, len(headers))
		for c, header := range headers {
			if header == "" {
				continue
			}
			if v := cell(cells, c); v != "" {
				fields[header] = v
			}
		}

		id := ""
		if idIndex >= 0 {
			id = strings.TrimSpace(cell(cells, idIndex))
		}
		if id == "" {
			// Positional fallback, 1-based over the data rows
			id = fmt.Sprintf("%d", i+1)
		}

		rows = append(rows, mapping.Row{ID: id, Fields: fields})
	}
	return resolved, rows, nil
}

// readDetailRows reads the item-list sheet and groups its rows by the
// parent row identifier
func (r *Reader) readDetailRows(f *excelize.File, parentIDColumn string) (map[string][]mapping.Row, error) {
	_, rows, err := r.readRows(f, r.cfg.ItemListSheet, parentIDColumn)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]mapping.Row, len(rows))
	for _, row := range rows {
		grouped[row.ID] = append(grouped[row.ID], row)
	}
	return grouped, nil
}

// resolveIDColumn finds the identifier column: the configured name first,
// then a header literally named "ID", then a blank or whitespace-only
// header, which is how exported worksheets commonly mark their key column.
func resolveIDColumn(headers []string, configured string) int {
	if configured != "" {
		for i, h := range headers {
			if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(configured)) {
				return i
			}
		}
		return -1
	}
	for i, h := range headers {
		if strings.EqualFold(strings.TrimSpace(h), "id") {
			return i
		}
	}
	for i, h := range headers {
		if strings.TrimSpace(h) == "" {
			return i
		}
	}
	return -1
}

// headerIndex maps normalized header names to their column index
func headerIndex(headers []string) map[string]int {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		key := strings.ToLower(strings.TrimSpace(h))
		if key != "" {
			index[key] = i
		}
	}
	return index
}

// column returns the index for a normalized header name, or -1 when the
// sheet does not carry that column
func column(index map[string]int, key string) int {
	if i, ok := index[key]; ok {
		return i
	}
	return -1
}

// cell returns the trimmed cell value at an index, or "" when the row is
// shorter than the header
func cell(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}

// parseFlag parses a spreadsheet boolean flag
func parseFlag(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "yes", "y", "x":
		return true
	default:
		return false
	}
}

// isEmptyRow reports whether every cell of a row is blank
func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
