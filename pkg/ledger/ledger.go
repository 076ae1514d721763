package ledger

import (
	"fmt"
	"os"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/MrMartinM/webcon-import/pkg/logger"
)

// Row statuses as persisted in the ledger file
const (
	StatusNotStarted = ""
	StatusSuccess    = "Success"
	StatusError      = "Error"

	// statusMetadata marks the sentinel rows so they are never read as data
	statusMetadata = "Metadata"
)

// Sentinel row identifiers marking ledger open/close for a run
const (
	StartSentinel = "__START__"
	EndSentinel   = "__END__"
)

const (
	sheetName       = "Status"
	timestampFormat = "2006-01-02 15:04:05"
)

// Entry is one per-row outcome record
type Entry struct {
	RowID        string
	Status       string
	ImportedDate string
	ErrorMessage string
}

// IsImported reports whether the entry marks a successfully imported row
func IsImported(e Entry) bool {
	return e.Status == StatusSuccess
}

// Ledger is a durable per-row status store backed by a flat spreadsheet
// file. Every call is a read-modify-write of the whole store with no
// locking, so a ledger path must not be shared by concurrent runs.
type Ledger struct {
	path string
	log  *logger.Logger
}

// New creates a ledger bound to a file path. The file is created on first
// write.
func New(path string, log *logger.Logger) *Ledger {
	return &Ledger{
		path: path,
		log:  log,
	}
}

// Path returns the ledger file path
func (l *Ledger) Path() string {
	return l.path
}

// Load reads the ledger into a map keyed by row identifier. Sentinel rows
// are excluded. A missing or unreadable file yields an empty map: the run
// prefers reprocessing rows over refusing to start, at the cost of possible
// duplicate remote submissions.
func (l *Ledger) Load() map[string]Entry {
	entries, err := l.readAll()
	if err != nil {
		l.log.Warnf("Could not read ledger file %s, starting with empty status: %v", l.path, err)
		return map[string]Entry{}
	}

	result := make(map[string]Entry, len(entries))
	for _, e := range entries {
		if e.RowID == StartSentinel || e.RowID == EndSentinel {
			continue
		}
		// Last write wins for duplicate row identifiers
		result[e.RowID] = e
	}
	return result
}

// Update upserts the outcome for one row. Pre-existing rows keep their
// order, unseen rows are appended, and the start/end sentinels stay first
// and last.
func (l *Ledger) Update(rowID, status, errorMessage string) error {
	entry := Entry{
		RowID:        rowID,
		Status:       status,
		ImportedDate: time.Now().Format(timestampFormat),
		ErrorMessage: errorMessage,
	}
	return l.upsert(entry)
}

// WriteStart upserts the start sentinel with the current timestamp
func (l *Ledger) WriteStart() error {
	return l.upsert(Entry{
		RowID:        StartSentinel,
		Status:       statusMetadata,
		ImportedDate: time.Now().Format(timestampFormat),
	})
}

// WriteEnd upserts the end sentinel with the current timestamp
func (l *Ledger) WriteEnd() error {
	return l.upsert(Entry{
		RowID:        EndSentinel,
		Status:       statusMetadata,
		ImportedDate: time.Now().Format(timestampFormat),
	})
}

// upsert performs the read-modify-write cycle for one entry
func (l *Ledger) upsert(entry Entry) error {
	entries, err := l.readAll()
	if err != nil {
		l.log.Warnf("Could not read ledger file %s before update, rewriting from scratch: %v", l.path, err)
		entries = nil
	}

	replaced := false
	for i := range entries {
		if entries[i].RowID == entry.RowID {
			entries[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		entries = append(entries, entry)
	}

	return l.writeAll(orderEntries(entries))
}

// orderEntries keeps data rows in their original order with the start
// sentinel first and the end sentinel last
func orderEntries(entries []Entry) []Entry {
	ordered := make([]Entry, 0, len(entries))
	var start, end *Entry
	for i := range entries {
		switch entries[i].RowID {
		case StartSentinel:
			start = &entries[i]
		case EndSentinel:
			end = &entries[i]
		default:
			ordered = append(ordered, entries[i])
		}
	}
	if start != nil {
		ordered = append([]Entry{*start}, ordered...)
	}
	if end != nil {
		ordered = append(ordered, *end)
	}
	return ordered
}

// readAll reads every entry from the ledger file in sheet order. A missing
// file is not an error; it yields no entries.
func (l *Ledger) readAll() ([]Entry, error) {
	if _, err := os.Stat(l.path); os.IsNotExist(err) {
		return nil, nil
	}

	f, err := excelize.OpenFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger file: %w", err)
	}
	defer f.Close()

	sheet := sheetName
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger rows: %w", err)
	}

	var entries []Entry
	for i, row := range rows {
		// Skip the header row
		if i == 0 {
			continue
		}
		if len(row) == 0 || row[0] == "" {
			continue
		}
		entry := Entry{RowID: row[0]}
		if len(row) > 1 {
			entry.Status = row[1]
		}
		if len(row) > 2 {
			entry.ImportedDate = row[2]
		}
		if len(row) > 3 {
			entry.ErrorMessage = row[3]
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// writeAll rewrites the ledger file with the given entries
func (l *Ledger) writeAll(entries []Entry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to create ledger sheet: %w", err)
	}

	header := []interface{}{"ID", "Status", "ImportedDate", "ErrorMessage"}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write ledger header: %w", err)
	}

	for i, e := range entries {
		cell := fmt.Sprintf("A%d", i+2)
		row := []interface{}{e.RowID, e.Status, e.ImportedDate, e.ErrorMessage}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write ledger row %s: %w", e.RowID, err)
		}
	}

	if err := f.SaveAs(l.path); err != nil {
		return fmt.Errorf("failed to save ledger file: %w", err)
	}
	return nil
}
