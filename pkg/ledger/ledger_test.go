package ledger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/MrMartinM/webcon-import/pkg/logger"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "status.xlsx"), logger.New())
}

func TestLoad_MissingFileYieldsEmptyMap(t *testing.T) {
	l := newTestLedger(t)

	entries := l.Load()
	require.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestLoad_CorruptFileYieldsEmptyMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("this is not a workbook"), 0o644))

	l := New(path, logger.New())
	entries := l.Load()
	require.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestUpdate_RoundTrip(t *testing.T) {
	l := newTestLedger(t)

	require.NoError(t, l.Update("row-1", StatusSuccess, ""))
	require.NoError(t, l.Update("row-2", StatusError, "boom"))

	entries := l.Load()
	require.Len(t, entries, 2)

	assert.Equal(t, StatusSuccess, entries["row-1"].Status)
	assert.NotEmpty(t, entries["row-1"].ImportedDate)
	assert.True(t, IsImported(entries["row-1"]))

	assert.Equal(t, StatusError, entries["row-2"].Status)
	assert.Equal(t, "boom", entries["row-2"].ErrorMessage)
	assert.False(t, IsImported(entries["row-2"]))
}

func TestUpdate_LastWriteWins(t *testing.T) {
	l := newTestLedger(t)

	require.NoError(t, l.Update("row-1", StatusError, "first try failed"))
	require.NoError(t, l.Update("row-1", StatusSuccess, ""))

	entries := l.Load()
	require.Len(t, entries, 1)
	assert.Equal(t, StatusSuccess, entries["row-1"].Status)
	assert.Empty(t, entries["row-1"].ErrorMessage)
}

func TestUpdate_PreservesOrderAndAppendsNewRows(t *testing.T) {
	l := newTestLedger(t)

	require.NoError(t, l.Update("a", StatusSuccess, ""))
	require.NoError(t, l.Update("b", StatusSuccess, ""))
	require.NoError(t, l.Update("c", StatusError, "x"))
	// Updating an existing row must not move it
	require.NoError(t, l.Update("b", StatusError, "y"))

	assert.Equal(t, []string{"a", "b", "c"}, readIDs(t, l.Path()))
}

func TestSentinels_StayFirstAndLast(t *testing.T) {
	l := newTestLedger(t)

	require.NoError(t, l.WriteStart())
	require.NoError(t, l.Update("a", StatusSuccess, ""))
	require.NoError(t, l.Update("b", StatusError, "boom"))
	require.NoError(t, l.WriteEnd())
	// A later run rewrites the sentinels and appends new rows in between
	require.NoError(t, l.WriteStart())
	require.NoError(t, l.Update("c", StatusSuccess, ""))
	require.NoError(t, l.WriteEnd())

	assert.Equal(t, []string{StartSentinel, "a", "b", "c", EndSentinel}, readIDs(t, l.Path()))

	// Sentinel rows are never surfaced as data
	entries := l.Load()
	require.Len(t, entries, 3)
	assert.NotContains(t, entries, StartSentinel)
	assert.NotContains(t, entries, EndSentinel)
}

// readIDs reads the first column of the ledger file, skipping the header
func readIDs(t *testing.T, path string) []string {
	t.Helper()

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	var ids []string
	for _, row := range rows[1:] {
		if len(row) > 0 && row[0] != "" {
			ids = append(ids, row[0])
		}
	}
	return ids
}
