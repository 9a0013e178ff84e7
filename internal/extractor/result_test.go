package extractor

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/goextract/internal/errlog"
)

func TestRunResult_Record(t *testing.T) {
	r := newRunResult("run-1", "/data")

	r.record(DatabaseOutcome{Path: "/data/A/x.fdb", Rows: 3}, "A")
	r.record(DatabaseOutcome{Path: "/data/B/y.fdb", Stage: errlog.StageQuery, Err: errors.New("boom")}, "B")
	r.record(DatabaseOutcome{Path: "/data/A/z.fdb"}, "A")
	r.record(DatabaseOutcome{Path: "/data/C/w.fdb"}, "C")

	assert.Equal(t, 3, r.Succeeded)
	assert.Equal(t, 1, r.Failed)
	assert.Len(t, r.Outcomes, 4)

	assert.Equal(t, []string{"A", "C"}, directoryKeys(r), "failed databases are not counted")
	count, ok := r.Directories.Get("A")
	require.True(t, ok)
	assert.Equal(t, 2, count)
}

func TestRunResult_WriteSummary(t *testing.T) {
	r := newRunResult("run-1", "/data")
	r.Total = 2
	r.Duration = 1500 * time.Millisecond
	r.ErrorLog = "/app/errors.log"
	r.record(DatabaseOutcome{Path: "/data/Склад/x.fdb", Rows: 12, Report: "/out/Склад/x_10-00-00.xlsx"}, "Склад")
	r.record(DatabaseOutcome{Path: "/data/y.fdb", Stage: errlog.StageQuery, Err: errors.New("Table unknown\nT")}, ".")

	var buf bytes.Buffer
	require.NoError(t, r.WriteSummary(&buf))
	out := buf.String()

	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.True(t, strings.HasPrefix(lines[0], "DATABASE"))

	// STATUS column starts at the same display column on every row.
	header := strings.Index(lines[0], "STATUS")
	assert.Equal(t, header, displayIndex(lines[1], "ok"))
	assert.Equal(t, header, displayIndex(lines[2], "failed"))

	assert.Contains(t, out, "query: Table unknown")
	assert.NotContains(t, out, "\nT\n")
	assert.Contains(t, out, "Succeeded: 1  Failed: 1  Total: 2  Duration: 1.5s")
	assert.Contains(t, out, "DIRECTORY")
	assert.Contains(t, out, "Склад")
	assert.Contains(t, out, "Errors were written to /app/errors.log")
}

// displayIndex returns the display column of substr in s, counting each
// Cyrillic letter as one column.
func displayIndex(s, substr string) int {
	i := strings.Index(s, substr)
	if i < 0 {
		return -1
	}
	return len([]rune(s[:i]))
}
