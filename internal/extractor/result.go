package extractor

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/mattn/go-runewidth"

	"github.com/dbsmedya/goextract/internal/errlog"
	"github.com/dbsmedya/goextract/internal/registry"
)

// DatabaseOutcome is what happened to one database in a run.
type DatabaseOutcome struct {
	Path     string
	Report   string       // placed workbook, empty on failure
	Rows     int          // rows exported
	Stage    errlog.Stage // failing stage, empty on success
	Err      error
	Duration time.Duration
}

// OK reports whether the database was exported.
func (d DatabaseOutcome) OK() bool {
	return d.Err == nil
}

// RunResult contains the statistics and status of one run.
type RunResult struct {
	RunID           string
	Phase           Phase
	ScanRoot        string
	ReportRoot      string
	RegistryOutcome registry.Outcome
	ErrorLog        string // set when at least one failure was recorded
	Total           int
	Succeeded       int
	Failed          int
	Cancelled       bool
	Outcomes        []DatabaseOutcome
	Duration        time.Duration

	// Directories counts exported workbooks per report subdirectory in the
	// order the directories were first seen.
	Directories *orderedmap.OrderedMap[string, int]
}

func newRunResult(runID, scanRoot string) *RunResult {
	return &RunResult{
		RunID:       runID,
		Phase:       PhaseIdle,
		ScanRoot:    scanRoot,
		Directories: orderedmap.NewOrderedMap[string, int](),
	}
}

func (r *RunResult) record(out DatabaseOutcome, dir string) {
	r.Outcomes = append(r.Outcomes, out)
	if !out.OK() {
		r.Failed++
		return
	}
	r.Succeeded++
	count, _ := r.Directories.Get(dir)
	r.Directories.Set(dir, count+1)
}

const (
	maxPathWidth   = 60
	maxDetailWidth = 80
)

// WriteSummary prints an aligned table of per-database outcomes followed by
// the per-directory export counts.
func (r *RunResult) WriteSummary(w io.Writer) error {
	rows := [][]string{{"DATABASE", "STATUS", "ROWS", "DETAIL"}}
	for _, out := range r.Outcomes {
		status, rowCount, detail := "ok", strconv.Itoa(out.Rows), out.Report
		if !out.OK() {
			status, rowCount, detail = "failed", "-", string(out.Stage)+": "+firstLine(out.Err.Error())
		}
		rows = append(rows, []string{
			runewidth.Truncate(out.Path, maxPathWidth, "..."),
			status,
			rowCount,
			runewidth.Truncate(detail, maxDetailWidth, "..."),
		})
	}

	var b strings.Builder
	writeTable(&b, rows)

	fmt.Fprintf(&b, "\nSucceeded: %d  Failed: %d  Total: %d  Duration: %s\n",
		r.Succeeded, r.Failed, r.Total, r.Duration.Round(time.Millisecond))

	if r.Directories != nil && r.Directories.Len() > 0 {
		dirRows := [][]string{{"DIRECTORY", "REPORTS"}}
		for el := r.Directories.Front(); el != nil; el = el.Next() {
			dirRows = append(dirRows, []string{el.Key, strconv.Itoa(el.Value)})
		}
		b.WriteString("\n")
		writeTable(&b, dirRows)
	}
	if r.ErrorLog != "" {
		fmt.Fprintf(&b, "\nErrors were written to %s\n", r.ErrorLog)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// writeTable pads every column to its widest cell by display width, so
// paths with wide characters stay aligned.
func writeTable(b *strings.Builder, rows [][]string) {
	if len(rows) == 0 {
		return
	}
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	for _, row := range rows {
		for i, cell := range row {
			if i == len(row)-1 {
				b.WriteString(cell)
				break
			}
			b.WriteString(runewidth.FillRight(cell, widths[i]))
			b.WriteString("  ")
		}
		b.WriteString("\n")
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
