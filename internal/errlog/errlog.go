// Package errlog records per-database failures in a plain-text, append-only
// file that operators can read after a run.
package errlog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap/zapcore"
)

// Stage names the step of the per-database pipeline that failed.
type Stage string

const (
	StageStage  Stage = "stage"
	StageVerify Stage = "verify"
	StageQuery  Stage = "query"
	StageExport Stage = "export"
	StagePlace  Stage = "place"
)

// Separator joins the fields of one line.
const Separator = " | "

// Entry is one failure.
type Entry struct {
	Time         time.Time
	DatabasePath string
	Stage        Stage
	Err          error
}

// message renders everything after the timestamp. Extra lines of a
// multi-line error are indented by two spaces.
func (e Entry) message() string {
	msg := "unknown error"
	if e.Err != nil {
		msg = e.Err.Error()
	}
	msg = strings.ReplaceAll(strings.TrimRight(msg, "\r\n"), "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\n", "\n  ")

	return strings.Join([]string{e.DatabasePath, string(e.Stage), msg}, Separator)
}

// newEncoder writes "<RFC3339> | <message>" lines with no level, caller or
// structured context.
func newEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:          "time",
		MessageKey:       "msg",
		LevelKey:         zapcore.OmitKey,
		NameKey:          zapcore.OmitKey,
		CallerKey:        zapcore.OmitKey,
		FunctionKey:      zapcore.OmitKey,
		StacktraceKey:    zapcore.OmitKey,
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.RFC3339TimeEncoder,
		ConsoleSeparator: Separator,
	})
}

// lazyFile opens the log file on the first write, so a run without
// failures leaves nothing behind.
type lazyFile struct {
	path string
	file *os.File
}

func (f *lazyFile) Write(p []byte) (int, error) {
	if f.file == nil {
		if dir := filepath.Dir(f.path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return 0, fmt.Errorf("failed to create error log directory: %w", err)
			}
		}
		file, err := os.OpenFile(f.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return 0, fmt.Errorf("failed to open error log %s: %w", f.path, err)
		}
		f.file = file
	}
	return f.file.Write(p)
}

func (f *lazyFile) Sync() error {
	if f.file == nil {
		return nil
	}
	return f.file.Sync()
}

func (f *lazyFile) Close() error {
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}

// Log appends entries to a file through a dedicated zap core.
type Log struct {
	path  string
	mu    sync.Mutex
	out   *lazyFile
	core  zapcore.Core
	count int
}

// New returns a Log writing to path. Nothing is opened yet.
func New(path string) *Log {
	out := &lazyFile{path: path}
	return &Log{
		path: path,
		out:  out,
		core: zapcore.NewCore(newEncoder(), out, zapcore.ErrorLevel),
	}
}

// Path returns the log file location.
func (l *Log) Path() string {
	return l.path
}

// Record appends entry. A zero Time is replaced with the current time.
func (l *Log) Record(entry Entry) error {
	if entry.Time.IsZero() {
		entry.Time = time.Now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.core.Write(zapcore.Entry{
		Level:   zapcore.ErrorLevel,
		Time:    entry.Time,
		Message: entry.message(),
	}, nil); err != nil {
		return fmt.Errorf("failed to write error log: %w", err)
	}
	l.count++
	return nil
}

// Count returns the number of entries recorded by this Log.
func (l *Log) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// Close flushes and closes the file if it was opened.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.core.Sync(); err != nil {
		l.out.Close()
		return err
	}
	return l.out.Close()
}
