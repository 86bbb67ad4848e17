// Package changelog records every keyword the learner adds to the
// ruleset in an append-only log.
package changelog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/bomsort/internal/common"
	"github.com/Veraticus/bomsort/internal/model"
)

// TimestampLayout is the layout of the bracketed header of each block.
const TimestampLayout = "2006-01-02 15:04:05"

// Log is an append-only record of rule changes.
type Log interface {
	// Append writes one record. Records without changes are skipped.
	Append(ctx context.Context, record model.ChangeRecord) error
	// Entries returns every record in the order it was written.
	Entries(ctx context.Context) ([]model.ChangeRecord, error)
}

// FileLog appends records to a text file. Each record is a block of a
// blank line, "[YYYY-MM-DD HH:MM:SS]", one line per change, and a
// trailing newline.
type FileLog struct {
	path string
}

// NewFileLog returns a log that appends to path.
func NewFileLog(path string) *FileLog {
	return &FileLog{path: path}
}

// Path returns the log file location.
func (l *FileLog) Path() string {
	return l.path
}

// Append writes record to the end of the log file.
func (l *FileLog) Append(ctx context.Context, record model.ChangeRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if record.Empty() {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0750); err != nil {
		return fmt.Errorf("%w: failed to create change log directory: %w", common.ErrIO, err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("%w: failed to open change log: %w", common.ErrIO, err)
	}

	if _, err := io.WriteString(f, Format(record)); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: failed to append change log: %w", common.ErrIO, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: failed to close change log: %w", common.ErrIO, err)
	}
	return nil
}

// Entries parses the log file. A missing file has no entries.
func (l *FileLog) Entries(ctx context.Context) ([]model.ChangeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open change log: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Parse(f)
}

// Format renders record as a log block.
func Format(record model.ChangeRecord) string {
	return fmt.Sprintf("\n[%s]\n%s\n",
		record.Timestamp.Format(TimestampLayout),
		strings.Join(record.Changes, "\n"))
}

// Parse reads log blocks from r. Timestamps are interpreted in local
// time, matching how they were written. Lines before the first header
// are ignored.
func Parse(r io.Reader) ([]model.ChangeRecord, error) {
	var (
		records []model.ChangeRecord
		current *model.ChangeRecord
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		if ts, ok := parseHeader(line); ok {
			if current != nil {
				records = append(records, *current)
			}
			current = &model.ChangeRecord{Timestamp: ts}
			continue
		}

		if current == nil || strings.TrimSpace(line) == "" {
			continue
		}
		current.Changes = append(current.Changes, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read change log: %w", err)
	}

	if current != nil {
		records = append(records, *current)
	}
	return records, nil
}

func parseHeader(line string) (time.Time, bool) {
	if !strings.HasPrefix(line, "[") || !strings.HasSuffix(line, "]") {
		return time.Time{}, false
	}
	ts, err := time.ParseInLocation(TimestampLayout, line[1:len(line)-1], time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
