package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"

	log "github.com/sirupsen/logrus"
)

const tableLogPrefix = "table"

var ErrHeaderMismatch = errors.New("table header mismatch")

// one lock per table file for the whole process
var tableLocks sync.Map

func tableLock(path string) *sync.Mutex {
	l, _ := tableLocks.LoadOrStore(path, &sync.Mutex{})
	return l.(*sync.Mutex)
}

// CSVTable appends survey rows to a csv file shared by every submission
type CSVTable struct {
	path string
}

func NewCSVTable(path string) (*CSVTable, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, err
	}
	return &CSVTable{path: abs}, nil
}

func (t *CSVTable) Path() string {
	return t.path
}

// Append adds one row, writing the header first when the file is absent or
// empty. A file that starts with a different header is left untouched.
func (t *CSVTable) Append(ctx context.Context, header, row []string) (string, error) {
	if len(header) != len(row) {
		return "", fmt.Errorf("row has %d values for %d columns", len(row), len(header))
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	l := tableLock(t.path)
	l.Lock()
	defer l.Unlock()

	f, err := os.OpenFile(t.path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			return "", err
		}
	} else {
		r := csv.NewReader(f)
		r.FieldsPerRecord = -1
		existing, err := r.Read()
		if err != nil && err != io.EOF {
			return "", fmt.Errorf("read header of %s: %w", t.path, err)
		}
		if !slices.Equal(existing, header) {
			log.WithFields(log.Fields{
				"prefix":   tableLogPrefix,
				"path":     t.path,
				"existing": existing,
				"header":   header,
			}).Error("append survey row")
			return "", fmt.Errorf("%w: %s starts with %q", ErrHeaderMismatch, t.path, existing)
		}
	}

	if err := w.Write(row); err != nil {
		return "", err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return t.path, nil
}
