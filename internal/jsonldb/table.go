// Implements the generic JSONL-backed table with in-memory caching.

package jsonldb

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"sync"

	"github.com/maruel/ksid"
)

// ErrRowNotFound is returned by Update and Delete when no row has the given ID.
var ErrRowNotFound = errors.New("row not found")

// Cloner is implemented by types that can clone themselves.
type Cloner[T any] interface {
	Clone() T
}

// Row is the constraint for types stored in a Table.
type Row[T any] interface {
	Cloner[T]
	GetID() ksid.ID
}

// Table handles storage and in-memory caching for a single table in JSONL format.
// The first line of the file is a schema header derived from T.
type Table[T Row[T]] struct {
	path string
	mu   sync.RWMutex
	rows []T
}

// NewTable creates a new Table and loads all data from the file.
// A missing file is treated as an empty table; it is created on first Append.
func NewTable[T Row[T]](path string) (*Table[T], error) {
	t := &Table[T]{path: path}
	if err := t.load(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table[T]) load() error {
	f, err := os.Open(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open table: %w", err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	first := true
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if first {
			first = false
			var header schemaHeader
			if err := json.Unmarshal(line, &header); err != nil {
				return fmt.Errorf("failed to parse schema header: %w", err)
			}
			if err := header.Validate(); err != nil {
				return fmt.Errorf("invalid schema header in %s: %w", t.path, err)
			}
			continue
		}
		var row T
		if err := json.Unmarshal(line, &row); err != nil {
			return fmt.Errorf("failed to parse row %d: %w", len(t.rows)+1, err)
		}
		t.rows = append(t.rows, row)
	}
	return scanner.Err()
}

// Len returns the number of rows.
func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// Get returns a clone of the row with the given ID, or false if absent.
func (t *Table[T]) Get(id ksid.ID) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, row := range t.rows {
		if row.GetID() == id {
			return row.Clone(), true
		}
	}
	var zero T
	return zero, false
}

// Last returns a clone of the last row, or false if empty.
func (t *Table[T]) Last() (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.rows) == 0 {
		var zero T
		return zero, false
	}
	return t.rows[len(t.rows)-1].Clone(), true
}

// All returns an iterator over clones of all rows in insertion order.
func (t *Table[T]) All() iter.Seq[T] {
	return t.Iter(0)
}

// Iter returns an iterator over clones of rows starting at offset.
func (t *Table[T]) Iter(offset int) iter.Seq[T] {
	return func(yield func(T) bool) {
		t.mu.RLock()
		rows := make([]T, 0, max(len(t.rows)-offset, 0))
		for i := offset; i < len(t.rows); i++ {
			rows = append(rows, t.rows[i].Clone())
		}
		t.mu.RUnlock()
		for _, row := range rows {
			if !yield(row) {
				return
			}
		}
	}
}

// Append adds a new row to the table and persists it.
func (t *Table[T]) Append(row T) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to marshal row: %w", err)
	}

	_, statErr := os.Stat(t.path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec // G302: 0o644 is intentional for data files
	if err != nil {
		return fmt.Errorf("failed to open table for append: %w", err)
	}
	defer func() { _ = f.Close() }()

	if isNew {
		header, err := t.headerLine()
		if err != nil {
			return err
		}
		if _, err := f.Write(append(header, '\n')); err != nil {
			return fmt.Errorf("failed to write schema header: %w", err)
		}
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append row: %w", err)
	}

	t.rows = append(t.rows, row.Clone())
	return nil
}

// Update replaces the row with the same ID and persists the table.
// Returns the previous row.
func (t *Table[T]) Update(row T) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var zero T
	id := row.GetID()
	for i, r := range t.rows {
		if r.GetID() == id {
			prev := r
			t.rows[i] = row.Clone()
			if err := t.writeAll(); err != nil {
				t.rows[i] = prev
				return zero, err
			}
			return prev, nil
		}
	}
	return zero, ErrRowNotFound
}

// Delete removes the row with the given ID and persists the table.
// Returns the removed row.
func (t *Table[T]) Delete(id ksid.ID) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var zero T
	for i, r := range t.rows {
		if r.GetID() == id {
			prev := r
			t.rows = append(t.rows[:i], t.rows[i+1:]...)
			if err := t.writeAll(); err != nil {
				rows := make([]T, 0, len(t.rows)+1)
				rows = append(rows, t.rows[:i]...)
				rows = append(rows, prev)
				rows = append(rows, t.rows[i:]...)
				t.rows = rows
				return zero, err
			}
			return prev, nil
		}
	}
	return zero, ErrRowNotFound
}

// Replace replaces all rows with the provided slice and persists it.
func (t *Table[T]) Replace(rows []T) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	clones := make([]T, len(rows))
	for i, r := range rows {
		clones[i] = r.Clone()
	}
	prev := t.rows
	t.rows = clones
	if err := t.writeAll(); err != nil {
		t.rows = prev
		return err
	}
	return nil
}

// writeAll rewrites the whole file atomically. Caller must hold the write lock.
func (t *Table[T]) writeAll() error {
	header, err := t.headerLine()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(t.path), filepath.Base(t.path)+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	w := bufio.NewWriter(tmp)
	writeErr := func() error {
		if _, err := w.Write(append(header, '\n')); err != nil {
			return err
		}
		for _, row := range t.rows {
			data, err := json.Marshal(row)
			if err != nil {
				return err
			}
			if _, err := w.Write(append(data, '\n')); err != nil {
				return err
			}
		}
		return w.Flush()
	}()
	if err := tmp.Close(); writeErr == nil {
		writeErr = err
	}
	if writeErr != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write table: %w", writeErr)
	}
	if err := os.Rename(tmpName, t.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace table file: %w", err)
	}
	return nil
}

func (t *Table[T]) headerLine() ([]byte, error) {
	columns, err := schemaFromType[T]()
	if err != nil {
		return nil, fmt.Errorf("failed to derive schema: %w", err)
	}
	header := schemaHeader{Version: currentVersion, Columns: columns}
	data, err := json.Marshal(&header)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema header: %w", err)
	}
	return data, nil
}
