// Package importer implements the CSV bulk import pipeline: parse a file,
// map its headers onto database columns, then create one entry per row.
//
// An import moves through a fixed set of states:
//
//	NoFile -> Parsed -> Mapped -> Importing -> Done | Failed
//
// Rows import sequentially so progress can be reported incrementally. One
// bad row is recorded and skipped; it never rolls back rows already
// committed.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/docgrid/docgrid/internal/storage/content"
	"github.com/docgrid/docgrid/internal/storage/git"
	"github.com/maruel/ksid"
)

// State is the import pipeline state.
type State string

const (
	StateNoFile    State = "no_file"
	StateParsed    State = "parsed"
	StateMapped    State = "mapped"
	StateImporting State = "importing"
	StateDone      State = "done"
	StateFailed    State = "failed"
)

var (
	// ErrBadState is returned when a step runs out of order.
	ErrBadState = errors.New("import step out of order")
	// ErrEmptyFile is returned when the CSV has no header row.
	ErrEmptyFile = errors.New("csv file is empty")
	// ErrNothingMapped is returned when no CSV header matches any column.
	ErrNothingMapped = errors.New("no csv column maps to a database column")
	// ErrTooManyRows is returned when the CSV exceeds the row limit.
	ErrTooManyRows = errors.New("csv exceeds the import row limit")
)

// EntryCreator is the service dependency: one entry created per CSV row.
type EntryCreator interface {
	CreateEntry(ctx context.Context, orgID, dbID ksid.ID, properties map[string]any, author git.Author) (*content.Entry, error)
}

// ColumnMapping binds one CSV column to one database column.
type ColumnMapping struct {
	CSVIndex int     `json:"csv_index"`
	Header   string  `json:"header"`
	ColumnID ksid.ID `json:"column_id"`
}

// RowFailure records one row that failed to create.
type RowFailure struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// Result reports an import's outcome.
type Result struct {
	Created  int          `json:"created"`
	Total    int          `json:"total"`
	Failures []RowFailure `json:"failures,omitempty"`
}

// Summary renders the result as a user-facing line, like
// "2 of 3 imported, error: row 2: entry quota exceeded".
func (r *Result) Summary() string {
	s := fmt.Sprintf("%d of %d imported", r.Created, r.Total)
	if len(r.Failures) != 0 {
		f := r.Failures[0]
		s += fmt.Sprintf(", error: row %d: %s", f.Row, f.Error)
		if len(r.Failures) > 1 {
			s += fmt.Sprintf(" (and %d more)", len(r.Failures)-1)
		}
	}
	return s
}

// Importer runs one import against one database.
type Importer struct {
	svc      EntryCreator
	orgID    ksid.ID
	dbID     ksid.ID
	author   git.Author
	progress ProgressReporter
	maxRows  int

	state   State
	headers []string
	rows    [][]string
	mapping []ColumnMapping
}

// New creates an importer in the NoFile state. maxRows bounds the accepted
// CSV size; zero means no limit. A nil progress reporter is replaced with
// NullProgress.
func New(svc EntryCreator, orgID, dbID ksid.ID, author git.Author, maxRows int, progress ProgressReporter) *Importer {
	if progress == nil {
		progress = NullProgress{}
	}
	return &Importer{
		svc:      svc,
		orgID:    orgID,
		dbID:     dbID,
		author:   author,
		progress: progress,
		maxRows:  maxRows,
		state:    StateNoFile,
	}
}

// State returns the current pipeline state.
func (im *Importer) State() State {
	return im.state
}

// Headers returns the parsed header row.
func (im *Importer) Headers() []string {
	return im.headers
}

// RowCount returns the number of parsed data rows.
func (im *Importer) RowCount() int {
	return len(im.rows)
}

// Mapping returns the active column mapping.
func (im *Importer) Mapping() []ColumnMapping {
	return im.mapping
}

// Parse reads the CSV: first record is the header, the rest are data rows.
// Ragged rows are tolerated; short rows leave trailing cells empty.
func (im *Importer) Parse(r io.Reader) error {
	if im.state != StateNoFile {
		return fmt.Errorf("%w: parse in state %s", ErrBadState, im.state)
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		im.state = StateFailed
		return fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(records) == 0 {
		im.state = StateFailed
		return ErrEmptyFile
	}
	if im.maxRows > 0 && len(records)-1 > im.maxRows {
		im.state = StateFailed
		return fmt.Errorf("%w: %d rows, max %d", ErrTooManyRows, len(records)-1, im.maxRows)
	}
	im.headers = records[0]
	im.rows = records[1:]
	im.state = StateParsed
	return nil
}

// AutoMap binds CSV headers to columns by case-insensitive name match.
// Headers that match nothing are skipped; computed columns never map since
// their values cannot be written.
func (im *Importer) AutoMap(db *content.Database) error {
	if im.state != StateParsed {
		return fmt.Errorf("%w: map in state %s", ErrBadState, im.state)
	}
	var mapping []ColumnMapping
	for i, header := range im.headers {
		col := db.ColumnByName(strings.TrimSpace(header))
		if col == nil || col.Type.IsComputed() {
			continue
		}
		mapping = append(mapping, ColumnMapping{CSVIndex: i, Header: header, ColumnID: col.ID})
	}
	return im.setMapping(mapping)
}

// SetMapping installs an explicit mapping, overriding AutoMap.
func (im *Importer) SetMapping(mapping []ColumnMapping) error {
	if im.state != StateParsed && im.state != StateMapped {
		return fmt.Errorf("%w: map in state %s", ErrBadState, im.state)
	}
	return im.setMapping(mapping)
}

func (im *Importer) setMapping(mapping []ColumnMapping) error {
	if len(mapping) == 0 {
		im.state = StateFailed
		return ErrNothingMapped
	}
	im.mapping = mapping
	im.state = StateMapped
	return nil
}

// Run creates one entry per data row, in order. Value coercion happens in
// the entry store, so a malformed cell becomes an empty value rather than a
// row failure. A row that fails to create is recorded and the import
// continues; only a cancelled context or a vanished database aborts.
func (im *Importer) Run(ctx context.Context) (*Result, error) {
	if im.state != StateMapped {
		return nil, fmt.Errorf("%w: run in state %s", ErrBadState, im.state)
	}
	im.state = StateImporting
	result := &Result{Total: len(im.rows)}
	im.progress.Start(result.Total)
	for i, row := range im.rows {
		if err := ctx.Err(); err != nil {
			im.state = StateFailed
			return result, err
		}
		props := make(map[string]any, len(im.mapping))
		for _, m := range im.mapping {
			if m.CSVIndex < len(row) {
				props[m.ColumnID.String()] = row[m.CSVIndex]
			}
		}
		if _, err := im.svc.CreateEntry(ctx, im.orgID, im.dbID, props, im.author); err != nil {
			if errors.Is(err, content.ErrDatabaseNotFound) {
				im.state = StateFailed
				return result, err
			}
			result.Failures = append(result.Failures, RowFailure{Row: i + 1, Error: err.Error()})
			im.progress.RowError(i+1, err)
		} else {
			result.Created++
		}
		im.progress.Progress(i+1, result.Total)
	}
	im.state = StateDone
	im.progress.Complete(result)
	return result, nil
}
