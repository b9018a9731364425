package domain

import (
	"fmt"
	"strings"
	"time"
)

// Record is one normalized archive observation. Date is the join key for all
// matching and is always set; Location and Description may be empty.
type Record struct {
	Date        time.Time `json:"date"` // UTC midnight
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description,omitempty"`
}

// Row maps a column name to its cell value. Values are string, float64,
// time.Time, or nil depending on what the source reader could preserve.
type Row map[string]any

// Table is the schema-agnostic tabular input to the normalizer. Columns holds
// the header in source order; every Row is keyed by those column names.
type Table struct {
	Columns []string
	Rows    []Row
}

// SchemaError reports a table with no usable date source: neither a
// recognized date column nor a complete year/month/day triple.
type SchemaError struct {
	Columns []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("no date column or year/month/day triple among columns [%s]",
		strings.Join(e.Columns, ", "))
}

// SourceReadError reports that every reader strategy applicable to a source
// file failed. Attempts lists the strategies in the order they were tried.
type SourceReadError struct {
	Path     string
	Attempts []string
	Err      error
}

func (e *SourceReadError) Error() string {
	return fmt.Sprintf("read table %s: all strategies failed (%s): %v",
		e.Path, strings.Join(e.Attempts, ", "), e.Err)
}

func (e *SourceReadError) Unwrap() error { return e.Err }
