package sql

import (
	"fmt"

	"github.com/syssam/persistence/clause"
)

// Record is one row keeping the column order of its result.
type Record struct {
	columns []string
	values  []any
}

// Columns returns the column names of the record.
func (r Record) Columns() []string { return r.columns }

// Values returns the values of the record in column order.
func (r Record) Values() []any { return r.values }

// Get returns the value of the named column.
func (r Record) Get(name string) (any, bool) {
	for i, c := range r.columns {
		if c == name {
			return r.values[i], true
		}
	}
	return nil, false
}

// Map returns the record as a column name to value map.
func (r Record) Map() map[string]any {
	m := make(map[string]any, len(r.columns))
	for i, c := range r.columns {
		m[c] = r.values[i]
	}
	return m
}

// Result is the row set of a read.
type Result struct {
	Columns []string
	Values  [][]any
	Mode    clause.FetchMode
}

// Len returns the number of rows.
func (r *Result) Len() int { return len(r.Values) }

// Maps returns the rows as column name to value maps.
func (r *Result) Maps() []map[string]any {
	out := make([]map[string]any, len(r.Values))
	for i, rec := range r.Records() {
		out[i] = rec.Map()
	}
	return out
}

// Records returns the rows as records.
func (r *Result) Records() []Record {
	out := make([]Record, len(r.Values))
	for i, v := range r.Values {
		out[i] = Record{columns: r.Columns, values: v}
	}
	return out
}

// Rows returns the rows in the shape selected by the fetch mode:
// []map[string]any for FetchMap (the default) and []Record for FetchRecord.
func (r *Result) Rows() any {
	if r.Mode == clause.FetchRecord {
		return r.Records()
	}
	return r.Maps()
}

// ScanResult reads every row of rows and closes it.
func ScanResult(rows ColumnScanner, mode clause.FetchMode) (_ *Result, rerr error) {
	defer func() {
		if err := rows.Close(); err != nil && rerr == nil {
			rerr = err
		}
	}()
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: columns: %w", err)
	}
	res := &Result{Columns: columns, Mode: mode}
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("dialect/sql: scan: %w", err)
		}
		for i, v := range values {
			// Text columns arrive as []byte from the mysql driver.
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		res.Values = append(res.Values, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dialect/sql: rows: %w", err)
	}
	return res, nil
}

// fetchMode reads the fetch clause, defaulting to FetchMap.
func fetchMode(s *clause.Set) (clause.FetchMode, error) {
	var mode clause.FetchMode
	switch v := s.Get(clause.Fetch).(type) {
	case nil:
		return clause.FetchMap, nil
	case clause.FetchMode:
		mode = v
	case string:
		mode = clause.FetchMode(v)
	default:
		return "", fmt.Errorf("fetch expects a clause.FetchMode, got %T", v)
	}
	if mode != clause.FetchMap && mode != clause.FetchRecord {
		return "", fmt.Errorf("unknown fetch mode %q", mode)
	}
	return mode, nil
}
