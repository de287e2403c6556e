// Package tabular provides a columnar batch abstraction used at the bulk
// ingestion boundary: an ordered set of named columns whose rows are
// addressable by index. Loaders hand tables to services; services read rows
// through typed accessors that coerce loosely-typed cell values.
package tabular

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Table is an ordered set of named columns, row-addressable.
// Unknown columns are carried along untouched; consumers ignore them.
type Table struct {
	columns []string
	index   map[string]int
	cells   [][]any
}

// New creates an empty table with the given column order.
// Column names must be unique and non-empty.
func New(columns ...string) (*Table, error) {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if strings.TrimSpace(c) == "" {
			return nil, fmt.Errorf("column %d has an empty name", i)
		}
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("duplicate column %q", c)
		}
		index[c] = i
	}
	return &Table{
		columns: append([]string(nil), columns...),
		index:   index,
	}, nil
}

// FromMaps builds a table from row maps using the given column order.
// Keys absent from columns are dropped; missing keys become nil cells.
func FromMaps(columns []string, rows []map[string]any) (*Table, error) {
	t, err := New(columns...)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		t.AppendMap(row)
	}
	return t, nil
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// HasColumn reports whether the table carries the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.cells)
}

// Append adds one row of cell values in column order.
func (t *Table) Append(values ...any) error {
	if len(values) != len(t.columns) {
		return fmt.Errorf("expected %d values, got %d", len(t.columns), len(values))
	}
	t.cells = append(t.cells, append([]any(nil), values...))
	return nil
}

// AppendMap adds one row from a column-keyed map. Missing columns become nil.
func (t *Table) AppendMap(row map[string]any) {
	values := make([]any, len(t.columns))
	for i, c := range t.columns {
		values[i] = row[c]
	}
	t.cells = append(t.cells, values)
}

// Row returns an addressable view of row i.
func (t *Table) Row(i int) Row {
	return Row{table: t, idx: i}
}

// Row is a view into one table row.
type Row struct {
	table *Table
	idx   int
}

// Index returns the zero-based position of the row within its table.
func (r Row) Index() int {
	return r.idx
}

// Get returns the raw cell value, reporting whether the column exists.
func (r Row) Get(column string) (any, bool) {
	i, ok := r.table.index[column]
	if !ok {
		return nil, false
	}
	return r.table.cells[r.idx][i], true
}

func (r Row) cell(column string) (any, error) {
	v, ok := r.Get(column)
	if !ok {
		return nil, fmt.Errorf("missing required column %q", column)
	}
	return v, nil
}

// String returns the cell as a trimmed string.
func (r Row) String(column string) (string, error) {
	v, err := r.cell(column)
	if err != nil {
		return "", err
	}
	switch s := v.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(s), nil
	case fmt.Stringer:
		return strings.TrimSpace(s.String()), nil
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v)), nil
	}
}

// Bool returns the cell coerced to a boolean. Textual forms accepted:
// true/false, yes/no, y/n, 1/0, on/off (case-insensitive).
func (r Row) Bool(column string) (bool, error) {
	v, err := r.cell(column)
	if err != nil {
		return false, err
	}
	switch b := v.(type) {
	case nil:
		return false, nil
	case bool:
		return b, nil
	case int:
		return b != 0, nil
	case int64:
		return b != 0, nil
	case float64:
		return b != 0, nil
	case string:
		return CoerceBool(b)
	default:
		return false, fmt.Errorf("column %q: cannot coerce %T to bool", column, v)
	}
}

// CoerceBool converts a textual boolean to its value.
func CoerceBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1", "on":
		return true, nil
	case "false", "no", "n", "0", "off", "":
		return false, nil
	default:
		return false, fmt.Errorf("cannot coerce %q to bool", s)
	}
}

// Decimal returns the cell as a decimal value.
func (r Row) Decimal(column string) (decimal.Decimal, error) {
	v, err := r.cell(column)
	if err != nil {
		return decimal.Zero, err
	}
	switch d := v.(type) {
	case nil:
		return decimal.Zero, nil
	case decimal.Decimal:
		return d, nil
	case float64:
		return decimal.NewFromFloat(d), nil
	case int:
		return decimal.NewFromInt(int64(d)), nil
	case int64:
		return decimal.NewFromInt(d), nil
	case string:
		if strings.TrimSpace(d) == "" {
			return decimal.Zero, nil
		}
		parsed, perr := decimal.NewFromString(strings.TrimSpace(d))
		if perr != nil {
			return decimal.Zero, fmt.Errorf("column %q: %w", column, perr)
		}
		return parsed, nil
	default:
		return decimal.Zero, fmt.Errorf("column %q: cannot coerce %T to decimal", column, v)
	}
}

// Int returns the cell as an int.
func (r Row) Int(column string) (int, error) {
	v, err := r.cell(column)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		d, perr := decimal.NewFromString(strings.TrimSpace(n))
		if perr != nil {
			return 0, fmt.Errorf("column %q: %w", column, perr)
		}
		return int(d.IntPart()), nil
	default:
		return 0, fmt.Errorf("column %q: cannot coerce %T to int", column, v)
	}
}

// Time returns the cell as a timestamp. String cells are parsed as RFC 3339
// or as a bare date.
func (r Row) Time(column string) (time.Time, error) {
	v, err := r.cell(column)
	if err != nil {
		return time.Time{}, err
	}
	switch ts := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return ts, nil
	case *time.Time:
		if ts == nil {
			return time.Time{}, nil
		}
		return *ts, nil
	case string:
		s := strings.TrimSpace(ts)
		if s == "" {
			return time.Time{}, nil
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if parsed, perr := time.Parse(layout, s); perr == nil {
				return parsed, nil
			}
		}
		return time.Time{}, fmt.Errorf("column %q: cannot parse %q as time", column, s)
	default:
		return time.Time{}, fmt.Errorf("column %q: cannot coerce %T to time", column, v)
	}
}

// UUID returns the cell as a UUID. Empty cells yield uuid.Nil.
func (r Row) UUID(column string) (uuid.UUID, error) {
	v, err := r.cell(column)
	if err != nil {
		return uuid.Nil, err
	}
	switch id := v.(type) {
	case nil:
		return uuid.Nil, nil
	case uuid.UUID:
		return id, nil
	case string:
		s := strings.TrimSpace(id)
		if s == "" {
			return uuid.Nil, nil
		}
		parsed, perr := uuid.Parse(s)
		if perr != nil {
			return uuid.Nil, fmt.Errorf("column %q: %w", column, perr)
		}
		return parsed, nil
	case []byte:
		parsed, perr := uuid.ParseBytes(id)
		if perr != nil {
			return uuid.Nil, fmt.Errorf("column %q: %w", column, perr)
		}
		return parsed, nil
	default:
		return uuid.Nil, fmt.Errorf("column %q: cannot coerce %T to uuid", column, v)
	}
}

// Strings returns the cell as a list of strings. Scalar strings are split on
// commas; lists pass through with each element stringified.
func (r Row) Strings(column string) ([]string, error) {
	v, err := r.cell(column)
	if err != nil {
		return nil, err
	}
	switch list := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return append([]string(nil), list...), nil
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, strings.TrimSpace(fmt.Sprintf("%v", item)))
		}
		return out, nil
	case string:
		if strings.TrimSpace(list) == "" {
			return nil, nil
		}
		parts := strings.Split(list, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			out = append(out, strings.TrimSpace(p))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("column %q: cannot coerce %T to string list", column, v)
	}
}
