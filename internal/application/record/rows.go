package record

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/papita/transactions/internal/domain/shared/tabular"
)

// OptionalDecimal reads a decimal cell that may be absent, nil or blank, in
// which case no value is returned rather than zero.
func OptionalDecimal(row tabular.Row, column string) (*decimal.Decimal, error) {
	if !present(row, column) {
		return nil, nil
	}
	d, err := row.Decimal(column)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// OptionalUUID reads a UUID cell that may be absent, nil or blank.
func OptionalUUID(row tabular.Row, column string) (*uuid.UUID, error) {
	if !present(row, column) {
		return nil, nil
	}
	id, err := row.UUID(column)
	if err != nil {
		return nil, err
	}
	if id == uuid.Nil {
		return nil, nil
	}
	return &id, nil
}

// OptionalTime reads a timestamp cell that may be absent, nil or blank.
func OptionalTime(row tabular.Row, column string) (*time.Time, error) {
	if !present(row, column) {
		return nil, nil
	}
	ts, err := row.Time(column)
	if err != nil {
		return nil, err
	}
	if ts.IsZero() {
		return nil, nil
	}
	return &ts, nil
}

// present reports whether the column exists and holds a usable value.
func present(row tabular.Row, column string) bool {
	v, ok := row.Get(column)
	if !ok || v == nil {
		return false
	}
	if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
		return false
	}
	return true
}
