// Package ingest loads external files into tabular batches.
package ingest

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/papita/transactions/internal/domain/shared/tabular"
)

// Option configures CSV reading.
type Option func(*options)

type options struct {
	delimiter  rune
	lazyQuotes bool
}

// WithDelimiter sets the field delimiter (default comma).
func WithDelimiter(d rune) Option {
	return func(o *options) { o.delimiter = d }
}

// WithLazyQuotes tolerates bare quotes inside unquoted fields.
func WithLazyQuotes(lazy bool) Option {
	return func(o *options) { o.lazyQuotes = lazy }
}

// ReadCSV parses UTF-8 CSV content into a table. The first record is the
// header row naming the columns; a leading byte-order mark is stripped.
func ReadCSV(r io.Reader, opts ...Option) (*tabular.Table, error) {
	o := options{delimiter: ',', lazyQuotes: true}
	for _, opt := range opts {
		opt(&o)
	}

	buf := bufio.NewReader(r)
	if lead, err := buf.Peek(3); err == nil &&
		len(lead) == 3 && lead[0] == 0xEF && lead[1] == 0xBB && lead[2] == 0xBF {
		_, _ = buf.Discard(3)
	}

	reader := csv.NewReader(buf)
	reader.Comma = o.delimiter
	reader.LazyQuotes = o.lazyQuotes
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty input: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	table, err := tabular.New(header...)
	if err != nil {
		return nil, err
	}

	for line := 2; ; line++ {
		fields, err := reader.Read()
		if err == io.EOF {
			return table, nil
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		values := make([]any, len(fields))
		for i, f := range fields {
			values[i] = f
		}
		if err := table.Append(values...); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
}
