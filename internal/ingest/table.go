// Package ingest reads tabular lead sources and normalizes their rows into
// validated leads.
package ingest

import (
	"context"
	"io"
	"maps"
	"slices"

	"github.com/rotisserie/eris"
)

// Table is a header row plus a stream of data rows aligned to it by position.
// Rows and Errs are both closed once the source is exhausted.
type Table struct {
	Headers []string
	Rows    <-chan []string
	Errs    <-chan error
}

// rowFunc returns the next raw row, or io.EOF when the source is done.
type rowFunc func() ([]string, error)

// streamRows pumps rows from next into a Table. closer, if non-nil, runs when
// the pump exits.
func streamRows(ctx context.Context, headers []string, next rowFunc, closer io.Closer) *Table {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)
		if closer != nil {
			defer closer.Close() //nolint:errcheck
		}

		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "ingest: context cancelled")
				return
			}

			row, err := next()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- err
				return
			}

			select {
			case rowCh <- row:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "ingest: context cancelled")
				return
			}
		}
	}()

	return &Table{Headers: headers, Rows: rowCh, Errs: errCh}
}

// RowsTable builds a Table from rows already held in memory.
func RowsTable(ctx context.Context, headers []string, rows [][]string) *Table {
	i := 0
	return streamRows(ctx, headers, func() ([]string, error) {
		if i >= len(rows) {
			return nil, io.EOF
		}
		row := rows[i]
		i++
		return row, nil
	}, nil)
}

// RecordsTable builds a Table from name-keyed records. Keys listed in order
// come first when present in any record; the rest follow sorted. Missing values
// become empty.
func RecordsTable(ctx context.Context, records []map[string]string, order []string) *Table {
	present := make(map[string]bool)
	for _, rec := range records {
		for k := range rec {
			present[k] = true
		}
	}

	var headers []string
	for _, h := range order {
		if present[h] {
			headers = append(headers, h)
			delete(present, h)
		}
	}
	headers = append(headers, slices.Sorted(maps.Keys(present))...)

	rows := make([][]string, len(records))
	for i, rec := range records {
		row := make([]string, len(headers))
		for j, h := range headers {
			row[j] = rec[h]
		}
		rows[i] = row
	}
	return RowsTable(ctx, headers, rows)
}
