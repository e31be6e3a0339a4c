package ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// OpenCSV opens a CSV file and returns its rows as a Table. The file is closed
// when the row stream ends.
func OpenCSV(ctx context.Context, path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open csv %s", path)
	}

	t, err := ReadCSV(ctx, f)
	if err != nil {
		f.Close() //nolint:errcheck
		return nil, err
	}
	return t, nil
}

// ReadCSV parses the header row of r synchronously and streams the rest.
// If r is an io.Closer it is closed when the stream ends.
func ReadCSV(ctx context.Context, r io.Reader) (*Table, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1 // allow variable fields

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, eris.New("ingest: csv has no header row")
	}
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read csv header")
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	closer, _ := r.(io.Closer)
	return streamRows(ctx, headers, func() ([]string, error) {
		record, err := reader.Read()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, eris.Wrap(err, "ingest: read csv row")
		}
		return record, nil
	}, closer), nil
}
