package ingest

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/coldreach/internal/model"
)

// maxLoggedSkips caps how many invalid rows are logged per ingestion.
const maxLoggedSkips = 5

// NoValidLeadsError reports that no row survived validation, which points at
// a wrong column mapping rather than bad individual rows.
type NoValidLeadsError struct {
	Rows     int
	Mapping  ColumnMapping
	Unmapped []string
}

func (e *NoValidLeadsError) Error() string {
	msg := fmt.Sprintf("ingest: no valid leads in %d rows", e.Rows)
	if len(e.Unmapped) > 0 {
		msg += fmt.Sprintf(" (unmapped fields: %s)", strings.Join(e.Unmapped, ", "))
	}
	return msg
}

// Normalizer turns tables into validated lead streams.
type Normalizer struct {
	defaults  ColumnMapping
	validator *LeadValidator
}

// NewNormalizer creates a normalizer that falls back to defaults for any field
// the header does not match.
func NewNormalizer(defaults ColumnMapping) *Normalizer {
	return &Normalizer{
		defaults:  defaults,
		validator: NewLeadValidator(),
	}
}

// Normalize resolves the column mapping for t and returns a stream positioned
// before the first valid lead. It reads ahead until that lead is found, so a
// table with no valid rows fails here with *NoValidLeadsError. A source read
// error during the read-ahead is returned as is.
func (n *Normalizer) Normalize(ctx context.Context, t *Table) (*LeadStream, error) {
	mapping := ResolveMapping(DetectMapping(t.Headers), n.defaults)
	s := &LeadStream{
		table:     t,
		mapping:   mapping,
		cols:      mapping.bind(t.Headers),
		validator: n.validator,
	}

	zap.L().Info("ingest: column mapping resolved",
		zap.Any("mapping", mapping),
		zap.Strings("unmapped", mapping.Unmapped(t.Headers)),
	)

	lead, ok := s.scan(ctx)
	if !ok {
		if s.err != nil {
			return nil, s.err
		}
		return nil, &NoValidLeadsError{
			Rows:     s.rows,
			Mapping:  mapping,
			Unmapped: mapping.Unmapped(t.Headers),
		}
	}
	s.pending = &lead
	return s, nil
}

// LeadStream yields validated leads one at a time. It is finite and cannot be
// restarted. Use it like bufio.Scanner:
//
//	for s.Next(ctx) {
//		lead := s.Lead()
//	}
//	if err := s.Err(); err != nil { ... }
type LeadStream struct {
	table     *Table
	mapping   ColumnMapping
	cols      columns
	validator *LeadValidator

	pending *model.Lead
	current model.Lead
	rows    int
	skipped int
	err     error
	done    bool
}

// Next advances to the next valid lead. It returns false when the source is
// exhausted, the context is cancelled, or the source failed.
func (s *LeadStream) Next(ctx context.Context) bool {
	if s.pending != nil {
		s.current = *s.pending
		s.pending = nil
		return true
	}
	lead, ok := s.scan(ctx)
	if ok {
		s.current = lead
	}
	return ok
}

// Lead returns the lead produced by the last successful Next.
func (s *LeadStream) Lead() model.Lead { return s.current }

// Err returns the source error that stopped the stream, if any.
func (s *LeadStream) Err() error { return s.err }

// Skipped returns the number of rows rejected so far.
func (s *LeadStream) Skipped() int { return s.skipped }

// Rows returns the number of data rows read so far.
func (s *LeadStream) Rows() int { return s.rows }

// Mapping returns the resolved column mapping.
func (s *LeadStream) Mapping() ColumnMapping { return s.mapping }

// scan reads rows until one validates.
func (s *LeadStream) scan(ctx context.Context) (model.Lead, bool) {
	for !s.done {
		if err := ctx.Err(); err != nil {
			s.done = true
			s.err = err
			return model.Lead{}, false
		}
		select {
		case <-ctx.Done():
			s.done = true
			s.err = ctx.Err()
			return model.Lead{}, false
		case row, ok := <-s.table.Rows:
			if !ok {
				s.done = true
				if err, ok := <-s.table.Errs; ok && err != nil {
					s.err = err
				}
				return model.Lead{}, false
			}
			s.rows++

			lead := s.leadFromRow(row)
			if err := s.validator.Validate(lead); err != nil {
				s.skipped++
				if s.skipped <= maxLoggedSkips {
					zap.L().Warn("ingest: skipping invalid row",
						zap.Int("row", s.rows),
						zap.String("email", lead.Email),
						zap.Error(err),
					)
				}
				continue
			}
			return lead, true
		}
	}
	return model.Lead{}, false
}

// leadFromRow indexes cols in leadFields order.
func (s *LeadStream) leadFromRow(row []string) model.Lead {
	get := func(i int) string {
		pos := s.cols[i]
		if pos < 0 || pos >= len(row) {
			return ""
		}
		return CleanValue(row[pos])
	}
	return model.Lead{
		FirstName:   get(0),
		LastName:    get(1),
		Email:       get(2),
		CompanyName: get(3),
		Industry:    get(4),
		Website:     get(5),
		Title:       get(6),
		LinkedIn:    get(7),
	}
}

// CleanValue trims v and maps null sentinels (nan, none, null) to "".
func CleanValue(v string) string {
	v = strings.TrimSpace(v)
	switch strings.ToLower(v) {
	case "nan", "none", "null":
		return ""
	}
	return v
}
