// Package parse implements the pure, stateless line-to-Record parser
// described in spec.md §4.1.
package parse

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hepdata/collider-ingest/internal/record"
)

// Header is the exact header line the Reader skips when present.
const Header = "event_id,timestamp,energy_gev,particle_type,detected_at_tracker"

// Reason classifies why a line failed to parse.
type Reason int

const (
	InvalidId Reason = iota
	InvalidTimestamp
	InvalidEnergy
	InvalidKind
	InvalidBoolean
	WrongArity
	Empty
)

func (r Reason) String() string {
	switch r {
	case InvalidId:
		return "InvalidId"
	case InvalidTimestamp:
		return "InvalidTimestamp"
	case InvalidEnergy:
		return "InvalidEnergy"
	case InvalidKind:
		return "InvalidKind"
	case InvalidBoolean:
		return "InvalidBoolean"
	case WrongArity:
		return "WrongArity"
	case Empty:
		return "Empty"
	default:
		return "Unknown"
	}
}

// Error is the structured per-line diagnostic returned instead of
// panicking or throwing, per spec.md §9's redesign note.
type Error struct {
	Reason Reason
	Line   string
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("parse: %s: %s (line %q)", e.Reason, e.Detail, e.Line)
	}
	return fmt.Sprintf("parse: %s (line %q)", e.Reason, e.Line)
}

const fieldCount = 5

// Parser is a pure, concurrency-safe line-to-Record decoder. The zero
// value is ready to use.
type Parser struct{}

// New returns a ready-to-use Parser.
func New() Parser { return Parser{} }

// Parse decodes one logical line into a Record, per spec.md §4.1 and
// §6. It never mutates shared state and is safe to call concurrently
// from many Readers.
func (Parser) Parse(line string) (record.Record, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return record.Record{}, &Error{Reason: Empty, Line: line}
	}

	fields := strings.Split(trimmed, ",")
	if len(fields) != fieldCount {
		return record.Record{}, &Error{Reason: WrongArity, Line: line,
			Detail: fmt.Sprintf("expected %d fields, got %d", fieldCount, len(fields))}
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	// uuid.Parse also accepts braced, urn-prefixed and unhyphenated forms;
	// only the 36-character hyphenated form is canonical.
	if len(fields[0]) != 36 {
		return record.Record{}, &Error{Reason: InvalidId, Line: line, Detail: "not in canonical 8-4-4-4-12 form"}
	}
	id, err := uuid.Parse(fields[0])
	if err != nil {
		return record.Record{}, &Error{Reason: InvalidId, Line: line, Detail: err.Error()}
	}
	if id == uuid.Nil {
		return record.Record{}, &Error{Reason: InvalidId, Line: line, Detail: "nil id"}
	}

	ts, err := time.Parse(time.RFC3339, fields[1])
	if err != nil {
		return record.Record{}, &Error{Reason: InvalidTimestamp, Line: line, Detail: err.Error()}
	}
	ts = ts.UTC()
	if ts.IsZero() {
		return record.Record{}, &Error{Reason: InvalidTimestamp, Line: line, Detail: "zero timestamp"}
	}

	energy, err := strconv.ParseFloat(fields[2], 64)
	if err != nil || energy < 0 {
		detail := "negative energy"
		if err != nil {
			detail = err.Error()
		}
		return record.Record{}, &Error{Reason: InvalidEnergy, Line: line, Detail: detail}
	}

	kind, ok := record.ParseKind(fields[3])
	if !ok {
		return record.Record{}, &Error{Reason: InvalidKind, Line: line, Detail: fields[3]}
	}

	detected, ok := parseBool(fields[4])
	if !ok {
		return record.Record{}, &Error{Reason: InvalidBoolean, Line: line, Detail: fields[4]}
	}

	rec, err := record.New(id, ts, energy, kind, detected)
	if err != nil {
		// New only rejects cases already excluded above (nil id, zero
		// timestamp, negative energy); defensive, never reached in
		// practice, but surfaced as InvalidEnergy to avoid a panic path.
		return record.Record{}, &Error{Reason: InvalidEnergy, Line: line, Detail: err.Error()}
	}
	return rec, nil
}

func parseBool(s string) (bool, bool) {
	switch {
	case strings.EqualFold(s, "true"):
		return true, true
	case strings.EqualFold(s, "false"):
		return false, true
	default:
		return false, false
	}
}
