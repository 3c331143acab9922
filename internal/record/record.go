// Package record defines the immutable value that flows through the
// ingestion pipeline, and the closed set of particle kinds it carries.
package record

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind is the closed enumeration of particle classes a Record may carry.
type Kind int

const (
	Electron Kind = iota
	Muon
	Proton
)

// String returns the canonical upper-case token for k.
func (k Kind) String() string {
	switch k {
	case Electron:
		return "ELECTRON"
	case Muon:
		return "MUON"
	case Proton:
		return "PROTON"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(k))
	}
}

// ParseKind matches s case-insensitively against the closed enumeration.
func ParseKind(s string) (Kind, bool) {
	switch normalize(s) {
	case "ELECTRON":
		return Electron, true
	case "MUON":
		return Muon, true
	case "PROTON":
		return Proton, true
	default:
		return 0, false
	}
}

func normalize(s string) string {
	b := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		b[i] = c
	}
	return string(b)
}

// Record is one parsed collision event. It is immutable after
// construction: every field is set once by New and never mutated.
type Record struct {
	id        uuid.UUID
	timestamp time.Time
	energy    float64
	kind      Kind
	detected  bool
}

// New constructs a Record, validating spec.md §3's invariants: a
// non-nil id, a non-zero timestamp, and a non-negative energy. Unlike
// the reserved-sentinel layout this type deliberately has no escape
// hatch for a negative energy or all-zero id — termination is modeled
// out-of-band by record.Item, not by an in-band illegal Record.
func New(id uuid.UUID, ts time.Time, energy float64, kind Kind, detected bool) (Record, error) {
	if id == uuid.Nil {
		return Record{}, fmt.Errorf("record: id must not be nil")
	}
	if ts.IsZero() {
		return Record{}, fmt.Errorf("record: timestamp must not be zero")
	}
	if energy < 0 {
		return Record{}, fmt.Errorf("record: energy must be non-negative, got %v", energy)
	}
	return Record{id: id, timestamp: ts, energy: energy, kind: kind, detected: detected}, nil
}

func (r Record) ID() uuid.UUID        { return r.id }
func (r Record) Timestamp() time.Time { return r.timestamp }
func (r Record) Energy() float64      { return r.energy }
func (r Record) Kind() Kind           { return r.kind }
func (r Record) Detected() bool       { return r.detected }

// Equal reports field-wise equality, matching spec.md §3.
func (r Record) Equal(o Record) bool {
	return r.id == o.id &&
		r.timestamp.Equal(o.timestamp) &&
		r.energy == o.energy &&
		r.kind == o.kind &&
		r.detected == o.detected
}
