package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/twmb/go-strftime"
)

// Report is the user-visible terminal report spec.md §7 requires:
// elapsed wall time, the five counters, and derived throughput.
type Report struct {
	StartedAt      time.Time
	Elapsed        time.Duration
	Produced       uint64
	Consumed       uint64
	Retained       uint64
	RejectedParse  uint64
	RejectedInsert uint64
}

// ThroughputPerSec is produced events per second of wall time elapsed.
func (r Report) ThroughputPerSec() float64 {
	secs := r.Elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(r.Produced) / secs
}

// DefaultFormat is the human-readable one-line summary used when no
// --report-format override is given.
const DefaultFormat = `ingest complete in %d: produced=%p consumed=%c retained=%r ` +
	`rejected_parse=%e rejected_insert=%i throughput=%t/s`

// Format renders the report using the teacher's backslash-escape
// grammar (\n \r \t \xXX) for literal characters plus a small set of
// counter placeholders, and github.com/twmb/go-strftime for any
// %T{...} wall-clock placeholder — the same library the teacher used
// for its consume-output timestamp formatting.
func (r Report) Format(format string) (string, error) {
	var out bytes.Buffer
	in := format
	for len(in) > 0 {
		b := in[0]
		switch b {
		case '\\':
			in = in[1:]
			esc, n, err := parseSlash(in)
			if err != nil {
				return "", err
			}
			out.WriteByte(esc)
			in = in[n:]
		case '%':
			in = in[1:]
			consumed, err := r.writePlaceholder(&out, in)
			if err != nil {
				return "", err
			}
			in = in[consumed:]
		default:
			out.WriteByte(b)
			in = in[1:]
		}
	}
	return out.String(), nil
}

func (r Report) writePlaceholder(out *bytes.Buffer, in string) (consumed int, err error) {
	if len(in) == 0 {
		return 0, errors.New("report: dangling %% at end of format")
	}
	switch in[0] {
	case 'p':
		out.WriteString(strconv.FormatUint(r.Produced, 10))
		return 1, nil
	case 'c':
		out.WriteString(strconv.FormatUint(r.Consumed, 10))
		return 1, nil
	case 'r':
		out.WriteString(strconv.FormatUint(r.Retained, 10))
		return 1, nil
	case 'e':
		out.WriteString(strconv.FormatUint(r.RejectedParse, 10))
		return 1, nil
	case 'i':
		out.WriteString(strconv.FormatUint(r.RejectedInsert, 10))
		return 1, nil
	case 't':
		out.WriteString(strconv.FormatFloat(r.ThroughputPerSec(), 'f', 2, 64))
		return 1, nil
	case 'd':
		out.WriteString(r.Elapsed.String())
		return 1, nil
	case '%':
		out.WriteByte('%')
		return 1, nil
	case 'T':
		return r.writeStrftime(out, in)
	default:
		return 0, fmt.Errorf("report: unknown format directive %%%c", in[0])
	}
}

// writeStrftime implements the %T{strftime...} run-start-timestamp
// placeholder, matching the teacher's open/close-delimiter convention
// for embedding a strftime layout inside a %T directive.
func (r Report) writeStrftime(out *bytes.Buffer, in string) (consumed int, err error) {
	const prefix = "{strftime"
	pos := 1 // past 'T'
	if len(in) < pos+len(prefix)+2 || in[pos:pos+len(prefix)] != prefix {
		return 0, errors.New("report: %T must be followed by {strftime<delim>layout<delim>}")
	}
	pos += len(prefix)
	delim := in[pos]
	closeDelim := closingDelim(delim)
	pos++

	end := indexByte(in[pos:], closeDelim)
	if end < 0 {
		return 0, errors.New("report: unterminated %T{strftime...} directive")
	}
	layout := in[pos : pos+end]
	pos += end + 1
	if pos >= len(in) || in[pos] != '}' {
		return 0, errors.New("report: %T{strftime...} missing closing }")
	}
	pos++ // past '}'

	out.WriteString(strftime.Format(layout, r.StartedAt))
	return pos, nil
}

func closingDelim(open byte) byte {
	switch open {
	case '{':
		return '}'
	case '[':
		return ']'
	case '(':
		return ')'
	default:
		return open
	}
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func parseSlash(in string) (byte, int, error) {
	if len(in) == 0 {
		return 0, 0, errors.New("report: invalid slash escape at end of format string")
	}
	switch in[0] {
	case 't':
		return '\t', 1, nil
	case 'n':
		return '\n', 1, nil
	case 'r':
		return '\r', 1, nil
	case '\\':
		return '\\', 1, nil
	case 'x':
		if len(in) < 3 {
			return 0, 0, errors.New("report: invalid non-terminated hex escape sequence")
		}
		n, err := strconv.ParseInt(in[1:3], 16, 16)
		if err != nil {
			return 0, 0, fmt.Errorf("report: unable to parse hex escape sequence %q: %w", in[1:3], err)
		}
		return byte(n), 3, nil
	default:
		return 0, 0, fmt.Errorf("report: unknown slash escape sequence %q", in[:1])
	}
}
