// Package cliutil contains small helpers for printing CLI output and
// dying on unrecoverable command-line errors.
package cliutil

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
)

// MaybeDie, if err is non-nil, prints the message and exits with 1.
func MaybeDie(err error, msg string, args ...interface{}) {
	if err != nil {
		Die(msg, args...)
	}
}

// Die prints a message to stderr and exits with 1.
func Die(msg string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, msg+"\n", args...)
	os.Exit(1)
}

// DumpJSON prints json to stdout, dying if the value is unmarshalable.
func DumpJSON(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	MaybeDie(err, "unable to json marshal output: %v", err)
	fmt.Printf("%s\n", b)
}

// TabWriter writes tab delimited output, used for the config show table.
type TabWriter struct {
	*tabwriter.Writer
}

// NewTable returns a TabWriter with an uppercased header row already printed.
func NewTable(headers ...string) *TabWriter {
	for i, h := range headers {
		headers[i] = strings.ToUpper(h)
	}
	t := &TabWriter{tabwriter.NewWriter(os.Stdout, 6, 4, 2, ' ', 0)}
	t.PrintStrings(headers...)
	return t
}

// PrintStrings prints the arguments tab-delimited and newline-suffixed.
func (t *TabWriter) PrintStrings(args ...string) {
	fmt.Fprint(t.Writer, strings.Join(args, "\t")+"\n")
}
