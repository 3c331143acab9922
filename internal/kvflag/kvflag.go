// Package kvflag parses repeated "key=value" command-line overrides,
// the same shape the teacher CLI used for its config override flags.
package kvflag

import (
	"fmt"
	"strings"
)

// KV is one parsed key=value pair.
type KV struct {
	K string
	V string
}

// Parse splits each "key=value" entry in in, trimming surrounding
// whitespace from both key and value. An entry missing '=', containing
// more than one '=', or with an empty key or value is an error.
func Parse(in []string) ([]KV, error) {
	var kvs []KV
	for _, pair := range in {
		pair = strings.TrimSpace(pair)
		if strings.IndexByte(pair, '=') == -1 {
			return nil, fmt.Errorf("pair %q missing '=' delim", pair)
		}
		rawKV := strings.SplitN(pair, "=", 2)
		if strings.Contains(rawKV[1], "=") {
			return nil, fmt.Errorf("pair %q contains too many '='s", pair)
		}
		k, v := strings.TrimSpace(rawKV[0]), strings.TrimSpace(rawKV[1])
		if len(k) == 0 || len(v) == 0 {
			return nil, fmt.Errorf("pair %q contains an empty key or val", pair)
		}
		kvs = append(kvs, KV{k, v})
	}
	return kvs, nil
}
