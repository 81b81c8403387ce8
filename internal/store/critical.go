package store

import (
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/gjson"
)

// LoadCritical reads the system-critical process list. Unlike the user lists
// it must exist, parse, carry the critical_processes key and be non-empty;
// every other case is an error the caller treats as fatal.
func LoadCritical(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read critical process list: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("parse critical process list %s: invalid JSON", path)
	}
	if !gjson.GetBytes(data, KeyCritical).Exists() {
		return nil, fmt.Errorf("critical process list %s: missing %q", path, KeyCritical)
	}

	names, err := decodeList(data, KeyCritical, path)
	if err != nil {
		return nil, err
	}
	out := names[:0]
	for _, n := range names {
		if strings.TrimSpace(n) != "" {
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("critical process list %s is empty", path)
	}
	return out, nil
}
