package util

import (
	"strconv"
	"strings"
)

// SplitNames splits a comma separated list, trimming blanks and dropping empties.
// Order and duplicates are preserved.
func SplitNames(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// FirstDigits extracts the first run of digits from s, ignoring thousands
// separators inside the run ("1,204 results" -> 1204).
func FirstDigits(s string) (int, bool) {
	var b strings.Builder
	started := false
scan:
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			started = true
		case started && (r == ',' || r == '.' || r == '\''):
			// thousands separator
		case started:
			break scan
		}
	}
	if !started {
		return 0, false
	}
	v, err := strconv.Atoi(b.String())
	if err != nil {
		return 0, false
	}
	return v, true
}
