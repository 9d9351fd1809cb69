package repo

import (
	"fmt"
	"regexp"
	"strings"

	kerrors "keel/internal/errors"
)

// StatusEntry is one decoded line of porcelain status output. IndexState and
// WorktreeState are the single-character codes git uses, with ' ' mapped to
// the empty string.
type StatusEntry struct {
	File          string
	IndexState    string
	WorktreeState string
	RenamedFrom   string
}

// Renamed reports whether the entry carries a prior path.
func (e StatusEntry) Renamed() bool {
	return e.RenamedFrom != ""
}

// Two one-character state codes, a space, a path, and an optional
// " -> newpath" rename suffix.
var statusLine = regexp.MustCompile(`^(.)(.) (.+?)(?: -> (.+))?$`)

func parseStatus(out string) ([]StatusEntry, error) {
	entries := make([]StatusEntry, 0)

	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		m := statusLine.FindStringSubmatch(line)
		if m == nil {
			return nil, kerrors.CommandFailed(
				fmt.Sprintf("decoding status line %q", line), 0, out)
		}

		entry := StatusEntry{
			IndexState:    stateCode(m[1]),
			WorktreeState: stateCode(m[2]),
			File:          m[3],
		}
		if m[4] != "" {
			// "XY old -> new": the entry names the new path.
			entry.RenamedFrom = m[3]
			entry.File = m[4]
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func stateCode(s string) string {
	if s == " " {
		return ""
	}
	return s
}
