// Package strings holds text helpers for terminal output.
package strings

import (
	"strings"
)

// CellMaxLen is the widest a free-text table cell gets before it is shortened.
const CellMaxLen = 48

// minCellLen leaves room for one character plus the ellipsis.
const minCellLen = 4

// Cell flattens s onto one line and shortens it to at most maxLen runes,
// ending in "..." when anything was cut.
// Display names from the directory can hold newlines and tabs.
func Cell(s string, maxLen int) string {
	if maxLen < minCellLen {
		maxLen = minCellLen
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
