package components

import "strings"

// This file contains pure functions for tree operations.
// These functions take values and return values - no mutation, no side effects.

// MoveCursor computes new cursor position within bounds.
func MoveCursor(cursor, delta, itemCount int) int {
	if itemCount == 0 {
		return 0
	}
	newCursor := cursor + delta
	if newCursor < 0 {
		return 0
	}
	if newCursor >= itemCount {
		return itemCount - 1
	}
	return newCursor
}

// AdjustOffset ensures cursor is visible within viewport.
func AdjustOffset(cursor, offset, visibleHeight int) int {
	if visibleHeight < 1 {
		visibleHeight = 1
	}
	if cursor < offset {
		return cursor
	}
	if cursor >= offset+visibleHeight {
		return cursor - visibleHeight + 1
	}
	return offset
}

// FilterRowsBySearch returns rows matching the search query. Searches the
// label, and for endpoint rows the method and URL as well.
func FilterRowsBySearch(rows []Row, search string) []Row {
	if search == "" {
		return rows
	}
	search = strings.ToLower(search)
	var result []Row
	for _, row := range rows {
		if matchesSearch(row, search) {
			result = append(result, row)
		}
	}
	return result
}

func matchesSearch(row Row, search string) bool {
	if strings.Contains(strings.ToLower(row.Node.Label()), search) {
		return true
	}

	if row.Node.Kind == NodeEndpoint && row.Node.Endpoint != nil {
		ep := row.Node.Endpoint
		if strings.Contains(strings.ToLower(ep.Method()), search) {
			return true
		}
		if strings.Contains(strings.ToLower(ep.URL()), search) {
			return true
		}
	}

	return false
}
