package statement

import "strings"

// SplitLine splits one line of a statement into raw cells. A double quote
// toggles quoted-field state; commas separate fields only outside quotes.
// Quote characters are retained in the returned cells and stripped later by
// callers. Malformed quoting degrades gracefully: the rest of the line stays
// part of the current cell.
func SplitLine(line string) []string {
	var cells []string
	var current strings.Builder
	inQuotes := false

	for _, ch := range line {
		switch {
		case ch == '"':
			inQuotes = !inQuotes
			current.WriteRune(ch)
		case ch == ',' && !inQuotes:
			cells = append(cells, current.String())
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}
	cells = append(cells, current.String())

	return cells
}

// cleanCell trims whitespace and removes quote characters from a raw cell.
func cleanCell(cell string) string {
	return strings.TrimSpace(strings.ReplaceAll(cell, `"`, ""))
}

// cellAt returns the cleaned cell at idx, or "" when the row is too short.
func cellAt(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return cleanCell(cells[idx])
}

// splitLines breaks the raw file content into trimmed, non-empty lines.
func splitLines(content string) []string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
