package statement

import (
	"fmt"
	"regexp"
	"strings"
)

// Format identifies a known vendor dialect. Detection happens exactly once;
// downstream code dispatches on the value and never re-inspects headers.
type Format int

const (
	FormatUnknown Format = iota
	FormatSchwab
	FormatFidelity
)

func (f Format) String() string {
	switch f {
	case FormatSchwab:
		return "Schwab"
	case FormatFidelity:
		return "Fidelity"
	default:
		return "unknown"
	}
}

// sectionHeaderRe matches Schwab account-section headers: an account name
// followed by an ellipsis and the trailing digits of the account number,
// e.g. `Tony_IRA ...6789`.
var sectionHeaderRe = regexp.MustCompile(`^([^,]+?)\s+\.{3}(\d+)`)

// schwabSectionLineRe is the looser detection-only form of the same pattern.
var schwabSectionLineRe = regexp.MustCompile(`^\w.*\.{3}\d+`)

// FormatError reports a statement matching no known vendor dialect. Headers
// carries the parsed first-line cells as a diagnostic for the user.
type FormatError struct {
	Headers []string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unrecognized statement format (headers found: %s); expected a Schwab or Fidelity position export",
		strings.Join(e.Headers, ", "))
}

// EmptyResultError reports a recognized dialect that yielded no
// positive-valued rows. Distinct from FormatError so the user knows the
// format itself was fine.
type EmptyResultError struct {
	Format Format
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("no valid positions found in %s statement", e.Format)
}

// Detect classifies the statement content. First match wins:
//  1. A "positions for" title line or any Schwab account-section line.
//  2. Header columns: symbol + mkt val is Schwab; account number +
//     account name + current value is Fidelity.
//
// Anything else returns a FormatError carrying the parsed header list.
func Detect(content string) (Format, error) {
	lines := splitLines(content)
	if len(lines) == 0 {
		return FormatUnknown, &FormatError{}
	}

	if strings.Contains(strings.ToLower(lines[0]), "positions for") {
		return FormatSchwab, nil
	}
	for _, line := range lines {
		if schwabSectionLineRe.MatchString(line) {
			return FormatSchwab, nil
		}
	}

	headers := headerCells(lines[0])
	if containsHeader(headers, "symbol") && containsHeader(headers, "mkt val") {
		return FormatSchwab, nil
	}
	if containsHeader(headers, "account number") &&
		containsHeader(headers, "account name") &&
		containsHeader(headers, "current value") {
		return FormatFidelity, nil
	}

	return FormatUnknown, &FormatError{Headers: headers}
}

// headerCells tokenizes a header line into trimmed, quote-stripped,
// lowercased column names.
func headerCells(line string) []string {
	raw := SplitLine(line)
	headers := make([]string, len(raw))
	for i, cell := range raw {
		headers[i] = strings.ToLower(cleanCell(cell))
	}
	return headers
}

// containsHeader reports whether any column name includes the indicator.
func containsHeader(headers []string, indicator string) bool {
	for _, h := range headers {
		if strings.Contains(h, indicator) {
			return true
		}
	}
	return false
}

// findHeader returns the index of the first column whose name includes the
// indicator, or -1.
func findHeader(headers []string, indicator string) int {
	for i, h := range headers {
		if strings.Contains(h, indicator) {
			return i
		}
	}
	return -1
}
