// Package statement turns raw brokerage position exports into normalized
// accounts. It recognizes a closed set of vendor dialects (Schwab
// multi-account exports and Fidelity flat position exports), each with its
// own parser behind a single detection step.
package statement

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dreslan/tapfi/internal/models"
)

// Parse detects the vendor dialect of content and parses it into accounts.
// On a FormatError or EmptyResultError no accounts are returned, so the
// caller commits nothing.
func Parse(content string) ([]models.Account, Format, error) {
	format, err := Detect(content)
	if err != nil {
		return nil, FormatUnknown, err
	}

	var accounts []models.Account
	switch format {
	case FormatSchwab:
		accounts = parseSchwab(splitLines(content))
	case FormatFidelity:
		accounts = parseFidelity(splitLines(content))
	}

	if len(accounts) == 0 {
		return nil, format, &EmptyResultError{Format: format}
	}
	return accounts, format, nil
}

// parseDollar parses a dollar cell ("$1,234.56", "(12.00)", `"950.00"`)
// exactly, returning the amount and whether the cell held a number.
func parseDollar(cell string) (float64, bool) {
	s := cleanCell(cell)
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + s[1:len(s)-1]
	}
	if s == "" || s == "--" {
		return 0, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	f, _ := d.Float64()
	return f, true
}

// parseQuantity parses a share-count cell, tolerating thousands separators.
// Unparseable cells yield zero; quantity is informational only.
func parseQuantity(cell string) float64 {
	s := strings.ReplaceAll(cleanCell(cell), ",", "")
	q, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return q
}
