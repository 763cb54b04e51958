// Package main provides a CLI tool for checking brokerage statement files
// before importing them.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dreslan/tapfi/internal/services/networth"
	"github.com/dreslan/tapfi/internal/services/statement"
)

func main() {
	verbose := flag.Bool("v", false, "Verbose output (per-holding detail)")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Usage: %s [-v] <statement.csv> [more.csv ...]\n", os.Args[0])
		os.Exit(2)
	}

	failed := 0
	for _, path := range flag.Args() {
		if err := validateFile(path, *verbose); err != nil {
			failed++
			fmt.Printf("FAIL %s\n", path)
			fmt.Printf("     %v\n", err)
		}
	}

	if failed > 0 {
		fmt.Printf("\n%d of %d file(s) failed\n", failed, flag.NArg())
		os.Exit(1)
	}
}

func validateFile(path string, verbose bool) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	parsed, format, err := statement.Parse(string(content))
	if err != nil {
		return err
	}

	fmt.Printf("OK   %s (%s, %d account(s), total $%.2f)\n",
		path, format, len(parsed), networth.Total(parsed))

	for _, account := range parsed {
		fmt.Printf("     %-40s %-10s $%12.2f  (%d holdings)\n",
			account.Name, account.Type, account.Balance, len(account.Holdings))
		if verbose {
			for _, h := range account.Holdings {
				fmt.Printf("       %-10s %-30s $%12.2f\n", h.Symbol, truncate(h.Description, 30), h.Value)
			}
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
