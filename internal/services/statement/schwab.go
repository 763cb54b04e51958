package statement

import (
	"log"
	"math"
	"strings"
	"time"

	"github.com/dreslan/tapfi/internal/models"
)

// schwabColumns maps the fields we extract to their column indexes. Schwab
// moves columns between export generations, so the map is re-learned from
// every embedded header row.
type schwabColumns struct {
	symbol      int
	description int
	quantity    int
	value       int
}

// defaultSchwabColumns matches the common export layout.
var defaultSchwabColumns = schwabColumns{symbol: 0, description: 1, quantity: 2, value: 6}

// schwabSection accumulates one account section while scanning.
type schwabSection struct {
	name          string
	number        string
	holdings      []models.Holding
	reportedTotal float64
	hasReported   bool
}

// schwabParser is a two-state line scanner: before any section header it is
// waiting for a section; afterwards it is inside one. Section boundaries and
// end of file flush through the same path.
type schwabParser struct {
	inSection bool
	section   schwabSection
	cols      schwabColumns
	accounts  []models.Account
}

// parseSchwab scans a Schwab multi-account export. Account boundaries are
// not structurally delimited, only marked by `<name> ...<digits>` text
// lines, which forces the stateful scan.
func parseSchwab(lines []string) []models.Account {
	p := &schwabParser{cols: defaultSchwabColumns}
	for _, line := range lines {
		p.scanLine(line)
	}
	p.flush()
	return p.accounts
}

func (p *schwabParser) scanLine(line string) {
	line = strings.TrimSpace(line)

	if m := sectionHeaderRe.FindStringSubmatch(line); m != nil {
		p.flush()
		p.inSection = true
		p.section = schwabSection{name: strings.TrimSpace(m[1]), number: m[2]}
		return
	}

	cells := SplitLine(line)

	// Embedded header rows re-teach the column layout.
	if strings.EqualFold(cellAt(cells, 0), "symbol") {
		p.learnColumns(cells)
		return
	}

	// Summary rows are not trusted as holdings, but the reported total is
	// kept for a consistency check at flush time.
	if strings.Contains(line, "Account Total") {
		if total, ok := lastDollar(cells); ok {
			p.section.reportedTotal = total
			p.section.hasReported = true
		}
		return
	}

	if !p.inSection {
		return
	}
	p.scanHolding(cells)
}

func (p *schwabParser) learnColumns(cells []string) {
	headers := make([]string, len(cells))
	for i, c := range cells {
		headers[i] = strings.ToLower(cleanCell(c))
	}
	cols := defaultSchwabColumns
	if i := findHeader(headers, "symbol"); i >= 0 {
		cols.symbol = i
	}
	if i := findHeader(headers, "description"); i >= 0 {
		cols.description = i
	}
	if i := findHeader(headers, "qty"); i >= 0 {
		cols.quantity = i
	} else if i := findHeader(headers, "quantity"); i >= 0 {
		cols.quantity = i
	}
	if i := findHeader(headers, "mkt val"); i >= 0 {
		cols.value = i
	} else if i := findHeader(headers, "market value"); i >= 0 {
		cols.value = i
	}
	p.cols = cols
}

func (p *schwabParser) scanHolding(cells []string) {
	symbol := cellAt(cells, p.cols.symbol)
	description := cellAt(cells, p.cols.description)

	// Re-detected header text leaking through as data.
	if strings.EqualFold(symbol, "Symbol") || strings.EqualFold(description, "Description") {
		return
	}

	value, ok := parseDollar(cellAt(cells, p.cols.value))
	if !ok || value <= 0 {
		return
	}

	holding := models.Holding{
		Symbol:      symbol,
		Description: description,
		Quantity:    parseQuantity(cellAt(cells, p.cols.quantity)),
		Value:       value,
		AssetClass:  models.ClassStock,
	}
	if isSchwabCashSweep(symbol, description) {
		holding.Symbol = "CASH"
		holding.AssetClass = models.ClassCash
	}
	p.section.holdings = append(p.section.holdings, holding)
}

// flush closes the in-progress section, if any, and emits it as an account.
// Sections without a single valid holding are discarded.
func (p *schwabParser) flush() {
	if !p.inSection || len(p.section.holdings) == 0 {
		p.inSection = false
		p.section = schwabSection{}
		return
	}

	total := 0.0
	for _, h := range p.section.holdings {
		total += h.Value
	}
	if p.section.hasReported && math.Abs(total-p.section.reportedTotal) > 0.01 {
		log.Printf("schwab: account %q total mismatch: holdings sum to %.2f, statement reports %.2f",
			p.section.name, total, p.section.reportedTotal)
	}

	p.accounts = append(p.accounts, models.Account{
		Number:      p.section.number,
		Name:        "Schwab - " + p.section.name,
		Type:        models.InferAccountType(p.section.name),
		Balance:     total,
		Source:      models.SourceSchwab,
		Holdings:    p.section.holdings,
		LastUpdated: time.Now(),
	})

	p.inSection = false
	p.section = schwabSection{}
}

// isSchwabCashSweep identifies the cash sweep line of a section.
func isSchwabCashSweep(symbol, description string) bool {
	if strings.EqualFold(symbol, "Cash & Cash Investments") {
		return true
	}
	return strings.Contains(description, "Cash") || strings.Contains(description, "Money Market")
}

// lastDollar scans cells right to left for the last parseable dollar amount.
func lastDollar(cells []string) (float64, bool) {
	for i := len(cells) - 1; i >= 0; i-- {
		if v, ok := parseDollar(cells[i]); ok && v > 0 {
			return v, true
		}
	}
	return 0, false
}
