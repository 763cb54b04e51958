package statement

import (
	"log"
	"strings"
	"time"

	"github.com/dreslan/tapfi/internal/models"
)

// fidelityColumns holds the column indexes learned once from the header row.
type fidelityColumns struct {
	number      int
	name        int
	symbol      int
	description int
	quantity    int
	value       int
	typ         int // optional, -1 when absent
}

const brokerageLinkDescription = "BROKERAGELINK"

// parseFidelity reads a flat Fidelity position export. BROKERAGELINK rows
// are summary placeholders for a sub-account already broken out under its
// own account number; counting them would double the sub-account, so pass
// one collects them and pass two skips them.
func parseFidelity(lines []string) []models.Account {
	if len(lines) < 2 {
		return nil
	}

	headers := headerCells(lines[0])
	cols := fidelityColumns{
		number:      findHeader(headers, "account number"),
		name:        findHeader(headers, "account name"),
		symbol:      findHeader(headers, "symbol"),
		description: findHeader(headers, "description"),
		quantity:    findHeader(headers, "quantity"),
		value:       findHeader(headers, "current value"),
		typ:         findHeader(headers, "type"),
	}
	if cols.number < 0 || cols.name < 0 || cols.value < 0 {
		return nil
	}

	// Pass 1: account numbers whose BROKERAGELINK row has no symbol.
	linkAccounts := make(map[string]bool)
	for _, line := range lines[1:] {
		cells := SplitLine(line)
		description := strings.ToUpper(cellAt(cells, cols.description))
		if description == brokerageLinkDescription && cellAt(cells, cols.symbol) == "" {
			if number := cellAt(cells, cols.number); number != "" {
				linkAccounts[number] = true
			}
		}
	}

	// Pass 2: accumulate positive-valued rows per account number.
	type section struct {
		name     string
		holdings []models.Holding
	}
	sections := make(map[string]*section)
	var order []string
	excluded := 0

	for _, line := range lines[1:] {
		cells := SplitLine(line)

		description := cellAt(cells, cols.description)
		if strings.EqualFold(description, brokerageLinkDescription) {
			excluded++
			continue
		}

		number := cellAt(cells, cols.number)
		name := cellAt(cells, cols.name)
		if number == "" || name == "" {
			continue
		}
		value, ok := parseDollar(cellAt(cells, cols.value))
		if !ok || value <= 0 {
			continue
		}

		symbol := cellAt(cells, cols.symbol)
		holding := models.Holding{
			Symbol:      symbol,
			Description: description,
			Quantity:    parseQuantity(cellAt(cells, cols.quantity)),
			Value:       value,
			AssetClass:  fidelityAssetClass(symbol, description, cellAt(cells, cols.typ)),
		}

		sec, exists := sections[number]
		if !exists {
			sec = &section{name: name}
			sections[number] = sec
			order = append(order, number)
		}
		sec.holdings = append(sec.holdings, holding)
	}

	if excluded > 0 {
		log.Printf("fidelity: excluded %d BROKERAGELINK placeholder row(s) across %d account(s)",
			excluded, len(linkAccounts))
	}

	accounts := make([]models.Account, 0, len(order))
	for _, number := range order {
		sec := sections[number]
		total := 0.0
		for _, h := range sec.holdings {
			total += h.Value
		}
		accounts = append(accounts, models.Account{
			Number:      number,
			Name:        "Fidelity - " + sec.name,
			Type:        models.InferAccountType(sec.name),
			Balance:     total,
			Source:      models.SourceFidelity,
			Holdings:    sec.holdings,
			LastUpdated: time.Now(),
		})
	}
	return accounts
}

// fidelityAssetClass classifies a row as cash or stock. Fidelity marks cash
// through the type column, the FDRXX money-market ticker, or the
// description text.
func fidelityAssetClass(symbol, description, rowType string) models.AssetClass {
	if strings.Contains(strings.ToLower(rowType), "cash") {
		return models.ClassCash
	}
	if strings.EqualFold(symbol, "FDRXX") {
		return models.ClassCash
	}
	upper := strings.ToUpper(description)
	if strings.Contains(upper, "MONEY MARKET") || strings.Contains(description, "Cash") {
		return models.ClassCash
	}
	return models.ClassStock
}
