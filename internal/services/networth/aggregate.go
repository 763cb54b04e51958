// Package networth computes totals and breakdowns over the account list.
// Everything here is a pure function of its input.
package networth

import (
	"sort"

	"github.com/dreslan/tapfi/internal/models"
)

// TypeTotal is one slice of the per-type allocation breakdown.
type TypeTotal struct {
	Type    models.AccountType `json:"type"`
	Label   string             `json:"label"`
	Total   float64            `json:"total"`
	Percent float64            `json:"percent"`
}

// HoldingTotal is one row of the consolidated holdings view: the same
// ticker held in several accounts collapses into one row.
type HoldingTotal struct {
	Key         string            `json:"key"`
	Symbol      string            `json:"symbol,omitempty"`
	Description string            `json:"description,omitempty"`
	Quantity    float64           `json:"quantity"`
	Value       float64           `json:"value"`
	AssetClass  models.AssetClass `json:"assetClass"`
	Accounts    int               `json:"accounts"`
}

// Total sums every account balance.
func Total(accounts []models.Account) float64 {
	sum := 0.0
	for _, a := range accounts {
		sum += a.Balance
	}
	return sum
}

// ByType groups account balances by account type, largest first.
func ByType(accounts []models.Account) []TypeTotal {
	totals := make(map[models.AccountType]float64)
	for _, a := range accounts {
		totals[a.Type] += a.Balance
	}
	grand := Total(accounts)

	out := make([]TypeTotal, 0, len(totals))
	for typ, total := range totals {
		t := TypeTotal{Type: typ, Label: typ.Label(), Total: total}
		if grand > 0 {
			t.Percent = total / grand * 100
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// ByHolding flattens every account's holdings into a consolidated view
// keyed by symbol (description when the symbol is empty), largest first.
func ByHolding(accounts []models.Account) []HoldingTotal {
	totals := make(map[string]*HoldingTotal)
	var order []string

	for _, a := range accounts {
		for _, h := range a.Holdings {
			key := h.Key()
			if key == "" {
				continue
			}
			row, exists := totals[key]
			if !exists {
				row = &HoldingTotal{
					Key:         key,
					Symbol:      h.Symbol,
					Description: h.Description,
					AssetClass:  h.AssetClass,
				}
				totals[key] = row
				order = append(order, key)
			}
			row.Quantity += h.Quantity
			row.Value += h.Value
			row.Accounts++
		}
	}

	out := make([]HoldingTotal, 0, len(order))
	for _, key := range order {
		out = append(out, *totals[key])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Key < out[j].Key
	})
	return out
}
