package models

import (
	"fmt"
	"strings"
	"time"
)

// AccountType categorizes an account for the allocation breakdown.
type AccountType string

const (
	TypeBrokerage AccountType = "brokerage"
	Type401k      AccountType = "401k"
	TypeIRA       AccountType = "ira"
	TypeRoth      AccountType = "roth"
	TypeSavings   AccountType = "savings"
	TypeCrypto    AccountType = "crypto"
	TypeOther     AccountType = "other"
)

// Valid reports whether the account type is one of the known values.
func (t AccountType) Valid() bool {
	switch t {
	case TypeBrokerage, Type401k, TypeIRA, TypeRoth, TypeSavings, TypeCrypto, TypeOther:
		return true
	}
	return false
}

// Label returns the display form of the account type.
func (t AccountType) Label() string {
	switch t {
	case TypeBrokerage:
		return "Brokerage"
	case Type401k:
		return "401(k)"
	case TypeIRA:
		return "IRA"
	case TypeRoth:
		return "Roth IRA"
	case TypeSavings:
		return "Savings"
	case TypeCrypto:
		return "Crypto"
	case TypeOther:
		return "Other"
	}
	return string(t)
}

// Source records how an account entered the tracker.
type Source string

const (
	SourceManual   Source = "manual"
	SourceBitcoin  Source = "bitcoin"
	SourceSchwab   Source = "schwab_csv"
	SourceFidelity Source = "fidelity_csv"
)

// AssetClass categorizes a single holding.
type AssetClass string

const (
	ClassStock   AssetClass = "Stock/ETF"
	ClassCash    AssetClass = "Cash"
	ClassCrypto  AssetClass = "Crypto"
	ClassUnknown AssetClass = "Unknown"
	ClassOther   AssetClass = "Other"
)

// Holding is a single position within an account. Holdings are ephemeral:
// a re-import of the owning account replaces them wholesale.
type Holding struct {
	Symbol      string     `json:"symbol"`
	Description string     `json:"description"`
	Quantity    float64    `json:"quantity"`
	Value       float64    `json:"value"`
	AssetClass  AssetClass `json:"assetClass"`
}

// Key returns the consolidation key for the holding: the symbol, or the
// description when no symbol is known.
func (h Holding) Key() string {
	if h.Symbol != "" {
		return h.Symbol
	}
	return h.Description
}

// Account is one tracked account. ID is stable across re-imports; Number is
// the brokerage account number when known.
type Account struct {
	ID          string      `json:"id"`
	Number      string      `json:"number,omitempty"`
	Name        string      `json:"name"`
	Type        AccountType `json:"type"`
	Balance     float64     `json:"balance"`
	Source      Source      `json:"source"`
	Holdings    []Holding   `json:"holdings,omitempty"`
	LastUpdated time.Time   `json:"lastUpdated"`

	// Bitcoin entry inputs, retained so the position can be re-derived.
	BTCAmount float64 `json:"btcAmount,omitempty"`
	BTCPrice  float64 `json:"btcPrice,omitempty"`
}

// HoldingsTotal sums the value of the account's holdings.
func (a Account) HoldingsTotal() float64 {
	total := 0.0
	for _, h := range a.Holdings {
		total += h.Value
	}
	return total
}

// SyntheticHolding builds the single placeholder holding that mirrors the
// balance of a manually entered account.
func SyntheticHolding(name string, balance float64, class AssetClass) Holding {
	return Holding{
		Description: name,
		Quantity:    1,
		Value:       balance,
		AssetClass:  class,
	}
}

// NewBitcoinAccount derives a crypto account from an amount and a spot price.
func NewBitcoinAccount(amount, price float64, now time.Time) Account {
	name := fmt.Sprintf("Bitcoin (%.8f BTC)", amount)
	balance := amount * price
	return Account{
		Name:        name,
		Type:        TypeCrypto,
		Balance:     balance,
		Source:      SourceBitcoin,
		Holdings:    []Holding{{Symbol: "BTC", Description: name, Quantity: amount, Value: balance, AssetClass: ClassCrypto}},
		LastUpdated: now,
		BTCAmount:   amount,
		BTCPrice:    price,
	}
}

// InferAccountType guesses an account type from its display name.
func InferAccountType(name string) AccountType {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "401k") || strings.Contains(n, "401(k)"):
		return Type401k
	case strings.Contains(n, "roth"):
		return TypeRoth
	case strings.Contains(n, "ira"):
		return TypeIRA
	case strings.Contains(n, "hsa") || strings.Contains(n, "health"):
		return TypeOther
	case strings.Contains(n, "savings"):
		return TypeSavings
	}
	return TypeBrokerage
}
