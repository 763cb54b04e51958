package models

// BackupVersion tags the export format.
const BackupVersion = "1.0"

// Backup is the portable export/import shape. Fields beyond the accounts
// list are optional on import; absent values fall back to defaults.
type Backup struct {
	Accounts            []Account      `json:"accounts"`
	FITarget            float64        `json:"fiTarget,omitempty"`
	WithdrawalRate      float64        `json:"withdrawalRate,omitempty"`
	AnnualExpenses      float64        `json:"annualExpenses,omitempty"`
	MonthlyContribution float64        `json:"monthlyContribution,omitempty"`
	AnnualReturn        float64        `json:"annualReturn,omitempty"`
	CurrentAge          int            `json:"currentAge,omitempty"`
	RetirementAge       int            `json:"retirementAge,omitempty"`
	History             []HistoryEntry `json:"history,omitempty"`
	ExportedAt          string         `json:"exportedAt,omitempty"`
	Version             string         `json:"version,omitempty"`
}
