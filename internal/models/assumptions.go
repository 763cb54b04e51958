package models

import (
	"fmt"
	"math"
)

// Assumptions holds the FI goal and the projection inputs. All rates are
// percentages (7 means 7%).
type Assumptions struct {
	FITarget            float64 `json:"fiTarget"`
	WithdrawalRate      float64 `json:"withdrawalRate"`
	AnnualExpenses      float64 `json:"annualExpenses"`
	MonthlyContribution float64 `json:"monthlyContribution"`
	AnnualReturn        float64 `json:"annualReturn"`
	CurrentAge          int     `json:"currentAge"`
	RetirementAge       int     `json:"retirementAge"`

	// ProjectionYears overrides the auto-derived horizon when set.
	ProjectionYears *int `json:"projectionYears,omitempty"`
}

// DefaultAssumptions returns the documented first-run defaults.
func DefaultAssumptions() Assumptions {
	return Assumptions{
		FITarget:            1000000,
		WithdrawalRate:      4,
		AnnualExpenses:      40000,
		MonthlyContribution: 2000,
		AnnualReturn:        7,
		CurrentAge:          30,
		RetirementAge:       65,
		ProjectionYears:     nil,
	}
}

// Validate checks the goal fields. Projection inputs (contribution, ages)
// are free-form live edits and are not gated here.
func (a Assumptions) Validate() error {
	if math.IsNaN(a.FITarget) || a.FITarget <= 0 {
		return &ValidationError{Field: "fiTarget", Message: "target amount must be greater than zero"}
	}
	if math.IsNaN(a.WithdrawalRate) || a.WithdrawalRate <= 0 || a.WithdrawalRate > 10 {
		return &ValidationError{Field: "withdrawalRate", Message: "withdrawal rate must be between 0 and 10 percent"}
	}
	if math.IsNaN(a.AnnualExpenses) || a.AnnualExpenses < 0 {
		return &ValidationError{Field: "annualExpenses", Message: "annual expenses cannot be negative"}
	}
	return nil
}

// ValidationError reports bad user input. The originating mutation is
// aborted with no state change.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
