// Package projection turns a net-worth figure and a set of assumptions into
// forward-looking financial-independence metrics and a compounding
// projection series.
package projection

import (
	"math"

	"github.com/dreslan/tapfi/internal/models"
)

// Horizon bounds for the auto-derived projection length.
const (
	minProjectionYears = 10
	maxProjectionYears = 50
	horizonPadding     = 5

	hoursPerYear = 8760
)

// Metrics are the derived FI figures for the dashboard.
type Metrics struct {
	NetWorth              float64 `json:"netWorth"`
	ProgressPercent       float64 `json:"progressPercent"`
	ProjectedAnnualIncome float64 `json:"projectedAnnualIncome"`
	RemainingToTarget     float64 `json:"remainingToTarget"`

	CoastFIAmount  float64 `json:"coastFiAmount"`
	CoastTargetAge int     `json:"coastTargetAge"`

	FIDays            int     `json:"fiDays"`
	RunwayYears       float64 `json:"runwayYears"`
	PassiveHourlyWage float64 `json:"passiveHourlyWage"`
	BaristaGapMonthly float64 `json:"baristaGapMonthly"`
}

// ComputeMetrics derives all FI metrics from the current net worth.
func ComputeMetrics(netWorth float64, a models.Assumptions) Metrics {
	m := Metrics{
		NetWorth:              netWorth,
		ProjectedAnnualIncome: netWorth * a.WithdrawalRate / 100,
		RemainingToTarget:     math.Max(0, a.FITarget-netWorth),
		CoastTargetAge:        a.RetirementAge,
		PassiveHourlyWage:     netWorth * a.AnnualReturn / 100 / hoursPerYear,
		BaristaGapMonthly:     math.Max(0, (a.AnnualExpenses-netWorth*a.WithdrawalRate/100)/12),
	}

	if a.FITarget > 0 {
		m.ProgressPercent = netWorth / a.FITarget * 100
		m.FIDays = int(math.Floor(netWorth / a.FITarget * 365))
	}

	// Coast FI: future value of today's balance with no further
	// contributions, FV = PV * (1+r)^n.
	years := a.RetirementAge - a.CurrentAge
	if years < 0 {
		years = 0
	}
	m.CoastFIAmount = netWorth * math.Pow(1+a.AnnualReturn/100, float64(years))

	if a.AnnualExpenses > 0 {
		m.RunwayYears = netWorth / a.AnnualExpenses
	}

	return m
}

// Point is one year of the projection series.
type Point struct {
	Year    int     `json:"year"`
	Balance float64 `json:"balance"`
}

// Series is the compounding projection. FIYear is the first calendar year
// whose balance reaches the target; nil means the target lies beyond the
// horizon — the series never extrapolates past its last point.
type Series struct {
	Points   []Point `json:"points"`
	Target   float64 `json:"target"`
	MaxYears int     `json:"maxYears"`
	FIYear   *int    `json:"fiYear,omitempty"`
}

// HorizonYears returns the projection length: the explicit override when
// set and positive, otherwise years-to-retirement plus padding, clamped.
func HorizonYears(a models.Assumptions) int {
	if a.ProjectionYears != nil && *a.ProjectionYears > 0 {
		return *a.ProjectionYears
	}
	years := a.RetirementAge - a.CurrentAge + horizonPadding
	if years < minProjectionYears {
		return minProjectionYears
	}
	if years > maxProjectionYears {
		return maxProjectionYears
	}
	return years
}

// ComputeSeries projects the balance year by year from startYear.
// Contributions are applied once per year, after growth; they do not
// compound sub-annually. The first year reaching the target is recorded
// once and never overwritten.
func ComputeSeries(netWorth float64, a models.Assumptions, startYear int) Series {
	maxYears := HorizonYears(a)
	s := Series{
		Points:   make([]Point, 0, maxYears+1),
		Target:   a.FITarget,
		MaxYears: maxYears,
	}

	balance := netWorth
	for i := 0; i <= maxYears; i++ {
		year := startYear + i
		s.Points = append(s.Points, Point{Year: year, Balance: balance})

		if s.FIYear == nil && a.FITarget > 0 && balance >= a.FITarget {
			y := year
			s.FIYear = &y
		}

		balance = balance*(1+a.AnnualReturn/100) + a.MonthlyContribution*12
	}

	return s
}
