// Package mortgage provides mortgage payment and amortization utilities.
package mortgage

import (
	"fmt"
	"math"

	"github.com/iwvelando/deal-calculator/pkg/constants"
	"github.com/iwvelando/deal-calculator/pkg/datetime"
	"github.com/iwvelando/deal-calculator/pkg/mathutil"
	"go.uber.org/zap"
)

// Loan holds the parameters of a mortgage. AnnualInterestRate is a
// percentage (4.5 for 4.5%).
type Loan struct {
	PropertyValue      float64 `json:"propertyValue" yaml:"propertyValue"`
	Principal          float64 `json:"principal" yaml:"principal"`
	DownPayment        float64 `json:"downPayment" yaml:"downPayment"`
	AnnualInterestRate float64 `json:"annualInterestRate" yaml:"annualInterestRate"`
	TermMonths         int     `json:"termMonths" yaml:"termMonths"`
	StartDate          string  `json:"startDate,omitempty" yaml:"startDate,omitempty"`
}

// Payment holds the values for a given payment.
type Payment struct {
	Month              string  `json:"month"`
	Payment            float64 `json:"payment"`
	Principal          float64 `json:"principal"`
	Interest           float64 `json:"interest"`
	RemainingPrincipal float64 `json:"remainingPrincipal"`
}

// Summary aggregates a loan's schedule.
type Summary struct {
	LoanAmount     float64   `json:"loanAmount"`
	MonthlyPayment float64   `json:"monthlyPayment"`
	TotalInterest  float64   `json:"totalInterest"`
	TotalPaid      float64   `json:"totalPaid"`
	LoanToValue    float64   `json:"loanToValue"`
	Schedule       []Payment `json:"schedule"`
}

// ErrInvalidTerm is returned for a loan term outside 1 to MaxTermMonths.
var ErrInvalidTerm = fmt.Errorf("loan term must be between 1 and %d months", constants.MaxTermMonths)

// Validate checks the loan for values that cannot produce a schedule.
func (l Loan) Validate() error {
	if l.TermMonths <= 0 || l.TermMonths > constants.MaxTermMonths {
		return ErrInvalidTerm
	}
	if l.StartDate != "" && !datetime.ValidMonth(l.StartDate) {
		return fmt.Errorf("invalid start date %q, expected format %s", l.StartDate, datetime.DateTimeLayout)
	}
	if l.DownPayment > l.Principal {
		return fmt.Errorf("down payment %.2f exceeds principal %.2f", l.DownPayment, l.Principal)
	}
	return nil
}

// Amount returns the financed amount.
func (l Loan) Amount() float64 {
	return mathutil.Sanitize(mathutil.Sanitize(l.Principal) - mathutil.Sanitize(l.DownPayment))
}

// CalculateMonthlyPayment calculates the monthly payment for a loan using the standard amortization formula.
func CalculateMonthlyPayment(principal, downPayment, annualInterestRate float64, termMonths int) float64 {
	if termMonths <= 0 {
		return 0
	}
	amount := mathutil.Sanitize(principal - downPayment)
	if annualInterestRate <= 0 {
		// For zero interest, simply divide the principal by term
		return amount / float64(termMonths)
	}

	periodicInterestRate := annualInterestRate / (constants.PercentageMultiplier * constants.MonthsPerYear)
	power := math.Pow(1.00+periodicInterestRate, float64(termMonths))
	discountFactor := (power - 1.00) / power
	return amount * periodicInterestRate / discountFactor
}

// CalculateInterestPayment calculates the interest portion of a payment.
func CalculateInterestPayment(remainingPrincipal, annualInterestRate float64) float64 {
	if annualInterestRate <= 0 {
		return 0
	}
	return remainingPrincipal * annualInterestRate / (constants.PercentageMultiplier * constants.MonthsPerYear)
}

// LoanToValue returns the financed share of the property value as a
// percentage, or 0 when the property value is not positive.
func LoanToValue(propertyValue, loanAmount float64) float64 {
	return mathutil.SafeDivide(mathutil.Sanitize(loanAmount), propertyValue) * constants.PercentageMultiplier
}

// ScheduleGenerator builds amortization schedules.
type ScheduleGenerator struct {
	logger *zap.Logger
}

// NewScheduleGenerator creates a new generator instance
func NewScheduleGenerator(logger *zap.Logger) *ScheduleGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleGenerator{logger: logger}
}

// GenerateSchedule creates a month-by-month schedule. Month labels start at
// loan.StartDate; without one the labels are left empty.
func (g *ScheduleGenerator) GenerateSchedule(loan Loan) ([]Payment, error) {
	if err := loan.Validate(); err != nil {
		return nil, err
	}

	monthlyPayment := CalculateMonthlyPayment(loan.Principal, loan.DownPayment, loan.AnnualInterestRate, loan.TermMonths)
	remaining := loan.Amount()
	schedule := make([]Payment, 0, min(loan.TermMonths, constants.MaxTermMonths))
	month := loan.StartDate

	for i := 1; i <= loan.TermMonths; i++ {
		var current Payment
		current.Month = month
		current.Interest = CalculateInterestPayment(remaining, loan.AnnualInterestRate)
		current.Principal = monthlyPayment - current.Interest

		if i == loan.TermMonths || mathutil.WithinTolerance(remaining, current.Principal, constants.CurrencyTolerance) {
			// We will get machine error otherwise so settle the remainder.
			current.Principal = remaining
			current.RemainingPrincipal = 0
		} else {
			current.RemainingPrincipal = remaining - current.Principal
		}
		current.Payment = current.Principal + current.Interest
		schedule = append(schedule, current)
		remaining = current.RemainingPrincipal

		if month != "" {
			next, err := datetime.OffsetDate(month, datetime.DateTimeLayout, 1)
			if err != nil {
				return nil, err
			}
			month = next
		}
		if remaining == 0 {
			break
		}
	}

	g.logger.Debug(fmt.Sprintf("generated %d payments at %.2f per month", len(schedule), monthlyPayment),
		zap.String("op", "mortgage.GenerateSchedule"),
	)
	return schedule, nil
}

// Summarize computes the schedule and its totals.
func (g *ScheduleGenerator) Summarize(loan Loan) (Summary, error) {
	schedule, err := g.GenerateSchedule(loan)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{
		LoanAmount:     loan.Amount(),
		MonthlyPayment: CalculateMonthlyPayment(loan.Principal, loan.DownPayment, loan.AnnualInterestRate, loan.TermMonths),
		LoanToValue:    LoanToValue(loan.PropertyValue, loan.Amount()),
		Schedule:       schedule,
	}
	for _, p := range schedule {
		summary.TotalInterest += p.Interest
		summary.TotalPaid += p.Payment
	}
	return summary, nil
}
