package deduction

import (
	"fmt"

	deductionerrors "go-plantation/internal/deduction/errors"

	"github.com/shopspring/decimal"
)

// Field selects which side of a deduction a calculator computes.
type Field string

const (
	FieldEmployee Field = "employee"
	FieldEmployer Field = "employer"
)

var hundred = decimal.NewFromInt(100)

// Calculator turns a deduction type and a gross salary into a deduction
// amount for one field. Implementations are pure functions.
type Calculator interface {
	Calculate(t *DeductionType, grossSalary decimal.Decimal, field Field) (decimal.Decimal, error)
}

// NewCalculator maps a calculation method to its strategy. Unknown methods
// are a configuration error, never silently defaulted.
func NewCalculator(method string) (Calculator, error) {
	switch method {
	case MethodPercentage:
		return percentageCalculator{}, nil
	case MethodFixed:
		return fixedCalculator{}, nil
	case MethodWageRange:
		return wageRangeCalculator{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", deductionerrors.ErrUnknownCalculationMethod, method)
	}
}

func (t *DeductionType) rateFor(field Field) decimal.Decimal {
	if field == FieldEmployer {
		return t.EmployerRate
	}
	return t.EmployeeRate
}

// percentageCalculator: gross * rate / 100, rounded half-up at the type's
// precision. A zero rate yields zero; that is a business rule, not an error.
type percentageCalculator struct{}

func (percentageCalculator) Calculate(t *DeductionType, grossSalary decimal.Decimal, field Field) (decimal.Decimal, error) {
	rate := t.rateFor(field)
	if rate.IsZero() {
		return decimal.Zero, nil
	}
	return grossSalary.Mul(rate).Div(hundred).Round(t.RoundingPrecision), nil
}

// fixedCalculator returns the configured rate verbatim regardless of salary.
type fixedCalculator struct{}

func (fixedCalculator) Calculate(t *DeductionType, _ decimal.Decimal, field Field) (decimal.Decimal, error) {
	return t.rateFor(field), nil
}

// wageRangeCalculator picks the first bracket containing the salary and
// applies the bracket's own fixed or percentage rule. No matching bracket
// yields zero.
type wageRangeCalculator struct{}

func (wageRangeCalculator) Calculate(t *DeductionType, grossSalary decimal.Decimal, field Field) (decimal.Decimal, error) {
	for i := range t.WageRanges {
		r := &t.WageRanges[i]
		if !r.Contains(grossSalary) {
			continue
		}
		switch r.CalculationMethod {
		case MethodFixed:
			if field == FieldEmployer {
				return r.EmployerAmount, nil
			}
			return r.EmployeeAmount, nil
		case MethodPercentage:
			pct := r.EmployeePercentage
			if field == FieldEmployer {
				pct = r.EmployerPercentage
			}
			return grossSalary.Mul(pct).Div(hundred).Round(t.RoundingPrecision), nil
		default:
			return decimal.Zero, fmt.Errorf("%w: %q", deductionerrors.ErrUnknownWageRangeMethod, r.CalculationMethod)
		}
	}
	return decimal.Zero, nil
}
