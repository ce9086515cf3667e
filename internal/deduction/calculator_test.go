package deduction_test

import (
	"errors"
	"testing"
	"time"

	"go-plantation/internal/deduction"
	deductionerrors "go-plantation/internal/deduction/errors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func mustDate(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestNewCalculator_UnknownMethod(t *testing.T) {
	calc, err := deduction.NewCalculator("lottery")

	assert.Nil(t, calc)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, deductionerrors.ErrUnknownCalculationMethod))
}

func TestPercentageCalculator(t *testing.T) {
	tests := []struct {
		name      string
		gross     string
		rate      string
		precision int32
		field     deduction.Field
		want      string
	}{
		{"rounds half up at precision 2", "3333.33", "11", 2, deduction.FieldEmployee, "366.67"},
		{"whole result stays exact", "3000", "11", 2, deduction.FieldEmployee, "330"},
		{"employer side uses employer rate", "3000", "0", 2, deduction.FieldEmployer, "0"},
		{"zero rate yields zero", "5000", "0", 2, deduction.FieldEmployee, "0"},
		{"custom precision", "1234.56", "1.75", 0, deduction.FieldEmployee, "22"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dt := &deduction.DeductionType{
				Code:              "EPF",
				CalculationMethod: deduction.MethodPercentage,
				EmployeeRate:      dec(tt.rate),
				EmployerRate:      dec(tt.rate),
				RoundingPrecision: tt.precision,
			}
			if tt.field == deduction.FieldEmployer {
				dt.EmployerRate = dec(tt.rate)
			}

			calc, err := deduction.NewCalculator(dt.CalculationMethod)
			assert.NoError(t, err)

			got, err := calc.Calculate(dt, dec(tt.gross), tt.field)
			assert.NoError(t, err)
			assert.True(t, got.Equal(dec(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestPercentageCalculator_EmployerRate(t *testing.T) {
	dt := &deduction.DeductionType{
		CalculationMethod: deduction.MethodPercentage,
		EmployeeRate:      dec("11"),
		EmployerRate:      dec("12"),
		RoundingPrecision: 2,
	}
	calc, _ := deduction.NewCalculator(deduction.MethodPercentage)

	employee, err := calc.Calculate(dt, dec("3000"), deduction.FieldEmployee)
	assert.NoError(t, err)
	employer, err := calc.Calculate(dt, dec("3000"), deduction.FieldEmployer)
	assert.NoError(t, err)

	assert.True(t, employee.Equal(dec("330")))
	assert.True(t, employer.Equal(dec("360")))
}

func TestFixedCalculator_ReturnsRateVerbatim(t *testing.T) {
	dt := &deduction.DeductionType{
		CalculationMethod: deduction.MethodFixed,
		EmployeeRate:      dec("7.50"),
		EmployerRate:      dec("13.25"),
		RoundingPrecision: 2,
	}
	calc, _ := deduction.NewCalculator(deduction.MethodFixed)

	for _, gross := range []string{"0", "100", "99999.99"} {
		employee, err := calc.Calculate(dt, dec(gross), deduction.FieldEmployee)
		assert.NoError(t, err)
		assert.True(t, employee.Equal(dec("7.50")))

		employer, err := calc.Calculate(dt, dec(gross), deduction.FieldEmployer)
		assert.NoError(t, err)
		assert.True(t, employer.Equal(dec("13.25")))
	}
}

func TestFixedCalculator_ZeroRate(t *testing.T) {
	dt := &deduction.DeductionType{CalculationMethod: deduction.MethodFixed}
	calc, _ := deduction.NewCalculator(deduction.MethodFixed)

	got, err := calc.Calculate(dt, dec("2500"), deduction.FieldEmployee)
	assert.NoError(t, err)
	assert.True(t, got.IsZero())
}

func socsoType() *deduction.DeductionType {
	return &deduction.DeductionType{
		Code:              "SOCSO",
		CalculationMethod: deduction.MethodWageRange,
		RoundingPrecision: 2,
		WageRanges: []deduction.DeductionWageRange{
			{
				MinWage:           dec("1000"),
				MaxWage:           decPtr("2000"),
				CalculationMethod: deduction.MethodFixed,
				EmployeeAmount:    dec("10"),
				EmployerAmount:    dec("20"),
			},
			{
				MinWage:           dec("2000.01"),
				MaxWage:           decPtr("3000"),
				CalculationMethod: deduction.MethodFixed,
				EmployeeAmount:    dec("15"),
				EmployerAmount:    dec("30"),
			},
			{
				MinWage:            dec("3000.01"),
				MaxWage:            nil,
				CalculationMethod:  deduction.MethodPercentage,
				EmployeePercentage: dec("0.5"),
				EmployerPercentage: dec("1.75"),
			},
		},
	}
}

func TestWageRangeCalculator(t *testing.T) {
	calc, err := deduction.NewCalculator(deduction.MethodWageRange)
	assert.NoError(t, err)

	tests := []struct {
		name  string
		gross string
		field deduction.Field
		want  string
	}{
		{"boundary belongs to lower bracket", "2000.00", deduction.FieldEmployee, "10"},
		{"next cent belongs to upper bracket", "2000.01", deduction.FieldEmployee, "15"},
		{"employer amount from matched bracket", "2500", deduction.FieldEmployer, "30"},
		{"open-ended bracket matches any higher wage", "50000", deduction.FieldEmployee, "250"},
		{"percentage bracket rounds at parent precision", "3333.33", deduction.FieldEmployer, "58.33"},
		{"below every bracket yields zero", "500", deduction.FieldEmployee, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := calc.Calculate(socsoType(), dec(tt.gross), tt.field)
			assert.NoError(t, err)
			assert.True(t, got.Equal(dec(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestWageRangeCalculator_UnknownBracketMethod(t *testing.T) {
	dt := &deduction.DeductionType{
		CalculationMethod: deduction.MethodWageRange,
		RoundingPrecision: 2,
		WageRanges: []deduction.DeductionWageRange{
			{MinWage: dec("0"), CalculationMethod: "raffle"},
		},
	}
	calc, _ := deduction.NewCalculator(deduction.MethodWageRange)

	_, err := calc.Calculate(dt, dec("1000"), deduction.FieldEmployee)
	assert.True(t, errors.Is(err, deductionerrors.ErrUnknownWageRangeMethod))
}

func TestEffectiveOn_HalfOpenWindow(t *testing.T) {
	from := mustDate("2025-01-01")
	until := mustDate("2025-07-01")
	dt := &deduction.DeductionType{EffectiveFrom: from, EffectiveUntil: &until}

	assert.False(t, dt.EffectiveOn(mustDate("2024-12-31")))
	assert.True(t, dt.EffectiveOn(mustDate("2025-01-01")))
	assert.True(t, dt.EffectiveOn(mustDate("2025-06-30")))
	assert.False(t, dt.EffectiveOn(mustDate("2025-07-01")))

	open := &deduction.DeductionType{EffectiveFrom: from}
	assert.True(t, open.EffectiveOn(mustDate("2030-01-01")))
}
