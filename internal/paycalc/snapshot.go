package paycalc

import (
	"context"
	"fmt"
	"time"

	"go-plantation/internal/deduction"
	"go-plantation/internal/worker"

	"github.com/shopspring/decimal"
)

// SnapshotResult is a freshly built deduction breakdown plus its totals,
// ready to be applied onto a PayCalculationDetail.
type SnapshotResult struct {
	Breakdown          map[string]DeductionSnapshot
	EmployeeDeductions decimal.Decimal
	EmployerDeductions decimal.Decimal
}

// SnapshotBuilder runs the calculator strategies over every active deduction
// type applicable to a worker's nationality class and materializes the
// immutable breakdown. It never catches computation errors; misconfiguration
// propagates to the orchestrator.
type SnapshotBuilder struct {
	deductions deduction.Repository
	now        func() time.Time
}

func NewSnapshotBuilder(deductions deduction.Repository) *SnapshotBuilder {
	return &SnapshotBuilder{deductions: deductions, now: time.Now}
}

// Build computes the breakdown for a nationality and gross salary. A worker
// whose class matches no deduction type (e.g. foreigner without passport)
// legitimately gets an empty breakdown and zero deductions.
func (b *SnapshotBuilder) Build(ctx context.Context, nationality string, grossSalary decimal.Decimal) (SnapshotResult, error) {
	class := worker.NormalizeNationality(nationality)
	now := b.now()

	types, err := b.deductions.ActiveOn(ctx, now)
	if err != nil {
		return SnapshotResult{}, err
	}

	result := SnapshotResult{
		Breakdown:          make(map[string]DeductionSnapshot),
		EmployeeDeductions: decimal.Zero,
		EmployerDeductions: decimal.Zero,
	}

	for i := range types {
		t := &types[i]
		// Validity window re-checked against the same instant the
		// repository filtered on.
		if !t.EffectiveOn(now) || !t.AppliesTo(class) {
			continue
		}

		calc, err := deduction.NewCalculator(t.CalculationMethod)
		if err != nil {
			return SnapshotResult{}, fmt.Errorf("deduction type %s: %w", t.Code, err)
		}

		employeeAmount, err := calc.Calculate(t, grossSalary, deduction.FieldEmployee)
		if err != nil {
			return SnapshotResult{}, fmt.Errorf("deduction type %s: %w", t.Code, err)
		}
		employerAmount, err := calc.Calculate(t, grossSalary, deduction.FieldEmployer)
		if err != nil {
			return SnapshotResult{}, fmt.Errorf("deduction type %s: %w", t.Code, err)
		}

		result.Breakdown[t.Code] = DeductionSnapshot{
			EmployeeRate:             t.EmployeeRate,
			EmployerRate:             t.EmployerRate,
			EmployeeAmount:           employeeAmount,
			EmployerAmount:           employerAmount,
			GrossSalaryAtComputation: grossSalary,
			NationalityAtComputation: class,
		}
		result.EmployeeDeductions = result.EmployeeDeductions.Add(employeeAmount)
		result.EmployerDeductions = result.EmployerDeductions.Add(employerAmount)
	}

	return result, nil
}
