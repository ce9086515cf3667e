package paycalc

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// PayCalculation is the per-calendar-month pay record. The overall columns
// are derived aggregates, recomputed from the details and never hand-set.
// Created on the first processed work assignment of a month, destroyed when
// reversal removes its last detail.
type PayCalculation struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MonthYear string    `gorm:"type:char(7);not null;uniqueIndex:uq_pay_calculations_month"` // YYYY-MM

	OverallGrossSalary decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	OverallDeduction   decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	OverallNet         decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`

	Details []PayCalculationDetail `gorm:"foreignKey:PayCalculationID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DeductionSnapshot is the frozen result of one deduction-type computation,
// captured for audit. It records the inputs (gross, nationality, rates) the
// amounts were computed from, so later rate changes never rewrite history.
type DeductionSnapshot struct {
	EmployeeRate             decimal.Decimal `json:"employee_rate"`
	EmployerRate             decimal.Decimal `json:"employer_rate"`
	EmployeeAmount           decimal.Decimal `json:"employee_amount"`
	EmployerAmount           decimal.Decimal `json:"employer_amount"`
	GrossSalaryAtComputation decimal.Decimal `json:"gross_salary_at_computation"`
	NationalityAtComputation string          `json:"nationality_at_computation"`
}

// PayCalculationDetail is one worker's pay for one month. The breakdown is a
// snapshot: changing GrossSalary alone re-derives NetSalary from the stale
// deduction totals, and only an explicit snapshot rebuild refreshes them.
type PayCalculationDetail struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PayCalculationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_pay_calculation_worker"`
	WorkerID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_pay_calculation_worker"`

	GrossSalary        decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	DeductionBreakdown datatypes.JSON  `gorm:"type:jsonb"`
	EmployeeDeductions decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	EmployerDeductions decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	NetSalary          decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Breakdown decodes the persisted snapshot document. An empty column decodes
// to an empty map.
func (d *PayCalculationDetail) Breakdown() (map[string]DeductionSnapshot, error) {
	breakdown := make(map[string]DeductionSnapshot)
	if len(d.DeductionBreakdown) == 0 {
		return breakdown, nil
	}
	if err := json.Unmarshal(d.DeductionBreakdown, &breakdown); err != nil {
		return nil, err
	}
	return breakdown, nil
}

// ApplyGrossSalary updates the gross and re-derives the net from the
// existing (possibly stale) employee deduction total. The breakdown is
// deliberately left untouched; use ApplySnapshot to refresh it.
func (d *PayCalculationDetail) ApplyGrossSalary(gross decimal.Decimal) {
	d.GrossSalary = gross
	d.NetSalary = gross.Sub(d.EmployeeDeductions)
}

// ApplySnapshot replaces the breakdown with a freshly built one and
// re-derives the deduction totals and net from it.
func (d *PayCalculationDetail) ApplySnapshot(snap SnapshotResult) error {
	doc, err := json.Marshal(snap.Breakdown)
	if err != nil {
		return err
	}
	d.DeductionBreakdown = datatypes.JSON(doc)
	d.EmployeeDeductions = snap.EmployeeDeductions
	d.EmployerDeductions = snap.EmployerDeductions
	d.NetSalary = d.GrossSalary.Sub(snap.EmployeeDeductions)
	return nil
}
