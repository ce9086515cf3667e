package deduction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	MethodPercentage = "percentage"
	MethodFixed      = "fixed"
	MethodWageRange  = "wage_range"
)

// Nationality classes a deduction type can apply to. The worker package
// normalizes free-form nationality strings into these values.
const (
	AppliesAll                 = "all"
	AppliesLocal               = "local"
	AppliesForeigner           = "foreigner"
	AppliesForeignerNoPassport = "foreigner_no_passport"
)

// DeductionType is a statutory deduction definition (EPF, SOCSO, SIP, ...).
// Administered outside the engine; read-only here. Superseding a rate closes
// the old record's EffectiveUntil and creates a new record, so historical
// snapshots keep pointing at the rates that were in force.
type DeductionType struct {
	ID                   uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code                 string          `gorm:"type:varchar(40);not null;index:idx_deduction_types_code"`
	Name                 string          `gorm:"type:varchar(120);not null"`
	CalculationMethod    string          `gorm:"type:varchar(20);not null"`
	EmployeeRate         decimal.Decimal `gorm:"type:decimal(12,4);not null;default:0"`
	EmployerRate         decimal.Decimal `gorm:"type:decimal(12,4);not null;default:0"`
	RoundingPrecision    int32           `gorm:"type:int;not null;default:2"`
	AppliesToNationality string          `gorm:"type:varchar(30);not null;default:'all'"`
	IsActive             bool            `gorm:"not null;default:true"`
	EffectiveFrom        time.Time       `gorm:"type:date;not null"`
	EffectiveUntil       *time.Time      `gorm:"type:date"`

	WageRanges []DeductionWageRange `gorm:"foreignKey:DeductionTypeID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EffectiveOn reports whether the definition is in force on the given date.
// The validity window is half-open: [EffectiveFrom, EffectiveUntil).
func (t *DeductionType) EffectiveOn(date time.Time) bool {
	if date.Before(t.EffectiveFrom) {
		return false
	}
	if t.EffectiveUntil != nil && !date.Before(*t.EffectiveUntil) {
		return false
	}
	return true
}

// AppliesTo reports whether the definition covers the given nationality class.
func (t *DeductionType) AppliesTo(class string) bool {
	return t.AppliesToNationality == AppliesAll || t.AppliesToNationality == class
}

// DeductionWageRange is one salary bracket of a wage_range deduction type.
// Brackets must not overlap; the engine takes the first match in min_wage
// order. Overlapping brackets are a data-authoring error.
type DeductionWageRange struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DeductionTypeID uuid.UUID `gorm:"type:uuid;not null;index"`

	MinWage decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	MaxWage *decimal.Decimal `gorm:"type:decimal(12,2)"` // nil = open-ended "and above"

	// Bracket-local method, independent of the parent's top-level method.
	CalculationMethod  string          `gorm:"type:varchar(20);not null"`
	EmployeeAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	EmployerAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	EmployeePercentage decimal.Decimal `gorm:"type:decimal(12,4);not null;default:0"`
	EmployerPercentage decimal.Decimal `gorm:"type:decimal(12,4);not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Contains reports whether the wage falls inside [MinWage, MaxWage], with a
// nil MaxWage matching any wage at or above MinWage.
func (r *DeductionWageRange) Contains(wage decimal.Decimal) bool {
	if wage.LessThan(r.MinWage) {
		return false
	}
	if r.MaxWage != nil && wage.GreaterThan(*r.MaxWage) {
		return false
	}
	return true
}
