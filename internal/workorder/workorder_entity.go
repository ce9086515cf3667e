package workorder

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Work order kinds. Work-days orders pay rate × days worked, work-area
// orders pay rate × area covered, resource-only orders have no worker
// component at all.
const (
	KindWorkDays     = "work_days"
	KindWorkArea     = "work_area"
	KindResourceOnly = "resource_only"
)

const (
	StatusPending   = "PENDING"
	StatusCompleted = "COMPLETED"
)

// WorkOrder is owned by the operations side of the back office; the pay
// engine only reads kind, status and completion date. Retracting an order
// soft-deletes it, which is what the reversal path reacts to.
type WorkOrder struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Kind        string     `gorm:"type:varchar(20);not null;index"`
	Status      string     `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	CompletedAt *time.Time `gorm:"index"`

	Assignments []WorkOrderAssignment `gorm:"foreignKey:WorkOrderID"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// HasWorkerComponent reports whether the order's kind involves workers.
func (w *WorkOrder) HasWorkerComponent() bool {
	return w.Kind != KindResourceOnly
}

// CompletionMonth returns the YYYY-MM month of the completion date.
func (w *WorkOrder) CompletionMonth() (string, bool) {
	if w.CompletedAt == nil {
		return "", false
	}
	return w.CompletedAt.Format("2006-01"), true
}

// WorkOrderAssignment is one worker's participation in one work order,
// carrying the agreed rate and the quantity performed.
type WorkOrderAssignment struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	WorkOrderID uuid.UUID `gorm:"type:uuid;not null;index"`
	WorkerID    uuid.UUID `gorm:"type:uuid;not null;index"`

	Rate         decimal.NullDecimal `gorm:"type:decimal(12,2)"`
	WorkDays     decimal.NullDecimal `gorm:"type:decimal(8,2)"`
	WorkAreaSize decimal.NullDecimal `gorm:"type:decimal(10,2)"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Contribution computes the assignment's earned amount: rate × quantity,
// with the quantity chosen by the owning order's kind. Missing rate or
// quantity counts as zero. Deterministic and order-independent.
func (a *WorkOrderAssignment) Contribution(kind string) decimal.Decimal {
	if !a.Rate.Valid {
		return decimal.Zero
	}

	var quantity decimal.NullDecimal
	if kind == KindWorkDays {
		quantity = a.WorkDays
	} else {
		quantity = a.WorkAreaSize
	}
	if !quantity.Valid {
		return decimal.Zero
	}

	return a.Rate.Decimal.Mul(quantity.Decimal)
}
