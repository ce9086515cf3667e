package worker

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Worker is a plantation field worker, the subject of pay calculation and
// statutory deductions.
type Worker struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FullName    string    `gorm:"column:full_name;type:varchar(120);not null"`
	Nationality string    `gorm:"type:varchar(60)"` // free-form, normalized by NormalizeNationality

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}
