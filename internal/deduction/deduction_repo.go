package deduction

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Repository is the read side of the deduction registry. Definitions are
// administered elsewhere; the engine only ever selects what is active.
type Repository interface {
	ActiveOn(ctx context.Context, date time.Time) ([]DeductionType, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// ActiveOn returns active deduction types whose half-open validity window
// contains the given date, with brackets preloaded in min_wage order so the
// wage-range strategy's first match is the lowest matching bracket.
func (r *repository) ActiveOn(ctx context.Context, date time.Time) ([]DeductionType, error) {
	var types []DeductionType
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("effective_from <= ?", date).
		Where("effective_until IS NULL OR effective_until > ?", date).
		Preload("WageRanges", func(db *gorm.DB) *gorm.DB {
			return db.Order("min_wage ASC")
		}).
		Order("code ASC").
		Find(&types).Error
	return types, err
}
