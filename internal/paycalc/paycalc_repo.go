package paycalc

import (
	"context"
	"errors"

	paycalcerrors "go-plantation/internal/paycalc/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=paycalc_repo.go -destination=mock/paycalc_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindOrCreateByMonth(ctx context.Context, monthYear string) (*PayCalculation, error)
	FindByMonth(ctx context.Context, monthYear string) (*PayCalculation, error)
	ListMonths(ctx context.Context, monthYear string) ([]PayCalculation, error)
	Save(ctx context.Context, calc *PayCalculation) error
	Delete(ctx context.Context, calc *PayCalculation) error

	// FindOrCreateDetailForUpdate returns the detail row locked FOR UPDATE,
	// creating it when absent. The second return reports creation. Two
	// writers racing on the same (calculation, worker) pair serialize on the
	// row lock or on the unique index, never both insert.
	FindOrCreateDetailForUpdate(ctx context.Context, payCalculationID, workerID uuid.UUID) (*PayCalculationDetail, bool, error)
	FindDetailForUpdate(ctx context.Context, payCalculationID, workerID uuid.UUID) (*PayCalculationDetail, error)
	FindDetailByWorker(ctx context.Context, payCalculationID, workerID uuid.UUID) (*PayCalculationDetail, error)
	ListDetails(ctx context.Context, payCalculationID uuid.UUID) ([]PayCalculationDetail, error)
	SaveDetail(ctx context.Context, detail *PayCalculationDetail) error
	DeleteDetail(ctx context.Context, detail *PayCalculationDetail) error
	CountDetails(ctx context.Context, payCalculationID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) FindOrCreateByMonth(ctx context.Context, monthYear string) (*PayCalculation, error) {
	var calc PayCalculation
	err := r.db.WithContext(ctx).
		Where(PayCalculation{MonthYear: monthYear}).
		FirstOrCreate(&calc).Error
	if err != nil && isUniqueViolation(err) {
		// Lost the insert race; the row exists now.
		err = r.db.WithContext(ctx).First(&calc, "month_year = ?", monthYear).Error
	}
	if err != nil {
		return nil, err
	}
	return &calc, nil
}

func (r *repository) FindByMonth(ctx context.Context, monthYear string) (*PayCalculation, error) {
	var calc PayCalculation
	err := r.db.WithContext(ctx).First(&calc, "month_year = ?", monthYear).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, paycalcerrors.ErrPayCalculationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &calc, nil
}

func (r *repository) ListMonths(ctx context.Context, monthYear string) ([]PayCalculation, error) {
	db := r.db.WithContext(ctx).Order("month_year ASC")
	if monthYear != "" {
		db = db.Where("month_year = ?", monthYear)
	}
	var calcs []PayCalculation
	err := db.Find(&calcs).Error
	return calcs, err
}

func (r *repository) Save(ctx context.Context, calc *PayCalculation) error {
	return r.db.WithContext(ctx).Save(calc).Error
}

func (r *repository) Delete(ctx context.Context, calc *PayCalculation) error {
	return r.db.WithContext(ctx).Delete(calc).Error
}

func (r *repository) FindOrCreateDetailForUpdate(ctx context.Context, payCalculationID, workerID uuid.UUID) (*PayCalculationDetail, bool, error) {
	detail, err := r.lockDetail(ctx, payCalculationID, workerID)
	if err == nil {
		return detail, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	created := &PayCalculationDetail{
		PayCalculationID: payCalculationID,
		WorkerID:         workerID,
	}
	err = r.db.WithContext(ctx).Create(created).Error
	if err == nil {
		return created, true, nil
	}
	if !isUniqueViolation(err) {
		return nil, false, err
	}

	// Another writer inserted first; fall back to locking its row.
	detail, err = r.lockDetail(ctx, payCalculationID, workerID)
	if err != nil {
		return nil, false, err
	}
	return detail, false, nil
}

func (r *repository) FindDetailForUpdate(ctx context.Context, payCalculationID, workerID uuid.UUID) (*PayCalculationDetail, error) {
	detail, err := r.lockDetail(ctx, payCalculationID, workerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, paycalcerrors.ErrDetailNotFound
	}
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (r *repository) lockDetail(ctx context.Context, payCalculationID, workerID uuid.UUID) (*PayCalculationDetail, error) {
	var detail PayCalculationDetail
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("pay_calculation_id = ? AND worker_id = ?", payCalculationID, workerID).
		First(&detail).Error
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

func (r *repository) FindDetailByWorker(ctx context.Context, payCalculationID, workerID uuid.UUID) (*PayCalculationDetail, error) {
	var detail PayCalculationDetail
	err := r.db.WithContext(ctx).
		Where("pay_calculation_id = ? AND worker_id = ?", payCalculationID, workerID).
		First(&detail).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, paycalcerrors.ErrDetailNotFound
	}
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

func (r *repository) ListDetails(ctx context.Context, payCalculationID uuid.UUID) ([]PayCalculationDetail, error) {
	var details []PayCalculationDetail
	err := r.db.WithContext(ctx).
		Where("pay_calculation_id = ?", payCalculationID).
		Order("worker_id ASC").
		Find(&details).Error
	return details, err
}

func (r *repository) SaveDetail(ctx context.Context, detail *PayCalculationDetail) error {
	return r.db.WithContext(ctx).Save(detail).Error
}

func (r *repository) DeleteDetail(ctx context.Context, detail *PayCalculationDetail) error {
	return r.db.WithContext(ctx).Delete(detail).Error
}

func (r *repository) CountDetails(ctx context.Context, payCalculationID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&PayCalculationDetail{}).
		Where("pay_calculation_id = ?", payCalculationID).
		Count(&count).Error
	return count, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
