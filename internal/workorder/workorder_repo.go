package workorder

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

//go:generate mockgen -source=workorder_repo.go -destination=mock/workorder_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*WorkOrder, error)
	// FindByIDUnscoped also returns soft-deleted orders; reversal runs after
	// the order has been retracted.
	FindByIDUnscoped(ctx context.Context, id uuid.UUID) (*WorkOrder, error)
	// ActiveEarningsByWorker sums rate × quantity per worker across all
	// still-active, completed work orders whose completion date falls inside
	// [monthStart, monthEnd), as one group-by aggregate. Workers with no
	// remaining earnings are simply absent from the map.
	ActiveEarningsByWorker(ctx context.Context, workerIDs []uuid.UUID, monthStart, monthEnd time.Time, excludeWorkOrderID *uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
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

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*WorkOrder, error) {
	var wo WorkOrder
	err := r.db.WithContext(ctx).
		Preload("Assignments").
		First(&wo, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &wo, nil
}

func (r *repository) FindByIDUnscoped(ctx context.Context, id uuid.UUID) (*WorkOrder, error) {
	var wo WorkOrder
	err := r.db.WithContext(ctx).
		Unscoped().
		Preload("Assignments").
		First(&wo, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &wo, nil
}

type workerEarningsRow struct {
	WorkerID uuid.UUID
	Earnings decimal.Decimal
}

func (r *repository) ActiveEarningsByWorker(
	ctx context.Context,
	workerIDs []uuid.UUID,
	monthStart, monthEnd time.Time,
	excludeWorkOrderID *uuid.UUID,
) (map[uuid.UUID]decimal.Decimal, error) {
	earnings := make(map[uuid.UUID]decimal.Decimal, len(workerIDs))
	if len(workerIDs) == 0 {
		return earnings, nil
	}

	db := r.db.WithContext(ctx).
		Table("work_order_assignments AS woa").
		Select(`woa.worker_id AS worker_id,
			COALESCE(SUM(COALESCE(woa.rate, 0) * CASE
				WHEN wo.kind = ? THEN COALESCE(woa.work_days, 0)
				ELSE COALESCE(woa.work_area_size, 0)
			END), 0) AS earnings`, KindWorkDays).
		Joins("JOIN work_orders wo ON wo.id = woa.work_order_id").
		Where("woa.worker_id IN ?", workerIDs).
		Where("wo.deleted_at IS NULL").
		Where("wo.status = ?", StatusCompleted).
		Where("wo.kind <> ?", KindResourceOnly).
		Where("wo.completed_at >= ? AND wo.completed_at < ?", monthStart, monthEnd).
		Group("woa.worker_id")

	if excludeWorkOrderID != nil {
		db = db.Where("wo.id <> ?", *excludeWorkOrderID)
	}

	var rows []workerEarningsRow
	if err := db.Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		earnings[row.WorkerID] = row.Earnings
	}
	return earnings, nil
}
