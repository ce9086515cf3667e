package paycalc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go-plantation/internal/events"
	"go-plantation/internal/messaging/kafka"
	paycalcerrors "go-plantation/internal/paycalc/errors"
	"go-plantation/internal/shared/contextutil"
	"go-plantation/internal/worker"
	"go-plantation/internal/workorder"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// Result reports the outcome of an orchestration. No-data conditions
// (resource-only order, nothing to reverse) are successes with Processed
// false and an informational message, never errors.
type Result struct {
	Processed bool
	Message   string
}

//go:generate mockgen -source=paycalc_service.go -destination=mock/paycalc_service_mock.go -package=mock
type Service interface {
	// ProcessCompletedWorkOrder accumulates a completed work order into its
	// month's pay records. Accumulation is additive: callers must guarantee
	// at-most-once invocation per completion event (the lifecycle consumer
	// keeps a processed marker for this).
	ProcessCompletedWorkOrder(ctx context.Context, workOrderID uuid.UUID) (Result, error)
	// ReverseWorkOrder recomputes the affected workers' month totals from
	// the remaining active work orders after one is retracted.
	ReverseWorkOrder(ctx context.Context, workOrderID uuid.UUID) (Result, error)
	// RecalculateAll / RecalculateMonth are the idempotent ground-truth
	// sweeps used to repair drift.
	RecalculateAll(ctx context.Context) (Result, error)
	RecalculateMonth(ctx context.Context, monthYear string) (Result, error)

	ListMonths(ctx context.Context) ([]PayCalculation, error)
	GetMonth(ctx context.Context, monthYear string) (*PayCalculation, []PayCalculationDetail, error)
	GetWorkerDetail(ctx context.Context, monthYear string, workerID uuid.UUID) (*PayCalculationDetail, error)
}

type service struct {
	db          *gorm.DB
	repo        Repository
	workOrders  workorder.Repository
	workers     worker.Repository
	accumulator *Accumulator
	outbox      kafka.OutboxRepository
	sf          *singleflight.Group
	logger      *zap.Logger
}

func NewService(
	db *gorm.DB,
	repo Repository,
	workOrders workorder.Repository,
	workers worker.Repository,
	accumulator *Accumulator,
	outbox kafka.OutboxRepository,
) Service {
	return &service{
		db:          db,
		repo:        repo,
		workOrders:  workOrders,
		workers:     workers,
		accumulator: accumulator,
		outbox:      outbox,
		sf:          &singleflight.Group{},
		logger:      zap.L().Named("paycalc.service"),
	}
}

var monthYearPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

func monthRange(monthYear string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01", monthYear)
	if err != nil {
		return time.Time{}, time.Time{}, paycalcerrors.ErrInvalidMonthFormat
	}
	return start, start.AddDate(0, 1, 0), nil
}

func (s *service) ProcessCompletedWorkOrder(ctx context.Context, workOrderID uuid.UUID) (Result, error) {
	log := contextutil.GetLogger(ctx, s.logger)

	wo, err := s.workOrders.FindByID(ctx, workOrderID)
	if err != nil {
		return Result{}, err
	}

	if !wo.HasWorkerComponent() {
		return Result{Message: "work order has no worker component, nothing to accumulate"}, nil
	}
	month, ok := wo.CompletionMonth()
	if !ok {
		return Result{Message: "work order has no completion date, nothing to accumulate"}, nil
	}
	if len(wo.Assignments) == 0 {
		return Result{Message: "work order has no assignments, nothing to accumulate"}, nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		qtx := s.repo.WithTx(tx)
		qWorkers := s.workers.WithTx(tx)

		calc, err := qtx.FindOrCreateByMonth(ctx, month)
		if err != nil {
			return err
		}

		for _, assignment := range wo.Assignments {
			if err := s.accumulator.Process(ctx, qtx, qWorkers, assignment, wo, calc); err != nil {
				return err
			}
		}

		if err := s.recomputeOverallTotals(ctx, qtx, calc); err != nil {
			return err
		}

		return s.enqueueUpdated(ctx, tx, events.EventPayCalculationAccumulated, month, wo.ID)
	})
	if err != nil {
		log.Error("process completed work order failed",
			zap.String("work_order_id", workOrderID.String()),
			zap.Error(err),
		)
		return Result{}, err
	}

	log.Info("work order accumulated",
		zap.String("work_order_id", workOrderID.String()),
		zap.String("month_year", month),
		zap.Int("assignments", len(wo.Assignments)),
	)
	return Result{Processed: true, Message: fmt.Sprintf("pay calculation for %s updated", month)}, nil
}

func (s *service) ReverseWorkOrder(ctx context.Context, workOrderID uuid.UUID) (Result, error) {
	log := contextutil.GetLogger(ctx, s.logger)

	wo, err := s.workOrders.FindByIDUnscoped(ctx, workOrderID)
	if err != nil {
		return Result{}, err
	}

	if wo.CompletedAt == nil {
		return Result{Message: "work order was never completed, nothing to reverse"}, nil
	}
	if !wo.HasWorkerComponent() {
		return Result{Message: "work order has no worker component, nothing to reverse"}, nil
	}

	month, _ := wo.CompletionMonth()
	calc, err := s.repo.FindByMonth(ctx, month)
	if errors.Is(err, paycalcerrors.ErrPayCalculationNotFound) {
		return Result{Message: fmt.Sprintf("no pay calculation for %s, nothing to reverse", month)}, nil
	}
	if err != nil {
		return Result{}, err
	}

	monthStart, monthEnd, err := monthRange(month)
	if err != nil {
		return Result{}, err
	}

	workerIDs := distinctWorkerIDs(wo.Assignments)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		qtx := s.repo.WithTx(tx)
		qWorkOrders := s.workOrders.WithTx(tx)
		qWorkers := s.workers.WithTx(tx)

		// One aggregate for every affected worker; recompute from the
		// remaining active orders, never subtract.
		earnings, err := qWorkOrders.ActiveEarningsByWorker(ctx, workerIDs, monthStart, monthEnd, &wo.ID)
		if err != nil {
			return err
		}

		for _, workerID := range workerIDs {
			if err := s.reconcileWorker(ctx, qtx, qWorkers, calc, workerID, earnings[workerID]); err != nil {
				return err
			}
		}

		remaining, err := qtx.CountDetails(ctx, calc.ID)
		if err != nil {
			return err
		}
		if remaining == 0 {
			if err := qtx.Delete(ctx, calc); err != nil {
				return err
			}
		} else if err := s.recomputeOverallTotals(ctx, qtx, calc); err != nil {
			return err
		}

		return s.enqueueUpdated(ctx, tx, events.EventPayCalculationReversed, month, wo.ID)
	})
	if err != nil {
		log.Error("reverse work order failed",
			zap.String("work_order_id", workOrderID.String()),
			zap.Error(err),
		)
		return Result{}, err
	}

	log.Info("work order reversed",
		zap.String("work_order_id", workOrderID.String()),
		zap.String("month_year", month),
		zap.Int("affected_workers", len(workerIDs)),
	)
	return Result{Processed: true, Message: fmt.Sprintf("pay calculation for %s reconciled", month)}, nil
}

func (s *service) RecalculateAll(ctx context.Context) (Result, error) {
	return s.recalculate(ctx, "")
}

func (s *service) RecalculateMonth(ctx context.Context, monthYear string) (Result, error) {
	if !monthYearPattern.MatchString(monthYear) {
		return Result{}, paycalcerrors.ErrInvalidMonthFormat
	}
	return s.recalculate(ctx, monthYear)
}

// recalculate sweeps every pay calculation (or one month's) and rebuilds
// each detail from the currently-active completed work orders. The sweep is
// not one big transaction; each detail update is individually atomic.
func (s *service) recalculate(ctx context.Context, monthYear string) (Result, error) {
	calcs, err := s.repo.ListMonths(ctx, monthYear)
	if err != nil {
		return Result{}, err
	}
	if len(calcs) == 0 {
		return Result{Message: "no pay calculations to recalculate"}, nil
	}

	var repaired int
	for i := range calcs {
		n, err := s.recalculateOne(ctx, &calcs[i])
		if err != nil {
			return Result{}, err
		}
		repaired += n
	}

	contextutil.GetLogger(ctx, s.logger).Info("recalculation sweep finished",
		zap.String("month_year", monthYear),
		zap.Int("months", len(calcs)),
		zap.Int("details", repaired),
	)
	return Result{Processed: true, Message: fmt.Sprintf("recalculated %d pay detail(s) across %d month(s)", repaired, len(calcs))}, nil
}

func (s *service) recalculateOne(ctx context.Context, calc *PayCalculation) (int, error) {
	monthStart, monthEnd, err := monthRange(calc.MonthYear)
	if err != nil {
		return 0, err
	}

	details, err := s.repo.ListDetails(ctx, calc.ID)
	if err != nil {
		return 0, err
	}

	workerIDs := make([]uuid.UUID, 0, len(details))
	for _, d := range details {
		workerIDs = append(workerIDs, d.WorkerID)
	}

	earnings, err := s.workOrders.ActiveEarningsByWorker(ctx, workerIDs, monthStart, monthEnd, nil)
	if err != nil {
		return 0, err
	}

	for _, workerID := range workerIDs {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return s.reconcileWorker(ctx, s.repo.WithTx(tx), s.workers.WithTx(tx), calc, workerID, earnings[workerID])
		})
		if err != nil {
			return 0, err
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		qtx := s.repo.WithTx(tx)
		remaining, err := qtx.CountDetails(ctx, calc.ID)
		if err != nil {
			return err
		}
		if remaining == 0 {
			return qtx.Delete(ctx, calc)
		}
		if err := s.recomputeOverallTotals(ctx, qtx, calc); err != nil {
			return err
		}
		return s.enqueueUpdated(ctx, tx, events.EventPayCalculationReconciled, calc.MonthYear, uuid.Nil)
	})
	if err != nil {
		return 0, err
	}

	return len(workerIDs), nil
}

// reconcileWorker sets a worker's detail to the recomputed active earnings:
// zero earnings delete the detail, anything else replaces the gross and
// rebuilds the snapshot against it.
func (s *service) reconcileWorker(
	ctx context.Context,
	repo Repository,
	workers worker.Repository,
	calc *PayCalculation,
	workerID uuid.UUID,
	activeEarnings decimal.Decimal,
) error {
	detail, err := repo.FindDetailForUpdate(ctx, calc.ID, workerID)
	if errors.Is(err, paycalcerrors.ErrDetailNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if activeEarnings.IsZero() {
		return repo.DeleteDetail(ctx, detail)
	}

	w, err := workers.FindByID(ctx, workerID)
	if err != nil {
		return err
	}
	snap, err := s.accumulator.snapshots.Build(ctx, w.Nationality, activeEarnings)
	if err != nil {
		return err
	}

	detail.GrossSalary = activeEarnings
	if err := detail.ApplySnapshot(snap); err != nil {
		return err
	}
	return repo.SaveDetail(ctx, detail)
}

// recomputeOverallTotals re-derives the month's aggregates as the sum of its
// details.
func (s *service) recomputeOverallTotals(ctx context.Context, repo Repository, calc *PayCalculation) error {
	details, err := repo.ListDetails(ctx, calc.ID)
	if err != nil {
		return err
	}

	gross, deduction, net := decimal.Zero, decimal.Zero, decimal.Zero
	for _, d := range details {
		gross = gross.Add(d.GrossSalary)
		deduction = deduction.Add(d.EmployeeDeductions)
		net = net.Add(d.NetSalary)
	}

	calc.OverallGrossSalary = gross
	calc.OverallDeduction = deduction
	calc.OverallNet = net
	return repo.Save(ctx, calc)
}

func (s *service) enqueueUpdated(ctx context.Context, tx *gorm.DB, eventType, monthYear string, workOrderID uuid.UUID) error {
	if s.outbox == nil {
		return nil
	}

	event := events.PayCalculationUpdatedEvent{
		EventType:  eventType,
		MonthYear:  monthYear,
		OccurredAt: time.Now().UTC(),
	}
	if workOrderID != uuid.Nil {
		event.WorkOrderID = workOrderID.String()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return s.outbox.WithTx(tx).Create(ctx, &kafka.OutboxEvent{
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "pay_calculation",
		AggregateID:   monthYear,
		EventType:     eventType,
		Topic:         events.PayCalculationUpdatedTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

func (s *service) ListMonths(ctx context.Context) ([]PayCalculation, error) {
	return s.repo.ListMonths(ctx, "")
}

// monthView bundles the two reads GetMonth collapses behind singleflight.
type monthView struct {
	calc    *PayCalculation
	details []PayCalculationDetail
}

// The read surface collapses concurrent identical lookups; a burst of
// clients polling the same month after a recalculation hits the database
// once.
func (s *service) GetMonth(ctx context.Context, monthYear string) (*PayCalculation, []PayCalculationDetail, error) {
	if !monthYearPattern.MatchString(monthYear) {
		return nil, nil, paycalcerrors.ErrInvalidMonthFormat
	}

	v, err, _ := s.sf.Do("month:"+monthYear, func() (interface{}, error) {
		calc, err := s.repo.FindByMonth(ctx, monthYear)
		if err != nil {
			return nil, err
		}
		details, err := s.repo.ListDetails(ctx, calc.ID)
		if err != nil {
			return nil, err
		}
		return monthView{calc: calc, details: details}, nil
	})
	if err != nil {
		return nil, nil, err
	}

	view := v.(monthView)
	return view.calc, view.details, nil
}

func (s *service) GetWorkerDetail(ctx context.Context, monthYear string, workerID uuid.UUID) (*PayCalculationDetail, error) {
	if !monthYearPattern.MatchString(monthYear) {
		return nil, paycalcerrors.ErrInvalidMonthFormat
	}

	v, err, _ := s.sf.Do("detail:"+monthYear+":"+workerID.String(), func() (interface{}, error) {
		calc, err := s.repo.FindByMonth(ctx, monthYear)
		if err != nil {
			return nil, err
		}
		return s.repo.FindDetailByWorker(ctx, calc.ID, workerID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*PayCalculationDetail), nil
}

func distinctWorkerIDs(assignments []workorder.WorkOrderAssignment) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(assignments))
	ids := make([]uuid.UUID, 0, len(assignments))
	for _, a := range assignments {
		if _, ok := seen[a.WorkerID]; ok {
			continue
		}
		seen[a.WorkerID] = struct{}{}
		ids = append(ids, a.WorkerID)
	}
	return ids
}
