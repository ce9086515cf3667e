package paycalc

import (
	"context"
	"fmt"

	"go-plantation/internal/worker"
	"go-plantation/internal/workorder"
)

// Accumulator folds one work assignment into a worker's monthly pay record.
// Deductions are recomputed against the running monthly total on every
// accumulation, so the snapshot always reflects cumulative earnings rather
// than any single assignment.
type Accumulator struct {
	snapshots *SnapshotBuilder
}

func NewAccumulator(snapshots *SnapshotBuilder) *Accumulator {
	return &Accumulator{snapshots: snapshots}
}

// Process must run inside the orchestrator's transaction; repo and workers
// are the transaction-scoped repositories. The detail row is locked FOR
// UPDATE for the whole increment-then-recompute sequence, which serializes
// concurrent assignments for the same worker and month.
func (a *Accumulator) Process(
	ctx context.Context,
	repo Repository,
	workers worker.Repository,
	assignment workorder.WorkOrderAssignment,
	order *workorder.WorkOrder,
	calc *PayCalculation,
) error {
	detail, created, err := repo.FindOrCreateDetailForUpdate(ctx, calc.ID, assignment.WorkerID)
	if err != nil {
		return fmt.Errorf("find or create pay detail for worker %s: %w", assignment.WorkerID, err)
	}

	contribution := assignment.Contribution(order.Kind)

	gross := contribution
	if !created {
		gross = detail.GrossSalary.Add(contribution)
	}

	w, err := workers.FindByID(ctx, assignment.WorkerID)
	if err != nil {
		return fmt.Errorf("load worker %s: %w", assignment.WorkerID, err)
	}

	snap, err := a.snapshots.Build(ctx, w.Nationality, gross)
	if err != nil {
		return fmt.Errorf("build deduction snapshot for worker %s: %w", assignment.WorkerID, err)
	}

	detail.GrossSalary = gross
	if err := detail.ApplySnapshot(snap); err != nil {
		return err
	}

	return repo.SaveDetail(ctx, detail)
}
