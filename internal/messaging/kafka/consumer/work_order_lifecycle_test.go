package consumer

import (
	"context"
	"errors"
	"testing"

	"go-plantation/internal/events"
	"go-plantation/internal/paycalc"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type stubPayCalcService struct {
	result        paycalc.Result
	err           error
	processCalls  int
	reverseCalls  int
	lastWorkOrder uuid.UUID
}

func (s *stubPayCalcService) ProcessCompletedWorkOrder(ctx context.Context, workOrderID uuid.UUID) (paycalc.Result, error) {
	s.processCalls++
	s.lastWorkOrder = workOrderID
	return s.result, s.err
}

func (s *stubPayCalcService) ReverseWorkOrder(ctx context.Context, workOrderID uuid.UUID) (paycalc.Result, error) {
	s.reverseCalls++
	s.lastWorkOrder = workOrderID
	return s.result, s.err
}

func (s *stubPayCalcService) RecalculateAll(ctx context.Context) (paycalc.Result, error) {
	return s.result, s.err
}

func (s *stubPayCalcService) RecalculateMonth(ctx context.Context, monthYear string) (paycalc.Result, error) {
	return s.result, s.err
}

func (s *stubPayCalcService) ListMonths(ctx context.Context) ([]paycalc.PayCalculation, error) {
	return nil, s.err
}

func (s *stubPayCalcService) GetMonth(ctx context.Context, monthYear string) (*paycalc.PayCalculation, []paycalc.PayCalculationDetail, error) {
	return nil, nil, s.err
}

func (s *stubPayCalcService) GetWorkerDetail(ctx context.Context, monthYear string, workerID uuid.UUID) (*paycalc.PayCalculationDetail, error) {
	return nil, s.err
}

func TestHandleEvent_CompletedKeepsMarkerWhenAccumulated(t *testing.T) {
	rdb, redisMock := redismock.NewClientMock()
	svc := &stubPayCalcService{result: paycalc.Result{Processed: true, Message: "pay calculation for 2025-03 updated"}}
	id := uuid.New()

	redisMock.ExpectSetNX(processedMarkerKey(id.String()), "1", processedMarkerTTL).SetVal(true)

	err := handleEvent(context.Background(), svc, rdb, zap.NewNop(), events.EventWorkOrderCompleted, id)
	assert.NoError(t, err)
	assert.Equal(t, 1, svc.processCalls)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestHandleEvent_DuplicateCompletedSkipsProcessing(t *testing.T) {
	rdb, redisMock := redismock.NewClientMock()
	svc := &stubPayCalcService{}
	id := uuid.New()

	redisMock.ExpectSetNX(processedMarkerKey(id.String()), "1", processedMarkerTTL).SetVal(false)

	err := handleEvent(context.Background(), svc, rdb, zap.NewNop(), events.EventWorkOrderCompleted, id)
	assert.NoError(t, err)
	assert.Equal(t, 0, svc.processCalls)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

// A no-op outcome (e.g. the order carries no completion date yet) must not
// burn the marker: the later genuine completion event has to get through.
func TestHandleEvent_NoOpReleasesMarker(t *testing.T) {
	rdb, redisMock := redismock.NewClientMock()
	svc := &stubPayCalcService{result: paycalc.Result{Processed: false, Message: "work order has no completion date, nothing to accumulate"}}
	id := uuid.New()

	redisMock.ExpectSetNX(processedMarkerKey(id.String()), "1", processedMarkerTTL).SetVal(true)
	redisMock.ExpectDel(processedMarkerKey(id.String())).SetVal(1)

	err := handleEvent(context.Background(), svc, rdb, zap.NewNop(), events.EventWorkOrderCompleted, id)
	assert.NoError(t, err)
	assert.Equal(t, 1, svc.processCalls)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestHandleEvent_ErrorReleasesMarker(t *testing.T) {
	rdb, redisMock := redismock.NewClientMock()
	svc := &stubPayCalcService{err: errors.New("db down")}
	id := uuid.New()

	redisMock.ExpectSetNX(processedMarkerKey(id.String()), "1", processedMarkerTTL).SetVal(true)
	redisMock.ExpectDel(processedMarkerKey(id.String())).SetVal(1)

	err := handleEvent(context.Background(), svc, rdb, zap.NewNop(), events.EventWorkOrderCompleted, id)
	assert.Error(t, err)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestHandleEvent_DiscardedReversesAndClearsMarker(t *testing.T) {
	rdb, redisMock := redismock.NewClientMock()
	svc := &stubPayCalcService{result: paycalc.Result{Processed: true, Message: "pay calculation for 2025-03 reconciled"}}
	id := uuid.New()

	redisMock.ExpectDel(processedMarkerKey(id.String())).SetVal(1)

	err := handleEvent(context.Background(), svc, rdb, zap.NewNop(), events.EventWorkOrderDiscarded, id)
	assert.NoError(t, err)
	assert.Equal(t, 1, svc.reverseCalls)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestHandleEvent_UnknownTypeIsSkipped(t *testing.T) {
	rdb, redisMock := redismock.NewClientMock()
	svc := &stubPayCalcService{}

	err := handleEvent(context.Background(), svc, rdb, zap.NewNop(), "work_order.relabeled", uuid.New())
	assert.NoError(t, err)
	assert.Equal(t, 0, svc.processCalls)
	assert.Equal(t, 0, svc.reverseCalls)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}
