package paycalc_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go-plantation/internal/paycalc"
	"go-plantation/internal/shared/apperror"
	"go-plantation/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPayCalcService struct {
	months      []paycalc.PayCalculation
	result      paycalc.Result
	err         error
	recalcCalls int
}

func (s *stubPayCalcService) ProcessCompletedWorkOrder(ctx context.Context, workOrderID uuid.UUID) (paycalc.Result, error) {
	return s.result, s.err
}

func (s *stubPayCalcService) ReverseWorkOrder(ctx context.Context, workOrderID uuid.UUID) (paycalc.Result, error) {
	return s.result, s.err
}

func (s *stubPayCalcService) RecalculateAll(ctx context.Context) (paycalc.Result, error) {
	s.recalcCalls++
	return s.result, s.err
}

func (s *stubPayCalcService) RecalculateMonth(ctx context.Context, monthYear string) (paycalc.Result, error) {
	s.recalcCalls++
	return s.result, s.err
}

func (s *stubPayCalcService) ListMonths(ctx context.Context) ([]paycalc.PayCalculation, error) {
	return s.months, s.err
}

func (s *stubPayCalcService) GetMonth(ctx context.Context, monthYear string) (*paycalc.PayCalculation, []paycalc.PayCalculationDetail, error) {
	return nil, nil, s.err
}

func (s *stubPayCalcService) GetWorkerDetail(ctx context.Context, monthYear string, workerID uuid.UUID) (*paycalc.PayCalculationDetail, error) {
	return nil, s.err
}

func newHandlerRouter(svc paycalc.Service, rdb *redis.Client) *gin.Engine {
	gin.SetMode(gin.TestMode)
	apperror.Init()

	router := gin.New()
	v1 := router.Group("/api/v1")
	paycalc.RegisterRoutes(v1, paycalc.NewHandler(svc, rdb), rdb)
	return router
}

const recalculatePath = "/api/v1/pay-calculations/recalculate"

func TestRecalculate_ReleasesLockAndCachesResponse(t *testing.T) {
	rdb, redisMock := redismock.NewClientMock()
	svc := &stubPayCalcService{result: paycalc.Result{Processed: true, Message: "recalculated 1 pay detail(s) across 1 month(s)"}}
	router := newHandlerRouter(svc, rdb)

	cacheKey := "idemp:" + recalculatePath + ":abc123"
	lockKey := cacheKey + ":lock"
	payload, err := json.Marshal(paycalc.ResultResponse{Processed: true, Message: svc.result.Message})
	require.NoError(t, err)

	redisMock.ExpectGet(cacheKey).RedisNil()
	redisMock.ExpectSetNX(lockKey, "locked", 30*time.Second).SetVal(true)
	redisMock.ExpectSet(cacheKey, payload, 24*time.Hour).SetVal("OK")
	redisMock.ExpectDel(lockKey).SetVal(1)

	req := httptest.NewRequest(http.MethodPost, recalculatePath, strings.NewReader(`{"month_year":"2025-03"}`))
	req.Header.Set("Idempotency-Key", "abc123")
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, svc.recalcCalls)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestRecalculate_ReplaysCachedResponse(t *testing.T) {
	rdb, redisMock := redismock.NewClientMock()
	svc := &stubPayCalcService{result: paycalc.Result{Processed: true, Message: "should not run"}}
	router := newHandlerRouter(svc, rdb)

	cacheKey := "idemp:" + recalculatePath + ":abc123"
	cached, err := json.Marshal(paycalc.ResultResponse{Processed: true, Message: "recalculated 1 pay detail(s) across 1 month(s)"})
	require.NoError(t, err)
	redisMock.ExpectGet(cacheKey).SetVal(string(cached))

	req := httptest.NewRequest(http.MethodPost, recalculatePath, strings.NewReader(`{}`))
	req.Header.Set("Idempotency-Key", "abc123")
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "recalculated 1 pay detail(s)")
	assert.Equal(t, 0, svc.recalcCalls, "cached replay must not re-run the sweep")
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestRecalculate_MapsValidationError(t *testing.T) {
	rdb, _ := redismock.NewClientMock()
	svc := &stubPayCalcService{}
	router := newHandlerRouter(svc, rdb)

	req := httptest.NewRequest(http.MethodPost, recalculatePath, strings.NewReader(`{"month_year":"2025-3"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Month Year is invalid")
	assert.Equal(t, 0, svc.recalcCalls)
}

func TestListMonths_Paginates(t *testing.T) {
	rdb, _ := redismock.NewClientMock()
	svc := &stubPayCalcService{months: []paycalc.PayCalculation{
		{MonthYear: "2025-01", OverallGrossSalary: dec("1000"), OverallNet: dec("900")},
		{MonthYear: "2025-02", OverallGrossSalary: dec("2000"), OverallNet: dec("1800")},
		{MonthYear: "2025-03", OverallGrossSalary: dec("3000"), OverallNet: dec("2649")},
	}}
	router := newHandlerRouter(svc, rdb)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pay-calculations?page=1&page_size=2", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Ok   bool                           `json:"ok"`
		Data []paycalc.MonthSummaryResponse `json:"data"`
		Meta *response.PaginationMeta       `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))

	assert.True(t, envelope.Ok)
	require.Len(t, envelope.Data, 2)
	assert.Equal(t, "2025-01", envelope.Data[0].MonthYear)
	require.NotNil(t, envelope.Meta)
	assert.Equal(t, int64(3), envelope.Meta.Total)
	assert.Equal(t, 2, envelope.Meta.TotalPages)
}

func TestGetWorkerDetail_RejectsMalformedID(t *testing.T) {
	rdb, _ := redismock.NewClientMock()
	router := newHandlerRouter(&stubPayCalcService{}, rdb)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pay-calculations/2025-03/workers/not-a-uuid", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "worker id is invalid")
}
