package paycalc

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go-plantation/internal/shared/apperror"
	"go-plantation/internal/shared/contextutil"
	"go-plantation/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const idempotencyCacheTTL = 24 * time.Hour

type Handler struct {
	service Service
	rdb     *redis.Client
}

// NewHandler takes the redis client for the idempotency lock/cache
// lifecycle; nil disables it.
func NewHandler(service Service, rdb *redis.Client) *Handler {
	return &Handler{service: service, rdb: rdb}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	if httpErr.Status >= http.StatusInternalServerError {
		contextutil.GetLogger(c.Request.Context(), zap.L()).Error("pay calculation request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) ListMonths(c *gin.Context) {
	calcs, err := h.service.ListMonths(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if pageSize < 1 {
		pageSize = 10
	}

	total := int64(len(calcs))
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(calcs) {
		start = len(calcs)
	}
	if end > len(calcs) {
		end = len(calcs)
	}

	meta := response.NewPaginationMeta(total, page, pageSize)
	response.Success(c, http.StatusOK, mapMonthSummaries(calcs[start:end]), &meta)
}

func (h *Handler) GetMonth(c *gin.Context) {
	monthYear := c.Param("month")

	calc, details, err := h.service.GetMonth(c.Request.Context(), monthYear)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	resp, err := mapMonthToResponse(calc, details)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetWorkerDetail(c *gin.Context) {
	monthYear := c.Param("month")
	workerID, err := uuid.Parse(c.Param("workerId"))
	if err != nil {
		h.writeServiceError(c, apperror.InvalidField("worker id"))
		return
	}

	detail, err := h.service.GetWorkerDetail(c.Request.Context(), monthYear, workerID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	resp, err := mapDetailToResponse(*detail)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Recalculate(c *gin.Context) {
	lockKey, _ := c.Get("idempotency_lock_key")
	cacheKey, _ := c.Get("idempotency_cache_key")

	if h.rdb != nil {
		if lk, ok := lockKey.(string); ok && lk != "" {
			defer h.rdb.Del(c.Request.Context(), lk)
		}
	}

	var req RecalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	var (
		result Result
		err    error
	)
	if req.MonthYear != "" {
		result, err = h.service.RecalculateMonth(c.Request.Context(), req.MonthYear)
	} else {
		result, err = h.service.RecalculateAll(c.Request.Context())
	}
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	resp := ResultResponse{Processed: result.Processed, Message: result.Message}

	if h.rdb != nil {
		if ck, ok := cacheKey.(string); ok && ck != "" {
			if payload, marshalErr := json.Marshal(resp); marshalErr == nil {
				_ = h.rdb.Set(c.Request.Context(), ck, payload, idempotencyCacheTTL).Err()
			}
		}
	}

	response.Success(c, http.StatusOK, resp, nil)
}
