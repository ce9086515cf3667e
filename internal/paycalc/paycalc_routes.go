package paycalc

import (
	"go-plantation/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rdb *redis.Client) {
	payCalculations := r.Group("/pay-calculations")
	{
		payCalculations.GET("", handler.ListMonths)
		payCalculations.GET("/:month", handler.GetMonth)
		payCalculations.GET("/:month/workers/:workerId", handler.GetWorkerDetail)

		if rdb != nil {
			payCalculations.POST(
				"/recalculate",
				middleware.Idempotency(rdb),
				handler.Recalculate,
			)
		} else {
			payCalculations.POST("/recalculate", handler.Recalculate)
		}
	}
}
