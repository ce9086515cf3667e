package app

import (
	"go-plantation/internal/deduction"
	"go-plantation/internal/messaging/kafka"
	"go-plantation/internal/middleware"
	"go-plantation/internal/paycalc"
	"go-plantation/internal/worker"
	"go-plantation/internal/workorder"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	gormDB *gorm.DB,
	rdb *redis.Client,
) {
	// --- Repositories ---
	deductionRepo := deduction.NewRepository(gormDB)
	workerRepo := worker.NewRepository(gormDB)
	workOrderRepo := workorder.NewRepository(gormDB)
	payCalcRepo := paycalc.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(gormDB)

	// --- Pay engine ---
	snapshotBuilder := paycalc.NewSnapshotBuilder(deductionRepo)
	accumulator := paycalc.NewAccumulator(snapshotBuilder)
	payCalcService := paycalc.NewService(
		gormDB,
		payCalcRepo,
		workOrderRepo,
		workerRepo,
		accumulator,
		outboxRepo,
	)

	payCalcHandler := paycalc.NewHandler(payCalcService, rdb)

	// --- Routes ---
	router.Use(middleware.RequestID())
	router.Use(middleware.ContextLogger(zap.L()))
	router.Use(middleware.RateLimitByIP(rate.Limit(20), 40))

	v1 := router.Group("/api/v1")
	paycalc.RegisterRoutes(v1, payCalcHandler, rdb)
}
