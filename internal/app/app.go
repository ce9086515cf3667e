package app

import (
	"os"

	"go-plantation/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BuildApp wires infrastructure and registers the API modules on the router.
func BuildApp(router *gin.Engine) error {
	gormDB, err := connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		5,
	)
	if err != nil {
		return err
	}

	redisClient, err := connection.ConnectRedisWithRetry(os.Getenv("REDIS_ADDR"), 5)
	if err != nil {
		// The API degrades gracefully without redis; only the idempotency
		// guard on the recalculate endpoint is lost.
		zap.L().Warn("redis unavailable, idempotency guard disabled", zap.Error(err))
		redisClient = nil
	}

	registerModules(router, gormDB, redisClient)
	return nil
}
