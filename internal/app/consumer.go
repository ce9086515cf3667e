package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go-plantation/internal/deduction"
	"go-plantation/internal/events"
	"go-plantation/internal/messaging/kafka"
	"go-plantation/internal/messaging/kafka/consumer"
	"go-plantation/internal/paycalc"
	"go-plantation/internal/shared/connection"
	"go-plantation/internal/worker"
	"go-plantation/internal/workorder"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// RunConsumer starts the work-order lifecycle consumer that feeds the pay
// engine.
func RunConsumer() error {
	logger := zap.L().Named("app.consumer")

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

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	kafkaBroker := os.Getenv("KAFKA_BROKER")
	if kafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	redisClient, err := connection.ConnectRedisWithRetry(os.Getenv("REDIS_ADDR"), 5)
	if err != nil {
		// Without redis the consumer loses its duplicate-event guard.
		logger.Warn("redis unavailable, processed markers disabled", zap.Error(err))
		redisClient = nil
	}

	deductionRepo := deduction.NewRepository(gormDB)
	workerRepo := worker.NewRepository(gormDB)
	workOrderRepo := workorder.NewRepository(gormDB)
	payCalcRepo := paycalc.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(gormDB)

	snapshotBuilder := paycalc.NewSnapshotBuilder(deductionRepo)
	accumulator := paycalc.NewAccumulator(snapshotBuilder)
	payCalcService := paycalc.NewService(gormDB, payCalcRepo, workOrderRepo, workerRepo, accumulator, outboxRepo)

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{kafkaBroker},
		Topic:       events.WorkOrderLifecycleTopic,
		GroupID:     "go-plantation-paycalc",
		StartOffset: kafkago.FirstOffset,
	})
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go consumer.ConsumeWorkOrderLifecycle(ctx, reader, payCalcService, redisClient, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("consumer shutting down")
	cancel()

	return nil
}
