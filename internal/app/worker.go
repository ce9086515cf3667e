package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-plantation/internal/deduction"
	"go-plantation/internal/messaging/kafka"
	"go-plantation/internal/messaging/kafka/producer"
	"go-plantation/internal/paycalc"
	"go-plantation/internal/shared/connection"
	"go-plantation/internal/worker"
	"go-plantation/internal/workorder"

	"go.uber.org/zap"
)

// RunWorker starts the outbox publisher and the periodic reconciliation
// sweep that repairs pay records whose lifecycle events were missed.
func RunWorker() error {
	logger := zap.L().Named("app.worker")

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

	kafkaWriter, err := connection.ConnectKafkaWithRetry(kafkaBroker, 5)
	if err != nil {
		return err
	}
	defer kafkaWriter.Close()

	outboxRepo := kafka.NewOutboxRepository(gormDB)

	deductionRepo := deduction.NewRepository(gormDB)
	workerRepo := worker.NewRepository(gormDB)
	workOrderRepo := workorder.NewRepository(gormDB)
	payCalcRepo := paycalc.NewRepository(gormDB)

	snapshotBuilder := paycalc.NewSnapshotBuilder(deductionRepo)
	accumulator := paycalc.NewAccumulator(snapshotBuilder)
	payCalcService := paycalc.NewService(gormDB, payCalcRepo, workOrderRepo, workerRepo, accumulator, outboxRepo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go producer.ProcessOutboxEvents(
		ctx,
		outboxRepo,
		kafkaWriter,
		logger,
		3*time.Second,
	)

	go runReconciliationSweep(ctx, payCalcService, logger, reconcileInterval())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("worker shutting down")
	cancel()

	return nil
}

func reconcileInterval() time.Duration {
	if raw := os.Getenv("RECONCILE_INTERVAL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			return d
		}
	}
	return 24 * time.Hour
}

func runReconciliationSweep(ctx context.Context, service paycalc.Service, logger *zap.Logger, interval time.Duration) {
	log := logger.Named("reconciliation.sweep")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info("reconciliation sweep scheduled", zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			log.Info("reconciliation sweep stopped")
			return
		case <-ticker.C:
			result, err := service.RecalculateAll(ctx)
			if err != nil {
				log.Error("reconciliation sweep failed", zap.Error(err))
				continue
			}
			log.Info("reconciliation sweep finished", zap.String("message", result.Message))
		}
	}
}
