package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go-plantation/internal/events"
	"go-plantation/internal/paycalc"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Accumulation is additive, so a redelivered completed event would
// double-count. The consumer keeps a per-work-order processed marker in
// redis to turn the broker's at-least-once delivery into the at-most-once
// contract the forward orchestrator requires. A discarded event clears the
// marker so a later restore re-enters the forward path.
const processedMarkerTTL = 90 * 24 * time.Hour

func processedMarkerKey(workOrderID string) string {
	return fmt.Sprintf("paycalc:processed:%s", workOrderID)
}

// ConsumeWorkOrderLifecycle routes work-order lifecycle events into the pay
// engine: completed and restored orders are accumulated, discarded orders
// are reversed.
func ConsumeWorkOrderLifecycle(
	ctx context.Context,
	reader *kafkago.Reader,
	service paycalc.Service,
	rdb *redis.Client,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.work_order_lifecycle")
	log.Info("work order lifecycle consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("work order lifecycle consumer stopped")
				return
			}
			log.Error("fetch work order lifecycle message failed", zap.Error(err))
			continue
		}

		var event events.WorkOrderLifecycleEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode work order lifecycle event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		workOrderID, err := uuid.Parse(event.WorkOrderID)
		if err != nil {
			log.Error("work order lifecycle event carries invalid id",
				zap.String("work_order_id", event.WorkOrderID),
			)
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		if err := handleEvent(ctx, service, rdb, log, event.EventType, workOrderID); err != nil {
			log.Error("handle work order lifecycle event failed",
				zap.String("event_type", event.EventType),
				zap.String("work_order_id", event.WorkOrderID),
				zap.Error(err),
			)
			// Leave the message uncommitted so the broker redelivers.
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit work order lifecycle message failed", zap.Error(err))
		}
	}
}

func handleEvent(
	ctx context.Context,
	service paycalc.Service,
	rdb *redis.Client,
	log *zap.Logger,
	eventType string,
	workOrderID uuid.UUID,
) error {
	switch eventType {
	case events.EventWorkOrderCompleted, events.EventWorkOrderRestored:
		if rdb != nil {
			isNew, err := rdb.SetNX(ctx, processedMarkerKey(workOrderID.String()), "1", processedMarkerTTL).Result()
			if err != nil {
				return err
			}
			if !isNew {
				log.Warn("work order already accumulated, skipping duplicate event",
					zap.String("work_order_id", workOrderID.String()),
				)
				return nil
			}
		}

		result, err := service.ProcessCompletedWorkOrder(ctx, workOrderID)
		if err != nil {
			if rdb != nil {
				// Release the marker so the redelivered event can retry.
				_ = rdb.Del(ctx, processedMarkerKey(workOrderID.String())).Err()
			}
			return err
		}
		if !result.Processed && rdb != nil {
			// Nothing was accumulated (e.g. no completion date yet); a later
			// genuine completion event must not be skipped.
			_ = rdb.Del(ctx, processedMarkerKey(workOrderID.String())).Err()
		}
		log.Info("work order lifecycle event processed",
			zap.String("event_type", eventType),
			zap.String("work_order_id", workOrderID.String()),
			zap.Bool("processed", result.Processed),
			zap.String("message", result.Message),
		)
		return nil

	case events.EventWorkOrderDiscarded:
		result, err := service.ReverseWorkOrder(ctx, workOrderID)
		if err != nil {
			return err
		}
		if rdb != nil {
			_ = rdb.Del(ctx, processedMarkerKey(workOrderID.String())).Err()
		}
		log.Info("work order lifecycle event processed",
			zap.String("event_type", eventType),
			zap.String("work_order_id", workOrderID.String()),
			zap.Bool("processed", result.Processed),
			zap.String("message", result.Message),
		)
		return nil

	default:
		log.Warn("unknown work order lifecycle event type, skipping",
			zap.String("event_type", eventType),
		)
		return nil
	}
}
