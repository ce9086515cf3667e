package events

import "time"

const WorkOrderLifecycleTopic = "plantation.workorder.lifecycle.v1"

const (
	EventWorkOrderCompleted = "work_order.completed"
	EventWorkOrderDiscarded = "work_order.discarded"
	EventWorkOrderRestored  = "work_order.restored"
)

type WorkOrderLifecycleEvent struct {
	EventType   string    `json:"event_type"`
	WorkOrderID string    `json:"work_order_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}
