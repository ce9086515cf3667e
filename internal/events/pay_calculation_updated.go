package events

import "time"

const PayCalculationUpdatedTopic = "plantation.paycalc.updated.v1"

const (
	EventPayCalculationAccumulated = "pay_calculation.accumulated"
	EventPayCalculationReversed    = "pay_calculation.reversed"
	EventPayCalculationReconciled  = "pay_calculation.reconciled"
)

type PayCalculationUpdatedEvent struct {
	EventType   string    `json:"event_type"`
	MonthYear   string    `json:"month_year"`
	WorkOrderID string    `json:"work_order_id,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}
