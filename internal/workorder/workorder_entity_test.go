package workorder_test

import (
	"testing"
	"time"

	"go-plantation/internal/workorder"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func nullDec(s string) decimal.NullDecimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

func TestContribution(t *testing.T) {
	tests := []struct {
		name       string
		assignment workorder.WorkOrderAssignment
		kind       string
		want       string
	}{
		{
			"work days order multiplies rate by days",
			workorder.WorkOrderAssignment{Rate: nullDec("50"), WorkDays: nullDec("22"), WorkAreaSize: nullDec("3.5")},
			workorder.KindWorkDays,
			"1100",
		},
		{
			"work area order multiplies rate by area",
			workorder.WorkOrderAssignment{Rate: nullDec("120"), WorkDays: nullDec("22"), WorkAreaSize: nullDec("3.5")},
			workorder.KindWorkArea,
			"420",
		},
		{
			"missing rate defaults to zero",
			workorder.WorkOrderAssignment{WorkDays: nullDec("22")},
			workorder.KindWorkDays,
			"0",
		},
		{
			"missing quantity defaults to zero",
			workorder.WorkOrderAssignment{Rate: nullDec("50")},
			workorder.KindWorkDays,
			"0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want, _ := decimal.NewFromString(tt.want)
			got := tt.assignment.Contribution(tt.kind)
			assert.True(t, got.Equal(want), "got %s want %s", got, want)

			// Deterministic: a second run yields the same amount.
			assert.True(t, tt.assignment.Contribution(tt.kind).Equal(got))
		})
	}
}

func TestCompletionMonth(t *testing.T) {
	wo := workorder.WorkOrder{}
	_, ok := wo.CompletionMonth()
	assert.False(t, ok)

	completed := time.Date(2025, 3, 17, 14, 0, 0, 0, time.UTC)
	wo.CompletedAt = &completed
	month, ok := wo.CompletionMonth()
	assert.True(t, ok)
	assert.Equal(t, "2025-03", month)
}

func TestHasWorkerComponent(t *testing.T) {
	assert.True(t, (&workorder.WorkOrder{Kind: workorder.KindWorkDays}).HasWorkerComponent())
	assert.True(t, (&workorder.WorkOrder{Kind: workorder.KindWorkArea}).HasWorkerComponent())
	assert.False(t, (&workorder.WorkOrder{Kind: workorder.KindResourceOnly}).HasWorkerComponent())
}
