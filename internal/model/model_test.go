package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHoursDelta(t *testing.T) {
	tests := []struct {
		name        string
		oldHours    float64
		oldBillable bool
		newHours    float64
		newBillable bool
		want        float64
	}{
		{"billable to billable", 3, true, 5, true, 2},
		{"billable shrink", 5, true, 2, true, -3},
		{"billable to non-billable", 4, true, 6, false, -4},
		{"non-billable to billable", 4, false, 6, true, 6},
		{"non-billable to non-billable", 4, false, 6, false, 0},
		{"unchanged", 7.5, true, 7.5, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HoursDelta(tt.oldHours, tt.oldBillable, tt.newHours, tt.newBillable)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		total, used float64
		want        ContractStatus
	}{
		{10, 0, ContractStatusActive},
		{10, 7.9, ContractStatusActive},
		{10, 8, ContractStatusNearExpiry},
		{10, 9.99, ContractStatusNearExpiry},
		{10, 10, ContractStatusExpired},
		{10, 14, ContractStatusExpired},
		{0, 0, ContractStatusActive},
		{0, 1, ContractStatusExpired},
	}
	for _, tt := range tests {
		got := DeriveStatus(tt.total, tt.used, 0.8)
		assert.Equal(t, tt.want, got, "DeriveStatus(%v, %v)", tt.total, tt.used)
	}
}

func TestRolloverLabel(t *testing.T) {
	assert.Equal(t, "Fix (reporté)", RolloverLabel("Fix"))
	assert.Equal(t, "Heures supplémentaires (reporté)", RolloverLabel(""))
}

func TestContractOverage(t *testing.T) {
	c := Contract{TotalHours: 10, UsedHours: 14}
	assert.InDelta(t, 4, c.Overage(), 1e-9)
	assert.InDelta(t, -4, c.RemainingHours(), 1e-9)

	c.UsedHours = 8
	assert.Zero(t, c.Overage())
}

func TestInterventionBillableHours(t *testing.T) {
	assert.InDelta(t, 3.5, Intervention{HoursUsed: 3.5, IsBillable: true}.BillableHours(), 1e-9)
	assert.Zero(t, Intervention{HoursUsed: 3.5}.BillableHours())
}

func TestContractTypeValid(t *testing.T) {
	assert.True(t, ContractTypeQuote.Valid())
	assert.True(t, ContractTypeSigned.Valid())
	assert.False(t, ContractType("draft").Valid())
}
