package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	RolloverTechnician  = "Système"
	RolloverDescription = "Heures supplémentaires"
	rolloverSuffix      = " (reporté)"
)

type Intervention struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ContractID  uuid.UUID `gorm:"column:contract_id;type:uuid;not null;index" json:"contractId"`
	Date        time.Time `gorm:"column:date;not null" json:"date"`
	Description string    `gorm:"column:description;not null" json:"description"`
	HoursUsed   float64   `gorm:"column:hours_used;not null;default:0" json:"hoursUsed"`
	Technician  string    `gorm:"column:technician;not null" json:"technician"`
	IsBillable  bool      `gorm:"column:is_billable;not null" json:"isBillable"`
	Location    *string   `gorm:"column:location" json:"location"`
	CreatedAt   time.Time `gorm:"column:created_at;not null" json:"createdAt"`
}

func (Intervention) TableName() string { return "interventions" }

// BillableHours is what the intervention contributes to its contract's usedHours.
func (i Intervention) BillableHours() float64 {
	if !i.IsBillable {
		return 0
	}
	return i.HoursUsed
}

// RolloverLabel is the description given to the opening intervention of a
// renewed contract.
func RolloverLabel(lastDescription string) string {
	if lastDescription == "" {
		lastDescription = RolloverDescription
	}
	return lastDescription + rolloverSuffix
}

// HoursDelta returns the change to apply to a contract's usedHours when an
// intervention goes from (oldHours, oldBillable) to (newHours, newBillable).
func HoursDelta(oldHours float64, oldBillable bool, newHours float64, newBillable bool) float64 {
	switch {
	case oldBillable && newBillable:
		return newHours - oldHours
	case oldBillable && !newBillable:
		return -oldHours
	case !oldBillable && newBillable:
		return newHours
	default:
		return 0
	}
}
