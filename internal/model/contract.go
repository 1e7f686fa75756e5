package model

import (
	"time"

	"github.com/google/uuid"
)

type ContractStatus string

const (
	ContractStatusActive     ContractStatus = "active"
	ContractStatusNearExpiry ContractStatus = "near-expiry"
	ContractStatusExpired    ContractStatus = "expired"
)

type ContractType string

const (
	ContractTypeQuote  ContractType = "quote"
	ContractTypeSigned ContractType = "signed"
)

func (t ContractType) Valid() bool {
	return t == ContractTypeQuote || t == ContractTypeSigned
}

type Contract struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ContractNumber int64          `gorm:"column:contract_number;uniqueIndex:uq_contracts_number" json:"contractNumber"`
	ClientName     string         `gorm:"column:client_name;not null" json:"clientName"`
	ClientID       *uuid.UUID     `gorm:"column:client_id;type:uuid;index" json:"clientId"`
	TotalHours     float64        `gorm:"column:total_hours;not null;default:0" json:"totalHours"`
	UsedHours      float64        `gorm:"column:used_hours;not null;default:0" json:"usedHours"`
	CreatedDate    time.Time      `gorm:"column:created_date;not null" json:"createdDate"`
	Status         ContractStatus `gorm:"column:status;size:16;not null;default:active" json:"status"`
	IsArchived     bool           `gorm:"column:is_archived;not null;default:false;index" json:"isArchived"`
	ArchivedAt     *time.Time     `gorm:"column:archived_at" json:"archivedAt"`
	ContractType   ContractType   `gorm:"column:contract_type;size:16;not null;default:quote" json:"contractType"`
	SignedDate     *time.Time     `gorm:"column:signed_date" json:"signedDate"`
	InternalNotes  string         `gorm:"column:internal_notes" json:"internalNotes"`

	Client        *Client        `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE" json:"-"`
	Interventions []Intervention `gorm:"foreignKey:ContractID;constraint:OnDelete:CASCADE" json:"interventions,omitempty"`
}

func (Contract) TableName() string { return "contracts" }

// RemainingHours is negative when the contract is in overage.
func (c Contract) RemainingHours() float64 {
	return c.TotalHours - c.UsedHours
}

func (c Contract) Overage() float64 {
	if over := c.UsedHours - c.TotalHours; over > 0 {
		return over
	}
	return 0
}

// DeriveStatus maps consumption to a status. ratio is the used/total share at
// which a contract is flagged near-expiry.
func DeriveStatus(totalHours, usedHours, ratio float64) ContractStatus {
	if totalHours <= 0 {
		if usedHours > 0 {
			return ContractStatusExpired
		}
		return ContractStatusActive
	}
	switch {
	case usedHours >= totalHours:
		return ContractStatusExpired
	case usedHours >= ratio*totalHours:
		return ContractStatusNearExpiry
	default:
		return ContractStatusActive
	}
}
