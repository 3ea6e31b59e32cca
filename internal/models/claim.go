package models

import (
	"time"

	"gorm.io/gorm"
)

type ClaimStatus string

const (
	ClaimStatusUnpaid ClaimStatus = "unpaid"
	ClaimStatusPaid   ClaimStatus = "paid"
)

// Claim: üyeden beklenen alacak (aidat, etkinlik ücreti vb.).
// Durum tek yönlü ilerler: unpaid -> paid. Kapanan alacak tekrar açılmaz.
type Claim struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	VereinID    uint        `gorm:"index;not null" json:"verein_id"`
	MemberID    uint        `gorm:"index;not null" json:"member_id"`
	Amount      float64     `gorm:"type:decimal(12,2);not null" json:"amount"`
	DueDate     time.Time   `gorm:"index;not null" json:"due_date"`
	Status      ClaimStatus `gorm:"size:20;not null;default:unpaid" json:"status"`
	PaidOn      *time.Time  `json:"paid_on,omitempty"`
	Description string      `gorm:"size:250" json:"description"`
	Year        int         `json:"year"`
	Month       int         `json:"month"`

	CreatedBy uint           `json:"created_by"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
