package models

import (
	"time"

	"gorm.io/gorm"
)

// PaymentAllocation: bir ödemenin bir alacağa uygulanan kısmı. Kayıtlar
// yalnızca eklenir; sonradan güncellenmez. Bir alacağa yapılan dağıtımların
// toplamı alacağın tutarını aşamaz.
type PaymentAllocation struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	ClaimID   uint    `gorm:"index;not null" json:"claim_id"`
	PaymentID uint    `gorm:"index;not null" json:"payment_id"`
	Amount    float64 `gorm:"type:decimal(12,2);not null" json:"amount"`

	CreatedBy uint           `json:"created_by"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
