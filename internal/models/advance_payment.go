package models

import (
	"time"

	"gorm.io/gorm"
)

// AdvancePayment: üyenin henüz bir alacağa mahsup edilmemiş avans bakiyesi.
// Dağıtım sonrası artan tutarlar politika "credit" ise buraya yazılır.
type AdvancePayment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	VereinID  uint      `gorm:"index;not null" json:"verein_id"`
	MemberID  uint      `gorm:"index;not null" json:"member_id"`
	Amount    float64   `gorm:"type:decimal(12,2);not null" json:"amount"`
	Date      time.Time `gorm:"not null" json:"date"`
	PaymentID *uint     `gorm:"index" json:"payment_id,omitempty"` // artandan oluştuysa kaynak ödeme
	Note      string    `gorm:"size:250" json:"note"`

	CreatedBy uint           `json:"created_by"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
