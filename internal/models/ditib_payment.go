package models

import (
	"time"

	"gorm.io/gorm"
)

// DitibPayment: federasyona (DITIB) ödenen aylık aidat. Gider tarafıdır,
// hiçbir zaman üye alacaklarına dağıtılmaz; BankTransaction ile birebir bağlıdır.
type DitibPayment struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	VereinID          uint      `gorm:"index;not null" json:"verein_id"`
	Amount            float64   `gorm:"type:decimal(12,2);not null" json:"amount"`
	PaymentDate       time.Time `gorm:"index;not null" json:"payment_date"`
	Period            string    `gorm:"size:7" json:"period"` // "2025-04"
	Channel           string    `gorm:"size:50" json:"channel"`
	BankAccountID     *uint     `json:"bank_account_id,omitempty"`
	Reference         string    `gorm:"size:100" json:"reference"`
	BankTransactionID *uint     `gorm:"index" json:"bank_transaction_id,omitempty"`

	CreatedBy uint           `json:"created_by"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
