package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment: üyeye atanmış gelen ödeme. Bir BankTransaction'dan en fazla bir
// Payment üretilir; bağ BankTransactionID üzerinden kurulur.
type Payment struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	VereinID          uint      `gorm:"index;not null" json:"verein_id"`
	MemberID          uint      `gorm:"index;not null" json:"member_id"`
	Amount            float64   `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency          string    `gorm:"size:3;default:EUR" json:"currency"`
	PaymentDate       time.Time `gorm:"index;not null" json:"payment_date"`
	Channel           string    `gorm:"size:50" json:"channel"` // örn. "Banküberweisung"
	BankAccountID     *uint     `json:"bank_account_id,omitempty"`
	Reference         string    `gorm:"size:100" json:"reference"`
	Note              string    `gorm:"size:250" json:"note"`
	BankTransactionID *uint     `gorm:"index" json:"bank_transaction_id,omitempty"`

	CreatedBy uint           `json:"created_by"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
