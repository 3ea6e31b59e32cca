package models

import (
	"time"

	"gorm.io/gorm"
)

// BankTransaction: ekstreden içe aktarılan tek banka hareketi. Oluşturulduktan
// sonra değiştirilmez; yalnızca soft delete ile pasifleştirilebilir.
// Mükerrer kontrolü (verein, hesap, tarih, tutar, referans) beşlisi üzerinden yapılır.
type BankTransaction struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	VereinID      uint      `gorm:"index;not null" json:"verein_id"`
	BankAccountID uint      `gorm:"index;not null" json:"bank_account_id"`
	BookingDate   time.Time `gorm:"index;not null" json:"booking_date"`
	Amount        float64   `gorm:"type:decimal(12,2);not null" json:"amount"` // işaretli tutar, gider negatif
	Counterparty  string    `gorm:"size:100" json:"counterparty"`              // karşı taraf (Empfänger)
	Purpose       string    `gorm:"size:250" json:"purpose"`                   // açıklama (Verwendungszweck)
	Reference     string    `gorm:"size:100" json:"reference"`

	CreatedBy uint           `json:"created_by"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
