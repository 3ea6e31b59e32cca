package models

import (
	"time"

	"gorm.io/gorm"
)

// BankAccount: derneğe ait banka hesabı. Ekstre yüklemeleri hesap bazında yapılır.
type BankAccount struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	VereinID uint   `gorm:"index;not null" json:"verein_id"`
	Name     string `gorm:"size:100;not null" json:"name"`
	IBAN     string `gorm:"size:34" json:"iban"`
	BIC      string `gorm:"size:11" json:"bic"`
	Aktiv    bool   `gorm:"default:true" json:"aktiv"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
