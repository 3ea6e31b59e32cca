package models

import (
	"time"

	"gorm.io/gorm"
)

// Member: dernek üyesi. Banka eşleştirmesi üye numarası ve ad/soyad üzerinden yapılır.
type Member struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	VereinID     uint   `gorm:"index;not null" json:"verein_id"`
	FirstName    string `gorm:"size:100;not null" json:"first_name"`
	LastName     string `gorm:"size:100;not null" json:"last_name"`
	MemberNumber string `gorm:"size:50;index" json:"member_number"`
	Email        string `gorm:"size:150" json:"email"`
	Aktiv        bool   `gorm:"default:true" json:"aktiv"`

	CreatedBy uint           `json:"created_by"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
