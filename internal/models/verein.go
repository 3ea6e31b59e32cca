package models

import (
	"time"

	"gorm.io/gorm"
)

// Verein: dernek (organizasyon). Bütün finansal kayıtların bağlı olduğu çatı.
type Verein struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"size:150;not null" json:"name"`
	City    string `gorm:"size:100" json:"city"`
	Aktiv   bool   `gorm:"default:true" json:"aktiv"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
