package models

import (
	"time"

	"gorm.io/gorm"
)

// Event: dernek etkinliği (kermes, gezi, kurs vb.).
type Event struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	VereinID  uint      `gorm:"index;not null" json:"verein_id"`
	Title     string    `gorm:"size:150;not null" json:"title"`
	StartDate time.Time `json:"start_date"`
	Location  string    `gorm:"size:150" json:"location"`
	Price     float64   `gorm:"type:decimal(12,2)" json:"price"`

	CreatedBy uint           `json:"created_by"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

type EventPaymentStatus string

const (
	EventPaymentStatusUnpaid  EventPaymentStatus = "unpaid"
	EventPaymentStatusPending EventPaymentStatus = "pending"
	EventPaymentStatusPaid    EventPaymentStatus = "paid"
)

// EventRegistration: üyenin bir etkinliğe kaydı ve ödeme durumu.
type EventRegistration struct {
	ID            uint               `gorm:"primaryKey" json:"id"`
	EventID       uint               `gorm:"index;not null" json:"event_id"`
	MemberID      uint               `gorm:"index;not null" json:"member_id"`
	Price         float64            `gorm:"type:decimal(12,2)" json:"price"`
	PaymentStatus EventPaymentStatus `gorm:"size:20;default:unpaid" json:"payment_status"`

	CreatedBy uint           `json:"created_by"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// EventPayment: etkinlik kaydına yapılan ödeme. Üye finansal özetinde
// toplam ödenen tutara ve aylık trende dahil edilir.
type EventPayment struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	RegistrationID uint      `gorm:"index;not null" json:"registration_id"`
	Amount         float64   `gorm:"type:decimal(12,2);not null" json:"amount"`
	PaymentDate    time.Time `gorm:"index;not null" json:"payment_date"`
	Note           string    `gorm:"size:250" json:"note"`

	CreatedBy uint           `json:"created_by"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
