package database

import (
	"log"

	"dernek-backend/internal/config"
	"dernek-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Veritabanına bağlanılamadı: %v", err)
	}

	if err := Setup(db); err != nil {
		log.Fatalf("AutoMigrate hatası: %v", err)
	}

	log.Println("Veritabanı bağlantısı başarılı. Migration tamamlandı.")
}

// Setup: bağlantıyı global DB olarak ayarlar ve migration çalıştırır.
// Testler sqlite dialector ile de çağırır.
func Setup(db *gorm.DB) error {
	DB = db
	return db.AutoMigrate(
		&models.Verein{},
		&models.User{},
		&models.Member{},
		&models.BankAccount{},
		&models.BankTransaction{},
		&models.Claim{},
		&models.Payment{},
		&models.PaymentAllocation{},
		&models.AdvancePayment{},
		&models.DitibPayment{},
		&models.Event{},
		&models.EventRegistration{},
		&models.EventPayment{},
		&models.AuditLog{},
	)
}
