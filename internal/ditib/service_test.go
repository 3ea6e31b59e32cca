package ditib

import (
	"testing"
	"time"

	"dernek-backend/internal/auth"
	"dernek-backend/internal/bankimport"
	"dernek-backend/internal/database"
	"dernek-backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Setup(db))
	return db
}

func timePtr(t time.Time) *time.Time { return &t }
func floatPtr(f float64) *float64    { return &f }

var testActor = auth.Actor{ID: 1, Name: "Test Admin"}

func TestProcessDitibUpload(t *testing.T) {
	db := newTestDB(t)

	verein := models.Verein{Name: "DITIB Köln", Aktiv: true}
	require.NoError(t, db.Create(&verein).Error)
	account := models.BankAccount{VereinID: verein.ID, Name: "Sparkasse", Aktiv: true}
	require.NoError(t, db.Create(&account).Error)

	svc := NewService(db)

	date := time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)
	rows := []bankimport.TransactionRow{
		{RowNumber: 2, BookingDate: timePtr(date), Amount: floatPtr(350)},
		{RowNumber: 3, Amount: floatPtr(100)}, // tarih eksik
	}

	report, err := svc.ProcessDitibUpload(testActor, verein.ID, account.ID, rows)
	require.NoError(t, err)
	assert.Equal(t, 1, report.SuccessCount)
	assert.Equal(t, 1, report.FailedCount)

	var payments []models.DitibPayment
	require.NoError(t, db.Find(&payments).Error)
	require.Len(t, payments, 1)
	assert.Equal(t, 350.0, payments[0].Amount)
	assert.Equal(t, "2025-04", payments[0].Period)
	require.NotNil(t, payments[0].BankTransactionID)

	// Banka hareketi gider olarak negatif yazılır
	var bt models.BankTransaction
	require.NoError(t, db.First(&bt, *payments[0].BankTransactionID).Error)
	assert.Equal(t, -350.0, bt.Amount)
	assert.Equal(t, "DITIB", bt.Counterparty)

	// Aynı liste ikinci kez yüklenirse satır mükerrer sayılır
	report2, err := svc.ProcessDitibUpload(testActor, verein.ID, account.ID, rows[:1])
	require.NoError(t, err)
	assert.Equal(t, 0, report2.SuccessCount)
	assert.Equal(t, 1, report2.SkippedCount)

	var count int64
	require.NoError(t, db.Model(&models.DitibPayment{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestProcessDitibUploadNegativeAmountsNormalized(t *testing.T) {
	db := newTestDB(t)

	verein := models.Verein{Name: "DITIB Hamburg", Aktiv: true}
	require.NoError(t, db.Create(&verein).Error)
	account := models.BankAccount{VereinID: verein.ID, Name: "Volksbank", Aktiv: true}
	require.NoError(t, db.Create(&account).Error)

	svc := NewService(db)

	date := time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC)
	report, err := svc.ProcessDitibUpload(testActor, verein.ID, account.ID, []bankimport.TransactionRow{
		{RowNumber: 2, BookingDate: timePtr(date), Amount: floatPtr(-200)},
	})
	require.NoError(t, err)
	require.Equal(t, 1, report.SuccessCount)

	var payment models.DitibPayment
	require.NoError(t, db.First(&payment).Error)
	assert.Equal(t, 200.0, payment.Amount)
}
