package bankimport

import (
	"context"
	"strings"
	"testing"
	"time"

	"dernek-backend/internal/auth"
	"dernek-backend/internal/cache"
	"dernek-backend/internal/config"
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

func seedVerein(t *testing.T, db *gorm.DB) (models.Verein, models.BankAccount) {
	t.Helper()

	verein := models.Verein{Name: "DITIB Köln", Aktiv: true}
	require.NoError(t, db.Create(&verein).Error)

	account := models.BankAccount{VereinID: verein.ID, Name: "Sparkasse", IBAN: "DE00123", Aktiv: true}
	require.NoError(t, db.Create(&account).Error)

	return verein, account
}

func seedMember(t *testing.T, db *gorm.DB, vereinID uint, first, last, number string) models.Member {
	t.Helper()

	m := models.Member{VereinID: vereinID, FirstName: first, LastName: last, MemberNumber: number, Aktiv: true}
	require.NoError(t, db.Create(&m).Error)
	return m
}

func seedClaim(t *testing.T, db *gorm.DB, vereinID, memberID uint, amount float64, due time.Time) models.Claim {
	t.Helper()

	cl := models.Claim{
		VereinID: vereinID,
		MemberID: memberID,
		Amount:   amount,
		DueDate:  due,
		Status:   models.ClaimStatusUnpaid,
	}
	require.NoError(t, db.Create(&cl).Error)
	return cl
}

func timePtr(t time.Time) *time.Time { return &t }
func floatPtr(f float64) *float64    { return &f }

var testActor = auth.Actor{ID: 1, Name: "Test Admin"}

func TestProcessBankUploadAutoMatch(t *testing.T) {
	db := newTestDB(t)
	verein, account := seedVerein(t, db)
	member := seedMember(t, db, verein.ID, "Ahmet", "Yılmaz", "M-1001")

	due1 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	due2 := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	claim1 := seedClaim(t, db, verein.ID, member.ID, 30, due1)
	claim2 := seedClaim(t, db, verein.ID, member.ID, 30, due2)

	svc := NewUploadService(db, cache.NewMemory(), config.RemainderIgnore)

	bookingDate := time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)
	rows := []TransactionRow{{
		RowNumber:    2,
		BookingDate:  timePtr(bookingDate),
		Amount:       floatPtr(50),
		Counterparty: "Yılmaz, Ahmet",
		Purpose:      "Beitrag M-1001",
		Reference:    "REF-1",
	}}

	report, err := svc.ProcessBankUpload(context.Background(), testActor, verein.ID, account.ID, rows)
	require.NoError(t, err)

	assert.NotEmpty(t, report.UploadID)
	assert.Equal(t, 1, report.TotalRows)
	assert.Equal(t, 1, report.SuccessCount)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, RowStatusSuccess, report.Rows[0].Status)
	assert.Equal(t, 50.0, report.Rows[0].AllocatedAmount)
	assert.Equal(t, 0.0, report.Rows[0].RemainingAmount)

	// En eski vade tamamen kapanır, ikincisi kısmi kalır
	var got1, got2 models.Claim
	require.NoError(t, db.First(&got1, claim1.ID).Error)
	require.NoError(t, db.First(&got2, claim2.ID).Error)
	assert.Equal(t, models.ClaimStatusPaid, got1.Status)
	require.NotNil(t, got1.PaidOn)
	assert.Equal(t, bookingDate.UTC(), got1.PaidOn.UTC())
	assert.Equal(t, models.ClaimStatusUnpaid, got2.Status)
	assert.Nil(t, got2.PaidOn)

	var allocs []models.PaymentAllocation
	require.NoError(t, db.Order("id ASC").Find(&allocs).Error)
	require.Len(t, allocs, 2)
	assert.Equal(t, claim1.ID, allocs[0].ClaimID)
	assert.Equal(t, 30.0, allocs[0].Amount)
	assert.Equal(t, claim2.ID, allocs[1].ClaimID)
	assert.Equal(t, 20.0, allocs[1].Amount)
}

func TestProcessBankUploadDuplicateIdempotent(t *testing.T) {
	db := newTestDB(t)
	verein, account := seedVerein(t, db)
	seedMember(t, db, verein.ID, "Ahmet", "Yılmaz", "M-1001")

	svc := NewUploadService(db, cache.NewMemory(), config.RemainderIgnore)

	rows := []TransactionRow{{
		RowNumber:   2,
		BookingDate: timePtr(time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)),
		Amount:      floatPtr(25),
		Purpose:     "Beitrag M-1001",
		Reference:   "REF-1",
	}}

	first, err := svc.ProcessBankUpload(context.Background(), testActor, verein.ID, account.ID, rows)
	require.NoError(t, err)
	assert.Equal(t, 1, first.SuccessCount)

	second, err := svc.ProcessBankUpload(context.Background(), testActor, verein.ID, account.ID, rows)
	require.NoError(t, err)
	assert.Equal(t, 0, second.SuccessCount)
	assert.Equal(t, 1, second.SkippedCount)
	assert.Equal(t, "Mükerrer kayıt, işlem zaten mevcut", second.Rows[0].Message)

	var txCount, payCount int64
	require.NoError(t, db.Model(&models.BankTransaction{}).Count(&txCount).Error)
	require.NoError(t, db.Model(&models.Payment{}).Count(&payCount).Error)
	assert.Equal(t, int64(1), txCount)
	assert.Equal(t, int64(1), payCount)
}

func TestProcessBankUploadRejectsMissingFields(t *testing.T) {
	db := newTestDB(t)
	verein, account := seedVerein(t, db)

	svc := NewUploadService(db, cache.NewMemory(), config.RemainderIgnore)

	rows := []TransactionRow{
		{RowNumber: 2, Amount: floatPtr(10)}, // tarih yok
		{RowNumber: 3, BookingDate: timePtr(time.Now())}, // tutar yok
	}

	report, err := svc.ProcessBankUpload(context.Background(), testActor, verein.ID, account.ID, rows)
	require.NoError(t, err)
	assert.Equal(t, 2, report.FailedCount)
	assert.Equal(t, 0, report.SuccessCount)

	var txCount int64
	require.NoError(t, db.Model(&models.BankTransaction{}).Count(&txCount).Error)
	assert.Equal(t, int64(0), txCount)
}

func TestProcessBankUploadUnmatchedAndAmbiguous(t *testing.T) {
	db := newTestDB(t)
	verein, account := seedVerein(t, db)
	seedMember(t, db, verein.ID, "Ali", "Can", "100")
	seedMember(t, db, verein.ID, "Veli", "Öz", "1001")

	svc := NewUploadService(db, cache.NewMemory(), config.RemainderIgnore)

	rows := []TransactionRow{
		{RowNumber: 2, BookingDate: timePtr(time.Now()), Amount: floatPtr(10), Reference: "1001"},    // iki aday
		{RowNumber: 3, BookingDate: timePtr(time.Now()), Amount: floatPtr(10), Purpose: "bilinmez"}, // eşleşme yok
	}

	report, err := svc.ProcessBankUpload(context.Background(), testActor, verein.ID, account.ID, rows)
	require.NoError(t, err)
	assert.Equal(t, 2, report.UnmatchedCount)
	assert.Len(t, report.Rows[0].CandidateMembers, 2)

	// İşlemler kaydedildi ama ödeme oluşmadı
	var txCount, payCount int64
	require.NoError(t, db.Model(&models.BankTransaction{}).Count(&txCount).Error)
	require.NoError(t, db.Model(&models.Payment{}).Count(&payCount).Error)
	assert.Equal(t, int64(2), txCount)
	assert.Equal(t, int64(0), payCount)

	unmatched, err := svc.UnmatchedTransactions(verein.ID)
	require.NoError(t, err)
	assert.Len(t, unmatched, 2)
}

func TestProcessBankUploadRemainderCredit(t *testing.T) {
	db := newTestDB(t)
	verein, account := seedVerein(t, db)
	member := seedMember(t, db, verein.ID, "Ahmet", "Yılmaz", "M-1001")
	seedClaim(t, db, verein.ID, member.ID, 30, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	svc := NewUploadService(db, cache.NewMemory(), config.RemainderCredit)

	rows := []TransactionRow{{
		RowNumber:   2,
		BookingDate: timePtr(time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)),
		Amount:      floatPtr(50),
		Purpose:     "Beitrag M-1001",
	}}

	report, err := svc.ProcessBankUpload(context.Background(), testActor, verein.ID, account.ID, rows)
	require.NoError(t, err)
	assert.Equal(t, 1, report.SuccessCount)
	assert.Equal(t, 20.0, report.Rows[0].RemainingAmount)

	var advances []models.AdvancePayment
	require.NoError(t, db.Find(&advances).Error)
	require.Len(t, advances, 1)
	assert.Equal(t, member.ID, advances[0].MemberID)
	assert.Equal(t, 20.0, advances[0].Amount)
}

func TestProcessBankUploadRowFailureIsolated(t *testing.T) {
	db := newTestDB(t)
	verein, account := seedVerein(t, db)
	member := seedMember(t, db, verein.ID, "Ahmet", "Yılmaz", "M-1001")
	claim := seedClaim(t, db, verein.ID, member.ID, 30, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	// Avans tablosu yokken credit politikası ilk satırı dağıtımdan SONRA
	// düşürür; savepoint o satırın tüm yazdıklarını geri almalı, ikinci
	// satır etkilenmemeli.
	require.NoError(t, db.Migrator().DropTable(&models.AdvancePayment{}))

	svc := NewUploadService(db, cache.NewMemory(), config.RemainderCredit)

	bookingDate := time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)
	rows := []TransactionRow{
		{RowNumber: 2, BookingDate: timePtr(bookingDate), Amount: floatPtr(50), Purpose: "Beitrag M-1001", Reference: "REF-1"},
		{RowNumber: 3, BookingDate: timePtr(bookingDate), Amount: floatPtr(10), Purpose: "bilinmez", Reference: "REF-2"},
	}

	report, err := svc.ProcessBankUpload(context.Background(), testActor, verein.ID, account.ID, rows)
	require.NoError(t, err)
	assert.Equal(t, 1, report.FailedCount)
	assert.Equal(t, 1, report.UnmatchedCount)
	assert.Equal(t, RowStatusFailed, report.Rows[0].Status)

	// Düşen satırın banka hareketi, ödemesi ve dağıtımı geri alındı;
	// ikinci satırın hareketi commit edildi
	var txs []models.BankTransaction
	require.NoError(t, db.Find(&txs).Error)
	require.Len(t, txs, 1)
	assert.Equal(t, "REF-2", txs[0].Reference)

	var payCount, allocCount int64
	require.NoError(t, db.Model(&models.Payment{}).Count(&payCount).Error)
	require.NoError(t, db.Model(&models.PaymentAllocation{}).Count(&allocCount).Error)
	assert.Equal(t, int64(0), payCount)
	assert.Equal(t, int64(0), allocCount)

	// Savepoint içindeki paid geçişi de geri alındı
	var got models.Claim
	require.NoError(t, db.First(&got, claim.ID).Error)
	assert.Equal(t, models.ClaimStatusUnpaid, got.Status)
	assert.Nil(t, got.PaidOn)
}

func TestProcessBankUploadPaidClaimStaysUntouched(t *testing.T) {
	db := newTestDB(t)
	verein, account := seedVerein(t, db)
	member := seedMember(t, db, verein.ID, "Ahmet", "Yılmaz", "M-1001")
	claim1 := seedClaim(t, db, verein.ID, member.ID, 30, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	svc := NewUploadService(db, cache.NewMemory(), config.RemainderIgnore)

	date1 := time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)
	first, err := svc.ProcessBankUpload(context.Background(), testActor, verein.ID, account.ID, []TransactionRow{
		{RowNumber: 2, BookingDate: timePtr(date1), Amount: floatPtr(30), Purpose: "Beitrag M-1001", Reference: "REF-1"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, first.SuccessCount)

	claim2 := seedClaim(t, db, verein.ID, member.ID, 20, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))

	date2 := time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC)
	second, err := svc.ProcessBankUpload(context.Background(), testActor, verein.ID, account.ID, []TransactionRow{
		{RowNumber: 2, BookingDate: timePtr(date2), Amount: floatPtr(50), Purpose: "Beitrag M-1001", Reference: "REF-2"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, second.SuccessCount)
	assert.Equal(t, 20.0, second.Rows[0].AllocatedAmount)
	assert.Equal(t, 30.0, second.Rows[0].RemainingAmount)

	// Kapanmış alacak ikinci yüklemeden etkilenmez: durum, tarih ve
	// dağıtımları aynı kalır
	var got1 models.Claim
	require.NoError(t, db.First(&got1, claim1.ID).Error)
	assert.Equal(t, models.ClaimStatusPaid, got1.Status)
	require.NotNil(t, got1.PaidOn)
	assert.Equal(t, date1, got1.PaidOn.UTC())

	var allocs1 []models.PaymentAllocation
	require.NoError(t, db.Where("claim_id = ?", claim1.ID).Find(&allocs1).Error)
	require.Len(t, allocs1, 1)
	assert.Equal(t, 30.0, allocs1[0].Amount)

	var got2 models.Claim
	require.NoError(t, db.First(&got2, claim2.ID).Error)
	assert.Equal(t, models.ClaimStatusPaid, got2.Status)
	require.NotNil(t, got2.PaidOn)
	assert.Equal(t, date2, got2.PaidOn.UTC())
}

func TestProcessBankUploadDuplicateLongReference(t *testing.T) {
	db := newTestDB(t)
	verein, account := seedVerein(t, db)

	svc := NewUploadService(db, cache.NewMemory(), config.RemainderIgnore)

	// 100 rune'u aşan referans kırpılarak saklanır; mükerrer kontrolü de
	// kırpılmış değer üzerinden eşleşmeli
	rows := []TransactionRow{{
		RowNumber:   2,
		BookingDate: timePtr(time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)),
		Amount:      floatPtr(25),
		Reference:   strings.Repeat("R", 120),
	}}

	_, err := svc.ProcessBankUpload(context.Background(), testActor, verein.ID, account.ID, rows)
	require.NoError(t, err)

	second, err := svc.ProcessBankUpload(context.Background(), testActor, verein.ID, account.ID, rows)
	require.NoError(t, err)
	assert.Equal(t, 1, second.SkippedCount)

	var txCount int64
	require.NoError(t, db.Model(&models.BankTransaction{}).Count(&txCount).Error)
	assert.Equal(t, int64(1), txCount)
}

func TestManualMatchAutoAllocation(t *testing.T) {
	db := newTestDB(t)
	verein, account := seedVerein(t, db)
	member := seedMember(t, db, verein.ID, "Fatma", "Demir", "")
	claim := seedClaim(t, db, verein.ID, member.ID, 40, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	svc := NewUploadService(db, cache.NewMemory(), config.RemainderIgnore)

	bt := models.BankTransaction{
		VereinID:      verein.ID,
		BankAccountID: account.ID,
		BookingDate:   time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC),
		Amount:        40,
		Counterparty:  "F. Demir",
	}
	require.NoError(t, db.Create(&bt).Error)

	result, err := svc.ManualMatch(context.Background(), testActor, ManualMatchInput{
		BankTransactionID: bt.ID,
		MemberID:          member.ID,
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 40.0, result.AllocatedAmount)
	assert.Equal(t, []uint{claim.ID}, result.MatchedClaimIDs)

	var got models.Claim
	require.NoError(t, db.First(&got, claim.ID).Error)
	assert.Equal(t, models.ClaimStatusPaid, got.Status)

	// Aynı işlem ikinci kez eşleştirilemez
	_, err = svc.ManualMatch(context.Background(), testActor, ManualMatchInput{
		BankTransactionID: bt.ID,
		MemberID:          member.ID,
	})
	assert.ErrorIs(t, err, ErrAlreadyMatched)
}

func TestManualMatchRejectsExpenseRow(t *testing.T) {
	db := newTestDB(t)
	verein, account := seedVerein(t, db)
	member := seedMember(t, db, verein.ID, "Fatma", "Demir", "")

	svc := NewUploadService(db, cache.NewMemory(), config.RemainderIgnore)

	bt := models.BankTransaction{
		VereinID:      verein.ID,
		BankAccountID: account.ID,
		BookingDate:   time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC),
		Amount:        -75,
		Counterparty:  "Stadtwerke GmbH",
	}
	require.NoError(t, db.Create(&bt).Error)

	_, err := svc.ManualMatch(context.Background(), testActor, ManualMatchInput{
		BankTransactionID: bt.ID,
		MemberID:          member.ID,
	})
	assert.ErrorIs(t, err, ErrValidation)

	var payCount int64
	require.NoError(t, db.Model(&models.Payment{}).Count(&payCount).Error)
	assert.Equal(t, int64(0), payCount)
}

func TestManualMatchExplicitClaims(t *testing.T) {
	db := newTestDB(t)
	verein, account := seedVerein(t, db)
	member := seedMember(t, db, verein.ID, "Fatma", "Demir", "")
	other := seedMember(t, db, verein.ID, "Ali", "Veli", "")

	claim1 := seedClaim(t, db, verein.ID, member.ID, 30, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	claim2 := seedClaim(t, db, verein.ID, member.ID, 30, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	foreign := seedClaim(t, db, verein.ID, other.ID, 30, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	svc := NewUploadService(db, cache.NewMemory(), config.RemainderIgnore)

	newTx := func() models.BankTransaction {
		bt := models.BankTransaction{
			VereinID:      verein.ID,
			BankAccountID: account.ID,
			BookingDate:   time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC),
			Amount:        45,
			Reference:     time.Now().Format("150405.000000000"),
		}
		require.NoError(t, db.Create(&bt).Error)
		return bt
	}

	// Başka üyenin alacağı reddedilir
	bt := newTx()
	_, err := svc.ManualMatch(context.Background(), testActor, ManualMatchInput{
		BankTransactionID: bt.ID,
		MemberID:          member.ID,
		ClaimIDs:          []uint{claim1.ID, foreign.ID},
	})
	assert.ErrorIs(t, err, ErrValidation)

	// Tutar sayısı uyuşmazlığı reddedilir
	_, err = svc.ManualMatch(context.Background(), testActor, ManualMatchInput{
		BankTransactionID: bt.ID,
		MemberID:          member.ID,
		ClaimIDs:          []uint{claim1.ID, claim2.ID},
		Amounts:           []float64{10},
	})
	assert.ErrorIs(t, err, ErrValidation)

	// Verilen sırayla dağıtım: önce claim2, sonra claim1
	result, err := svc.ManualMatch(context.Background(), testActor, ManualMatchInput{
		BankTransactionID: bt.ID,
		MemberID:          member.ID,
		ClaimIDs:          []uint{claim2.ID, claim1.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, 45.0, result.AllocatedAmount)
	assert.Equal(t, []uint{claim2.ID, claim1.ID}, result.MatchedClaimIDs)

	var got1, got2 models.Claim
	require.NoError(t, db.First(&got1, claim1.ID).Error)
	require.NoError(t, db.First(&got2, claim2.ID).Error)
	assert.Equal(t, models.ClaimStatusPaid, got2.Status)   // 30 EUR tam
	assert.Equal(t, models.ClaimStatusUnpaid, got1.Status) // 15 EUR kısmi
}
