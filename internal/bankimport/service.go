package bankimport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dernek-backend/internal/allocation"
	"dernek-backend/internal/audit"
	"dernek-backend/internal/auth"
	"dernek-backend/internal/cache"
	"dernek-backend/internal/metrics"
	"dernek-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrVereinNotFound      = errors.New("dernek bulunamadı")
	ErrBankAccountNotFound = errors.New("banka hesabı bulunamadı")
	ErrTransactionNotFound = errors.New("banka işlemi bulunamadı")
	ErrMemberNotFound      = errors.New("üye bulunamadı")
	ErrAlreadyMatched      = errors.New("işlem zaten bir ödemeyle eşleştirilmiş")
	ErrValidation          = errors.New("geçersiz istek")
)

type RowStatus string

const (
	RowStatusSuccess   RowStatus = "Success"
	RowStatusSkipped   RowStatus = "Skipped"
	RowStatusUnmatched RowStatus = "Unmatched"
	RowStatusFailed    RowStatus = "Failed"
)

// RowResult: yüklemedeki tek satırın sonucu.
type RowResult struct {
	RowNumber         int        `json:"row_number"`
	Status            RowStatus  `json:"status"`
	Message           string     `json:"message"`
	BookingDate       *time.Time `json:"booking_date,omitempty"`
	Amount            *float64   `json:"amount,omitempty"`
	BankTransactionID *uint      `json:"bank_transaction_id,omitempty"`
	PaymentID         *uint      `json:"payment_id,omitempty"`
	MemberID          *uint      `json:"member_id,omitempty"`
	MemberName        string     `json:"member_name,omitempty"`
	CandidateMembers  []uint     `json:"candidate_members,omitempty"`
	AllocatedAmount   float64    `json:"allocated_amount,omitempty"`
	RemainingAmount   float64    `json:"remaining_amount,omitempty"`
}

// UploadReport: yüklemenin satır satır raporu. Toplamlar her zaman satır
// sayısıyla tutarlıdır.
type UploadReport struct {
	UploadID       string      `json:"upload_id"`
	TotalRows      int         `json:"total_rows"`
	SuccessCount   int         `json:"success_count"`
	SkippedCount   int         `json:"skipped_count"`
	UnmatchedCount int         `json:"unmatched_count"`
	FailedCount    int         `json:"failed_count"`
	Rows           []RowResult `json:"rows"`
}

func (r *UploadReport) Add(row RowResult) {
	r.Rows = append(r.Rows, row)
	switch row.Status {
	case RowStatusSuccess:
		r.SuccessCount++
	case RowStatusSkipped:
		r.SkippedCount++
	case RowStatusUnmatched:
		r.UnmatchedCount++
	case RowStatusFailed:
		r.FailedCount++
	}
}

// UploadService: banka ekstresi yükleme akışı. Tüm batch tek transaction
// içinde işlenir; satır hataları savepoint ile satıra izole edilir.
type UploadService struct {
	db              *gorm.DB
	cache           cache.Cache
	remainderPolicy string
}

func NewUploadService(db *gorm.DB, c cache.Cache, remainderPolicy string) *UploadService {
	return &UploadService{db: db, cache: c, remainderPolicy: remainderPolicy}
}

// ProcessBankUpload: ayrıştırılmış ekstre satırlarını işler. Batch commit
// edildikten sonra etkilenen üyelerin özet önbelleği düşürülür.
func (s *UploadService) ProcessBankUpload(ctx context.Context, actor auth.Actor, vereinID, bankAccountID uint, rows []TransactionRow) (*UploadReport, error) {
	var verein models.Verein
	if err := s.db.First(&verein, vereinID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVereinNotFound
		}
		return nil, fmt.Errorf("dernek okunamadı: %w", err)
	}

	var account models.BankAccount
	if err := s.db.Where("id = ? AND verein_id = ?", bankAccountID, vereinID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBankAccountNotFound
		}
		return nil, fmt.Errorf("banka hesabı okunamadı: %w", err)
	}

	members, err := s.loadMemberSnapshot(vereinID)
	if err != nil {
		return nil, err
	}

	report := &UploadReport{
		UploadID:  uuid.NewString(),
		TotalRows: len(rows),
		Rows:      make([]RowResult, 0, len(rows)),
	}
	touchedMembers := make(map[uint]struct{})

	err = s.db.Transaction(func(tx *gorm.DB) error {
		for _, row := range rows {
			result := s.processRow(tx, actor, vereinID, bankAccountID, row, members)
			report.Add(result)
			metrics.UploadRows.WithLabelValues("bank", string(result.Status)).Inc()
			if result.Status == RowStatusSuccess && result.MemberID != nil {
				touchedMembers[*result.MemberID] = struct{}{}
			}
		}

		return audit.WriteLogTx(tx, audit.LogOptions{
			VereinID:   &vereinID,
			UserID:     actor.ID,
			UserName:   actor.Name,
			EntityType: "bank_upload",
			Action:     models.AuditActionImport,
			Description: fmt.Sprintf("Ekstre yüklendi (%s): %d satır, %d başarılı, %d mükerrer, %d eşleşmeyen, %d hatalı",
				report.UploadID, report.TotalRows, report.SuccessCount, report.SkippedCount, report.UnmatchedCount, report.FailedCount),
			After: report,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("yükleme tamamlanamadı: %w", err)
	}

	for memberID := range touchedMembers {
		s.cache.Remove(ctx, cache.MemberSummaryKey(memberID))
	}

	slog.Info("ekstre yüklemesi tamamlandı",
		"upload_id", report.UploadID,
		"verein_id", vereinID,
		"total", report.TotalRows,
		"success", report.SuccessCount,
		"skipped", report.SkippedCount,
		"unmatched", report.UnmatchedCount,
		"failed", report.FailedCount,
	)

	return report, nil
}

func (s *UploadService) loadMemberSnapshot(vereinID uint) ([]MemberSnapshot, error) {
	var members []models.Member
	if err := s.db.Where("verein_id = ? AND aktiv = ?", vereinID, true).Find(&members).Error; err != nil {
		return nil, fmt.Errorf("üyeler okunamadı: %w", err)
	}

	snapshot := make([]MemberSnapshot, 0, len(members))
	for _, m := range members {
		snapshot = append(snapshot, MemberSnapshot{
			ID:           m.ID,
			FirstName:    m.FirstName,
			LastName:     m.LastName,
			MemberNumber: m.MemberNumber,
		})
	}
	return snapshot, nil
}

// processRow: tek satırı savepoint altında işler. Satır içi bir hata yalnızca
// o satırın yazdıklarını geri alır; batch'in kalanı etkilenmez.
func (s *UploadService) processRow(tx *gorm.DB, actor auth.Actor, vereinID, bankAccountID uint, row TransactionRow, members []MemberSnapshot) RowResult {
	sp := fmt.Sprintf("row_%d", row.RowNumber)
	tx.SavePoint(sp)

	result, err := s.doProcessRow(tx, actor, vereinID, bankAccountID, row, members)
	if err != nil {
		tx.RollbackTo(sp)
		slog.Warn("satır işlenemedi", "row", row.RowNumber, "error", err)
		return RowResult{
			RowNumber:   row.RowNumber,
			Status:      RowStatusFailed,
			Message:     "Satır işlenirken hata oluştu: " + err.Error(),
			BookingDate: row.BookingDate,
			Amount:      row.Amount,
		}
	}
	return result
}

func (s *UploadService) doProcessRow(tx *gorm.DB, actor auth.Actor, vereinID, bankAccountID uint, row TransactionRow, members []MemberSnapshot) (RowResult, error) {
	result := RowResult{
		RowNumber:   row.RowNumber,
		BookingDate: row.BookingDate,
		Amount:      row.Amount,
	}

	// 1) Zorunlu alanlar
	if row.BookingDate == nil || row.Amount == nil {
		result.Status = RowStatusFailed
		result.Message = "Tarih veya tutar eksik"
		return result, nil
	}

	// 2) Mükerrer kontrolü. Karşılaştırma saklanan (kırpılmış) referans
	// üzerinden yapılır, yoksa uzun referanslı satır mükerrerde yakalanmaz.
	reference := truncate(row.Reference, 100)
	var count int64
	if err := tx.Model(&models.BankTransaction{}).
		Where("verein_id = ? AND bank_account_id = ? AND booking_date = ? AND amount = ? AND reference = ?",
			vereinID, bankAccountID, *row.BookingDate, *row.Amount, reference).
		Count(&count).Error; err != nil {
		return result, fmt.Errorf("mükerrer kontrolü yapılamadı: %w", err)
	}
	if count > 0 {
		result.Status = RowStatusSkipped
		result.Message = "Mükerrer kayıt, işlem zaten mevcut"
		return result, nil
	}

	// 3) Banka hareketini kaydet
	bt := models.BankTransaction{
		VereinID:      vereinID,
		BankAccountID: bankAccountID,
		BookingDate:   *row.BookingDate,
		Amount:        *row.Amount,
		Counterparty:  truncate(row.Counterparty, 100),
		Purpose:       truncate(row.Purpose, 250),
		Reference:     reference,
		CreatedBy:     actor.ID,
	}
	if err := tx.Create(&bt).Error; err != nil {
		return result, fmt.Errorf("banka hareketi kaydedilemedi: %w", err)
	}
	result.BankTransactionID = &bt.ID

	// Gider satırları kaydedilir ama üye eşleştirmesine girmez
	if *row.Amount <= 0 {
		result.Status = RowStatusUnmatched
		result.Message = "Gider satırı, üye eşleştirmesi yapılmadı"
		return result, nil
	}

	// 4) Üye eşleştirme
	match := MatchMember(row, members)
	switch match.Outcome {
	case MatchAmbiguous:
		result.Status = RowStatusUnmatched
		result.Message = fmt.Sprintf("Birden fazla aday üye bulundu (%d), manuel eşleştirme gerekiyor", len(match.Candidates))
		result.CandidateMembers = match.Candidates
		return result, nil
	case MatchNone:
		result.Status = RowStatusUnmatched
		result.Message = "Eşleşen üye bulunamadı, manuel eşleştirme gerekiyor"
		return result, nil
	}

	// 5) Ödeme oluştur ve alacaklara dağıt
	payment, err := createPaymentFromTransaction(tx, &bt, match.Member.ID, actor.ID, "Otomatik eşleştirme")
	if err != nil {
		return result, err
	}

	allocRes, err := allocation.Apply(tx, payment, actor.ID)
	if err != nil {
		return result, err
	}

	credited, err := allocation.ApplyRemainder(tx, s.remainderPolicy, payment, allocRes.Remainder, actor.ID)
	if err != nil {
		return result, err
	}

	result.Status = RowStatusSuccess
	result.PaymentID = &payment.ID
	result.MemberID = &match.Member.ID
	result.MemberName = match.Member.FullName()
	result.AllocatedAmount = allocRes.Allocated()
	result.RemainingAmount = allocRes.Remainder
	result.Message = fmt.Sprintf("%s üyesiyle eşleştirildi, %.2f EUR %d alacağa dağıtıldı",
		result.MemberName, allocRes.Allocated(), len(allocRes.Entries))
	if credited {
		result.Message += fmt.Sprintf(", %.2f EUR avansa yazıldı", allocRes.Remainder)
	}
	return result, nil
}

// createPaymentFromTransaction: banka hareketinden üye ödemesi üretir.
// Hem otomatik hem manuel eşleştirme aynı yolu kullanır.
func createPaymentFromTransaction(tx *gorm.DB, bt *models.BankTransaction, memberID, createdBy uint, note string) (*models.Payment, error) {
	payment := models.Payment{
		VereinID:          bt.VereinID,
		MemberID:          memberID,
		Amount:            bt.Amount,
		Currency:          "EUR",
		PaymentDate:       bt.BookingDate,
		Channel:           "Banküberweisung",
		BankAccountID:     &bt.BankAccountID,
		Reference:         bt.Reference,
		Note:              note,
		BankTransactionID: &bt.ID,
		CreatedBy:         createdBy,
	}
	if err := tx.Create(&payment).Error; err != nil {
		return nil, fmt.Errorf("ödeme kaydedilemedi: %w", err)
	}
	return &payment, nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
