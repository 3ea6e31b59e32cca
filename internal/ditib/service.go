package ditib

import (
	"errors"
	"fmt"
	"log/slog"

	"dernek-backend/internal/audit"
	"dernek-backend/internal/auth"
	"dernek-backend/internal/bankimport"
	"dernek-backend/internal/metrics"
	"dernek-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service: DITIB federasyon aidatı yükleme akışı. Gider tarafıdır; satırlar
// hiçbir zaman üye eşleştirmesine veya alacak dağıtımına girmez. Her satırdan
// negatif bir banka hareketi ve ona bağlı bir DitibPayment üretilir.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ProcessDitibUpload: DITIB ödeme listesini işler. Mükerrer kontrolü
// (dernek, tarih, tutar) üçlüsü üzerinden yapılır.
func (s *Service) ProcessDitibUpload(actor auth.Actor, vereinID, bankAccountID uint, rows []bankimport.TransactionRow) (*bankimport.UploadReport, error) {
	var verein models.Verein
	if err := s.db.First(&verein, vereinID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bankimport.ErrVereinNotFound
		}
		return nil, fmt.Errorf("dernek okunamadı: %w", err)
	}

	var account models.BankAccount
	if err := s.db.Where("id = ? AND verein_id = ?", bankAccountID, vereinID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bankimport.ErrBankAccountNotFound
		}
		return nil, fmt.Errorf("banka hesabı okunamadı: %w", err)
	}

	report := &bankimport.UploadReport{
		UploadID:  uuid.NewString(),
		TotalRows: len(rows),
		Rows:      make([]bankimport.RowResult, 0, len(rows)),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, row := range rows {
			result := s.processRow(tx, actor, vereinID, bankAccountID, row)
			report.Add(result)
			metrics.UploadRows.WithLabelValues("ditib", string(result.Status)).Inc()
		}

		return audit.WriteLogTx(tx, audit.LogOptions{
			VereinID:   &vereinID,
			UserID:     actor.ID,
			UserName:   actor.Name,
			EntityType: "ditib_upload",
			Action:     models.AuditActionImport,
			Description: fmt.Sprintf("DITIB listesi yüklendi (%s): %d satır, %d başarılı, %d mükerrer, %d hatalı",
				report.UploadID, report.TotalRows, report.SuccessCount, report.SkippedCount, report.FailedCount),
			After: report,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("yükleme tamamlanamadı: %w", err)
	}

	slog.Info("DITIB yüklemesi tamamlandı",
		"upload_id", report.UploadID,
		"verein_id", vereinID,
		"total", report.TotalRows,
		"success", report.SuccessCount,
		"skipped", report.SkippedCount,
		"failed", report.FailedCount,
	)

	return report, nil
}

func (s *Service) processRow(tx *gorm.DB, actor auth.Actor, vereinID, bankAccountID uint, row bankimport.TransactionRow) bankimport.RowResult {
	sp := fmt.Sprintf("ditib_row_%d", row.RowNumber)
	tx.SavePoint(sp)

	result, err := s.doProcessRow(tx, actor, vereinID, bankAccountID, row)
	if err != nil {
		tx.RollbackTo(sp)
		slog.Warn("DITIB satırı işlenemedi", "row", row.RowNumber, "error", err)
		return bankimport.RowResult{
			RowNumber:   row.RowNumber,
			Status:      bankimport.RowStatusFailed,
			Message:     "Satır işlenirken hata oluştu: " + err.Error(),
			BookingDate: row.BookingDate,
			Amount:      row.Amount,
		}
	}
	return result
}

func (s *Service) doProcessRow(tx *gorm.DB, actor auth.Actor, vereinID, bankAccountID uint, row bankimport.TransactionRow) (bankimport.RowResult, error) {
	result := bankimport.RowResult{
		RowNumber:   row.RowNumber,
		BookingDate: row.BookingDate,
		Amount:      row.Amount,
	}

	if row.BookingDate == nil || row.Amount == nil {
		result.Status = bankimport.RowStatusFailed
		result.Message = "Tarih veya tutar eksik"
		return result, nil
	}

	// Liste pozitif tutarlarla gelir; gider olarak negatif işlenir
	amount := *row.Amount
	if amount < 0 {
		amount = -amount
	}
	if amount == 0 {
		result.Status = bankimport.RowStatusFailed
		result.Message = "Tutar sıfır olamaz"
		return result, nil
	}

	// Mükerrer kontrolü: dernek + tarih + tutar
	var count int64
	if err := tx.Model(&models.DitibPayment{}).
		Where("verein_id = ? AND payment_date = ? AND amount = ?", vereinID, *row.BookingDate, amount).
		Count(&count).Error; err != nil {
		return result, fmt.Errorf("mükerrer kontrolü yapılamadı: %w", err)
	}
	if count > 0 {
		result.Status = bankimport.RowStatusSkipped
		result.Message = "Mükerrer kayıt, DITIB ödemesi zaten mevcut"
		return result, nil
	}

	period := row.BookingDate.Format("2006-01")

	bt := models.BankTransaction{
		VereinID:      vereinID,
		BankAccountID: bankAccountID,
		BookingDate:   *row.BookingDate,
		Amount:        -amount, // gider
		Counterparty:  "DITIB",
		Purpose:       "DITIB Verbandsbeitrag " + period,
		Reference:     row.Reference,
		CreatedBy:     actor.ID,
	}
	if err := tx.Create(&bt).Error; err != nil {
		return result, fmt.Errorf("banka hareketi kaydedilemedi: %w", err)
	}
	result.BankTransactionID = &bt.ID

	payment := models.DitibPayment{
		VereinID:          vereinID,
		Amount:            amount,
		PaymentDate:       *row.BookingDate,
		Period:            period,
		Channel:           "Banküberweisung",
		BankAccountID:     &bankAccountID,
		Reference:         row.Reference,
		BankTransactionID: &bt.ID,
		CreatedBy:         actor.ID,
	}
	if err := tx.Create(&payment).Error; err != nil {
		return result, fmt.Errorf("DITIB ödemesi kaydedilemedi: %w", err)
	}

	result.Status = bankimport.RowStatusSuccess
	result.Message = fmt.Sprintf("%s dönemi için %.2f EUR DITIB ödemesi kaydedildi", period, amount)
	return result, nil
}

// ListPayments: derneğin DITIB ödemeleri, yeni tarih önce.
func (s *Service) ListPayments(vereinID uint) ([]models.DitibPayment, error) {
	var payments []models.DitibPayment
	if err := s.db.Where("verein_id = ?", vereinID).
		Order("payment_date DESC, id DESC").
		Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("DITIB ödemeleri okunamadı: %w", err)
	}
	return payments, nil
}
