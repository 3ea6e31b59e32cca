package bankimport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"dernek-backend/internal/allocation"
	"dernek-backend/internal/audit"
	"dernek-backend/internal/auth"
	"dernek-backend/internal/cache"
	"dernek-backend/internal/models"

	"gorm.io/gorm"
)

// ManualMatchInput: eşleşmeyen bir banka hareketinin elle bir üyeye
// bağlanması. ClaimIDs boşsa otomatik (en eski vade önce) dağıtım yapılır;
// doluysa yalnızca verilen alacaklara, verilen sırayla dağıtılır. Amounts
// verilirse ClaimIDs ile aynı uzunlukta olmalıdır.
type ManualMatchInput struct {
	BankTransactionID uint
	MemberID          uint
	ClaimIDs          []uint
	Amounts           []float64
}

type ManualMatchResult struct {
	Success         bool    `json:"success"`
	Message         string  `json:"message"`
	PaymentID       uint    `json:"payment_id"`
	MemberID        uint    `json:"member_id"`
	MemberName      string  `json:"member_name"`
	AllocatedAmount float64 `json:"allocated_amount"`
	RemainingAmount float64 `json:"remaining_amount"`
	MatchedClaimIDs []uint  `json:"matched_claim_ids"`
}

// ManualMatch: eşleşmeyen hareketi üyeye bağlar, ödemeyi oluşturur ve
// dağıtımı tek transaction içinde yapar.
func (s *UploadService) ManualMatch(ctx context.Context, actor auth.Actor, input ManualMatchInput) (*ManualMatchResult, error) {
	if len(input.Amounts) > 0 && len(input.Amounts) != len(input.ClaimIDs) {
		return nil, fmt.Errorf("%w: tutar sayısı alacak sayısıyla eşleşmiyor", ErrValidation)
	}

	var bt models.BankTransaction
	if err := s.db.First(&bt, input.BankTransactionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("banka işlemi okunamadı: %w", err)
	}

	// Gider satırları (negatif veya sıfır tutar) üyeyle eşleştirilemez
	if bt.Amount <= 0 {
		return nil, fmt.Errorf("%w: gider satırı üyeyle eşleştirilemez", ErrValidation)
	}

	var existing int64
	if err := s.db.Model(&models.Payment{}).
		Where("bank_transaction_id = ?", bt.ID).
		Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("eşleşme kontrolü yapılamadı: %w", err)
	}
	if existing > 0 {
		return nil, ErrAlreadyMatched
	}

	var member models.Member
	if err := s.db.Where("id = ? AND verein_id = ?", input.MemberID, bt.VereinID).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("üye okunamadı: %w", err)
	}

	result := &ManualMatchResult{MemberID: member.ID, MemberName: member.FirstName + " " + member.LastName}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		payment, err := createPaymentFromTransaction(tx, &bt, member.ID, actor.ID, "Manuel eşleştirme")
		if err != nil {
			return err
		}
		result.PaymentID = payment.ID

		var allocRes allocation.Result
		if len(input.ClaimIDs) > 0 {
			allocRes, err = s.allocateToClaims(tx, payment, input, actor.ID)
		} else {
			allocRes, err = allocation.Apply(tx, payment, actor.ID)
		}
		if err != nil {
			return err
		}

		if _, err := allocation.ApplyRemainder(tx, s.remainderPolicy, payment, allocRes.Remainder, actor.ID); err != nil {
			return err
		}

		result.AllocatedAmount = allocRes.Allocated()
		result.RemainingAmount = allocRes.Remainder
		result.MatchedClaimIDs = allocRes.ClaimIDs()

		return audit.WriteLogTx(tx, audit.LogOptions{
			VereinID:   &bt.VereinID,
			UserID:     actor.ID,
			UserName:   actor.Name,
			EntityType: "payment",
			EntityID:   payment.ID,
			Action:     models.AuditActionCreate,
			Description: fmt.Sprintf("Manuel eşleştirme: işlem #%d, üye %s, %.2f EUR dağıtıldı",
				bt.ID, result.MemberName, result.AllocatedAmount),
			After: payment,
		})
	})
	if err != nil {
		return nil, err
	}

	s.cache.Remove(ctx, cache.MemberSummaryKey(member.ID))

	result.Success = true
	result.Message = fmt.Sprintf("İşlem %s üyesiyle eşleştirildi, %.2f EUR %d alacağa dağıtıldı",
		result.MemberName, result.AllocatedAmount, len(result.MatchedClaimIDs))

	slog.Info("manuel eşleştirme tamamlandı",
		"bank_transaction_id", bt.ID,
		"member_id", member.ID,
		"payment_id", result.PaymentID,
		"allocated", result.AllocatedAmount,
	)

	return result, nil
}

// allocateToClaims: çağıranın belirttiği alacaklara, belirttiği sırayla
// dağıtım. Tutar verilmeyen alacak için kalan ödeme ile alacağın kalan
// tutarının küçüğü uygulanır. Başka üyenin alacağına dağıtım yapılamaz.
func (s *UploadService) allocateToClaims(tx *gorm.DB, payment *models.Payment, input ManualMatchInput, createdBy uint) (allocation.Result, error) {
	var claims []models.Claim
	if err := tx.Where("id IN ? AND member_id = ?", input.ClaimIDs, payment.MemberID).
		Find(&claims).Error; err != nil {
		return allocation.Result{}, fmt.Errorf("alacaklar okunamadı: %w", err)
	}
	if len(claims) != len(input.ClaimIDs) {
		return allocation.Result{}, fmt.Errorf("%w: alacaklar bulunamadı veya üyeye ait değil", ErrValidation)
	}

	byID := make(map[uint]models.Claim, len(claims))
	for _, cl := range claims {
		byID[cl.ID] = cl
	}

	// Mevcut kısmi dağıtımları düş
	type claimSum struct {
		ClaimID uint
		Total   float64
	}
	var sums []claimSum
	if err := tx.Model(&models.PaymentAllocation{}).
		Select("claim_id, COALESCE(SUM(amount), 0) AS total").
		Where("claim_id IN ?", input.ClaimIDs).
		Group("claim_id").
		Scan(&sums).Error; err != nil {
		return allocation.Result{}, fmt.Errorf("dağıtım toplamları okunamadı: %w", err)
	}
	allocated := make(map[uint]float64, len(sums))
	for _, s := range sums {
		allocated[s.ClaimID] = s.Total
	}

	res := allocation.Result{Remainder: payment.Amount}
	for i, claimID := range input.ClaimIDs {
		claim := byID[claimID]
		outstanding := claim.Amount - allocated[claimID]
		if outstanding <= 0 {
			continue
		}

		var amount float64
		if len(input.Amounts) > 0 {
			amount = input.Amounts[i]
			if amount <= 0 {
				continue
			}
			if amount > outstanding {
				return allocation.Result{}, fmt.Errorf("%w: alacak #%d için dağıtım tutarı kalan tutarı aşıyor", ErrValidation, claimID)
			}
			if amount > res.Remainder {
				return allocation.Result{}, fmt.Errorf("%w: dağıtım tutarları ödeme tutarını aşıyor", ErrValidation)
			}
		} else {
			amount = res.Remainder
			if outstanding < amount {
				amount = outstanding
			}
			if amount <= 0 {
				break
			}
		}

		alloc := models.PaymentAllocation{
			ClaimID:   claimID,
			PaymentID: payment.ID,
			Amount:    amount,
			CreatedBy: createdBy,
		}
		if err := tx.Create(&alloc).Error; err != nil {
			return allocation.Result{}, fmt.Errorf("dağıtım kaydedilemedi: %w", err)
		}

		paysOff := amount >= outstanding
		if paysOff {
			if err := tx.Model(&models.Claim{}).Where("id = ?", claimID).
				Updates(map[string]interface{}{
					"status":  models.ClaimStatusPaid,
					"paid_on": payment.PaymentDate,
				}).Error; err != nil {
				return allocation.Result{}, fmt.Errorf("alacak güncellenemedi: %w", err)
			}
		}

		res.Entries = append(res.Entries, allocation.Entry{ClaimID: claimID, Amount: amount, PaysOff: paysOff})
		res.Remainder -= amount
	}

	return res, nil
}

// UnmatchedTransactions: henüz bir ödemeye bağlanmamış banka hareketleri.
// Gider satırları (negatif tutar) manuel eşleştirme adayı değildir.
func (s *UploadService) UnmatchedTransactions(vereinID uint) ([]models.BankTransaction, error) {
	sub := s.db.Model(&models.Payment{}).
		Select("bank_transaction_id").
		Where("bank_transaction_id IS NOT NULL")

	var txs []models.BankTransaction
	if err := s.db.
		Where("verein_id = ? AND amount > 0 AND id NOT IN (?)", vereinID, sub).
		Order("booking_date DESC, id DESC").
		Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("eşleşmeyen işlemler okunamadı: %w", err)
	}
	return txs, nil
}
