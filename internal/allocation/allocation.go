package allocation

import (
	"fmt"

	"dernek-backend/internal/config"
	"dernek-backend/internal/metrics"
	"dernek-backend/internal/models"

	"gorm.io/gorm"
)

// OpenClaim: dağıtım planına giren açık alacak. Outstanding, daha önce yapılan
// kısmi dağıtımlar düşüldükten sonra kalan tutardır; liste vade tarihine göre
// (eşitlikte id'ye göre) artan sıralı gelmelidir.
type OpenClaim struct {
	ID          uint
	Amount      float64
	Outstanding float64
}

// Entry: tek bir alacağa uygulanacak tutar.
type Entry struct {
	ClaimID uint
	Amount  float64
	PaysOff bool // alacak bu dağıtımla tamamen kapanıyor mu
}

// Result: dağıtım planı. Toplam dağıtılan + Remainder her zaman ödeme
// tutarına eşittir.
type Result struct {
	Entries   []Entry
	Remainder float64
}

func (r Result) Allocated() float64 {
	var total float64
	for _, e := range r.Entries {
		total += e.Amount
	}
	return total
}

func (r Result) ClaimIDs() []uint {
	ids := make([]uint, 0, len(r.Entries))
	for _, e := range r.Entries {
		ids = append(ids, e.ClaimID)
	}
	return ids
}

// Plan: ödeme tutarını açık alacaklara sırayla dağıtır. Her alacağa kalan
// tutar ile alacağın kalan tutarının küçüğü uygulanır; ödeme bittiğinde
// kalan alacaklara dokunulmaz.
func Plan(paymentAmount float64, claims []OpenClaim) Result {
	remaining := paymentAmount
	res := Result{Entries: make([]Entry, 0, len(claims))}

	for _, claim := range claims {
		if remaining <= 0 {
			break
		}
		applied := remaining
		if claim.Outstanding < applied {
			applied = claim.Outstanding
		}
		if applied <= 0 {
			continue
		}
		res.Entries = append(res.Entries, Entry{
			ClaimID: claim.ID,
			Amount:  applied,
			PaysOff: applied >= claim.Outstanding,
		})
		remaining -= applied
	}

	res.Remainder = remaining
	return res
}

// LoadOpenClaims: üyenin açık alacaklarını vade sırasına göre, mevcut kısmi
// dağıtım toplamları düşülmüş halde yükler.
func LoadOpenClaims(tx *gorm.DB, memberID uint) ([]OpenClaim, error) {
	var claims []models.Claim
	if err := tx.Where("member_id = ? AND status = ?", memberID, models.ClaimStatusUnpaid).
		Order("due_date ASC, id ASC").
		Find(&claims).Error; err != nil {
		return nil, fmt.Errorf("açık alacaklar okunamadı: %w", err)
	}
	if len(claims) == 0 {
		return nil, nil
	}

	ids := make([]uint, 0, len(claims))
	for _, cl := range claims {
		ids = append(ids, cl.ID)
	}

	type claimSum struct {
		ClaimID uint
		Total   float64
	}
	var sums []claimSum
	if err := tx.Model(&models.PaymentAllocation{}).
		Select("claim_id, COALESCE(SUM(amount), 0) AS total").
		Where("claim_id IN ?", ids).
		Group("claim_id").
		Scan(&sums).Error; err != nil {
		return nil, fmt.Errorf("dağıtım toplamları okunamadı: %w", err)
	}

	allocated := make(map[uint]float64, len(sums))
	for _, s := range sums {
		allocated[s.ClaimID] = s.Total
	}

	open := make([]OpenClaim, 0, len(claims))
	for _, cl := range claims {
		open = append(open, OpenClaim{
			ID:          cl.ID,
			Amount:      cl.Amount,
			Outstanding: cl.Amount - allocated[cl.ID],
		})
	}
	return open, nil
}

// Apply: ödemeyi üyenin açık alacaklarına dağıtır ve sonucu aynı transaction
// içinde kalıcılaştırır. Tamamen kapanan alacaklar paid durumuna geçer ve
// PaidOn alanına ödeme tarihi yazılır.
func Apply(tx *gorm.DB, payment *models.Payment, createdBy uint) (Result, error) {
	open, err := LoadOpenClaims(tx, payment.MemberID)
	if err != nil {
		return Result{}, err
	}

	res := Plan(payment.Amount, open)

	for _, e := range res.Entries {
		alloc := models.PaymentAllocation{
			ClaimID:   e.ClaimID,
			PaymentID: payment.ID,
			Amount:    e.Amount,
			CreatedBy: createdBy,
		}
		if err := tx.Create(&alloc).Error; err != nil {
			return Result{}, fmt.Errorf("dağıtım kaydedilemedi: %w", err)
		}
		metrics.AllocationsCreated.Inc()

		if e.PaysOff {
			if err := tx.Model(&models.Claim{}).Where("id = ?", e.ClaimID).
				Updates(map[string]interface{}{
					"status":  models.ClaimStatusPaid,
					"paid_on": payment.PaymentDate,
				}).Error; err != nil {
				return Result{}, fmt.Errorf("alacak güncellenemedi: %w", err)
			}
		}
	}

	return res, nil
}

// ApplyRemainder: dağıtımdan artan tutarı politikaya göre işler. "credit"
// politikasında üyeye avans kaydı açılır, "ignore" politikasında yalnızca
// raporda gösterilir. Avans oluşturulduysa true döner.
func ApplyRemainder(tx *gorm.DB, policy string, payment *models.Payment, remainder float64, createdBy uint) (bool, error) {
	if remainder <= 0 || policy != config.RemainderCredit {
		return false, nil
	}

	advance := models.AdvancePayment{
		VereinID:  payment.VereinID,
		MemberID:  payment.MemberID,
		Amount:    remainder,
		Date:      payment.PaymentDate,
		PaymentID: &payment.ID,
		Note:      "Dağıtımdan artan tutar",
		CreatedBy: createdBy,
	}
	if err := tx.Create(&advance).Error; err != nil {
		return false, fmt.Errorf("avans kaydedilemedi: %w", err)
	}
	return true, nil
}
