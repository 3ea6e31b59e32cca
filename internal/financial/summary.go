package financial

import (
	"sort"
	"time"

	"dernek-backend/internal/models"
)

type ClaimSummary struct {
	ID              uint       `json:"id"`
	Amount          float64    `json:"amount"`
	DueDate         time.Time  `json:"due_date"`
	Status          string     `json:"status"`
	PaidOn          *time.Time `json:"paid_on,omitempty"`
	Description     string     `json:"description"`
	PaidAmount      float64    `json:"paid_amount"`
	RemainingAmount float64    `json:"remaining_amount"`
}

type MonthlyTrendPoint struct {
	Year   int     `json:"year"`
	Month  int     `json:"month"`
	Amount float64 `json:"amount"`
	Count  int     `json:"count"`
}

// MemberSummary: üyenin finansal durumu. CurrentBalance açık alacakların
// kısmi dağıtımlar düşülmüş toplamıdır; MonthlyTrend son 12 ayı boş aylar
// dahil sıfır dolgulu döner.
type MemberSummary struct {
	MemberID             uint                `json:"member_id"`
	CurrentBalance       float64             `json:"current_balance"`
	TotalPaid            float64             `json:"total_paid"`
	TotalOverdue         float64             `json:"total_overdue"`
	OverdueCount         int                 `json:"overdue_count"`
	CreditBalance        float64             `json:"credit_balance"`
	NextPayment          *ClaimSummary       `json:"next_payment,omitempty"`
	DaysUntilNextPayment int                 `json:"days_until_next_payment"`
	MonthlyTrend         []MonthlyTrendPoint `json:"monthly_trend"`
	UnpaidClaims         []ClaimSummary      `json:"unpaid_claims"`
	PaidClaims           []ClaimSummary      `json:"paid_claims"`
}

// summaryData: özet hesabı için tek seferde yüklenen ham kayıtlar.
type summaryData struct {
	claims        []models.Claim
	payments      []models.Payment
	allocations   []models.PaymentAllocation
	eventPayments []models.EventPayment
	advances      []models.AdvancePayment
}

// computeSummary: tüm türetilmiş alanları bellekte hesaplar; veritabanına
// dokunmaz. today gün başlangıcına yuvarlanarak vade karşılaştırmasında
// kullanılır.
func computeSummary(memberID uint, data summaryData, today time.Time) *MemberSummary {
	todayStart := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	allocByClaim := make(map[uint]float64)
	for _, a := range data.allocations {
		allocByClaim[a.ClaimID] += a.Amount
	}

	sorted := make([]models.Claim, len(data.claims))
	copy(sorted, data.claims)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].DueDate.Equal(sorted[j].DueDate) {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].DueDate.Before(sorted[j].DueDate)
	})

	sum := &MemberSummary{
		MemberID:     memberID,
		UnpaidClaims: make([]ClaimSummary, 0),
		PaidClaims:   make([]ClaimSummary, 0),
	}

	for _, cl := range sorted {
		paid := allocByClaim[cl.ID]
		remaining := cl.Amount - paid
		if remaining < 0 {
			remaining = 0
		}

		cs := ClaimSummary{
			ID:              cl.ID,
			Amount:          cl.Amount,
			DueDate:         cl.DueDate,
			Status:          string(cl.Status),
			PaidOn:          cl.PaidOn,
			Description:     cl.Description,
			PaidAmount:      paid,
			RemainingAmount: remaining,
		}

		if cl.Status == models.ClaimStatusPaid {
			sum.PaidClaims = append(sum.PaidClaims, cs)
			sum.TotalPaid += cl.Amount
			continue
		}

		sum.UnpaidClaims = append(sum.UnpaidClaims, cs)
		sum.CurrentBalance += remaining
		// Açık alacaklardaki kısmi dağıtımlar da ödenen toplama sayılır
		sum.TotalPaid += paid

		if cl.DueDate.Before(todayStart) {
			sum.TotalOverdue += remaining
			sum.OverdueCount++
		}

		if sum.NextPayment == nil {
			next := cs
			sum.NextPayment = &next
			sum.DaysUntilNextPayment = int(cl.DueDate.Sub(todayStart).Hours() / 24)
		}
	}

	for _, ep := range data.eventPayments {
		sum.TotalPaid += ep.Amount
	}

	for _, adv := range data.advances {
		sum.CreditBalance += adv.Amount
	}

	sum.MonthlyTrend = buildMonthlyTrend(data.payments, data.eventPayments, todayStart)

	return sum
}

// buildMonthlyTrend: içinde bulunulan ayla biten 12 aylık pencere. Üye
// ödemeleri ve etkinlik ödemeleri birlikte sayılır; ödeme olmayan aylar
// sıfır tutarla doldurulur.
func buildMonthlyTrend(payments []models.Payment, eventPayments []models.EventPayment, today time.Time) []MonthlyTrendPoint {
	start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -11, 0)

	type key struct{ year, month int }
	sums := make(map[key]*MonthlyTrendPoint, 12)

	points := make([]MonthlyTrendPoint, 12)
	for i := 0; i < 12; i++ {
		m := start.AddDate(0, i, 0)
		points[i] = MonthlyTrendPoint{Year: m.Year(), Month: int(m.Month())}
		sums[key{m.Year(), int(m.Month())}] = &points[i]
	}

	add := func(date time.Time, amount float64) {
		if p, ok := sums[key{date.Year(), int(date.Month())}]; ok {
			p.Amount += amount
			p.Count++
		}
	}

	for _, p := range payments {
		add(p.PaymentDate, p.Amount)
	}
	for _, ep := range eventPayments {
		add(ep.PaymentDate, ep.Amount)
	}

	return points
}
