package financial

import (
	"testing"
	"time"

	"dernek-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeSummaryBalances(t *testing.T) {
	today := date(2025, 4, 20)
	paidOn := date(2025, 3, 5)

	data := summaryData{
		claims: []models.Claim{
			{ID: 1, MemberID: 7, Amount: 30, DueDate: date(2025, 2, 1), Status: models.ClaimStatusPaid, PaidOn: &paidOn},
			{ID: 2, MemberID: 7, Amount: 30, DueDate: date(2025, 3, 1), Status: models.ClaimStatusUnpaid}, // vadesi geçmiş, 10 kısmi
			{ID: 3, MemberID: 7, Amount: 30, DueDate: date(2025, 5, 1), Status: models.ClaimStatusUnpaid}, // vadesi gelmemiş
		},
		allocations: []models.PaymentAllocation{
			{ID: 1, ClaimID: 1, PaymentID: 1, Amount: 30},
			{ID: 2, ClaimID: 2, PaymentID: 2, Amount: 10},
		},
		payments: []models.Payment{
			{ID: 1, MemberID: 7, Amount: 30, PaymentDate: paidOn},
			{ID: 2, MemberID: 7, Amount: 10, PaymentDate: date(2025, 4, 2)},
		},
		eventPayments: []models.EventPayment{
			{ID: 1, RegistrationID: 1, Amount: 15, PaymentDate: date(2025, 4, 10)},
		},
		advances: []models.AdvancePayment{
			{ID: 1, MemberID: 7, Amount: 5, Date: date(2025, 4, 2)},
		},
	}

	sum := computeSummary(7, data, today)

	// Açık bakiye: (30-10) + 30
	assert.Equal(t, 50.0, sum.CurrentBalance)
	// Ödenen: kapanan 30 + açıktaki kısmi 10 + etkinlik 15
	assert.Equal(t, 55.0, sum.TotalPaid)
	// Vadesi geçen: yalnızca 2 numaralı alacağın kalanı
	assert.Equal(t, 20.0, sum.TotalOverdue)
	assert.Equal(t, 1, sum.OverdueCount)
	assert.Equal(t, 5.0, sum.CreditBalance)

	require.NotNil(t, sum.NextPayment)
	assert.Equal(t, uint(2), sum.NextPayment.ID)
	assert.Equal(t, 20.0, sum.NextPayment.RemainingAmount)
	// 2025-03-01, bugünden 50 gün önce
	assert.Equal(t, -50, sum.DaysUntilNextPayment)

	require.Len(t, sum.UnpaidClaims, 2)
	require.Len(t, sum.PaidClaims, 1)
	assert.Equal(t, 10.0, sum.UnpaidClaims[0].PaidAmount)
	assert.Equal(t, 30.0, sum.PaidClaims[0].PaidAmount)
	assert.Equal(t, 0.0, sum.PaidClaims[0].RemainingAmount)
}

func TestComputeSummaryEmptyMember(t *testing.T) {
	sum := computeSummary(3, summaryData{}, date(2025, 4, 20))

	assert.Equal(t, 0.0, sum.CurrentBalance)
	assert.Equal(t, 0.0, sum.TotalPaid)
	assert.Equal(t, 0, sum.OverdueCount)
	assert.Nil(t, sum.NextPayment)
	assert.Empty(t, sum.UnpaidClaims)
	assert.Empty(t, sum.PaidClaims)
	// Boş üyede bile 12 aylık sıfır dolgulu trend döner
	require.Len(t, sum.MonthlyTrend, 12)
	for _, p := range sum.MonthlyTrend {
		assert.Equal(t, 0.0, p.Amount)
		assert.Equal(t, 0, p.Count)
	}
}

func TestBuildMonthlyTrendWindow(t *testing.T) {
	today := date(2025, 4, 20)

	payments := []models.Payment{
		{Amount: 10, PaymentDate: date(2025, 4, 1)},  // pencere içinde
		{Amount: 20, PaymentDate: date(2024, 5, 15)}, // pencerenin ilk ayı
		{Amount: 99, PaymentDate: date(2024, 4, 30)}, // pencere dışı
	}
	eventPayments := []models.EventPayment{
		{Amount: 5, PaymentDate: date(2025, 4, 10)},
	}

	trend := buildMonthlyTrend(payments, eventPayments, today)
	require.Len(t, trend, 12)

	assert.Equal(t, 2024, trend[0].Year)
	assert.Equal(t, 5, trend[0].Month)
	assert.Equal(t, 20.0, trend[0].Amount)
	assert.Equal(t, 1, trend[0].Count)

	last := trend[11]
	assert.Equal(t, 2025, last.Year)
	assert.Equal(t, 4, last.Month)
	assert.Equal(t, 15.0, last.Amount)
	assert.Equal(t, 2, last.Count)

	// Ara aylar sıfır dolgulu
	assert.Equal(t, 0.0, trend[5].Amount)
}

func TestComputeSummaryNextPaymentFuture(t *testing.T) {
	today := date(2025, 4, 20)
	data := summaryData{
		claims: []models.Claim{
			{ID: 1, MemberID: 7, Amount: 30, DueDate: date(2025, 4, 25), Status: models.ClaimStatusUnpaid},
		},
	}

	sum := computeSummary(7, data, today)
	require.NotNil(t, sum.NextPayment)
	assert.Equal(t, 5, sum.DaysUntilNextPayment)
	assert.Equal(t, 0, sum.OverdueCount)
}
