package financial

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dernek-backend/internal/cache"
	"dernek-backend/internal/metrics"
	"dernek-backend/internal/models"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var ErrMemberNotFound = errors.New("üye bulunamadı")

// SummaryService: üye finansal özetini hesaplar ve TTL'li önbellekte tutar.
// Alacak/ödeme/dağıtım yazan her bileşen InvalidateMember çağırmakla
// yükümlüdür; TTL yalnızca güvenlik ağıdır.
type SummaryService struct {
	db    *gorm.DB
	cache cache.Cache
	ttl   time.Duration
}

func NewSummaryService(db *gorm.DB, c cache.Cache, ttl time.Duration) *SummaryService {
	return &SummaryService{db: db, cache: c, ttl: ttl}
}

func (s *SummaryService) MemberSummary(ctx context.Context, memberID uint) (*MemberSummary, error) {
	key := cache.MemberSummaryKey(memberID)

	var cached MemberSummary
	if s.cache.Get(ctx, key, &cached) {
		metrics.SummaryCache.WithLabelValues("hit").Inc()
		return &cached, nil
	}
	metrics.SummaryCache.WithLabelValues("miss").Inc()

	var member models.Member
	if err := s.db.WithContext(ctx).First(&member, memberID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("üye okunamadı: %w", err)
	}

	data, err := s.loadSummaryData(ctx, memberID)
	if err != nil {
		return nil, err
	}

	summary := computeSummary(memberID, data, time.Now().UTC())
	s.cache.Set(ctx, key, summary, s.ttl)

	return summary, nil
}

// loadSummaryData: bağımsız sorgular paralel çalışır; ilk hata hepsini iptal eder.
func (s *SummaryService) loadSummaryData(ctx context.Context, memberID uint) (summaryData, error) {
	var data summaryData

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.db.WithContext(gctx).
			Where("member_id = ?", memberID).
			Find(&data.claims).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).
			Where("member_id = ?", memberID).
			Find(&data.payments).Error
	})
	g.Go(func() error {
		claimIDs := s.db.Model(&models.Claim{}).Select("id").Where("member_id = ?", memberID)
		return s.db.WithContext(gctx).
			Where("claim_id IN (?)", claimIDs).
			Find(&data.allocations).Error
	})
	g.Go(func() error {
		regIDs := s.db.Model(&models.EventRegistration{}).Select("id").Where("member_id = ?", memberID)
		return s.db.WithContext(gctx).
			Where("registration_id IN (?)", regIDs).
			Find(&data.eventPayments).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).
			Where("member_id = ?", memberID).
			Find(&data.advances).Error
	})

	if err := g.Wait(); err != nil {
		return summaryData{}, fmt.Errorf("finansal veriler okunamadı: %w", err)
	}
	return data, nil
}

// InvalidateMember: üyenin özet önbelleğini düşürür.
func (s *SummaryService) InvalidateMember(ctx context.Context, memberID uint) {
	s.cache.Remove(ctx, cache.MemberSummaryKey(memberID))
}
