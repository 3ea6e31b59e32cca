package financial

import (
	"context"
	"testing"
	"time"

	"dernek-backend/internal/cache"
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

func TestMemberSummaryCaching(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	verein := models.Verein{Name: "DITIB Köln", Aktiv: true}
	require.NoError(t, db.Create(&verein).Error)
	member := models.Member{VereinID: verein.ID, FirstName: "Ahmet", LastName: "Yılmaz", Aktiv: true}
	require.NoError(t, db.Create(&member).Error)

	claim := models.Claim{
		VereinID: verein.ID,
		MemberID: member.ID,
		Amount:   30,
		DueDate:  time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:   models.ClaimStatusUnpaid,
	}
	require.NoError(t, db.Create(&claim).Error)

	svc := NewSummaryService(db, cache.NewMemory(), 5*time.Minute)

	first, err := svc.MemberSummary(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, 30.0, first.CurrentBalance)

	// Önbellek tazeyken veritabanı değişikliği görünmez
	claim2 := models.Claim{
		VereinID: verein.ID,
		MemberID: member.ID,
		Amount:   20,
		DueDate:  time.Date(2030, 2, 1, 0, 0, 0, 0, time.UTC),
		Status:   models.ClaimStatusUnpaid,
	}
	require.NoError(t, db.Create(&claim2).Error)

	second, err := svc.MemberSummary(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, 30.0, second.CurrentBalance)

	// Invalidation sonrası yeniden hesaplanır
	svc.InvalidateMember(ctx, member.ID)

	third, err := svc.MemberSummary(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, third.CurrentBalance)
}

func TestMemberSummaryNotFound(t *testing.T) {
	db := newTestDB(t)

	svc := NewSummaryService(db, cache.NewMemory(), time.Minute)
	_, err := svc.MemberSummary(context.Background(), 999)
	assert.ErrorIs(t, err, ErrMemberNotFound)
}
