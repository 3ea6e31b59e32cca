package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dernek-backend/internal/config"

	"github.com/redis/go-redis/v9"
)

// Cache: üye finansal özetleri gibi türetilmiş verilere TTL'li önbellek.
// Değerler JSON olarak saklanır; Get bulunamayan veya süresi dolan anahtar
// için false döner. Hatalar cache miss gibi davranır, isteği düşürmez.
type Cache interface {
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any, ttl time.Duration)
	Remove(ctx context.Context, key string)
}

// MemberSummaryKey: üye finansal özetinin önbellek anahtarı. Özeti düşüren
// her bileşen (upload, manuel eşleştirme, alacak/ödeme yazan handler'lar)
// aynı anahtarı kullanır.
func MemberSummaryKey(memberID uint) string {
	return fmt.Sprintf("mitglied_finanz_summary_%d", memberID)
}

// New: REDIS_ADDR tanımlıysa Redis'e bağlanır, bağlanamazsa veya adres boşsa
// in-memory önbelleğe düşer.
func New(cfg *config.Config) Cache {
	if cfg.RedisAddr == "" {
		slog.Info("önbellek: in-memory kullanılıyor")
		return NewMemory()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		slog.Warn("önbellek: Redis'e bağlanılamadı, in-memory kullanılacak", "addr", cfg.RedisAddr, "error", err)
		return NewMemory()
	}

	slog.Info("önbellek: Redis bağlantısı kuruldu", "addr", cfg.RedisAddr)
	return NewRedis(client)
}
