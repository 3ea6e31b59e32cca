package config

import (
	"log"
	"os"
	"time"
)

type Config struct {
	HTTPPort        string
	DatabaseDSN     string
	JWTSecret       string
	CORSOrigins     string
	RedisAddr       string        // boş bırakılırsa in-memory önbellek kullanılır
	RedisPassword   string
	SummaryCacheTTL time.Duration // üye finansal özet önbellek süresi
	RemainderPolicy string        // "ignore" | "credit" — dağıtım sonrası artan tutar
}

const (
	RemainderIgnore = "ignore"
	RemainderCredit = "credit"
)

func Load() *Config {
	cfg := &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:     getEnv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=dernek port=5432 sslmode=disable"),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		CORSOrigins:     getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RemainderPolicy: getEnv("REMAINDER_POLICY", RemainderIgnore),
	}

	ttlStr := getEnv("SUMMARY_CACHE_TTL", "5m")
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil || ttl <= 0 {
		log.Fatalf("[FATAL] SUMMARY_CACHE_TTL geçersiz: %q", ttlStr)
	}
	cfg.SummaryCacheTTL = ttl

	// Production güvenlik kontrolleri
	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET environment değişkeni tanımlanmamış! Production için zorunludur.")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET en az 32 karakter olmalıdır! Güvenlik riski.")
	}
	if cfg.RemainderPolicy != RemainderIgnore && cfg.RemainderPolicy != RemainderCredit {
		log.Fatalf("[FATAL] REMAINDER_POLICY geçersiz: %q (ignore veya credit olmalı)", cfg.RemainderPolicy)
	}
	if cfg.DatabaseDSN == "host=localhost user=postgres password=postgres dbname=dernek port=5432 sslmode=disable" {
		log.Println("[WARN] DATABASE_DSN varsayılan değer kullanılıyor, production için mutlaka kendi Postgres bağlantı bilgisini tanımla.")
	}
	if cfg.CORSOrigins == "http://localhost:5173" {
		log.Println("[WARN] CORS_ALLOWED_ORIGINS varsayılan değer kullanılıyor, production için mutlaka kendi domain'ini tanımla.")
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
