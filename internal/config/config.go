package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends selectable with STORE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type Config struct {
	HTTPAddr       string
	StoreBackend   string
	JWTSecret      string
	JWTIssuer      string
	TokenTTL       time.Duration
	AdminPassword  string
	BcryptCost     int
	RedisKeyPrefix string
}

// ConfigFromEnv reads service config from environment variables
func ConfigFromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = "0.0.0.0:8431"
	}
	backend := strings.ToLower(strings.TrimSpace(os.Getenv("STORE_BACKEND")))
	switch backend {
	case BackendPostgres, BackendRedis:
	default:
		backend = BackendMemory
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		// dev only
		secret = "change-me"
	}
	ttl := 24 * time.Hour
	if v, err := time.ParseDuration(os.Getenv("TOKEN_TTL")); err == nil && v > 0 {
		ttl = v
	}
	adminPw := os.Getenv("ADMIN_PASSWORD")
	if adminPw == "" {
		adminPw = "admin123"
	}
	cost := 12
	if v, err := strconv.Atoi(os.Getenv("BCRYPT_COST")); err == nil && v >= 4 && v <= 31 {
		cost = v
	}
	prefix := os.Getenv("REDIS_KEY_PREFIX")
	if prefix == "" {
		prefix = "ctf:"
	}
	issuer := os.Getenv("JWT_ISSUER")
	if issuer == "" {
		issuer = "service-ctf-core"
	}
	return Config{
		HTTPAddr:       addr,
		StoreBackend:   backend,
		JWTSecret:      secret,
		JWTIssuer:      issuer,
		TokenTTL:       ttl,
		AdminPassword:  adminPw,
		BcryptCost:     cost,
		RedisKeyPrefix: prefix,
	}
}
