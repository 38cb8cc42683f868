package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Server captures runtime configuration sourced from environment variables.
type Server struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string

	// DatabaseURL selects the postgres record store; empty means in-memory.
	DatabaseURL string

	// MaxFinancialValue bounds revenue and expenses to reject garbage input.
	MaxFinancialValue decimal.Decimal

	// SignedURLTTL limits how long attachment download links stay valid.
	SignedURLTTL time.Duration

	// Supabase storage settings; empty URL means the in-memory object store.
	StorageURL    string
	StorageKey    string
	StorageBucket string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	maxValue := decimal.New(1, 15) // 1e15
	if raw := strings.TrimSpace(os.Getenv("MAX_FINANCIAL_VALUE")); raw != "" {
		if parsed, err := decimal.NewFromString(raw); err == nil && parsed.IsPositive() {
			maxValue = parsed
		}
	}

	ttl := 15 * time.Minute
	if raw := strings.TrimSpace(os.Getenv("SIGNED_URL_TTL_SECONDS")); raw != "" {
		if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
			ttl = time.Duration(seconds) * time.Second
		}
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:              fallback(os.Getenv("CLIENTBOOKS_ADDR"), ":8080"),
		JWTSigningKey:     jwtSigningKey,
		JWTIssuer:         fallback(os.Getenv("JWT_ISSUER"), "clientbooks"),
		DatabaseURL:       strings.TrimSpace(os.Getenv("DATABASE_URL")),
		MaxFinancialValue: maxValue,
		SignedURLTTL:      ttl,
		StorageURL:        strings.TrimSpace(os.Getenv("STORAGE_URL")),
		StorageKey:        strings.TrimSpace(os.Getenv("STORAGE_SERVICE_KEY")),
		StorageBucket:     fallback(os.Getenv("STORAGE_BUCKET"), "client-documents"),
	}
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}
