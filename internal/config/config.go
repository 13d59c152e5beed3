package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	DatabaseURL   string
	BaseURL       string
	SMTPHost      string
	SMTPPort      string
	SMTPUser      string
	SMTPPass      string
	SMTPFrom      string
	ResendAPIKey  string
	SessionSecret string
	EncryptionKey string // hex, 32 bytes (AES-256)
	Env           string // "dev" or "prod"

	GoogleClientID     string
	GoogleClientSecret string

	CatalogPath string

	SQLite  SQLiteConfig
	Storage StorageConfig
}

type StorageConfig struct {
	Driver    string // "local" or "minio"
	LocalDir  string
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   getEnv("DATABASE_URL", "./hcportal.db"),
		BaseURL:       strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/"),
		SMTPHost:      getEnv("SMTP_HOST", "localhost"),
		SMTPPort:      getEnv("SMTP_PORT", "1025"),
		SMTPUser:      os.Getenv("SMTP_USER"),
		SMTPPass:      os.Getenv("SMTP_PASS"),
		SMTPFrom:      getEnv("SMTP_FROM", "noreply@hcportal.local"),
		ResendAPIKey:  os.Getenv("RESEND_API_KEY"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		EncryptionKey: os.Getenv("ENCRYPTION_KEY"),
		Env:           getEnv("APP_ENV", "dev"),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),

		CatalogPath: os.Getenv("CATALOG_PATH"),

		SQLite: LoadSQLite(),
		Storage: StorageConfig{
			Driver:    getEnv("STORAGE_DRIVER", "local"),
			LocalDir:  getEnv("STORAGE_DIR", "storage"),
			Endpoint:  os.Getenv("MINIO_ENDPOINT"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			Bucket:    getEnv("MINIO_BUCKET", "hcportal"),
			UseSSL:    getEnv("MINIO_USE_SSL", "false") == "true",
			PublicURL: strings.TrimRight(os.Getenv("MINIO_PUBLIC_URL"), "/"),
		},
	}

	// Validação Estrita para Produção
	if cfg.Env == "prod" {
		if cfg.SMTPPass == "" && cfg.ResendAPIKey == "" {
			return nil, fmt.Errorf("production: SMTP_PASS or RESEND_API_KEY is required")
		}
		if cfg.SMTPPass != "" && cfg.SMTPUser == "" {
			return nil, fmt.Errorf("production: SMTP_USER is required")
		}
		if cfg.SessionSecret == "" {
			return nil, fmt.Errorf("production: SESSION_SECRET is required")
		}
		if cfg.EncryptionKey == "" {
			return nil, fmt.Errorf("production: ENCRYPTION_KEY is required")
		}
	} else {
		// No dev, se não houver secret, usamos um valor fraco apenas para não quebrar o boot
		if cfg.SessionSecret == "" {
			cfg.SessionSecret = "dev-secret-keep-it-simple-but-not-safe"
		}
		if cfg.EncryptionKey == "" {
			sum := sha256.Sum256([]byte(cfg.SessionSecret))
			cfg.EncryptionKey = hex.EncodeToString(sum[:])
		}
	}

	if _, err := cfg.EncryptionKeyBytes(); err != nil {
		return nil, err
	}

	if cfg.Storage.Driver == "minio" && cfg.Storage.Endpoint == "" {
		return nil, fmt.Errorf("STORAGE_DRIVER=minio requires MINIO_ENDPOINT")
	}

	return cfg, nil
}

// EncryptionKeyBytes decodes ENCRYPTION_KEY into the 32-byte AES key.
func (c *Config) EncryptionKeyBytes() ([]byte, error) {
	key, err := hex.DecodeString(c.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("ENCRYPTION_KEY must be hex encoded: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("ENCRYPTION_KEY must be 32 bytes, got %d", len(key))
	}
	return key, nil
}

func (c *Config) IsProd() bool {
	return c.Env == "prod"
}

func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
