package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort          string
	DBDriver          string // postgres | sqlite
	DatabaseDSN       string
	SessionSecret     string
	CORSOrigins       string
	Env               string // development | production
	UploadDir         string
	SeedAdminPassword string
}

func Load() *Config {
	// .env is optional, real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		DBDriver:          getEnv("DB_DRIVER", "postgres"),
		DatabaseDSN:       getEnv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=conventions port=5432 sslmode=disable"),
		SessionSecret:     getEnv("SESSION_SECRET", ""),
		CORSOrigins:       getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		Env:               getEnv("APP_ENV", "development"),
		UploadDir:         getEnv("UPLOAD_DIR", "./uploads"),
		SeedAdminPassword: getEnv("SEED_ADMIN_PASSWORD", ""),
	}

	if cfg.SessionSecret == "" {
		log.Fatal("[FATAL] SESSION_SECRET is not set, refusing to start")
	}
	if len(cfg.SessionSecret) < 32 {
		log.Fatal("[FATAL] SESSION_SECRET must be at least 32 characters")
	}
	if cfg.Env == "production" && cfg.CORSOrigins == "http://localhost:5173" {
		log.Println("[WARN] CORS_ALLOWED_ORIGINS still has its development default")
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
