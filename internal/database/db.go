package database

import (
	"errors"
	"log"
	"strings"

	"conventions-backend/internal/config"
	"conventions-backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres", "postgresql":
		dialector = postgres.Open(cfg.DatabaseDSN)
	case "sqlite":
		// For sqlite the DSN is the database file path.
		dialector = sqlite.Open(cfg.DatabaseDSN)
	default:
		log.Fatalf("[FATAL] unsupported DB_DRIVER: %s", cfg.DBDriver)
	}

	var err error
	DB, err = gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("[FATAL] database connection failed: %v", err)
	}

	if err := DB.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.Convention{},
		&models.FinancialContribution{},
		&models.AdministrativeEvent{},
	); err != nil {
		log.Fatalf("[FATAL] AutoMigrate failed: %v", err)
	}

	seedAdmin(cfg)
	log.Println("database ready, migrations applied")
}

// seedAdmin creates the initial admin account when the users table is empty,
// so a fresh install can be logged into at all.
func seedAdmin(cfg *config.Config) {
	var count int64
	DB.Model(&models.User{}).Count(&count)
	if count > 0 {
		return
	}

	password := cfg.SeedAdminPassword
	if password == "" {
		password = "admin123"
		log.Println("[WARN] SEED_ADMIN_PASSWORD not set, seeding default admin credentials — change them immediately")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("[FATAL] seed admin password hashing failed: %v", err)
	}

	admin := models.User{
		ID:           uuid.NewString(),
		Username:     "admin",
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		IsActive:     "true",
		FirstName:    "مدير",
		LastName:     "النظام",
	}
	if err := DB.Create(&admin).Error; err != nil {
		log.Fatalf("[FATAL] seeding admin user failed: %v", err)
	}
	log.Println("seeded initial admin user")
}

// IsDuplicate reports whether err is a uniqueness-constraint violation. GORM
// translates these for the postgres driver; the string checks cover drivers
// that do not.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
