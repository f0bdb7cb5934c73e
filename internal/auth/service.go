package auth

import (
	"errors"

	"conventions-backend/internal/database"
	"conventions-backend/internal/models"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for every login failure shape — unknown
// username, deactivated account, wrong password — so a caller cannot tell
// which condition failed.
var ErrInvalidCredentials = errors.New("invalid credentials")

const MinPasswordLength = 6

// ValidateCredentials resolves a username/password pair to a user record.
func ValidateCredentials(username, password string) (*models.User, error) {
	var user models.User
	if err := database.DB.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.Active() {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
