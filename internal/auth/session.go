package auth

import (
	"encoding/json"
	"time"

	"conventions-backend/internal/database"
	"conventions-backend/internal/models"

	"github.com/google/uuid"
)

// SessionTTL is absolute, measured from creation. There is no sliding renewal.
const SessionTTL = 24 * time.Hour

// sessionPayload is the denormalized snapshot stored with each session row.
type sessionPayload struct {
	UserID    string          `json:"userId"`
	Username  string          `json:"username"`
	Role      models.UserRole `json:"role"`
	FirstName string          `json:"firstName"`
	LastName  string          `json:"lastName"`
	Email     *string         `json:"email"`
}

// CreateSession persists a new session row for user and returns its opaque id.
func CreateSession(user *models.User) (string, error) {
	data, err := json.Marshal(sessionPayload{
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
	})
	if err != nil {
		return "", err
	}

	sess := models.Session{
		SID:    uuid.NewString(),
		Data:   string(data),
		Expire: time.Now().Add(SessionTTL),
	}
	if err := database.DB.Create(&sess).Error; err != nil {
		return "", err
	}
	return sess.SID, nil
}

// DestroySession is idempotent: destroying an already-gone session is fine.
func DestroySession(sid string) {
	database.DB.Delete(&models.Session{}, "sid = ?", sid)
}

// LookupSession returns the session bound to sid. Expired rows count as
// absent and are pruned on sight, so a second identical request fails the
// same way.
func LookupSession(sid string) (*models.Session, bool) {
	var sess models.Session
	if err := database.DB.First(&sess, "sid = ?", sid).Error; err != nil {
		return nil, false
	}
	if !sess.Expire.After(time.Now()) {
		DestroySession(sid)
		return nil, false
	}
	return &sess, true
}
