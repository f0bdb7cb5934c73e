package auth

import (
	"encoding/json"

	"conventions-backend/internal/config"
	"conventions-backend/internal/database"
	"conventions-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	CtxUserKey = "current_user"
	CtxSIDKey  = "session_id"
)

// SessionMiddleware resolves the session cookie to a live user and attaches
// it as the request principal. Sessions bound to a deleted or deactivated
// user are destroyed on sight, so an admin-side deactivation takes effect on
// the user's next request.
func SessionMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cookie := c.Cookies(SessionCookieName)
		if cookie == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "يجب تسجيل الدخول")
		}

		sid, err := ParseSID(cfg.SessionSecret, cookie)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "يجب تسجيل الدخول")
		}

		sess, ok := LookupSession(sid)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "انتهت صلاحية الجلسة")
		}

		var payload sessionPayload
		if err := json.Unmarshal([]byte(sess.Data), &payload); err != nil || payload.UserID == "" {
			DestroySession(sid)
			return fiber.NewError(fiber.StatusUnauthorized, "انتهت صلاحية الجلسة")
		}

		var user models.User
		if err := database.DB.First(&user, "id = ?", payload.UserID).Error; err != nil {
			DestroySession(sid)
			return fiber.NewError(fiber.StatusUnauthorized, "انتهت صلاحية الجلسة")
		}
		if !user.Active() {
			DestroySession(sid)
			return fiber.NewError(fiber.StatusUnauthorized, "انتهت صلاحية الجلسة")
		}

		c.Locals(CtxUserKey, &user)
		c.Locals(CtxSIDKey, sid)
		return c.Next()
	}
}

// RequireRole gates a route on a static allow-list. The rejection message
// does not say which roles would have been accepted.
func RequireRole(allowed ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return fiber.NewError(fiber.StatusUnauthorized, "يجب تسجيل الدخول")
		}
		for _, r := range allowed {
			if user.Role == r {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "ليست لديك صلاحية للقيام بهذه العملية")
	}
}

// CurrentUser returns the principal attached by SessionMiddleware, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(CtxUserKey).(*models.User)
	return user
}
