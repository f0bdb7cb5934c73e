package auth

import (
	"log"
	"strings"
	"time"

	"conventions-backend/internal/config"
	"conventions-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// PublicUser shapes a user record for API responses. The password hash never
// leaves the server on any path.
func PublicUser(u *models.User) fiber.Map {
	return fiber.Map{
		"id":        u.ID,
		"username":  u.Username,
		"role":      u.Role,
		"isActive":  u.IsActive,
		"firstName": u.FirstName,
		"lastName":  u.LastName,
		"email":     u.Email,
		"createdAt": u.CreatedAt,
	}
}

// POST /api/auth/login
func LoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "بيانات الطلب غير صالحة")
		}

		body.Username = strings.TrimSpace(body.Username)
		if body.Username == "" || body.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "اسم المستخدم وكلمة المرور مطلوبان")
		}

		user, err := ValidateCredentials(body.Username, body.Password)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "اسم المستخدم أو كلمة المرور غير صحيحة")
		}

		sid, err := CreateSession(user)
		if err != nil {
			log.Println("session create failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "تعذر إنشاء الجلسة")
		}

		token, err := SignSID(cfg.SessionSecret, sid)
		if err != nil {
			DestroySession(sid)
			log.Println("session sign failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "تعذر إنشاء الجلسة")
		}

		c.Cookie(&fiber.Cookie{
			Name:     SessionCookieName,
			Value:    token,
			Expires:  time.Now().Add(SessionTTL),
			HTTPOnly: true,
			Secure:   cfg.Env == "production",
			SameSite: "Lax",
			Path:     "/",
		})

		return c.JSON(fiber.Map{"user": PublicUser(user)})
	}
}

// POST /api/auth/logout — always 200, logging out twice is not an error.
func LogoutHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cookie := c.Cookies(SessionCookieName); cookie != "" {
			if sid, err := ParseSID(cfg.SessionSecret, cookie); err == nil {
				DestroySession(sid)
			}
		}

		c.Cookie(&fiber.Cookie{
			Name:     SessionCookieName,
			Value:    "",
			Expires:  time.Now().Add(-time.Hour),
			HTTPOnly: true,
			SameSite: "Lax",
			Path:     "/",
		})

		return c.JSON(fiber.Map{"message": "تم تسجيل الخروج"})
	}
}

// GET /api/auth/user — behind SessionMiddleware.
func CurrentUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return fiber.NewError(fiber.StatusUnauthorized, "يجب تسجيل الدخول")
		}
		return c.JSON(fiber.Map{"user": PublicUser(user)})
	}
}
