package admin

import (
	"log"
	"strings"

	"conventions-backend/internal/auth"
	"conventions-backend/internal/database"
	"conventions-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CreateUserRequest struct {
	Username  string           `json:"username"`
	Password  string           `json:"password"`
	Role      models.UserRole  `json:"role"`
	IsActive  *models.FlexBool `json:"isActive"`
	FirstName string           `json:"firstName"`
	LastName  string           `json:"lastName"`
	Email     *string          `json:"email"`
}

type UpdateUserRequest struct {
	Username  *string          `json:"username"`
	Password  *string          `json:"password"`
	Role      *models.UserRole `json:"role"`
	IsActive  *models.FlexBool `json:"isActive"`
	FirstName *string          `json:"firstName"`
	LastName  *string          `json:"lastName"`
	Email     *string          `json:"email"`
}

// normalizeEmail trims and lowers an email, mapping empty to nil so the
// unique index only applies to real addresses.
func normalizeEmail(email *string) *string {
	if email == nil {
		return nil
	}
	e := strings.TrimSpace(strings.ToLower(*email))
	if e == "" {
		return nil
	}
	return &e
}

// GET /api/users
func ListUsersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var users []models.User
		if err := database.DB.Order("created_at asc").Find(&users).Error; err != nil {
			log.Println("list users failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "تعذر جلب المستخدمين")
		}

		resp := make([]fiber.Map, 0, len(users))
		for i := range users {
			resp = append(resp, auth.PublicUser(&users[i]))
		}
		return c.JSON(resp)
	}
}

// POST /api/users
func CreateUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "بيانات الطلب غير صالحة")
		}

		body.Username = strings.TrimSpace(body.Username)
		if body.Username == "" {
			return fiber.NewError(fiber.StatusBadRequest, "اسم المستخدم مطلوب")
		}
		if len(body.Password) < auth.MinPasswordLength {
			return fiber.NewError(fiber.StatusBadRequest, "كلمة المرور يجب أن تتكون من 6 أحرف على الأقل")
		}
		if !body.Role.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "الدور غير صالح")
		}

		hash, err := auth.HashPassword(body.Password)
		if err != nil {
			log.Println("password hashing failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "تعذر إنشاء المستخدم")
		}

		isActive := "true"
		if body.IsActive != nil {
			isActive = body.IsActive.Flag("true")
		}

		user := models.User{
			ID:           uuid.NewString(),
			Username:     body.Username,
			PasswordHash: hash,
			Role:         body.Role,
			IsActive:     isActive,
			FirstName:    strings.TrimSpace(body.FirstName),
			LastName:     strings.TrimSpace(body.LastName),
			Email:        normalizeEmail(body.Email),
		}

		if err := database.DB.Create(&user).Error; err != nil {
			if database.IsDuplicate(err) {
				return fiber.NewError(fiber.StatusConflict, "اسم المستخدم أو البريد الإلكتروني مستخدم من قبل")
			}
			log.Println("create user failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "تعذر إنشاء المستخدم")
		}

		return c.Status(fiber.StatusCreated).JSON(auth.PublicUser(&user))
	}
}

// PUT /api/users/:id
func UpdateUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var user models.User
		if err := database.DB.First(&user, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "المستخدم غير موجود")
		}

		var body UpdateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "بيانات الطلب غير صالحة")
		}

		if body.Username != nil {
			username := strings.TrimSpace(*body.Username)
			if username == "" {
				return fiber.NewError(fiber.StatusBadRequest, "اسم المستخدم لا يمكن أن يكون فارغا")
			}
			user.Username = username
		}
		if body.Password != nil && *body.Password != "" {
			if len(*body.Password) < auth.MinPasswordLength {
				return fiber.NewError(fiber.StatusBadRequest, "كلمة المرور يجب أن تتكون من 6 أحرف على الأقل")
			}
			hash, err := auth.HashPassword(*body.Password)
			if err != nil {
				log.Println("password hashing failed:", err)
				return fiber.NewError(fiber.StatusInternalServerError, "تعذر تحديث المستخدم")
			}
			user.PasswordHash = hash
		}
		if body.Role != nil {
			if !body.Role.Valid() {
				return fiber.NewError(fiber.StatusBadRequest, "الدور غير صالح")
			}
			user.Role = *body.Role
		}
		if body.IsActive != nil && body.IsActive.Set {
			user.IsActive = body.IsActive.Flag(user.IsActive)
		}
		if body.FirstName != nil {
			user.FirstName = strings.TrimSpace(*body.FirstName)
		}
		if body.LastName != nil {
			user.LastName = strings.TrimSpace(*body.LastName)
		}
		if body.Email != nil {
			user.Email = normalizeEmail(body.Email)
		}

		if err := database.DB.Save(&user).Error; err != nil {
			if database.IsDuplicate(err) {
				return fiber.NewError(fiber.StatusConflict, "اسم المستخدم أو البريد الإلكتروني مستخدم من قبل")
			}
			log.Println("update user failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "تعذر تحديث المستخدم")
		}

		return c.JSON(auth.PublicUser(&user))
	}
}

// DELETE /api/users/:id
func DeleteUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		// An admin can deactivate or demote themselves, but never delete the
		// account bound to their own session.
		principal := auth.CurrentUser(c)
		if principal != nil && principal.ID == id {
			return fiber.NewError(fiber.StatusConflict, "لا يمكنك حذف حسابك الخاص")
		}

		res := database.DB.Delete(&models.User{}, "id = ?", id)
		if res.Error != nil {
			log.Println("delete user failed:", res.Error)
			return fiber.NewError(fiber.StatusInternalServerError, "تعذر حذف المستخدم")
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusNotFound, "المستخدم غير موجود")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
