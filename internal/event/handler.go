package event

import (
	"log"
	"strconv"
	"strings"
	"time"

	"conventions-backend/internal/database"
	"conventions-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type EventRequest struct {
	EventDate        *string `json:"eventDate"`
	EventDescription *string `json:"eventDescription"`
	Notes            *string `json:"notes"`
}

func parseUintParam(c *fiber.Ctx, name, message string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, message)
	}
	return uint(id), nil
}

func validEventDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "تاريخ الإجراء مطلوب")
	}
	if _, err := time.Parse("2006-01-02", raw); err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "صيغة تاريخ الإجراء يجب أن تكون YYYY-MM-DD")
	}
	return raw, nil
}

// GET /api/conventions/:id/events
func ListHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		convID, err := parseUintParam(c, "id", "معرف الاتفاقية غير صالح")
		if err != nil {
			return err
		}

		var conv models.Convention
		if err := database.DB.First(&conv, "id = ?", convID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "الاتفاقية غير موجودة")
		}

		var rows []models.AdministrativeEvent
		if err := database.DB.
			Where("convention_id = ?", convID).
			Order("event_date asc, id asc").
			Find(&rows).Error; err != nil {
			log.Println("list events failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "تعذر جلب الإجراءات الإدارية")
		}
		return c.JSON(rows)
	}
}

// POST /api/conventions/:id/events
func CreateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		convID, err := parseUintParam(c, "id", "معرف الاتفاقية غير صالح")
		if err != nil {
			return err
		}

		var conv models.Convention
		if err := database.DB.First(&conv, "id = ?", convID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "الاتفاقية غير موجودة")
		}

		var body EventRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "بيانات الطلب غير صالحة")
		}

		if body.EventDate == nil {
			return fiber.NewError(fiber.StatusBadRequest, "تاريخ الإجراء مطلوب")
		}
		eventDate, err := validEventDate(*body.EventDate)
		if err != nil {
			return err
		}
		if body.EventDescription == nil || strings.TrimSpace(*body.EventDescription) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "وصف الإجراء مطلوب")
		}

		row := models.AdministrativeEvent{
			ConventionID:     convID,
			EventDate:        eventDate,
			EventDescription: strings.TrimSpace(*body.EventDescription),
		}
		if body.Notes != nil {
			row.Notes = strings.TrimSpace(*body.Notes)
		}

		if err := database.DB.Create(&row).Error; err != nil {
			log.Println("create event failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "تعذر حفظ الإجراء الإداري")
		}
		return c.Status(fiber.StatusCreated).JSON(row)
	}
}

// PUT /api/events/:id
func UpdateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseUintParam(c, "id", "معرف الإجراء غير صالح")
		if err != nil {
			return err
		}

		var row models.AdministrativeEvent
		if err := database.DB.First(&row, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "الإجراء الإداري غير موجود")
		}

		var body EventRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "بيانات الطلب غير صالحة")
		}

		if body.EventDate != nil {
			if row.EventDate, err = validEventDate(*body.EventDate); err != nil {
				return err
			}
		}
		if body.EventDescription != nil {
			desc := strings.TrimSpace(*body.EventDescription)
			if desc == "" {
				return fiber.NewError(fiber.StatusBadRequest, "وصف الإجراء لا يمكن أن يكون فارغا")
			}
			row.EventDescription = desc
		}
		if body.Notes != nil {
			row.Notes = strings.TrimSpace(*body.Notes)
		}

		if err := database.DB.Save(&row).Error; err != nil {
			log.Println("update event failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "تعذر تحديث الإجراء الإداري")
		}
		return c.JSON(row)
	}
}

// DELETE /api/events/:id
func DeleteHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseUintParam(c, "id", "معرف الإجراء غير صالح")
		if err != nil {
			return err
		}

		res := database.DB.Delete(&models.AdministrativeEvent{}, "id = ?", id)
		if res.Error != nil {
			log.Println("delete event failed:", res.Error)
			return fiber.NewError(fiber.StatusInternalServerError, "تعذر حذف الإجراء الإداري")
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusNotFound, "الإجراء الإداري غير موجود")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
