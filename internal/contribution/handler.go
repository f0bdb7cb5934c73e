package contribution

import (
	"log"
	"strconv"
	"strings"
	"time"

	"conventions-backend/internal/database"
	"conventions-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type ContributionRequest struct {
	PartnerName    *string            `json:"partnerName"`
	Year           *string            `json:"year"`
	AmountExpected *models.FlexAmount `json:"amountExpected"`
	AmountPaid     *models.FlexAmount `json:"amountPaid"`
	PaymentDate    *string            `json:"paymentDate"`
	IsPaid         *models.FlexBool   `json:"isPaid"`
	Notes          *string            `json:"notes"`
}

func parseUintParam(c *fiber.Ctx, name, message string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, message)
	}
	return uint(id), nil
}

// validPaymentDate accepts empty (not paid yet) or YYYY-MM-DD.
func validPaymentDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	if _, err := time.Parse("2006-01-02", raw); err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "صيغة تاريخ الأداء يجب أن تكون YYYY-MM-DD")
	}
	return raw, nil
}

// GET /api/conventions/:id/contributions
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

		var rows []models.FinancialContribution
		if err := database.DB.
			Where("convention_id = ?", convID).
			Order("year asc, id asc").
			Find(&rows).Error; err != nil {
			log.Println("list contributions failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "تعذر جلب المساهمات المالية")
		}
		return c.JSON(rows)
	}
}

// POST /api/conventions/:id/contributions
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

		var body ContributionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "بيانات الطلب غير صالحة")
		}

		if body.PartnerName == nil || strings.TrimSpace(*body.PartnerName) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "اسم الشريك مطلوب")
		}
		if body.Year == nil || strings.TrimSpace(*body.Year) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "سنة المساهمة مطلوبة")
		}

		line := models.FinancialContribution{
			ConventionID: convID,
			PartnerName:  strings.TrimSpace(*body.PartnerName),
			Year:         strings.TrimSpace(*body.Year),
			IsPaid:       "false",
		}
		if body.AmountExpected != nil {
			line.AmountExpected = body.AmountExpected.Ptr()
		}
		if body.AmountPaid != nil {
			line.AmountPaid = body.AmountPaid.Ptr()
		}
		if body.PaymentDate != nil {
			if line.PaymentDate, err = validPaymentDate(*body.PaymentDate); err != nil {
				return err
			}
		}
		if body.IsPaid != nil {
			line.IsPaid = body.IsPaid.Flag("false")
		}
		if body.Notes != nil {
			line.Notes = strings.TrimSpace(*body.Notes)
		}

		if err := database.DB.Create(&line).Error; err != nil {
			log.Println("create contribution failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "تعذر حفظ المساهمة المالية")
		}
		return c.Status(fiber.StatusCreated).JSON(line)
	}
}

// PUT /api/contributions/:id
func UpdateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseUintParam(c, "id", "معرف المساهمة غير صالح")
		if err != nil {
			return err
		}

		var line models.FinancialContribution
		if err := database.DB.First(&line, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "المساهمة المالية غير موجودة")
		}

		var body ContributionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "بيانات الطلب غير صالحة")
		}

		if body.PartnerName != nil {
			name := strings.TrimSpace(*body.PartnerName)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "اسم الشريك لا يمكن أن يكون فارغا")
			}
			line.PartnerName = name
		}
		if body.Year != nil {
			year := strings.TrimSpace(*body.Year)
			if year == "" {
				return fiber.NewError(fiber.StatusBadRequest, "سنة المساهمة لا يمكن أن تكون فارغة")
			}
			line.Year = year
		}
		if body.AmountExpected != nil {
			line.AmountExpected = body.AmountExpected.Ptr()
		}
		if body.AmountPaid != nil {
			line.AmountPaid = body.AmountPaid.Ptr()
		}
		if body.PaymentDate != nil {
			if line.PaymentDate, err = validPaymentDate(*body.PaymentDate); err != nil {
				return err
			}
		}
		if body.IsPaid != nil && body.IsPaid.Set {
			line.IsPaid = body.IsPaid.Flag(line.IsPaid)
		}
		if body.Notes != nil {
			line.Notes = strings.TrimSpace(*body.Notes)
		}

		if err := database.DB.Save(&line).Error; err != nil {
			log.Println("update contribution failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "تعذر تحديث المساهمة المالية")
		}
		return c.JSON(line)
	}
}

// DELETE /api/contributions/:id
func DeleteHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseUintParam(c, "id", "معرف المساهمة غير صالح")
		if err != nil {
			return err
		}

		res := database.DB.Delete(&models.FinancialContribution{}, "id = ?", id)
		if res.Error != nil {
			log.Println("delete contribution failed:", res.Error)
			return fiber.NewError(fiber.StatusInternalServerError, "تعذر حذف المساهمة المالية")
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusNotFound, "المساهمة المالية غير موجودة")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
