package convention

import (
	"log"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"conventions-backend/internal/auth"
	"conventions-backend/internal/database"
	"conventions-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type ConventionRequest struct {
	ConventionNumber      *string            `json:"conventionNumber"`
	Date                  *string            `json:"date"`
	Year                  *string            `json:"year"`
	Session               *string            `json:"session"`
	Domain                *string            `json:"domain"`
	Sector                *string            `json:"sector"`
	DecisionNumber        *string            `json:"decisionNumber"`
	Status                *string            `json:"status"`
	Description           *string            `json:"description"`
	Amount                *models.FlexAmount `json:"amount"`
	Contribution          *models.FlexAmount `json:"contribution"`
	Contractor            *string            `json:"contractor"`
	DelegatedProjectOwner *models.StringList `json:"delegatedProjectOwner"`
	Province              *models.StringList `json:"province"`
	Partners              *models.StringList `json:"partners"`
	Attachments           *models.StringList `json:"attachments"`
	ExecutionType         *string            `json:"executionType"`
	Validity              *string            `json:"validity"`
	Jurisdiction          *string            `json:"jurisdiction"`
	Programme             *string            `json:"programme"`
}

// parseID rejects non-numeric convention ids before any store access.
func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "معرف الاتفاقية غير صالح")
	}
	return uint(id), nil
}

// requiredText validates one mandatory text field from the request body.
func requiredText(val *string, message string) (string, error) {
	if val == nil {
		return "", fiber.NewError(fiber.StatusBadRequest, message)
	}
	v := strings.TrimSpace(*val)
	if v == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, message)
	}
	return v, nil
}

// POST /api/conventions
func CreateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ConventionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "بيانات الطلب غير صالحة")
		}

		conv := models.Convention{}
		var err error
		if conv.ConventionNumber, err = requiredText(body.ConventionNumber, "رقم الاتفاقية مطلوب"); err != nil {
			return err
		}
		if conv.Date, err = requiredText(body.Date, "تاريخ الاتفاقية مطلوب"); err != nil {
			return err
		}
		if conv.Year, err = requiredText(body.Year, "سنة الاتفاقية مطلوبة"); err != nil {
			return err
		}
		if conv.SessionLabel, err = requiredText(body.Session, "الدورة مطلوبة"); err != nil {
			return err
		}
		if conv.Domain, err = requiredText(body.Domain, "المجال مطلوب"); err != nil {
			return err
		}
		if conv.Sector, err = requiredText(body.Sector, "القطاع مطلوب"); err != nil {
			return err
		}
		if conv.DecisionNumber, err = requiredText(body.DecisionNumber, "رقم المقرر مطلوب"); err != nil {
			return err
		}
		if conv.Status, err = requiredText(body.Status, "حالة الاتفاقية مطلوبة"); err != nil {
			return err
		}
		if conv.Contractor, err = requiredText(body.Contractor, "صاحب المشروع مطلوب"); err != nil {
			return err
		}

		if err := applyOptional(&conv, &body); err != nil {
			return err
		}

		principal := auth.CurrentUser(c)
		if principal != nil {
			conv.CreatedBy = principal.ID
		}

		if err := database.DB.Create(&conv).Error; err != nil {
			if database.IsDuplicate(err) {
				return fiber.NewError(fiber.StatusConflict, "رقم الاتفاقية مستخدم من قبل")
			}
			log.Println("create convention failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "تعذر حفظ الاتفاقية")
		}

		return c.Status(fiber.StatusCreated).JSON(conv)
	}
}

// applyOptional copies the non-mandatory fields, normalizing money values and
// validating the jurisdiction closed set.
func applyOptional(conv *models.Convention, body *ConventionRequest) error {
	if body.Description != nil {
		conv.Description = strings.TrimSpace(*body.Description)
	}
	if body.Amount != nil {
		conv.Amount = body.Amount.Ptr()
	}
	if body.Contribution != nil {
		conv.Contribution = body.Contribution.Ptr()
	}
	if body.DelegatedProjectOwner != nil {
		conv.DelegatedProjectOwner = *body.DelegatedProjectOwner
	}
	if body.Province != nil {
		conv.Province = *body.Province
	}
	if body.Partners != nil {
		conv.Partners = *body.Partners
	}
	if body.Attachments != nil {
		conv.Attachments = *body.Attachments
	}
	if body.ExecutionType != nil {
		conv.ExecutionType = strings.TrimSpace(*body.ExecutionType)
	}
	if body.Validity != nil {
		conv.Validity = strings.TrimSpace(*body.Validity)
	}
	if body.Jurisdiction != nil {
		j := strings.TrimSpace(*body.Jurisdiction)
		if !models.ValidJurisdiction(j) {
			return fiber.NewError(fiber.StatusBadRequest, "قيمة الاختصاص غير صالحة")
		}
		conv.Jurisdiction = j
	}
	if body.Programme != nil {
		conv.Programme = strings.TrimSpace(*body.Programme)
	}
	return nil
}

// PUT /api/conventions/:id
func UpdateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}

		var conv models.Convention
		if err := database.DB.First(&conv, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "الاتفاقية غير موجودة")
		}

		var body ConventionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "بيانات الطلب غير صالحة")
		}

		// Mandatory fields may be changed but not blanked.
		if body.ConventionNumber != nil {
			if conv.ConventionNumber, err = requiredText(body.ConventionNumber, "رقم الاتفاقية لا يمكن أن يكون فارغا"); err != nil {
				return err
			}
		}
		if body.Date != nil {
			if conv.Date, err = requiredText(body.Date, "تاريخ الاتفاقية لا يمكن أن يكون فارغا"); err != nil {
				return err
			}
		}
		if body.Year != nil {
			if conv.Year, err = requiredText(body.Year, "سنة الاتفاقية لا يمكن أن تكون فارغة"); err != nil {
				return err
			}
		}
		if body.Session != nil {
			if conv.SessionLabel, err = requiredText(body.Session, "الدورة لا يمكن أن تكون فارغة"); err != nil {
				return err
			}
		}
		if body.Domain != nil {
			if conv.Domain, err = requiredText(body.Domain, "المجال لا يمكن أن يكون فارغا"); err != nil {
				return err
			}
		}
		if body.Sector != nil {
			if conv.Sector, err = requiredText(body.Sector, "القطاع لا يمكن أن يكون فارغا"); err != nil {
				return err
			}
		}
		if body.DecisionNumber != nil {
			if conv.DecisionNumber, err = requiredText(body.DecisionNumber, "رقم المقرر لا يمكن أن يكون فارغا"); err != nil {
				return err
			}
		}
		if body.Status != nil {
			if conv.Status, err = requiredText(body.Status, "حالة الاتفاقية لا يمكن أن تكون فارغة"); err != nil {
				return err
			}
		}
		if body.Contractor != nil {
			if conv.Contractor, err = requiredText(body.Contractor, "صاحب المشروع لا يمكن أن يكون فارغا"); err != nil {
				return err
			}
		}

		if err := applyOptional(&conv, &body); err != nil {
			return err
		}

		if err := database.DB.Save(&conv).Error; err != nil {
			if database.IsDuplicate(err) {
				return fiber.NewError(fiber.StatusConflict, "رقم الاتفاقية مستخدم من قبل")
			}
			log.Println("update convention failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "تعذر تحديث الاتفاقية")
		}

		return c.JSON(conv)
	}
}

// DELETE /api/conventions/:id — removes the convention and everything it owns.
func DeleteHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}

		tx := database.DB.Begin()
		if tx.Error != nil {
			log.Println("delete convention tx failed:", tx.Error)
			return fiber.NewError(fiber.StatusInternalServerError, "تعذر حذف الاتفاقية")
		}

		if err := tx.Where("convention_id = ?", id).Delete(&models.FinancialContribution{}).Error; err != nil {
			tx.Rollback()
			log.Println("delete contributions failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "تعذر حذف الاتفاقية")
		}
		if err := tx.Where("convention_id = ?", id).Delete(&models.AdministrativeEvent{}).Error; err != nil {
			tx.Rollback()
			log.Println("delete events failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "تعذر حذف الاتفاقية")
		}

		res := tx.Delete(&models.Convention{}, "id = ?", id)
		if res.Error != nil {
			tx.Rollback()
			log.Println("delete convention failed:", res.Error)
			return fiber.NewError(fiber.StatusInternalServerError, "تعذر حذف الاتفاقية")
		}
		if res.RowsAffected == 0 {
			tx.Rollback()
			return fiber.NewError(fiber.StatusNotFound, "الاتفاقية غير موجودة")
		}

		if err := tx.Commit().Error; err != nil {
			log.Println("delete convention commit failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "تعذر حذف الاتفاقية")
		}

		return c.JSON(fiber.Map{"deleted": true})
	}
}

// GET /api/conventions/:id
func GetHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}

		var conv models.Convention
		if err := database.DB.First(&conv, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "الاتفاقية غير موجودة")
		}
		return c.JSON(conv)
	}
}

// sortKey extracts the numeric year and sequence from "<seq>/<year>" style
// convention numbers.
func sortKey(number string) (year, seq int, ok bool) {
	parts := strings.Split(number, "/")
	if len(parts) != 2 {
		return 0, 0, false
	}
	seq, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	year, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return year, seq, true
}

// fetchSorted returns all conventions, newest first: year descending, then
// sequence descending. Numbers that do not parse as <seq>/<year> sink to the
// bottom in their stored order.
func fetchSorted() ([]models.Convention, error) {
	var rows []models.Convention
	if err := database.DB.Find(&rows).Error; err != nil {
		return nil, err
	}

	sort.SliceStable(rows, func(i, j int) bool {
		yi, si, oki := sortKey(rows[i].ConventionNumber)
		yj, sj, okj := sortKey(rows[j].ConventionNumber)
		if oki != okj {
			return oki
		}
		if !oki {
			return false
		}
		if yi != yj {
			return yi > yj
		}
		return si > sj
	})
	return rows, nil
}

// GET /api/conventions
func ListHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rows, err := fetchSorted()
		if err != nil {
			log.Println("list conventions failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "تعذر جلب الاتفاقيات")
		}
		return c.JSON(rows)
	}
}

// GET /api/conventions/search/:query — substring match over the number, the
// description, the contractor and the stringified amount. The dataset is
// small, filtering the full fetch in memory is fine here.
func SearchHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := c.Params("query")
		if unescaped, err := url.PathUnescape(query); err == nil {
			query = unescaped
		}
		query = strings.ToLower(strings.TrimSpace(query))
		if query == "" {
			return fiber.NewError(fiber.StatusBadRequest, "عبارة البحث مطلوبة")
		}

		rows, err := fetchSorted()
		if err != nil {
			log.Println("search conventions failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "تعذر تنفيذ البحث")
		}

		matches := make([]models.Convention, 0)
		for _, conv := range rows {
			if matchConvention(&conv, query) {
				matches = append(matches, conv)
			}
		}
		return c.JSON(matches)
	}
}

func matchConvention(conv *models.Convention, query string) bool {
	if strings.Contains(strings.ToLower(conv.ConventionNumber), query) {
		return true
	}
	if strings.Contains(strings.ToLower(conv.Description), query) {
		return true
	}
	if strings.Contains(strings.ToLower(conv.Contractor), query) {
		return true
	}
	if conv.Amount != nil && strings.Contains(strconv.FormatFloat(*conv.Amount, 'f', -1, 64), query) {
		return true
	}
	return false
}
