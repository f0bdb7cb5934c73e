package convention

import (
	"log"
	"sort"

	"conventions-backend/internal/database"
	"conventions-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// unspecifiedBucket collects rows whose group field is empty.
const unspecifiedBucket = "غير محدد"

type GroupStat struct {
	Key         string  `json:"key"`
	Count       int     `json:"count"`
	TotalAmount float64 `json:"totalAmount"`
}

// groupBy buckets all conventions by the keys the selector yields. A selector
// may return several keys for one row (provinces), in which case the row
// contributes to every bucket.
func groupBy(rows []models.Convention, selector func(*models.Convention) []string) []GroupStat {
	buckets := make(map[string]*GroupStat)
	for i := range rows {
		keys := selector(&rows[i])
		if len(keys) == 0 {
			keys = []string{""}
		}
		for _, key := range keys {
			if key == "" {
				key = unspecifiedBucket
			}
			stat, ok := buckets[key]
			if !ok {
				stat = &GroupStat{Key: key}
				buckets[key] = stat
			}
			stat.Count++
			if rows[i].Amount != nil {
				stat.TotalAmount += *rows[i].Amount
			}
		}
	}

	out := make([]GroupStat, 0, len(buckets))
	for _, stat := range buckets {
		out = append(out, *stat)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func groupHandler(selector func(*models.Convention) []string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var rows []models.Convention
		if err := database.DB.Find(&rows).Error; err != nil {
			log.Println("stats fetch failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "تعذر حساب الإحصائيات")
		}
		return c.JSON(groupBy(rows, selector))
	}
}

// GET /api/conventions/stats — overall totals plus the contribution-payment
// rollup for the dashboard.
func StatsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var rows []models.Convention
		if err := database.DB.Find(&rows).Error; err != nil {
			log.Println("stats fetch failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "تعذر حساب الإحصائيات")
		}

		var totalAmount, totalContribution float64
		for i := range rows {
			if rows[i].Amount != nil {
				totalAmount += *rows[i].Amount
			}
			if rows[i].Contribution != nil {
				totalContribution += *rows[i].Contribution
			}
		}

		var lines []models.FinancialContribution
		if err := database.DB.Find(&lines).Error; err != nil {
			log.Println("stats contributions fetch failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "تعذر حساب الإحصائيات")
		}
		var paid, pending int
		var paidAmount float64
		for i := range lines {
			if lines[i].Paid() {
				paid++
				if lines[i].AmountPaid != nil {
					paidAmount += *lines[i].AmountPaid
				}
			} else {
				pending++
			}
		}

		return c.JSON(fiber.Map{
			"totalConventions":     len(rows),
			"totalAmount":          totalAmount,
			"totalContribution":    totalContribution,
			"paidContributions":    paid,
			"pendingContributions": pending,
			"paidAmount":           paidAmount,
		})
	}
}

// GET /api/conventions/stats/by-sector
func StatsBySectorHandler() fiber.Handler {
	return groupHandler(func(conv *models.Convention) []string {
		return []string{conv.Sector}
	})
}

// GET /api/conventions/stats/by-status
func StatsByStatusHandler() fiber.Handler {
	return groupHandler(func(conv *models.Convention) []string {
		return []string{conv.Status}
	})
}

// GET /api/conventions/stats/by-domain
func StatsByDomainHandler() fiber.Handler {
	return groupHandler(func(conv *models.Convention) []string {
		return []string{conv.Domain}
	})
}

// GET /api/conventions/stats/by-province — a convention spanning several
// provinces counts once in each.
func StatsByProvinceHandler() fiber.Handler {
	return groupHandler(func(conv *models.Convention) []string {
		return conv.Province
	})
}

// GET /api/conventions/stats/by-year
func StatsByYearHandler() fiber.Handler {
	return groupHandler(func(conv *models.Convention) []string {
		return []string{conv.Year}
	})
}

// GET /api/conventions/stats/by-programme
func StatsByProgrammeHandler() fiber.Handler {
	return groupHandler(func(conv *models.Convention) []string {
		return []string{conv.Programme}
	})
}
