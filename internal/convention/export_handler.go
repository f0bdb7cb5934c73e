package convention

import (
	"bytes"
	"log"
	"strconv"
	"strings"
	"time"

	"conventions-backend/internal/database"
	"conventions-backend/internal/models"

	docx "github.com/fumiama/go-docx"
	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

const (
	excelMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	wordMIME  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Document generation is the one expensive code path in the server, so it
// runs behind a fixed pool of slots with an acquire timeout. A request that
// cannot get a slot fails fast instead of hanging.
var exportSlots = make(chan struct{}, 2)

const exportAcquireTimeout = 3 * time.Second

func acquireExportSlot() error {
	select {
	case exportSlots <- struct{}{}:
		return nil
	case <-time.After(exportAcquireTimeout):
		return fiber.NewError(fiber.StatusServiceUnavailable, "الخدمة مشغولة حاليا، حاول مجددا بعد قليل")
	}
}

func releaseExportSlot() {
	<-exportSlots
}

func formatAmount(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

// GET /api/conventions/export/excel — one workbook with every convention.
func ExportExcelHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := acquireExportSlot(); err != nil {
			return err
		}
		defer releaseExportSlot()

		rows, err := fetchSorted()
		if err != nil {
			log.Println("excel export fetch failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "تعذر إنشاء ملف التصدير")
		}

		f := excelize.NewFile()
		defer f.Close()

		const sheet = "الاتفاقيات"
		f.SetSheetName("Sheet1", sheet)

		headers := []string{
			"رقم الاتفاقية", "التاريخ", "السنة", "الدورة", "المجال", "القطاع",
			"رقم المقرر", "الحالة", "الموضوع", "المبلغ الإجمالي", "مساهمة الجهة",
			"صاحب المشروع", "صاحب المشروع المنتدب", "الإقليم", "الشركاء",
			"نوع التنفيذ", "مدة الصلاحية", "الاختصاص", "البرنامج",
		}
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(sheet, cell, h)
		}

		for r, conv := range rows {
			values := []interface{}{
				conv.ConventionNumber,
				conv.Date,
				conv.Year,
				conv.SessionLabel,
				conv.Domain,
				conv.Sector,
				conv.DecisionNumber,
				conv.Status,
				conv.Description,
				formatAmount(conv.Amount),
				formatAmount(conv.Contribution),
				conv.Contractor,
				strings.Join(conv.DelegatedProjectOwner, "، "),
				strings.Join(conv.Province, "، "),
				strings.Join(conv.Partners, "، "),
				conv.ExecutionType,
				conv.Validity,
				conv.Jurisdiction,
				conv.Programme,
			}
			for col, v := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, r+2)
				f.SetCellValue(sheet, cell, v)
			}
		}

		buf, err := f.WriteToBuffer()
		if err != nil {
			log.Println("excel export write failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "تعذر إنشاء ملف التصدير")
		}

		c.Set(fiber.HeaderContentType, excelMIME)
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="conventions.xlsx"`)
		return c.Send(buf.Bytes())
	}
}

// GET /api/conventions/:id/download — a Word sheet for one convention.
func DownloadWordHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}

		var conv models.Convention
		if err := database.DB.First(&conv, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "الاتفاقية غير موجودة")
		}

		if err := acquireExportSlot(); err != nil {
			return err
		}
		defer releaseExportSlot()

		doc := docx.New().WithDefaultTheme()

		title := doc.AddParagraph().Justification("center")
		title.AddText("بطاقة اتفاقية شراكة").Size("32").Bold()
		doc.AddParagraph()

		addField := func(label, value string) {
			p := doc.AddParagraph()
			p.AddText(label + ": ").Bold()
			p.AddText(value)
		}

		addField("رقم الاتفاقية", conv.ConventionNumber)
		addField("التاريخ", conv.Date)
		addField("السنة", conv.Year)
		addField("الدورة", conv.SessionLabel)
		addField("المجال", conv.Domain)
		addField("القطاع", conv.Sector)
		addField("رقم المقرر", conv.DecisionNumber)
		addField("الحالة", conv.Status)
		addField("الموضوع", conv.Description)
		addField("المبلغ الإجمالي", formatAmount(conv.Amount))
		addField("مساهمة الجهة", formatAmount(conv.Contribution))
		addField("صاحب المشروع", conv.Contractor)
		addField("صاحب المشروع المنتدب", strings.Join(conv.DelegatedProjectOwner, "، "))
		addField("الإقليم", strings.Join(conv.Province, "، "))
		addField("الشركاء", strings.Join(conv.Partners, "، "))
		addField("نوع التنفيذ", conv.ExecutionType)
		addField("مدة الصلاحية", conv.Validity)
		addField("الاختصاص", conv.Jurisdiction)
		addField("البرنامج", conv.Programme)

		var buf bytes.Buffer
		if _, err := doc.WriteTo(&buf); err != nil {
			log.Println("word export write failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "تعذر إنشاء الوثيقة")
		}

		// Convention numbers contain '/', keep the filename flat.
		name := strings.ReplaceAll(conv.ConventionNumber, "/", "-")
		c.Set(fiber.HeaderContentType, wordMIME)
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="convention_`+name+`.docx"`)
		return c.Send(buf.Bytes())
	}
}
