package upload

import (
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"conventions-backend/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	maxFiles    = 5
	maxFileSize = 10 << 20 // 10MB per file
)

// allowedTypes is the fixed MIME allow-list for attachments.
var allowedTypes = map[string]struct{}{
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"application/vnd.ms-excel": {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": {},
	"image/png":  {},
	"image/jpeg": {},
	"image/gif":  {},
	"image/webp": {},
}

// uploadError renders a failure with a stable machine-readable code so the
// client can tell the rejection modes apart.
func uploadError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message, "code": code})
}

// sanitizeName flattens a client-supplied filename to a single safe path
// element.
func sanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "")
	name = strings.TrimSpace(name)
	if name == "" || name == "." {
		name = "file"
	}
	return name
}

// POST /api/upload — multipart, field "files".
func UploadHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil {
			return uploadError(c, fiber.StatusBadRequest, "INVALID_FORM", "بيانات الرفع غير صالحة")
		}

		files := form.File["files"]
		if len(files) == 0 {
			return uploadError(c, fiber.StatusBadRequest, "NO_FILES", "لم يتم إرفاق أي ملف")
		}
		if len(files) > maxFiles {
			return uploadError(c, fiber.StatusBadRequest, "TOO_MANY_FILES", "يمكن رفع 5 ملفات كحد أقصى")
		}

		// Validate everything before storing anything.
		for _, fh := range files {
			if fh.Size > maxFileSize {
				return uploadError(c, fiber.StatusBadRequest, "FILE_TOO_LARGE", "حجم الملف يتجاوز الحد الأقصى 10 ميغابايت")
			}
			contentType := fh.Header.Get("Content-Type")
			if i := strings.Index(contentType, ";"); i >= 0 {
				contentType = contentType[:i]
			}
			contentType = strings.TrimSpace(strings.ToLower(contentType))
			if _, ok := allowedTypes[contentType]; !ok {
				return uploadError(c, fiber.StatusBadRequest, "FILE_TYPE_NOT_ALLOWED", "نوع الملف غير مسموح به")
			}
		}

		if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
			log.Println("upload dir create failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "تعذر حفظ الملفات")
		}

		stored := make([]fiber.Map, 0, len(files))
		for _, fh := range files {
			name := uuid.NewString() + "_" + sanitizeName(fh.Filename)
			dst := filepath.Join(cfg.UploadDir, name)
			if err := c.SaveFile(fh, dst); err != nil {
				log.Println("upload save failed:", err)
				return fiber.NewError(fiber.StatusInternalServerError, "تعذر حفظ الملفات")
			}
			stored = append(stored, fiber.Map{
				"filename":     name,
				"originalName": fh.Filename,
				"size":         fh.Size,
			})
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"files": stored})
	}
}

// DELETE /api/upload/:filename — the name must resolve inside the managed
// uploads directory; a traversal attempt is refused without revealing
// anything about paths outside it.
func DeleteHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Params("filename")
		if unescaped, err := url.PathUnescape(raw); err == nil {
			raw = unescaped
		}

		name := filepath.Base(filepath.Clean(raw))
		if name == "" || name == "." || name == ".." || name == string(filepath.Separator) {
			return c.JSON(fiber.Map{"deleted": false})
		}

		base, err := filepath.Abs(cfg.UploadDir)
		if err != nil {
			log.Println("upload dir resolve failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "تعذر حذف الملف")
		}
		target := filepath.Join(base, name)
		if !strings.HasPrefix(target, base+string(filepath.Separator)) {
			return c.JSON(fiber.Map{"deleted": false})
		}

		if _, err := os.Stat(target); err != nil {
			if os.IsNotExist(err) {
				return fiber.NewError(fiber.StatusNotFound, "الملف غير موجود")
			}
			log.Println("upload stat failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "تعذر حذف الملف")
		}

		if err := os.Remove(target); err != nil {
			log.Println("upload remove failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "تعذر حذف الملف")
		}

		return c.JSON(fiber.Map{"deleted": true})
	}
}
