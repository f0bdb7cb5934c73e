package main

import (
	"log"
	"strings"
	"time"

	"conventions-backend/internal/admin"
	"conventions-backend/internal/auth"
	"conventions-backend/internal/config"
	"conventions-backend/internal/contribution"
	"conventions-backend/internal/convention"
	"conventions-backend/internal/database"
	"conventions-backend/internal/event"
	"conventions-backend/internal/models"
	"conventions-backend/internal/upload"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	app := fiber.New(fiber.Config{
		// Five 10MB attachments plus multipart overhead.
		BodyLimit: 60 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "خطأ غير متوقع في الخادم",
			})
		},
	})

	if cfg.Env == "development" {
		app.Use(logger.New())
	}

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(corsOrigins, ","),
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowCredentials: true,
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/login", auth.LoginHandler(cfg))
	api.Post("/auth/logout", auth.LogoutHandler(cfg))

	// Everything else requires a live session
	protected := api.Group("", auth.SessionMiddleware(cfg))
	protected.Get("/auth/user", auth.CurrentUserHandler())

	adminOnly := auth.RequireRole(models.RoleAdmin)
	editorOnly := auth.RequireRole(models.RoleAdmin, models.RoleEditor)

	// User management
	users := protected.Group("/users", adminOnly)
	users.Get("/", admin.ListUsersHandler())
	users.Post("/", admin.CreateUserHandler())
	users.Put("/:id", admin.UpdateUserHandler())
	users.Delete("/:id", admin.DeleteUserHandler())

	// Per-client cap on the expensive routes (uploads, document generation)
	heavyLimiter := limiter.New(limiter.Config{
		Max:        30,
		Expiration: time.Minute,
	})

	// Conventions
	conventions := protected.Group("/conventions")
	conventions.Get("/", convention.ListHandler())
	conventions.Get("/stats", convention.StatsHandler())
	conventions.Get("/stats/by-sector", convention.StatsBySectorHandler())
	conventions.Get("/stats/by-status", convention.StatsByStatusHandler())
	conventions.Get("/stats/by-domain", convention.StatsByDomainHandler())
	conventions.Get("/stats/by-province", convention.StatsByProvinceHandler())
	conventions.Get("/stats/by-year", convention.StatsByYearHandler())
	conventions.Get("/stats/by-programme", convention.StatsByProgrammeHandler())
	conventions.Get("/search/:query", convention.SearchHandler())
	conventions.Get("/export/excel", heavyLimiter, convention.ExportExcelHandler())
	conventions.Post("/", editorOnly, convention.CreateHandler())
	conventions.Get("/:id", convention.GetHandler())
	conventions.Put("/:id", editorOnly, convention.UpdateHandler())
	conventions.Delete("/:id", editorOnly, convention.DeleteHandler())
	conventions.Get("/:id/download", heavyLimiter, convention.DownloadWordHandler())

	// Financial contributions
	conventions.Get("/:id/contributions", contribution.ListHandler())
	conventions.Post("/:id/contributions", editorOnly, contribution.CreateHandler())
	protected.Put("/contributions/:id", editorOnly, contribution.UpdateHandler())
	protected.Delete("/contributions/:id", editorOnly, contribution.DeleteHandler())

	// Administrative events
	conventions.Get("/:id/events", event.ListHandler())
	conventions.Post("/:id/events", editorOnly, event.CreateHandler())
	protected.Put("/events/:id", editorOnly, event.UpdateHandler())
	protected.Delete("/events/:id", editorOnly, event.DeleteHandler())

	// File attachments
	protected.Post("/upload", heavyLimiter, upload.UploadHandler(cfg))
	protected.Delete("/upload/:filename", editorOnly, upload.DeleteHandler(cfg))

	app.Static("/uploads", cfg.UploadDir)
	if cfg.Env == "production" {
		app.Static("/", "./public")
	}

	log.Println("server listening on port", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
