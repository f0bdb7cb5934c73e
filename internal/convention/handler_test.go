package convention_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"conventions-backend/internal/auth"
	"conventions-backend/internal/config"
	"conventions-backend/internal/contribution"
	"conventions-backend/internal/convention"
	"conventions-backend/internal/database"
	"conventions-backend/internal/event"
	"conventions-backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.Convention{},
		&models.FinancialContribution{},
		&models.AdministrativeEvent{},
	))
	database.DB = db
}

func createUser(t *testing.T, username string, role models.UserRole) *models.User {
	t.Helper()
	hash, err := auth.HashPassword("secret123")
	require.NoError(t, err)
	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		IsActive:     "true",
	}
	require.NoError(t, database.DB.Create(user).Error)
	return user
}

func errorHandler(c *fiber.Ctx, err error) error {
	if e, ok := err.(*fiber.Error); ok {
		return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "unexpected"})
}

func registerConventionRoutes(grp fiber.Router, editorOnly fiber.Handler) {
	grp.Get("/", convention.ListHandler())
	grp.Get("/stats", convention.StatsHandler())
	grp.Get("/stats/by-sector", convention.StatsBySectorHandler())
	grp.Get("/stats/by-status", convention.StatsByStatusHandler())
	grp.Get("/stats/by-domain", convention.StatsByDomainHandler())
	grp.Get("/stats/by-province", convention.StatsByProvinceHandler())
	grp.Get("/stats/by-year", convention.StatsByYearHandler())
	grp.Get("/stats/by-programme", convention.StatsByProgrammeHandler())
	grp.Get("/search/:query", convention.SearchHandler())
	grp.Get("/export/excel", convention.ExportExcelHandler())
	grp.Post("/", editorOnly, convention.CreateHandler())
	grp.Get("/:id", convention.GetHandler())
	grp.Put("/:id", editorOnly, convention.UpdateHandler())
	grp.Delete("/:id", editorOnly, convention.DeleteHandler())
	grp.Get("/:id/download", convention.DownloadWordHandler())
	grp.Get("/:id/contributions", contribution.ListHandler())
	grp.Post("/:id/contributions", editorOnly, contribution.CreateHandler())
	grp.Get("/:id/events", event.ListHandler())
	grp.Post("/:id/events", editorOnly, event.CreateHandler())
}

// newApp injects principal directly, standing in for SessionMiddleware.
func newApp(principal *models.User) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: errorHandler})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(auth.CtxUserKey, principal)
		return c.Next()
	})
	editorOnly := auth.RequireRole(models.RoleAdmin, models.RoleEditor)
	registerConventionRoutes(app.Group("/api/conventions"), editorOnly)
	return app
}

func jsonRequest(t *testing.T, app *fiber.App, method, path string, payload interface{}) *http.Response {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func validPayload(number string) map[string]interface{} {
	return map[string]interface{}{
		"conventionNumber": number,
		"date":             "2025-01-01",
		"year":             "2025",
		"session":          "دورة أكتوبر",
		"domain":           "التنمية القروية",
		"sector":           "الفلاحة",
		"decisionNumber":   "14",
		"status":           "مفعلة",
		"contractor":       "مجلس الجهة",
	}
}

func decodeConvention(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestCreateConvention(t *testing.T) {
	setupTestDB(t)
	editor := createUser(t, "editor1", models.RoleEditor)
	app := newApp(editor)

	payload := validPayload("15/2025")
	payload["amount"] = "1500000.567"
	payload["province"] = []string{"الرشيدية", "ميدلت"}
	payload["partners"] = "وزارة الفلاحة"
	payload["jurisdiction"] = models.JurisdictionShared

	resp := jsonRequest(t, app, http.MethodPost, "/api/conventions", payload)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	out := decodeConvention(t, resp)
	assert.NotZero(t, out["id"])
	assert.Equal(t, "15/2025", out["conventionNumber"])
	assert.Equal(t, editor.ID, out["createdBy"])
	assert.Equal(t, 1500000.57, out["amount"])
	assert.Equal(t, []interface{}{"الرشيدية", "ميدلت"}, out["province"])
	// A bare string is accepted where a list is meant.
	assert.Equal(t, []interface{}{"وزارة الفلاحة"}, out["partners"])
}

func TestCreateConventionRequiredFields(t *testing.T) {
	setupTestDB(t)
	editor := createUser(t, "editor1", models.RoleEditor)
	app := newApp(editor)

	for _, field := range []string{
		"conventionNumber", "date", "year", "session", "domain",
		"sector", "decisionNumber", "status", "contractor",
	} {
		payload := validPayload("1/2025")
		delete(payload, field)
		resp := jsonRequest(t, app, http.MethodPost, "/api/conventions", payload)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "missing %s", field)
	}
}

func TestCreateConventionRejectsUnknownJurisdiction(t *testing.T) {
	setupTestDB(t)
	editor := createUser(t, "editor1", models.RoleEditor)
	app := newApp(editor)

	payload := validPayload("1/2025")
	payload["jurisdiction"] = "غير معروف"
	resp := jsonRequest(t, app, http.MethodPost, "/api/conventions", payload)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDuplicateConventionNumberConflicts(t *testing.T) {
	setupTestDB(t)
	editor := createUser(t, "editor1", models.RoleEditor)
	app := newApp(editor)

	resp := jsonRequest(t, app, http.MethodPost, "/api/conventions", validPayload("99/2025"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	first := decodeConvention(t, resp)

	payload := validPayload("99/2025")
	payload["contractor"] = "جهة أخرى"
	resp = jsonRequest(t, app, http.MethodPost, "/api/conventions", payload)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// The first record is unmodified.
	var kept models.Convention
	require.NoError(t, database.DB.First(&kept, "convention_number = ?", "99/2025").Error)
	assert.Equal(t, first["contractor"], kept.Contractor)

	var count int64
	database.DB.Model(&models.Convention{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestGetConvention(t *testing.T) {
	setupTestDB(t)
	editor := createUser(t, "editor1", models.RoleEditor)
	app := newApp(editor)

	resp := jsonRequest(t, app, http.MethodPost, "/api/conventions", validPayload("1/2025"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Malformed id fails before touching the store.
	resp = jsonRequest(t, app, http.MethodGet, "/api/conventions/abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = jsonRequest(t, app, http.MethodGet, "/api/conventions/9999", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = jsonRequest(t, app, http.MethodGet, "/api/conventions/1", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListOrderedByDerivedKey(t *testing.T) {
	setupTestDB(t)
	editor := createUser(t, "editor1", models.RoleEditor)
	app := newApp(editor)

	for _, number := range []string{"2/2024", "10/2024", "1/2025", "بدون رقم"} {
		resp := jsonRequest(t, app, http.MethodPost, "/api/conventions", validPayload(number))
		require.Equal(t, http.StatusCreated, resp.StatusCode, number)
	}

	resp := jsonRequest(t, app, http.MethodGet, "/api/conventions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out, 4)

	got := make([]string, 0, len(out))
	for _, row := range out {
		got = append(got, row["conventionNumber"].(string))
	}
	// Year descending, then sequence descending, unparseable last.
	assert.Equal(t, []string{"1/2025", "10/2024", "2/2024", "بدون رقم"}, got)
}

func TestMultiValuedRoundTripAndLegacyDecode(t *testing.T) {
	setupTestDB(t)
	editor := createUser(t, "editor1", models.RoleEditor)
	app := newApp(editor)

	payload := validPayload("3/2025")
	payload["province"] = []string{"A", "B"}
	payload["partners"] = []string{"X"}
	resp := jsonRequest(t, app, http.MethodPost, "/api/conventions", payload)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeConvention(t, resp)
	id := int(created["id"].(float64))

	resp = jsonRequest(t, app, http.MethodGet, "/api/conventions/"+strconv.Itoa(id), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decodeConvention(t, resp)
	assert.Equal(t, []interface{}{"A", "B"}, out["province"])
	assert.Equal(t, []interface{}{"X"}, out["partners"])

	// A legacy comma-encoded column still reads back as a list.
	require.NoError(t, database.DB.Exec(
		"UPDATE conventions SET province = ? WHERE id = ?", "A, B", id).Error)
	resp = jsonRequest(t, app, http.MethodGet, "/api/conventions/"+strconv.Itoa(id), nil)
	out = decodeConvention(t, resp)
	assert.Equal(t, []interface{}{"A", "B"}, out["province"])

	// And a legacy JSON-encoded string variant too.
	require.NoError(t, database.DB.Exec(
		"UPDATE conventions SET province = ? WHERE id = ?", `"[\"A\",\"B\"]"`, id).Error)
	resp = jsonRequest(t, app, http.MethodGet, "/api/conventions/"+strconv.Itoa(id), nil)
	out = decodeConvention(t, resp)
	assert.Equal(t, []interface{}{"A", "B"}, out["province"])
}

func TestUpdateConvention(t *testing.T) {
	setupTestDB(t)
	editor := createUser(t, "editor1", models.RoleEditor)
	app := newApp(editor)

	resp := jsonRequest(t, app, http.MethodPost, "/api/conventions", validPayload("5/2025"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = jsonRequest(t, app, http.MethodPost, "/api/conventions", validPayload("6/2025"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Partial update keeps untouched fields.
	resp = jsonRequest(t, app, http.MethodPut, "/api/conventions/1", map[string]interface{}{
		"status": "منتهية",
		"amount": 42,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decodeConvention(t, resp)
	assert.Equal(t, "منتهية", out["status"])
	assert.Equal(t, 42.0, out["amount"])
	assert.Equal(t, "مجلس الجهة", out["contractor"])

	// Emptying a mandatory field is rejected.
	resp = jsonRequest(t, app, http.MethodPut, "/api/conventions/1", map[string]interface{}{
		"contractor": "  ",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Renumbering onto an existing number conflicts.
	resp = jsonRequest(t, app, http.MethodPut, "/api/conventions/1", map[string]interface{}{
		"conventionNumber": "6/2025",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = jsonRequest(t, app, http.MethodPut, "/api/conventions/9999", map[string]interface{}{
		"status": "x",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteConventionCascades(t *testing.T) {
	setupTestDB(t)
	editor := createUser(t, "editor1", models.RoleEditor)
	app := newApp(editor)

	resp := jsonRequest(t, app, http.MethodPost, "/api/conventions", validPayload("7/2025"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := int(decodeConvention(t, resp)["id"].(float64))

	for i := 0; i < 2; i++ {
		resp = jsonRequest(t, app, http.MethodPost, "/api/conventions/"+strconv.Itoa(id)+"/contributions", map[string]interface{}{
			"partnerName": "شريك", "year": "2025",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}
	resp = jsonRequest(t, app, http.MethodPost, "/api/conventions/"+strconv.Itoa(id)+"/events", map[string]interface{}{
		"eventDate": "2025-02-01", "eventDescription": "توقيع الاتفاقية",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = jsonRequest(t, app, http.MethodDelete, "/api/conventions/"+strconv.Itoa(id), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var contributions, events int64
	database.DB.Model(&models.FinancialContribution{}).Where("convention_id = ?", id).Count(&contributions)
	database.DB.Model(&models.AdministrativeEvent{}).Where("convention_id = ?", id).Count(&events)
	assert.Zero(t, contributions)
	assert.Zero(t, events)

	// Deleting a missing row reports not found, it does not raise.
	resp = jsonRequest(t, app, http.MethodDelete, "/api/conventions/"+strconv.Itoa(id), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSearchConventions(t *testing.T) {
	setupTestDB(t)
	editor := createUser(t, "editor1", models.RoleEditor)
	app := newApp(editor)

	p1 := validPayload("20/2025")
	p1["contractor"] = "Provincial Council"
	p1["description"] = "بناء مركز صحي"
	p1["amount"] = 123456.78
	require.Equal(t, http.StatusCreated,
		jsonRequest(t, app, http.MethodPost, "/api/conventions", p1).StatusCode)

	p2 := validPayload("21/2025")
	p2["description"] = "تأهيل الطرق"
	require.Equal(t, http.StatusCreated,
		jsonRequest(t, app, http.MethodPost, "/api/conventions", p2).StatusCode)

	search := func(q string) []map[string]interface{} {
		resp := jsonRequest(t, app, http.MethodGet, "/api/conventions/search/"+q, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var out []map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		return out
	}

	// Number, contractor (case-insensitive), stringified amount, and a
	// description substring ("صحي") all match; the query arrives URL-escaped.
	assert.Len(t, search("20%2F2025"), 1)
	assert.Len(t, search("provincial"), 1)
	assert.Len(t, search("123456.78"), 1)
	assert.Len(t, search("%D8%B5%D8%AD%D9%8A"), 1)
	assert.Len(t, search("2025"), 2)
	assert.Empty(t, search("nothing-matches"))
}

func TestViewerIsReadOnly(t *testing.T) {
	setupTestDB(t)
	editor := createUser(t, "editor1", models.RoleEditor)
	editorApp := newApp(editor)
	require.Equal(t, http.StatusCreated,
		jsonRequest(t, editorApp, http.MethodPost, "/api/conventions", validPayload("8/2025")).StatusCode)

	viewer := createUser(t, "viewer1", models.RoleViewer)
	app := newApp(viewer)

	assert.Equal(t, http.StatusOK,
		jsonRequest(t, app, http.MethodGet, "/api/conventions", nil).StatusCode)
	assert.Equal(t, http.StatusOK,
		jsonRequest(t, app, http.MethodGet, "/api/conventions/1", nil).StatusCode)
	assert.Equal(t, http.StatusOK,
		jsonRequest(t, app, http.MethodGet, "/api/conventions/stats", nil).StatusCode)

	assert.Equal(t, http.StatusForbidden,
		jsonRequest(t, app, http.MethodPost, "/api/conventions", validPayload("9/2025")).StatusCode)
	assert.Equal(t, http.StatusForbidden,
		jsonRequest(t, app, http.MethodPut, "/api/conventions/1", map[string]interface{}{"status": "x"}).StatusCode)
	assert.Equal(t, http.StatusForbidden,
		jsonRequest(t, app, http.MethodDelete, "/api/conventions/1", nil).StatusCode)
	assert.Equal(t, http.StatusForbidden,
		jsonRequest(t, app, http.MethodPost, "/api/conventions/1/contributions", map[string]interface{}{
			"partnerName": "x", "year": "2025",
		}).StatusCode)
}

// The end-to-end shape: a real login, a create, then the duplicate conflict.
func TestEditorLoginCreateScenario(t *testing.T) {
	setupTestDB(t)
	createUser(t, "editor1", models.RoleEditor)

	cfg := &config.Config{SessionSecret: strings.Repeat("s", 32), Env: "development"}
	app := fiber.New(fiber.Config{ErrorHandler: errorHandler})
	api := app.Group("/api")
	api.Post("/auth/login", auth.LoginHandler(cfg))
	protected := api.Group("", auth.SessionMiddleware(cfg))
	editorOnly := auth.RequireRole(models.RoleAdmin, models.RoleEditor)
	registerConventionRoutes(protected.Group("/conventions"), editorOnly)

	body, _ := json.Marshal(map[string]string{"username": "editor1", "password": "secret123"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cookie string
	for _, raw := range resp.Header.Values("Set-Cookie") {
		if strings.HasPrefix(raw, auth.SessionCookieName+"=") {
			cookie = strings.SplitN(strings.TrimPrefix(raw, auth.SessionCookieName+"="), ";", 2)[0]
		}
	}
	require.NotEmpty(t, cookie)

	create := func() *http.Response {
		payload, _ := json.Marshal(map[string]interface{}{
			"conventionNumber": "99/2025",
			"date":             "2025-01-01",
			"description":      "x",
			"status":           "draft",
			"year":             "2025",
			"session":          "s",
			"domain":           "d",
			"sector":           "sec",
			"decisionNumber":   "1",
			"contractor":       "c",
		})
		req := httptest.NewRequest(http.MethodPost, "/api/conventions", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: cookie})
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}

	resp = create()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	out := decodeConvention(t, resp)
	assert.NotZero(t, out["id"])

	resp = create()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
