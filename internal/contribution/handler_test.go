package contribution_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"conventions-backend/internal/contribution"
	"conventions-backend/internal/database"
	"conventions-backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Convention{},
		&models.FinancialContribution{},
	))
	database.DB = db
}

func createConvention(t *testing.T, number string) *models.Convention {
	t.Helper()
	conv := &models.Convention{
		ConventionNumber: number, Date: "2025-01-01", Year: "2025",
		SessionLabel: "s", Domain: "d", Sector: "sec",
		DecisionNumber: "1", Status: "مفعلة", Contractor: "c",
	}
	require.NoError(t, database.DB.Create(conv).Error)
	return conv
}

func newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "unexpected"})
		},
	})
	app.Get("/api/conventions/:id/contributions", contribution.ListHandler())
	app.Post("/api/conventions/:id/contributions", contribution.CreateHandler())
	app.Put("/api/contributions/:id", contribution.UpdateHandler())
	app.Delete("/api/contributions/:id", contribution.DeleteHandler())
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

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestCreateContribution(t *testing.T) {
	setupTestDB(t)
	conv := createConvention(t, "1/2025")
	app := newApp()
	base := "/api/conventions/" + strconv.Itoa(int(conv.ID)) + "/contributions"

	t.Run("minimal line defaults to unpaid", func(t *testing.T) {
		resp := jsonRequest(t, app, http.MethodPost, base, map[string]interface{}{
			"partnerName": "وزارة الفلاحة", "year": "2025",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		out := decode(t, resp)
		assert.NotZero(t, out["id"])
		assert.Equal(t, "false", out["isPaid"])
		assert.Nil(t, out["amountExpected"])
	})

	t.Run("amounts accepted as numeric strings", func(t *testing.T) {
		resp := jsonRequest(t, app, http.MethodPost, base, map[string]interface{}{
			"partnerName": "شريك", "year": "2025",
			"amountExpected": "1000.567", "amountPaid": 400,
			"isPaid": true, "paymentDate": "2025-03-15",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		out := decode(t, resp)
		assert.Equal(t, 1000.57, out["amountExpected"])
		assert.Equal(t, 400.0, out["amountPaid"])
		assert.Equal(t, "true", out["isPaid"])
	})

	t.Run("missing partner name", func(t *testing.T) {
		resp := jsonRequest(t, app, http.MethodPost, base, map[string]interface{}{"year": "2025"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("missing year", func(t *testing.T) {
		resp := jsonRequest(t, app, http.MethodPost, base, map[string]interface{}{"partnerName": "x"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("malformed payment date", func(t *testing.T) {
		resp := jsonRequest(t, app, http.MethodPost, base, map[string]interface{}{
			"partnerName": "x", "year": "2025", "paymentDate": "15/03/2025",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown parent", func(t *testing.T) {
		resp := jsonRequest(t, app, http.MethodPost, "/api/conventions/9999/contributions", map[string]interface{}{
			"partnerName": "x", "year": "2025",
		})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestListContributionsScopedToParent(t *testing.T) {
	setupTestDB(t)
	first := createConvention(t, "1/2025")
	second := createConvention(t, "2/2025")
	app := newApp()

	for _, year := range []string{"2026", "2025"} {
		require.NoError(t, database.DB.Create(&models.FinancialContribution{
			ConventionID: first.ID, PartnerName: "شريك", Year: year, IsPaid: "false",
		}).Error)
	}
	require.NoError(t, database.DB.Create(&models.FinancialContribution{
		ConventionID: second.ID, PartnerName: "آخر", Year: "2025", IsPaid: "false",
	}).Error)

	resp := jsonRequest(t, app, http.MethodGet,
		"/api/conventions/"+strconv.Itoa(int(first.ID))+"/contributions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out, 2)
	// Ordered by year ascending.
	assert.Equal(t, "2025", out[0]["year"])
	assert.Equal(t, "2026", out[1]["year"])

	resp = jsonRequest(t, app, http.MethodGet, "/api/conventions/9999/contributions", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateContribution(t *testing.T) {
	setupTestDB(t)
	conv := createConvention(t, "1/2025")
	app := newApp()

	line := models.FinancialContribution{
		ConventionID: conv.ID, PartnerName: "شريك", Year: "2025", IsPaid: "false",
	}
	require.NoError(t, database.DB.Create(&line).Error)
	path := "/api/contributions/" + strconv.Itoa(int(line.ID))

	resp := jsonRequest(t, app, http.MethodPut, path, map[string]interface{}{
		"isPaid": "true", "amountPaid": 250.5, "paymentDate": "2025-06-01",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode(t, resp)
	assert.Equal(t, "true", out["isPaid"])
	assert.Equal(t, 250.5, out["amountPaid"])
	// Fields left out of the body are untouched.
	assert.Equal(t, "شريك", out["partnerName"])

	resp = jsonRequest(t, app, http.MethodPut, path, map[string]interface{}{"partnerName": " "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = jsonRequest(t, app, http.MethodPut, "/api/contributions/9999", map[string]interface{}{
		"notes": "x",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteContribution(t *testing.T) {
	setupTestDB(t)
	conv := createConvention(t, "1/2025")
	app := newApp()

	line := models.FinancialContribution{
		ConventionID: conv.ID, PartnerName: "شريك", Year: "2025", IsPaid: "false",
	}
	require.NoError(t, database.DB.Create(&line).Error)
	path := "/api/contributions/" + strconv.Itoa(int(line.ID))

	resp := jsonRequest(t, app, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = jsonRequest(t, app, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = jsonRequest(t, app, http.MethodDelete, "/api/contributions/abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
