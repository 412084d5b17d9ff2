package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"stagepass/internal/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupRouter wires the handlers without services: these tests only exercise
// request validation, which rejects before any service is touched.
func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(nil)

	r := gin.New()
	api := r.Group("/api")
	api.GET("/events/:id", h.GetEvent)
	api.POST("/events/:id/pricing-tiers", h.CreateTier)
	api.POST("/seats/:id/reserve", h.ReserveSeat)
	api.POST("/orders/purchase_tickets", h.PurchaseTickets)
	api.POST("/tickets/scan", h.ScanTicket)
	return r
}

func doJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPathIDRejectsMalformedIDs(t *testing.T) {
	r := setupRouter()

	for _, path := range []string{"/api/events/abc", "/api/events/0", "/api/events/-5"} {
		w := doJSON(r, "GET", path, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)

		var appErr apperrors.Error
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &appErr))
		assert.Equal(t, apperrors.KindValidation, appErr.Kind)
		assert.Contains(t, appErr.Fields, "id")
	}
}

func TestPurchaseRejectsMissingFields(t *testing.T) {
	r := setupRouter()

	// Missing event_id and quantity.
	w := doJSON(r, "POST", "/api/orders/purchase_tickets", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Zero quantity fails the min=1 binding.
	w = doJSON(r, "POST", "/api/orders/purchase_tickets", map[string]interface{}{
		"event_id": 1,
		"quantity": 0,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScanRejectsMissingTicketCode(t *testing.T) {
	r := setupRouter()

	w := doJSON(r, "POST", "/api/tickets/scan", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var appErr apperrors.Error
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &appErr))
	assert.Equal(t, apperrors.KindValidation, appErr.Kind)
}

func TestCreateTierRejectsMissingName(t *testing.T) {
	r := setupRouter()

	w := doJSON(r, "POST", "/api/events/1/pricing-tiers", map[string]interface{}{
		"price": "25.00",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatusOfMapsEveryKind(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusOf(apperrors.KindValidation))
	assert.Equal(t, http.StatusConflict, statusOf(apperrors.KindConflict))
	assert.Equal(t, http.StatusNotFound, statusOf(apperrors.KindNotFound))
	assert.Equal(t, http.StatusForbidden, statusOf(apperrors.KindPermission))
	assert.Equal(t, http.StatusUnauthorized, statusOf(apperrors.KindAuthentication))
	assert.Equal(t, http.StatusInternalServerError, statusOf(apperrors.Kind("mystery")))
}

func TestRespondErrorHidesInternalDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/api/events/1", nil)

	respondError(c, assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
}

func TestRespondErrorSerializesConflictFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("POST", "/api/orders", nil)

	respondError(c, apperrors.Conflict("selected seats are no longer available").
		WithField("seats", "Floor-A-1"))

	assert.Equal(t, http.StatusConflict, w.Code)

	var appErr apperrors.Error
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &appErr))
	assert.Equal(t, apperrors.KindConflict, appErr.Kind)
	assert.Equal(t, []string{"Floor-A-1"}, appErr.Fields["seats"])
}
