package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"BloodLink/internal/matcher"
	"BloodLink/internal/models"
	"BloodLink/internal/notify"
	"BloodLink/internal/pipeline"
	"BloodLink/internal/reserve"
	"BloodLink/internal/store"
	"BloodLink/pkg/cache"
	"BloodLink/pkg/errors"
	"BloodLink/pkg/location"
	"BloodLink/pkg/metrics"
)

type offlineGeocoder struct{}

func (offlineGeocoder) Geocode(context.Context, string) (float64, float64, error) {
	return 0, 0, errors.WithCode(errors.CodeNotConfigured, "no api key")
}

func (offlineGeocoder) ReverseGeocode(context.Context, float64, float64) (string, error) {
	return "", errors.WithCode(errors.CodeNotConfigured, "no api key")
}

type offlineIP struct{}

func (offlineIP) Locate(context.Context, string) (float64, float64, string, error) {
	return 0, 0, "", errors.WithCode(errors.CodeUnavailable, "offline")
}

type testApp struct {
	db     *gorm.DB
	router *gin.Engine
	stock  *store.StockStore
	records *store.NotificationStore
}

func newTestApp(t *testing.T, dsn string) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := store.Open("", dsn)
	require.NoError(t, err)

	c, err := cache.NewCache(cache.Config{Type: "local"})
	require.NoError(t, err)

	log := zap.NewNop()
	met := metrics.New()
	requests := store.NewRequestStore(db)
	hospitals := store.NewHospitalStore(db)
	stock := store.NewStockStore(db)
	alerts := store.NewAlertStore(db)
	records := store.NewNotificationStore(db)

	resolver := location.NewResolver(offlineGeocoder{}, offlineIP{}, c, location.Config{}, log, met)
	m := matcher.NewMatcher(hospitals, matcher.Config{}, log)
	coordinator := reserve.NewCoordinator(stock, alerts, log, met)
	dispatcher := notify.NewDispatcher(nil, false, nil, false, records, "+911234567890", log, met)
	pipe := pipeline.New(requests, resolver, m, coordinator, dispatcher, log, met)

	r := gin.New()
	h := New(db, requests, hospitals, stock, alerts, records, m, pipe, met, log)
	h.RegisterRoutes(r, nil)

	return &testApp{db: db, router: r, stock: stock, records: records}
}

func (a *testApp) seedHospital(t *testing.T, name string, group string, units int) models.Hospital {
	t.Helper()
	h := models.Hospital{
		Name: name, Address: "Sector 2", City: "Mumbai",
		EmergencyPhone: "+91-22-1111", Latitude: 19.08, Longitude: 72.88,
		IsActive: true, IsEmergencyPartner: true,
	}
	require.NoError(t, a.db.Create(&h).Error)
	require.NoError(t, a.stock.SetUnits(context.Background(), h.ID, group, units))
	return h
}

func (a *testApp) postJSON(t *testing.T, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) postForm(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Data
}

func TestCreateRequestEndToEnd(t *testing.T) {
	app := newTestApp(t, "file:handler_create?mode=memory&cache=shared")
	app.seedHospital(t, "City General Hospital", "O+", 10)

	w := app.postJSON(t, "/api/requests", gin.H{
		"blood_group":   "O+",
		"quantity":      2,
		"latitude":      19.0760,
		"longitude":     72.8777,
		"contact_phone": "9876543210",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	data := decodeData(t, w)
	assert.Equal(t, models.StatusNotified, data["status"])
	assert.NotEmpty(t, data["request_id"])
	assert.Equal(t, true, data["notification_sent"])
	require.NotEmpty(t, data["hospitals"])

	// phone was normalized before persisting
	var stored models.EmergencyRequest
	require.NoError(t, app.db.Where("request_id = ?", data["request_id"]).First(&stored).Error)
	assert.Equal(t, "+919876543210", stored.ContactPhone)

	// stock was reserved
	rows, err := app.stock.All(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 8, rows[0].UnitsAvailable)
}

func TestCreateRequestRejectsBadGroup(t *testing.T) {
	app := newTestApp(t, "file:handler_badgroup?mode=memory&cache=shared")
	w := app.postJSON(t, "/api/requests", gin.H{
		"blood_group":   "X+",
		"contact_phone": "9876543210",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateRequestRejectsBadQuantity(t *testing.T) {
	app := newTestApp(t, "file:handler_badqty?mode=memory&cache=shared")
	app.seedHospital(t, "City General Hospital", "O+", 10)

	for _, qty := range []int{0, -3, 11} {
		w := app.postJSON(t, "/api/requests", gin.H{
			"blood_group":   "O+",
			"quantity":      qty,
			"latitude":      19.0760,
			"longitude":     72.8777,
			"contact_phone": "9876543210",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code, "quantity %d", qty)
	}

	// rejected requests leave no trace
	var n int64
	require.NoError(t, app.db.Model(&models.EmergencyRequest{}).Count(&n).Error)
	assert.Zero(t, n)

	rows, err := app.stock.All(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 10, rows[0].UnitsAvailable)

	// omitted quantity still defaults to one bag
	w := app.postJSON(t, "/api/requests", gin.H{
		"blood_group":   "O+",
		"latitude":      19.0760,
		"longitude":     72.8777,
		"contact_phone": "9876543210",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, float64(1), decodeData(t, w)["quantity"])
}

func TestGetRequestAndComplete(t *testing.T) {
	app := newTestApp(t, "file:handler_getcomplete?mode=memory&cache=shared")
	app.seedHospital(t, "Apollo Hospital", "A+", 6)

	created := decodeData(t, app.postJSON(t, "/api/requests", gin.H{
		"blood_group":   "A+",
		"latitude":      19.0760,
		"longitude":     72.8777,
		"contact_phone": "9876543210",
	}))
	id := created["request_id"].(string)

	w := app.get(t, "/api/requests/"+id)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StatusNotified, decodeData(t, w)["status"])

	w = app.postForm(t, "/api/requests/"+id+"/complete", url.Values{})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StatusCompleted, decodeData(t, w)["status"])

	assert.Equal(t, http.StatusNotFound, app.get(t, "/api/requests/nope").Code)
}

func TestSMSWebhookCreatesRequest(t *testing.T) {
	app := newTestApp(t, "file:handler_webhook?mode=memory&cache=shared")
	app.seedHospital(t, "Criticare Hospital", "AB+", 5)

	w := app.postForm(t, "/webhook/sms", url.Values{
		"From":       {"+919876543210"},
		"Body":       {"AB+ 2 near Andheri"},
		"MessageSid": {"SMtest1"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<Response>")
	assert.Contains(t, w.Body.String(), "Emergency Request Created!")
	assert.Contains(t, w.Body.String(), "AB+ - 2 bag(s)")

	var stored models.EmergencyRequest
	require.NoError(t, app.db.Where("contact_phone = ?", "+919876543210").First(&stored).Error)
	assert.Equal(t, "Andheri", stored.UserLocationText)
	assert.Equal(t, "SMS User 3210", stored.ContactName)
}

func TestSMSWebhookHelpAndErrors(t *testing.T) {
	app := newTestApp(t, "file:handler_webhookhelp?mode=memory&cache=shared")

	w := app.postForm(t, "/webhook/sms", url.Values{"From": {"+919876543210"}, "Body": {"HELP"}})
	assert.Contains(t, w.Body.String(), "Emergency Blood Request Help")

	w = app.postForm(t, "/webhook/sms", url.Values{"From": {"+919876543210"}, "Body": {""}})
	assert.Contains(t, w.Body.String(), "Please send a blood request")

	w = app.postForm(t, "/webhook/sms", url.Values{"From": {"+919876543210"}, "Body": {"send blood fast"}})
	assert.Contains(t, w.Body.String(), "blood group")
}

func TestSMSStatusCallback(t *testing.T) {
	app := newTestApp(t, "file:handler_status?mode=memory&cache=shared")

	require.NoError(t, app.records.Append(context.Background(), &models.NotificationRecord{
		RequestID:        7,
		NotificationType: models.ChannelSMS,
		Status:           models.NotifySent,
		ProviderResponse: "SMcb1",
	}))

	w := app.postForm(t, "/webhook/sms/status", url.Values{
		"MessageSid":    {"SMcb1"},
		"MessageStatus": {"delivered"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	recs, err := app.records.ForRequest(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, models.NotifyDelivered, recs[0].Status)
}

func TestNearbyHospitals(t *testing.T) {
	app := newTestApp(t, "file:handler_nearby?mode=memory&cache=shared")
	app.seedHospital(t, "Shree Hospital", "B+", 8)

	w := app.get(t, "/api/hospitals/nearby?blood_group=B%2B&lat=19.0760&lng=72.8777")
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	hospitals := data["hospitals"].([]interface{})
	require.Len(t, hospitals, 1)

	assert.Equal(t, http.StatusBadRequest, app.get(t, "/api/hospitals/nearby?blood_group=B%2B").Code)
	assert.Equal(t, http.StatusBadRequest, app.get(t, "/api/hospitals/nearby?lat=1&lng=2").Code)
}

func TestInventoryWithAlerts(t *testing.T) {
	app := newTestApp(t, "file:handler_inventory?mode=memory&cache=shared")
	h := app.seedHospital(t, "Cloudnine Hospital", "O-", 9)

	w := app.postJSON(t, "/api/inventory", gin.H{
		"hospital_id": h.ID,
		"blood_group": "O-",
		"units":       1,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = app.get(t, "/api/inventory")
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	rows := data["inventory"].([]interface{})
	require.Len(t, rows, 1)
	entry := rows[0].(map[string]interface{})
	assert.Equal(t, float64(1), entry["units_available"])
	assert.Equal(t, models.AlertEmergency, entry["alert_level"])
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, "file:handler_health?mode=memory&cache=shared")
	w := app.get(t, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}
