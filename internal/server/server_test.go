package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math/rand"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upgeo/slopewatch/internal/assess"
	"github.com/upgeo/slopewatch/internal/config"
	"github.com/upgeo/slopewatch/internal/model"
	"github.com/upgeo/slopewatch/internal/risk"
	"github.com/upgeo/slopewatch/internal/store"
)

func newTestServer(t *testing.T) (*Server, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	ctx := context.Background()
	require.NoError(t, st.Migrate(ctx))
	require.NoError(t, st.SeedDemoData(ctx))

	cfg := &config.Config{
		Server:    config.ServerConfig{Port: 0, AllowedOrigins: []string{"*"}},
		Simulator: config.SimulatorConfig{MinIntervalSecs: 60},
		Seismic:   config.SeismicConfig{DefaultHours: 24},
		Upload: config.UploadConfig{
			Dir:        filepath.Join(t.TempDir(), "uploads"),
			MaxSizeMB:  16,
			Extensions: ".jpg,.jpeg,.png,.tif,.tiff",
		},
	}
	scorer := risk.NewResilienceScorer(rand.New(rand.NewSource(1)))
	assessor := assess.New(st, scorer)
	srv := New(cfg, st, assessor, risk.NewSeismicSimulator(rand.New(rand.NewSource(1))), scorer)
	return srv, st
}

func doRequest(t *testing.T, srv *Server, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestRiskScoreEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet,
		"/api/risk-score?rainfall=100&temperature=15&soil_moisture=80", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeBody(t, rec)
	assert.Equal(t, "success", payload["status"])
	// 0.5*1.0 + 0.3*0.8 + 0.2*0.0 = 0.74 -> 7.4
	assert.InDelta(t, 7.4, payload["risk_score"], 0.001)
}

func TestRiskScoreMissingParams(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/api/risk-score?rainfall=10", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "error", decodeBody(t, rec)["status"])
}

func TestRiskScoreRejectsNaN(t *testing.T) {
	// ParseFloat accepts "NaN"; the scorer must reject it before it can
	// poison the JSON response.
	srv, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet,
		"/api/risk-score?rainfall=10&temperature=NaN&soil_moisture=50", nil, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeBody(t, rec)
	assert.Equal(t, "error", payload["status"])
	assert.Contains(t, payload["message"], "temperature")
}

func TestEnhancedRiskScoreEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet,
		"/api/enhanced-risk-score?rainfall=100&temperature=35&soil_moisture=80&terrain_type=mountain&vegetation_density=40", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeBody(t, rec)
	data := payload["data"].(map[string]any)
	factors := data["factor_contributions"].(map[string]any)
	assert.InDelta(t, 4.5, factors["rainfall_factor"], 0.001)
	assert.InDelta(t, 0.9, factors["terrain_factor"], 0.001)
}

func TestReferenceDataEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/risk-zones", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["data"], 5)

	rec = doRequest(t, srv, http.MethodGet, "/api/emergency-facilities?type=hospital", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["data"], 2)

	rec = doRequest(t, srv, http.MethodGet, "/api/locations", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["data"], 11)
}

func TestUpdateSensorData(t *testing.T) {
	srv, st := newTestServer(t)

	body := `{"rainfall":110,"temperature":36,"soil_moisture":92,"location_lat":25.1,"location_lng":82.5}`
	rec := doRequest(t, srv, http.MethodPost, "/api/update-sensor-data",
		bytes.NewBufferString(body), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)

	payload := decodeBody(t, rec)
	assert.Equal(t, "success", payload["status"])
	assert.NotEmpty(t, payload["id"])
	assert.Equal(t, true, payload["alert_generated"])

	readings, err := st.SensorReadingsSince(context.Background(), time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	assert.Len(t, readings, 1)

	alerts, err := st.ActiveAlerts(context.Background())
	require.NoError(t, err)
	assert.Len(t, alerts, 1)
}

func TestUpdateSensorDataMissingField(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodPost, "/api/update-sensor-data",
		bytes.NewBufferString(`{"rainfall":10}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["message"], "Missing required field")
}

func TestUpdateSensorDataRateLimited(t *testing.T) {
	srv, _ := newTestServer(t)
	body := `{"rainfall":1,"temperature":20,"soil_moisture":30,"location_lat":25.1,"location_lng":82.5}`

	rec := doRequest(t, srv, http.MethodPost, "/api/update-sensor-data",
		bytes.NewBufferString(body), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/api/update-sensor-data",
		bytes.NewBufferString(body), "application/json")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestAssessLocationsNoSensorData(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodPost, "/api/assess-locations", nil, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAssessLocations(t *testing.T) {
	srv, st := newTestServer(t)
	require.NoError(t, st.InsertSensorReading(context.Background(), model.SensorReading{
		Timestamp: time.Now().UTC().Add(-time.Minute),
		Rainfall:  60, Temperature: 30, SoilMoisture: 70,
	}))

	rec := doRequest(t, srv, http.MethodPost, "/api/assess-locations", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeBody(t, rec)
	assert.Len(t, payload["data"], 11)
}

func TestSeismicData(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/seismic-data?location=Mirzapur&hours=6", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].([]any)
	assert.NotEmpty(t, data)

	rec = doRequest(t, srv, http.MethodGet, "/api/seismic-data?location=Atlantis", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody(t, rec)["data"])
}

func TestAnalyzeImages(t *testing.T) {
	srv, _ := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, field := range []string{"before_image", "after_image"} {
		fw, err := mw.CreateFormFile(field, field+".jpg")
		require.NoError(t, err)
		_, err = fw.Write(bytes.Repeat([]byte{0xAB}, 256))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	rec := doRequest(t, srv, http.MethodPost, "/api/analyze-images", &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Contains(t, data, "risk_score")
	assert.Contains(t, data, "risk_level")
}

func TestAnalyzeImagesMissingFile(t *testing.T) {
	srv, _ := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("before_image", "before.jpg")
	require.NoError(t, err)
	_, err = fw.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rec := doRequest(t, srv, http.MethodPost, "/api/analyze-images", &buf, mw.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeImagesRejectsDisallowedExtension(t *testing.T) {
	srv, _ := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range []string{"before.exe", "after.jpg"} {
		field := "before_image"
		if name == "after.jpg" {
			field = "after_image"
		}
		fw, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = fw.Write([]byte("x"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	rec := doRequest(t, srv, http.MethodPost, "/api/analyze-images", &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["message"], "File type not allowed")
}

func TestResetDemoData(t *testing.T) {
	srv, st := newTestServer(t)
	rec := doRequest(t, srv, http.MethodPost, "/api/reset-demo-data", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	locations, err := st.ListLocations(context.Background())
	require.NoError(t, err)
	assert.Len(t, locations, 6)
}

func TestExportAssessments(t *testing.T) {
	srv, st := newTestServer(t)
	ctx := context.Background()

	locations, err := st.ActiveLocations(ctx)
	require.NoError(t, err)
	require.NoError(t, st.SaveAssessmentRun(ctx, []model.RiskAssessment{
		{LocationID: locations[0].ID, Timestamp: time.Now().UTC(), RiskScore: 6.0},
	}, nil))

	rec := doRequest(t, srv, http.MethodGet, "/api/export/assessments.xlsx", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		rec.Header().Get("Content-Type"))
	assert.NotZero(t, rec.Body.Len())
}

func TestHTMLViews(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, path := range []string{"/", "/map", "/image-analysis", "/alerts", "/locations"} {
		rec := doRequest(t, srv, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html", path)
	}
}

func TestAlertsViewIncludesInactiveAlerts(t *testing.T) {
	srv, st := newTestServer(t)

	resolved := model.Alert{
		Timestamp: time.Now().UTC().Add(-time.Hour),
		RiskLevel: 8,
		Message:   "HIGH ALERT: Significant landslide risk detected. Prepare for possible evacuation.",
		Location:  model.LatLng{Lat: 25.15, Lng: 82.57},
		IsActive:  false,
	}
	require.NoError(t, st.InsertAlert(context.Background(), resolved))

	rec := doRequest(t, srv, http.MethodGet, "/alerts", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), resolved.Message)
}
