package server

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/upgeo/slopewatch/internal/assess"
	"github.com/upgeo/slopewatch/internal/imagery"
	"github.com/upgeo/slopewatch/internal/model"
	"github.com/upgeo/slopewatch/internal/risk"
)

func hoursParam(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("hours")
	if raw == "" {
		return fallback
	}
	hours, err := strconv.Atoi(raw)
	if err != nil || hours <= 0 {
		return fallback
	}
	return hours
}

func floatParam(r *http.Request, name string) (float64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (s *Server) handleSensorData(w http.ResponseWriter, r *http.Request) {
	hours := hoursParam(r, 24)
	readings, err := s.store.SensorReadingsSince(r.Context(), s.now().UTC().Add(-time.Duration(hours)*time.Hour))
	if err != nil {
		s.serverError(w, "list sensor data", err)
		return
	}
	respondData(w, emptySlice(readings))
}

func (s *Server) handleRiskZones(w http.ResponseWriter, r *http.Request) {
	zones, err := s.store.ListRiskZones(r.Context())
	if err != nil {
		s.serverError(w, "list risk zones", err)
		return
	}
	respondData(w, emptySlice(zones))
}

func (s *Server) handleFacilities(w http.ResponseWriter, r *http.Request) {
	facilities, err := s.store.ListFacilities(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		s.serverError(w, "list facilities", err)
		return
	}
	respondData(w, emptySlice(facilities))
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.store.ActiveAlerts(r.Context())
	if err != nil {
		s.serverError(w, "list alerts", err)
		return
	}
	respondData(w, emptySlice(alerts))
}

func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := s.store.ListLocations(r.Context())
	if err != nil {
		s.serverError(w, "list locations", err)
		return
	}
	respondData(w, emptySlice(locations))
}

func (s *Server) handleRiskAssessments(w http.ResponseWriter, r *http.Request) {
	hours := hoursParam(r, 24)
	grouped, err := s.store.AssessmentsSince(r.Context(), s.now().UTC().Add(-time.Duration(hours)*time.Hour))
	if err != nil {
		s.serverError(w, "list assessments", err)
		return
	}
	respondData(w, emptySlice(grouped))
}

func (s *Server) handleRiskScore(w http.ResponseWriter, r *http.Request) {
	rainfall, ok1 := floatParam(r, "rainfall")
	temperature, ok2 := floatParam(r, "temperature")
	soilMoisture, ok3 := floatParam(r, "soil_moisture")
	if !ok1 || !ok2 || !ok3 {
		respondError(w, http.StatusBadRequest, "Missing required parameters")
		return
	}

	score, err := risk.Score(rainfall, temperature, soilMoisture)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondFields(w, map[string]any{"risk_score": score})
}

func (s *Server) handleEnhancedRiskScore(w http.ResponseWriter, r *http.Request) {
	rainfall, ok1 := floatParam(r, "rainfall")
	temperature, ok2 := floatParam(r, "temperature")
	soilMoisture, ok3 := floatParam(r, "soil_moisture")
	if !ok1 || !ok2 || !ok3 {
		respondError(w, http.StatusBadRequest, "Missing required parameters")
		return
	}

	input := risk.EnhancedInput{
		Rainfall:     rainfall,
		Temperature:  temperature,
		SoilMoisture: soilMoisture,
		TerrainType:  r.URL.Query().Get("terrain_type"),
	}
	if density, ok := floatParam(r, "vegetation_density"); ok {
		input.VegetationDensity = &density
	}

	breakdown, err := risk.ScoreEnhanced(input)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondData(w, breakdown)
}

func (s *Server) handleResilience(w http.ResponseWriter, r *http.Request) {
	location := r.URL.Query().Get("location")
	if location == "" {
		respondError(w, http.StatusBadRequest, "Missing location parameter")
		return
	}

	riskScore, ok := floatParam(r, "risk_score")
	if !ok || riskScore == 0 {
		riskScore = s.latestRiskScore(r)
	}

	respondData(w, s.resilience.Score(location, riskScore, nil))
}

// latestRiskScore derives a risk score from the freshest reading in the last
// three hours, falling back to a moderate default.
func (s *Server) latestRiskScore(r *http.Request) float64 {
	readings, err := s.store.SensorReadingsSince(r.Context(), s.now().UTC().Add(-3*time.Hour))
	if err != nil || len(readings) == 0 {
		return 5.0
	}
	latest := readings[len(readings)-1]
	score, err := risk.Score(latest.Rainfall, latest.Temperature, latest.SoilMoisture)
	if err != nil || score == 0 {
		return 5.0
	}
	return score
}

func (s *Server) handleSeismicData(w http.ResponseWriter, r *http.Request) {
	hours := hoursParam(r, s.cfg.Seismic.DefaultHours)
	readings := s.seismic.Generate(r.URL.Query().Get("location"), hours)
	respondData(w, emptySlice(readings))
}

func (s *Server) handleAssessLocations(w http.ResponseWriter, r *http.Request) {
	results, err := s.assessor.Run(r.Context())
	if err != nil {
		if eris.Is(err, assess.ErrNoSensorData) {
			respondError(w, http.StatusUnprocessableEntity, "No recent sensor data available for assessment")
			return
		}
		s.serverError(w, "assess locations", err)
		return
	}
	respondData(w, emptySlice(results))
}

func (s *Server) handleAnalyzeImages(w http.ResponseWriter, r *http.Request) {
	maxSize := int64(s.cfg.Upload.MaxSizeMB) << 20
	if err := r.ParseMultipartForm(maxSize); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	beforePath, err := s.saveUpload(r, "before_image")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer os.RemoveAll(filepath.Dir(beforePath))

	afterPath, err := s.saveUploadTo(r, "after_image", filepath.Dir(beforePath))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	analysis, err := imagery.AnalyzeImages(beforePath, afterPath)
	if err != nil {
		s.serverError(w, "analyze images", err)
		return
	}
	respondData(w, analysis)
}

func (s *Server) saveUpload(r *http.Request, field string) (string, error) {
	if err := os.MkdirAll(s.cfg.Upload.Dir, 0o755); err != nil {
		return "", eris.Wrap(err, "server: create upload root")
	}
	dir, err := os.MkdirTemp(s.cfg.Upload.Dir, "analysis-*")
	if err != nil {
		return "", eris.Wrap(err, "server: create upload dir")
	}
	path, err := s.saveUploadTo(r, field, dir)
	if err != nil {
		os.RemoveAll(dir)
		return "", err
	}
	return path, nil
}

func (s *Server) saveUploadTo(r *http.Request, field, dir string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", eris.Errorf("Missing image file: %s", field)
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", eris.Errorf("No selected file for %s", field)
	}
	if !s.allowedExtension(name) {
		return "", eris.Errorf("File type not allowed: %s", filepath.Ext(name))
	}

	path := filepath.Join(dir, name)
	dst, err := os.Create(path)
	if err != nil {
		return "", eris.Wrap(err, "server: create upload file")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", eris.Wrap(err, "server: write upload file")
	}
	return path, nil
}

// allowedExtension checks the filename against the configured allow-list.
// An empty list accepts anything.
func (s *Server) allowedExtension(name string) bool {
	allowed := strings.TrimSpace(s.cfg.Upload.Extensions)
	if allowed == "" {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, a := range strings.Split(allowed, ",") {
		if ext == strings.ToLower(strings.TrimSpace(a)) {
			return true
		}
	}
	return false
}

type sensorUpdateRequest struct {
	Rainfall     *float64 `json:"rainfall"`
	Temperature  *float64 `json:"temperature"`
	SoilMoisture *float64 `json:"soil_moisture"`
	LocationLat  *float64 `json:"location_lat"`
	LocationLng  *float64 `json:"location_lng"`
}

func (s *Server) handleUpdateSensorData(w http.ResponseWriter, r *http.Request) {
	if !s.sensorLimit.Allow() {
		respondError(w, http.StatusTooManyRequests, "Sensor updates arriving too fast")
		return
	}

	var req sensorUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Missing JSON data in request")
		return
	}
	for name, v := range map[string]*float64{
		"rainfall":      req.Rainfall,
		"temperature":   req.Temperature,
		"soil_moisture": req.SoilMoisture,
		"location_lat":  req.LocationLat,
		"location_lng":  req.LocationLng,
	} {
		if v == nil {
			respondError(w, http.StatusBadRequest, "Missing required field: "+name)
			return
		}
	}

	score, err := risk.Score(*req.Rainfall, *req.Temperature, *req.SoilMoisture)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := s.now().UTC()
	reading := model.SensorReading{
		ID:           uuid.New().String(),
		Timestamp:    now,
		Rainfall:     *req.Rainfall,
		Temperature:  *req.Temperature,
		SoilMoisture: *req.SoilMoisture,
		Location:     model.LatLng{Lat: *req.LocationLat, Lng: *req.LocationLng},
	}
	if err := s.store.InsertSensorReading(r.Context(), reading); err != nil {
		s.serverError(w, "insert sensor reading", err)
		return
	}

	alertGenerated := false
	if score >= assess.AlertThreshold {
		if alert := risk.GenerateAlert(score, reading.Location, now); alert != nil {
			if err := s.store.InsertAlert(r.Context(), *alert); err != nil {
				s.serverError(w, "insert alert", err)
				return
			}
			alertGenerated = true
		}
	}

	respondFields(w, map[string]any{
		"id":              reading.ID,
		"risk_score":      score,
		"alert_generated": alertGenerated,
	})
}

func (s *Server) handleResetDemoData(w http.ResponseWriter, r *http.Request) {
	if err := s.store.SeedDemoData(r.Context()); err != nil {
		s.serverError(w, "reset demo data", err)
		return
	}
	respondFields(w, map[string]any{"message": "Demo data has been reset"})
}

func (s *Server) serverError(w http.ResponseWriter, op string, err error) {
	zap.L().Error(op, zap.Error(err))
	respondError(w, http.StatusInternalServerError, err.Error())
}

// emptySlice keeps empty results as [] instead of null in JSON.
func emptySlice[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
