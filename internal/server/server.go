// Package server exposes the monitoring dashboard: the JSON API consumed by
// the frontend and field devices, plus the HTML views.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/upgeo/slopewatch/internal/assess"
	"github.com/upgeo/slopewatch/internal/config"
	"github.com/upgeo/slopewatch/internal/risk"
	"github.com/upgeo/slopewatch/internal/store"
)

// Server holds the handler dependencies.
type Server struct {
	cfg         *config.Config
	store       store.Store
	assessor    *assess.Assessor
	seismic     *risk.SeismicSimulator
	resilience  *risk.ResilienceScorer
	sensorLimit *rate.Limiter
	now         func() time.Time
}

// New creates a Server. Nil simulator or scorer get time-seeded defaults.
func New(cfg *config.Config, st store.Store, assessor *assess.Assessor,
	seismic *risk.SeismicSimulator, resilience *risk.ResilienceScorer) *Server {
	if seismic == nil {
		seismic = risk.NewSeismicSimulator(nil)
	}
	if resilience == nil {
		resilience = risk.NewResilienceScorer(nil)
	}
	minInterval := time.Duration(cfg.Simulator.MinIntervalSecs) * time.Second
	if minInterval <= 0 {
		minInterval = time.Second
	}
	return &Server{
		cfg:         cfg,
		store:       st,
		assessor:    assessor,
		seismic:     seismic,
		resilience:  resilience,
		sensorLimit: rate.NewLimiter(rate.Every(minInterval), 1),
		now:         time.Now,
	}
}

// Router builds the chi router with middleware and all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)

	// HTML views
	r.Get("/", s.handleIndexView)
	r.Get("/map", s.handleMapView)
	r.Get("/image-analysis", s.handleImageAnalysisView)
	r.Get("/alerts", s.handleAlertsView)
	r.Get("/locations", s.handleLocationsView)

	// JSON API
	r.Route("/api", func(r chi.Router) {
		r.Get("/sensor-data", s.handleSensorData)
		r.Get("/risk-zones", s.handleRiskZones)
		r.Get("/emergency-facilities", s.handleFacilities)
		r.Get("/alerts", s.handleAlerts)
		r.Get("/locations", s.handleLocations)
		r.Get("/risk-assessments", s.handleRiskAssessments)
		r.Get("/risk-score", s.handleRiskScore)
		r.Get("/enhanced-risk-score", s.handleEnhancedRiskScore)
		r.Get("/infrastructure-resilience", s.handleResilience)
		r.Get("/seismic-data", s.handleSeismicData)
		r.Get("/export/assessments.xlsx", s.handleExportAssessments)
		r.Post("/assess-locations", s.handleAssessLocations)
		r.Post("/analyze-images", s.handleAnalyzeImages)
		r.Post("/update-sensor-data", s.handleUpdateSensorData)
		r.Post("/reset-demo-data", s.handleResetDemoData)
	})

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
