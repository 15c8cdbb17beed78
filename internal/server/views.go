package server

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/upgeo/slopewatch/internal/model"
	"github.com/upgeo/slopewatch/internal/risk"
	"github.com/upgeo/slopewatch/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

var views = template.Must(template.ParseFS(templateFS, "templates/*.html"))

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.ExecuteTemplate(w, name, data); err != nil {
		zap.L().Error("render view", zap.String("template", name), zap.Error(err))
	}
}

type indexView struct {
	SensorData  []model.SensorReading
	Alerts      []model.Alert
	CurrentRisk float64
	Assessments []store.LocationAssessments
	Error       string
}

func (s *Server) handleIndexView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	since := s.now().UTC().Add(-24 * time.Hour)

	var view indexView
	var err error
	if view.SensorData, err = s.store.SensorReadingsSince(ctx, since); err != nil {
		s.renderError(w, "index.html", indexView{Error: err.Error()}, err)
		return
	}
	if view.Alerts, err = s.store.ActiveAlerts(ctx); err != nil {
		s.renderError(w, "index.html", indexView{Error: err.Error()}, err)
		return
	}
	if view.Assessments, err = s.store.AssessmentsSince(ctx, since); err != nil {
		s.renderError(w, "index.html", indexView{Error: err.Error()}, err)
		return
	}
	if len(view.SensorData) > 0 {
		latest := view.SensorData[len(view.SensorData)-1]
		if score, err := risk.Score(latest.Rainfall, latest.Temperature, latest.SoilMoisture); err == nil {
			view.CurrentRisk = score
		}
	}
	s.render(w, "index.html", view)
}

type mapView struct {
	RiskZones         []model.RiskZone
	Hospitals         []model.EmergencyFacility
	RescueCenters     []model.EmergencyFacility
	MitigationCenters []model.EmergencyFacility
	Alerts            []model.Alert
	Locations         []model.MonitoredLocation
	Error             string
}

func (s *Server) handleMapView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var view mapView
	var err error
	if view.RiskZones, err = s.store.ListRiskZones(ctx); err != nil {
		s.renderError(w, "map.html", mapView{Error: err.Error()}, err)
		return
	}
	facilities, err := s.store.ListFacilities(ctx, "")
	if err != nil {
		s.renderError(w, "map.html", mapView{Error: err.Error()}, err)
		return
	}
	for _, f := range facilities {
		switch f.FacilityType {
		case model.FacilityHospital:
			view.Hospitals = append(view.Hospitals, f)
		case model.FacilityRescueCenter:
			view.RescueCenters = append(view.RescueCenters, f)
		case model.FacilityMitigationCenter:
			view.MitigationCenters = append(view.MitigationCenters, f)
		}
	}
	if view.Alerts, err = s.store.ActiveAlerts(ctx); err != nil {
		s.renderError(w, "map.html", mapView{Error: err.Error()}, err)
		return
	}
	if view.Locations, err = s.store.ListLocations(ctx); err != nil {
		s.renderError(w, "map.html", mapView{Error: err.Error()}, err)
		return
	}
	s.render(w, "map.html", view)
}

func (s *Server) handleImageAnalysisView(w http.ResponseWriter, r *http.Request) {
	events, err := s.store.ListEvents(r.Context())
	if err != nil {
		s.renderError(w, "image_analysis.html", struct {
			Events []model.LandslideEvent
			Error  string
		}{Error: err.Error()}, err)
		return
	}
	s.render(w, "image_analysis.html", struct {
		Events []model.LandslideEvent
		Error  string
	}{Events: events})
}

func (s *Server) handleAlertsView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	// The alerts page lists history, inactive entries included.
	alerts, err := s.store.ListAlerts(ctx, 0)
	if err != nil {
		s.renderError(w, "alerts.html", struct {
			Alerts    []model.Alert
			RiskZones []model.RiskZone
			Error     string
		}{Error: err.Error()}, err)
		return
	}
	zones, err := s.store.ListRiskZones(ctx)
	if err != nil {
		s.renderError(w, "alerts.html", struct {
			Alerts    []model.Alert
			RiskZones []model.RiskZone
			Error     string
		}{Error: err.Error()}, err)
		return
	}
	s.render(w, "alerts.html", struct {
		Alerts    []model.Alert
		RiskZones []model.RiskZone
		Error     string
	}{Alerts: alerts, RiskZones: zones})
}

func (s *Server) handleLocationsView(w http.ResponseWriter, r *http.Request) {
	locations, err := s.store.ListLocations(r.Context())
	if err != nil {
		s.renderError(w, "locations.html", struct {
			Locations []model.MonitoredLocation
			Error     string
		}{Error: err.Error()}, err)
		return
	}
	s.render(w, "locations.html", struct {
		Locations []model.MonitoredLocation
		Error     string
	}{Locations: locations})
}

func (s *Server) renderError(w http.ResponseWriter, name string, data any, err error) {
	zap.L().Error("load view data", zap.String("template", name), zap.Error(err))
	s.render(w, name, data)
}
