package server

import (
	"net/http"
	"time"

	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
)

// handleExportAssessments streams the recent assessment history as an xlsx
// workbook, one row per assessment.
func (s *Server) handleExportAssessments(w http.ResponseWriter, r *http.Request) {
	hours := hoursParam(r, 24)
	grouped, err := s.store.AssessmentsSince(r.Context(), s.now().UTC().Add(-time.Duration(hours)*time.Hour))
	if err != nil {
		s.serverError(w, "export assessments", err)
		return
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Risk Assessments")
	if err != nil {
		s.serverError(w, "export assessments", err)
		return
	}

	header := sheet.AddRow()
	for _, col := range []string{
		"Location", "Timestamp", "Risk Score",
		"Rainfall Factor", "Temperature Factor", "Soil Moisture Factor",
		"Historical Factor", "Terrain Factor",
	} {
		header.AddCell().SetString(col)
	}

	for _, g := range grouped {
		for _, a := range g.Assessments {
			row := sheet.AddRow()
			row.AddCell().SetString(g.Location.Name)
			row.AddCell().SetString(a.Timestamp.UTC().Format(time.RFC3339))
			row.AddCell().SetFloat(a.RiskScore)
			row.AddCell().SetFloat(a.RainfallFactor)
			row.AddCell().SetFloat(a.TemperatureFactor)
			row.AddCell().SetFloat(a.SoilMoistureFactor)
			row.AddCell().SetFloat(a.HistoricalFactor)
			row.AddCell().SetFloat(a.TerrainFactor)
		}
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="risk-assessments.xlsx"`)
	if err := f.Write(w); err != nil {
		zap.L().Error("write xlsx export", zap.Error(err))
	}
}
