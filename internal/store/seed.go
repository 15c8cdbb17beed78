package store

import (
	"time"

	"github.com/upgeo/slopewatch/internal/model"
)

func ptr(v float64) *float64 { return &v }

// seedDistricts are the six district monitoring points. Seeding replaces the
// monitored-location set with these every time.
func seedDistricts() []model.MonitoredLocation {
	return []model.MonitoredLocation{
		{
			Name: "Mirzapur", Description: "Agricultural land with frequent rainfall",
			Location: model.LatLng{Lat: 25.1420, Lng: 82.5625},
			Elevation: 90.0, TerrainType: "valley", VegetationDensity: ptr(65.0), IsActive: true,
		},
		{
			Name: "Chitrakoot", Description: "Steep slopes with sparse vegetation",
			Location: model.LatLng{Lat: 25.2100, Lng: 80.9150},
			Elevation: 320.0, TerrainType: "mountain", VegetationDensity: ptr(25.0), IsActive: true,
		},
		{
			Name: "Sonbhadra", Description: "Surface mining with disturbed soil",
			Location: model.LatLng{Lat: 24.6750, Lng: 83.0620},
			Elevation: 185.0, TerrainType: "hill", VegetationDensity: ptr(10.0), IsActive: true,
		},
		{
			Name: "Varanasi", Description: "River bank with erosion concerns",
			Location: model.LatLng{Lat: 25.3176, Lng: 82.9739},
			Elevation: 110.0, TerrainType: "riverside", VegetationDensity: ptr(40.0), IsActive: true,
		},
		{
			Name: "Chandauli", Description: "Dense forest with moderate slopes",
			Location: model.LatLng{Lat: 25.2550, Lng: 83.2730},
			Elevation: 230.0, TerrainType: "forest", VegetationDensity: ptr(85.0), IsActive: true,
		},
		{
			Name: "Allahabad", Description: "Historic city with floodplain region",
			Location: model.LatLng{Lat: 25.4358, Lng: 81.8463},
			Elevation: 98.0, TerrainType: "plain", VegetationDensity: ptr(30.0), IsActive: true,
		},
	}
}

func seedRiskZones() []model.RiskZone {
	return []model.RiskZone{
		{Name: "Mirzapur Hills", Location: model.LatLng{Lat: 25.1480, Lng: 82.5689}, RiskLevel: 8,
			Description: "Steep hills with history of landslides during monsoon season"},
		{Name: "Chitrakoot Region", Location: model.LatLng{Lat: 25.2138, Lng: 80.9019}, RiskLevel: 7,
			Description: "Rocky terrain with significant erosion risk"},
		{Name: "Sonbhadra District", Location: model.LatLng{Lat: 24.6772, Lng: 83.0593}, RiskLevel: 9,
			Description: "Mining area with unstable slopes and heavy rainfall"},
		{Name: "Robertsganj Hills", Location: model.LatLng{Lat: 24.7142, Lng: 83.0656}, RiskLevel: 6,
			Description: "Moderate risk zone with increasing development"},
		{Name: "Chandauli Highlands", Location: model.LatLng{Lat: 25.2571, Lng: 83.2760}, RiskLevel: 5,
			Description: "Mixed forest and agricultural land with moderate slopes"},
	}
}

func seedFacilities() []model.EmergencyFacility {
	return []model.EmergencyFacility{
		{Name: "District Hospital Mirzapur", FacilityType: model.FacilityHospital,
			Location:      model.LatLng{Lat: 25.1460, Lng: 82.5710},
			ContactNumber: "+91-5442-222222", Address: "Civil Lines, Mirzapur, UP"},
		{Name: "Chitrakoot Medical Center", FacilityType: model.FacilityHospital,
			Location:      model.LatLng{Lat: 25.2045, Lng: 80.9204},
			ContactNumber: "+91-5198-224567", Address: "Karwi Road, Chitrakoot, UP"},
		{Name: "Sonbhadra Rescue Center", FacilityType: model.FacilityRescueCenter,
			Location:      model.LatLng{Lat: 24.6798, Lng: 83.0645},
			ContactNumber: "+91-5444-233333", Address: "Main Road, Robertsganj, Sonbhadra, UP"},
		{Name: "UP State Disaster Response Center", FacilityType: model.FacilityRescueCenter,
			Location:      model.LatLng{Lat: 25.1502, Lng: 82.5744},
			ContactNumber: "+91-5442-255555", Address: "Airport Road, Mirzapur, UP"},
		{Name: "Chandauli Landslide Mitigation Center", FacilityType: model.FacilityMitigationCenter,
			Location:      model.LatLng{Lat: 25.2610, Lng: 83.2790},
			ContactNumber: "+91-5412-266666", Address: "Zamania Road, Chandauli, UP"},
	}
}

// seedSites are standalone monitoring sites loaded only on first run, when
// the reference tables are still empty.
func seedSites() []model.MonitoredLocation {
	return []model.MonitoredLocation{
		{
			Name: "Mirzapur Agricultural Valley", Description: "Agricultural land with frequent rainfall",
			Location: model.LatLng{Lat: 25.1420, Lng: 82.5625},
			Elevation: 90.0, TerrainType: "valley", VegetationDensity: ptr(65.0), IsActive: true,
		},
		{
			Name: "Chitrakoot Mountain Pass", Description: "Steep slopes with sparse vegetation",
			Location: model.LatLng{Lat: 25.2100, Lng: 80.9150},
			Elevation: 320.0, TerrainType: "mountain", VegetationDensity: ptr(25.0), IsActive: true,
		},
		{
			Name: "Sonbhadra Mining Area", Description: "Surface mining with disturbed soil",
			Location: model.LatLng{Lat: 24.6750, Lng: 83.0620},
			Elevation: 185.0, TerrainType: "hill", VegetationDensity: ptr(10.0), IsActive: true,
		},
		{
			Name: "Robertsganj River Bank", Description: "River bank with erosion concerns",
			Location: model.LatLng{Lat: 24.7125, Lng: 83.0680},
			Elevation: 110.0, TerrainType: "riverside", VegetationDensity: ptr(40.0), IsActive: true,
		},
		{
			Name: "Chandauli Forest Reserve", Description: "Dense forest with moderate slopes",
			Location: model.LatLng{Lat: 25.2550, Lng: 83.2730},
			Elevation: 230.0, TerrainType: "forest", VegetationDensity: ptr(85.0), IsActive: true,
		},
	}
}

// seedEvents are past landslides with the sensor conditions observed at the
// time, so the historical similarity analysis has data to compare against.
func seedEvents(now time.Time) []model.LandslideEvent {
	return []model.LandslideEvent{
		{
			Timestamp: now.AddDate(-1, -2, 0),
			Location:  model.LatLng{Lat: 25.1475, Lng: 82.5680}, Severity: 7,
			Description: "Monsoon slope failure near Mirzapur Hills after sustained heavy rain",
			Rainfall:    ptr(86.0), Temperature: ptr(29.5), SoilMoisture: ptr(82.0),
		},
		{
			Timestamp: now.AddDate(-2, 1, 0),
			Location:  model.LatLng{Lat: 24.6770, Lng: 83.0600}, Severity: 9,
			Description: "Major slide at a Sonbhadra mining bench, access road cut off",
			Rainfall:    ptr(112.0), Temperature: ptr(27.0), SoilMoisture: ptr(88.0),
		},
		{
			Timestamp: now.AddDate(-1, -8, 0),
			Location:  model.LatLng{Lat: 25.2120, Lng: 80.9100}, Severity: 5,
			Description: "Rockfall on the Chitrakoot pass road, cleared within a day",
			Rainfall:    ptr(54.0), Temperature: ptr(31.0), SoilMoisture: ptr(64.0),
		},
		{
			Timestamp: now.AddDate(-3, 0, 0),
			Location:  model.LatLng{Lat: 25.2565, Lng: 83.2745}, Severity: 4,
			Description: "Minor debris flow in the Chandauli forest reserve",
			Rainfall:    ptr(48.0), Temperature: ptr(26.5), SoilMoisture: ptr(58.0),
		},
	}
}
