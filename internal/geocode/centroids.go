package geocode

import (
	"strings"

	"fire/internal/domain"
)

// CityCentroids maps major domestic cities to their centers. Used as
// the second-tier fallback when the provider finds nothing.
var CityCentroids = map[string]domain.GeoPoint{
	"алматы":           {Latitude: 43.238949, Longitude: 76.945465},
	"астана":           {Latitude: 51.128207, Longitude: 71.430411},
	"караганда":        {Latitude: 49.806406, Longitude: 73.085485},
	"шымкент":          {Latitude: 42.315514, Longitude: 69.596428},
	"актобе":           {Latitude: 50.283935, Longitude: 57.166978},
	"тараз":            {Latitude: 42.901183, Longitude: 71.378309},
	"павлодар":         {Latitude: 52.287430, Longitude: 76.967454},
	"усть-каменогорск": {Latitude: 49.948759, Longitude: 82.627808},
	"семей":            {Latitude: 50.411137, Longitude: 80.227607},
	"атырау":           {Latitude: 47.106700, Longitude: 51.903538},
	"костанай":         {Latitude: 53.214773, Longitude: 63.631557},
	"кызылорда":        {Latitude: 44.842614, Longitude: 65.502530},
	"актау":            {Latitude: 43.635100, Longitude: 51.169300},
	"петропавловск":    {Latitude: 54.865559, Longitude: 69.135552},
	"туркестан":        {Latitude: 43.297222, Longitude: 68.241389},
	"кокшетау":         {Latitude: 53.283333, Longitude: 69.383333},
	"талдыкорган":      {Latitude: 45.015833, Longitude: 78.373611},
	"жезказган":        {Latitude: 47.783333, Longitude: 67.766667},
	"экибастуз":        {Latitude: 51.723667, Longitude: 75.322278},
	"темиртау":         {Latitude: 50.054722, Longitude: 72.964722},
	// Old name for Astana, still common in address fields.
	"нур-султан": {Latitude: 51.128207, Longitude: 71.430411},
}

// regionCities maps each region to its administrative center. Third
// tier, useful for villages absent from the provider's index.
var regionCities = map[string]string{
	"акмолинская":          "кокшетау",
	"алматинская":          "алматы",
	"атырауская":           "атырау",
	"актюбинская":          "актобе",
	"жамбылская":           "тараз",
	"карагандинская":       "караганда",
	"костанайская":         "костанай",
	"кызылординская":       "кызылорда",
	"мангистауская":        "актау",
	"павлодарская":         "павлодар",
	"северо-казахстанская": "петропавловск",
	"туркестанская":        "туркестан",
	"восточно-казахстанская": "усть-каменогорск",
}

// cityCentroid matches a known city name inside the address.
func cityCentroid(address string) *domain.GeoPoint {
	lowered := strings.ToLower(address)
	for city, point := range CityCentroids {
		if strings.Contains(lowered, city) {
			p := point
			return &p
		}
	}
	return nil
}

// regionCentroid matches a known region name and resolves to its
// administrative center.
func regionCentroid(address string) *domain.GeoPoint {
	lowered := strings.ToLower(address)
	for region, city := range regionCities {
		if strings.Contains(lowered, region) {
			p := CityCentroids[city]
			return &p
		}
	}
	return nil
}
