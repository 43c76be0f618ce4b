package model

import "time"

// WeatherReport is current conditions plus a short daily forecast for a location.
type WeatherReport struct {
	Latitude  float64
	Longitude float64
	Current   WeatherConditions
	Daily     []DailyForecast
	FetchedAt time.Time
}

// WeatherConditions are point-in-time observations.
type WeatherConditions struct {
	TemperatureC    float64
	HumidityPct     float64
	PrecipitationMM float64
	WindSpeedKmh    float64
	WeatherCode     int
}

// DailyForecast summarizes one forecast day.
type DailyForecast struct {
	Date            time.Time
	MaxTempC        float64
	MinTempC        float64
	PrecipitationMM float64
	RainChancePct   float64
	MaxWindKmh      float64
}

// AdvisoryLevel ranks how urgently an advisory should be acted on.
type AdvisoryLevel string

const (
	AdvisoryInfo    AdvisoryLevel = "info"
	AdvisoryWarning AdvisoryLevel = "warning"
	AdvisoryAlert   AdvisoryLevel = "alert"
)

// Advisory is a farming recommendation derived from the weather.
type Advisory struct {
	Code    string
	Level   AdvisoryLevel
	Title   string
	Message string
}
