package application

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/ericfisherdev/krishiai/internal/domain/model"
	"github.com/ericfisherdev/krishiai/internal/domain/port/driven"
)

// ErrInvalidLocation is returned for coordinates outside the valid range.
var ErrInvalidLocation = errors.New("invalid location")

const forecastDays = 7

// advisoryWindow is how many forecast days the rain, heat and frost rules
// look ahead.
const advisoryWindow = 3

// Advisory thresholds.
const (
	heavyRainMM       = 50.0
	rainMM            = 20.0
	rainChancePct     = 70.0
	heatAlertC        = 40.0
	heatWarningC      = 37.0
	frostAlertC       = 2.0
	frostWarningC     = 4.0
	windCurrentKmh    = 30.0
	windDailyKmh      = 40.0
	fungalHumidityPct = 85.0
)

// WeatherAdvice is a forecast with the farming advisories derived from it.
type WeatherAdvice struct {
	Report     *model.WeatherReport
	Advisories []model.Advisory
}

// WeatherService turns forecasts into farming advisories.
type WeatherService struct {
	client driven.WeatherClient
}

// NewWeatherService creates a WeatherService.
func NewWeatherService(client driven.WeatherClient) *WeatherService {
	return &WeatherService{client: client}
}

// Advisory fetches the forecast for the location and evaluates the rules.
func (s *WeatherService) Advisory(ctx context.Context, lat, lon float64) (WeatherAdvice, error) {
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return WeatherAdvice{}, fmt.Errorf("%w: lat %v lon %v", ErrInvalidLocation, lat, lon)
	}

	report, err := s.client.Forecast(ctx, lat, lon, forecastDays)
	if err != nil {
		return WeatherAdvice{}, fmt.Errorf("fetch forecast: %w", err)
	}
	if report == nil {
		return WeatherAdvice{}, fmt.Errorf("fetch forecast: no report for lat %v lon %v", lat, lon)
	}

	return WeatherAdvice{Report: report, Advisories: Advise(report)}, nil
}

// Advise evaluates the advisory rules against a report. The result is never
// empty: a favourable-conditions note is returned when no rule fires.
func Advise(report *model.WeatherReport) []model.Advisory {
	advisories := []model.Advisory{}

	days := report.Daily
	if len(days) > advisoryWindow {
		days = days[:advisoryWindow]
	}

	var maxRain, maxChance, maxTemp, maxWind float64
	minTemp := math.Inf(1)
	for _, d := range days {
		maxRain = math.Max(maxRain, d.PrecipitationMM)
		maxChance = math.Max(maxChance, d.RainChancePct)
		maxTemp = math.Max(maxTemp, d.MaxTempC)
		maxWind = math.Max(maxWind, d.MaxWindKmh)
		minTemp = math.Min(minTemp, d.MinTempC)
	}

	switch {
	case maxRain >= heavyRainMM:
		advisories = append(advisories, model.Advisory{
			Code:    "heavy_rain",
			Level:   model.AdvisoryAlert,
			Title:   "Heavy rain expected",
			Message: fmt.Sprintf("Up to %.0f mm of rain is forecast. Clear field drains, delay fertilizer and pesticide application, and move harvested produce under cover.", maxRain),
		})
	case maxRain >= rainMM || maxChance >= rainChancePct:
		advisories = append(advisories, model.Advisory{
			Code:    "rain_expected",
			Level:   model.AdvisoryWarning,
			Title:   "Rain likely",
			Message: "Rain is likely in the next few days. Postpone spraying and skip irrigation until it passes.",
		})
	}

	switch {
	case maxTemp >= heatAlertC:
		advisories = append(advisories, model.Advisory{
			Code:    "heat_stress",
			Level:   model.AdvisoryAlert,
			Title:   "Extreme heat",
			Message: fmt.Sprintf("Temperatures up to %.0f°C are forecast. Irrigate in the early morning or evening and mulch to keep soil moisture.", maxTemp),
		})
	case maxTemp >= heatWarningC:
		advisories = append(advisories, model.Advisory{
			Code:    "heat_stress",
			Level:   model.AdvisoryWarning,
			Title:   "Hot days ahead",
			Message: "High temperatures may stress young plants. Keep the soil moist and avoid midday field work.",
		})
	}

	if len(days) > 0 {
		switch {
		case minTemp <= frostAlertC:
			advisories = append(advisories, model.Advisory{
				Code:    "frost",
				Level:   model.AdvisoryAlert,
				Title:   "Frost risk",
				Message: fmt.Sprintf("Night temperatures may fall to %.0f°C. Give a light irrigation in the evening and cover nursery beds.", minTemp),
			})
		case minTemp <= frostWarningC:
			advisories = append(advisories, model.Advisory{
				Code:    "frost",
				Level:   model.AdvisoryWarning,
				Title:   "Cold nights",
				Message: "Cold nights are forecast. Protect seedlings and sensitive vegetables.",
			})
		}
	}

	if report.Current.WindSpeedKmh >= windCurrentKmh || maxWind >= windDailyKmh {
		advisories = append(advisories, model.Advisory{
			Code:    "high_wind",
			Level:   model.AdvisoryWarning,
			Title:   "Strong wind",
			Message: "Avoid spraying in strong wind and stake tall crops such as banana and sugarcane.",
		})
	}

	cur := report.Current
	if cur.HumidityPct >= fungalHumidityPct && cur.TemperatureC >= 15 && cur.TemperatureC <= 30 {
		advisories = append(advisories, model.Advisory{
			Code:    "fungal_risk",
			Level:   model.AdvisoryWarning,
			Title:   "Fungal disease risk",
			Message: "Humid, mild weather favours blight and mildew. Inspect leaves closely and keep a preventive fungicide ready.",
		})
	}

	if len(advisories) == 0 {
		advisories = append(advisories, model.Advisory{
			Code:    "favourable",
			Level:   model.AdvisoryInfo,
			Title:   "Favourable conditions",
			Message: "No adverse weather is expected. A good window for sowing, spraying and field work.",
		})
	}
	return advisories
}
