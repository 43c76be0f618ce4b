// Package weather implements the WeatherClient port against the Open-Meteo
// forecast API.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/ericfisherdev/krishiai/internal/domain/model"
	"github.com/ericfisherdev/krishiai/internal/domain/port/driven"
)

// DefaultBaseURL is the public Open-Meteo endpoint.
const DefaultBaseURL = "https://api.open-meteo.com"

const (
	currentFields = "temperature_2m,relative_humidity_2m,precipitation,wind_speed_10m,weather_code"
	dailyFields   = "temperature_2m_max,temperature_2m_min,precipitation_sum,precipitation_probability_max,wind_speed_10m_max"
)

// Compile-time interface satisfaction check.
var _ driven.WeatherClient = (*Client)(nil)

// Client implements driven.WeatherClient.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a weather client with an in-memory HTTP cache so repeated
// lookups for the same coordinates honor the API's cache headers.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{
			Transport: httpcache.NewMemoryCacheTransport(),
			Timeout:   15 * time.Second,
		},
		baseURL: baseURL,
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client.
// This constructor is intended for testing against an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) *Client {
	return &Client{httpClient: httpClient, baseURL: baseURL}
}

// forecastResponse is the subset of the Open-Meteo response we use.
type forecastResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Current   struct {
		Temperature   float64 `json:"temperature_2m"`
		Humidity      float64 `json:"relative_humidity_2m"`
		Precipitation float64 `json:"precipitation"`
		WindSpeed     float64 `json:"wind_speed_10m"`
		WeatherCode   int     `json:"weather_code"`
	} `json:"current"`
	Daily struct {
		Time             []string  `json:"time"`
		MaxTemp          []float64 `json:"temperature_2m_max"`
		MinTemp          []float64 `json:"temperature_2m_min"`
		Precipitation    []float64 `json:"precipitation_sum"`
		PrecipitationPct []float64 `json:"precipitation_probability_max"`
		MaxWind          []float64 `json:"wind_speed_10m_max"`
	} `json:"daily"`
}

type errorResponse struct {
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

// Forecast returns current conditions and a days-long daily forecast.
func (c *Client) Forecast(ctx context.Context, lat, lon float64, days int) (*model.WeatherReport, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
	q.Set("current", currentFields)
	q.Set("daily", dailyFields)
	q.Set("forecast_days", strconv.Itoa(days))
	q.Set("timezone", "auto")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/forecast?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build forecast request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch forecast: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Reason != "" {
			return nil, fmt.Errorf("fetch forecast: HTTP %d: %s", resp.StatusCode, apiErr.Reason)
		}
		return nil, fmt.Errorf("fetch forecast: HTTP %d", resp.StatusCode)
	}

	var fr forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&fr); err != nil {
		return nil, fmt.Errorf("decode forecast: %w", err)
	}

	return toReport(fr), nil
}

func toReport(fr forecastResponse) *model.WeatherReport {
	report := &model.WeatherReport{
		Latitude:  fr.Latitude,
		Longitude: fr.Longitude,
		Current: model.WeatherConditions{
			TemperatureC:    fr.Current.Temperature,
			HumidityPct:     fr.Current.Humidity,
			PrecipitationMM: fr.Current.Precipitation,
			WindSpeedKmh:    fr.Current.WindSpeed,
			WeatherCode:     fr.Current.WeatherCode,
		},
		Daily:     make([]model.DailyForecast, 0, len(fr.Daily.Time)),
		FetchedAt: time.Now().UTC(),
	}

	for i, day := range fr.Daily.Time {
		date, err := time.Parse(time.DateOnly, day)
		if err != nil {
			continue
		}
		report.Daily = append(report.Daily, model.DailyForecast{
			Date:            date,
			MaxTempC:        at(fr.Daily.MaxTemp, i),
			MinTempC:        at(fr.Daily.MinTemp, i),
			PrecipitationMM: at(fr.Daily.Precipitation, i),
			RainChancePct:   at(fr.Daily.PrecipitationPct, i),
			MaxWindKmh:      at(fr.Daily.MaxWind, i),
		})
	}
	return report
}

// at tolerates daily series shorter than the time axis.
func at(series []float64, i int) float64 {
	if i < len(series) {
		return series[i]
	}
	return 0
}
