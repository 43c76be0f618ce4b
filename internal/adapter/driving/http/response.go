package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/krishiai/internal/application"
	"github.com/ericfisherdev/krishiai/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status       string `json:"status"`
	Time         string `json:"time"`
	Database     string `json:"database,omitempty"`
	AIKeys       int    `json:"ai_keys"`
	MarketLive   bool   `json:"market_live"`
	PhotoArchive bool   `json:"photo_archive"`
}

// RegisterRequest is the JSON body for the register endpoint.
type RegisterRequest struct {
	Name       string `json:"name"`
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	Village    string `json:"village"`
	State      string `json:"state"`
	Language   string `json:"language"`
}

// LoginRequest is the JSON body for the login endpoint.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// UserResponse is the JSON representation of a farmer account.
type UserResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Identifier string `json:"identifier"`
	Village    string `json:"village"`
	State      string `json:"state"`
	Language   string `json:"language"`
	CreatedAt  string `json:"created_at"`
}

// SessionResponse is returned by login and register.
type SessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// DiagnosisResponse is the JSON representation of a diagnosis.
type DiagnosisResponse struct {
	ID         string   `json:"id"`
	CropName   string   `json:"crop_name"`
	Disease    string   `json:"disease"`
	IsHealthy  bool     `json:"is_healthy"`
	Confidence float64  `json:"confidence"`
	Severity   string   `json:"severity"`
	Symptoms   []string `json:"symptoms"`
	Causes     []string `json:"causes"`
	Treatment  []string `json:"treatment"`
	Prevention []string `json:"prevention"`
	Summary    string   `json:"summary"`
	Language   string   `json:"language"`
	Archived   bool     `json:"image_archived"`
	CreatedAt  string   `json:"created_at"`
}

// ChatRequest is the JSON body for a follow-up question.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatMessageResponse is the JSON representation of one chat message.
type ChatMessageResponse struct {
	ID        int64  `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

// CropDetailsResponse is the JSON representation of an autofill result.
type CropDetailsResponse struct {
	CropName         string `json:"crop_name"`
	Variety          string `json:"variety"`
	GrowthStage      string `json:"growth_stage"`
	EstimatedAgeDays int    `json:"estimated_age_days"`
	HealthStatus     string `json:"health_status"`
	Notes            string `json:"notes"`
}

// GuideSummaryResponse is a guide listing entry.
type GuideSummaryResponse struct {
	Crop     string `json:"crop"`
	Language string `json:"language"`
	Title    string `json:"title"`
	Season   string `json:"season"`
}

// GuideResponse is the JSON representation of a cultivation guide. Content
// is markdown.
type GuideResponse struct {
	Crop      string `json:"crop"`
	Language  string `json:"language"`
	Title     string `json:"title"`
	Season    string `json:"season"`
	SoilType  string `json:"soil_type"`
	Duration  string `json:"duration"`
	Content   string `json:"content"`
	Generated bool   `json:"generated"`
	CreatedAt string `json:"created_at"`
}

// MarketPriceResponse is one mandi quote in rupees per quintal.
type MarketPriceResponse struct {
	Commodity   string  `json:"commodity"`
	Variety     string  `json:"variety"`
	State       string  `json:"state"`
	District    string  `json:"district"`
	Market      string  `json:"market"`
	MinPrice    float64 `json:"min_price"`
	MaxPrice    float64 `json:"max_price"`
	ModalPrice  float64 `json:"modal_price"`
	ArrivalDate string  `json:"arrival_date"`
}

// MarketPricesResponse is the result of a price lookup.
type MarketPricesResponse struct {
	Commodity string                `json:"commodity"`
	State     string                `json:"state,omitempty"`
	Source    string                `json:"source"`
	Prices    []MarketPriceResponse `json:"prices"`
}

// ProfitRequest is the JSON body for the profit estimate endpoint.
type ProfitRequest struct {
	Commodity    string  `json:"commodity"`
	State        string  `json:"state"`
	AreaAcres    float64 `json:"area_acres"`
	YieldPerAcre float64 `json:"yield_per_acre"`
	CostPerAcre  float64 `json:"cost_per_acre"`
	PricePerQtl  float64 `json:"price_per_quintal"`
}

// ProfitResponse is the JSON representation of a profit estimate.
type ProfitResponse struct {
	Commodity    string  `json:"commodity"`
	AreaAcres    float64 `json:"area_acres"`
	YieldPerAcre float64 `json:"yield_per_acre"`
	CostPerAcre  float64 `json:"cost_per_acre"`
	PricePerQtl  float64 `json:"price_per_quintal"`
	PriceSource  string  `json:"price_source"`
	TotalYield   float64 `json:"total_yield_quintal"`
	Revenue      float64 `json:"revenue"`
	TotalCost    float64 `json:"total_cost"`
	Profit       float64 `json:"profit"`
	MarginPct    float64 `json:"margin_pct"`
}

// WeatherResponse is a forecast with its advisories.
type WeatherResponse struct {
	Latitude   float64            `json:"latitude"`
	Longitude  float64            `json:"longitude"`
	Current    CurrentWeather     `json:"current"`
	Daily      []DailyWeather     `json:"daily"`
	Advisories []AdvisoryResponse `json:"advisories"`
}

// CurrentWeather is the current-conditions part of WeatherResponse.
type CurrentWeather struct {
	TemperatureC    float64 `json:"temperature_c"`
	HumidityPct     float64 `json:"humidity_pct"`
	PrecipitationMM float64 `json:"precipitation_mm"`
	WindSpeedKmh    float64 `json:"wind_speed_kmh"`
	WeatherCode     int     `json:"weather_code"`
}

// DailyWeather is one forecast day.
type DailyWeather struct {
	Date            string  `json:"date"`
	MaxTempC        float64 `json:"max_temp_c"`
	MinTempC        float64 `json:"min_temp_c"`
	PrecipitationMM float64 `json:"precipitation_mm"`
	RainChancePct   float64 `json:"rain_chance_pct"`
	MaxWindKmh      float64 `json:"max_wind_kmh"`
}

// AdvisoryResponse is one farming advisory.
type AdvisoryResponse struct {
	Code    string `json:"code"`
	Level   string `json:"level"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

func toHealthResponse(r application.HealthReport) HealthResponse {
	return HealthResponse{
		Status:       r.Status,
		Time:         formatTime(r.CheckedAt),
		Database:     r.Database,
		AIKeys:       r.AIKeys,
		MarketLive:   r.MarketLive,
		PhotoArchive: r.PhotoArchive,
	}
}

func toUserResponse(u model.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Name:       u.Name,
		Identifier: u.Identifier,
		Village:    u.Village,
		State:      u.State,
		Language:   string(u.Language),
		CreatedAt:  formatTime(u.CreatedAt),
	}
}

func toDiagnosisResponse(d model.Diagnosis) DiagnosisResponse {
	return DiagnosisResponse{
		ID:         d.ID,
		CropName:   d.CropName,
		Disease:    d.Disease,
		IsHealthy:  d.IsHealthy,
		Confidence: d.Confidence,
		Severity:   string(d.Severity),
		Symptoms:   nonNil(d.Symptoms),
		Causes:     nonNil(d.Causes),
		Treatment:  nonNil(d.Treatment),
		Prevention: nonNil(d.Prevention),
		Summary:    d.Summary,
		Language:   string(d.Language),
		Archived:   d.ImageKey != "",
		CreatedAt:  formatTime(d.CreatedAt),
	}
}

func toChatMessageResponse(m model.ChatMessage) ChatMessageResponse {
	return ChatMessageResponse{
		ID:        m.ID,
		Role:      string(m.Role),
		Content:   m.Content,
		CreatedAt: formatTime(m.CreatedAt),
	}
}

func toGuideResponse(g model.CropGuide) GuideResponse {
	return GuideResponse{
		Crop:      g.Crop,
		Language:  string(g.Language),
		Title:     g.Title,
		Season:    g.Season,
		SoilType:  g.SoilType,
		Duration:  g.Duration,
		Content:   g.Content,
		Generated: g.Generated,
		CreatedAt: formatTime(g.CreatedAt),
	}
}

func toMarketPricesResponse(q application.PriceQuotes) MarketPricesResponse {
	prices := make([]MarketPriceResponse, 0, len(q.Prices))
	for _, p := range q.Prices {
		prices = append(prices, MarketPriceResponse{
			Commodity:   p.Commodity,
			Variety:     p.Variety,
			State:       p.State,
			District:    p.District,
			Market:      p.Market,
			MinPrice:    p.MinPrice,
			MaxPrice:    p.MaxPrice,
			ModalPrice:  p.ModalPrice,
			ArrivalDate: p.ArrivalDate.Format(time.DateOnly),
		})
	}
	return MarketPricesResponse{
		Commodity: q.Commodity,
		State:     q.State,
		Source:    q.Source,
		Prices:    prices,
	}
}

func toProfitResponse(e model.ProfitEstimate) ProfitResponse {
	return ProfitResponse(e)
}

func toWeatherResponse(a application.WeatherAdvice) WeatherResponse {
	r := a.Report
	resp := WeatherResponse{
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Current: CurrentWeather{
			TemperatureC:    r.Current.TemperatureC,
			HumidityPct:     r.Current.HumidityPct,
			PrecipitationMM: r.Current.PrecipitationMM,
			WindSpeedKmh:    r.Current.WindSpeedKmh,
			WeatherCode:     r.Current.WeatherCode,
		},
		Daily:      make([]DailyWeather, 0, len(r.Daily)),
		Advisories: make([]AdvisoryResponse, 0, len(a.Advisories)),
	}
	for _, d := range r.Daily {
		resp.Daily = append(resp.Daily, DailyWeather{
			Date:            d.Date.Format(time.DateOnly),
			MaxTempC:        d.MaxTempC,
			MinTempC:        d.MinTempC,
			PrecipitationMM: d.PrecipitationMM,
			RainChancePct:   d.RainChancePct,
			MaxWindKmh:      d.MaxWindKmh,
		})
	}
	for _, adv := range a.Advisories {
		resp.Advisories = append(resp.Advisories, AdvisoryResponse{
			Code:    adv.Code,
			Level:   string(adv.Level),
			Title:   adv.Title,
			Message: adv.Message,
		})
	}
	return resp
}
