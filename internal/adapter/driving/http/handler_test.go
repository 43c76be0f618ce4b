package httphandler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httphandler "github.com/ericfisherdev/krishiai/internal/adapter/driving/http"
	"github.com/ericfisherdev/krishiai/internal/application"
	"github.com/ericfisherdev/krishiai/internal/domain/model"
	"github.com/ericfisherdev/krishiai/internal/domain/port/driven"
	"github.com/ericfisherdev/krishiai/internal/keyring"
)

var jpegBytes = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")

// --- Mock implementations ---

type mockUserStore struct {
	mu     sync.Mutex
	users  []model.User
	nextID int64
}

func (m *mockUserStore) Create(_ context.Context, u model.User) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Identifier == u.Identifier {
			return model.User{}, driven.ErrUserExists
		}
	}
	m.nextID++
	u.ID = m.nextID
	u.CreatedAt = time.Now().UTC()
	m.users = append(m.users, u)
	return u, nil
}

func (m *mockUserStore) GetByIdentifier(_ context.Context, identifier string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Identifier == identifier {
			return &u, nil
		}
	}
	return nil, driven.ErrUserNotFound
}

func (m *mockUserStore) GetByID(_ context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, driven.ErrUserNotFound
}

type mockDiagnosisStore struct {
	mu    sync.Mutex
	items []model.Diagnosis
}

func (m *mockDiagnosisStore) Create(_ context.Context, d model.Diagnosis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.CreatedAt = time.Now().UTC()
	m.items = append(m.items, d)
	return nil
}

func (m *mockDiagnosisStore) Get(_ context.Context, userID int64, id string) (*model.Diagnosis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.items {
		if d.ID == id && d.UserID == userID {
			return &d, nil
		}
	}
	return nil, driven.ErrDiagnosisNotFound
}

func (m *mockDiagnosisStore) ListByUser(_ context.Context, userID int64, _ int) ([]model.Diagnosis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Diagnosis
	for _, d := range m.items {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

type mockChatStore struct {
	msgs []model.ChatMessage
}

func (m *mockChatStore) AppendExchange(_ context.Context, question, answer model.ChatMessage) (model.ChatMessage, error) {
	question.ID = int64(len(m.msgs) + 1)
	answer.ID = question.ID + 1
	m.msgs = append(m.msgs, question, answer)
	return answer, nil
}

func (m *mockChatStore) ListByDiagnosis(_ context.Context, diagnosisID string, _ int) ([]model.ChatMessage, error) {
	var out []model.ChatMessage
	for _, msg := range m.msgs {
		if msg.DiagnosisID == diagnosisID {
			out = append(out, msg)
		}
	}
	return out, nil
}

// mockAI returns err from every call when set.
type mockAI struct {
	err error
}

func (m *mockAI) DiagnoseImage(context.Context, driven.Image, model.Language) (model.DiagnosisResult, error) {
	if m.err != nil {
		return model.DiagnosisResult{}, m.err
	}
	return model.DiagnosisResult{CropName: "Tomato", Disease: "Early blight", Severity: model.SeverityModerate, Confidence: 0.8}, nil
}

func (m *mockAI) Chat(context.Context, model.Diagnosis, []model.ChatMessage, string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return "Remove the affected leaves.", nil
}

func (m *mockAI) DescribeCrop(context.Context, driven.Image) (model.CropDetails, error) {
	if m.err != nil {
		return model.CropDetails{}, m.err
	}
	return model.CropDetails{CropName: "Wheat", GrowthStage: "tillering"}, nil
}

func (m *mockAI) GenerateGuide(_ context.Context, crop string, lang model.Language) (model.CropGuide, error) {
	if m.err != nil {
		return model.CropGuide{}, m.err
	}
	return model.CropGuide{Title: "Growing " + crop, Content: "## Soil\nLoam.", Language: lang}, nil
}

type mockGuideStore struct {
	guides []model.CropGuide
}

func (m *mockGuideStore) Get(_ context.Context, crop string, lang model.Language) (*model.CropGuide, error) {
	for _, g := range m.guides {
		if g.Crop == crop && g.Language == lang {
			return &g, nil
		}
	}
	return nil, nil
}

func (m *mockGuideStore) Insert(_ context.Context, g model.CropGuide) (model.CropGuide, error) {
	g.ID = int64(len(m.guides) + 1)
	m.guides = append(m.guides, g)
	return g, nil
}

func (m *mockGuideStore) List(_ context.Context, lang model.Language) ([]model.CropGuide, error) {
	var out []model.CropGuide
	for _, g := range m.guides {
		if g.Language == lang {
			out = append(out, g)
		}
	}
	return out, nil
}

type mockPriceStore struct {
	prices []model.MarketPrice
}

func (m *mockPriceStore) Upsert(_ context.Context, prices []model.MarketPrice) error {
	m.prices = append(m.prices, prices...)
	return nil
}

func (m *mockPriceStore) Latest(_ context.Context, commodity, _ string) ([]model.MarketPrice, error) {
	var out []model.MarketPrice
	for _, p := range m.prices {
		if strings.EqualFold(p.Commodity, commodity) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockPriceStore) TouchLookup(context.Context, string, time.Time) error { return nil }

func (m *mockPriceStore) LastLookups(context.Context) (map[string]time.Time, error) {
	return map[string]time.Time{}, nil
}

type mockWeatherClient struct{}

func (mockWeatherClient) Forecast(_ context.Context, lat, lon float64, _ int) (*model.WeatherReport, error) {
	return &model.WeatherReport{
		Latitude:  lat,
		Longitude: lon,
		Current:   model.WeatherConditions{TemperatureC: 31, HumidityPct: 60, WindSpeedKmh: 8},
		Daily: []model.DailyForecast{
			{Date: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), MaxTempC: 34, MinTempC: 24, PrecipitationMM: 62, RainChancePct: 90},
		},
	}, nil
}

type staticKeys []string

func (k staticKeys) AIKeys(context.Context) ([]string, error) { return k, nil }

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

// --- Test helpers ---

type testEnv struct {
	ai     *mockAI
	users  *mockUserStore
	prices *mockPriceStore
	mux    http.Handler
}

func setupMux(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	env := &testEnv{ai: &mockAI{}, users: &mockUserStore{}, prices: &mockPriceStore{}}
	diagnoses := &mockDiagnosisStore{}

	sessions, err := application.NewSessionIssuer([]byte(strings.Repeat("s", 32)), time.Hour)
	require.NoError(t, err)

	svc := httphandler.Services{
		Auth:      application.NewAuthService(env.users),
		Sessions:  sessions,
		Diagnoses: application.NewDiagnosisService(env.ai, diagnoses, nil, logger),
		Chat:      application.NewChatService(env.ai, diagnoses, &mockChatStore{}),
		Crops:     application.NewCropService(env.ai),
		Guides:    application.NewCropGuideService(env.ai, &mockGuideStore{}, logger),
		Market:    application.NewMarketService(nil, env.prices, nil, logger),
		Weather:   application.NewWeatherService(mockWeatherClient{}),
		Health:    application.NewHealthService(pinger{}, staticKeys{"k1"}, false, false),
	}
	env.mux = httphandler.NewServeMux(httphandler.NewHandler(svc, false, logger), logger)
	return env
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func jsonRequest(method, path string, body any) *http.Request {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// register creates an account and returns its bearer token.
func (e *testEnv) register(t *testing.T) string {
	t.Helper()
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, jsonRequest(http.MethodPost, "/api/v1/auth/register", httphandler.RegisterRequest{
		Name:       "Ramesh",
		Identifier: "98765 43210",
		Password:   "khet-2026",
		State:      "Maharashtra",
		Language:   "mr",
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp httphandler.SessionResponse
	decodeJSON(t, rec, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func authed(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func photoUpload(t *testing.T, path string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "leaf.jpg")
	require.NoError(t, err)
	_, err = part.Write(jpegBytes)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// --- Tests ---

func TestHealth(t *testing.T) {
	env := setupMux(t)

	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp httphandler.HealthResponse
	decodeJSON(t, rec, &resp)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.AIKeys)
	assert.NotEmpty(t, resp.Time)
}

func TestHealth_DatabaseDown(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := httphandler.Services{
		Health: application.NewHealthService(pinger{err: errors.New("disk I/O error")}, staticKeys{"k1"}, false, false),
	}
	mux := httphandler.NewServeMux(httphandler.NewHandler(svc, false, logger), logger)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp httphandler.HealthResponse
	decodeJSON(t, rec, &resp)
	assert.Equal(t, "unavailable", resp.Status)
}

func TestRegisterAndMe(t *testing.T) {
	env := setupMux(t)
	token := env.register(t)

	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil), token))

	require.Equal(t, http.StatusOK, rec.Code)
	var user httphandler.UserResponse
	decodeJSON(t, rec, &user)
	assert.Equal(t, "Ramesh", user.Name)
	assert.Equal(t, "9876543210", user.Identifier)
	assert.Equal(t, "mr", user.Language)
}

func TestRegister_SetsSessionCookie(t *testing.T) {
	env := setupMux(t)

	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, jsonRequest(http.MethodPost, "/api/v1/auth/register", httphandler.RegisterRequest{
		Name: "Lakshmi", Identifier: "lakshmi@example.in", Password: "paddy-field",
	}))
	require.Equal(t, http.StatusCreated, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, httphandler.SessionCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	// The cookie alone authenticates.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegister_Errors(t *testing.T) {
	env := setupMux(t)
	env.register(t)

	tests := []struct {
		name       string
		body       any
		wantStatus int
	}{
		{
			name:       "duplicate identifier",
			body:       httphandler.RegisterRequest{Name: "Other", Identifier: "9876543210", Password: "password1"},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "short password",
			body:       httphandler.RegisterRequest{Name: "Other", Identifier: "9000000000", Password: "short"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed body",
			body:       "not an object",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			env.mux.ServeHTTP(rec, jsonRequest(http.MethodPost, "/api/v1/auth/register", tt.body))
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestLogin(t *testing.T) {
	env := setupMux(t)
	env.register(t)

	tests := []struct {
		name       string
		password   string
		wantStatus int
	}{
		{name: "correct password", password: "khet-2026", wantStatus: http.StatusOK},
		{name: "wrong password", password: "khet-2025", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			env.mux.ServeHTTP(rec, jsonRequest(http.MethodPost, "/api/v1/auth/login", httphandler.LoginRequest{
				Identifier: "98765-43210",
				Password:   tt.password,
			}))
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	env := setupMux(t)

	paths := []struct{ method, path string }{
		{http.MethodGet, "/api/v1/auth/me"},
		{http.MethodGet, "/api/v1/diagnoses"},
		{http.MethodPost, "/api/v1/diagnoses"},
		{http.MethodGet, "/api/v1/guides/wheat"},
		{http.MethodGet, "/api/v1/market/prices?commodity=wheat"},
		{http.MethodGet, "/api/v1/weather?lat=18.5&lon=73.8"},
	}

	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := authed(httptest.NewRequest(p.method, p.path, nil), "forged.token.value")
			env.mux.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestCreateDiagnosisAndChat(t *testing.T) {
	env := setupMux(t)
	token := env.register(t)

	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, authed(photoUpload(t, "/api/v1/diagnoses"), token))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var d httphandler.DiagnosisResponse
	decodeJSON(t, rec, &d)
	assert.Equal(t, "Early blight", d.Disease)
	assert.Equal(t, "mr", d.Language, "defaults to the user's language")
	assert.Equal(t, []string{}, d.Treatment)

	rec = httptest.NewRecorder()
	env.mux.ServeHTTP(rec, authed(jsonRequest(http.MethodPost, "/api/v1/diagnoses/"+d.ID+"/chat",
		httphandler.ChatRequest{Message: "What should I spray?"}), token))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var reply httphandler.ChatMessageResponse
	decodeJSON(t, rec, &reply)
	assert.Equal(t, "assistant", reply.Role)
	assert.Equal(t, "Remove the affected leaves.", reply.Content)

	rec = httptest.NewRecorder()
	env.mux.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/v1/diagnoses/"+d.ID+"/chat", nil), token))
	require.Equal(t, http.StatusOK, rec.Code)
	var history []httphandler.ChatMessageResponse
	decodeJSON(t, rec, &history)
	assert.Len(t, history, 2)
}

func TestGetDiagnosis_NotFound(t *testing.T) {
	env := setupMux(t)
	token := env.register(t)

	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/v1/diagnoses/missing", nil), token))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateDiagnosis_AIErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		retryAfter string
	}{
		{
			name:       "every key rate limited",
			err:        fmt.Errorf("diagnose image: %w: %w", driven.ErrAIRequestFailed, &keyring.ExhaustedError{Attempts: 2, Err: errors.New("quota exceeded")}),
			wantStatus: http.StatusTooManyRequests,
			retryAfter: "60",
		},
		{
			name:       "request rejected",
			err:        fmt.Errorf("diagnose image: %w: %w", driven.ErrAIRequestFailed, errors.New("API key not valid")),
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "no keys configured",
			err:        fmt.Errorf("diagnose image: %w", keyring.ErrNoCredentials),
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupMux(t)
			token := env.register(t)
			env.ai.err = tt.err

			rec := httptest.NewRecorder()
			env.mux.ServeHTTP(rec, authed(photoUpload(t, "/api/v1/diagnoses"), token))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.retryAfter, rec.Header().Get("Retry-After"))
			assert.NotContains(t, rec.Body.String(), "API key not valid")
		})
	}
}

func TestCreateDiagnosis_MissingImage(t *testing.T) {
	env := setupMux(t)
	token := env.register(t)

	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, authed(jsonRequest(http.MethodPost, "/api/v1/diagnoses", map[string]string{}), token))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAutofillCrop(t *testing.T) {
	env := setupMux(t)
	token := env.register(t)

	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, authed(photoUpload(t, "/api/v1/crops/autofill"), token))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var details httphandler.CropDetailsResponse
	decodeJSON(t, rec, &details)
	assert.Equal(t, "Wheat", details.CropName)
	assert.Equal(t, "tillering", details.GrowthStage)
}

func TestGetGuide(t *testing.T) {
	env := setupMux(t)
	token := env.register(t)

	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/v1/guides/Wheat?lang=hi", nil), token))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var guide httphandler.GuideResponse
	decodeJSON(t, rec, &guide)
	assert.Equal(t, "wheat", guide.Crop)
	assert.Equal(t, "hi", guide.Language)

	rec = httptest.NewRecorder()
	env.mux.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/v1/guides?lang=hi", nil), token))
	require.Equal(t, http.StatusOK, rec.Code)
	var list []httphandler.GuideSummaryResponse
	decodeJSON(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "wheat", list[0].Crop)
}

func TestGetGuide_RejectsBadCropName(t *testing.T) {
	env := setupMux(t)
	token := env.register(t)

	for _, crop := range []string{strings.Repeat("wheat", 20), "wheat%3Bdrop"} {
		rec := httptest.NewRecorder()
		env.mux.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/v1/guides/"+crop, nil), token))

		assert.Equal(t, http.StatusBadRequest, rec.Code, crop)
	}
}

func TestMarketPrices(t *testing.T) {
	env := setupMux(t)
	token := env.register(t)
	env.prices.prices = []model.MarketPrice{
		{Commodity: "Onion", State: "Maharashtra", Market: "Lasalgaon", ModalPrice: 1800, ArrivalDate: time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)},
	}

	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/v1/market/prices?commodity=onion", nil), token))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp httphandler.MarketPricesResponse
	decodeJSON(t, rec, &resp)
	assert.Equal(t, application.PriceSourceSnapshot, resp.Source)
	require.Len(t, resp.Prices, 1)
	assert.Equal(t, "Lasalgaon", resp.Prices[0].Market)

	rec = httptest.NewRecorder()
	env.mux.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/v1/market/prices?commodity=saffron", nil), token))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEstimateProfit(t *testing.T) {
	env := setupMux(t)
	token := env.register(t)

	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, authed(jsonRequest(http.MethodPost, "/api/v1/market/profit", httphandler.ProfitRequest{
		Commodity:   "Wheat",
		AreaAcres:   2,
		PricePerQtl: 2500,
	}), token))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var est httphandler.ProfitResponse
	decodeJSON(t, rec, &est)
	assert.Equal(t, application.PriceSourceInput, est.PriceSource)
	assert.InDelta(t, 36, est.TotalYield, 1e-9)
	assert.InDelta(t, 90000, est.Revenue, 1e-9)
	assert.InDelta(t, 46000, est.Profit, 1e-9)

	rec = httptest.NewRecorder()
	env.mux.ServeHTTP(rec, authed(jsonRequest(http.MethodPost, "/api/v1/market/profit", httphandler.ProfitRequest{
		Commodity: "Wheat",
	}), token))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWeatherAdvisory(t *testing.T) {
	env := setupMux(t)
	token := env.register(t)

	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/v1/weather?lat=18.52&lon=73.85", nil), token))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp httphandler.WeatherResponse
	decodeJSON(t, rec, &resp)
	require.NotEmpty(t, resp.Advisories)
	assert.Equal(t, "heavy_rain", resp.Advisories[0].Code)

	rec = httptest.NewRecorder()
	env.mux.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/v1/weather?lat=north", nil), token))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogout_ClearsCookie(t *testing.T) {
	env := setupMux(t)
	token := env.register(t)

	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil), token))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "", cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
}
