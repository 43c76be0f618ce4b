package application_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ericfisherdev/krishiai/internal/domain/model"
	"github.com/ericfisherdev/krishiai/internal/domain/port/driven"
)

// Minimal image payloads that http.DetectContentType recognizes.
var (
	jpegBytes = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")
	pngBytes  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
)

// --- AIClient ---

type mockAI struct {
	diagnose func(ctx context.Context, img driven.Image, lang model.Language) (model.DiagnosisResult, error)
	chat     func(ctx context.Context, d model.Diagnosis, history []model.ChatMessage, question string) (string, error)
	describe func(ctx context.Context, img driven.Image) (model.CropDetails, error)
	guide    func(ctx context.Context, crop string, lang model.Language) (model.CropGuide, error)

	guideCalls int
}

func (m *mockAI) DiagnoseImage(ctx context.Context, img driven.Image, lang model.Language) (model.DiagnosisResult, error) {
	return m.diagnose(ctx, img, lang)
}

func (m *mockAI) Chat(ctx context.Context, d model.Diagnosis, history []model.ChatMessage, question string) (string, error) {
	return m.chat(ctx, d, history, question)
}

func (m *mockAI) DescribeCrop(ctx context.Context, img driven.Image) (model.CropDetails, error) {
	return m.describe(ctx, img)
}

func (m *mockAI) GenerateGuide(ctx context.Context, crop string, lang model.Language) (model.CropGuide, error) {
	m.guideCalls++
	return m.guide(ctx, crop, lang)
}

// --- UserStore ---

type mockUserStore struct {
	users  map[string]model.User
	nextID int64
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{users: map[string]model.User{}}
}

func (m *mockUserStore) Create(_ context.Context, u model.User) (model.User, error) {
	if _, ok := m.users[u.Identifier]; ok {
		return model.User{}, driven.ErrUserExists
	}
	m.nextID++
	u.ID = m.nextID
	u.CreatedAt = time.Now()
	m.users[u.Identifier] = u
	return u, nil
}

func (m *mockUserStore) GetByIdentifier(_ context.Context, identifier string) (*model.User, error) {
	u, ok := m.users[identifier]
	if !ok {
		return nil, driven.ErrUserNotFound
	}
	return &u, nil
}

func (m *mockUserStore) GetByID(_ context.Context, id int64) (*model.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, driven.ErrUserNotFound
}

// --- DiagnosisStore / ChatStore ---

type mockDiagnosisStore struct {
	created   []model.Diagnosis
	byID      map[string]model.Diagnosis
	createErr error
}

func newMockDiagnosisStore(existing ...model.Diagnosis) *mockDiagnosisStore {
	m := &mockDiagnosisStore{byID: map[string]model.Diagnosis{}}
	for _, d := range existing {
		m.byID[d.ID] = d
	}
	return m
}

func (m *mockDiagnosisStore) Create(_ context.Context, d model.Diagnosis) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, d)
	m.byID[d.ID] = d
	return nil
}

func (m *mockDiagnosisStore) Get(_ context.Context, userID int64, id string) (*model.Diagnosis, error) {
	d, ok := m.byID[id]
	if !ok || d.UserID != userID {
		return nil, driven.ErrDiagnosisNotFound
	}
	return &d, nil
}

func (m *mockDiagnosisStore) ListByUser(_ context.Context, userID int64, limit int) ([]model.Diagnosis, error) {
	out := []model.Diagnosis{}
	for _, d := range m.byID {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type mockChatStore struct {
	messages  []model.ChatMessage
	lastLimit int
	appendErr error
}

func (m *mockChatStore) AppendExchange(_ context.Context, question, answer model.ChatMessage) (model.ChatMessage, error) {
	if m.appendErr != nil {
		return model.ChatMessage{}, m.appendErr
	}
	question.ID = int64(len(m.messages) + 1)
	answer.ID = question.ID + 1
	m.messages = append(m.messages, question, answer)
	return answer, nil
}

func (m *mockChatStore) ListByDiagnosis(_ context.Context, diagnosisID string, limit int) ([]model.ChatMessage, error) {
	m.lastLimit = limit
	out := []model.ChatMessage{}
	for _, msg := range m.messages {
		if msg.DiagnosisID == diagnosisID {
			out = append(out, msg)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// --- CropGuideStore ---

type mockGuideStore struct {
	guides map[string]model.CropGuide
	// insertErr, when set, is returned by Insert after the competing guide is stored.
	insertErr error
	competing *model.CropGuide
	inserted  []model.CropGuide
}

func guideKey(crop string, lang model.Language) string { return crop + "|" + string(lang) }

func (m *mockGuideStore) Get(_ context.Context, crop string, lang model.Language) (*model.CropGuide, error) {
	g, ok := m.guides[guideKey(crop, lang)]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (m *mockGuideStore) Insert(_ context.Context, g model.CropGuide) (model.CropGuide, error) {
	if m.insertErr != nil {
		if m.competing != nil {
			m.guides[guideKey(m.competing.Crop, m.competing.Language)] = *m.competing
		}
		return model.CropGuide{}, m.insertErr
	}
	g.ID = int64(len(m.inserted) + 1)
	m.inserted = append(m.inserted, g)
	m.guides[guideKey(g.Crop, g.Language)] = g
	return g, nil
}

func (m *mockGuideStore) List(_ context.Context, lang model.Language) ([]model.CropGuide, error) {
	out := []model.CropGuide{}
	for _, g := range m.guides {
		if g.Language == lang {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Crop < out[j].Crop })
	return out, nil
}

// --- MarketPriceStore / MarketClient ---

type mockPriceStore struct {
	mu       sync.Mutex
	upserted []model.MarketPrice
	latest   map[string][]model.MarketPrice
	lookups  map[string]time.Time
}

func newMockPriceStore() *mockPriceStore {
	return &mockPriceStore{latest: map[string][]model.MarketPrice{}, lookups: map[string]time.Time{}}
}

func (m *mockPriceStore) Upsert(_ context.Context, prices []model.MarketPrice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserted = append(m.upserted, prices...)
	return nil
}

func (m *mockPriceStore) Latest(_ context.Context, commodity, _ string) ([]model.MarketPrice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latest[strings.ToLower(commodity)], nil
}

func (m *mockPriceStore) TouchLookup(_ context.Context, commodity string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups[commodity] = at
	return nil
}

func (m *mockPriceStore) LastLookups(_ context.Context) (map[string]time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]time.Time, len(m.lookups))
	for k, v := range m.lookups {
		out[k] = v
	}
	return out, nil
}

type mockMarketClient struct {
	prices []model.MarketPrice
	err    error
	calls  int
}

func (m *mockMarketClient) FetchPrices(_ context.Context, _, _ string, _ int) ([]model.MarketPrice, error) {
	m.calls++
	return m.prices, m.err
}

// --- WeatherClient ---

type mockWeatherClient struct {
	report   *model.WeatherReport
	err      error
	lastDays int
}

func (m *mockWeatherClient) Forecast(_ context.Context, _, _ float64, days int) (*model.WeatherReport, error) {
	m.lastDays = days
	return m.report, m.err
}

// --- ImageStore ---

type mockImageStore struct {
	keys    []string
	deleted []string
	err     error
}

func (m *mockImageStore) Put(_ context.Context, key string, _ driven.Image) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.keys = append(m.keys, key)
	return key, nil
}

func (m *mockImageStore) Delete(_ context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	return nil
}

// --- CredentialStore ---

type mockCredentialStore struct {
	values map[string]string
	err    error
}

func (m *mockCredentialStore) Set(_ context.Context, service, key, plaintext string) error {
	m.values[service+"/"+key] = plaintext
	return nil
}

func (m *mockCredentialStore) Get(_ context.Context, service, key string) (string, error) {
	return m.values[service+"/"+key], m.err
}

func (m *mockCredentialStore) GetAll(_ context.Context, service string) (map[string]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := map[string]string{}
	for k, v := range m.values {
		if after, ok := strings.CutPrefix(k, service+"/"); ok {
			out[after] = v
		}
	}
	return out, nil
}

func (m *mockCredentialStore) List(_ context.Context) ([]model.Credential, error) {
	return nil, m.err
}

func (m *mockCredentialStore) Delete(_ context.Context, service, key string) error {
	delete(m.values, service+"/"+key)
	return nil
}
