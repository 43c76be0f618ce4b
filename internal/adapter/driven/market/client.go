// Package market implements the MarketClient port against the data.gov.in
// Agmarknet daily mandi price resource.
package market

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/gregjones/httpcache"

	"github.com/ericfisherdev/krishiai/internal/domain/model"
	"github.com/ericfisherdev/krishiai/internal/domain/port/driven"
)

// DefaultBaseURL is the public data.gov.in API endpoint.
const DefaultBaseURL = "https://api.data.gov.in"

// resourceID identifies the "current daily price of various commodities from
// various markets (mandi)" dataset.
const resourceID = "9ef84268-d588-465a-a308-a864a43d0070"

// arrivalDateLayout is the dd/mm/yyyy format used by the dataset.
const arrivalDateLayout = "02/01/2006"

// Compile-time interface satisfaction check.
var _ driven.MarketClient = (*Client)(nil)

// Client implements driven.MarketClient.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger
}

// NewClient creates an Agmarknet client behind an in-memory HTTP cache.
func NewClient(baseURL, apiKey string, logger *slog.Logger) *Client {
	return NewClientWithHTTPClient(&http.Client{
		Transport: httpcache.NewMemoryCacheTransport(),
		Timeout:   20 * time.Second,
	}, baseURL, apiKey, logger)
}

// NewClientWithHTTPClient creates a Client with a custom http.Client.
// This constructor is intended for testing against an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, apiKey string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		logger:     logger,
	}
}

type recordsResponse struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Records []record `json:"records"`
}

type record struct {
	State       string    `json:"state"`
	District    string    `json:"district"`
	Market      string    `json:"market"`
	Commodity   string    `json:"commodity"`
	Variety     string    `json:"variety"`
	ArrivalDate string    `json:"arrival_date"`
	MinPrice    flexFloat `json:"min_price"`
	MaxPrice    flexFloat `json:"max_price"`
	ModalPrice  flexFloat `json:"modal_price"`
}

// flexFloat decodes prices the API returns either as numbers or as strings.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		*f = 0
		return nil
	}
	s := strings.Trim(string(b), "\"")
	if s == "" || strings.EqualFold(s, "NR") {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse price %q: %w", s, err)
	}
	*f = flexFloat(v)
	return nil
}

// FetchPrices returns current quotes for commodity, filtered by state when
// state is non-empty. Records without a usable modal price or arrival date are
// skipped.
func (c *Client) FetchPrices(ctx context.Context, commodity, state string, limit int) ([]model.MarketPrice, error) {
	q := url.Values{}
	q.Set("api-key", c.apiKey)
	q.Set("format", "json")
	q.Set("limit", strconv.Itoa(limit))
	q.Set("filters[commodity]", titleCase(commodity))
	if state != "" {
		q.Set("filters[state]", titleCase(state))
	}

	endpoint := c.baseURL + "/resource/" + resourceID + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build market request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The URL carries the API key; report only the operation.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("fetch market prices: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch market prices: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var rr recordsResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return nil, fmt.Errorf("decode market prices: %w", err)
	}
	if rr.Status != "" && rr.Status != "ok" {
		return nil, fmt.Errorf("market api status %q: %s", rr.Status, rr.Message)
	}

	fetched := time.Now().UTC()
	prices := make([]model.MarketPrice, 0, len(rr.Records))
	var skipped int
	for _, r := range rr.Records {
		arrival, err := time.Parse(arrivalDateLayout, strings.TrimSpace(r.ArrivalDate))
		if err != nil || r.ModalPrice <= 0 {
			skipped++
			continue
		}
		prices = append(prices, model.MarketPrice{
			Commodity:   r.Commodity,
			Variety:     r.Variety,
			State:       r.State,
			District:    r.District,
			Market:      r.Market,
			MinPrice:    float64(r.MinPrice),
			MaxPrice:    float64(r.MaxPrice),
			ModalPrice:  float64(r.ModalPrice),
			ArrivalDate: arrival,
			FetchedAt:   fetched,
		})
	}

	if skipped > 0 {
		c.logger.DebugContext(ctx, "skipped unusable market records", "commodity", commodity, "skipped", skipped)
	}
	return prices, nil
}

// titleCase matches the dataset's capitalization ("Green Chilli").
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
