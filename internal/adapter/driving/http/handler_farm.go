package httphandler

import (
	"net/http"
	"strconv"

	"github.com/ericfisherdev/krishiai/internal/application"
	"github.com/ericfisherdev/krishiai/internal/domain/model"
)

// requestLanguage picks the lang query parameter, falling back to the
// user's preferred language.
func requestLanguage(r *http.Request) model.Language {
	if v := r.URL.Query().Get("lang"); v != "" {
		return model.ParseLanguage(v)
	}
	if u := UserFromContext(r.Context()); u != nil && u.Language != "" {
		return u.Language
	}
	return model.LanguageEnglish
}

// ListGuides returns the stored guides in the requested language.
func (h *Handler) ListGuides(w http.ResponseWriter, r *http.Request) {
	guides, err := h.svc.Guides.List(r.Context(), requestLanguage(r))
	if err != nil {
		h.writeServiceError(w, "list guides", err)
		return
	}

	resp := make([]GuideSummaryResponse, 0, len(guides))
	for _, g := range guides {
		resp = append(resp, GuideSummaryResponse{
			Crop:     g.Crop,
			Language: string(g.Language),
			Title:    g.Title,
			Season:   g.Season,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetGuide returns the guide for a crop, generating it on first request.
func (h *Handler) GetGuide(w http.ResponseWriter, r *http.Request) {
	guide, err := h.svc.Guides.Get(r.Context(), r.PathValue("crop"), requestLanguage(r))
	if err != nil {
		h.writeServiceError(w, "get guide", err)
		return
	}
	writeJSON(w, http.StatusOK, toGuideResponse(*guide))
}

// MarketPrices returns current mandi quotes for a commodity.
func (h *Handler) MarketPrices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	quotes, err := h.svc.Market.Prices(r.Context(), q.Get("commodity"), q.Get("state"))
	if err != nil {
		h.writeServiceError(w, "market prices", err)
		return
	}
	writeJSON(w, http.StatusOK, toMarketPricesResponse(quotes))
}

// EstimateProfit projects revenue and profit for a planned crop.
func (h *Handler) EstimateProfit(w http.ResponseWriter, r *http.Request) {
	var req ProfitRequest
	if !decodeBody(w, r, &req) {
		return
	}

	est, err := h.svc.Market.EstimateProfit(r.Context(), application.ProfitRequest(req))
	if err != nil {
		h.writeServiceError(w, "estimate profit", err)
		return
	}
	writeJSON(w, http.StatusOK, toProfitResponse(est))
}

// WeatherAdvisory returns the forecast and farming advisories for a location.
func (h *Handler) WeatherAdvisory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lon, errLon := strconv.ParseFloat(q.Get("lon"), 64)
	if errLat != nil || errLon != nil {
		writeError(w, http.StatusBadRequest, "lat and lon query parameters are required")
		return
	}

	advice, err := h.svc.Weather.Advisory(r.Context(), lat, lon)
	if err != nil {
		h.writeServiceError(w, "weather advisory", err)
		return
	}
	writeJSON(w, http.StatusOK, toWeatherResponse(advice))
}
