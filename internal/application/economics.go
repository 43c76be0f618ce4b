package application

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ericfisherdev/krishiai/internal/domain/model"
)

//go:embed economics.yaml
var defaultEconomics []byte

// EconomicsCatalog holds reference yield and cost figures keyed by
// normalized crop name.
type EconomicsCatalog struct {
	byCrop map[string]model.CropEconomics
}

type economicsFile struct {
	Crops []model.CropEconomics `yaml:"crops"`
}

// DefaultEconomicsCatalog returns the catalog compiled into the binary.
func DefaultEconomicsCatalog() *EconomicsCatalog {
	c, err := LoadEconomicsCatalog(bytes.NewReader(defaultEconomics))
	if err != nil {
		panic(fmt.Sprintf("embedded economics catalog: %v", err))
	}
	return c
}

// LoadEconomicsCatalog parses a YAML catalog with a top-level crops list.
func LoadEconomicsCatalog(r io.Reader) (*EconomicsCatalog, error) {
	var f economicsFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode economics catalog: %w", err)
	}

	c := &EconomicsCatalog{byCrop: make(map[string]model.CropEconomics, len(f.Crops))}
	for i, e := range f.Crops {
		name := model.NormalizeCropName(e.Crop)
		if name == "" {
			return nil, fmt.Errorf("economics catalog entry %d has no crop", i)
		}
		if e.YieldPerAcre <= 0 || e.CostPerAcre < 0 || e.MinimumSupportPrice < 0 {
			return nil, fmt.Errorf("economics catalog entry %q has invalid figures", e.Crop)
		}
		e.Crop = name
		c.byCrop[name] = e
	}
	return c, nil
}

// Lookup returns the reference figures for crop.
func (c *EconomicsCatalog) Lookup(crop string) (model.CropEconomics, bool) {
	e, ok := c.byCrop[model.NormalizeCropName(crop)]
	return e, ok
}

// Crops returns the catalog's crop names in alphabetical order.
func (c *EconomicsCatalog) Crops() []string {
	names := make([]string, 0, len(c.byCrop))
	for name := range c.byCrop {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// priceImportFile is the YAML shape accepted by ParsePriceImport.
type priceImportFile struct {
	Prices []struct {
		Commodity   string  `yaml:"commodity"`
		Variety     string  `yaml:"variety"`
		State       string  `yaml:"state"`
		District    string  `yaml:"district"`
		Market      string  `yaml:"market"`
		MinPrice    float64 `yaml:"min_price"`
		MaxPrice    float64 `yaml:"max_price"`
		ModalPrice  float64 `yaml:"modal_price"`
		ArrivalDate string  `yaml:"arrival_date"`
	} `yaml:"prices"`
}

// ParsePriceImport reads mandi price quotes from a YAML document of the form
//
//	prices:
//	  - commodity: Wheat
//	    market: Indore
//	    state: Madhya Pradesh
//	    modal_price: 2450
//	    arrival_date: 2025-06-01
func ParsePriceImport(r io.Reader, fetchedAt time.Time) ([]model.MarketPrice, error) {
	var f priceImportFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode price import: %w", err)
	}

	prices := make([]model.MarketPrice, 0, len(f.Prices))
	for i, p := range f.Prices {
		if strings.TrimSpace(p.Commodity) == "" || strings.TrimSpace(p.Market) == "" {
			return nil, fmt.Errorf("price %d: commodity and market are required", i)
		}
		if p.ModalPrice <= 0 {
			return nil, fmt.Errorf("price %d (%s at %s): modal_price must be positive", i, p.Commodity, p.Market)
		}
		arrival, err := time.Parse(time.DateOnly, p.ArrivalDate)
		if err != nil {
			return nil, fmt.Errorf("price %d: arrival_date %q must be YYYY-MM-DD: %w", i, p.ArrivalDate, err)
		}

		minPrice, maxPrice := p.MinPrice, p.MaxPrice
		if minPrice == 0 {
			minPrice = p.ModalPrice
		}
		if maxPrice == 0 {
			maxPrice = p.ModalPrice
		}

		prices = append(prices, model.MarketPrice{
			Commodity:   strings.TrimSpace(p.Commodity),
			Variety:     strings.TrimSpace(p.Variety),
			State:       strings.TrimSpace(p.State),
			District:    strings.TrimSpace(p.District),
			Market:      strings.TrimSpace(p.Market),
			MinPrice:    minPrice,
			MaxPrice:    maxPrice,
			ModalPrice:  p.ModalPrice,
			ArrivalDate: arrival,
			FetchedAt:   fetchedAt.UTC(),
		})
	}
	return prices, nil
}
