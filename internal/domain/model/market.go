package model

import "time"

// MarketPrice is a mandi price quote for one commodity on one arrival date.
// Prices are in rupees per quintal.
type MarketPrice struct {
	ID          int64
	Commodity   string
	Variety     string
	State       string
	District    string
	Market      string
	MinPrice    float64
	MaxPrice    float64
	ModalPrice  float64
	ArrivalDate time.Time
	FetchedAt   time.Time
}

// CropEconomics holds reference per-acre yield and cost for a crop.
type CropEconomics struct {
	Crop                string  `yaml:"crop"`
	YieldPerAcre        float64 `yaml:"yield_quintal_per_acre"`
	CostPerAcre         float64 `yaml:"cost_per_acre"`
	MinimumSupportPrice float64 `yaml:"msp"`
}

// ProfitEstimate is the projected revenue and profit for a planted area.
type ProfitEstimate struct {
	Commodity    string
	AreaAcres    float64
	YieldPerAcre float64
	CostPerAcre  float64
	PricePerQtl  float64
	PriceSource  string
	TotalYield   float64
	Revenue      float64
	TotalCost    float64
	Profit       float64
	MarginPct    float64
}
