package model

import (
	"strings"
	"time"
)

// CropDetails is the autofill result for a photo of a standing crop.
type CropDetails struct {
	CropName         string
	Variety          string
	GrowthStage      string
	EstimatedAgeDays int
	HealthStatus     string
	Notes            string
}

// CropGuide is a cultivation guide for one crop in one language. Content is
// markdown.
type CropGuide struct {
	ID        int64
	Crop      string
	Language  Language
	Title     string
	Season    string
	SoilType  string
	Duration  string
	Content   string
	Generated bool
	CreatedAt time.Time
}

// NormalizeCropName lower-cases a crop name and collapses inner whitespace so
// "  Basmati   Rice" and "basmati rice" refer to the same guide.
func NormalizeCropName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
