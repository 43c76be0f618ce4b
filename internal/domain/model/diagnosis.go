package model

import (
	"strings"
	"time"
)

// Severity grades how badly a plant is affected.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeverityUnknown  Severity = "unknown"
)

// ParseSeverity normalizes a severity string returned by the AI model.
func ParseSeverity(s string) Severity {
	s = strings.ToLower(strings.TrimSpace(s))
	switch Severity(s) {
	case SeverityNone, SeverityLow, SeverityModerate, SeverityHigh:
		return Severity(s)
	case "medium":
		return SeverityModerate
	case "severe", "critical":
		return SeverityHigh
	case "mild":
		return SeverityLow
	default:
		return SeverityUnknown
	}
}

// DiagnosisResult is the structured assessment of a plant photo.
type DiagnosisResult struct {
	CropName   string
	Disease    string
	IsHealthy  bool
	Confidence float64
	Severity   Severity
	Symptoms   []string
	Causes     []string
	Treatment  []string
	Prevention []string
	Summary    string
}

// Diagnosis is a persisted diagnosis of a photo uploaded by a user.
type Diagnosis struct {
	ID        string
	UserID    int64
	ImageKey  string
	ImageMIME string
	Language  Language
	DiagnosisResult
	CreatedAt time.Time
}
