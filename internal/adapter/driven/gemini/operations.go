package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/ericfisherdev/krishiai/internal/domain/model"
	"github.com/ericfisherdev/krishiai/internal/domain/port/driven"
)

const diagnosisSystemPrompt = `You are an agricultural plant pathologist helping small farmers in India.
Examine the photo and identify the crop and any disease, pest damage or nutrient deficiency.
Recommend treatments that are available locally, prefer low-cost and organic options first,
and give chemical dosages per litre of water when you recommend a pesticide or fungicide.
If the image is not a plant, set crop_name to "unknown" and confidence to 0.`

const diagnosisSchema = `Respond with JSON only, matching:
{"crop_name": string, "disease": string, "is_healthy": boolean, "confidence": number between 0 and 1,
 "severity": "none"|"low"|"moderate"|"high", "symptoms": [string], "causes": [string],
 "treatment": [string], "prevention": [string], "summary": string}`

// diagnosisResponse is the JSON shape requested from the model.
type diagnosisResponse struct {
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
}

// DiagnoseImage asks the model to diagnose a plant photo.
func (c *Client) DiagnoseImage(ctx context.Context, img driven.Image, lang model.Language) (model.DiagnosisResult, error) {
	prompt := fmt.Sprintf("%s\nWrite every text value in %s.", diagnosisSchema, lang.DisplayName())

	req := request{
		system: diagnosisSystemPrompt,
		contents: []*genai.Content{userContent(
			genai.NewPartFromBytes(img.Data, img.MIMEType),
			genai.NewPartFromText(prompt),
		)},
		json: true,
	}

	return generate(ctx, c, "diagnose image", req, func(text string) (model.DiagnosisResult, error) {
		resp, err := decodeJSON[diagnosisResponse](text)
		if err != nil {
			return model.DiagnosisResult{}, err
		}
		return model.DiagnosisResult{
			CropName:   resp.CropName,
			Disease:    resp.Disease,
			IsHealthy:  resp.IsHealthy,
			Confidence: clamp01(resp.Confidence),
			Severity:   model.ParseSeverity(resp.Severity),
			Symptoms:   nonNil(resp.Symptoms),
			Causes:     nonNil(resp.Causes),
			Treatment:  nonNil(resp.Treatment),
			Prevention: nonNil(resp.Prevention),
			Summary:    resp.Summary,
		}, nil
	})
}

// Chat answers a follow-up question grounded in an earlier diagnosis.
func (c *Client) Chat(ctx context.Context, d model.Diagnosis, history []model.ChatMessage, question string) (string, error) {
	var sys strings.Builder
	sys.WriteString("You are KrishiAI, a friendly farm advisor. Answer follow-up questions about this diagnosis ")
	sys.WriteString("in short, practical sentences a farmer can act on. ")
	fmt.Fprintf(&sys, "Reply in %s.\n\n", d.Language.DisplayName())
	fmt.Fprintf(&sys, "Crop: %s\nDiagnosis: %s\nSeverity: %s\n", d.CropName, d.Disease, d.Severity)
	if d.Summary != "" {
		fmt.Fprintf(&sys, "Summary: %s\n", d.Summary)
	}
	if len(d.Treatment) > 0 {
		fmt.Fprintf(&sys, "Recommended treatment: %s\n", strings.Join(d.Treatment, "; "))
	}

	contents := make([]*genai.Content, 0, len(history)+1)
	for _, m := range history {
		role := genai.Role(genai.RoleUser)
		if m.Role == model.ChatRoleAssistant {
			role = genai.Role(genai.RoleModel)
		}
		contents = append(contents, genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(m.Content)}, role))
	}
	contents = append(contents, userContent(genai.NewPartFromText(question)))

	req := request{system: sys.String(), contents: contents}
	return generate(ctx, c, "chat", req, func(text string) (string, error) { return text, nil })
}

const cropDetailsPrompt = `Identify the crop in this photo for a farm record. Respond with JSON only, matching:
{"crop_name": string, "variety": string, "growth_stage": string, "estimated_age_days": integer,
 "health_status": string, "notes": string}
Use an empty string or 0 when you cannot tell.`

type cropDetailsResponse struct {
	CropName         string `json:"crop_name"`
	Variety          string `json:"variety"`
	GrowthStage      string `json:"growth_stage"`
	EstimatedAgeDays int    `json:"estimated_age_days"`
	HealthStatus     string `json:"health_status"`
	Notes            string `json:"notes"`
}

// DescribeCrop fills crop record fields from a photo.
func (c *Client) DescribeCrop(ctx context.Context, img driven.Image) (model.CropDetails, error) {
	req := request{
		contents: []*genai.Content{userContent(
			genai.NewPartFromBytes(img.Data, img.MIMEType),
			genai.NewPartFromText(cropDetailsPrompt),
		)},
		json: true,
	}

	return generate(ctx, c, "describe crop", req, func(text string) (model.CropDetails, error) {
		resp, err := decodeJSON[cropDetailsResponse](text)
		if err != nil {
			return model.CropDetails{}, err
		}
		if resp.EstimatedAgeDays < 0 {
			resp.EstimatedAgeDays = 0
		}
		return model.CropDetails(resp), nil
	})
}

const guidePrompt = `Write a practical cultivation guide for %q for small farmers in India, in %s.
Respond with JSON only, matching:
{"title": string, "season": string, "soil_type": string, "duration": string, "content": string}
"content" is markdown with these sections: Climate and Season, Soil Preparation, Seed and Sowing,
Irrigation, Nutrient Management, Pest and Disease Management, Harvesting, Expected Yield.`

type guideResponse struct {
	Title    string `json:"title"`
	Season   string `json:"season"`
	SoilType string `json:"soil_type"`
	Duration string `json:"duration"`
	Content  string `json:"content"`
}

// GenerateGuide writes a cultivation guide for crop.
func (c *Client) GenerateGuide(ctx context.Context, crop string, lang model.Language) (model.CropGuide, error) {
	req := request{
		contents: []*genai.Content{userContent(genai.NewPartFromText(fmt.Sprintf(guidePrompt, crop, lang.DisplayName())))},
		json:     true,
	}

	return generate(ctx, c, "generate guide", req, func(text string) (model.CropGuide, error) {
		resp, err := decodeJSON[guideResponse](text)
		if err != nil {
			return model.CropGuide{}, err
		}
		if strings.TrimSpace(resp.Content) == "" {
			return model.CropGuide{}, fmt.Errorf("guide for %s has no content", crop)
		}
		return model.CropGuide{
			Crop:      crop,
			Language:  lang,
			Title:     resp.Title,
			Season:    resp.Season,
			SoilType:  resp.SoilType,
			Duration:  resp.Duration,
			Content:   resp.Content,
			Generated: true,
		}, nil
	})
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		// Some responses use a percentage scale.
		if v <= 100 {
			return v / 100
		}
		return 1
	default:
		return v
	}
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
