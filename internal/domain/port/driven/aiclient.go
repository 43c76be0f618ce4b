package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/krishiai/internal/domain/model"
)

// ErrAIRequestFailed marks errors from the AI model itself, as opposed to a
// missing credential set. Rate-limit exhaustion is also marked and can be
// told apart with keyring.IsExhausted.
var ErrAIRequestFailed = errors.New("ai request failed")

// Image is an uploaded photo passed to the AI model.
type Image struct {
	Data     []byte
	MIMEType string
}

// AIClient defines the driven port for the generative AI model. Implementations
// rotate across the configured API keys on quota errors.
type AIClient interface {
	// DiagnoseImage assesses a plant photo for disease.
	DiagnoseImage(ctx context.Context, img Image, lang model.Language) (model.DiagnosisResult, error)
	// Chat answers a follow-up question about an existing diagnosis. history
	// is in chronological order and excludes question.
	Chat(ctx context.Context, d model.Diagnosis, history []model.ChatMessage, question string) (string, error)
	// DescribeCrop fills crop details from a photo of a standing crop.
	DescribeCrop(ctx context.Context, img Image) (model.CropDetails, error)
	// GenerateGuide writes a cultivation guide for the crop.
	GenerateGuide(ctx context.Context, crop string, lang model.Language) (model.CropGuide, error)
}

// APIKeySource supplies the ordered AI credential set. It is consulted on
// every AI call so newly stored keys take effect without a restart.
type APIKeySource interface {
	AIKeys(ctx context.Context) ([]string, error)
}
