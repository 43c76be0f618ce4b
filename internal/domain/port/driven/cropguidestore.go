package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/krishiai/internal/domain/model"
)

// ErrGuideExists is returned by Insert when a guide for the same crop and
// language was stored concurrently.
var ErrGuideExists = errors.New("crop guide already exists")

// CropGuideStore defines the driven port for the crop knowledge base.
type CropGuideStore interface {
	// Get returns nil, nil when no guide exists for the normalized crop name and language.
	Get(ctx context.Context, crop string, lang model.Language) (*model.CropGuide, error)
	// Insert stores a new guide. Returns ErrGuideExists on a (crop, language) conflict.
	Insert(ctx context.Context, guide model.CropGuide) (model.CropGuide, error)
	// List returns all guides in the given language ordered by crop name.
	List(ctx context.Context, lang model.Language) ([]model.CropGuide, error)
}
