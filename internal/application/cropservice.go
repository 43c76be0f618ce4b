package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode"
	"unicode/utf8"

	"github.com/ericfisherdev/krishiai/internal/domain/model"
	"github.com/ericfisherdev/krishiai/internal/domain/port/driven"
)

// ErrInvalidCrop is returned for a crop name that is empty, too long or
// contains anything but letters, spaces and hyphens.
var ErrInvalidCrop = errors.New("invalid crop name")

const maxCropNameRunes = 64

// CropService fills crop records from photos.
type CropService struct {
	ai driven.AIClient
}

// NewCropService creates a CropService.
func NewCropService(ai driven.AIClient) *CropService {
	return &CropService{ai: ai}
}

// Autofill describes the crop in the photo.
func (s *CropService) Autofill(ctx context.Context, data []byte, mime string) (model.CropDetails, error) {
	img, err := NewImage(data, mime)
	if err != nil {
		return model.CropDetails{}, err
	}

	details, err := s.ai.DescribeCrop(ctx, img)
	if err != nil {
		return model.CropDetails{}, fmt.Errorf("autofill crop: %w", err)
	}
	return details, nil
}

// CropGuideService serves cultivation guides from the knowledge base,
// generating and storing a guide the first time a crop is requested.
type CropGuideService struct {
	ai     driven.AIClient
	store  driven.CropGuideStore
	logger *slog.Logger
}

// NewCropGuideService creates a CropGuideService.
func NewCropGuideService(ai driven.AIClient, store driven.CropGuideStore, logger *slog.Logger) *CropGuideService {
	return &CropGuideService{ai: ai, store: store, logger: logger}
}

// Get returns the guide for crop in lang. When two requests generate the
// same guide concurrently the first stored copy wins and both callers get it.
func (s *CropGuideService) Get(ctx context.Context, crop string, lang model.Language) (*model.CropGuide, error) {
	name, err := guideCropName(crop)
	if err != nil {
		return nil, err
	}

	stored, err := s.store.Get(ctx, name, lang)
	if err != nil {
		return nil, fmt.Errorf("get guide for %s: %w", name, err)
	}
	if stored != nil {
		return stored, nil
	}

	generated, err := s.ai.GenerateGuide(ctx, name, lang)
	if err != nil {
		return nil, fmt.Errorf("generate guide for %s: %w", name, err)
	}
	generated.Crop = name
	generated.Language = lang
	generated.Generated = true

	inserted, err := s.store.Insert(ctx, generated)
	if errors.Is(err, driven.ErrGuideExists) {
		stored, err := s.store.Get(ctx, name, lang)
		if err != nil {
			return nil, fmt.Errorf("refetch guide for %s: %w", name, err)
		}
		if stored == nil {
			return nil, fmt.Errorf("guide for %s vanished after conflict", name)
		}
		return stored, nil
	}
	if err != nil {
		return nil, fmt.Errorf("save guide for %s: %w", name, err)
	}

	s.logger.InfoContext(ctx, "crop guide generated", "crop", name, "language", lang)
	return &inserted, nil
}

// guideCropName normalizes crop and rejects names that cannot be a crop.
// Combining marks are allowed so Devanagari and other Indic names pass.
func guideCropName(crop string) (string, error) {
	name := model.NormalizeCropName(crop)
	if name == "" || utf8.RuneCountInString(name) > maxCropNameRunes {
		return "", ErrInvalidCrop
	}
	for _, r := range name {
		if r == ' ' || r == '-' || unicode.IsLetter(r) || unicode.IsMark(r) {
			continue
		}
		return "", ErrInvalidCrop
	}
	return name, nil
}

// List returns every stored guide in lang.
func (s *CropGuideService) List(ctx context.Context, lang model.Language) ([]model.CropGuide, error) {
	return s.store.List(ctx, lang)
}
