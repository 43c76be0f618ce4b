package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/krishiai/internal/domain/model"
	"github.com/ericfisherdev/krishiai/internal/domain/port/driven"
)

const defaultDiagnosisListLimit = 50

// DiagnosisService diagnoses plant photos and keeps each user's history.
type DiagnosisService struct {
	ai     driven.AIClient
	store  driven.DiagnosisStore
	images driven.ImageStore
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// NewDiagnosisService creates a DiagnosisService. images may be nil, in which
// case photos are not archived.
func NewDiagnosisService(ai driven.AIClient, store driven.DiagnosisStore, images driven.ImageStore, logger *slog.Logger) *DiagnosisService {
	return &DiagnosisService{
		ai:     ai,
		store:  store,
		images: images,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Diagnose validates the photo, asks the AI model for a diagnosis, archives
// the photo and stores the result. A photo is archived only for a diagnosis
// that gets stored. AI errors are returned unwrapped enough for
// keyring.IsExhausted and errors.Is(keyring.ErrNoCredentials) to work.
func (s *DiagnosisService) Diagnose(ctx context.Context, userID int64, data []byte, mime string, lang model.Language) (*model.Diagnosis, error) {
	img, err := NewImage(data, mime)
	if err != nil {
		return nil, err
	}

	id := s.newID()
	d := model.Diagnosis{
		ID:        id,
		UserID:    userID,
		ImageMIME: img.MIMEType,
		Language:  lang,
	}

	result, err := s.ai.DiagnoseImage(ctx, img, lang)
	if err != nil {
		return nil, fmt.Errorf("diagnose photo: %w", err)
	}
	d.DiagnosisResult = result
	d.CreatedAt = s.now().UTC()

	archivedKey := s.archive(ctx, &d, img)

	if err := s.store.Create(ctx, d); err != nil {
		if archivedKey != "" {
			s.discard(ctx, id, archivedKey)
		}
		return nil, fmt.Errorf("save diagnosis: %w", err)
	}

	s.logger.InfoContext(ctx, "diagnosis created",
		"diagnosis_id", id,
		"crop", result.CropName,
		"severity", result.Severity,
	)
	return &d, nil
}

// archive stores the photo and records its location on d. It returns the
// object key, or "" when nothing was stored. Archiving is best-effort: the
// diagnosis is still useful without the photo.
func (s *DiagnosisService) archive(ctx context.Context, d *model.Diagnosis, img driven.Image) string {
	if s.images == nil {
		return ""
	}
	key := fmt.Sprintf("diagnoses/%d/%s%s", d.UserID, d.ID, imageExtension(img.MIMEType))
	stored, err := s.images.Put(ctx, key, img)
	if err != nil {
		s.logger.WarnContext(ctx, "archive diagnosis photo failed", "diagnosis_id", d.ID, "error", err)
		return ""
	}
	d.ImageKey = stored
	return key
}

// discard removes a photo whose diagnosis could not be saved.
func (s *DiagnosisService) discard(ctx context.Context, id, key string) {
	if err := s.images.Delete(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "remove orphaned diagnosis photo failed", "diagnosis_id", id, "key", key, "error", err)
	}
}

// Get returns one of the user's diagnoses.
func (s *DiagnosisService) Get(ctx context.Context, userID int64, id string) (*model.Diagnosis, error) {
	return s.store.Get(ctx, userID, id)
}

// List returns the user's most recent diagnoses.
func (s *DiagnosisService) List(ctx context.Context, userID int64, limit int) ([]model.Diagnosis, error) {
	if limit <= 0 || limit > defaultDiagnosisListLimit {
		limit = defaultDiagnosisListLimit
	}
	return s.store.ListByUser(ctx, userID, limit)
}
