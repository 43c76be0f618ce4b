package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/krishiai/internal/domain/model"
	"github.com/ericfisherdev/krishiai/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CropGuideStore = (*CropGuideRepo)(nil)

// CropGuideRepo is the SQLite implementation of the CropGuideStore port interface.
// The (crop, language) pair is unique; Insert reports a conflict as
// driven.ErrGuideExists so callers can re-read the winning row.
type CropGuideRepo struct {
	db *DB
}

// NewCropGuideRepo creates a new CropGuideRepo backed by the given DB.
func NewCropGuideRepo(db *DB) *CropGuideRepo {
	return &CropGuideRepo{db: db}
}

const cropGuideColumns = `id, crop, language, title, season, soil_type, duration, content, generated, created_at`

// Get returns the guide for the crop and language, or nil, nil if none is stored.
func (r *CropGuideRepo) Get(ctx context.Context, crop string, lang model.Language) (*model.CropGuide, error) {
	query := `SELECT ` + cropGuideColumns + ` FROM crop_guides WHERE crop = ? AND language = ?`

	g, err := scanCropGuide(r.db.Reader.QueryRowContext(ctx, query, crop, string(lang)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get crop guide %s/%s: %w", crop, lang, err)
	}
	return g, nil
}

// Insert stores a new guide and returns it with ID and CreatedAt populated.
func (r *CropGuideRepo) Insert(ctx context.Context, guide model.CropGuide) (model.CropGuide, error) {
	const query = `
		INSERT INTO crop_guides (crop, language, title, season, soil_type, duration, content, generated, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	if guide.CreatedAt.IsZero() {
		guide.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	res, err := r.db.Writer.ExecContext(ctx, query,
		guide.Crop, string(guide.Language), guide.Title, guide.Season, guide.SoilType,
		guide.Duration, guide.Content, guide.Generated, formatTime(guide.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.CropGuide{}, fmt.Errorf("insert crop guide %s/%s: %w", guide.Crop, guide.Language, driven.ErrGuideExists)
		}
		return model.CropGuide{}, fmt.Errorf("insert crop guide %s/%s: %w", guide.Crop, guide.Language, err)
	}

	guide.ID, err = res.LastInsertId()
	if err != nil {
		return model.CropGuide{}, fmt.Errorf("get crop guide id: %w", err)
	}
	return guide, nil
}

// List returns all guides in a language ordered by crop.
func (r *CropGuideRepo) List(ctx context.Context, lang model.Language) ([]model.CropGuide, error) {
	query := `SELECT ` + cropGuideColumns + ` FROM crop_guides WHERE language = ? ORDER BY crop`

	rows, err := r.db.Reader.QueryContext(ctx, query, string(lang))
	if err != nil {
		return nil, fmt.Errorf("list crop guides: %w", err)
	}
	defer rows.Close()

	guides := []model.CropGuide{}
	for rows.Next() {
		g, err := scanCropGuide(rows)
		if err != nil {
			return nil, fmt.Errorf("scan crop guide: %w", err)
		}
		guides = append(guides, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate crop guides: %w", err)
	}

	return guides, nil
}

func scanCropGuide(s scanner) (*model.CropGuide, error) {
	var g model.CropGuide
	var lang, createdAt string

	err := s.Scan(&g.ID, &g.Crop, &lang, &g.Title, &g.Season, &g.SoilType, &g.Duration, &g.Content, &g.Generated, &createdAt)
	if err != nil {
		return nil, err
	}

	g.Language = model.Language(lang)
	g.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &g, nil
}
