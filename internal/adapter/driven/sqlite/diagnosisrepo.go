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
var _ driven.DiagnosisStore = (*DiagnosisRepo)(nil)

// DiagnosisRepo is the SQLite implementation of the DiagnosisStore port interface.
// List fields (symptoms, treatment, ...) are stored as JSON arrays.
type DiagnosisRepo struct {
	db *DB
}

// NewDiagnosisRepo creates a new DiagnosisRepo backed by the given DB.
func NewDiagnosisRepo(db *DB) *DiagnosisRepo {
	return &DiagnosisRepo{db: db}
}

const diagnosisColumns = `id, user_id, image_key, image_mime, language, crop_name, disease, is_healthy,
	confidence, severity, symptoms, causes, treatment, prevention, summary, created_at`

// Create inserts a diagnosis.
func (r *DiagnosisRepo) Create(ctx context.Context, d model.Diagnosis) error {
	query := `INSERT INTO diagnoses (` + diagnosisColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	lists := make([]string, 0, 4)
	for _, items := range [][]string{d.Symptoms, d.Causes, d.Treatment, d.Prevention} {
		encoded, err := marshalStrings(items)
		if err != nil {
			return err
		}
		lists = append(lists, encoded)
	}

	createdAt := d.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.db.Writer.ExecContext(ctx, query,
		d.ID, d.UserID, d.ImageKey, d.ImageMIME, string(d.Language), d.CropName, d.Disease,
		d.IsHealthy, d.Confidence, string(d.Severity),
		lists[0], lists[1], lists[2], lists[3], d.Summary, formatTime(createdAt),
	)
	if err != nil {
		return fmt.Errorf("create diagnosis %s: %w", d.ID, err)
	}
	return nil
}

// Get returns the diagnosis only if it belongs to userID.
func (r *DiagnosisRepo) Get(ctx context.Context, userID int64, id string) (*model.Diagnosis, error) {
	query := `SELECT ` + diagnosisColumns + ` FROM diagnoses WHERE id = ? AND user_id = ?`

	d, err := scanDiagnosis(r.db.Reader.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, driven.ErrDiagnosisNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get diagnosis %s: %w", id, err)
	}
	return d, nil
}

// ListByUser returns the user's diagnoses, newest first.
func (r *DiagnosisRepo) ListByUser(ctx context.Context, userID int64, limit int) ([]model.Diagnosis, error) {
	query := `SELECT ` + diagnosisColumns + ` FROM diagnoses WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`

	rows, err := r.db.Reader.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list diagnoses for user %d: %w", userID, err)
	}
	defer rows.Close()

	diagnoses := []model.Diagnosis{}
	for rows.Next() {
		d, err := scanDiagnosis(rows)
		if err != nil {
			return nil, fmt.Errorf("scan diagnosis: %w", err)
		}
		diagnoses = append(diagnoses, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate diagnoses: %w", err)
	}

	return diagnoses, nil
}

func scanDiagnosis(s scanner) (*model.Diagnosis, error) {
	var d model.Diagnosis
	var lang, severity, createdAt string
	var symptoms, causes, treatment, prevention string

	err := s.Scan(
		&d.ID, &d.UserID, &d.ImageKey, &d.ImageMIME, &lang, &d.CropName, &d.Disease, &d.IsHealthy,
		&d.Confidence, &severity, &symptoms, &causes, &treatment, &prevention, &d.Summary, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	d.Language = model.Language(lang)
	d.Severity = model.Severity(severity)

	targets := []*[]string{&d.Symptoms, &d.Causes, &d.Treatment, &d.Prevention}
	for i, raw := range []string{symptoms, causes, treatment, prevention} {
		items, err := unmarshalStrings(raw)
		if err != nil {
			return nil, err
		}
		*targets[i] = items
	}

	d.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &d, nil
}
