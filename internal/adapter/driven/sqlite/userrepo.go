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
var _ driven.UserStore = (*UserRepo)(nil)

// UserRepo is the SQLite implementation of the UserStore port interface.
type UserRepo struct {
	db *DB
}

// NewUserRepo creates a new UserRepo backed by the given DB.
func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, name, identifier, password_hash, village, state, language, created_at`

// Create inserts a new user. Returns driven.ErrUserExists if the identifier is taken.
func (r *UserRepo) Create(ctx context.Context, user model.User) (model.User, error) {
	const query = `
		INSERT INTO users (name, identifier, password_hash, village, state, language, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
	if user.Language == "" {
		user.Language = model.LanguageEnglish
	}

	res, err := r.db.Writer.ExecContext(ctx, query,
		user.Name, user.Identifier, user.PasswordHash, user.Village, user.State,
		string(user.Language), formatTime(user.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.User{}, fmt.Errorf("create user %s: %w", user.Identifier, driven.ErrUserExists)
		}
		return model.User{}, fmt.Errorf("create user %s: %w", user.Identifier, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, fmt.Errorf("get user id: %w", err)
	}
	user.ID = id

	return user, nil
}

// GetByIdentifier retrieves a user by login identifier.
func (r *UserRepo) GetByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE identifier = ?`

	user, err := scanUser(r.db.Reader.QueryRowContext(ctx, query, identifier))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, driven.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", identifier, err)
	}
	return user, nil
}

// GetByID retrieves a user by primary key.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`

	user, err := scanUser(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, driven.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return user, nil
}

func scanUser(s scanner) (*model.User, error) {
	var u model.User
	var lang, createdAt string

	if err := s.Scan(&u.ID, &u.Name, &u.Identifier, &u.PasswordHash, &u.Village, &u.State, &lang, &createdAt); err != nil {
		return nil, err
	}

	u.Language = model.Language(lang)

	var err error
	u.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &u, nil
}
