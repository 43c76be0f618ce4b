package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/krishiai/internal/domain/model"
)

// Sentinel errors returned by UserStore implementations.
var (
	// ErrUserExists indicates an account with the same identifier already exists.
	ErrUserExists = errors.New("user already exists")

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// UserStore defines the driven port for farmer account persistence.
type UserStore interface {
	// Create inserts a new user and returns it with ID and CreatedAt populated.
	// Returns ErrUserExists if the identifier is already registered.
	Create(ctx context.Context, user model.User) (model.User, error)
	// GetByIdentifier returns ErrUserNotFound if no user has that identifier.
	GetByIdentifier(ctx context.Context, identifier string) (*model.User, error)
	// GetByID returns ErrUserNotFound if no user has that ID.
	GetByID(ctx context.Context, id int64) (*model.User, error)
}
