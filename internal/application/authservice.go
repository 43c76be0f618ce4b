package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/ericfisherdev/krishiai/internal/domain/model"
	"github.com/ericfisherdev/krishiai/internal/domain/port/driven"
)

// Errors returned by AuthService.
var (
	// ErrInvalidCredentials is returned when the identifier or password does not match.
	ErrInvalidCredentials = errors.New("invalid identifier or password")

	// ErrInvalidRegistration is returned when registration input fails validation.
	ErrInvalidRegistration = errors.New("invalid registration")
)

const minPasswordLength = 8

// RegisterInput is the data needed to open an account.
type RegisterInput struct {
	Name       string
	Identifier string
	Password   string
	Village    string
	State      string
	Language   model.Language
}

// AuthService registers and authenticates farmer accounts.
type AuthService struct {
	users driven.UserStore
	cost  int
}

// NewAuthService creates an AuthService using the default bcrypt cost.
func NewAuthService(users driven.UserStore) *AuthService {
	return &AuthService{users: users, cost: bcrypt.DefaultCost}
}

// Register validates input, hashes the password and stores the account.
// Returns driven.ErrUserExists if the identifier is already registered.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	identifier := NormalizeIdentifier(in.Identifier)

	switch {
	case in.Name == "":
		return model.User{}, fmt.Errorf("%w: name is required", ErrInvalidRegistration)
	case identifier == "":
		return model.User{}, fmt.Errorf("%w: phone number or email is required", ErrInvalidRegistration)
	case utf8.RuneCountInString(in.Password) < minPasswordLength:
		return model.User{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidRegistration, minPasswordLength)
	case len(in.Password) > 72:
		return model.User{}, fmt.Errorf("%w: password is too long", ErrInvalidRegistration)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}

	lang := in.Language
	if lang == "" {
		lang = model.LanguageEnglish
	}

	return s.users.Create(ctx, model.User{
		Name:         in.Name,
		Identifier:   identifier,
		PasswordHash: string(hash),
		Village:      strings.TrimSpace(in.Village),
		State:        strings.TrimSpace(in.State),
		Language:     lang,
	})
}

// Authenticate returns the user whose identifier and password match.
func (s *AuthService) Authenticate(ctx context.Context, identifier, password string) (*model.User, error) {
	user, err := s.users.GetByIdentifier(ctx, NormalizeIdentifier(identifier))
	if errors.Is(err, driven.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// User returns the account for a verified session.
func (s *AuthService) User(ctx context.Context, id int64) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

// NormalizeIdentifier lower-cases emails and strips spaces and dashes from
// phone numbers so "+91 98765-43210" and "+919876543210" match.
func NormalizeIdentifier(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if strings.Contains(identifier, "@") {
		return strings.ToLower(identifier)
	}
	return strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(identifier)
}
