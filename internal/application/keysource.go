package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/krishiai/internal/domain/model"
	"github.com/ericfisherdev/krishiai/internal/domain/port/driven"
	"github.com/ericfisherdev/krishiai/internal/keyring"
)

// Compile-time interface satisfaction check.
var _ driven.APIKeySource = (*KeySource)(nil)

// KeySource resolves the Gemini credential set on every call. Keys stored
// through the credential store take priority over the environment values, so
// rotating keys with krishictl takes effect without a restart.
type KeySource struct {
	store      driven.CredentialStore
	primary    string
	additional string
	logger     *slog.Logger
}

// NewKeySource creates a KeySource. store may be nil, in which case only the
// environment values are used.
func NewKeySource(store driven.CredentialStore, primary, additional string, logger *slog.Logger) *KeySource {
	return &KeySource{
		store:      store,
		primary:    primary,
		additional: additional,
		logger:     logger,
	}
}

// AIKeys returns the ordered, de-duplicated credential set.
func (s *KeySource) AIKeys(ctx context.Context) ([]string, error) {
	primary, additional := s.primary, s.additional

	if s.store != nil {
		stored, err := s.store.GetAll(ctx, model.CredentialServiceGemini)
		switch {
		case errors.Is(err, driven.ErrEncryptionKeyNotSet):
			// Credential storage disabled; environment only.
		case err != nil:
			return nil, fmt.Errorf("load stored gemini keys: %w", err)
		default:
			if v := stored[model.CredentialKeyPrimary]; v != "" {
				primary = v
			}
			if v := stored[model.CredentialKeyAdditional]; v != "" {
				additional = v
			}
		}
	}

	keys := keyring.ParseKeys(primary, additional)
	if len(keys) == 0 {
		s.logger.WarnContext(ctx, "no gemini api keys configured")
	}
	return keys, nil
}
