package model

import "time"

// Credential holds a service credential key-value pair. Service identifies
// the external system ("gemini", "market"), and Key identifies the credential
// type within that service ("api_key", "api_keys").
type Credential struct {
	ID        int64
	Service   string
	Key       string
	Value     string
	UpdatedAt time.Time
}

// Credential services and keys understood by the application.
const (
	CredentialServiceGemini = "gemini"
	CredentialKeyPrimary    = "api_key"
	CredentialKeyAdditional = "api_keys"
)
