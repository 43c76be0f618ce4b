package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/krishiai/internal/domain/model"
)

// ErrDiagnosisNotFound indicates the diagnosis does not exist or belongs to another user.
var ErrDiagnosisNotFound = errors.New("diagnosis not found")

// DiagnosisStore defines the driven port for diagnosis persistence.
type DiagnosisStore interface {
	Create(ctx context.Context, d model.Diagnosis) error
	// Get returns ErrDiagnosisNotFound unless the diagnosis exists and is owned by userID.
	Get(ctx context.Context, userID int64, id string) (*model.Diagnosis, error)
	// ListByUser returns the user's diagnoses, newest first, at most limit entries.
	ListByUser(ctx context.Context, userID int64, limit int) ([]model.Diagnosis, error)
}

// ChatStore defines the driven port for diagnosis follow-up conversations.
type ChatStore interface {
	// AppendExchange atomically stores a question and its answer and returns
	// the stored answer.
	AppendExchange(ctx context.Context, question, answer model.ChatMessage) (model.ChatMessage, error)
	// ListByDiagnosis returns the most recent limit messages in chronological order.
	ListByDiagnosis(ctx context.Context, diagnosisID string, limit int) ([]model.ChatMessage, error)
}
