package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ericfisherdev/krishiai/internal/domain/model"
	"github.com/ericfisherdev/krishiai/internal/domain/port/driven"
)

// chatHistoryLimit bounds how many earlier messages are sent to the model.
const chatHistoryLimit = 20

// chatTranscriptLimit bounds the conversation returned by History.
const chatTranscriptLimit = 200

const maxChatMessageRunes = 2000

// ErrInvalidMessage is returned for an empty or oversized chat message.
var ErrInvalidMessage = errors.New("invalid chat message")

// ChatService answers follow-up questions about a diagnosis.
type ChatService struct {
	ai        driven.AIClient
	diagnoses driven.DiagnosisStore
	chats     driven.ChatStore
	now       func() time.Time
}

// NewChatService creates a ChatService.
func NewChatService(ai driven.AIClient, diagnoses driven.DiagnosisStore, chats driven.ChatStore) *ChatService {
	return &ChatService{ai: ai, diagnoses: diagnoses, chats: chats, now: time.Now}
}

// Ask sends question with the diagnosis context and recent history to the
// model and stores both sides of the exchange. Nothing is stored when the
// model call fails.
func (s *ChatService) Ask(ctx context.Context, userID int64, diagnosisID, question string) (model.ChatMessage, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return model.ChatMessage{}, fmt.Errorf("%w: message is empty", ErrInvalidMessage)
	}
	if utf8.RuneCountInString(question) > maxChatMessageRunes {
		return model.ChatMessage{}, fmt.Errorf("%w: message exceeds %d characters", ErrInvalidMessage, maxChatMessageRunes)
	}

	d, err := s.diagnoses.Get(ctx, userID, diagnosisID)
	if err != nil {
		return model.ChatMessage{}, err
	}

	history, err := s.chats.ListByDiagnosis(ctx, diagnosisID, chatHistoryLimit)
	if err != nil {
		return model.ChatMessage{}, fmt.Errorf("load chat history: %w", err)
	}

	answer, err := s.ai.Chat(ctx, *d, history, question)
	if err != nil {
		return model.ChatMessage{}, fmt.Errorf("answer chat message: %w", err)
	}

	now := s.now().UTC()
	reply, err := s.chats.AppendExchange(ctx,
		model.ChatMessage{DiagnosisID: diagnosisID, Role: model.ChatRoleUser, Content: question, CreatedAt: now},
		model.ChatMessage{DiagnosisID: diagnosisID, Role: model.ChatRoleAssistant, Content: answer, CreatedAt: now},
	)
	if err != nil {
		return model.ChatMessage{}, fmt.Errorf("save chat exchange: %w", err)
	}
	return reply, nil
}

// History returns the conversation for one of the user's diagnoses.
func (s *ChatService) History(ctx context.Context, userID int64, diagnosisID string) ([]model.ChatMessage, error) {
	if _, err := s.diagnoses.Get(ctx, userID, diagnosisID); err != nil {
		return nil, err
	}
	return s.chats.ListByDiagnosis(ctx, diagnosisID, chatTranscriptLimit)
}
