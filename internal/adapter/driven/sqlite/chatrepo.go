package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ericfisherdev/krishiai/internal/domain/model"
	"github.com/ericfisherdev/krishiai/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ChatStore = (*ChatRepo)(nil)

// ChatRepo is the SQLite implementation of the ChatStore port interface.
type ChatRepo struct {
	db *DB
}

// NewChatRepo creates a new ChatRepo backed by the given DB.
func NewChatRepo(db *DB) *ChatRepo {
	return &ChatRepo{db: db}
}

// AppendExchange stores a question and its answer in one transaction and
// returns the stored answer. Either both messages are saved or neither is.
func (r *ChatRepo) AppendExchange(ctx context.Context, question, answer model.ChatMessage) (model.ChatMessage, error) {
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if question, err = insertChatMessage(ctx, tx, question); err != nil {
			return err
		}
		answer, err = insertChatMessage(ctx, tx, answer)
		return err
	})
	if err != nil {
		return model.ChatMessage{}, err
	}
	return answer, nil
}

func insertChatMessage(ctx context.Context, tx *sql.Tx, msg model.ChatMessage) (model.ChatMessage, error) {
	const query = `INSERT INTO chat_messages (diagnosis_id, role, content, created_at) VALUES (?, ?, ?, ?)`

	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	res, err := tx.ExecContext(ctx, query, msg.DiagnosisID, string(msg.Role), msg.Content, formatTime(msg.CreatedAt))
	if err != nil {
		return model.ChatMessage{}, fmt.Errorf("append %s message to %s: %w", msg.Role, msg.DiagnosisID, err)
	}

	msg.ID, err = res.LastInsertId()
	if err != nil {
		return model.ChatMessage{}, fmt.Errorf("get chat message id: %w", err)
	}
	return msg, nil
}

// ListByDiagnosis returns the latest limit messages, oldest first.
func (r *ChatRepo) ListByDiagnosis(ctx context.Context, diagnosisID string, limit int) ([]model.ChatMessage, error) {
	const query = `
		SELECT id, diagnosis_id, role, content, created_at FROM (
			SELECT id, diagnosis_id, role, content, created_at
			FROM chat_messages WHERE diagnosis_id = ?
			ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`

	rows, err := r.db.Reader.QueryContext(ctx, query, diagnosisID, limit)
	if err != nil {
		return nil, fmt.Errorf("list chat messages for %s: %w", diagnosisID, err)
	}
	defer rows.Close()

	msgs := []model.ChatMessage{}
	for rows.Next() {
		var m model.ChatMessage
		var role, createdAt string
		if err := rows.Scan(&m.ID, &m.DiagnosisID, &role, &m.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		m.Role = model.ChatRole(role)
		m.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat messages: %w", err)
	}

	return msgs, nil
}
