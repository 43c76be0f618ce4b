package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/krishiai/internal/domain/model"
	"github.com/ericfisherdev/krishiai/internal/domain/port/driven"
)

func makeDiagnosis(id string, userID int64, createdAt time.Time) model.Diagnosis {
	return model.Diagnosis{
		ID:        id,
		UserID:    userID,
		ImageKey:  "diagnoses/" + id + ".jpg",
		ImageMIME: "image/jpeg",
		Language:  model.LanguageHindi,
		DiagnosisResult: model.DiagnosisResult{
			CropName:   "Tomato",
			Disease:    "Early blight",
			Confidence: 0.87,
			Severity:   model.SeverityModerate,
			Symptoms:   []string{"concentric rings on older leaves"},
			Treatment:  []string{"spray mancozeb 2.5 g/l", "remove infected leaves"},
			Prevention: []string{"crop rotation"},
			Summary:    "Fungal leaf disease",
		},
		CreatedAt: createdAt,
	}
}

func TestDiagnosisRepo_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDiagnosisRepo(db)
	ctx := context.Background()
	userID := createTestUser(t, db, "9000000001")

	d := makeDiagnosis("d-1", userID, time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Create(ctx, d))

	got, err := repo.Get(ctx, userID, "d-1")
	require.NoError(t, err)
	assert.Equal(t, "Early blight", got.Disease)
	assert.InDelta(t, 0.87, got.Confidence, 1e-9)
	assert.Equal(t, model.SeverityModerate, got.Severity)
	assert.Equal(t, []string{"spray mancozeb 2.5 g/l", "remove infected leaves"}, got.Treatment)
	assert.Equal(t, []string{}, got.Causes, "nil lists round-trip as empty")
	assert.Equal(t, model.LanguageHindi, got.Language)
	assert.Equal(t, d.CreatedAt, got.CreatedAt)
}

func TestDiagnosisRepo_GetScopedToOwner(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDiagnosisRepo(db)
	ctx := context.Background()
	owner := createTestUser(t, db, "9000000001")
	other := createTestUser(t, db, "9000000002")

	require.NoError(t, repo.Create(ctx, makeDiagnosis("d-1", owner, time.Now())))

	_, err := repo.Get(ctx, other, "d-1")
	assert.ErrorIs(t, err, driven.ErrDiagnosisNotFound)
}

func TestDiagnosisRepo_ListByUserNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDiagnosisRepo(db)
	ctx := context.Background()
	userID := createTestUser(t, db, "9000000001")

	base := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, makeDiagnosis("old", userID, base)))
	require.NoError(t, repo.Create(ctx, makeDiagnosis("new", userID, base.Add(time.Hour))))
	require.NoError(t, repo.Create(ctx, makeDiagnosis("mid", userID, base.Add(30*time.Minute))))

	list, err := repo.ListByUser(ctx, userID, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)
	assert.Equal(t, "mid", list[1].ID)
}

func TestChatRepo_AppendAndList(t *testing.T) {
	db := setupTestDB(t)
	diagnoses := NewDiagnosisRepo(db)
	chat := NewChatRepo(db)
	ctx := context.Background()
	userID := createTestUser(t, db, "9000000001")
	require.NoError(t, diagnoses.Create(ctx, makeDiagnosis("d-1", userID, time.Now())))

	for _, pair := range [][2]string{{"q1", "a1"}, {"q2", "a2"}} {
		reply, err := chat.AppendExchange(ctx,
			model.ChatMessage{DiagnosisID: "d-1", Role: model.ChatRoleUser, Content: pair[0]},
			model.ChatMessage{DiagnosisID: "d-1", Role: model.ChatRoleAssistant, Content: pair[1]},
		)
		require.NoError(t, err)
		assert.NotZero(t, reply.ID)
		assert.Equal(t, pair[1], reply.Content)
	}

	all, err := chat.ListByDiagnosis(ctx, "d-1", 10)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "q1", all[0].Content)
	assert.Equal(t, model.ChatRoleAssistant, all[3].Role)

	recent, err := chat.ListByDiagnosis(ctx, "d-1", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "q2", recent[0].Content, "latest messages returned oldest first")
	assert.Equal(t, "a2", recent[1].Content)
}

func TestChatRepo_AppendUnknownDiagnosis(t *testing.T) {
	db := setupTestDB(t)
	chat := NewChatRepo(db)

	_, err := chat.AppendExchange(context.Background(),
		model.ChatMessage{DiagnosisID: "missing", Role: model.ChatRoleUser, Content: "hi"},
		model.ChatMessage{DiagnosisID: "missing", Role: model.ChatRoleAssistant, Content: "hello"},
	)
	assert.Error(t, err, "foreign key should reject unknown diagnosis")
}

func TestChatRepo_AppendExchangeIsAtomic(t *testing.T) {
	db := setupTestDB(t)
	diagnoses := NewDiagnosisRepo(db)
	chat := NewChatRepo(db)
	ctx := context.Background()
	userID := createTestUser(t, db, "9000000001")
	require.NoError(t, diagnoses.Create(ctx, makeDiagnosis("d-1", userID, time.Now())))

	_, err := chat.AppendExchange(ctx,
		model.ChatMessage{DiagnosisID: "d-1", Role: model.ChatRoleUser, Content: "orphan question"},
		model.ChatMessage{DiagnosisID: "missing", Role: model.ChatRoleAssistant, Content: "never stored"},
	)
	require.Error(t, err)

	msgs, err := chat.ListByDiagnosis(ctx, "d-1", 10)
	require.NoError(t, err)
	assert.Empty(t, msgs, "question must roll back with the failed answer")
}
