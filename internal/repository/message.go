package repository

import (
	"context"
	"errors"
	"time"

	"story-backend/internal/apperrors"
	"story-backend/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MessageRepository handles private conversations between two users
type MessageRepository struct {
	db *pgxpool.Pool
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

// GetOrCreateConversation returns the conversation between two users,
// creating it on first contact.
func (r *MessageRepository) GetOrCreateConversation(ctx context.Context, userID, otherID string, now time.Time) (*models.Conversation, error) {
	a, b := models.OrderedPair(userID, otherID)

	query := `
		INSERT INTO conversations (id, user_a_id, user_b_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (user_a_id, user_b_id) DO NOTHING
	`
	if _, err := r.db.Exec(ctx, query, uuid.New().String(), a, b, now); err != nil {
		return nil, apperrors.Transient("create conversation", err)
	}

	var c models.Conversation
	err := r.db.QueryRow(ctx, `
		SELECT id, user_a_id, user_b_id, created_at, updated_at
		FROM conversations
		WHERE user_a_id = $1 AND user_b_id = $2
	`, a, b).Scan(&c.ID, &c.UserAID, &c.UserBID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("conversation", a+"/"+b)
		}
		return nil, apperrors.Transient("get conversation", err)
	}
	return &c, nil
}

// AppendMessage adds a message and touches the conversation
func (r *MessageRepository) AppendMessage(ctx context.Context, m *models.Message) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return apperrors.Transient("begin append message", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO messages (id, conversation_id, sender_id, body, story_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := tx.Exec(ctx, query, m.ID, m.ConversationID, m.SenderID, m.Body, m.StoryID, m.CreatedAt); err != nil {
		return apperrors.Transient("append message", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE conversations SET updated_at = $1 WHERE id = $2`, m.CreatedAt, m.ConversationID); err != nil {
		return apperrors.Transient("touch conversation", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return apperrors.Transient("commit message", err)
	}
	return nil
}
