package assistant

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type ChatEntry struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id,omitempty"`
	Source    string `json:"source"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	CreatedAt int64  `json:"created_at"`
}

// ChatLog persists answered questions in chat_log.
type ChatLog struct {
	db *sql.DB
}

func NewChatLog(db *sql.DB) *ChatLog { return &ChatLog{db: db} }

func (l *ChatLog) Append(ctx context.Context, e ChatEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().Unix()
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO chat_log (id, user_id, source, question, answer, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		e.ID, e.UserID, e.Source, e.Question, e.Answer, e.CreatedAt)
	return err
}

// List returns the newest entries first. An empty userID lists everyone.
func (l *ChatLog) List(ctx context.Context, userID string, limit int) ([]ChatEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, user_id, source, question, answer, created_at FROM chat_log
		 WHERE ($1 = '' OR user_id = $1)
		 ORDER BY created_at DESC, id LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ChatEntry{}
	for rows.Next() {
		var e ChatEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Source, &e.Question, &e.Answer, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
