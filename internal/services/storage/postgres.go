package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kruthika-chat/kruthika-go/internal/models"
	"github.com/sirupsen/logrus"
)

// PostgresStorage persists history, stats and media in the hosted Supabase
// Postgres database
type PostgresStorage struct {
	pool   *pgxpool.Pool
	logger *logrus.Logger
}

func NewPostgresStorage(ctx context.Context, databaseURL string, logger *logrus.Logger) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStorage{pool: pool, logger: logger}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS chat_history (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chat_history_user_id ON chat_history (user_id, id);`,
		`CREATE TABLE IF NOT EXISTS user_stats (
			user_id TEXT PRIMARY KEY,
			total_messages INTEGER NOT NULL DEFAULT 0,
			last_seen TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS media_assets (
			kind TEXT NOT NULL,
			url TEXT NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (kind, url)
		);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStorage) GetHistory(ctx context.Context, userID string) ([]models.Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT role, content, created_at FROM chat_history WHERE user_id=$1 ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var history []models.Message
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(&msg.Role, &msg.Content, &msg.SentAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		history = append(history, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return history, nil
}

func (s *PostgresStorage) AppendHistory(ctx context.Context, userID string, maxMessages int, messages ...models.Message) error {
	if len(messages) == 0 {
		return nil
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, msg := range stamp(messages) {
			batch.Queue(
				`INSERT INTO chat_history (user_id, role, content, created_at) VALUES ($1, $2, $3, $4)`,
				userID, msg.Role, msg.Content, msg.SentAt,
			)
		}
		if maxMessages > 0 {
			batch.Queue(
				`DELETE FROM chat_history WHERE user_id=$1 AND id NOT IN (
					SELECT id FROM chat_history WHERE user_id=$1 ORDER BY id DESC LIMIT $2
				)`,
				userID, maxMessages,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("append history: %w", err)
		}
		return nil
	})
}

func (s *PostgresStorage) ClearHistory(ctx context.Context, userID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM chat_history WHERE user_id=$1`, userID); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

func (s *PostgresStorage) GetUserStats(ctx context.Context, userID string) (*models.UserStats, error) {
	stats := &models.UserStats{UserID: userID}
	err := s.pool.QueryRow(ctx,
		`SELECT total_messages, last_seen FROM user_stats WHERE user_id=$1`,
		userID,
	).Scan(&stats.TotalMessages, &stats.LastSeen)
	if errors.Is(err, pgx.ErrNoRows) {
		return stats, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user stats: %w", err)
	}
	return stats, nil
}

func (s *PostgresStorage) IncrementUserStats(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_stats (user_id, total_messages, last_seen) VALUES ($1, 1, now())
		 ON CONFLICT (user_id) DO UPDATE SET total_messages = user_stats.total_messages + 1, last_seen = now()`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("increment user stats: %w", err)
	}
	return nil
}

func (s *PostgresStorage) GetMedia(ctx context.Context) (*models.MediaAssets, error) {
	rows, err := s.pool.Query(ctx, `SELECT kind, url FROM media_assets ORDER BY kind, position`)
	if err != nil {
		return nil, fmt.Errorf("query media: %w", err)
	}
	defer rows.Close()

	media := &models.MediaAssets{}
	found := false
	for rows.Next() {
		var kind, url string
		if err := rows.Scan(&kind, &url); err != nil {
			return nil, fmt.Errorf("scan media row: %w", err)
		}
		found = true
		switch kind {
		case "image":
			media.Images = append(media.Images, url)
		case "audio":
			media.Audio = append(media.Audio, url)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate media rows: %w", err)
	}
	if !found {
		return nil, nil
	}
	return media, nil
}

func (s *PostgresStorage) SaveMedia(ctx context.Context, media *models.MediaAssets) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM media_assets`); err != nil {
			return fmt.Errorf("reset media: %w", err)
		}
		for kind, urls := range map[string][]string{"image": media.Images, "audio": media.Audio} {
			for i, url := range urls {
				if _, err := tx.Exec(ctx,
					`INSERT INTO media_assets (kind, url, position) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
					kind, url, i,
				); err != nil {
					return fmt.Errorf("save media: %w", err)
				}
			}
		}
		return nil
	})
}

func (s *PostgresStorage) CleanupExpiredHistory(ctx context.Context, expiration time.Duration) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM chat_history WHERE created_at < $1`,
		time.Now().UTC().Add(-expiration),
	)
	if err != nil {
		return fmt.Errorf("cleanup history: %w", err)
	}
	if n := tag.RowsAffected(); n > 0 {
		s.logger.WithField("rows", n).Debug("Removed expired history rows")
	}
	return nil
}

func (s *PostgresStorage) Close() error {
	s.pool.Close()
	return nil
}
