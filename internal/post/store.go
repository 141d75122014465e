package post

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend-piazza/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Store persists posts. Save is conditional on Post.Version and fails with
// ErrVersionConflict when another writer got there first.
type Store interface {
	Create(ctx context.Context, p Post) (Post, error)
	Get(ctx context.Context, id string) (Post, error)
	Save(ctx context.Context, p Post) (Post, error)
	MarkExpired(ctx context.Context, id string, now time.Time) error
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
	// ListByTopic returns every post carrying topic, newest first.
	ListByTopic(ctx context.Context, topic Topic) ([]Post, error)
	// ListLive returns Live posts for topic ordered by created_at then id, ascending.
	ListLive(ctx context.Context, topic Topic) ([]Post, error)
	// ListExpired returns Expired posts for topic, latest expiry first.
	ListExpired(ctx context.Context, topic Topic) ([]Post, error)
}

const postColumns = `id::text, title, body, topics, expires_at, status, owner_id, owner_username,
		likes, dislikes, comments, version, created_at, updated_at`

type PostgresStore struct {
	db db.Querier
}

func NewPostgresStore(q db.Querier) *PostgresStore {
	return &PostgresStore{db: q}
}

func (s *PostgresStore) Create(ctx context.Context, p Post) (Post, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Version == 0 {
		p.Version = 1
	}
	likes, dislikes, comments, err := encodeLists(p)
	if err != nil {
		return Post{}, err
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO posts (id, title, body, topics, expires_at, status, owner_id, owner_username,
			likes, dislikes, comments, version, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`, p.ID, p.Title, p.Body, topicStrings(p.Topics), p.ExpiresAt, string(p.Status), p.Owner.UserID, p.Owner.Username,
		likes, dislikes, comments, p.Version, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return Post{}, fmt.Errorf("insert post: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Post, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Post{}, ErrNotFound
	}
	row := s.db.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id)
	p, err := scanPost(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	if err != nil {
		return Post{}, fmt.Errorf("load post %s: %w", id, err)
	}
	return p, nil
}

func (s *PostgresStore) Save(ctx context.Context, p Post) (Post, error) {
	likes, dislikes, comments, err := encodeLists(p)
	if err != nil {
		return Post{}, err
	}

	row := s.db.QueryRow(ctx, `
		UPDATE posts
		SET likes = $3, dislikes = $4, comments = $5, status = $6, version = version + 1, updated_at = $7
		WHERE id = $1 AND version = $2
		RETURNING version
	`, p.ID, p.Version, likes, dislikes, comments, string(p.Status), p.UpdatedAt)
	if err := row.Scan(&p.Version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Post{}, ErrVersionConflict
		}
		return Post{}, fmt.Errorf("save post %s: %w", p.ID, err)
	}
	return p, nil
}

func (s *PostgresStore) MarkExpired(ctx context.Context, id string, now time.Time) error {
	_, err := s.db.Exec(ctx, `
		UPDATE posts SET status = 'Expired', version = version + 1, updated_at = $2
		WHERE id = $1 AND status = 'Live'
	`, id, now)
	if err != nil {
		return fmt.Errorf("mark post %s expired: %w", id, err)
	}
	return nil
}

func (s *PostgresStore) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE posts SET status = 'Expired', version = version + 1, updated_at = $1
		WHERE status = 'Live' AND expires_at < $1
	`, now)
	if err != nil {
		return 0, fmt.Errorf("sweep expired posts: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) ListByTopic(ctx context.Context, topic Topic) ([]Post, error) {
	return s.list(ctx, `SELECT `+postColumns+` FROM posts
		WHERE $1 = ANY(topics)
		ORDER BY created_at DESC, id DESC`, string(topic))
}

func (s *PostgresStore) ListLive(ctx context.Context, topic Topic) ([]Post, error) {
	return s.list(ctx, `SELECT `+postColumns+` FROM posts
		WHERE $1 = ANY(topics) AND status = 'Live'
		ORDER BY created_at ASC, id ASC`, string(topic))
}

func (s *PostgresStore) ListExpired(ctx context.Context, topic Topic) ([]Post, error) {
	return s.list(ctx, `SELECT `+postColumns+` FROM posts
		WHERE $1 = ANY(topics) AND status = 'Expired'
		ORDER BY expires_at DESC, id ASC`, string(topic))
}

func (s *PostgresStore) list(ctx context.Context, sql string, args ...any) ([]Post, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func scanPost(row pgx.Row) (Post, error) {
	var (
		p                         Post
		topics                    []string
		status                    string
		likes, dislikes, comments []byte
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Body, &topics, &p.ExpiresAt, &status, &p.Owner.UserID, &p.Owner.Username,
		&likes, &dislikes, &comments, &p.Version, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Post{}, err
	}
	p.Status = Status(status)
	p.Topics = make([]Topic, 0, len(topics))
	for _, t := range topics {
		p.Topics = append(p.Topics, Topic(t))
	}

	var err error
	if p.Likes, err = decodeInteractions(likes); err != nil {
		return Post{}, fmt.Errorf("decode likes: %w", err)
	}
	if p.Dislikes, err = decodeInteractions(dislikes); err != nil {
		return Post{}, fmt.Errorf("decode dislikes: %w", err)
	}
	if p.Comments, err = decodeInteractions(comments); err != nil {
		return Post{}, fmt.Errorf("decode comments: %w", err)
	}
	return p, nil
}

func encodeLists(p Post) (likes, dislikes, comments []byte, err error) {
	if likes, err = encodeInteractions(p.Likes); err != nil {
		return nil, nil, nil, fmt.Errorf("encode likes: %w", err)
	}
	if dislikes, err = encodeInteractions(p.Dislikes); err != nil {
		return nil, nil, nil, fmt.Errorf("encode dislikes: %w", err)
	}
	if comments, err = encodeInteractions(p.Comments); err != nil {
		return nil, nil, nil, fmt.Errorf("encode comments: %w", err)
	}
	return likes, dislikes, comments, nil
}

func encodeInteractions(list []Interaction) ([]byte, error) {
	if len(list) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(list)
}

func decodeInteractions(raw []byte) ([]Interaction, error) {
	out := []Interaction{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Interaction{}
	}
	return out, nil
}

func topicStrings(topics []Topic) []string {
	out := make([]string, 0, len(topics))
	for _, t := range topics {
		out = append(out, string(t))
	}
	return out
}
