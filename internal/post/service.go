package post

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const maxMutationAttempts = 5

// Longest lifetime whose duration still fits in a time.Duration.
const maxExpirationMinutes = float64(math.MaxInt64 / int64(time.Minute))

type Service struct {
	store Store
	now   func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Create(ctx context.Context, owner Principal, in CreateInput) (Post, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" || strings.TrimSpace(in.Body) == "" || len(in.Topics) == 0 || in.ExpirationMinutes == 0 {
		return Post{}, fmt.Errorf("%w: title, topics, body, expirationMinutes are required", ErrValidation)
	}

	topics := make([]Topic, 0, len(in.Topics))
	seen := make(map[Topic]bool, len(in.Topics))
	for _, raw := range in.Topics {
		t := Topic(raw)
		if !t.Valid() {
			return Post{}, fmt.Errorf("%w: invalid topic: %s", ErrValidation, raw)
		}
		if !seen[t] {
			seen[t] = true
			topics = append(topics, t)
		}
	}

	mins := in.ExpirationMinutes
	if math.IsNaN(mins) || math.IsInf(mins, 0) || mins <= 0 {
		return Post{}, fmt.Errorf("%w: expirationMinutes must be a number > 0", ErrValidation)
	}
	if mins > maxExpirationMinutes {
		return Post{}, fmt.Errorf("%w: expirationMinutes must be at most %.0f", ErrValidation, maxExpirationMinutes)
	}
	if owner.UserID == "" {
		return Post{}, fmt.Errorf("%w: owner is required", ErrValidation)
	}

	now := s.now()
	p := Post{
		Title:     title,
		Body:      in.Body,
		Topics:    topics,
		ExpiresAt: now.Add(time.Duration(mins * float64(time.Minute))),
		Status:    StatusLive,
		Owner:     owner,
		Likes:     []Interaction{},
		Dislikes:  []Interaction{},
		Comments:  []Interaction{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.store.Create(ctx, p)
	if err != nil {
		return Post{}, err
	}
	log.Info().Str("post_id", created.ID).Str("owner_id", owner.UserID).Time("expires_at", created.ExpiresAt).Msg("post created")
	return created, nil
}

func (s *Service) Like(ctx context.Context, postID string, actor Principal) (ReactionResult, error) {
	return s.react(ctx, postID, actor, InteractionLike)
}

func (s *Service) Dislike(ctx context.Context, postID string, actor Principal) (ReactionResult, error) {
	return s.react(ctx, postID, actor, InteractionDislike)
}

func (s *Service) react(ctx context.Context, postID string, actor Principal, kind InteractionType) (ReactionResult, error) {
	var result ReactionResult
	err := s.mutate(ctx, postID, actor, true, func(p *Post, now time.Time) error {
		var err error
		result, err = ApplyReaction(p, actor, kind, now)
		return err
	})
	if err != nil {
		return ReactionResult{}, err
	}
	return result, nil
}

func (s *Service) Comment(ctx context.Context, postID string, actor Principal, text string) (Interaction, error) {
	if strings.TrimSpace(text) == "" {
		return Interaction{}, fmt.Errorf("%w: text is required", ErrValidation)
	}

	var recorded Interaction
	err := s.mutate(ctx, postID, actor, false, func(p *Post, now time.Time) error {
		var err error
		recorded, err = AppendComment(p, actor, text, now)
		return err
	})
	if err != nil {
		return Interaction{}, err
	}
	return recorded, nil
}

// mutate loads the post, enforces expiry and ownership rules, applies fn and
// saves. A version conflict reloads the post and applies fn again.
func (s *Service) mutate(ctx context.Context, postID string, actor Principal, reaction bool, fn func(*Post, time.Time) error) error {
	for attempt := 1; attempt <= maxMutationAttempts; attempt++ {
		now := s.now()
		p, err := s.store.Get(ctx, postID)
		if err != nil {
			return err
		}

		if p.Status == StatusExpired {
			return ErrExpired
		}
		if IsExpired(p, now) {
			if err := s.store.MarkExpired(ctx, p.ID, now); err != nil {
				return err
			}
			log.Info().Str("post_id", p.ID).Msg("post expired on access")
			return ErrExpired
		}
		if reaction && actor.UserID == p.Owner.UserID {
			return ErrSelfInteraction
		}

		if err := fn(&p, now); err != nil {
			return err
		}
		p.UpdatedAt = now

		if _, err := s.store.Save(ctx, p); err != nil {
			if errors.Is(err, ErrVersionConflict) {
				log.Debug().Str("post_id", p.ID).Int("attempt", attempt).Msg("post version conflict, retrying")
				continue
			}
			return err
		}
		return nil
	}
	return fmt.Errorf("post %s: gave up after %d attempts: %w", postID, maxMutationAttempts, ErrVersionConflict)
}

// Get returns one post, persisting an expiry flip if its clock has run out.
func (s *Service) Get(ctx context.Context, postID string) (PostView, error) {
	now := s.now()
	p, err := s.store.Get(ctx, postID)
	if err != nil {
		return PostView{}, err
	}
	if Reconcile(&p, now) {
		if err := s.store.MarkExpired(ctx, p.ID, now); err != nil {
			return PostView{}, err
		}
	}
	return Project(p), nil
}

func (s *Service) Browse(ctx context.Context, topic Topic) ([]PostView, error) {
	if err := checkTopic(topic); err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.sweep(ctx, now); err != nil {
		return nil, err
	}
	posts, err := s.store.ListByTopic(ctx, topic)
	if err != nil {
		return nil, err
	}
	views := make([]PostView, 0, len(posts))
	for i := range posts {
		Reconcile(&posts[i], now)
		views = append(views, Project(posts[i]))
	}
	return views, nil
}

// MostInteresting returns the Live post for topic with the most reactions.
// ok is false when the topic has no Live posts.
func (s *Service) MostInteresting(ctx context.Context, topic Topic) (best Post, score int, ok bool, err error) {
	if err := checkTopic(topic); err != nil {
		return Post{}, 0, false, err
	}
	now := s.now()
	if err := s.sweep(ctx, now); err != nil {
		return Post{}, 0, false, err
	}
	posts, err := s.store.ListLive(ctx, topic)
	if err != nil {
		return Post{}, 0, false, err
	}
	live := posts[:0]
	for i := range posts {
		if !Reconcile(&posts[i], now) {
			live = append(live, posts[i])
		}
	}
	best, score, ok = MostInteresting(live)
	return best, score, ok, nil
}

func (s *Service) ListExpired(ctx context.Context, topic Topic) ([]Post, error) {
	if err := checkTopic(topic); err != nil {
		return nil, err
	}
	if err := s.sweep(ctx, s.now()); err != nil {
		return nil, err
	}
	return s.store.ListExpired(ctx, topic)
}

func (s *Service) sweep(ctx context.Context, now time.Time) error {
	n, err := s.store.SweepExpired(ctx, now)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Debug().Int64("count", n).Msg("expired posts swept")
	}
	return nil
}

func checkTopic(t Topic) error {
	if !t.Valid() {
		_, err := ParseTopic(string(t))
		return err
	}
	return nil
}
