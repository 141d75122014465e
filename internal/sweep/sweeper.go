// Package sweep periodically flips elapsed Live posts to Expired in bulk.
// Reads and writes reconcile posts lazily as well, so the sweeper only keeps
// stored statuses fresh between requests.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const lockKey = "piazza:sweep:lock"

// releaseScript deletes the lock only while this instance still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Store interface {
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

type Sweeper struct {
	store    Store
	redis    *redis.Client
	interval time.Duration
	lockTTL  time.Duration
	token    string
	now      func() time.Time
}

// New builds a sweeper. With a nil redis client every instance sweeps on
// every tick; otherwise a SET NX lock lets one instance sweep per tick.
func New(store Store, redisClient *redis.Client, interval, lockTTL time.Duration) *Sweeper {
	if lockTTL <= 0 {
		lockTTL = interval
	}
	return &Sweeper{
		store:    store,
		redis:    redisClient,
		interval: interval,
		lockTTL:  lockTTL,
		token:    uuid.NewString(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SweepOnce runs one sweep. ran is false when another instance holds the lock.
func (s *Sweeper) SweepOnce(ctx context.Context) (swept int64, ran bool, err error) {
	if s.redis != nil {
		ok, err := s.redis.SetNX(ctx, lockKey, s.token, s.lockTTL).Result()
		switch {
		case err != nil:
			// Sweeping is idempotent; go ahead without the lock.
			log.Warn().Err(err).Msg("sweep lock unavailable, sweeping without it")
		case !ok:
			return 0, false, nil
		default:
			defer s.release(ctx)
		}
	}

	swept, err = s.store.SweepExpired(ctx, s.now())
	if err != nil {
		return 0, true, fmt.Errorf("sweep: %w", err)
	}
	return swept, true, nil
}

func (s *Sweeper) release(ctx context.Context) {
	err := releaseScript.Run(context.WithoutCancel(ctx), s.redis, []string{lockKey}, s.token).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		log.Warn().Err(err).Msg("release sweep lock")
	}
}

func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", s.interval).Bool("locked", s.redis != nil).Msg("expiry sweeper started")
	for {
		s.tick(ctx)
		select {
		case <-ctx.Done():
			log.Info().Msg("expiry sweeper stopped")
			return
		case <-ticker.C:
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	swept, ran, err := s.SweepOnce(ctx)
	switch {
	case err != nil && ctx.Err() == nil:
		log.Error().Err(err).Msg("expiry sweep failed")
	case ran && swept > 0:
		log.Info().Int64("count", swept).Msg("expired posts swept")
	}
}
