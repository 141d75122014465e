package post

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// memStore is a versioned in-memory Store used by service tests.
type memStore struct {
	mu    sync.Mutex
	posts map[string]Post
	seq   int

	// beforeSave runs outside the lock ahead of every Save.
	beforeSave func(p Post)

	saves, conflicts, marks, sweeps int
}

func newMemStore() *memStore {
	return &memStore{posts: map[string]Post{}}
}

func (m *memStore) Create(_ context.Context, p Post) (Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	if p.ID == "" {
		p.ID = fmt.Sprintf("post-%d", m.seq)
	}
	p.Version = 1
	m.posts[p.ID] = clonePost(p)
	return clonePost(p), nil
}

func (m *memStore) Get(_ context.Context, id string) (Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return Post{}, ErrNotFound
	}
	return clonePost(p), nil
}

func (m *memStore) Save(_ context.Context, p Post) (Post, error) {
	if m.beforeSave != nil {
		m.beforeSave(p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	cur, ok := m.posts[p.ID]
	if !ok || cur.Version != p.Version {
		m.conflicts++
		return Post{}, ErrVersionConflict
	}
	p.Version++
	m.posts[p.ID] = clonePost(p)
	return clonePost(p), nil
}

func (m *memStore) MarkExpired(_ context.Context, id string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.marks++
	p, ok := m.posts[id]
	if ok && p.Status == StatusLive {
		p.Status = StatusExpired
		p.Version++
		p.UpdatedAt = now
		m.posts[id] = p
	}
	return nil
}

func (m *memStore) SweepExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweeps++
	var n int64
	for id, p := range m.posts {
		if p.Status == StatusLive && p.ExpiresAt.Before(now) {
			p.Status = StatusExpired
			p.Version++
			m.posts[id] = p
			n++
		}
	}
	return n, nil
}

func (m *memStore) ListByTopic(_ context.Context, topic Topic) ([]Post, error) {
	out := m.filter(func(p Post) bool { return p.HasTopic(topic) })
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *memStore) ListLive(_ context.Context, topic Topic) ([]Post, error) {
	out := m.filter(func(p Post) bool { return p.HasTopic(topic) && p.Status == StatusLive })
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memStore) ListExpired(_ context.Context, topic Topic) ([]Post, error) {
	out := m.filter(func(p Post) bool { return p.HasTopic(topic) && p.Status == StatusExpired })
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ExpiresAt.Equal(out[j].ExpiresAt) {
			return out[i].ExpiresAt.After(out[j].ExpiresAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memStore) filter(keep func(Post) bool) []Post {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Post{}
	for _, p := range m.posts {
		if keep(p) {
			out = append(out, clonePost(p))
		}
	}
	return out
}

func (m *memStore) stored(id string) Post {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clonePost(m.posts[id])
}

func clonePost(p Post) Post {
	p.Topics = append([]Topic(nil), p.Topics...)
	p.Likes = append([]Interaction{}, p.Likes...)
	p.Dislikes = append([]Interaction{}, p.Dislikes...)
	p.Comments = append([]Interaction{}, p.Comments...)
	return p
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
