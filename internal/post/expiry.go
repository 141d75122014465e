package post

import "time"

func IsExpired(p Post, now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// TimeLeftSeconds is the whole number of seconds left before expiry, never negative.
func TimeLeftSeconds(p Post, now time.Time) int {
	left := p.ExpiresAt.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(left / time.Second)
}

// Reconcile flips an elapsed Live post to Expired and reports whether it changed.
// Expired posts are left alone.
func Reconcile(p *Post, now time.Time) bool {
	if p.Status == StatusExpired || !IsExpired(*p, now) {
		return false
	}
	p.Status = StatusExpired
	return true
}
