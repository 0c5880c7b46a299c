package usecase

import (
	"strconv"
	"sync"
	"time"

	"github.com/shandysiswandi/emunotify/internal/notification/entity"
)

const dedupPruneThreshold = 10_000

// dedupGuard remembers (user, type) pairs claimed by in-flight or queued
// notifications that are not persisted yet.
type dedupGuard struct {
	mu     sync.Mutex
	claims map[string]time.Time
}

func newDedupGuard() *dedupGuard {
	return &dedupGuard{claims: make(map[string]time.Time)}
}

func dedupKey(userID int64, t entity.NotificationType) string {
	return strconv.FormatInt(userID, 10) + ":" + t.String()
}

// claim returns false when the pair was claimed within window before now.
func (g *dedupGuard) claim(userID int64, t entity.NotificationType, now time.Time, window time.Duration) bool {
	key := dedupKey(userID, t)

	g.mu.Lock()
	defer g.mu.Unlock()

	if at, ok := g.claims[key]; ok && now.Sub(at) < window {
		return false
	}

	if len(g.claims) >= dedupPruneThreshold {
		g.prune(now)
	}
	g.claims[key] = now

	return true
}

func (g *dedupGuard) release(userID int64, t entity.NotificationType) {
	g.mu.Lock()
	delete(g.claims, dedupKey(userID, t))
	g.mu.Unlock()
}

func (g *dedupGuard) prune(now time.Time) {
	for key, at := range g.claims {
		if now.Sub(at) >= 24*time.Hour {
			delete(g.claims, key)
		}
	}
}
