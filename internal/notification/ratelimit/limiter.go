// Package ratelimit admits or blocks notification creation per user and per type.
//
// Windows are fixed, not sliding: the first hit on a key opens a window, later hits
// increment its counter, and once the window's reset time passes the next hit starts
// a fresh one. Up to twice the nominal rate can pass around a window boundary.
package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/shandysiswandi/emunotify/internal/notification/entity"
	"github.com/shandysiswandi/emunotify/internal/pkg/clock"
	"github.com/shandysiswandi/emunotify/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
)

// GlobalScope is the sentinel scope applied to every notification type.
const GlobalScope = "GLOBAL"

const defaultSweepInterval = 5 * time.Minute

var ErrInvalidRule = errors.New("ratelimit: invalid rule")

type Rule struct {
	Scope        string        `json:"scope"`
	MaxRequests  int           `json:"max_requests"`
	Window       time.Duration `json:"window"`
	UserSpecific bool          `json:"user_specific"`
}

func (r Rule) validate() error {
	if r.Scope == "" || r.MaxRequests <= 0 || r.Window <= 0 {
		return ErrInvalidRule
	}
	return nil
}

func (r Rule) key(userID int64) string {
	if !r.UserSpecific {
		return r.Scope
	}
	return r.Scope + ":" + strconv.FormatInt(userID, 10)
}

// Result is the outcome of a Check. Scope names the rule that denied, if any.
type Result struct {
	Allowed   bool
	Scope     string
	Limit     int
	Remaining int
	ResetAt   time.Time
	Reason    string
}

// EntryStatus is a read-only view of one counter for a user.
type EntryStatus struct {
	Scope       string    `json:"scope"`
	Key         string    `json:"key"`
	Count       int       `json:"count"`
	Limit       int       `json:"limit"`
	Remaining   int       `json:"remaining"`
	WindowStart time.Time `json:"window_start"`
	ResetAt     time.Time `json:"reset_at"`
}

// PreferenceChecker reports whether a user turned off every channel for a type.
type PreferenceChecker interface {
	ChannelsDisabled(ctx context.Context, userID int64, t entity.NotificationType) (bool, error)
}

type Config struct {
	Rules         []Rule
	SweepInterval time.Duration
}

type entry struct {
	userID      int64
	scope       string
	count       int
	windowStart time.Time
	resetTime   time.Time
}

type Limiter struct {
	mu      sync.Mutex
	rules   map[string]Rule
	entries map[string]*entry

	clock         clock.Clocker
	prefs         PreferenceChecker
	sweepInterval time.Duration
	denied        metric.Int64Counter
}

func New(cfg Config, clk clock.Clocker, prefs PreferenceChecker, ins instrument.Instrumentation) *Limiter {
	l := &Limiter{
		rules:         make(map[string]Rule, len(cfg.Rules)),
		entries:       make(map[string]*entry),
		clock:         clk,
		prefs:         prefs,
		sweepInterval: cfg.SweepInterval,
		denied:        metricnoop.Int64Counter{},
	}
	if l.sweepInterval <= 0 {
		l.sweepInterval = defaultSweepInterval
	}

	for _, r := range cfg.Rules {
		if err := r.validate(); err != nil {
			slog.Warn("skip invalid rate limit rule", "scope", r.Scope, "error", err)
			continue
		}
		l.rules[r.Scope] = r
	}

	if ins != nil {
		counter, err := ins.Meter("notification.ratelimit").Int64Counter(
			"notification.ratelimit.denied",
			metric.WithDescription("Notifications blocked by the rate limiter"),
		)
		if err == nil {
			l.denied = counter
		}
	}

	return l
}

// Check evaluates GLOBAL, then the type's own rule, then the preference override.
// It does not count the attempt; call Record once the notification is let through.
// Check and Record lock separately, so concurrent callers for one user can pass
// the same last slot. CheckAndRecord closes that gap.
func (l *Limiter) Check(ctx context.Context, userID int64, t entity.NotificationType) Result {
	now := l.clock.Now()

	l.mu.Lock()
	res := l.evaluate(now, userID, t)
	l.mu.Unlock()

	if res.Allowed {
		res = l.preferenceOverride(ctx, userID, t, res)
	}

	return l.finish(ctx, res)
}

// Record counts one permitted notification against GLOBAL and the type's rule.
func (l *Limiter) Record(userID int64, t entity.NotificationType) {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.record(now, userID, t)
}

// CheckAndRecord admits and counts an attempt atomically. The preference
// override is read first, outside the lock, so a preference deny wins over a
// window deny when both apply.
func (l *Limiter) CheckAndRecord(ctx context.Context, userID int64, t entity.NotificationType) Result {
	res := l.preferenceOverride(ctx, userID, t, Result{Allowed: true, Remaining: -1})
	if !res.Allowed {
		return l.finish(ctx, res)
	}

	now := l.clock.Now()

	l.mu.Lock()
	res = l.evaluate(now, userID, t)
	if res.Allowed {
		l.record(now, userID, t)
	}
	l.mu.Unlock()

	return l.finish(ctx, res)
}

// evaluate must be called with l.mu held.
func (l *Limiter) evaluate(now time.Time, userID int64, t entity.NotificationType) Result {
	res := Result{Allowed: true, Remaining: -1}

	for _, scope := range []string{GlobalScope, t.String()} {
		rule, ok := l.rules[scope]
		if !ok {
			continue
		}

		count := 0
		resetAt := now.Add(rule.Window)
		if e := l.entries[rule.key(userID)]; e != nil && now.Before(e.resetTime) {
			count = e.count
			resetAt = e.resetTime
		}

		remaining := rule.MaxRequests - count
		if remaining <= 0 {
			return Result{
				Allowed: false,
				Scope:   scope,
				Limit:   rule.MaxRequests,
				ResetAt: resetAt,
				Reason:  "limit reached for " + scope,
			}
		}

		// remaining after this attempt is recorded
		if res.Remaining < 0 || remaining-1 < res.Remaining {
			res.Scope = scope
			res.Limit = rule.MaxRequests
			res.Remaining = remaining - 1
			res.ResetAt = resetAt
		}
	}

	return res
}

// record must be called with l.mu held.
func (l *Limiter) record(now time.Time, userID int64, t entity.NotificationType) {
	for _, scope := range []string{GlobalScope, t.String()} {
		rule, ok := l.rules[scope]
		if !ok {
			continue
		}

		key := rule.key(userID)
		e := l.entries[key]
		if e == nil || !now.Before(e.resetTime) {
			l.entries[key] = &entry{
				userID:      userID,
				scope:       scope,
				count:       1,
				windowStart: now,
				resetTime:   now.Add(rule.Window),
			}
			continue
		}
		e.count++
	}
}

// preferenceOverride fails open when the preference cannot be read.
func (l *Limiter) preferenceOverride(ctx context.Context, userID int64, t entity.NotificationType, res Result) Result {
	if l.prefs == nil {
		return res
	}

	disabled, err := l.prefs.ChannelsDisabled(ctx, userID, t)
	if err != nil {
		slog.WarnContext(ctx, "failed to read preference for rate limit override", "user_id", userID, "notification_type", t, "error", err)
		return res
	}
	if disabled {
		return Result{Allowed: false, Scope: "PREFERENCE", Reason: "all channels disabled for " + t.String()}
	}

	return res
}

func (l *Limiter) finish(ctx context.Context, res Result) Result {
	if !res.Allowed {
		l.denied.Add(ctx, 1, metric.WithAttributes(attribute.String("scope", res.Scope)))
	}
	if res.Remaining < 0 {
		res.Remaining = 0
	}

	return res
}

// Sweep removes every entry whose window has lapsed and returns how many were removed.
func (l *Limiter) Sweep() int {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, e := range l.entries {
		if !now.Before(e.resetTime) {
			delete(l.entries, key)
			removed++
		}
	}

	return removed
}

// Run sweeps on every interval until ctx is done.
func (l *Limiter) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := l.Sweep(); n > 0 {
				slog.DebugContext(ctx, "rate limit entries swept", "count", n)
			}
		}
	}
}

// AddRule installs or replaces the rule for its scope.
func (l *Limiter) AddRule(r Rule) error {
	if err := r.validate(); err != nil {
		return err
	}

	l.mu.Lock()
	l.rules[r.Scope] = r
	l.mu.Unlock()

	return nil
}

// RemoveRule drops the rule and its counters. It reports whether the rule existed.
func (l *Limiter) RemoveRule(scope string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.rules[scope]; !ok {
		return false
	}
	delete(l.rules, scope)

	for key, e := range l.entries {
		if e.scope == scope {
			delete(l.entries, key)
		}
	}

	return true
}

// Rules returns the active rules, GLOBAL first then by scope.
func (l *Limiter) Rules() []Rule {
	l.mu.Lock()
	out := make([]Rule, 0, len(l.rules))
	for _, r := range l.rules {
		out = append(out, r)
	}
	l.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Scope == GlobalScope {
			return true
		}
		if out[j].Scope == GlobalScope {
			return false
		}
		return out[i].Scope < out[j].Scope
	})

	return out
}

// Status lists the user's live counters. Lapsed windows are reported as empty.
func (l *Limiter) Status(userID int64) []EntryStatus {
	now := l.clock.Now()
	rules := l.Rules()

	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]EntryStatus, 0, len(rules))
	for _, rule := range rules {
		e := l.entries[rule.key(userID)]
		if e == nil || !now.Before(e.resetTime) {
			continue
		}

		out = append(out, EntryStatus{
			Scope:       rule.Scope,
			Key:         rule.key(userID),
			Count:       e.count,
			Limit:       rule.MaxRequests,
			Remaining:   max(rule.MaxRequests-e.count, 0),
			WindowStart: e.windowStart,
			ResetAt:     e.resetTime,
		})
	}

	return out
}

// ResetUserLimits clears every per-user counter of userID and returns how many were cleared.
func (l *Limiter) ResetUserLimits(userID int64) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, e := range l.entries {
		rule, ok := l.rules[e.scope]
		if ok && !rule.UserSpecific {
			continue
		}
		if e.userID == userID {
			delete(l.entries, key)
			removed++
		}
	}

	return removed
}

// EntryCount returns the number of tracked counters.
func (l *Limiter) EntryCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
