package usecase

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/emunotify/internal/notification/channel"
	"github.com/shandysiswandi/emunotify/internal/notification/entity"
	"github.com/shandysiswandi/emunotify/internal/notification/ratelimit"
	"github.com/shandysiswandi/emunotify/internal/notification/realtime"
	"github.com/shandysiswandi/emunotify/internal/notification/scheduler"
	"github.com/shandysiswandi/emunotify/internal/notification/template"
	"github.com/shandysiswandi/emunotify/internal/pkg/clock"
	"github.com/shandysiswandi/emunotify/internal/pkg/goerror"
	"github.com/shandysiswandi/emunotify/internal/pkg/hash"
	"github.com/shandysiswandi/emunotify/internal/pkg/instrument"
	"github.com/shandysiswandi/emunotify/internal/pkg/jwt"
	"github.com/shandysiswandi/emunotify/internal/pkg/rbac"
	"github.com/shandysiswandi/emunotify/internal/pkg/validator"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

type seqID struct{ n atomic.Int64 }

func (s *seqID) Generate() int64 { return s.n.Inc() }

type fakeRepo struct {
	clock *clock.Fake

	mu       sync.Mutex
	records  map[int64]entity.NotificationRecord
	prefs    map[string]entity.Preference
	profiles map[int64]entity.UserProfile
	bans     []entity.BanStatus
	listings map[string]entity.ListingDetail
	comments map[string]int64
	mutes    map[entity.EntityMute]bool
	devices  map[int64][]string
}

func newFakeRepo(clk *clock.Fake) *fakeRepo {
	return &fakeRepo{
		clock:    clk,
		records:  map[int64]entity.NotificationRecord{},
		prefs:    map[string]entity.Preference{},
		profiles: map[int64]entity.UserProfile{},
		listings: map[string]entity.ListingDetail{},
		comments: map[string]int64{},
		mutes:    map[entity.EntityMute]bool{},
		devices:  map[int64][]string{},
	}
}

func (r *fakeRepo) addUser(id int64, name, role string) {
	r.mu.Lock()
	r.profiles[id] = entity.UserProfile{ID: id, Name: name, Email: name + "@example.com", Role: role}
	r.mu.Unlock()
}

func (r *fakeRepo) Records() []entity.NotificationRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]entity.NotificationRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	slices.SortFunc(out, func(a, b entity.NotificationRecord) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (r *fakeRepo) CreateNotification(_ context.Context, rec entity.NotificationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.records[rec.ID]; ok {
		old.DeliveryStatus = entity.DeliveryStatusPending
		r.records[rec.ID] = old
		return nil
	}
	r.records[rec.ID] = rec
	return nil
}

func (r *fakeRepo) UpdateDeliveryStatus(_ context.Context, id int64, status entity.DeliveryStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return goerror.ErrNotFound
	}
	rec.DeliveryStatus = status
	r.records[id] = rec
	return nil
}

func (r *fakeRepo) GetNotification(_ context.Context, id int64) (*entity.NotificationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &rec, nil
}

func (r *fakeRepo) ExistsNotificationSince(_ context.Context, userID int64, t entity.NotificationType, since time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.UserID == userID && rec.Type == t && !rec.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) ListNotifications(_ context.Context, userID int64, filter entity.InboxFilter, limit, offset int32) ([]entity.NotificationRecord, error) {
	var out []entity.NotificationRecord
	for _, rec := range r.Records() {
		if rec.UserID != userID {
			continue
		}
		if (filter == entity.InboxFilterUnread && rec.IsRead) || (filter == entity.InboxFilterRead && !rec.IsRead) {
			continue
		}
		out = append(out, rec)
	}
	if int(offset) >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > int(limit) {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeRepo) CountUnreadNotifications(_ context.Context, userID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, rec := range r.records {
		if rec.UserID == userID && !rec.IsRead {
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) MarkNotificationRead(_ context.Context, userID, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok || rec.UserID != userID {
		return false, nil
	}
	rec.IsRead = true
	r.records[id] = rec
	return true, nil
}

func (r *fakeRepo) MarkNotificationsReadAll(_ context.Context, userID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, rec := range r.records {
		if rec.UserID == userID && !rec.IsRead {
			rec.IsRead = true
			r.records[id] = rec
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) DeleteNotification(_ context.Context, userID, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok || rec.UserID != userID {
		return false, nil
	}
	delete(r.records, id)
	return true, nil
}

func (r *fakeRepo) GetNotificationStats(_ context.Context, since time.Time) (*entity.NotificationStats, error) {
	stats := &entity.NotificationStats{
		Since:     since,
		ByStatus:  map[string]int64{},
		ByChannel: map[string]int64{},
		ByType:    map[entity.NotificationType]int64{},
	}
	for _, rec := range r.Records() {
		if rec.CreatedAt.Before(since) {
			continue
		}
		stats.Total++
		if !rec.IsRead {
			stats.Unread++
		}
		stats.ByStatus[rec.DeliveryStatus.String()]++
		stats.ByChannel[rec.DeliveryChannel.String()]++
		stats.ByType[rec.Type]++
	}
	return stats, nil
}

func prefKey(userID int64, t entity.NotificationType) string {
	return dedupKey(userID, t)
}

func (r *fakeRepo) GetPreference(_ context.Context, userID int64, t entity.NotificationType) (*entity.Preference, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.prefs[prefKey(userID, t)]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &p, nil
}

func (r *fakeRepo) ListPreferences(_ context.Context, userID int64) ([]entity.Preference, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Preference
	for _, p := range r.prefs {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeRepo) UpsertPreferences(_ context.Context, prefs []entity.Preference) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range prefs {
		r.prefs[prefKey(p.UserID, p.Type)] = p
	}
	return nil
}

func (r *fakeRepo) IsEntityMuted(_ context.Context, userID int64, entityType, entityID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mutes[entity.EntityMute{UserID: userID, EntityType: entityType, EntityID: entityID}], nil
}

func (r *fakeRepo) MuteEntity(_ context.Context, m entity.EntityMute) error {
	r.mu.Lock()
	r.mutes[m] = true
	r.mu.Unlock()
	return nil
}

func (r *fakeRepo) UnmuteEntity(_ context.Context, m entity.EntityMute) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ok := r.mutes[m]
	delete(r.mutes, m)
	return ok, nil
}

func (r *fakeRepo) GetUserProfile(_ context.Context, userID int64) (*entity.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &p, nil
}

func (r *fakeRepo) ListBanStatuses(_ context.Context, userIDs []int64) ([]entity.BanStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.BanStatus
	for _, b := range r.bans {
		if slices.Contains(userIDs, b.UserID) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListUserIDsByRoles(_ context.Context, roles []string) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int64
	for id, p := range r.profiles {
		if slices.Contains(roles, p.Role) {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out, nil
}

func (r *fakeRepo) ListActiveUserIDs(_ context.Context) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int64, 0, len(r.profiles))
	for id := range r.profiles {
		out = append(out, id)
	}
	slices.Sort(out)
	return out, nil
}

func (r *fakeRepo) ListUserIDsByDevicePreference(context.Context, string, string) ([]int64, error) {
	return nil, nil
}

func (r *fakeRepo) ListUserIDsWithTypeEnabled(_ context.Context, t entity.NotificationType) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int64
	for _, p := range r.prefs {
		if p.Type == t && (p.InAppEnabled || p.EmailEnabled) {
			out = append(out, p.UserID)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetListingDetail(_ context.Context, listingID string) (*entity.ListingDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[listingID]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &l, nil
}

func (r *fakeRepo) GetCommentAuthorID(_ context.Context, commentID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.comments[commentID]
	if !ok {
		return 0, goerror.ErrNotFound
	}
	return id, nil
}

func (r *fakeRepo) GetGameTitle(context.Context, string) (string, error) {
	return "", goerror.ErrNotFound
}

func (r *fakeRepo) GetEmulatorName(context.Context, string) (string, error) {
	return "", goerror.ErrNotFound
}

func (r *fakeRepo) RegisterUserDevice(_ context.Context, d entity.Device) error {
	r.mu.Lock()
	r.devices[d.UserID] = append(r.devices[d.UserID], d.Token)
	r.mu.Unlock()
	return nil
}

func (r *fakeRepo) RemoveUserDevice(_ context.Context, userID int64, token string) error {
	r.mu.Lock()
	r.devices[userID] = slices.DeleteFunc(r.devices[userID], func(t string) bool { return t == token })
	r.mu.Unlock()
	return nil
}

func (r *fakeRepo) ListUserDeviceTokens(_ context.Context, userID int64) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.devices[userID]), nil
}

type fakeCache struct{ invalidated atomic.Int64 }

func (c *fakeCache) GetStats(context.Context, time.Time) (*entity.NotificationStats, error) {
	return nil, goerror.ErrNotFound
}

func (c *fakeCache) SetStats(context.Context, *entity.NotificationStats) error { return nil }

func (c *fakeCache) InvalidateStats(context.Context) error {
	c.invalidated.Inc()
	return nil
}

type fakeMQ struct {
	mu     sync.Mutex
	tokens map[int64][]string
}

func (m *fakeMQ) PublishDelivered(_ context.Context, r entity.NotificationRecord, tokens []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tokens == nil {
		m.tokens = map[int64][]string{}
	}
	m.tokens[r.ID] = tokens
	return nil
}

type fakeChannels struct {
	mu        sync.Mutex
	inApp     []int64
	email     []int64
	unread    []int64
	emailFail bool
}

func (c *fakeChannels) Deliver(_ context.Context, id int64, _ entity.RenderedNotification) channel.Result {
	c.mu.Lock()
	c.inApp = append(c.inApp, id)
	c.mu.Unlock()
	return channel.Result{Channel: entity.DeliveryChannelInApp, Success: true}
}

func (c *fakeChannels) PushUnreadCount(_ context.Context, userID int64) {
	c.mu.Lock()
	c.unread = append(c.unread, userID)
	c.mu.Unlock()
}

type fakeEmail struct{ c *fakeChannels }

func (e fakeEmail) Deliver(_ context.Context, data entity.RenderedNotification) channel.Result {
	e.c.mu.Lock()
	defer e.c.mu.Unlock()
	if e.c.emailFail {
		return channel.Result{Channel: entity.DeliveryChannelEmail, Err: entity.ErrDeliveryFailed}
	}
	e.c.email = append(e.c.email, data.UserID)
	return channel.Result{Channel: entity.DeliveryChannelEmail, Success: true}
}

type fakeRegistry struct {
	mu        sync.Mutex
	broadcast []realtime.Frame
}

func (r *fakeRegistry) Subscribe(context.Context, int64, realtime.Sink) error { return nil }
func (r *fakeRegistry) Unsubscribe(int64, realtime.Sink) {}
func (r *fakeRegistry) Push(context.Context, int64, realtime.Frame) bool { return false }
func (r *fakeRegistry) Count() int { return 0 }

func (r *fakeRegistry) Broadcast(_ context.Context, f realtime.Frame) int {
	r.mu.Lock()
	r.broadcast = append(r.broadcast, f)
	r.mu.Unlock()
	return 0
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []entity.DomainEvent
}

func (e *recordingEmitter) Emit(_ context.Context, evt entity.DomainEvent) {
	e.mu.Lock()
	e.events = append(e.events, evt)
	e.mu.Unlock()
}

type harness struct {
	uc        *Usecase
	repo      *fakeRepo
	cache     *fakeCache
	mq        *fakeMQ
	channels  *fakeChannels
	registry  *fakeRegistry
	emitter   *recordingEmitter
	limiter   *ratelimit.Limiter
	scheduler *scheduler.Scheduler
	clock     *clock.Fake
	links     *UnsubscribeLinks
}

func newHarness(t *testing.T, rules ...ratelimit.Rule) *harness {
	t.Helper()

	clk := clock.NewFake(time.Date(2026, 10, 19, 15, 30, 0, 0, time.UTC))
	repo := newFakeRepo(clk)
	ins := instrument.NewNoop()
	engine := template.New()

	if len(rules) == 0 {
		rules = ratelimit.DefaultRules(entity.NotificationTypes(), engine.Category)
	}
	limiter := ratelimit.New(ratelimit.Config{Rules: rules}, clk, nil, ins)

	authz, err := rbac.New(entity.Roles(), Policies())
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	ids := &seqID{}
	channels := &fakeChannels{}
	h := &harness{
		repo:     repo,
		cache:    &fakeCache{},
		mq:       &fakeMQ{},
		channels: channels,
		registry: &fakeRegistry{},
		emitter:  &recordingEmitter{},
		limiter:  limiter,
		clock:    clk,
		links:    NewUnsubscribeLinks("https://emuready.test", hash.NewHMACSHA256("secret")),
	}

	h.uc = NewNotification(Dependency{
		RepoDB:     repo,
		RepoCache:  h.cache,
		RepoMQ:     h.mq,
		Limiter:    limiter,
		Registry:   h.registry,
		InApp:      channels,
		Email:      fakeEmail{c: channels},
		Templates:  engine,
		RBAC:       authz,
		Links:      h.links,
		Config:     Config{DigestHour: 9, StatsWindow: 30 * 24 * time.Hour},
		UID:        ids,
		Clock:      clk,
		Validator:  v,
		Instrument: ins,
	})
	h.scheduler = scheduler.New(scheduler.Config{BatchSize: 100, Interval: time.Hour}, scheduler.Dependency{
		Clock:     clk,
		UID:       ids,
		Processor: h.uc,
		Ins:       ins,
	})
	h.uc.SetScheduler(h.scheduler)
	h.uc.SetEmitter(h.emitter)

	return h
}

func authCtx(userID int64) context.Context {
	return jwt.SetAuth(context.Background(), jwt.Claims{UserID: userID})
}

func requireCode(t *testing.T, err error, code goerror.Code) {
	t.Helper()

	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	require.Equal(t, code, gerr.Code())
}
