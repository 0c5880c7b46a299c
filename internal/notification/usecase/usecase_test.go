package usecase

import (
	"context"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/shandysiswandi/emunotify/internal/notification/entity"
	"github.com/shandysiswandi/emunotify/internal/notification/ratelimit"
	"github.com/shandysiswandi/emunotify/internal/notification/realtime"
	"github.com/shandysiswandi/emunotify/internal/pkg/goerror"
	"github.com/shandysiswandi/emunotify/internal/pkg/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleWeeklyDigest(t *testing.T) {
	h := newHarness(t)
	h.repo.addUser(7, "ada", entity.RoleUser)

	out, err := h.uc.ScheduleWeeklyDigest(context.Background(), 7)
	require.NoError(t, err)

	want := time.Date(2026, 10, 26, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, want, out.ScheduledFor)
	assert.InDelta(t, (7 * 24 * time.Hour).Hours(), out.ScheduledFor.Sub(h.clock.Now()).Hours(), 24)

	pending := h.scheduler.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, want, pending[0].ScheduledFor)
	assert.Equal(t, entity.TypeWeeklyDigest, pending[0].Data.Type)
	assert.Zero(t, h.scheduler.ProcessBatch(context.Background()))
}

func TestScheduleWeeklyDigest_RepeatKeepsOnePending(t *testing.T) {
	h := newHarness(t)
	h.repo.addUser(7, "ada", entity.RoleUser)
	ctx := context.Background()

	first, err := h.uc.ScheduleWeeklyDigest(ctx, 7)
	require.NoError(t, err)

	h.clock.Advance(2 * 24 * time.Hour)
	second, err := h.uc.ScheduleWeeklyDigest(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, first.ScheduledFor, second.ScheduledFor)
	assert.Equal(t, 1, h.scheduler.Len())

	h.clock.Advance(6 * 24 * time.Hour)
	require.Equal(t, 1, h.scheduler.ProcessBatch(ctx))
	assert.Len(t, h.repo.Records(), 1)
	assert.Zero(t, h.scheduler.Len())

	next, err := h.uc.ScheduleWeeklyDigest(ctx, 7)
	require.NoError(t, err)
	assert.True(t, next.ScheduledFor.After(first.ScheduledFor))
	assert.Equal(t, 1, h.scheduler.Len())
}

func TestScheduleWeeklyDigest_Disabled(t *testing.T) {
	h := newHarness(t)
	h.repo.addUser(7, "ada", entity.RoleUser)
	require.NoError(t, h.repo.UpsertPreferences(context.Background(), []entity.Preference{{UserID: 7, Type: entity.TypeWeeklyDigest}}))

	_, err := h.uc.ScheduleMyWeeklyDigest(authCtx(7))
	requireCode(t, err, goerror.CodeConflict)
	assert.Zero(t, h.scheduler.Len())
}

func TestInbox(t *testing.T) {
	h := newHarness(t)
	ctx := authCtx(7)
	now := h.clock.Now()

	for i := int64(1); i <= 3; i++ {
		require.NoError(t, h.repo.CreateNotification(ctx, entity.NotificationRecord{ID: i, UserID: 7, Type: entity.TypeListingVote, CreatedAt: now}))
	}
	require.NoError(t, h.repo.CreateNotification(ctx, entity.NotificationRecord{ID: 4, UserID: 8, CreatedAt: now}))

	items, err := h.uc.ListInbox(ctx, ListInboxInput{})
	require.NoError(t, err)
	assert.Len(t, items, 3)

	require.NoError(t, h.uc.MarkInboxRead(ctx, MarkInboxReadInput{ID: 2}))
	count, err := h.uc.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	unread, err := h.uc.ListInbox(ctx, ListInboxInput{Status: "unread", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, unread, 1)

	requireCode(t, h.uc.MarkInboxRead(ctx, MarkInboxReadInput{ID: 4}), goerror.CodeNotFound)
	requireCode(t, h.uc.DeleteInbox(ctx, DeleteInboxInput{ID: 4}), goerror.CodeNotFound)

	require.NoError(t, h.uc.DeleteInbox(ctx, DeleteInboxInput{ID: 1}))
	require.NoError(t, h.uc.MarkAllInboxRead(ctx))

	count, err = h.uc.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Equal(t, []int64{7, 7, 7}, h.channels.unread)
}

func TestInbox_RequiresAuth(t *testing.T) {
	h := newHarness(t)

	_, err := h.uc.ListInbox(context.Background(), ListInboxInput{})
	requireCode(t, err, goerror.CodeUnauthorized)

	_, err = h.uc.ListInbox(authCtx(7), ListInboxInput{Status: "archived"})
	requireCode(t, err, goerror.CodeInvalidInput)
}

func TestSettings(t *testing.T) {
	h := newHarness(t)
	h.repo.addUser(7, "ada", entity.RoleUser)
	ctx := authCtx(7)

	require.NoError(t, h.uc.UpdateSettings(ctx, UpdateSettingsInput{Settings: []UpdateSettingInput{
		{Type: "LISTING_COMMENT", EmailEnabled: true},
	}}))

	items, err := h.uc.ListSettings(ctx)
	require.NoError(t, err)
	require.Len(t, items, len(entity.NotificationTypes()))

	byType := map[entity.NotificationType]SettingItem{}
	for _, it := range items {
		byType[it.Type] = it
	}
	assert.Equal(t, SettingItem{Type: entity.TypeListingComment, Category: entity.CategoryEngagement, EmailEnabled: true}, byType[entity.TypeListingComment])
	assert.True(t, byType[entity.TypeListingVote].InAppEnabled)
	assert.True(t, byType[entity.TypeListingApproved].EmailEnabled)
	assert.False(t, byType[entity.TypePolicyUpdate].InAppEnabled)

	err = h.uc.UpdateSettings(ctx, UpdateSettingsInput{Settings: []UpdateSettingInput{{Type: "NOT_A_TYPE"}}})
	requireCode(t, err, goerror.CodeInvalidFormat)

	err = h.uc.UpdateSettings(ctx, UpdateSettingsInput{Settings: []UpdateSettingInput{{Type: "lower"}}})
	requireCode(t, err, goerror.CodeInvalidInput)
}

func TestUnsubscribe(t *testing.T) {
	h := newHarness(t)

	link, err := url.Parse(h.links.UnsubscribeURL(7, entity.TypeListingApproved))
	require.NoError(t, err)
	assert.Equal(t, unsubscribePath, link.Path)

	q := link.Query()
	in := UnsubscribeInput{UserID: q.Get("u"), Type: q.Get("t"), Signature: q.Get("sig")}
	require.NoError(t, h.uc.Unsubscribe(context.Background(), in))

	pref, err := h.repo.GetPreference(context.Background(), 7, entity.TypeListingApproved)
	require.NoError(t, err)
	assert.True(t, pref.InAppEnabled)
	assert.False(t, pref.EmailEnabled)

	tampered := in
	tampered.UserID = strconv.Itoa(8)
	requireCode(t, h.uc.Unsubscribe(context.Background(), tampered), goerror.CodeForbidden)
}

func TestAdminSend(t *testing.T) {
	h := newHarness(t, ratelimit.Rule{Scope: entity.TypeAccountWarning.String(), MaxRequests: 1, Window: time.Hour, UserSpecific: true})
	h.repo.addUser(1, "root", entity.RoleAdmin)
	h.repo.addUser(7, "ada", entity.RoleUser)

	in := AdminSendInput{UserID: 7, Type: "ACCOUNT_WARNING", Message: "Please keep it civil", Channel: "IN_APP"}

	_, err := h.uc.AdminSend(authCtx(7), in)
	requireCode(t, err, goerror.CodeForbidden)

	rec, err := h.uc.AdminSend(authCtx(1), in)
	require.NoError(t, err)
	assert.Equal(t, entity.DeliveryStatusSent, rec.DeliveryStatus)
	assert.Equal(t, "Please keep it civil", rec.Message)
	assert.Zero(t, h.scheduler.Len())

	_, err = h.uc.AdminSend(authCtx(1), in)
	requireCode(t, err, goerror.CodeTooManyRequest)
}

func TestAdminSend_RepeatIsNotDeduplicated(t *testing.T) {
	h := newHarness(t)
	h.repo.addUser(1, "root", entity.RoleAdmin)
	h.repo.addUser(7, "ada", entity.RoleUser)

	in := AdminSendInput{UserID: 7, Type: "LISTING_APPROVED", Message: "Approved after review", Channel: "IN_APP"}
	for range 2 {
		_, err := h.uc.AdminSend(authCtx(1), in)
		require.NoError(t, err)
	}

	assert.Len(t, h.repo.Records(), 2)
}

func TestAdminBroadcast(t *testing.T) {
	h := newHarness(t)
	h.repo.addUser(1, "root", entity.RoleAdmin)
	h.repo.addUser(7, "ada", entity.RoleUser)
	h.repo.addUser(8, "bob", entity.RoleUser)
	h.repo.addUser(9, "cy", entity.RoleUser)
	h.repo.bans = []entity.BanStatus{{UserID: 9}}
	require.NoError(t, h.repo.UpsertPreferences(context.Background(), []entity.Preference{{UserID: 8, Type: entity.TypeMaintenanceNotice}}))

	sum, err := h.uc.AdminBroadcast(authCtx(1), AdminBroadcastInput{
		Type:    "MAINTENANCE_NOTICE",
		Title:   "Downtime",
		Message: "Back in 10 minutes",
	})
	require.NoError(t, err)
	assert.Equal(t, &BroadcastSummary{Recipients: 3, Sent: 2, Skipped: 1}, sum)
	require.Len(t, h.registry.broadcast, 1)
	assert.Equal(t, realtime.FrameBroadcast, h.registry.broadcast[0].Type)
}

func TestAdminEmit(t *testing.T) {
	h := newHarness(t)
	h.repo.addUser(1, "root", entity.RoleAdmin)

	err := h.uc.AdminEmit(authCtx(1), AdminEmitInput{EventType: "bad", EntityType: "listing", EntityID: "L"})
	requireCode(t, err, goerror.CodeInvalidInput)

	require.NoError(t, h.uc.AdminEmit(authCtx(1), AdminEmitInput{
		EventType:  "system.feature",
		EntityType: "system",
		EntityID:   "f1",
		Payload:    valueobject.JSONMap{"title": "Dark mode"},
	}))
	require.Len(t, h.emitter.events, 1)
	assert.Equal(t, int64(1), h.emitter.events[0].TriggeredBy)
}

func TestAdminRateLimitRules(t *testing.T) {
	h := newHarness(t)
	h.repo.addUser(1, "root", entity.RoleAdmin)
	ctx := authCtx(1)

	require.NoError(t, h.uc.PutRateLimitRule(ctx, PutRateLimitRuleInput{Scope: "LISTING_VOTE", MaxRequests: 2, WindowSeconds: 60, UserSpecific: true}))

	rules, err := h.uc.ListRateLimitRules(ctx)
	require.NoError(t, err)
	assert.Contains(t, rules, ratelimit.Rule{Scope: "LISTING_VOTE", MaxRequests: 2, Window: time.Minute, UserSpecific: true})

	h.limiter.Record(7, entity.TypeListingVote)
	status, err := h.uc.RateLimitStatus(ctx, 7)
	require.NoError(t, err)
	assert.NotEmpty(t, status)

	n, err := h.uc.ResetRateLimits(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, len(status), n)

	require.NoError(t, h.uc.DeleteRateLimitRule(ctx, "LISTING_VOTE"))
	requireCode(t, h.uc.DeleteRateLimitRule(ctx, "LISTING_VOTE"), goerror.CodeNotFound)
}

func TestAnalytics(t *testing.T) {
	h := newHarness(t)
	h.repo.addUser(1, "root", entity.RoleAdmin)
	now := h.clock.Now()
	require.NoError(t, h.repo.CreateNotification(context.Background(), entity.NotificationRecord{
		ID: 1, UserID: 7, Type: entity.TypeListingVote, DeliveryStatus: entity.DeliveryStatusSent,
		DeliveryChannel: entity.DeliveryChannelInApp, CreatedAt: now,
	}))

	stats, err := h.uc.Analytics(authCtx(1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Total)
	assert.Equal(t, int64(1), stats.ByStatus["SENT"])

	_, err = h.uc.Analytics(authCtx(7))
	require.Error(t, err)
}

func TestConsumeDomainEvent(t *testing.T) {
	h := newHarness(t)

	err := h.uc.ConsumeDomainEvent(context.Background(), ConsumeDomainEventInput{EventType: "listing.approved", EntityType: "listing"})
	requireCode(t, err, goerror.CodeInvalidInput)

	require.NoError(t, h.uc.ConsumeDomainEvent(context.Background(), ConsumeDomainEventInput{
		EventType: "listing.approved", EntityType: "listing", EntityID: "L", TriggeredBy: 2,
	}))
	require.Len(t, h.emitter.events, 1)
	assert.Equal(t, entity.EventListingApproved, h.emitter.events[0].EventType)
}
