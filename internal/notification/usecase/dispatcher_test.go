package usecase

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/shandysiswandi/emunotify/internal/notification/entity"
	"github.com/shandysiswandi/emunotify/internal/notification/ratelimit"
	"github.com/shandysiswandi/emunotify/internal/pkg/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listingEvent(t entity.EventType, listingID string, actor int64) entity.DomainEvent {
	return entity.DomainEvent{
		EventType:   t,
		EntityType:  "listing",
		EntityID:    listingID,
		TriggeredBy: actor,
		Payload:     valueobject.JSONMap{},
	}
}

func TestHandle_ListingApprovedNotifiesAuthor(t *testing.T) {
	h := newHarness(t)
	h.repo.addUser(7, "ada", entity.RoleUser)
	h.repo.addUser(2, "mod", entity.RoleModerator)
	h.repo.listings["L"] = entity.ListingDetail{ID: "L", AuthorID: 7, GameTitle: "Zelda", DeviceName: "Pixel 8"}

	err := h.uc.Handle(context.Background(), listingEvent(entity.EventListingApproved, "L", 2))
	require.NoError(t, err)
	require.Equal(t, 1, h.scheduler.Len())

	require.Equal(t, 1, h.scheduler.ProcessBatch(context.Background()))

	records := h.repo.Records()
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, int64(7), rec.UserID)
	assert.Equal(t, entity.TypeListingApproved, rec.Type)
	assert.Equal(t, entity.CategoryModeration, rec.Category)
	assert.Equal(t, "/listings/L", rec.ActionURL)
	assert.Equal(t, entity.DeliveryChannelBoth, rec.DeliveryChannel)
	assert.Equal(t, entity.DeliveryStatusSent, rec.DeliveryStatus)
	assert.Contains(t, rec.Message, "Zelda on Pixel 8")

	assert.Equal(t, []int64{rec.ID}, h.channels.inApp)
	assert.Equal(t, []int64{7}, h.channels.email)
	assert.Equal(t, int64(1), h.cache.invalidated.Load())
}

func TestHandle_BannedRecipientExcluded(t *testing.T) {
	h := newHarness(t)
	h.repo.addUser(7, "ada", entity.RoleUser)
	h.repo.listings["L"] = entity.ListingDetail{ID: "L", AuthorID: 7}
	h.repo.bans = []entity.BanStatus{{UserID: 7}}

	require.NoError(t, h.uc.Handle(context.Background(), listingEvent(entity.EventListingApproved, "L", 2)))
	assert.Zero(t, h.scheduler.Len())
}

func TestHandle_ExpiredBanDoesNotExclude(t *testing.T) {
	h := newHarness(t)
	h.repo.addUser(7, "ada", entity.RoleUser)
	h.repo.listings["L"] = entity.ListingDetail{ID: "L", AuthorID: 7}
	expired := h.clock.Now().Add(-time.Hour)
	h.repo.bans = []entity.BanStatus{{UserID: 7, ExpiresAt: &expired}}

	require.NoError(t, h.uc.Handle(context.Background(), listingEvent(entity.EventListingApproved, "L", 2)))
	assert.Equal(t, 1, h.scheduler.Len())
}

func TestHandle_UnmappedEventIsIgnored(t *testing.T) {
	h := newHarness(t)

	evt := listingEvent("listing.archived", "L", 2)
	require.NoError(t, h.uc.Handle(context.Background(), evt))
	assert.Zero(t, h.scheduler.Len())
	assert.Equal(t, OutcomeUnmapped, h.uc.CreateFromEvent(context.Background(), evt, 7))
}

func TestHandle_ActorExcluded(t *testing.T) {
	h := newHarness(t)
	h.repo.addUser(7, "ada", entity.RoleUser)
	h.repo.listings["L"] = entity.ListingDetail{ID: "L", AuthorID: 7}

	require.NoError(t, h.uc.Handle(context.Background(), listingEvent(entity.EventListingCommented, "L", 7)))
	assert.Zero(t, h.scheduler.Len())
}

func TestHandle_ModeratorsForReports(t *testing.T) {
	h := newHarness(t)
	h.repo.addUser(1, "user", entity.RoleUser)
	h.repo.addUser(2, "mod", entity.RoleModerator)
	h.repo.addUser(3, "admin", entity.RoleAdmin)
	h.repo.addUser(4, "reporter-mod", entity.RoleModerator)

	evt := entity.DomainEvent{EventType: entity.EventReportCreated, EntityType: "report", EntityID: "R1", TriggeredBy: 4}
	require.NoError(t, h.uc.Handle(context.Background(), evt))

	var users []int64
	for _, p := range h.scheduler.Pending() {
		users = append(users, p.UserID)
	}
	assert.ElementsMatch(t, []int64{2, 3}, users)
}

func TestHandle_MentionedUsers(t *testing.T) {
	h := newHarness(t)
	h.repo.addUser(5, "bob", entity.RoleUser)
	h.repo.addUser(6, "cy", entity.RoleUser)

	evt := entity.DomainEvent{
		EventType:   entity.EventUserMentioned,
		EntityType:  "comment",
		EntityID:    "C1",
		TriggeredBy: 5,
		Payload:     valueobject.JSONMap{entity.PayloadMentionedUserIDs: []any{float64(5), float64(6), "6"}},
	}
	require.NoError(t, h.uc.Handle(context.Background(), evt))

	pending := h.scheduler.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, int64(6), pending[0].UserID)
}

func TestCreateFromEvent_DuplicateWithinWindow(t *testing.T) {
	h := newHarness(t)
	h.repo.addUser(7, "ada", entity.RoleUser)
	h.repo.listings["L"] = entity.ListingDetail{ID: "L", AuthorID: 7}
	ctx := context.Background()

	evt := listingEvent(entity.EventListingCommented, "L", 9)
	assert.Equal(t, OutcomeScheduled, h.uc.CreateFromEvent(ctx, evt, 7))
	assert.Equal(t, OutcomeDuplicate, h.uc.CreateFromEvent(ctx, evt, 7))

	h.scheduler.ProcessBatch(ctx)
	assert.Equal(t, OutcomeDuplicate, h.uc.CreateFromEvent(ctx, evt, 7))
	assert.Len(t, h.repo.Records(), 1)

	h.clock.Advance(6 * time.Minute)
	assert.Equal(t, OutcomeScheduled, h.uc.CreateFromEvent(ctx, evt, 7))
}

func TestCreateFromEvent_RateLimited(t *testing.T) {
	h := newHarness(t, ratelimit.Rule{Scope: entity.TypeListingVote.String(), MaxRequests: 1, Window: time.Hour, UserSpecific: true})
	h.repo.addUser(7, "ada", entity.RoleUser)
	h.repo.listings["L"] = entity.ListingDetail{ID: "L", AuthorID: 7}
	ctx := context.Background()

	evt := listingEvent(entity.EventListingVoted, "L", 9)
	assert.Equal(t, OutcomeScheduled, h.uc.CreateFromEvent(ctx, evt, 7))

	h.clock.Advance(16 * time.Minute)
	assert.Equal(t, OutcomeRateLimited, h.uc.CreateFromEvent(ctx, evt, 7))
	assert.Equal(t, 1, h.scheduler.Len())

	h.clock.Advance(time.Hour)
	assert.Equal(t, OutcomeScheduled, h.uc.CreateFromEvent(ctx, evt, 7))
}

func TestCreateFromEvent_ChannelDefaults(t *testing.T) {
	h := newHarness(t)
	h.repo.addUser(7, "ada", entity.RoleUser)
	h.repo.addUser(8, "mod", entity.RoleModerator)
	h.repo.listings["L"] = entity.ListingDetail{ID: "L", AuthorID: 7}
	ctx := context.Background()

	assert.Equal(t, OutcomeScheduled, h.uc.CreateFromEvent(ctx, listingEvent(entity.EventListingCommented, "L", 9), 7))

	system := entity.DomainEvent{EventType: entity.EventSystemMaintenance, EntityType: "system", EntityID: "m1"}
	assert.Equal(t, OutcomeNotWanted, h.uc.CreateFromEvent(ctx, system, 7))
	assert.Equal(t, OutcomeScheduled, h.uc.CreateFromEvent(ctx, system, 8))

	channels := map[int64]entity.DeliveryChannel{}
	for _, p := range h.scheduler.Pending() {
		channels[p.UserID] = p.Data.DeliveryChannel
	}
	assert.Equal(t, entity.DeliveryChannelInApp, channels[7])
	assert.Equal(t, entity.DeliveryChannelInApp, channels[8])
}

func TestCreateFromEvent_PreferenceRespected(t *testing.T) {
	h := newHarness(t)
	h.repo.addUser(7, "ada", entity.RoleUser)
	h.repo.listings["L"] = entity.ListingDetail{ID: "L", AuthorID: 7}
	ctx := context.Background()

	require.NoError(t, h.repo.UpsertPreferences(ctx, []entity.Preference{
		{UserID: 7, Type: entity.TypeListingComment},
		{UserID: 7, Type: entity.TypeListingVote, EmailEnabled: true},
	}))

	assert.Equal(t, OutcomeNotWanted, h.uc.CreateFromEvent(ctx, listingEvent(entity.EventListingCommented, "L", 9), 7))
	assert.Equal(t, OutcomeScheduled, h.uc.CreateFromEvent(ctx, listingEvent(entity.EventListingVoted, "L", 9), 7))

	pending := h.scheduler.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, entity.DeliveryChannelEmail, pending[0].Data.DeliveryChannel)
}

func TestCreateFromEvent_MutedListing(t *testing.T) {
	h := newHarness(t)
	h.repo.addUser(7, "ada", entity.RoleUser)
	h.repo.listings["L"] = entity.ListingDetail{ID: "L", AuthorID: 7}
	ctx := authCtx(7)

	require.NoError(t, h.uc.Mute(ctx, MuteInput{EntityType: "listing", EntityID: "L"}))
	assert.Equal(t, OutcomeNotWanted, h.uc.CreateFromEvent(ctx, listingEvent(entity.EventListingCommented, "L", 9), 7))

	require.NoError(t, h.uc.Unmute(ctx, MuteInput{EntityType: "listing", EntityID: "L"}))
	assert.Equal(t, OutcomeScheduled, h.uc.CreateFromEvent(ctx, listingEvent(entity.EventListingCommented, "L", 9), 7))
}

func TestProcessNotification_PublishesDeliveredWithDevices(t *testing.T) {
	h := newHarness(t)
	h.repo.addUser(7, "ada", entity.RoleUser)
	h.repo.listings["L"] = entity.ListingDetail{ID: "L", AuthorID: 7}
	ctx := authCtx(7)

	require.NoError(t, h.uc.RegisterDevice(ctx, RegisterDeviceInput{Token: "tok-1", Platform: "android"}))
	assert.Equal(t, OutcomeScheduled, h.uc.CreateFromEvent(ctx, listingEvent(entity.EventListingCommented, "L", 9), 7))
	require.Equal(t, 1, h.scheduler.ProcessBatch(ctx))

	id := h.repo.Records()[0].ID
	assert.Equal(t, []string{"tok-1"}, h.mq.tokens[id])
}

func TestProcessNotification_FailedDeliveryIsRetried(t *testing.T) {
	h := newHarness(t)
	h.channels.emailFail = true
	ctx := context.Background()

	pending := h.scheduler.Schedule(ctx, entity.RenderedNotification{
		UserID:          7,
		Type:            entity.TypeListingApproved,
		Category:        entity.CategoryModeration,
		Title:           "Listing approved",
		DeliveryChannel: entity.DeliveryChannelEmail,
	})

	assert.Zero(t, h.scheduler.ProcessBatch(ctx))
	assert.Equal(t, 1, h.scheduler.Len())

	rec, err := h.repo.GetNotification(ctx, pending.NotificationID)
	require.NoError(t, err)
	assert.Equal(t, entity.DeliveryStatusFailed, rec.DeliveryStatus)
	assert.Equal(t, strconv.FormatInt(pending.NotificationID, 10), pending.ID)
}
