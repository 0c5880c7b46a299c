package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"

	"github.com/samber/lo"
	"github.com/shandysiswandi/emunotify/internal/notification/entity"
	"github.com/shandysiswandi/emunotify/internal/pkg/goerror"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const maxRecipientWorkers = 16

// Outcome is what CreateFromEvent did for one recipient.
type Outcome string

const (
	OutcomeScheduled   Outcome = "scheduled"
	OutcomeUnmapped    Outcome = "unmapped"
	OutcomeNotWanted   Outcome = "not_wanted"
	OutcomeDuplicate   Outcome = "duplicate"
	OutcomeRateLimited Outcome = "rate_limited"
	OutcomeFailed      Outcome = "failed"
)

// Handle is the event bus handler. It resolves recipients and creates one
// notification per recipient; one recipient's failure never affects another.
func (s *Usecase) Handle(ctx context.Context, evt entity.DomainEvent) (err error) {
	ctx, span := s.startSpan(ctx, "Handle")
	defer func() { s.endSpan(span, err) }()

	span.SetAttributes(attribute.String("event_type", evt.EventType.String()), attribute.String("entity_id", evt.EntityID))

	if _, ok := eventRules[evt.EventType]; !ok {
		slog.DebugContext(ctx, "no notification mapped for event", "event_type", evt.EventType)
		return nil
	}

	recipients, err := s.resolveRecipients(ctx, evt)
	if err != nil {
		slog.ErrorContext(ctx, "failed to resolve notification recipients", "event_type", evt.EventType, "entity_id", evt.EntityID, "error", err)
		return err
	}

	recipients, err = s.excludeBanned(ctx, recipients)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list ban statuses", "event_type", evt.EventType, "error", err)
		return err
	}

	if len(recipients) == 0 {
		slog.DebugContext(ctx, "event has no eligible recipients", "event_type", evt.EventType, "entity_id", evt.EntityID)
		return nil
	}

	sema := make(chan struct{}, maxRecipientWorkers)
	var wg sync.WaitGroup
	for _, userID := range recipients {
		sema <- struct{}{}
		wg.Go(func() {
			defer func() { <-sema }()
			s.CreateFromEvent(ctx, evt, userID)
		})
	}
	wg.Wait()

	return nil
}

func (s *Usecase) resolveRecipients(ctx context.Context, evt entity.DomainEvent) ([]int64, error) {
	rule := eventRules[evt.EventType]
	p := evt.Payload

	var ids []int64
	var err error

	switch rule.recipients {
	case recipientsListingAuthor:
		ids, err = s.listingAuthor(ctx, evt)
	case recipientsParentCommentAuthor:
		parent := p.GetString(entity.PayloadParentCommentID)
		if parent == "" {
			return nil, nil
		}
		var author int64
		author, err = s.repoDB.GetCommentAuthorID(ctx, parent)
		if errors.Is(err, goerror.ErrNotFound) {
			return nil, nil
		}
		ids = []int64{author}
	case recipientsMentioned:
		ids = p.GetInt64Slice(entity.PayloadMentionedUserIDs)
	case recipientsDeviceMatch:
		ids, err = s.repoDB.ListUserIDsByDevicePreference(ctx, p.GetString(entity.PayloadDeviceID), p.GetString(entity.PayloadSocID))
		if author := p.GetInt64(entity.PayloadAuthorID); author > 0 {
			ids = lo.Without(ids, author)
		}
	case recipientsTypeEnabled:
		ids, err = s.repoDB.ListUserIDsWithTypeEnabled(ctx, rule.notificationType)
	case recipientsEntityUser:
		id, perr := strconv.ParseInt(evt.EntityID, 10, 64)
		if perr != nil || id <= 0 {
			slog.WarnContext(ctx, "event entity id is not a user id", "event_type", evt.EventType, "entity_id", evt.EntityID)
			return nil, nil
		}
		ids = []int64{id}
	case recipientsReporter:
		if reporter := p.GetInt64(entity.PayloadReporterID); reporter > 0 {
			ids = []int64{reporter}
		}
	default:
		ids, err = s.repoDB.ListUserIDsByRoles(ctx, s.rbac.RolesAtLeast(entity.RoleModerator))
	}
	if err != nil {
		return nil, err
	}

	ids = lo.Uniq(lo.Filter(ids, func(id int64, _ int) bool { return id > 0 }))
	if !rule.keepActor && evt.HasTrigger() {
		ids = lo.Without(ids, evt.TriggeredBy)
	}

	return ids, nil
}

func (s *Usecase) listingAuthor(ctx context.Context, evt entity.DomainEvent) ([]int64, error) {
	if author := evt.Payload.GetInt64(entity.PayloadAuthorID); author > 0 {
		return []int64{author}, nil
	}

	listingID := listingIDOf(evt)
	if listingID == "" {
		return nil, nil
	}

	listing, err := s.repoDB.GetListingDetail(ctx, listingID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "listing for event not found", "listing_id", listingID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return []int64{listing.AuthorID}, nil
}

func listingIDOf(evt entity.DomainEvent) string {
	if id := evt.Payload.GetString(entity.PayloadListingID); id != "" {
		return id
	}
	if evt.EntityType == "listing" {
		return evt.EntityID
	}
	return ""
}

// excludeBanned drops users whose ban has no expiry or expires in the future.
func (s *Usecase) excludeBanned(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return ids, nil
	}

	bans, err := s.repoDB.ListBanStatuses(ctx, ids)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	banned := lo.FilterMap(bans, func(b entity.BanStatus, _ int) (int64, bool) {
		return b.UserID, b.ActiveAt(now)
	})

	return lo.Without(ids, banned...), nil
}

// CreateFromEvent runs the per-recipient pipeline. It never fails its caller;
// every step's result is folded into the returned Outcome.
func (s *Usecase) CreateFromEvent(ctx context.Context, evt entity.DomainEvent, userID int64) Outcome {
	ctx, span := s.startSpan(ctx, "CreateFromEvent")
	defer span.End()

	rule, ok := eventRules[evt.EventType]
	if !ok {
		return OutcomeUnmapped
	}
	t := rule.notificationType

	category, err := s.templates.Category(t)
	if err != nil {
		slog.ErrorContext(ctx, "notification type has no template", "notification_type", t, "error", err)
		return OutcomeFailed
	}

	ch, err := s.shouldSend(ctx, evt, userID, t, category)
	if err != nil {
		slog.ErrorContext(ctx, "failed to evaluate notification preference", "user_id", userID, "notification_type", t, "error", err)
		return OutcomeFailed
	}
	if ch == entity.DeliveryChannelUnknown {
		slog.DebugContext(ctx, "notification not wanted by recipient", "user_id", userID, "notification_type", t)
		return OutcomeNotWanted
	}

	dup, err := s.isDuplicate(ctx, userID, t)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo check recent notification", "user_id", userID, "notification_type", t, "error", err)
		return OutcomeFailed
	}
	if dup {
		slog.InfoContext(ctx, "duplicate notification suppressed", "user_id", userID, "notification_type", t, "event_type", evt.EventType)
		return OutcomeDuplicate
	}

	rendered, err := s.templates.Render(t, s.buildContext(ctx, evt, userID))
	if err != nil {
		s.dedup.release(userID, t)
		slog.ErrorContext(ctx, "failed to render notification", "user_id", userID, "notification_type", t, "error", err)
		return OutcomeFailed
	}

	if res := s.limiter.CheckAndRecord(ctx, userID, t); !res.Allowed {
		s.dedup.release(userID, t)
		slog.WarnContext(ctx, "notification blocked by rate limit", "user_id", userID, "notification_type", t,
			"scope", res.Scope, "reason", res.Reason, "reset_at", res.ResetAt, "error", entity.ErrRateLimitExceeded)
		return OutcomeRateLimited
	}

	data := entity.RenderedNotification{
		UserID:          userID,
		Type:            t,
		Category:        category,
		Title:           rendered.Title,
		Message:         rendered.Message,
		ActionURL:       rendered.ActionURL,
		Metadata:        rendered.Metadata,
		DeliveryChannel: ch,
	}

	if _, err := s.CreateNotification(ctx, data, CreateOptions{}); err != nil {
		s.dedup.release(userID, t)
		slog.ErrorContext(ctx, "failed to create notification from event", "user_id", userID, "notification_type", t, "error", err)
		return OutcomeFailed
	}

	s.created.Add(ctx, 1, metric.WithAttributes(attribute.String("notification_type", t.String())))

	return OutcomeScheduled
}

// isDuplicate consults the store for persisted records and the in-memory guard
// for ones still queued. A false result claims the pair.
func (s *Usecase) isDuplicate(ctx context.Context, userID int64, t entity.NotificationType) (bool, error) {
	now := s.clock.Now()
	window := dedupWindow(t)

	exists, err := s.repoDB.ExistsNotificationSince(ctx, userID, t, now.Add(-window))
	if err != nil {
		return false, err
	}
	if exists {
		return true, nil
	}

	return !s.dedup.claim(userID, t, now, window), nil
}
