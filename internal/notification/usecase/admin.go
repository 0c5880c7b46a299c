package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/shandysiswandi/emunotify/internal/notification/entity"
	"github.com/shandysiswandi/emunotify/internal/notification/ratelimit"
	"github.com/shandysiswandi/emunotify/internal/notification/realtime"
	"github.com/shandysiswandi/emunotify/internal/notification/scheduler"
	"github.com/shandysiswandi/emunotify/internal/notification/template"
	"github.com/shandysiswandi/emunotify/internal/pkg/goerror"
	"github.com/shandysiswandi/emunotify/internal/pkg/rbac"
	"github.com/shandysiswandi/emunotify/internal/pkg/valueobject"
	"go.uber.org/atomic"
)

const objAdmin = "notification:admin"

const (
	actSend      = "send"
	actBroadcast = "broadcast"
	actEmit      = "emit"
	actManage    = "manage"
	actRead      = "read"
)

// Policies is the casbin policy set for the notification endpoints. Roles
// inherit upward, so ADMIN also holds the USER grant.
func Policies() []rbac.Policy {
	return []rbac.Policy{
		{Role: entity.RoleUser, Object: "notification", Action: "*"},
		{Role: entity.RoleAdmin, Object: objAdmin, Action: "*"},
	}
}

type AdminSendInput struct {
	UserID    int64  `validate:"required,gt=0"`
	Type      string `validate:"required,enum_name"`
	Title     string `validate:"omitempty,max=200"`
	Message   string `validate:"omitempty,max=2000"`
	ActionURL string `validate:"omitempty,max=500"`
	Channel   string `validate:"omitempty,oneof=IN_APP EMAIL BOTH"`
	Metadata  valueobject.JSONMap
}

// AdminSend creates and delivers one notification on the immediate path.
// Direct sends are not subject to the dedup window.
func (s *Usecase) AdminSend(ctx context.Context, in AdminSendInput) (_ *entity.NotificationRecord, err error) {
	ctx, span := s.startSpan(ctx, "AdminSend")
	defer func() { s.endSpan(span, err) }()

	if _, err := s.authenticatedAndAuthorized(ctx, objAdmin, actSend); err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	t := entity.NotificationType(in.Type)
	data, err := s.renderDirect(t, in.UserID, in.Title, in.Message, in.ActionURL, in.Metadata)
	if err != nil {
		return nil, err
	}

	data.DeliveryChannel = entity.DeliveryChannelFromString(in.Channel)
	if data.DeliveryChannel == entity.DeliveryChannelUnknown {
		data.DeliveryChannel, err = s.channelFor(ctx, in.UserID, t, data.Category)
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo get notification preference", "user_id", in.UserID, "notification_type", t, "error", err)
			return nil, goerror.NewServer(err)
		}
		if data.DeliveryChannel == entity.DeliveryChannelUnknown {
			return nil, goerror.NewBusiness("recipient disabled this notification type", goerror.CodeConflict)
		}
	}

	if res := s.limiter.CheckAndRecord(ctx, in.UserID, t); !res.Allowed {
		slog.WarnContext(ctx, "admin notification blocked by rate limit", "user_id", in.UserID, "notification_type", t, "scope", res.Scope)
		return nil, goerror.NewTooManyRequests(entity.ErrRateLimitExceeded.Error(), res.ResetAt.Sub(s.clock.Now()))
	}

	record, err := s.CreateNotification(ctx, data, CreateOptions{Immediate: true})
	if errors.Is(err, entity.ErrDeliveryFailed) {
		slog.WarnContext(ctx, "admin notification persisted but not delivered", "user_id", in.UserID, "notification_type", t, "error", err)
		return record, nil
	}
	if err != nil {
		return nil, goerror.NewServer(err)
	}

	return record, nil
}

type AdminBroadcastInput struct {
	Type      string `validate:"required,oneof=MAINTENANCE_NOTICE FEATURE_ANNOUNCEMENT POLICY_UPDATE"`
	Title     string `validate:"required,max=200"`
	Message   string `validate:"required,max=2000"`
	ActionURL string `validate:"omitempty,max=500"`
	Channel   string `validate:"omitempty,oneof=IN_APP EMAIL BOTH"`
}

type BroadcastSummary struct {
	Recipients  int `json:"recipients"`
	Sent        int `json:"sent"`
	Failed      int `json:"failed"`
	RateLimited int `json:"rate_limited"`
	Skipped     int `json:"skipped"`
	LiveClients int `json:"live_clients"`
}

// AdminBroadcast notifies every active, unbanned user on the immediate path and
// pushes a broadcast frame to every live connection.
func (s *Usecase) AdminBroadcast(ctx context.Context, in AdminBroadcastInput) (_ *BroadcastSummary, err error) {
	ctx, span := s.startSpan(ctx, "AdminBroadcast")
	defer func() { s.endSpan(span, err) }()

	if _, err := s.authenticatedAndAuthorized(ctx, objAdmin, actBroadcast); err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	ids, err := s.repoDB.ListActiveUserIDs(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list active users", "error", err)
		return nil, goerror.NewServer(err)
	}

	ids, err = s.excludeBanned(ctx, ids)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list ban statuses", "error", err)
		return nil, goerror.NewServer(err)
	}

	t := entity.NotificationType(in.Type)
	forced := entity.DeliveryChannelFromString(in.Channel)
	if forced == entity.DeliveryChannelUnknown {
		forced = entity.DeliveryChannelInApp
	}

	var sent, failed, limited, skipped atomic.Int64
	sema := make(chan struct{}, maxRecipientWorkers)
	var wg sync.WaitGroup
	for _, userID := range ids {
		sema <- struct{}{}
		wg.Go(func() {
			defer func() { <-sema }()

			data, err := s.renderDirect(t, userID, in.Title, in.Message, in.ActionURL, nil)
			if err != nil {
				failed.Inc()
				return
			}

			data.DeliveryChannel, err = s.broadcastChannel(ctx, userID, t, forced)
			if err != nil || data.DeliveryChannel == entity.DeliveryChannelUnknown {
				skipped.Inc()
				return
			}

			if res := s.limiter.CheckAndRecord(ctx, userID, t); !res.Allowed {
				limited.Inc()
				return
			}

			if _, err := s.CreateNotification(ctx, data, CreateOptions{Immediate: true}); err != nil {
				slog.WarnContext(ctx, "failed to deliver broadcast notification", "user_id", userID, "error", err)
				failed.Inc()
				return
			}
			sent.Inc()
		})
	}
	wg.Wait()

	live := s.registry.Broadcast(ctx, realtime.Frame{
		Type: realtime.FrameBroadcast,
		Data: map[string]string{"type": t.String(), "title": in.Title, "message": in.Message, "action_url": in.ActionURL},
	})

	summary := &BroadcastSummary{
		Recipients:  len(ids),
		Sent:        int(sent.Load()),
		Failed:      int(failed.Load()),
		RateLimited: int(limited.Load()),
		Skipped:     int(skipped.Load()),
		LiveClients: live,
	}

	slog.InfoContext(ctx, "admin broadcast finished", "notification_type", t, "recipients", summary.Recipients,
		"sent", summary.Sent, "failed", summary.Failed, "rate_limited", summary.RateLimited, "skipped", summary.Skipped)

	return summary, nil
}

// broadcastChannel honours an explicit preference row; without one the admin's
// channel applies.
func (s *Usecase) broadcastChannel(ctx context.Context, userID int64, t entity.NotificationType, forced entity.DeliveryChannel) (entity.DeliveryChannel, error) {
	pref, err := s.repoDB.GetPreference(ctx, userID, t)
	if errors.Is(err, goerror.ErrNotFound) {
		return forced, nil
	}
	if err != nil {
		return entity.DeliveryChannelUnknown, err
	}

	return pref.Channel(), nil
}

func (s *Usecase) renderDirect(t entity.NotificationType, userID int64, title, message, actionURL string, metadata valueobject.JSONMap) (entity.RenderedNotification, error) {
	category, err := s.templates.Category(t)
	if err != nil {
		return entity.RenderedNotification{}, goerror.NewBusiness("notification type is not supported", goerror.CodeInvalidFormat)
	}

	rendered, err := s.templates.Render(t, template.Context{Title: title, Message: message})
	if err != nil {
		return entity.RenderedNotification{}, goerror.NewServer(err)
	}

	data := entity.RenderedNotification{
		UserID:    userID,
		Type:      t,
		Category:  category,
		Title:     rendered.Title,
		Message:   rendered.Message,
		ActionURL: rendered.ActionURL,
		Metadata:  rendered.Metadata,
	}
	if title != "" {
		data.Title = title
	}
	if message != "" {
		data.Message = message
	}
	if actionURL != "" {
		data.ActionURL = actionURL
	}
	if len(metadata) > 0 {
		if data.Metadata == nil {
			data.Metadata = valueobject.JSONMap{}
		}
		for k, v := range metadata {
			data.Metadata[k] = v
		}
	}

	return data, nil
}

type AdminEmitInput struct {
	EventType  string `validate:"required,event_type"`
	EntityType string `validate:"required"`
	EntityID   string `validate:"required"`
	Payload    valueobject.JSONMap
}

// AdminEmit publishes a domain event on behalf of the caller.
func (s *Usecase) AdminEmit(ctx context.Context, in AdminEmitInput) (err error) {
	ctx, span := s.startSpan(ctx, "AdminEmit")
	defer func() { s.endSpan(span, err) }()

	clm, err := s.authenticatedAndAuthorized(ctx, objAdmin, actEmit)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	s.emitter.Emit(ctx, entity.DomainEvent{
		EventType:   entity.EventType(in.EventType),
		EntityType:  in.EntityType,
		EntityID:    in.EntityID,
		TriggeredBy: clm.UserID,
		Payload:     in.Payload,
	})

	return nil
}

func (s *Usecase) RateLimitStatus(ctx context.Context, userID int64) ([]ratelimit.EntryStatus, error) {
	ctx, span := s.startSpan(ctx, "RateLimitStatus")
	defer span.End()

	if _, err := s.authenticatedAndAuthorized(ctx, objAdmin, actRead); err != nil {
		return nil, err
	}

	if userID <= 0 {
		return nil, goerror.NewBusiness("invalid user id", goerror.CodeInvalidFormat)
	}

	return s.limiter.Status(userID), nil
}

func (s *Usecase) ResetRateLimits(ctx context.Context, userID int64) (int, error) {
	ctx, span := s.startSpan(ctx, "ResetRateLimits")
	defer span.End()

	clm, err := s.authenticatedAndAuthorized(ctx, objAdmin, actManage)
	if err != nil {
		return 0, err
	}

	if userID <= 0 {
		return 0, goerror.NewBusiness("invalid user id", goerror.CodeInvalidFormat)
	}

	n := s.limiter.ResetUserLimits(userID)
	slog.InfoContext(ctx, "rate limits reset", "user_id", userID, "entries", n, "by", clm.UserID)

	return n, nil
}

func (s *Usecase) ListRateLimitRules(ctx context.Context) ([]ratelimit.Rule, error) {
	ctx, span := s.startSpan(ctx, "ListRateLimitRules")
	defer span.End()

	if _, err := s.authenticatedAndAuthorized(ctx, objAdmin, actRead); err != nil {
		return nil, err
	}

	return s.limiter.Rules(), nil
}

type PutRateLimitRuleInput struct {
	Scope         string `validate:"required,enum_name"`
	MaxRequests   int    `validate:"required,gt=0"`
	WindowSeconds int64  `validate:"required,gt=0"`
	UserSpecific  bool
}

// PutRateLimitRule adds the rule or replaces the one with the same scope.
func (s *Usecase) PutRateLimitRule(ctx context.Context, in PutRateLimitRuleInput) error {
	ctx, span := s.startSpan(ctx, "PutRateLimitRule")
	defer span.End()

	clm, err := s.authenticatedAndAuthorized(ctx, objAdmin, actManage)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	rule := ratelimit.Rule{
		Scope:        in.Scope,
		MaxRequests:  in.MaxRequests,
		Window:       time.Duration(in.WindowSeconds) * time.Second,
		UserSpecific: in.UserSpecific,
	}
	if err := s.limiter.AddRule(rule); err != nil {
		return goerror.NewInvalidInput(err)
	}

	slog.InfoContext(ctx, "rate limit rule updated", "scope", rule.Scope, "max_requests", rule.MaxRequests, "window", rule.Window, "by", clm.UserID)

	return nil
}

func (s *Usecase) DeleteRateLimitRule(ctx context.Context, scope string) error {
	ctx, span := s.startSpan(ctx, "DeleteRateLimitRule")
	defer span.End()

	clm, err := s.authenticatedAndAuthorized(ctx, objAdmin, actManage)
	if err != nil {
		return err
	}

	if !s.limiter.RemoveRule(scope) {
		return goerror.NewBusiness("rate limit rule not found", goerror.CodeNotFound)
	}

	slog.InfoContext(ctx, "rate limit rule removed", "scope", scope, "by", clm.UserID)

	return nil
}

func (s *Usecase) SchedulerStatus(ctx context.Context) (*scheduler.Status, error) {
	ctx, span := s.startSpan(ctx, "SchedulerStatus")
	defer span.End()

	if _, err := s.authenticatedAndAuthorized(ctx, objAdmin, actRead); err != nil {
		return nil, err
	}

	st := s.scheduler.Status()
	return &st, nil
}

type RealtimeStatus struct {
	Connections int `json:"connections"`
}

func (s *Usecase) RealtimeStatus(ctx context.Context) (*RealtimeStatus, error) {
	ctx, span := s.startSpan(ctx, "RealtimeStatus")
	defer span.End()

	if _, err := s.authenticatedAndAuthorized(ctx, objAdmin, actRead); err != nil {
		return nil, err
	}

	return &RealtimeStatus{Connections: s.registry.Count()}, nil
}

// Analytics serves delivery stats from cache, recomputing them on a miss.
func (s *Usecase) Analytics(ctx context.Context) (_ *entity.NotificationStats, err error) {
	ctx, span := s.startSpan(ctx, "Analytics")
	defer func() { s.endSpan(span, err) }()

	if _, err := s.authenticatedAndAuthorized(ctx, objAdmin, actRead); err != nil {
		return nil, err
	}

	since := s.clock.Now().Add(-s.cfg.StatsWindow).Truncate(time.Hour)

	stats, err := s.repoCache.GetStats(ctx, since)
	if err == nil && stats != nil {
		return stats, nil
	}
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "failed to cache get notification stats", "error", err)
	}

	stats, err = s.repoDB.GetNotificationStats(ctx, since)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get notification stats", "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoCache.SetStats(ctx, stats); err != nil {
		slog.WarnContext(ctx, "failed to cache set notification stats", "error", err)
	}

	return stats, nil
}
