package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/emunotify/internal/notification/entity"
	"github.com/shandysiswandi/emunotify/internal/notification/scheduler"
	"github.com/shandysiswandi/emunotify/internal/notification/template"
	"github.com/shandysiswandi/emunotify/internal/pkg/goerror"
)

const defaultDigestHour = 9

type DigestOutput struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// ScheduleWeeklyDigest queues one digest for userID seven days from today at the
// configured hour (UTC). A user has at most one digest queued; repeat calls
// return the pending one.
func (s *Usecase) ScheduleWeeklyDigest(ctx context.Context, userID int64) (_ *DigestOutput, err error) {
	ctx, span := s.startSpan(ctx, "ScheduleWeeklyDigest")
	defer func() { s.endSpan(span, err) }()

	s.digestMu.Lock()
	defer s.digestMu.Unlock()

	if p, ok := s.pendingDigest(userID); ok {
		slog.InfoContext(ctx, "weekly digest already scheduled", "user_id", userID, "scheduled_for", p.ScheduledFor)
		return &DigestOutput{ScheduledFor: p.ScheduledFor}, nil
	}

	c := template.Context{}
	if user, err := s.repoDB.GetUserProfile(ctx, userID); err == nil {
		c.RecipientName = user.Name
	} else {
		s.enrichPartial(ctx, "recipient", userID, err)
	}
	if unread, err := s.repoDB.CountUnreadNotifications(ctx, userID); err == nil {
		c.UnreadCount = unread
	} else {
		s.enrichPartial(ctx, "unread_count", userID, err)
	}

	category, err := s.templates.Category(entity.TypeWeeklyDigest)
	if err != nil {
		return nil, goerror.NewServer(err)
	}

	rendered, err := s.templates.Render(entity.TypeWeeklyDigest, c)
	if err != nil {
		return nil, goerror.NewServer(err)
	}

	ch, err := s.channelFor(ctx, userID, entity.TypeWeeklyDigest, category)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get digest preference", "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if ch == entity.DeliveryChannelUnknown {
		return nil, goerror.NewBusiness("weekly digest is disabled in your notification settings", goerror.CodeConflict)
	}

	at := s.nextDigestAt()
	s.scheduler.Schedule(ctx, entity.RenderedNotification{
		UserID:          userID,
		Type:            entity.TypeWeeklyDigest,
		Category:        category,
		Title:           rendered.Title,
		Message:         rendered.Message,
		ActionURL:       rendered.ActionURL,
		Metadata:        rendered.Metadata,
		DeliveryChannel: ch,
	}, scheduler.WithScheduledFor(at))

	slog.InfoContext(ctx, "weekly digest scheduled", "user_id", userID, "scheduled_for", at)

	return &DigestOutput{ScheduledFor: at}, nil
}

// ScheduleMyWeeklyDigest opts the caller into next week's digest.
func (s *Usecase) ScheduleMyWeeklyDigest(ctx context.Context) (*DigestOutput, error) {
	clm, err := s.requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	return s.ScheduleWeeklyDigest(ctx, clm.UserID)
}

func (s *Usecase) pendingDigest(userID int64) (entity.PendingNotification, bool) {
	for _, p := range s.scheduler.Pending() {
		if p.Data.UserID == userID && p.Data.Type == entity.TypeWeeklyDigest {
			return p, true
		}
	}
	return entity.PendingNotification{}, false
}

func (s *Usecase) nextDigestAt() time.Time {
	d := s.clock.Now().UTC().AddDate(0, 0, 7)
	return time.Date(d.Year(), d.Month(), d.Day(), s.cfg.DigestHour, 0, 0, 0, time.UTC)
}
