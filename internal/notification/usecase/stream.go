package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/emunotify/internal/notification/realtime"
	"github.com/shandysiswandi/emunotify/internal/pkg/goerror"
)

// SubscribeRealtime binds sink to the caller, replacing any previous connection,
// and pushes the current unread count. It returns the subscribed user id.
func (s *Usecase) SubscribeRealtime(ctx context.Context, sink realtime.Sink) (int64, error) {
	clm, err := s.requireAuth(ctx)
	if err != nil {
		return 0, err
	}

	if err := s.registry.Subscribe(ctx, clm.UserID, sink); err != nil {
		slog.WarnContext(ctx, "failed to subscribe realtime connection", "user_id", clm.UserID, "error", err)
		return 0, goerror.NewServer(err)
	}

	s.inApp.PushUnreadCount(ctx, clm.UserID)

	return clm.UserID, nil
}

func (s *Usecase) UnsubscribeRealtime(userID int64, sink realtime.Sink) {
	s.registry.Unsubscribe(userID, sink)
}
