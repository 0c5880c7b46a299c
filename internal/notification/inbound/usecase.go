package inbound

import (
	"context"

	"github.com/shandysiswandi/emunotify/internal/notification/entity"
	"github.com/shandysiswandi/emunotify/internal/notification/ratelimit"
	"github.com/shandysiswandi/emunotify/internal/notification/realtime"
	"github.com/shandysiswandi/emunotify/internal/notification/scheduler"
	"github.com/shandysiswandi/emunotify/internal/notification/usecase"
)

type ucConsumer interface {
	ConsumeDomainEvent(ctx context.Context, in usecase.ConsumeDomainEventInput) error
}

type ucStream interface {
	SubscribeRealtime(ctx context.Context, sink realtime.Sink) (int64, error)
	UnsubscribeRealtime(userID int64, sink realtime.Sink)
}

type ucAdmin interface {
	AdminSend(ctx context.Context, in usecase.AdminSendInput) (*entity.NotificationRecord, error)
	AdminBroadcast(ctx context.Context, in usecase.AdminBroadcastInput) (*usecase.BroadcastSummary, error)
	AdminEmit(ctx context.Context, in usecase.AdminEmitInput) error
	RateLimitStatus(ctx context.Context, userID int64) ([]ratelimit.EntryStatus, error)
	ResetRateLimits(ctx context.Context, userID int64) (int, error)
	ListRateLimitRules(ctx context.Context) ([]ratelimit.Rule, error)
	PutRateLimitRule(ctx context.Context, in usecase.PutRateLimitRuleInput) error
	DeleteRateLimitRule(ctx context.Context, scope string) error
	SchedulerStatus(ctx context.Context) (*scheduler.Status, error)
	RealtimeStatus(ctx context.Context) (*usecase.RealtimeStatus, error)
	Analytics(ctx context.Context) (*entity.NotificationStats, error)
}

type uc interface {
	ucConsumer
	ucStream
	ucAdmin

	ListInbox(ctx context.Context, in usecase.ListInboxInput) ([]entity.NotificationRecord, error)
	UnreadCount(ctx context.Context) (int64, error)
	MarkInboxRead(ctx context.Context, in usecase.MarkInboxReadInput) error
	MarkAllInboxRead(ctx context.Context) error
	DeleteInbox(ctx context.Context, in usecase.DeleteInboxInput) error

	ListSettings(ctx context.Context) ([]usecase.SettingItem, error)
	UpdateSettings(ctx context.Context, in usecase.UpdateSettingsInput) error
	Mute(ctx context.Context, in usecase.MuteInput) error
	Unmute(ctx context.Context, in usecase.MuteInput) error
	Unsubscribe(ctx context.Context, in usecase.UnsubscribeInput) error

	ScheduleMyWeeklyDigest(ctx context.Context) (*usecase.DigestOutput, error)

	RegisterDevice(ctx context.Context, in usecase.RegisterDeviceInput) error
	RemoveDevice(ctx context.Context, in usecase.RemoveDeviceInput) error
}
