package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/shandysiswandi/emunotify/internal/notification/channel"
	"github.com/shandysiswandi/emunotify/internal/notification/entity"
	"github.com/shandysiswandi/emunotify/internal/notification/ratelimit"
	"github.com/shandysiswandi/emunotify/internal/notification/realtime"
	"github.com/shandysiswandi/emunotify/internal/notification/scheduler"
	"github.com/shandysiswandi/emunotify/internal/notification/template"
	"github.com/shandysiswandi/emunotify/internal/pkg/clock"
	"github.com/shandysiswandi/emunotify/internal/pkg/goerror"
	"github.com/shandysiswandi/emunotify/internal/pkg/instrument"
	"github.com/shandysiswandi/emunotify/internal/pkg/jwt"
	"github.com/shandysiswandi/emunotify/internal/pkg/uid"
	"github.com/shandysiswandi/emunotify/internal/pkg/validator"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	CreateNotification(ctx context.Context, r entity.NotificationRecord) error
	UpdateDeliveryStatus(ctx context.Context, id int64, status entity.DeliveryStatus) error
	GetNotification(ctx context.Context, id int64) (*entity.NotificationRecord, error)
	ExistsNotificationSince(ctx context.Context, userID int64, t entity.NotificationType, since time.Time) (bool, error)
	ListNotifications(ctx context.Context, userID int64, filter entity.InboxFilter, limit, offset int32) ([]entity.NotificationRecord, error)
	CountUnreadNotifications(ctx context.Context, userID int64) (int64, error)
	MarkNotificationRead(ctx context.Context, userID, id int64) (bool, error)
	MarkNotificationsReadAll(ctx context.Context, userID int64) (int64, error)
	DeleteNotification(ctx context.Context, userID, id int64) (bool, error)
	GetNotificationStats(ctx context.Context, since time.Time) (*entity.NotificationStats, error)

	GetPreference(ctx context.Context, userID int64, t entity.NotificationType) (*entity.Preference, error)
	ListPreferences(ctx context.Context, userID int64) ([]entity.Preference, error)
	UpsertPreferences(ctx context.Context, prefs []entity.Preference) error
	IsEntityMuted(ctx context.Context, userID int64, entityType, entityID string) (bool, error)
	MuteEntity(ctx context.Context, m entity.EntityMute) error
	UnmuteEntity(ctx context.Context, m entity.EntityMute) (bool, error)

	GetUserProfile(ctx context.Context, userID int64) (*entity.UserProfile, error)
	ListBanStatuses(ctx context.Context, userIDs []int64) ([]entity.BanStatus, error)
	ListUserIDsByRoles(ctx context.Context, roles []string) ([]int64, error)
	ListActiveUserIDs(ctx context.Context) ([]int64, error)
	ListUserIDsByDevicePreference(ctx context.Context, deviceID, socID string) ([]int64, error)
	ListUserIDsWithTypeEnabled(ctx context.Context, t entity.NotificationType) ([]int64, error)

	GetListingDetail(ctx context.Context, listingID string) (*entity.ListingDetail, error)
	GetCommentAuthorID(ctx context.Context, commentID string) (int64, error)
	GetGameTitle(ctx context.Context, gameID string) (string, error)
	GetEmulatorName(ctx context.Context, emulatorID string) (string, error)

	RegisterUserDevice(ctx context.Context, d entity.Device) error
	RemoveUserDevice(ctx context.Context, userID int64, token string) error
	ListUserDeviceTokens(ctx context.Context, userID int64) ([]string, error)
}

type repoCache interface {
	GetStats(ctx context.Context, since time.Time) (*entity.NotificationStats, error)
	SetStats(ctx context.Context, stats *entity.NotificationStats) error
	InvalidateStats(ctx context.Context) error
}

type repoMQ interface {
	PublishDelivered(ctx context.Context, r entity.NotificationRecord, deviceTokens []string) error
}

type rateLimiter interface {
	CheckAndRecord(ctx context.Context, userID int64, t entity.NotificationType) ratelimit.Result
	AddRule(r ratelimit.Rule) error
	RemoveRule(scope string) bool
	Rules() []ratelimit.Rule
	Status(userID int64) []ratelimit.EntryStatus
	ResetUserLimits(userID int64) int
}

type batchScheduler interface {
	Schedule(ctx context.Context, data entity.RenderedNotification, opts ...scheduler.Option) entity.PendingNotification
	Pending() []entity.PendingNotification
	Status() scheduler.Status
}

type pushRegistry interface {
	Subscribe(ctx context.Context, userID int64, sink realtime.Sink) error
	Unsubscribe(userID int64, sink realtime.Sink)
	Push(ctx context.Context, userID int64, f realtime.Frame) bool
	Broadcast(ctx context.Context, f realtime.Frame) int
	Count() int
}

type inAppChannel interface {
	Deliver(ctx context.Context, notificationID int64, data entity.RenderedNotification) channel.Result
	PushUnreadCount(ctx context.Context, userID int64)
}

type emailChannel interface {
	Deliver(ctx context.Context, data entity.RenderedNotification) channel.Result
}

type templateEngine interface {
	Render(t entity.NotificationType, c template.Context) (template.Rendered, error)
	Category(t entity.NotificationType) (entity.Category, error)
}

type authorizer interface {
	Enforce(role, obj, act string) (bool, error)
	AtLeast(role, floor string) bool
	RolesAtLeast(floor string) []string
}

// Emitter hands a domain event to the event bus.
type Emitter interface {
	Emit(ctx context.Context, evt entity.DomainEvent)
}

type Config struct {
	DigestHour  int
	StatsWindow time.Duration
}

type Usecase struct {
	repoDB    repoDB
	repoCache repoCache
	repoMQ    repoMQ
	limiter   rateLimiter
	scheduler batchScheduler
	registry  pushRegistry
	inApp     inAppChannel
	email     emailChannel
	templates templateEngine
	rbac      authorizer
	links     *UnsubscribeLinks
	emitter   Emitter
	cfg       Config
	uid       uid.NumberID
	clock     clock.Clocker
	validator validator.Validator
	ins       instrument.Instrumentation

	dedup    *dedupGuard
	digestMu sync.Mutex
	created  metric.Int64Counter
}

type Dependency struct {
	RepoDB     repoDB
	RepoCache  repoCache
	RepoMQ     repoMQ
	Limiter    rateLimiter
	Scheduler  batchScheduler
	Registry   pushRegistry
	InApp      inAppChannel
	Email      emailChannel
	Templates  templateEngine
	RBAC       authorizer
	Links      *UnsubscribeLinks
	Config     Config
	UID        uid.NumberID
	Clock      clock.Clocker
	Validator  validator.Validator
	Instrument instrument.Instrumentation
}

func NewNotification(dep Dependency) *Usecase {
	if dep.Config.DigestHour < 0 || dep.Config.DigestHour > 23 {
		dep.Config.DigestHour = defaultDigestHour
	}
	if dep.Config.StatsWindow <= 0 {
		dep.Config.StatsWindow = 30 * 24 * time.Hour
	}

	s := &Usecase{
		repoDB:    dep.RepoDB,
		repoCache: dep.RepoCache,
		repoMQ:    dep.RepoMQ,
		limiter:   dep.Limiter,
		scheduler: dep.Scheduler,
		registry:  dep.Registry,
		inApp:     dep.InApp,
		email:     dep.Email,
		templates: dep.Templates,
		rbac:      dep.RBAC,
		links:     dep.Links,
		cfg:       dep.Config,
		uid:       dep.UID,
		clock:     dep.Clock,
		validator: dep.Validator,
		ins:       dep.Instrument,
		dedup:     newDedupGuard(),
	}

	s.created, _ = s.ins.Meter("notification.usecase").Int64Counter("notification.created",
		metric.WithDescription("Notification records created"))

	return s
}

// SetScheduler breaks the construction cycle: the scheduler processes through the usecase.
func (s *Usecase) SetScheduler(b batchScheduler) {
	s.scheduler = b
}

// SetEmitter wires the event bus used by admin-emitted events.
func (s *Usecase) SetEmitter(e Emitter) {
	s.emitter = e
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.usecase").Start(ctx, name)
}

func (s *Usecase) endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *Usecase) requireAuth(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}

	return clm, nil
}

// authenticatedAndAuthorized resolves the caller's role and checks it against the policy set.
func (s *Usecase) authenticatedAndAuthorized(ctx context.Context, obj, act string) (*jwt.Claims, error) {
	clm, err := s.requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.repoDB.GetUserProfile(ctx, clm.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness("account not found", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user profile for authorization", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	// The role stored on the account wins over the one minted into the token.
	if clm.Role != "" && clm.Role != user.Role {
		slog.InfoContext(ctx, "token role differs from account role", "user_id", clm.UserID, "token_role", clm.Role, "role", user.Role)
	}

	ok, err := s.rbac.Enforce(user.Role, obj, act)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check authorization", "user_id", clm.UserID, "role", user.Role, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !ok {
		return nil, goerror.NewBusiness("account not allowed", goerror.CodeForbidden)
	}

	return clm, nil
}
