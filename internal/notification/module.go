package notification

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/emunotify/internal/notification/channel"
	"github.com/shandysiswandi/emunotify/internal/notification/entity"
	"github.com/shandysiswandi/emunotify/internal/notification/eventbus"
	"github.com/shandysiswandi/emunotify/internal/notification/inbound"
	"github.com/shandysiswandi/emunotify/internal/notification/outbound/cache"
	"github.com/shandysiswandi/emunotify/internal/notification/outbound/db"
	"github.com/shandysiswandi/emunotify/internal/notification/outbound/email"
	"github.com/shandysiswandi/emunotify/internal/notification/outbound/mq"
	"github.com/shandysiswandi/emunotify/internal/notification/ratelimit"
	"github.com/shandysiswandi/emunotify/internal/notification/realtime"
	"github.com/shandysiswandi/emunotify/internal/notification/scheduler"
	"github.com/shandysiswandi/emunotify/internal/notification/template"
	"github.com/shandysiswandi/emunotify/internal/notification/usecase"
	"github.com/shandysiswandi/emunotify/internal/pkg/clock"
	"github.com/shandysiswandi/emunotify/internal/pkg/config"
	"github.com/shandysiswandi/emunotify/internal/pkg/goroutine"
	"github.com/shandysiswandi/emunotify/internal/pkg/hash"
	"github.com/shandysiswandi/emunotify/internal/pkg/idempotency"
	"github.com/shandysiswandi/emunotify/internal/pkg/instrument"
	"github.com/shandysiswandi/emunotify/internal/pkg/mail"
	"github.com/shandysiswandi/emunotify/internal/pkg/messaging"
	"github.com/shandysiswandi/emunotify/internal/pkg/rbac"
	"github.com/shandysiswandi/emunotify/internal/pkg/router"
	"github.com/shandysiswandi/emunotify/internal/pkg/uid"
	"github.com/shandysiswandi/emunotify/internal/pkg/validator"
)

type Dependency struct {
	Ctx          context.Context
	DBConn       *pgxpool.Pool
	CacheConn    redis.Cmdable
	Messaging    messaging.Messaging
	Idempotency  idempotency.Idempotency
	Config       config.Config
	Instrument   instrument.Instrumentation
	UID          uid.NumberID
	UUID         uid.StringID
	Clock        clock.Clocker
	Goroutine    *goroutine.Manager
	Validator    validator.Validator
	Router       *router.Router
	Mail         mail.Mail
	MailProvider string
	HMAC         *hash.HMACSHA256
}

// New builds the notification pipeline, registers its HTTP and MQ entry
// points, and starts the background loops on dep.Goroutine.
func New(dep Dependency) error {
	st := LoadSettings(dep.Config)

	authz, err := rbac.New(entity.Roles(), usecase.Policies())
	if err != nil {
		return fmt.Errorf("build notification rbac: %w", err)
	}

	repoDB := db.NewDB(dep.DBConn, dep.Instrument)
	repoCache := cache.New(dep.CacheConn, st.StatsTTL, dep.Instrument)
	repoMQ := mq.NewMessaging(dep.Messaging, dep.Instrument)
	repoMail := email.New(dep.Mail, dep.MailProvider, dep.Instrument)

	engine := template.New()
	limiter := ratelimit.New(ratelimit.Config{
		Rules:         ratelimit.DefaultRules(entity.NotificationTypes(), engine.Category),
		SweepInterval: st.RateLimitSweep,
	}, dep.Clock, repoDB, dep.Instrument)
	registry := realtime.NewRegistry(realtime.Config{
		HeartbeatInterval: st.HeartbeatInterval,
		StaleTimeout:      st.StaleTimeout,
	}, dep.Clock, dep.Instrument)

	links := usecase.NewUnsubscribeLinks(st.EmailBaseURL, dep.HMAC)
	inApp := channel.NewInApp(repoDB, registry, dep.Instrument)
	emailCh, err := channel.NewEmail(channel.EmailConfig{
		BaseURL: st.EmailBaseURL,
		From:    st.EmailFrom,
	}, repoDB, repoMail, links, dep.Instrument)
	if err != nil {
		return fmt.Errorf("build email channel: %w", err)
	}

	uc := usecase.NewNotification(usecase.Dependency{
		RepoDB:    repoDB,
		RepoCache: repoCache,
		RepoMQ:    repoMQ,
		Limiter:   limiter,
		Registry:  registry,
		InApp:     inApp,
		Email:     emailCh,
		Templates: engine,
		RBAC:      authz,
		Links:     links,
		Config: usecase.Config{
			DigestHour:  st.DigestHour,
			StatsWindow: st.StatsWindow,
		},
		UID:        dep.UID,
		Clock:      dep.Clock,
		Validator:  dep.Validator,
		Instrument: dep.Instrument,
	})

	batch := scheduler.New(scheduler.Config{
		BatchSize:   st.BatchSize,
		Interval:    st.BatchInterval,
		MaxAttempts: st.BatchAttempts,
		RetryDelay:  st.BatchRetryDelay,
	}, scheduler.Dependency{
		Clock:     dep.Clock,
		UID:       dep.UID,
		Processor: uc,
		Ins:       dep.Instrument,
	})
	uc.SetScheduler(batch)

	bus := eventbus.New(st.MaxListeners, dep.Validator, dep.Instrument)
	bus.Register("dispatcher", uc.Handle)
	uc.SetEmitter(bus)

	inbound.RegisterHTTPEndpoint(dep.Router, uc, inbound.StreamConfig{
		WriteTimeout:   st.StreamWriteTimeout,
		AllowedOrigins: st.AllowedOrigins,
	})

	if dep.Ctx == nil {
		return nil
	}

	loops := []struct {
		name string
		run  func(context.Context) error
	}{
		{"ratelimit-sweeper", limiter.Run},
		{"batch-scheduler", batch.Run},
		{"realtime-heartbeat", registry.Run},
	}
	for _, l := range loops {
		if err := dep.Goroutine.Go(dep.Ctx, l.name, l.run); err != nil {
			return fmt.Errorf("start %s: %w", l.name, err)
		}
	}

	inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Idempotency, dep.Instrument)

	return nil
}
