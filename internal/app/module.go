package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/emunotify/internal/notification"
)

func (a *App) initModules() {
	if !a.config.GetBool("modules.notification.enabled") {
		slog.Warn("notification module disabled, serving health endpoints only")
		return
	}

	if err := notification.New(notification.Dependency{
		Ctx:          a.ctx,
		DBConn:       a.dbConn,
		CacheConn:    a.cacheConn,
		Messaging:    a.messaging,
		Idempotency:  a.idemp,
		Config:       a.config,
		Instrument:   a.ins,
		UID:          a.uid,
		UUID:         a.uuid,
		Clock:        a.clock,
		Goroutine:    a.goroutine,
		Validator:    a.validator,
		Router:       a.router,
		Mail:         a.mail,
		MailProvider: a.mailProvider,
		HMAC:         a.hmac,
	}); err != nil {
		slog.Error("failed to init module notification", "error", err)
		os.Exit(1)
	}
}
