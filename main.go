package main

import (
	"context"
	"time"

	"github.com/shandysiswandi/emunotify/internal/app"
)

// @title           EmuReady Notifications API
// @version         1.0
// @description     Inbox, preferences, realtime push and admin dispatch for EmuReady notifications.
// @contact.name    EmuReady
// @contact.url     https://emuready.com
// @license.name    MIT
// @license.url     https://mit-license.org/
// @server          http://localhost:8080
// @securityDefinitions.apikey  BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT.
func main() {
	application := app.New()
	<-application.Start()

	// covers the scheduler's in-flight batch and open SSE/WS streams
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	application.Stop(ctx)
}
