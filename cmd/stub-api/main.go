package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/mysellkit/popup-engine/api/routes"
	"github.com/mysellkit/popup-engine/internal/catalog"
	"github.com/mysellkit/popup-engine/pkg/config"
	"github.com/mysellkit/popup-engine/pkg/logger"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "stub-api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "stub-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	svc, err := catalog.NewService(cfg.Remote.CheckoutBase)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog", err)
		os.Exit(1)
	}
	svc.Seed(demoPopups()...)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting stub api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, svc),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "stub api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

// demoPopups covers every trigger type plus the two refusal cases.
func demoPopups() []catalog.Popup {
	scrollAt := 50.0
	showAfter := 5.0
	return []catalog.Popup{
		{
			PopupID:         "demo-scroll",
			ProductID:       "prod-scroll",
			PopupName:       "Scroll Offer",
			TriggerType:     "scroll",
			TriggerValue:    &scrollAt,
			Live:            true,
			StripeConnected: true,
			ShowPrice:       true,
		},
		{
			PopupID:         "demo-time",
			ProductID:       "prod-time",
			PopupName:       "Timed Offer",
			TriggerType:     "time",
			TriggerValue:    &showAfter,
			PersistentMode:  true,
			Live:            true,
			StripeConnected: true,
			ShowPrice:       true,
		},
		{
			PopupID:         "demo-exit",
			ProductID:       "prod-exit",
			PopupName:       "Exit Offer",
			TriggerType:     "exit",
			MobileFloating:  true,
			Live:            true,
			StripeConnected: true,
		},
		{
			PopupID:         "demo-click",
			ProductID:       "prod-click",
			PopupName:       "Click Offer",
			TriggerType:     "click",
			Live:            true,
			StripeConnected: true,
		},
		{
			PopupID:     "demo-draft",
			ProductID:   "prod-draft",
			PopupName:   "Draft Offer",
			TriggerType: "time",
			Live:        false,
			StripeConnected: true,
		},
		{
			PopupID:     "demo-unconfigured",
			ProductID:   "prod-unconfigured",
			PopupName:   "Unconfigured Offer",
			TriggerType: "time",
			Live:        true,
		},
	}
}
