// popup-sim drives the popup engine from the command line against a
// running API (the stub server or production). It simulates one page
// visit: init, the page events for the configured trigger, and
// optionally a checkout attempt, printing every UI effect as it fires.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/mysellkit/popup-engine/internal/sellkit"
	"github.com/mysellkit/popup-engine/internal/store"
	"github.com/mysellkit/popup-engine/internal/widget"
	"github.com/mysellkit/popup-engine/pkg/config"
	"github.com/mysellkit/popup-engine/pkg/logger"
	"github.com/mysellkit/popup-engine/pkg/redis"
)

func main() {
	popupID := flag.String("popup", "demo-time", "popup id to load")
	pageURL := flag.String("page", "https://shop.example.com/landing", "page url to simulate")
	visitorID := flag.String("visitor", "local-visitor", "visitor id for durable state")
	viewport := flag.Int("viewport", 1280, "viewport width in px")
	checkout := flag.Bool("checkout", false, "attempt checkout once the popup opens")
	wait := flag.Duration("wait", 8*time.Second, "how long to let the page run")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "popup-sim"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "popup-sim",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithField(context.Background(), "visitor_id", *visitorID)

	durable, cleanup, err := buildDurableStore(ctx, cfg, *visitorID, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap visitor store", err)
		os.Exit(1)
	}
	defer cleanup()

	remote, err := sellkit.NewClient(cfg.Remote, logg)
	if err != nil {
		logg.Error(ctx, "failed to create api client", err)
		os.Exit(1)
	}

	host := newConsoleHost()
	engine, err := widget.New(widget.Options{
		PopupID:       *popupID,
		PageURL:       *pageURL,
		UserAgent:     "popup-sim/1.0",
		ViewportWidth: *viewport,
		Remote:        remote,
		Durable:       durable,
		Tab:           store.NewMemory(),
		Surface:       host,
		Page:          host,
		Control:       host,
		Navigator:     host,
		Notifier:      host,
		History:       host,
		Session:       cfg.Session,
		Widget:        cfg.Widget,
		Diagnostic:    widget.DetectDiagnostic(*pageURL),
	}, logg)
	if err != nil {
		logg.Error(ctx, "failed to create engine", err)
		os.Exit(1)
	}

	if err := engine.Init(ctx); err != nil {
		logg.Error(ctx, "engine init failed", err)
		os.Exit(1)
	}

	simulateVisit(ctx, engine, host, *checkout, *wait)

	engine.Wait()
	printStatus(engine.Status(ctx))
}

// buildDurableStore picks the visitor-state backend: sqlite when the
// feature flag is on, redis when an address is configured, in-memory
// otherwise.
func buildDurableStore(ctx context.Context, cfg *config.Config, visitorID string, logg *logger.Logger) (store.DurableStore, func(), error) {
	noop := func() {}

	if cfg.FeatureFlags.UseSQLite {
		db, err := store.OpenSQLite(cfg.SQLite.Path)
		if err != nil {
			return nil, noop, err
		}
		durable, err := store.NewSQLite(db, visitorID)
		if err != nil {
			return nil, noop, err
		}
		logg.Info(logg.WithField(ctx, "path", cfg.SQLite.Path), "using sqlite visitor store")
		return durable, noop, nil
	}

	if cfg.Redis.URL != "" || cfg.Redis.Address != "" {
		client, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, noop, err
		}
		durable, err := store.NewRedis(client, visitorID, cfg.Session.Duration)
		if err != nil {
			return nil, noop, err
		}
		logg.Info(ctx, "using redis visitor store")
		return durable, func() {
			if err := client.Close(); err != nil {
				logg.Error(ctx, "error closing redis", err)
			}
		}, nil
	}

	logg.Info(ctx, "using in-memory visitor store, state will not survive this run")
	return store.NewMemory(), noop, nil
}

// simulateVisit feeds the engine the page events its armed trigger
// needs, then waits out the visit.
func simulateVisit(ctx context.Context, engine *widget.Engine, host *consoleHost, checkout bool, wait time.Duration) {
	status := engine.Status(ctx)

	switch status.Trigger.Type {
	case "scroll":
		for _, y := range []float64{200, 600, 1200, 1800} {
			engine.OnScroll(y, 3000, 1000)
			time.Sleep(50 * time.Millisecond)
		}
	case "exit":
		time.Sleep(200 * time.Millisecond)
		engine.OnPointerLeave(4)
	case "click":
		engine.OnTriggerClick()
	}

	deadline := time.After(wait)
	for !host.popupShown() {
		select {
		case <-deadline:
			fmt.Println("visit ended without the popup opening")
			return
		case <-time.After(20 * time.Millisecond):
		}
	}

	if checkout {
		if err := engine.OnCheckoutClick(ctx); err != nil {
			fmt.Printf("checkout refused: %v\n", err)
		} else {
			// Give the redirect timer room to fire.
			time.Sleep(500 * time.Millisecond)
		}
		return
	}

	engine.OnClose(ctx)
}

func printStatus(status widget.Status) {
	out, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		fmt.Printf("status: %+v\n", status)
		return
	}
	fmt.Println(string(out))
}
