package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sylee2006/Mobile-project/internal/advice"
	"github.com/sylee2006/Mobile-project/internal/capture"
	"github.com/sylee2006/Mobile-project/internal/config"
	"github.com/sylee2006/Mobile-project/internal/ics"
	applog "github.com/sylee2006/Mobile-project/internal/log"
	"github.com/sylee2006/Mobile-project/internal/store"
	"github.com/sylee2006/Mobile-project/internal/web"
	"github.com/sylee2006/Mobile-project/internal/week"
)

type flagConfig struct {
	configPath string
	listen     string
	once       bool
	syncOnly   bool
}

func main() {
	applog.Info("weekcal starting", "version", "0.1.0")

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		applog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	applog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"week_start", conf.WeekStart,
		"refresh", conf.RefreshCron,
		"ics_count", len(conf.ICS),
		"once", flags.once,
		"sync_only", flags.syncOnly,
	)

	loc, err := time.LoadLocation(conf.Timezone)
	if err != nil {
		applog.Error("failed to load timezone; falling back to local", err, "timezone", conf.Timezone)
		loc = time.Local
	}

	st, err := store.Open(conf.StoreDir, loc)
	if err != nil {
		applog.Error("failed to open event store", err, "store_dir", conf.StoreDir)
		os.Exit(1)
	}

	fetcher := ics.NewFetcher(filepath.Join(conf.CacheDir, "ics-cache"))
	adv := advice.New(conf.Advice.URL, conf.Advice.APIKey, conf.Advice.Model)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		applog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	srv := &http.Server{
		Addr:    conf.Listen,
		Handler: web.NewServer(conf, st, adv).Handler(),
	}
	serverErr := make(chan error, 1)
	go func() {
		applog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
		serverErr <- srv.ListenAndServe()
	}()

	refresh := func(ctx context.Context) {
		if err := runRefresh(ctx, conf, fetcher, st, loc, flags.syncOnly); err != nil {
			applog.Error("refresh cycle failed", err)
		}
	}

	// First cycle right away so the view is populated before the first tick.
	refresh(ctx)

	if flags.once {
		applog.Info("single cycle complete, exiting")
		shutdownServer(srv)
		return
	}

	sched := cron.New()
	if _, err := sched.AddFunc(conf.RefreshCron, func() { refresh(ctx) }); err != nil {
		applog.Error("invalid refresh schedule", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	sched.Start()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Error("HTTP server failed", err)
		}
		cancel()
	}

	<-sched.Stop().Done()
	shutdownServer(srv)
	applog.Info("weekcal exiting")
}

// runRefresh performs one sync + capture cycle: pull all ICS subscriptions
// into the store for the surrounding weeks, then screenshot the week page.
func runRefresh(ctx context.Context, conf *config.Config, fetcher *ics.Fetcher, st *store.Store, loc *time.Location, syncOnly bool) error {
	started := time.Now()

	sources := make([]ics.Source, 0, len(conf.ICS))
	for _, src := range conf.ICS {
		if src.URL == "" {
			continue
		}
		id := src.ID
		if id == "" {
			if src.Name != "" {
				id = src.Name
			} else {
				id = src.URL
			}
		}
		sources = append(sources, ics.Source{ID: id, URL: src.URL})
	}

	if len(sources) > 0 {
		// Sync the previous, current and next week so paging stays populated.
		now := time.Now().In(loc)
		from := week.Start(now, conf.WeekStart).AddDate(0, 0, -week.DaysPerWeek)
		to := from.AddDate(0, 0, 3*week.DaysPerWeek)

		if err := ics.Sync(ctx, fetcher, st, ics.SyncConfig{
			Sources:         sources,
			DisplayLocation: loc,
			RangeStart:      from,
			RangeEnd:        to,
		}); err != nil {
			applog.Error("ics sync finished with errors", err)
		}
	}

	if !syncOnly {
		if err := capture.WeekPNG(ctx, capture.Options{
			URL:        "http://" + conf.Listen + "/",
			OutputPath: filepath.Join(conf.CacheDir, "preview.png"),
		}); err != nil {
			return err
		}
	}

	applog.Info("refresh cycle done",
		"sources", len(sources),
		"captured", !syncOnly,
		"elapsed", time.Since(started).String(),
	)
	return nil
}

func shutdownServer(srv *http.Server) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		applog.Error("HTTP server shutdown failed", err)
	}
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Run one sync+capture cycle and exit")
	flag.BoolVar(&cfg.syncOnly, "sync-only", false, "Skip the PNG capture step")

	flag.Parse()

	return cfg
}
