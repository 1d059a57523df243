package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Mr-Eke/DueBoard/internal/assignment"
	"github.com/Mr-Eke/DueBoard/internal/capture"
	"github.com/Mr-Eke/DueBoard/internal/config"
	"github.com/Mr-Eke/DueBoard/internal/gcal"
	appLog "github.com/Mr-Eke/DueBoard/internal/log"
	"github.com/Mr-Eke/DueBoard/internal/session"
	"github.com/Mr-Eke/DueBoard/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	once       bool
	export     string
	logLevel   string
}

func main() {
	flags := parseFlags()
	if flags.logLevel != "" {
		appLog.SetLevel(flags.logLevel)
	}

	appLog.Info("dueboard starting", "version", "0.1.0")

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.logLevel == "" {
		appLog.SetLevel(conf.LogLevel)
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"refresh", conf.RefreshCron,
		"calendar_match", conf.CalendarMatch,
		"feed_count", len(conf.Feeds),
		"max_results", conf.MaxResults,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	client := gcal.NewClient(conf)
	sess := session.New(policyFromConfig(conf))

	// Resume an existing authorization, and treat feed-only setups as
	// authorized: feeds need no consent step.
	if client.Authorized() || len(conf.Feeds) > 0 {
		sess.SetAuthorized(true)
	}

	refresher := newBoardRefresher(conf, sess, client)

	if sess.Authorized() {
		if err := refresher.Refresh(ctx); err != nil {
			appLog.Error("initial refresh failed", err, "kind", gcal.KindOf(err))
		}
	}

	if flags.once {
		dumpBoard(sess)
		return
	}

	// Background refresh on the configured cron schedule.
	c := cron.New()
	if _, err := c.AddFunc(conf.RefreshCron, func() {
		if !sess.Authorized() {
			return
		}
		if err := refresher.Refresh(ctx); err != nil {
			appLog.Error("scheduled refresh failed", err, "kind", gcal.KindOf(err))
		}
	}); err != nil {
		appLog.Error("invalid refresh schedule", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	c.Start()
	defer c.Stop()

	srv := &http.Server{
		Addr:    conf.Listen,
		Handler: web.NewServer(conf, sess, client, client, refresher).Handler(),
	}

	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("HTTP server failed", err)
			cancel()
		}
	}()

	if flags.export != "" {
		go exportBoard(ctx, conf, flags.export)
	}

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("HTTP shutdown failed", err)
	}
	appLog.Info("dueboard exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Run one refresh, print the board, and exit")
	flag.StringVar(&cfg.export, "export", "", "Export a PNG of the board to this path after startup")
	flag.StringVar(&cfg.logLevel, "log-level", "", "Log level: DEBUG, INFO, ERROR (overrides config)")

	flag.Parse()
	return cfg
}

// dumpBoard logs the current assignment set sorted by due date; used by
// the -once mode for cron-driven or scripted checks.
func dumpBoard(sess *session.Session) {
	now := time.Now()
	for _, a := range sess.Collection().SortByDueDate() {
		cd := assignment.Classify(a.DueDate, now)
		appLog.Info("assignment",
			"title", a.Title,
			"course", a.Course,
			"due", assignment.FormatDueDate(a.DueDate),
			"tier", cd.Tier,
			"countdown", cd.Label,
		)
	}
}

// exportBoard captures the rendered board as a PNG once the server is up.
func exportBoard(ctx context.Context, conf *config.Config, path string) {
	// Give the server a moment to start listening.
	select {
	case <-ctx.Done():
		return
	case <-time.After(2 * time.Second):
	}

	err := capture.BoardPNG(ctx, capture.Options{
		URL:        "http://" + conf.Listen + "/",
		OutputPath: path,
	})
	if err != nil {
		appLog.Error("board export failed", err, "path", path)
		return
	}
	appLog.Info("board exported", "path", path)
}
