package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"calpane/internal/capture"
	"calpane/internal/config"
	"calpane/internal/export"
	appLog "calpane/internal/log"
	"calpane/internal/script"
	"calpane/internal/slideshow"
	"calpane/internal/web"
	"calpane/internal/widget"
)

const version = "0.1.0"

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath   string
	listen       string
	logLevel     string
	once         bool
	snapshotPath string
	exportPath   string
	previewPath  string
}

func main() {
	appLog.Info("calpane starting", "version", version)

	flags := parseFlags()
	appLog.SetLevel(appLog.ParseLevel(flags.logLevel))

	// Optional .env next to the binary; missing file is fine.
	_ = godotenv.Load()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	conf.ApplyEnv()

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"refresh", conf.RefreshCron,
		"fetch_timeout", conf.FetchTimeout(),
		"preview_lines", conf.PreviewLines,
		"slideshow_interval", conf.SlideshowInterval(),
		"configured", conf.Endpoint != "" && conf.Token != "",
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	client := script.New(conf.Endpoint, conf.Token, conf.FetchTimeout())
	ctrl := widget.New(client, widget.Options{
		Location:         conf.Location(),
		PreviewLimit:     conf.PreviewLines,
		WeekPreviewLimit: conf.WeekPreviewLines,
	})

	switch {
	case flags.once:
		runOnce(ctx, ctrl)
	case flags.exportPath != "":
		runExport(ctx, ctrl, conf, flags.exportPath)
	default:
		runServer(ctx, ctrl, client, conf, flags)
	}
}

// runOnce performs a single refresh and dumps the render model to stdout.
func runOnce(ctx context.Context, ctrl *widget.Controller) {
	if err := ctrl.Refresh(ctx); err != nil {
		appLog.Error("refresh failed", err)
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ctrl.Snapshot()); err != nil {
		appLog.Error("encode snapshot failed", err)
		os.Exit(1)
	}
}

// runExport fetches the current window and writes it as an ICS file.
func runExport(ctx context.Context, ctrl *widget.Controller, conf *config.Config, path string) {
	if err := ctrl.Refresh(ctx); err != nil {
		appLog.Error("refresh failed", err)
		os.Exit(1)
	}
	f, err := os.Create(path)
	if err != nil {
		appLog.Error("create export file failed", err, "path", path)
		os.Exit(1)
	}
	defer f.Close()
	if err := export.WriteICS(f, ctrl.Events(), conf.Location()); err != nil {
		appLog.Error("ics export failed", err, "path", path)
		os.Exit(1)
	}
	appLog.Info("ics export written", "path", path, "events", len(ctrl.Events()))
}

// runServer is the long-running mode: web panel, cron refresh, slideshow.
// With -snapshot it additionally captures the page once and exits.
func runServer(ctx context.Context, ctrl *widget.Controller, client *script.Client, conf *config.Config, flags flagConfig) {
	carousel := &slideshow.Carousel{}
	srv := web.NewServer(conf, ctrl, carousel, flags.previewPath)

	srv.InitialRefresh(ctx)

	sched := cron.New()
	if _, err := sched.AddFunc(conf.RefreshCron, srv.ScheduledRefresh); err != nil {
		appLog.Error("invalid refresh cron spec", err, "spec", conf.RefreshCron)
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()

	go carousel.Run(ctx, client, conf.SlideshowInterval())

	if flags.snapshotPath != "" {
		go func() {
			err := capture.PanelPNG(ctx, capture.Options{
				URL:        "http://" + conf.Listen + "/",
				OutputPath: flags.snapshotPath,
			})
			if err != nil {
				appLog.Error("snapshot capture failed", err, "path", flags.snapshotPath)
			} else {
				appLog.Info("snapshot written", "path", flags.snapshotPath)
			}
			// Snapshot mode is one-shot; stop the server either way.
			_ = syscall.Kill(syscall.Getpid(), syscall.SIGTERM)
		}()
	}

	if err := srv.Serve(ctx); err != nil {
		appLog.Error("HTTP server stopped", err)
		os.Exit(1)
	}
	appLog.Info("calpane exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/calpane/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.BoolVar(&cfg.once, "once", false, "Run one fetch and print the render model as JSON")
	flag.StringVar(&cfg.snapshotPath, "snapshot", "", "Capture the panel page to this PNG path and exit")
	flag.StringVar(&cfg.exportPath, "export", "", "Write the fetched window to this ICS path and exit")
	flag.StringVar(&cfg.previewPath, "preview-path", "/var/lib/calpane/preview.png", "Where snapshot PNGs are stored/served from")

	flag.Parse()

	return cfg
}
