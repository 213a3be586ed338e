package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/himanshu810e/firebase-tools/config"
	"github.com/himanshu810e/firebase-tools/internal/circuitbreaker"
	"github.com/himanshu810e/firebase-tools/internal/converter"
	"github.com/himanshu810e/firebase-tools/internal/deploy"
	"github.com/himanshu810e/firebase-tools/internal/handler"
	"github.com/himanshu810e/firebase-tools/internal/healthcheck"
	"github.com/himanshu810e/firebase-tools/internal/httpserver"
	"github.com/himanshu810e/firebase-tools/internal/metrics"
	"github.com/himanshu810e/firebase-tools/internal/proxy"
)

const (
	breakerThreshold = 5
	breakerTimeout   = 30 * time.Second
	metricsBuffer    = 1000
	watchDebounce    = 250 * time.Millisecond
)

// runServe emulates the hosting edge locally: it converts the hosting config
// as a release would, builds a routing site from it and serves static content
// plus proxied rewrites until the context is cancelled.
func runServe(ctx context.Context, log *slog.Logger, cfg *config.Config, args []string) error {
	flags := flag.NewFlagSet("serve", flag.ContinueOnError)
	watch := flags.Bool("watch", false, "rebuild routes when the config file changes")
	if err := flags.Parse(args); err != nil {
		return err
	}

	dctx, lookup, err := loadDeployState(cfg)
	if err != nil {
		// A preview should still come up for a pure static site.
		log.Warn("No backend snapshot, serving without resolved backends",
			slog.String("file", cfg.Deploy.Snapshot),
			slog.Any("err", err))
		dctx, lookup = deploy.Context{}, deploy.Lookup{}
	}

	collector := metrics.NewCollector(metricsBuffer, log)
	collector.Start(ctx)

	targets, err := buildTargets(ctx, cfg, log, collector)
	if err != nil {
		return err
	}

	conv := converter.New(log)
	site, err := handler.BuildSite(conv.Convert(dctx, lookup, &cfg.Hosting, true), targets)
	if err != nil {
		return err
	}

	breakers := circuitbreaker.NewRegistry(breakerThreshold, breakerTimeout)
	static := http.FileServer(http.Dir(cfg.Preview.Public))
	preview := handler.New(log, site, static, breakers, collector)

	srv, err := httpserver.New(cfg.Server.Address, setupRouter(preview, collector))
	if err != nil {
		return err
	}

	if *watch && cfg.SourceFile != "" {
		go watchConfig(ctx, log, cfg.SourceFile, func() {
			reloadSite(log, conv, dctx, lookup, targets, preview)
		})
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Preview server listening",
			slog.String("address", cfg.Server.Address),
			slog.String("public", cfg.Preview.Public))
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("Shutting down preview server")
		return srv.Shutdown(context.Background())
	}
}

// buildTargets parses the configured preview target URLs into reverse proxy
// targets and starts a health watcher per target.
func buildTargets(
	ctx context.Context,
	cfg *config.Config,
	log *slog.Logger,
	collector *metrics.Collector,
) (map[string]*proxy.Target, error) {
	interval, err := time.ParseDuration(cfg.Preview.HealthCheckInterval)
	if err != nil {
		return nil, err
	}

	targets := make(map[string]*proxy.Target, len(cfg.Preview.Targets))
	for serviceID, raw := range cfg.Preview.Targets {
		u, err := url.Parse(raw)
		if err != nil {
			return nil, err
		}

		target := proxy.New(serviceID, u)
		targets[serviceID] = target
		go healthcheck.Watch(ctx, target, interval, log, collector)
	}

	return targets, nil
}

// reloadSite re-reads the hosting config from disk, rebuilds the routing site
// and swaps it into the running handler. A broken config keeps the previous
// site serving.
func reloadSite(
	log *slog.Logger,
	conv *converter.Converter,
	dctx deploy.Context,
	lookup deploy.Lookup,
	targets map[string]*proxy.Target,
	preview *handler.PreviewHandler,
) {
	cfg, err := config.Load()
	if err != nil {
		log.Error("Config reload failed, keeping previous routes", slog.Any("err", err))
		return
	}

	site, err := handler.BuildSite(conv.Convert(dctx, lookup, &cfg.Hosting, true), targets)
	if err != nil {
		log.Error("Rebuilding routes failed, keeping previous routes", slog.Any("err", err))
		return
	}

	preview.Swap(site)
	log.Info("Reloaded hosting config", slog.String("file", cfg.SourceFile))
}

// watchConfig watches the directory holding the config file and invokes
// onChange after writes settle. Watching the directory instead of the file
// survives editors that replace the file on save.
func watchConfig(ctx context.Context, log *slog.Logger, path string, onChange func()) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Error("Config watcher failed to start", slog.Any("err", err))
		return
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		log.Error("Config watcher failed to start", slog.Any("err", err))
		return
	}

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(watchDebounce, onChange)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			if !errors.Is(err, fsnotify.ErrEventOverflow) {
				log.Warn("Config watcher error", slog.Any("err", err))
			}
		}
	}
}
