package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/himanshu810e/firebase-tools/config"
	"github.com/himanshu810e/firebase-tools/internal/converter"
	"github.com/himanshu810e/firebase-tools/internal/deploy"
	"github.com/himanshu810e/firebase-tools/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, true, cfg.Server.Environment)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	command := "plan"
	var args []string
	if len(os.Args) > 1 {
		command = os.Args[1]
		args = os.Args[2:]
	}

	switch command {
	case "plan":
		err = runPlan(log, cfg)
	case "release":
		err = runRelease(log, cfg, args)
	case "serve":
		err = runServe(ctx, log, cfg, args)
	default:
		log.Error("Unknown command", slog.String("command", command))
		fmt.Fprintln(os.Stderr, "usage: hosting [plan|release|serve]")
		os.Exit(2)
	}

	if err != nil {
		log.Error("Command failed",
			slog.String("command", command),
			slog.Any("err", err))
		os.Exit(1)
	}
}

// runPlan converts the hosting config with the prepare-phase policy and
// reports what would be submitted, including rewrites dropped because their
// targets are not live yet.
func runPlan(log *slog.Logger, cfg *config.Config) error {
	dctx, lookup, err := loadDeployState(cfg)
	if err != nil {
		return err
	}

	out := converter.New(log).Convert(dctx, lookup, &cfg.Hosting, false)

	log.Info("Prepared serving config",
		slog.String("project", dctx.ProjectID),
		slog.Int("rewrites", len(out.Rewrites)),
		slog.Int("rewrites_dropped", len(cfg.Hosting.Rewrites)-len(out.Rewrites)),
		slog.Int("redirects", len(out.Redirects)),
		slog.Int("headers", len(out.Headers)))

	payload, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(payload))

	return nil
}

// runRelease converts with the release-phase policy and emits the payload
// for the hosting API.
func runRelease(log *slog.Logger, cfg *config.Config, args []string) error {
	flags := flag.NewFlagSet("release", flag.ContinueOnError)
	outPath := flags.String("out", "", "write the serving config JSON to this file instead of stdout")
	if err := flags.Parse(args); err != nil {
		return err
	}

	dctx, lookup, err := loadDeployState(cfg)
	if err != nil {
		return err
	}

	out := converter.New(log).Convert(dctx, lookup, &cfg.Hosting, true)

	payload, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}

	if *outPath == "" {
		fmt.Println(string(payload))
		return nil
	}

	if err := os.WriteFile(*outPath, payload, 0644); err != nil {
		return err
	}
	log.Info("Wrote serving config", slog.String("file", *outPath))

	return nil
}

// loadDeployState reads the backend snapshot descriptor assembled by the
// functions deploy pipeline. The configured project id overrides the one
// recorded in the snapshot.
func loadDeployState(cfg *config.Config) (deploy.Context, deploy.Lookup, error) {
	dctx, lookup, err := deploy.LoadSnapshot(cfg.Deploy.Snapshot)
	if err != nil {
		return deploy.Context{}, nil, err
	}

	if cfg.Deploy.ProjectID != "" {
		dctx.ProjectID = cfg.Deploy.ProjectID
	}

	return dctx, lookup, nil
}
