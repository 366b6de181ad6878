package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/bytedance/sonic"

	"github.com/resultatbasen/ingest/internal/app"
	"github.com/resultatbasen/ingest/internal/config"
	"github.com/resultatbasen/ingest/internal/observability"
	"github.com/resultatbasen/ingest/internal/platform/logging"
	"github.com/resultatbasen/ingest/internal/usecase"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewJSON(cfg.LogLevel)
	logging.SetDefault(logger)
	defer logger.Sync()

	os.Exit(run(cfg, logger))
}

func run(cfg config.Config, logger *logging.Logger) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownUptrace, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		logger.Error("init uptrace", "error", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := shutdownUptrace(shutdownCtx); err != nil {
			logger.Warn("uptrace shutdown failed", "error", err)
		}
	}()

	stopPyroscope, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		logger.Error("init pyroscope", "error", err)
		return 1
	}
	defer func() {
		if err := stopPyroscope(); err != nil {
			logger.Warn("pyroscope stop failed", "error", err)
		}
	}()

	pprofSrv, err := observability.StartPprofServer(cfg, logger)
	if err != nil {
		logger.Error("start pprof", "error", err)
		return 1
	}
	defer func() {
		if err := observability.StopPprofServer(pprofSrv, logger, 5*time.Second); err != nil {
			logger.Warn("pprof shutdown failed", "error", err)
		}
	}()

	cmd := strings.ToLower(strings.TrimSpace(os.Args[1]))
	args := os.Args[2:]

	switch cmd {
	case "scan":
		return runScan(ctx, cfg, logger, args)
	case "progress":
		return runProgress(ctx, cfg, logger)
	case "cleanup":
		return runCleanup(ctx, cfg, logger, args)
	case "enrich":
		return runEnrich(ctx, cfg, logger, args)
	default:
		printUsage()
		return 2
	}
}

func runScan(ctx context.Context, cfg config.Config, logger *logging.Logger, args []string) int {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	stream := fs.String("stream", "letters", "scan stream: letters or ids")
	scanRange := fs.String("range", "", "inclusive unit range, e.g. a-f or 1000-2000")
	dryRun := fs.Bool("dry-run", false, "resolve and normalize without writing results")
	fs.Parse(args)

	a, err := app.New(cfg, logger, app.Options{DryRun: *dryRun})
	if err != nil {
		logger.Error("build app", "error", err)
		return 1
	}
	defer a.Close()

	if err := a.Resolver.Warm(ctx); err != nil {
		logger.Error("warm resolver caches", "error", err)
		return 1
	}

	report, err := a.Scan.Run(ctx, usecase.ScanInput{Stream: *stream, Range: *scanRange})
	if err != nil {
		logger.Error("scan failed", "error", err)
		return 1
	}

	return printJSON(report)
}

func runProgress(ctx context.Context, cfg config.Config, logger *logging.Logger) int {
	a, err := app.New(cfg, logger, app.Options{})
	if err != nil {
		logger.Error("build app", "error", err)
		return 1
	}
	defer a.Close()

	report, err := a.Scan.Progress(ctx)
	if err != nil {
		logger.Error("read progress", "error", err)
		return 1
	}

	return printJSON(report)
}

func runCleanup(ctx context.Context, cfg config.Config, logger *logging.Logger, args []string) int {
	fs := flag.NewFlagSet("cleanup", flag.ExitOnError)
	workers := fs.Int("workers", cfg.CleanupMaxWorkers, "max parallel delete workers")
	dryRun := fs.Bool("dry-run", false, "report corrupt rows without deleting")
	fs.Parse(args)

	a, err := app.New(cfg, logger, app.Options{})
	if err != nil {
		logger.Error("build app", "error", err)
		return 1
	}
	defer a.Close()

	report, err := a.Cleanup.Run(ctx, usecase.CleanupInput{MaxWorkers: *workers, DryRun: *dryRun})
	if err != nil {
		logger.Error("cleanup failed", "error", err)
		return 1
	}

	return printJSON(report)
}

func runEnrich(ctx context.Context, cfg config.Config, logger *logging.Logger, args []string) int {
	fs := flag.NewFlagSet("enrich", flag.ExitOnError)
	dryRun := fs.Bool("dry-run", false, "report gender matches without updating")
	fs.Parse(args)

	a, err := app.New(cfg, logger, app.Options{})
	if err != nil {
		logger.Error("build app", "error", err)
		return 1
	}
	defer a.Close()

	report, err := a.Enrich.Run(ctx, *dryRun)
	if err != nil {
		logger.Error("enrich failed", "error", err)
		return 1
	}

	return printJSON(report)
}

func printJSON(v any) int {
	out, err := sonic.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode report: %v\n", err)
		return 1
	}
	fmt.Println(string(out))
	return 0
}

func printUsage() {
	prog := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "usage: %s <scan|progress|cleanup|enrich> [flags]\n", prog)
	fmt.Fprintln(os.Stderr, "examples:")
	fmt.Fprintf(os.Stderr, "  %s scan -stream letters -range a-f\n", prog)
	fmt.Fprintf(os.Stderr, "  %s scan -stream ids -range 1000-2000 -dry-run\n", prog)
	fmt.Fprintf(os.Stderr, "  %s progress\n", prog)
	fmt.Fprintf(os.Stderr, "  %s cleanup -workers 4\n", prog)
	fmt.Fprintf(os.Stderr, "  %s enrich -dry-run\n", prog)
}
