package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/Swind/go-fiber/core"
	"github.com/Swind/go-fiber/internal/demo"
	obs "github.com/Swind/go-fiber/observability/prometheus"
	fiberlog "github.com/Swind/go-fiber/observability/zerolog"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

func RunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the producer/consumer workload",

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "TOML file with workload settings; flags override it",
			},
			&cli.IntFlag{Name: "producers", Aliases: []string{"p"}, Value: 1, Usage: "number of producer fibers"},
			&cli.IntFlag{Name: "consumers", Aliases: []string{"n"}, Value: 1, Usage: "number of consumer fibers"},
			&cli.IntFlag{Name: "buffer", Aliases: []string{"b"}, Value: 5, Usage: "shared buffer slots"},
			&cli.IntFlag{Name: "items", Aliases: []string{"i"}, Value: 4, Usage: "items per producer"},
			&cli.IntFlag{Name: "stack-size", Usage: "stack bytes per fiber (0 = scheduler default)"},
			&cli.StringFlag{
				Name:  "log-format",
				Value: "none",
				Usage: "scheduler log output: none, text, json or console",
			},
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "minimum scheduler log level"},
			&cli.BoolFlag{Name: "mmap", Usage: "allocate fiber stacks with guard-paged mappings"},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "serve Prometheus metrics on this address, e.g. :2112",
			},
			&cli.DurationFlag{
				Name:  "linger",
				Value: 0,
				Usage: "keep the metrics endpoint up this long after the run",
			},
		},

		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	// 1. Workload config: defaults, then file, then flags
	cfg := demo.DefaultConfig()
	if path := c.String("config"); path != "" {
		loaded, err := demo.LoadConfig(path)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		cfg = loaded
	}
	if c.IsSet("producers") {
		cfg.Producers = c.Int("producers")
	}
	if c.IsSet("consumers") {
		cfg.Consumers = c.Int("consumers")
	}
	if c.IsSet("buffer") {
		cfg.BufferSize = c.Int("buffer")
	}
	if c.IsSet("items") {
		cfg.Items = c.Int("items")
	}
	if c.IsSet("stack-size") {
		cfg.StackSize = c.Int("stack-size")
	}
	if err := cfg.Validate(); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	// 2. Scheduler config
	logger, err := newLogger(c.String("log-format"), c.String("log-level"), os.Stderr)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	schedCfg := &core.SchedulerConfig{
		Name:   "fiberdemo",
		Logger: logger,
	}
	if c.Bool("mmap") {
		schedCfg.StackAllocator = core.NewMmapStackAllocator()
	}

	var server *http.Server
	var poller *obs.SnapshotPoller
	if addr := c.String("metrics-addr"); addr != "" {
		reg := prom.NewRegistry()
		exporter, err := obs.NewMetricsExporter("fiber", reg, obs.ExporterOptions{})
		if err != nil {
			return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
		}
		schedCfg.Metrics = exporter

		poller, err = obs.NewSnapshotPoller(reg, 100*time.Millisecond)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
		}

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		server = &http.Server{Addr: addr, Handler: mux}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server stopped", core.F("error", err))
			}
		}()
	}

	s := core.NewScheduler(schedCfg)
	if poller != nil {
		poller.AddScheduler(s.Name(), s)
		poller.Start(c.Context)
		defer poller.Stop()
	}

	// 3. Run
	w, err := demo.New(s, cfg, c.App.Writer)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}
	summary, err := w.Run()
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}

	// 4. Output
	fmt.Fprintf(c.App.Writer, "produced %d, consumed %d, %d switches\n",
		summary.Produced, summary.Consumed, summary.Switches)

	if server != nil {
		if d := c.Duration("linger"); d > 0 {
			fmt.Fprintf(c.App.Writer, "metrics at http://%s/metrics for %s\n", server.Addr, d)
			time.Sleep(d)
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
	return nil
}

func newLogger(format, level string, w io.Writer) (core.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}

	switch format {
	case "", "none":
		return core.NewNoOpLogger(), nil
	case "text":
		return core.NewDefaultLoggerWith(log.New(w, "", log.LstdFlags), textLevel(lvl)), nil
	case "json":
		return fiberlog.NewJSON(w, lvl), nil
	case "console":
		return fiberlog.NewConsole(w, lvl), nil
	}
	return nil, fmt.Errorf("unknown log format %q", format)
}

func textLevel(lvl zerolog.Level) core.LogLevel {
	switch {
	case lvl <= zerolog.DebugLevel:
		return core.LevelDebug
	case lvl == zerolog.InfoLevel:
		return core.LevelInfo
	case lvl == zerolog.WarnLevel:
		return core.LevelWarn
	}
	return core.LevelError
}
