// Copyright 2023-2024 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/handlers"
	"github.com/karlmutch/envflag"
	"github.com/tebeka/atexit"

	"github.com/leaf-ai/proctor-go-agent/internal/config"
	"github.com/leaf-ai/proctor-go-agent/internal/monitor"
	"github.com/leaf-ai/proctor-go-agent/internal/queue"
	"github.com/leaf-ai/proctor-go-agent/internal/registry"
	"github.com/leaf-ai/proctor-go-agent/internal/runner"
	"github.com/leaf-ai/proctor-go-agent/internal/scheduler"
	"github.com/leaf-ai/proctor-go-agent/internal/toolchain"
	"github.com/leaf-ai/proctor-go-agent/pkg/proctor"
)

var (
	logger = proctor.NewLogger("proctor-agent")

	cfgFileOpt = flag.String("config", "", "optional TOML configuration file overriding the compiled in defaults")

	executorAddrOpt = flag.String("executor-address", "", "listen address for the execution endpoint (default 127.0.0.1:8910)")
	monitorAddrOpt  = flag.String("monitor-address", "", "listen address for the monitor endpoint (default 127.0.0.1:8765)")
	promAddrOpt     = flag.String("prom-address", "", "listen address for the prometheus metrics endpoint (default off)")

	workersOpt       = flag.String("workers", "", "worker pool size, a number or max for one worker per CPU")
	queueCapacityOpt = flag.Uint("queue-capacity", 0, "per priority band capacity of the submission queue (default 10000)")
	scanIntervalOpt  = flag.Duration("scan-interval", 0, "period between forbidden application sweeps (default 30s)")
	originsOpt       = flag.String("origins", "", "comma separated CORS origins permitted to reach the agent")
)

func usage() {
	fmt.Fprintln(os.Stderr, path.Base(os.Args[0]))
	fmt.Fprintln(os.Stderr, "usage: ", os.Args[0], "[arguments]      exam proctoring agent")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Arguments:")
	fmt.Fprintln(os.Stderr, "")
	flag.PrintDefaults()
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Environment Variables:")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "options can be read from environment variables by changing dashes '-' to underscores")
	fmt.Fprintln(os.Stderr, "and using upper case letters.")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "To control log levels the LOGXI env variables can be used, these are documented at https://github.com/mgutz/logxi")
}

// applyFlags lets explicitly supplied command line options win over the
// configuration file
func applyFlags(cfg *config.Config) (err error) {
	if len(*executorAddrOpt) != 0 {
		cfg.ExecutorAddr = *executorAddrOpt
	}
	if len(*monitorAddrOpt) != 0 {
		cfg.MonitorAddr = *monitorAddrOpt
	}
	if len(*promAddrOpt) != 0 {
		cfg.PromAddr = *promAddrOpt
	}
	if len(*workersOpt) != 0 {
		if *workersOpt == "max" {
			cfg.Workers = 0
		} else {
			workers, errGo := strconv.Atoi(*workersOpt)
			if errGo != nil {
				return errGo
			}
			cfg.Workers = workers
		}
	}
	if *queueCapacityOpt != 0 {
		cfg.QueueCapacity = int(*queueCapacityOpt)
	}
	if *scanIntervalOpt != 0 {
		cfg.SetScanInterval(*scanIntervalOpt)
	}
	if len(*originsOpt) != 0 {
		cfg.Origins = strings.Split(*originsOpt, ",")
	}
	return nil
}

// startServer runs one HTTP listener with a context bound graceful stop
func startServer(ctx context.Context, addr string, handler http.Handler, label string) {
	h := http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		logger.Info(label+" listening", "address", addr)
		if errGo := h.ListenAndServe(); errGo != nil && errGo != http.ErrServerClosed {
			logger.Error(label+" server stopped", "error", errGo.Error())
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = h.Shutdown(shutdownCtx)
	}()
}

func main() {
	flag.Usage = usage

	// Options come from the command line and from the env variable table
	envflag.Parse()

	cfg, err := config.Load(*cfgFileOpt)
	if err != nil {
		logger.Fatal("configuration failed", "error", err.Error())
	}
	if errGo := applyFlags(cfg); errGo != nil {
		logger.Fatal("invalid option", "error", errGo.Error())
	}
	logger.Info("proctor agent starting", "version", semVer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopC := make(chan os.Signal, 2)
	signal.Notify(stopC, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stopC
		logger.Warn("stop signal seen")
		cancel()
	}()

	// Discover which toolchains this workstation actually carries, entries
	// that fail their probe are never admitted
	table := toolchain.Table()
	installed := toolchain.Probe(ctx, table)
	for _, lang := range installed {
		logger.Debug("toolchain detected", "language", lang.Key, "version", lang.Version)
	}
	if len(installed) == 0 {
		logger.Warn("no toolchains detected, every submission will be rejected")
	}
	logger.Info("toolchains probed", "installed", len(installed), "known", len(table))

	qCfg := queue.DefaultConfig()
	qCfg.Capacity = cfg.QueueCapacity
	qCfg.MaxRetries = cfg.MaxRetries
	q := queue.New[scheduler.Job](qCfg)
	logger.Info("submission queue ready", "band_capacity", humanize.Comma(int64(qCfg.Capacity)))

	jobs := registry.New()
	pool := scheduler.New(q, jobs, runner.New(table), cfg.Workers, logger)
	pool.Observe(func(job scheduler.Job, phase registry.Phase) {
		switch phase {
		case registry.PhaseRunning:
			jobsRunning.Inc()
		case registry.PhaseCompleted:
			jobsRunning.Dec()
			jobsCompleted.WithLabelValues("completed").Inc()
		case registry.PhaseError:
			jobsRunning.Dec()
			jobsCompleted.WithLabelValues("error").Inc()
		}
	})
	pool.Start(ctx)

	producer := q.Producer()
	atexit.Register(func() {
		q.Shutdown()
		producer.Close()
	})

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.Origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)

	execSvc := newExecutorService(installed, jobs, producer)
	startServer(ctx, cfg.ExecutorAddr, cors(execSvc.router()), "executor")

	mon := monitor.New(monitor.Denylist())
	monSvc := newMonitorService(mon)
	startServer(ctx, cfg.MonitorAddr, cors(monSvc.router()), "monitor")

	runPrometheus(ctx, cfg.PromAddr)
	go monitoringExporter(ctx, q, 10*time.Second)
	go sweep(ctx, mon, cfg.ScanPeriod())

	fmt.Println("Proctoring agent is running...")
	fmt.Println("WARNING: Do NOT close this window until your exam is completed, else it will be terminated!")

	<-ctx.Done()

	// Workers drain in-flight jobs before the process leaves
	q.Shutdown()
	pool.Wait()
	atexit.Exit(0)
}
