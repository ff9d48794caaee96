package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lanepay/lanepay/internal/application/processor"
	"github.com/lanepay/lanepay/internal/clock"
	"github.com/lanepay/lanepay/internal/config"
	"github.com/lanepay/lanepay/internal/domain/billing"
	domhook "github.com/lanepay/lanepay/internal/domain/hook"
	"github.com/lanepay/lanepay/internal/infrastructure/hooks"
	"github.com/lanepay/lanepay/internal/infrastructure/id"
	"github.com/lanepay/lanepay/internal/infrastructure/memory"
	"github.com/lanepay/lanepay/internal/infrastructure/observability/oteltrace"
	"github.com/lanepay/lanepay/internal/infrastructure/observability/prometrics"
	"github.com/lanepay/lanepay/internal/infrastructure/observability/telemetry"
	"github.com/lanepay/lanepay/internal/infrastructure/observability/zaplogger"
	"github.com/lanepay/lanepay/internal/infrastructure/provider/reference"
	"github.com/lanepay/lanepay/internal/infrastructure/webhook"
	"github.com/lanepay/lanepay/internal/observability"
	httppresentation "github.com/lanepay/lanepay/internal/presentation/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	baseLogger := zaplogger.New(cfg.LogFile,
		observability.F("service", cfg.ServiceName),
		observability.F("env", cfg.Env),
	)
	if s, ok := baseLogger.(interface{ Sync() error }); ok {
		defer func() { _ = s.Sync() }()
	}

	metrics := prometrics.New("lanepay", "")
	counters := map[string]observability.Counter{
		observability.MProcessorRequests: metrics.Counter(
			observability.MProcessorRequests,
			"Total number of processor operations.",
			"operation", "outcome",
		),
		observability.MProviderRequests: metrics.Counter(
			observability.MProviderRequests,
			"Total number of payment provider calls.",
			"operation", "outcome",
		),
		observability.MHookEmissions: metrics.Counter(
			observability.MHookEmissions,
			"Total number of hook handler invocations.",
			"event", "outcome",
		),
		observability.MHTTPRequests: metrics.Counter(
			observability.MHTTPRequests,
			"Total number of HTTP requests.",
			"method", "route", "status",
		),
	}
	histograms := map[string]observability.Histogram{
		observability.MProcessorDuration: metrics.Histogram(
			observability.MProcessorDuration,
			"Duration of processor operations in seconds.",
			prometheus.DefBuckets,
			"operation",
		),
		observability.MProviderDuration: metrics.Histogram(
			observability.MProviderDuration,
			"Duration of payment provider calls in seconds.",
			prometheus.DefBuckets,
			"operation",
		),
		observability.MHTTPRequestLatency: metrics.Histogram(
			observability.MHTTPRequestLatency,
			"Duration of HTTP requests in seconds.",
			prometheus.DefBuckets,
			"method", "route", "status",
		),
	}

	tel := telemetry.New(oteltrace.New(cfg.ServiceName), baseLogger, counters, histograms)

	store := memory.NewStore()
	sink := hooks.NewRegistry(baseLogger, tel)
	prov := reference.New(baseLogger)
	ids := id.NewGenerator()

	proc := processor.New(store, prov, sink, ids, clock.SystemClock{}, tel)

	// Lifecycle events land in the structured log and feed the webhook
	// dispatcher; external consumers register their own handlers here.
	auditLogger := baseLogger.With(observability.F("component", "audit"))
	dispatcher := webhook.NewDispatcher(webhook.SenderFunc(
		func(_ context.Context, e domhook.Event) error {
			auditLogger.Info("webhook_event",
				observability.F("event", e.EventName()),
			)
			return nil
		},
	), baseLogger)
	dispatcher.Start(context.Background())
	defer dispatcher.Stop(context.Background())

	for _, name := range billing.EventNames() {
		sink.Subscribe(name, func(_ context.Context, e domhook.Event) error {
			auditLogger.Info("billing_event",
				observability.F("event", e.EventName()),
			)
			return nil
		})
		sink.Subscribe(name, dispatcher.Handler())
	}

	handler := httppresentation.NewHandler(proc, baseLogger, tel)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler.Router())

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("http_server_start",
			observability.F("addr", server.Addr),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Error("http_server_error",
				observability.F("error", err),
			)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("http_server_shutdown_error",
			observability.F("error", err),
		)
	} else {
		baseLogger.Info("http_server_stopped")
	}
}
