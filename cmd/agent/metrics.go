// Copyright 2023-2024 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package main

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"

	"github.com/jjeffery/kv" // MIT License

	"github.com/leaf-ai/proctor-go-agent/internal/queue"
	"github.com/leaf-ai/proctor-go-agent/internal/scheduler"
)

var (
	jobsSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "proctor_jobs_submitted",
			Help: "Number of submissions admitted through the execute endpoint.",
		},
	)
	jobsCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proctor_jobs_completed",
			Help: "Number of jobs reaching a terminal state by outcome.",
		},
		[]string{"outcome"},
	)
	jobsRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "proctor_jobs_running",
			Help: "Number of jobs currently being executed by the worker pool.",
		},
	)
	forbiddenSeen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "proctor_forbidden_observed",
			Help: "Number of denylisted applications seen by the last sweep.",
		},
	)

	queueSent = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "proctor_queue_sent",
			Help: "Messages accepted by the submission queue.",
		},
	)
	queueReceived = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "proctor_queue_received",
			Help: "Messages handed to workers by the submission queue.",
		},
	)
	queueFailed = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "proctor_queue_failed",
			Help: "Messages nacked by workers.",
		},
	)
	queueConsumers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "proctor_queue_consumers",
			Help: "Live consumer handles attached to the submission queue.",
		},
	)
)

func init() {
	prometheus.MustRegister(jobsSubmitted)
	prometheus.MustRegister(jobsCompleted)
	prometheus.MustRegister(jobsRunning)
	prometheus.MustRegister(forbiddenSeen)
	prometheus.MustRegister(queueSent)
	prometheus.MustRegister(queueReceived)
	prometheus.MustRegister(queueFailed)
	prometheus.MustRegister(queueConsumers)
}

// GetCounterValue extracts the current value from a counter
func GetCounterValue(metric prometheus.Counter) (val float64, err kv.Error) {
	m := &dto.Metric{}
	if errGo := metric.Write(m); errGo != nil {
		return 0, kv.Wrap(errGo)
	}
	return m.Counter.GetValue(), nil
}

// updateQueueGauges projects a queue snapshot onto the exported gauges
func updateQueueGauges(snap queue.Snapshot) {
	queueSent.Set(float64(snap.Sent))
	queueReceived.Set(float64(snap.Received))
	queueFailed.Set(float64(snap.Failed))
	queueConsumers.Set(float64(snap.Consumers))
}

// monitoringExporter refreshes the queue gauges on a regular basis so
// scrapes observe reasonably current values
func monitoringExporter(ctx context.Context, q *queue.Queue[scheduler.Job], refresh time.Duration) {
	tick := time.NewTicker(refresh)
	defer tick.Stop()

	for {
		select {
		case <-tick.C:
			updateQueueGauges(q.Metrics())
		case <-ctx.Done():
			return
		}
	}
}

// runPrometheus starts the metrics listener when an address is configured
func runPrometheus(ctx context.Context, addr string) {
	if len(addr) == 0 {
		return
	}

	router := http.NewServeMux()
	router.Handle("/metrics", promhttp.Handler())

	h := http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		logger.Info("prometheus listening", "address", h.Addr)
		if errGo := h.ListenAndServe(); errGo != nil && errGo != http.ErrServerClosed {
			logger.Warn("prometheus server stopped", "error", errGo.Error())
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = h.Shutdown(shutdownCtx)
	}()
}
