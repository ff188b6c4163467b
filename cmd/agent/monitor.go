// Copyright 2023-2024 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package main

// This file contains the HTTP surface for the monitor endpoint together
// with the background sweep that keeps an eye on the host between polls
// from the exam client.

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/lthibault/jitterbug"

	"github.com/leaf-ai/proctor-go-agent/internal/monitor"
)

type monitorService struct {
	mon *monitor.Monitor
}

// statusBody is the wire form of a detection sweep, the Siri member is
// only populated on hosts able to observe it
type statusBody struct {
	Timestamp          string   `json:"timestamp"`
	Platform           string   `json:"platform"`
	ForbiddenProcesses []string `json:"forbidden_processes"`
	IsSiriActive       *bool    `json:"is_siri_active,omitempty"`
}

type terminateBody struct {
	Timestamp         string   `json:"timestamp"`
	Platform          string   `json:"platform"`
	FailedToTerminate []string `json:"failed_to_terminate"`
}

func newMonitorService(mon *monitor.Monitor) (svc *monitorService) {
	return &monitorService{mon: mon}
}

func (svc *monitorService) router() (r *mux.Router) {
	r = mux.NewRouter()
	r.HandleFunc("/status", svc.status).Methods(http.MethodGet)
	r.HandleFunc("/processes", svc.terminate).Methods(http.MethodDelete)
	r.HandleFunc("/version", svc.version).Methods(http.MethodGet)
	return r
}

func includeTopmost(r *http.Request) bool {
	topmost, errGo := strconv.ParseBool(r.URL.Query().Get("include_topmost"))
	if errGo != nil {
		return false
	}
	return topmost
}

func (svc *monitorService) status(w http.ResponseWriter, r *http.Request) {
	detected := svc.mon.Detect(includeTopmost(r))

	writeJSON(w, http.StatusOK, statusBody{
		Timestamp:          time.Now().UTC().Format(time.RFC3339),
		Platform:           monitor.Platform(),
		ForbiddenProcesses: detected,
		IsSiriActive:       monitor.SiriActive(),
	})
}

func (svc *monitorService) terminate(w http.ResponseWriter, r *http.Request) {
	failed := svc.mon.Terminate()

	writeJSON(w, http.StatusOK, terminateBody{
		Timestamp:         time.Now().UTC().Format(time.RFC3339),
		Platform:          monitor.Platform(),
		FailedToTerminate: failed,
	})
}

func (svc *monitorService) version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": semVer})
}

// sweep periodically re-runs detection so forbidden applications opened
// between exam client polls still land in the agent log.  The ticker is
// jittered to avoid examinees timing their way around the scan.
func sweep(ctx context.Context, mon *monitor.Monitor, period time.Duration) {
	t := jitterbug.New(period, &jitterbug.Norm{Stdev: period / 10})
	defer t.Stop()

	lastSeen := ""
	for {
		select {
		case <-t.C:
			detected := mon.Detect(true)
			forbiddenSeen.Set(float64(len(detected)))
			msg := ""
			for _, name := range detected {
				msg += name + " "
			}
			if msg != lastSeen {
				lastSeen = msg
				if len(detected) != 0 {
					logger.Warn("forbidden applications observed", "names", msg)
				} else {
					logger.Info("host clean")
				}
			}
		case <-ctx.Done():
			return
		}
	}
}
