// Copyright 2023-2024 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/leaf-ai/proctor-go-agent/internal/monitor"
)

func TestVersionEndpoint(t *testing.T) {
	svc := newMonitorService(monitor.New(nil))

	rec := httptest.NewRecorder()
	svc.router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("version returned %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"version":"`+semVer+`"`) {
		t.Fatalf("unexpected version body %s", rec.Body.String())
	}
}

func TestMonitorStatusShape(t *testing.T) {
	svc := newMonitorService(monitor.New(nil))

	rec := httptest.NewRecorder()
	svc.router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status?include_topmost=false", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status returned %d", rec.Code)
	}

	body := statusBody{}
	if errGo := json.Unmarshal(rec.Body.Bytes(), &body); errGo != nil {
		t.Fatal(errGo)
	}
	if body.Platform != monitor.Platform() {
		t.Fatalf("platform %q, want %q", body.Platform, monitor.Platform())
	}
	if _, errGo := time.Parse(time.RFC3339, body.Timestamp); errGo != nil {
		t.Fatalf("timestamp %q is not RFC3339: %v", body.Timestamp, errGo)
	}
	// An empty denylist observes nothing
	if len(body.ForbiddenProcesses) != 0 {
		t.Fatalf("unexpected detections %v", body.ForbiddenProcesses)
	}
	if runtime.GOOS != "darwin" && strings.Contains(rec.Body.String(), "is_siri_active") {
		t.Fatal("siri observation leaked into a non Apple response")
	}
}

func TestMonitorTerminateShape(t *testing.T) {
	svc := newMonitorService(monitor.New(nil))

	rec := httptest.NewRecorder()
	svc.router().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/processes", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("terminate returned %d", rec.Code)
	}
	body := terminateBody{}
	if errGo := json.Unmarshal(rec.Body.Bytes(), &body); errGo != nil {
		t.Fatal(errGo)
	}
	if len(body.FailedToTerminate) != 0 {
		t.Fatalf("empty denylist reported failures %v", body.FailedToTerminate)
	}
}

func TestMonitorMethodDiscipline(t *testing.T) {
	svc := newMonitorService(monitor.New(nil))

	// GET on the termination resource must not kill anything
	rec := httptest.NewRecorder()
	svc.router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/processes", nil))
	if rec.Code == http.StatusOK {
		t.Fatalf("GET /processes was served, returned %d", rec.Code)
	}
}

func TestIncludeTopmostParsing(t *testing.T) {
	for raw, want := range map[string]bool{
		"true":  true,
		"1":     true,
		"false": false,
		"":      false,
		"junk":  false,
	} {
		r := httptest.NewRequest(http.MethodGet, "/status?include_topmost="+raw, nil)
		if got := includeTopmost(r); got != want {
			t.Fatalf("includeTopmost(%q) = %v, want %v", raw, got, want)
		}
	}
}
