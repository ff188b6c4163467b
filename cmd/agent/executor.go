// Copyright 2023-2024 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package main

// This file contains the HTTP surface for the execution endpoint.  The
// handlers translate between the exam clients JSON wire format and the
// queue, registry and runner subsystems, admission control happens here.

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/leaf-ai/proctor-go-agent/internal/queue"
	"github.com/leaf-ai/proctor-go-agent/internal/registry"
	"github.com/leaf-ai/proctor-go-agent/internal/request"
	"github.com/leaf-ai/proctor-go-agent/internal/scheduler"
	"github.com/leaf-ai/proctor-go-agent/internal/toolchain"
)

type executorService struct {
	languages []request.LanguageInfo
	available map[string]struct{}
	jobs      *registry.Jobs
	producer  *queue.Producer[scheduler.Job]
}

func newExecutorService(installed []toolchain.Installed, jobs *registry.Jobs, producer *queue.Producer[scheduler.Job]) (svc *executorService) {
	svc = &executorService{
		languages: make([]request.LanguageInfo, 0, len(installed)),
		available: make(map[string]struct{}, len(installed)),
		jobs:      jobs,
		producer:  producer,
	}
	for _, lang := range installed {
		svc.languages = append(svc.languages, request.LanguageInfo{
			DisplayName: lang.DisplayName,
			Language:    lang.Key,
		})
		svc.available[lang.Key] = struct{}{}
	}
	return svc
}

func (svc *executorService) router() (r *mux.Router) {
	r = mux.NewRouter()
	r.HandleFunc("/health", svc.health).Methods(http.MethodGet)
	r.HandleFunc("/languages", svc.listLanguages).Methods(http.MethodGet)
	r.HandleFunc("/execute", svc.execute).Methods(http.MethodPost)
	r.HandleFunc("/status/{id}", svc.status).Methods(http.MethodGet)
	return r
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func (svc *executorService) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (svc *executorService) listLanguages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, svc.languages)
}

func (svc *executorService) execute(w http.ResponseWriter, r *http.Request) {
	req := &request.Execute{}
	if errGo := json.NewDecoder(r.Body).Decode(req); errGo != nil {
		writeError(w, http.StatusBadRequest, "Malformed request: "+errGo.Error())
		return
	}

	if _, isPresent := svc.available[req.Language]; !isPresent {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unsupported or unavailable language: %s", req.Language))
		return
	}

	id := svc.jobs.Admit()
	if err := svc.producer.Send(scheduler.Job{ID: id, Req: req}, "execute"); err != nil {
		// The submission never reached a band so the record is withdrawn
		// rather than leaving a permanently queued ghost
		svc.jobs.Discard(id)
		logger.Warn("enqueue failed", "id", id, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "Failed to enqueue job")
		return
	}

	jobsSubmitted.Inc()
	writeJSON(w, http.StatusAccepted, map[string]uint64{"id": id})
}

func (svc *executorService) status(w http.ResponseWriter, r *http.Request) {
	id, errGo := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if errGo != nil {
		writeError(w, http.StatusNotFound, "Job not found")
		return
	}

	state, isPresent := svc.jobs.Get(id)
	if !isPresent {
		writeError(w, http.StatusNotFound, "Job not found")
		return
	}

	switch state.Phase {
	case registry.PhaseQueued:
		writeJSON(w, http.StatusOK, map[string]string{"status": "queued"})
	case registry.PhaseRunning:
		writeJSON(w, http.StatusOK, map[string]string{"status": "running"})
	case registry.PhaseCompleted:
		writeJSON(w, http.StatusOK, struct {
			Status string                   `json:"status"`
			Result *request.ExecuteResponse `json:"result"`
		}{Status: "completed", Result: state.Result})
	case registry.PhaseError:
		writeJSON(w, http.StatusOK, struct {
			Status string `json:"status"`
			Error  string `json:"error"`
		}{Status: "error", Error: state.Reason})
	}
}
