// Copyright 2023-2024 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package request

// This file contains the implementation of a message parser for execution
// requests arriving from the browser based exam client formatted using JSON.
//
// To parse and unparse this JSON data use the following ...
//
//    r, err := UnmarshalExecute(bytes)
//    bytes, err = r.Marshal()

import (
	"encoding/json"

	"github.com/go-stack/stack"
	"github.com/jjeffery/kv" // MIT License
)

// Status is the overall outcome tag attached to an ExecuteResponse.  Only
// StatusSuccess, StatusCompileError and StatusUnsupportedLanguage are produced
// by the runner, the remaining values are reserved for the wire protocol.
type Status string

const (
	StatusSuccess             Status = "success"
	StatusError               Status = "error"
	StatusTimeout             Status = "timeout"
	StatusCompileError        Status = "compile_error"
	StatusRuntimeError        Status = "runtime_error"
	StatusUnsupportedLanguage Status = "unsupported_language"
)

// DefaultTimeoutMS is applied to any test case that does not carry its own budget
const DefaultTimeoutMS = uint64(5000)

// TestCase carries a single stdin payload together with the output the exam
// author expects the submitted program to produce for it
type TestCase struct {
	ID        int     `json:"id"`
	Input     string  `json:"input"`
	Expected  *string `json:"expected,omitempty"`
	TimeoutMS *uint64 `json:"timeout_ms,omitempty"`
}

// Timeout returns the per case wall clock budget in milliseconds applying
// the protocol default when the exam author did not set one
func (tc *TestCase) Timeout() (ms uint64) {
	if tc.TimeoutMS == nil || *tc.TimeoutMS == 0 {
		return DefaultTimeoutMS
	}
	return *tc.TimeoutMS
}

// Execute marshalls a code submission together with the batch of test
// cases it is to be judged against
type Execute struct {
	Language  string     `json:"language"`
	Code      string     `json:"code"`
	TestCases []TestCase `json:"testcases"`
}

// UnmarshalExecute parses a JSON submission into an Execute request
func UnmarshalExecute(data []byte) (req *Execute, err kv.Error) {
	req = &Execute{}
	if errGo := json.Unmarshal(data, req); errGo != nil {
		return nil, kv.Wrap(errGo).With("stack", stack.Trace().TrimRuntime())
	}
	return req, nil
}

// Marshal renders the request back into its JSON wire form
func (req *Execute) Marshal() (data []byte, err kv.Error) {
	data, errGo := json.Marshal(req)
	if errGo != nil {
		return nil, kv.Wrap(errGo).With("stack", stack.Trace().TrimRuntime())
	}
	return data, nil
}

// CaseResult is the verdict for one test case.  Ok records a clean exit
// inside the budget, Passed records byte exact agreement between the child's
// stdout and the expected output.  MemoryKB is reserved and always zero.
type CaseResult struct {
	ID         int     `json:"id"`
	Ok         bool    `json:"ok"`
	Passed     bool    `json:"passed"`
	Input      string  `json:"input"`
	Expected   *string `json:"expected,omitempty"`
	Stdout     string  `json:"stdout"`
	Stderr     string  `json:"stderr"`
	TimedOut   bool    `json:"timed_out"`
	DurationMS uint64  `json:"duration_ms"`
	MemoryKB   uint64  `json:"memory_kb"`
	ExitCode   *int    `json:"exit_code,omitempty"`
	TermSignal *int    `json:"term_signal,omitempty"`
}

// ExecuteResponse aggregates the compile outcome and the per case verdicts
// for one submission
type ExecuteResponse struct {
	Compiled        bool         `json:"compiled"`
	Language        string       `json:"language"`
	Status          Status       `json:"status,omitempty"`
	Message         *string      `json:"message,omitempty"`
	Results         []CaseResult `json:"results,omitempty"`
	TotalDurationMS uint64       `json:"total_duration_ms"`
}

// Marshal renders the response into its JSON wire form
func (resp *ExecuteResponse) Marshal() (data []byte, err kv.Error) {
	data, errGo := json.Marshal(resp)
	if errGo != nil {
		return nil, kv.Wrap(errGo).With("stack", stack.Trace().TrimRuntime())
	}
	return data, nil
}

// LanguageInfo summarises one installed toolchain for the GET /languages listing
type LanguageInfo struct {
	DisplayName string `json:"display_name"`
	Language    string `json:"language"`
}
