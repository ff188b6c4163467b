// Copyright 2023-2024 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package runner

import (
	"context"
	"os"
	"runtime"
	"strings"
	"testing"

	"github.com/leaf-ai/proctor-go-agent/internal/request"
	"github.com/leaf-ai/proctor-go-agent/internal/toolchain"
)

// shellTable builds synthetic dispatch records running through sh so the
// engine can be exercised without any exam toolchains installed
func shellTable() map[string]toolchain.Dispatch {
	return map[string]toolchain.Dispatch{
		"cat": {
			Key: "cat", DisplayName: "Cat", FileName: "main.txt",
			Run: "cat",
		},
		"failing": {
			Key: "failing", DisplayName: "Failing", FileName: "main.txt",
			Run: "sh", RunArgs: []string{"-c", "echo oops >&2; exit 3"},
		},
		"sleeper": {
			Key: "sleeper", DisplayName: "Sleeper", FileName: "main.txt",
			Run: "sh", RunArgs: []string{"-c", "sleep 30"},
		},
		"selfkill": {
			Key: "selfkill", DisplayName: "Selfkill", FileName: "main.txt",
			Run: "sh", RunArgs: []string{"-c", "kill -9 $$"},
		},
		"broken": {
			Key: "broken", DisplayName: "Broken", FileName: "main.c",
			Compile: "sh", CompileArgs: []string{"-c", "echo undeclared identifier >&2; exit 1"},
			Run: "sh", RunArgs: []string{"-c", "true"},
		},
		"built": {
			Key: "built", DisplayName: "Built", FileName: "main.c",
			Compile: "sh", CompileArgs: []string{"-c", "printf '#!/bin/sh\\necho built-output\\n' > main && chmod +x main"},
			Run: "./main",
		},
	}
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell fixtures assume a POSIX host")
	}
}

func expected(s string) *string   { return &s }
func timeoutMS(ms uint64) *uint64 { return &ms }

func TestExecuteEcho(t *testing.T) {
	skipOnWindows(t)
	r := New(shellTable())

	resp, err := r.Execute(context.Background(), &request.Execute{
		Language: "cat",
		Code:     "ignored",
		TestCases: []request.TestCase{
			{ID: 1, Input: "5\n10\n", Expected: expected("5\n10\n")},
			{ID: 2, Input: "second", Expected: expected("second")},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	if resp.Status != request.StatusSuccess || len(resp.Results) != 2 {
		t.Fatalf("unexpected response %+v", resp)
	}
	for i, result := range resp.Results {
		if !result.Ok || !result.Passed || result.TimedOut {
			t.Fatalf("case %d verdict wrong %+v", i, result)
		}
		if result.ExitCode == nil || *result.ExitCode != 0 {
			t.Fatalf("case %d exit code wrong %+v", i, result)
		}
	}
	if resp.Results[0].ID != 1 || resp.Results[1].ID != 2 {
		t.Fatal("case results reported out of submission order")
	}
}

// TestExecuteByteExact covers the no-normalisation rule, a missing trailing
// newline must fail the case even though a trimmed comparison would pass
func TestExecuteByteExact(t *testing.T) {
	skipOnWindows(t)
	r := New(shellTable())

	resp, err := r.Execute(context.Background(), &request.Execute{
		Language: "cat",
		TestCases: []request.TestCase{
			{ID: 1, Input: "15", Expected: expected("15\n")},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	result := resp.Results[0]
	if !result.Ok || result.Passed {
		t.Fatalf("trailing newline was normalised %+v", result)
	}
}

func TestExecuteNoExpectedNeverPasses(t *testing.T) {
	skipOnWindows(t)
	r := New(shellTable())

	resp, err := r.Execute(context.Background(), &request.Execute{
		Language:  "cat",
		TestCases: []request.TestCase{{ID: 1, Input: "anything"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Results[0].Passed {
		t.Fatal("a case without expected output reported passed")
	}
	if !resp.Results[0].Ok {
		t.Fatal("clean exit not reported ok")
	}
}

func TestExecuteNonZeroExit(t *testing.T) {
	skipOnWindows(t)
	r := New(shellTable())

	resp, err := r.Execute(context.Background(), &request.Execute{
		Language:  "failing",
		TestCases: []request.TestCase{{ID: 7, Input: ""}},
	})
	if err != nil {
		t.Fatal(err)
	}

	// A runtime failure is an ordinary verdict, the job itself succeeds
	if resp.Status != request.StatusSuccess {
		t.Fatalf("job status %v", resp.Status)
	}
	result := resp.Results[0]
	if result.Ok || result.TimedOut {
		t.Fatalf("verdict wrong %+v", result)
	}
	if result.ExitCode == nil || *result.ExitCode != 3 {
		t.Fatalf("exit code not captured %+v", result)
	}
	if !strings.Contains(result.Stderr, "oops") {
		t.Fatalf("stderr not captured %q", result.Stderr)
	}
}

func TestExecuteTimeout(t *testing.T) {
	skipOnWindows(t)
	r := New(shellTable())

	resp, err := r.Execute(context.Background(), &request.Execute{
		Language:  "sleeper",
		TestCases: []request.TestCase{{ID: 1, Input: "", TimeoutMS: timeoutMS(200)}},
	})
	if err != nil {
		t.Fatal(err)
	}

	result := resp.Results[0]
	if !result.TimedOut || result.Ok || result.Passed {
		t.Fatalf("timeout verdict wrong %+v", result)
	}
	if result.DurationMS < 200 {
		t.Fatalf("clock stopped early at %dms", result.DurationMS)
	}
	if result.DurationMS > 5000 {
		t.Fatalf("kill or reap took unreasonably long, %dms", result.DurationMS)
	}
}

func TestExecuteSignalDeath(t *testing.T) {
	skipOnWindows(t)
	r := New(shellTable())

	resp, err := r.Execute(context.Background(), &request.Execute{
		Language:  "selfkill",
		TestCases: []request.TestCase{{ID: 1, Input: ""}},
	})
	if err != nil {
		t.Fatal(err)
	}
	result := resp.Results[0]
	if result.Ok {
		t.Fatal("signal death reported ok")
	}
	if result.TermSignal == nil || *result.TermSignal != 9 {
		t.Fatalf("terminating signal not captured %+v", result)
	}
}

func TestExecuteCompileError(t *testing.T) {
	skipOnWindows(t)
	r := New(shellTable())

	resp, err := r.Execute(context.Background(), &request.Execute{
		Language:  "broken",
		Code:      "int main(){ retrn 0; }",
		TestCases: []request.TestCase{{ID: 1, Input: ""}},
	})
	if err != nil {
		t.Fatal(err)
	}

	if resp.Compiled || resp.Status != request.StatusCompileError {
		t.Fatalf("compile failure not reported %+v", resp)
	}
	if resp.Message == nil || !strings.Contains(*resp.Message, "undeclared") {
		t.Fatalf("compiler stderr not surfaced %+v", resp.Message)
	}
	if len(resp.Results) != 0 {
		t.Fatal("cases ran despite a failed compile")
	}
}

func TestExecuteCompiledArtifact(t *testing.T) {
	skipOnWindows(t)
	r := New(shellTable())

	resp, err := r.Execute(context.Background(), &request.Execute{
		Language:  "built",
		Code:      "placeholder",
		TestCases: []request.TestCase{{ID: 1, Input: "", Expected: expected("built-output\n")}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Compiled || resp.Status != request.StatusSuccess {
		t.Fatalf("compile step not recorded %+v", resp)
	}
	if !resp.Results[0].Passed {
		t.Fatalf("artifact did not run %+v", resp.Results[0])
	}
}

func TestExecuteUnsupportedLanguage(t *testing.T) {
	r := New(shellTable())

	resp, err := r.Execute(context.Background(), &request.Execute{Language: "brainfuck"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Status != request.StatusUnsupportedLanguage || resp.Compiled {
		t.Fatalf("unexpected verdict %+v", resp)
	}
}

func TestWorkspaceLifecycle(t *testing.T) {
	ws, err := NewWorkspace()
	if err != nil {
		t.Fatal(err)
	}

	if err = ws.WriteSource("main.py", []byte("print('x')")); err != nil {
		t.Fatal(err)
	}
	if _, errGo := os.Stat(ws.Dir); errGo != nil {
		t.Fatal(errGo)
	}

	if err = ws.Close(); err != nil {
		t.Fatal(err)
	}
	if _, errGo := os.Stat(ws.Dir); !os.IsNotExist(errGo) {
		t.Fatal("workspace survived Close")
	}
}

func TestWorkspaceDisjoint(t *testing.T) {
	a, err := NewWorkspace()
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	b, err := NewWorkspace()
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	if a.Dir == b.Dir {
		t.Fatal("two workspaces shared a directory")
	}
}

// TestExecutePython3Addition is the end to end sanity check against a real
// interpreter, skipped on hosts without python3
func TestExecutePython3Addition(t *testing.T) {
	skipOnWindows(t)
	table := toolchain.Table()
	installed := toolchain.Probe(context.Background(), map[string]toolchain.Dispatch{"python3": table["python3"]})
	if len(installed) == 0 {
		t.Skip("python3 is not installed on this host")
	}

	r := New(table)
	resp, err := r.Execute(context.Background(), &request.Execute{
		Language: "python3",
		Code:     "a=int(input()); b=int(input()); print(a+b)",
		TestCases: []request.TestCase{
			{ID: 1, Input: "5\n10\n", Expected: expected("15\n")},
			{ID: 2, Input: "3\n7\n", Expected: expected("10\n")},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Compiled || len(resp.Results) != 2 {
		t.Fatalf("unexpected response %+v", resp)
	}
	for _, result := range resp.Results {
		if !result.Passed || !result.Ok {
			t.Fatalf("python3 verdict wrong %+v", result)
		}
	}
}
