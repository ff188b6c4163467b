// Copyright 2023-2024 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package runner

// This file contains the sandboxed execution engine.  One call to Execute
// takes a submission through workspace materialisation, the optional compile
// step, and the sequential per test case run loop, producing the structured
// verdict the exam client polls for.

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/karlmutch/circbuf"

	"github.com/go-stack/stack"
	"github.com/jjeffery/kv" // MIT License

	"github.com/leaf-ai/proctor-go-agent/internal/request"
	"github.com/leaf-ai/proctor-go-agent/internal/toolchain"
)

// maxCaptureBytes caps the retained portion of each child output stream so a
// submission printing in a tight loop cannot exhaust agent memory.  The ring
// keeps the most recent bytes which is where compiler diagnostics and the
// tail of runaway output live.
const maxCaptureBytes = int64(1024 * 1024)

// Runner executes submissions against the dispatch table it was built with
type Runner struct {
	table map[string]toolchain.Dispatch
}

// New constructs a runner over an immutable dispatch table
func New(table map[string]toolchain.Dispatch) (r *Runner) {
	return &Runner{table: table}
}

// Execute runs one submission to a verdict.  Per case runtime failures are
// ordinary results, only framework conditions such as a failed workspace or
// spawn surface as an error return.
func (r *Runner) Execute(ctx context.Context, req *request.Execute) (resp *request.ExecuteResponse, err kv.Error) {
	dispatch, isPresent := r.table[req.Language]
	if !isPresent {
		return &request.ExecuteResponse{
			Compiled: false,
			Language: req.Language,
			Status:   request.StatusUnsupportedLanguage,
		}, nil
	}

	ws, err := NewWorkspace()
	if err != nil {
		return nil, err
	}
	defer ws.Close()

	if err = ws.WriteSource(dispatch.FileName, []byte(req.Code)); err != nil {
		return nil, err
	}

	// A submission with no compile step counts as compiled for the verdict
	compiled := len(dispatch.Compile) == 0
	if !compiled {
		stderr, compileErr, err := r.compile(ctx, dispatch, ws.Dir)
		if err != nil {
			return nil, err
		}
		if compileErr {
			message := stderr
			return &request.ExecuteResponse{
				Compiled: false,
				Language: req.Language,
				Status:   request.StatusCompileError,
				Message:  &message,
			}, nil
		}
		compiled = true
	}

	resp = &request.ExecuteResponse{
		Compiled: compiled,
		Language: req.Language,
		Status:   request.StatusSuccess,
		Results:  make([]request.CaseResult, 0, len(req.TestCases)),
	}

	// Cases run strictly in order, they may share the compiler output and
	// their verdicts are reported in submission order
	for i := range req.TestCases {
		result, err := r.runCase(dispatch, ws.Dir, &req.TestCases[i])
		if err != nil {
			return nil, err
		}
		resp.Results = append(resp.Results, result)
		resp.TotalDurationMS += result.DurationMS
	}

	return resp, nil
}

// compile runs the dispatch records compile step inside the workspace.  A
// non zero exit is an examinee problem reported through the response, any
// other failure is a framework error.
func (r *Runner) compile(ctx context.Context, dispatch toolchain.Dispatch, dir string) (stderr string, compileErr bool, err kv.Error) {
	cmd := newCommand(dispatch.Compile, dispatch.CompileArgs, dir)

	errBuf := &bytes.Buffer{}
	cmd.Stderr = errBuf

	if errGo := cmd.Run(); errGo != nil {
		if _, isExit := errGo.(*exec.ExitError); isExit {
			return errBuf.String(), true, nil
		}
		select {
		case <-ctx.Done():
			return "", false, kv.Wrap(ctx.Err()).With("compiler", dispatch.Compile).With("stack", stack.Trace().TrimRuntime())
		default:
		}
		return "", false, kv.Wrap(errGo).With("compiler", dispatch.Compile).With("stack", stack.Trace().TrimRuntime())
	}
	return "", false, nil
}

// runCase executes the run program once for a single test case, enforcing
// the cases wall clock budget and capturing both output streams
func (r *Runner) runCase(dispatch toolchain.Dispatch, dir string, tc *request.TestCase) (result request.CaseResult, err kv.Error) {
	result = request.CaseResult{
		ID:       tc.ID,
		Input:    tc.Input,
		Expected: tc.Expected,
	}

	cmd := newCommand(dispatch.Run, dispatch.RunArgs, dir)

	stdin, errGo := cmd.StdinPipe()
	if errGo != nil {
		return result, kv.Wrap(errGo).With("stack", stack.Trace().TrimRuntime())
	}
	stdout, errGo := cmd.StdoutPipe()
	if errGo != nil {
		return result, kv.Wrap(errGo).With("stack", stack.Trace().TrimRuntime())
	}
	stderr, errGo := cmd.StderrPipe()
	if errGo != nil {
		return result, kv.Wrap(errGo).With("stack", stack.Trace().TrimRuntime())
	}

	if errGo = cmd.Start(); errGo != nil {
		return result, kv.Wrap(errGo).With("program", dispatch.Run).With("stack", stack.Trace().TrimRuntime())
	}

	clock := time.Now()

	// The entire input is delivered followed by EOF, children reading past
	// the payload observe a closed stream rather than a hang
	go func() {
		_, _ = io.WriteString(stdin, tc.Input)
		_ = stdin.Close()
	}()

	// Both streams are drained concurrently into bounded rings, otherwise a
	// child writing more than a pipes worth before exit would deadlock
	outRing, _ := circbuf.NewBuffer(maxCaptureBytes)
	errRing, _ := circbuf.NewBuffer(maxCaptureBytes)

	drained := sync.WaitGroup{}
	drained.Add(2)
	go func() {
		defer drained.Done()
		_, _ = io.Copy(outRing, stdout)
	}()
	go func() {
		defer drained.Done()
		_, _ = io.Copy(errRing, stderr)
	}()

	// Wait must not be entered until the pipe readers are finished
	waitC := make(chan error, 1)
	go func() {
		drained.Wait()
		waitC <- cmd.Wait()
	}()

	budget := time.Duration(tc.Timeout()) * time.Millisecond
	expired := time.NewTimer(budget)
	defer expired.Stop()

	var waitErr error
	select {
	case waitErr = <-waitC:
	case <-expired.C:
		result.TimedOut = true
		// Best effort kill, the reap below is what frees the pid
		_ = cmd.Process.Kill()
		waitErr = <-waitC
	}

	result.DurationMS = uint64(time.Since(clock).Milliseconds())
	result.Stdout = string(outRing.Bytes())
	result.Stderr = string(errRing.Bytes())

	if state := cmd.ProcessState; state != nil {
		if code := state.ExitCode(); code >= 0 {
			result.ExitCode = &code
		}
		result.TermSignal = termSignal(state)
	}

	exitedCleanly := waitErr == nil
	result.Ok = exitedCleanly && !result.TimedOut

	// Byte exact comparison, no trimming and no newline normalisation
	if tc.Expected != nil {
		result.Passed = result.Stdout == *tc.Expected
	}

	return result, nil
}
