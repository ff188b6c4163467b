// Copyright 2023-2024 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package runner

// Every execution attempt owns a scratch directory holding the submitted
// source, any compiler artifacts, and acting as the child's working
// directory.  The path embeds a random component so no two jobs collide and
// an examinee's code cannot predict its own location.

import (
	"os"
	"path/filepath"

	"github.com/rs/xid"

	"github.com/go-stack/stack"
	"github.com/jjeffery/kv" // MIT License
)

// Workspace is the ephemeral directory bound to a single execution attempt
type Workspace struct {
	Dir string
}

// NewWorkspace creates a fresh scratch directory.  Callers must invoke
// Close on every exit path, the runner does so via defer so timeouts and
// panics are covered as well.
func NewWorkspace() (ws *Workspace, err kv.Error) {
	dir, errGo := os.MkdirTemp("", "proctor_"+xid.New().String()+"_")
	if errGo != nil {
		return nil, kv.Wrap(errGo).With("stack", stack.Trace().TrimRuntime())
	}
	return &Workspace{Dir: dir}, nil
}

// WriteSource persists the submitted code under the dispatch records
// canonical file name
func (ws *Workspace) WriteSource(fileName string, code []byte) (err kv.Error) {
	if len(fileName) == 0 {
		return nil
	}
	fn := filepath.Join(ws.Dir, fileName)
	if errGo := os.WriteFile(fn, code, 0600); errGo != nil {
		return kv.Wrap(errGo).With("file", fn).With("stack", stack.Trace().TrimRuntime())
	}
	return nil
}

// Close removes the workspace and everything the child left inside it
func (ws *Workspace) Close() (err kv.Error) {
	if errGo := os.RemoveAll(ws.Dir); errGo != nil {
		return kv.Wrap(errGo).With("dir", ws.Dir).With("stack", stack.Trace().TrimRuntime())
	}
	return nil
}
