// Copyright 2023-2024 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package proctor

// This file contains the implementation of a logger that adorns the logxi package with
// host identification so that log aggregation across exam workstations remains possible

import (
	"os"
	"strconv"
	"sync"

	logxi "github.com/karlmutch/logxi/v1"
)

var (
	hostName string
	hostPid  string
)

func init() {
	hostName, _ = os.Hostname()
	hostPid = strconv.Itoa(os.Getpid())
}

// Logger encapsulates the logging device used to emit structured records and
// acts as the receiver carrying the logging methods
type Logger struct {
	log logxi.Logger
	sync.Mutex
}

// NewLogger instantiates a wrapped logger labelled with a component name.  Level
// thresholds are inherited from the LOGXI environment variables.
func NewLogger(component string) (log *Logger) {
	logxi.DisableCallstack()

	return &Logger{
		log: logxi.New(component),
	}
}

func (l *Logger) adorn(args []interface{}) (allArgs []interface{}) {
	allArgs = append([]interface{}{}, args...)
	allArgs = append(allArgs, "host", hostName, "pid", hostPid)
	return allArgs
}

// Trace is a method for output of trace level messages
func (l *Logger) Trace(msg string, args ...interface{}) {
	l.Lock()
	defer l.Unlock()
	l.log.Trace(msg, l.adorn(args))
}

// Debug is a method for output of debugging level messages
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.Lock()
	defer l.Unlock()
	l.log.Debug(msg, l.adorn(args))
}

// Info is a method for output of informational level messages
func (l *Logger) Info(msg string, args ...interface{}) {
	l.Lock()
	defer l.Unlock()
	l.log.Info(msg, l.adorn(args))
}

// Warn is a method for output of warning level messages
func (l *Logger) Warn(msg string, args ...interface{}) error {
	l.Lock()
	defer l.Unlock()
	return l.log.Warn(msg, l.adorn(args))
}

// Error is a method for output of error level messages
func (l *Logger) Error(msg string, args ...interface{}) error {
	l.Lock()
	defer l.Unlock()
	return l.log.Error(msg, l.adorn(args))
}

// Fatal is a method for output of fatal level messages, the process will
// be stopped by the underlying logging package after the message is emitted
func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.Lock()
	defer l.Unlock()
	l.log.Fatal(msg, l.adorn(args))
}

// SetLevel sets the threshold for the level of messages the logger will emit
func (l *Logger) SetLevel(lvl int) {
	l.Lock()
	defer l.Unlock()
	l.log.SetLevel(lvl)
}

// IsDebug returns true when the threshold logging level allows debugging
// messages to appear in the output
func (l *Logger) IsDebug() bool {
	l.Lock()
	defer l.Unlock()
	return l.log.IsDebug()
}

// IsTrace returns true when the threshold logging level allows trace
// messages to appear in the output
func (l *Logger) IsTrace() bool {
	l.Lock()
	defer l.Unlock()
	return l.log.IsTrace()
}
