// Copyright 2023-2024 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

//go:build darwin
// +build darwin

package monitor

// Siri presence is an observation only, it is reported to the exam operator
// and never becomes a termination target.

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

const siriBundleID = "com.apple.Siri"

// SiriActive reports whether the Siri overlay appears to be in front of the
// examinee.  The check shells out to lsappinfo, a missing or failing tool
// degrades to a false observation rather than an error.
func SiriActive() (active *bool) {
	result := false
	active = &result

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	out, errGo := exec.CommandContext(ctx, "lsappinfo", "front").Output()
	if errGo != nil {
		return active
	}
	front := strings.TrimSpace(string(out))
	if len(front) == 0 {
		return active
	}

	info, errGo := exec.CommandContext(ctx, "lsappinfo", "info", "-only", "bundleid", front).Output()
	if errGo != nil {
		return active
	}
	result = strings.Contains(string(info), siriBundleID)
	return active
}
