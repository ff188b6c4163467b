// Copyright 2023-2024 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package main

// semVer is reported by the monitor endpoints version resource so the exam
// client can refuse to pair with an agent that is too old
const semVer = "1.0.3"
