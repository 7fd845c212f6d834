// peakabot - A terminal client for the Peaka partner AI agent.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	"github.com/jeranaias/peakabot-tui/internal/cli"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	cli.Version = fmt.Sprintf("peakabot %s (commit %s, built %s)", Version, GitCommit, BuildDate)

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+cli.FormatError(err))
		os.Exit(1)
	}
}
