// Copyright (c) 2026 Labrador Team
// Labrador - multi-backend data store browser
// This source code is licensed under the MIT license found in the LICENSE file.

// Command labrador discovers local applications and browses their data stores.
//
// Usage:
//
//	labrador apps
//	labrador browse <app> <collection> [flags]
//	labrador serve
//
// See --help for the full command list.
package main

import (
	"os"

	"github.com/toeirei/labrador/ui/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
