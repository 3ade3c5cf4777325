// Copyright (c) 2026 Labrador Team
// Labrador - multi-backend data store browser
// This source code is licensed under the MIT license found in the LICENSE file.
//
// Package cli implements the command-line interface for Labrador using Cobra.
// It loads configuration, opens the session store and hands discovery and
// browsing to the app, conn and server packages. CLI code stays thin.
package cli
