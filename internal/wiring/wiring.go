// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/stagehand/internal/adapters/cas"
	_ "go.trai.ch/stagehand/internal/adapters/config"
	_ "go.trai.ch/stagehand/internal/adapters/index"
	_ "go.trai.ch/stagehand/internal/adapters/logger"
	_ "go.trai.ch/stagehand/internal/adapters/shell"
	_ "go.trai.ch/stagehand/internal/adapters/telemetry"
	_ "go.trai.ch/stagehand/internal/adapters/watcher"
	// Register app nodes.
	_ "go.trai.ch/stagehand/internal/app"
)
