package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/stagehand/internal/adapters/cas"       //nolint:depguard // Wired in app layer
	"go.trai.ch/stagehand/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/stagehand/internal/adapters/index"     //nolint:depguard // Wired in app layer
	"go.trai.ch/stagehand/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/stagehand/internal/adapters/shell"     //nolint:depguard // Wired in app layer
	"go.trai.ch/stagehand/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/stagehand/internal/adapters/watcher"   //nolint:depguard // Wired in app layer
	"go.trai.ch/stagehand/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components contains all the initialized application components.
// This struct provides controlled access to components needed by the CLI layer.
type Components struct {
	App    *App
	Logger ports.Logger
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			index.NodeID,
			cas.NodeID,
			shell.NodeID,
			telemetry.TracerNodeID,
			logger.NodeID,
			watcher.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: app, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.DescriptorLoader](ctx)
	if err != nil {
		return nil, err
	}
	idx, err := graft.Dep[ports.PackageIndex](ctx)
	if err != nil {
		return nil, err
	}
	store, err := graft.Dep[ports.PlanStore](ctx)
	if err != nil {
		return nil, err
	}
	supervisor, err := graft.Dep[ports.Supervisor](ctx)
	if err != nil {
		return nil, err
	}
	tracer, err := graft.Dep[ports.Tracer](ctx)
	if err != nil {
		return nil, err
	}
	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}
	watchers, err := graft.Dep[watcher.Factory](ctx)
	if err != nil {
		return nil, err
	}
	return New(loader, idx, store, supervisor, tracer, log, watchers), nil
}
