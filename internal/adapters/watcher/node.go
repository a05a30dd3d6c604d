package watcher

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/stagehand/internal/adapters/logger"
	"go.trai.ch/stagehand/internal/core/ports"
)

// NodeID is the unique identifier for the descriptor watcher Graft node.
const NodeID graft.ID = "adapter.watcher"

// Factory creates a fresh watcher for each watch session.
type Factory func() (ports.Watcher, error)

func init() {
	graft.Register(graft.Node[Factory]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (Factory, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return func() (ports.Watcher, error) {
				return New(log)
			}, nil
		},
	})
}
