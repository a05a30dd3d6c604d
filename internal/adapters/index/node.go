package index

import (
	"context"
	"os"

	"github.com/grindlemire/graft"
	"go.trai.ch/stagehand/internal/core/ports"
)

// NodeID is the unique identifier for the package index Graft node.
const NodeID graft.ID = "adapter.package_index"

func init() {
	graft.Register(graft.Node[ports.PackageIndex]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.PackageIndex, error) {
			return FromEnv(os.Getenv), nil
		},
	})
}
