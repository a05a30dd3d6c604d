package ports

import (
	"context"

	"go.trai.ch/stagehand/internal/core/domain"
)

// Supervisor defines the interface for running a launch plan.
//
//go:generate mockgen -source=supervisor.go -destination=mocks/mock_supervisor.go -package=mocks
type Supervisor interface {
	// Run starts the processes in plan order and blocks until they all exit,
	// one fails, or ctx is cancelled.
	Run(ctx context.Context, plan *domain.LaunchPlan) error
}
