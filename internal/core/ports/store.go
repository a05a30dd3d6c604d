package ports

import "go.trai.ch/stagehand/internal/core/domain"

// PlanStore defines the interface for storing and retrieving launch plans.
//
//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type PlanStore interface {
	// Get retrieves the plan with the given id below root.
	// Returns domain.ErrPlanNotFound if there is none.
	Get(root, id string) (*domain.LaunchPlan, error)

	// Put stores the plan below root.
	Put(root string, plan *domain.LaunchPlan) error
}
