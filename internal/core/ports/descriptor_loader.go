package ports

import "go.trai.ch/stagehand/internal/core/domain"

// DescriptorLoader defines the interface for reading launch descriptors.
//
//go:generate mockgen -source=descriptor_loader.go -destination=mocks/mock_descriptor_loader.go -package=mocks
type DescriptorLoader interface {
	// Load parses the descriptor at path. The returned descriptor's Source is the canonical path.
	Load(path string) (*domain.Descriptor, error)
}
