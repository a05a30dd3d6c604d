// Package cas stores launch plans addressed by their content fingerprint.
package cas

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/zerr"
)

// Store implements ports.PlanStore using one JSON file per plan.
type Store struct{}

// NewStore creates a new plan store.
func NewStore() *Store {
	return &Store{}
}

// Get retrieves the plan with the given id below root.
func (s *Store) Get(root, id string) (*domain.LaunchPlan, error) {
	filename, err := s.filename(root, id)
	if err != nil {
		return nil, err
	}

	//nolint:gosec // Path is built from a validated plan id
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrPlanNotFound, "no stored plan with this id"), "id", id), "path", filename)
		}
		return nil, zerr.With(zerr.Wrap(domain.ErrPlanStoreFailed, err.Error()), "path", filename)
	}

	var plan domain.LaunchPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrPlanStoreFailed, "stored plan is corrupt: "+err.Error()),
			"path", filename)
	}
	if plan.ID != id {
		return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrPlanStoreFailed, "stored plan has a different id"),
			"id", id), "path", filename)
	}

	return &plan, nil
}

// Put stores the plan below root.
func (s *Store) Put(root string, plan *domain.LaunchPlan) error {
	filename, err := s.filename(root, plan.ID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return zerr.Wrap(domain.ErrPlanStoreFailed, err.Error())
	}

	if err := os.MkdirAll(filepath.Dir(filename), domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrPlanStoreFailed, err.Error()), "path", filepath.Dir(filename))
	}

	tmp := filename + ".tmp"
	//nolint:gosec // Path is built from a validated plan id
	if err := os.WriteFile(tmp, data, domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrPlanStoreFailed, err.Error()), "path", tmp)
	}
	if err := os.Rename(tmp, filename); err != nil {
		_ = os.Remove(tmp)
		return zerr.With(zerr.Wrap(domain.ErrPlanStoreFailed, err.Error()), "path", filename)
	}

	return nil
}

func (s *Store) filename(root, id string) (string, error) {
	if !validID(id) {
		return "", zerr.With(zerr.Wrap(domain.ErrPlanNotFound, "plan ids are lowercase hex"), "id", id)
	}
	return filepath.Join(root, domain.DefaultPlanStorePath(), id+".json"), nil
}

func validID(id string) bool {
	return id != "" && strings.Trim(id, "0123456789abcdef") == ""
}
