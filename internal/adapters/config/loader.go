// Package config reads launch descriptors in YAML and HCL form.
package config

import (
	"bytes"
	"cmp"
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Format is a descriptor syntax.
type Format string

const (
	// FormatYAML selects the YAML descriptor syntax.
	FormatYAML Format = "yaml"
	// FormatHCL selects the HCL descriptor syntax.
	FormatHCL Format = "hcl"
)

// DetectFormat picks the descriptor format from the file extension.
func DetectFormat(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".hcl":
		return FormatHCL, true
	default:
		return "", false
	}
}

// Loader implements ports.DescriptorLoader.
type Loader struct {
	fs     FileSystem
	logger ports.Logger
}

// NewLoader creates a new Loader reading through fsys.
func NewLoader(fsys FileSystem, logger ports.Logger) *Loader {
	return &Loader{fs: fsys, logger: logger}
}

// Load reads and parses the descriptor at path.
func (l *Loader) Load(path string) (*domain.Descriptor, error) {
	format, ok := DetectFormat(path)
	if !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrUnsupportedDescriptor, "expected a .yaml, .yml or .hcl file"),
			"path", path)
	}

	canonical, err := l.fs.Canonical(path)
	if err != nil {
		return nil, notFoundOrRead(err, path)
	}

	data, err := l.fs.ReadFile(canonical)
	if err != nil {
		return nil, notFoundOrRead(err, canonical)
	}

	var desc *domain.Descriptor
	switch format {
	case FormatHCL:
		desc, err = decodeHCL(data, canonical)
	default:
		desc, err = decodeYAML(data, canonical)
	}
	if err != nil {
		return nil, err
	}

	desc.Source = canonical
	if len(desc.Arguments) == 0 && len(desc.Nodes) == 0 && len(desc.Includes) == 0 && l.logger != nil {
		l.logger.Warn("launch descriptor " + canonical + " declares nothing")
	}
	return desc, nil
}

func notFoundOrRead(err error, path string) error {
	if errors.Is(err, fs.ErrNotExist) {
		return zerr.With(zerr.Wrap(domain.ErrDescriptorNotFound, err.Error()), "path", path)
	}
	return zerr.With(zerr.Wrap(domain.ErrDescriptorReadFailed, err.Error()), "path", path)
}

func decodeYAML(data []byte, path string) (*domain.Descriptor, error) {
	var file LaunchFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, parseError(err, path)
	}

	desc := &domain.Descriptor{}
	for i, a := range file.Arguments {
		if a.Name == "" {
			return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrDescriptorParseFailed, "argument without name"),
				"path", path), "index", i)
		}
		desc.Arguments = append(desc.Arguments, domain.Argument{
			Name:        a.Name,
			Default:     a.Default,
			Description: a.Description,
		})
	}

	for i, n := range file.Nodes {
		spec := domain.NodeSpec{
			Package:    n.Package,
			Executable: n.Executable,
			Namespace:  n.Namespace,
			Name:       n.Name,
			Args:       n.Args,
			Env:        envVars(n.Env),
			Cwd:        n.Cwd,
			Condition:  domain.Condition{If: n.If, Unless: n.Unless},
		}
		for _, p := range n.Parameters {
			spec.Parameters = append(spec.Parameters, p.Entries...)
		}
		for _, r := range n.Remappings {
			spec.Remappings = append(spec.Remappings, domain.Remapping{From: r.From, To: r.To})
		}
		if err := validateNode(spec, path, i); err != nil {
			return nil, err
		}
		desc.Nodes = append(desc.Nodes, spec)
	}

	for i, inc := range file.Includes {
		if inc.Source == "" {
			return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrDescriptorParseFailed, "include without source"),
				"path", path), "index", i)
		}
		desc.Includes = append(desc.Includes, domain.IncludeRef{
			Source:    inc.Source,
			Arguments: inc.Arguments,
			Condition: domain.Condition{If: inc.If, Unless: inc.Unless},
		})
	}

	return desc, nil
}

func parseError(err error, path string) error {
	for _, known := range []error{domain.ErrInvalidParameter, domain.ErrDescriptorParseFailed} {
		if errors.Is(err, known) {
			return zerr.With(err, "path", path)
		}
	}
	return zerr.With(zerr.Wrap(domain.ErrDescriptorParseFailed, err.Error()), "path", path)
}

func validateNode(spec domain.NodeSpec, path string, index int) error {
	if spec.Package == "" || spec.Executable == "" {
		return zerr.With(zerr.With(zerr.Wrap(domain.ErrInvalidNodeSpec, "node needs a package and an executable"),
			"path", path), "index", index)
	}
	return nil
}

func envVars(env map[string]string) []domain.EnvVar {
	if len(env) == 0 {
		return nil
	}
	out := make([]domain.EnvVar, 0, len(env))
	for name, value := range env {
		out = append(out, domain.EnvVar{Name: name, Value: value})
	}
	sortEnv(out)
	return out
}

func sortEnv(env []domain.EnvVar) {
	slices.SortFunc(env, func(a, b domain.EnvVar) int { return cmp.Compare(a.Name, b.Name) })
}
