// Package project loads the set of suite descriptors a run operates on,
// either from a YAML project file or from bare command-line arguments.
package project

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/testharbor/testharbor/types"
)

// Project owns the immutable list of suite descriptors for one run.
// Listing order is preserved; report fragments are later assembled in this
// order regardless of completion order.
type Project struct {
	Suites []types.SuiteDescriptor `yaml:"suites"`
}

// Load reads a project file.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading project file: %w", err)
	}

	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing project file: %w", err)
	}
	if len(p.Suites) == 0 {
		return nil, fmt.Errorf("project file %s declares no suites", path)
	}
	for i, s := range p.Suites {
		if s.Path == "" {
			return nil, fmt.Errorf("suite %d in %s has no path", i, path)
		}
	}

	slog.Debug("project loaded", "path", path, "suites", len(p.Suites))
	return &p, nil
}

// FromArgs synthesizes a project from bare suite arguments of the form
// "path" or "path=configpath".
func FromArgs(args []string) (*Project, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no suites given")
	}

	p := &Project{Suites: make([]types.SuiteDescriptor, 0, len(args))}
	for _, arg := range args {
		suitePath, configPath, _ := strings.Cut(arg, "=")
		if suitePath == "" {
			return nil, fmt.Errorf("invalid suite argument %q", arg)
		}
		p.Suites = append(p.Suites, types.SuiteDescriptor{
			Path:       suitePath,
			ConfigPath: configPath,
		})
	}
	return p, nil
}

// ParallelizeByDefault reports whether every suite's own configuration
// requests assembly-level parallelism. The orchestrator uses this when no
// explicit parallelization option was given.
func (p *Project) ParallelizeByDefault() bool {
	for _, s := range p.Suites {
		if s.Options.ParallelizeSuites == nil || !*s.Options.ParallelizeSuites {
			return false
		}
	}
	return len(p.Suites) > 0
}
