package reporters

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Descriptor declares one installable reporter: the switch name it is
// selected by, a human description, and a no-argument construction path.
type Descriptor struct {
	Switch      string
	Description string
	New         func() (Reporter, error)
}

// Registry is a static registration table of reporter implementations.
// It replaces reflective plugin scanning: each environment registers its
// reporters explicitly, and malformed registrations are warnings, never
// fatal startup errors.
type Registry struct {
	mu          sync.RWMutex
	descriptors []Descriptor
	log         *slog.Logger
}

// NewRegistry creates a registry pre-populated with the built-in reporters.
func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	r := &Registry{log: log}
	r.Register(Descriptor{
		Switch:      "console",
		Description: "summary table on completion (default)",
		New:         func() (Reporter, error) { return NewConsoleReporter(ConsoleConfig{Log: log}), nil },
	})
	r.Register(Descriptor{
		Switch:      "verbose",
		Description: "per-event lifecycle detail",
		New:         func() (Reporter, error) { return NewVerboseReporter(log), nil },
	})
	return r
}

// Register adds a reporter descriptor. A descriptor without a construction
// path is recorded anyway; Discover and Lookup skip it with a warning.
func (r *Registry) Register(d Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.descriptors = append(r.descriptors, d)
}

// Discover returns the usable reporter descriptors, sorted by switch name.
// Descriptors lacking a switch or a construction path are skipped with a
// warning rather than failing discovery.
func (r *Registry) Discover() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	usable := make([]Descriptor, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		if d.Switch == "" || d.New == nil {
			r.log.Warn("skipping unusable reporter registration",
				"switch", d.Switch, "description", d.Description)
			continue
		}
		usable = append(usable, d)
	}
	sort.Slice(usable, func(i, j int) bool { return usable[i].Switch < usable[j].Switch })
	return usable
}

// List writes the usable reporters, one per line, to w.
func (r *Registry) List(w io.Writer) {
	for _, d := range r.Discover() {
		fmt.Fprintf(w, "  %-12s %s\n", d.Switch, d.Description)
	}
}

// Lookup selects the active reporter by switch name, matched
// case-insensitively. An empty or unmatched switch falls back to the default
// console reporter. A candidate whose construction fails is warned about and
// skipped, falling through to the default.
func (r *Registry) Lookup(switchName string) (Reporter, error) {
	if switchName != "" {
		for _, d := range r.Discover() {
			if !strings.EqualFold(d.Switch, switchName) {
				continue
			}
			rep, err := d.New()
			if err != nil {
				r.log.Warn("reporter construction failed, falling back to default",
					"switch", d.Switch, "error", err)
				break
			}
			return rep, nil
		}
		r.log.Warn("no reporter matched switch, using default", "switch", switchName)
	}

	for _, d := range r.Discover() {
		if strings.EqualFold(d.Switch, "console") {
			return d.New()
		}
	}
	return nil, fmt.Errorf("default console reporter is not registered")
}
