package reporting

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/sourcegraph/conc/pool"
)

// Transform renders an assembled report document into one on-disk format.
type Transform interface {
	// Format is the switch name the transform is requested by (e.g. "xml").
	Format() string
	// Render writes the document to the given path.
	Render(doc *Document, path string) error
}

var (
	transformsMu sync.RWMutex
	transforms   = map[string]Transform{}
)

// RegisterTransform adds a transform to the format table. Later
// registrations for the same format win; built-ins register from init.
func RegisterTransform(t Transform) {
	transformsMu.Lock()
	defer transformsMu.Unlock()
	transforms[t.Format()] = t
}

// Formats returns the registered format names, sorted.
func Formats() []string {
	transformsMu.RLock()
	defer transformsMu.RUnlock()
	names := make([]string, 0, len(transforms))
	for name := range transforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RenderAll writes the document once per requested format. Formats are
// independent: a failure rendering one never prevents the others from being
// attempted, and all failures are surfaced together at the end.
func RenderAll(doc *Document, requested map[string]string, log *slog.Logger) error {
	if doc == nil || len(requested) == 0 {
		return nil
	}
	if log == nil {
		log = slog.Default()
	}

	p := pool.New().WithErrors()
	for format, path := range requested {
		format, path := format, path
		transformsMu.RLock()
		t, ok := transforms[format]
		transformsMu.RUnlock()

		p.Go(func() error {
			if !ok {
				return fmt.Errorf("no transform registered for format %q", format)
			}
			if err := t.Render(doc, path); err != nil {
				return fmt.Errorf("rendering %s report to %s: %w", format, path, err)
			}
			log.Info("report written", "format", format, "path", path)
			return nil
		})
	}

	return p.Wait()
}
