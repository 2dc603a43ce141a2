package reporting

import (
	"fmt"
	"strings"

	"github.com/acarl005/stripansi"
)

// TextTransform renders a plain-text summary of the run. Captured test
// output may contain ANSI color sequences from the engine; they are stripped
// so the file stays readable in any pager.
type TextTransform struct{}

func (TextTransform) Format() string { return "text" }

func (TextTransform) Render(doc *Document, path string) error {
	var b strings.Builder
	stats := doc.Stats()

	fmt.Fprintf(&b, "Test Run %s\n", doc.RunID)
	fmt.Fprintf(&b, "Generated: %s\n", doc.Generated.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Elapsed: %.1fs\n\n", doc.Elapsed.Seconds())
	fmt.Fprintf(&b, "Total: %d  Passed: %d  Failed: %d  Skipped: %d\n\n",
		stats.Total, stats.Passed(), stats.Failed, stats.Skipped)

	for _, frag := range doc.Suites {
		fmt.Fprintf(&b, "=== %s (%s, %.1fs)\n", frag.SuiteName,
			frag.Summary.Status(), frag.Summary.Duration.Seconds())
		fmt.Fprintf(&b, "    total=%d failed=%d skipped=%d\n",
			frag.Summary.Total, frag.Summary.Failed, frag.Summary.Skipped)
		for _, c := range frag.Cases {
			fmt.Fprintf(&b, "    [%s] %s (%.3fs)\n", c.Status, c.Name, c.Duration.Seconds())
			if c.Message != "" {
				fmt.Fprintf(&b, "        %s\n", stripansi.Strip(c.Message))
			}
			if c.Status == "fail" && c.Output != "" {
				for _, line := range strings.Split(strings.TrimRight(stripansi.Strip(c.Output), "\n"), "\n") {
					fmt.Fprintf(&b, "        | %s\n", line)
				}
			}
		}
		b.WriteString("\n")
	}

	return writeReportFile(path, []byte(b.String()))
}

func init() {
	RegisterTransform(TextTransform{})
}
