package reporting

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
)

// xmlAssemblies mirrors the classic assemblies-style test report shape.
type xmlAssemblies struct {
	XMLName    xml.Name      `xml:"assemblies"`
	RunID      string        `xml:"run-id,attr"`
	Timestamp  string        `xml:"timestamp,attr"`
	Assemblies []xmlAssembly `xml:"assembly"`
}

type xmlAssembly struct {
	Name    string    `xml:"name,attr"`
	Total   int       `xml:"total,attr"`
	Passed  int       `xml:"passed,attr"`
	Failed  int       `xml:"failed,attr"`
	Skipped int       `xml:"skipped,attr"`
	Time    string    `xml:"time,attr"`
	Tests   []xmlTest `xml:"test"`
}

type xmlTest struct {
	Name    string      `xml:"name,attr"`
	Method  string      `xml:"method,attr"`
	Type    string      `xml:"type,attr"`
	Result  string      `xml:"result,attr"`
	Time    string      `xml:"time,attr"`
	Failure *xmlFailure `xml:"failure,omitempty"`
	Reason  string      `xml:"reason,omitempty"`
}

type xmlFailure struct {
	Message string `xml:"message"`
	Output  string `xml:"output,omitempty"`
}

// XMLTransform renders the report as an assemblies-style XML document.
type XMLTransform struct{}

func (XMLTransform) Format() string { return "xml" }

func (XMLTransform) Render(doc *Document, path string) error {
	out := xmlAssemblies{
		RunID:     doc.RunID,
		Timestamp: doc.Generated.UTC().Format("2006-01-02T15:04:05Z"),
	}
	for _, frag := range doc.Suites {
		asm := xmlAssembly{
			Name:    frag.SuiteName,
			Total:   frag.Summary.Total,
			Passed:  frag.Summary.Passed(),
			Failed:  frag.Summary.Failed,
			Skipped: frag.Summary.Skipped,
			Time:    fmt.Sprintf("%.3f", frag.Summary.Duration.Seconds()),
		}
		for _, c := range frag.Cases {
			test := xmlTest{
				Name:   c.Name,
				Method: c.MethodName,
				Type:   c.ClassName,
				Result: string(c.Status),
				Time:   fmt.Sprintf("%.3f", c.Duration.Seconds()),
			}
			switch c.Status {
			case "fail":
				test.Failure = &xmlFailure{Message: c.Message, Output: c.Output}
			case "skip":
				test.Reason = c.Message
			}
			asm.Tests = append(asm.Tests, test)
		}
		out.Assemblies = append(out.Assemblies, asm)
	}

	data, err := xml.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding xml report: %w", err)
	}
	return writeReportFile(path, append([]byte(xml.Header), data...))
}

func writeReportFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func init() {
	RegisterTransform(XMLTransform{})
}
