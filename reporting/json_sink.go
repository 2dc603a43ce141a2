package reporting

import (
	"encoding/json"
	"fmt"
	"time"
)

type jsonReport struct {
	RunID     string      `json:"run_id"`
	Generated time.Time   `json:"generated"`
	Elapsed   string      `json:"elapsed"`
	Total     int         `json:"total"`
	Passed    int         `json:"passed"`
	Failed    int         `json:"failed"`
	Skipped   int         `json:"skipped"`
	Suites    []jsonSuite `json:"suites"`
}

type jsonSuite struct {
	Name    string     `json:"name"`
	Total   int        `json:"total"`
	Passed  int        `json:"passed"`
	Failed  int        `json:"failed"`
	Skipped int        `json:"skipped"`
	Elapsed string     `json:"elapsed"`
	Cases   []jsonCase `json:"cases,omitempty"`
}

type jsonCase struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Status  string `json:"status"`
	Elapsed string `json:"elapsed"`
	Message string `json:"message,omitempty"`
}

// JSONTransform renders the report as an indented JSON document for
// machine consumers.
type JSONTransform struct{}

func (JSONTransform) Format() string { return "json" }

func (JSONTransform) Render(doc *Document, path string) error {
	stats := doc.Stats()
	out := jsonReport{
		RunID:     doc.RunID,
		Generated: doc.Generated,
		Elapsed:   doc.Elapsed.String(),
		Total:     stats.Total,
		Passed:    stats.Passed(),
		Failed:    stats.Failed,
		Skipped:   stats.Skipped,
	}
	for _, frag := range doc.Suites {
		suite := jsonSuite{
			Name:    frag.SuiteName,
			Total:   frag.Summary.Total,
			Passed:  frag.Summary.Passed(),
			Failed:  frag.Summary.Failed,
			Skipped: frag.Summary.Skipped,
			Elapsed: frag.Summary.Duration.String(),
		}
		for _, c := range frag.Cases {
			suite.Cases = append(suite.Cases, jsonCase{
				ID:      c.ID,
				Name:    c.Name,
				Status:  string(c.Status),
				Elapsed: c.Duration.String(),
				Message: c.Message,
			})
		}
		out.Suites = append(out.Suites, suite)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding json report: %w", err)
	}
	return writeReportFile(path, append(data, '\n'))
}

func init() {
	RegisterTransform(JSONTransform{})
}
