package ui

import (
	"fmt"
	"strings"

	"github.com/chriserin/ftrun/internal/parser"
	"github.com/chriserin/ftrun/internal/runner"
)

var summaryOrder = []runner.Status{
	runner.StatusPassed,
	runner.StatusFailed,
	runner.StatusError,
	runner.StatusSkipped,
}

// Attach registers hooks on reg that print each feature, each finished
// scenario and a closing summary.
func (p *Printer) Attach(reg *runner.Registry) {
	reg.BeforeEachFeature(func(fr *runner.FeatureResult) { p.FeatureHeader(fr.Feature) })
	reg.AfterEachScenario(p.Scenario)
	reg.AfterAll(p.Summary)
}

func (p *Printer) FeatureHeader(f *parser.Feature) {
	fmt.Fprintf(p.w, "%s  %s\n", p.featureStyle.Render("Feature: "+f.Name), p.faintStyle.Render(f.Path))
}

// Scenario prints a finished scenario with all of its steps, including the
// ones skipped after a failure.
func (p *Printer) Scenario(sr *runner.ScenarioResult) {
	fmt.Fprintf(p.w, "  %s\n", p.nameStyle.Render(scenarioTitle(sr)))

	stepFailed := false
	for _, st := range sr.Steps {
		fmt.Fprintf(p.w, "    %s  %s %s\n", p.statusLabel(st.Status.String()), st.Step.Keyword, st.Step.Text)
		if st.Status == runner.StatusFailed || st.Status == runner.StatusError {
			stepFailed = true
			p.reason(st.Reason)
		}
	}
	if !stepFailed && (sr.Status == runner.StatusFailed || sr.Status == runner.StatusError) {
		p.reason(sr.Reason)
	}
}

func (p *Printer) reason(reason string) {
	if reason == "" {
		return
	}
	for _, line := range strings.Split(reason, "\n") {
		fmt.Fprintf(p.w, "             %s\n", p.faintStyle.Render(line))
	}
}

// Summary prints per-level counts, hook faults and a failure list.
func (p *Printer) Summary(res *runner.Result) {
	c := res.Counts()
	fmt.Fprintln(p.w)
	p.countLine(c.Features, "feature")
	p.countLine(c.Scenarios, "scenario")
	p.countLine(c.Steps, "step")

	for _, fault := range res.Faults {
		fmt.Fprintf(p.w, "%s  %v\n", p.statusStyles[runner.StatusError.String()].Render("fault"), fault)
	}

	var failures []*runner.ScenarioResult
	for _, fr := range res.Features {
		for _, sr := range fr.Scenarios {
			if sr.Status == runner.StatusFailed || sr.Status == runner.StatusError {
				failures = append(failures, sr)
			}
		}
	}
	if len(failures) == 0 {
		return
	}
	fmt.Fprintln(p.w, "\nFailures:")
	for _, sr := range failures {
		fmt.Fprintf(p.w, "  %s:%d  %s: %s\n", sr.Feature.Path, sr.Scenario.Line, scenarioTitle(sr), sr.Reason)
	}
}

func (p *Printer) countLine(counts map[runner.Status]int, noun string) {
	total := 0
	var parts []string
	for _, s := range summaryOrder {
		n := counts[s]
		if n == 0 {
			continue
		}
		total += n
		parts = append(parts, p.statusStyles[s.String()].Render(fmt.Sprintf("%d %s", n, s)))
	}
	fmt.Fprintf(p.w, "%d %s", total, plural(total, noun))
	if len(parts) > 0 {
		fmt.Fprintf(p.w, " (%s)", strings.Join(parts, ", "))
	}
	fmt.Fprintln(p.w)
}

func scenarioTitle(sr *runner.ScenarioResult) string {
	if sr.Outline != nil && sr.Index > 0 {
		return fmt.Sprintf("%s: %s (example %d)", parser.KindOutline, sr.Scenario.Name, sr.Index)
	}
	if sr.Outline != nil {
		return fmt.Sprintf("%s: %s", parser.KindOutline, sr.Scenario.Name)
	}
	return "Scenario: " + sr.Scenario.Name
}
