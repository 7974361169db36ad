package parser

import (
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`<([^<>\s][^<>]*)>`)

// Example is one concrete scenario produced from an outline's Examples row.
type Example struct {
	Index    int // 1-based position of the row among the data rows
	Values   map[string]string
	Scenario Block
}

// Expand converts a Scenario Outline into one concrete Scenario per Examples
// data row. Placeholders are checked against the header before any example
// is built, so a bad outline produces no examples at all.
func Expand(outline Block) ([]Example, error) {
	header := outline.Examples.Header()
	columns := make(map[string]bool, len(header))
	for _, h := range header {
		columns[h] = true
	}

	for _, step := range outline.Steps {
		for _, name := range placeholders(step) {
			if !columns[name] {
				return nil, &PlaceholderError{Outline: outline.Name, Line: step.Line, Placeholder: name}
			}
		}
	}

	rows := outline.Examples.Body()
	examples := make([]Example, 0, len(rows))
	for i, row := range rows {
		values := make(map[string]string, len(header))
		for c, name := range header {
			values[name] = row[c]
		}

		line := outline.Line
		if len(outline.Examples.RowLines) == len(outline.Examples.Rows) {
			line = outline.Examples.RowLines[i+1]
		}

		steps := make([]Step, len(outline.Steps))
		for s, step := range outline.Steps {
			steps[s] = substituteStep(step, values)
		}

		examples = append(examples, Example{
			Index:  i + 1,
			Values: values,
			Scenario: Block{
				Kind:        KindScenario,
				Tags:        append([]Tag(nil), outline.Tags...),
				Name:        outline.Name,
				Description: outline.Description,
				Line:        line,
				Steps:       steps,
			},
		})
	}
	return examples, nil
}

// placeholders lists every <name> referenced by a step template.
func placeholders(step Step) []string {
	var names []string
	collect := func(s string) {
		for _, m := range placeholderPattern.FindAllStringSubmatch(s, -1) {
			names = append(names, m[1])
		}
	}
	collect(step.Text)
	if step.Table != nil {
		for _, row := range step.Table.Rows {
			for _, cell := range row {
				collect(cell)
			}
		}
	}
	if step.DocString != nil {
		collect(step.DocString.Content)
	}
	return names
}

func substituteStep(step Step, values map[string]string) Step {
	out := Step{
		Keyword: step.Keyword,
		Text:    substitute(step.Text, values),
		Line:    step.Line,
	}
	if step.Table != nil {
		rows := make([][]string, len(step.Table.Rows))
		for r, row := range step.Table.Rows {
			rows[r] = make([]string, len(row))
			for c, cell := range row {
				rows[r][c] = substitute(cell, values)
			}
		}
		out.Table = &Table{Line: step.Table.Line, Rows: rows, RowLines: step.Table.RowLines}
	}
	if step.DocString != nil {
		out.DocString = &DocString{
			Line:      step.DocString.Line,
			MediaType: step.DocString.MediaType,
			Content:   substitute(step.DocString.Content, values),
		}
	}
	return out
}

func substitute(s string, values map[string]string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	return placeholderPattern.ReplaceAllStringFunc(s, func(m string) string {
		if v, ok := values[m[1:len(m)-1]]; ok {
			return v
		}
		return m
	})
}
