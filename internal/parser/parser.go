package parser

import (
	"fmt"
	"strings"
)

// Parse parses a feature file into a Feature tree. The first error found is
// returned and the file contributes no runnable units.
func Parse(filename string, content []byte) (*Feature, error) {
	toks, err := lex(filename, content)
	if err != nil {
		return nil, err
	}
	p := &parser{file: filename, toks: toks}
	return p.feature()
}

type parser struct {
	file string
	toks []token
	pos  int
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) parseErr(line int, format string, args ...any) error {
	return &ParseError{File: p.file, Line: line, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) structureErr(line int, format string, args ...any) error {
	return &StructureError{File: p.file, Line: line, Message: fmt.Sprintf(format, args...)}
}

// feature := tags* FEATURE text* background? (scenario | outline)+ EOF
func (p *parser) feature() (*Feature, error) {
	featureTags := p.tags()

	header := p.next()
	switch header.kind {
	case tokFeature:
	case tokEOF:
		return nil, p.parseErr(header.line, "missing Feature: header")
	default:
		return nil, p.parseErr(header.line, "expected Feature: header")
	}
	if header.text == "" {
		return nil, p.parseErr(header.line, "Feature: header has no name")
	}

	var background *Block
	var scenarios []Block
	description := p.description()

	for {
		blockTags := p.tags()
		t := p.peek()

		switch t.kind {
		case tokBackground:
			if len(blockTags) > 0 {
				return nil, p.structureErr(t.line, "tags are not allowed on Background")
			}
			if background != nil {
				return nil, p.structureErr(t.line, "feature has more than one Background")
			}
			if len(scenarios) > 0 {
				return nil, p.structureErr(t.line, "Background must precede all scenarios")
			}
			bg, err := p.block(KindBackground, nil)
			if err != nil {
				return nil, err
			}
			background = &bg

		case tokScenario, tokOutline:
			kind := KindScenario
			if t.kind == tokOutline {
				kind = KindOutline
			}
			b, err := p.block(kind, blockTags)
			if err != nil {
				return nil, err
			}
			scenarios = append(scenarios, b)

		case tokEOF:
			if len(blockTags) > 0 {
				return nil, p.parseErr(t.line, "tags are not followed by a Scenario")
			}
			if len(scenarios) == 0 {
				return nil, p.parseErr(header.line, "feature %q has no scenarios", header.text)
			}
			return &Feature{
				Path:        p.file,
				Tags:        featureTags,
				Name:        header.text,
				Description: description,
				Line:        header.line,
				Background:  background,
				Scenarios:   scenarios,
			}, nil

		case tokFeature:
			return nil, p.parseErr(t.line, "file has more than one Feature:")
		case tokStep:
			return nil, p.structureErr(t.line, "step %q is not inside a Background or Scenario", t.keyword+" "+t.text)
		case tokRow:
			return nil, p.structureErr(t.line, "table has no preceding step")
		case tokDocString:
			return nil, p.structureErr(t.line, "doc string has no preceding step")
		case tokExamples:
			return nil, p.structureErr(t.line, "Examples: is only allowed in a Scenario Outline")
		default:
			return nil, p.parseErr(t.line, "unexpected text %q", t.text)
		}
	}
}

// tags consumes consecutive tag lines.
func (p *parser) tags() []Tag {
	var tags []Tag
	for p.peek().kind == tokTags {
		tags = append(tags, p.next().tags...)
	}
	return tags
}

// description consumes free text lines.
func (p *parser) description() string {
	var lines []string
	for p.peek().kind == tokText {
		lines = append(lines, p.next().text)
	}
	return strings.Join(lines, "\n")
}

// block := HEADER text* step* (EXAMPLES row+)?
func (p *parser) block(kind Kind, tags []Tag) (Block, error) {
	header := p.next()
	if kind != KindBackground && header.text == "" {
		return Block{}, p.parseErr(header.line, "%s: header has no name", kind)
	}
	description := p.description()

	steps, err := p.steps()
	if err != nil {
		return Block{}, err
	}

	t := p.peek()
	if t.kind == tokText {
		return Block{}, p.parseErr(t.line, "unexpected text %q", t.text)
	}

	var examples *Table
	switch {
	case kind == KindOutline:
		if t.kind != tokExamples {
			return Block{}, p.parseErr(header.line, "Scenario Outline %q has no Examples table", header.text)
		}
		p.next()
		p.description()
		examples, err = p.table()
		if err != nil {
			return Block{}, err
		}
		if examples == nil {
			return Block{}, p.parseErr(t.line, "Examples: has no table")
		}
		if next := p.peek(); next.kind == tokText {
			return Block{}, p.parseErr(next.line, "unexpected text %q", next.text)
		}
	case t.kind == tokExamples:
		return Block{}, p.structureErr(t.line, "Examples: is only allowed in a Scenario Outline")
	}

	return Block{
		Kind:        kind,
		Tags:        tags,
		Name:        header.text,
		Description: description,
		Line:        header.line,
		Steps:       steps,
		Examples:    examples,
	}, nil
}

// steps consumes statements with their optional argument.
func (p *parser) steps() ([]Step, error) {
	var steps []Step
	for {
		t := p.peek()
		switch t.kind {
		case tokRow:
			return nil, p.structureErr(t.line, "table has no preceding step")
		case tokDocString:
			return nil, p.structureErr(t.line, "doc string has no preceding step")
		case tokStep:
		default:
			return steps, nil
		}

		p.next()
		if t.text == "" {
			return nil, p.parseErr(t.line, "%s step has no text", t.keyword)
		}
		step := Step{Keyword: t.keyword, Text: t.text, Line: t.line}

		table, err := p.table()
		if err != nil {
			return nil, err
		}
		if next := p.peek(); next.kind == tokDocString {
			if table != nil {
				return nil, p.structureErr(next.line, "step at line %d already has a table", t.line)
			}
			step.DocString = p.next().doc
			if after := p.peek(); after.kind == tokRow {
				return nil, p.structureErr(after.line, "step at line %d already has a doc string", t.line)
			}
		}
		step.Table = table
		steps = append(steps, step)
	}
}

// table consumes consecutive rows. Returns nil when no row follows.
func (p *parser) table() (*Table, error) {
	if p.peek().kind != tokRow {
		return nil, nil
	}
	first := p.peek()
	var rows [][]string
	var lines []int
	for p.peek().kind == tokRow {
		row := p.next()
		if len(rows) > 0 && len(row.cells) != len(rows[0]) {
			return nil, p.parseErr(row.line, "table row has %d cells, expected %d", len(row.cells), len(rows[0]))
		}
		rows = append(rows, row.cells)
		lines = append(lines, row.line)
	}
	return &Table{Line: first.line, Rows: rows, RowLines: lines}, nil
}
