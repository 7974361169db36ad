package parser

import (
	"fmt"
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`^@[^@\s]+$`)

var stepKeywords = []string{"Given", "When", "Then", "And"}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokTags
	tokFeature
	tokBackground
	tokScenario
	tokOutline
	tokExamples
	tokStep
	tokRow
	tokDocString
	tokText
)

var headers = []struct {
	prefix string
	kind   tokenKind
}{
	{"Feature:", tokFeature},
	{"Background:", tokBackground},
	{"Scenario Outline:", tokOutline},
	{"Scenario:", tokScenario},
	{"Examples:", tokExamples},
}

type token struct {
	kind    tokenKind
	line    int
	keyword string // step keyword
	text    string // header name, step text, free text
	tags    []Tag
	cells   []string
	doc     *DocString
}

// lex splits content into significant tokens. Blank and comment lines are
// dropped; doc string bodies are captured verbatim as a single token.
func lex(filename string, content []byte) ([]token, error) {
	lines := strings.Split(string(content), "\n")
	var toks []token

	i := 0
	for i < len(lines) {
		raw := strings.TrimRight(lines[i], "\r")
		trimmed := strings.TrimSpace(raw)
		lineNo := i + 1

		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			i++
			continue
		}

		if isDocStringDelimiter(trimmed) {
			doc, next, err := lexDocString(filename, lines, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokDocString, line: lineNo, doc: doc})
			i = next
			continue
		}

		switch {
		case isTagLine(trimmed):
			tags, err := parseTags(trimmed)
			if err != nil {
				return nil, &ParseError{File: filename, Line: lineNo, Message: err.Error()}
			}
			toks = append(toks, token{kind: tokTags, line: lineNo, tags: tags})
		case strings.HasPrefix(trimmed, "|"):
			cells, err := parseRow(trimmed)
			if err != nil {
				return nil, &ParseError{File: filename, Line: lineNo, Message: err.Error()}
			}
			toks = append(toks, token{kind: tokRow, line: lineNo, cells: cells})
		default:
			toks = append(toks, classify(trimmed, lineNo))
		}
		i++
	}

	return append(toks, token{kind: tokEOF, line: len(lines)}), nil
}

func classify(trimmed string, lineNo int) token {
	for _, h := range headers {
		if strings.HasPrefix(trimmed, h.prefix) {
			return token{kind: h.kind, line: lineNo, text: strings.TrimSpace(strings.TrimPrefix(trimmed, h.prefix))}
		}
	}
	if kw, text, ok := splitStep(trimmed); ok {
		return token{kind: tokStep, line: lineNo, keyword: kw, text: text}
	}
	return token{kind: tokText, line: lineNo, text: trimmed}
}

// splitStep recognises a step keyword followed by whitespace or end of line.
func splitStep(trimmed string) (string, string, bool) {
	for _, kw := range stepKeywords {
		if !strings.HasPrefix(trimmed, kw) {
			continue
		}
		rest := trimmed[len(kw):]
		if rest == "" {
			return kw, "", true
		}
		if rest[0] == ' ' || rest[0] == '\t' {
			return kw, strings.TrimSpace(rest), true
		}
	}
	return "", "", false
}

func parseTags(line string) ([]Tag, error) {
	var tags []Tag
	for _, field := range strings.Fields(line) {
		if strings.HasPrefix(field, "#") {
			break
		}
		if !tagPattern.MatchString(field) {
			return nil, fmt.Errorf("invalid tag %q", field)
		}
		tags = append(tags, Tag{Name: field[1:]})
	}
	return tags, nil
}

func parseRow(trimmed string) ([]string, error) {
	if len(trimmed) < 2 || !strings.HasSuffix(trimmed, "|") {
		return nil, fmt.Errorf("table row is not terminated with |")
	}
	cells := strings.Split(trimmed[1:len(trimmed)-1], "|")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells, nil
}

func isTagLine(trimmed string) bool {
	return strings.HasPrefix(trimmed, "@")
}

func isDocStringDelimiter(trimmed string) bool {
	return strings.HasPrefix(trimmed, `"""`) || strings.HasPrefix(trimmed, "```")
}

// lexDocString reads a doc string block. i points at the opening delimiter.
// Returns the index of the line after the closing delimiter.
func lexDocString(filename string, lines []string, i int) (*DocString, int, error) {
	opener := strings.TrimRight(lines[i], "\r")
	trimmed := strings.TrimSpace(opener)
	delimiter := `"""`
	if strings.HasPrefix(trimmed, "```") {
		delimiter = "```"
	}
	indent := len(opener) - len(strings.TrimLeft(opener, " \t"))
	doc := &DocString{
		Line:      i + 1,
		MediaType: strings.TrimSpace(strings.TrimPrefix(trimmed, delimiter)),
	}

	var body []string
	for j := i + 1; j < len(lines); j++ {
		line := strings.TrimRight(lines[j], "\r")
		if strings.TrimSpace(line) == delimiter {
			doc.Content = strings.Join(body, "\n")
			return doc, j + 1, nil
		}
		body = append(body, dedent(line, indent))
	}
	return nil, len(lines), &ParseError{File: filename, Line: i + 1, Message: "doc string is not terminated"}
}

// dedent strips up to n leading whitespace characters.
func dedent(line string, n int) string {
	k := 0
	for k < n && k < len(line) && (line[k] == ' ' || line[k] == '\t') {
		k++
	}
	return line[k:]
}
