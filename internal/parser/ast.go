package parser

// Document tree. Nodes are built bottom-up by the parser and never mutated
// afterwards; Expand returns copies.

type Feature struct {
	Path        string
	Tags        []Tag
	Name        string
	Description string
	Line        int // 1-based line number of Feature: line
	Background  *Block
	Scenarios   []Block // KindScenario or KindOutline, in source order
}

// Kind discriminates the block variants that share a statement list.
type Kind int

const (
	KindBackground Kind = iota
	KindScenario
	KindOutline
)

func (k Kind) String() string {
	switch k {
	case KindBackground:
		return "Background"
	case KindScenario:
		return "Scenario"
	case KindOutline:
		return "Scenario Outline"
	default:
		return "unknown"
	}
}

type Block struct {
	Kind        Kind
	Tags        []Tag // always empty for KindBackground
	Name        string
	Description string
	Line        int
	Steps       []Step
	Examples    *Table // set only for KindOutline
}

type Tag struct {
	Name string // without the leading @, e.g. "slow"
}

type Step struct {
	Keyword   string // Given, When, Then, And
	Text      string
	Line      int
	Table     *Table
	DocString *DocString
}

type Table struct {
	Line     int
	Rows     [][]string
	RowLines []int // source line of each row
}

// Header returns the first row, or nil for an empty table.
func (t *Table) Header() []string {
	if t == nil || len(t.Rows) == 0 {
		return nil
	}
	return t.Rows[0]
}

// Body returns every row after the header.
func (t *Table) Body() [][]string {
	if t == nil || len(t.Rows) < 2 {
		return nil
	}
	return t.Rows[1:]
}

type DocString struct {
	Line      int
	MediaType string
	Content   string
}

// TagNames returns the tag names in order.
func TagNames(tags []Tag) []string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	return names
}
