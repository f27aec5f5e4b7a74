// Package index builds the derived, queryable view of a document: the
// heading hierarchy plus a lexical inverted index over every content unit.
// Build is a pure function of the document's units; rebuilding from the
// same document always yields an identical index.
package index

import (
	"sort"
	"strings"
	"unicode"

	"github.com/dgallion1/paperquery/internal/document"
)

// SectionNode is one heading in the section tree.
type SectionNode struct {
	UnitID   string
	Title    string
	Level    int
	Children []*SectionNode

	// unitIDs are the non-heading units directly under this heading.
	unitIDs []string
}

// Posting records one unit's occurrence data for a token.
type Posting struct {
	UnitID string
	Freq   int
}

// SectionIndex is the searchable model of a single document.
type SectionIndex struct {
	Roots []*SectionNode

	// rootUnits are units that precede any heading.
	rootUnits []string

	byHeading map[string]*SectionNode
	postings  map[string][]Posting
	order     map[string]int
}

// Build constructs the SectionIndex for a document. Deterministic and
// idempotent: the tree nests each heading under the nearest preceding
// heading of a smaller level, and posting lists follow document order.
func Build(doc *document.Document) *SectionIndex {
	ix := &SectionIndex{
		byHeading: make(map[string]*SectionNode),
		postings:  make(map[string][]Posting),
		order:     make(map[string]int, len(doc.Units)),
	}

	var stack []*SectionNode
	for i := range doc.Units {
		u := &doc.Units[i]
		ix.order[u.ID] = i

		if u.Kind == document.KindHeading {
			node := &SectionNode{UnitID: u.ID, Title: u.Text, Level: u.Level}
			for len(stack) > 0 && stack[len(stack)-1].Level >= u.Level {
				stack = stack[:len(stack)-1]
			}
			if len(stack) == 0 {
				ix.Roots = append(ix.Roots, node)
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, node)
			}
			stack = append(stack, node)
			ix.byHeading[u.ID] = node
		} else {
			if len(stack) == 0 {
				ix.rootUnits = append(ix.rootUnits, u.ID)
			} else {
				top := stack[len(stack)-1]
				top.unitIDs = append(top.unitIDs, u.ID)
			}
		}

		for token, freq := range tokenFreq(u.PlainText()) {
			ix.postings[token] = append(ix.postings[token], Posting{UnitID: u.ID, Freq: freq})
		}
	}
	return ix
}

// Postings returns the posting list for a normalized token, in document
// order. The returned slice must not be modified.
func (ix *SectionIndex) Postings(token string) []Posting {
	return ix.postings[token]
}

// Order returns a unit's position in document order (page, then position).
func (ix *SectionIndex) Order(unitID string) int {
	if n, ok := ix.order[unitID]; ok {
		return n
	}
	return -1
}

// Section returns the node for a heading unit ID, or nil.
func (ix *SectionIndex) Section(headingUnitID string) *SectionNode {
	return ix.byHeading[headingUnitID]
}

// FindSection locates a heading whose title matches name, ignoring case
// and numbering. Returns the shallowest match in document order, or nil.
func (ix *SectionIndex) FindSection(name string) *SectionNode {
	want := normalizeTitle(name)
	if want == "" {
		return nil
	}
	var found *SectionNode
	ix.walk(func(n *SectionNode) {
		if found == nil && normalizeTitle(n.Title) == want {
			found = n
		}
	})
	return found
}

// SectionUnits returns every unit in a heading's subtree (the heading
// itself, its direct units, and all descendants) in document order.
func (ix *SectionIndex) SectionUnits(headingUnitID string) []string {
	node := ix.byHeading[headingUnitID]
	if node == nil {
		return nil
	}
	var ids []string
	var collect func(n *SectionNode)
	collect = func(n *SectionNode) {
		ids = append(ids, n.UnitID)
		ids = append(ids, n.unitIDs...)
		for _, c := range n.Children {
			collect(c)
		}
	}
	collect(node)
	sort.Slice(ids, func(i, j int) bool { return ix.order[ids[i]] < ix.order[ids[j]] })
	return ids
}

func (ix *SectionIndex) walk(fn func(*SectionNode)) {
	var visit func(n *SectionNode)
	visit = func(n *SectionNode) {
		fn(n)
		for _, c := range n.Children {
			visit(c)
		}
	}
	for _, r := range ix.Roots {
		visit(r)
	}
}

// Tokenize normalizes text for lexical matching: lowercase, punctuation
// stripped, whitespace collapsed.
func Tokenize(text string) []string {
	var sb strings.Builder
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
		default:
			sb.WriteRune(' ')
		}
	}
	return strings.Fields(sb.String())
}

func tokenFreq(text string) map[string]int {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	freq := make(map[string]int, len(tokens))
	for _, t := range tokens {
		freq[t]++
	}
	return freq
}

func normalizeTitle(s string) string {
	return strings.Join(Tokenize(stripNumbering(s)), " ")
}

func stripNumbering(s string) string {
	s = strings.TrimSpace(s)
	i := 0
	for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.') {
		i++
	}
	return strings.TrimSpace(s[i:])
}
