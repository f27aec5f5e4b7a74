// Package retrieve selects the minimal relevant subset of indexed units
// to ground an answer. Results reference corpus units directly and are
// discarded once the answer request has been composed.
package retrieve

import (
	"sort"
	"strings"

	"github.com/dgallion1/paperquery/internal/corpus"
	"github.com/dgallion1/paperquery/internal/document"
	"github.com/dgallion1/paperquery/internal/index"
	"github.com/dgallion1/paperquery/internal/intent"
)

// Query is a classified user query with optional target documents.
// Empty DocIDs means the whole active corpus.
type Query struct {
	Text   string
	Intent intent.Intent
	DocIDs []string
}

// ScoredUnit references one selected content unit with its relevance.
type ScoredUnit struct {
	DocID string
	Unit  *document.ContentUnit
	Score float64
}

// Result is the ranked context window for one query. An empty result is
// a valid outcome, not a failure.
type Result struct {
	Units []ScoredUnit
}

func (r Result) Empty() bool {
	return len(r.Units) == 0
}

// DefaultUnitBudget bounds context size when no budget is configured.
const DefaultUnitBudget = 24

// Retriever ranks indexed units against queries.
type Retriever struct {
	unitBudget int
}

func New(unitBudget int) *Retriever {
	if unitBudget <= 0 {
		unitBudget = DefaultUnitBudget
	}
	return &Retriever{unitBudget: unitBudget}
}

// Retrieve selects context units from the given corpus entries. Summary
// queries take a section subtree (or whole documents); everything else
// is lexical term-frequency ranking with document-order tie-breaks.
// Never exceeds the unit budget; truncation drops lowest scores first.
func (r *Retriever) Retrieve(entries []*corpus.Entry, q Query) Result {
	entries = filterByDoc(entries, q.DocIDs)
	if len(entries) == 0 {
		return Result{}
	}

	var units []ScoredUnit
	if q.Intent == intent.Summary {
		units = r.retrieveSections(entries, q)
	} else {
		units = r.retrieveLexical(entries, q)
	}

	if len(units) > r.unitBudget {
		units = units[:r.unitBudget]
	}
	return Result{Units: units}
}

func filterByDoc(entries []*corpus.Entry, docIDs []string) []*corpus.Entry {
	if len(docIDs) == 0 {
		return entries
	}
	want := make(map[string]bool, len(docIDs))
	for _, id := range docIDs {
		want[id] = true
	}
	var out []*corpus.Entry
	for _, e := range entries {
		if want[e.Doc.ID] {
			out = append(out, e)
		}
	}
	return out
}

// retrieveLexical ranks units by summed term frequency over the query's
// tokens. Extraction queries prefer tables. Ties break by document ID,
// then document order, for deterministic output.
func (r *Retriever) retrieveLexical(entries []*corpus.Entry, q Query) []ScoredUnit {
	tokens := index.Tokenize(q.Text)
	if len(tokens) == 0 {
		return nil
	}

	var scored []ScoredUnit
	for _, e := range entries {
		byUnit := make(map[string]float64)
		for _, tok := range tokens {
			for _, p := range e.Index.Postings(tok) {
				byUnit[p.UnitID] += float64(p.Freq)
			}
		}
		for unitID, score := range byUnit {
			u := e.Doc.Unit(unitID)
			if u == nil {
				continue
			}
			if q.Intent == intent.Extraction && u.Kind == document.KindTable {
				score *= 2
			}
			scored = append(scored, ScoredUnit{DocID: e.Doc.ID, Unit: u, Score: score})
		}
	}

	orderOf := unitOrders(entries)
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if scored[i].DocID != scored[j].DocID {
			return scored[i].DocID < scored[j].DocID
		}
		return orderOf[scored[i].DocID][scored[i].Unit.ID] < orderOf[scored[j].DocID][scored[j].Unit.ID]
	})
	return scored
}

// retrieveSections returns the subtree of the section the query names,
// or whole documents when no section matches.
func (r *Retriever) retrieveSections(entries []*corpus.Entry, q Query) []ScoredUnit {
	for _, e := range entries {
		node := matchSection(e.Index, q.Text)
		if node == nil {
			continue
		}
		var units []ScoredUnit
		for _, id := range e.Index.SectionUnits(node.UnitID) {
			if u := e.Doc.Unit(id); u != nil {
				units = append(units, ScoredUnit{DocID: e.Doc.ID, Unit: u, Score: 1})
			}
		}
		return units
	}

	// No named section: summarize the whole target corpus in order.
	var units []ScoredUnit
	for _, e := range entries {
		for i := range e.Doc.Units {
			units = append(units, ScoredUnit{DocID: e.Doc.ID, Unit: &e.Doc.Units[i], Score: 1})
		}
	}
	return units
}

// matchSection finds the first heading whose normalized title appears
// in the query text.
func matchSection(ix *index.SectionIndex, query string) *index.SectionNode {
	qNorm := " " + strings.Join(index.Tokenize(query), " ") + " "
	var found *index.SectionNode
	var visit func(n *index.SectionNode)
	visit = func(n *index.SectionNode) {
		if found != nil {
			return
		}
		tokens := index.Tokenize(n.Title)
		// Drop a leading section number ("3 results" -> "results").
		if len(tokens) > 1 && isNumeric(tokens[0]) {
			tokens = tokens[1:]
		}
		title := strings.Join(tokens, " ")
		if title != "" && strings.Contains(qNorm, " "+title+" ") {
			found = n
			return
		}
		for _, c := range n.Children {
			visit(c)
		}
	}
	for _, root := range ix.Roots {
		visit(root)
	}
	return found
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func unitOrders(entries []*corpus.Entry) map[string]map[string]int {
	orders := make(map[string]map[string]int, len(entries))
	for _, e := range entries {
		m := make(map[string]int, len(e.Doc.Units))
		for i := range e.Doc.Units {
			m[e.Doc.Units[i].ID] = i
		}
		orders[e.Doc.ID] = m
	}
	return orders
}
