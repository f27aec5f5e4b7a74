package index

import (
	"reflect"
	"testing"

	"github.com/dgallion1/paperquery/internal/document"
)

func paperDoc() *document.Document {
	return &document.Document{
		ID: "doc-1",
		Units: []document.ContentUnit{
			{ID: "u0000", Kind: document.KindParagraph, Text: "This paper studies retrieval.", Page: 1},
			{ID: "u0001", Kind: document.KindHeading, Text: "1. Introduction", Level: 1, Page: 1},
			{ID: "u0002", Kind: document.KindParagraph, Text: "Retrieval systems rank documents.", Page: 1},
			{ID: "u0003", Kind: document.KindHeading, Text: "1.1 Motivation", Level: 2, Page: 1},
			{ID: "u0004", Kind: document.KindParagraph, Text: "Ranking quality matters for retrieval.", Page: 2},
			{ID: "u0005", Kind: document.KindHeading, Text: "2. Results", Level: 1, Page: 2},
			{ID: "u0006", Kind: document.KindTable, Table: [][]string{{"model", "accuracy"}, {"baseline", "82.4"}}, Page: 3},
		},
	}
}

func TestBuild_SectionNesting(t *testing.T) {
	ix := Build(paperDoc())

	if len(ix.Roots) != 2 {
		t.Fatalf("expected 2 root sections, got %d", len(ix.Roots))
	}
	intro := ix.Roots[0]
	if intro.Title != "1. Introduction" {
		t.Errorf("expected first root %q, got %q", "1. Introduction", intro.Title)
	}
	if len(intro.Children) != 1 || intro.Children[0].Title != "1.1 Motivation" {
		t.Fatalf("expected Motivation nested under Introduction, got %+v", intro.Children)
	}
	if ix.Roots[1].Title != "2. Results" {
		t.Errorf("expected second root %q, got %q", "2. Results", ix.Roots[1].Title)
	}
	if len(ix.Roots[1].Children) != 0 {
		t.Errorf("expected Results to have no children, got %d", len(ix.Roots[1].Children))
	}
}

func TestBuild_PreHeadingUnitsAtRoot(t *testing.T) {
	ix := Build(paperDoc())
	if len(ix.rootUnits) != 1 || ix.rootUnits[0] != "u0000" {
		t.Errorf("expected u0000 as the only pre-heading unit, got %v", ix.rootUnits)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	doc := paperDoc()
	a := Build(doc)
	b := Build(doc)
	if !reflect.DeepEqual(a, b) {
		t.Error("expected identical indexes from repeated builds")
	}
}

func TestPostings_DocumentOrderAndFreq(t *testing.T) {
	ix := Build(paperDoc())

	posts := ix.Postings("retrieval")
	if len(posts) != 3 {
		t.Fatalf("expected 3 postings for 'retrieval', got %d", len(posts))
	}
	for i := 1; i < len(posts); i++ {
		if ix.Order(posts[i-1].UnitID) >= ix.Order(posts[i].UnitID) {
			t.Errorf("postings out of document order: %v", posts)
		}
	}

	// Table cells are indexed too.
	if got := ix.Postings("accuracy"); len(got) != 1 || got[0].UnitID != "u0006" {
		t.Errorf("expected table cell token to resolve to u0006, got %v", got)
	}
}

func TestFindSection_IgnoresCaseAndNumbering(t *testing.T) {
	ix := Build(paperDoc())

	for _, name := range []string{"results", "Results", "2. Results"} {
		node := ix.FindSection(name)
		if node == nil || node.UnitID != "u0005" {
			t.Errorf("FindSection(%q): expected u0005, got %+v", name, node)
		}
	}
	if ix.FindSection("appendix") != nil {
		t.Error("expected no match for missing section")
	}
}

func TestSectionUnits_SubtreeInOrder(t *testing.T) {
	ix := Build(paperDoc())

	got := ix.SectionUnits("u0001")
	want := []string{"u0001", "u0002", "u0003", "u0004"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected subtree %v, got %v", want, got)
	}

	if ix.SectionUnits("u0002") != nil {
		t.Error("expected nil subtree for a non-heading unit")
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("The F1-score was 0.92 (best).")
	want := []string{"the", "f1", "score", "was", "0", "92", "best"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if len(Tokenize("  \t ")) != 0 {
		t.Error("expected no tokens for whitespace input")
	}
}

func TestOrder_MissingUnit(t *testing.T) {
	ix := Build(paperDoc())
	if ix.Order("nope") != -1 {
		t.Errorf("expected -1 for unknown unit, got %d", ix.Order("nope"))
	}
}
