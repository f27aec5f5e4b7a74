package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/dgallion1/paperquery/internal/answer"
	"github.com/dgallion1/paperquery/internal/arxiv"
	"github.com/dgallion1/paperquery/internal/corpus"
	"github.com/dgallion1/paperquery/internal/document"
	"github.com/dgallion1/paperquery/internal/index"
	"github.com/dgallion1/paperquery/internal/intent"
	"github.com/dgallion1/paperquery/internal/retrieve"
)

type fakeGenerator struct {
	calls     int
	failFirst error
	response  string
}

func (g *fakeGenerator) Generate(ctx context.Context, req answer.Request) (string, error) {
	g.calls++
	if g.calls == 1 && g.failFirst != nil {
		return "", g.failFirst
	}
	return g.response, nil
}

type fakeSearcher struct {
	calls  int
	papers []arxiv.Paper
	err    error
}

func (s *fakeSearcher) Search(ctx context.Context, query string, maxResults int) ([]arxiv.Paper, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.papers, nil
}

func newTestService(t *testing.T, gen *fakeGenerator, search *fakeSearcher) *QueryService {
	t.Helper()
	store := corpus.New()
	doc := &document.Document{
		ID: "doc-a",
		Units: []document.ContentUnit{
			{ID: "u0000", Kind: document.KindHeading, Text: "1. Results", Level: 1, Page: 1},
			{ID: "u0001", Kind: document.KindParagraph, Text: "Convergence was fast in every run.", Page: 2},
		},
	}
	if err := store.Add(doc, index.Build(doc)); err != nil {
		t.Fatalf("seed corpus: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewQueryService(
		store,
		intent.RuleClassifier{},
		retrieve.New(0),
		answer.NewComposer(8000),
		gen,
		search,
		answer.NewStats(0),
		log,
	)
}

func TestQueryService_DirectAnswer(t *testing.T) {
	gen := &fakeGenerator{response: "Convergence was fast [doc=doc-a page=2]."}
	search := &fakeSearcher{}
	svc := newTestService(t, gen, search)

	resp, err := svc.Handle(context.Background(), QueryRequest{Text: "How fast was convergence?"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Intent != intent.Direct {
		t.Errorf("expected direct intent, got %q", resp.Intent)
	}
	if resp.Answer == nil {
		t.Fatal("expected an answer")
	}
	if len(resp.Answer.Citations) != 1 || resp.Answer.Citations[0].DocID != "doc-a" {
		t.Errorf("unexpected citations %+v", resp.Answer.Citations)
	}
	if resp.ContextUnits == 0 {
		t.Error("expected context units to be reported")
	}
	if search.calls != 0 {
		t.Error("expected no paper search for a direct query")
	}
}

func TestQueryService_RetriesTransientGenerateError(t *testing.T) {
	gen := &fakeGenerator{
		failFirst: &answer.CollaboratorError{Kind: "unavailable", Message: "down", Retryable: true},
		response:  "recovered answer",
	}
	svc := newTestService(t, gen, &fakeSearcher{})

	resp, err := svc.Handle(context.Background(), QueryRequest{Text: "How fast was convergence?"})
	if err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if gen.calls != 2 {
		t.Errorf("expected 2 generate calls, got %d", gen.calls)
	}
	if resp.Answer.Text != "recovered answer" {
		t.Errorf("unexpected answer %q", resp.Answer.Text)
	}
}

func TestQueryService_GenerateFailureSurfaces(t *testing.T) {
	gen := &fakeGenerator{failFirst: &answer.CollaboratorError{Kind: "invalid_key", Message: "bad key"}}
	gen.response = "never reached"
	svc := newTestService(t, gen, &fakeSearcher{})

	_, err := svc.Handle(context.Background(), QueryRequest{Text: "How fast was convergence?"})
	if err == nil {
		t.Fatal("expected error for auth failure")
	}
	if gen.calls != 1 {
		t.Errorf("expected no retry on auth failure, got %d calls", gen.calls)
	}
}

func TestQueryService_DiscoveryReturnsPapers(t *testing.T) {
	gen := &fakeGenerator{response: "should not be called"}
	search := &fakeSearcher{papers: []arxiv.Paper{{ExternalID: "2301.00001v1", Title: "A Survey"}}}
	svc := newTestService(t, gen, search)

	resp, err := svc.Handle(context.Background(), QueryRequest{Text: "find papers about surveys", MaxPapers: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Intent != intent.Discovery {
		t.Errorf("expected discovery intent, got %q", resp.Intent)
	}
	if len(resp.Papers) != 1 || resp.Papers[0].ExternalID != "2301.00001v1" {
		t.Errorf("unexpected papers %+v", resp.Papers)
	}
	if resp.Answer != nil {
		t.Error("expected no grounded answer for discovery")
	}
	if gen.calls != 0 {
		t.Error("expected generator untouched for discovery")
	}
}

func TestQueryService_DiscoveryFailureIsNonFatal(t *testing.T) {
	search := &fakeSearcher{err: fmt.Errorf("network down")}
	svc := newTestService(t, &fakeGenerator{}, search)

	resp, err := svc.Handle(context.Background(), QueryRequest{Text: "find papers about anything"})
	if err != nil {
		t.Fatalf("expected non-fatal failure, got %v", err)
	}
	if resp.Warning == "" {
		t.Error("expected a warning when the search fails")
	}
	if resp.Papers == nil || len(resp.Papers) != 0 {
		t.Errorf("expected empty paper list, got %v", resp.Papers)
	}
}

func TestQueryService_RecordsHistory(t *testing.T) {
	gen := &fakeGenerator{response: "an answer"}
	svc := newTestService(t, gen, &fakeSearcher{})

	svc.Handle(context.Background(), QueryRequest{Text: "How fast was convergence?"})
	entries := svc.History().Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(entries))
	}
	if entries[0].Query != "How fast was convergence?" {
		t.Errorf("unexpected history query %q", entries[0].Query)
	}
	if entries[0].Intent != intent.Direct {
		t.Errorf("unexpected history intent %q", entries[0].Intent)
	}
}
