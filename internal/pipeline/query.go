package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/paperquery/internal/answer"
	"github.com/dgallion1/paperquery/internal/arxiv"
	"github.com/dgallion1/paperquery/internal/corpus"
	"github.com/dgallion1/paperquery/internal/intent"
	"github.com/dgallion1/paperquery/internal/retrieve"
)

// PaperSearcher is the external paper-search collaborator boundary.
type PaperSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]arxiv.Paper, error)
}

// QueryRequest is one user question against the active corpus.
type QueryRequest struct {
	Text       string
	DocIDs     []string
	RenderHTML bool
	MaxPapers  int
}

// QueryResponse carries either a grounded answer or, for discovery
// queries, a structured paper list. Warning is set when the paper
// search failed non-fatally.
type QueryResponse struct {
	Intent       intent.Intent  `json:"intent"`
	Answer       *answer.Answer `json:"answer,omitempty"`
	Papers       []arxiv.Paper  `json:"papers,omitempty"`
	Warning      string         `json:"warning,omitempty"`
	ContextUnits int            `json:"context_units"`
}

// QueryService runs the classify → retrieve → compose → generate path.
// It holds no per-document state: the corpus is read-only here.
type QueryService struct {
	corpus     *corpus.Corpus
	classifier intent.Classifier
	retriever  *retrieve.Retriever
	composer   *answer.Composer
	generator  answer.Generator
	papers     PaperSearcher
	stats      *answer.Stats
	history    *History
	log        *slog.Logger
}

func NewQueryService(
	store *corpus.Corpus,
	classifier intent.Classifier,
	retriever *retrieve.Retriever,
	composer *answer.Composer,
	generator answer.Generator,
	papers PaperSearcher,
	stats *answer.Stats,
	log *slog.Logger,
) *QueryService {
	return &QueryService{
		corpus:     store,
		classifier: classifier,
		retriever:  retriever,
		composer:   composer,
		generator:  generator,
		papers:     papers,
		stats:      stats,
		history:    NewHistory(10),
		log:        log,
	}
}

// Handle answers one query. Discovery queries go to the paper-search
// collaborator and never reach the retriever; everything else is
// answered from the corpus with provenance attached.
func (s *QueryService) Handle(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	in := s.classifier.Classify(req.Text)
	log := s.log.With("intent", in)

	if in == intent.Discovery {
		return s.handleDiscovery(ctx, req)
	}

	q := retrieve.Query{Text: req.Text, Intent: in, DocIDs: req.DocIDs}
	result := s.retriever.Retrieve(s.corpus.List(), q)
	if result.Empty() {
		log.Info("no context found")
	}

	composed := s.composer.Compose(result, q)
	raw, err := RetryOnce(ctx, func(ctx context.Context) (string, error) {
		return s.generator.Generate(ctx, composed)
	})
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	ans, err := answer.Finalize(raw, composed, req.RenderHTML)
	if err != nil {
		return nil, err
	}
	s.history.Add(HistoryEntry{Query: req.Text, Intent: in, Answer: ans.Text, At: time.Now().UTC()})

	return &QueryResponse{
		Intent:       in,
		Answer:       &ans,
		ContextUnits: len(composed.Provenance),
	}, nil
}

// handleDiscovery forwards the query to the paper-search collaborator.
// Failures are non-fatal: the response carries an empty list plus a
// warning instead of an error.
func (s *QueryService) handleDiscovery(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	start := time.Now()
	papers, err := RetryOnce(ctx, func(ctx context.Context) ([]arxiv.Paper, error) {
		return s.papers.Search(ctx, req.Text, req.MaxPapers)
	})
	if s.stats != nil {
		s.stats.Record(answer.OpPaperSearch, time.Since(start), err != nil)
	}

	resp := &QueryResponse{Intent: intent.Discovery}
	if err != nil {
		s.log.Warn("paper search failed", "error", err)
		resp.Papers = []arxiv.Paper{}
		resp.Warning = fmt.Sprintf("paper search unavailable: %s", err)
		return resp, nil
	}
	resp.Papers = papers
	s.history.Add(HistoryEntry{
		Query:  req.Text,
		Intent: intent.Discovery,
		Answer: fmt.Sprintf("%d papers found", len(papers)),
		At:     time.Now().UTC(),
	})
	return resp, nil
}

// History returns the service's conversation history.
func (s *QueryService) History() *History {
	return s.history
}
