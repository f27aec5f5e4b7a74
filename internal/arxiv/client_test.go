package arxiv

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgallion1/paperquery/internal/answer"
)

const atomFixture = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2301.00001v1</id>
    <title>Quantum  Error
      Correction Surveyed</title>
    <summary>A survey of &lt;b&gt;stabilizer&lt;/b&gt; codes.</summary>
    <published>2023-01-02T10:00:00Z</published>
    <author><name>Alice Example</name></author>
    <author><name>Bob Sample</name></author>
    <link href="http://arxiv.org/abs/2301.00001v1" rel="alternate" type="text/html"/>
    <link href="http://arxiv.org/pdf/2301.00001v1" rel="related" title="pdf" type="application/pdf"/>
    <category term="quant-ph"/>
  </entry>
</feed>`

func TestSearch_ParsesAtomFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/query" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("search_query"); got != "all:quantum error correction" {
			t.Errorf("unexpected search_query %q", got)
		}
		if got := r.URL.Query().Get("max_results"); got != "3" {
			t.Errorf("unexpected max_results %q", got)
		}
		w.Write([]byte(atomFixture))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	papers, err := c.Search(context.Background(), "quantum error correction", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(papers) != 1 {
		t.Fatalf("expected 1 paper, got %d", len(papers))
	}

	p := papers[0]
	if p.ExternalID != "2301.00001v1" {
		t.Errorf("expected external id from abs URL, got %q", p.ExternalID)
	}
	if p.Title != "Quantum Error Correction Surveyed" {
		t.Errorf("expected collapsed title, got %q", p.Title)
	}
	if p.Abstract != "A survey of stabilizer codes." {
		t.Errorf("expected markup stripped from abstract, got %q", p.Abstract)
	}
	if len(p.Authors) != 2 || p.Authors[0] != "Alice Example" {
		t.Errorf("unexpected authors %v", p.Authors)
	}
	if p.DownloadURL != "http://arxiv.org/pdf/2301.00001v1" {
		t.Errorf("expected pdf link, got %q", p.DownloadURL)
	}
	if len(p.Categories) != 1 || p.Categories[0] != "quant-ph" {
		t.Errorf("unexpected categories %v", p.Categories)
	}
	if p.Published.Year() != 2023 {
		t.Errorf("unexpected published date %v", p.Published)
	}
}

func TestSearch_BadFeedIsInvalidResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not xml at all <"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.Search(context.Background(), "anything", 1)
	var cerr *answer.CollaboratorError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected collaborator error, got %v", err)
	}
	if cerr.Kind != "invalid_response" {
		t.Errorf("expected invalid_response, got %q", cerr.Kind)
	}
	if cerr.Retryable {
		t.Error("expected invalid_response to not be retryable")
	}
}

func TestSearch_ServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.Search(context.Background(), "anything", 1)
	if !answer.IsRetryable(err) {
		t.Fatalf("expected retryable error for 5xx, got %v", err)
	}
}

func TestDownload(t *testing.T) {
	body := []byte("%PDF-1.7 pretend")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pdf/2301.00001v1" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write(body)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	data, filename, err := c.Download(context.Background(), "2301.00001v1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != string(body) {
		t.Error("unexpected pdf body")
	}
	if filename != "2301.00001v1.pdf" {
		t.Errorf("unexpected filename %q", filename)
	}
}

func TestDownload_EmptyID(t *testing.T) {
	c := NewClient("http://localhost:0", time.Second)
	if _, _, err := c.Download(context.Background(), "  "); err == nil {
		t.Error("expected error for empty paper id")
	}
}

func TestStripMarkup(t *testing.T) {
	if got := stripMarkup("plain text"); got != "plain text" {
		t.Errorf("expected passthrough, got %q", got)
	}
	if got := stripMarkup("<p>hello <em>world</em></p>"); got != "hello world" {
		t.Errorf("expected tags removed, got %q", got)
	}
}
