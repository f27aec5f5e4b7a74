// Package arxiv is the client for the external paper-search collaborator.
// Search failures are non-fatal to the query pipeline: callers surface an
// empty list plus a warning instead of an error.
package arxiv

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dgallion1/paperquery/internal/answer"
	"golang.org/x/net/html"
)

const DefaultBaseURL = "https://export.arxiv.org/api"

// Paper is one candidate result from the paper repository.
type Paper struct {
	ExternalID  string    `json:"external_id"`
	Title       string    `json:"title"`
	Authors     []string  `json:"authors"`
	Abstract    string    `json:"abstract"`
	Published   time.Time `json:"published"`
	DownloadURL string    `json:"download_url"`
	Categories  []string  `json:"categories,omitempty"`
}

// Client talks to the arXiv Atom API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID        string       `xml:"id"`
	Title     string       `xml:"title"`
	Summary   string       `xml:"summary"`
	Published string       `xml:"published"`
	Authors   []atomAuthor `xml:"author"`
	Links     []atomLink   `xml:"link"`
	Category  []atomCat    `xml:"category"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomLink struct {
	Href  string `xml:"href,attr"`
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
}

type atomCat struct {
	Term string `xml:"term,attr"`
}

// Search queries the repository and returns candidates in the API's
// relevance order.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]Paper, error) {
	if maxResults <= 0 {
		maxResults = 5
	}
	q := url.Values{}
	q.Set("search_query", "all:"+query)
	q.Set("start", "0")
	q.Set("max_results", fmt.Sprintf("%d", maxResults))
	q.Set("sortBy", "relevance")

	body, err := c.get(ctx, c.baseURL+"/query?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, &answer.CollaboratorError{Kind: "invalid_response", Message: fmt.Sprintf("decode feed: %s", err)}
	}

	papers := make([]Paper, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		papers = append(papers, entryToPaper(e))
	}
	return papers, nil
}

// Download fetches the PDF for a paper by its arXiv ID and returns the
// bytes plus a filename suitable for re-ingestion.
func (c *Client) Download(ctx context.Context, externalID string) ([]byte, string, error) {
	id := strings.TrimSpace(externalID)
	if id == "" {
		return nil, "", fmt.Errorf("empty paper id")
	}
	pdfURL := strings.Replace(c.baseURL, "/api", "", 1) + "/pdf/" + id
	// The API host differs from the PDF host on the real service.
	if c.baseURL == DefaultBaseURL {
		pdfURL = "https://arxiv.org/pdf/" + id
	}

	data, err := c.get(ctx, pdfURL)
	if err != nil {
		return nil, "", err
	}
	if len(data) == 0 {
		return nil, "", &answer.CollaboratorError{Kind: "invalid_response", Message: "empty pdf body"}
	}
	filename := strings.ReplaceAll(id, "/", "_") + ".pdf"
	return data, filename, nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		kind := "unavailable"
		if errors.Is(err, context.DeadlineExceeded) {
			kind = "timeout"
		}
		return nil, &answer.CollaboratorError{Kind: kind, Message: err.Error(), Retryable: true}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, &answer.CollaboratorError{Kind: "invalid_response", Message: fmt.Sprintf("read body: %s", err)}
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &answer.CollaboratorError{Kind: "rate_limited", Message: "arxiv rate limit", Retryable: true}
	case resp.StatusCode >= 500:
		return nil, &answer.CollaboratorError{Kind: "unavailable", Message: fmt.Sprintf("status %d", resp.StatusCode), Retryable: true}
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("arxiv status %d", resp.StatusCode)
	}
	return body, nil
}

func entryToPaper(e atomEntry) Paper {
	p := Paper{
		Title:    collapseSpace(stripMarkup(e.Title)),
		Abstract: collapseSpace(stripMarkup(e.Summary)),
	}

	// Entry IDs look like http://arxiv.org/abs/2301.00001v1.
	if i := strings.LastIndex(e.ID, "/abs/"); i >= 0 {
		p.ExternalID = e.ID[i+len("/abs/"):]
	} else {
		p.ExternalID = e.ID
	}

	for _, a := range e.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			p.Authors = append(p.Authors, name)
		}
	}
	for _, l := range e.Links {
		if l.Title == "pdf" || l.Type == "application/pdf" {
			p.DownloadURL = l.Href
			break
		}
	}
	for _, cat := range e.Category {
		if cat.Term != "" {
			p.Categories = append(p.Categories, cat.Term)
		}
	}
	if t, err := time.Parse(time.RFC3339, e.Published); err == nil {
		p.Published = t
	}
	return p
}

// stripMarkup removes any HTML markup that slipped into feed fields,
// keeping only text content.
func stripMarkup(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}
	node, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)
	return sb.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
