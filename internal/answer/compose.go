// Package answer composes grounded requests for the external
// answer-generation collaborator and post-processes its responses.
package answer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/dgallion1/paperquery/internal/document"
	"github.com/dgallion1/paperquery/internal/intent"
	"github.com/dgallion1/paperquery/internal/retrieve"
	"github.com/pkoukk/tiktoken-go"
)

// Provenance ties one context block back to its source unit.
type Provenance struct {
	DocID  string `json:"doc_id"`
	Page   int    `json:"page"`
	UnitID string `json:"unit_id"`
}

// Request is the provenance-tagged payload sent to the generation
// collaborator. Single-use: built per query and discarded afterwards.
type Request struct {
	Query      string
	Intent     intent.Intent
	Context    string
	Provenance []Provenance
}

// Composer assembles Requests under a token budget. Retrieval already
// capped the unit count; the token cap bounds the outbound request size,
// dropping the lowest-scoring units first and never truncating mid-unit.
type Composer struct {
	maxContextTokens int
	counter          *tokenCounter
}

func NewComposer(maxContextTokens int) *Composer {
	if maxContextTokens <= 0 {
		maxContextTokens = 8000
	}
	return &Composer{
		maxContextTokens: maxContextTokens,
		counter:          &tokenCounter{},
	}
}

// Compose builds the grounded request from a retrieval result. An empty
// result produces a request with empty context; the prompt layer tells
// the model to say so rather than invent an answer.
func (c *Composer) Compose(res retrieve.Result, q retrieve.Query) Request {
	req := Request{Query: q.Text, Intent: q.Intent}

	var sb strings.Builder
	used := 0
	for _, su := range res.Units {
		block := contextBlock(su.DocID, su.Unit)
		tokens := c.counter.count(block)
		if used > 0 && used+tokens > c.maxContextTokens {
			break
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(block)
		used += tokens
		req.Provenance = append(req.Provenance, Provenance{
			DocID:  su.DocID,
			Page:   su.Unit.Page,
			UnitID: su.Unit.ID,
		})
	}
	req.Context = sb.String()
	return req
}

// contextBlock renders one unit with its provenance tag. Tables keep
// their row/column structure so the model can answer numeric queries.
func contextBlock(docID string, u *document.ContentUnit) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[doc=%s page=%d unit=%s kind=%s]\n", docID, u.Page, u.ID, u.Kind)
	if u.Kind == document.KindTable {
		for _, row := range u.Table {
			sb.WriteString(strings.Join(row, " | "))
			sb.WriteString("\n")
		}
	} else {
		sb.WriteString(u.Text)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// tokenCounter counts tokens with tiktoken, initialized lazily since the
// encoder loads its vocabulary on first use. Falls back to a words-based
// estimate if the encoding is unavailable.
type tokenCounter struct {
	once sync.Once
	enc  *tiktoken.Tiktoken
}

func (tc *tokenCounter) count(text string) int {
	tc.once.Do(func() {
		enc, err := tiktoken.EncodingForModel("gpt-3.5-turbo")
		if err == nil {
			tc.enc = enc
		}
	})
	if tc.enc != nil {
		return len(tc.enc.Encode(text, nil, nil))
	}
	return estimateTokens(text)
}

// estimateTokens approximates ~1.33 tokens per English word.
func estimateTokens(text string) int {
	words := len(strings.Fields(text))
	tokens := int(float64(words) * 1.33)
	if tokens < 1 && len(text) > 0 {
		tokens = 1
	}
	return tokens
}
