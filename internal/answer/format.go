package answer

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
)

// Citation is one (document, page) pair an answer was grounded on.
type Citation struct {
	DocID string `json:"doc_id"`
	Page  int    `json:"page"`
}

// Answer is the post-processed result of a generation call.
type Answer struct {
	Text      string     `json:"text"`
	HTML      string     `json:"html,omitempty"`
	Citations []Citation `json:"citations"`
}

var citationTag = regexp.MustCompile(`\[doc=([^\s\]]+)\s+page=(\d+)[^\]]*\]`)

// Finalize attaches provenance to a raw model response. Citations are
// the (doc, page) pairs whose tags the model echoed in the text; when it
// echoed none, the full provenance of the composed context is used. The
// answer is markdown; renderHTML also produces an HTML rendering.
func Finalize(raw string, req Request, renderHTML bool) (Answer, error) {
	a := Answer{Text: strings.TrimSpace(raw)}

	seen := make(map[Citation]bool)
	add := func(c Citation) {
		if !seen[c] {
			seen[c] = true
			a.Citations = append(a.Citations, c)
		}
	}

	for _, m := range citationTag.FindAllStringSubmatch(a.Text, -1) {
		var page int
		fmt.Sscanf(m[2], "%d", &page)
		add(Citation{DocID: m[1], Page: page})
	}
	if len(a.Citations) == 0 {
		for _, p := range req.Provenance {
			add(Citation{DocID: p.DocID, Page: p.Page})
		}
	}
	if a.Citations == nil {
		a.Citations = []Citation{}
	}

	if renderHTML {
		var buf bytes.Buffer
		if err := goldmark.Convert([]byte(a.Text), &buf); err != nil {
			return a, fmt.Errorf("render answer html: %w", err)
		}
		a.HTML = buf.String()
	}
	return a, nil
}
