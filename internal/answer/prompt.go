package answer

import (
	"fmt"
	"strings"

	"github.com/dgallion1/paperquery/internal/intent"
)

const systemPrompt = `You are a research assistant that answers questions about uploaded documents. ` +
	`Every context block starts with a provenance tag like [doc=... page=... unit=...]. ` +
	`When you state a fact taken from a block, cite it inline as [doc=<id> page=<n>]. ` +
	`Answer only from the provided context. If the context does not contain the answer, say so plainly.`

const directInstructions = `Answer the question directly and concisely from the context.
Quote exact wording where it matters and cite each fact.`

const summaryInstructions = `Summarize the provided content. Cover:
1. Key methodology
2. Main findings and results
3. Conclusions and implications
Keep the structure of the source; cite each section you draw from.`

const extractionInstructions = `Extract the specific values the user asked for. Focus on:
1. Exact numbers, metrics, and units as written
2. Table cells relevant to the question
3. Direct quotes when wording matters
Report values verbatim and cite the table or passage each one came from.`

// BuildPrompt renders the user-turn prompt for a composed request.
func BuildPrompt(req Request) string {
	var sb strings.Builder

	ctx := req.Context
	if ctx == "" {
		ctx = "(no matching content was found in the corpus)"
	}
	fmt.Fprintf(&sb, "Context:\n%s\n\n", ctx)
	fmt.Fprintf(&sb, "Question: %s\n\n", req.Query)

	switch req.Intent {
	case intent.Summary:
		sb.WriteString(summaryInstructions)
	case intent.Extraction:
		sb.WriteString(extractionInstructions)
	default:
		sb.WriteString(directInstructions)
	}
	return sb.String()
}
