package answer

import (
	"strings"
	"testing"

	"github.com/dgallion1/paperquery/internal/intent"
)

func TestBuildPrompt_IncludesContextAndQuestion(t *testing.T) {
	req := Request{
		Query:   "How fast is convergence?",
		Intent:  intent.Direct,
		Context: "[doc=doc-a page=2 unit=u0003 kind=paragraph]\nConvergence was fast.",
	}
	prompt := BuildPrompt(req)

	if !strings.Contains(prompt, req.Context) {
		t.Error("expected context in prompt")
	}
	if !strings.Contains(prompt, "Question: How fast is convergence?") {
		t.Error("expected question in prompt")
	}
	if !strings.Contains(prompt, "Answer the question directly") {
		t.Error("expected direct instructions")
	}
}

func TestBuildPrompt_IntentInstructions(t *testing.T) {
	base := Request{Query: "q", Context: "ctx"}

	sum := base
	sum.Intent = intent.Summary
	if !strings.Contains(BuildPrompt(sum), "Summarize the provided content") {
		t.Error("expected summary instructions")
	}

	ext := base
	ext.Intent = intent.Extraction
	if !strings.Contains(BuildPrompt(ext), "Extract the specific values") {
		t.Error("expected extraction instructions")
	}
}

func TestBuildPrompt_EmptyContextPlaceholder(t *testing.T) {
	prompt := BuildPrompt(Request{Query: "q", Intent: intent.Direct})
	if !strings.Contains(prompt, "(no matching content was found in the corpus)") {
		t.Error("expected empty-context placeholder")
	}
}
