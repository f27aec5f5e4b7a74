// Package intent maps raw user queries onto the fixed set of query
// intents. Classification never fails; anything unrecognized is a
// direct lookup.
package intent

import "regexp"

// Intent is the classification of a user query.
type Intent string

const (
	// Direct is a specific factual question answered from matching units.
	Direct Intent = "direct"
	// Summary condenses a section or a whole document.
	Summary Intent = "summary"
	// Extraction targets tabular or numeric data.
	Extraction Intent = "extraction"
	// Discovery asks to find papers in the external repository.
	Discovery Intent = "discovery"
)

// Classifier assigns an intent to a raw query string. Implementations
// must be total: unresolvable input maps to Direct.
type Classifier interface {
	Classify(query string) Intent
}

// RuleClassifier is the default keyword/pattern classifier. Discovery
// wins over the other intents since those queries must never reach the
// retriever.
type RuleClassifier struct{}

var _ Classifier = RuleClassifier{}

var (
	discoveryPattern = regexp.MustCompile(
		`(?i)(find\s+(me\s+)?(papers?|research|articles?|publications?)|` +
			`search\s+(for\s+)?(papers?|research|articles?|publications?)|` +
			`(papers?|articles?|publications?)\s+(about|on|related\s+to)|` +
			`related\s+(papers?|work)|arxiv|literature\s+search)`)

	summaryPattern = regexp.MustCompile(
		`(?i)(summar(y|ize|ise)|overview|tl;?dr|condense|` +
			`main\s+(findings|points|ideas|contributions)|` +
			`what\s+is\s+(this|the)\s+(paper|document|section|article)\s+about|` +
			`key\s+takeaways|gist\s+of)`)

	extractionPattern = regexp.MustCompile(
		`(?i)(extract|table|how\s+many|how\s+much|what\s+(percentage|fraction|value|number)|` +
			`numeric|statistics?|metrics?|figures?\s+for|data\s+(from|in|points)|` +
			`list\s+(all|the)\s+(values|numbers|results))`)
)

func (RuleClassifier) Classify(query string) Intent {
	switch {
	case discoveryPattern.MatchString(query):
		return Discovery
	case summaryPattern.MatchString(query):
		return Summary
	case extractionPattern.MatchString(query):
		return Extraction
	default:
		return Direct
	}
}
