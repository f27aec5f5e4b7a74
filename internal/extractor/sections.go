package extractor

import (
	"regexp"
	"strings"

	"github.com/dgallion1/paperquery/internal/document"
)

// knownSectionNames is the conventional academic-paper section vocabulary.
// An all-caps or title-case line matching one of these is treated as a
// heading even when its font gives no signal.
var knownSectionNames = map[string]bool{
	"abstract":         true,
	"introduction":     true,
	"background":       true,
	"related work":     true,
	"methodology":      true,
	"methods":          true,
	"experiments":      true,
	"evaluation":       true,
	"results":          true,
	"discussion":       true,
	"conclusion":       true,
	"conclusions":      true,
	"acknowledgments":  true,
	"acknowledgements": true,
	"references":       true,
	"bibliography":     true,
	"appendix":         true,
}

var sectionNumberPrefix = regexp.MustCompile(`^(\d+(\.\d+)*\.?|[IVXLC]+\.)\s+`)

// isKnownSectionName reports whether a line reads as a conventional
// section heading, with optional numbering ("3. Results", "IV. METHODS").
func isKnownSectionName(text string) bool {
	t := strings.TrimSpace(text)
	t = sectionNumberPrefix.ReplaceAllString(t, "")
	return knownSectionNames[strings.ToLower(t)]
}

// isReferenceHeading matches the section that holds the bibliography.
func isReferenceHeading(text string) bool {
	t := strings.ToLower(sectionNumberPrefix.ReplaceAllString(strings.TrimSpace(text), ""))
	return t == "references" || t == "bibliography"
}

// collectReferences gathers bibliography entries: the paragraph units in
// the subtree of a References/Bibliography heading, split on entry markers.
func collectReferences(doc *document.Document) []string {
	var headingID string
	for i := range doc.Units {
		u := &doc.Units[i]
		if u.Kind == document.KindHeading && isReferenceHeading(u.Text) {
			headingID = u.ID
			break
		}
	}
	if headingID == "" {
		return nil
	}

	var refs []string
	for i := range doc.Units {
		u := &doc.Units[i]
		if u.Kind != document.KindParagraph || !hasAncestor(u, headingID) {
			continue
		}
		refs = append(refs, splitReferenceEntries(u.Text)...)
	}
	return refs
}

func hasAncestor(u *document.ContentUnit, headingID string) bool {
	for _, id := range u.SectionPath {
		if id == headingID {
			return true
		}
	}
	return false
}

// splitReferenceEntries splits a block of bibliography text into entries
// on "[n]" markers. Fragments shorter than a plausible citation are dropped.
func splitReferenceEntries(text string) []string {
	marks := regexp.MustCompile(`\[\d+\]`).FindAllStringIndex(text, -1)
	var parts []string
	if len(marks) > 1 {
		for i, m := range marks {
			end := len(text)
			if i+1 < len(marks) {
				end = marks[i+1][0]
			}
			parts = append(parts, text[m[0]:end])
		}
	} else {
		parts = []string{text}
	}

	var refs []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if len(p) > 20 {
			refs = append(refs, p)
		}
	}
	return refs
}
