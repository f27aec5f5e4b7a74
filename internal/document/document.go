package document

import (
	"strings"
	"time"
)

// UnitKind classifies a content unit. Downstream logic switches on kind.
type UnitKind string

const (
	KindHeading   UnitKind = "heading"
	KindParagraph UnitKind = "paragraph"
	KindTable     UnitKind = "table"
	KindFigure    UnitKind = "figure"
	KindEquation  UnitKind = "equation"
)

// Region is a bounding box in page coordinates (points, origin bottom-left).
type Region struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// ContentUnit is one extracted structural element of a document.
type ContentUnit struct {
	ID   string   `json:"id"`
	Kind UnitKind `json:"kind"`

	// Text holds the unit's prose. For tables it is empty and Table
	// carries the payload; for figures it holds the caption, if any.
	Text  string     `json:"text,omitempty"`
	Table [][]string `json:"table,omitempty"`

	Page   int    `json:"page"`
	Region Region `json:"region"`

	// Level is the heading level (1-based) for heading units, 0 otherwise.
	Level int `json:"level,omitempty"`

	// SectionPath lists the IDs of ancestor heading units, outermost first.
	// Every entry resolves to a heading unit in the same document.
	SectionPath []string `json:"section_path,omitempty"`
}

// PlainText returns the unit's content as prose. Table cells are joined
// row by row so lexical indexing sees their contents.
func (u *ContentUnit) PlainText() string {
	if u.Kind != KindTable {
		return u.Text
	}
	var sb strings.Builder
	for _, row := range u.Table {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(strings.Join(row, " | "))
	}
	return sb.String()
}

// Warning records a non-fatal extraction problem on a single page.
type Warning struct {
	Page  int    `json:"page"`
	Cause string `json:"cause"`
}

// Document is the indexed representation of one uploaded file. It is
// immutable once published into the corpus; re-extraction produces a
// replacement, never an in-place mutation.
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Filename  string    `json:"filename"`
	PageCount int       `json:"page_count"`
	CreatedAt time.Time `json:"created_at"`

	// Units are ordered by page, then by position within the page.
	Units []ContentUnit `json:"units"`

	// References holds the entries of a References/Bibliography section.
	References []string `json:"references,omitempty"`

	// Warnings records pages that failed to extract.
	Warnings []Warning `json:"warnings,omitempty"`

	// ContentHash is the SHA-256 of the extracted text, used for dedup.
	ContentHash string `json:"content_hash"`
}

// Unit returns the unit with the given ID, or nil.
func (d *Document) Unit(id string) *ContentUnit {
	for i := range d.Units {
		if d.Units[i].ID == id {
			return &d.Units[i]
		}
	}
	return nil
}

// Headings returns the document's heading units in order.
func (d *Document) Headings() []ContentUnit {
	var hs []ContentUnit
	for _, u := range d.Units {
		if u.Kind == KindHeading {
			hs = append(hs, u)
		}
	}
	return hs
}

// WordCount counts whitespace-separated words across all units.
func (d *Document) WordCount() int {
	n := 0
	for i := range d.Units {
		n += len(strings.Fields(d.Units[i].PlainText()))
	}
	return n
}

// Summary is the condensed per-document view served by the API.
type Summary struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Filename    string   `json:"filename"`
	Pages       int      `json:"pages"`
	Sections    []string `json:"sections"`
	TableCount  int      `json:"table_count"`
	FigureCount int      `json:"figure_count"`
	References  int      `json:"reference_count"`
	WordCount   int      `json:"word_count"`
	Warnings    int      `json:"warning_count"`
}

// Summarize builds the Summary for a document.
func (d *Document) Summarize() Summary {
	s := Summary{
		ID:         d.ID,
		Title:      d.Title,
		Filename:   d.Filename,
		Pages:      d.PageCount,
		References: len(d.References),
		WordCount:  d.WordCount(),
		Warnings:   len(d.Warnings),
	}
	for _, u := range d.Units {
		switch u.Kind {
		case KindHeading:
			s.Sections = append(s.Sections, u.Text)
		case KindTable:
			s.TableCount++
		case KindFigure:
			s.FigureCount++
		}
	}
	return s
}
