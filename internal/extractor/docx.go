package extractor

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/dgallion1/paperquery/internal/document"
	"github.com/fumiama/go-docx"
)

// DOCXExtractor handles .docx files. Word documents carry no page
// geometry, so every unit reports page 1 and an empty bounding region;
// heading levels come from paragraph styles instead of font sizes.
type DOCXExtractor struct{}

func (e *DOCXExtractor) Extract(data []byte, filename string) (*document.Document, error) {
	if len(data) == 0 {
		return nil, extractionErr(ReasonEmpty, nil)
	}

	parsed, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, extractionErr(ReasonCorrupted, err)
	}

	doc := &document.Document{
		Title:     titleFromFilename(filename),
		Filename:  filename,
		PageCount: 1,
		CreatedAt: time.Now().UTC(),
	}

	b := unitBuilder{doc: doc}
	var para strings.Builder

	flushPara := func() {
		text := strings.TrimSpace(para.String())
		para.Reset()
		if text == "" {
			return
		}
		doc.Units = append(doc.Units, document.ContentUnit{
			ID:          unitID(len(doc.Units)),
			Kind:        document.KindParagraph,
			Text:        text,
			Page:        1,
			SectionPath: b.sectionPath(),
		})
	}

	for _, item := range parsed.Document.Body.Items {
		p, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		level := docxHeadingLevel(p)
		text := docxParagraphText(p)
		if text == "" {
			continue
		}
		if level > 0 {
			flushPara()
			for len(b.stack) > 0 && b.stack[len(b.stack)-1].level >= level {
				b.stack = b.stack[:len(b.stack)-1]
			}
			id := unitID(len(doc.Units))
			doc.Units = append(doc.Units, document.ContentUnit{
				ID:          id,
				Kind:        document.KindHeading,
				Text:        text,
				Page:        1,
				Level:       level,
				SectionPath: b.sectionPath(),
			})
			b.stack = append(b.stack, stackEntry{id: id, level: level})
			continue
		}
		flushPara()
		para.WriteString(text)
	}
	flushPara()

	if len(doc.Units) == 0 {
		return nil, extractionErr(ReasonEmpty, fmt.Errorf("no extractable content"))
	}

	doc.References = collectReferences(doc)

	text := flattenText(doc)
	doc.ContentHash = fmt.Sprintf("%x", sha256.Sum256([]byte(text)))
	doc.ID = doc.ContentHash[:16]
	return doc, nil
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if !strings.HasPrefix(style, "heading") {
		return 0
	}
	switch style[len("heading"):] {
	case "1":
		return 1
	case "2":
		return 2
	case "3":
		return 3
	case "4":
		return 4
	case "5":
		return 5
	case "6":
		return 6
	}
	return 0
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
