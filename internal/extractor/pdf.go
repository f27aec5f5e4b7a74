package extractor

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/dgallion1/paperquery/internal/document"
	pdflib "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFExtractor converts PDF bytes into a Document of content units.
// Layout heuristics: headings by font size/weight, tables by column
// regularity, figures and equations by caption and symbol patterns.
type PDFExtractor struct{}

// span is a horizontal run of text on one line. Gaps between spans wide
// enough to be column separators are preserved as span boundaries.
type span struct {
	text   string
	x0, x1 float64
}

// line is one visual line of text with position and style metadata.
type line struct {
	spans []span
	text  string
	page  int
	x0    float64
	x1    float64
	y     float64
	size  float64
	bold  bool
}

func (e *PDFExtractor) Extract(data []byte, filename string) (*document.Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, extractionErr(ReasonEmpty, nil)
	}

	// Preflight with pdfcpu: catches corrupted and encrypted files before
	// the text extractor touches them. PageCount is only populated by
	// validation, so ValidateContext must run before the empty check.
	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, preflightErr(err)
	}
	if err := api.ValidateContext(pdfCtx); err != nil {
		return nil, preflightErr(err)
	}
	if pdfCtx.Encrypt != nil {
		return nil, extractionErr(ReasonEncrypted, nil)
	}
	if pdfCtx.PageCount == 0 {
		return nil, extractionErr(ReasonEmpty, nil)
	}

	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, extractionErr(ReasonCorrupted, err)
	}

	doc := &document.Document{
		Title:     titleFromFilename(filename),
		Filename:  filename,
		PageCount: pdfCtx.PageCount,
		CreatedAt: time.Now().UTC(),
	}

	// Pass 1: collect positioned lines per page. A page that panics or
	// errors inside the PDF library is recorded as a warning and skipped.
	var pages [][]line
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		pageLines, err := readPageLines(reader, pageNum)
		if err != nil {
			doc.Warnings = append(doc.Warnings, document.Warning{
				Page:  pageNum,
				Cause: err.Error(),
			})
			continue
		}
		if len(pageLines) > 0 {
			pages = append(pages, pageLines)
		}
	}

	// Pass 2: classify lines into units using document-wide font statistics.
	bodySize := dominantFontSize(pages)
	levels := headingLevels(pages, bodySize)

	b := unitBuilder{doc: doc, bodySize: bodySize, levels: levels}
	for _, pageLines := range pages {
		b.addPage(pageLines)
	}
	b.flush()

	if len(doc.Units) == 0 {
		return nil, extractionErr(ReasonEmpty, fmt.Errorf("no extractable content"))
	}

	doc.References = collectReferences(doc)

	text := flattenText(doc)
	doc.ContentHash = fmt.Sprintf("%x", sha256.Sum256([]byte(text)))
	doc.ID = doc.ContentHash[:16]
	return doc, nil
}

// preflightErr classifies a pdfcpu read or validation failure. A PDF
// protected by a user password surfaces as ErrWrongPassword rather than
// a populated Encrypt dict, so it has to be caught here.
func preflightErr(err error) error {
	if errors.Is(err, pdfcpu.ErrWrongPassword) {
		return extractionErr(ReasonEncrypted, err)
	}
	return extractionErr(ReasonCorrupted, err)
}

// readPageLines extracts positioned text from one page and groups it into
// visual lines. The PDF library panics on some malformed content streams,
// so the whole page read is recover-protected.
func readPageLines(reader *pdflib.Reader, pageNum int) (result []line, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("page content panic: %v", r)
		}
	}()

	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return nil, fmt.Errorf("missing page object")
	}
	content := page.Content()

	// Bucket words by baseline Y, with a small tolerance for super/subscripts.
	const yTolerance = 2.0
	type bucket struct {
		y     float64
		words []pdflib.Text
	}
	var buckets []*bucket
	for _, t := range content.Text {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		var found *bucket
		for _, bk := range buckets {
			if math.Abs(bk.y-t.Y) <= yTolerance {
				found = bk
				break
			}
		}
		if found == nil {
			found = &bucket{y: t.Y}
			buckets = append(buckets, found)
		}
		found.words = append(found.words, t)
	}

	// Reading order: top of page first, then left to right.
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].y > buckets[j].y })

	for _, bk := range buckets {
		sort.Slice(bk.words, func(i, j int) bool { return bk.words[i].X < bk.words[j].X })
		ln := assembleLine(bk.words, pageNum)
		if strings.TrimSpace(ln.text) != "" {
			result = append(result, ln)
		}
	}
	return result, nil
}

// assembleLine merges positioned words into spans. A horizontal gap wider
// than about two characters starts a new span; span boundaries are the
// column-break candidates used by table detection.
func assembleLine(words []pdflib.Text, pageNum int) line {
	ln := line{page: pageNum, y: words[0].Y, x0: words[0].X}

	var cur span
	var curText strings.Builder
	var sizeSum float64
	boldCount := 0

	flushSpan := func() {
		cur.text = strings.TrimSpace(curText.String())
		if cur.text != "" {
			ln.spans = append(ln.spans, cur)
		}
		curText.Reset()
	}

	for i, w := range words {
		sizeSum += w.FontSize
		if isBoldFont(w.Font) {
			boldCount++
		}
		if i == 0 {
			cur = span{x0: w.X}
			curText.WriteString(w.S)
			cur.x1 = w.X + w.W
			continue
		}
		prev := words[i-1]
		gap := w.X - (prev.X + prev.W)
		colGap := 2.0 * math.Max(w.FontSize, 1.0)
		switch {
		case gap > colGap:
			flushSpan()
			cur = span{x0: w.X}
		case gap > 0.25*math.Max(w.FontSize, 1.0):
			curText.WriteString(" ")
		}
		curText.WriteString(w.S)
		cur.x1 = w.X + w.W
	}
	flushSpan()

	parts := make([]string, 0, len(ln.spans))
	for _, sp := range ln.spans {
		parts = append(parts, sp.text)
	}
	ln.text = strings.Join(parts, "  ")
	if len(ln.spans) > 0 {
		ln.x0 = ln.spans[0].x0
		ln.x1 = ln.spans[len(ln.spans)-1].x1
	}
	if len(words) > 0 {
		ln.size = sizeSum / float64(len(words))
	}
	ln.bold = boldCount*2 > len(words)
	return ln
}

func isBoldFont(font string) bool {
	f := strings.ToLower(font)
	return strings.Contains(f, "bold") || strings.Contains(f, "black") || strings.Contains(f, "heavy")
}

// dominantFontSize finds the body text size: the font size carrying the
// most characters across the document, rounded to half points.
func dominantFontSize(pages [][]line) float64 {
	weights := make(map[float64]int)
	for _, pageLines := range pages {
		for _, ln := range pageLines {
			weights[roundHalf(ln.size)] += len(ln.text)
		}
	}
	best, bestWeight := 10.0, 0
	for size, weight := range weights {
		if weight > bestWeight || (weight == bestWeight && size < best) {
			best, bestWeight = size, weight
		}
	}
	return best
}

func roundHalf(v float64) float64 {
	return math.Round(v*2) / 2
}

// headingLevels maps each heading-sized font to a level: the largest
// heading size is level 1, the next level 2, and so on. Headings detected
// at body size (bold or named sections) share the deepest level.
func headingLevels(pages [][]line, bodySize float64) map[float64]int {
	sizeSet := make(map[float64]bool)
	for _, pageLines := range pages {
		for _, ln := range pageLines {
			s := roundHalf(ln.size)
			if s >= bodySize+1.0 && len(strings.Fields(ln.text)) <= maxHeadingWords {
				sizeSet[s] = true
			}
		}
	}
	sizes := make([]float64, 0, len(sizeSet))
	for s := range sizeSet {
		sizes = append(sizes, s)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(sizes)))

	levels := make(map[float64]int, len(sizes))
	for i, s := range sizes {
		level := i + 1
		if level > 6 {
			level = 6
		}
		levels[s] = level
	}
	return levels
}

const maxHeadingWords = 14

// unitBuilder turns classified lines into ordered content units,
// maintaining the heading stack that yields each unit's SectionPath.
type unitBuilder struct {
	doc      *document.Document
	bodySize float64
	levels   map[float64]int

	// stack of open headings: id + level, outermost first.
	stack []stackEntry

	// pending paragraph accumulation.
	paraLines []line
}

type stackEntry struct {
	id    string
	level int
}

func (b *unitBuilder) addPage(lines []line) {
	for i := 0; i < len(lines); i++ {
		ln := lines[i]

		if level, ok := b.headingLevel(ln); ok {
			b.flush()
			b.pushHeading(ln, level)
			continue
		}

		if rows := tableRun(lines[i:]); len(rows) >= 2 {
			b.flush()
			b.appendTable(lines[i : i+len(rows)])
			i += len(rows) - 1
			continue
		}

		if isFigureCaption(ln.text) {
			b.flush()
			b.appendUnit(document.KindFigure, ln.text, []line{ln})
			continue
		}

		if isEquationLine(ln.text) {
			b.flush()
			b.appendUnit(document.KindEquation, ln.text, []line{ln})
			continue
		}

		// Paragraph continuation or start. A large vertical gap between
		// consecutive lines on the same page breaks the paragraph.
		if len(b.paraLines) > 0 {
			prev := b.paraLines[len(b.paraLines)-1]
			if prev.page == ln.page && prev.y-ln.y > 1.8*math.Max(prev.size, 1.0) {
				b.flush()
			}
		}
		b.paraLines = append(b.paraLines, ln)
	}
	b.flush()
}

// headingLevel decides whether a line is a heading and at which level.
func (b *unitBuilder) headingLevel(ln line) (int, bool) {
	words := len(strings.Fields(ln.text))
	if words == 0 || words > maxHeadingWords {
		return 0, false
	}
	s := roundHalf(ln.size)
	if level, ok := b.levels[s]; ok && s >= b.bodySize+1.0 {
		return level, true
	}
	// Body-sized headings: bold short lines without sentence punctuation,
	// or conventional all-caps section names (ABSTRACT, RESULTS, ...).
	deepest := len(b.levels) + 1
	if deepest > 6 {
		deepest = 6
	}
	if isKnownSectionName(ln.text) {
		return deepest, true
	}
	if ln.bold && !strings.HasSuffix(strings.TrimSpace(ln.text), ".") {
		return deepest, true
	}
	return 0, false
}

func (b *unitBuilder) pushHeading(ln line, level int) {
	for len(b.stack) > 0 && b.stack[len(b.stack)-1].level >= level {
		b.stack = b.stack[:len(b.stack)-1]
	}
	id := unitID(len(b.doc.Units))
	b.doc.Units = append(b.doc.Units, document.ContentUnit{
		ID:          id,
		Kind:        document.KindHeading,
		Text:        strings.TrimSpace(ln.text),
		Page:        ln.page,
		Region:      regionOf([]line{ln}),
		Level:       level,
		SectionPath: b.sectionPath(),
	})
	b.stack = append(b.stack, stackEntry{id: id, level: level})
}

func (b *unitBuilder) sectionPath() []string {
	if len(b.stack) == 0 {
		return nil
	}
	path := make([]string, len(b.stack))
	for i, e := range b.stack {
		path[i] = e.id
	}
	return path
}

func (b *unitBuilder) appendUnit(kind document.UnitKind, text string, lines []line) {
	b.doc.Units = append(b.doc.Units, document.ContentUnit{
		ID:          unitID(len(b.doc.Units)),
		Kind:        kind,
		Text:        strings.TrimSpace(text),
		Page:        lines[0].page,
		Region:      regionOf(lines),
		SectionPath: b.sectionPath(),
	})
}

func (b *unitBuilder) appendTable(rows []line) {
	cells := make([][]string, 0, len(rows))
	for _, row := range rows {
		rowCells := make([]string, 0, len(row.spans))
		for _, sp := range row.spans {
			rowCells = append(rowCells, sp.text)
		}
		cells = append(cells, rowCells)
	}
	b.doc.Units = append(b.doc.Units, document.ContentUnit{
		ID:          unitID(len(b.doc.Units)),
		Kind:        document.KindTable,
		Table:       cells,
		Page:        rows[0].page,
		Region:      regionOf(rows),
		SectionPath: b.sectionPath(),
	})
}

func (b *unitBuilder) flush() {
	if len(b.paraLines) == 0 {
		return
	}
	parts := make([]string, 0, len(b.paraLines))
	for _, ln := range b.paraLines {
		parts = append(parts, strings.TrimSpace(ln.text))
	}
	text := strings.Join(parts, " ")
	lines := b.paraLines
	b.paraLines = nil
	if strings.TrimSpace(text) != "" {
		b.appendUnit(document.KindParagraph, text, lines)
	}
}

// tableRun returns the prefix of lines that form a table: two or more
// consecutive multi-column lines whose column counts agree.
func tableRun(lines []line) []line {
	if len(lines) < 2 || len(lines[0].spans) < 2 {
		return nil
	}
	cols := len(lines[0].spans)
	run := []line{lines[0]}
	for _, ln := range lines[1:] {
		if len(ln.spans) < 2 || absInt(len(ln.spans)-cols) > 1 {
			break
		}
		if ln.page != run[0].page {
			break
		}
		run = append(run, ln)
	}
	if len(run) < 2 {
		return nil
	}
	return run
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

var figurePrefixes = []string{"figure ", "fig. ", "fig "}

func isFigureCaption(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	for _, p := range figurePrefixes {
		if strings.HasPrefix(t, p) {
			rest := t[len(p):]
			return len(rest) > 0 && rest[0] >= '0' && rest[0] <= '9'
		}
	}
	return false
}

const equationSymbols = "=+−×÷±∑∏∫√≤≥≈≠∞∂∇αβγδεθλμπσφω^"

// isEquationLine flags short lines dense in mathematical symbols.
func isEquationLine(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" || len([]rune(t)) > 80 {
		return false
	}
	symbols := 0
	total := 0
	for _, r := range t {
		if r == ' ' {
			continue
		}
		total++
		if strings.ContainsRune(equationSymbols, r) {
			symbols++
		}
	}
	return total > 0 && symbols >= 2 && float64(symbols)/float64(total) >= 0.15
}

func regionOf(lines []line) document.Region {
	r := document.Region{
		X0: math.Inf(1), Y0: math.Inf(1),
		X1: math.Inf(-1), Y1: math.Inf(-1),
	}
	for _, ln := range lines {
		r.X0 = math.Min(r.X0, ln.x0)
		r.X1 = math.Max(r.X1, ln.x1)
		r.Y0 = math.Min(r.Y0, ln.y)
		r.Y1 = math.Max(r.Y1, ln.y+ln.size)
	}
	return r
}

// flattenText concatenates all unit text for content hashing.
func flattenText(doc *document.Document) string {
	var sb strings.Builder
	for i := range doc.Units {
		if t := doc.Units[i].PlainText(); t != "" {
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(t)
		}
	}
	return sb.String()
}
