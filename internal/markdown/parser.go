package markdown

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/markdownkeeper/markdownkeeper/internal/core/domain"
)

var (
	headingRe = regexp.MustCompile(`(?m)^(#{1,6})[ \t]+(.+?)[ \t]*$`)
	tokenRe   = regexp.MustCompile(`\S+`)
	schemeRe  = regexp.MustCompile(`(?i)^[a-z][a-z0-9+.-]*://`)
)

const (
	maxChunkWords   = 120
	maxSummaryWords = 150
)

// Parse is the Parser's pure function: raw Markdown text in, a
// domain.ParsedDocument out. It never touches the filesystem and never
// fails — malformed frontmatter degrades to an empty frontmatter map
// rather than an error, per the Ingestor's lenient-parse contract.
func Parse(raw string) domain.ParsedDocument {
	frontmatter, body := parseFrontmatter(raw)

	headingStack := newHeadingStack()
	var headings []domain.ParsedHeading
	var headingTexts []string
	var chunks []domain.ParsedChunk

	for _, block := range splitBlankLineBlocks(body) {
		var contentLines []string
		for _, line := range block {
			if m := headingRe.FindStringSubmatch(line); m != nil {
				level := len(m[1])
				htext := strings.TrimSpace(m[2])
				anchor := slugify(htext)
				headings = append(headings, domain.ParsedHeading{Level: level, Text: htext, Anchor: anchor})
				headingTexts = append(headingTexts, htext)
				headingStack.push(level, htext)
				continue
			}
			contentLines = append(contentLines, line)
		}

		content := strings.TrimSpace(strings.Join(contentLines, "\n"))
		if content == "" {
			continue
		}
		path := headingStack.path()
		for _, piece := range splitWords(content, maxChunkWords) {
			chunks = append(chunks, domain.ParsedChunk{
				HeadingPath:   path,
				Content:       piece,
				TokenEstimate: len(tokenRe.FindAllString(piece, -1)),
			})
		}
	}

	links := extractLinks(body)

	title := frontmatterString(frontmatter, "title")
	if title == "" {
		if len(headings) > 0 {
			title = headings[0].Text
		} else {
			title = "Untitled"
		}
	}

	summary := frontmatterString(frontmatter, "summary")
	if summary == "" {
		summary = buildSummary(title, headings, body)
	}

	tags := frontmatterList(frontmatter, "tags")
	category := frontmatterString(frontmatter, "category")

	concepts := frontmatterList(frontmatter, "concepts")
	if len(concepts) == 0 {
		concepts = extractConcepts(body, headingTexts)
	}

	sum := sha256.Sum256([]byte(raw))

	return domain.ParsedDocument{
		Frontmatter:   frontmatter,
		Title:         title,
		Summary:       summary,
		Category:      category,
		Tags:          tags,
		Concepts:      concepts,
		Headings:      headings,
		Links:         links,
		Chunks:        chunks,
		TokenEstimate: len(tokenRe.FindAllString(body, -1)),
		ContentHash:   hex.EncodeToString(sum[:]),
	}
}

// buildSummary implements the spec's structured auto-summary:
// "{title}. Covers: {h2 list}. {first non-heading paragraph}",
// truncated to 150 whitespace-separated tokens.
func buildSummary(title string, headings []domain.ParsedHeading, body string) string {
	var h2s []string
	for _, h := range headings {
		if h.Level == 2 {
			h2s = append(h2s, h.Text)
		}
	}

	firstParagraph := ""
	for _, block := range splitBlankLineBlocks(body) {
		var lines []string
		for _, line := range block {
			if headingRe.MatchString(line) {
				continue
			}
			lines = append(lines, line)
		}
		paragraph := strings.TrimSpace(strings.Join(lines, " "))
		if paragraph != "" {
			firstParagraph = paragraph
			break
		}
	}

	var b strings.Builder
	b.WriteString(title)
	b.WriteString(".")
	if len(h2s) > 0 {
		b.WriteString(" Covers: ")
		b.WriteString(strings.Join(h2s, ", "))
		b.WriteString(".")
	}
	if firstParagraph != "" {
		b.WriteString(" ")
		b.WriteString(firstParagraph)
	}

	words := tokenRe.FindAllString(b.String(), -1)
	if len(words) > maxSummaryWords {
		words = words[:maxSummaryWords]
	}
	return strings.Join(words, " ")
}

// splitBlankLineBlocks groups consecutive non-blank lines into blocks,
// treating one or more blank lines as a separator.
func splitBlankLineBlocks(body string) [][]string {
	var blocks [][]string
	var cur []string
	for _, line := range strings.Split(body, "\n") {
		if strings.TrimSpace(line) == "" {
			if len(cur) > 0 {
				blocks = append(blocks, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, line)
	}
	if len(cur) > 0 {
		blocks = append(blocks, cur)
	}
	return blocks
}

// splitWords splits text into pieces of at most maxWords
// whitespace-separated tokens each, preserving the original
// whitespace runs within each piece.
func splitWords(text string, maxWords int) []string {
	idxs := tokenRe.FindAllStringIndex(text, -1)
	if len(idxs) == 0 {
		return nil
	}
	var pieces []string
	for i := 0; i < len(idxs); i += maxWords {
		end := i + maxWords
		if end > len(idxs) {
			end = len(idxs)
		}
		pieces = append(pieces, text[idxs[i][0]:idxs[end-1][1]])
	}
	return pieces
}

// headingStack tracks the DAG of enclosing headings (keyed by ordinal,
// per spec §9 — no cycles possible) so each chunk can be attached to
// the slash-joined text of the headings enclosing it at that point.
type headingStack struct {
	frames []struct {
		level int
		text  string
	}
}

func newHeadingStack() *headingStack { return &headingStack{} }

func (s *headingStack) push(level int, text string) {
	for len(s.frames) > 0 && s.frames[len(s.frames)-1].level >= level {
		s.frames = s.frames[:len(s.frames)-1]
	}
	s.frames = append(s.frames, struct {
		level int
		text  string
	}{level, text})
}

func (s *headingStack) path() string {
	texts := make([]string, len(s.frames))
	for i, f := range s.frames {
		texts[i] = f.text
	}
	return strings.Join(texts, "/")
}

// extractLinks walks a goldmark AST (with the GFM extension, so bare
// URLs are linkified without needing <> or [] syntax) to collect every
// inline link, autolink, and bare-URL occurrence in body.
func extractLinks(body string) []domain.ParsedLink {
	src := []byte(body)
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	doc := md.Parser().Parse(text.NewReader(src))

	var links []domain.ParsedLink
	seen := map[string]bool{}
	add := func(target string) {
		target = strings.TrimSpace(target)
		if target == "" || seen[target] {
			return
		}
		seen[target] = true
		links = append(links, domain.ParsedLink{
			Target:     target,
			IsExternal: schemeRe.MatchString(target),
		})
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Link:
			add(string(v.Destination))
		case *ast.AutoLink:
			add(string(v.URL(src)))
		}
		return ast.WalkContinue, nil
	})
	return links
}
