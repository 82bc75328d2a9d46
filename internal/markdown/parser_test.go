package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_FrontmatterTitleAndTags(t *testing.T) {
	input := "---\n" +
		"title: Deploying Services\n" +
		"tags: ops, deploy\n" +
		"category: runbooks\n" +
		"---\n" +
		"# Deploying Services\n\n" +
		"Some intro text about deployment.\n"

	doc := Parse(input)

	assert.Equal(t, "Deploying Services", doc.Title)
	assert.Equal(t, "runbooks", doc.Category)
	assert.ElementsMatch(t, []string{"ops", "deploy"}, doc.Tags)
	require.Len(t, doc.Headings, 1)
	assert.Equal(t, 1, doc.Headings[0].Level)
	assert.Equal(t, "deploying-services", doc.Headings[0].Anchor)
}

func TestParse_TitleFallsBackToFirstHeading(t *testing.T) {
	doc := Parse("# My Heading\n\nbody text\n")
	assert.Equal(t, "My Heading", doc.Title)
}

func TestParse_TitleFallsBackToUntitled(t *testing.T) {
	doc := Parse("just a paragraph, no heading\n")
	assert.Equal(t, "Untitled", doc.Title)
}

func TestParse_HeadingPathTracksNesting(t *testing.T) {
	input := "# Top\n\n" +
		"## Middle\n\n" +
		"### Leaf\n\n" +
		"leaf content\n\n" +
		"## Sibling\n\n" +
		"sibling content\n"

	doc := Parse(input)

	var leafPath, siblingPath string
	for _, c := range doc.Chunks {
		if strings.Contains(c.Content, "leaf content") {
			leafPath = c.HeadingPath
		}
		if strings.Contains(c.Content, "sibling content") {
			siblingPath = c.HeadingPath
		}
	}
	assert.Equal(t, "Top/Middle/Leaf", leafPath)
	assert.Equal(t, "Top/Sibling", siblingPath)
}

func TestParse_ChunkSplitsAtWordBoundary(t *testing.T) {
	words := make([]string, 250)
	for i := range words {
		words[i] = "word"
	}
	body := "# Heading\n\n" + strings.Join(words, " ") + "\n"

	doc := Parse(body)

	require.Len(t, doc.Chunks, 3)
	assert.Equal(t, 120, doc.Chunks[0].TokenEstimate)
	assert.Equal(t, 120, doc.Chunks[1].TokenEstimate)
	assert.Equal(t, 10, doc.Chunks[2].TokenEstimate)
}

func TestParse_ChunkPreservesInternalWhitespace(t *testing.T) {
	doc := Parse("# H\n\nalpha   beta\tgamma\n")
	require.Len(t, doc.Chunks, 1)
	assert.Equal(t, "alpha   beta\tgamma", doc.Chunks[0].Content)
}

func TestParse_LinksInlineAndAutolink(t *testing.T) {
	input := "See [docs](https://example.com/docs) and <https://example.com/auto> " +
		"and also [local](./other.md).\n"

	doc := Parse(input)

	targets := map[string]bool{}
	external := map[string]bool{}
	for _, l := range doc.Links {
		targets[l.Target] = true
		external[l.Target] = l.IsExternal
	}

	assert.True(t, targets["https://example.com/docs"])
	assert.True(t, targets["https://example.com/auto"])
	assert.True(t, targets["./other.md"])
	assert.True(t, external["https://example.com/docs"])
	assert.False(t, external["./other.md"])
}

func TestParse_LinksDeduplicated(t *testing.T) {
	input := "[a](https://example.com/x) and again [b](https://example.com/x)\n"
	doc := Parse(input)
	assert.Len(t, doc.Links, 1)
}

func TestParse_ConceptsFromFrontmatterOverrideExtraction(t *testing.T) {
	input := "---\nconcepts: caching, retries\n---\n\n# Doc\n\nbody\n"
	doc := Parse(input)
	assert.Equal(t, []string{"caching", "retries"}, doc.Concepts)
}

func TestParse_ConceptsExtractedWhenAbsent(t *testing.T) {
	doc := Parse("# Rate Limiting\n\nRate limiting protects the rate limiting backend from overload.\n")
	assert.Contains(t, doc.Concepts, "rate")
	assert.Contains(t, doc.Concepts, "limiting")
}

func TestParse_SummaryAutoGeneratedWithH2List(t *testing.T) {
	input := "# Deploy Guide\n\n" +
		"## Prerequisites\n\nbody one\n\n" +
		"## Rollback\n\nFirst real paragraph of content here.\n"

	doc := Parse(input)
	assert.Contains(t, doc.Summary, "Deploy Guide.")
	assert.Contains(t, doc.Summary, "Covers: Prerequisites, Rollback.")
}

func TestParse_SummaryFrontmatterOverride(t *testing.T) {
	input := "---\nsummary: Custom summary text.\n---\n\n# Doc\n\nbody\n"
	doc := Parse(input)
	assert.Equal(t, "Custom summary text.", doc.Summary)
}

func TestParse_TokenEstimateCountsWhitespaceTokens(t *testing.T) {
	doc := Parse("# H\n\none two three\n")
	assert.Equal(t, 5, doc.TokenEstimate) // "#", "H", and three body words
}

func TestParse_ContentHashIsOverRawInput(t *testing.T) {
	a := Parse("# A\n\nbody\n")
	b := Parse("# A\n\nbody\n")
	c := Parse("# A\n\nbody!\n")
	assert.Equal(t, a.ContentHash, b.ContentHash)
	assert.NotEqual(t, a.ContentHash, c.ContentHash)
	assert.Len(t, a.ContentHash, 64)
}

// Testable Property 1: parsing is idempotent — re-parsing the same text
// yields byte-identical derived fields.
func TestParse_Idempotent(t *testing.T) {
	input := "---\ntitle: Idempotence\ntags: a, b\n---\n\n" +
		"# Idempotence\n\n## Section\n\nSome body content with a [link](https://example.com).\n"

	first := Parse(input)
	second := Parse(input)

	assert.Equal(t, first.Title, second.Title)
	assert.Equal(t, first.Summary, second.Summary)
	assert.Equal(t, first.Concepts, second.Concepts)
	assert.Equal(t, first.Headings, second.Headings)
	assert.Equal(t, first.Links, second.Links)
	assert.Equal(t, first.Chunks, second.Chunks)
	assert.Equal(t, first.ContentHash, second.ContentHash)
	assert.Equal(t, first.TokenEstimate, second.TokenEstimate)
}

func TestParse_NoFrontmatterWholeTextIsBody(t *testing.T) {
	doc := Parse("# Plain\n\nno frontmatter here\n")
	assert.Empty(t, doc.Frontmatter)
	assert.Equal(t, "Plain", doc.Title)
}
