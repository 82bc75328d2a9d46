// Package indexgen writes the static master and by-category index files
// the build-index CLI command produces, grounded in
// original_source/indexer/generator.py's generate_master_index.
package indexgen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"

	"github.com/markdownkeeper/markdownkeeper/internal/core/domain"
	"github.com/markdownkeeper/markdownkeeper/internal/core/ports/driven"
)

const summaryPreviewChars = 180

// Result reports the files GenerateAll wrote.
type Result struct {
	MasterIndex  string
	CategoryFiles []string
}

// GenerateAll writes master.md plus one index file per category under
// outputDir, reading every document from docs.
func GenerateAll(ctx context.Context, docs driven.DocumentStore, outputDir string, maxDocuments int) (Result, error) {
	if maxDocuments <= 0 {
		maxDocuments = 100000
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("creating output directory: %w", err)
	}

	list, err := docs.ListDocuments(ctx, maxDocuments)
	if err != nil {
		return Result{}, fmt.Errorf("listing documents: %w", err)
	}

	masterPath, err := writeMasterIndex(outputDir, list)
	if err != nil {
		return Result{}, err
	}

	categoryPaths, err := writeCategoryIndexes(outputDir, list)
	if err != nil {
		return Result{}, err
	}

	return Result{MasterIndex: masterPath, CategoryFiles: categoryPaths}, nil
}

func writeMasterIndex(outputDir string, docs []domain.Document) (string, error) {
	body := renderDocumentList("MarkdownKeeper Master Index", docs)
	withTOC := prependTableOfContents(body)

	out := filepath.Join(outputDir, "master.md")
	if err := os.WriteFile(out, []byte(withTOC), 0o644); err != nil {
		return "", fmt.Errorf("writing master index: %w", err)
	}
	return out, nil
}

func writeCategoryIndexes(outputDir string, docs []domain.Document) ([]string, error) {
	byCategory := map[string][]domain.Document{}
	for _, d := range docs {
		category := d.Category
		if category == "" {
			category = "uncategorized"
		}
		byCategory[category] = append(byCategory[category], d)
	}

	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	var paths []string
	for _, category := range categories {
		title := fmt.Sprintf("Category: %s", category)
		body := renderDocumentList(title, byCategory[category])

		out := filepath.Join(outputDir, fmt.Sprintf("category-%s.md", slugifyCategory(category)))
		if err := os.WriteFile(out, []byte(body), 0o644); err != nil {
			return nil, fmt.Errorf("writing category index %q: %w", category, err)
		}
		paths = append(paths, out)
	}
	return paths, nil
}

func renderDocumentList(title string, docs []domain.Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)

	if len(docs) == 0 {
		b.WriteString("_No indexed documents found._\n")
		return b.String()
	}

	sorted := append([]domain.Document(nil), docs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	for _, d := range sorted {
		titleText := d.Title
		if titleText == "" {
			titleText = "Untitled"
		}
		fmt.Fprintf(&b, "## [%d] %s\n\n", d.ID, titleText)
		fmt.Fprintf(&b, "`%s`\n\n", d.Path)

		summary := strings.TrimSpace(strings.ReplaceAll(d.Summary, "\n", " "))
		if summary != "" {
			if len(summary) > summaryPreviewChars {
				summary = summary[:summaryPreviewChars]
			}
			fmt.Fprintf(&b, "%s\n\n", summary)
		}
	}
	return b.String()
}

// prependTableOfContents walks the generated body with a goldmark AST
// and renders a linked outline of its section headings above it,
// grounded in the same AST-walking technique the parser uses for
// heading/link discovery but applied to go.abhg.dev/goldmark/toc's
// heading-tree inspection instead of a hand-rolled walk, since here
// the headings are our own synthetic section markers rather than
// spec-governed chunk boundaries.
func prependTableOfContents(body string) string {
	src := []byte(body)
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	tree, err := toc.Inspect(doc, src)
	if err != nil || len(tree.Items) == 0 {
		return body
	}

	var b strings.Builder
	b.WriteString("## Table of Contents\n\n")
	renderTOCItems(&b, tree.Items, 0)
	b.WriteString("\n")
	b.WriteString(body)
	return b.String()
}

func renderTOCItems(b *strings.Builder, items toc.Items, depth int) {
	for _, item := range items {
		fmt.Fprintf(b, "%s- [%s](#%s)\n", strings.Repeat("  ", depth), item.Title, item.ID)
		if len(item.Items) > 0 {
			renderTOCItems(b, item.Items, depth+1)
		}
	}
}

func slugifyCategory(category string) string {
	s := strings.ToLower(strings.TrimSpace(category))
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "/", "-")
	return s
}
