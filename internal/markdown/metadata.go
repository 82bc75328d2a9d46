package markdown

import (
	"path/filepath"
	"strings"

	"github.com/markdownkeeper/markdownkeeper/internal/core/domain"
	"github.com/markdownkeeper/markdownkeeper/internal/logger"
)

// SchemaPolicy carries the two [metadata] config knobs that shape how
// a ParsedDocument's frontmatter is accepted, grounded in
// enforce_schema/auto_fill from the original metadata manager.
type SchemaPolicy struct {
	RequiredFields  []string
	AutoFillCategory bool
}

// EnforceSchema applies policy to a freshly parsed document in place:
// it logs a WARN per missing required field (ingestion still proceeds,
// per the Ingestor's lenient-parse contract — this is advisory, not a
// rejection), and when AutoFillCategory is set and the document has no
// category, derives one from its parent directory name.
func EnforceSchema(policy SchemaPolicy, path string, doc *domain.ParsedDocument) {
	for _, field := range policy.RequiredFields {
		if !hasField(doc, field) {
			logger.Warn("metadata: %s missing required frontmatter field %q", path, field)
		}
	}

	if policy.AutoFillCategory && doc.Category == "" {
		doc.Category = categoryFromPath(path)
	}
}

func hasField(doc *domain.ParsedDocument, field string) bool {
	switch field {
	case "title":
		return doc.Title != ""
	case "summary":
		return doc.Summary != ""
	case "category":
		return doc.Category != ""
	case "tags":
		return len(doc.Tags) > 0
	case "concepts":
		return len(doc.Concepts) > 0
	default:
		v, ok := doc.Frontmatter[field]
		if !ok {
			return false
		}
		return v.Scalar != "" || len(v.List) > 0
	}
}

// categoryFromPath takes the immediate parent directory name of path
// as the fallback category, normalized to lowercase-hyphenated form;
// a path with no directory part, or directly under the filesystem
// root, falls back to "uncategorized".
func categoryFromPath(path string) string {
	dir := filepath.Base(filepath.Dir(path))
	if dir == "" || dir == "." || dir == string(filepath.Separator) {
		return "uncategorized"
	}
	return strings.ToLower(strings.ReplaceAll(dir, "_", "-"))
}
