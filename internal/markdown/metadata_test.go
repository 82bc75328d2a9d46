package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/markdownkeeper/markdownkeeper/internal/core/domain"
)

func TestEnforceSchema_FillsCategoryFromParentDir(t *testing.T) {
	doc := domain.ParsedDocument{Title: "X"}
	policy := SchemaPolicy{AutoFillCategory: true}

	EnforceSchema(policy, "/docs/networking/dns.md", &doc)
	assert.Equal(t, "networking", doc.Category)
}

func TestEnforceSchema_DoesNotOverrideExistingCategory(t *testing.T) {
	doc := domain.ParsedDocument{Category: "infra"}
	policy := SchemaPolicy{AutoFillCategory: true}

	EnforceSchema(policy, "/docs/networking/dns.md", &doc)
	assert.Equal(t, "infra", doc.Category)
}

func TestEnforceSchema_NoAutoFillLeavesCategoryEmpty(t *testing.T) {
	doc := domain.ParsedDocument{}
	policy := SchemaPolicy{AutoFillCategory: false}

	EnforceSchema(policy, "/docs/networking/dns.md", &doc)
	assert.Empty(t, doc.Category)
}

func TestEnforceSchema_MissingRequiredFieldDoesNotPanic(t *testing.T) {
	doc := domain.ParsedDocument{}
	policy := SchemaPolicy{RequiredFields: []string{"summary", "tags"}}
	assert.NotPanics(t, func() { EnforceSchema(policy, "/docs/a.md", &doc) })
}

func TestCategoryFromPath_RootLevelFileFallsBackToUncategorized(t *testing.T) {
	assert.Equal(t, "uncategorized", categoryFromPath("dns.md"))
}
