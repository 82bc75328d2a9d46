package markdown

import (
	"strings"

	"github.com/markdownkeeper/markdownkeeper/internal/core/domain"
)

// parseFrontmatter splits text into a frontmatter map and the
// remaining body. Frontmatter is recognized only when text begins
// with a line equal to "---" and a later line equal to "---" closes
// it; otherwise the whole text is the body and frontmatter is empty.
func parseFrontmatter(text string) (map[string]domain.FrontmatterValue, string) {
	const marker = "---\n"
	if !strings.HasPrefix(text, marker) {
		return map[string]domain.FrontmatterValue{}, text
	}

	end := strings.Index(text[4:], "\n---\n")
	if end == -1 {
		return map[string]domain.FrontmatterValue{}, text
	}
	end += 4 // offset back into text

	raw := text[4:end]
	body := text[end+5:]

	fm := map[string]domain.FrontmatterValue{}
	for _, line := range strings.Split(raw, "\n") {
		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.Trim(strings.TrimSpace(line[idx+1:]), `"`)
		if key == "" {
			continue
		}

		if key == "tags" || key == "concepts" {
			fm[key] = domain.FrontmatterValue{List: splitCommaList(value), IsList: true}
			continue
		}
		fm[key] = domain.FrontmatterValue{Scalar: value}
	}
	return fm, body
}

// splitCommaList splits a comma-separated frontmatter value into a
// trimmed, non-empty list, regardless of whether the source wrote a
// bare string or something that looks list-like.
func splitCommaList(value string) []string {
	value = strings.Trim(value, "[]")
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), `"'`)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func frontmatterString(fm map[string]domain.FrontmatterValue, key string) string {
	v, ok := fm[key]
	if !ok || v.IsList {
		return ""
	}
	return v.Scalar
}

func frontmatterList(fm map[string]domain.FrontmatterValue, key string) []string {
	v, ok := fm[key]
	if !ok {
		return nil
	}
	if v.IsList {
		return v.List
	}
	if v.Scalar == "" {
		return nil
	}
	return splitCommaList(v.Scalar)
}
