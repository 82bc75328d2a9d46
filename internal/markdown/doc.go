// Package markdown implements the Parser: a pure function that turns
// raw Markdown text into a domain.ParsedDocument (frontmatter,
// headings, links, chunks, derived title/summary/concepts, token
// estimate, content hash). Link discovery walks a goldmark AST (with
// the GFM extension, to catch bare autolinks); heading, chunk, slug,
// and concept rules are hand-rolled to the exact algorithm the Store
// and Retriever depend on.
package markdown
