package domain

// FrontmatterValue is a tagged union over the shapes frontmatter values
// can take: a bare scalar string, a list (from a comma-split or a YAML
// sequence), or a boolean/int encoded as their string form. Tags and
// concepts are normalized into StringList regardless of input shape;
// everything else is kept as Scalar.
type FrontmatterValue struct {
	Scalar string
	List   []string
	IsList bool
}

// ParsedHeading is a heading discovered by the Parser, before it is
// assigned a Store-issued Heading.
type ParsedHeading struct {
	Level  int
	Text   string
	Anchor string
}

// ParsedLink is a link discovered by the Parser, before it is assigned
// a Store-issued Link.
type ParsedLink struct {
	Target     string
	IsExternal bool
}

// ParsedChunk is a chunk discovered by the Parser, before it is
// assigned a Store-issued Chunk.
type ParsedChunk struct {
	HeadingPath   string
	Content       string
	TokenEstimate int
}

// ParsedDocument is the Parser's pure output: everything the Ingestor
// needs to call Store.UpsertDocument, with no Store-assigned ids yet.
type ParsedDocument struct {
	Frontmatter map[string]FrontmatterValue
	Title       string
	Summary     string
	Category    string
	Tags        []string
	Concepts    []string
	Headings    []ParsedHeading
	Links       []ParsedLink
	Chunks      []ParsedChunk
	TokenEstimate int
	ContentHash string
}
