package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/markdownkeeper/markdownkeeper/internal/core/domain"
	"github.com/markdownkeeper/markdownkeeper/internal/core/ports/driven"
)

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// UpsertDocument replaces headings/links/tags/concepts/chunks and
// recomputes embeddings only when content_hash changes; an unchanged
// revision only touches updated_at. Every call flushes the query
// cache in the same transaction, per the Data Model invariant on
// QueryCacheEntry.
func (s *documentStore) UpsertDocument(
	ctx context.Context,
	path string,
	parsed domain.ParsedDocument,
	embed driven.EmbedFunc,
) (int64, error) {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()

	var existingID int64
	var existingHash string
	err = tx.QueryRowContext(ctx, `SELECT id, content_hash FROM documents WHERE path = ?`, path).
		Scan(&existingID, &existingHash)

	switch {
	case err == sql.ErrNoRows:
		res, insertErr := tx.ExecContext(ctx, `
			INSERT INTO documents (path, title, summary, category, token_estimate, content_hash, created_at, updated_at, processed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, path, parsed.Title, parsed.Summary, parsed.Category, parsed.TokenEstimate, parsed.ContentHash, now, now, now)
		if insertErr != nil {
			return 0, fmt.Errorf("inserting document: %w", insertErr)
		}
		existingID, insertErr = res.LastInsertId()
		if insertErr != nil {
			return 0, fmt.Errorf("reading inserted id: %w", insertErr)
		}
		if err := replaceDocumentGraph(ctx, tx, existingID, parsed, embed); err != nil {
			return 0, err
		}
	case err != nil:
		return 0, fmt.Errorf("looking up document: %w", err)
	case existingHash == parsed.ContentHash:
		if _, err := tx.ExecContext(ctx, `UPDATE documents SET updated_at = ?, processed_at = ? WHERE id = ?`,
			now, now, existingID); err != nil {
			return 0, fmt.Errorf("touching updated_at: %w", err)
		}
	default:
		if _, err := tx.ExecContext(ctx, `
			UPDATE documents
			SET title = ?, summary = ?, category = ?, token_estimate = ?, content_hash = ?, updated_at = ?, processed_at = ?
			WHERE id = ?
		`, parsed.Title, parsed.Summary, parsed.Category, parsed.TokenEstimate, parsed.ContentHash, now, now, existingID); err != nil {
			return 0, fmt.Errorf("updating document: %w", err)
		}
		if err := clearDocumentGraph(ctx, tx, existingID); err != nil {
			return 0, err
		}
		if err := replaceDocumentGraph(ctx, tx, existingID, parsed, embed); err != nil {
			return 0, err
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM query_cache`); err != nil {
		return 0, fmt.Errorf("flushing query cache: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return existingID, nil
}

// clearDocumentGraph removes every heading/link/tag-link/concept-link/
// chunk/embedding row owned by documentID, without touching the
// documents row itself.
func clearDocumentGraph(ctx context.Context, tx *sql.Tx, documentID int64) error {
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM embeddings WHERE owner_kind = 'chunk' AND owner_id IN (SELECT id FROM chunks WHERE document_id = ?)
	`, documentID); err != nil {
		return fmt.Errorf("clearing chunk embeddings: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM embeddings WHERE owner_kind = 'document' AND owner_id = ?`, documentID); err != nil {
		return fmt.Errorf("clearing document embedding: %w", err)
	}
	for _, table := range []string{"headings", "links", "document_tags", "document_concepts", "chunks"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE document_id = ?`, documentID); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	return nil
}

// replaceDocumentGraph inserts headings/links/tags/concepts/chunks for
// documentID from parsed, then computes and stores the document- and
// chunk-level embeddings.
func replaceDocumentGraph(ctx context.Context, tx *sql.Tx, documentID int64, parsed domain.ParsedDocument, embed driven.EmbedFunc) error {
	for ordinal, h := range parsed.Headings {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO headings (document_id, ordinal, level, text, anchor) VALUES (?, ?, ?, ?, ?)
		`, documentID, ordinal, h.Level, h.Text, h.Anchor); err != nil {
			return fmt.Errorf("inserting heading: %w", err)
		}
	}

	for _, l := range parsed.Links {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO links (document_id, target, is_external, status) VALUES (?, ?, ?, 'unknown')
		`, documentID, l.Target, l.IsExternal); err != nil {
			return fmt.Errorf("inserting link: %w", err)
		}
	}

	for _, name := range parsed.Tags {
		tagID, err := lookupOrInsert(ctx, tx, "tags", name)
		if err != nil {
			return fmt.Errorf("resolving tag %q: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO document_tags (document_id, tag_id) VALUES (?, ?) ON CONFLICT DO NOTHING
		`, documentID, tagID); err != nil {
			return fmt.Errorf("linking tag: %w", err)
		}
	}

	for _, name := range parsed.Concepts {
		conceptID, err := lookupOrInsert(ctx, tx, "concepts", name)
		if err != nil {
			return fmt.Errorf("resolving concept %q: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO document_concepts (document_id, concept_id) VALUES (?, ?) ON CONFLICT DO NOTHING
		`, documentID, conceptID); err != nil {
			return fmt.Errorf("linking concept: %w", err)
		}
	}

	chunkIDs := make([]int64, len(parsed.Chunks))
	for ordinal, c := range parsed.Chunks {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO chunks (document_id, ordinal, heading_path, content, token_estimate) VALUES (?, ?, ?, ?, ?)
		`, documentID, ordinal, c.HeadingPath, c.Content, c.TokenEstimate)
		if err != nil {
			return fmt.Errorf("inserting chunk: %w", err)
		}
		chunkID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading chunk id: %w", err)
		}
		chunkIDs[ordinal] = chunkID
	}

	if embed == nil {
		return nil
	}

	now := time.Now().UTC()
	docVector, backend, err := embed(ctx, documentEmbeddingText(parsed))
	if err != nil {
		return fmt.Errorf("embedding document: %w", err)
	}
	if err := putEmbedding(ctx, tx, domain.OwnerKindDocument, documentID, docVector, backend, now); err != nil {
		return err
	}

	for i, c := range parsed.Chunks {
		vector, backend, err := embed(ctx, c.Content)
		if err != nil {
			return fmt.Errorf("embedding chunk: %w", err)
		}
		if err := putEmbedding(ctx, tx, domain.OwnerKindChunk, chunkIDs[i], vector, backend, now); err != nil {
			return err
		}
	}
	return nil
}

// documentEmbeddingText is the text handed to the Embedder for the
// document-level vector: title, summary, then every chunk's content.
func documentEmbeddingText(parsed domain.ParsedDocument) string {
	parts := make([]string, 0, len(parsed.Chunks)+2)
	parts = append(parts, parsed.Title, parsed.Summary)
	for _, c := range parsed.Chunks {
		parts = append(parts, c.Content)
	}
	return strings.Join(parts, "\n\n")
}

func putEmbedding(ctx context.Context, tx *sql.Tx, kind domain.OwnerKind, ownerID int64, vector []float32, backend string, generatedAt time.Time) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO embeddings (owner_kind, owner_id, vector, dimension, backend, generated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_kind, owner_id) DO UPDATE SET
			vector = excluded.vector, dimension = excluded.dimension,
			backend = excluded.backend, generated_at = excluded.generated_at
	`, string(kind), ownerID, float32SliceToBytes(vector), len(vector), backend, generatedAt)
	if err != nil {
		return fmt.Errorf("storing embedding: %w", err)
	}
	return nil
}

// lookupOrInsert case-folds name to lowercase, inserts it into table if
// absent, and returns its id.
func lookupOrInsert(ctx context.Context, tx *sql.Tx, table, name string) (int64, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if _, err := tx.ExecContext(ctx, `INSERT INTO `+table+` (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name); err != nil {
		return 0, err
	}
	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM `+table+` WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// DeleteByPath deletes the document at path and cascades to every
// heading/link/tag-link/concept-link/chunk/embedding that referenced
// it, flushing the query cache in the same transaction.
func (s *documentStore) DeleteByPath(ctx context.Context, path string) (bool, error) {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var documentID int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM documents WHERE path = ?`, path).Scan(&documentID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("looking up document: %w", err)
	}

	if err := clearDocumentGraph(ctx, tx, documentID); err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, documentID); err != nil {
		return false, fmt.Errorf("deleting document: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM query_cache`); err != nil {
		return false, fmt.Errorf("flushing query cache: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing transaction: %w", err)
	}
	return true, nil
}

// GetDocument returns metadata, always including tags and concepts,
// and per opts a content-filtered, token-budgeted list of chunks.
func (s *documentStore) GetDocument(ctx context.Context, id int64, opts driven.GetDocumentOptions) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, path, title, summary, category, token_estimate, content_hash, created_at, updated_at, processed_at
		FROM documents WHERE id = ?
	`, id)
	return s.loadDocument(ctx, row, opts)
}

// GetDocumentByPath is GetDocument keyed by path.
func (s *documentStore) GetDocumentByPath(ctx context.Context, path string, opts driven.GetDocumentOptions) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, path, title, summary, category, token_estimate, content_hash, created_at, updated_at, processed_at
		FROM documents WHERE path = ?
	`, path)
	return s.loadDocument(ctx, row, opts)
}

func (s *documentStore) loadDocument(ctx context.Context, row *sql.Row, opts driven.GetDocumentOptions) (*domain.Document, error) {
	doc, err := scanDocument(row)
	if err != nil {
		return nil, err
	}

	doc.Tags, err = s.listNames(ctx, "tags", "document_tags", "tag_id", doc.ID)
	if err != nil {
		return nil, err
	}
	doc.Concepts, err = s.listNames(ctx, "concepts", "document_concepts", "concept_id", doc.ID)
	if err != nil {
		return nil, err
	}

	if !opts.IncludeContent {
		return doc, nil
	}

	chunks, err := s.chunksForDocument(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	doc.Chunks = selectChunks(chunks, opts.Section, opts.MaxTokens)
	return doc, nil
}

func (s *documentStore) chunksForDocument(ctx context.Context, documentID int64) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, ordinal, heading_path, content, token_estimate
		FROM chunks WHERE document_id = ? ORDER BY ordinal
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		var c domain.Chunk
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Ordinal, &c.HeadingPath, &c.Content, &c.TokenEstimate); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// selectChunks keeps chunks whose heading_path contains section
// (case-insensitive, or all chunks if section is empty), then takes a
// whole-chunk-preserving prefix of at most maxTokens tokens (0 means
// unbounded). When the first selected chunk alone is over the budget,
// it is cut to its first maxTokens whitespace-separated tokens, joined
// by single spaces.
func selectChunks(chunks []domain.Chunk, section string, maxTokens int) []domain.Chunk {
	filtered := chunks
	if section != "" {
		lower := strings.ToLower(section)
		filtered = nil
		for _, c := range chunks {
			if strings.Contains(strings.ToLower(c.HeadingPath), lower) {
				filtered = append(filtered, c)
			}
		}
	}
	if maxTokens <= 0 {
		return filtered
	}

	var out []domain.Chunk
	total := 0
	for _, c := range filtered {
		if total+c.TokenEstimate > maxTokens {
			if len(out) == 0 {
				words := strings.Fields(c.Content)
				if len(words) > maxTokens {
					words = words[:maxTokens]
				}
				c.Content = strings.Join(words, " ")
				c.TokenEstimate = len(words)
				out = append(out, c)
			}
			break
		}
		out = append(out, c)
		total += c.TokenEstimate
		if total >= maxTokens {
			break
		}
	}
	return out
}

func (s *documentStore) listNames(ctx context.Context, table, joinTable, joinColumn string, documentID int64) ([]string, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+table+`.name FROM `+table+`
		JOIN `+joinTable+` ON `+joinTable+`.`+joinColumn+` = `+table+`.id
		WHERE `+joinTable+`.document_id = ?
		ORDER BY `+table+`.name
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", table, err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// ListByConcept returns up to limit documents tagged or inferred with
// concept, case-insensitive.
func (s *documentStore) ListByConcept(ctx context.Context, concept string, limit int) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT d.id, d.path, d.title, d.summary, d.category, d.token_estimate, d.content_hash, d.created_at, d.updated_at, d.processed_at
		FROM documents d
		JOIN document_concepts dc ON dc.document_id = d.id
		JOIN concepts c ON c.id = dc.concept_id
		WHERE c.name = ?
		ORDER BY d.id
		LIMIT ?
	`, strings.ToLower(strings.TrimSpace(concept)), limit)
	if err != nil {
		return nil, fmt.Errorf("querying documents by concept: %w", err)
	}
	defer rows.Close()
	return scanDocumentRows(rows)
}

// ListDocuments returns up to limit documents ordered by id.
func (s *documentStore) ListDocuments(ctx context.Context, limit int) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, path, title, summary, category, token_estimate, content_hash, created_at, updated_at, processed_at
		FROM documents ORDER BY id LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()
	return scanDocumentRows(rows)
}

// AllEmbeddings returns every current document- and chunk-level
// embedding.
func (s *documentStore) AllEmbeddings(ctx context.Context) ([]domain.Embedding, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT owner_kind, owner_id, vector, dimension, backend, generated_at FROM embeddings
	`)
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	var out []domain.Embedding
	for rows.Next() {
		var e domain.Embedding
		var kind string
		var vectorBlob []byte
		if err := rows.Scan(&kind, &e.OwnerID, &vectorBlob, &e.Dimension, &e.Backend, &e.GeneratedAt); err != nil {
			return nil, fmt.Errorf("scanning embedding: %w", err)
		}
		e.OwnerKind = domain.OwnerKind(kind)
		e.Vector = bytesToFloat32Slice(vectorBlob)
		out = append(out, e)
	}
	return out, rows.Err()
}

// RegenerateEmbeddings recomputes every stored embedding, used when
// the active backend changes.
func (s *documentStore) RegenerateEmbeddings(ctx context.Context, embed driven.EmbedFunc) error {
	docRows, err := s.store.db.QueryContext(ctx, `SELECT id FROM documents ORDER BY id`)
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}
	var documentIDs []int64
	for docRows.Next() {
		var id int64
		if err := docRows.Scan(&id); err != nil {
			docRows.Close()
			return fmt.Errorf("scanning document id: %w", err)
		}
		documentIDs = append(documentIDs, id)
	}
	docRows.Close()
	if err := docRows.Err(); err != nil {
		return err
	}

	for _, documentID := range documentIDs {
		if err := s.regenerateOne(ctx, documentID, embed); err != nil {
			return err
		}
	}
	return nil
}

func (s *documentStore) regenerateOne(ctx context.Context, documentID int64, embed driven.EmbedFunc) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var title, summary string
	if err := tx.QueryRowContext(ctx, `SELECT title, summary FROM documents WHERE id = ?`, documentID).
		Scan(&title, &summary); err != nil {
		return fmt.Errorf("loading document: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `SELECT id, content FROM chunks WHERE document_id = ? ORDER BY ordinal`, documentID)
	if err != nil {
		return fmt.Errorf("loading chunks: %w", err)
	}
	type chunkRow struct {
		id      int64
		content string
	}
	var chunks []chunkRow
	for rows.Next() {
		var c chunkRow
		if err := rows.Scan(&c.id, &c.content); err != nil {
			rows.Close()
			return fmt.Errorf("scanning chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	now := time.Now().UTC()
	docParts := make([]string, 0, len(chunks)+2)
	docParts = append(docParts, title, summary)
	for _, c := range chunks {
		docParts = append(docParts, c.content)
	}
	docVector, backend, err := embed(ctx, strings.Join(docParts, "\n\n"))
	if err != nil {
		return fmt.Errorf("embedding document: %w", err)
	}
	if err := putEmbedding(ctx, tx, domain.OwnerKindDocument, documentID, docVector, backend, now); err != nil {
		return err
	}

	for _, c := range chunks {
		vector, backend, err := embed(ctx, c.content)
		if err != nil {
			return fmt.Errorf("embedding chunk: %w", err)
		}
		if err := putEmbedding(ctx, tx, domain.OwnerKindChunk, c.id, vector, backend, now); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Stats reports corpus-wide counters.
func (s *documentStore) Stats(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats
	queries := []struct {
		sql string
		dst *int
	}{
		{`SELECT COUNT(*) FROM documents`, &stats.DocumentCount},
		{`SELECT COUNT(*) FROM headings`, &stats.HeadingCount},
		{`SELECT COUNT(*) FROM links`, &stats.LinkCount},
		{`SELECT COUNT(*) FROM chunks`, &stats.ChunkCount},
		{`SELECT COUNT(*) FROM concepts`, &stats.ConceptCount},
		{`SELECT COUNT(*) FROM tags`, &stats.TagCount},
	}
	for _, q := range queries {
		if err := s.store.db.QueryRowContext(ctx, q.sql).Scan(q.dst); err != nil {
			return domain.Stats{}, fmt.Errorf("counting: %w", err)
		}
	}

	queueStatus, err := (&eventStore{store: s.store}).Status(ctx)
	if err != nil {
		return domain.Stats{}, err
	}
	stats.Queue = queueStatus

	return stats, nil
}

// HealthReport wraps Stats with a pass/fail verdict.
func (s *documentStore) HealthReport(ctx context.Context) (domain.HealthReport, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return domain.HealthReport{}, err
	}

	var warnings []string
	if stats.Queue.Failed > 0 {
		warnings = append(warnings, fmt.Sprintf("%d event(s) permanently failed", stats.Queue.Failed))
	}
	if stats.Embeddings.DocumentsMissing > 0 || stats.Embeddings.ChunksMissing > 0 {
		warnings = append(warnings, "embeddings are missing or stale for part of the corpus")
	}

	return domain.HealthReport{
		Stats:    stats,
		Healthy:  len(warnings) == 0,
		Warnings: warnings,
	}, nil
}

// EmbeddingCoverage reports how much of the corpus has embeddings
// under activeBackend.
func (s *documentStore) EmbeddingCoverage(ctx context.Context, activeBackend string, modelAvailable bool) (domain.EmbeddingCoverage, error) {
	var coverage domain.EmbeddingCoverage
	coverage.ActiveBackend = activeBackend
	coverage.ModelAvailable = modelAvailable

	if err := s.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&coverage.Documents); err != nil {
		return coverage, fmt.Errorf("counting documents: %w", err)
	}
	if err := s.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&coverage.Chunks); err != nil {
		return coverage, fmt.Errorf("counting chunks: %w", err)
	}
	if err := s.store.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM embeddings WHERE owner_kind = 'document' AND backend = ?
	`, activeBackend).Scan(&coverage.DocumentsEmbedded); err != nil {
		return coverage, fmt.Errorf("counting document embeddings: %w", err)
	}
	if err := s.store.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM embeddings WHERE owner_kind = 'chunk' AND backend = ?
	`, activeBackend).Scan(&coverage.ChunksEmbedded); err != nil {
		return coverage, fmt.Errorf("counting chunk embeddings: %w", err)
	}

	coverage.DocumentsMissing = coverage.Documents - coverage.DocumentsEmbedded
	coverage.ChunksMissing = coverage.Chunks - coverage.ChunksEmbedded
	return coverage, nil
}

// Links returns every link row joined with its owning document's path.
func (s *documentStore) Links(ctx context.Context) ([]driven.LinkWithDocumentPath, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT l.id, l.document_id, l.target, l.is_external, l.status, l.checked_at, d.path
		FROM links l JOIN documents d ON d.id = l.document_id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying links: %w", err)
	}
	defer rows.Close()

	var out []driven.LinkWithDocumentPath
	for rows.Next() {
		var lwp driven.LinkWithDocumentPath
		var status string
		var checkedAt sql.NullTime
		if err := rows.Scan(&lwp.Link.ID, &lwp.Link.DocumentID, &lwp.Link.Target, &lwp.Link.IsExternal,
			&status, &checkedAt, &lwp.DocumentPath); err != nil {
			return nil, fmt.Errorf("scanning link: %w", err)
		}
		lwp.Link.Status = domain.LinkStatus(status)
		if checkedAt.Valid {
			lwp.Link.CheckedAt = checkedAt.Time
		}
		out = append(out, lwp)
	}
	return out, rows.Err()
}

// UpdateLinkStatus records the outcome of a check-links pass.
func (s *documentStore) UpdateLinkStatus(ctx context.Context, linkID int64, status domain.LinkStatus, checkedAt time.Time) error {
	_, err := s.store.db.ExecContext(ctx, `UPDATE links SET status = ?, checked_at = ? WHERE id = ?`,
		string(status), checkedAt, linkID)
	if err != nil {
		return fmt.Errorf("updating link status: %w", err)
	}
	return nil
}

// scanDocument scans a single document row, mapping sql.ErrNoRows to
// domain.ErrNotFound.
func scanDocument(row *sql.Row) (*domain.Document, error) {
	var doc domain.Document
	var processedAt sql.NullTime
	if err := row.Scan(&doc.ID, &doc.Path, &doc.Title, &doc.Summary, &doc.Category, &doc.TokenEstimate,
		&doc.ContentHash, &doc.CreatedAt, &doc.UpdatedAt, &processedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	if processedAt.Valid {
		doc.ProcessedAt = processedAt.Time
	}
	return &doc, nil
}

// scanDocumentRows scans every remaining row from a *sql.Rows query.
func scanDocumentRows(rows *sql.Rows) ([]domain.Document, error) {
	var docs []domain.Document
	for rows.Next() {
		var doc domain.Document
		var processedAt sql.NullTime
		if err := rows.Scan(&doc.ID, &doc.Path, &doc.Title, &doc.Summary, &doc.Category, &doc.TokenEstimate,
			&doc.ContentHash, &doc.CreatedAt, &doc.UpdatedAt, &processedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		if processedAt.Valid {
			doc.ProcessedAt = processedAt.Time
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}
