package pgx

import (
	"context"
	"fmt"

	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/internal/util"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/common"

	"github.com/pgvector/pgvector-go"
)

// StorePaper inserts or updates a paper under a topic. An update keeps any
// previously stored content when the new record carries none; richer
// content replaces the stored blob and flips has_full_content.
func (s *GraphDBStorage) StorePaper(
	ctx context.Context,
	paper common.Paper,
	topic string,
	content []byte,
) error {
	if paper.ID == "" {
		return fmt.Errorf("failed to store paper: empty id")
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var embeddingParam any
	if len(paper.Embedding) > 0 {
		embeddingParam = pgvector.NewVector(paper.Embedding)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO papers (
			id, topic, title, abstract, authors, year, citation_count,
			venue, doi, url, keywords, embedding, content_type, local_file_path
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			topic = EXCLUDED.topic,
			title = EXCLUDED.title,
			abstract = EXCLUDED.abstract,
			authors = EXCLUDED.authors,
			year = EXCLUDED.year,
			citation_count = EXCLUDED.citation_count,
			venue = EXCLUDED.venue,
			doi = EXCLUDED.doi,
			url = EXCLUDED.url,
			keywords = EXCLUDED.keywords,
			embedding = COALESCE(EXCLUDED.embedding, papers.embedding),
			content_type = EXCLUDED.content_type,
			local_file_path = EXCLUDED.local_file_path,
			updated_at = now()
	`,
		paper.ID,
		topic,
		util.SanitizePostgresText(paper.Title),
		util.SanitizePostgresText(paper.Abstract),
		paper.Authors,
		paper.Year,
		paper.CitationCount,
		paper.Venue,
		paper.DOI,
		paper.URL,
		paper.Keywords,
		embeddingParam,
		paper.ContentType,
		paper.LocalFilePath,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert paper: %w", err)
	}

	if len(content) > 0 {
		_, err = tx.Exec(ctx, `
			INSERT INTO paper_contents (paper_id, content, content_type, has_full_content)
			VALUES ($1, $2, $3, true)
			ON CONFLICT (paper_id) DO UPDATE SET
				content = EXCLUDED.content,
				content_type = EXCLUDED.content_type,
				has_full_content = true
		`, paper.ID, content, paper.ContentType)
		if err != nil {
			return fmt.Errorf("failed to store paper content: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// GetFullContent returns the stored content of a paper, falling back to the
// abstract (has_full_content=false) when no content blob was ingested.
func (s *GraphDBStorage) GetFullContent(
	ctx context.Context,
	paperID string,
) (common.PaperContent, error) {
	row := s.conn.QueryRow(ctx, `
		SELECT COALESCE(c.content, convert_to(p.abstract, 'UTF8')),
		       COALESCE(c.content_type, 'text/plain'),
		       COALESCE(c.has_full_content, false)
		FROM papers p
		LEFT JOIN paper_contents c ON c.paper_id = p.id
		WHERE p.id = $1
	`, paperID)

	content := common.PaperContent{PaperID: paperID}
	if err := row.Scan(&content.Content, &content.ContentType, &content.HasFullContent); err != nil {
		return common.PaperContent{}, fmt.Errorf("failed to load content for paper %s: %w", paperID, err)
	}
	return content, nil
}

// GetPapersByTopic lists the papers stored under a topic, newest first.
func (s *GraphDBStorage) GetPapersByTopic(
	ctx context.Context,
	topic string,
	limit int,
) ([]common.Paper, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.conn.Query(ctx, `
		SELECT `+paperColumns+`
		FROM papers p
		WHERE ($1 = '' OR p.topic = $1)
		ORDER BY p.year DESC, p.citation_count DESC
		LIMIT $2
	`, topic, limit)
	if err != nil {
		return logEmptyPapers("GetPapersByTopic", err), nil
	}
	defer rows.Close()

	return scanPapers(rows)
}

// StoreRelationships upserts inferred edges. Duplicate (source, target, type)
// edges keep the strongest observed strength.
func (s *GraphDBStorage) StoreRelationships(
	ctx context.Context,
	relationships []common.Relationship,
) error {
	if len(relationships) == 0 {
		return nil
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, rel := range relationships {
		_, err := tx.Exec(ctx, `
			INSERT INTO relationships (source_id, target_id, relationship_type, strength)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (source_id, target_id, relationship_type) DO UPDATE SET
				strength = GREATEST(relationships.strength, EXCLUDED.strength)
		`, rel.SourceID, rel.TargetID, string(rel.Type), rel.Strength)
		if err != nil {
			return fmt.Errorf("failed to store relationship %s -> %s: %w", rel.SourceID, rel.TargetID, err)
		}
	}

	return tx.Commit(ctx)
}
