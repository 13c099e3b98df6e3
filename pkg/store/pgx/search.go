package pgx

import (
	"context"
	"strings"

	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/common"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/logger"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
)

const paperColumns = `
	p.id, p.title, p.abstract, p.authors, p.year, p.citation_count,
	p.venue, p.doi, p.url, p.keywords, p.content_type, p.local_file_path,
	EXISTS (SELECT 1 FROM paper_contents c WHERE c.paper_id = p.id AND c.has_full_content)
`

// KeywordSearch matches query terms case-insensitively against title,
// abstract, keywords and authors. Each term found in the title scores 2, in
// the abstract 1; any keyword or author match adds a flat 1. Ties are broken
// by citation count. The store degrades to an empty result set on errors.
func (s *GraphDBStorage) KeywordSearch(
	ctx context.Context,
	text string,
	limit int,
	topic string,
) ([]common.ScoredPaper, error) {
	terms := strings.Fields(strings.ToLower(text))
	if len(terms) == 0 || limit <= 0 {
		return nil, nil
	}

	rows, err := s.conn.Query(ctx, `
		WITH scored AS (
			SELECT p.id,
				(SELECT COUNT(*) * 2 FROM unnest($1::text[]) term
					WHERE lower(p.title) LIKE '%' || term || '%')
				+ (SELECT COUNT(*) FROM unnest($1::text[]) term
					WHERE lower(p.abstract) LIKE '%' || term || '%')
				+ (CASE WHEN EXISTS (
					SELECT 1 FROM unnest(p.keywords) kw, unnest($1::text[]) term
					WHERE lower(kw) LIKE '%' || term || '%') THEN 1 ELSE 0 END)
				+ (CASE WHEN EXISTS (
					SELECT 1 FROM unnest(p.authors) author, unnest($1::text[]) term
					WHERE lower(author) LIKE '%' || term || '%') THEN 1 ELSE 0 END)
				AS score
			FROM papers p
			WHERE ($2 = '' OR p.topic = $2)
		)
		SELECT `+paperColumns+`, scored.score::float8
		FROM scored
		JOIN papers p ON p.id = scored.id
		WHERE scored.score > 0
		ORDER BY scored.score DESC, p.citation_count DESC
		LIMIT $3
	`, terms, topic, limit)
	if err != nil {
		return logEmptyScored("KeywordSearch", err), nil
	}
	defer rows.Close()

	return scanScoredPapers(rows)
}

// SemanticSearch ranks papers by cosine similarity against the query
// embedding. Papers whose stored embedding is missing or has a different
// dimension are excluded rather than causing an error.
func (s *GraphDBStorage) SemanticSearch(
	ctx context.Context,
	vector []float32,
	limit int,
	topic string,
	minSimilarity float64,
) ([]common.ScoredPaper, error) {
	if len(vector) == 0 || limit <= 0 {
		return nil, nil
	}

	rows, err := s.conn.Query(ctx, `
		SELECT `+paperColumns+`, (1 - (p.embedding <=> $1))::float8 AS similarity
		FROM papers p
		WHERE p.embedding IS NOT NULL
		  AND vector_dims(p.embedding) = $2
		  AND ($3 = '' OR p.topic = $3)
		  AND (1 - (p.embedding <=> $1)) > $4
		ORDER BY similarity DESC, p.citation_count DESC
		LIMIT $5
	`, pgvector.NewVector(vector), len(vector), topic, minSimilarity, limit)
	if err != nil {
		return logEmptyScored("SemanticSearch", err), nil
	}
	defer rows.Close()

	return scanScoredPapers(rows)
}

// GraphSearch walks relationship edges (undirected) up to depth 2 from the
// seed papers and scores each reached paper by the number of distinct edges
// arriving at it. Seed papers and dangling edges are filtered in SQL.
func (s *GraphDBStorage) GraphSearch(
	ctx context.Context,
	seedIDs []string,
	limit int,
	topic string,
) ([]common.ScoredPaper, error) {
	if len(seedIDs) == 0 || limit <= 0 {
		return nil, nil
	}

	rows, err := s.conn.Query(ctx, `
		WITH RECURSIVE edges AS (
			SELECT r.id, r.source_id AS a, r.target_id AS b FROM relationships r
			UNION ALL
			SELECT r.id, r.target_id AS a, r.source_id AS b FROM relationships r
		),
		walk AS (
			SELECT e.id AS edge_id, e.b AS paper_id, 1 AS depth
			FROM edges e
			WHERE e.a = ANY($1)
			UNION ALL
			SELECT e.id, e.b, w.depth + 1
			FROM edges e
			JOIN walk w ON e.a = w.paper_id
			WHERE w.depth < 2
		)
		SELECT `+paperColumns+`, COUNT(DISTINCT w.edge_id)::float8 AS connections
		FROM walk w
		JOIN papers p ON p.id = w.paper_id
		WHERE p.id <> ALL($1)
		  AND ($2 = '' OR p.topic = $2)
		GROUP BY p.id
		ORDER BY connections DESC, p.citation_count DESC
		LIMIT $3
	`, seedIDs, topic, limit)
	if err != nil {
		return logEmptyScored("GraphSearch", err), nil
	}
	defer rows.Close()

	return scanScoredPapers(rows)
}

func scanPaper(rows pgxv5.Rows, extraScores ...*float64) (common.Paper, error) {
	var paper common.Paper
	dest := []any{
		&paper.ID, &paper.Title, &paper.Abstract, &paper.Authors,
		&paper.Year, &paper.CitationCount, &paper.Venue, &paper.DOI,
		&paper.URL, &paper.Keywords, &paper.ContentType, &paper.LocalFilePath,
		&paper.HasFullContent,
	}
	for _, s := range extraScores {
		dest = append(dest, s)
	}
	if err := rows.Scan(dest...); err != nil {
		return common.Paper{}, err
	}
	return paper, nil
}

func scanPapers(rows pgxv5.Rows) ([]common.Paper, error) {
	papers := make([]common.Paper, 0)
	for rows.Next() {
		paper, err := scanPaper(rows)
		if err != nil {
			return logEmptyPapers("scan", err), nil
		}
		papers = append(papers, paper)
	}
	if err := rows.Err(); err != nil {
		return logEmptyPapers("scan", err), nil
	}
	return papers, nil
}

func scanScoredPapers(rows pgxv5.Rows) ([]common.ScoredPaper, error) {
	results := make([]common.ScoredPaper, 0)
	for rows.Next() {
		var score float64
		paper, err := scanPaper(rows, &score)
		if err != nil {
			return logEmptyScored("scan", err), nil
		}
		results = append(results, common.ScoredPaper{Paper: paper, Score: score})
	}
	if err := rows.Err(); err != nil {
		return logEmptyScored("scan", err), nil
	}
	return results, nil
}

func logEmptyScored(op string, err error) []common.ScoredPaper {
	logger.Warn("[Store] Query degraded to empty results", "op", op, "err", err)
	return []common.ScoredPaper{}
}

func logEmptyPapers(op string, err error) []common.Paper {
	logger.Warn("[Store] Query degraded to empty results", "op", op, "err", err)
	return []common.Paper{}
}
