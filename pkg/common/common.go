package common

// RelationshipType classifies how two papers are connected in the graph.
type RelationshipType string

const (
	RelationshipCitation RelationshipType = "citation"
	RelationshipContent  RelationshipType = "content"
	RelationshipAuthor   RelationshipType = "author"
	RelationshipTemporal RelationshipType = "temporal"
	RelationshipVenue    RelationshipType = "venue"
)

// Paper represents a research paper in the knowledge base. A paper is created
// on first discovery from an external source and enriched over time: the
// embedding is computed locally, the full content arrives asynchronously via
// the ingest worker. Papers are never deleted by the core pipeline.
type Paper struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Abstract       string    `json:"abstract"`
	Authors        []string  `json:"authors"`
	Year           int       `json:"year"`
	CitationCount  int       `json:"citation_count"`
	Venue          string    `json:"venue"`
	DOI            string    `json:"doi,omitempty"`
	URL            string    `json:"url,omitempty"`
	Keywords       []string  `json:"keywords"`
	Embedding      []float32 `json:"-"`
	ContentType    string    `json:"content_type,omitempty"`
	HasFullContent bool      `json:"has_full_content"`
	LocalFilePath  string    `json:"local_file_path,omitempty"`
}

// PaperContent is the stored content blob of a paper. HasFullContent is false
// when only the abstract is available.
type PaperContent struct {
	PaperID        string `json:"paper_id"`
	Content        []byte `json:"-"`
	ContentType    string `json:"content_type"`
	HasFullContent bool   `json:"has_full_content"`
}

// Relationship is a directional edge between two papers. Dangling references
// are tolerated and filtered at query time.
type Relationship struct {
	SourceID string            `json:"source_id"`
	TargetID string            `json:"target_id"`
	Type     RelationshipType  `json:"type"`
	Strength float64           `json:"strength"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ScoredPaper is a paper with a single strategy-specific score, as returned
// by the storage query primitives.
type ScoredPaper struct {
	Paper Paper   `json:"paper"`
	Score float64 `json:"score"`
}

// SearchResult is a merged retrieval record. At most one SearchResult per
// paper id exists after combining strategies; Sources lists the strategies
// that contributed.
type SearchResult struct {
	Paper              Paper    `json:"paper"`
	Similarity         float64  `json:"similarity,omitempty"`
	Relevance          float64  `json:"relevance,omitempty"`
	ConnectionStrength float64  `json:"connection_strength,omitempty"`
	CombinedScore      float64  `json:"combined_score"`
	Sources            []string `json:"sources"`
}

// HybridResults holds the per-strategy result lists alongside the merged and
// ranked combination.
type HybridResults struct {
	Semantic []ScoredPaper  `json:"semantic_results"`
	Keyword  []ScoredPaper  `json:"keyword_results"`
	Graph    []ScoredPaper  `json:"graph_results"`
	Combined []SearchResult `json:"combined_results"`
}

// QuestionAnalysis is the advisory classification of a user question. It
// feeds prompt construction downstream and must never block retrieval.
type QuestionAnalysis struct {
	Type        string   `json:"type"`
	Entities    []string `json:"entities"`
	SearchTerms []string `json:"search_terms"`
	Intent      string   `json:"intent"`
}

// Passage is a bounded excerpt of a paper's content or abstract, scored for
// relevance to a question.
type Passage struct {
	PaperID    string  `json:"paper_id"`
	PaperTitle string  `json:"paper_title"`
	Text       string  `json:"text"`
	Relevance  float64 `json:"relevance"`
}

// ChatAnswer is the grounded response for a single question. SearchType is
// "hybrid" for a normal answer and "error" for a degraded fallback.
type ChatAnswer struct {
	Answer             string   `json:"answer"`
	Reasoning          string   `json:"reasoning"`
	Sources            []Paper  `json:"sources"`
	SuggestedQuestions []string `json:"suggested_questions"`
	Confidence         float64  `json:"confidence"`
	SearchType         string   `json:"search_type"`
}

// ResearchStep is one completed step of a multi-step investigation. Steps are
// immutable once appended to the history; later steps read earlier findings
// for context but never mutate them.
type ResearchStep struct {
	ID         string   `json:"id"`
	Question   string   `json:"question"`
	Reasoning  string   `json:"reasoning"`
	Findings   []Paper  `json:"findings"`
	Analysis   string   `json:"analysis"`
	Confidence float64  `json:"confidence"`
	NextSteps  []string `json:"next_steps"`
}

// Investigation is the fully materialized result of a multi-step research
// investigation. Sources are deduplicated across steps, first seen wins.
type Investigation struct {
	ID                 string         `json:"id"`
	OriginalQuestion   string         `json:"original_question"`
	Steps              []ResearchStep `json:"steps"`
	Synthesis          string         `json:"synthesis"`
	Conclusions        []string       `json:"conclusions"`
	LimitationsAndGaps []string       `json:"limitations_and_gaps"`
	SuggestedResearch  []string       `json:"suggested_research"`
	Sources            []Paper        `json:"sources"`
	TotalConfidence    float64        `json:"total_confidence"`
}
