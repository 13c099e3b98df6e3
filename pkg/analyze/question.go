package analyze

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/ai"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/common"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/logger"
)

const maxEntities = 5

// stopWords are dropped before extracting entities in the heuristic path.
var stopWords = map[string]struct{}{
	"what": {}, "when": {}, "where": {}, "which": {}, "while": {},
	"does": {}, "about": {}, "between": {}, "compare": {}, "their": {},
	"there": {}, "these": {}, "those": {}, "have": {}, "been": {},
	"with": {}, "from": {}, "that": {}, "this": {}, "how": {},
	"why": {}, "who": {}, "the": {}, "and": {}, "are": {},
	"can": {}, "could": {}, "would": {}, "should": {}, "into": {},
	"papers": {}, "paper": {}, "research": {}, "recent": {},
}

// Analyzer classifies user questions ahead of retrieval so downstream
// components know the question type and which terms to search with.
type Analyzer struct {
	generator ai.TextGenerator
	timeout   time.Duration
}

// NewAnalyzer creates a question analyzer backed by the given generator.
func NewAnalyzer(generator ai.TextGenerator) *Analyzer {
	return &Analyzer{
		generator: generator,
		timeout:   15 * time.Second,
	}
}

// AnalyzeQuestion classifies question via the language model and falls back
// to a local heuristic when the model is unreachable or returns output that
// cannot be repaired into the expected shape. It never fails.
func (a *Analyzer) AnalyzeQuestion(ctx context.Context, question string) common.QuestionAnalysis {
	analysis, err := a.analyzeWithModel(ctx, question)
	if err != nil {
		logger.Warn("[Analyze] Model analysis failed, using heuristic", "err", err)
		return HeuristicAnalysis(question)
	}
	return analysis
}

func (a *Analyzer) analyzeWithModel(ctx context.Context, question string) (common.QuestionAnalysis, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var analysis common.QuestionAnalysis
	err := a.generator.GenerateCompletionWithFormat(
		ctx,
		"question_analysis",
		"Classification of a research question with entities and search terms",
		fmt.Sprintf(ai.QuestionAnalysisPrompt, question),
		&analysis,
		ai.WithTemperature(0.1),
	)
	if err != nil {
		return common.QuestionAnalysis{}, fmt.Errorf("failed to analyze question: %w", err)
	}

	if analysis.Type == "" {
		analysis.Type = "factual"
	}
	if len(analysis.SearchTerms) == 0 {
		analysis.SearchTerms = []string{question}
	}
	if analysis.Intent == "" {
		analysis.Intent = "research query"
	}
	return analysis, nil
}

// HeuristicAnalysis builds an analysis without the model: significant tokens
// become entities, the full question becomes the single search term.
func HeuristicAnalysis(question string) common.QuestionAnalysis {
	entities := make([]string, 0, maxEntities)
	for _, token := range strings.Fields(strings.ToLower(question)) {
		token = strings.Trim(token, ".,;:!?\"'()[]")
		if len(token) <= 3 {
			continue
		}
		if _, skip := stopWords[token]; skip {
			continue
		}
		entities = append(entities, token)
		if len(entities) == maxEntities {
			break
		}
	}

	return common.QuestionAnalysis{
		Type:        "factual",
		Entities:    entities,
		SearchTerms: []string{question},
		Intent:      "research query",
	}
}
