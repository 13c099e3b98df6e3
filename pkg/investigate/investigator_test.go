package investigate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/ai"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/common"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/store/memory"
)

// routingGenerator answers each pipeline stage with a canned response,
// routed by prompt shape.
type routingGenerator struct {
	planResponse      string
	analysisResponse  string
	synthesisResponse string
	gapResponse       string

	planErr error
	stepErr error
}

func (g *routingGenerator) GenerateCompletion(_ context.Context, prompt string, _ ...ai.GenerateOption) (string, error) {
	switch {
	case strings.Contains(prompt, "Decompose the following research question"):
		if g.planErr != nil {
			return "", g.planErr
		}
		return g.planResponse, nil
	case strings.Contains(prompt, "executing step"):
		if g.stepErr != nil {
			return "", g.stepErr
		}
		return g.analysisResponse, nil
	case strings.Contains(prompt, "multi-step investigation of the question below"):
		return g.synthesisResponse, nil
	case strings.Contains(prompt, "produced this synthesis"):
		return g.gapResponse, nil
	}
	return "", errors.New("unexpected prompt")
}

func (g *routingGenerator) GenerateCompletionWithFormat(_ context.Context, _, _, _ string, _ any, _ ...ai.GenerateOption) error {
	return errors.New("not used")
}

func (g *routingGenerator) GenerateChat(_ context.Context, _ []ai.ChatMessage, _ ...ai.GenerateOption) (string, error) {
	return "", errors.New("not used")
}

func (g *routingGenerator) ResetMetrics()               {}
func (g *routingGenerator) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

// fakeSearcher returns a fixed result list per query.
type fakeSearcher struct {
	byQuery map[string][]common.SearchResult
	queries []string
}

func (f *fakeSearcher) HybridSearch(_ context.Context, query string, _ int, _ string) (common.HybridResults, error) {
	f.queries = append(f.queries, query)
	return common.HybridResults{Combined: f.byQuery[query]}, nil
}

func paperResult(id string, citations int) common.SearchResult {
	return common.SearchResult{
		Paper: common.Paper{
			ID:            id,
			Title:         "Paper " + id,
			Abstract:      "Abstract of paper " + id,
			CitationCount: citations,
		},
		CombinedScore: 1,
	}
}

func workingGenerator() *routingGenerator {
	return &routingGenerator{
		planResponse:      `{"steps":[{"question":"first sub-question","reasoning":"r1"},{"question":"second sub-question","reasoning":"r2"}]}`,
		analysisResponse:  `{"analysis":"these passages establish the claim","next_steps":["dig deeper"]}`,
		synthesisResponse: `{"synthesis":"overall picture","conclusions":["c1","c2","c3"]}`,
		gapResponse:       `{"limitations":["small corpus"],"suggested_research":["collect more papers"]}`,
	}
}

func TestInvestigateExecutesPlannedStepsInOrder(t *testing.T) {
	searcher := &fakeSearcher{byQuery: map[string][]common.SearchResult{
		"first sub-question":  {paperResult("A", 50)},
		"second sub-question": {paperResult("B", 10)},
	}}
	inv := NewInvestigator(searcher, memory.NewMemoryGraphStorage(), workingGenerator(), WithStepDelay(0))

	result, err := inv.Investigate(context.Background(), "big question", "ml")
	if err != nil {
		t.Fatalf("Investigate: %v", err)
	}

	if len(result.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(result.Steps))
	}
	if result.Steps[0].Question != "first sub-question" || result.Steps[1].Question != "second sub-question" {
		t.Errorf("steps out of order: %q, %q", result.Steps[0].Question, result.Steps[1].Question)
	}
	if got := searcher.queries; len(got) != 2 || got[0] != "first sub-question" {
		t.Errorf("unexpected search order: %v", got)
	}
	if result.Synthesis != "overall picture" {
		t.Errorf("synthesis: got %q", result.Synthesis)
	}
	if len(result.Conclusions) != 3 {
		t.Errorf("conclusions: got %v", result.Conclusions)
	}
	if len(result.LimitationsAndGaps) != 1 || len(result.SuggestedResearch) != 1 {
		t.Errorf("gap analysis missing: %+v", result)
	}
	if result.ID == "" {
		t.Error("investigation id must be set")
	}
}

func TestInvestigateDeduplicatesSources(t *testing.T) {
	shared := paperResult("A", 50)
	searcher := &fakeSearcher{byQuery: map[string][]common.SearchResult{
		"first sub-question":  {shared, paperResult("B", 5)},
		"second sub-question": {shared, paperResult("C", 5)},
	}}
	inv := NewInvestigator(searcher, memory.NewMemoryGraphStorage(), workingGenerator(), WithStepDelay(0))

	result, err := inv.Investigate(context.Background(), "q", "")
	if err != nil {
		t.Fatalf("Investigate: %v", err)
	}

	if len(result.Sources) != 3 {
		t.Fatalf("expected 3 deduplicated sources, got %d", len(result.Sources))
	}
	wantOrder := []string{"A", "B", "C"}
	for i, want := range wantOrder {
		if result.Sources[i].ID != want {
			t.Errorf("source %d: got %s, want %s", i, result.Sources[i].ID, want)
		}
	}
}

func TestInvestigateMultiStepBonus(t *testing.T) {
	searcher := &fakeSearcher{byQuery: map[string][]common.SearchResult{
		"first sub-question":  {paperResult("A", 0)},
		"second sub-question": {paperResult("B", 0)},
	}}
	inv := NewInvestigator(searcher, memory.NewMemoryGraphStorage(), workingGenerator(), WithStepDelay(0))

	result, err := inv.Investigate(context.Background(), "q", "")
	if err != nil {
		t.Fatalf("Investigate: %v", err)
	}

	var mean float64
	for _, step := range result.Steps {
		mean += step.Confidence
	}
	mean /= float64(len(result.Steps))

	if got, want := result.TotalConfidence, mean+multiStepBonus; got != want {
		t.Errorf("total confidence: got %v, want %v", got, want)
	}
}

func TestInvestigateSingleStepNoBonus(t *testing.T) {
	gen := workingGenerator()
	gen.planResponse = `{"steps":[{"question":"only sub-question","reasoning":"r"}]}`
	searcher := &fakeSearcher{byQuery: map[string][]common.SearchResult{
		"only sub-question": {paperResult("A", 0)},
	}}
	inv := NewInvestigator(searcher, memory.NewMemoryGraphStorage(), gen, WithStepDelay(0))

	result, err := inv.Investigate(context.Background(), "q", "")
	if err != nil {
		t.Fatalf("Investigate: %v", err)
	}
	if len(result.Steps) != 1 {
		t.Fatalf("expected 1 step, got %d", len(result.Steps))
	}
	if result.TotalConfidence != result.Steps[0].Confidence {
		t.Errorf("single-step total must equal step confidence: %v vs %v",
			result.TotalConfidence, result.Steps[0].Confidence)
	}
}

func TestInvestigateMalformedPlanFallsBackToSingleStep(t *testing.T) {
	gen := workingGenerator()
	gen.planResponse = "I cannot produce JSON today."
	searcher := &fakeSearcher{byQuery: map[string][]common.SearchResult{
		"the original question": {paperResult("A", 0)},
	}}
	inv := NewInvestigator(searcher, memory.NewMemoryGraphStorage(), gen, WithStepDelay(0))

	result, err := inv.Investigate(context.Background(), "the original question", "")
	if err != nil {
		t.Fatalf("Investigate: %v", err)
	}
	if len(result.Steps) != 1 || result.Steps[0].Question != "the original question" {
		t.Errorf("expected single-step fallback plan, got %+v", result.Steps)
	}
}

func TestInvestigatePlanTruncatedToFive(t *testing.T) {
	gen := workingGenerator()
	gen.planResponse = `{"steps":[
		{"question":"s1","reasoning":"r"},{"question":"s2","reasoning":"r"},
		{"question":"s3","reasoning":"r"},{"question":"s4","reasoning":"r"},
		{"question":"s5","reasoning":"r"},{"question":"s6","reasoning":"r"},
		{"question":"s7","reasoning":"r"}]}`
	searcher := &fakeSearcher{byQuery: map[string][]common.SearchResult{}}
	inv := NewInvestigator(searcher, memory.NewMemoryGraphStorage(), gen, WithStepDelay(0))

	result, err := inv.Investigate(context.Background(), "q", "")
	if err != nil {
		t.Fatalf("Investigate: %v", err)
	}
	if len(result.Steps) != maxPlanSteps {
		t.Errorf("expected %d steps, got %d", maxPlanSteps, len(result.Steps))
	}
}

func TestInvestigateTransportErrorAborts(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*routingGenerator)
	}{
		{"planning failure", func(g *routingGenerator) { g.planErr = errors.New("timeout") }},
		{"step failure", func(g *routingGenerator) { g.stepErr = errors.New("timeout") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := workingGenerator()
			tt.mod(gen)
			searcher := &fakeSearcher{byQuery: map[string][]common.SearchResult{
				"first sub-question":  {paperResult("A", 0)},
				"second sub-question": {paperResult("B", 0)},
			}}
			inv := NewInvestigator(searcher, memory.NewMemoryGraphStorage(), gen, WithStepDelay(0))

			if _, err := inv.Investigate(context.Background(), "q", ""); err == nil {
				t.Fatal("expected investigation to abort on transport error")
			}
		})
	}
}

func TestInvestigateMalformedStepAnalysisRecovers(t *testing.T) {
	gen := workingGenerator()
	gen.analysisResponse = "definitely not json"
	searcher := &fakeSearcher{byQuery: map[string][]common.SearchResult{
		"first sub-question":  {paperResult("A", 0)},
		"second sub-question": {paperResult("B", 0)},
	}}
	inv := NewInvestigator(searcher, memory.NewMemoryGraphStorage(), gen, WithStepDelay(0))

	result, err := inv.Investigate(context.Background(), "q", "")
	if err != nil {
		t.Fatalf("malformed analysis must not abort: %v", err)
	}
	for _, step := range result.Steps {
		if step.Analysis == "" {
			t.Error("template fallback should fill the analysis")
		}
	}
}
