package analyze

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/ai"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/common"
)

// fakeGenerator returns a canned structured response or an error.
type fakeGenerator struct {
	response string
	err      error
}

func (f *fakeGenerator) GenerateCompletion(_ context.Context, _ string, _ ...ai.GenerateOption) (string, error) {
	return f.response, f.err
}

func (f *fakeGenerator) GenerateCompletionWithFormat(_ context.Context, _, _, _ string, out any, _ ...ai.GenerateOption) error {
	if f.err != nil {
		return f.err
	}
	return json.Unmarshal([]byte(f.response), out)
}

func (f *fakeGenerator) GenerateChat(_ context.Context, _ []ai.ChatMessage, _ ...ai.GenerateOption) (string, error) {
	return f.response, f.err
}

func (f *fakeGenerator) ResetMetrics()               {}
func (f *fakeGenerator) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

func TestAnalyzeQuestionModelPath(t *testing.T) {
	gen := &fakeGenerator{
		response: `{"type":"comparative","entities":["bert","gpt"],"search_terms":["bert vs gpt"],"intent":"compare models"}`,
	}
	a := NewAnalyzer(gen)

	got := a.AnalyzeQuestion(context.Background(), "How does BERT compare to GPT?")
	want := common.QuestionAnalysis{
		Type:        "comparative",
		Entities:    []string{"bert", "gpt"},
		SearchTerms: []string{"bert vs gpt"},
		Intent:      "compare models",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestAnalyzeQuestionFallsBackOnError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("model unavailable")}
	a := NewAnalyzer(gen)

	question := "What transformer architectures improve summarization quality?"
	got := a.AnalyzeQuestion(context.Background(), question)

	if got.Type != "factual" {
		t.Errorf("fallback type: got %q, want factual", got.Type)
	}
	if len(got.SearchTerms) != 1 || got.SearchTerms[0] != question {
		t.Errorf("fallback search terms: got %v", got.SearchTerms)
	}
	if len(got.Entities) == 0 {
		t.Error("fallback should extract entities from the question")
	}
}

func TestAnalyzeQuestionFallsBackOnMalformedJSON(t *testing.T) {
	gen := &fakeGenerator{response: "I think this question is about transformers."}
	a := NewAnalyzer(gen)

	got := a.AnalyzeQuestion(context.Background(), "What is attention?")
	if got.Type != "factual" || got.Intent != "research query" {
		t.Errorf("expected heuristic analysis, got %+v", got)
	}
}

func TestHeuristicAnalysis(t *testing.T) {
	tests := []struct {
		name     string
		question string
		entities []string
	}{
		{
			name:     "drops stop words and short tokens",
			question: "What are the best graph neural networks for drug discovery?",
			entities: []string{"best", "graph", "neural", "networks", "drug"},
		},
		{
			name:     "strips punctuation",
			question: "Explain (briefly) attention, please!",
			entities: []string{"explain", "briefly", "attention", "please"},
		},
		{
			name:     "empty question",
			question: "",
			entities: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HeuristicAnalysis(tt.question)
			if !reflect.DeepEqual(got.Entities, tt.entities) {
				t.Errorf("entities: got %v, want %v", got.Entities, tt.entities)
			}
			if len(got.Entities) > maxEntities {
				t.Errorf("entities exceed cap: %d", len(got.Entities))
			}
		})
	}
}
