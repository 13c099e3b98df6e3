package synth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/ai"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/common"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/store/memory"
)

type fakeGenerator struct {
	completions []string
	err         error
	calls       int
	prompts     []string
}

func (f *fakeGenerator) GenerateCompletion(_ context.Context, prompt string, _ ...ai.GenerateOption) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	response := "ok"
	if f.calls < len(f.completions) {
		response = f.completions[f.calls]
	}
	f.calls++
	return response, nil
}

func (f *fakeGenerator) GenerateCompletionWithFormat(_ context.Context, _, _, _ string, _ any, _ ...ai.GenerateOption) error {
	return f.err
}

func (f *fakeGenerator) GenerateChat(_ context.Context, _ []ai.ChatMessage, _ ...ai.GenerateOption) (string, error) {
	return "", f.err
}

func (f *fakeGenerator) ResetMetrics()               {}
func (f *fakeGenerator) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

func result(id, title, abstract string, score float64) common.SearchResult {
	return common.SearchResult{
		Paper: common.Paper{
			ID:       id,
			Title:    title,
			Abstract: abstract,
		},
		CombinedScore: score,
		Sources:       []string{"keyword"},
	}
}

func TestAnswerWithoutPapers(t *testing.T) {
	s := NewSynthesizer(memory.NewMemoryGraphStorage(), &fakeGenerator{})

	answer := s.Answer(context.Background(), "What is attention?", common.QuestionAnalysis{}, nil, nil)

	if answer.Confidence != 0 {
		t.Errorf("confidence: got %v, want 0", answer.Confidence)
	}
	if len(answer.SuggestedQuestions) == 0 {
		t.Error("expected non-empty suggested questions")
	}
	if answer.SearchType != "hybrid" {
		t.Errorf("search type: got %q, want hybrid", answer.SearchType)
	}
	if len(answer.Sources) != 0 {
		t.Errorf("expected no sources, got %d", len(answer.Sources))
	}
}

func TestAnswerNeverFailsOnGeneratorError(t *testing.T) {
	s := NewSynthesizer(memory.NewMemoryGraphStorage(), &fakeGenerator{err: errors.New("model down")})

	answer := s.Answer(
		context.Background(),
		"What is attention?",
		common.QuestionAnalysis{},
		[]common.SearchResult{result("A", "Attention Is All You Need", "Transformers.", 1)},
		nil,
	)

	if answer.SearchType != "error" {
		t.Errorf("search type: got %q, want error", answer.SearchType)
	}
	if answer.Confidence != 0 {
		t.Errorf("confidence: got %v, want 0", answer.Confidence)
	}
	if len(answer.SuggestedQuestions) != 3 {
		t.Errorf("expected 3 generic suggestions, got %d", len(answer.SuggestedQuestions))
	}
}

func TestAnswerHappyPath(t *testing.T) {
	gen := &fakeGenerator{completions: []string{
		"Attention lets models weigh tokens.",
		"Supported by the transformer paper.",
		"What is multi-head attention?\nHow does attention scale?\nWhat replaced recurrence?",
	}}
	s := NewSynthesizer(memory.NewMemoryGraphStorage(), gen)

	results := []common.SearchResult{
		result("A", "Attention Is All You Need", "We propose the transformer based on attention.", 0.9),
	}
	answer := s.Answer(context.Background(), "How does attention work?", common.QuestionAnalysis{Type: "factual"}, results, nil)

	if answer.Answer != "Attention lets models weigh tokens." {
		t.Errorf("unexpected answer: %q", answer.Answer)
	}
	if answer.Reasoning != "Supported by the transformer paper." {
		t.Errorf("unexpected reasoning: %q", answer.Reasoning)
	}
	if len(answer.SuggestedQuestions) != 3 {
		t.Fatalf("expected 3 follow-ups, got %v", answer.SuggestedQuestions)
	}
	if len(answer.Sources) != 1 || answer.Sources[0].ID != "A" {
		t.Errorf("unexpected sources: %+v", answer.Sources)
	}
	if answer.Confidence <= 0 || answer.Confidence > 100 {
		t.Errorf("confidence out of range: %v", answer.Confidence)
	}
	if answer.SearchType != "hybrid" {
		t.Errorf("search type: got %q", answer.SearchType)
	}
}

func TestAnswerIncludesHistoryInPrompt(t *testing.T) {
	gen := &fakeGenerator{}
	s := NewSynthesizer(memory.NewMemoryGraphStorage(), gen)

	history := []Turn{{Question: "Earlier question?", Answer: "Earlier answer."}}
	s.Answer(
		context.Background(),
		"Follow-up question?",
		common.QuestionAnalysis{},
		[]common.SearchResult{result("A", "Some Paper", "Some abstract.", 1)},
		history,
	)

	if len(gen.prompts) == 0 {
		t.Fatal("generator was never called")
	}
	if !strings.Contains(gen.prompts[0], "Earlier question?") {
		t.Error("prompt should include prior conversation turns")
	}
}

func TestExtractPassagesAbstractFallbacks(t *testing.T) {
	tests := []struct {
		name      string
		content   common.PaperContent
		relevance float64
	}{
		{
			name: "binary full content falls back at 0.8",
			content: common.PaperContent{
				Content:        []byte{0xff, 0xfe, 0x00, 0x01},
				ContentType:    "application/pdf",
				HasFullContent: true,
			},
			relevance: 0.8,
		},
		{
			name:      "missing content falls back at 0.5",
			content:   common.PaperContent{HasFullContent: false},
			relevance: 0.5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sources := []SourcePaper{{
				Result:  result("A", "Paper A", "The abstract text.", 1),
				Content: tt.content,
			}}
			passages := ExtractPassages(sources, "irrelevant question terms")
			if len(passages) != 1 {
				t.Fatalf("expected 1 passage, got %d", len(passages))
			}
			if passages[0].Relevance != tt.relevance {
				t.Errorf("relevance: got %v, want %v", passages[0].Relevance, tt.relevance)
			}
			if passages[0].Text != "The abstract text." {
				t.Errorf("passage text: got %q", passages[0].Text)
			}
		})
	}
}

func TestExtractPassagesScoresChunks(t *testing.T) {
	text := "transformer attention mechanisms scale with sequence length " +
		strings.Repeat("filler word lists here nothing ", 20)
	sources := []SourcePaper{{
		Result: result("A", "Paper A", "abstract", 1),
		Content: common.PaperContent{
			Content:        []byte(text),
			ContentType:    "text/plain",
			HasFullContent: true,
		},
	}}

	passages := ExtractPassages(sources, "How do transformer attention mechanisms scale?")
	if len(passages) != 1 {
		t.Fatalf("expected 1 passing chunk, got %d", len(passages))
	}
	// All four question terms (transformer, attention, mechanisms, scale)
	// appear in the chunk.
	if passages[0].Relevance != 1.0 {
		t.Errorf("relevance: got %v, want 1.0", passages[0].Relevance)
	}
}

func TestExtractPassagesDropsIrrelevantChunks(t *testing.T) {
	sources := []SourcePaper{{
		Result: result("A", "Paper A", "abstract", 1),
		Content: common.PaperContent{
			Content:        []byte("completely unrelated botany words about ferns and moss"),
			ContentType:    "text/plain",
			HasFullContent: true,
		},
	}}
	passages := ExtractPassages(sources, "quantum error correction codes")
	if len(passages) != 0 {
		t.Errorf("expected no passages, got %d", len(passages))
	}
}

func TestExtractPassagesCapsAtTen(t *testing.T) {
	sources := make([]SourcePaper, 0, 12)
	for i := range 12 {
		sources = append(sources, SourcePaper{
			Result:  result(string(rune('A'+i)), "Paper", "An abstract.", 1),
			Content: common.PaperContent{HasFullContent: false},
		})
	}
	passages := ExtractPassages(sources, "question")
	if len(passages) != maxPassages {
		t.Errorf("expected %d passages, got %d", maxPassages, len(passages))
	}
}

func TestParseQuestionList(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{
			name: "clean lines",
			raw:  "What is X about here?\nHow does Y work?\nWhy is Z relevant?",
			want: 3,
		},
		{
			name: "numbered with fragments",
			raw:  "1. What is multi-head attention?\n2) short\n- How does positional encoding work?",
			want: 2,
		},
		{
			name: "more than three",
			raw:  "Question one is long enough?\nQuestion two is long enough?\nQuestion three is long enough?\nQuestion four is long enough?",
			want: 3,
		},
		{
			name: "empty",
			raw:  "",
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseQuestionList(tt.raw)
			if len(got) != tt.want {
				t.Errorf("got %d questions (%v), want %d", len(got), got, tt.want)
			}
			for _, q := range got {
				if strings.HasPrefix(q, "1") || strings.HasPrefix(q, "-") {
					t.Errorf("enumeration marker not stripped: %q", q)
				}
			}
		})
	}
}

func TestConfidenceScoreBounds(t *testing.T) {
	results := []common.SearchResult{
		result("A", "t", "a", 5), result("B", "t", "a", 5),
		result("C", "t", "a", 5), result("D", "t", "a", 5),
		result("E", "t", "a", 5),
	}
	score := confidenceScore(results, 10, 5, 5)
	if score != 100 {
		t.Errorf("saturated inputs should score 100, got %v", score)
	}

	if got := confidenceScore(results[:1], 0, 0, 1); got <= 0 || got >= 100 {
		t.Errorf("partial inputs should score strictly between 0 and 100, got %v", got)
	}
}
