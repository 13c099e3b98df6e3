package synth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/ai"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/common"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/logger"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/store"

	"github.com/pkoukk/tiktoken-go"
)

const (
	// Upper bound on prompt size; lowest-relevance passages are dropped
	// until the prompt fits.
	promptTokenBudget = 6000

	// Prior conversation turns included in the prompt.
	historyTurns = 3

	maxFollowUps       = 3
	minFollowUpLength  = 10
	relatedTitleCount  = 3
	fallbackAnswerText = "I'm sorry, I could not produce an answer for this question right now. Please try rephrasing it or ask again later."
)

var genericSuggestions = []string{
	"What are the key papers in this research area?",
	"How has this topic evolved over recent years?",
	"Which methods are most commonly used for this problem?",
}

// Turn is one completed question/answer exchange of a conversation.
type Turn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Synthesizer produces grounded answers from retrieved papers. Its Answer
// method never returns an error; every internal failure degrades to a fixed
// apologetic response.
type Synthesizer struct {
	storage   store.GraphStorage
	generator ai.TextGenerator
	timeout   time.Duration
}

// NewSynthesizer creates an answer synthesizer over the given storage and
// generator.
func NewSynthesizer(storage store.GraphStorage, generator ai.TextGenerator) *Synthesizer {
	return &Synthesizer{
		storage:   storage,
		generator: generator,
		timeout:   60 * time.Second,
	}
}

// Answer synthesizes a grounded answer for question from the combined
// retrieval results. history carries prior turns of the same conversation,
// newest last.
func (s *Synthesizer) Answer(
	ctx context.Context,
	question string,
	analysis common.QuestionAnalysis,
	results []common.SearchResult,
	history []Turn,
) common.ChatAnswer {
	if len(results) == 0 {
		return common.ChatAnswer{
			Answer:             "I could not find any papers in the knowledge base relevant to this question. Try adding papers on the topic first, or broaden the question.",
			Reasoning:          "No papers matched any retrieval strategy.",
			Sources:            []common.Paper{},
			SuggestedQuestions: genericSuggestions,
			Confidence:         0,
			SearchType:         "hybrid",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	sources := FetchSources(ctx, s.storage, results)
	passages := ExtractPassages(sources, question)
	prompt := buildAnswerPrompt(question, analysis, passages, history)

	answer, err := s.generator.GenerateCompletion(ctx, prompt, ai.WithTemperature(0.3))
	if err != nil {
		logger.Error("[Synth] Answer generation failed", "err", err)
		return errorAnswer()
	}

	reasoning := s.generateReasoning(ctx, question, answer)
	suggestions := s.generateFollowUps(ctx, question, answer, results)

	papers := make([]common.Paper, 0, len(sources))
	fullContent := 0
	for _, source := range sources {
		papers = append(papers, source.Result.Paper)
		if source.Content.HasFullContent {
			fullContent++
		}
	}

	return common.ChatAnswer{
		Answer:             answer,
		Reasoning:          reasoning,
		Sources:            papers,
		SuggestedQuestions: suggestions,
		Confidence:         confidenceScore(results, len(passages), fullContent, len(sources)),
		SearchType:         "hybrid",
	}
}

func (s *Synthesizer) generateReasoning(ctx context.Context, question, answer string) string {
	reasoning, err := s.generator.GenerateCompletion(
		ctx,
		fmt.Sprintf(ai.AnswerReasoningPrompt, question, answer),
		ai.WithTemperature(0.2),
	)
	if err != nil {
		logger.Warn("[Synth] Reasoning generation failed", "err", err)
		return "The answer was synthesized from the retrieved paper passages shown in the sources."
	}
	return strings.TrimSpace(reasoning)
}

func (s *Synthesizer) generateFollowUps(ctx context.Context, question, answer string, results []common.SearchResult) []string {
	titles := make([]string, 0, relatedTitleCount)
	for _, result := range results {
		titles = append(titles, result.Paper.Title)
		if len(titles) == relatedTitleCount {
			break
		}
	}

	raw, err := s.generator.GenerateCompletion(
		ctx,
		fmt.Sprintf(ai.FollowUpQuestionsPrompt, question, answer, strings.Join(titles, "; ")),
		ai.WithTemperature(0.7),
	)
	if err != nil {
		logger.Warn("[Synth] Follow-up generation failed", "err", err)
		return genericSuggestions
	}

	questions := ParseQuestionList(raw)
	if len(questions) == 0 {
		return genericSuggestions
	}
	return questions
}

// ParseQuestionList splits model output into questions, one per line,
// stripping enumeration markers and discarding fragments.
func ParseQuestionList(raw string) []string {
	questions := make([]string, 0, maxFollowUps)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "0123456789.-*) ")
		if len(line) < minFollowUpLength {
			continue
		}
		questions = append(questions, line)
		if len(questions) == maxFollowUps {
			break
		}
	}
	return questions
}

func buildAnswerPrompt(question string, analysis common.QuestionAnalysis, passages []common.Passage, history []Turn) string {
	var context strings.Builder
	if start := len(history) - historyTurns; start > 0 {
		history = history[start:]
	}
	for _, turn := range history {
		fmt.Fprintf(&context, "Previous question: %s\nPrevious answer: %s\n\n", turn.Question, turn.Answer)
	}

	analysisSummary := fmt.Sprintf("type=%s intent=%s entities=%s",
		analysis.Type, analysis.Intent, strings.Join(analysis.Entities, ", "))

	base := fmt.Sprintf(ai.GroundedAnswerPrompt, analysisSummary, "")
	budget := promptTokenBudget - countTokens(base) - countTokens(context.String()) - countTokens(question)

	for _, passage := range passages {
		block := fmt.Sprintf("[%s]\n%s\n\n", passage.PaperTitle, passage.Text)
		cost := countTokens(block)
		if cost > budget {
			break
		}
		context.WriteString(block)
		budget -= cost
	}

	return fmt.Sprintf(ai.GroundedAnswerPrompt, analysisSummary, context.String()) +
		"\n\nQuestion: " + question
}

// confidenceScore weighs paper adequacy, mean retrieval score, passage
// adequacy and full-content coverage into a 0-100 score.
func confidenceScore(results []common.SearchResult, passageCount, fullContent, sourceCount int) float64 {
	paperAdequacy := capRatio(float64(len(results)) / 5.0)

	var meanScore float64
	for _, result := range results {
		meanScore += result.CombinedScore
	}
	meanScore = capRatio(meanScore / float64(len(results)))

	passageAdequacy := capRatio(float64(passageCount) / 5.0)

	var contentFraction float64
	if sourceCount > 0 {
		contentFraction = float64(fullContent) / float64(sourceCount)
	}

	score := paperAdequacy*30 + meanScore*25 + passageAdequacy*25 + contentFraction*20
	if score > 100 {
		score = 100
	}
	return score
}

func capRatio(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}

func errorAnswer() common.ChatAnswer {
	return common.ChatAnswer{
		Answer:             fallbackAnswerText,
		Reasoning:          "",
		Sources:            []common.Paper{},
		SuggestedQuestions: genericSuggestions,
		Confidence:         0,
		SearchType:         "error",
	}
}

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
)

// countTokens measures text with the o200k encoding, falling back to a
// word-count estimate when the encoding is unavailable (e.g. offline).
func countTokens(text string) int {
	encodingOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("o200k_base")
		if err != nil {
			logger.Warn("[Synth] Tokenizer unavailable, estimating by words", "err", err)
			return
		}
		encoding = enc
	})
	if encoding == nil {
		return len(strings.Fields(text)) * 4 / 3
	}
	return len(encoding.Encode(text, nil, nil))
}
