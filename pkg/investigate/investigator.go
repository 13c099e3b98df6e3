package investigate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/ai"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/common"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/logger"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/store"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/synth"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	maxPlanSteps = 5

	// Retrieval limit per step; the top papers of those are fetched for
	// content.
	stepSearchLimit = 8
	stepPaperCount  = 5

	multiStepBonus = 10
)

// HybridSearcher is the retrieval dependency of an investigation. Satisfied
// by retrieval.Retriever.
type HybridSearcher interface {
	HybridSearch(ctx context.Context, query string, limit int, topic string) (common.HybridResults, error)
}

// Investigator runs multi-step research investigations: it plans
// sub-questions, executes them in strict sequence, synthesizes the findings
// and closes with a gap analysis. Unlike single-question chat, an
// investigation is all-or-nothing: a generator transport failure at any
// stage aborts the whole run. Malformed generator output is recovered
// locally and never aborts.
type Investigator struct {
	retriever HybridSearcher
	storage   store.GraphStorage
	generator ai.TextGenerator

	stepDelay time.Duration
}

// InvestigatorOption configures an Investigator.
type InvestigatorOption func(*Investigator)

// WithStepDelay sets the pause between executed steps.
func WithStepDelay(d time.Duration) InvestigatorOption {
	return func(inv *Investigator) {
		inv.stepDelay = d
	}
}

// NewInvestigator creates an investigator over the given retriever, storage
// and generator.
func NewInvestigator(
	retriever HybridSearcher,
	storage store.GraphStorage,
	generator ai.TextGenerator,
	opts ...InvestigatorOption,
) *Investigator {
	inv := &Investigator{
		retriever: retriever,
		storage:   storage,
		generator: generator,
		stepDelay: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

type plannedStep struct {
	Question  string `json:"question"`
	Reasoning string `json:"reasoning"`
}

type investigationPlan struct {
	Steps []plannedStep `json:"steps"`
}

type stepAnalysis struct {
	Analysis  string   `json:"analysis"`
	NextSteps []string `json:"next_steps"`
}

type synthesisResult struct {
	Synthesis   string   `json:"synthesis"`
	Conclusions []string `json:"conclusions"`
}

type gapResult struct {
	Limitations       []string `json:"limitations"`
	SuggestedResearch []string `json:"suggested_research"`
}

// Investigate runs the full state machine for question and returns the
// materialized investigation.
func (inv *Investigator) Investigate(ctx context.Context, question, topic string) (common.Investigation, error) {
	id, err := gonanoid.New()
	if err != nil {
		return common.Investigation{}, fmt.Errorf("failed to create investigation id: %w", err)
	}

	logger.Info("[Investigate] Planning", "question", question)
	plan, err := inv.plan(ctx, question)
	if err != nil {
		return common.Investigation{}, err
	}

	steps := make([]common.ResearchStep, 0, len(plan))
	for i, planned := range plan {
		logger.Info("[Investigate] Executing step", "step", i+1, "of", len(plan), "question", planned.Question)

		step, err := inv.executeStep(ctx, question, topic, planned, i+1, steps)
		if err != nil {
			return common.Investigation{}, fmt.Errorf("failed at step %d: %w", i+1, err)
		}
		steps = append(steps, step)

		if i < len(plan)-1 && inv.stepDelay > 0 {
			select {
			case <-time.After(inv.stepDelay):
			case <-ctx.Done():
				return common.Investigation{}, ctx.Err()
			}
		}
	}

	logger.Info("[Investigate] Synthesizing", "steps", len(steps))
	synthesis, err := inv.synthesize(ctx, question, steps)
	if err != nil {
		return common.Investigation{}, err
	}

	logger.Info("[Investigate] Analyzing gaps")
	gaps, err := inv.analyzeGaps(ctx, question, synthesis.Synthesis, steps)
	if err != nil {
		return common.Investigation{}, err
	}

	return common.Investigation{
		ID:                 id,
		OriginalQuestion:   question,
		Steps:              steps,
		Synthesis:          synthesis.Synthesis,
		Conclusions:        synthesis.Conclusions,
		LimitationsAndGaps: gaps.Limitations,
		SuggestedResearch:  gaps.SuggestedResearch,
		Sources:            dedupeSources(steps),
		TotalConfidence:    totalConfidence(steps),
	}, nil
}

// plan asks the generator to decompose the question. A transport failure
// aborts; unparseable output degrades to a single-step plan.
func (inv *Investigator) plan(ctx context.Context, question string) ([]plannedStep, error) {
	raw, err := inv.generator.GenerateCompletion(
		ctx,
		fmt.Sprintf(ai.InvestigationPlanPrompt, question),
		ai.WithTemperature(0.2),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to plan investigation: %w", err)
	}

	var plan investigationPlan
	if err := ai.UnmarshalFlexible(raw, &plan); err != nil || len(plan.Steps) == 0 {
		logger.Warn("[Investigate] Plan unparseable, using single-step plan", "err", err)
		return []plannedStep{{
			Question:  question,
			Reasoning: "Direct investigation of the original question.",
		}}, nil
	}

	if len(plan.Steps) > maxPlanSteps {
		plan.Steps = plan.Steps[:maxPlanSteps]
	}
	return plan.Steps, nil
}

func (inv *Investigator) executeStep(
	ctx context.Context,
	original string,
	topic string,
	planned plannedStep,
	number int,
	earlier []common.ResearchStep,
) (common.ResearchStep, error) {
	stepID, err := gonanoid.New()
	if err != nil {
		return common.ResearchStep{}, fmt.Errorf("failed to create step id: %w", err)
	}

	results, err := inv.retriever.HybridSearch(ctx, planned.Question, stepSearchLimit, topic)
	if err != nil {
		return common.ResearchStep{}, fmt.Errorf("failed to search for step: %w", err)
	}

	combined := results.Combined
	if len(combined) > stepPaperCount {
		combined = combined[:stepPaperCount]
	}

	sources := synth.FetchSources(ctx, inv.storage, combined)
	passages := synth.ExtractPassages(sources, planned.Question)

	analysis, err := inv.analyzeStep(ctx, original, planned, number, earlier, passages)
	if err != nil {
		return common.ResearchStep{}, err
	}

	findings := make([]common.Paper, 0, len(combined))
	fullContent := 0
	for _, source := range sources {
		findings = append(findings, source.Result.Paper)
		if source.Content.HasFullContent {
			fullContent++
		}
	}

	return common.ResearchStep{
		ID:         stepID,
		Question:   planned.Question,
		Reasoning:  planned.Reasoning,
		Findings:   findings,
		Analysis:   analysis.Analysis,
		Confidence: stepConfidence(findings, passages, fullContent),
		NextSteps:  analysis.NextSteps,
	}, nil
}

func (inv *Investigator) analyzeStep(
	ctx context.Context,
	original string,
	planned plannedStep,
	number int,
	earlier []common.ResearchStep,
	passages []common.Passage,
) (stepAnalysis, error) {
	var findings strings.Builder
	for _, step := range earlier {
		fmt.Fprintf(&findings, "- %s: %s\n", step.Question, step.Analysis)
	}
	if findings.Len() == 0 {
		findings.WriteString("(none yet)\n")
	}

	var context strings.Builder
	for _, passage := range passages {
		fmt.Fprintf(&context, "[%s]\n%s\n\n", passage.PaperTitle, passage.Text)
	}
	if context.Len() == 0 {
		context.WriteString("(no passages retrieved)\n")
	}

	raw, err := inv.generator.GenerateCompletion(
		ctx,
		fmt.Sprintf(ai.StepAnalysisPrompt, number, original, planned.Question,
			planned.Reasoning, findings.String(), context.String()),
		ai.WithTemperature(0.3),
	)
	if err != nil {
		return stepAnalysis{}, fmt.Errorf("failed to analyze step: %w", err)
	}

	var analysis stepAnalysis
	if err := ai.UnmarshalFlexible(raw, &analysis); err != nil || analysis.Analysis == "" {
		logger.Warn("[Investigate] Step analysis unparseable, using template", "step", number, "err", err)
		return stepAnalysis{
			Analysis: fmt.Sprintf("Retrieved %d relevant passages for %q.", len(passages), planned.Question),
		}, nil
	}
	return analysis, nil
}

func (inv *Investigator) synthesize(ctx context.Context, question string, steps []common.ResearchStep) (synthesisResult, error) {
	var summary strings.Builder
	for i, step := range steps {
		fmt.Fprintf(&summary, "%d. %s (confidence %.0f): %s\n", i+1, step.Question, step.Confidence, step.Analysis)
	}

	raw, err := inv.generator.GenerateCompletion(
		ctx,
		fmt.Sprintf(ai.InvestigationSynthesisPrompt, question, summary.String()),
		ai.WithTemperature(0.3),
	)
	if err != nil {
		return synthesisResult{}, fmt.Errorf("failed to synthesize investigation: %w", err)
	}

	var synthesis synthesisResult
	if err := ai.UnmarshalFlexible(raw, &synthesis); err != nil || synthesis.Synthesis == "" {
		logger.Warn("[Investigate] Synthesis unparseable, using template", "err", err)
		return synthesisResult{
			Synthesis:   fmt.Sprintf("The investigation of %q completed %d steps; see the per-step analyses for details.", question, len(steps)),
			Conclusions: []string{"See the individual step analyses for the findings of this investigation."},
		}, nil
	}
	return synthesis, nil
}

func (inv *Investigator) analyzeGaps(ctx context.Context, question, synthesis string, steps []common.ResearchStep) (gapResult, error) {
	confidences := make([]string, 0, len(steps))
	for _, step := range steps {
		confidences = append(confidences, fmt.Sprintf("%.0f", step.Confidence))
	}

	raw, err := inv.generator.GenerateCompletion(
		ctx,
		fmt.Sprintf(ai.GapAnalysisPrompt, question, synthesis, strings.Join(confidences, ", ")),
		ai.WithTemperature(0.3),
	)
	if err != nil {
		return gapResult{}, fmt.Errorf("failed to analyze gaps: %w", err)
	}

	var gaps gapResult
	if err := ai.UnmarshalFlexible(raw, &gaps); err != nil || len(gaps.Limitations) == 0 {
		logger.Warn("[Investigate] Gap analysis unparseable, using template", "err", err)
		return gapResult{
			Limitations:       []string{"The investigation was limited to papers currently in the knowledge base."},
			SuggestedResearch: []string{"Extend the knowledge base with more recent papers on this topic."},
		}, nil
	}
	return gaps, nil
}

// stepConfidence weighs paper adequacy, full-content coverage, mean passage
// relevance and a citation-derived bonus into a 0-100 score.
func stepConfidence(findings []common.Paper, passages []common.Passage, fullContent int) float64 {
	if len(findings) == 0 {
		return 0
	}

	paperAdequacy := capRatio(float64(len(findings)) / float64(stepPaperCount))
	contentFraction := capRatio(float64(fullContent) / float64(len(findings)))

	var meanRelevance float64
	if len(passages) > 0 {
		for _, passage := range passages {
			meanRelevance += passage.Relevance
		}
		meanRelevance = capRatio(meanRelevance / float64(len(passages)))
	}

	var meanCitations float64
	for _, paper := range findings {
		meanCitations += float64(paper.CitationCount)
	}
	citationBonus := capRatio(meanCitations / float64(len(findings)) / 100.0)

	score := paperAdequacy*30 + contentFraction*25 + meanRelevance*30 + citationBonus*15
	if score > 100 {
		score = 100
	}
	return score
}

// dedupeSources flattens step findings into a single source list, first
// seen wins.
func dedupeSources(steps []common.ResearchStep) []common.Paper {
	seen := make(map[string]struct{})
	sources := make([]common.Paper, 0)
	for _, step := range steps {
		for _, paper := range step.Findings {
			if _, dup := seen[paper.ID]; dup {
				continue
			}
			seen[paper.ID] = struct{}{}
			sources = append(sources, paper)
		}
	}
	return sources
}

func totalConfidence(steps []common.ResearchStep) float64 {
	if len(steps) == 0 {
		return 0
	}
	var sum float64
	for _, step := range steps {
		sum += step.Confidence
	}
	total := sum / float64(len(steps))
	if len(steps) > 1 {
		total += multiStepBonus
	}
	if total > 100 {
		total = 100
	}
	return total
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
