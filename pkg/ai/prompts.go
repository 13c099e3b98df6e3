package ai

// Prompt templates for the retrieval and reasoning pipeline. Templates with
// %s placeholders are filled via fmt.Sprintf by the calling component.

// QuestionAnalysisPrompt asks the model to classify a user question. The
// response is requested as a strict JSON object; callers fall back to a
// heuristic analysis when the output cannot be parsed.
const QuestionAnalysisPrompt = `Analyze the following research question and respond with a JSON object only.

Question: %s

Respond with:
{
  "type": "factual" | "comparative" | "exploratory" | "methodological",
  "entities": ["key concepts, methods or systems mentioned"],
  "search_terms": ["terms to search the paper corpus with"],
  "intent": "one short sentence describing what the user wants"
}`

// GroundedAnswerPrompt instructs the model to answer strictly from the
// provided paper passages.
const GroundedAnswerPrompt = `You are a research assistant answering questions about academic papers.

Use ONLY the context below to answer. Cite the paper titles you draw from.
If the context is insufficient to answer, say so explicitly and state what is missing.

Question analysis: %s

Context from retrieved papers:
%s`

// AnswerReasoningPrompt asks for a short justification trace for an answer
// that was already produced.
const AnswerReasoningPrompt = `Question: %s

Answer given: %s

In 2-4 sentences, explain the reasoning behind this answer: which retrieved papers support it and how strongly.`

// FollowUpQuestionsPrompt asks for exactly three follow-up questions, one per
// line, without any other text.
const FollowUpQuestionsPrompt = `A user asked: %s

They received this answer: %s

Related papers in the corpus: %s

Suggest exactly 3 follow-up research questions the user could ask next.
Write one question per line with no numbering and no other text.`

// InvestigationPlanPrompt asks the model to decompose a research question
// into 3-5 concrete sub-questions with rationale, as JSON.
const InvestigationPlanPrompt = `Decompose the following research question into 3 to 5 concrete sub-questions that together answer it. Each sub-question must be answerable by searching a corpus of academic papers.

Question: %s

Respond with a JSON object only:
{"steps": [{"question": "...", "reasoning": "why this step is needed"}]}`

// StepAnalysisPrompt asks for step-specific analysis during an investigation.
const StepAnalysisPrompt = `You are executing step %d of a multi-step research investigation.

Original question: %s

Current step: %s
Step rationale: %s

Findings from earlier steps:
%s

Passages retrieved for this step:
%s

Respond with a JSON object only:
{"analysis": "what these passages establish for this step", "next_steps": ["suggested follow-up questions"]}`

// InvestigationSynthesisPrompt asks for a cross-step synthesis.
const InvestigationSynthesisPrompt = `A multi-step investigation of the question below has completed.

Question: %s

Steps and their confidence:
%s

Respond with a JSON object only:
{"synthesis": "an overall synthesis of the investigation", "conclusions": ["three key conclusions"]}`

// GapAnalysisPrompt asks for limitations and future research directions.
const GapAnalysisPrompt = `An investigation of "%s" produced this synthesis:

%s

Step confidence scores: %s

Respond with a JSON object only:
{"limitations": ["limitations and gaps of this investigation"], "suggested_research": ["future research directions"]}`
