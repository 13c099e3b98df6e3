package openai

import (
	"sync"

	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// TextOpenAIClient implements ai.TextGenerator against an OpenAI-compatible
// chat completion API.
//
// A TextOpenAIClient should be created using NewTextOpenAIClient.
type TextOpenAIClient struct {
	answerModel   string
	analysisModel string

	chatURL string
	chatKey string

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	ChatClient *openai.Client
}

// NewTextOpenAIClientParams defines the configuration parameters for creating
// a new TextOpenAIClient.
//
// AnswerModel is used for long-form grounded answers and syntheses.
// AnalysisModel is used for structured classification and planning calls.
// ChatURL and ChatKey configure the chat/completion API endpoint; an empty
// ChatURL selects the official OpenAI endpoint.
type NewTextOpenAIClientParams struct {
	AnswerModel   string
	AnalysisModel string

	ChatURL string
	ChatKey string
}

// NewTextOpenAIClient creates and returns a new TextOpenAIClient configured
// with the provided parameters.
func NewTextOpenAIClient(
	params NewTextOpenAIClientParams,
) *TextOpenAIClient {
	chatClient := newOpenaiClient(params.ChatURL, params.ChatKey)

	return &TextOpenAIClient{
		answerModel:   params.AnswerModel,
		analysisModel: params.AnalysisModel,

		chatURL: params.ChatURL,
		chatKey: params.ChatKey,

		ChatClient: chatClient,
	}
}

func newOpenaiClient(
	baseURL string,
	apiKey string,
) *openai.Client {
	opts := []option.RequestOption{}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	client := openai.NewClient(opts...)
	return &client
}

// ResetMetrics clears the accumulated model metrics.
func (c *TextOpenAIClient) ResetMetrics() {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	c.metrics = ai.ModelMetrics{}
}

// GetMetrics returns a snapshot of the accumulated model metrics.
func (c *TextOpenAIClient) GetMetrics() ai.ModelMetrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	return c.metrics
}

func (c *TextOpenAIClient) modifyMetrics(m ai.ModelMetrics) {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()

	c.metrics.InputTokens += m.InputTokens
	c.metrics.OutputTokens += m.OutputTokens
	c.metrics.TotalTokens += m.TotalTokens
	c.metrics.DurationMs += m.DurationMs
	if c.metrics.DurationMs > 0 {
		c.metrics.TokenPerSecond = float32(c.metrics.OutputTokens) / (float32(c.metrics.DurationMs) / 1000.0)
	}
}
