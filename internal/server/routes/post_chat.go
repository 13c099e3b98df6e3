package routes

import (
	"net/http"
	"strings"

	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/internal/server/middleware"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/common"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/logger"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/synth"

	"github.com/labstack/echo/v4"
)

const (
	defaultChatLimit = 10
	chatHistoryDepth = 3
)

type chatRequest struct {
	Question       string `json:"question" validate:"required"`
	Topic          string `json:"topic"`
	ConversationID string `json:"conversation_id"`
	Limit          int    `json:"limit"`
}

type chatResponse struct {
	Kind string `json:"kind"`
	common.ChatAnswer
}

// ChatHandler answers a single question. It always responds with HTTP 200;
// retrieval or generation failures degrade the answer instead of failing
// the request.
func ChatHandler(c echo.Context) error {
	data := new(chatRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if err := c.Validate(data); err != nil || strings.TrimSpace(data.Question) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "question must not be empty"})
	}
	if data.Limit <= 0 {
		data.Limit = defaultChatLimit
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()
	question := strings.TrimSpace(data.Question)

	analysis := app.Analyzer.AnalyzeQuestion(ctx, question)

	results, err := app.Retriever.HybridSearch(ctx, question, data.Limit, data.Topic)
	if err != nil {
		logger.Warn("[Server] Retrieval failed for chat", "err", err)
		results = common.HybridResults{}
	}

	history := app.Conversations.Recent(data.ConversationID, chatHistoryDepth)
	answer := app.Synthesizer.Answer(ctx, question, analysis, results.Combined, history)

	app.Conversations.Append(data.ConversationID, synth.Turn{
		Question: question,
		Answer:   answer.Answer,
	})

	return c.JSON(http.StatusOK, chatResponse{
		Kind:       "chat",
		ChatAnswer: answer,
	})
}
