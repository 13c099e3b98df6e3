package routes

import (
	"net/http"
	"strings"

	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/internal/server/middleware"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/common"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/logger"

	"github.com/labstack/echo/v4"
)

type investigateRequest struct {
	Question string `json:"question" validate:"required"`
	Topic    string `json:"topic"`
}

type investigateResponse struct {
	Kind string `json:"kind"`
	common.Investigation
}

// InvestigateHandler runs a multi-step investigation. Investigations are
// all-or-nothing: any unrecovered failure returns HTTP 500 without a
// partial result.
func InvestigateHandler(c echo.Context) error {
	data := new(investigateRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if err := c.Validate(data); err != nil || strings.TrimSpace(data.Question) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "question must not be empty"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	investigation, err := app.Investigator.Investigate(ctx, strings.TrimSpace(data.Question), data.Topic)
	if err != nil {
		logger.Error("[Server] Investigation failed", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, investigateResponse{
		Kind:          "investigation",
		Investigation: investigation,
	})
}
