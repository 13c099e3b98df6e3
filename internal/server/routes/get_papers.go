package routes

import (
	"net/http"
	"strconv"

	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/internal/server/middleware"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/common"

	"github.com/labstack/echo/v4"
)

type listPapersResponse struct {
	Papers []common.Paper `json:"papers"`
	Count  int            `json:"count"`
}

// ListPapersHandler lists the stored papers, optionally filtered by topic.
func ListPapersHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App

	topic := c.QueryParam("topic")
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "limit must be a non-negative integer"})
		}
		limit = parsed
	}

	papers, err := app.Store.GetPapersByTopic(c.Request().Context(), topic, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, listPapersResponse{Papers: papers, Count: len(papers)})
}
