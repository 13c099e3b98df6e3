package routes

import (
	"net/http"
	"strings"

	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

const defaultSearchLimit = 10

type searchRequest struct {
	Query string `json:"query" validate:"required"`
	Topic string `json:"topic"`
	Limit int    `json:"limit"`
}

// SearchHandler exposes hybrid retrieval directly: the response carries the
// per-strategy result lists alongside the merged ranking.
func SearchHandler(c echo.Context) error {
	data := new(searchRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if err := c.Validate(data); err != nil || strings.TrimSpace(data.Query) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "query must not be empty"})
	}
	if data.Limit <= 0 {
		data.Limit = defaultSearchLimit
	}

	app := c.(*middleware.AppContext).App

	results, err := app.Retriever.HybridSearch(c.Request().Context(), data.Query, data.Limit, data.Topic)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, results)
}
