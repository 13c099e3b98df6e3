package server

import (
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api")

	// Paper routes
	apiRoutes.GET("/papers", routes.ListPapersHandler)
	apiRoutes.POST("/papers", routes.CreatePaperHandler)

	// Retrieval routes
	apiRoutes.POST("/search", routes.SearchHandler)

	// Reasoning routes
	apiRoutes.POST("/chat", routes.ChatHandler)
	apiRoutes.POST("/investigate", routes.InvestigateHandler)
}
