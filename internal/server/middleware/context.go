package middleware

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/internal/server/util"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/internal/storage"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/analyze"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/embedding"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/investigate"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/retrieval"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/store"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/synth"
)

// App bundles the long-lived collaborators every request handler needs.
type App struct {
	DBConn        *pgxpool.Pool
	Queue         *amqp091.Channel
	Archive       *storage.PaperArchive
	Store         store.GraphStorage
	Embedder      *embedding.Engine
	Retriever     *retrieval.Retriever
	Analyzer      *analyze.Analyzer
	Synthesizer   *synth.Synthesizer
	Investigator  *investigate.Investigator
	Conversations *util.ConversationStore
}

// AppContext is the echo context carrying the application state.
type AppContext struct {
	echo.Context
	App *App
}

// AppContextMiddleware wraps every request context with the shared App.
func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return next(&AppContext{c, app})
		}
	}
}
