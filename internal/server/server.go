package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/internal/queue"
	mid "github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/internal/server/middleware"
	serverutil "github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/internal/server/util"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/internal/storage"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/internal/util"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/ai"
	oai "github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/ai/ollama"
	gai "github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/ai/openai"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/analyze"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/cache"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/common"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/embedding"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/investigate"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/logger"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/retrieval"
	graphstorage "github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/store/pgx"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/synth"

	"github.com/go-playground/validator"
	"github.com/golang-migrate/migrate/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	pgxvec "github.com/pgvector/pgvector-go/pgx"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

func Init() {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runMigrations()

	conn, err := pgxpool.New(ctx, util.GetEnv("DATABASE_URL"))
	if err != nil {
		logger.Fatal("Failed to connect to database", "err", err)
	}
	defer conn.Close()
	conn.Config().AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	que := queue.Init()
	defer que.Close()
	ch, err := que.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	if err := queue.SetupQueues(ch, []string{queue.IngestQueue}); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	archive, err := storage.NewPaperArchive(ctx)
	if err != nil {
		logger.Warn("Object storage unavailable, S3 ingest sources disabled", "err", err)
		archive = nil
	}

	generator := newTextGenerator()
	embedder := embedding.NewEngine()
	graphStore := graphstorage.NewGraphDBStorage(conn)

	resultTTL := util.GetEnvDuration("SEARCH_CACHE_TTL", 5*time.Minute)
	resultCache := cache.New[common.HybridResults](resultTTL, int(util.GetEnvNumeric("SEARCH_CACHE_SIZE", 256)))
	retriever := retrieval.NewRetriever(graphStore, embedder, retrieval.WithCache(resultCache))

	app := &mid.App{
		DBConn:      conn,
		Queue:       ch,
		Archive:     archive,
		Store:       graphStore,
		Embedder:    embedder,
		Retriever:   retriever,
		Analyzer:    analyze.NewAnalyzer(generator),
		Synthesizer: synth.NewSynthesizer(graphStore, generator),
		Investigator: investigate.NewInvestigator(
			retriever,
			graphStore,
			generator,
			investigate.WithStepDelay(util.GetEnvDuration("INVESTIGATE_STEP_DELAY", 500*time.Millisecond)),
		),
		Conversations: serverutil.NewConversationStore(
			util.GetEnvDuration("CONVERSATION_TTL", 30*time.Minute),
			int(util.GetEnvNumeric("CONVERSATION_CAPACITY", 1024)),
		),
	}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("64M"))

	RegisterRoutes(e)

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}

// newTextGenerator builds the language-model client selected by AI_ADAPTER.
func newTextGenerator() ai.TextGenerator {
	switch util.GetEnv("AI_ADAPTER") {
	case "ollama":
		client, err := oai.NewTextOllamaClient(oai.NewTextOllamaClientParams{
			AnswerModel:   util.GetEnv("AI_ANSWER_MODEL"),
			AnalysisModel: util.GetEnv("AI_ANALYSIS_MODEL"),

			BaseURL: util.GetEnv("AI_CHAT_URL"),
			ApiKey:  util.GetEnv("AI_CHAT_KEY"),

			MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 15)),
		})
		if err != nil {
			logger.Fatal("Failed to create Ollama client", "err", err)
		}
		return client
	default:
		return gai.NewTextOpenAIClient(gai.NewTextOpenAIClientParams{
			AnswerModel:   util.GetEnv("AI_ANSWER_MODEL"),
			AnalysisModel: util.GetEnv("AI_ANALYSIS_MODEL"),

			ChatURL: util.GetEnv("AI_CHAT_URL"),
			ChatKey: util.GetEnv("AI_CHAT_KEY"),
		})
	}
}

// runMigrations applies pending SQL migrations before the pool opens.
func runMigrations() {
	source := "file://" + util.GetEnvString("MIGRATIONS_PATH", "migrations")
	m, err := migrate.New(source, util.GetEnv("DATABASE_URL"))
	if err != nil {
		logger.Fatal("Failed to initialize migrations", "err", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Fatal("Failed to run migrations", "err", err)
	}
	logger.Info("Database migrations up to date")
}
