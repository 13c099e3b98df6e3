package routes

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/internal/queue"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/internal/server/middleware"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/common"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/logger"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type createPaperRequest struct {
	ID            string   `json:"id"`
	Title         string   `json:"title" validate:"required"`
	Abstract      string   `json:"abstract" validate:"required"`
	Authors       []string `json:"authors"`
	Year          int      `json:"year"`
	CitationCount int      `json:"citation_count"`
	Venue         string   `json:"venue"`
	DOI           string   `json:"doi"`
	URL           string   `json:"url"`
	Keywords      []string `json:"keywords"`
	Topic         string   `json:"topic"`

	// Optional content source for the ingest worker.
	SourceURL string `json:"source_url"`
	S3Key     string `json:"s3_key"`
	LocalPath string `json:"local_path"`
}

type createPaperResponse struct {
	Paper  common.Paper `json:"paper"`
	Queued bool         `json:"queued"`
}

// CreatePaperHandler stores a paper with a locally computed embedding and
// enqueues an ingest job for its full content.
func CreatePaperHandler(c echo.Context) error {
	data := new(createPaperRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "title and abstract are required"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	id := strings.TrimSpace(data.ID)
	if id == "" {
		generated, err := gonanoid.New()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create paper id"})
		}
		id = generated
	}

	paper := common.Paper{
		ID:            id,
		Title:         data.Title,
		Abstract:      data.Abstract,
		Authors:       data.Authors,
		Year:          data.Year,
		CitationCount: data.CitationCount,
		Venue:         data.Venue,
		DOI:           data.DOI,
		URL:           data.URL,
		Keywords:      data.Keywords,
	}
	paper.Embedding = app.Embedder.Embed(paper.Title + "\n" + paper.Abstract)

	if err := app.Store.StorePaper(ctx, paper, data.Topic, nil); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	msg, err := json.Marshal(queue.IngestMessage{
		Paper:     paper,
		Topic:     data.Topic,
		SourceURL: data.SourceURL,
		S3Key:     data.S3Key,
		LocalPath: data.LocalPath,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	queued := true
	if err := queue.PublishFIFO(app.Queue, queue.IngestQueue, msg); err != nil {
		// The paper is stored; ingest can be retried by re-posting.
		logger.Error("[Server] Failed to enqueue ingest job", "paper", paper.ID, "err", err)
		queued = false
	}

	return c.JSON(http.StatusCreated, createPaperResponse{Paper: paper, Queued: queued})
}
