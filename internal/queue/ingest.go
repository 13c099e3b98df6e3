package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/internal/storage"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/common"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/embedding"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/loader"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/loader/doc"
	fsloader "github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/loader/io"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/loader/pdf"
	s3loader "github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/loader/s3"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/loader/web"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/logger"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/relate"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/store"
)

// Characters of extracted content mixed into the paper embedding alongside
// title and abstract.
const embedContentPrefix = 2000

// IngestMessage is one paper ingest job. Exactly one of SourceURL, S3Key and
// LocalPath names where the raw content lives; when all are empty the paper
// is stored with its abstract only.
type IngestMessage struct {
	Paper     common.Paper `json:"paper"`
	Topic     string       `json:"topic"`
	SourceURL string       `json:"source_url,omitempty"`
	S3Key     string       `json:"s3_key,omitempty"`
	LocalPath string       `json:"local_path,omitempty"`
}

// Ingestor executes ingest jobs: it loads the raw paper content, extracts
// text, refreshes the paper embedding, stores everything and infers the
// paper's graph edges.
type Ingestor struct {
	storage  store.GraphStorage
	embedder *embedding.Engine

	webLoader *web.WebContentLoader
	fsLoader  *fsloader.FileContentLoader
	s3Loader  *s3loader.ArchiveContentLoader
}

// NewIngestor creates an ingestor. archive may be nil when no object storage
// is configured; S3-sourced jobs then fail and retry.
func NewIngestor(graphStore store.GraphStorage, embedder *embedding.Engine, archive *storage.PaperArchive) *Ingestor {
	ingestor := &Ingestor{
		storage:   graphStore,
		embedder:  embedder,
		webLoader: web.NewWebContentLoader(),
		fsLoader:  fsloader.NewFileContentLoader(),
	}
	if archive != nil {
		ingestor.s3Loader = s3loader.NewArchiveContentLoader(archive)
	}
	return ingestor
}

// ProcessIngest handles one ingest job. A returned error sends the message
// to the retry queue.
func (ing *Ingestor) ProcessIngest(ctx context.Context, msgBody []byte) error {
	var msg IngestMessage
	if err := json.Unmarshal(msgBody, &msg); err != nil {
		return fmt.Errorf("failed to decode ingest message: %w", err)
	}
	if msg.Paper.ID == "" {
		return fmt.Errorf("ingest message without paper id")
	}

	logger.Info("[Ingest] Processing paper", "paper", msg.Paper.ID, "topic", msg.Topic)

	content, err := ing.loadContent(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to load content for %s: %w", msg.Paper.ID, err)
	}

	paper := msg.Paper
	paper.HasFullContent = len(content) > 0
	if paper.ContentType == "" {
		paper.ContentType = "text/plain"
	}
	paper.Embedding = ing.embedder.Embed(embedText(paper, content))

	if err := ing.storage.StorePaper(ctx, paper, msg.Topic, content); err != nil {
		return fmt.Errorf("failed to store paper %s: %w", paper.ID, err)
	}

	if err := relate.InferRelationships(ctx, ing.storage, paper, msg.Topic); err != nil {
		// Edges can be re-inferred on the next ingest for this topic.
		logger.Warn("[Ingest] Relationship inference failed", "paper", paper.ID, "err", err)
	}

	logger.Info("[Ingest] Paper ingested", "paper", paper.ID, "content_bytes", len(content))
	return nil
}

func (ing *Ingestor) loadContent(ctx context.Context, msg IngestMessage) ([]byte, error) {
	file, raw, err := ing.resolveSource(msg)
	if err != nil || raw == nil {
		return nil, err
	}

	switch file.Kind {
	case loader.SourceKindPDF:
		return pdf.NewPDFContentLoader(raw).FetchText(ctx, file)
	case loader.SourceKindDoc:
		return doc.NewDocContentLoader(raw).FetchText(ctx, file)
	default:
		return raw.FetchText(ctx, file)
	}
}

// resolveSource picks the raw loader for the job. A nil loader with nil
// error means the job carries no content source.
func (ing *Ingestor) resolveSource(msg IngestMessage) (loader.PaperFile, loader.ContentLoader, error) {
	switch {
	case msg.SourceURL != "":
		return loader.PaperFile{
			PaperID: msg.Paper.ID,
			Path:    msg.SourceURL,
			Kind:    loader.KindForPath(msg.SourceURL),
		}, ing.webLoader, nil
	case msg.S3Key != "":
		if ing.s3Loader == nil {
			return loader.PaperFile{}, nil, fmt.Errorf("no object storage configured for key %s", msg.S3Key)
		}
		return loader.PaperFile{
			PaperID: msg.Paper.ID,
			Path:    msg.S3Key,
			Kind:    loader.KindForPath(msg.S3Key),
		}, ing.s3Loader, nil
	case msg.LocalPath != "":
		return loader.PaperFile{
			PaperID: msg.Paper.ID,
			Path:    msg.LocalPath,
			Kind:    loader.KindForPath(msg.LocalPath),
		}, ing.fsLoader, nil
	}
	return loader.PaperFile{}, nil, nil
}

// embedText builds the embedding input: title, abstract and a bounded
// prefix of the extracted content when it is valid text.
func embedText(paper common.Paper, content []byte) string {
	var sb strings.Builder
	sb.WriteString(paper.Title)
	sb.WriteString("\n")
	sb.WriteString(paper.Abstract)

	text := string(content)
	if utf8.ValidString(text) {
		if len(text) > embedContentPrefix {
			cut := embedContentPrefix
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			text = text[:cut]
		}
		sb.WriteString("\n")
		sb.WriteString(text)
	}
	return sb.String()
}
