package queue

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/common"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/embedding"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/store/memory"
)

func ingestBody(t *testing.T, msg IngestMessage) []byte {
	t.Helper()
	body, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal ingest message: %v", err)
	}
	return body
}

func TestProcessIngestStoresContentAndEmbedding(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "paper.txt")
	if err := os.WriteFile(path, []byte("full text about graph retrieval systems"), 0o600); err != nil {
		t.Fatal(err)
	}

	storage := memory.NewMemoryGraphStorage()
	ing := NewIngestor(storage, embedding.NewEngine(), nil)

	paper := common.Paper{
		ID:       "p1",
		Title:    "Graph Retrieval",
		Abstract: "A study of graph retrieval.",
	}
	err := ing.ProcessIngest(context.Background(), ingestBody(t, IngestMessage{
		Paper:     paper,
		Topic:     "ir",
		LocalPath: path,
	}))
	if err != nil {
		t.Fatalf("ProcessIngest: %v", err)
	}

	content, err := storage.GetFullContent(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetFullContent: %v", err)
	}
	if !content.HasFullContent {
		t.Error("expected full content after ingest")
	}
	if string(content.Content) != "full text about graph retrieval systems" {
		t.Errorf("unexpected content: %q", content.Content)
	}

	papers, err := storage.GetPapersByTopic(context.Background(), "ir", 0)
	if err != nil {
		t.Fatalf("GetPapersByTopic: %v", err)
	}
	if len(papers) != 1 || len(papers[0].Embedding) != embedding.Dimensions {
		t.Errorf("expected one paper with a %d-dim embedding, got %+v", embedding.Dimensions, papers)
	}
}

func TestProcessIngestWithoutSourceStoresAbstractOnly(t *testing.T) {
	storage := memory.NewMemoryGraphStorage()
	ing := NewIngestor(storage, embedding.NewEngine(), nil)

	err := ing.ProcessIngest(context.Background(), ingestBody(t, IngestMessage{
		Paper: common.Paper{ID: "p1", Title: "T", Abstract: "The abstract."},
		Topic: "ir",
	}))
	if err != nil {
		t.Fatalf("ProcessIngest: %v", err)
	}

	content, err := storage.GetFullContent(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetFullContent: %v", err)
	}
	if content.HasFullContent {
		t.Error("paper without a source must not claim full content")
	}
}

func TestProcessIngestRejectsBadMessages(t *testing.T) {
	ing := NewIngestor(memory.NewMemoryGraphStorage(), embedding.NewEngine(), nil)

	if err := ing.ProcessIngest(context.Background(), []byte("not json")); err == nil {
		t.Error("expected error for malformed message")
	}
	if err := ing.ProcessIngest(context.Background(), []byte("{}")); err == nil {
		t.Error("expected error for message without paper id")
	}
}

func TestProcessIngestS3WithoutArchiveFails(t *testing.T) {
	ing := NewIngestor(memory.NewMemoryGraphStorage(), embedding.NewEngine(), nil)

	err := ing.ProcessIngest(context.Background(), ingestBody(t, IngestMessage{
		Paper: common.Paper{ID: "p1"},
		S3Key: "papers/p1.pdf",
	}))
	if err == nil {
		t.Error("expected error when object storage is not configured")
	}
}
