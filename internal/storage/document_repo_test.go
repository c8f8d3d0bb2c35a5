package storage

import (
	"context"
	"database/sql"
	"errors"
	"testing"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func TestDocumentRepoUpsertAndGet(t *testing.T) {
	repo := NewDocumentRepo(newTestDB(t))
	ctx := context.Background()

	doc := &Document{Name: "annual_report_2023.md", Year: 2023, ChunkCount: 12, Hash: "abc123"}
	if err := repo.Upsert(ctx, doc); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if doc.ID == "" {
		t.Fatal("expected generated id")
	}

	got, err := repo.GetByName(ctx, "annual_report_2023.md")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.ID != doc.ID || got.Year != 2023 || got.ChunkCount != 12 || got.Hash != "abc123" {
		t.Errorf("got %+v", got)
	}
	if got.IndexedAt.IsZero() {
		t.Error("expected indexed_at to be set")
	}
}

func TestDocumentRepoUpsertPreservesID(t *testing.T) {
	repo := NewDocumentRepo(newTestDB(t))
	ctx := context.Background()

	doc := &Document{Name: "annual_report_2022.md", Year: 2022, ChunkCount: 8, Hash: "v1"}
	if err := repo.Upsert(ctx, doc); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	originalID := doc.ID

	updated := &Document{Name: "annual_report_2022.md", Year: 2022, ChunkCount: 10, Hash: "v2"}
	if err := repo.Upsert(ctx, updated); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	if updated.ID != originalID {
		t.Errorf("expected id %q preserved, got %q", originalID, updated.ID)
	}

	got, err := repo.GetByName(ctx, "annual_report_2022.md")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.ChunkCount != 10 || got.Hash != "v2" {
		t.Errorf("expected updated fields, got %+v", got)
	}
}

func TestDocumentRepoList(t *testing.T) {
	repo := NewDocumentRepo(newTestDB(t))
	ctx := context.Background()

	for _, name := range []string{"esg_report_2023.md", "annual_report_2023.md"} {
		if err := repo.Upsert(ctx, &Document{Name: name, Year: 2023, Hash: "h"}); err != nil {
			t.Fatalf("upsert %s failed: %v", name, err)
		}
	}

	docs, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].Name != "annual_report_2023.md" || docs[1].Name != "esg_report_2023.md" {
		t.Errorf("expected name order, got %q, %q", docs[0].Name, docs[1].Name)
	}
}

func TestDocumentRepoGetMissing(t *testing.T) {
	repo := NewDocumentRepo(newTestDB(t))

	_, err := repo.GetByName(context.Background(), "nope.md")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDocumentRepoDelete(t *testing.T) {
	repo := NewDocumentRepo(newTestDB(t))
	ctx := context.Background()

	if err := repo.Upsert(ctx, &Document{Name: "old.md", Hash: "h"}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := repo.Delete(ctx, "old.md"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := repo.GetByName(ctx, "old.md"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	// Deleting a missing document is not an error.
	if err := repo.Delete(ctx, "never-there.md"); err != nil {
		t.Fatalf("delete of missing document failed: %v", err)
	}
}
