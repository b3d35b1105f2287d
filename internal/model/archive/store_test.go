package archive_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/echotwin/echotwin/internal/model/archive"
)

func testArchive() *archive.Archive {
	return &archive.Archive{
		Participants: []archive.Participant{{Name: "Alice"}, {Name: "Bob"}},
		Messages: []archive.Message{
			{SenderName: "Alice", Content: "hello", TimestampMS: 2000},
			{SenderName: "Bob", Content: "hi", TimestampMS: 1000},
		},
	}
}

func TestFileStoreSaveLoad(t *testing.T) {
	store, err := archive.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore err: %v", err)
	}

	if err := store.SaveArchive("abc", testArchive()); err != nil {
		t.Fatalf("SaveArchive err: %v", err)
	}

	doc, err := store.LoadArchive("abc")
	if err != nil {
		t.Fatalf("LoadArchive err: %v", err)
	}
	if len(doc.Messages) != 2 || doc.Messages[0].SenderName != "Alice" {
		t.Fatalf("unexpected archive: %+v", doc)
	}
}

func TestFileStoreLoadMissing(t *testing.T) {
	store, err := archive.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore err: %v", err)
	}

	if _, err := store.LoadArchive("missing"); !errors.Is(err, archive.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFileStoreLoadSurvivesCacheLoss(t *testing.T) {
	dir := t.TempDir()

	first, err := archive.NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore err: %v", err)
	}
	if err := first.SaveArchive("abc", testArchive()); err != nil {
		t.Fatalf("SaveArchive err: %v", err)
	}

	// A fresh store over the same directory simulates a restart.
	second, err := archive.NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore err: %v", err)
	}
	doc, err := second.LoadArchive("abc")
	if err != nil {
		t.Fatalf("LoadArchive after restart err: %v", err)
	}
	if len(doc.Participants) != 2 {
		t.Fatalf("unexpected archive after restart: %+v", doc)
	}
}

func TestFileStoreCleanupIdempotent(t *testing.T) {
	dir := t.TempDir()
	store, err := archive.NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore err: %v", err)
	}

	if err := store.SaveArchive("abc", testArchive()); err != nil {
		t.Fatalf("SaveArchive err: %v", err)
	}
	if err := store.SaveChunkSummary("abc", 1, "summary one"); err != nil {
		t.Fatalf("SaveChunkSummary err: %v", err)
	}
	if err := store.SaveChunkSummary("abc", 2, "summary two"); err != nil {
		t.Fatalf("SaveChunkSummary err: %v", err)
	}

	if err := store.Cleanup("abc"); err != nil {
		t.Fatalf("Cleanup err: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir err: %v", err)
	}
	for _, entry := range entries {
		t.Fatalf("residual artifact after cleanup: %s", filepath.Join(dir, entry.Name()))
	}

	if err := store.Cleanup("abc"); err != nil {
		t.Fatalf("second Cleanup must not error, got %v", err)
	}

	if _, err := store.LoadArchive("abc"); !errors.Is(err, archive.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after cleanup, got %v", err)
	}
}
