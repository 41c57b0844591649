package headlessblog

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/eringen/headlessblog/content"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "data", "test_content.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStore(t *testing.T) {
	s := setupTestStore(t)
	if s.db == nil {
		t.Fatal("db should not be nil")
	}
}

func TestSaveAndGetDocument(t *testing.T) {
	s := setupTestStore(t)
	date := "2021-03-25T19:25:28+0000"
	doc := content.RawDocument{
		ID:                   "YF1",
		UID:                  "como-utilizar-hooks",
		Type:                 "post",
		FirstPublicationDate: &date,
		Data: content.RawData{
			Title:    "Como utilizar Hooks",
			Subtitle: "Pensando em sincronização em vez de ciclos de vida",
			Author:   "Joseph Oliveira",
		},
	}
	if err := s.SaveDocument(doc); err != nil {
		t.Fatalf("SaveDocument failed: %v", err)
	}

	got, err := s.GetDocument("como-utilizar-hooks")
	if err != nil {
		t.Fatalf("GetDocument failed: %v", err)
	}
	if got.Data.Title != doc.Data.Title {
		t.Errorf("expected title %q, got %q", doc.Data.Title, got.Data.Title)
	}
	if got.FirstPublicationDate == nil || *got.FirstPublicationDate != date {
		t.Errorf("expected publication date %q, got %v", date, got.FirstPublicationDate)
	}

	doc.Data.Title = "Como utilizar Hooks (revisado)"
	if err := s.SaveDocument(doc); err != nil {
		t.Fatalf("SaveDocument update failed: %v", err)
	}
	got, _ = s.GetDocument("como-utilizar-hooks")
	if got.Data.Title != "Como utilizar Hooks (revisado)" {
		t.Errorf("expected updated title, got %q", got.Data.Title)
	}

	n, err := s.CountDocuments()
	if err != nil {
		t.Fatalf("CountDocuments failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 document, got %d", n)
	}
}

func TestSaveDocumentRequiresUID(t *testing.T) {
	s := setupTestStore(t)
	if err := s.SaveDocument(content.RawDocument{}); err == nil {
		t.Fatal("expected error for document without uid")
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	s := setupTestStore(t)
	if _, err := s.GetDocument("nonexistent"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveAndGetPage(t *testing.T) {
	s := setupTestStore(t)
	page := content.RawPage{
		Page:       1,
		TotalPages: 2,
		Next:       "cursor-2",
		Results:    []content.RawDocument{{UID: "a"}, {UID: "b"}},
	}
	before := time.Now().Add(-time.Second)
	if err := s.SavePage("listing", page); err != nil {
		t.Fatalf("SavePage failed: %v", err)
	}

	got, at, err := s.GetPage("listing")
	if err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}
	if got.Next != "cursor-2" || len(got.Results) != 2 || got.Results[1].UID != "b" {
		t.Errorf("unexpected page: %+v", got)
	}
	if at.Before(before) {
		t.Errorf("expected fetch time after %v, got %v", before, at)
	}

	if _, _, err := s.GetPage("missing"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestBanners(t *testing.T) {
	s := setupTestStore(t)
	b := Banner{
		UID:       "post-a",
		SourceURL: "https://images.example.com/a.png",
		JPEG:      []byte{0xff, 0xd8, 0xff},
		Width:     800,
		Height:    400,
		CreatedAt: time.Now(),
	}
	if err := s.SaveBanner(b); err != nil {
		t.Fatalf("SaveBanner failed: %v", err)
	}
	got, err := s.GetBanner("post-a")
	if err != nil {
		t.Fatalf("GetBanner failed: %v", err)
	}
	if got.SourceURL != b.SourceURL || got.Width != 800 || len(got.JPEG) != 3 {
		t.Errorf("unexpected banner: %+v", got)
	}

	if err := s.DeleteBanners(); err != nil {
		t.Fatalf("DeleteBanners failed: %v", err)
	}
	if _, err := s.GetBanner("post-a"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}
