package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/MMN3003/telegram-commander/internal/models"
	"github.com/MMN3003/telegram-commander/internal/services/telegram"
)

type fakePublisher struct {
	photos []telegram.SendPhotoRequest
	fail   bool
}

func (f *fakePublisher) SendPhoto(ctx context.Context, req telegram.SendPhotoRequest) error {
	if f.fail {
		return &telegram.APIError{Code: 400, Description: "Bad Request"}
	}
	f.photos = append(f.photos, req)
	return nil
}

func newTestPipeline(t *testing.T) (*Pipeline, *fakePublisher, *models.Database) {
	t.Helper()
	db, err := models.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	publisher := &fakePublisher{}
	pipeline := &Pipeline{
		db:      db,
		client:  publisher,
		logger:  logger,
		channel: -100,
		limit:   1024,
	}
	return pipeline, publisher, db
}

func writeDropFile(t *testing.T, name string, lines []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		t.Fatalf("failed to write drop file: %v", err)
	}
	return path
}

func TestProcessFilePublishesPerResolution(t *testing.T) {
	pipeline, publisher, _ := newTestPipeline(t)

	path := writeDropFile(t, "breaking-bad.txt", []string{
		"http://cdn/img1.jpg",
		"http://cdn/bb.S01.E01.720p.mp4",
		"http://cdn/bb.S01.E02.720p.mp4",
		"http://cdn/bb.S01.E01.1080p.mp4",
	})

	if err := pipeline.ProcessFile(context.Background(), path); err != nil {
		t.Fatalf("processing failed: %v", err)
	}

	// One batch per resolution bucket, in first-appearance order
	if len(publisher.photos) != 2 {
		t.Fatalf("expected 2 photo messages, got %d", len(publisher.photos))
	}
	for i, photo := range publisher.photos {
		if photo.Photo != "http://cdn/img1.jpg" {
			t.Errorf("message %d not sent against lead image: %q", i, photo.Photo)
		}
		if photo.ChatID != -100 {
			t.Errorf("message %d sent to wrong chat: %d", i, photo.ChatID)
		}
		if photo.ParseMode != "HTML" {
			t.Errorf("message %d missing parse mode", i)
		}
	}
	if !strings.Contains(publisher.photos[0].Caption, "<b>720P</b>") {
		t.Errorf("first batch should be the 720P bucket: %q", publisher.photos[0].Caption)
	}
	if !strings.Contains(publisher.photos[1].Caption, "<b>1080P</b>") {
		t.Errorf("second batch should be the 1080P bucket: %q", publisher.photos[1].Caption)
	}
	if !strings.Contains(publisher.photos[0].Caption, "<b>breaking bad</b>") {
		t.Errorf("caption missing file-derived title: %q", publisher.photos[0].Caption)
	}
	if !strings.Contains(publisher.photos[0].Caption, "Season 01 Episode 01") ||
		!strings.Contains(publisher.photos[0].Caption, "Season 01 Episode 02") {
		t.Errorf("720P batch missing episode lines: %q", publisher.photos[0].Caption)
	}
}

func TestProcessFileRecordsCatalogRows(t *testing.T) {
	pipeline, _, db := newTestPipeline(t)

	path := writeDropFile(t, "westworld.txt", []string{
		"http://cdn/ww.jpg",
		"http://cdn/ww.S01.E01.720p.mp4",
	})

	if err := pipeline.ProcessFile(context.Background(), path); err != nil {
		t.Fatalf("processing failed: %v", err)
	}

	entries, err := db.SearchEntries("westworld")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected the file to create one catalog entry, got %d", len(entries))
	}

	media, err := db.MediaFor(entries[0].ID, "Season 01", "Episode 01")
	if err != nil {
		t.Fatalf("media query failed: %v", err)
	}
	if len(media) != 1 || media[0].Kind != models.KindVideo || media[0].Resolution != "720P" {
		t.Errorf("unexpected media rows: %+v", media)
	}
}

func TestProcessFileUnparseableItemsSurvive(t *testing.T) {
	pipeline, publisher, _ := newTestPipeline(t)

	path := writeDropFile(t, "mystery.txt", []string{
		"http://cdn/cover.jpg",
		"http://cdn/mystery.mp4",
	})

	if err := pipeline.ProcessFile(context.Background(), path); err != nil {
		t.Fatalf("processing failed: %v", err)
	}

	if len(publisher.photos) != 1 {
		t.Fatalf("expected 1 message, got %d", len(publisher.photos))
	}
	caption := publisher.photos[0].Caption
	if !strings.Contains(caption, UnknownResolution) {
		t.Errorf("caption missing resolution sentinel: %q", caption)
	}
	if !strings.Contains(caption, UnknownSeasonEpisode) {
		t.Errorf("caption missing season/episode sentinel: %q", caption)
	}
}

func TestProcessFileSurfacesDeliveryFailure(t *testing.T) {
	pipeline, publisher, _ := newTestPipeline(t)
	publisher.fail = true

	path := writeDropFile(t, "show.txt", []string{
		"http://cdn/img.jpg",
		"http://cdn/show.S01.E01.720p.mp4",
	})

	if err := pipeline.ProcessFile(context.Background(), path); err == nil {
		t.Fatal("expected delivery failure to surface")
	}
}

func TestProcessFileMissingFile(t *testing.T) {
	pipeline, _, _ := newTestPipeline(t)
	if err := pipeline.ProcessFile(context.Background(), "/nonexistent/file.txt"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
