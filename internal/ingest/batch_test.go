package ingest

import (
	"fmt"
	"strings"
	"testing"
)

func TestBuildBatchesSingleBlock(t *testing.T) {
	items := []BatchItem{
		{Label: "Season 01 Episode 01", URL: "http://cdn/show.S01.E01.720p.mkv"},
		{Label: "Season 01 Episode 02", URL: "http://cdn/show.S01.E02.720p.mkv"},
	}

	batches := BuildBatches("Westworld", "720P", items, 1024)
	if len(batches) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(batches))
	}

	if !strings.HasPrefix(batches[0], "<b>Westworld</b>\n<b>720P</b>\n\n") {
		t.Errorf("batch missing header: %q", batches[0])
	}
	if !strings.Contains(batches[0], `Season 01 Episode 01: <a href="http://cdn/show.S01.E01.720p.mkv">show.S01.E01.720p.mkv</a>`) {
		t.Errorf("batch missing item line: %q", batches[0])
	}
}

func TestBuildBatchesRespectsLimit(t *testing.T) {
	var items []BatchItem
	for i := 0; i < 40; i++ {
		items = append(items, BatchItem{
			Label: fmt.Sprintf("Season 01 Episode %02d", i+1),
			URL:   fmt.Sprintf("http://cdn/show.S01.E%02d.720p.mkv", i+1),
		})
	}

	const limit = 512
	batches := BuildBatches("Westworld", "720P", items, limit)
	if len(batches) < 2 {
		t.Fatalf("expected multiple batches, got %d", len(batches))
	}

	header := "<b>Westworld</b>\n<b>720P</b>\n\n"
	for i, batch := range batches {
		if len(batch) > limit {
			t.Errorf("batch %d exceeds limit: %d > %d", i, len(batch), limit)
		}
		if !strings.HasPrefix(batch, header) {
			t.Errorf("batch %d missing header", i)
		}
	}

	// Concatenating all item lines reproduces the input sequence exactly
	var lines []string
	for _, batch := range batches {
		body := strings.TrimPrefix(batch, header)
		for _, line := range strings.Split(body, "\n") {
			if line != "" {
				lines = append(lines, line)
			}
		}
	}
	if len(lines) != len(items) {
		t.Fatalf("expected %d lines across batches, got %d", len(items), len(lines))
	}
	for i, line := range lines {
		if !strings.HasPrefix(line, items[i].Label+":") {
			t.Errorf("line %d out of order: %q", i, line)
		}
	}
}

func TestBuildBatchesEscapesText(t *testing.T) {
	items := []BatchItem{
		{Label: "Episode <01>", URL: "http://cdn/a&b.mp4"},
	}

	batches := BuildBatches("Tom & Jerry", "720P", items, 1024)
	if len(batches) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(batches))
	}
	if !strings.Contains(batches[0], "<b>Tom &amp; Jerry</b>") {
		t.Errorf("title not escaped: %q", batches[0])
	}
	if !strings.Contains(batches[0], "Episode &lt;01&gt;:") {
		t.Errorf("label not escaped: %q", batches[0])
	}
	if !strings.Contains(batches[0], `href="http://cdn/a&amp;b.mp4"`) {
		t.Errorf("href not escaped: %q", batches[0])
	}
}

func TestBuildBatchesEmptyInput(t *testing.T) {
	if batches := BuildBatches("Westworld", "720P", nil, 1024); len(batches) != 0 {
		t.Errorf("expected no batches for empty input, got %d", len(batches))
	}
}
