package ingest

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/MMN3003/telegram-commander/internal/config"
	"github.com/MMN3003/telegram-commander/internal/metrics"
	"github.com/MMN3003/telegram-commander/internal/models"
	"github.com/MMN3003/telegram-commander/internal/services/telegram"
)

// Publisher is the outbound surface the pipeline needs from the transport.
type Publisher interface {
	SendPhoto(ctx context.Context, req telegram.SendPhotoRequest) error
}

// Pipeline republishes dropped link files to the target channel. Processing
// keeps no dedup ledger: re-processing a file re-sends its content.
type Pipeline struct {
	db      *models.Database
	client  Publisher
	logger  *logrus.Logger
	channel int64
	limit   int
	delay   time.Duration
}

// NewPipeline creates a new ingestion pipeline
func NewPipeline(db *models.Database, client Publisher, cfg *config.Config, logger *logrus.Logger) *Pipeline {
	return &Pipeline{
		db:      db,
		client:  client,
		logger:  logger,
		channel: cfg.ChannelID,
		limit:   cfg.CaptionLimit,
		delay:   cfg.MessageDelay,
	}
}

// ProcessFile reads one drop file, groups its URLs, and publishes a caption
// batch per (group, resolution) bucket against the group's lead image.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read drop file: %w", err)
	}

	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}

	groups := GroupLines(lines)
	title := DisplayName(path)

	p.logger.WithFields(logrus.Fields{
		"file":   path,
		"lines":  len(lines),
		"groups": len(groups),
	}).Info("Processing drop file")

	// Record the content in the catalog so it becomes browsable. Publishing
	// proceeds even if the store write fails.
	entry, err := p.db.UpsertEntry(title)
	if err != nil {
		p.logger.WithError(err).WithField("title", title).Warn("Failed to record catalog entry")
		entry = nil
	}

	for _, group := range groups {
		if err := p.publishGroup(ctx, title, group); err != nil {
			return err
		}
		if entry != nil {
			p.recordGroup(entry.ID, group)
		}
	}

	metrics.IngestedFiles.Inc()
	return nil
}

// publishGroup partitions a group's videos by resolution and sends one photo
// message per caption batch, paced by the configured delay. Batches go out
// strictly in input order, each delivery awaited before the next.
func (p *Pipeline) publishGroup(ctx context.Context, title string, group MediaGroup) error {
	buckets, order := partitionByResolution(group.VideoURLs)

	sent := 0
	for _, resolution := range order {
		items := make([]BatchItem, 0, len(buckets[resolution]))
		for _, url := range buckets[resolution] {
			items = append(items, BatchItem{Label: SeasonEpisodeLabel(url), URL: url})
		}

		for _, caption := range BuildBatches(title, resolution, items, p.limit) {
			if sent > 0 {
				time.Sleep(p.delay)
			}
			err := p.client.SendPhoto(ctx, telegram.SendPhotoRequest{
				ChatID:    p.channel,
				Photo:     group.LeadImageURL,
				Caption:   caption,
				ParseMode: "HTML",
			})
			if err != nil {
				return fmt.Errorf("failed to publish batch: %w", err)
			}
			sent++
			metrics.IngestedBatches.Inc()
		}
	}

	return nil
}

// partitionByResolution buckets video URLs by extracted resolution, keeping
// both bucket order (first appearance) and in-bucket order stable.
func partitionByResolution(urls []string) (map[string][]string, []string) {
	buckets := make(map[string][]string)
	var order []string

	for _, url := range urls {
		resolution := Resolution(url)
		if _, ok := buckets[resolution]; !ok {
			order = append(order, resolution)
		}
		buckets[resolution] = append(buckets[resolution], url)
	}

	return buckets, order
}

// recordGroup stores the group's rows so the browse bot can serve them.
// Best effort: a failed write only logs.
func (p *Pipeline) recordGroup(entryID uint, group MediaGroup) {
	items := []models.MediaItem{{
		CatalogEntryID: entryID,
		URL:            group.LeadImageURL,
		Kind:           models.KindImage,
	}}

	for _, url := range group.VideoURLs {
		season, episode := SeasonEpisode(url)
		if episode == UnknownSeasonEpisode {
			episode = ""
		}
		resolution := Resolution(url)
		if resolution == UnknownResolution {
			resolution = ""
		}
		items = append(items, models.MediaItem{
			CatalogEntryID: entryID,
			URL:            url,
			Kind:           models.KindVideo,
			Season:         season,
			Episode:        episode,
			Resolution:     resolution,
		})
	}

	if err := p.db.SaveMediaItems(items); err != nil {
		p.logger.WithError(err).Warn("Failed to record media rows")
	}
}
