package models

import (
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// maxSearchResults caps how many catalog entries one search returns.
const maxSearchResults = 10

// Database wraps the sqlite store behind the catalog queries the bot and the
// ingestion pipeline need. Season and episode listings are fronted by a small
// TTL cache: catalog writes happen out of band and staleness is acceptable.
type Database struct {
	db       *gorm.DB
	listings *gocache.Cache
}

// NewDatabase creates a new database connection and migrates the schema
func NewDatabase(path string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&CatalogEntry{}, &MediaItem{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &Database{
		db:       db,
		listings: gocache.New(5*time.Minute, 10*time.Minute),
	}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Catalog entry operations

// SearchEntries finds entries whose name contains the query, case
// insensitively, ordered by name and capped at maxSearchResults.
func (d *Database) SearchEntries(query string) ([]CatalogEntry, error) {
	var entries []CatalogEntry
	pattern := "%" + strings.ToLower(query) + "%"
	err := d.db.
		Where("lower(name) LIKE ?", pattern).
		Order("name").
		Limit(maxSearchResults).
		Find(&entries).Error
	return entries, err
}

// GetEntry retrieves a catalog entry by ID
func (d *Database) GetEntry(id uint) (*CatalogEntry, error) {
	var entry CatalogEntry
	if err := d.db.First(&entry, id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// EntryNames returns every catalog entry name, used for search suggestions
func (d *Database) EntryNames() ([]string, error) {
	var names []string
	err := d.db.Model(&CatalogEntry{}).Order("name").Pluck("name", &names).Error
	return names, err
}

// UpsertEntry returns the entry with the given name, creating it if missing
func (d *Database) UpsertEntry(name string) (*CatalogEntry, error) {
	entry := CatalogEntry{Name: name}
	if err := d.db.Where("name = ?", name).FirstOrCreate(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// Media item operations

// DistinctSeasons lists the distinct season labels of an entry, ascending.
func (d *Database) DistinctSeasons(entryID uint) ([]string, error) {
	key := fmt.Sprintf("seasons:%d", entryID)
	if cached, ok := d.listings.Get(key); ok {
		return cached.([]string), nil
	}

	var seasons []string
	err := d.db.Model(&MediaItem{}).
		Where("catalog_entry_id = ?", entryID).
		Distinct().
		Order("season").
		Pluck("season", &seasons).Error
	if err != nil {
		return nil, err
	}

	d.listings.Set(key, seasons, gocache.DefaultExpiration)
	return seasons, nil
}

// DistinctEpisodes lists the distinct episode labels of a season, ascending.
func (d *Database) DistinctEpisodes(entryID uint, season string) ([]string, error) {
	key := fmt.Sprintf("episodes:%d:%s", entryID, season)
	if cached, ok := d.listings.Get(key); ok {
		return cached.([]string), nil
	}

	var episodes []string
	err := d.db.Model(&MediaItem{}).
		Where("catalog_entry_id = ? AND season = ?", entryID, season).
		Distinct().
		Order("episode").
		Pluck("episode", &episodes).Error
	if err != nil {
		return nil, err
	}

	d.listings.Set(key, episodes, gocache.DefaultExpiration)
	return episodes, nil
}

// MediaFor retrieves all media items of one (entry, season, episode) address
func (d *Database) MediaFor(entryID uint, season, episode string) ([]MediaItem, error) {
	var items []MediaItem
	err := d.db.
		Where("catalog_entry_id = ? AND season = ? AND episode = ?", entryID, season, episode).
		Order("id").
		Find(&items).Error
	return items, err
}

// SaveMediaItems stores a batch of media rows for an entry
func (d *Database) SaveMediaItems(items []MediaItem) error {
	if len(items) == 0 {
		return nil
	}
	if err := d.db.Create(&items).Error; err != nil {
		return err
	}
	// New rows can change the listings, drop the cached ones
	d.listings.Flush()
	return nil
}

// MarkDelivered flags media rows as delivered. Best effort: callers log the
// error and move on, browsing never depends on the flag.
func (d *Database) MarkDelivered(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return d.db.Model(&MediaItem{}).
		Where("id IN ?", ids).
		Update("delivered", true).Error
}
