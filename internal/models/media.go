package models

import "time"

// CatalogEntry is a named unit of content (a show, a collection) owning zero
// or more media items. Entries are created by ingestion and read by browsing.
type CatalogEntry struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// MediaItem is one deliverable asset tagged with the metadata extracted from
// its URL. Season, Episode and Resolution are empty when the URL matched no
// known naming convention.
type MediaItem struct {
	ID             uint `gorm:"primaryKey"`
	CatalogEntryID uint `gorm:"index"`
	URL            string
	Kind           MediaKind
	Season         string
	Episode        string
	Resolution     string

	// Delivered is write-only telemetry: set after a successful send, never
	// read back to gate re-delivery.
	Delivered bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
