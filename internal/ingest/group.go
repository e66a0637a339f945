package ingest

import "github.com/MMN3003/telegram-commander/internal/models"

// MediaGroup is one image-led unit from a drop file: a lead image and the
// video links that followed it, in file order.
type MediaGroup struct {
	LeadImageURL string
	VideoURLs    []string
}

// GroupLines scans URL lines in order: an image line opens a new group
// (closing the previous one), video lines attach to the open group, and
// videos seen before any image are dropped since they have no group to join.
// Lines that are neither image nor video are skipped.
func GroupLines(lines []string) []MediaGroup {
	var groups []MediaGroup
	open := -1

	for _, line := range lines {
		switch Classify(line) {
		case models.KindImage:
			groups = append(groups, MediaGroup{LeadImageURL: line})
			open = len(groups) - 1
		case models.KindVideo:
			if open < 0 {
				continue
			}
			groups[open].VideoURLs = append(groups[open].VideoURLs, line)
		}
	}

	return groups
}
