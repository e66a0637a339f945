package ingest

import (
	"fmt"
	"strings"

	"github.com/MMN3003/telegram-commander/internal/services/telegram"
)

// BatchItem is one caption line's worth of input: a season/episode label and
// the link it points at.
type BatchItem struct {
	Label string
	URL   string
}

// BuildBatches packs caption lines into the fewest blocks a first-fit greedy
// pass produces. Every block starts with the bold title and resolution header
// and stays within limit characters. Items appear in input order, never
// reordered across blocks.
func BuildBatches(title, resolution string, items []BatchItem, limit int) []string {
	header := fmt.Sprintf("<b>%s</b>\n<b>%s</b>\n\n",
		telegram.EscapeHTML(title), telegram.EscapeHTML(resolution))

	var batches []string
	current := header

	for _, item := range items {
		line := fmt.Sprintf("%s: <a href=\"%s\">%s</a>\n",
			telegram.EscapeHTML(item.Label),
			telegram.EscapeHTML(item.URL),
			telegram.EscapeHTML(LastSegment(item.URL)))

		if current != header && len(current)+len(line) > limit {
			batches = append(batches, strings.TrimRight(current, "\n"))
			current = header
		}
		current += line
	}

	if current != header {
		batches = append(batches, strings.TrimRight(current, "\n"))
	}

	return batches
}
