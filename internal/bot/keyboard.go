package bot

import (
	"github.com/MMN3003/telegram-commander/internal/models"
	"github.com/MMN3003/telegram-commander/internal/services/telegram"
)

func mainMenuKeyboard() *telegram.InlineKeyboardMarkup {
	kb := telegram.NewInlineKeyboardMarkup([][]telegram.InlineKeyboardButton{
		{{Text: "Search the catalog", CallbackData: PromptSearch{}.Token()}},
		{{Text: "Help", CallbackData: ShowHelp{}.Token()}},
	})
	return &kb
}

// entryKeyboard renders one button per search hit, in the order given
func entryKeyboard(entries []models.CatalogEntry) *telegram.InlineKeyboardMarkup {
	rows := make([][]telegram.InlineKeyboardButton, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []telegram.InlineKeyboardButton{{
			Text:         entry.Name,
			CallbackData: OpenEntry{EntryID: entry.ID}.Token(),
		}})
	}
	kb := telegram.NewInlineKeyboardMarkup(rows)
	return &kb
}

func seasonKeyboard(entryID uint, seasons []string) *telegram.InlineKeyboardMarkup {
	rows := make([][]telegram.InlineKeyboardButton, 0, len(seasons)+1)
	for _, season := range seasons {
		rows = append(rows, []telegram.InlineKeyboardButton{{
			Text:         seasonLabel(season),
			CallbackData: OpenSeason{EntryID: entryID, Season: season}.Token(),
		}})
	}
	rows = append(rows, []telegram.InlineKeyboardButton{{
		Text:         "« Back to search",
		CallbackData: BackToSearch{}.Token(),
	}})
	kb := telegram.NewInlineKeyboardMarkup(rows)
	return &kb
}

// episodeKeyboard pairs episode buttons two per row
func episodeKeyboard(entryID uint, season string, episodes []string) *telegram.InlineKeyboardMarkup {
	var rows [][]telegram.InlineKeyboardButton
	var row []telegram.InlineKeyboardButton
	for _, episode := range episodes {
		row = append(row, telegram.InlineKeyboardButton{
			Text:         episodeLabel(episode),
			CallbackData: OpenEpisode{EntryID: entryID, Season: season, Episode: episode}.Token(),
		})
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, []telegram.InlineKeyboardButton{{
		Text:         "« Back",
		CallbackData: BackToEntry{EntryID: entryID}.Token(),
	}})
	kb := telegram.NewInlineKeyboardMarkup(rows)
	return &kb
}

// Ingestion stores empty labels for URLs that matched no naming convention;
// the buttons still need readable text.
func seasonLabel(season string) string {
	if season == "" {
		return "Unknown Season"
	}
	return season
}

func episodeLabel(episode string) string {
	if episode == "" {
		return "Unknown Episode"
	}
	return episode
}
