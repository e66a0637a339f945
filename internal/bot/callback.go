package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownCommand is returned for tokens the decoder does not recognize.
// Decoding fails closed: unknown tags and malformed fields all land here.
var ErrUnknownCommand = errors.New("unknown command")

// Callback is one decoded inline-button token. The token string is the sole
// navigation state: every screen is rebuilt from its token and the catalog
// store, so the bot survives restarts and concurrent chats without sessions.
type Callback interface {
	Token() string
}

// OpenEntry renders the season list of a catalog entry (`page:<id>`)
type OpenEntry struct {
	EntryID uint
}

// OpenSeason renders the episode list of a season (`season:<id>:<s>`)
type OpenSeason struct {
	EntryID uint
	Season  string
}

// OpenEpisode dispatches the media of an episode (`episode:<id>:<s>:<e>`)
type OpenEpisode struct {
	EntryID uint
	Season  string
	Episode string
}

// BackToSearch returns to the search prompt (`back:search`)
type BackToSearch struct{}

// BackToEntry returns to an entry's season list (`back:page:<id>`)
type BackToEntry struct {
	EntryID uint
}

// ShowHelp renders the help text (`help`)
type ShowHelp struct{}

// PromptSearch prompts for a search query (`search_init`)
type PromptSearch struct{}

func (c OpenEntry) Token() string { return fmt.Sprintf("page:%d", c.EntryID) }
func (c OpenSeason) Token() string {
	return fmt.Sprintf("season:%d:%s", c.EntryID, c.Season)
}
func (c OpenEpisode) Token() string {
	return fmt.Sprintf("episode:%d:%s:%s", c.EntryID, c.Season, c.Episode)
}
func (BackToSearch) Token() string  { return "back:search" }
func (c BackToEntry) Token() string { return fmt.Sprintf("back:page:%d", c.EntryID) }
func (ShowHelp) Token() string      { return "help" }
func (PromptSearch) Token() string  { return "search_init" }

// ParseCallback decodes a colon-delimited callback token
func ParseCallback(data string) (Callback, error) {
	fields := strings.Split(data, ":")

	switch fields[0] {
	case "page":
		if len(fields) != 2 {
			return nil, ErrUnknownCommand
		}
		id, err := parseEntryID(fields[1])
		if err != nil {
			return nil, ErrUnknownCommand
		}
		return OpenEntry{EntryID: id}, nil

	case "season":
		if len(fields) != 3 {
			return nil, ErrUnknownCommand
		}
		id, err := parseEntryID(fields[1])
		if err != nil {
			return nil, ErrUnknownCommand
		}
		return OpenSeason{EntryID: id, Season: fields[2]}, nil

	case "episode":
		if len(fields) != 4 {
			return nil, ErrUnknownCommand
		}
		id, err := parseEntryID(fields[1])
		if err != nil {
			return nil, ErrUnknownCommand
		}
		return OpenEpisode{EntryID: id, Season: fields[2], Episode: fields[3]}, nil

	case "back":
		if len(fields) == 2 && fields[1] == "search" {
			return BackToSearch{}, nil
		}
		if len(fields) == 3 && fields[1] == "page" {
			id, err := parseEntryID(fields[2])
			if err != nil {
				return nil, ErrUnknownCommand
			}
			return BackToEntry{EntryID: id}, nil
		}
		return nil, ErrUnknownCommand

	case "help":
		if len(fields) != 1 {
			return nil, ErrUnknownCommand
		}
		return ShowHelp{}, nil

	case "search_init":
		if len(fields) != 1 {
			return nil, ErrUnknownCommand
		}
		return PromptSearch{}, nil

	default:
		return nil, ErrUnknownCommand
	}
}

func parseEntryID(field string) (uint, error) {
	id, err := strconv.ParseUint(field, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
