package bot

import (
	"errors"
	"testing"
)

func TestParseCallbackRoundTrip(t *testing.T) {
	callbacks := []Callback{
		OpenEntry{EntryID: 5},
		OpenSeason{EntryID: 5, Season: "Season 01"},
		OpenEpisode{EntryID: 5, Season: "Season 01", Episode: "Episode 03"},
		BackToSearch{},
		BackToEntry{EntryID: 5},
		ShowHelp{},
		PromptSearch{},
	}

	for _, cb := range callbacks {
		decoded, err := ParseCallback(cb.Token())
		if err != nil {
			t.Errorf("failed to decode %q: %v", cb.Token(), err)
			continue
		}
		if decoded != cb {
			t.Errorf("round trip mismatch: %#v -> %q -> %#v", cb, cb.Token(), decoded)
		}
	}
}

func TestParseCallbackTokens(t *testing.T) {
	decoded, err := ParseCallback("episode:7:Season 01:Episode 03")
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	ep, ok := decoded.(OpenEpisode)
	if !ok {
		t.Fatalf("expected OpenEpisode, got %#v", decoded)
	}
	if ep.EntryID != 7 || ep.Season != "Season 01" || ep.Episode != "Episode 03" {
		t.Errorf("unexpected fields: %#v", ep)
	}

	// Empty season/episode fields address the unknown-metadata bucket
	decoded, err = ParseCallback("episode:7::")
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	ep = decoded.(OpenEpisode)
	if ep.Season != "" || ep.Episode != "" {
		t.Errorf("expected empty season/episode, got %#v", ep)
	}
}

func TestParseCallbackFailsClosed(t *testing.T) {
	malformed := []string{
		"",
		"bogus",
		"page",
		"page:notanumber",
		"page:1:extra",
		"season:1",
		"episode:1:only-season",
		"back",
		"back:page:notanumber",
		"back:elsewhere",
		"help:me",
		"search_init:now",
		"drop:table",
	}

	for _, data := range malformed {
		if _, err := ParseCallback(data); !errors.Is(err, ErrUnknownCommand) {
			t.Errorf("ParseCallback(%q) = %v, want ErrUnknownCommand", data, err)
		}
	}
}
