package eventlist

import (
	"fmt"
	"testing"

	"github.com/avasquez/eventdesk/internal/keys"
	"github.com/avasquez/eventdesk/internal/model"
)

func loadedModel(t *testing.T) Model {
	t.Helper()
	m := New(nil, keys.DefaultKeyMap(), 80, 24)
	m, _ = m.Update(EventsLoadedMsg{
		Events: []model.Event{
			{EventID: 1, Name: "Jazz Night"},
			{EventID: 2, Name: "Comedy Hour"},
		},
	})
	return m
}

func TestServerSearchResultsReplaceCatalogue(t *testing.T) {
	m := loadedModel(t)
	m.query = "rock"

	m, _ = m.Update(searchResultsMsg{
		query:  "rock",
		events: []model.Event{{EventID: 3, Name: "Rock Fest"}},
	})

	if len(m.events) != 1 || m.events[0].EventID != 3 {
		t.Fatalf("events = %+v, want only the server match", m.events)
	}
	if !m.serverQuery {
		t.Error("serverQuery not flagged, esc would skip the catalogue reload")
	}
}

func TestStaleSearchResultsIgnored(t *testing.T) {
	m := loadedModel(t)
	m.query = "comedy"

	m, _ = m.Update(searchResultsMsg{
		query:  "rock",
		events: []model.Event{{EventID: 3, Name: "Rock Fest"}},
	})

	if len(m.events) != 2 {
		t.Errorf("stale results applied: %+v", m.events)
	}
}

func TestFailedSearchKeepsLocalFilter(t *testing.T) {
	m := loadedModel(t)
	m.query = "jazz"

	m, _ = m.Update(searchResultsMsg{
		query: "jazz",
		err:   fmt.Errorf("server unreachable"),
	})

	if len(m.events) != 2 || m.serverQuery {
		t.Errorf("failed search must leave the loaded catalogue in place")
	}

	items := m.visibleItems()
	if len(items) != 1 {
		t.Fatalf("visible items = %d, want the local substring match", len(items))
	}
	if it := items[0].(EventItem); it.Event.EventID != 1 {
		t.Errorf("visible event = %+v, want Jazz Night", it.Event)
	}
}

func TestCatalogueReloadClearsServerQuery(t *testing.T) {
	m := loadedModel(t)
	m.serverQuery = true

	m, _ = m.Update(EventsLoadedMsg{
		Events: []model.Event{{EventID: 4, Name: "Open Mic"}},
	})

	if m.serverQuery {
		t.Error("reloading the catalogue must clear the server search flag")
	}
}
