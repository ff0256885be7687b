package ics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sylee2006/Mobile-project/internal/model"
)

const simpleICS = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//EN
BEGIN:VEVENT
UID:single-1
SUMMARY:Dentist
LOCATION:12 Main St
DTSTART:20260406T090000Z
DTEND:20260406T100000Z
END:VEVENT
BEGIN:VEVENT
UID:weekly-1
SUMMARY:Standup
LOCATION:https://meet.example.com/standup
DTSTART:20260406T083000Z
DTEND:20260406T084500Z
RRULE:FREQ=WEEKLY;COUNT=4
END:VEVENT
END:VCALENDAR
`

func crlf(s string) []byte {
	return []byte(strings.ReplaceAll(s, "\n", "\r\n"))
}

func TestParseICS(t *testing.T) {
	src := Source{ID: "test"}
	events, err := ParseICS(src, crlf(simpleICS))
	if err != nil {
		t.Fatalf("ParseICS: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("parsed %d events, want 2", len(events))
	}

	byUID := make(map[string]ParsedEvent)
	for _, ev := range events {
		byUID[ev.UID] = ev
	}

	single, ok := byUID["single-1"]
	if !ok {
		t.Fatal("single-1 not parsed")
	}
	if single.Summary != "Dentist" || single.Location != "12 Main St" {
		t.Errorf("single = %+v", single)
	}
	if single.RawRRule != "" || single.AllDay {
		t.Errorf("single should be a plain timed event: %+v", single)
	}
	wantStart := time.Date(2026, time.April, 6, 9, 0, 0, 0, time.UTC)
	if !single.Start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", single.Start, wantStart)
	}

	weekly := byUID["weekly-1"]
	if weekly.RawRRule != "FREQ=WEEKLY;COUNT=4" {
		t.Errorf("RawRRule = %q", weekly.RawRRule)
	}
}

func TestParseICSEmptyBody(t *testing.T) {
	if _, err := ParseICS(Source{ID: "x"}, nil); err == nil {
		t.Fatal("expected error for empty body")
	}
}

func TestExpandEvents(t *testing.T) {
	src := Source{ID: "test"}
	parsed, err := ParseICS(src, crlf(simpleICS))
	if err != nil {
		t.Fatal(err)
	}

	rangeStart := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	rangeEnd := time.Date(2026, time.May, 31, 0, 0, 0, 0, time.UTC)

	res, err := ExpandEvents(parsed, ExpandConfig{
		DisplayLocation: time.UTC,
		RangeStart:      rangeStart,
		RangeEnd:        rangeEnd,
	})
	if err != nil {
		t.Fatalf("ExpandEvents: %v", err)
	}

	// 1 single + 4 weekly occurrences.
	if len(res.Events) != 5 {
		t.Fatalf("expanded %d events, want 5", len(res.Events))
	}

	var weekly []model.Event
	for _, ev := range res.Events {
		if !ev.Valid() {
			t.Errorf("expanded event %s is malformed: %v..%v", ev.ID, ev.Start, ev.End)
		}
		if strings.Contains(ev.ID, "weekly-1") {
			weekly = append(weekly, ev)
		}
		if !strings.HasPrefix(ev.ID, "test:") {
			t.Errorf("instance ID %q missing source prefix", ev.ID)
		}
	}
	if len(weekly) != 4 {
		t.Fatalf("weekly occurrences = %d, want 4", len(weekly))
	}
	for _, ev := range weekly {
		if ev.PlaceStatus != "online" {
			t.Errorf("weekly PlaceStatus = %q, want online", ev.PlaceStatus)
		}
		if ev.End.Sub(ev.Start) != 15*time.Minute {
			t.Errorf("occurrence duration = %v, want 15m", ev.End.Sub(ev.Start))
		}
	}
}

func TestExpandEventsBadRange(t *testing.T) {
	_, err := ExpandEvents(nil, ExpandConfig{
		RangeStart: time.Now(),
		RangeEnd:   time.Now().Add(-time.Hour),
	})
	if err == nil {
		t.Fatal("expected error for inverted range")
	}
}

// fakeSink records sync operations in memory.
type fakeSink struct {
	deleted []string
	events  []model.Event
}

func (f *fakeSink) DeleteSource(_ context.Context, sourceID string) error {
	f.deleted = append(f.deleted, sourceID)
	return nil
}

func (f *fakeSink) Put(e *model.Event) error {
	f.events = append(f.events, *e)
	return nil
}

func TestSync(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write(crlf(simpleICS))
	}))
	defer srv.Close()

	sink := &fakeSink{}
	f := NewFetcher(t.TempDir())

	err := Sync(context.Background(), f, sink, SyncConfig{
		Sources:         []Source{{ID: "work", URL: srv.URL}},
		DisplayLocation: time.UTC,
		RangeStart:      time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC),
		RangeEnd:        time.Date(2026, time.May, 31, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}

	if len(sink.deleted) != 1 || sink.deleted[0] != "work" {
		t.Errorf("deleted sources = %v", sink.deleted)
	}
	if len(sink.events) != 5 {
		t.Errorf("stored %d events, want 5", len(sink.events))
	}
}

func TestFetchOneUsesCacheOn304(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write(crlf(simpleICS))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	src := Source{ID: "work", URL: srv.URL}
	ctx := context.Background()

	first, err := f.FetchOne(ctx, src)
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if first.FromCache {
		t.Error("first fetch should not come from cache")
	}

	second, err := f.FetchOne(ctx, src)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if !second.FromCache {
		t.Error("second fetch should be served from cache via 304")
	}
	if string(second.Body) != string(first.Body) {
		t.Error("cached body differs from original")
	}
	if calls != 2 {
		t.Errorf("server saw %d calls, want 2", calls)
	}
}
