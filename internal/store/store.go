// Package store persists calendar events on disk, one JSON document per
// event, bucketed by day. It is the boundary that guarantees the layout
// engine only ever sees well-formed intervals: malformed events are rejected
// at insert time.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/peterbourgon/diskv/v3"

	applog "github.com/sylee2006/Mobile-project/internal/log"
	"github.com/sylee2006/Mobile-project/internal/model"
)

// ErrNotFound is returned when the requested event does not exist.
var ErrNotFound = errors.New("store: event not found")

// ErrInvalidEvent is returned for events whose end is not after their start.
var ErrInvalidEvent = errors.New("store: event end must be after start")

// Store is a disk-backed event store. Keys have the form "YYYY-MM-DD/id",
// which diskv maps onto one directory per day.
type Store struct {
	d   *diskv.Diskv
	loc *time.Location
}

// Open creates a Store rooted at baseDir. Events are bucketed by their
// start date in loc; pass the configured display timezone.
func Open(baseDir string, loc *time.Location) (*Store, error) {
	if baseDir == "" {
		return nil, errors.New("store: base dir is empty")
	}
	if loc == nil {
		loc = time.Local
	}
	d := diskv.New(diskv.Options{
		BasePath:          baseDir,
		AdvancedTransform: keyToPath,
		InverseTransform:  pathToKey,
		CacheSizeMax:      1024 * 1024, // 1MB
	})
	return &Store{d: d, loc: loc}, nil
}

// Put validates and persists an event. A missing ID is assigned; the place
// status label is rederived from the location on every save.
func (s *Store) Put(e *model.Event) error {
	if e == nil {
		return errors.New("store: event is nil")
	}
	if !e.Valid() {
		return ErrInvalidEvent
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.PlaceStatus = model.DerivePlaceStatus(e.Location)

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("store: marshal event: %w", err)
	}
	if err := s.d.Write(s.key(*e), data); err != nil {
		return fmt.Errorf("store: write event: %w", err)
	}
	return nil
}

// Get returns the event with the given id on the given day.
func (s *Store) Get(day, id string) (model.Event, error) {
	data, err := s.d.Read(day + "/" + id)
	if err != nil {
		return model.Event{}, ErrNotFound
	}
	var e model.Event
	if err := json.Unmarshal(data, &e); err != nil {
		return model.Event{}, fmt.Errorf("store: decode event %s/%s: %w", day, id, err)
	}
	e.ID = id
	return e, nil
}

// Delete removes the event with the given id on the given day.
func (s *Store) Delete(day, id string) error {
	key := day + "/" + id
	if !s.d.Has(key) {
		return ErrNotFound
	}
	return s.d.Erase(key)
}

// ListDay returns the events starting on the given date, ordered
// chronologically by start time with ties broken by ID. This is the feed
// order the layout engine expects.
func (s *Store) ListDay(ctx context.Context, date time.Time) []model.Event {
	prefix := date.In(s.loc).Format(model.DayKeyLayout) + "/"

	events := make([]model.Event, 0)
	for key := range s.d.Keys(ctx.Done()) {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		e, err := s.read(key)
		if err != nil {
			applog.Error("store: skipping unreadable event", err, "key", key)
			continue
		}
		events = append(events, e)
	}
	sortEvents(events)
	return events
}

// ListRange returns the events starting within [from, to), ordered
// chronologically.
func (s *Store) ListRange(ctx context.Context, from, to time.Time) []model.Event {
	events := make([]model.Event, 0)
	for key := range s.d.Keys(ctx.Done()) {
		e, err := s.read(key)
		if err != nil {
			applog.Error("store: skipping unreadable event", err, "key", key)
			continue
		}
		if e.Start.Before(from) || !e.Start.Before(to) {
			continue
		}
		events = append(events, e)
	}
	sortEvents(events)
	return events
}

// DeleteSource removes every event whose ID carries the given source prefix.
// Used by the ICS sync to replace a subscription's events wholesale.
func (s *Store) DeleteSource(ctx context.Context, sourceID string) error {
	if sourceID == "" {
		return errors.New("store: source id is empty")
	}
	idPrefix := sourceID + ":"

	var firstErr error
	for key := range s.d.Keys(ctx.Done()) {
		_, id, ok := strings.Cut(key, "/")
		if !ok || !strings.HasPrefix(id, idPrefix) {
			continue
		}
		if err := s.d.Erase(key); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("store: erase %s: %w", key, err)
		}
	}
	return firstErr
}

func (s *Store) read(key string) (model.Event, error) {
	data, err := s.d.Read(key)
	if err != nil {
		return model.Event{}, err
	}
	var e model.Event
	if err := json.Unmarshal(data, &e); err != nil {
		return model.Event{}, err
	}
	if e.ID == "" {
		if _, id, ok := strings.Cut(key, "/"); ok {
			e.ID = id
		}
	}
	return e, nil
}

func (s *Store) key(e model.Event) string {
	return e.DayKey(s.loc) + "/" + e.ID
}

func sortEvents(events []model.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Start.Equal(events[j].Start) {
			return events[i].ID < events[j].ID
		}
		return events[i].Start.Before(events[j].Start)
	})
}

// keyToPath maps "YYYY-MM-DD/id" onto a per-day directory.
func keyToPath(key string) *diskv.PathKey {
	day, id, ok := strings.Cut(key, "/")
	if !ok {
		return &diskv.PathKey{FileName: key}
	}
	return &diskv.PathKey{Path: []string{day}, FileName: id}
}

func pathToKey(pk *diskv.PathKey) string {
	if len(pk.Path) == 0 {
		return pk.FileName
	}
	return strings.Join(pk.Path, "/") + "/" + pk.FileName
}
