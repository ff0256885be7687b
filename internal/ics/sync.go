package ics

import (
	"context"
	"errors"
	"strings"
	"time"

	applog "github.com/sylee2006/Mobile-project/internal/log"
	"github.com/sylee2006/Mobile-project/internal/model"
)

// EventSink is the slice of the event store the sync needs: wholesale
// replacement of a subscription's events.
type EventSink interface {
	DeleteSource(ctx context.Context, sourceID string) error
	Put(e *model.Event) error
}

// SyncConfig controls one subscription sync pass.
type SyncConfig struct {
	Sources         []Source
	DisplayLocation *time.Location
	RangeStart      time.Time
	RangeEnd        time.Time
}

// Sync fetches, parses and expands all configured subscriptions and replaces
// their events in the sink. Each source is replaced wholesale so removed or
// moved upstream events disappear locally. Per-source failures are logged
// and aggregated; one broken feed does not block the others.
func Sync(ctx context.Context, f *Fetcher, sink EventSink, cfg SyncConfig) error {
	results, fetchErrs := f.FetchAll(ctx, cfg.Sources)

	errs := fetchErrs
	for _, res := range results {
		parsed, err := ParseICS(res.Source, res.Body)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		expanded, err := ExpandEvents(parsed, ExpandConfig{
			DisplayLocation: cfg.DisplayLocation,
			RangeStart:      cfg.RangeStart,
			RangeEnd:        cfg.RangeEnd,
		})
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if err := sink.DeleteSource(ctx, res.Source.ID); err != nil {
			errs = append(errs, err)
			continue
		}

		stored := 0
		for i := range expanded.Events {
			ev := expanded.Events[i]
			if !ev.Valid() {
				// Degenerate upstream data; skip rather than poison the store.
				applog.Warn("ics sync skipping malformed occurrence", "id", ev.ID)
				continue
			}
			if err := sink.Put(&ev); err != nil {
				errs = append(errs, err)
				continue
			}
			stored++
		}

		applog.Info("ics sync source done",
			"id", res.Source.ID,
			"stored", stored,
			"truncated_uids", len(expanded.TruncatedUIDs),
			"from_cache", res.FromCache,
		)
	}

	return aggregate(errs)
}

func aggregate(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	var b strings.Builder
	for i, e := range errs {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(e.Error())
	}
	return errors.New(b.String())
}
