// Package layout computes non-overlapping visual placements for one day's
// events on a time grid. Vertical geometry comes from time of day, horizontal
// geometry from a greedy column assignment over the interval overlap graph:
// events that collide in time are pushed into separate columns, and each
// maximal connected overlap group shares the day-column width between its
// columns. Events with no collisions keep the full width.
//
// The engine is pure: it never mutates its input and recomputes everything
// from scratch on every call.
package layout

import (
	"sort"

	"github.com/sylee2006/Mobile-project/internal/model"
)

// Placement is the computed geometry for one event within one day's grid.
// Top and Height are in offset units (see Metrics); LeftFrac and WidthFrac
// are fractions of the day-column width, with LeftFrac+WidthFrac <= 1.
type Placement struct {
	Event model.Event

	Top    float64
	Height float64

	LeftFrac  float64
	WidthFrac float64
}

// cell is the mutable working record used during column and group
// computation. It never escapes the package; results are converted into
// immutable Placement values.
type cell struct {
	event  model.Event
	column int
	group  int
}

// Overlaps reports whether two events intersect under half-open [start,end)
// semantics. Back-to-back events, where one ends exactly when the other
// starts, do not overlap. The same predicate drives both column collision
// checks and group connectivity.
func Overlaps(a, b model.Event) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// ComputeDay lays out one day's events, in their given order, into one
// Placement per event. The input order is the column tie-break: no implicit
// sort is applied, so callers that want chronological column numbering must
// pass events sorted by start time.
//
// An empty input yields an empty result. A zero- or negative-duration event
// is tolerated: it still occupies a column and gets a degenerate placement.
func ComputeDay(events []model.Event, m Metrics) []Placement {
	if len(events) == 0 {
		return nil
	}

	cells := make([]*cell, len(events))
	for i, ev := range events {
		cells[i] = &cell{event: ev, column: -1, group: -1}
	}

	assignColumns(cells)
	counts := mergeGroups(cells)

	placements := make([]Placement, len(cells))
	for i, c := range cells {
		width := 1 / float64(counts[c.group])
		placements[i] = Placement{
			Event:     c.event,
			Top:       m.OffsetFor(c.event.Start),
			Height:    m.HeightFor(c.event.Duration()),
			LeftFrac:  float64(c.column) * width,
			WidthFrac: width,
		}
	}
	return placements
}

// assignColumns gives each cell the smallest non-negative column not taken
// within its overlap cluster so far. Clusters grow as events are assigned:
// an event joins the cluster of every already-assigned event it collides
// with (merging clusters when it bridges several), and the occupied set is
// the whole cluster's columns, not just the direct colliders'. A cluster
// therefore reserves a fresh column slot even for an event whose own
// collision set is a strict subset of the cluster.
//
// An event colliding with nothing assigned so far starts its own cluster
// and always gets column 0. Greedy in input order: this does not reach the
// chromatic minimum for pathological interleavings, but it is deterministic
// and O(n²) per day.
func assignColumns(cells []*cell) {
	parent := make([]int, len(cells))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}

	for i, c := range cells {
		for j := 0; j < i; j++ {
			if Overlaps(cells[j].event, c.event) {
				parent[find(j)] = find(i)
			}
		}

		used := make(map[int]bool)
		root := find(i)
		for j := 0; j < i; j++ {
			if find(j) == root {
				used[cells[j].column] = true
			}
		}

		col := 0
		for used[col] {
			col++
		}
		c.column = col
	}
}

// mergeGroups partitions cells into maximal connected components under the
// overlap relation (transitive, via breadth-first traversal keyed by input
// index) and returns the column count per group: 1 + the highest column
// assigned within it. Groups reserve column slots even for members whose
// own collision set is a strict subset of the group.
func mergeGroups(cells []*cell) []int {
	counts := make([]int, 0)

	for i, c := range cells {
		if c.group >= 0 {
			continue
		}

		id := len(counts)
		c.group = id
		maxColumn := c.column

		queue := []int{i}
		for len(queue) > 0 {
			cur := cells[queue[0]]
			queue = queue[1:]
			if cur.column > maxColumn {
				maxColumn = cur.column
			}
			for j, other := range cells {
				if other.group >= 0 || !Overlaps(cur.event, other.event) {
					continue
				}
				other.group = id
				queue = append(queue, j)
			}
		}

		counts = append(counts, maxColumn+1)
	}

	return counts
}

// SortEvents returns a copy of events ordered chronologically by start time,
// with ties broken by the original input order. This is the recommended
// feed order for ComputeDay so column assignment is stable under re-sorting
// of otherwise-equal events.
func SortEvents(events []model.Event) []model.Event {
	out := make([]model.Event, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out
}
