// Package diffengine pairs a "before" and an "after" MetricStack into an
// ordered list of per-header comparisons with absolute and relative
// deltas (§4.4).
package diffengine

import (
	"github.com/binbudget/git-metrics/internal/entity"
)

// Kind discriminates the Comparison sum type.
type Kind int

const (
	// Created means the header only exists in the "after" stack.
	Created Kind = iota
	// Missing means the header only exists in the "before" stack.
	Missing
	// Matching means the header exists in both, with a computed Delta.
	Matching
)

// Delta is the absolute and (when defined) relative change between a
// previous and current value.
type Delta struct {
	Absolute float64
	Relative *float64
}

// NewDelta computes the delta law of P5: absolute = current - previous;
// relative = absolute/previous when previous != 0, else undefined.
func NewDelta(previous, current float64) Delta {
	d := Delta{Absolute: current - previous}
	if previous != 0 {
		r := d.Absolute / previous
		d.Relative = &r
	}
	return d
}

// Comparison is the sum type `Created{current} | Missing{previous} |
// Matching{previous, current, delta}`.
type Comparison struct {
	Kind     Kind
	Previous float64
	Current  float64
	Delta    Delta
}

// NewCreated builds a Created comparison.
func NewCreated(current float64) Comparison {
	return Comparison{Kind: Created, Current: current}
}

// NewMissing builds a Missing comparison.
func NewMissing(previous float64) Comparison {
	return Comparison{Kind: Missing, Previous: previous}
}

// NewMatching builds a Matching comparison with its delta computed.
func NewMatching(previous, current float64) Comparison {
	return Comparison{Kind: Matching, Previous: previous, Current: current, Delta: NewDelta(previous, current)}
}

// MetricDiff pairs a header with its comparison.
type MetricDiff struct {
	Header     entity.MetricHeader
	Comparison Comparison
}

// MetricDiffList is an ordered list of MetricDiff.
type MetricDiffList []MetricDiff

// RemoveMissing drops every entry whose comparison is Missing, returning
// a new list.
func (l MetricDiffList) RemoveMissing() MetricDiffList {
	out := make(MetricDiffList, 0, len(l))
	for _, d := range l {
		if d.Comparison.Kind != Missing {
			out = append(out, d)
		}
	}
	return out
}

// Diff pairs before and after into a MetricDiffList per §4.4: every
// header in before is emitted first, in before's order, as Matching or
// Missing; any header present only in after is appended afterward, in
// after's order, as Created.
func Diff(before, after *entity.MetricStack) MetricDiffList {
	consumed := make(map[string]bool, after.Len())
	out := make(MetricDiffList, 0, before.Len()+after.Len())

	for _, bm := range before.Metrics() {
		key := bm.Header.Key()
		if am, ok := after.Get(bm.Header); ok {
			consumed[key] = true
			out = append(out, MetricDiff{Header: bm.Header, Comparison: NewMatching(bm.Value, am.Value)})
		} else {
			out = append(out, MetricDiff{Header: bm.Header, Comparison: NewMissing(bm.Value)})
		}
	}

	for _, am := range after.Metrics() {
		if consumed[am.Header.Key()] {
			continue
		}
		out = append(out, MetricDiff{Header: am.Header, Comparison: NewCreated(am.Value)})
	}

	return out
}
