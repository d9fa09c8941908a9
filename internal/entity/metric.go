// Package entity holds the data model shared by the ledger, the stack and
// diff engines, and the rule engine: metric headers, values, changes and
// the ordered stack they compose into.
package entity

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Tags is an ordered mapping from tag key to tag value. Insertion order is
// preserved for display; equality and hashing only ever look at the set of
// pairs, never at the order they were inserted in.
type Tags struct {
	keys   []string
	values map[string]string
}

// NewTags builds a Tags value from key/value pairs, preserving the order
// they are given in. A repeated key overwrites the earlier value but keeps
// its original position.
func NewTags(pairs ...[2]string) Tags {
	t := Tags{values: make(map[string]string, len(pairs))}
	for _, p := range pairs {
		t.Set(p[0], p[1])
	}
	return t
}

// Set inserts or overwrites a tag, preserving the position of the key if it
// already existed.
func (t *Tags) Set(key, value string) {
	if t.values == nil {
		t.values = make(map[string]string)
	}
	if _, ok := t.values[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.values[key] = value
}

// Get returns the value for key and whether it was present.
func (t Tags) Get(key string) (string, bool) {
	v, ok := t.values[key]
	return v, ok
}

// Len returns the number of tags.
func (t Tags) Len() int { return len(t.keys) }

// Range calls fn for every tag in insertion order.
func (t Tags) Range(fn func(key, value string)) {
	for _, k := range t.keys {
		fn(k, t.values[k])
	}
}

// Equal reports whether two Tags carry the same set of key/value pairs,
// regardless of insertion order.
func (t Tags) Equal(other Tags) bool {
	if t.Len() != other.Len() {
		return false
	}
	for _, k := range t.keys {
		ov, ok := other.values[k]
		if !ok || ov != t.values[k] {
			return false
		}
	}
	return true
}

// ToMap exports the tags as a plain map, for handoff to a TOML encoder.
// Encoding through a map normalizes key order to whatever the encoder
// chooses (lexical, for pelletier/go-toml/v2) rather than preserving
// insertion order; see DESIGN.md for why this trade is accepted.
func (t Tags) ToMap() map[string]string {
	if t.Len() == 0 {
		return nil
	}
	out := make(map[string]string, t.Len())
	t.Range(func(k, v string) { out[k] = v })
	return out
}

// TagsFromMap builds a Tags value from a decoded TOML map. Key order
// follows Go's randomized map iteration made deterministic by sorting, so
// that repeated decodes of the same payload always produce the same
// display order even though the original insertion order is not recorded
// on the wire.
func TagsFromMap(m map[string]string) Tags {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	t := Tags{values: make(map[string]string, len(m))}
	for _, k := range keys {
		t.Set(k, m[k])
	}
	return t
}

// String renders tags the way the CLI displays them: `{key="value", ...}`.
func (t Tags) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range t.keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%q", k, t.values[k])
	}
	b.WriteByte('}')
	return b.String()
}

// MetricHeader identifies a metric independent of its value: a name plus an
// ordered set of tags. Two headers are equal iff their names match and
// their tag sets match as unordered key/value pairs.
type MetricHeader struct {
	Name string
	Tags Tags
}

// Equal reports whether h and other identify the same metric.
func (h MetricHeader) Equal(other MetricHeader) bool {
	return h.Name == other.Name && h.Tags.Equal(other.Tags)
}

// Key returns a string that is stable and unique per equivalence class of
// Equal, suitable for use as a map key (MetricHeader itself is not
// comparable with == because Tags holds a map).
func (h MetricHeader) Key() string {
	keys := append([]string(nil), h.Tags.keys...)
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(h.Name)
	for _, k := range keys {
		b.WriteByte('\x00')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(h.Tags.values[k])
	}
	return b.String()
}

func (h MetricHeader) String() string {
	if h.Tags.Len() == 0 {
		return h.Name + "{}"
	}
	return h.Name + h.Tags.String()
}

// Metric is a MetricHeader paired with a finite float64 value. Non-finite
// values (NaN, +/-Inf) must never reach this type; callers at the ledger
// boundary reject them before constructing one.
type Metric struct {
	Header MetricHeader
	Value  float64
}

// IsFinite reports whether the metric's value is safe to store: the ledger
// rejects metrics that fail this check.
func (m Metric) IsFinite() bool {
	return !math.IsNaN(m.Value) && !math.IsInf(m.Value, 0)
}

func (m Metric) String() string {
	return fmt.Sprintf("%s = %v", m.Header, m.Value)
}

// ChangeAction distinguishes the two MetricChange variants.
type ChangeAction string

const (
	// ChangeAdd appends a metric to the effective set, overwriting any
	// existing entry with the same header.
	ChangeAdd ChangeAction = "add"
	// ChangeRemove removes a metric from the effective set, but only if
	// the current value still matches the one recorded at change time.
	ChangeRemove ChangeAction = "remove"
)

// MetricChange is the tagged sum type `Add(Metric) | Remove(Metric)`
// describing one entry of a commit's local change log.
type MetricChange struct {
	Action ChangeAction
	Metric Metric
}

// Add builds an Add change.
func Add(m Metric) MetricChange { return MetricChange{Action: ChangeAdd, Metric: m} }

// Remove builds a Remove change.
func Remove(m Metric) MetricChange { return MetricChange{Action: ChangeRemove, Metric: m} }
