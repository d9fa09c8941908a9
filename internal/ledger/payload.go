// Package ledger serializes and deserializes the two note kinds attached
// to a commit — the remote snapshot and the local change log — and
// composes them into the effective metric set (§4.2 of the metric model).
package ledger

import (
	"fmt"

	"github.com/binbudget/git-metrics/internal/entity"
)

// metricPayload is the wire shape of one entity.Metric, shared by the
// snapshot's `metrics` list and (flattened) by each change-log entry.
type metricPayload struct {
	Name  string            `toml:"name"`
	Value float64           `toml:"value"`
	Tags  map[string]string `toml:"tags,omitempty"`
}

func toPayload(m entity.Metric) metricPayload {
	return metricPayload{Name: m.Header.Name, Value: m.Value, Tags: m.Header.Tags.ToMap()}
}

func (p metricPayload) toMetric() entity.Metric {
	return entity.Metric{
		Header: entity.MetricHeader{Name: p.Name, Tags: entity.TagsFromMap(p.Tags)},
		Value:  p.Value,
	}
}

// snapshotPayload is the wire shape of `refs/notes/metrics` and
// `refs/notes/metrics-remote-<name>` notes.
type snapshotPayload struct {
	Metrics []metricPayload `toml:"metrics"`
}

// changePayload is the wire shape of one entry in a `refs/notes/metrics-
// changes` note: a metricPayload flattened alongside an action tag.
type changePayload struct {
	Action string            `toml:"action"`
	Name   string            `toml:"name"`
	Value  float64           `toml:"value"`
	Tags   map[string]string `toml:"tags,omitempty"`
}

// changeLogPayload is the wire shape of `refs/notes/metrics-changes`.
type changeLogPayload struct {
	Changes []changePayload `toml:"changes"`
}

func toChangePayload(c entity.MetricChange) changePayload {
	return changePayload{
		Action: string(c.Action),
		Name:   c.Metric.Header.Name,
		Value:  c.Metric.Value,
		Tags:   c.Metric.Header.Tags.ToMap(),
	}
}

func (p changePayload) toChange() (entity.MetricChange, error) {
	metric := entity.Metric{
		Header: entity.MetricHeader{Name: p.Name, Tags: entity.TagsFromMap(p.Tags)},
		Value:  p.Value,
	}
	switch entity.ChangeAction(p.Action) {
	case entity.ChangeAdd:
		return entity.Add(metric), nil
	case entity.ChangeRemove:
		return entity.Remove(metric), nil
	default:
		return entity.MetricChange{}, fmt.Errorf("ledger: unknown change action %q", p.Action)
	}
}
