package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sizeMetric(v float64) Metric {
	return Metric{Header: MetricHeader{Name: "size"}, Value: v}
}

func TestMetricStackPutOverwritesInPlace(t *testing.T) {
	s := NewMetricStack()
	s.Put(sizeMetric(1))
	s.Put(Metric{Header: MetricHeader{Name: "count"}, Value: 2})
	s.Put(sizeMetric(3))

	assert.Equal(t, 2, s.Len())
	m, _ := s.At(0)
	assert.Equal(t, "size", m.Header.Name)
	assert.Equal(t, 3.0, m.Value)
}

func TestMetricStackRemoveIfIsValueSensitive(t *testing.T) {
	s := NewMetricStack()
	s.Put(sizeMetric(10))

	assert.False(t, s.RemoveIf(MetricHeader{Name: "size"}, 5))
	assert.Equal(t, 1, s.Len())

	assert.True(t, s.RemoveIf(MetricHeader{Name: "size"}, 10))
	assert.Equal(t, 0, s.Len())
}

func TestMetricStackApply(t *testing.T) {
	s := NewMetricStack()
	s.Apply(Add(sizeMetric(10)))
	s.Apply(Add(sizeMetric(20)))
	m, ok := s.Get(MetricHeader{Name: "size"})
	assert.True(t, ok)
	assert.Equal(t, 20.0, m.Value)

	s.Apply(Remove(sizeMetric(5)))
	_, ok = s.Get(MetricHeader{Name: "size"})
	assert.True(t, ok, "remove with stale value must be a no-op")

	s.Apply(Remove(sizeMetric(20)))
	_, ok = s.Get(MetricHeader{Name: "size"})
	assert.False(t, ok)
}

func TestMetricStackExtendFoldsInOrder(t *testing.T) {
	base := NewMetricStack()
	base.Put(sizeMetric(1))
	base.Put(Metric{Header: MetricHeader{Name: "count"}, Value: 1})

	next := NewMetricStack()
	next.Put(sizeMetric(2))

	base.Extend(next)

	m, _ := base.Get(MetricHeader{Name: "size"})
	assert.Equal(t, 2.0, m.Value)
	assert.Equal(t, 2, base.Len())
}
