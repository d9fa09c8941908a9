package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTagsEqualIgnoresOrder(t *testing.T) {
	a := NewTags([2]string{"env", "prod"}, [2]string{"region", "eu"})
	b := NewTags([2]string{"region", "eu"}, [2]string{"env", "prod"})

	assert.True(t, a.Equal(b))
	assert.Equal(t, "prod", mustGet(t, a, "env"))
}

func TestTagsSetOverwritesInPlace(t *testing.T) {
	tags := NewTags([2]string{"env", "staging"}, [2]string{"region", "eu"})
	tags.Set("env", "prod")

	assert.Equal(t, 2, tags.Len())
	assert.Equal(t, "prod", mustGet(t, tags, "env"))

	var order []string
	tags.Range(func(k, v string) { order = append(order, k) })
	assert.Equal(t, []string{"env", "region"}, order)
}

func TestMetricHeaderEqualIgnoresTagOrder(t *testing.T) {
	h1 := MetricHeader{Name: "size", Tags: NewTags([2]string{"a", "1"}, [2]string{"b", "2"})}
	h2 := MetricHeader{Name: "size", Tags: NewTags([2]string{"b", "2"}, [2]string{"a", "1"})}

	assert.True(t, h1.Equal(h2))
	assert.Equal(t, h1.Key(), h2.Key())
}

func TestTagsToMapAndFromMapRoundTrip(t *testing.T) {
	tags := NewTags([2]string{"env", "prod"}, [2]string{"region", "eu"})
	restored := TagsFromMap(tags.ToMap())

	assert.True(t, tags.Equal(restored))
}

func TestMetricIsFinite(t *testing.T) {
	assert.True(t, Metric{Value: 1.5}.IsFinite())
	assert.False(t, Metric{Value: 1.0 / zero()}.IsFinite())
}

func mustGet(t *testing.T, tags Tags, key string) string {
	t.Helper()
	v, ok := tags.Get(key)
	if !ok {
		t.Fatalf("expected tag %q to be present", key)
	}
	return v
}

func zero() float64 { return 0 }
