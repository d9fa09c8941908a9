package format

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/binbudget/git-metrics/internal/entity"
	"github.com/binbudget/git-metrics/internal/rules"
)

func TestSummaryTruncatesLongMessages(t *testing.T) {
	short := "fix bug"
	assert.Equal(t, short, Summary(short))

	long := strings.Repeat("a", 100)
	truncated := Summary(long)
	assert.True(t, len(truncated) < len(long))
	assert.True(t, strings.HasSuffix(truncated, "…"))
}

func TestMetricRendersHeaderAndFormattedValue(t *testing.T) {
	m := entity.Metric{Header: entity.MetricHeader{Name: "size"}, Value: 10}
	assert.Contains(t, Metric(rules.Unit{}, m), "size")
	assert.Contains(t, Metric(rules.Unit{}, m), "10")
}
