package main

import (
	"fmt"
	"strings"

	"github.com/binbudget/git-metrics/internal/entity"
)

// parseTags turns repeated `--tag key:value` flag values into a Tags
// value, preserving the order they were given on the command line.
func parseTags(raw []string) (entity.Tags, error) {
	pairs := make([][2]string, 0, len(raw))
	for _, kv := range raw {
		key, value, ok := strings.Cut(kv, ":")
		if !ok {
			return entity.Tags{}, fmt.Errorf("git-metrics: invalid --tag %q, expected key:value", kv)
		}
		pairs = append(pairs, [2]string{strings.TrimSpace(key), strings.TrimSpace(value)})
	}
	return entity.NewTags(pairs...), nil
}
