package yasube

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

func sortedKeys[V any](m map[string]V) []string {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}
