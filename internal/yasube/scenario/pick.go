package scenario

import (
	"math/rand"

	"github.com/yasube/yasube/internal/yasube/testcase"
)

// PickKeys selects count primary keys from the items accepted by filter (nil accepts all). Keys are unique
// when there are at least count candidates and repeat otherwise. Items without a key are ignored.
func PickKeys(items []testcase.Item, count int, pkKey string, filter Filter, rng *rand.Rand) []string {
	var candidates []string
	for _, item := range items {
		if filter != nil && !filter(item) {
			continue
		}
		if key, ok := item.Key(pkKey); ok {
			candidates = append(candidates, key)
		}
	}
	if count <= 0 || len(candidates) == 0 {
		return []string{}
	}

	picked := make([]string, 0, count)
	if len(candidates) >= count {
		for _, i := range rng.Perm(len(candidates))[:count] {
			picked = append(picked, candidates[i])
		}
		return picked
	}
	for i := 0; i < count; i++ {
		picked = append(picked, candidates[rng.Intn(len(candidates))])
	}
	return picked
}
