package embedcache

import "context"

// NewTiered chains caches fastest-first. Hits found in a later tier are
// backfilled into the earlier ones; writes go to every tier.
func NewTiered(tiers ...Cache) Cache {
	var present []Cache
	for _, tier := range tiers {
		if tier != nil {
			present = append(present, tier)
		}
	}
	switch len(present) {
	case 0:
		return nil
	case 1:
		return present[0]
	}
	return &tieredCache{tiers: present}
}

type tieredCache struct {
	tiers []Cache
}

func (t *tieredCache) GetBatch(ctx context.Context, modelName string, hashes []string) map[string][]float32 {
	found := make(map[string][]float32)
	missing := hashes
	for i, tier := range t.tiers {
		if len(missing) == 0 {
			break
		}
		hits := tier.GetBatch(ctx, modelName, missing)
		for hash, values := range hits {
			found[hash] = values
		}
		if i > 0 && len(hits) > 0 {
			for j := 0; j < i; j++ {
				t.tiers[j].PutBatch(ctx, modelName, hits)
			}
		}
		var still []string
		for _, hash := range missing {
			if _, ok := found[hash]; !ok {
				still = append(still, hash)
			}
		}
		missing = still
	}
	return found
}

func (t *tieredCache) PutBatch(ctx context.Context, modelName string, entries map[string][]float32) {
	for _, tier := range t.tiers {
		tier.PutBatch(ctx, modelName, entries)
	}
}
