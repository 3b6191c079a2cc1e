package query

import (
	"context"
	"fmt"

	"github.com/louisbranch/skein/internal/services/social/storage"
)

// EdgeSets holds adjacency lists built from one batched edge fetch. Forward
// is keyed by edge origin, Backward by edge target. Every requested id has
// an entry in both maps, so callers never branch on missing keys.
//
// The maps live for one request and are discarded after the response is
// built; they are never shared across requests.
type EdgeSets struct {
	Forward  map[string][]string
	Backward map[string][]string
}

// aggregateEdges fetches every edge of the relation touching ids in one
// store round-trip and partitions the rows by endpoint. An empty id set
// short-circuits without touching the store.
func (s *Service) aggregateEdges(ctx context.Context, relation storage.Relation, ids []string) (EdgeSets, error) {
	sets := EdgeSets{
		Forward:  make(map[string][]string, len(ids)),
		Backward: make(map[string][]string, len(ids)),
	}
	for _, id := range ids {
		sets.Forward[id] = []string{}
		sets.Backward[id] = []string{}
	}
	if len(ids) == 0 {
		return sets, nil
	}

	edges, err := s.store.SelectEdges(ctx, relation, ids)
	if err != nil {
		return EdgeSets{}, fmt.Errorf("select %s edges: %w", relation, err)
	}
	for _, edge := range edges {
		sets.Forward[edge.From] = append(sets.Forward[edge.From], edge.To)
		sets.Backward[edge.To] = append(sets.Backward[edge.To], edge.From)
	}
	return sets, nil
}
