package search

import "sort"

// fuseRRF merges the lexical and semantic rankings via Reciprocal Rank
// Fusion: score(d) = sum of 1/(k + rank_i(d)) over the rankings where d
// appears. Ties break by updated_at descending, then source_id ascending,
// so repeated identical queries return identical orderings.
func fuseRRF(lexical, semantic []candidate, k, topK int) []candidate {
	type scored struct {
		cand  candidate
		score float64
	}

	merged := make(map[string]*scored, len(lexical)+len(semantic))

	for rank, c := range lexical {
		s := 1.0 / float64(k+rank+1)
		merged[c.key] = &scored{cand: c, score: s}
	}

	for rank, c := range semantic {
		s := 1.0 / float64(k+rank+1)
		if existing, ok := merged[c.key]; ok {
			existing.score += s
		} else {
			merged[c.key] = &scored{cand: c, score: s}
		}
	}

	fused := make([]candidate, 0, len(merged))
	for _, s := range merged {
		c := s.cand
		c.score = s.score
		fused = append(fused, c)
	}

	sort.Slice(fused, func(i, j int) bool {
		if fused[i].score != fused[j].score {
			return fused[i].score > fused[j].score
		}
		ui, uj := fused[i].updatedAt(), fused[j].updatedAt()
		if ui != uj {
			return ui > uj
		}
		return fused[i].sourceID() < fused[j].sourceID()
	})

	if len(fused) > topK {
		fused = fused[:topK]
	}

	return fused
}
