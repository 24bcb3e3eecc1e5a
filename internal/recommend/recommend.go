package recommend

// Recommendations ranks the corpus against the centroid of the user's liked
// submissions and returns submission IDs in descending similarity order,
// with the liked IDs themselves excluded. An empty vote set or an ID with no
// stored vector contributes nothing; no usable votes means no result.
func Recommendations(idx *NeighborIndex, liked []string) []string {
	if idx == nil || idx.Len() == 0 {
		return nil
	}

	centroid := make([]float64, idx.Dim())
	used := 0
	likedSet := make(map[string]struct{}, len(liked))
	for _, id := range liked {
		likedSet[id] = struct{}{}
		vec := idx.Vector(id)
		if vec == nil {
			continue
		}
		for i, v := range vec {
			centroid[i] += float64(v)
		}
		used++
	}
	if used == 0 {
		return nil
	}

	query := make([]float32, len(centroid))
	for i, v := range centroid {
		query[i] = float32(v / float64(used))
	}

	hits := idx.Neighbors(query, idx.Len())
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		if _, skip := likedSet[h.SubmissionID]; skip {
			continue
		}
		out = append(out, h.SubmissionID)
	}
	return out
}

// Personalized merges the neighbor lists of each liked submission
// round-robin, preserving per-vote locality instead of averaging everything
// into one centroid. Liked IDs and duplicates are excluded.
func Personalized(idx *NeighborIndex, liked []string) []string {
	if idx == nil || idx.Len() == 0 {
		return nil
	}

	likedSet := make(map[string]struct{}, len(liked))
	stored := 0
	for _, id := range liked {
		if _, dup := likedSet[id]; dup {
			continue
		}
		likedSet[id] = struct{}{}
		if idx.Vector(id) != nil {
			stored++
		}
	}

	lists := make([][]Neighbor, 0, len(liked))
	for _, id := range liked {
		if hits := idx.NeighborsOf(id, idx.Len()); hits != nil {
			lists = append(lists, hits)
		}
	}
	if len(lists) == 0 {
		return nil
	}

	// Only liked IDs with a stored vector shrink the result; votes on
	// submissions outside the corpus exclude nothing.
	seen := make(map[string]struct{}, idx.Len())
	out := make([]string, 0, idx.Len())
	for pos := 0; len(out) < idx.Len()-stored; pos++ {
		advanced := false
		for _, list := range lists {
			if pos >= len(list) {
				continue
			}
			advanced = true
			id := list[pos].SubmissionID
			if _, skip := likedSet[id]; skip {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
		if !advanced {
			break
		}
	}
	return out
}
