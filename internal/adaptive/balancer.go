package adaptive

import (
	"sort"
)

// UnderrepresentedAreas returns the areas whose asked count equals the minimum over all
// areas of the subject, in ascending id order. Areas missing from counts count as zero.
// The result is empty only when areaIDs is empty.
func UnderrepresentedAreas(areaIDs []uint, counts map[uint]int) []uint {
	if len(areaIDs) == 0 {
		return nil
	}

	minCount := -1
	for _, id := range areaIDs {
		c := counts[id]
		if minCount < 0 || c < minCount {
			minCount = c
		}
	}

	preferred := make([]uint, 0, len(areaIDs))
	seen := make(map[uint]struct{}, len(areaIDs))
	for _, id := range areaIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if counts[id] == minCount {
			preferred = append(preferred, id)
		}
	}

	sort.Slice(preferred, func(i, j int) bool { return preferred[i] < preferred[j] })
	return preferred
}

// ContainsArea reports whether id is in areas. An empty set contains every area.
func ContainsArea(areas []uint, id uint) bool {
	if len(areas) == 0 {
		return true
	}
	for _, a := range areas {
		if a == id {
			return true
		}
	}
	return false
}
