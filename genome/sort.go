package genome

import "sort"

func sortRegions(regions []Region) {
	sort.Slice(regions, func(i, j int) bool { return regions[i].Less(regions[j]) })
}
