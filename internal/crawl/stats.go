package crawl

import "sort"

// Stats summarizes one crawl run. Total counts every record persisted at the
// end, including ones carried over from a resumed checkpoint; the other
// counters cover this run only.
type Stats struct {
	Discovered int
	Scraped    int
	Skipped    int
	Failed     int
	Retried    int
	Total      int
	ByCategory map[string]int
}

func (s *Stats) addCategory(category string) {
	if s.ByCategory == nil {
		s.ByCategory = make(map[string]int)
	}
	s.ByCategory[category]++
}

// Categories returns the category names ordered by descending count, ties
// broken alphabetically.
func (s Stats) Categories() []string {
	names := make([]string, 0, len(s.ByCategory))
	for name := range s.ByCategory {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if s.ByCategory[names[i]] != s.ByCategory[names[j]] {
			return s.ByCategory[names[i]] > s.ByCategory[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}
