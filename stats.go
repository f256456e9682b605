package cellar

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Size           int
	MaxSize        int // zero means unbounded
	EvictionPolicy Policy
	Hits           int64
	Misses         int64
	HitRatio       float64 // Hits / (Hits + Misses), or zero before any read
}

func hitRatio(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
