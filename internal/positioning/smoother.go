package positioning

// NoiseBand is the largest jump, in pixels, still treated as feed noise.
// Candidates at least this far from the last drawn pixel are trusted.
const NoiseBand = 3

// FurthestTable maps trip id to the pixel the trip was last drawn at.
type FurthestTable map[string]int

// Clone returns a copy.
func (f FurthestTable) Clone() FurthestTable {
	out := make(FurthestTable, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Smooth keeps a trip from sliding backwards inside the noise band.
func Smooth(tripID string, candidate int, furthest FurthestTable) int {
	prev, ok := furthest[tripID]
	if !ok {
		return candidate
	}
	if abs(prev-candidate) < NoiseBand {
		return max(candidate, prev)
	}
	return candidate
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
