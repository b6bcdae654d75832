package subtitles

// Candidate is a subtitle track considered for forced-track classification.
type Candidate struct {
	Path    string
	Entries int
}

// ForcedDetector classifies subtitle tracks as forced (partial tracks that
// only cover foreign dialogue or signs) versus full dialogue tracks.
type ForcedDetector interface {
	Forced(candidates []Candidate, durationSeconds float64) []bool
}

// EntryCountDetector classifies by cue count. A lone track is forced when it
// averages less than one cue per minute of runtime. With several tracks, a
// track is forced when its cue count falls below a fifth of the mean of the
// other tracks.
type EntryCountDetector struct{}

func (EntryCountDetector) Forced(candidates []Candidate, durationSeconds float64) []bool {
	out := make([]bool, len(candidates))
	if len(candidates) == 0 {
		return out
	}
	if len(candidates) == 1 {
		if durationSeconds > 0 {
			out[0] = float64(candidates[0].Entries) < durationSeconds/60
		}
		return out
	}
	for i, candidate := range candidates {
		total := 0
		for j, other := range candidates {
			if j == i {
				continue
			}
			total += other.Entries
		}
		mean := float64(total) / float64(len(candidates)-1)
		out[i] = float64(candidate.Entries) < mean/5
	}
	return out
}
