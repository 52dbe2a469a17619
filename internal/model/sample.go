package model

// Sample is one recorded observation of a monitored counter.
type Sample struct {
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	Value          uint64  `json:"value"`
}

// Series is the complete ordered recording for one device metric over a
// collection run. Samples are ordered by non-decreasing elapsed seconds and
// appended by exactly one writer (the tick loop of the run that owns it).
type Series struct {
	Device  string   `json:"device"`
	Metric  string   `json:"metric"`
	Samples []Sample `json:"samples"`

	// Ticks counts sampling instants seen by the run; Gaps counts ticks where
	// the fetch failed. Ticks-Gaps == len(Samples). The split distinguishes a
	// device that was down from one whose counter was legitimately zero.
	Ticks int `json:"ticks"`
	Gaps  int `json:"gaps"`
}

func (s *Series) Append(elapsed float64, value uint64) {
	s.Samples = append(s.Samples, Sample{ElapsedSeconds: elapsed, Value: value})
}

func (s *Series) Empty() bool {
	return len(s.Samples) == 0
}

// NoData reports whether the run sampled this metric but never got a value.
func (s *Series) NoData() bool {
	return s.Ticks > 0 && len(s.Samples) == 0
}

func (s *Series) Last() (Sample, bool) {
	if len(s.Samples) == 0 {
		return Sample{}, false
	}
	return s.Samples[len(s.Samples)-1], true
}
