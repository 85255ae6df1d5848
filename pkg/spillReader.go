package for009

import (
	"fmt"
	"io"
)

// SpillReader applies the skip / max spills window of the configuration on top of
// another source.
type SpillReader struct {
	Source     SpillSource
	SpillCount int
	Skip       int
	MaxSpills  int
}

func NewSpillReader(source SpillSource, skip int, maxSpills int) *SpillReader {
	return &SpillReader{Source: source, SpillCount: -1, Skip: skip, MaxSpills: maxSpills}
}

func (r *SpillReader) NextSpill() (Spill, error) {
	for {
		spill, err := r.Source.NextSpill()
		if err != nil {
			return spill, err
		}
		r.SpillCount++
		if r.SpillCount >= r.MaxSpills {
			if configuration.Verbosity > 0 {
				logger.Info("Max spills reached", "spillReader")
			}
			return Spill{}, io.EOF
		}
		if r.SpillCount < r.Skip {
			if configuration.Verbosity > 1 {
				message := fmt.Sprintf("Skipping spill %d with number %d", r.SpillCount, spill.SpillNumber)
				logger.Info(message, "spillReader")
			}
			continue
		}
		if configuration.Verbosity > 1 {
			message := fmt.Sprintf("Reading spill %d with number %d", r.SpillCount, spill.SpillNumber)
			logger.Info(message, "spillReader")
		}
		return spill, nil
	}
}

// SliceSource serves spills already held in memory.
type SliceSource struct {
	Spills   []Spill
	position int
}

func NewSliceSource(spills []Spill) *SliceSource {
	return &SliceSource{Spills: spills}
}

func (s *SliceSource) NextSpill() (Spill, error) {
	if s.position >= len(s.Spills) {
		return Spill{}, io.EOF
	}
	spill := s.Spills[s.position]
	s.position++
	return spill, nil
}
