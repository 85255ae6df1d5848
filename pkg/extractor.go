package for009

import (
	"errors"
	"fmt"
	"io"
	"math"
)

type ExtractStats struct {
	Spills             int
	NonPhysicsSpills   int
	ReconEvents        int
	TOFHitRejected     int
	TOFWindowRejected  int
	NoTrackerRecord    int
	TrackCountRejected int
	MomentumRejected   int
	UpstreamRows       int
	DownstreamRows     int
}

// Extractor applies the selection to a sequence of spills. The event counter is
// owned by the extractor and shared by the upstream and downstream streams.
type Extractor struct {
	Cuts             Cuts
	PhysicsEventType string
	Upstream         RecordWriter
	Downstream       RecordWriter
	Stats            ExtractStats
	evt              int
}

func NewExtractor(cuts Cuts, upstream RecordWriter, downstream RecordWriter) *Extractor {
	return &Extractor{
		Cuts:             cuts,
		PhysicsEventType: PHYSICS_EVENT,
		Upstream:         upstream,
		Downstream:       downstream,
	}
}

// Extract runs a fresh extractor over the whole source.
func Extract(source SpillSource, cuts Cuts, upstream RecordWriter, downstream RecordWriter) (ExtractStats, error) {
	return NewExtractor(cuts, upstream, downstream).Run(source)
}

// EventCounter returns the last event number assigned.
func (e *Extractor) EventCounter() int {
	return e.evt
}

func (e *Extractor) Run(source SpillSource) (ExtractStats, error) {
	if err := e.Cuts.Validate(); err != nil {
		return e.Stats, err
	}
	for {
		spill, err := source.NextSpill()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return e.Stats, fmt.Errorf("error reading spill: %w", err)
		}
		if err := e.ProcessSpill(spill); err != nil {
			return e.Stats, err
		}
	}
	return e.Stats, nil
}

func (e *Extractor) ProcessSpill(spill Spill) error {
	e.Stats.Spills++
	// Data quality: only physics spills are used
	if spill.DaqEventType != e.PhysicsEventType {
		e.Stats.NonPhysicsSpills++
		if configuration.Verbosity > 1 {
			message := fmt.Sprintf("Skipping spill %d with event type %q", spill.SpillNumber, spill.DaqEventType)
			logger.Info(message, "extractor")
		}
		return nil
	}
	if configuration.Verbosity > 1 {
		message := fmt.Sprintf("Spill %d: %d recon events", spill.SpillNumber, len(spill.ReconEvents))
		logger.Info(message, "extractor")
	}

	for i := range spill.ReconEvents {
		// The counter moves before any cut, rejected events also use a number
		e.evt++
		e.Stats.ReconEvents++
		if err := e.processReconEvent(&spill.ReconEvents[i]); err != nil {
			return err
		}
	}
	return nil
}

func (e *Extractor) processReconEvent(event *ReconEvent) error {
	tof0 := event.TOFEvent.TOF0SpacePoints
	tof1 := event.TOFEvent.TOF1SpacePoints

	// Data quality: a single space point in each TOF station
	if len(tof0) != 1 || len(tof1) != 1 {
		e.Stats.TOFHitRejected++
		e.logRejection("TOF space points %d/%d", len(tof0), len(tof1))
		return nil
	}

	// PID: time of flight between TOF0 and TOF1
	tdiff := tof1[0].Time - tof0[0].Time
	if !(e.Cuts.TofMin < tdiff && tdiff < e.Cuts.TofMax) {
		e.Stats.TOFWindowRejected++
		e.logRejection("time of flight %g out of window", tdiff)
		return nil
	}

	if event.SciFiEvent == nil {
		e.Stats.NoTrackerRecord++
		e.logRejection("no tracker record")
		return nil
	}

	tracks := event.SciFiEvent.Tracks
	for k := range tracks {
		for l := range tracks[k].TrackPoints {
			point := &tracks[k].TrackPoints[l]
			if point.Plane != e.Cuts.PlaneNumber {
				continue
			}
			switch point.Tracker {
			case UPSTREAM_TRACKER:
				if err := e.processUpstream(point, len(tracks)); err != nil {
					return err
				}
			case DOWNSTREAM_TRACKER:
				record := NewRecord(e.evt, point.Station+5, point.Pos, point.Mom)
				if err := e.Downstream.WriteRecord(record); err != nil {
					return err
				}
				e.Stats.DownstreamRows++
			}
		}
	}
	return nil
}

func (e *Extractor) processUpstream(point *SciFiTrackPoint, nTracks int) error {
	// Data quality: more than two tracks in the event is ambiguous
	if nTracks != 1 && nTracks != 2 {
		e.Stats.TrackCountRejected++
		e.logRejection("%d tracks", nTracks)
		return nil
	}
	p := math.Sqrt(point.Mom.X*point.Mom.X + point.Mom.Y*point.Mom.Y + point.Mom.Z*point.Mom.Z)
	if !(e.Cuts.MomentumMin < p && p < e.Cuts.MomentumMax) {
		e.Stats.MomentumRejected++
		e.logRejection("upstream momentum %g out of window", p)
		return nil
	}
	record := NewRecord(e.evt, 6-point.Station, point.Pos, point.Mom)
	if err := e.Upstream.WriteRecord(record); err != nil {
		return err
	}
	e.Stats.UpstreamRows++
	return nil
}

func (e *Extractor) logRejection(format string, args ...any) {
	if configuration.Verbosity > 2 {
		message := fmt.Sprintf("event %d rejected: ", e.evt) + fmt.Sprintf(format, args...)
		logger.Info(message, "extractor")
	}
}

func PrintStats(stats ExtractStats, logger Logger) {
	logger.Info(fmt.Sprintf("Spills read: %d (non physics: %d)", stats.Spills, stats.NonPhysicsSpills), "extractor")
	logger.Info(fmt.Sprintf("Recon events: %d", stats.ReconEvents), "extractor")
	logger.Info(fmt.Sprintf("Rejected by TOF space points: %d", stats.TOFHitRejected), "extractor")
	logger.Info(fmt.Sprintf("Rejected by TOF window: %d", stats.TOFWindowRejected), "extractor")
	logger.Info(fmt.Sprintf("Without tracker record: %d", stats.NoTrackerRecord), "extractor")
	logger.Info(fmt.Sprintf("Upstream points rejected by track count: %d", stats.TrackCountRejected), "extractor")
	logger.Info(fmt.Sprintf("Upstream points rejected by momentum: %d", stats.MomentumRejected), "extractor")
	logger.Info(fmt.Sprintf("Rows written: %d upstream, %d downstream", stats.UpstreamRows, stats.DownstreamRows), "extractor")
}
