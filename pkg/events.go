package for009

const PHYSICS_EVENT = "physics_event"

const (
	UPSTREAM_TRACKER   = 0
	DOWNSTREAM_TRACKER = 1
)

type Spill struct {
	SpillNumber  int
	DaqEventType string
	ReconEvents  []ReconEvent
}

type ReconEvent struct {
	PartEventNumber int
	TOFEvent        TOFEvent
	// Nil when the reconstruction did not produce a tracker record for the event.
	// An empty record (no tracks) is not the same thing.
	SciFiEvent *SciFiEvent
}

type TOFEvent struct {
	TOF0SpacePoints []TOFSpacePoint
	TOF1SpacePoints []TOFSpacePoint
}

type TOFSpacePoint struct {
	Time float64
}

type SciFiEvent struct {
	Tracks []SciFiTrack
}

type SciFiTrack struct {
	Tracker     int
	PValue      float64
	TrackPoints []SciFiTrackPoint
}

type SciFiTrackPoint struct {
	Tracker int
	Station int
	Plane   int
	Pos     ThreeVector
	Mom     ThreeVector
}

type ThreeVector struct {
	X float64
	Y float64
	Z float64
}

// SpillSource is the capability the extractor needs from an event file: forward-only
// spill iteration. NextSpill returns io.EOF once the source is exhausted.
type SpillSource interface {
	NextSpill() (Spill, error)
}
