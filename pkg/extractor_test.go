package for009

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memWriter struct {
	records []Record
}

func (m *memWriter) WriteRecord(r Record) error {
	m.records = append(m.records, r)
	return nil
}

var testCuts = Cuts{TofMin: 28, TofMax: 31, PlaneNumber: 2, MomentumMin: 130, MomentumMax: 150}

func tof(t0, t1 float64) TOFEvent {
	return TOFEvent{
		TOF0SpacePoints: []TOFSpacePoint{{Time: t0}},
		TOF1SpacePoints: []TOFSpacePoint{{Time: t1}},
	}
}

func trackPoint(tracker, station, plane int, pz float64) SciFiTrackPoint {
	return SciFiTrackPoint{
		Tracker: tracker,
		Station: station,
		Plane:   plane,
		Pos:     ThreeVector{X: float64(station), Y: -float64(station), Z: 1000 * float64(station)},
		Mom:     ThreeVector{X: 0, Y: 0, Z: pz},
	}
}

func track(tracker int, points ...SciFiTrackPoint) SciFiTrack {
	return SciFiTrack{Tracker: tracker, TrackPoints: points}
}

func reconEvent(tofEvent TOFEvent, tracks ...SciFiTrack) ReconEvent {
	return ReconEvent{TOFEvent: tofEvent, SciFiEvent: &SciFiEvent{Tracks: tracks}}
}

func spill(eventType string, events ...ReconEvent) Spill {
	return Spill{DaqEventType: eventType, ReconEvents: events}
}

func runExtractor(t *testing.T, spills ...Spill) (*Extractor, *memWriter, *memWriter) {
	t.Helper()
	us, ds := &memWriter{}, &memWriter{}
	e := NewExtractor(testCuts, us, ds)
	_, err := e.Run(NewSliceSource(spills))
	require.NoError(t, err)
	return e, us, ds
}

// A passing event with a single upstream point, used to read the counter.
func probeEvent() ReconEvent {
	return reconEvent(tof(0, 29.5), track(UPSTREAM_TRACKER, trackPoint(UPSTREAM_TRACKER, 1, 2, 140)))
}

func TestNonPhysicsSpillDoesNotAdvanceCounter(t *testing.T) {
	e, us, ds := runExtractor(t,
		spill("calibration_event", probeEvent(), probeEvent()),
		spill(PHYSICS_EVENT, probeEvent()),
	)
	require.Len(t, us.records, 1)
	assert.Empty(t, ds.records)
	assert.Equal(t, 1.0, us.records[0].Event())
	assert.Equal(t, 1, e.EventCounter())
	assert.Equal(t, 1, e.Stats.NonPhysicsSpills)
}

func TestTwoUpstreamTracksInsideWindows(t *testing.T) {
	event := reconEvent(tof(10, 39.5),
		track(UPSTREAM_TRACKER, trackPoint(UPSTREAM_TRACKER, 1, 2, 140)),
		track(UPSTREAM_TRACKER, trackPoint(UPSTREAM_TRACKER, 4, 2, 140)),
	)
	_, us, ds := runExtractor(t, spill(PHYSICS_EVENT, event))

	require.Len(t, us.records, 2)
	assert.Empty(t, ds.records)
	assert.Equal(t, 1.0, us.records[0].Event())
	assert.Equal(t, 1.0, us.records[1].Event())
	assert.Equal(t, 5.0, us.records[0].Region())
	assert.Equal(t, 2.0, us.records[1].Region())
	assert.Equal(t, 140.0, us.records[0][COL_PZ])
}

func TestUpstreamMomentumOutsideWindowStillCounts(t *testing.T) {
	event := reconEvent(tof(0, 29.5),
		track(UPSTREAM_TRACKER, trackPoint(UPSTREAM_TRACKER, 1, 2, 200)),
		track(UPSTREAM_TRACKER, trackPoint(UPSTREAM_TRACKER, 4, 2, 200)),
	)
	e, us, _ := runExtractor(t, spill(PHYSICS_EVENT, event, probeEvent()))

	require.Len(t, us.records, 1)
	assert.Equal(t, 2.0, us.records[0].Event())
	assert.Equal(t, 2, e.EventCounter())
	assert.Equal(t, 2, e.Stats.MomentumRejected)
}

func TestMomentumWindowIsStrict(t *testing.T) {
	for _, p := range []float64{130, 150, math.NaN()} {
		event := reconEvent(tof(0, 29.5), track(UPSTREAM_TRACKER, trackPoint(UPSTREAM_TRACKER, 1, 2, p)))
		_, us, _ := runExtractor(t, spill(PHYSICS_EVENT, event))
		assert.Empty(t, us.records, "momentum %v", p)
	}
}

func TestUpstreamMomentumUsesAllComponents(t *testing.T) {
	point := trackPoint(UPSTREAM_TRACKER, 2, 2, 0)
	// |(60, 80, 120)| = sqrt(3600 + 6400 + 14400) = sqrt(24400) ~ 156.2
	point.Mom = ThreeVector{X: 60, Y: 80, Z: 120}
	event := reconEvent(tof(0, 29.5), track(UPSTREAM_TRACKER, point))
	_, us, _ := runExtractor(t, spill(PHYSICS_EVENT, event))
	assert.Empty(t, us.records)
}

func TestTOFSinglePointRequirement(t *testing.T) {
	twoHits := tof(0, 29.5)
	twoHits.TOF1SpacePoints = append(twoHits.TOF1SpacePoints, TOFSpacePoint{Time: 29.6})
	noHits := TOFEvent{TOF1SpacePoints: []TOFSpacePoint{{Time: 29.5}}}

	upstream := track(UPSTREAM_TRACKER, trackPoint(UPSTREAM_TRACKER, 1, 2, 140))
	e, us, _ := runExtractor(t, spill(PHYSICS_EVENT,
		reconEvent(twoHits, upstream),
		reconEvent(noHits, upstream),
		probeEvent(),
	))

	require.Len(t, us.records, 1)
	assert.Equal(t, 3.0, us.records[0].Event())
	assert.Equal(t, 2, e.Stats.TOFHitRejected)
}

func TestTOFWindowIsStrict(t *testing.T) {
	for _, tdiff := range []float64{28, 31, 27.9, 31.1} {
		event := reconEvent(tof(100, 100+tdiff), track(DOWNSTREAM_TRACKER, trackPoint(DOWNSTREAM_TRACKER, 1, 2, 140)))
		_, _, ds := runExtractor(t, spill(PHYSICS_EVENT, event))
		assert.Empty(t, ds.records, "tdiff %v", tdiff)
	}
}

func TestMissingTrackerRecord(t *testing.T) {
	missing := ReconEvent{TOFEvent: tof(0, 29.5)}
	empty := reconEvent(tof(0, 29.5))
	e, us, ds := runExtractor(t, spill(PHYSICS_EVENT, missing, empty, probeEvent()))

	require.Len(t, us.records, 1)
	assert.Empty(t, ds.records)
	assert.Equal(t, 3.0, us.records[0].Event())
	assert.Equal(t, 1, e.Stats.NoTrackerRecord)
}

func TestPlaneSelection(t *testing.T) {
	event := reconEvent(tof(0, 29.5),
		track(DOWNSTREAM_TRACKER,
			trackPoint(DOWNSTREAM_TRACKER, 1, 0, 140),
			trackPoint(DOWNSTREAM_TRACKER, 1, 1, 140),
			trackPoint(DOWNSTREAM_TRACKER, 1, 2, 140),
			trackPoint(DOWNSTREAM_TRACKER, 2, 0, 140),
		),
	)
	_, _, ds := runExtractor(t, spill(PHYSICS_EVENT, event))
	require.Len(t, ds.records, 1)
	assert.Equal(t, 6.0, ds.records[0].Region())
}

func TestDownstreamHasNoTrackCountOrMomentumGate(t *testing.T) {
	event := reconEvent(tof(0, 29.5),
		track(UPSTREAM_TRACKER, trackPoint(UPSTREAM_TRACKER, 1, 2, 140)),
		track(DOWNSTREAM_TRACKER, trackPoint(DOWNSTREAM_TRACKER, 1, 2, 500)),
		track(DOWNSTREAM_TRACKER, trackPoint(DOWNSTREAM_TRACKER, 5, 2, math.NaN())),
	)
	e, us, ds := runExtractor(t, spill(PHYSICS_EVENT, event))

	// Three tracks: the upstream point is ambiguous, the downstream ones are kept
	assert.Empty(t, us.records)
	assert.Equal(t, 1, e.Stats.TrackCountRejected)
	require.Len(t, ds.records, 2)
	assert.Equal(t, 6.0, ds.records[0].Region())
	assert.Equal(t, 10.0, ds.records[1].Region())
	assert.True(t, ds.records[1].HasNaN())
}

func TestStationEncoding(t *testing.T) {
	for station := 1; station <= 5; station++ {
		event := reconEvent(tof(0, 29.5),
			track(UPSTREAM_TRACKER, trackPoint(UPSTREAM_TRACKER, station, 2, 140)),
			track(DOWNSTREAM_TRACKER, trackPoint(DOWNSTREAM_TRACKER, station, 2, 140)),
		)
		_, us, ds := runExtractor(t, spill(PHYSICS_EVENT, event))
		require.Len(t, us.records, 1)
		require.Len(t, ds.records, 1)
		assert.Equal(t, float64(6-station), us.records[0].Region())
		assert.Equal(t, float64(station+5), ds.records[0].Region())
	}
}

func TestRowsFollowEncounterOrder(t *testing.T) {
	event := reconEvent(tof(0, 29.5),
		track(DOWNSTREAM_TRACKER,
			trackPoint(DOWNSTREAM_TRACKER, 3, 2, 140),
			trackPoint(DOWNSTREAM_TRACKER, 1, 2, 140),
		),
		track(DOWNSTREAM_TRACKER, trackPoint(DOWNSTREAM_TRACKER, 2, 2, 140)),
	)
	_, _, ds := runExtractor(t, spill(PHYSICS_EVENT, event))
	require.Len(t, ds.records, 3)
	assert.Equal(t, []float64{8, 6, 7}, []float64{ds.records[0].Region(), ds.records[1].Region(), ds.records[2].Region()})
}

func TestEventCounterSharedAndIncreasing(t *testing.T) {
	both := reconEvent(tof(0, 29.5),
		track(UPSTREAM_TRACKER, trackPoint(UPSTREAM_TRACKER, 1, 2, 140)),
		track(DOWNSTREAM_TRACKER, trackPoint(DOWNSTREAM_TRACKER, 1, 2, 140)),
	)
	rejected := ReconEvent{TOFEvent: TOFEvent{}}
	_, us, ds := runExtractor(t,
		spill(PHYSICS_EVENT, both, rejected, both),
		spill("start_of_burst", both),
		spill(PHYSICS_EVENT, both),
	)

	require.Len(t, us.records, 3)
	require.Len(t, ds.records, 3)
	want := []float64{1, 3, 4}
	for i := range want {
		assert.Equal(t, want[i], us.records[i].Event())
		assert.Equal(t, want[i], ds.records[i].Event())
	}
}

func TestInvalidCuts(t *testing.T) {
	cuts := testCuts
	cuts.PlaneNumber = 3
	_, err := Extract(NewSliceSource(nil), cuts, &memWriter{}, &memWriter{})
	var cutsErr *ErrInvalidCuts
	assert.True(t, errors.As(err, &cutsErr))
}

type failingSource struct{}

func (failingSource) NextSpill() (Spill, error) {
	return Spill{}, os.ErrPermission
}

func TestSourceErrorIsFatal(t *testing.T) {
	_, err := Extract(failingSource{}, testCuts, &memWriter{}, &memWriter{})
	assert.ErrorIs(t, err, os.ErrPermission)
}

func TestExtractionIsReproducible(t *testing.T) {
	spills := []Spill{
		spill(PHYSICS_EVENT,
			reconEvent(tof(0, 29.5),
				track(UPSTREAM_TRACKER, trackPoint(UPSTREAM_TRACKER, 1, 2, 140), trackPoint(UPSTREAM_TRACKER, 2, 2, 141.25)),
				track(DOWNSTREAM_TRACKER, trackPoint(DOWNSTREAM_TRACKER, 3, 2, 120.5)),
			),
			probeEvent(),
		),
		spill("calibration_event", probeEvent()),
		spill(PHYSICS_EVENT, probeEvent()),
	}

	runOnce := func(dir string) (string, string) {
		files := NewOutputFiles(dir)
		us, err := NewWriter(files.Upstream)
		require.NoError(t, err)
		ds, err := NewWriter(files.Downstream)
		require.NoError(t, err)
		_, err = Extract(NewSliceSource(spills), testCuts, us, ds)
		require.NoError(t, err)
		require.NoError(t, us.Close())
		require.NoError(t, ds.Close())
		return files.Upstream, files.Downstream
	}

	dir := t.TempDir()
	us1, ds1 := runOnce(dir)
	first, err := os.ReadFile(us1)
	require.NoError(t, err)
	firstDS, err := os.ReadFile(ds1)
	require.NoError(t, err)

	// Second run in the same directory overwrites the files
	us2, ds2 := runOnce(dir)
	second, err := os.ReadFile(us2)
	require.NoError(t, err)
	secondDS, err := os.ReadFile(ds2)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, firstDS, secondDS)
	assert.Equal(t, HEADER+
		"1 1 2 0 5 1 1 -1 1000 0 0 140 1 1 1 1 0 0 0 0 0 0 0\n"+
		"1 1 2 0 4 1 2 -2 2000 0 0 141.25 1 1 1 1 0 0 0 0 0 0 0\n"+
		"2 1 2 0 5 1 1 -1 1000 0 0 140 1 1 1 1 0 0 0 0 0 0 0\n"+
		"3 1 2 0 5 1 1 -1 1000 0 0 140 1 1 1 1 0 0 0 0 0 0 0\n", string(first))
	assert.Equal(t, HEADER+"1 1 2 0 8 1 3 -3 3000 0 0 120.5 1 1 1 1 0 0 0 0 0 0 0\n", string(firstDS))
	assert.Equal(t, filepath.Join(dir, "for009_US.dat"), us1)
}
