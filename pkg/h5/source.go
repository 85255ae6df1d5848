package h5

import (
	"fmt"
	"io"

	hdf5 "github.com/jmbenlloch/go-hdf5"
	for009 "github.com/mice-software/for009_go/pkg"
)

// The readout is stored as flat tables. Each row of a parent table carries the
// number of rows it owns in the child tables, which are stored in the same order.
const (
	SPILLS_TABLE      = "/Spill/spills"
	EVENTS_TABLE      = "/Recon/events"
	TOF_TABLE         = "/TOF/spacepoints"
	TRACKS_TABLE      = "/SciFi/tracks"
	TRACKPOINTS_TABLE = "/SciFi/trackpoints"
)

type SpillHDF5 struct {
	spill_number   int32
	daq_event_type [STRLEN]byte
	n_recon_events int32
}

// TOF0 space points of an event come first, then the TOF1 ones.
type ReconEventHDF5 struct {
	part_event_number int32
	n_tof0            int32
	n_tof1            int32
	has_scifi         int32
	n_tracks          int32
}

type TOFSpacePointHDF5 struct {
	time float64
}

type TrackHDF5 struct {
	tracker       int32
	n_trackpoints int32
	p_value       float64
}

type TrackPointHDF5 struct {
	tracker int32
	station int32
	plane   int32
	x       float64
	y       float64
	z       float64
	px      float64
	py      float64
	pz      float64
}

// Reader serves the spills of an HDF5 readout file, in file order.
type Reader struct {
	Filename    string
	spills      []SpillHDF5
	events      []ReconEventHDF5
	tofPoints   []TOFSpacePointHDF5
	tracks      []TrackHDF5
	trackPoints []TrackPointHDF5
	spillPos    int
	eventPos    int
	tofPos      int
	trackPos    int
	pointPos    int
}

func NewReader(filename string) (*Reader, error) {
	file, err := hdf5.OpenFile(filename, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, &for009.ErrOpenFile{Filename: filename, Err: err}
	}
	defer file.Close()

	r := &Reader{Filename: filename}
	if r.spills, err = readTable[SpillHDF5](file, SPILLS_TABLE); err != nil {
		return nil, err
	}
	if r.events, err = readTable[ReconEventHDF5](file, EVENTS_TABLE); err != nil {
		return nil, err
	}
	if r.tofPoints, err = readTable[TOFSpacePointHDF5](file, TOF_TABLE); err != nil {
		return nil, err
	}
	if r.tracks, err = readTable[TrackHDF5](file, TRACKS_TABLE); err != nil {
		return nil, err
	}
	if r.trackPoints, err = readTable[TrackPointHDF5](file, TRACKPOINTS_TABLE); err != nil {
		return nil, err
	}
	return r, nil
}

// CountSpills returns the number of spills stored in the file.
func CountSpills(filename string) (int, error) {
	file, err := hdf5.OpenFile(filename, hdf5.F_ACC_RDONLY)
	if err != nil {
		return 0, &for009.ErrOpenFile{Filename: filename, Err: err}
	}
	defer file.Close()

	dset, err := file.OpenDataset(SPILLS_TABLE)
	if err != nil {
		return 0, fmt.Errorf("error opening table %s: %w", SPILLS_TABLE, err)
	}
	defer dset.Close()
	space := dset.Space()
	defer space.Close()
	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		return 0, err
	}
	return int(dims[0]), nil
}

func (r *Reader) NextSpill() (for009.Spill, error) {
	if r.spillPos >= len(r.spills) {
		return for009.Spill{}, io.EOF
	}
	row := r.spills[r.spillPos]
	r.spillPos++
	if row.n_recon_events < 0 {
		return for009.Spill{}, fmt.Errorf("%s is corrupt at row %d: %d recon events", SPILLS_TABLE, r.spillPos-1, row.n_recon_events)
	}

	spill := for009.Spill{
		SpillNumber:  int(row.spill_number),
		DaqEventType: convertFromHdf5String(row.daq_event_type),
		ReconEvents:  make([]for009.ReconEvent, 0, row.n_recon_events),
	}
	for i := 0; i < int(row.n_recon_events); i++ {
		event, err := r.nextReconEvent()
		if err != nil {
			return for009.Spill{}, fmt.Errorf("spill %d: %w", spill.SpillNumber, err)
		}
		spill.ReconEvents = append(spill.ReconEvents, event)
	}
	return spill, nil
}

func (r *Reader) nextReconEvent() (for009.ReconEvent, error) {
	if r.eventPos >= len(r.events) {
		return for009.ReconEvent{}, fmt.Errorf("%s is truncated at row %d", EVENTS_TABLE, r.eventPos)
	}
	row := r.events[r.eventPos]
	r.eventPos++
	if row.n_tracks < 0 {
		return for009.ReconEvent{}, fmt.Errorf("%s is corrupt at row %d: %d tracks", EVENTS_TABLE, r.eventPos-1, row.n_tracks)
	}

	event := for009.ReconEvent{PartEventNumber: int(row.part_event_number)}
	var err error
	if event.TOFEvent.TOF0SpacePoints, err = r.nextTOFPoints(int(row.n_tof0)); err != nil {
		return event, err
	}
	if event.TOFEvent.TOF1SpacePoints, err = r.nextTOFPoints(int(row.n_tof1)); err != nil {
		return event, err
	}

	if row.has_scifi == 0 {
		if row.n_tracks != 0 {
			return event, fmt.Errorf("event %d has %d tracks but no tracker record", event.PartEventNumber, row.n_tracks)
		}
		return event, nil
	}
	scifi := &for009.SciFiEvent{Tracks: make([]for009.SciFiTrack, 0, row.n_tracks)}
	for k := 0; k < int(row.n_tracks); k++ {
		track, err := r.nextTrack()
		if err != nil {
			return event, err
		}
		scifi.Tracks = append(scifi.Tracks, track)
	}
	event.SciFiEvent = scifi
	return event, nil
}

func (r *Reader) nextTOFPoints(n int) ([]for009.TOFSpacePoint, error) {
	if n < 0 || r.tofPos+n > len(r.tofPoints) {
		return nil, fmt.Errorf("%s is truncated at row %d", TOF_TABLE, r.tofPos)
	}
	points := make([]for009.TOFSpacePoint, n)
	for i := range points {
		points[i].Time = r.tofPoints[r.tofPos+i].time
	}
	r.tofPos += n
	return points, nil
}

func (r *Reader) nextTrack() (for009.SciFiTrack, error) {
	if r.trackPos >= len(r.tracks) {
		return for009.SciFiTrack{}, fmt.Errorf("%s is truncated at row %d", TRACKS_TABLE, r.trackPos)
	}
	row := r.tracks[r.trackPos]
	r.trackPos++

	n := int(row.n_trackpoints)
	if n < 0 || r.pointPos+n > len(r.trackPoints) {
		return for009.SciFiTrack{}, fmt.Errorf("%s is truncated at row %d", TRACKPOINTS_TABLE, r.pointPos)
	}
	track := for009.SciFiTrack{
		Tracker:     int(row.tracker),
		PValue:      row.p_value,
		TrackPoints: make([]for009.SciFiTrackPoint, n),
	}
	for l := range track.TrackPoints {
		p := r.trackPoints[r.pointPos+l]
		track.TrackPoints[l] = for009.SciFiTrackPoint{
			Tracker: int(p.tracker),
			Station: int(p.station),
			Plane:   int(p.plane),
			Pos:     for009.ThreeVector{X: p.x, Y: p.y, Z: p.z},
			Mom:     for009.ThreeVector{X: p.px, Y: p.py, Z: p.pz},
		}
	}
	r.pointPos += n
	return track, nil
}

// WriteSpills stores spills with the layout NewReader expects.
func WriteSpills(filename string, spills []for009.Spill, compressionLevel int) (err error) {
	w, err := NewWriter(filename, compressionLevel)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	spillRows := make([]SpillHDF5, 0, len(spills))
	eventRows := make([]ReconEventHDF5, 0)
	tofRows := make([]TOFSpacePointHDF5, 0)
	trackRows := make([]TrackHDF5, 0)
	pointRows := make([]TrackPointHDF5, 0)

	for _, spill := range spills {
		spillRows = append(spillRows, SpillHDF5{
			spill_number:   int32(spill.SpillNumber),
			daq_event_type: convertToHdf5String(spill.DaqEventType),
			n_recon_events: int32(len(spill.ReconEvents)),
		})
		for _, event := range spill.ReconEvents {
			eventRow := ReconEventHDF5{
				part_event_number: int32(event.PartEventNumber),
				n_tof0:            int32(len(event.TOFEvent.TOF0SpacePoints)),
				n_tof1:            int32(len(event.TOFEvent.TOF1SpacePoints)),
			}
			for _, sp := range event.TOFEvent.TOF0SpacePoints {
				tofRows = append(tofRows, TOFSpacePointHDF5{time: sp.Time})
			}
			for _, sp := range event.TOFEvent.TOF1SpacePoints {
				tofRows = append(tofRows, TOFSpacePointHDF5{time: sp.Time})
			}
			if event.SciFiEvent != nil {
				eventRow.has_scifi = 1
				eventRow.n_tracks = int32(len(event.SciFiEvent.Tracks))
				for _, track := range event.SciFiEvent.Tracks {
					trackRows = append(trackRows, TrackHDF5{
						tracker:       int32(track.Tracker),
						n_trackpoints: int32(len(track.TrackPoints)),
						p_value:       track.PValue,
					})
					for _, p := range track.TrackPoints {
						pointRows = append(pointRows, TrackPointHDF5{
							tracker: int32(p.Tracker),
							station: int32(p.Station),
							plane:   int32(p.Plane),
							x:       p.Pos.X,
							y:       p.Pos.Y,
							z:       p.Pos.Z,
							px:      p.Mom.X,
							py:      p.Mom.Y,
							pz:      p.Mom.Z,
						})
					}
				}
			}
			eventRows = append(eventRows, eventRow)
		}
	}

	if err := writeTable(w, "/Spill", "spills", spillRows); err != nil {
		return err
	}
	if err := writeTable(w, "/Recon", "events", eventRows); err != nil {
		return err
	}
	if err := writeTable(w, "/TOF", "spacepoints", tofRows); err != nil {
		return err
	}
	if err := writeTable(w, "/SciFi", "tracks", trackRows); err != nil {
		return err
	}
	return writeTable(w, "/SciFi", "trackpoints", pointRows)
}
