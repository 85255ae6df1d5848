package h5

import (
	"fmt"
	"reflect"

	hdf5 "github.com/jmbenlloch/go-hdf5"
	for009 "github.com/mice-software/for009_go/pkg"
)

const (
	RECORDS_TABLE = "/for009/tracks"
	CUTS_TABLE    = "/Run/cuts"
)

type RecordHDF5 struct {
	evt  float64
	par  float64
	typ  float64
	flg  float64
	reg  float64
	t    float64
	x    float64
	y    float64
	z    float64
	px   float64
	py   float64
	pz   float64
	bx   float64
	by   float64
	bz   float64
	wt   float64
	ex   float64
	ey   float64
	ez   float64
	arc  float64
	polx float64
	poly float64
	polz float64
}

type CutParamsHDF5 struct {
	paramStr [STRLEN]byte
	value    float64
}

func toRecordHDF5(r for009.Record) RecordHDF5 {
	return RecordHDF5{
		evt: r[0], par: r[1], typ: r[2], flg: r[3], reg: r[4], t: r[5],
		x: r[6], y: r[7], z: r[8], px: r[9], py: r[10], pz: r[11],
		bx: r[12], by: r[13], bz: r[14], wt: r[15],
		ex: r[16], ey: r[17], ez: r[18], arc: r[19],
		polx: r[20], poly: r[21], polz: r[22],
	}
}

func fromRecordHDF5(h RecordHDF5) for009.Record {
	return for009.Record{
		h.evt, h.par, h.typ, h.flg, h.reg, h.t,
		h.x, h.y, h.z, h.px, h.py, h.pz,
		h.bx, h.by, h.bz, h.wt,
		h.ex, h.ey, h.ez, h.arc,
		h.polx, h.poly, h.polz,
	}
}

// cutParams lists the numeric fields of the cuts under their hdf5 tag.
func cutParams(cuts for009.Cuts) []CutParamsHDF5 {
	t := reflect.TypeOf(cuts)
	v := reflect.ValueOf(cuts)
	entries := make([]CutParamsHDF5, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		paramName := f.Tag.Get("hdf5")
		var value float64
		switch f.Type.Kind() {
		case reflect.Float64:
			value = v.Field(i).Float()
		case reflect.Int:
			value = float64(v.Field(i).Int())
		default:
			continue
		}
		entries = append(entries, CutParamsHDF5{
			paramStr: convertToHdf5String(paramName),
			value:    value,
		})
	}
	return entries
}

// ExportRecords writes the final for009 rows and the cuts that produced them.
func ExportRecords(filename string, records []for009.Record, cuts for009.Cuts, compressionLevel int) (err error) {
	w, err := NewWriter(filename, compressionLevel)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	rows := make([]RecordHDF5, len(records))
	for i, r := range records {
		rows[i] = toRecordHDF5(r)
	}
	if err := writeTable(w, "/for009", "tracks", rows); err != nil {
		return err
	}
	return writeTable(w, "/Run", "cuts", cutParams(cuts))
}

// ReadExportedRecords reads back the rows written by ExportRecords.
func ReadExportedRecords(filename string) ([]for009.Record, map[string]float64, error) {
	file, err := hdf5.OpenFile(filename, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, nil, &for009.ErrOpenFile{Filename: filename, Err: err}
	}
	defer file.Close()

	rows, err := readTable[RecordHDF5](file, RECORDS_TABLE)
	if err != nil {
		return nil, nil, err
	}
	records := make([]for009.Record, len(rows))
	for i, row := range rows {
		records[i] = fromRecordHDF5(row)
	}

	params, err := readTable[CutParamsHDF5](file, CUTS_TABLE)
	if err != nil {
		return nil, nil, err
	}
	cuts := make(map[string]float64, len(params))
	for _, p := range params {
		name := convertFromHdf5String(p.paramStr)
		if _, ok := cuts[name]; ok {
			return nil, nil, fmt.Errorf("duplicated parameter %q in %s", name, CUTS_TABLE)
		}
		cuts[name] = p.value
	}
	return records, cuts, nil
}
