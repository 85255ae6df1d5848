package h5

import (
	"errors"
	"fmt"

	hdf5 "github.com/jmbenlloch/go-hdf5"
)

const STRLEN = 20

func convertToHdf5String(s string) [STRLEN]byte {
	var byteArray [STRLEN]byte
	copy(byteArray[:], s)
	return byteArray
}

func convertFromHdf5String(b [STRLEN]byte) string {
	n := 0
	for n < len(b) && b[n] != 0 {
		n++
	}
	return string(b[:n])
}

// Writer creates an HDF5 file and keeps track of the objects to close.
type Writer struct {
	File             *hdf5.File
	Filename         string
	CompressionLevel int
	groups           map[string]*hdf5.Group
	datasets         []*hdf5.Dataset
}

func NewWriter(filename string, compressionLevel int) (*Writer, error) {
	f, err := hdf5.CreateFile(filename, hdf5.F_ACC_TRUNC)
	if err != nil {
		return nil, fmt.Errorf("error creating file %q: %w", filename, err)
	}
	return &Writer{
		File:             f,
		Filename:         filename,
		CompressionLevel: compressionLevel,
		groups:           make(map[string]*hdf5.Group),
	}, nil
}

func (w *Writer) group(name string) (*hdf5.Group, error) {
	if g, ok := w.groups[name]; ok {
		return g, nil
	}
	g, err := w.File.CreateGroup(name)
	if err != nil {
		return nil, fmt.Errorf("error creating group %q: %w", name, err)
	}
	w.groups[name] = g
	return g, nil
}

// createTable creates an extensible, chunked and compressed one dimensional table
// whose rows have the layout of datatype.
func (w *Writer) createTable(groupName string, name string, datatype interface{}) (*hdf5.Dataset, error) {
	group, err := w.group(groupName)
	if err != nil {
		return nil, err
	}

	dims := []uint{0}
	unlimitedDims := -1 // H5S_UNLIMITED is -1L
	maxDims := []uint{uint(unlimitedDims)}
	fileSpace, err := hdf5.CreateSimpleDataspace(dims, maxDims)
	if err != nil {
		return nil, err
	}
	defer fileSpace.Close()

	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		return nil, err
	}
	defer plist.Close()

	chunks := []uint{32768}
	if err := plist.SetChunk(chunks); err != nil {
		return nil, err
	}
	if err := plist.SetDeflate(w.CompressionLevel); err != nil {
		return nil, err
	}

	dtype, err := hdf5.NewDatatypeFromValue(datatype)
	if err != nil {
		return nil, err
	}

	dset, err := group.CreateDatasetWith(name, dtype, fileSpace, plist)
	if err != nil {
		return nil, fmt.Errorf("error creating table %q: %w", name, err)
	}
	w.datasets = append(w.datasets, dset)
	return dset, nil
}

// writeArrayToTable appends data at the end of the table, which currently holds
// rowsInTable rows.
func writeArrayToTable[T any](dataset *hdf5.Dataset, data *[]T, rowsInTable int) error {
	length := uint(len(*data))
	if length == 0 {
		return nil
	}
	dims := []uint{length}
	dataspace, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return err
	}
	defer dataspace.Close()

	// extend
	start := uint(rowsInTable)
	newsize := []uint{start + length}
	if err := dataset.Resize(newsize); err != nil {
		return err
	}
	filespace := dataset.Space()
	defer filespace.Close()

	if err := filespace.SelectHyperslab([]uint{start}, nil, []uint{length}, nil); err != nil {
		return err
	}
	return dataset.WriteSubset(data, dataspace, filespace)
}

func writeTable[T any](w *Writer, groupName string, name string, data []T) error {
	var zero T
	dset, err := w.createTable(groupName, name, zero)
	if err != nil {
		return err
	}
	if err := writeArrayToTable(dset, &data, 0); err != nil {
		return fmt.Errorf("error writing table %s/%s: %w", groupName, name, err)
	}
	return nil
}

func (w *Writer) Close() error {
	var errs []error
	for _, dset := range w.datasets {
		if err := dset.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing dataset: %w", err))
		}
	}
	for name, g := range w.groups {
		if err := g.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing group %s: %w", name, err))
		}
	}
	if err := w.File.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing file: %w", err))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// readTable reads a whole one dimensional table.
func readTable[T any](file *hdf5.File, path string) ([]T, error) {
	dset, err := file.OpenDataset(path)
	if err != nil {
		return nil, fmt.Errorf("error opening table %s: %w", path, err)
	}
	defer dset.Close()

	space := dset.Space()
	defer space.Close()
	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		return nil, fmt.Errorf("error reading dimensions of %s: %w", path, err)
	}
	if len(dims) != 1 {
		return nil, fmt.Errorf("table %s has %d dimensions, expected 1", path, len(dims))
	}
	data := make([]T, dims[0])
	if len(data) == 0 {
		return data, nil
	}
	if err := dset.Read(&data); err != nil {
		return nil, fmt.Errorf("error reading table %s: %w", path, err)
	}
	return data, nil
}
