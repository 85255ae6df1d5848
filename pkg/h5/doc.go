// Package h5 stores detector readouts and for009 tables in HDF5 files.
//
// It needs libhdf5 at build time (cgo), which is why it is kept apart from the
// extraction and post-processing code.
package h5
