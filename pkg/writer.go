package for009

import (
	"bufio"
	"errors"
	"fmt"
	"os"
)

// RecordWriter receives the rows accepted by the extractor.
type RecordWriter interface {
	WriteRecord(record Record) error
}

// Writer is a for009 text file opened for a whole run. The file is truncated on
// creation and starts with the column header.
type Writer struct {
	File       *os.File
	Filename   string
	buffer     *bufio.Writer
	RowCounter int
}

func NewWriter(filename string) (*Writer, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, &ErrCreateFile{Filename: filename, Err: err}
	}
	if configuration.Verbosity > 1 {
		logger.Info(fmt.Sprintf("Creating file: %s", filename), "writer")
	}
	writer := &Writer{
		File:     file,
		Filename: filename,
		buffer:   bufio.NewWriter(file),
	}
	if _, err := writer.buffer.WriteString(HEADER); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("error writing header to %s: %w", filename, err)
	}
	return writer, nil
}

func (w *Writer) WriteRecord(record Record) error {
	if _, err := w.buffer.WriteString(record.Format()); err != nil {
		return fmt.Errorf("error writing row %d to %s: %w", w.RowCounter, w.Filename, err)
	}
	w.RowCounter++
	return nil
}

func (w *Writer) Close() error {
	if configuration.Verbosity > 1 {
		logger.Info(fmt.Sprintf("Closing file %s (%d rows)", w.Filename, w.RowCounter), "writer")
	}
	var errs []error
	if err := w.buffer.Flush(); err != nil {
		errs = append(errs, fmt.Errorf("error flushing %s: %w", w.Filename, err))
	}
	if err := w.File.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing %s: %w", w.Filename, err))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
