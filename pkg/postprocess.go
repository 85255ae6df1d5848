package for009

import (
	"bufio"
	"cmp"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/exp/slices"
)

// OutputFiles holds the paths of every file produced by a run.
type OutputFiles struct {
	Upstream           string
	Downstream         string
	UpstreamSorted     string
	DownstreamSorted   string
	UpstreamStripped   string
	DownstreamStripped string
	Merged             string
}

func NewOutputFiles(dir string) OutputFiles {
	return OutputFiles{
		Upstream:           filepath.Join(dir, "for009_US.dat"),
		Downstream:         filepath.Join(dir, "for009_DS.dat"),
		UpstreamSorted:     filepath.Join(dir, "for009_US_Sort.dat"),
		DownstreamSorted:   filepath.Join(dir, "for009_DS_Sort.dat"),
		UpstreamStripped:   filepath.Join(dir, "for009_US_Sort_No_nan.dat"),
		DownstreamStripped: filepath.Join(dir, "for009_DS_Sort_No_nan.dat"),
		Merged:             filepath.Join(dir, "for009.dat"),
	}
}

// SortRecords orders records by region and then by event number. Equal keys keep
// their original order.
func SortRecords(records []Record) {
	slices.SortStableFunc(records, func(a, b Record) int {
		if c := cmp.Compare(a.Region(), b.Region()); c != 0 {
			return c
		}
		return cmp.Compare(a.Event(), b.Event())
	})
}

// SortFile reads a for009 file, sorts it and writes it to out without header.
func SortFile(in string, out string) (int, error) {
	file, err := os.Open(in)
	if err != nil {
		return 0, &ErrOpenFile{Filename: in, Err: err}
	}
	defer file.Close()

	records, err := ReadRecords(file)
	if err != nil {
		return 0, fmt.Errorf("error reading %s: %w", in, err)
	}
	SortRecords(records)

	if err := writeFile(out, func(w io.Writer) error {
		return WriteRecords(w, records)
	}); err != nil {
		return 0, err
	}
	return len(records), nil
}

// StripInvalid copies every line of in that does not contain INVALID_MARKER.
func StripInvalid(in io.Reader, out io.Writer) (int, int, error) {
	kept, dropped := 0, 0
	reader := bufio.NewReader(in)
	writer := bufio.NewWriter(out)
	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			if strings.Contains(line, INVALID_MARKER) {
				dropped++
			} else {
				if _, werr := writer.WriteString(line); werr != nil {
					return kept, dropped, werr
				}
				kept++
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return kept, dropped, err
		}
	}
	return kept, dropped, writer.Flush()
}

func StripInvalidFile(in string, out string) (int, int, error) {
	file, err := os.Open(in)
	if err != nil {
		return 0, 0, &ErrOpenFile{Filename: in, Err: err}
	}
	defer file.Close()

	var kept, dropped int
	err = writeFile(out, func(w io.Writer) error {
		var err error
		kept, dropped, err = StripInvalid(file, w)
		return err
	})
	return kept, dropped, err
}

// Concatenate copies the inputs, in order, into out.
func Concatenate(out string, inputs ...string) error {
	return writeFile(out, func(w io.Writer) error {
		for _, in := range inputs {
			if err := appendFile(w, in); err != nil {
				return err
			}
		}
		return nil
	})
}

func appendFile(w io.Writer, in string) error {
	file, err := os.Open(in)
	if err != nil {
		return &ErrOpenFile{Filename: in, Err: err}
	}
	defer file.Close()
	if _, err := io.Copy(w, file); err != nil {
		return fmt.Errorf("error copying %s: %w", in, err)
	}
	return nil
}

func writeFile(name string, fill func(w io.Writer) error) (err error) {
	file, err := os.Create(name)
	if err != nil {
		return &ErrCreateFile{Filename: name, Err: err}
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("error closing %s: %w", name, cerr)
		}
	}()
	return fill(file)
}

// PostProcess sorts both streams, removes the rows with undefined values and merges
// them, upstream first. The first failing stage stops the run.
func PostProcess(files OutputFiles) error {
	streams := []struct {
		name     string
		raw      string
		sorted   string
		stripped string
	}{
		{"upstream", files.Upstream, files.UpstreamSorted, files.UpstreamStripped},
		{"downstream", files.Downstream, files.DownstreamSorted, files.DownstreamStripped},
	}

	for _, s := range streams {
		nRows, err := SortFile(s.raw, s.sorted)
		if err != nil {
			return err
		}
		kept, dropped, err := StripInvalidFile(s.sorted, s.stripped)
		if err != nil {
			return err
		}
		if configuration.Verbosity > 0 {
			message := fmt.Sprintf("%s: %d rows sorted, %d kept, %d with undefined values", s.name, nRows, kept, dropped)
			logger.Info(message, "postprocess")
		}
	}

	return Concatenate(files.Merged, files.UpstreamStripped, files.DownstreamStripped)
}
