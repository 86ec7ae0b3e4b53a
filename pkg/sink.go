package idivc

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Sink receives the reduced events in input order. Close finalizes the
// output; Abort closes it without provenance and removes the file.
type Sink interface {
	Write(ev ReducedEvent) error
	Written() int64
	Close() error
	Abort() error
}

// Provenance describes how an output file was produced. It is stored next to
// the reduced events.
type Provenance struct {
	ProcessingID string
	Calibration  string
	ChannelMap   string
	InputFiles   int
}

func (p Provenance) entries(events int64) [][2]string {
	return [][2]string{
		{"processing_id", p.ProcessingID},
		{"calibration", p.Calibration},
		{"channel_map", p.ChannelMap},
		{"input_files", strconv.Itoa(p.InputFiles)},
		{"events", strconv.FormatInt(events, 10)},
	}
}

const (
	FormatROOT = "root"
	FormatHDF5 = "hdf5"
)

// CreateSink opens the output file in the requested format.
func CreateSink(format string, path string, clobber bool, prov Provenance, compression int) (Sink, error) {
	switch strings.ToLower(format) {
	case FormatROOT:
		sink, err := CreateROOTSink(path, clobber, prov)
		if err != nil {
			return nil, err
		}
		return sink, nil
	case FormatHDF5:
		sink, err := CreateHDF5Sink(path, clobber, prov, compression)
		if err != nil {
			return nil, err
		}
		return sink, nil
	default:
		return nil, fmt.Errorf("%w: output format %q", ErrUnsupportedFormat, format)
	}
}

// FormatFromPath guesses the output format from the file extension.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".h5", ".hdf5":
		return FormatHDF5
	default:
		return FormatROOT
	}
}

// removeOutput deletes an abandoned output file.
func removeOutput(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("error removing %s: %w", path, err)
	}
	return nil
}

func checkOutput(path string, clobber bool) error {
	if clobber {
		return nil
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s. Use -c to overwrite existing output", ErrOutputExists, path)
	}
	return nil
}
