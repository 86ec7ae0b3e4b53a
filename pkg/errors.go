package idivc

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSource         = errors.New("invalid source")
	ErrMissingCalibrationSet = errors.New("missing calibration set")
	ErrSensorIDOutOfRange    = errors.New("sensor id out of range")
	ErrIntegrity             = errors.New("integrity error")
	ErrMissingTree           = errors.New("missing tree")
	ErrMissingBranch         = errors.New("missing branch")
	ErrOutputExists          = errors.New("output file exists")
	ErrNoInput               = errors.New("no input files")
	ErrNonSequential         = errors.New("non-sequential read across containers")
	ErrOutOfRange            = errors.New("event index out of range")
	ErrUnknownRevision       = errors.New("unknown channel map revision")
	ErrUnsupportedFormat     = errors.New("unsupported format")
)

// ErrOpenFile represents an error when opening a file.
type ErrOpenFile struct {
	Filename string
	Err      error
}

func (e *ErrOpenFile) Error() string {
	return fmt.Sprintf("error opening file %q: %v", e.Filename, e.Err)
}

func (e *ErrOpenFile) Unwrap() error {
	return e.Err
}

func (e *ErrOpenFile) Is(target error) bool {
	return target == ErrInvalidSource
}

// ErrEntryMismatch is returned when the hit trees and the reconciliation
// trees of a set of input files disagree on the number of entries.
type ErrEntryMismatch struct {
	HitEntries  int64
	RecoEntries int64
}

func (e *ErrEntryMismatch) Error() string {
	return fmt.Sprintf("hit tree has %d entries, but reco tree has %d", e.HitEntries, e.RecoEntries)
}

func (e *ErrEntryMismatch) Is(target error) bool {
	return target == ErrIntegrity
}

// ErrSensorRange reports a calibration record declaring a sensor id outside
// [0, NSensors).
type ErrSensorRange struct {
	Source string
	Sensor float64
}

func (e *ErrSensorRange) Error() string {
	return fmt.Sprintf("bad PMT number %v in %s", e.Sensor, e.Source)
}

func (e *ErrSensorRange) Is(target error) bool {
	return target == ErrSensorIDOutOfRange
}
