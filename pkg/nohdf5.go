//go:build !hdf5

package idivc

import "fmt"

// Without the hdf5 build tag the cgo HDF5 bindings are not linked in.

func CreateHDF5Sink(filename string, clobber bool, prov Provenance, compression int) (Sink, error) {
	return nil, fmt.Errorf("%w: %s: built without HDF5 support (use -tags hdf5)", ErrUnsupportedFormat, filename)
}

func LoadCalibrationHDF5(path string, name string) (*CalibrationTable, error) {
	return nil, fmt.Errorf("%w: %s: built without HDF5 support (use -tags hdf5)", ErrUnsupportedFormat, path)
}
