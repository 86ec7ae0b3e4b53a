//go:build hdf5

package idivc

import (
	"fmt"

	hdf5 "github.com/jmbenlloch/go-hdf5"
)

type ReducedEventHDF5 struct {
	timeid     float64
	timeiv     float64
	firstidpmt int32
	firstivpmt int32
}

type ProvenanceHDF5 struct {
	key   [STRLEN]byte
	value [VALUELEN]byte
}

type CalibrationHDF5 struct {
	sensor float64
	time   float64
	error  float64
}

const (
	STRLEN   = 20
	VALUELEN = 256
)

func convertToHdf5String(s string) [STRLEN]byte {
	var byteArray [STRLEN]byte
	copy(byteArray[:], s)
	return byteArray
}

func convertToHdf5Value(s string) [VALUELEN]byte {
	var byteArray [VALUELEN]byte
	copy(byteArray[:], s)
	return byteArray
}

func openFile(fname string, clobber bool) (*hdf5.File, error) {
	flag := hdf5.F_ACC_EXCL
	if clobber {
		flag = hdf5.F_ACC_TRUNC
	}
	f, err := hdf5.CreateFile(fname, flag)
	if err != nil {
		return nil, &ErrOpenFile{Filename: fname, Err: err}
	}
	return f, nil
}

func createGroup(file *hdf5.File, groupName string) (*hdf5.Group, error) {
	g, err := file.CreateGroup(groupName)
	if err != nil {
		return nil, fmt.Errorf("error creating group %q: %w", groupName, err)
	}
	return g, nil
}

func createTable(group *hdf5.Group, name string, datatype interface{}, compression int) (*hdf5.Dataset, error) {
	dims := []uint{0}
	unlimitedDims := -1 // H5S_UNLIMITED is -1L
	maxDims := []uint{uint(unlimitedDims)}
	fileSpace, err := hdf5.CreateSimpleDataspace(dims, maxDims)
	if err != nil {
		return nil, fmt.Errorf("error creating table %q: %w", name, err)
	}
	defer fileSpace.Close()

	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		return nil, fmt.Errorf("error creating table %q: %w", name, err)
	}
	defer plist.Close()

	chunks := []uint{32768}
	plist.SetChunk(chunks)
	if compression > 0 {
		plist.SetDeflate(compression)
	}

	dtype, err := hdf5.NewDatatypeFromValue(datatype)
	if err != nil {
		return nil, fmt.Errorf("error creating table %q: %w", name, err)
	}

	dset, err := group.CreateDatasetWith(name, dtype, fileSpace, plist)
	if err != nil {
		return nil, fmt.Errorf("error creating table %q: %w", name, err)
	}
	return dset, nil
}

func writeEntryToTable[T any](dataset *hdf5.Dataset, data T, evtCounter int64) error {
	array := []T{data}
	return writeArrayToTable(dataset, &array, evtCounter)
}

func writeArrayToTable[T any](dataset *hdf5.Dataset, data *[]T, evtCounter int64) error {
	length := uint(len(*data))
	dims := []uint{length}
	dataspace, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return err
	}
	defer dataspace.Close()

	// extend
	rowsInFile := uint(evtCounter)
	newsize := []uint{rowsInFile + length}
	if err := dataset.Resize(newsize); err != nil {
		return err
	}
	filespace := dataset.Space()
	defer filespace.Close()

	start := []uint{rowsInFile}
	count := []uint{length}
	if err := filespace.SelectHyperslab(start, nil, count, nil); err != nil {
		return err
	}
	return dataset.WriteSubset(data, dataspace, filespace)
}

// LoadCalibrationHDF5 reads a (sensor, time, error) compound table.
func LoadCalibrationHDF5(path string, name string) (*CalibrationTable, error) {
	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, &ErrOpenFile{Filename: path, Err: err}
	}
	defer f.Close()

	dset, err := f.OpenDataset(name)
	if err != nil {
		return nil, fmt.Errorf("%w: couldn't get %s from timing file %s: %v", ErrMissingCalibrationSet, name, path, err)
	}
	defer dset.Close()

	space := dset.Space()
	defer space.Close()
	rows := make([]CalibrationHDF5, space.SimpleExtentNPoints())
	if len(rows) > 0 {
		if err := dset.Read(&rows); err != nil {
			return nil, fmt.Errorf("error reading %s from %s: %w", name, path, err)
		}
	}

	points := make([]CalibrationPoint, len(rows))
	for i, row := range rows {
		points[i] = CalibrationPoint{Sensor: row.sensor, Value: row.time, Error: row.error}
	}
	return BuildCalibrationTable(path+":"+name, points)
}
