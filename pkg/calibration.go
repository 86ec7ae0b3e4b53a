package idivc

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rhist"
	"gonum.org/v1/gonum/stat"
)

// DefaultCalibrationSet is the name of the T0 table produced by the last
// iteration of the timing calibration.
const DefaultCalibrationSet = "finalt0table_caliter01"

// CalibrationPoint is one raw fit record: sensor id, fitted T0 and its
// uncertainty.
type CalibrationPoint struct {
	Sensor float64
	Value  float64
	Error  float64
}

type CalibrationStats struct {
	Rows      int
	Accepted  int
	ZeroValue int
	NotFit    int
	PoorFit   int
	Mean      float64
	StdDev    float64
}

// CalibrationTable holds one time offset per sensor. Sensors without an
// accepted fit keep offset 0.
type CalibrationTable struct {
	Source     string
	Stats      CalibrationStats
	offsets    [NSensors]float64
	calibrated [NSensors]bool
}

func (t *CalibrationTable) Offset(sensor int) float64 {
	if sensor < 0 || sensor >= NSensors {
		return 0
	}
	return t.offsets[sensor]
}

func (t *CalibrationTable) Calibrated(sensor int) bool {
	if sensor < 0 || sensor >= NSensors {
		return false
	}
	return t.calibrated[sensor]
}

// BuildCalibrationTable applies the row acceptance policy to the fit records
// of one calibration set. Bad fits are skipped; a sensor id outside
// [0, NSensors) is fatal.
func BuildCalibrationTable(source string, points []CalibrationPoint) (*CalibrationTable, error) {
	table := &CalibrationTable{Source: source}
	table.Stats.Rows = len(points)

	accepted := make([]float64, 0, len(points))
	for _, p := range points {
		// Tube was not fit, probably because it was powered off
		if p.Value == 0 {
			table.Stats.ZeroValue++
			if verbosity > 1 {
				logger.Info(fmt.Sprintf("Sensor %v has no fitted T0, skipping", p.Sensor), "calibration")
			}
			continue
		}
		if p.Error == 0 || p.Error == 1 {
			table.Stats.NotFit++
			if verbosity > 1 {
				logger.Info(fmt.Sprintf("Sensor %v was not fit (error %v), skipping", p.Sensor, p.Error), "calibration")
			}
			continue
		}
		// Very few hits for this sensor
		if p.Error > 1 {
			table.Stats.PoorFit++
			logger.Info(fmt.Sprintf("Sensor %v: error of %f...", p.Sensor, p.Error), "calibration")
			continue
		}
		if p.Sensor < 0 || p.Sensor >= NSensors || p.Sensor != math.Trunc(p.Sensor) {
			return nil, &ErrSensorRange{Source: source, Sensor: p.Sensor}
		}

		sensor := int(p.Sensor)
		table.offsets[sensor] = p.Value
		table.calibrated[sensor] = true
		accepted = append(accepted, p.Value)
	}

	table.Stats.Accepted = len(accepted)
	if len(accepted) > 0 {
		table.Stats.Mean = stat.Mean(accepted, nil)
	}
	if len(accepted) > 1 {
		table.Stats.StdDev = stat.StdDev(accepted, nil)
	}
	return table, nil
}

// LoadCalibration reads a calibration set from a ROOT or HDF5 file,
// depending on the file extension.
func LoadCalibration(path string, name string) (*CalibrationTable, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".root":
		return LoadCalibrationROOT(path, name)
	case ".h5", ".hdf5":
		return LoadCalibrationHDF5(path, name)
	default:
		return nil, fmt.Errorf("%w: calibration file %s", ErrUnsupportedFormat, path)
	}
}

// LoadCalibrationROOT reads the TGraphErrors named name (x: sensor id,
// y: T0, ey: uncertainty) from a ROOT file.
func LoadCalibrationROOT(path string, name string) (*CalibrationTable, error) {
	points, err := ReadCalibrationPointsROOT(path, name)
	if err != nil {
		return nil, err
	}
	return BuildCalibrationTable(path+":"+name, points)
}

// ReadCalibrationPointsROOT returns the raw points of the graph, before any
// acceptance policy is applied.
func ReadCalibrationPointsROOT(path string, name string) ([]CalibrationPoint, error) {
	f, err := groot.Open(path)
	if err != nil {
		return nil, &ErrOpenFile{Filename: path, Err: err}
	}
	defer f.Close()

	obj, err := f.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: couldn't get %s from timing file %s: %v", ErrMissingCalibrationSet, name, path, err)
	}
	graph, ok := obj.(rhist.GraphErrors)
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s is a %s, not a graph with errors", ErrMissingCalibrationSet, name, path, obj.Class())
	}

	points := make([]CalibrationPoint, graph.Len())
	for i := range points {
		x, y := graph.XY(i)
		low, high := graph.YError(i)
		points[i] = CalibrationPoint{Sensor: x, Value: y, Error: errorY(low, high)}
	}
	if verbosity > 0 {
		logger.Info(fmt.Sprintf("Read %d calibration points from %s:%s", len(points), path, name), "calibration")
	}
	return points, nil
}

// errorY combines asymmetric errors the way TGraphAsymmErrors::GetErrorY
// does. Symmetric errors are returned untouched.
func errorY(low, high float64) float64 {
	if low == high {
		return low
	}
	return math.Sqrt(0.5 * (low*low + high*high))
}

func (t *CalibrationTable) LogSummary() {
	s := t.Stats
	message := fmt.Sprintf("Calibration %s: %d rows, %d accepted, %d zero, %d not fit, %d poor fit. Offsets mean %.3f, std %.3f",
		t.Source, s.Rows, s.Accepted, s.ZeroValue, s.NotFit, s.PoorFit, s.Mean, s.StdDev)
	logger.Info(message, "calibration")
}
