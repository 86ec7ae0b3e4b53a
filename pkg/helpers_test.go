package idivc

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/groot/rtree"
	"go-hep.org/x/hep/hbook"
)

// recordingLogger keeps every message so tests can look for them.
type recordingLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (l *recordingLogger) Info(message string, module string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, fmt.Sprintf("[%s] %s", module, message))
}

func (l *recordingLogger) Error(message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, message)
}

func useLogger(t *testing.T, verb int) *recordingLogger {
	t.Helper()
	rec := &recordingLogger{}
	SetLogger(rec)
	SetVerbosity(verb)
	t.Cleanup(func() {
		SetLogger(nil)
		SetVerbosity(0)
	})
	return rec
}

type hitEvent struct {
	tstart [NChannelSlots]float64
	ids    [NChannelSlots]int32
}

func newHitEvent() hitEvent {
	var ev hitEvent
	for i := range ev.ids {
		ev.ids[i] = -1
	}
	return ev
}

// hit sets one slot. A negative id leaves the id unset.
func (ev hitEvent) hit(slot int, id int32, tstart float64) hitEvent {
	ev.tstart[slot] = tstart
	ev.ids[slot] = id
	return ev
}

// writeInputFile writes a base file with the default layout.
func writeInputFile(t *testing.T, path string, events []hitEvent, recoEntries int, withIDs bool) {
	t.Helper()
	layout := DefaultInputLayout()

	f, err := groot.Create(path)
	require.NoError(t, err)

	var tstart [NChannelSlots]float64
	var ids [NChannelSlots]int32
	wvars := []rtree.WriteVar{{Name: layout.StartTimeBranch, Value: &tstart}}
	if withIDs {
		wvars = append(wvars, rtree.WriteVar{Name: layout.SensorIDBranch, Value: &ids})
	}
	hits, err := rtree.NewWriter(f, layout.HitTree, wvars)
	require.NoError(t, err)
	for _, ev := range events {
		tstart = ev.tstart
		ids = ev.ids
		_, err := hits.Write()
		require.NoError(t, err)
	}
	require.NoError(t, hits.Close())

	var run int32 = 1234
	reco, err := rtree.NewWriter(f, layout.RecoTree, []rtree.WriteVar{{Name: "run", Value: &run}})
	require.NoError(t, err)
	for i := 0; i < recoEntries; i++ {
		_, err := reco.Write()
		require.NoError(t, err)
	}
	require.NoError(t, reco.Close())
	require.NoError(t, f.Close())
}

// writeCalibrationFile stores points as a graph with symmetric errors.
func writeCalibrationFile(t *testing.T, path string, name string, points []CalibrationPoint) {
	t.Helper()
	pts := make([]hbook.Point2D, len(points))
	for i, p := range points {
		pts[i] = hbook.Point2D{X: p.Sensor, Y: p.Value, ErrY: hbook.Range{Min: p.Error, Max: p.Error}}
	}
	f, err := groot.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Put(name, rhist.NewGraphErrorsFrom(hbook.NewS2D(pts...))))
	require.NoError(t, f.Close())
}

func tempPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name)
}

// calibrationTable builds a table whose accepted offsets are offsets.
func calibrationTable(t *testing.T, offsets map[int]float64) *CalibrationTable {
	t.Helper()
	points := make([]CalibrationPoint, 0, len(offsets))
	for sensor, value := range offsets {
		points = append(points, CalibrationPoint{Sensor: float64(sensor), Value: value, Error: 0.5})
	}
	table, err := BuildCalibrationTable("test", points)
	require.NoError(t, err)
	return table
}

func defaultChannelMap(t *testing.T) *ChannelMap {
	t.Helper()
	chmap, err := ChannelMapForRevision(DefaultRevision)
	require.NoError(t, err)
	return chmap
}
