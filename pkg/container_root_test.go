package idivc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rtree"
)

func TestROOTContainerRead(t *testing.T) {
	path := tempPath(t, "run1_base.root")
	events := []hitEvent{
		newHitEvent().hit(0, 3, 10.5),
		newHitEvent().hit(400, 395, 7.25),
		newHitEvent().hit(1, 4, 2.0).hit(2, 5, 3.0),
	}
	writeInputFile(t, path, events, len(events), true)

	c, err := OpenROOTContainer(path, DefaultInputLayout())
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, int64(3), c.Entries())
	assert.Equal(t, int64(3), c.ReconciliationEntries())

	ev := NewRawEvent()
	for i, want := range events {
		ev.Reset()
		require.NoError(t, c.ReadEntry(int64(i), ev))
		assert.True(t, ev.HasSensorIDs)
		assert.Equal(t, want.tstart, ev.StartTime, "entry %d", i)
		assert.Equal(t, want.ids, ev.SensorID, "entry %d", i)
	}

	// Backwards and repeated reads restart the scan
	require.NoError(t, c.ReadEntry(1, ev))
	assert.Equal(t, 7.25, ev.StartTime[400])
	require.NoError(t, c.ReadEntry(1, ev))
	assert.Equal(t, int32(395), ev.SensorID[400])
	require.NoError(t, c.ReadEntry(0, ev))
	assert.Equal(t, 10.5, ev.StartTime[0])

	assert.ErrorIs(t, c.ReadEntry(3, ev), ErrOutOfRange)
}

func TestROOTContainerWithoutSensorIDs(t *testing.T) {
	path := tempPath(t, "run1_base.root")
	writeInputFile(t, path, []hitEvent{newHitEvent().hit(5, -1, 20.0)}, 1, false)

	c, err := OpenROOTContainer(path, DefaultInputLayout())
	require.NoError(t, err)
	defer c.Close()

	ev := NewRawEvent()
	require.NoError(t, c.ReadEntry(0, ev))
	assert.False(t, ev.HasSensorIDs)
	assert.Equal(t, 20.0, ev.StartTime[5])
	assert.Equal(t, int32(-1), ev.SensorID[5])
}

func TestROOTContainerMissingPieces(t *testing.T) {
	_, err := OpenROOTContainer(tempPath(t, "nothing_base.root"), DefaultInputLayout())
	assert.ErrorIs(t, err, ErrInvalidSource)

	path := tempPath(t, "run1_base.root")
	writeInputFile(t, path, []hitEvent{newHitEvent()}, 1, true)

	layout := DefaultInputLayout()
	layout.HitTree = "NoSuchTree"
	_, err = OpenROOTContainer(path, layout)
	assert.ErrorIs(t, err, ErrMissingTree)

	layout = DefaultInputLayout()
	layout.RecoTree = "NoSuchTree"
	_, err = OpenROOTContainer(path, layout)
	assert.ErrorIs(t, err, ErrMissingTree)

	layout = DefaultInputLayout()
	layout.StartTimeBranch = "fNoSuchBranch"
	_, err = OpenROOTContainer(path, layout)
	assert.ErrorIs(t, err, ErrMissingBranch)

	// A missing sensor id branch is not an error
	layout = DefaultInputLayout()
	layout.SensorIDBranch = "fNoSuchBranch"
	c, err := OpenROOTContainer(path, layout)
	require.NoError(t, err)
	assert.False(t, c.hasIDs)
	require.NoError(t, c.Close())
}

func TestOpenROOTInputs(t *testing.T) {
	first := tempPath(t, "run1_base.root")
	second := tempPath(t, "run2_base.root")
	writeInputFile(t, first, []hitEvent{newHitEvent().hit(0, 1, 1.0), newHitEvent().hit(0, 1, 2.0)}, 2, true)
	writeInputFile(t, second, []hitEvent{newHitEvent().hit(0, 1, 3.0)}, 1, true)

	r, err := OpenROOTInputs([]string{first, second}, DefaultInputLayout())
	require.NoError(t, err)
	defer r.Close()
	require.Equal(t, int64(3), r.Entries())

	ev := NewRawEvent()
	var starts []float64
	for i := int64(0); i < r.Entries(); i++ {
		require.NoError(t, r.ReadEvent(i, ev))
		starts = append(starts, ev.StartTime[0])
	}
	assert.Equal(t, []float64{1, 2, 3}, starts)
	assert.Equal(t, 2, r.Switches())
}

func TestOpenROOTInputsMismatch(t *testing.T) {
	path := tempPath(t, "run1_base.root")
	writeInputFile(t, path, []hitEvent{newHitEvent(), newHitEvent()}, 1, true)

	_, err := OpenROOTInputs([]string{path}, DefaultInputLayout())
	assert.ErrorIs(t, err, ErrIntegrity)

	_, err = OpenROOTInputs(nil, DefaultInputLayout())
	assert.ErrorIs(t, err, ErrNoInput)
}

func TestGetTreeWrongClass(t *testing.T) {
	path := tempPath(t, "timing.root")
	writeCalibrationFile(t, path, "graph", []CalibrationPoint{{Sensor: 1, Value: 1, Error: 0.1}})

	f, err := groot.Open(path)
	require.NoError(t, err)
	defer f.Close()
	_, err = getTree(f, "graph")
	assert.ErrorIs(t, err, ErrMissingTree)
}

// readOutputTree returns the reduced events stored in an output file.
func readOutputTree(t *testing.T, path string) []ReducedEvent {
	t.Helper()
	f, err := groot.Open(path)
	require.NoError(t, err)
	defer f.Close()

	tree, err := getTree(f, OutputTree)
	require.NoError(t, err)

	var ev ReducedEvent
	rvars := []rtree.ReadVar{
		{Name: "timeid", Value: &ev.TimeID},
		{Name: "timeiv", Value: &ev.TimeIV},
		{Name: "firstidpmt", Value: &ev.FirstIDPMT},
		{Name: "firstivpmt", Value: &ev.FirstIVPMT},
	}
	r, err := rtree.NewReader(tree, rvars)
	require.NoError(t, err)
	defer r.Close()

	var out []ReducedEvent
	err = r.Read(func(ctx rtree.RCtx) error {
		out = append(out, ev)
		return nil
	})
	require.NoError(t, err)
	return out
}

func readProvenance(t *testing.T, path string) map[string]string {
	t.Helper()
	f, err := groot.Open(path)
	require.NoError(t, err)
	defer f.Close()

	tree, err := getTree(f, ProvenanceTree)
	require.NoError(t, err)

	var key, value string
	r, err := rtree.NewReader(tree, []rtree.ReadVar{{Name: "key", Value: &key}, {Name: "value", Value: &value}})
	require.NoError(t, err)
	defer r.Close()

	prov := make(map[string]string)
	err = r.Read(func(ctx rtree.RCtx) error {
		prov[key] = value
		return nil
	})
	require.NoError(t, err)
	return prov
}
