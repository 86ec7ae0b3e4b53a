package idivc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func explicitEvent(hits map[int][2]float64) *RawEvent {
	ev := NewRawEvent()
	ev.HasSensorIDs = true
	for slot, h := range hits {
		ev.SensorID[slot] = int32(h[0])
		ev.StartTime[slot] = h[1]
	}
	return ev
}

func TestReduceNoHits(t *testing.T) {
	engine := NewEngine(defaultChannelMap(t), calibrationTable(t, nil))
	want := ReducedEvent{TimeID: NoHit, TimeIV: NoHit, FirstIDPMT: NoHit, FirstIVPMT: NoHit}

	ev := NewRawEvent()
	ev.HasSensorIDs = true
	assert.Equal(t, want, engine.Reduce(ev))

	// Channel map mode, every start time unset
	assert.Equal(t, want, engine.Reduce(NewRawEvent()))
}

func TestReduceExplicitIDs(t *testing.T) {
	engine := NewEngine(defaultChannelMap(t), calibrationTable(t, nil))
	ev := explicitEvent(map[int][2]float64{
		3:   {12, 5.0},
		400: {395, 7.0},
	})
	out := engine.Reduce(ev)
	assert.Equal(t, ReducedEvent{TimeID: 5.0, TimeIV: 7.0, FirstIDPMT: 12, FirstIVPMT: 395}, out)
}

func TestReduceAppliesOffsets(t *testing.T) {
	table := calibrationTable(t, map[int]float64{12: -1.5, 20: 3.0, 395: 2.25})
	engine := NewEngine(defaultChannelMap(t), table)
	ev := explicitEvent(map[int][2]float64{
		0: {20, 4.0},
		1: {12, 6.0},
		2: {395, 7.0},
	})
	out := engine.Reduce(ev)
	assert.Equal(t, 4.5, out.TimeID)
	assert.Equal(t, int32(12), out.FirstIDPMT)
	assert.Equal(t, 9.25, out.TimeIV)
	assert.Equal(t, int32(395), out.FirstIVPMT)
}

func TestReduceTieGoesToLowestSlot(t *testing.T) {
	engine := NewEngine(defaultChannelMap(t), calibrationTable(t, nil))
	ev := explicitEvent(map[int][2]float64{
		10: {21, 4.0},
		11: {20, 4.0},
	})
	out := engine.Reduce(ev)
	assert.Equal(t, int32(21), out.FirstIDPMT)
	assert.Equal(t, 4.0, out.TimeID)
}

func TestReduceSkipsInvalidHits(t *testing.T) {
	engine := NewEngine(defaultChannelMap(t), calibrationTable(t, nil))
	ev := explicitEvent(map[int][2]float64{
		0: {5, -3.0},  // negative start time
		1: {6, 0},     // no hit
		2: {468, 1.0}, // sensor out of range
		3: {-1, 1.0},  // no sensor
		4: {7, 8.0},
		5: {400, 1500}, // corrected time above the no-hit ceiling
	})
	out := engine.Reduce(ev)
	assert.Equal(t, ReducedEvent{TimeID: 8.0, TimeIV: NoHit, FirstIDPMT: 7, FirstIVPMT: NoHit}, out)
}

func TestReduceRegionBoundary(t *testing.T) {
	engine := NewEngine(defaultChannelMap(t), calibrationTable(t, nil))
	ev := explicitEvent(map[int][2]float64{
		0: {389, 10.0},
		1: {390, 11.0},
	})
	out := engine.Reduce(ev)
	assert.Equal(t, int32(389), out.FirstIDPMT)
	assert.Equal(t, int32(390), out.FirstIVPMT)
}

func TestReduceChannelMapMode(t *testing.T) {
	engine := NewEngine(defaultChannelMap(t), calibrationTable(t, nil))
	ev := NewRawEvent()
	ev.StartTime[5] = 20.0   // sensor 5
	ev.StartTime[390] = 1.0  // disconnected
	ev.StartTime[392] = 30.0 // channel 1000, sensor 390
	ev.StartTime[469] = 25.0 // channel 1077, sensor 467
	ev.StartTime[470] = 2.0  // disconnected
	ev.StartTime[500] = 3.0  // not wired
	out := engine.Reduce(ev)
	assert.Equal(t, ReducedEvent{TimeID: 20.0, TimeIV: 25.0, FirstIDPMT: 5, FirstIVPMT: 467}, out)
}

func TestReduceIsDeterministic(t *testing.T) {
	engine := NewEngine(defaultChannelMap(t), calibrationTable(t, map[int]float64{1: 0.5}))
	ev := explicitEvent(map[int][2]float64{0: {1, 3.0}, 1: {400, 4.0}})
	assert.Equal(t, engine.Reduce(ev), engine.Reduce(ev))
}
