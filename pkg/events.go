package idivc

const (
	// NChannelSlots is the fixed number of per-channel slots in a raw event.
	NChannelSlots = 520
	// NSensors is the number of physical sensors (PMTs), ID and IV together.
	NSensors = 468
	// IVFirstSensor is the first inner-veto sensor id. Lower ids belong to
	// the inner detector.
	IVFirstSensor = 390

	// NoHit marks a region without any valid hit in a ReducedEvent.
	NoHit = -1

	unsetTime    = 9999.0
	noHitCeiling = 999.0
)

// RawEvent holds the per-channel start times of one event and, for files
// that carry them, the sensor id recorded for each channel.
type RawEvent struct {
	StartTime    [NChannelSlots]float64
	SensorID     [NChannelSlots]int32
	HasSensorIDs bool
}

func NewRawEvent() *RawEvent {
	ev := &RawEvent{}
	ev.Reset()
	return ev
}

// Reset sets every slot to "no hit": start time 0 and sensor id -1.
func (ev *RawEvent) Reset() {
	for i := range ev.StartTime {
		ev.StartTime[i] = 0
		ev.SensorID[i] = -1
	}
	ev.HasSensorIDs = false
}

type ReducedEvent struct {
	TimeID     float64
	TimeIV     float64
	FirstIDPMT int32
	FirstIVPMT int32
}

// Region names used in logs and metrics.
const (
	RegionID = "id"
	RegionIV = "iv"
)
