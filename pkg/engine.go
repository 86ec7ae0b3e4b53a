package idivc

// Engine reduces raw events to the first corrected hit time of the inner
// detector and of the inner veto.
type Engine struct {
	chmap *ChannelMap
	table *CalibrationTable
}

func NewEngine(chmap *ChannelMap, table *CalibrationTable) *Engine {
	return &Engine{chmap: chmap, table: table}
}

// Reduce scans the slots in index order and keeps, per region, the smallest
// corrected start time. Ties go to the lowest slot.
func (e *Engine) Reduce(ev *RawEvent) ReducedEvent {
	minTime := [2]float64{unsetTime, unsetTime}
	first := [2]int32{NoHit, NoHit}

	for slot := 0; slot < NChannelSlots; slot++ {
		var sensor int
		if ev.HasSensorIDs {
			sensor = int(ev.SensorID[slot])
		} else {
			sensor = int(e.chmap.SlotSensor(slot))
		}
		// Unmapped and disconnected channels are negative
		if sensor < 0 || sensor >= NSensors {
			continue
		}
		start := ev.StartTime[slot]
		if start <= 0 {
			continue
		}

		corrected := start + e.table.Offset(sensor)
		region := 0
		if sensor >= IVFirstSensor {
			region = 1
		}
		if corrected < minTime[region] {
			minTime[region] = corrected
			first[region] = int32(sensor)
		}
	}

	out := ReducedEvent{
		TimeID:     minTime[0],
		TimeIV:     minTime[1],
		FirstIDPMT: first[0],
		FirstIVPMT: first[1],
	}
	if out.TimeID > noHitCeiling {
		out.TimeID = NoHit
		out.FirstIDPMT = NoHit
	}
	if out.TimeIV > noHitCeiling {
		out.TimeIV = NoHit
		out.FirstIVPMT = NoHit
	}
	return out
}
