package idivc

import (
	_ "embed"
	"fmt"
	"sort"

	"github.com/goccy/go-yaml"
)

// SensorID is a physical sensor number, or one of the Unmapped and
// Disconnected sentinels.
type SensorID int32

const (
	Unmapped     SensorID = -1
	Disconnected SensorID = -2
)

const DefaultRevision = "dc-2011"

//go:embed channelmap.yaml
var defaultRevisionsYAML []byte

type SlotSegment struct {
	FirstSlot    int `yaml:"first_slot"`
	FirstChannel int `yaml:"first_channel"`
	Count        int `yaml:"count"`
}

type SensorSegment struct {
	FirstChannel int `yaml:"first_channel"`
	FirstSensor  int `yaml:"first_sensor"`
	Count        int `yaml:"count"`
}

// Revision describes the wiring of one hardware revision.
type Revision struct {
	Name         string          `yaml:"name"`
	Slots        []SlotSegment   `yaml:"slots"`
	Sensors      []SensorSegment `yaml:"sensors"`
	Disconnected []int           `yaml:"disconnected"`
}

type ChannelRange struct {
	First int
	Last  int
}

// ChannelMappingEntry is one electronics channel to sensor association, as
// stored in the conditions database. A negative SensorID flags a
// disconnected channel.
type ChannelMappingEntry struct {
	ElecID   int `db:"ElecID"`
	SensorID int `db:"SensorID"`
}

type ChannelMap struct {
	name        string
	slotChannel [NChannelSlots]int
	sensors     map[int]SensorID
	ranges      []ChannelRange
}

func LoadRevisions(data []byte) ([]Revision, error) {
	var doc struct {
		Revisions []Revision `yaml:"revisions"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error parsing channel map revisions: %w", err)
	}
	if len(doc.Revisions) == 0 {
		return nil, fmt.Errorf("no channel map revisions found")
	}
	return doc.Revisions, nil
}

func DefaultRevisions() ([]Revision, error) {
	return LoadRevisions(defaultRevisionsYAML)
}

func FindRevision(revisions []Revision, name string) (Revision, error) {
	for _, rev := range revisions {
		if rev.Name == name {
			return rev, nil
		}
	}
	return Revision{}, fmt.Errorf("%w: %q", ErrUnknownRevision, name)
}

// ChannelMapForRevision builds the map of one of the embedded revisions.
func ChannelMapForRevision(name string) (*ChannelMap, error) {
	revisions, err := DefaultRevisions()
	if err != nil {
		return nil, err
	}
	rev, err := FindRevision(revisions, name)
	if err != nil {
		return nil, err
	}
	return NewChannelMap(rev)
}

func NewChannelMap(rev Revision) (*ChannelMap, error) {
	sensors := make(map[int]SensorID)
	for _, seg := range rev.Sensors {
		if seg.Count <= 0 {
			return nil, fmt.Errorf("revision %s: empty sensor segment at channel %d", rev.Name, seg.FirstChannel)
		}
		for i := 0; i < seg.Count; i++ {
			channel := seg.FirstChannel + i
			if _, ok := sensors[channel]; ok {
				return nil, fmt.Errorf("revision %s: channel %d mapped twice", rev.Name, channel)
			}
			sensors[channel] = SensorID(seg.FirstSensor + i)
		}
	}
	for _, channel := range rev.Disconnected {
		if _, ok := sensors[channel]; ok {
			return nil, fmt.Errorf("revision %s: disconnected channel %d has a sensor", rev.Name, channel)
		}
		sensors[channel] = Disconnected
	}
	return buildChannelMap(rev.Name, rev.Slots, sensors)
}

// NewChannelMapFromEntries builds a map from conditions database rows, using
// the slot layout of an existing revision.
func NewChannelMapFromEntries(name string, slots []SlotSegment, entries []ChannelMappingEntry) (*ChannelMap, error) {
	sensors := make(map[int]SensorID, len(entries))
	for _, entry := range entries {
		if _, ok := sensors[entry.ElecID]; ok {
			return nil, fmt.Errorf("channel map %s: channel %d mapped twice", name, entry.ElecID)
		}
		if entry.SensorID < 0 {
			sensors[entry.ElecID] = Disconnected
			continue
		}
		sensors[entry.ElecID] = SensorID(entry.SensorID)
	}
	return buildChannelMap(name, slots, sensors)
}

func buildChannelMap(name string, slots []SlotSegment, sensors map[int]SensorID) (*ChannelMap, error) {
	m := &ChannelMap{
		name:    name,
		sensors: make(map[int]SensorID, len(sensors)),
	}
	for i := range m.slotChannel {
		m.slotChannel[i] = -1
	}

	wired := make(map[int]bool)
	for _, seg := range slots {
		if seg.Count <= 0 || seg.FirstSlot < 0 || seg.FirstSlot+seg.Count > NChannelSlots {
			return nil, fmt.Errorf("channel map %s: slot segment [%d, %d) outside event", name, seg.FirstSlot, seg.FirstSlot+seg.Count)
		}
		for i := 0; i < seg.Count; i++ {
			slot := seg.FirstSlot + i
			channel := seg.FirstChannel + i
			if m.slotChannel[slot] != -1 {
				return nil, fmt.Errorf("channel map %s: slot %d used twice", name, slot)
			}
			if wired[channel] {
				return nil, fmt.Errorf("channel map %s: channel %d read by two slots", name, channel)
			}
			m.slotChannel[slot] = channel
			wired[channel] = true
		}
		m.ranges = append(m.ranges, ChannelRange{First: seg.FirstChannel, Last: seg.FirstChannel + seg.Count - 1})
	}
	sort.Slice(m.ranges, func(i, j int) bool {
		return m.ranges[i].First < m.ranges[j].First
	})

	used := make(map[SensorID]int)
	for channel, sensor := range sensors {
		if !wired[channel] {
			return nil, fmt.Errorf("channel map %s: channel %d is not read by any slot", name, channel)
		}
		if sensor == Disconnected {
			m.sensors[channel] = sensor
			continue
		}
		if sensor < 0 || sensor >= NSensors {
			return nil, fmt.Errorf("channel map %s: channel %d: %w: %d", name, channel, ErrSensorIDOutOfRange, sensor)
		}
		if other, ok := used[sensor]; ok {
			return nil, fmt.Errorf("channel map %s: sensor %d on channels %d and %d", name, sensor, other, channel)
		}
		used[sensor] = channel
		m.sensors[channel] = sensor
	}
	for channel := range wired {
		if _, ok := m.sensors[channel]; !ok {
			return nil, fmt.Errorf("channel map %s: channel %d has neither a sensor nor a disconnected flag", name, channel)
		}
	}
	return m, nil
}

func (m *ChannelMap) Name() string {
	return m.name
}

// Sensor returns the sensor read by a hardware channel, Disconnected for
// wired channels without a sensor and Unmapped for anything else.
func (m *ChannelMap) Sensor(channel int) SensorID {
	if sensor, ok := m.sensors[channel]; ok {
		return sensor
	}
	return Unmapped
}

// SlotChannel returns the hardware channel read into an event slot, or -1.
func (m *ChannelMap) SlotChannel(slot int) int {
	if slot < 0 || slot >= NChannelSlots {
		return -1
	}
	return m.slotChannel[slot]
}

func (m *ChannelMap) SlotSensor(slot int) SensorID {
	channel := m.SlotChannel(slot)
	if channel < 0 {
		return Unmapped
	}
	return m.Sensor(channel)
}

func (m *ChannelMap) Ranges() []ChannelRange {
	return append([]ChannelRange(nil), m.ranges...)
}

// Slots returns the slot layout the map was built with.
func (m *ChannelMap) Slots() []SlotSegment {
	var segments []SlotSegment
	for slot := 0; slot < NChannelSlots; slot++ {
		channel := m.slotChannel[slot]
		if channel < 0 {
			continue
		}
		n := len(segments)
		if n > 0 {
			last := &segments[n-1]
			if last.FirstSlot+last.Count == slot && last.FirstChannel+last.Count == channel {
				last.Count++
				continue
			}
		}
		segments = append(segments, SlotSegment{FirstSlot: slot, FirstChannel: channel, Count: 1})
	}
	return segments
}

// Entries lists the channel to sensor associations sorted by channel, with
// disconnected channels as SensorID -1.
func (m *ChannelMap) Entries() []ChannelMappingEntry {
	entries := make([]ChannelMappingEntry, 0, len(m.sensors))
	for channel, sensor := range m.sensors {
		id := int(sensor)
		if sensor == Disconnected {
			id = -1
		}
		entries = append(entries, ChannelMappingEntry{ElecID: channel, SensorID: id})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ElecID < entries[j].ElecID
	})
	return entries
}
