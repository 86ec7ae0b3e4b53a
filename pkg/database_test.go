package idivc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestConditions(t *testing.T) *ConditionsDB {
	t.Helper()
	db, err := OpenConditions(DriverSQLite, tempPath(t, "conditions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.MigrateUp())
	return db
}

func TestMigrations(t *testing.T) {
	db := openTestConditions(t)
	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	// Running them again is a no-op
	require.NoError(t, db.MigrateUp())
}

func TestOpenConditionsUnknownDriver(t *testing.T) {
	_, err := OpenConditions("postgres", "whatever")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestConditionsCalibration(t *testing.T) {
	db := openTestConditions(t)
	points := []CalibrationPoint{
		{Sensor: 1, Value: 2.5, Error: 0.2},
		{Sensor: 2, Value: 0, Error: 0.2},
		{Sensor: 3, Value: 1.0, Error: 1.5},
	}
	require.NoError(t, db.InsertCalibration("caliter01", 100, 200, points))
	require.NoError(t, db.InsertCalibration("caliter01", 201, 300, []CalibrationPoint{{Sensor: 1, Value: 9.0, Error: 0.2}}))

	table, err := db.LoadCalibration("caliter01", 150)
	require.NoError(t, err)
	assert.Equal(t, 2.5, table.Offset(1))
	assert.False(t, table.Calibrated(2))
	assert.False(t, table.Calibrated(3))
	assert.Equal(t, 3, table.Stats.Rows)
	assert.Equal(t, "sqlite:caliter01@150", table.Source)

	table, err = db.LoadCalibration("caliter01", 250)
	require.NoError(t, err)
	assert.Equal(t, 9.0, table.Offset(1))

	_, err = db.LoadCalibration("caliter01", 50)
	assert.ErrorIs(t, err, ErrMissingCalibrationSet)
	_, err = db.LoadCalibration("caliter02", 150)
	assert.ErrorIs(t, err, ErrMissingCalibrationSet)
}

func TestConditionsChannelMap(t *testing.T) {
	db := openTestConditions(t)
	chmap := defaultChannelMap(t)
	require.NoError(t, db.InsertChannelMapping(1, 1000, chmap.Entries()))

	loaded, err := db.LoadChannelMap(chmap.Slots(), 500)
	require.NoError(t, err)
	assert.Equal(t, "db@500", loaded.Name())
	for slot := 0; slot < NChannelSlots; slot++ {
		require.Equal(t, chmap.SlotSensor(slot), loaded.SlotSensor(slot), "slot %d", slot)
	}

	_, err = db.LoadChannelMap(chmap.Slots(), 2000)
	assert.ErrorIs(t, err, ErrUnknownRevision)
}
