package idivc

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// ConditionsDB gives access to the run-ranged channel mapping and T0
// calibration tables.
type ConditionsDB struct {
	*sqlx.DB
	Driver string
}

func OpenConditions(driver string, dsn string) (*ConditionsDB, error) {
	switch driver {
	case DriverMySQL, DriverSQLite:
	default:
		return nil, fmt.Errorf("%w: database driver %q", ErrUnsupportedFormat, driver)
	}
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("error connecting to %s database: %w", driver, err)
	}
	return &ConditionsDB{DB: db, Driver: driver}, nil
}

type T0Entry struct {
	SensorID int     `db:"SensorID"`
	T0       float64 `db:"T0"`
	T0Error  float64 `db:"T0Error"`
}

// LoadCalibration reads the calibration set tag valid for run and applies
// the same acceptance policy as the file loaders.
func (db *ConditionsDB) LoadCalibration(tag string, run int) (*CalibrationTable, error) {
	query := "SELECT SensorID, T0, T0Error FROM T0Calibration WHERE Tag = ? AND MinRun <= ? AND MaxRun >= ? ORDER BY SensorID"
	if verbosity > 0 {
		logger.Info(fmt.Sprintf("Reading calibration %s for run %d from database", tag, run), "database")
	}
	if verbosity > 2 {
		logger.Info(fmt.Sprintf("Query: %s", query), "database")
	}

	var rows []T0Entry
	if err := db.Select(&rows, db.Rebind(query), tag, run, run); err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no %s rows for run %d", ErrMissingCalibrationSet, tag, run)
	}

	points := make([]CalibrationPoint, len(rows))
	for i, row := range rows {
		points[i] = CalibrationPoint{Sensor: float64(row.SensorID), Value: row.T0, Error: row.T0Error}
	}
	return BuildCalibrationTable(fmt.Sprintf("%s:%s@%d", db.Driver, tag, run), points)
}

// LoadChannelMap reads the channel mapping valid for run. The slot layout
// comes from the hardware revision.
func (db *ConditionsDB) LoadChannelMap(slots []SlotSegment, run int) (*ChannelMap, error) {
	query := "SELECT ElecID, SensorID FROM ChannelMapping WHERE MinRun <= ? AND MaxRun >= ? ORDER BY ElecID"
	if verbosity > 0 {
		logger.Info(fmt.Sprintf("Channel mapping for run %d read from DB", run), "database")
	}
	if verbosity > 2 {
		logger.Info(fmt.Sprintf("Query: %s", query), "database")
	}

	var entries []ChannelMappingEntry
	if err := db.Select(&entries, db.Rebind(query), run, run); err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no channel mapping for run %d", ErrUnknownRevision, run)
	}
	return NewChannelMapFromEntries(fmt.Sprintf("db@%d", run), slots, entries)
}

func (db *ConditionsDB) InsertCalibration(tag string, minRun int, maxRun int, points []CalibrationPoint) error {
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	query := db.Rebind("INSERT INTO T0Calibration (Tag, SensorID, T0, T0Error, MinRun, MaxRun) VALUES (?, ?, ?, ?, ?, ?)")
	for _, p := range points {
		if _, err := tx.Exec(query, tag, int(p.Sensor), p.Value, p.Error, minRun, maxRun); err != nil {
			tx.Rollback()
			return fmt.Errorf("error inserting calibration of sensor %v: %w", p.Sensor, err)
		}
	}
	return tx.Commit()
}

func (db *ConditionsDB) InsertChannelMapping(minRun int, maxRun int, entries []ChannelMappingEntry) error {
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	query := db.Rebind("INSERT INTO ChannelMapping (ElecID, SensorID, MinRun, MaxRun) VALUES (?, ?, ?, ?)")
	for _, e := range entries {
		if _, err := tx.Exec(query, e.ElecID, e.SensorID, minRun, maxRun); err != nil {
			tx.Rollback()
			return fmt.Errorf("error inserting mapping of channel %d: %w", e.ElecID, err)
		}
	}
	return tx.Commit()
}
