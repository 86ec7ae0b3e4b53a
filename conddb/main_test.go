package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/dchooz/idivc_go/internal/logging"
	idivc "github.com/dchooz/idivc_go/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/hbook"
)

func writeTimingFile(t *testing.T, path string, pts ...hbook.Point2D) {
	t.Helper()
	f, err := groot.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Put(idivc.DefaultCalibrationSet, rhist.NewGraphErrorsFrom(hbook.NewS2D(pts...))))
	require.NoError(t, f.Close())
}

func TestUsageErrors(t *testing.T) {
	assert.ErrorIs(t, run(nil), errUsage)
	assert.ErrorIs(t, run([]string{"-dsn", "x.db"}), errUsage)
	assert.ErrorIs(t, run([]string{"-dsn", filepath.Join(t.TempDir(), "x.db"), "drop"}), errUsage)
}

func TestMigrateAndImportChannelMap(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "conditions.db")
	require.NoError(t, run([]string{"-dsn", dsn, "migrate"}))
	require.NoError(t, run([]string{"-dsn", dsn, "import-channelmap", "-min-run", "10", "-max-run", "20"}))

	db, err := idivc.OpenConditions(idivc.DriverSQLite, dsn)
	require.NoError(t, err)
	defer db.Close()

	base, err := idivc.ChannelMapForRevision(idivc.DefaultRevision)
	require.NoError(t, err)
	chmap, err := db.LoadChannelMap(base.Slots(), 15)
	require.NoError(t, err)
	assert.Equal(t, base.Entries(), chmap.Entries())
}

func TestImportCalibrationNeedsFile(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "conditions.db")
	require.NoError(t, run([]string{"-dsn", dsn, "migrate"}))
	assert.ErrorIs(t, run([]string{"-dsn", dsn, "import-calibration"}), errUsage)

	err := run([]string{"-dsn", dsn, "import-calibration", "-t", filepath.Join(t.TempDir(), "missing.root")})
	assert.ErrorIs(t, err, idivc.ErrInvalidSource)
}

func TestImportCalibrationStoresEveryRow(t *testing.T) {
	dir := t.TempDir()
	dsn := filepath.Join(dir, "conditions.db")
	timing := filepath.Join(dir, "timing.root")
	writeTimingFile(t, timing,
		hbook.Point2D{X: 1, Y: 2.5, ErrY: hbook.Range{Min: 0.2, Max: 0.2}},
		hbook.Point2D{X: 2, Y: 0, ErrY: hbook.Range{Min: 0.2, Max: 0.2}},
		hbook.Point2D{X: 3, Y: 1.0, ErrY: hbook.Range{Min: 1.5, Max: 1.5}},
	)
	require.NoError(t, run([]string{"-dsn", dsn, "migrate"}))
	require.NoError(t, run([]string{"-dsn", dsn, "import-calibration", "-t", timing, "-tag", "caliter01", "-min-run", "1", "-max-run", "9"}))

	db, err := idivc.OpenConditions(idivc.DriverSQLite, dsn)
	require.NoError(t, err)
	defer db.Close()

	var rows int
	require.NoError(t, db.Get(&rows, "SELECT COUNT(*) FROM T0Calibration WHERE Tag = ?", "caliter01"))
	assert.Equal(t, 3, rows)

	table, err := db.LoadCalibration("caliter01", 5)
	require.NoError(t, err)
	assert.Equal(t, 2.5, table.Offset(1))
	assert.False(t, table.Calibrated(2))
	assert.False(t, table.Calibrated(3))
	assert.Equal(t, 1, table.Stats.Accepted)
}

func TestLogsUseModuleFormat(t *testing.T) {
	var out, errOut bytes.Buffer
	saved := logger
	logger = logging.NewLogger(&out, &errOut)
	t.Cleanup(func() { logger = saved })

	dsn := filepath.Join(t.TempDir(), "conditions.db")
	require.NoError(t, run([]string{"-dsn", dsn, "migrate"}))
	assert.Regexp(t, `\] \[conddb\] Schema at version 2 \(dirty: false\)`, out.String())
}
