package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/dchooz/idivc_go/internal/logging"
	idivc "github.com/dchooz/idivc_go/pkg"
)

var logger logging.Logger

var errUsage = errors.New("usage error")

func init() {
	logger = logging.NewLogger(os.Stdout, os.Stderr)
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: conddb -driver sqlite|mysql -dsn DSN <command> [flags]")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  migrate              create or upgrade the conditions tables")
	fmt.Fprintln(w, "  import-calibration   copy a T0 graph from a ROOT file into the database")
	fmt.Fprintln(w, "  import-channelmap    copy a built-in channel map revision into the database")
}

func main() {
	idivc.SetLogger(logger)
	if err := run(os.Args[1:]); err != nil {
		logger.Error(err.Error())
		if errors.Is(err, errUsage) {
			usage(os.Stderr)
		}
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("conddb", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	driver := fs.String("driver", idivc.DriverSQLite, "Database driver: sqlite or mysql")
	dsn := fs.String("dsn", "", "Data source name")
	verbosity := fs.Int("v", 0, "Verbosity level")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if *dsn == "" {
		return fmt.Errorf("%w: must give a data source name with -dsn", errUsage)
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("%w: missing command", errUsage)
	}
	idivc.SetVerbosity(*verbosity)

	command, rest := fs.Arg(0), fs.Args()[1:]
	var commandFn func(*idivc.ConditionsDB, []string) error
	switch command {
	case "migrate":
		commandFn = migrateCommand
	case "import-calibration":
		commandFn = importCalibration
	case "import-channelmap":
		commandFn = importChannelMap
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}

	db, err := idivc.OpenConditions(*driver, *dsn)
	if err != nil {
		return fmt.Errorf("Error connecting to database: %w", err)
	}
	defer db.Close()
	return commandFn(db, rest)
}

func migrateCommand(db *idivc.ConditionsDB, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: migrate takes no arguments", errUsage)
	}
	if err := db.MigrateUp(); err != nil {
		return fmt.Errorf("Error migrating database: %w", err)
	}
	version, dirty, err := db.MigrateVersion()
	if err != nil {
		return err
	}
	logger.Info(fmt.Sprintf("Schema at version %d (dirty: %t)", version, dirty), "conddb")
	return nil
}

func runRange(fs *flag.FlagSet) (*int, *int) {
	minRun := fs.Int("min-run", 0, "First run the entries are valid for")
	maxRun := fs.Int("max-run", math.MaxInt32, "Last run the entries are valid for")
	return minRun, maxRun
}

func importCalibration(db *idivc.ConditionsDB, args []string) error {
	fs := flag.NewFlagSet("import-calibration", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	file := fs.String("t", "", "Timing calibration ROOT file")
	set := fs.String("set", idivc.DefaultCalibrationSet, "Name of the graph in the timing file")
	tag := fs.String("tag", "", "Tag stored in the database (default: the graph name)")
	minRun, maxRun := runRange(fs)
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if *file == "" {
		return fmt.Errorf("%w: must give timing file with -t", errUsage)
	}
	if *tag == "" {
		*tag = *set
	}

	points, err := idivc.ReadCalibrationPointsROOT(*file, *set)
	if err != nil {
		return err
	}
	// Every row is stored and the acceptance policy runs again on load. A bad
	// sensor id stops the import.
	table, err := idivc.BuildCalibrationTable(*file+":"+*set, points)
	if err != nil {
		return err
	}
	table.LogSummary()

	if err := db.InsertCalibration(*tag, *minRun, *maxRun, points); err != nil {
		return err
	}
	logger.Info(fmt.Sprintf("Imported %d rows as %s for runs %d-%d", len(points), *tag, *minRun, *maxRun), "conddb")
	return nil
}

func importChannelMap(db *idivc.ConditionsDB, args []string) error {
	fs := flag.NewFlagSet("import-channelmap", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	revision := fs.String("revision", idivc.DefaultRevision, "Built-in channel map revision")
	minRun, maxRun := runRange(fs)
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	chmap, err := idivc.ChannelMapForRevision(*revision)
	if err != nil {
		return err
	}
	entries := chmap.Entries()
	if err := db.InsertChannelMapping(*minRun, *maxRun, entries); err != nil {
		return err
	}
	logger.Info(fmt.Sprintf("Imported %d channels of %s for runs %d-%d", len(entries), chmap.Name(), *minRun, *maxRun), "conddb")
	return nil
}
