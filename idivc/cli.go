package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	idivc "github.com/dchooz/idivc_go/pkg"
)

var errUsage = errors.New("usage error")

type cliOptions struct {
	configFile string
	output     string
	timing     string
	maxEvents  string
	clobber    bool
	help       bool
	verbosity  int
	format     string
	metrics    string
	run        int
	inputs     []string
	set        map[string]bool
}

func newFlagSet(opts *cliOptions) *flag.FlagSet {
	fs := flag.NewFlagSet("idivc", flag.ContinueOnError)
	fs.StringVar(&opts.configFile, "config", "", "Configuration file path")
	fs.StringVar(&opts.output, "o", "", "Output file")
	fs.StringVar(&opts.timing, "t", "", "Timing calibration file")
	fs.StringVar(&opts.maxEvents, "n", "", "Maximum number of events to process")
	fs.BoolVar(&opts.clobber, "c", false, "Overwrite existing output file")
	fs.BoolVar(&opts.help, "h", false, "Print this help")
	fs.IntVar(&opts.verbosity, "v", 0, "Verbosity level")
	fs.StringVar(&opts.format, "format", "", "Output format: root or hdf5 (default: from output file name)")
	fs.StringVar(&opts.metrics, "metrics", "", "Write Prometheus metrics to this textfile")
	fs.IntVar(&opts.run, "run", 0, "Run number used to query the conditions database")
	return fs
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: idivc -o out.root -t timing.root [options] base1.root [base2.root ...]")
	fmt.Fprintln(w, "Corrects ID and IV hit times with a T0 calibration and writes, per event,")
	fmt.Fprintln(w, "the earliest corrected time and its PMT for each detector region.")
	fmt.Fprintln(w)
	fs := newFlagSet(&cliOptions{})
	fs.SetOutput(w)
	fs.PrintDefaults()
}

func parseArgs(args []string) (*cliOptions, error) {
	opts := &cliOptions{set: make(map[string]bool)}
	fs := newFlagSet(opts)
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	fs.Visit(func(f *flag.Flag) {
		opts.set[f.Name] = true
	})
	opts.inputs = fs.Args()
	return opts, nil
}

// apply overrides config with the flags given on the command line.
func (o *cliOptions) apply(config *idivc.Configuration) error {
	if o.set["o"] {
		config.OutputFile = o.output
	}
	if o.set["t"] {
		config.CalibrationFile = o.timing
	}
	if o.set["n"] {
		n, err := strconv.ParseInt(o.maxEvents, 10, 64)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s (given with -n) isn't a number I can handle", errUsage, o.maxEvents)
		}
		config.MaxEvents = n
	}
	if o.set["c"] {
		config.Clobber = o.clobber
	}
	if o.set["v"] {
		config.Verbosity = o.verbosity
	}
	if o.set["format"] {
		config.OutputFormat = o.format
	}
	if o.set["metrics"] {
		config.MetricsFile = o.metrics
	}
	if o.set["run"] {
		config.Run = o.run
	}
	if len(o.inputs) > 0 {
		config.InputFiles = o.inputs
	}
	return nil
}

func validateConfiguration(config idivc.Configuration) error {
	if config.OutputFile == "" {
		return fmt.Errorf("%w: must give output file with -o", errUsage)
	}
	if config.CalibrationFile == "" && !config.CalibrationFromDB {
		return fmt.Errorf("%w: must give timing file with -t", errUsage)
	}
	if len(config.InputFiles) == 0 {
		return fmt.Errorf("%w: must give at least one input file", errUsage)
	}
	if config.MaxEvents < 0 {
		return fmt.Errorf("%w: %d max events isn't a number I can handle", errUsage, config.MaxEvents)
	}
	for _, name := range config.InputFiles {
		if err := checkInputName(name); err != nil {
			return err
		}
	}
	switch config.Format() {
	case idivc.FormatROOT, idivc.FormatHDF5:
	default:
		return fmt.Errorf("%w: unknown output format %q", errUsage, config.OutputFormat)
	}
	return nil
}

// checkInputName accepts reconstruction "base" files only.
func checkInputName(name string) error {
	base := filepath.Base(name)
	if !strings.Contains(base, "base") || !strings.HasSuffix(base, ".root") {
		return fmt.Errorf("%w: %s doesn't look like a base ROOT file", errUsage, name)
	}
	return nil
}
