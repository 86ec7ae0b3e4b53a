package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dchooz/idivc_go/internal/logging"
	idivc "github.com/dchooz/idivc_go/pkg"
	"github.com/google/uuid"
)

var logger logging.Logger

func init() {
	logger = logging.NewLogger(os.Stdout, os.Stderr)
}

func main() {
	installFastExit()
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
	opts, err := parseArgs(args)
	if err != nil {
		return err
	}
	if opts.help {
		usage(os.Stdout)
		return nil
	}

	config, err := idivc.LoadConfiguration(opts.configFile)
	if err != nil {
		return fmt.Errorf("Error reading configuration file: %w", err)
	}
	if err := opts.apply(&config); err != nil {
		return err
	}
	if err := validateConfiguration(config); err != nil {
		return err
	}

	idivc.SetVerbosity(config.Verbosity)
	if config.Verbosity > 0 {
		if opts.configFile != "" {
			logger.Info(fmt.Sprintf("Reading configuration file: %s", opts.configFile), "main")
		}
		printConfiguration(config, logger)
	}
	return correct(config)
}

func correct(config idivc.Configuration) error {
	var db *idivc.ConditionsDB
	if config.CalibrationFromDB || config.ChannelMapFromDB {
		var err error
		db, err = idivc.OpenConditions(config.DBDriver, config.DBDSN)
		if err != nil {
			return fmt.Errorf("Error connecting to conditions database: %w", err)
		}
		defer db.Close()
	}

	chmap, err := loadChannelMap(config, db)
	if err != nil {
		return err
	}
	table, err := loadCalibration(config, db)
	if err != nil {
		return err
	}
	table.LogSummary()

	metrics := idivc.NewMetrics()
	metrics.ObserveCalibration(table.Stats)

	reader, err := idivc.OpenROOTInputs(config.InputFiles, config.InputLayout())
	if err != nil {
		return err
	}
	defer reader.Close()

	nEvents := idivc.EventsToProcess(reader.Entries(), config.MaxEvents)
	if config.MaxEvents > 0 && reader.Entries() < config.MaxEvents {
		logger.Info(fmt.Sprintf("Asked for %d events, but only %d are available", config.MaxEvents, reader.Entries()), "main")
	}

	prov := idivc.Provenance{
		ProcessingID: uuid.NewString(),
		Calibration:  table.Source,
		ChannelMap:   chmap.Name(),
		InputFiles:   len(config.InputFiles),
	}
	sink, err := idivc.CreateSink(config.Format(), config.OutputFile, config.Clobber, prov, config.CompressionLevel)
	if err != nil {
		return err
	}

	processor := &idivc.Processor{
		Reader:  reader,
		Engine:  idivc.NewEngine(chmap, table),
		Sink:    sink,
		Metrics: metrics,
	}
	_, runErr := processor.Run(nEvents)
	if err := processor.Finish(runErr); err != nil {
		return fmt.Errorf("Error writing %s: %w", config.OutputFile, err)
	}
	logger.Info(fmt.Sprintf("Wrote %d events to %s (processing id %s)", sink.Written(), config.OutputFile, prov.ProcessingID), "main")

	if config.MetricsFile != "" {
		if err := metrics.WriteTextfile(config.MetricsFile); err != nil {
			return fmt.Errorf("Error writing metrics: %w", err)
		}
	}
	return nil
}

func loadChannelMap(config idivc.Configuration, db *idivc.ConditionsDB) (*idivc.ChannelMap, error) {
	chmap, err := idivc.ChannelMapForRevision(config.ChannelMapRevision)
	if err != nil {
		return nil, err
	}
	if config.ChannelMapFromDB {
		chmap, err = db.LoadChannelMap(chmap.Slots(), config.Run)
		if err != nil {
			return nil, err
		}
	}
	if config.Verbosity > 1 {
		for _, r := range chmap.Ranges() {
			logger.Info(fmt.Sprintf("Channel map %s: channels %d-%d", chmap.Name(), r.First, r.Last), "main")
		}
	}
	return chmap, nil
}

func loadCalibration(config idivc.Configuration, db *idivc.ConditionsDB) (*idivc.CalibrationTable, error) {
	if config.CalibrationFromDB {
		return db.LoadCalibration(config.CalibrationSet, config.Run)
	}
	return idivc.LoadCalibration(config.CalibrationFile, config.CalibrationSet)
}
