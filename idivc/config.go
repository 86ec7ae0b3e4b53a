package main

import (
	"fmt"
	"strings"

	"github.com/dchooz/idivc_go/internal/logging"
	idivc "github.com/dchooz/idivc_go/pkg"
)

func printConfiguration(config idivc.Configuration, logger logging.Logger) {
	logger.Info(fmt.Sprintf("Input files: %s", strings.Join(config.InputFiles, ", ")), "config")
	logger.Info(fmt.Sprintf("File out: %s", config.OutputFile), "config")
	logger.Info(fmt.Sprintf("Output format: %s", config.Format()), "config")
	logger.Info(fmt.Sprintf("Overwrite output: %t", config.Clobber), "config")
	logger.Info(fmt.Sprintf("Compression level: %d", config.CompressionLevel), "config")
	logger.Info(fmt.Sprintf("Calibration file: %s", config.CalibrationFile), "config")
	logger.Info(fmt.Sprintf("Calibration set: %s", config.CalibrationSet), "config")
	logger.Info(fmt.Sprintf("Calibration from DB: %t", config.CalibrationFromDB), "config")
	logger.Info(fmt.Sprintf("Channel map revision: %s", config.ChannelMapRevision), "config")
	logger.Info(fmt.Sprintf("Channel map from DB: %t", config.ChannelMapFromDB), "config")
	logger.Info(fmt.Sprintf("Max events: %d", config.MaxEvents), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
	logger.Info(fmt.Sprintf("Hit tree: %s", config.HitTree), "config")
	logger.Info(fmt.Sprintf("Start time branch: %s", config.StartTimeBranch), "config")
	logger.Info(fmt.Sprintf("Sensor id branch: %s", config.SensorIDBranch), "config")
	logger.Info(fmt.Sprintf("Reco tree: %s", config.RecoTree), "config")
	logger.Info(fmt.Sprintf("Metrics file: %s", config.MetricsFile), "config")
	if config.CalibrationFromDB || config.ChannelMapFromDB {
		logger.Info(fmt.Sprintf("DB driver: %s", config.DBDriver), "config")
		logger.Info(fmt.Sprintf("Run: %d", config.Run), "config")
	}
}
