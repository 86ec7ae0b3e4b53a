package idivc

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of the environment variables read by
// LoadConfiguration, e.g. IDIVC_MAX_EVENTS.
const EnvPrefix = "IDIVC_"

type Configuration struct {
	OutputFile         string   `koanf:"output_file"`
	OutputFormat       string   `koanf:"output_format"`
	Clobber            bool     `koanf:"clobber"`
	CompressionLevel   int      `koanf:"compression_level"`
	CalibrationFile    string   `koanf:"calibration_file"`
	CalibrationSet     string   `koanf:"calibration_set"`
	CalibrationFromDB  bool     `koanf:"calibration_from_db"`
	ChannelMapRevision string   `koanf:"channel_map_revision"`
	ChannelMapFromDB   bool     `koanf:"channel_map_from_db"`
	MaxEvents          int64    `koanf:"max_events"`
	Verbosity          int      `koanf:"verbosity"`
	HitTree            string   `koanf:"hit_tree"`
	StartTimeBranch    string   `koanf:"start_time_branch"`
	SensorIDBranch     string   `koanf:"sensor_id_branch"`
	RecoTree           string   `koanf:"reco_tree"`
	MetricsFile        string   `koanf:"metrics_file"`
	DBDriver           string   `koanf:"db_driver"`
	DBDSN              string   `koanf:"db_dsn"`
	Run                int      `koanf:"run"`
	InputFiles         []string `koanf:"input_files"`
}

func DefaultConfiguration() Configuration {
	layout := DefaultInputLayout()
	return Configuration{
		OutputFormat:       "",
		Clobber:            false,
		CompressionLevel:   9,
		CalibrationSet:     DefaultCalibrationSet,
		ChannelMapRevision: DefaultRevision,
		MaxEvents:          0,
		Verbosity:          0,
		HitTree:            layout.HitTree,
		StartTimeBranch:    layout.StartTimeBranch,
		SensorIDBranch:     layout.SensorIDBranch,
		RecoTree:           layout.RecoTree,
		DBDriver:           DriverSQLite,
	}
}

// LoadConfiguration layers, from low to high precedence, the defaults, the
// YAML file filename (if not empty) and the IDIVC_* environment variables.
func LoadConfiguration(filename string) (Configuration, error) {
	config := DefaultConfiguration()
	k := koanf.New(".")

	if filename != "" {
		if err := k.Load(file.Provider(filename), yaml.Parser()); err != nil {
			return config, &ErrOpenFile{Filename: filename, Err: err}
		}
	}

	// IDIVC_MAX_EVENTS -> max_events
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return config, fmt.Errorf("error reading environment: %w", err)
	}

	if err := k.UnmarshalWithConf("", &config, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return config, fmt.Errorf("error decoding configuration: %w", err)
	}
	return config, nil
}

func (c Configuration) InputLayout() InputLayout {
	return InputLayout{
		HitTree:         c.HitTree,
		StartTimeBranch: c.StartTimeBranch,
		SensorIDBranch:  c.SensorIDBranch,
		RecoTree:        c.RecoTree,
	}
}

// Format returns the output format, guessed from the output file name when
// not set explicitly.
func (c Configuration) Format() string {
	if c.OutputFormat != "" {
		return strings.ToLower(c.OutputFormat)
	}
	return FormatFromPath(c.OutputFile)
}
