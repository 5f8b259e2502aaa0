package config

import (
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/thoreinstein/sbackup/internal/errors"
	"github.com/thoreinstein/sbackup/internal/logging"
	"github.com/thoreinstein/sbackup/internal/paths"
)

// EnvPrefix is prepended to every environment override, e.g. SBACKUP_LOG_FILE.
const EnvPrefix = "SBACKUP"

// Setting keys. Flags use the same names with dashes.
const (
	KeyConfig    = "config"
	KeyLogFile   = "log_file"
	KeyLogFormat = "log_format"
	KeyVerbose   = "verbose"
	KeyQuiet     = "quiet"
	KeyParallel  = "parallel"
	KeyReport    = "report"
	KeyStrict    = "strict"
)

// DefaultLogFile is the persistent log written next to the working directory.
const DefaultLogFile = "./log.txt"

// Settings are the resolved tool settings for one invocation.
type Settings struct {
	Config    string `mapstructure:"config"`
	LogFile   string `mapstructure:"log_file"`
	LogFormat string `mapstructure:"log_format"`
	Verbose   bool   `mapstructure:"verbose"`
	Quiet     bool   `mapstructure:"quiet"`
	Parallel  int    `mapstructure:"parallel"`
	Report    string `mapstructure:"report"`
	Strict    bool   `mapstructure:"strict"`

	// ConfigFound is false when no config file was found and Config holds
	// the fallback path.
	ConfigFound bool `mapstructure:"-"`
}

// New returns a Viper instance with defaults and environment overrides set.
func New() *viper.Viper {
	v := viper.New()

	v.SetConfigName("settings")
	v.AddConfigPath(".")
	v.AddConfigPath(paths.AppConfigDir())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	v.SetDefault(KeyLogFile, DefaultLogFile)
	v.SetDefault(KeyLogFormat, string(logging.FormatText))
	v.SetDefault(KeyParallel, 1)

	return v
}

// BindFlags binds every flag in fs whose name matches a setting key.
// Flag names use dashes, keys use underscores.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var bindErr error
	fs.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if !isKey(key) || bindErr != nil {
			return
		}
		if err := v.BindPFlag(key, f); err != nil {
			bindErr = errors.Wrapf(err, "binding flag --%s", f.Name)
		}
	})
	return bindErr
}

var keys = []string{KeyConfig, KeyLogFile, KeyLogFormat, KeyVerbose, KeyQuiet, KeyParallel, KeyReport, KeyStrict}

func isKey(key string) bool {
	return slices.Contains(keys, key)
}

// Load resolves the settings. An optional settings file (settings.yaml,
// settings.json or settings.toml in the working directory or the user config
// directory) supplies defaults below flags and environment variables.
func Load(v *viper.Viper) (*Settings, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.NewUserError(
				errors.Wrap(err, "reading settings file"),
				"Fix or remove "+v.ConfigFileUsed(),
			)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, errors.Wrap(err, "unmarshaling settings")
	}

	if s.Config == "" {
		s.Config, s.ConfigFound = paths.FindConfig()
	} else {
		expanded, err := paths.Expand(s.Config)
		if err != nil {
			return nil, err
		}
		s.Config = filepath.Clean(expanded)
		s.ConfigFound = true
	}

	if s.LogFile != "" {
		expanded, err := paths.Expand(s.LogFile)
		if err != nil {
			return nil, err
		}
		s.LogFile = expanded
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks settings that cannot be enforced by flag types alone.
func (s *Settings) Validate() error {
	if s.Verbose && s.Quiet {
		return errors.NewUserError(
			errors.New("cannot use --quiet and --verbose together"),
			"Pick one of --quiet or --verbose",
		)
	}
	if s.Parallel < 1 {
		return errors.NewUserError(
			errors.Newf("parallel must be at least 1, got %d", s.Parallel),
			"Use --parallel 1 for one item at a time",
		)
	}
	switch logging.Format(s.LogFormat) {
	case logging.FormatText, logging.FormatJSON:
	default:
		return errors.NewUserError(
			errors.Newf("unknown log format %q", s.LogFormat),
			"Use --log-format text or --log-format json",
		)
	}
	return nil
}

// Level returns the log level selected by the verbosity switches.
func (s *Settings) Level() slog.Level {
	return logging.LevelFromFlags(s.Verbose, s.Quiet)
}
