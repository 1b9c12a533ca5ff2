package config

import (
	"os"
	"strings"
	"time"

	"codeberg.org/mutker/freezewatch/internal/errors"
	"codeberg.org/mutker/freezewatch/internal/journal"
	"codeberg.org/mutker/freezewatch/internal/watchdog"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix         = "FREEZEWATCH"
	defaultConfigFile = "/etc/freezewatch.toml"
	DefaultLogLevel   = LogLevelInfo

	defaultWorkloadInterval = 50 * time.Millisecond
	defaultStallEvery       = 40
	defaultStallDuration    = 700 * time.Millisecond
)

type Config struct {
	// ConfigFile is the file that was read, empty if none.
	ConfigFile string
	LogLevel   LogLevel
	Watchdog   watchdog.Config
	// Whitelist holds regular expressions for task descriptions whose
	// events are not delivered.
	Whitelist []string
	Journal   journal.Config
	Workload  Workload
}

// flagKeys maps command line flags to configuration keys
var flagKeys = map[string]string{
	"log-level":         "log_level",
	"anr-threshold":     "anr_threshold",
	"jank-threshold":    "jank_threshold",
	"jank-detection":    "jank_detection",
	"polling-interval":  "polling_interval",
	"whitelist":         "whitelist",
	"journal":           "journal.enabled",
	"journal-path":      "journal.path",
	"workload-interval": "workload.interval",
	"stall-every":       "workload.stall_every",
	"stall-duration":    "workload.stall_duration",
}

func newFlagSet() *pflag.FlagSet {
	wd := watchdog.DefaultConfig()
	jc := journal.DefaultConfig()

	fs := pflag.NewFlagSet("freezewatch", pflag.ContinueOnError)
	fs.String("config", "", "Path to configuration file")
	fs.String("log-level", DefaultLogLevel.String(), "Log level (debug, info, warning, error)")
	fs.Duration("anr-threshold", wd.ANRThreshold, "Stall length reported as ANR")
	fs.Duration("jank-threshold", wd.JankThreshold, "Stall length reported as jank")
	fs.Bool("jank-detection", wd.JankDetection, "Report jank events")
	fs.Duration("polling-interval", wd.PollingInterval, "Heartbeat interval")
	fs.StringSlice("whitelist", nil, "Regular expressions for tasks that are never reported")
	fs.Bool("journal", jc.Enabled, "Record events in the journal database")
	fs.String("journal-path", jc.DBPath, "Path to the journal database")
	fs.Duration("workload-interval", defaultWorkloadInterval, "Interval between synthetic tasks")
	fs.Int("stall-every", defaultStallEvery, "Every Nth synthetic task stalls the loop (0 disables)")
	fs.Duration("stall-duration", defaultStallDuration, "How long a stalling task blocks")

	return fs
}

func setDefaults(v *viper.Viper) {
	wd := watchdog.DefaultConfig()
	jc := journal.DefaultConfig()

	v.SetDefault("log_level", DefaultLogLevel.String())
	v.SetDefault("anr_threshold", wd.ANRThreshold)
	v.SetDefault("jank_threshold", wd.JankThreshold)
	v.SetDefault("jank_detection", wd.JankDetection)
	v.SetDefault("polling_interval", wd.PollingInterval)
	v.SetDefault("infrastructure_prefixes", wd.InfrastructurePrefixes)
	v.SetDefault("whitelist", []string{})
	v.SetDefault("journal.enabled", jc.Enabled)
	v.SetDefault("journal.path", jc.DBPath)
	v.SetDefault("journal.backup_dir", "")
	v.SetDefault("journal.batch_size", jc.BatchSize)
	v.SetDefault("journal.batch_timeout", jc.BatchTimeout)
	v.SetDefault("workload.interval", defaultWorkloadInterval)
	v.SetDefault("workload.stall_every", defaultStallEvery)
	v.SetDefault("workload.stall_duration", defaultStallDuration)
}

// Load reads the configuration file, FREEZEWATCH_* environment variables and
// the given command line arguments, in increasing order of precedence.
func Load(args []string) (*Config, error) {
	errFactory := errors.New()

	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, errFactory.Wrap(errors.ErrParseFlags, err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for flagName, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(flagName)); err != nil {
			return nil, errFactory.Wrap(errors.ErrBindFlags, err)
		}
	}

	path, err := readConfigFile(v, fs)
	if err != nil {
		return nil, err
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	cfg.ConfigFile = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// readConfigFile reads an explicitly requested file or, failing that, the
// default file when it exists.
func readConfigFile(v *viper.Viper, fs *pflag.FlagSet) (string, error) {
	errFactory := errors.New()

	path, _ := fs.GetString("config")
	explicit := path != ""
	if !explicit {
		path = os.Getenv(envPrefix + "_CONFIG")
		explicit = path != ""
	}
	if !explicit {
		if _, err := os.Stat(defaultConfigFile); err != nil {
			return "", nil
		}
		path = defaultConfigFile
	}

	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return "", errFactory.WithData(errors.ErrReadConfig, struct {
			Path  string
			Error string
		}{
			Path:  path,
			Error: err.Error(),
		})
	}

	return path, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var (
		cfg  = &Config{}
		errs []error
	)

	duration := func(key string) time.Duration {
		d, err := cast.ToDurationE(v.Get(key))
		if err != nil {
			errs = append(errs, invalidValue(key, v.Get(key), err))
		}
		return d
	}
	integer := func(key string) int {
		n, err := cast.ToIntE(v.Get(key))
		if err != nil {
			errs = append(errs, invalidValue(key, v.Get(key), err))
		}
		return n
	}

	cfg.LogLevel = LogLevel(strings.ToLower(v.GetString("log_level")))
	cfg.Watchdog = watchdog.Config{
		ANRThreshold:           duration("anr_threshold"),
		JankThreshold:          duration("jank_threshold"),
		JankDetection:          v.GetBool("jank_detection"),
		PollingInterval:        duration("polling_interval"),
		InfrastructurePrefixes: v.GetStringSlice("infrastructure_prefixes"),
	}
	cfg.Whitelist = v.GetStringSlice("whitelist")
	cfg.Journal = journal.Config{
		Enabled:      v.GetBool("journal.enabled"),
		DBPath:       v.GetString("journal.path"),
		BackupDir:    v.GetString("journal.backup_dir"),
		BatchSize:    integer("journal.batch_size"),
		BatchTimeout: duration("journal.batch_timeout"),
	}
	cfg.Workload = Workload{
		Interval:      duration("workload.interval"),
		StallEvery:    integer("workload.stall_every"),
		StallDuration: duration("workload.stall_duration"),
	}

	if len(errs) > 0 {
		return nil, errs[0]
	}

	return cfg, nil
}

func invalidValue(key string, value any, err error) error {
	return errors.New().WithData(errors.ErrInvalidConfig, struct {
		Key   string
		Value any
		Error string
	}{
		Key:   key,
		Value: value,
		Error: err.Error(),
	})
}

// Validate checks every section of the configuration.
func (c *Config) Validate() error {
	errFactory := errors.New()

	if !c.LogLevel.IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, struct {
			LogLevel string
		}{
			LogLevel: c.LogLevel.String(),
		})
	}

	if err := c.Watchdog.Validate(); err != nil {
		return err
	}

	if _, err := watchdog.CompileWhitelist(c.Whitelist); err != nil {
		return err
	}

	if err := c.Journal.Validate(); err != nil {
		return errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if c.Workload.Interval <= 0 || c.Workload.StallEvery < 0 || c.Workload.StallDuration < 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, struct {
			Workload Workload
		}{
			Workload: c.Workload,
		})
	}

	return nil
}
