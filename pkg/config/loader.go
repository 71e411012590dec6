package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/hazbak/hazbak/pkg/errors"
	"github.com/hazbak/hazbak/pkg/logging"
	"github.com/hazbak/hazbak/pkg/paths"
)

// EnvPrefix is the prefix for environment overrides. A double underscore
// separates sections, so HAZBAK_BACKUP__MAX_ATTEMPTS overrides
// backup.max_attempts.
const EnvPrefix = "HAZBAK_"

// Load builds the merged configuration: embedded defaults, then the
// user's config file from the XDG config directory (hazbak.toml or
// hazbak.yaml), then HAZBAK_ environment variables.
func Load(p *paths.Paths) (*Config, error) {
	return load(findConfigFile(p.ConfigDir()))
}

// LoadFromFile builds the merged configuration with an explicit config
// file instead of the discovered one. The file must exist.
func LoadFromFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "config file %s not found", path)
	}
	return load(path)
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "cannot load built-in defaults")
	}

	// 2. User config file, when present
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), parserFor(configPath)); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigParse, "cannot parse config file %s", configPath)
		}
	}

	// 3. Environment overrides
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "cannot load environment overrides")
	}

	// 4. Unmarshal into the typed config
	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "cannot decode configuration")
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// findConfigFile looks for hazbak.toml then hazbak.yaml in configDir and
// returns the first that exists, or empty when none does.
func findConfigFile(configDir string) string {
	for _, name := range []string{paths.ConfigFileName, "hazbak.yaml"} {
		path := filepath.Join(configDir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func parserFor(path string) koanf.Parser {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return yaml.Parser()
	default:
		return toml.Parser()
	}
}

// validate checks tunables and drops malformed mapping and preop rows so
// one bad row never blocks the runnable remainder.
func validate(cfg *Config) error {
	logger := logging.GetLogger("config")

	if cfg.Backup.MaxAttempts < 1 {
		return errors.Newf(errors.ErrConfigValid,
			"backup.max_attempts must be at least 1, got %d", cfg.Backup.MaxAttempts)
	}
	if cfg.Backup.Workers < 1 {
		return errors.Newf(errors.ErrConfigValid,
			"backup.workers must be at least 1, got %d", cfg.Backup.Workers)
	}

	kept := cfg.Mappings[:0]
	for _, m := range cfg.Mappings {
		if err := m.Validate(); err != nil {
			logger.Warn().Err(err).Msg("Skipping malformed mapping")
			continue
		}
		kept = append(kept, m)
	}
	cfg.Mappings = kept

	keptOps := cfg.PreOps[:0]
	for _, op := range cfg.PreOps {
		if op.Operation == "" {
			logger.Warn().Msg("Skipping pre-processing entry without an operation")
			continue
		}
		keptOps = append(keptOps, op)
	}
	cfg.PreOps = keptOps

	return nil
}
