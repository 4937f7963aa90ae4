package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/libmerge/pkg/errors"
	"github.com/arthur-debert/libmerge/pkg/paths"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of configuration environment variables.
const EnvPrefix = "LIBMERGE_"

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// SystemFile defaults to /etc/libmerge.toml.
	SystemFile string
	// UserFile defaults to $XDG_CONFIG_HOME/libmerge/config.toml.
	UserFile string
	// Overrides are flat dotted keys applied last, e.g. from flags.
	Overrides map[string]interface{}
}

// Load merges every configuration layer and returns the result.
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to load defaults")
	}

	// 2. Host and operator files, when present
	systemFile := opts.SystemFile
	if systemFile == "" {
		systemFile = paths.SystemConfigFile
	}
	userFile := opts.UserFile
	if userFile == "" {
		userFile = paths.UserConfigFile()
	}
	for _, path := range []string{systemFile, userFile} {
		if err := loadFileIfExists(k, path); err != nil {
			return nil, err
		}
	}

	// 3. Env vars
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load env vars")
	}

	// 4. Explicit overrides
	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load overrides")
		}
	}

	// 5. Unmarshal
	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to unmarshal configuration")
	}

	// 6. Post-process
	if err := postProcessConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func loadFileIfExists(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, errors.ErrConfigLoad, "failed to stat config %s", path)
	}
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return errors.Wrapf(err, errors.ErrConfigParse, "failed to load config from %s", path)
	}
	return nil
}

func postProcessConfig(cfg *Config) error {
	if cfg.Root == "" {
		cfg.Root = "/"
	}
	if !filepath.IsAbs(cfg.Root) {
		return errors.Newf(errors.ErrInvalidInput, "root must be an absolute path, got %q", cfg.Root)
	}
	cfg.Root = filepath.Clean(cfg.Root)

	exts := make([]string, 0, len(cfg.Analyze.Lib64Extensions))
	for _, ext := range cfg.Analyze.Lib64Extensions {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	cfg.Analyze.Lib64Extensions = exts

	// An explicit manifest implies the manifest source.
	if cfg.PkgDB.Manifest != "" {
		cfg.PkgDB.Source = SourceManifest
	}
	switch cfg.PkgDB.Source {
	case SourceVarDB:
	case SourceManifest:
		if cfg.PkgDB.Manifest == "" {
			return errors.New(errors.ErrInvalidInput, "pkgdb.source is manifest but pkgdb.manifest is empty")
		}
	default:
		return errors.Newf(errors.ErrInvalidInput, "unknown pkgdb.source %q", cfg.PkgDB.Source)
	}

	if cfg.Copy.Command == "" {
		cfg.Copy.Command = "cp"
	}
	if cfg.Remove.Command == "" {
		cfg.Remove.Command = "rm"
	}

	return nil
}

// VarDBPath resolves the package database directory against the root.
func (c *Config) VarDBPath() string {
	if filepath.IsAbs(c.PkgDB.VarDBDir) {
		return c.PkgDB.VarDBDir
	}
	return filepath.Join(c.Root, c.PkgDB.VarDBDir)
}

// String renders the configuration for `-v` diagnostics.
func (c *Config) String() string {
	return fmt.Sprintf("root=%s state_file=%s pkgdb=%s", c.Root, c.StateFile, c.PkgDB.Source)
}
