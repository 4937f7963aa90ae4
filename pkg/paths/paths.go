package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// Environment variable names
const (
	// EnvStateFile overrides the persisted state location
	EnvStateFile = "LIBMERGE_STATE_FILE"

	// EnvHome is the standard home directory variable
	EnvHome = "HOME"
)

// Fixed entry names inside a prefix. These are not configurable: the
// verifier and the package manager both depend on them.
const (
	LibDir    = "lib"
	Lib32Dir  = "lib32"
	Lib64Dir  = "lib64"
	LibNewDir = "lib.new"
	LibTmpDir = "lib.tmp"
)

// Tool files
const (
	// AppDirName is the directory name for libmerge-specific files
	AppDirName = "libmerge"

	// DefaultStateFile is the persisted state location, home relative
	DefaultStateFile = "~/.symlink_lib_migrate.state"

	// LogFileName is the name of the log file
	LogFileName = "libmerge.log"

	// ConfigFileName is the name of the user config file
	ConfigFileName = "config.toml"

	// SystemConfigFile is the host-wide config file
	SystemConfigFile = "/etc/libmerge.toml"
)

// Layout holds the absolute paths of the notable entries of one prefix.
type Layout struct {
	Root   string
	Lib    string
	Lib32  string
	Lib64  string
	LibNew string
	LibTmp string
}

// NewLayout returns the layout of the prefix rooted at root.
func NewLayout(root string) Layout {
	root = filepath.Clean(root)
	return Layout{
		Root:   root,
		Lib:    filepath.Join(root, LibDir),
		Lib32:  filepath.Join(root, Lib32Dir),
		Lib64:  filepath.Join(root, Lib64Dir),
		LibNew: filepath.Join(root, LibNewDir),
		LibTmp: filepath.Join(root, LibTmpDir),
	}
}

// Prefixes returns the fixed pair of prefixes migrated for a host root:
// the root itself and its usr subtree.
func Prefixes(root string) []string {
	root = filepath.Clean(root)
	return []string{root, filepath.Join(root, "usr")}
}

// ExpandHome resolves a leading ~ against the operator's home directory.
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.Getenv(EnvHome)
		if homeDir == "" {
			return path
		}
	}

	if path == "~" {
		return homeDir
	}
	if len(path) > 1 && path[1] == '/' {
		return filepath.Join(homeDir, path[2:])
	}
	return path
}

// StateFile resolves the persisted state location. The environment wins
// over the configured value, which wins over the default.
func StateFile(configured string) string {
	if env := os.Getenv(EnvStateFile); env != "" {
		return ExpandHome(env)
	}
	if configured == "" {
		configured = DefaultStateFile
	}
	return ExpandHome(configured)
}

// LogFilePath returns the log file location under the XDG state directory.
func LogFilePath() string {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		stateHome = xdg.StateHome
	}
	return filepath.Join(stateHome, AppDirName, LogFileName)
}

// UserConfigFile returns the per-operator config file location.
func UserConfigFile() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		configHome = xdg.ConfigHome
	}
	return filepath.Join(configHome, AppDirName, ConfigFileName)
}
