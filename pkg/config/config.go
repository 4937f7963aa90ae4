package config

// Config is the fully merged libmerge configuration.
type Config struct {
	Root      string        `koanf:"root"`
	StateFile string        `koanf:"state_file"`
	Analyze   AnalyzeConfig `koanf:"analyze"`
	PkgDB     PkgDBConfig   `koanf:"pkgdb"`
	Copy      CopyConfig    `koanf:"copy"`
	Remove    RemoveConfig  `koanf:"remove"`
}

// AnalyzeConfig tunes the classifier.
type AnalyzeConfig struct {
	Lib64Extensions []string `koanf:"lib64_extensions"`
}

// PkgDBConfig selects the package database source.
type PkgDBConfig struct {
	Source   string `koanf:"source"`
	VarDBDir string `koanf:"vardb_dir"`
	Manifest string `koanf:"manifest"`
}

// CopyConfig configures the bulk copy command.
type CopyConfig struct {
	Command string `koanf:"command"`
	Reflink string `koanf:"reflink"`
}

// RemoveConfig configures the recursive delete command.
type RemoveConfig struct {
	Command string `koanf:"command"`
}

// Package database sources
const (
	SourceVarDB    = "vardb"
	SourceManifest = "manifest"
)
