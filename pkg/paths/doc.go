// Package paths provides centralized path handling for libmerge.
//
// It knows the fixed layout of a prefix (lib, lib32, lib64 and the transient
// lib.new / lib.tmp entries), the pair of prefixes a host is migrated over,
// and where the tool keeps its own files:
//
//   - State: ~/.symlink_lib_migrate.state (LIBMERGE_STATE_FILE or the
//     state_file config key override it)
//   - Log: $XDG_STATE_HOME/libmerge/libmerge.log
//   - User config: $XDG_CONFIG_HOME/libmerge/config.toml
//
// # Usage
//
//	for _, prefix := range paths.Prefixes("/") {
//	    l := paths.NewLayout(prefix)
//	    fmt.Println(l.Lib, "->", l.Lib64)
//	}
package paths
