package cli

// Command descriptions
const (
	MsgRootShort = "Merge the split lib/lib64 layout into a single lib tree"
	MsgRootLong  = `libmerge migrates a host from the "symlink lib" layout (lib -> lib64 with a
separate lib32) to a merged layout where lib is a real directory and
lib32 -> lib. It works on the fixed prefixes <root> and <root>/usr.

The migration runs in phases, one invocation each:

  analyze    classify installed files and save the plan (default)
  migrate    build lib.new and point lib at it
  rollback   point lib back at lib64 and discard lib.new
  finish     make lib.new the real lib and clean up lib32 and lib64

Every phase re-checks the directory layout before changing anything.
Only analyze may run without root privileges; its results are then not saved.`

	MsgAnalyzeShort  = "Analyze installed files and save the migration plan"
	MsgMigrateShort  = "Build the merged tree and switch lib over to it"
	MsgRollbackShort = "Revert a migration (after migrate)"
	MsgFinishShort   = "Finish the migration and clean up (after migrate)"
	MsgStatusShort   = "Show the migration phase of each prefix"
	MsgVersionShort  = "Print version information"
	MsgManShort      = "Print the man page"
)

// Notices
const (
	MsgUnprivileged  = "Running as unprivileged user, results will not be saved"
	MsgNeedsRoot     = "requested action requires root privileges"
	MsgPrefixChanged = "the saved state covers %v, but the configured prefixes are %v"
)

// Flag descriptions
const (
	MsgFlagVerbose      = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagRoot         = "Host root holding the prefixes to migrate"
	MsgFlagStateFile    = "Location of the saved migration state"
	MsgFlagContentsFrom = "Read package contents from a YAML snapshot instead of the package database"
	MsgFlagConfig       = "Configuration file to use instead of the per-user one"
	MsgFlagFormat       = "Output format: auto, term, text or json"
)
