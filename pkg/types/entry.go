package types

// EntryKind tags a package database entry.
type EntryKind string

const (
	EntryFile      EntryKind = "file"
	EntryDirectory EntryKind = "directory"
)

// OwnedEntry is one absolute path recorded by an installed package.
type OwnedEntry struct {
	Package string
	Path    string
	Kind    EntryKind
}

// IsDir reports whether the entry is a directory record.
func (e OwnedEntry) IsDir() bool {
	return e.Kind == EntryDirectory
}
