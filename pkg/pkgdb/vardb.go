package pkgdb

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arthur-debert/libmerge/pkg/errors"
	"github.com/arthur-debert/libmerge/pkg/logging"
	"github.com/arthur-debert/libmerge/pkg/types"
)

// ContentsFile is the per-package ownership record.
const ContentsFile = "CONTENTS"

// mergingPrefix marks a package directory of an interrupted merge.
const mergingPrefix = "-MERGING-"

// VarDB reads <dir>/<category>/<package>/CONTENTS.
type VarDB struct {
	fs   types.FS
	dir  string
	root string
}

// NewVarDB creates a reader for the database at dir, whose recorded paths
// are relative to root.
func NewVarDB(fs types.FS, dir, root string) *VarDB {
	return &VarDB{fs: fs, dir: dir, root: root}
}

// Describe implements Database.
func (v *VarDB) Describe() string {
	return "vardb " + v.dir
}

// Entries implements Database.
func (v *VarDB) Entries() ([]types.OwnedEntry, error) {
	logger := logging.GetLogger("pkgdb.vardb")

	categories, err := v.subdirs(v.dir)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrPackageDB, "cannot read package database %s", v.dir).
			WithDetail("path", v.dir)
	}

	var entries []types.OwnedEntry
	packages := 0
	for _, category := range categories {
		names, err := v.subdirs(filepath.Join(v.dir, category))
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrPackageDB, "cannot read category %s", category)
		}
		for _, name := range names {
			if strings.HasPrefix(name, mergingPrefix) {
				logger.Warn().Str("package", category+"/"+name).Msg("Skipping package of an interrupted merge")
				continue
			}
			contents := filepath.Join(v.dir, category, name, ContentsFile)
			data, err := v.fs.ReadFile(contents)
			if os.IsNotExist(err) {
				// packages without files have no CONTENTS
				logger.Debug().Str("path", contents).Msg("No contents")
				continue
			}
			if err != nil {
				return nil, errors.Wrapf(err, errors.ErrPackageDB, "cannot read %s", contents).
					WithDetail("path", contents).
					WithHint("repair or remove the package entry, then run analyze again")
			}
			pkgEntries, err := ParseContents(category+"/"+name, data)
			if err != nil {
				return nil, errors.Wrapf(err, errors.ErrPackageDB, "cannot parse %s", contents).
					WithDetail("path", contents)
			}
			for i := range pkgEntries {
				pkgEntries[i].Path = rooted(v.root, pkgEntries[i].Path)
			}
			entries = append(entries, pkgEntries...)
			packages++
		}
	}

	logger.Info().
		Int("packages", packages).
		Int("entries", len(entries)).
		Msg("Package database read")
	return entries, nil
}

func (v *VarDB) subdirs(dir string) ([]string, error) {
	items, err := v.fs.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, item := range items {
		if item.IsDir() {
			names = append(names, item.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// ParseContents parses a CONTENTS file. Recognised lines:
//
//	dir <path>
//	obj <path> <md5> <mtime>
//	sym <path> -> <target> <mtime>
//	fif <path>
//	dev <path>
//
// Paths may contain spaces, so trailing fields are split from the right.
func ParseContents(pkg string, data []byte) ([]types.OwnedEntry, error) {
	var entries []types.OwnedEntry

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		kind, rest, ok := strings.Cut(line, " ")
		if !ok || rest == "" {
			return nil, errors.Newf(errors.ErrPackageDB, "%s: line %d: malformed entry %q", pkg, lineNo, line)
		}

		var path string
		switch kind {
		case "dir", "fif", "dev":
			path = rest
		case "obj":
			fields := strings.Split(rest, " ")
			if len(fields) < 3 {
				return nil, errors.Newf(errors.ErrPackageDB, "%s: line %d: obj needs path, md5 and mtime", pkg, lineNo)
			}
			path = strings.Join(fields[:len(fields)-2], " ")
		case "sym":
			i := strings.LastIndex(rest, " -> ")
			if i < 0 {
				return nil, errors.Newf(errors.ErrPackageDB, "%s: line %d: sym without target", pkg, lineNo)
			}
			path = rest[:i]
		default:
			return nil, errors.Newf(errors.ErrPackageDB, "%s: line %d: unknown entry type %q", pkg, lineNo, kind)
		}

		entryKind := types.EntryFile
		if kind == "dir" {
			entryKind = types.EntryDirectory
		}
		entries = append(entries, types.OwnedEntry{Package: pkg, Path: path, Kind: entryKind})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
