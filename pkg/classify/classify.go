package classify

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/arthur-debert/libmerge/pkg/errors"
	"github.com/arthur-debert/libmerge/pkg/paths"
	"github.com/arthur-debert/libmerge/pkg/state"
	"github.com/arthur-debert/libmerge/pkg/types"
)

// DefaultLib64Extensions are the suffixes of unowned entries that belong
// with the 64-bit tree.
var DefaultLib64Extensions = []string{".a", ".la", ".so"}

// Lister returns the names of the immediate children of a directory.
type Lister interface {
	List(dir string) ([]string, error)
}

// FSLister lists directories through a types.FS.
type FSLister struct {
	FS types.FS
}

// List implements Lister.
func (l FSLister) List(dir string) ([]string, error) {
	entries, err := l.FS.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

// Options tunes classification.
type Options struct {
	// Lib64Extensions routes unowned entries to lib64 by suffix.
	Lib64Extensions []string
}

// DefaultOptions returns the stock options.
func DefaultOptions() Options {
	return Options{Lib64Extensions: DefaultLib64Extensions}
}

// Tree names one of the three library trees of a prefix.
type Tree string

// Trees in precedence order.
const (
	TreeLib   Tree = paths.LibDir
	TreeLib32 Tree = paths.Lib32Dir
	TreeLib64 Tree = paths.Lib64Dir
)

var precedence = []Tree{TreeLib, TreeLib32, TreeLib64}

// Classification is the partition computed for one prefix.
type Classification struct {
	Prefix string

	LibPaths   types.PathSet
	Lib32Paths types.PathSet
	Lib64Paths types.PathSet

	LibPrefixes   types.PathSet
	Lib64Prefixes types.PathSet
	LibFiles      types.PathSet
	Lib64Files    types.PathSet

	PureLib  types.PathSet
	MixedLib types.PathSet

	LibUnowned   types.PathSet
	Lib64Unowned types.PathSet

	Includes types.PathSet
	Excludes types.PathSet
}

// Analysis is the classification of every prefix, in prefix order.
type Analysis struct {
	Prefixes        []string
	Classifications []Classification
}

// State projects the analysis onto the persisted migration state.
func (a *Analysis) State() state.State {
	st := state.New(a.Prefixes)
	for _, c := range a.Classifications {
		st.Includes[c.Prefix] = c.Includes
		st.Excludes[c.Prefix] = c.Excludes
	}
	return st
}

// Conflict is one file owned under lib and under another tree.
type Conflict struct {
	Prefix string
	Tree   Tree
	Path   string
}

// String renders the conflict as both absolute locations.
func (c Conflict) String() string {
	return filepath.Join(c.Prefix, string(TreeLib), c.Path) + " & " +
		filepath.Join(c.Prefix, string(c.Tree), c.Path)
}

// Classify partitions entries for every prefix. Only lister touches the
// filesystem, to find unowned children of each lib directory.
func Classify(prefixes []string, entries []types.OwnedEntry, lister Lister, opts Options) (*Analysis, error) {
	if len(opts.Lib64Extensions) == 0 {
		opts.Lib64Extensions = DefaultLib64Extensions
	}

	owned := attribute(prefixes, entries)

	analysis := &Analysis{Prefixes: append([]string(nil), prefixes...)}
	var conflicts []Conflict

	for _, prefix := range prefixes {
		trees := owned[prefix]
		c := Classification{
			Prefix:     prefix,
			LibPaths:   types.NewPathSet(trees[TreeLib]...),
			Lib32Paths: types.NewPathSet(trees[TreeLib32]...),
			Lib64Paths: types.NewPathSet(trees[TreeLib64]...),
		}

		c.LibPrefixes = c.LibPaths.LeftmostDirs()
		c.Lib64Prefixes = c.Lib64Paths.LeftmostDirs()
		c.LibFiles = c.LibPaths.TopFiles()
		c.Lib64Files = c.Lib64Paths.TopFiles()

		c.PureLib = c.LibPrefixes.Difference(c.Lib64Prefixes)
		c.MixedLib = c.LibPrefixes.Intersect(c.Lib64Prefixes)

		children, err := lister.List(paths.NewLayout(prefix).Lib)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot list %s", paths.NewLayout(prefix).Lib).
				WithDetail("prefix", prefix)
		}
		unowned := types.NewPathSet(children...).
			Difference(c.LibPrefixes).
			Difference(c.Lib64Prefixes).
			Difference(c.LibFiles).
			Difference(c.Lib64Files)
		c.Lib64Unowned = unowned.Filter(func(name string) bool {
			return hasExtension(name, opts.Lib64Extensions)
		})
		c.LibUnowned = unowned.Difference(c.Lib64Unowned)

		c.Includes = c.LibPrefixes.Union(c.LibFiles).Union(c.LibUnowned)
		mixed := c.MixedLib.Sorted()
		c.Excludes = c.Lib64Paths.Filter(func(p string) bool {
			for _, dir := range mixed {
				if types.IsUnder(p, dir) {
					return true
				}
			}
			return false
		})

		for _, p := range c.LibPaths.Intersect(c.Lib32Paths).Sorted() {
			conflicts = append(conflicts, Conflict{Prefix: prefix, Tree: TreeLib32, Path: p})
		}
		for _, p := range c.LibPaths.Intersect(c.Lib64Paths).Sorted() {
			conflicts = append(conflicts, Conflict{Prefix: prefix, Tree: TreeLib64, Path: p})
		}

		analysis.Classifications = append(analysis.Classifications, c)
	}

	if len(conflicts) > 0 {
		return nil, conflictError(conflicts)
	}
	return analysis, nil
}

// attribute assigns every owned file to the first matching tree, returning
// paths relative to that tree, keyed by prefix then tree.
func attribute(prefixes []string, entries []types.OwnedEntry) map[string]map[Tree][]string {
	roots := make(map[string]map[Tree]string, len(prefixes))
	owned := make(map[string]map[Tree][]string, len(prefixes))
	for _, prefix := range prefixes {
		roots[prefix] = make(map[Tree]string, len(precedence))
		for _, tree := range precedence {
			roots[prefix][tree] = filepath.Join(prefix, string(tree)) + "/"
		}
		owned[prefix] = make(map[Tree][]string, len(precedence))
	}

	for _, e := range entries {
		// directories are implied by the files inside them
		if e.IsDir() {
			continue
		}
	match:
		for _, prefix := range prefixes {
			for _, tree := range precedence {
				root := roots[prefix][tree]
				if strings.HasPrefix(e.Path, root) {
					if rel := e.Path[len(root):]; rel != "" {
						owned[prefix][tree] = append(owned[prefix][tree], rel)
					}
					break match
				}
			}
		}
	}
	return owned
}

func hasExtension(name string, exts []string) bool {
	ext := filepath.Ext(name)
	for _, want := range exts {
		if ext == want {
			return true
		}
	}
	return false
}

func conflictError(conflicts []Conflict) error {
	sort.SliceStable(conflicts, func(i, j int) bool {
		return conflicts[i].String() < conflicts[j].String()
	})
	rendered := make([]string, len(conflicts))
	for i, c := range conflicts {
		rendered[i] = c.String()
	}
	return errors.Newf(errors.ErrConflict,
		"%d file(s) are owned both under lib and lib32/lib64, making the conversion impossible", len(conflicts)).
		WithDetail("conflicts", conflicts).
		WithDetail("paths", rendered).
		WithHint("report this upstream and do not proceed with the migration until a proper solution is found")
}
