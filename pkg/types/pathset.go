package types

import (
	"sort"
	"strings"
)

// PathSet is an immutable set of slash-separated paths relative to a tree
// root. Order carries no meaning; Sorted gives a stable rendering.
type PathSet struct {
	m map[string]struct{}
}

// NewPathSet builds a set from the given paths, dropping duplicates.
func NewPathSet(paths ...string) PathSet {
	m := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		m[p] = struct{}{}
	}
	return PathSet{m: m}
}

// Has reports membership.
func (s PathSet) Has(p string) bool {
	_, ok := s.m[p]
	return ok
}

// Len returns the number of paths.
func (s PathSet) Len() int {
	return len(s.m)
}

// IsEmpty reports whether the set has no paths.
func (s PathSet) IsEmpty() bool {
	return len(s.m) == 0
}

// Union returns s ∪ other.
func (s PathSet) Union(other PathSet) PathSet {
	m := make(map[string]struct{}, len(s.m)+len(other.m))
	for p := range s.m {
		m[p] = struct{}{}
	}
	for p := range other.m {
		m[p] = struct{}{}
	}
	return PathSet{m: m}
}

// Intersect returns s ∩ other.
func (s PathSet) Intersect(other PathSet) PathSet {
	m := make(map[string]struct{})
	for p := range s.m {
		if other.Has(p) {
			m[p] = struct{}{}
		}
	}
	return PathSet{m: m}
}

// Difference returns s − other.
func (s PathSet) Difference(other PathSet) PathSet {
	m := make(map[string]struct{})
	for p := range s.m {
		if !other.Has(p) {
			m[p] = struct{}{}
		}
	}
	return PathSet{m: m}
}

// Filter returns the paths for which keep returns true.
func (s PathSet) Filter(keep func(string) bool) PathSet {
	m := make(map[string]struct{})
	for p := range s.m {
		if keep(p) {
			m[p] = struct{}{}
		}
	}
	return PathSet{m: m}
}

// Equal reports whether both sets hold the same paths.
func (s PathSet) Equal(other PathSet) bool {
	if len(s.m) != len(other.m) {
		return false
	}
	for p := range s.m {
		if !other.Has(p) {
			return false
		}
	}
	return true
}

// Sorted returns the paths in lexical order.
func (s PathSet) Sorted() []string {
	out := make([]string, 0, len(s.m))
	for p := range s.m {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// LeftmostDirs returns the first segment of every path that has more than
// one segment.
func (s PathSet) LeftmostDirs() PathSet {
	m := make(map[string]struct{})
	for p := range s.m {
		if i := strings.IndexByte(p, '/'); i >= 0 {
			m[p[:i]] = struct{}{}
		}
	}
	return PathSet{m: m}
}

// TopFiles returns the paths that have a single segment.
func (s PathSet) TopFiles() PathSet {
	return s.Filter(func(p string) bool {
		return !strings.Contains(p, "/")
	})
}

// IsUnder reports whether p lies strictly inside the directory dir.
func IsUnder(p, dir string) bool {
	return strings.HasPrefix(p, dir+"/")
}
