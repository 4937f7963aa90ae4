package state

import (
	"github.com/arthur-debert/libmerge/pkg/errors"
	"github.com/arthur-debert/libmerge/pkg/types"
)

// State is the persisted outcome of analyze: the prefixes to migrate and,
// per prefix, the top-level lib entries to copy (Includes) and the lib64
// owned paths to strip back out of mixed directories (Excludes).
type State struct {
	Prefixes []string
	Includes map[string]types.PathSet
	Excludes map[string]types.PathSet
}

// New returns an empty state over prefixes.
func New(prefixes []string) State {
	return State{
		Prefixes: append([]string(nil), prefixes...),
		Includes: make(map[string]types.PathSet, len(prefixes)),
		Excludes: make(map[string]types.PathSet, len(prefixes)),
	}
}

// Validate checks that every prefix has both sets and that every exclude
// lies inside an included directory.
func (s State) Validate() error {
	if len(s.Prefixes) == 0 {
		return errors.New(errors.ErrStateCorrupt, "state lists no prefixes")
	}
	for _, prefix := range s.Prefixes {
		includes, ok := s.Includes[prefix]
		if !ok {
			return errors.Newf(errors.ErrStateCorrupt, "state has no includes for %s", prefix).
				WithDetail("prefix", prefix)
		}
		excludes, ok := s.Excludes[prefix]
		if !ok {
			return errors.Newf(errors.ErrStateCorrupt, "state has no excludes for %s", prefix).
				WithDetail("prefix", prefix)
		}
		for _, p := range excludes.Sorted() {
			if !coveredBy(p, includes) {
				return errors.Newf(errors.ErrStateCorrupt, "exclude %s of %s is outside every include", p, prefix).
					WithDetail("prefix", prefix).
					WithDetail("path", p)
			}
		}
	}
	return nil
}

// Equal reports whether both states describe the same migration.
func (s State) Equal(other State) bool {
	if len(s.Prefixes) != len(other.Prefixes) {
		return false
	}
	for i := range s.Prefixes {
		if s.Prefixes[i] != other.Prefixes[i] {
			return false
		}
	}
	return setsEqual(s.Includes, other.Includes) && setsEqual(s.Excludes, other.Excludes)
}

func coveredBy(p string, includes types.PathSet) bool {
	for _, inc := range includes.Sorted() {
		if types.IsUnder(p, inc) {
			return true
		}
	}
	return false
}

func setsEqual(a, b map[string]types.PathSet) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		w, ok := b[k]
		if !ok || !v.Equal(w) {
			return false
		}
	}
	return true
}
