package state

import (
	"os"
	"path/filepath"

	"github.com/arthur-debert/libmerge/pkg/errors"
	"github.com/arthur-debert/libmerge/pkg/logging"
	"github.com/arthur-debert/libmerge/pkg/types"
	toml "github.com/pelletier/go-toml/v2"
)

// FileMode is the permission of the state file; it describes system
// directories and is only written by root.
const FileMode os.FileMode = 0600

// document is the on-disk form of State.
type document struct {
	Prefixes []string            `toml:"prefixes"`
	Includes map[string][]string `toml:"includes"`
	Excludes map[string][]string `toml:"excludes"`
}

// Store persists a single State at a fixed path.
type Store struct {
	fs   types.FS
	path string
}

// NewStore creates a store for the file at path.
func NewStore(fs types.FS, path string) *Store {
	return &Store{fs: fs, path: path}
}

// Path returns the state file location.
func (s *Store) Path() string {
	return s.path
}

// Save replaces the stored state. The file is written beside its final
// location and renamed into place.
func (s *Store) Save(st State) error {
	logger := logging.GetLogger("state.store")

	doc := document{
		Prefixes: st.Prefixes,
		Includes: flatten(st.Includes),
		Excludes: flatten(st.Excludes),
	}
	data, err := toml.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, errors.ErrStateWrite, "failed to encode state")
	}

	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create directory for %s", s.path)
	}

	tmp := s.path + ".tmp"
	if err := s.fs.WriteFile(tmp, data, FileMode); err != nil {
		return errors.Wrapf(err, errors.ErrStateWrite, "failed to write %s", tmp).
			WithDetail("path", tmp)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		_ = s.fs.Remove(tmp)
		return errors.Wrapf(err, errors.ErrStateWrite, "failed to replace %s", s.path).
			WithDetail("path", s.path)
	}

	logger.Debug().
		Str("path", s.path).
		Strs("prefixes", st.Prefixes).
		Msg("State saved")
	return nil
}

// Load reads the stored state. A missing file yields an ErrStateMissing
// error; anything else that goes wrong is reported as is.
func (s *Store) Load() (State, error) {
	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return State{}, errors.Wrapf(err, errors.ErrStateMissing, "state file %s could not be loaded", s.path).
				WithDetail("path", s.path).
				WithHint("did you run `libmerge analyze` as root?")
		}
		return State{}, errors.Wrapf(err, errors.ErrFileAccess, "failed to read %s", s.path).
			WithDetail("path", s.path)
	}

	var doc document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return State{}, errors.Wrapf(err, errors.ErrStateCorrupt, "failed to decode %s", s.path).
			WithDetail("path", s.path).
			WithHint("re-run `libmerge analyze`")
	}

	st := New(doc.Prefixes)
	for prefix, p := range doc.Includes {
		st.Includes[prefix] = types.NewPathSet(p...)
	}
	for prefix, p := range doc.Excludes {
		st.Excludes[prefix] = types.NewPathSet(p...)
	}
	if err := st.Validate(); err != nil {
		return State{}, err
	}

	logger := logging.GetLogger("state.store")
	logger.Debug().
		Str("path", s.path).
		Strs("prefixes", st.Prefixes).
		Msg("State loaded")
	return st, nil
}

// Clear removes the stored state. An absent file is not an error.
func (s *Store) Clear() error {
	if err := s.fs.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, errors.ErrFileRemove, "failed to remove %s", s.path).
			WithDetail("path", s.path)
	}
	return nil
}

// Exists reports whether a state is stored.
func (s *Store) Exists() (bool, error) {
	_, err := s.fs.Lstat(s.path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Wrapf(err, errors.ErrFileAccess, "failed to stat %s", s.path)
}

func flatten(sets map[string]types.PathSet) map[string][]string {
	out := make(map[string][]string, len(sets))
	for prefix, set := range sets {
		out[prefix] = set.Sorted()
	}
	return out
}
