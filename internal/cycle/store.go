package cycle

import (
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"

	"github.com/bartekus/cadence/internal/projection"
)

// Store persists the cycle state of the unit of work in progress.
type Store struct {
	baseDir string
}

// NewStore creates a store at the given base directory (e.g. .cadence).
func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) path() string {
	return filepath.Join(s.baseDir, "cycle.json")
}

// Load returns the persisted state, or nil when no cycle has been started.
func (s *Store) Load() (*State, error) {
	var st State
	found, err := projection.ReadJSON(s.path(), &st)
	if err != nil {
		return nil, goerr.Wrap(err, "loading cycle state")
	}
	if !found {
		return nil, nil
	}
	if st.History == nil {
		st.History = []Phase{}
	}
	return &st, nil
}

// Save writes the state atomically.
func (s *Store) Save(st *State) error {
	if st == nil {
		return goerr.New("refusing to save nil cycle state")
	}
	return projection.WriteJSON(s.path(), st)
}

// Reset removes the persisted state.
func (s *Store) Reset() error {
	if err := os.Remove(s.path()); err != nil && !os.IsNotExist(err) {
		return goerr.Wrap(err, "removing cycle state", goerr.V("path", s.path()))
	}
	return nil
}
