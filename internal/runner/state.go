package runner

import (
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"

	"github.com/bartekus/cadence/internal/projection"
)

// StateStore handles reading and writing runner state.
type StateStore struct {
	baseDir string
}

// NewStateStore creates a store at the given base directory (e.g. .cadence/run).
func NewStateStore(baseDir string) *StateStore {
	return &StateStore{baseDir: baseDir}
}

func (s *StateStore) lastRunPath() string {
	return filepath.Join(s.baseDir, "last-run.json")
}

func (s *StateStore) skillPath(skillID string) string {
	// ':' is not portable in file names.
	return filepath.Join(s.baseDir, "skills", sanitize(skillID)+".json")
}

// ReadLastRun loads the last execution summary. A missing file is clean state.
func (s *StateStore) ReadLastRun() (*LastRun, error) {
	var last LastRun
	found, err := projection.ReadJSON(s.lastRunPath(), &last)
	if err != nil {
		return nil, goerr.Wrap(err, "reading last run")
	}
	if !found {
		return nil, nil
	}
	return &last, nil
}

// ReadSkill loads a skill's last result, or nil if it never ran.
func (s *StateStore) ReadSkill(skillID string) (*SkillResult, error) {
	var res SkillResult
	found, err := projection.ReadJSON(s.skillPath(skillID), &res)
	if err != nil {
		return nil, goerr.Wrap(err, "reading skill result", goerr.V("skill", skillID))
	}
	if !found {
		return nil, nil
	}
	return &res, nil
}

// WriteLastRun saves the execution summary.
func (s *StateStore) WriteLastRun(last LastRun) error {
	return projection.WriteJSON(s.lastRunPath(), last)
}

// WriteSkillResult saves a skill's result.
func (s *StateStore) WriteSkillResult(res SkillResult) error {
	return projection.WriteJSON(s.skillPath(res.Skill), res)
}

// Reset clears the state directory.
func (s *StateStore) Reset() error {
	if err := os.RemoveAll(s.baseDir); err != nil {
		return goerr.Wrap(err, "removing run state", goerr.V("dir", s.baseDir))
	}
	return nil
}

// LoadFailedSkills returns a list of skills that failed in the last run.
func (s *StateStore) LoadFailedSkills() ([]string, error) {
	last, err := s.ReadLastRun()
	if err != nil {
		return nil, err
	}
	if last == nil {
		return nil, nil
	}
	return last.Failed, nil
}

func sanitize(id string) string {
	out := []rune(id)
	for i, r := range out {
		if r == ':' || r == '/' || r == '\\' {
			out[i] = '_'
		}
	}
	return string(out)
}
