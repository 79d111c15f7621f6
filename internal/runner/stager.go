package runner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// StagedArtifact is assembly text written to disk for the toolchain.
type StagedArtifact struct {
	Path string
	Size int
}

// Stager owns a directory of short-lived assembly files. Every fixture
// execution gets its own file, so concurrent fixtures never clobber each other.
type Stager struct {
	Dir string
}

// Prepare creates the staging directory.
func (s *Stager) Prepare() error {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create staging directory %s: %w", s.Dir, err)
	}
	return nil
}

// Path returns the staging file for one fixture execution. id must be unique
// per execution.
func (s *Stager) Path(stem string, id string) string {
	return filepath.Join(s.Dir, fmt.Sprintf("%s-%s.s", stem, id))
}

// Stage writes text to path, replacing any previous contents. The file is
// closed on every path out, including a failed write.
func (s *Stager) Stage(path string, text string) (_ *StagedArtifact, err error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStageWrite, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %w", ErrStageWrite, cerr)
		}
	}()

	n, err := file.WriteString(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStageWrite, err)
	}

	return &StagedArtifact{Path: path, Size: n}, nil
}

// Cleanup removes the given files. Missing files are fine.
func (s *Stager) Cleanup(paths ...string) error {
	var errs []error

	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("failed to delete file %s: %w", path, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("cleanup failed: %w", errors.Join(errs...))
	}
	return nil
}
