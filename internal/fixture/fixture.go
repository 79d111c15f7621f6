package fixture

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrDirectoryNotFound is returned when the fixture directory is missing or is
// not a directory. Nothing can run without it.
var ErrDirectoryNotFound = errors.New("fixture directory not found")

// Fixture is a single source file fed to the compiler under test.
type Fixture struct {
	Name   string // file name, e.g. "return_2.c"
	Stem   string // file name without the source suffix
	Path   string // absolute path
	Expect *Expectation
}

// Discover lists the files in dir whose name ends with suffix.
//
// Entries come back in os.ReadDir order (sorted by file name), so two runs
// over the same directory see the same sequence.
func Discover(dir string, suffix string) ([]Fixture, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDirectoryNotFound, dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrDirectoryNotFound, dir)
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	entries, err := os.ReadDir(absDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture directory %s: %w", dir, err)
	}

	fixtures := []Fixture{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}

		name := entry.Name()
		f := Fixture{
			Name: name,
			Stem: strings.TrimSuffix(name, suffix),
			Path: filepath.Join(absDir, name),
		}

		expect, err := LoadExpectation(filepath.Join(absDir, f.Stem+ExpectationSuffix))
		if err != nil {
			return nil, fmt.Errorf("fixture %s: %w", name, err)
		}
		f.Expect = expect

		fixtures = append(fixtures, f)
	}

	return fixtures, nil
}

// Filter keeps the fixtures whose name matches the glob pattern.
// An empty pattern keeps everything.
func Filter(fixtures []Fixture, pattern string) ([]Fixture, error) {
	if pattern == "" {
		return fixtures, nil
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", pattern, err)
	}

	kept := make([]Fixture, 0, len(fixtures))
	for _, f := range fixtures {
		// error already checked above
		if ok, _ := filepath.Match(pattern, f.Name); ok {
			kept = append(kept, f)
		}
	}
	return kept, nil
}
