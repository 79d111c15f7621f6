package fixture

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ExpectationSuffix is appended to a fixture's stem to find its sidecar file.
const ExpectationSuffix = ".expect.yaml"

const (
	CompileAccept = "accept"
	CompileReject = "reject"
)

// Expectation is the optional per-fixture oracle read from a sidecar file.
// Fields left out of the sidecar are not checked.
type Expectation struct {
	Compile string  `yaml:"compile,omitempty"`
	Exit    *int    `yaml:"exit,omitempty"`
	Stdout  *string `yaml:"stdout,omitempty"`
}

// LoadExpectation reads the sidecar at path. A missing file is not an error
// and yields nil.
func LoadExpectation(path string) (*Expectation, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open expectations: %w", err)
	}
	defer file.Close()

	var expect Expectation
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&expect); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse expectations %s: %w", path, err)
	}

	switch expect.Compile {
	case "":
		expect.Compile = CompileAccept
	case CompileAccept, CompileReject:
	default:
		return nil, fmt.Errorf("invalid compile expectation %q in %s (want %q or %q)",
			expect.Compile, path, CompileAccept, CompileReject)
	}

	return &expect, nil
}

// RejectsCompile reports whether the compiler is expected to refuse the fixture.
func (e *Expectation) RejectsCompile() bool {
	return e != nil && e.Compile == CompileReject
}

// Verify compares a finished execution against the expectation.
// A nil expectation accepts anything.
func (e *Expectation) Verify(exitCode int, stdout string) error {
	if e == nil {
		return nil
	}
	if e.Exit != nil && exitCode != *e.Exit {
		return fmt.Errorf("exit status %d, expected %d", exitCode, *e.Exit)
	}
	if e.Stdout != nil && stdout != *e.Stdout {
		return fmt.Errorf("stdout mismatch: expected %q, got %q", *e.Stdout, stdout)
	}
	return nil
}
