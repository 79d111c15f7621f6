package messages

import "github.com/yonatan1811/ccheck/internal/report"

// Msg is a marker interface for all message types
type Msg any

// StartRunMsg is sent once fixtures have been discovered
type StartRunMsg struct {
	SourceDir string
	Compiler  string
	Fixtures  int
	Workers   int
}

// StartFixtureMsg is sent when a fixture enters the pipeline
type StartFixtureMsg struct {
	Index int
	Name  string
}

// ResolveFixtureMsg is sent when a fixture has its outcome
type ResolveFixtureMsg struct {
	Outcome   report.Outcome
	Processed int // running totals after this outcome
	Passed    int
}

// StageMsg is sent as a fixture moves from one stage to the next
type StageMsg struct {
	Index int
	Name  string
	Stage string
	Size  int // bytes of staged assembly, 0 for other stages
}
