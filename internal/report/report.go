package report

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Classification is the terminal status of a fixture.
type Classification int

const (
	Passed Classification = iota
	Failed
	ToolchainError
	CompilerError
)

var classificationNames = map[Classification]string{
	Passed:         "passed",
	Failed:         "failed",
	ToolchainError: "toolchain_error",
	CompilerError:  "compiler_error",
}

func (c Classification) String() string {
	if name, ok := classificationNames[c]; ok {
		return name
	}
	return fmt.Sprintf("classification(%d)", int(c))
}

func (c Classification) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Classification) UnmarshalText(text []byte) error {
	for k, v := range classificationNames {
		if v == string(text) {
			*c = k
			return nil
		}
	}
	return fmt.Errorf("unknown classification %q", string(text))
}

// Outcome is everything recorded about one fixture.
type Outcome struct {
	Fixture        string         `json:"fixture"`
	Path           string         `json:"path"`
	Classification Classification `json:"status"`
	// Stage is where the fixture stopped; empty when it went all the way.
	Stage      string        `json:"stage,omitempty"`
	ExitCode   int           `json:"exit_code"`
	Stdout     string        `json:"stdout,omitempty"`
	Stderr     string        `json:"stderr,omitempty"`
	Diagnostic string        `json:"diagnostic,omitempty"`
	Duration   time.Duration `json:"-"`
	DurationMS int64         `json:"duration_ms"`
}

// Passed reports whether the outcome counts towards the pass total.
func (o Outcome) Passed() bool {
	return o.Classification == Passed
}

// Summary is the read-only result of a run.
type Summary struct {
	Total       int           `json:"total"`
	Passed      int           `json:"passed"`
	Discovered  int           `json:"discovered"`
	Aborted     bool          `json:"aborted"`
	AbortReason string        `json:"abort_reason,omitempty"`
	Duration    time.Duration `json:"-"`
	DurationMS  int64         `json:"duration_ms"`
	Outcomes    []Outcome     `json:"outcomes"`
}

// Line is the final line of the console report.
func (s *Summary) Line() string {
	return fmt.Sprintf("%d of %d tests passed", s.Passed, s.Total)
}

// Failed counts outcomes that did not pass.
func (s *Summary) Failed() int {
	return s.Total - s.Passed
}

// Skipped counts discovered fixtures that never produced an outcome.
func (s *Summary) Skipped() int {
	return s.Discovered - s.Total
}

// Count returns how many outcomes have the given classification.
func (s *Summary) Count(c Classification) int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Classification == c {
			n++
		}
	}
	return n
}

// Aggregator collects outcomes from concurrent workers.
type Aggregator struct {
	mu       sync.Mutex
	outcomes []Outcome
	passed   int
}

func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Add records one outcome and returns the running totals including it.
// Outcomes may arrive in any order.
func (a *Aggregator) Add(o Outcome) (processed int, passed int) {
	o.DurationMS = o.Duration.Milliseconds()

	a.mu.Lock()
	defer a.mu.Unlock()

	a.outcomes = append(a.outcomes, o)
	if o.Passed() {
		a.passed++
	}
	return len(a.outcomes), a.passed
}

// Processed is the number of outcomes recorded so far.
func (a *Aggregator) Processed() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.outcomes)
}

// Passed is the number of passing outcomes recorded so far.
func (a *Aggregator) Passed() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.passed
}

// Summary snapshots the outcomes, ordered by fixture path so the report does
// not depend on which worker finished first.
func (a *Aggregator) Summary() *Summary {
	a.mu.Lock()
	outcomes := make([]Outcome, len(a.outcomes))
	copy(outcomes, a.outcomes)
	passed := a.passed
	a.mu.Unlock()

	sort.SliceStable(outcomes, func(i, j int) bool {
		return outcomes[i].Path < outcomes[j].Path
	})

	return &Summary{
		Total:    len(outcomes),
		Passed:   passed,
		Outcomes: outcomes,
	}
}
