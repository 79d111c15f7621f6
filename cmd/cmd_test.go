package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yonatan1811/ccheck/internal/config"
	"github.com/yonatan1811/ccheck/internal/fixture"
	"github.com/yonatan1811/ccheck/internal/report"
)

const (
	fakeCompiler = `case "$(basename "$1")" in *bad*) echo "error: unexpected token" >&2; exit 1;; esac
cat "$1"`
	fakeToolchain = `case "$(basename "$2")" in *warn*) echo "warning: odd relocation" >&2;; esac
{ echo '#!/bin/sh'; cat "$2"; } > "$4"
chmod +x "$4"`
)

// project is a scratch directory holding fixtures and the fake tools, and the
// working directory for the test.
type project struct {
	dir       string
	compiler  string
	toolchain string
}

func newProject(t *testing.T) *project {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes need a unix shell")
	}

	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "tests"), 0o755))

	return &project{
		dir:       dir,
		compiler:  writeScript(t, dir, "mycc", fakeCompiler),
		toolchain: writeScript(t, dir, "fakegcc", fakeToolchain),
	}
}

func writeScript(t *testing.T, dir string, name string, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func (p *project) fixture(t *testing.T, name string, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(p.dir, "tests", name), []byte(body+"\n"), 0o644))
}

// toolFlags points a command at the fake tools and the fixture directory.
func (p *project) toolFlags(args ...string) []string {
	return append([]string{"--compiler", p.compiler, "--toolchain", p.toolchain, "--source-dir", "tests"}, args...)
}

// resetFlags undoes what an earlier Execute parsed into the package-level
// commands.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if !f.Changed {
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestRunAllPassing(t *testing.T) {
	p := newProject(t)
	p.fixture(t, "return_0.c", "exit 0")
	p.fixture(t, "return_2.c", "exit 2")

	out, err := execute(t, append([]string{"run"}, p.toolFlags()...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "return_0.c")
	assert.Contains(t, out, "2 of 2 tests passed")
}

func TestRunFailuresExitNonZero(t *testing.T) {
	p := newProject(t)
	p.fixture(t, "ok.c", "exit 0")
	p.fixture(t, "bad_syntax.c", "exit 0")

	out, err := execute(t, append([]string{"run"}, p.toolFlags("-j", "2")...)...)
	require.ErrorIs(t, err, errTestsFailed)
	assert.Contains(t, out, "COMPILER ERROR")
	assert.Contains(t, out, "error: unexpected token")
	assert.Contains(t, out, "1 of 2 tests passed")
}

func TestRunAbortPolicy(t *testing.T) {
	p := newProject(t)
	p.fixture(t, "a.c", "exit 0")
	p.fixture(t, "b_warn.c", "exit 0")
	p.fixture(t, "c.c", "exit 0")

	out, err := execute(t, append([]string{"run"}, p.toolFlags("--on-toolchain-failure", "abort")...)...)
	require.ErrorIs(t, err, errTestsFailed)
	assert.Contains(t, out, "TOOLCHAIN ERROR")
	assert.Contains(t, out, "1 fixtures not run")
	assert.Contains(t, out, "1 of 2 tests passed")
}

func TestRunMissingSourceDirIsFatal(t *testing.T) {
	p := newProject(t)

	out, err := execute(t, "run", "--compiler", p.compiler, "--source-dir", "nope")
	require.ErrorIs(t, err, fixture.ErrDirectoryNotFound)
	assert.NotContains(t, out, "tests passed")
}

func TestRunRequiresCompiler(t *testing.T) {
	newProject(t)

	_, err := execute(t, "run", "--source-dir", "tests")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no compiler configured")
}

func TestRunOpenNeedsReport(t *testing.T) {
	p := newProject(t)

	_, err := execute(t, append([]string{"run", "--open"}, p.toolFlags()...)...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--report")
}

func TestRunWritesReport(t *testing.T) {
	p := newProject(t)
	p.fixture(t, "a.c", "echo hi")
	p.fixture(t, "bad.c", "exit 0")

	_, err := execute(t, append([]string{"run"}, p.toolFlags("--report", "out/report.json")...)...)
	require.ErrorIs(t, err, errTestsFailed)

	data, err := os.ReadFile(filepath.Join(p.dir, "out", "report.json"))
	require.NoError(t, err)

	var summary report.Summary
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Passed)
	require.Len(t, summary.Outcomes, 2)
	assert.Equal(t, "a.c", summary.Outcomes[0].Fixture)
	assert.Equal(t, "hi\n", summary.Outcomes[0].Stdout)
	assert.Equal(t, report.CompilerError, summary.Outcomes[1].Classification)
}

func TestRunFilter(t *testing.T) {
	p := newProject(t)
	p.fixture(t, "return_0.c", "exit 0")
	p.fixture(t, "bad_loop.c", "exit 0")

	out, err := execute(t, append([]string{"run"}, p.toolFlags("--filter", "return_*")...)...)
	require.NoError(t, err)
	assert.NotContains(t, out, "bad_loop.c")
	assert.Contains(t, out, "1 of 1 tests passed")
}

func TestList(t *testing.T) {
	p := newProject(t)
	p.fixture(t, "b.c", "exit 0")
	p.fixture(t, "a.c", "exit 0")
	p.fixture(t, "notes.txt", "")
	require.NoError(t, os.WriteFile(filepath.Join(p.dir, "tests", "a"+fixture.ExpectationSuffix), []byte("exit: 3\n"), 0o644))

	out, err := execute(t, "list", "--source-dir", "tests")
	require.NoError(t, err)
	assert.Contains(t, out, "a.c\texit 3\nb.c\n")
	assert.Contains(t, out, "2 fixtures in tests")
	assert.NotContains(t, out, "notes.txt")
}

func TestInitThenRunFromConfig(t *testing.T) {
	p := newProject(t)
	p.fixture(t, "a.c", "exit 0")

	out, err := execute(t, append([]string{"init"}, p.toolFlags("-j", "3")...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Project initialized")
	require.FileExists(t, filepath.Join(p.dir, config.FileName))

	cfg, err := config.Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, p.compiler, cfg.Compiler)
	assert.Equal(t, 3, cfg.Workers)

	_, err = execute(t, append([]string{"init"}, p.toolFlags()...)...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = execute(t, append([]string{"init", "--force"}, p.toolFlags()...)...)
	require.NoError(t, err)

	out, err = execute(t, "run")
	require.NoError(t, err)
	assert.Contains(t, out, "1 of 1 tests passed")
}
