package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/yonatan1811/ccheck/internal/config"
	"github.com/yonatan1811/ccheck/internal/fixture"
)

// addConfigFlags registers one flag per config key. Defaults mirror
// config.Default so --help shows what a run would use.
func addConfigFlags(fs *pflag.FlagSet) {
	def := config.Default()
	fs.StringP("source-dir", "d", def.SourceDir, "Directory holding the test programs")
	fs.String("suffix", def.SourceSuffix, "File suffix that marks a test program")
	fs.StringP("compiler", "c", "", "Compiler under test")
	fs.String("toolchain", def.Toolchain, "Assembler/linker driver")
	fs.StringArray("toolchain-arg", nil, "Extra argument for the toolchain driver (repeatable)")
	fs.Int("word-width", def.WordWidth, "Target word width passed as -m<width>, 0 to omit")
	fs.String("staging-dir", "", "Where assembly is staged (default is a temp dir)")
	fs.String("output-dir", "", "Where executables are built (default is a temp dir)")
	fs.Duration("timeout", def.Timeout, "Time limit for each compile, build and run")
	fs.IntP("workers", "j", def.Workers, "Number of fixtures processed at once")
	fs.String("on-toolchain-failure", string(def.OnToolchainFailure), "What a toolchain failure does: continue or abort")
	fs.Bool("keep-artifacts", false, "Leave staged assembly and executables on disk")
	fs.String("filter", "", "Only run fixtures whose name matches this glob")
	fs.String("report", "", "Write a JSON report to this path")
}

// loadConfig resolves the config for cmd from its flags, the environment and
// the config file.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}

	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func discoverFixtures(cfg *config.Config) ([]fixture.Fixture, error) {
	fixtures, err := fixture.Discover(cfg.SourceDir, cfg.SourceSuffix)
	if err != nil {
		return nil, err
	}
	return fixture.Filter(fixtures, cfg.Filter)
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// describeExpectation renders a fixture's sidecar for `ccheck list`.
func describeExpectation(e *fixture.Expectation) string {
	if e == nil {
		return ""
	}
	if e.RejectsCompile() {
		return "compile: reject"
	}

	desc := ""
	if e.Exit != nil {
		desc = fmt.Sprintf("exit %d", *e.Exit)
	}
	if e.Stdout != nil {
		if desc != "" {
			desc += ", "
		}
		desc += fmt.Sprintf("stdout %q", *e.Stdout)
	}
	if desc == "" {
		desc = "compile: accept"
	}
	return desc
}
