package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// errTestsFailed makes the process exit 1 without printing anything more;
// the report already said what went wrong.
var errTestsFailed = errors.New("tests failed")

var errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

var rootCmd = &cobra.Command{
	Use:   "ccheck",
	Short: "Conformance test harness for a native-code compiler",
	Long: `ccheck - check a compiler against a directory of test programs

Every fixture is compiled with your compiler, assembled and linked with the
system toolchain, and executed. A fixture passes when all of that works.

Quick Start:
  1. Setup project:     ccheck init --compiler ./mycc --source-dir tests/valid
  2. See the fixtures:  ccheck list
  3. Run them:          ccheck run`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		if !errors.Is(err, errTestsFailed) {
			fmt.Fprintln(os.Stderr, errorStyle.Render("Error:")+" "+err.Error())
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (default is ./.ccheck.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Show every stage and debug logs")
}
