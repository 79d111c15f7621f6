package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/yonatan1811/ccheck/internal/pipeline"
	"github.com/yonatan1811/ccheck/internal/report"
	"github.com/yonatan1811/ccheck/ui"
	"github.com/yonatan1811/ccheck/ui/messages"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Compile, build and execute every fixture",
	Long: `Run every fixture in the source directory through the compiler under test.

Each fixture is compiled, the assembly is built with the system toolchain and
the resulting program is executed. A fixture passes when its program runs to
completion, or matches its .expect.yaml when it has one.

Examples:
  ccheck run --compiler ./mycc --source-dir tests/valid
  ccheck run -c ./mycc -j 8 --filter 'return_*'
  ccheck run -c ./mycc --on-toolchain-failure abort
  ccheck run -c ./mycc --report report.json --open`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		open, err := cmd.Flags().GetBool("open")
		if err != nil {
			return fmt.Errorf("failed to get open flag: %w", err)
		}
		if open && cfg.Report == "" {
			return errors.New("--open needs a report path. Pass --report <file>")
		}

		verbose, err := cmd.Flags().GetBool("verbose")
		if err != nil {
			return fmt.Errorf("failed to get verbose flag: %w", err)
		}
		log := newLogger(cmd.ErrOrStderr(), verbose)

		fixtures, err := discoverFixtures(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		ch := make(chan messages.Msg, 16)
		p, err := pipeline.New(cfg, pipeline.Options{Logger: log, Events: ch})
		if err != nil {
			return err
		}
		defer func() {
			if err := p.Close(); err != nil {
				log.Warn("failed to clean up", "error", err)
			}
		}()

		done := ui.StartRenderer(cmd.OutOrStdout(), verbose, ch)
		ch <- messages.StartRunMsg{
			SourceDir: cfg.SourceDir,
			Compiler:  cfg.Compiler,
			Fixtures:  len(fixtures),
			Workers:   cfg.Workers,
		}

		summary, runErr := p.Run(ctx, fixtures)
		done(summary)
		if runErr != nil {
			log.Debug("run stopped early", "error", runErr)
		}

		if cfg.Report != "" {
			if err := report.Save(cfg.Report, summary); err != nil {
				return err
			}
			log.Info("report written", "path", cfg.Report)

			if open {
				browser.Stdout = cmd.ErrOrStderr()
				if err := browser.OpenFile(cfg.Report); err != nil {
					log.Warn("failed to open report", "path", cfg.Report, "error", err)
				}
			}
		}

		if summary.Aborted || summary.Passed < summary.Total {
			return errTestsFailed
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	addConfigFlags(runCmd.Flags())
	runCmd.Flags().Bool("open", false, "Open the JSON report once it is written")
}
