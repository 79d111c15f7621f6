package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yonatan1811/ccheck/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a project config",
	Long: `Write .ccheck.yaml from the given flags, so later runs need none.

Examples:
  ccheck init --compiler ./mycc --source-dir tests/valid
  ccheck init -c ./mycc -j 4 --on-toolchain-failure abort --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := cmd.Flags().GetString("config")
		if err != nil {
			return fmt.Errorf("failed to get config flag: %w", err)
		}
		if path == "" {
			path = config.FileName
		}

		// --config names the file to write here, so it is not read
		cfg, err := config.Load("", cmd.Flags())
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		force, err := cmd.Flags().GetBool("force")
		if err != nil {
			return fmt.Errorf("failed to get force flag: %w", err)
		}

		if err := config.Save(path, cfg, force); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ Project initialized!\n")
		fmt.Fprintf(out, "  Config: %s\n", path)
		fmt.Fprintf(out, "  Compiler: %s\n", cfg.Compiler)
		fmt.Fprintf(out, "  Fixtures: %s/*%s\n", cfg.SourceDir, cfg.SourceSuffix)
		fmt.Fprintln(out, "\nTip: run 'ccheck list' to check which fixtures were found")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	addConfigFlags(initCmd.Flags())
	initCmd.Flags().Bool("force", false, "Overwrite an existing config")
}
