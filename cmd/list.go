package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the fixtures a run would use",
	Long: `List the fixtures found in the source directory, in the order a run
processes them, with the expectation each one carries.

Example:
  ccheck list --source-dir tests/valid --filter 'return_*'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		fixtures, err := discoverFixtures(cfg)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, f := range fixtures {
			if desc := describeExpectation(f.Expect); desc != "" {
				fmt.Fprintf(out, "%s\t%s\n", f.Name, desc)
			} else {
				fmt.Fprintln(out, f.Name)
			}
		}
		fmt.Fprintf(out, "\n%d fixtures in %s\n", len(fixtures), cfg.SourceDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	addConfigFlags(listCmd.Flags())
}
