package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/wippyai/hostref/hostvm/def"
)

var checkCmd = &cobra.Command{
	Use:   "check [file...]",
	Short: "Validate host definition files",
	Long: `Loads each definition file and reports every problem found in it.
Without arguments the --def file, or the built-in sample, is checked.`,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		if _, err := loadDefinition(); err != nil {
			fmt.Fprintln(out, errorStyle.Render(err.Error()))
			return err
		}
		fmt.Fprintln(out, okStyle.Render("ok"))
		return nil
	}

	var failed error
	for _, path := range args {
		d, err := def.Load(path)
		if err != nil {
			fmt.Fprintf(out, "%s %s\n", errorStyle.Render("FAIL"), path)
			for _, e := range multierr.Errors(err) {
				fmt.Fprintf(out, "  %s\n", e)
			}
			failed = multierr.Append(failed, err)
			continue
		}
		fmt.Fprintf(out, "%s %s (%d classes, %d objects)\n",
			okStyle.Render("ok"), path, len(d.Classes), len(d.Objects))
	}
	return failed
}
