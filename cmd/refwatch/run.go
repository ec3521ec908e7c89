package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/wippyai/hostref/hostvm"
	"github.com/wippyai/hostref/ref"
)

var (
	workers    int
	iterations int
	leak       bool
	missing    bool
	strict     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a workload and print a leak report",
	Long: `Attaches --workers threads, each walking every seeded object
--iterations times through the ref package, then prints what the host
runtime recorded.

--leak and --missing inject a deliberate leak and a failed class lookup
into every pass.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := runOnce(cmd.Context())
		fmt.Fprint(cmd.OutOrStdout(), report)
		return err
	},
}

func init() {
	for _, c := range []*cobra.Command{runCmd, watchCmd} {
		c.Flags().IntVarP(&workers, "workers", "w", 4, "number of attached threads")
		c.Flags().IntVarP(&iterations, "iterations", "n", 100, "passes per thread")
		c.Flags().BoolVar(&leak, "leak", false, "leak one string reference per pass")
		c.Flags().BoolVar(&missing, "missing", false, "look up an unknown class per pass")
	}
	runCmd.Flags().BoolVar(&strict, "strict", false, "fail on leaks or violations")
}

// runOnce creates a VM, runs the workload once and renders the report.
func runOnce(ctx context.Context) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	d, err := loadDefinition()
	if err != nil {
		return "", err
	}

	vm, err := hostvm.New(ctx, vmOptions(d)...)
	if err != nil {
		return "", err
	}
	ref.RegisterHost(vm)

	w := &workload{def: d, workers: workers, iterations: iterations, leak: leak, missing: missing}
	runErr := w.run(ctx)

	closeErr := vm.Close(ctx)
	stats := vm.Stats()
	violations := vm.Violations()
	report := renderReport(stats, violations)

	err = multierr.Combine(runErr, closeErr)
	if strict && (stats.LeakedRefs > 0 || len(violations) > 0) {
		err = multierr.Append(err, fmt.Errorf("%d leaked references, %d violations", stats.LeakedRefs, len(violations)))
	}
	return report, err
}
