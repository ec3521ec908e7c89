// Command refwatch runs native-style workloads through the ref package
// against the in-process host runtime and reports reference leaks and
// misuse.
package main

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/hostref/hostvm"
	"github.com/wippyai/hostref/hostvm/def"
	"github.com/wippyai/hostref/ref"
)

//go:embed sample.yaml
var sampleDefinition []byte

var (
	verbose     bool
	defPath     string
	copyStrings bool
	memoryPages uint32

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "refwatch",
	Short: "Audit reference handling against an in-process host runtime",
	Long: `refwatch drives the ref package against hostvm, an in-process host
runtime that records every reference it hands out.

Without --def the built-in sample definition is used.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config = zap.NewDevelopmentConfig()
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		l, err := config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		ref.SetLogger(l.Named("ref"))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVarP(&defPath, "def", "d", "", "host definition file (.yaml, .yml or .toml)")
	rootCmd.PersistentFlags().BoolVar(&copyStrings, "copy-strings", false, "hand out string copies instead of arena views")
	rootCmd.PersistentFlags().Uint32Var(&memoryPages, "memory-pages", 0, "string arena limit in 64KB pages (0 for the default)")

	rootCmd.AddCommand(checkCmd, runCmd, watchCmd)
}

// loadDefinition returns the --def file or the built-in sample.
func loadDefinition() (*def.Definition, error) {
	if defPath == "" {
		return def.Parse(sampleDefinition, def.FormatYAML)
	}
	return def.Load(defPath)
}

// vmOptions collects the hostvm options selected by flags.
func vmOptions(d *def.Definition) []hostvm.Option {
	opts := []hostvm.Option{
		hostvm.WithDefinition(d),
		hostvm.WithLogger(logger.Named("hostvm")),
		hostvm.WithCopyStrings(copyStrings),
	}
	if memoryPages > 0 {
		opts = append(opts, hostvm.WithMemoryLimitPages(memoryPages))
	}
	return opts
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
