package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	slogmulti "github.com/samber/slog-multi"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kernelstub/bindiff/pkg/analysis"
	"github.com/kernelstub/bindiff/pkg/diff"
	"github.com/kernelstub/bindiff/pkg/disasm"
	"github.com/kernelstub/bindiff/pkg/loader"
	"github.com/kernelstub/bindiff/pkg/report"
)

var (
	cfgFile       string
	outJSON       string
	outHTML       string
	symbolMapPath string
	verbose       bool
	interactive   bool
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "bindiff <old> <new>",
	Short: "Function-level binary diffing (x86_64, ELF & PE)",
	Long: `Bindiff compares the function symbol inventories of two compiled x86_64
binaries and classifies every function as unchanged, modified, added, or
removed. Modified pairs get a similarity score and a unified diff of their
normalized instruction streams.`,
	Args:         cobra.ExactArgs(2),
	RunE:         runDiff,
	SilenceUsage: true,
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	err := RootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initLogging)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.bindiff.yaml)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	RootCmd.Flags().StringVarP(&outJSON, "out-json", "o", "", "write a JSON report to this path")
	RootCmd.Flags().StringVarP(&outHTML, "out-html", "H", "", "write an HTML report to this path")
	RootCmd.Flags().StringVar(&symbolMapPath, "symbol-map", "", "YAML file of old-name: new-name pairs applied to the old binary's symbols before matching")
	RootCmd.Flags().BoolVar(&interactive, "tui", false, "open an interactive viewer after printing the summary")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".bindiff" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".bindiff")
	}

	viper.SetDefault("color", true)
	viper.SetEnvPrefix("bindiff")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	if !viper.GetBool("color") {
		color.NoColor = true
	}
}

// initLogging installs the default slog logger: text on stderr, fanned out to
// a log file when one is configured.
func initLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	handler := slog.Handler(slog.NewTextHandler(os.Stderr, opts))
	if logFile := viper.GetString("log-file"); logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Cannot open log file:", err)
		} else {
			handler = slogmulti.Fanout(handler, slog.NewTextHandler(f, opts))
		}
	}

	slog.SetDefault(slog.New(handler))
}

func runDiff(cmd *cobra.Command, args []string) error {
	pathA, pathB := args[0], args[1]

	slog.Debug("loading binaries", "a", pathA, "b", pathB)
	binA, err := loader.Load(pathA)
	if err != nil {
		return err
	}
	binB, err := loader.Load(pathB)
	if err != nil {
		return err
	}

	slog.Debug("disassembling functions")
	fa, err := disasm.DisassembleFunctions(binA)
	if err != nil {
		return err
	}
	fb, err := disasm.DisassembleFunctions(binB)
	if err != nil {
		return err
	}

	if symbolMapPath != "" {
		if err := applySymbolMap(symbolMapPath, fa); err != nil {
			return err
		}
	}

	slog.Debug("hashing functions", "a", len(fa), "b", len(fb))
	ha := make([]analysis.FunctionHash, len(fa))
	for i := range fa {
		ha[i] = analysis.HashFunction(&fa[i])
	}
	hb := make([]analysis.FunctionHash, len(fb))
	for i := range fb {
		hb[i] = analysis.HashFunction(&fb[i])
	}

	slog.Debug("matching")
	result := diff.MatchFunctions(fa, fb, ha, hb)

	printSummary(&result)

	if outJSON != "" {
		if err := diff.WriteJSON(&result, outJSON); err != nil {
			return err
		}
		fmt.Printf("Wrote JSON report to %s\n", outJSON)
	}

	if outHTML != "" {
		if err := report.WriteHTML(&result, outHTML); err != nil {
			return err
		}
		fmt.Printf("Wrote HTML report to %s\n", outHTML)
	}

	if interactive {
		return report.ShowTUI(&result)
	}

	return nil
}

func printSummary(result *diff.DiffResult) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	blue := color.New(color.FgBlue)
	red := color.New(color.FgRed)
	modTag := color.New(color.FgYellow, color.Bold)

	bold.Println("=== Summary ===")
	fmt.Printf("  %s %d\n", green.Sprint("Unchanged:"), len(result.Unchanged))
	fmt.Printf("  %s %d\n", yellow.Sprint("Modified:"), len(result.Modified))
	fmt.Printf("  %s %d\n", blue.Sprint("Added:"), len(result.Added))
	fmt.Printf("  %s %d\n", red.Sprint("Removed:"), len(result.Removed))
	fmt.Println()

	for _, m := range result.Modified {
		nameA, nameB := "?", "?"
		if m.NameA != nil {
			nameA = *m.NameA
		}
		if m.NameB != nil {
			nameB = *m.NameB
		}
		fmt.Printf("%s %s -> %s\n", modTag.Sprint("MOD"), nameA, nameB)
	}
}
