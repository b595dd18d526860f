package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cfgpkg "github.com/KaramelBytes/claimvision-cli/internal/config"
	"github.com/KaramelBytes/claimvision-cli/internal/pipeline"
)

var (
	// Global flags
	cfgFile   string
	debug     bool
	logFormat string
	noColor   bool

	// Loaded configuration
	cfg *cfgpkg.Global
)

var (
	okMark   = color.New(color.FgGreen).Sprint("✓")
	warnMark = color.New(color.FgYellow).Sprint("⚠")
	errMark  = color.New(color.FgRed).Sprint("✗")
)

var rootCmd = &cobra.Command{
	Use:   "claimvision",
	Short: "ClaimVision: insurance-claim cleaning, KPIs and claim prediction",
	Long: `ClaimVision cleans raw insurance-claim records, stores them in a local SQLite
database, exports claim KPIs and high-cost anomalies, trains a claim classifier
and renders KPI charts.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errMark, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.claimvision/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: console|json (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

func loadConfig() {
	if noColor {
		color.NoColor = true
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: config commands can still repair the file
		fmt.Fprintf(os.Stderr, "%s Warning: failed to load config: %v\n", warnMark, err)
		return
	}
	cfg = c
	if debug {
		cfg.LogLevel = "debug"
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
}

// requireConfig returns the loaded config or the reason it is missing.
func requireConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg = c
	return cfg, nil
}

// newPipeline builds a pipeline whose events go to a zap logger on stderr.
// The returned func flushes the logger.
func newPipeline() (*pipeline.Pipeline, func(), error) {
	c, err := requireConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := pipeline.NewLogger(c.LogLevel, c.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	p := pipeline.New(pipeline.FromGlobal(c), pipeline.ZapSink{Logger: logger})
	logger.Debug("pipeline ready", zap.String("run_id", p.RunID()), zap.String("database", c.DatabasePath))
	return p, func() { _ = logger.Sync() }, nil
}

func okf(cmd *cobra.Command, format string, a ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", okMark, fmt.Sprintf(format, a...))
}

func warnf(cmd *cobra.Command, format string, a ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", warnMark, fmt.Sprintf(format, a...))
}
