package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jward/refdoc/internal/config"
)

var (
	flagConfig  string
	flagFormat  string
	flagVerbose bool
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "refdoc",
	Short:         "Generate reference docs for factory-published API handles",
	Long:          "Refdoc finds every exported handle published through a designated generic factory function, documents its subject type from the Go type checker's view, and writes markdown pages plus a navigation manifest.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
	// No Run — prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file path (default: discover refdoc.yaml upward)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "log pipeline progress to stderr")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(cacheCmd)
}

// buildLogger returns a stderr console logger when --verbose is set,
// a Nop logger otherwise.
func buildLogger() *zap.SugaredLogger {
	if !flagVerbose {
		return zap.NewNop().Sugar()
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		zapcore.DebugLevel,
	)
	return zap.New(core).Sugar()
}

// loadConfig resolves the run configuration: an explicit --config path,
// otherwise refdoc.yaml discovered upward from the target directory,
// otherwise defaults rooted at the target directory.
func loadConfig(args []string) (config.Config, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return config.Config{}, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return config.Config{}, fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return config.Config{}, fmt.Errorf("not a directory: %s", abs)
	}

	path := flagConfig
	if path == "" {
		path, err = config.Discover(abs)
		if err != nil {
			return config.Config{}, err
		}
	}

	var cfg config.Config
	if path != "" {
		cfg, err = config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
	}
	if cfg.Module == "" {
		cfg.Module = abs
	}
	if cfg.Output == "" {
		cfg.Output = filepath.Join(abs, config.Default().Output)
	}
	return cfg.WithDefaults(), nil
}
