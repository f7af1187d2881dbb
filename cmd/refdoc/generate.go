package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/refdoc"
	"github.com/jward/refdoc/scripts"
)

var (
	flagOut    string
	flagForce  bool
	flagScript string
	flagSerial bool
)

var generateCmd = &cobra.Command{
	Use:   "generate [dir]",
	Short: "Generate the reference pages and navigation manifest",
	Long:  "Type-checks the module, discovers exported factory handles, renders one markdown page per handle, and writes the pages plus nav.yaml into the output directory. Unchanged pages are skipped via the artifact cache.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&flagOut, "out", "", "output directory (overrides config)")
	generateCmd.Flags().BoolVar(&flagForce, "force", false, "rewrite every page even when unchanged")
	generateCmd.Flags().StringVar(&flagScript, "script", "", "render script path or builtin:<name> (overrides config)")
	generateCmd.Flags().BoolVar(&flagSerial, "serial", false, "build documents serially instead of in parallel")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	start := time.Now()

	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	if flagOut != "" {
		cfg.Output = flagOut
	}
	if flagScript != "" {
		cfg.Script = flagScript
	}

	log := buildLogger()
	defer log.Sync()

	opts := []refdoc.Option{
		refdoc.WithLogger(log),
		refdoc.WithScriptsFS(scripts.FS),
	}
	if flagSerial {
		opts = append(opts, refdoc.WithParallel(false))
	}

	engine, err := refdoc.New(cfg, opts...)
	if err != nil {
		return err
	}

	ctx := context.Background()

	genStart := time.Now()
	set, err := engine.Generate(ctx)
	if err != nil {
		return err
	}
	genDuration := time.Since(genStart)

	writeStart := time.Now()
	stats, err := engine.Write(ctx, set, flagForce)
	if err != nil {
		return err
	}
	writeDuration := time.Since(writeStart)

	fmt.Fprintf(os.Stderr, "Documented %d handle(s) in %s (analyze: %s, write: %s)\n",
		len(set.Pages),
		time.Since(start).Round(time.Millisecond),
		genDuration.Round(time.Millisecond),
		writeDuration.Round(time.Millisecond),
	)
	fmt.Fprintf(os.Stderr, "Output: %s (%d written, %d skipped, %d pruned)\n",
		cfg.Output, stats.Written, stats.Skipped, stats.Removed)

	return nil
}
