package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jward/refdoc"
)

var flagPrefix string

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the artifact cache",
	Long:  "The artifact cache lives under <output>/.refdoc/cache.db and records what each page was rendered from, so unchanged pages are skipped and stale pages pruned.",
}

func init() {
	cacheCmd.PersistentFlags().StringVar(&flagPrefix, "prefix", "", "filter cached artifacts by id prefix")

	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status [dir]",
	Short: "Show cached artifacts",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCacheStatus,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [dir]",
	Short: "Empty the artifact cache",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCacheClear,
}

// openQuery resolves the config for args and opens the cache read
// surface. Cache commands never trigger analysis, so the config is not
// validated beyond locating the output directory.
func openQuery(args []string) (*refdoc.Query, error) {
	cfg, err := loadConfig(args)
	if err != nil {
		return nil, err
	}
	return refdoc.OpenQuery(cfg)
}

func runCacheStatus(cmd *cobra.Command, args []string) error {
	q, err := openQuery(args)
	if err != nil {
		return outputError("cache-status", err)
	}
	defer q.Close()

	artifacts, err := q.Artifacts(flagPrefix)
	if err != nil {
		return outputError("cache-status", err)
	}

	rows := make([]CLIArtifact, 0, len(artifacts))
	for _, a := range artifacts {
		rows = append(rows, CLIArtifact{
			ID:         a.ID,
			Name:       a.Name,
			FileName:   a.FileName,
			RenderedAt: a.RenderedAt,
		})
	}
	count := len(rows)
	return outputResult(CLIResult{Command: "cache-status", Results: rows, TotalCount: &count})
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	q, err := openQuery(args)
	if err != nil {
		return err
	}
	defer q.Close()

	count, err := q.Count()
	if err != nil {
		return err
	}
	if err := q.Clear(); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Cleared %d cached artifact(s)\n", count)
	return nil
}
