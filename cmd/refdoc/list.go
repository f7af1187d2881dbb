package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jward/refdoc"
	"github.com/jward/refdoc/scripts"
)

var flagMembers bool

var listCmd = &cobra.Command{
	Use:   "list [dir]",
	Short: "List the handles the pipeline would document",
	Long:  "Runs discovery and document building without writing anything, and prints the resulting documents in manifest order.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&flagMembers, "members", false, "include per-member rows in the output")
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return outputError("list", err)
	}

	log := buildLogger()
	defer log.Sync()

	engine, err := refdoc.New(cfg,
		refdoc.WithLogger(log),
		refdoc.WithScriptsFS(scripts.FS),
	)
	if err != nil {
		return outputError("list", err)
	}

	set, err := engine.Generate(context.Background())
	if err != nil {
		return outputError("list", err)
	}

	docs := make([]CLIDocument, 0, len(set.Pages))
	for _, p := range set.Pages {
		docs = append(docs, toCLIDocument(p.Doc, p.FileName, flagMembers))
	}
	count := len(docs)
	return outputResult(CLIResult{Command: "list", Results: docs, TotalCount: &count})
}

func toCLIDocument(doc refdoc.Document, fileName string, withMembers bool) CLIDocument {
	out := CLIDocument{
		ID:          doc.ID,
		Name:        doc.Name,
		Package:     doc.Package,
		File:        doc.File,
		Shape:       string(doc.Shape),
		Deprecated:  doc.Deprecated,
		MemberCount: len(doc.Members),
		OutputFile:  fileName,
	}
	if !withMembers {
		return out
	}
	out.Members = make([]CLIMember, 0, len(doc.Members))
	for _, m := range doc.Members {
		out.Members = append(out.Members, CLIMember{
			Name:       m.Name,
			Kind:       string(m.Kind),
			Signature:  m.Signature,
			Deprecated: m.Deprecated,
		})
	}
	return out
}
