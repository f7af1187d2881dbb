package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// outputResult writes a result envelope in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(result)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so
// RunE can propagate it to Cobra. In JSON mode the error is written to
// stdout as a CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	result := CLIResult{
		Command: command,
		Error:   err.Error(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	return err
}

// formatDocumentsText formats CLIDocument results as aligned columns,
// with member rows indented beneath their document when present.
func formatDocumentsText(w io.Writer, docs []CLIDocument) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSHAPE\tMEMBERS\tPACKAGE\tOUTPUT")
	for _, d := range docs {
		name := d.Name
		if d.Deprecated {
			name += " (deprecated)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			d.ID, name, d.Shape, d.MemberCount, d.Package, d.OutputFile)
		for _, m := range d.Members {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t\t\t\n", m.Name, m.Kind, m.Signature)
		}
	}
	tw.Flush()
}

// formatArtifactsText formats CLIArtifact results as aligned columns.
func formatArtifactsText(w io.Writer, artifacts []CLIArtifact) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tFILE\tRENDERED")
	for _, a := range artifacts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			a.ID, a.Name, a.FileName, a.RenderedAt.Format("2006-01-02 15:04:05"))
	}
	tw.Flush()
}

// outputResultText dispatches to the appropriate text formatter based
// on the result type. It writes to os.Stdout.
func outputResultText(result CLIResult) error {
	w := io.Writer(os.Stdout)

	switch v := result.Results.(type) {
	case []CLIDocument:
		formatDocumentsText(w, v)
	case []CLIArtifact:
		formatArtifactsText(w, v)
	case nil:
		// No output for nil results.
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
