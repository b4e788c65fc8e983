package main

import (
	"bytes"
	"fmt"

	difflib "github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"
)

var (
	diffContext int
)

var diffCmd = &cobra.Command{
	Use:   "diff <class-file> <class-file>",
	Short: "Compare two class files",
	Long:  `Print a unified diff of the text dumps of two class files.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runDiff,
}

func init() {
	diffCmd.Flags().IntVarP(&diffContext, "context", "U", 3, "number of context lines")
}

func runDiff(cmd *cobra.Command, args []string) error {
	texts := make([]string, 2)
	for i, path := range args {
		c, err := openClass(path)
		if err != nil {
			return err
		}
		d, err := buildDump(c, path)
		if err != nil {
			return err
		}
		// The file line would always differ.
		d.File = ""
		var buf bytes.Buffer
		d.writeText(&buf)
		texts[i] = buf.String()
	}

	s, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(texts[0]),
		B:        difflib.SplitLines(texts[1]),
		FromFile: args[0],
		ToFile:   args[1],
		Context:  diffContext,
	})
	if err != nil {
		return fmt.Errorf("failed to diff: %w", err)
	}
	if s == "" {
		fmt.Fprintln(output, "No differences")
		return nil
	}
	fmt.Fprint(output, s)
	return nil
}
