package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skdltmxn/classfile-go/class"
)

var (
	compactWrite string
	pruneWrite   string
)

var compactCmd = &cobra.Command{
	Use:   "compact <class-file>",
	Short: "Remove unused constant pool entries",
	Long:  `Rebuild the constant pool of a class file from the entries that are still referenced.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return rewritePool(args[0], compactWrite, (*class.Class).Compact)
	},
}

var pruneCmd = &cobra.Command{
	Use:   "prune <class-file>",
	Short: "Drop attributes that are not needed to use the class",
	Long: `Compact the constant pool and drop every attribute except annotations,
signatures, exceptions, constant values and annotation defaults. Method
bodies are removed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return rewritePool(args[0], pruneWrite, (*class.Class).Prune)
	},
}

func init() {
	compactCmd.Flags().StringVarP(&compactWrite, "write", "w", "", "write the compacted class file here")
	_ = compactCmd.MarkFlagRequired("write")
	pruneCmd.Flags().StringVarP(&pruneWrite, "write", "w", "", "write the pruned class file here")
	_ = pruneCmd.MarkFlagRequired("write")
}

func rewritePool(path, dst string, rewrite func(*class.Class) error) error {
	c, err := openClass(path)
	if err != nil {
		return err
	}
	before := c.ClassFile().ConstPool().Len()
	if err := rewrite(c); err != nil {
		return fmt.Errorf("failed to rewrite %s: %w", path, err)
	}
	if err := writeClass(c, dst); err != nil {
		return err
	}

	fmt.Fprintf(output, "Constant Pool Count: %d -> %d\n", before, c.ClassFile().ConstPool().Len())
	fmt.Fprintf(output, "Written: %s\n", dst)
	return nil
}
