package main

import (
	"errors"
	"fmt"
	"maps"

	"github.com/spf13/cobra"

	"github.com/skdltmxn/classfile-go/names"
)

var (
	renameMap   map[string]string
	renameWrite string
)

var renameCmd = &cobra.Command{
	Use:   "rename <class-file> [<old> <new>]",
	Short: "Rename classes referenced by a class file",
	Long: `Replace every reference to a class in a class file, including the
class's own name, descriptors, signatures and annotations.

Renames come from the <old> <new> arguments, from --map and from the
[rename.classes] table of the configuration file. They are applied in a
single pass. Names may use either dotted or slash notation.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 && len(args) != 3 {
			return errors.New("requires <class-file> optionally followed by <old> <new>")
		}
		return nil
	},
	RunE: runRename,
}

func init() {
	renameCmd.Flags().StringToStringVarP(&renameMap, "map", "m", nil, "additional renames old=new")
	renameCmd.Flags().StringVarP(&renameWrite, "write", "w", "", "write the renamed class file here")
	_ = renameCmd.MarkFlagRequired("write")
}

func runRename(cmd *cobra.Command, args []string) error {
	renames := make(map[string]string)
	maps.Copy(renames, cfg.Rename.Classes)
	maps.Copy(renames, renameMap)
	if len(args) == 3 {
		renames[args[1]] = args[2]
	}
	if len(renames) == 0 {
		return errors.New("no renames given")
	}
	internal := make(map[string]string, len(renames))
	for oldName, newName := range renames {
		internal[names.ToInternal(oldName)] = names.ToInternal(newName)
	}

	c, err := openClass(args[0])
	if err != nil {
		return err
	}
	before := c.Name()
	if err := c.RenameClasses(internal); err != nil {
		return fmt.Errorf("failed to rename: %w", err)
	}
	if err := writeClass(c, renameWrite); err != nil {
		return err
	}

	fmt.Fprintf(output, "Renamed: %s -> %s\n", before, c.Name())
	fmt.Fprintf(output, "Mappings: %d\n", len(internal))
	fmt.Fprintf(output, "Written: %s\n", renameWrite)
	return nil
}
