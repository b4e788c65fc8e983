package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skdltmxn/classfile-go/classfile"
)

var infoCmd = &cobra.Command{
	Use:   "info <class-file>",
	Short: "Display class file information",
	Long:  `Display general information about a class file including version, access flags, super class, interfaces and member counts.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	path := args[0]

	c, err := openClass(path)
	if err != nil {
		return err
	}
	cf := c.ClassFile()

	fmt.Fprintf(output, "Class File: %s\n", path)
	fmt.Fprintf(output, "Class: %s\n", c.Name())
	fmt.Fprintf(output, "Version: %d.%d\n", cf.MajorVersion(), cf.MinorVersion())
	fmt.Fprintf(output, "Access Flags: 0x%04X (%s)\n", cf.AccessFlags(), classfile.ClassFlagsString(cf.AccessFlags()))
	fmt.Fprintf(output, "Super Class: %s\n", orNone(c.Superclass()))
	fmt.Fprintf(output, "Interfaces: %s\n", orNone(strings.Join(c.Interfaces(), ", ")))
	if src := cf.SourceFile(); src != "" {
		fmt.Fprintf(output, "Source File: %s\n", src)
	}
	fmt.Fprintf(output, "Constant Pool Count: %d\n", cf.ConstPool().Len())
	fmt.Fprintf(output, "Fields: %d\n", len(c.Fields()))
	fmt.Fprintf(output, "Methods: %d\n", len(c.Methods()))
	fmt.Fprintf(output, "Constructors: %d\n", len(c.DeclaredConstructors()))
	fmt.Fprintf(output, "Class Initializer: %t\n", c.ClassInitializer() != nil)
	fmt.Fprintf(output, "Attributes: %d\n", cf.Attributes().Len())

	return nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
