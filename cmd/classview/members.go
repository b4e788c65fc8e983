package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skdltmxn/classfile-go/class"
	"github.com/skdltmxn/classfile-go/classfile"
)

var (
	membersFilter  string
	membersVisible string
)

var membersCmd = &cobra.Command{
	Use:   "members <class-file>",
	Short: "List fields, constructors and methods",
	Long: `List the fields, constructors and methods of a class file with their
descriptors and access flags.

With --visible-from, only members accessible from the named class are shown.
The named class is assumed to extend java.lang.Object.`,
	Args: cobra.ExactArgs(1),
	RunE: runMembers,
}

func init() {
	membersCmd.Flags().StringVarP(&membersFilter, "filter", "f", "", "show only members whose name contains this string")
	membersCmd.Flags().StringVar(&membersVisible, "visible-from", "", "show only members visible from this class")
}

func runMembers(cmd *cobra.Command, args []string) error {
	c, err := openClass(args[0])
	if err != nil {
		return err
	}

	var from *class.Class
	if membersVisible != "" {
		from = class.New(classfile.New(membersVisible, "", false), classOptions()...)
	}
	show := func(m class.Member) bool {
		if membersFilter != "" && !strings.Contains(m.Name(), membersFilter) {
			return false
		}
		return from == nil || m.VisibleFrom(from)
	}

	fmt.Fprintf(output, "%-12s %-30s %-40s %s\n", "KIND", "NAME", "DESCRIPTOR", "FLAGS")
	fmt.Fprintf(output, "%s\n", strings.Repeat("-", 100))

	count := 0
	for _, f := range c.Fields() {
		if show(f) {
			printMember(f, classfile.FieldFlagsString(f.Modifiers()))
			count++
		}
	}
	for _, ctor := range c.Constructors() {
		if show(ctor) {
			printMember(ctor, classfile.MethodFlagsString(ctor.Modifiers()))
			count++
		}
	}
	for _, m := range c.Methods() {
		if show(m) {
			printMember(m, classfile.MethodFlagsString(m.Modifiers()))
			count++
		}
	}

	fmt.Fprintf(output, "\nTotal: %d members\n", count)
	return nil
}

func printMember(m class.Member, flags string) {
	fmt.Fprintf(output, "%-12s %-30s %-40s %s\n", m.Kind(), m.Name(), m.Descriptor(), flags)
}
