package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/skdltmxn/classfile-go/class"
	"github.com/skdltmxn/classfile-go/classfile"
	"github.com/skdltmxn/classfile-go/internal/bytecode"
)

var (
	dumpFormat string
)

var dumpCmd = &cobra.Command{
	Use:   "dump <class-file>",
	Short: "Dump all class file information",
	Long: `Dump the constant pool, members, attributes and bytecode of a class file
in structured format.

Supported formats:
  - text: Human-readable text (default)
  - json: JSON format
  - yaml: YAML format`,
	Args: cobra.ExactArgs(1),
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().StringVarP(&dumpFormat, "format", "f", "text", "output format (text, json, yaml)")
}

func runDump(cmd *cobra.Command, args []string) error {
	c, err := openClass(args[0])
	if err != nil {
		return err
	}
	d, err := buildDump(c, args[0])
	if err != nil {
		return err
	}

	switch dumpFormat {
	case "json":
		enc := json.NewEncoder(output)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	case "yaml":
		data, err := yaml.Marshal(d)
		if err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		_, err = output.Write(data)
		return err
	case "text":
		d.writeText(output)
		return nil
	default:
		return fmt.Errorf("unknown format: %s", dumpFormat)
	}
}

type ClassDump struct {
	File        string       `json:"file"`
	Name        string       `json:"name"`
	Major       uint16       `json:"major"`
	Minor       uint16       `json:"minor"`
	AccessFlags string       `json:"access_flags"`
	Super       string       `json:"super,omitempty"`
	Interfaces  []string     `json:"interfaces,omitempty"`
	Pool        []PoolDump   `json:"constant_pool"`
	Fields      []MemberDump `json:"fields"`
	Methods     []MemberDump `json:"methods"`
	Attributes  []string     `json:"attributes"`
}

type PoolDump struct {
	Index int    `json:"index"`
	Tag   string `json:"tag"`
	Value string `json:"value"`
}

type MemberDump struct {
	Kind        string    `json:"kind"`
	Name        string    `json:"name"`
	Descriptor  string    `json:"descriptor"`
	AccessFlags string    `json:"access_flags"`
	Attributes  []string  `json:"attributes,omitempty"`
	Code        *CodeDump `json:"code,omitempty"`
}

type CodeDump struct {
	MaxStack     uint16   `json:"max_stack"`
	MaxLocals    uint16   `json:"max_locals"`
	Instructions []string `json:"instructions"`
	Handlers     int      `json:"exception_handlers,omitempty"`
}

func buildDump(c *class.Class, path string) (*ClassDump, error) {
	cf := c.ClassFile()
	cp := cf.ConstPool()
	d := &ClassDump{
		File:        path,
		Name:        c.Name(),
		Major:       cf.MajorVersion(),
		Minor:       cf.MinorVersion(),
		AccessFlags: classfile.ClassFlagsString(cf.AccessFlags()),
		Super:       c.Superclass(),
		Interfaces:  c.Interfaces(),
		Attributes:  attributeNames(cf.Attributes()),
	}

	for i := 1; i < cp.Len(); i++ {
		e, err := cp.Entry(i)
		if err != nil {
			continue
		}
		d.Pool = append(d.Pool, PoolDump{Index: i, Tag: e.Tag.String(), Value: describeEntry(cp, e)})
	}

	for _, f := range c.Fields() {
		d.Fields = append(d.Fields, MemberDump{
			Kind:        f.Kind().String(),
			Name:        f.Name(),
			Descriptor:  f.Descriptor(),
			AccessFlags: classfile.FieldFlagsString(f.Modifiers()),
			Attributes:  attributeNames(f.Info().Attributes()),
		})
	}

	var behaviors []class.Behavior
	for _, ctor := range c.Constructors() {
		behaviors = append(behaviors, ctor)
	}
	for _, m := range c.Methods() {
		behaviors = append(behaviors, m)
	}
	for _, b := range behaviors {
		md := MemberDump{
			Kind:        b.Kind().String(),
			Name:        b.Info().Name(),
			Descriptor:  b.Descriptor(),
			AccessFlags: classfile.MethodFlagsString(b.Modifiers()),
			Attributes:  attributeNames(b.Info().Attributes()),
		}
		code, err := b.Info().Code()
		if err != nil {
			return nil, fmt.Errorf("failed to read code of %s: %w", b, err)
		}
		if code != nil {
			if md.Code, err = dumpCode(cp, code); err != nil {
				return nil, fmt.Errorf("failed to decode code of %s: %w", b, err)
			}
		}
		d.Methods = append(d.Methods, md)
	}
	return d, nil
}

func attributeNames(attrs *classfile.Attributes) []string {
	var out []string
	for _, a := range attrs.All() {
		out = append(out, a.Name())
	}
	return out
}

func dumpCode(cp *classfile.ConstPool, code *classfile.CodeAttribute) (*CodeDump, error) {
	cd := &CodeDump{
		MaxStack:  code.MaxStack,
		MaxLocals: code.MaxLocals,
		Handlers:  len(code.ExceptionTable),
	}
	err := bytecode.Walk(code.Code, func(in bytecode.Instruction) error {
		s := fmt.Sprintf("%4d: %s", in.PC, in.Opcode)
		if idx, _, ok := bytecode.PoolIndex(code.Code, in.PC); ok {
			s += fmt.Sprintf(" #%d", idx)
			if e, err := cp.Entry(int(idx)); err == nil {
				s += " // " + describeEntry(cp, e)
			}
		}
		if targets, err := bytecode.Targets(code.Code, in.PC); err == nil {
			for _, t := range targets {
				s += fmt.Sprintf(" ->%d", t)
			}
		}
		cd.Instructions = append(cd.Instructions, s)
		return nil
	})
	return cd, err
}

// describeEntry renders a pool entry with its references resolved.
func describeEntry(cp *classfile.ConstPool, e classfile.Entry) string {
	switch e.Tag {
	case classfile.TagUtf8:
		return strconv.Quote(e.Str)
	case classfile.TagInteger:
		return strconv.FormatInt(int64(int32(e.Bits)), 10)
	case classfile.TagLong:
		return strconv.FormatInt(int64(e.Bits), 10) + "L"
	case classfile.TagFloat, classfile.TagDouble:
		return fmt.Sprintf("bits 0x%x", e.Bits)
	case classfile.TagClass, classfile.TagString, classfile.TagMethodType, classfile.TagModule, classfile.TagPackage:
		s, _ := cp.Utf8(int(e.A))
		return s
	case classfile.TagNameAndType:
		name, _ := cp.Utf8(int(e.A))
		desc, _ := cp.Utf8(int(e.B))
		return name + ":" + desc
	case classfile.TagFieldref, classfile.TagMethodref, classfile.TagInterfaceMethodref:
		owner, _ := cp.ClassNameInternal(int(e.A))
		name, desc, _ := cp.NameAndType(int(e.B))
		return owner + "." + name + ":" + desc
	case classfile.TagMethodHandle:
		ref, err := cp.Entry(int(e.B))
		if err != nil {
			return fmt.Sprintf("kind %d #%d", e.A, e.B)
		}
		return fmt.Sprintf("kind %d %s", e.A, describeEntry(cp, ref))
	case classfile.TagDynamic, classfile.TagInvokeDynamic:
		name, desc, _ := cp.NameAndType(int(e.B))
		return fmt.Sprintf("bootstrap %d %s:%s", e.A, name, desc)
	}
	return ""
}

func (d *ClassDump) writeText(w io.Writer) {
	fmt.Fprintln(w, "=== Class Information ===")
	fmt.Fprintf(w, "File: %s\n", d.File)
	fmt.Fprintf(w, "Name: %s\n", d.Name)
	fmt.Fprintf(w, "Version: %d.%d\n", d.Major, d.Minor)
	fmt.Fprintf(w, "Access Flags: %s\n", d.AccessFlags)
	fmt.Fprintf(w, "Super: %s\n", orNone(d.Super))
	for _, iface := range d.Interfaces {
		fmt.Fprintf(w, "Implements: %s\n", iface)
	}
	fmt.Fprintf(w, "Attributes: %v\n", d.Attributes)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Constant Pool ===")
	for _, e := range d.Pool {
		fmt.Fprintf(w, "#%-5d %-20s %s\n", e.Index, e.Tag, e.Value)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Fields ===")
	for _, f := range d.Fields {
		fmt.Fprintf(w, "%s %s:%s %v\n", f.AccessFlags, f.Name, f.Descriptor, f.Attributes)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Methods ===")
	for _, m := range d.Methods {
		fmt.Fprintf(w, "%s %s%s %v\n", m.AccessFlags, m.Name, m.Descriptor, m.Attributes)
		if m.Code == nil {
			continue
		}
		fmt.Fprintf(w, "  stack=%d locals=%d handlers=%d\n", m.Code.MaxStack, m.Code.MaxLocals, m.Code.Handlers)
		for _, in := range m.Code.Instructions {
			fmt.Fprintf(w, "  %s\n", in)
		}
	}
}
