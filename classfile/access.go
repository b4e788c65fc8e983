package classfile

import "strings"

// Access and property flags of classes, fields and methods.
const (
	AccPublic       uint16 = 0x0001
	AccPrivate      uint16 = 0x0002
	AccProtected    uint16 = 0x0004
	AccStatic       uint16 = 0x0008
	AccFinal        uint16 = 0x0010
	AccSuper        uint16 = 0x0020 // classes
	AccSynchronized uint16 = 0x0020 // methods
	AccVolatile     uint16 = 0x0040 // fields
	AccBridge       uint16 = 0x0040 // methods
	AccTransient    uint16 = 0x0080 // fields
	AccVarargs      uint16 = 0x0080 // methods
	AccNative       uint16 = 0x0100
	AccInterface    uint16 = 0x0200
	AccAbstract     uint16 = 0x0400
	AccStrict       uint16 = 0x0800
	AccSynthetic    uint16 = 0x1000
	AccAnnotation   uint16 = 0x2000
	AccEnum         uint16 = 0x4000
	AccModule       uint16 = 0x8000 // classes
	AccMandated     uint16 = 0x8000 // parameters
)

type flagName struct {
	flag uint16
	name string
}

var methodFlagNames = []flagName{
	{AccPublic, "public"}, {AccPrivate, "private"}, {AccProtected, "protected"},
	{AccStatic, "static"}, {AccFinal, "final"}, {AccSynchronized, "synchronized"},
	{AccBridge, "bridge"}, {AccVarargs, "varargs"}, {AccNative, "native"},
	{AccAbstract, "abstract"}, {AccStrict, "strict"}, {AccSynthetic, "synthetic"},
}

var fieldFlagNames = []flagName{
	{AccPublic, "public"}, {AccPrivate, "private"}, {AccProtected, "protected"},
	{AccStatic, "static"}, {AccFinal, "final"}, {AccVolatile, "volatile"},
	{AccTransient, "transient"}, {AccSynthetic, "synthetic"}, {AccEnum, "enum"},
}

var classFlagNames = []flagName{
	{AccPublic, "public"}, {AccFinal, "final"}, {AccSuper, "super"},
	{AccInterface, "interface"}, {AccAbstract, "abstract"}, {AccSynthetic, "synthetic"},
	{AccAnnotation, "annotation"}, {AccEnum, "enum"}, {AccModule, "module"},
}

func formatFlags(flags uint16, table []flagName) string {
	var parts []string
	for _, f := range table {
		if flags&f.flag != 0 {
			parts = append(parts, f.name)
		}
	}
	return strings.Join(parts, " ")
}

// MethodFlagsString renders method access flags as space-separated keywords.
func MethodFlagsString(flags uint16) string { return formatFlags(flags, methodFlagNames) }

// FieldFlagsString renders field access flags as space-separated keywords.
func FieldFlagsString(flags uint16) string { return formatFlags(flags, fieldFlagNames) }

// ClassFlagsString renders class access flags as space-separated keywords.
func ClassFlagsString(flags uint16) string { return formatFlags(flags, classFlagNames) }
