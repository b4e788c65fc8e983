package classfile

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skdltmxn/classfile-go/internal/stream"
)

// newScenarioClass builds p.A with a public field x:I and a method m()V
// without code.
func newScenarioClass(t *testing.T, opts ...Option) *ClassFile {
	t.Helper()
	cf := New("p.A", "", false, opts...)
	cf.SetAccessFlags(AccPublic)

	f := NewField(cf.ConstPool(), "x", "I")
	f.SetAccessFlags(AccPublic)
	require.NoError(t, cf.AddField(f))

	m := NewMethod(cf.ConstPool(), "m", "()V")
	m.SetAccessFlags(AccPublic | AccAbstract)
	_, err := cf.AddMethod(m)
	require.NoError(t, err)
	return cf
}

// addHelloMethod adds
//
//	static void hello(p.A) { System.out.println("hello"); }
//
// with a LineNumberTable and a LocalVariableTable naming p.A.
func addHelloMethod(t *testing.T, cf *ClassFile) *MethodInfo {
	t.Helper()
	cp := cf.ConstPool()
	out := cp.AddFieldref("java/lang/System", "out", "Ljava/io/PrintStream;")
	str := cp.AddString("hello")
	printRef := cp.AddMethodref("java/io/PrintStream", "println", "(Ljava/lang/String;)V")
	require.Less(t, str, uint16(256))

	code := []byte{
		0xb2, byte(out >> 8), byte(out), // getstatic
		0x12, byte(str), // ldc
		0xb6, byte(printRef >> 8), byte(printRef), // invokevirtual
		0xb1, // return
	}
	c := NewCode(cp, 2, 1, code)

	var lines stream.Writer
	lines.WriteU16(1)
	lines.WriteU16(0)
	lines.WriteU16(7)
	c.Attributes.Set(NewAttribute(cp, AttrLineNumberTable, lines.Bytes()))

	var locals stream.Writer
	locals.WriteU16(1)
	locals.WriteU16(0)
	locals.WriteU16(uint16(len(code)))
	locals.WriteU16(cp.AddUtf8("self"))
	locals.WriteU16(cp.AddUtf8("Lp/A;"))
	locals.WriteU16(0)
	c.Attributes.Set(NewAttribute(cp, AttrLocalVariableTable, locals.Bytes()))

	m := NewMethod(cp, "hello", "(Lp/A;)V")
	m.SetAccessFlags(AccPublic | AccStatic)
	require.NoError(t, m.SetCode(c))
	_, err := cf.AddMethod(m)
	require.NoError(t, err)
	return m
}

// rawClass hand-encodes a class p/A with the given super_class index and
// no members. Pool: #1 Utf8 "p/A", #2 Class #1, #3 Utf8 "java/lang/Object",
// #4 Class #3.
func rawClass(super uint16) *stream.Writer {
	w := stream.NewWriter(64)
	w.WriteU32(Magic)
	w.WriteU16(0)
	w.WriteU16(Java8)
	w.WriteU16(5)
	w.WriteU8(uint8(TagUtf8))
	w.WriteU16(3)
	w.WriteBytes([]byte("p/A"))
	w.WriteU8(uint8(TagClass))
	w.WriteU16(1)
	w.WriteU8(uint8(TagUtf8))
	w.WriteU16(16)
	w.WriteBytes([]byte("java/lang/Object"))
	w.WriteU8(uint8(TagClass))
	w.WriteU16(3)
	w.WriteU16(AccPublic | AccSuper)
	w.WriteU16(2)
	w.WriteU16(super)
	w.WriteU16(0) // interfaces
	w.WriteU16(0) // fields
	w.WriteU16(0) // methods
	w.WriteU16(0) // attributes
	return w
}

func roundTrip(t *testing.T, cf *ClassFile, opts ...Option) *ClassFile {
	t.Helper()
	b, err := cf.Bytes()
	require.NoError(t, err)
	out, err := Parse(b, opts...)
	require.NoError(t, err)
	return out
}

func descriptors(cf *ClassFile) []string {
	var out []string
	for _, f := range cf.Fields() {
		out = append(out, f.Name()+":"+f.Descriptor())
	}
	for _, m := range cf.Methods() {
		out = append(out, m.Name()+m.Descriptor())
	}
	return out
}
