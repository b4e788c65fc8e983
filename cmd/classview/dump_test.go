package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/skdltmxn/classfile-go/class"
	"github.com/skdltmxn/classfile-go/classfile"
)

func newHelloClass(t *testing.T, maxStack uint16) *class.Class {
	t.Helper()
	cf := classfile.New("p.Hello", "", false)
	cp := cf.ConstPool()
	out := cp.AddFieldref("java/lang/System", "out", "Ljava/io/PrintStream;")
	str := cp.AddString("hi")
	printRef := cp.AddMethodref("java/io/PrintStream", "println", "(Ljava/lang/String;)V")
	code := []byte{
		0xb2, byte(out >> 8), byte(out),
		0x12, byte(str),
		0xb6, byte(printRef >> 8), byte(printRef),
		0xb1,
	}
	m := classfile.NewMethod(cp, "main", "()V")
	m.SetAccessFlags(classfile.AccPublic | classfile.AccStatic)
	require.NoError(t, m.SetCode(classfile.NewCode(cp, maxStack, 0, code)))
	_, err := cf.AddMethod(m)
	require.NoError(t, err)
	return class.New(cf)
}

func TestBuildDump(t *testing.T) {
	d, err := buildDump(newHelloClass(t, 2), "Hello.class")
	require.NoError(t, err)
	assert.Equal(t, "p.Hello", d.Name)
	assert.Equal(t, "java.lang.Object", d.Super)
	require.Len(t, d.Methods, 1)
	require.NotNil(t, d.Methods[0].Code)
	assert.Len(t, d.Methods[0].Code.Instructions, 4)
	assert.Contains(t, d.Methods[0].Code.Instructions[0], "getstatic")
	assert.Contains(t, d.Methods[0].Code.Instructions[0], "java/lang/System.out:Ljava/io/PrintStream;")

	var buf bytes.Buffer
	d.writeText(&buf)
	assert.Contains(t, buf.String(), "=== Constant Pool ===")
	assert.Contains(t, buf.String(), `"hi"`)
}

func TestDescribeEntry(t *testing.T) {
	cp := classfile.NewConstPool()
	i := cp.AddInteger(-5)
	l := cp.AddLong(1 << 40)
	nat := cp.AddNameAndType("run", "()V")

	for _, tt := range []struct {
		index uint16
		want  string
	}{
		{i, "-5"},
		{l, "1099511627776L"},
		{nat, "run:()V"},
		{cp.AddClass("p.A"), "p/A"},
	} {
		e, err := cp.Entry(int(tt.index))
		require.NoError(t, err)
		assert.Equal(t, tt.want, describeEntry(cp, e))
	}
}

func TestCheckClass(t *testing.T) {
	var buf bytes.Buffer
	output, logger = &buf, zap.NewNop()

	var stats checkStats
	checkClass("Hello.class", newHelloClass(t, 2), &stats)
	assert.Equal(t, checkStats{classes: 1, methods: 1}, stats)
	assert.Empty(t, buf.String())

	checkClass("Hello.class", newHelloClass(t, 5), &stats)
	assert.Equal(t, 1, stats.problems)
	assert.Contains(t, buf.String(), "max_stack is 5, computed 2")
}
