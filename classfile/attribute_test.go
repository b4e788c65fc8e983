package classfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skdltmxn/classfile-go/internal/stream"
)

func TestAttributesTable(t *testing.T) {
	cp := NewConstPool()
	var attrs Attributes
	a := NewMarkerAttribute(cp, AttrDeprecated)
	b := NewSourceFileAttribute(cp, "A.java")
	attrs.Set(a)
	attrs.Set(b)

	c := NewSourceFileAttribute(cp, "B.java")
	attrs.Set(c)
	assert.Equal(t, []*Attribute{a, c}, attrs.All())
	assert.Same(t, c, attrs.Get(AttrSourceFile))

	assert.Same(t, a, attrs.Remove(AttrDeprecated))
	assert.Nil(t, attrs.Remove(AttrDeprecated))
	assert.Equal(t, 1, attrs.Len())
	assert.Nil(t, attrs.Get(AttrDeprecated))
}

func TestAttributeCopyUnknownVerbatim(t *testing.T) {
	src := NewConstPool()
	a := NewAttribute(src, "Vendor", []byte{0, 1, 2, 3})
	dst := NewConstPool()
	c, err := a.Copy(dst, map[string]string{"p/A": "p/B"})
	require.NoError(t, err)
	assert.Equal(t, "Vendor", c.Name())
	assert.Equal(t, a.Info(), c.Info())
	assert.Same(t, dst, c.ConstPool())
}

func TestAttributeCopyAnnotations(t *testing.T) {
	src := NewConstPool()
	var w stream.Writer
	w.WriteU16(1)                      // num_annotations
	w.WriteU16(src.AddUtf8("Lp/Ann;")) // type_index
	w.WriteU16(3)                      // pairs
	w.WriteU16(src.AddUtf8("value"))
	w.WriteU8('c')
	w.WriteU16(src.AddUtf8("Lp/A;"))
	w.WriteU16(src.AddUtf8("kind"))
	w.WriteU8('e')
	w.WriteU16(src.AddUtf8("Lp/Kind;"))
	w.WriteU16(src.AddUtf8("RED"))
	w.WriteU16(src.AddUtf8("list"))
	w.WriteU8('[')
	w.WriteU16(2)
	w.WriteU8('I')
	w.WriteU16(src.AddInteger(5))
	w.WriteU8('@')
	w.WriteU16(src.AddUtf8("Lp/A;"))
	w.WriteU16(0)
	a := NewAttribute(src, AttrRuntimeVisibleAnnotations, w.Bytes())

	dst := NewConstPool()
	c, err := a.Copy(dst, map[string]string{"p/A": "q/B", "p/Ann": "q/Ann"})
	require.NoError(t, err)
	require.Len(t, c.Info(), len(a.Info()))

	r := stream.NewReader(c.Info())
	u16 := func() uint16 {
		v, err := r.ReadU16()
		require.NoError(t, err)
		return v
	}
	utf8 := func() string {
		s, err := dst.Utf8(int(u16()))
		require.NoError(t, err)
		return s
	}
	assert.EqualValues(t, 1, u16())
	assert.Equal(t, "Lq/Ann;", utf8())
	assert.EqualValues(t, 3, u16())
	assert.Equal(t, "value", utf8())
	_, _ = r.ReadU8()
	assert.Equal(t, "Lq/B;", utf8())
	assert.Equal(t, "kind", utf8())
	_, _ = r.ReadU8()
	assert.Equal(t, "Lp/Kind;", utf8())
	assert.Equal(t, "RED", utf8())
	assert.Equal(t, "list", utf8())
	_, _ = r.ReadU8()
	assert.EqualValues(t, 2, u16())
	_, _ = r.ReadU8()
	v, err := dst.Integer(int(u16()))
	require.NoError(t, err)
	assert.EqualValues(t, 5, v)
	_, _ = r.ReadU8()
	assert.Equal(t, "Lq/B;", utf8())
}

func TestAttributeCopyBadElementValue(t *testing.T) {
	src := NewConstPool()
	var w stream.Writer
	w.WriteU16(1)
	w.WriteU16(src.AddUtf8("Lp/Ann;"))
	w.WriteU16(1)
	w.WriteU16(src.AddUtf8("value"))
	w.WriteU8('?')
	a := NewAttribute(src, AttrRuntimeInvisibleAnnotations, w.Bytes())

	_, err := a.Copy(NewConstPool(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedAttribute)
	assert.Contains(t, err.Error(), "element_value")
}

func TestAttributeCopyStackMap(t *testing.T) {
	src := NewConstPool()
	src.AddUtf8("padding")
	obj := src.AddClass("p/A")

	var w stream.Writer
	w.WriteU16(3)
	w.WriteU8(64) // same_locals_1_stack_item_frame
	w.WriteU8(itemObject)
	w.WriteU16(obj)
	w.WriteU8(252) // append_frame with one local
	w.WriteU16(4)
	w.WriteU8(itemUninitialized)
	w.WriteU16(0)
	w.WriteU8(255) // full_frame
	w.WriteU16(9)
	w.WriteU16(1)
	w.WriteU8(itemObject)
	w.WriteU16(obj)
	w.WriteU16(1)
	w.WriteU8(1) // integer
	a := NewAttribute(src, AttrStackMapTable, w.Bytes())

	dst := NewConstPool()
	c, err := a.Copy(dst, map[string]string{"p/A": "q/B"})
	require.NoError(t, err)
	info := c.Info()
	require.Len(t, info, len(a.Info()))

	name, err := dst.ClassNameInternal(int(info[4])<<8 | int(info[5]))
	require.NoError(t, err)
	assert.Equal(t, "q/B", name)
	name, err = dst.ClassNameInternal(int(info[18])<<8 | int(info[19]))
	require.NoError(t, err)
	assert.Equal(t, "q/B", name)

	bad := NewAttribute(src, AttrStackMapTable, []byte{0, 1, 200})
	_, err = bad.Copy(dst, nil)
	assert.ErrorIs(t, err, ErrMalformedAttribute)
}

func TestParseInnerClasses(t *testing.T) {
	cf := New("p.Outer$In", "", false)
	cp := cf.ConstPool()
	var w stream.Writer
	w.WriteU16(2)
	w.WriteU16(cf.ThisClassIndex())
	w.WriteU16(cp.AddClass("p.Outer"))
	w.WriteU16(cp.AddUtf8("In"))
	w.WriteU16(AccPublic | AccStatic)
	w.WriteU16(cp.AddClass("p.Outer$1"))
	w.WriteU16(0)
	w.WriteU16(0)
	w.WriteU16(0)
	cf.AddAttribute(NewAttribute(cp, AttrInnerClasses, w.Bytes()))

	entries, err := ParseInnerClasses(cf.Attribute(AttrInnerClasses))
	require.NoError(t, err)
	assert.Equal(t, []InnerClass{
		{Inner: "p.Outer$In", Outer: "p.Outer", Name: "In", AccessFlags: AccPublic | AccStatic},
		{Inner: "p.Outer$1"},
	}, entries)
	assert.Equal(t, int(AccPublic|AccStatic), cf.InnerAccessFlags())

	assert.Equal(t, -1, New("p.Top", "", false).InnerAccessFlags())
}

func TestParseWrongAttribute(t *testing.T) {
	cp := NewConstPool()
	a := NewSourceFileAttribute(cp, "A.java")
	_, err := ParseSignature(a)
	assert.ErrorIs(t, err, ErrMalformedAttribute)
	_, err = ParseLineNumbers(a)
	assert.ErrorIs(t, err, ErrMalformedAttribute)
}

func TestParseLineNumbers(t *testing.T) {
	cf := newScenarioClass(t)
	code, err := addHelloMethod(t, cf).Code()
	require.NoError(t, err)
	lines, err := code.LineNumbers()
	require.NoError(t, err)
	assert.Equal(t, []LineNumber{{StartPC: 0, Line: 7}}, lines)
}

func TestParseBootstrapMethods(t *testing.T) {
	cp := NewConstPool()
	handle := cp.AddMethodHandle(6, cp.AddMethodref("java/lang/invoke/LambdaMetafactory", "metafactory", "()V"))
	arg := cp.AddMethodType("()V")

	var w stream.Writer
	w.WriteU16(1)
	w.WriteU16(handle)
	w.WriteU16(1)
	w.WriteU16(arg)
	a := NewAttribute(cp, AttrBootstrapMethods, w.Bytes())

	bms, err := ParseBootstrapMethods(a)
	require.NoError(t, err)
	assert.Equal(t, []BootstrapMethod{{MethodRef: handle, Args: []uint16{arg}}}, bms)

	dst := NewConstPool()
	c, err := a.Copy(dst, nil)
	require.NoError(t, err)
	copied, err := ParseBootstrapMethods(c)
	require.NoError(t, err)
	e, err := dst.Entry(int(copied[0].MethodRef))
	require.NoError(t, err)
	assert.Equal(t, TagMethodHandle, e.Tag)
	assert.EqualValues(t, 6, e.A)
}

func TestCodeAttributeRoundTrip(t *testing.T) {
	cp := NewConstPool()
	c := NewCode(cp, 3, 2, []byte{0x03, 0xac}) // iconst_0; ireturn
	c.ExceptionTable = []ExceptionHandler{{StartPC: 0, EndPC: 1, HandlerPC: 1, CatchType: cp.AddClass("java/lang/Exception")}}
	a, err := c.Attribute()
	require.NoError(t, err)

	got, err := ParseCode(a)
	require.NoError(t, err)
	assert.Equal(t, c.MaxStack, got.MaxStack)
	assert.Equal(t, c.MaxLocals, got.MaxLocals)
	assert.Equal(t, c.Code, got.Code)
	assert.Equal(t, c.ExceptionTable, got.ExceptionTable)

	_, err = ParseCode(NewAttribute(cp, AttrCode, a.Info()[:5]))
	assert.ErrorIs(t, err, ErrMalformedAttribute)
}
