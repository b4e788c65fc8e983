package class

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skdltmxn/classfile-go/classfile"
)

func newClass(t *testing.T, name, super string) *Class {
	t.Helper()
	c := New(classfile.New(name, super, false))
	c.SetModifiers(classfile.AccPublic)
	return c
}

func addMethod(t *testing.T, c *Class, name, desc string, mod uint16) *Method {
	t.Helper()
	m := NewMethod(c, name, desc)
	m.SetModifiers(mod)
	require.NoError(t, c.AddMethod(m))
	return m
}

func TestParseBuildsCache(t *testing.T) {
	cf := classfile.New("p.A", "", false)
	cp := cf.ConstPool()
	_, err := cf.AddMethod(classfile.NewMethod(cp, "<init>", "()V"))
	require.NoError(t, err)
	_, err = cf.AddMethod(classfile.NewMethod(cp, "<clinit>", "()V"))
	require.NoError(t, err)
	_, err = cf.AddMethod(classfile.NewMethod(cp, "run", "()V"))
	require.NoError(t, err)
	require.NoError(t, cf.AddField(classfile.NewField(cp, "x", "I")))
	data, err := cf.Bytes()
	require.NoError(t, err)

	c, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "p.A", c.Name())
	assert.Equal(t, "p", c.PackageName())
	require.Len(t, c.Methods(), 1)
	assert.Equal(t, "run", c.Methods()[0].Name())
	assert.Len(t, c.Constructors(), 2)
	assert.Len(t, c.DeclaredConstructors(), 1)
	require.NotNil(t, c.ClassInitializer())
	assert.Equal(t, "<clinit>", c.ClassInitializer().Name())
	assert.Equal(t, "A", c.Constructor("()V").Name())
	require.NotNil(t, c.Field("x"))
	assert.Equal(t, MemberKindField, c.Field("x").Kind())

	_, err = Parse(data[:10])
	assert.ErrorIs(t, err, classfile.ErrMalformedClassFile)
}

func TestRenameRekeysBothLayers(t *testing.T) {
	c := newClass(t, "p.A", "")
	m := addMethod(t, c, "run", "(Lp/A;)V", classfile.AccPublic)
	f := NewField(c, "x", "I")
	require.NoError(t, c.AddField(f))

	m.SetName("walk")
	assert.Nil(t, c.Method("run", "(Lp/A;)V"))
	assert.Same(t, m, c.Method("walk", "(Lp/A;)V"))
	assert.Same(t, m.Info(), c.ClassFile().MethodByDescriptor("walk", "(Lp/A;)V"))

	f.SetName("y")
	assert.Nil(t, c.Field("x"))
	assert.Same(t, f, c.Field("y"))
	assert.Same(t, f.Info(), c.ClassFile().Field("y"))

	require.NoError(t, c.RenameClass("p.A", "q.B"))
	assert.Equal(t, "q.B", c.Name())
	assert.Nil(t, c.Method("walk", "(Lp/A;)V"))
	assert.Same(t, m, c.Method("walk", "(Lq/B;)V"))
	assert.Same(t, m.Info(), c.ClassFile().MethodByDescriptor("walk", "(Lq/B;)V"))
}

func TestDescriptorChangeRekeys(t *testing.T) {
	c := newClass(t, "p.A", "")
	first := addMethod(t, c, "a", "()V", 0)
	second := addMethod(t, c, "b", "()V", 0)

	first.SetDescriptor("(I)V")
	assert.Nil(t, c.Method("a", "()V"))
	assert.Same(t, first, c.Method("a", "(I)V"))
	assert.Equal(t, []*Method{first, second}, c.Methods())
}

func TestBridgeReplacementReflectedInCache(t *testing.T) {
	c := newClass(t, "p.A", "")
	bridge := addMethod(t, c, "get", "()Ljava/lang/Object;", classfile.AccPublic|classfile.AccBridge|classfile.AccSynthetic)

	impl := NewMethod(c, "get", "()Ljava/lang/Object;")
	impl.SetModifiers(classfile.AccPublic)
	require.NoError(t, c.AddMethod(impl))

	assert.Equal(t, []*Method{impl}, c.Methods())
	assert.Same(t, impl, c.Method("get", "()Ljava/lang/Object;"))
	// The replaced record still matches impl by name and descriptor.
	assert.Same(t, impl, c.Where(bridge.Info()))
	assert.Same(t, impl, c.Where(impl.Info()))
	assert.Empty(t, bridge.Info().Subscribers())

	dup := NewMethod(c, "get", "()Ljava/lang/Object;")
	assert.ErrorIs(t, c.AddMethod(dup), classfile.ErrDuplicateMember)
	assert.Len(t, c.Methods(), 1)
}

func TestClassInitializerTransitions(t *testing.T) {
	c := newClass(t, "p.A", "")
	assert.Nil(t, c.ClassInitializer())

	ctor := NewConstructor(c, "()V")
	require.NoError(t, c.AddConstructor(ctor))
	assert.Nil(t, c.ClassInitializer())

	ctor.Info().SetName("<clinit>")
	assert.Same(t, ctor, c.ClassInitializer())
	assert.True(t, ctor.IsClassInitializer())
	assert.Empty(t, c.DeclaredConstructors())

	ctor.Info().SetName("<init>")
	assert.Nil(t, c.ClassInitializer())
	assert.Same(t, ctor, c.Constructor("()V"))
}

func TestMethodRenamedToInitializer(t *testing.T) {
	c := newClass(t, "p.A", "")
	m := addMethod(t, c, "setup", "()V", classfile.AccStatic)
	other := addMethod(t, c, "run", "()V", classfile.AccPublic)

	m.SetName("<clinit>")
	assert.Equal(t, []*Method{other}, c.Methods())
	assert.Nil(t, c.Method("<clinit>", "()V"))
	ci := c.ClassInitializer()
	require.NotNil(t, ci)
	assert.Same(t, m.Info(), ci.Info())
	assert.Same(t, ci, c.Where(m.Info()))
	assert.Equal(t, []*Constructor{ci}, c.Constructors())

	other.SetName("<init>")
	assert.Empty(t, c.Methods())
	ctor := c.Constructor("()V")
	require.NotNil(t, ctor)
	assert.Same(t, other.Info(), ctor.Info())

	ci.Info().SetName("setup")
	assert.Nil(t, c.ClassInitializer())
	back := c.Method("setup", "()V")
	require.NotNil(t, back)
	assert.Same(t, m.Info(), back.Info())
	assert.Equal(t, []*Constructor{ctor}, c.Constructors())

	assert.True(t, c.RemoveMethod(back))
	assert.Empty(t, c.Methods())
	assert.Empty(t, m.Info().Subscribers())
}

func TestClassFileRemovalReflectedInCache(t *testing.T) {
	c := newClass(t, "p.A", "")
	m := addMethod(t, c, "run", "()V", classfile.AccPublic)
	ctor := NewConstructor(c, "()V")
	require.NoError(t, c.AddConstructor(ctor))
	f := NewField(c, "x", "I")
	require.NoError(t, c.AddField(f))

	require.True(t, c.ClassFile().RemoveMethod(m.Info()))
	require.True(t, c.ClassFile().RemoveMethod(ctor.Info()))
	require.True(t, c.ClassFile().RemoveField(f.Info()))

	assert.Nil(t, c.Method("run", "()V"))
	assert.Empty(t, c.Methods())
	assert.Nil(t, c.Where(m.Info()))
	assert.Empty(t, c.Constructors())
	assert.Nil(t, c.Field("x"))
	assert.Empty(t, c.Fields())
	assert.Empty(t, m.Info().Subscribers())
	assert.Empty(t, f.Info().Subscribers())

	assert.False(t, c.RemoveMethod(m))
	assert.False(t, c.RemoveConstructor(ctor))
	assert.False(t, c.RemoveField(f))
}

func TestFieldRenameOntoExistingName(t *testing.T) {
	c := newClass(t, "p.A", "")
	x := NewField(c, "x", "I")
	require.NoError(t, c.AddField(x))
	y := NewField(c, "y", "J")
	require.NoError(t, c.AddField(y))

	x.SetName("y")
	assert.Equal(t, []*Field{x, y}, c.Fields())
	assert.Same(t, y, c.Field("y"))
	assert.Same(t, y.Info(), c.ClassFile().Field("y"))
	_, err := c.Bytes()
	assert.ErrorIs(t, err, classfile.ErrDuplicateMember)

	require.True(t, c.RemoveField(x))
	assert.Equal(t, []*Field{y}, c.Fields())
	assert.Equal(t, []*classfile.FieldInfo{y.Info()}, c.ClassFile().Fields())

	x = NewField(c, "x", "I")
	require.NoError(t, c.AddField(x))
	x.SetName("y")
	require.True(t, c.RemoveField(y))
	assert.Same(t, x, c.Field("y"))
	assert.Same(t, x.Info(), c.ClassFile().Field("y"))
	_, err = c.Bytes()
	assert.NoError(t, err)
}

func TestCacheBuiltAfterFieldCollision(t *testing.T) {
	cf := classfile.New("p.A", "", false)
	x := classfile.NewField(cf.ConstPool(), "x", "I")
	require.NoError(t, cf.AddField(x))
	y := classfile.NewField(cf.ConstPool(), "y", "J")
	require.NoError(t, cf.AddField(y))
	x.SetName("y")

	c := New(cf)
	require.NotNil(t, c.Field("y"))
	assert.Same(t, y, c.Field("y").Info())
	assert.Len(t, c.Fields(), 2)
}

func TestMakeClassInitializer(t *testing.T) {
	c := newClass(t, "p.A", "")
	ci, err := c.MakeClassInitializer()
	require.NoError(t, err)
	assert.Same(t, ci, c.ClassInitializer())
	assert.Equal(t, classfile.AccStatic, ci.Modifiers())
	assert.Same(t, ci.Info(), c.ClassFile().StaticInitializer())

	code, err := ci.Info().Code()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xb1}, code.Code)

	again, err := c.MakeClassInitializer()
	require.NoError(t, err)
	assert.Same(t, ci, again)
}

func TestConstructorLookups(t *testing.T) {
	c := newClass(t, "p.A", "")
	pub := NewConstructor(c, "()V")
	pub.SetModifiers(classfile.AccPublic)
	require.NoError(t, c.AddConstructor(pub))
	priv := NewConstructor(c, "(I)V")
	priv.SetModifiers(classfile.AccPrivate)
	require.NoError(t, c.AddConstructor(priv))

	assert.Equal(t, []*Constructor{pub, priv}, c.DeclaredConstructors())
	assert.Equal(t, []*Constructor{pub}, c.PublicConstructors())
	assert.Same(t, priv, c.Constructor("(I)V"))
	assert.Nil(t, c.Constructor("(J)V"))
	assert.Equal(t, "A", pub.Name())

	assert.True(t, c.RemoveConstructor(priv))
	assert.False(t, c.RemoveConstructor(priv))
	assert.Nil(t, c.Constructor("(I)V"))
	assert.Nil(t, c.ClassFile().MethodByDescriptor("<init>", "(I)V"))
}

func TestAddMemberErrors(t *testing.T) {
	a := newClass(t, "p.A", "")
	b := newClass(t, "p.B", "")

	assert.ErrorIs(t, a.AddMethod(NewMethod(b, "run", "()V")), ErrForeignMember)
	assert.ErrorIs(t, a.AddField(NewField(b, "x", "I")), ErrForeignMember)
	assert.ErrorIs(t, a.AddConstructor(NewConstructor(b, "()V")), ErrForeignMember)

	assert.ErrorIs(t, a.AddMethod(NewMethod(a, "<init>", "()V")), ErrWrongKind)
	ctor := NewConstructor(a, "()V")
	ctor.Info().SetName("run")
	assert.ErrorIs(t, a.AddConstructor(ctor), ErrWrongKind)

	require.NoError(t, a.AddField(NewField(a, "x", "I")))
	assert.ErrorIs(t, a.AddField(NewField(a, "x", "J")), classfile.ErrDuplicateMember)
	assert.Len(t, a.Fields(), 1)
}

func TestRemoveMembers(t *testing.T) {
	c := newClass(t, "p.A", "")
	m := addMethod(t, c, "run", "()V", 0)
	f := NewField(c, "x", "I")
	require.NoError(t, c.AddField(f))

	assert.True(t, c.RemoveMethod(m))
	assert.False(t, c.RemoveMethod(m))
	assert.Empty(t, c.Methods())
	assert.Empty(t, c.ClassFile().Methods())
	assert.Empty(t, m.Info().Subscribers())

	assert.True(t, c.RemoveField(f))
	assert.Nil(t, c.Field("x"))
	assert.Empty(t, c.ClassFile().Fields())

	// Renaming a removed member leaves the class untouched.
	m.SetName("walk")
	assert.Nil(t, c.Method("walk", "()V"))
}

func TestWhere(t *testing.T) {
	c := newClass(t, "p.A", "")
	m := addMethod(t, c, "run", "()V", 0)
	ctor := NewConstructor(c, "()V")
	require.NoError(t, c.AddConstructor(ctor))

	assert.Same(t, m, c.Where(m.Info()))
	assert.Same(t, ctor, c.Where(ctor.Info()))

	equal := classfile.NewMethod(c.ClassFile().ConstPool(), "run", "()V")
	assert.Same(t, m, c.Where(equal))
	equal = classfile.NewMethod(c.ClassFile().ConstPool(), "<init>", "()V")
	assert.Same(t, ctor, c.Where(equal))
	assert.Nil(t, c.Where(classfile.NewMethod(c.ClassFile().ConstPool(), "none", "()V")))
}

func TestFieldWithDescriptor(t *testing.T) {
	c := newClass(t, "p.A", "")
	f := NewField(c, "x", "I")
	require.NoError(t, c.AddField(f))

	assert.Same(t, f, c.FieldWithDescriptor("x", "I"))
	assert.Same(t, f, c.FieldWithDescriptor("x", ""))
	assert.Nil(t, c.FieldWithDescriptor("x", "J"))
	assert.Nil(t, c.FieldWithDescriptor("y", ""))
}

func TestMethodsNamed(t *testing.T) {
	c := newClass(t, "p.A", "")
	a := addMethod(t, c, "run", "()V", 0)
	b := addMethod(t, c, "run", "(I)V", 0)
	addMethod(t, c, "walk", "()V", 0)
	assert.Equal(t, []*Method{a, b}, c.MethodsNamed("run"))
	assert.Empty(t, c.MethodsNamed("fly"))
}

func TestVisibleFrom(t *testing.T) {
	base := newClass(t, "p.Base", "")
	same := newClass(t, "p.Other", "")
	sub := newClass(t, "q.Sub", "p.Base")
	stranger := newClass(t, "q.Stranger", "")

	tests := []struct {
		name string
		mod  uint16
		from *Class
		want bool
	}{
		{"public", classfile.AccPublic, stranger, true},
		{"private self", classfile.AccPrivate, base, true},
		{"private same package", classfile.AccPrivate, same, false},
		{"package same", 0, same, true},
		{"package other", 0, sub, false},
		{"protected same package", classfile.AccProtected, same, true},
		{"protected subclass", classfile.AccProtected, sub, true},
		{"protected stranger", classfile.AccProtected, stranger, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewField(base, "x", "I")
			f.SetModifiers(tt.mod)
			assert.Equal(t, tt.want, f.VisibleFrom(tt.from))
		})
	}
}

func TestConstructorNameFollowsClass(t *testing.T) {
	c := newClass(t, "p.A", "")
	ctor := NewConstructor(c, "(Lp/A;)V")
	require.NoError(t, c.AddConstructor(ctor))

	require.NoError(t, c.SetName("q.B"))
	assert.Equal(t, "B", ctor.Name())
	assert.Equal(t, "(Lq/B;)V", ctor.Descriptor())
	assert.Same(t, ctor, c.Constructor("(Lq/B;)V"))
	assert.Equal(t, "q.B.<init>(Lq/B;)V", ctor.String())
}

func TestMemberKindString(t *testing.T) {
	assert.Equal(t, "field", MemberKindField.String())
	assert.Equal(t, "method", MemberKindMethod.String())
	assert.Equal(t, "constructor", MemberKindConstructor.String())
	assert.Equal(t, "unknown", MemberKindUnknown.String())
}
