package classfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenameDescriptor(t *testing.T) {
	tests := []struct {
		desc string
		want string
	}{
		{"Lp/A;", "Lq/B;"},
		{"[[Lp/A;", "[[Lq/B;"},
		{"(Lp/A;ILp/AA;)Lp/A;", "(Lq/B;ILp/AA;)Lq/B;"},
		{"(Lp/Lib;)V", "(Lp/Lib;)V"},
		{"()V", "()V"},
		{"I", "I"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RenameDescriptor(tt.desc, "p/A", "q/B"), tt.desc)
	}
	assert.Equal(t, "(Lp/A;)V", RenameDescriptor("(Lp/A;)V", "p/A", "p/A"))
}

func TestRenameDescriptorsOnePass(t *testing.T) {
	got := RenameDescriptors("(La;Lb;)Lc;", map[string]string{"a": "b", "b": "c"})
	assert.Equal(t, "(Lb;Lc;)Lc;", got)
}

func TestDescriptorClasses(t *testing.T) {
	var got []string
	descriptorClasses("([Ljava/lang/String;IJLp/A;)Lp/B;", func(name string) { got = append(got, name) })
	assert.Equal(t, []string{"java/lang/String", "p/A", "p/B"}, got)
}

func TestEqParamTypes(t *testing.T) {
	assert.True(t, EqParamTypes("(I)V", "(I)J"))
	assert.True(t, EqParamTypes("()V", "()Ljava/lang/Object;"))
	assert.False(t, EqParamTypes("(I)V", "(J)V"))
	assert.False(t, EqParamTypes("(I)V", "(II)V"))
	assert.False(t, EqParamTypes("I", "I"))
	assert.False(t, EqParamTypes("(I)V", "("))
	assert.False(t, EqParamTypes("", "()V"))
}

func TestSlots(t *testing.T) {
	assert.Equal(t, 2, FieldSlots("J"))
	assert.Equal(t, 2, FieldSlots("D"))
	assert.Equal(t, 1, FieldSlots("[J"))
	assert.Equal(t, 1, FieldSlots("Ljava/lang/Object;"))
	assert.Equal(t, 0, FieldSlots("V"))

	params := []struct {
		desc  string
		slots int
	}{
		{"()V", 0},
		{"(IJ)V", 3},
		{"(DLjava/lang/String;[J[[D)V", 5},
		{"(ZBCSF)V", 5},
	}
	for _, tt := range params {
		n, err := ParamSlots(tt.desc)
		require.NoError(t, err, tt.desc)
		assert.Equal(t, tt.slots, n, tt.desc)
	}
	for _, bad := range []string{"", "I", "(Ljava/lang/String", "(Q)V", "([", "(I"} {
		_, err := ParamSlots(bad)
		assert.Error(t, err, bad)
	}

	n, err := ReturnSlots("()J")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = ReturnSlots("(J)V")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	_, err = ReturnSlots("(J)")
	assert.Error(t, err)
}

func TestRenameSignature(t *testing.T) {
	renames := map[string]string{"p/A": "q/B", "p/A$In": "q/B$In"}
	tests := []struct {
		sig  string
		want string
	}{
		{"Lp/A;", "Lq/B;"},
		{"Ljava/util/List<Lp/A;>;", "Ljava/util/List<Lq/B;>;"},
		{"<T:Lp/A;>Ljava/lang/Object;Ljava/lang/Comparable<TT;>;", "<T:Lq/B;>Ljava/lang/Object;Ljava/lang/Comparable<TT;>;"},
		{"<T::Ljava/lang/Runnable;>(TT;[Lp/A;)Ljava/util/Map<+Lp/A;*>;^Lp/A;", "<T::Ljava/lang/Runnable;>(TT;[Lq/B;)Ljava/util/Map<+Lq/B;*>;^Lq/B;"},
		{"Lp/A<TT;>.In;", "Lq/B<TT;>.In;"},
		{"Lp/A$In;", "Lq/B$In;"},
	}
	for _, tt := range tests {
		got, err := RenameSignature(tt.sig, renames)
		require.NoError(t, err, tt.sig)
		assert.Equal(t, tt.want, got, tt.sig)
	}

	for _, bad := range []string{"Lp/A", "<T>V", "Ljava/util/List<Lp/A;", "Q"} {
		got, err := RenameSignature(bad, renames)
		assert.Error(t, err, bad)
		assert.Equal(t, bad, got)
	}

	same, err := RenameSignature("Lbroken", nil)
	require.NoError(t, err)
	assert.Equal(t, "Lbroken", same)
}
