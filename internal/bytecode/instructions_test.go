package bytecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	assert.Equal(t, "aload_0", Lookup(0x2a).Name)
	assert.Equal(t, "astore_3", Lookup(0x4e).Name)
	assert.Equal(t, "ddiv", Lookup(0x6f).Name)
	assert.Equal(t, "if_acmpne", Lookup(0xa6).Name)
	assert.Equal(t, "invokeinterface", InvokeInterface.String())
	assert.Equal(t, 2, Lookup(0x16).Stack, "lload pushes two slots")
	assert.Equal(t, -4, Lookup(0x50).Stack, "lastore pops four slots")
	assert.Equal(t, KindInvalid, Lookup(0xcb).Kind)
}

func TestWalkPlain(t *testing.T) {
	// aload_0; invokespecial #1; ldc #2; pop; return
	code := []byte{0x2a, 0xb7, 0x00, 0x01, 0x12, 0x02, 0x57, 0xb1}

	var pcs []int
	err := Walk(code, func(in Instruction) error {
		pcs = append(pcs, in.PC)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 4, 6, 7}, pcs)

	idx, width, ok := PoolIndex(code, 1)
	assert.True(t, ok)
	assert.Equal(t, uint16(1), idx)
	assert.Equal(t, 2, width)

	idx, width, ok = PoolIndex(code, 4)
	assert.True(t, ok)
	assert.Equal(t, uint16(2), idx)
	assert.Equal(t, 1, width)

	_, _, ok = PoolIndex(code, 0)
	assert.False(t, ok)
}

func TestTableSwitch(t *testing.T) {
	// pc 0: iconst_0; pc 1: tableswitch, pad 2, default=+20, low=0, high=1, +20, +21
	code := []byte{
		0x03,
		0xaa, 0, 0,
		0, 0, 0, 20,
		0, 0, 0, 0,
		0, 0, 0, 1,
		0, 0, 0, 20,
		0, 0, 0, 21,
	}
	n, err := Len(code, 1)
	require.NoError(t, err)
	assert.Equal(t, 23, n)

	targets, err := Targets(code, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{21, 21, 22}, targets)
}

func TestLookupSwitch(t *testing.T) {
	// pc 0: lookupswitch, pad 3, default=+16, npairs=1, (5 -> +17)
	code := []byte{
		0xab, 0, 0, 0,
		0, 0, 0, 16,
		0, 0, 0, 1,
		0, 0, 0, 5, 0, 0, 0, 17,
	}
	n, err := Len(code, 0)
	require.NoError(t, err)
	assert.Equal(t, 20, n)

	targets, err := Targets(code, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{16, 17}, targets)
}

func TestWideAndBranches(t *testing.T) {
	code := []byte{0xc4, 0x84, 0, 1, 0, 5, 0xc4, 0x15, 0, 1, 0xa7, 0xff, 0xf6}
	n, err := Len(code, 0)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	n, err = Len(code, 6)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	targets, err := Targets(code, 10)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, targets)
}

func TestTruncatedAndInvalid(t *testing.T) {
	_, err := Len([]byte{0xb7, 0x00}, 0)
	assert.ErrorIs(t, err, ErrTruncated)

	_, err = Len([]byte{0xfe}, 0)
	assert.ErrorIs(t, err, ErrInvalidOpcode)

	err = Walk([]byte{0x00, 0xff}, func(Instruction) error { return nil })
	assert.ErrorIs(t, err, ErrInvalidOpcode)
}
