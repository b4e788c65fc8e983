package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skdltmxn/classfile-go/classfile"
)

func u16(v uint16) []byte { return []byte{byte(v >> 8), byte(v)} }

func cat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestMaxStackStraightLine(t *testing.T) {
	cp := classfile.NewConstPool()
	out := cp.AddFieldref("java/lang/System", "out", "Ljava/io/PrintStream;")
	str := cp.AddString("hello")
	printRef := cp.AddMethodref("java/io/PrintStream", "println", "(Ljava/lang/String;)V")

	code := cat(
		[]byte{0xb2}, u16(out),      // getstatic
		[]byte{0x12, byte(str)},     // ldc
		[]byte{0xb6}, u16(printRef), // invokevirtual
		[]byte{0xb1},                // return
	)
	got, err := MaxStack(cp, classfile.NewCode(cp, 0, 0, code))
	require.NoError(t, err)
	assert.Equal(t, 2, got)
}

func TestMaxStackWideValues(t *testing.T) {
	cp := classfile.NewConstPool()
	sum := cp.AddMethodref("p/A", "sum", "(JD)J")
	code := cat(
		[]byte{0x0a},           // lconst_1
		[]byte{0x0f},           // dconst_1
		[]byte{0xb8}, u16(sum), // invokestatic
		[]byte{0xad},           // lreturn
	)
	got, err := MaxStack(cp, classfile.NewCode(cp, 0, 0, code))
	require.NoError(t, err)
	assert.Equal(t, 4, got)
}

func TestMaxStackBranches(t *testing.T) {
	cp := classfile.NewConstPool()
	// iload_0; ifeq +7; iconst_1; iconst_2; iadd; ireturn; iconst_0; ireturn
	code := []byte{0x1a, 0x99, 0x00, 0x07, 0x04, 0x05, 0x60, 0xac, 0x03, 0xac}
	got, err := MaxStack(cp, classfile.NewCode(cp, 0, 1, code))
	require.NoError(t, err)
	assert.Equal(t, 2, got)
}

func TestMaxStackExceptionHandler(t *testing.T) {
	cp := classfile.NewConstPool()
	// return; handler: pop; return
	c := classfile.NewCode(cp, 0, 0, []byte{0xb1, 0x57, 0xb1})
	c.ExceptionTable = []classfile.ExceptionHandler{{StartPC: 0, EndPC: 1, HandlerPC: 1}}
	got, err := MaxStack(cp, c)
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}

func TestMaxStackFieldAccess(t *testing.T) {
	cp := classfile.NewConstPool()
	val := cp.AddFieldref("p/A", "val", "J")
	// aload_0; dup; getfield; putfield; return
	code := cat([]byte{0x2a, 0x59, 0xb4}, u16(val), []byte{0xb5}, u16(val), []byte{0xb1})
	got, err := MaxStack(cp, classfile.NewCode(cp, 0, 1, code))
	require.NoError(t, err)
	assert.Equal(t, 3, got)
}

func TestMaxStackErrors(t *testing.T) {
	cp := classfile.NewConstPool()
	tests := []struct {
		name string
		code []byte
		want error
	}{
		{"underflow", []byte{0x57, 0xb1}, ErrStackUnderflow},
		{"falls off", []byte{0x03}, ErrFallOff},
		{"mid instruction target", []byte{0xa7, 0x00, 0x01}, ErrBadTarget},
		// iconst_0; ifeq +5; iconst_0; nop; return
		{"inconsistent join", []byte{0x03, 0x99, 0x00, 0x05, 0x03, 0x00, 0xb1}, ErrInconsistentStack},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MaxStack(cp, classfile.NewCode(cp, 0, 0, tt.code))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMaxStackEmpty(t *testing.T) {
	cp := classfile.NewConstPool()
	got, err := MaxStack(cp, classfile.NewCode(cp, 0, 0, nil))
	require.NoError(t, err)
	assert.Zero(t, got)
}
