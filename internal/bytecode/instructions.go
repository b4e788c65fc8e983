package bytecode

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Errors returned while walking bytecode.
var (
	ErrTruncated     = errors.New("bytecode: truncated instruction")
	ErrInvalidOpcode = errors.New("bytecode: invalid opcode")
	ErrBadSwitch     = errors.New("bytecode: malformed switch")
)

func switchPad(pc int) int {
	return (4 - (pc+1)%4) % 4
}

func s32(code []byte, at int) int {
	return int(int32(binary.BigEndian.Uint32(code[at:])))
}

// Len returns the encoded length of the instruction at pc.
func Len(code []byte, pc int) (int, error) {
	if pc < 0 || pc >= len(code) {
		return 0, ErrTruncated
	}
	opc := Opcode(code[pc])
	info := table[opc]
	if info.Kind == KindInvalid {
		return 0, fmt.Errorf("%w: 0x%02x at %d", ErrInvalidOpcode, code[pc], pc)
	}

	var n int
	switch opc {
	case TableSwitch:
		base := pc + 1 + switchPad(pc)
		if base+12 > len(code) {
			return 0, ErrTruncated
		}
		low, high := s32(code, base+4), s32(code, base+8)
		if high < low {
			return 0, fmt.Errorf("%w: tableswitch at %d has high < low", ErrBadSwitch, pc)
		}
		n = base + 12 + 4*(high-low+1) - pc
	case LookupSwitch:
		base := pc + 1 + switchPad(pc)
		if base+8 > len(code) {
			return 0, ErrTruncated
		}
		npairs := s32(code, base+4)
		if npairs < 0 {
			return 0, fmt.Errorf("%w: lookupswitch at %d has negative pair count", ErrBadSwitch, pc)
		}
		n = base + 8 + 8*npairs - pc
	case Wide:
		if pc+1 >= len(code) {
			return 0, ErrTruncated
		}
		if Opcode(code[pc+1]) == IInc {
			n = 6
		} else {
			n = 4
		}
	default:
		n = info.Length
	}

	if pc+n > len(code) {
		return 0, ErrTruncated
	}
	return n, nil
}

// Instruction is one decoded instruction position.
type Instruction struct {
	PC     int
	Opcode Opcode
	Len    int
}

// Walk calls fn for every instruction in code, in order. It stops at the
// first error returned by fn or by decoding.
func Walk(code []byte, fn func(Instruction) error) error {
	for pc := 0; pc < len(code); {
		n, err := Len(code, pc)
		if err != nil {
			return err
		}
		if err := fn(Instruction{PC: pc, Opcode: Opcode(code[pc]), Len: n}); err != nil {
			return err
		}
		pc += n
	}
	return nil
}

// Targets returns the branch targets of the instruction at pc, excluding the
// fall-through successor.
func Targets(code []byte, pc int) ([]int, error) {
	n, err := Len(code, pc)
	if err != nil {
		return nil, err
	}
	opc := Opcode(code[pc])
	switch table[opc].Kind {
	case KindBranch, KindGoto, KindJsr:
		if opc == GotoW || opc == JsrW {
			return []int{pc + s32(code, pc+1)}, nil
		}
		return []int{pc + int(int16(binary.BigEndian.Uint16(code[pc+1:])))}, nil
	case KindSwitch:
		base := pc + 1 + switchPad(pc)
		targets := []int{pc + s32(code, base)}
		if opc == TableSwitch {
			for at := base + 12; at < pc+n; at += 4 {
				targets = append(targets, pc+s32(code, at))
			}
		} else {
			for at := base + 8; at < pc+n; at += 8 {
				targets = append(targets, pc+s32(code, at+4))
			}
		}
		return targets, nil
	}
	return nil, nil
}

// PoolIndex returns the constant-pool operand of the instruction at pc and
// its width in bytes (1 for ldc, 2 otherwise). ok is false when the
// instruction has no pool operand.
func PoolIndex(code []byte, pc int) (index uint16, width int, ok bool) {
	opc := Opcode(code[pc])
	if !table[opc].PoolOperand {
		return 0, 0, false
	}
	if opc == Ldc {
		return uint16(code[pc+1]), 1, true
	}
	return binary.BigEndian.Uint16(code[pc+1:]), 2, true
}
