// Package analysis computes properties of method bytecode.
package analysis

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/skdltmxn/classfile-go/classfile"
	"github.com/skdltmxn/classfile-go/internal/bytecode"
)

var (
	ErrStackUnderflow    = errors.New("analysis: operand stack underflow")
	ErrInconsistentStack = errors.New("analysis: inconsistent stack depth")
	ErrBadTarget         = errors.New("analysis: branch target is not an instruction")
	ErrFallOff           = errors.New("analysis: execution falls off the end of the code")
)

type frame struct {
	pc, depth int
}

type stackWalker struct {
	cp    *classfile.ConstPool
	code  []byte
	start map[int]bool
	depth map[int]int
	work  []frame
	max   int
}

// MaxStack returns the maximum operand-stack depth reached by code. The walk
// starts at offset 0 with an empty stack and at every exception handler with
// the thrown exception on the stack.
func MaxStack(cp *classfile.ConstPool, code *classfile.CodeAttribute) (int, error) {
	w := &stackWalker{
		cp:    cp,
		code:  code.Code,
		start: make(map[int]bool),
		depth: make(map[int]int),
	}
	err := bytecode.Walk(w.code, func(in bytecode.Instruction) error {
		w.start[in.PC] = true
		return nil
	})
	if err != nil {
		return 0, err
	}
	if len(w.code) == 0 {
		return 0, nil
	}

	if err := w.push(0, 0); err != nil {
		return 0, err
	}
	for _, h := range code.ExceptionTable {
		if err := w.push(int(h.HandlerPC), 1); err != nil {
			return 0, err
		}
	}
	for len(w.work) > 0 {
		f := w.work[len(w.work)-1]
		w.work = w.work[:len(w.work)-1]
		if err := w.step(f); err != nil {
			return 0, err
		}
	}
	return w.max, nil
}

func (w *stackWalker) push(pc, depth int) error {
	if !w.start[pc] {
		return fmt.Errorf("%w: %d", ErrBadTarget, pc)
	}
	if d, seen := w.depth[pc]; seen {
		if d != depth {
			return fmt.Errorf("%w at %d: %d and %d", ErrInconsistentStack, pc, d, depth)
		}
		return nil
	}
	w.depth[pc] = depth
	w.max = max(w.max, depth)
	w.work = append(w.work, frame{pc, depth})
	return nil
}

func (w *stackWalker) step(f frame) error {
	pc := f.pc
	n, err := bytecode.Len(w.code, pc)
	if err != nil {
		return err
	}
	opc := bytecode.Opcode(w.code[pc])
	info := bytecode.Lookup(opc)

	effect, err := w.effect(pc, opc, info)
	if err != nil {
		return fmt.Errorf("%s at %d: %w", opc, pc, err)
	}
	depth := f.depth + effect
	if depth < 0 {
		return fmt.Errorf("%w: %s at %d", ErrStackUnderflow, opc, pc)
	}
	w.max = max(w.max, depth)

	targets, err := bytecode.Targets(w.code, pc)
	if err != nil {
		return err
	}
	switch info.Kind {
	case bytecode.KindReturn:
		return nil
	case bytecode.KindWide:
		if bytecode.Opcode(w.code[pc+1]) == bytecode.Ret {
			return nil
		}
	case bytecode.KindGoto, bytecode.KindSwitch:
		return w.pushAll(targets, depth)
	case bytecode.KindJsr:
		// The subroutine sees the return address; the caller resumes
		// without it.
		if err := w.pushAll(targets, depth); err != nil {
			return err
		}
		depth = f.depth
	case bytecode.KindBranch:
		if err := w.pushAll(targets, depth); err != nil {
			return err
		}
	}
	if pc+n >= len(w.code) {
		return fmt.Errorf("%w: after %s at %d", ErrFallOff, opc, pc)
	}
	return w.push(pc+n, depth)
}

func (w *stackWalker) pushAll(pcs []int, depth int) error {
	for _, pc := range pcs {
		if err := w.push(pc, depth); err != nil {
			return err
		}
	}
	return nil
}

// effect returns the net stack change of the instruction at pc.
func (w *stackWalker) effect(pc int, opc bytecode.Opcode, info bytecode.Info) (int, error) {
	switch info.Kind {
	case bytecode.KindField:
		_, _, desc, err := w.cp.MemberRef(w.u16(pc + 1))
		if err != nil {
			return 0, err
		}
		slots := classfile.FieldSlots(desc)
		switch opc {
		case bytecode.GetStatic:
			return slots, nil
		case bytecode.PutStatic:
			return -slots, nil
		case bytecode.GetField:
			return slots - 1, nil
		default:
			return -slots - 1, nil
		}

	case bytecode.KindInvoke:
		var desc string
		var err error
		receiver := 1
		switch opc {
		case bytecode.InvokeDynamic:
			_, _, desc, err = w.cp.DynamicRef(w.u16(pc + 1))
			receiver = 0
		case bytecode.InvokeStatic:
			_, _, desc, err = w.cp.MemberRef(w.u16(pc + 1))
			receiver = 0
		default:
			_, _, desc, err = w.cp.MemberRef(w.u16(pc + 1))
		}
		if err != nil {
			return 0, err
		}
		params, err := classfile.ParamSlots(desc)
		if err != nil {
			return 0, err
		}
		ret, err := classfile.ReturnSlots(desc)
		if err != nil {
			return 0, err
		}
		return ret - params - receiver, nil

	case bytecode.KindMultiArray:
		return 1 - int(w.code[pc+3]), nil

	case bytecode.KindWide:
		return bytecode.Lookup(bytecode.Opcode(w.code[pc+1])).Stack, nil
	}
	return info.Stack, nil
}

func (w *stackWalker) u16(at int) int {
	return int(binary.BigEndian.Uint16(w.code[at:]))
}
