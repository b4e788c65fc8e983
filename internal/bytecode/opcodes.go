// Package bytecode describes JVM instructions: mnemonics, encoded lengths,
// operand-stack effects and constant-pool operands.
package bytecode

// Opcode is a JVM instruction opcode.
type Opcode uint8

// Opcodes referenced by name elsewhere.
const (
	Nop             Opcode = 0x00
	Ldc             Opcode = 0x12
	LdcW            Opcode = 0x13
	Ldc2W           Opcode = 0x14
	IfEq            Opcode = 0x99
	IfAcmpNe        Opcode = 0xa6
	Goto            Opcode = 0xa7
	Jsr             Opcode = 0xa8
	Ret             Opcode = 0xa9
	TableSwitch     Opcode = 0xaa
	LookupSwitch    Opcode = 0xab
	IReturn         Opcode = 0xac
	Return          Opcode = 0xb1
	GetStatic       Opcode = 0xb2
	PutStatic       Opcode = 0xb3
	GetField        Opcode = 0xb4
	PutField        Opcode = 0xb5
	InvokeVirtual   Opcode = 0xb6
	InvokeSpecial   Opcode = 0xb7
	InvokeStatic    Opcode = 0xb8
	InvokeInterface Opcode = 0xb9
	InvokeDynamic   Opcode = 0xba
	New             Opcode = 0xbb
	ANewArray       Opcode = 0xbd
	AThrow          Opcode = 0xbf
	CheckCast       Opcode = 0xc0
	InstanceOf      Opcode = 0xc1
	Wide            Opcode = 0xc4
	MultiANewArray  Opcode = 0xc5
	IfNull          Opcode = 0xc6
	IfNonNull       Opcode = 0xc7
	GotoW           Opcode = 0xc8
	JsrW            Opcode = 0xc9
	IInc            Opcode = 0x84
)

// Kind classifies how an instruction affects control flow and which operand
// it carries.
type Kind uint8

const (
	KindPlain   Kind = iota
	KindBranch       // s16 branch offset, falls through
	KindGoto         // s16 or s32 unconditional branch
	KindJsr          // subroutine call
	KindSwitch       // tableswitch / lookupswitch
	KindReturn       // xreturn, athrow, ret
	KindField        // field access, effect from descriptor
	KindInvoke       // method invocation, effect from descriptor
	KindMultiArray   // multianewarray
	KindWide         // wide prefix
	KindInvalid
)

// Info describes one opcode.
type Info struct {
	Name string
	// Length is the encoded size including the opcode byte, or 0 when it
	// depends on the instruction's position or operands.
	Length int
	// Stack is the net operand-stack change in slots for instructions whose
	// effect does not depend on a descriptor.
	Stack int
	Kind  Kind
	// PoolOperand is true when bytes 1..2 (1 for ldc) hold a constant-pool index.
	PoolOperand bool
}

var table [256]Info

func op(code Opcode, name string, length, stack int) {
	table[code] = Info{Name: name, Length: length, Stack: stack}
}

func init() {
	for i := range table {
		table[i] = Info{Name: "invalid", Length: 1, Kind: KindInvalid}
	}

	op(0x00, "nop", 1, 0)
	op(0x01, "aconst_null", 1, 1)
	for i, n := range []string{"iconst_m1", "iconst_0", "iconst_1", "iconst_2", "iconst_3", "iconst_4", "iconst_5"} {
		op(Opcode(0x02+i), n, 1, 1)
	}
	op(0x09, "lconst_0", 1, 2)
	op(0x0a, "lconst_1", 1, 2)
	op(0x0b, "fconst_0", 1, 1)
	op(0x0c, "fconst_1", 1, 1)
	op(0x0d, "fconst_2", 1, 1)
	op(0x0e, "dconst_0", 1, 2)
	op(0x0f, "dconst_1", 1, 2)
	op(0x10, "bipush", 2, 1)
	op(0x11, "sipush", 3, 1)
	op(Ldc, "ldc", 2, 1)
	op(LdcW, "ldc_w", 3, 1)
	op(Ldc2W, "ldc2_w", 3, 2)

	loads := []struct {
		prefix string
		slots  int
	}{{"i", 1}, {"l", 2}, {"f", 1}, {"d", 2}, {"a", 1}}
	for i, l := range loads {
		op(Opcode(0x15+i), l.prefix+"load", 2, l.slots)
		op(Opcode(0x36+i), l.prefix+"store", 2, -l.slots)
		for n := 0; n < 4; n++ {
			op(Opcode(0x1a+i*4+n), l.prefix+"load_"+string(rune('0'+n)), 1, l.slots)
			op(Opcode(0x3b+i*4+n), l.prefix+"store_"+string(rune('0'+n)), 1, -l.slots)
		}
	}

	// array loads: arrayref, index -> value
	for i, a := range []struct {
		name  string
		slots int
	}{{"iaload", 1}, {"laload", 2}, {"faload", 1}, {"daload", 2}, {"aaload", 1}, {"baload", 1}, {"caload", 1}, {"saload", 1}} {
		op(Opcode(0x2e+i), a.name, 1, a.slots-2)
	}
	// array stores: arrayref, index, value ->
	for i, a := range []struct {
		name  string
		slots int
	}{{"iastore", 1}, {"lastore", 2}, {"fastore", 1}, {"dastore", 2}, {"aastore", 1}, {"bastore", 1}, {"castore", 1}, {"sastore", 1}} {
		op(Opcode(0x4f+i), a.name, 1, -2-a.slots)
	}

	op(0x57, "pop", 1, -1)
	op(0x58, "pop2", 1, -2)
	op(0x59, "dup", 1, 1)
	op(0x5a, "dup_x1", 1, 1)
	op(0x5b, "dup_x2", 1, 1)
	op(0x5c, "dup2", 1, 2)
	op(0x5d, "dup2_x1", 1, 2)
	op(0x5e, "dup2_x2", 1, 2)
	op(0x5f, "swap", 1, 0)

	// binary arithmetic, ordered i l f d
	arith := []string{"add", "sub", "mul", "div", "rem"}
	for i, name := range arith {
		op(Opcode(0x60+i*4), "i"+name, 1, -1)
		op(Opcode(0x61+i*4), "l"+name, 1, -2)
		op(Opcode(0x62+i*4), "f"+name, 1, -1)
		op(Opcode(0x63+i*4), "d"+name, 1, -2)
	}
	op(0x74, "ineg", 1, 0)
	op(0x75, "lneg", 1, 0)
	op(0x76, "fneg", 1, 0)
	op(0x77, "dneg", 1, 0)
	op(0x78, "ishl", 1, -1)
	op(0x79, "lshl", 1, -1)
	op(0x7a, "ishr", 1, -1)
	op(0x7b, "lshr", 1, -1)
	op(0x7c, "iushr", 1, -1)
	op(0x7d, "lushr", 1, -1)
	op(0x7e, "iand", 1, -1)
	op(0x7f, "land", 1, -2)
	op(0x80, "ior", 1, -1)
	op(0x81, "lor", 1, -2)
	op(0x82, "ixor", 1, -1)
	op(0x83, "lxor", 1, -2)
	op(IInc, "iinc", 3, 0)

	op(0x85, "i2l", 1, 1)
	op(0x86, "i2f", 1, 0)
	op(0x87, "i2d", 1, 1)
	op(0x88, "l2i", 1, -1)
	op(0x89, "l2f", 1, -1)
	op(0x8a, "l2d", 1, 0)
	op(0x8b, "f2i", 1, 0)
	op(0x8c, "f2l", 1, 1)
	op(0x8d, "f2d", 1, 1)
	op(0x8e, "d2i", 1, -1)
	op(0x8f, "d2l", 1, 0)
	op(0x90, "d2f", 1, -1)
	op(0x91, "i2b", 1, 0)
	op(0x92, "i2c", 1, 0)
	op(0x93, "i2s", 1, 0)

	op(0x94, "lcmp", 1, -3)
	op(0x95, "fcmpl", 1, -1)
	op(0x96, "fcmpg", 1, -1)
	op(0x97, "dcmpl", 1, -3)
	op(0x98, "dcmpg", 1, -3)

	for i, name := range []string{"ifeq", "ifne", "iflt", "ifge", "ifgt", "ifle"} {
		branch(Opcode(0x99+i), name, -1)
	}
	for i, name := range []string{"if_icmpeq", "if_icmpne", "if_icmplt", "if_icmpge", "if_icmpgt", "if_icmple", "if_acmpeq", "if_acmpne"} {
		branch(Opcode(0x9f+i), name, -2)
	}
	table[Goto] = Info{Name: "goto", Length: 3, Kind: KindGoto}
	table[Jsr] = Info{Name: "jsr", Length: 3, Stack: 1, Kind: KindJsr}
	table[Ret] = Info{Name: "ret", Length: 2, Kind: KindReturn}
	table[TableSwitch] = Info{Name: "tableswitch", Stack: -1, Kind: KindSwitch}
	table[LookupSwitch] = Info{Name: "lookupswitch", Stack: -1, Kind: KindSwitch}

	for i, r := range []struct {
		name  string
		slots int
	}{{"ireturn", 1}, {"lreturn", 2}, {"freturn", 1}, {"dreturn", 2}, {"areturn", 1}, {"return", 0}} {
		table[Opcode(0xac+i)] = Info{Name: r.name, Length: 1, Stack: -r.slots, Kind: KindReturn}
	}

	table[GetStatic] = Info{Name: "getstatic", Length: 3, Kind: KindField, PoolOperand: true}
	table[PutStatic] = Info{Name: "putstatic", Length: 3, Kind: KindField, PoolOperand: true}
	table[GetField] = Info{Name: "getfield", Length: 3, Kind: KindField, PoolOperand: true}
	table[PutField] = Info{Name: "putfield", Length: 3, Kind: KindField, PoolOperand: true}
	table[InvokeVirtual] = Info{Name: "invokevirtual", Length: 3, Kind: KindInvoke, PoolOperand: true}
	table[InvokeSpecial] = Info{Name: "invokespecial", Length: 3, Kind: KindInvoke, PoolOperand: true}
	table[InvokeStatic] = Info{Name: "invokestatic", Length: 3, Kind: KindInvoke, PoolOperand: true}
	table[InvokeInterface] = Info{Name: "invokeinterface", Length: 5, Kind: KindInvoke, PoolOperand: true}
	table[InvokeDynamic] = Info{Name: "invokedynamic", Length: 5, Kind: KindInvoke, PoolOperand: true}

	table[New] = Info{Name: "new", Length: 3, Stack: 1, PoolOperand: true}
	op(0xbc, "newarray", 2, 0)
	table[ANewArray] = Info{Name: "anewarray", Length: 3, PoolOperand: true}
	op(0xbe, "arraylength", 1, 0)
	table[AThrow] = Info{Name: "athrow", Length: 1, Stack: -1, Kind: KindReturn}
	table[CheckCast] = Info{Name: "checkcast", Length: 3, PoolOperand: true}
	table[InstanceOf] = Info{Name: "instanceof", Length: 3, PoolOperand: true}
	op(0xc2, "monitorenter", 1, -1)
	op(0xc3, "monitorexit", 1, -1)
	table[Wide] = Info{Name: "wide", Kind: KindWide}
	table[MultiANewArray] = Info{Name: "multianewarray", Length: 4, Kind: KindMultiArray, PoolOperand: true}
	branch(IfNull, "ifnull", -1)
	branch(IfNonNull, "ifnonnull", -1)
	table[GotoW] = Info{Name: "goto_w", Length: 5, Kind: KindGoto}
	table[JsrW] = Info{Name: "jsr_w", Length: 5, Stack: 1, Kind: KindJsr}

	table[Ldc].PoolOperand = true
	table[LdcW].PoolOperand = true
	table[Ldc2W].PoolOperand = true
}

func branch(code Opcode, name string, stack int) {
	table[code] = Info{Name: name, Length: 3, Stack: stack, Kind: KindBranch}
}

// Lookup returns the description of an opcode.
func Lookup(code Opcode) Info {
	return table[code]
}

// String returns the opcode mnemonic.
func (o Opcode) String() string {
	return table[o].Name
}
