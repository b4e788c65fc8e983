package classfile

import (
	"errors"
	"strings"
)

// ObjectClass is the root class, the implicit super class of every class.
const ObjectClass = "java.lang.Object"

// Names of the two reserved initializer methods.
const (
	ConstructorName      = "<init>"
	ClassInitializerName = "<clinit>"
)

var errBadDescriptor = errors.New("malformed descriptor")

// renamer maps a slash-notation class name to its replacement.
type renamer func(name string) (string, bool)

func mapRenamer(m map[string]string) renamer {
	if len(m) == 0 {
		return nil
	}
	return func(name string) (string, bool) {
		v, ok := m[name]
		return v, ok
	}
}

// RenameDescriptor substitutes newName for every occurrence of the class
// oldName in a field or method descriptor. Names use slash notation.
func RenameDescriptor(desc, oldName, newName string) string {
	if oldName == newName {
		return desc
	}
	return RenameDescriptors(desc, map[string]string{oldName: newName})
}

// RenameDescriptors applies every substitution in renames (slash notation) to
// a field or method descriptor in one pass.
func RenameDescriptors(desc string, renames map[string]string) string {
	return renameDescriptor(desc, mapRenamer(renames))
}

func renameDescriptor(desc string, rn renamer) string {
	if rn == nil || strings.IndexByte(desc, 'L') < 0 {
		return desc
	}
	var b strings.Builder
	last := 0
	for i := 0; i < len(desc); i++ {
		if desc[i] != 'L' {
			continue
		}
		end := strings.IndexByte(desc[i:], ';')
		if end < 0 {
			break
		}
		name := desc[i+1 : i+end]
		if repl, ok := rn(name); ok {
			b.WriteString(desc[last : i+1])
			b.WriteString(repl)
			last = i + end
		}
		i += end
	}
	if last == 0 {
		return desc
	}
	b.WriteString(desc[last:])
	return b.String()
}

// descriptorClasses calls fn for every class named in a descriptor.
func descriptorClasses(desc string, fn func(string)) {
	renameDescriptor(desc, func(name string) (string, bool) {
		fn(name)
		return "", false
	})
}

// EqParamTypes reports whether two method descriptors declare the same
// parameter types. Return types are ignored.
func EqParamTypes(desc1, desc2 string) bool {
	if len(desc1) == 0 || len(desc2) == 0 || desc1[0] != '(' || desc2[0] != '(' {
		return false
	}
	i := strings.IndexByte(desc1, ')')
	if i < 0 || i >= len(desc2) {
		return false
	}
	return desc1[:i+1] == desc2[:i+1]
}

// FieldSlots returns the operand-stack size of a value of the given field
// descriptor: 2 for long and double, 0 for void, 1 otherwise.
func FieldSlots(desc string) int {
	if desc == "" {
		return 0
	}
	switch desc[0] {
	case 'J', 'D':
		return 2
	case 'V':
		return 0
	}
	return 1
}

// ParamSlots returns the number of stack slots taken by the parameters of a
// method descriptor.
func ParamSlots(desc string) (int, error) {
	if len(desc) == 0 || desc[0] != '(' {
		return 0, errBadDescriptor
	}
	slots := 0
	for i := 1; i < len(desc); {
		c := desc[i]
		if c == ')' {
			return slots, nil
		}
		arr := false
		for desc[i] == '[' {
			arr = true
			i++
			if i >= len(desc) {
				return 0, errBadDescriptor
			}
		}
		switch desc[i] {
		case 'L':
			end := strings.IndexByte(desc[i:], ';')
			if end < 0 {
				return 0, errBadDescriptor
			}
			i += end + 1
			slots++
			continue
		case 'J', 'D':
			if arr {
				slots++
			} else {
				slots += 2
			}
		case 'B', 'C', 'F', 'I', 'S', 'Z':
			slots++
		default:
			return 0, errBadDescriptor
		}
		i++
	}
	return 0, errBadDescriptor
}

// ReturnSlots returns the stack size of a method descriptor's return type.
func ReturnSlots(desc string) (int, error) {
	i := strings.IndexByte(desc, ')')
	if i < 0 || i+1 >= len(desc) {
		return 0, errBadDescriptor
	}
	return FieldSlots(desc[i+1:]), nil
}

// RenameSignature applies renames (slash notation) to a generic signature as
// found in Signature attributes. Inner class suffixes after '.' are kept.
func RenameSignature(sig string, renames map[string]string) (string, error) {
	return renameSignature(sig, mapRenamer(renames))
}

func renameSignature(sig string, rn renamer) (string, error) {
	if rn == nil {
		return sig, nil
	}
	p := sigParser{s: sig, rn: rn}
	if err := p.parse(); err != nil {
		return sig, err
	}
	return p.out.String(), nil
}

type sigParser struct {
	s   string
	i   int
	rn  renamer
	out strings.Builder
}

func (p *sigParser) peek() (byte, bool) {
	if p.i >= len(p.s) {
		return 0, false
	}
	return p.s[p.i], true
}

func (p *sigParser) emit(c byte) {
	p.out.WriteByte(c)
	p.i++
}

func (p *sigParser) parse() error {
	if c, _ := p.peek(); c == '<' {
		if err := p.formals(); err != nil {
			return err
		}
	}
	for p.i < len(p.s) {
		switch p.s[p.i] {
		case '(', ')', '^':
			p.emit(p.s[p.i])
		default:
			if err := p.typ(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *sigParser) formals() error {
	p.emit('<')
	for {
		c, ok := p.peek()
		if !ok {
			return errBadDescriptor
		}
		if c == '>' {
			p.emit('>')
			return nil
		}
		colon := strings.IndexByte(p.s[p.i:], ':')
		if colon <= 0 {
			return errBadDescriptor
		}
		p.out.WriteString(p.s[p.i : p.i+colon])
		p.i += colon
		for {
			c, ok := p.peek()
			if !ok || c != ':' {
				break
			}
			p.emit(':')
			if c, ok := p.peek(); ok && (c == 'L' || c == 'T' || c == '[') {
				if err := p.typ(); err != nil {
					return err
				}
			}
		}
	}
}

func (p *sigParser) typ() error {
	c, ok := p.peek()
	if !ok {
		return errBadDescriptor
	}
	switch c {
	case 'L':
		return p.classType()
	case 'T':
		end := strings.IndexByte(p.s[p.i:], ';')
		if end < 0 {
			return errBadDescriptor
		}
		p.out.WriteString(p.s[p.i : p.i+end+1])
		p.i += end + 1
		return nil
	case '[', '+', '-':
		p.emit(c)
		return p.typ()
	case '*', 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z', 'V':
		p.emit(c)
		return nil
	}
	return errBadDescriptor
}

func (p *sigParser) classType() error {
	p.emit('L')
	first := true
	for {
		start := p.i
		for p.i < len(p.s) && !strings.ContainsRune(";<.", rune(p.s[p.i])) {
			p.i++
		}
		if p.i >= len(p.s) {
			return errBadDescriptor
		}
		name := p.s[start:p.i]
		if repl, ok := p.rn(name); ok && first {
			name = repl
		}
		p.out.WriteString(name)
		first = false

		if p.s[p.i] == '<' {
			p.emit('<')
			for {
				c, ok := p.peek()
				if !ok {
					return errBadDescriptor
				}
				if c == '>' {
					p.emit('>')
					break
				}
				if err := p.typ(); err != nil {
					return err
				}
			}
			if p.i >= len(p.s) {
				return errBadDescriptor
			}
		}
		switch p.s[p.i] {
		case ';':
			p.emit(';')
			return nil
		case '.':
			p.emit('.')
		default:
			return errBadDescriptor
		}
	}
}
