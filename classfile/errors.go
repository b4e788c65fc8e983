// Package classfile provides a mutable model of JVM class files: a strict
// decoder and encoder, an interning constant pool, member tables that stay
// consistent when members are renamed, and class-wide rename, compaction and
// pruning.
package classfile

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	// ErrMalformedClassFile indicates the input is not a valid class file.
	ErrMalformedClassFile = errors.New("classfile: malformed class file")

	// ErrMalformedPool indicates a constant-pool index that is out of range or
	// refers to an entry of the wrong kind.
	ErrMalformedPool = errors.New("classfile: malformed constant pool")

	// ErrDuplicateMember indicates a field or method conflicts with an existing one.
	ErrDuplicateMember = errors.New("classfile: duplicate member")

	// ErrMalformedAttribute indicates an attribute body that cannot be parsed.
	ErrMalformedAttribute = errors.New("classfile: malformed attribute")

	// ErrTooLarge indicates a table that does not fit its u16 count on write.
	ErrTooLarge = errors.New("classfile: table too large")

	// ErrForeignPool indicates a member created against another class file's pool.
	ErrForeignPool = errors.New("classfile: member belongs to another constant pool")
)

// FormatError provides detailed information about decoding failures.
type FormatError struct {
	Offset  int    // Byte offset where the error was detected
	Message string // Description of the error
	Err     error  // Underlying error, if any
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("classfile: malformed class file at offset 0x%x: %s: %v",
			e.Offset, e.Message, e.Err)
	}
	return fmt.Sprintf("classfile: malformed class file at offset 0x%x: %s",
		e.Offset, e.Message)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Is reports whether target is ErrMalformedClassFile.
func (e *FormatError) Is(target error) bool { return target == ErrMalformedClassFile }

// PoolError describes a constant-pool lookup that failed.
type PoolError struct {
	Index    int // Requested index
	Expected Tag // Tag the caller needed, 0 if any tag was acceptable
	Actual   Tag // Tag found at Index, 0 if out of range or unusable
	Size     int // constant_pool_count at the time of the lookup
}

func (e *PoolError) Error() string {
	if e.Index <= 0 || e.Index >= e.Size {
		return fmt.Sprintf("classfile: constant pool index %d out of range [1, %d)", e.Index, e.Size)
	}
	if e.Actual == 0 {
		return fmt.Sprintf("classfile: constant pool index %d is an unusable slot", e.Index)
	}
	return fmt.Sprintf("classfile: constant pool index %d is %s, expected %s", e.Index, e.Actual, e.Expected)
}

// Is reports whether target is ErrMalformedPool.
func (e *PoolError) Is(target error) bool { return target == ErrMalformedPool }

// DuplicateMemberError reports a rejected field or method addition.
type DuplicateMemberError struct {
	Kind       string // "field" or "method"
	Class      string // Declaring class, dotted notation
	Name       string
	Descriptor string
}

func (e *DuplicateMemberError) Error() string {
	return fmt.Sprintf("classfile: duplicate %s: %s %s in %s", e.Kind, e.Name, e.Descriptor, e.Class)
}

// Is reports whether target is ErrDuplicateMember.
func (e *DuplicateMemberError) Is(target error) bool { return target == ErrDuplicateMember }

// AttributeError describes an attribute body that could not be parsed or copied.
type AttributeError struct {
	Name string // Attribute name
	Err  error
}

func (e *AttributeError) Error() string {
	return fmt.Sprintf("classfile: attribute %s: %v", e.Name, e.Err)
}

func (e *AttributeError) Unwrap() error { return e.Err }

// Is reports whether target is ErrMalformedAttribute.
func (e *AttributeError) Is(target error) bool { return target == ErrMalformedAttribute }
