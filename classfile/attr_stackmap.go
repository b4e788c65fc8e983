package classfile

import "fmt"

// Verification type tags that carry an operand.
const (
	itemObject        = 7 // u2 Class index
	itemUninitialized = 8 // u2 bytecode offset
)

// stackMapTable copies a StackMapTable body. Only Object verification types
// refer to the pool; everything else is copied as is.
func (c *copier) stackMapTable() {
	c.table16(func() {
		frame := c.u8()
		if c.err != nil {
			return
		}
		switch {
		case frame <= 63: // same_frame
		case frame <= 127: // same_locals_1_stack_item_frame
			c.verificationType()
		case frame < 247:
			c.fail(fmt.Errorf("reserved stack map frame type %d", frame))
		case frame == 247: // same_locals_1_stack_item_frame_extended
			c.u16()
			c.verificationType()
		case frame <= 251: // chop_frame, same_frame_extended
			c.u16()
		case frame <= 254: // append_frame
			c.u16()
			for i := 0; i < int(frame)-251; i++ {
				c.verificationType()
			}
		default: // full_frame
			c.u16()
			c.table16(c.verificationType)
			c.table16(c.verificationType)
		}
	})
}

func (c *copier) verificationType() {
	tag := c.u8()
	if c.err != nil {
		return
	}
	switch {
	case tag == itemObject:
		c.index()
	case tag == itemUninitialized:
		c.u16()
	case tag > itemUninitialized:
		c.fail(fmt.Errorf("unknown verification type %d", tag))
	}
}
